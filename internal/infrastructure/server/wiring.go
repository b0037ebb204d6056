package server

import (
	"github.com/redis/go-redis/v9"

	"github.com/taskboard/core/internal/adapters/cache"
	"github.com/taskboard/core/internal/adapters/email"
	"github.com/taskboard/core/internal/adapters/repository"
	"github.com/taskboard/core/internal/application/services"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// App holds the wired repositories and services shared by the HTTP server
// and the CLI commands.
type App struct {
	Accounts ports.AccountRepository

	Auth    *services.AuthService
	Account *services.AccountService
	Boards  *services.BoardService
	Members *services.MemberService
	Lists   *services.ListService
	Cards   *services.CardService
	Cleaner *services.TokenCleaner
}

// NewApp builds the repositories, puts the Redis caches in front of accounts,
// boards and memberships when enabled, and wires the services. rdb may be nil.
func NewApp(cfg *config.Config, db *database.DB, rdb *redis.Client, log *logger.Logger) *App {
	var (
		accounts ports.AccountRepository    = repository.NewAccountRepository(db)
		boards   ports.BoardRepository      = repository.NewBoardRepository(db)
		members  ports.MembershipRepository = repository.NewMembershipRepository(db)
		lists    ports.TaskListRepository   = repository.NewTaskListRepository(db)
		cards    ports.CardRepository       = repository.NewCardRepository(db)
		authRepo ports.AuthRepository       = repository.NewAuthRepository(db)
	)

	if cfg.Cache.Enabled && rdb != nil {
		accounts = cache.NewAccountCache(accounts, rdb, cfg.Cache.AccountTTL, log)
		boards = cache.NewBoardCache(boards, rdb, cfg.Cache.BoardTTL, log)
		members = cache.NewMembershipCache(members, rdb, cfg.Cache.MembershipTTL, log)
	}

	resolver := services.NewPathResolver(boards, members, lists, cards)
	auth := services.NewAuthService(db, accounts, authRepo, email.New(cfg.SMTP, log), cfg, log)

	return &App{
		Accounts: accounts,
		Auth:     auth,
		Account:  services.NewAccountService(accounts, authRepo, auth, log),
		Boards:   services.NewBoardService(db, resolver, boards, members, lists, log),
		Members:  services.NewMemberService(db, resolver, accounts, members, log),
		Lists:    services.NewListService(db, resolver, lists, cards, log),
		Cards:    services.NewCardService(db, resolver, cards, log),
		Cleaner:  services.NewTokenCleaner(auth, cfg.Auth.CleanupInterval, log),
	}
}
