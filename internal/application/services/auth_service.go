package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// activationTokenBytes yields a 48 character hex token.
const activationTokenBytes = 24

// Claims represents the JWT claims
type Claims struct {
	Email string               `json:"email"`
	Role  entities.AccountRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthService handles registration, email verification and token issuance
type AuthService struct {
	tx        ports.Transactor
	accounts  ports.AccountRepository
	authRepo  ports.AuthRepository
	mailer    ports.Mailer
	validate  *validator.Validate
	jwtConfig config.JWTConfig
	auth      config.AuthConfig
	baseURL   string
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(tx ports.Transactor, accounts ports.AccountRepository, authRepo ports.AuthRepository, mailer ports.Mailer, cfg *config.Config, logger *logger.Logger) *AuthService {
	return &AuthService{
		tx:        tx,
		accounts:  accounts,
		authRepo:  authRepo,
		mailer:    mailer,
		validate:  validator.New(),
		jwtConfig: cfg.JWT,
		auth:      cfg.Auth,
		baseURL:   strings.TrimRight(cfg.App.BaseURL, "/"),
		logger:    logger.WithComponent("auth_service"),
		now:       time.Now,
	}
}

// Register creates an unverified account and mails its activation link
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.Result, error) {
	email, err := s.normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	nickname, err := validateTitle("Nickname", req.Nickname, entities.MaxNicknameLength)
	if err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &entities.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		Role:         entities.AccountRoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var token *entities.ActivationToken
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.accounts.GetByEmail(ctx, email)
		if err == nil {
			return entities.ErrEmailTaken
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("check email: %w", err)
		}

		if err := expectOneRow(s.accounts.Insert(ctx, account)); err != nil {
			return err
		}

		token, err = s.newActivationToken(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Account registered", "user_id", account.ID)
	s.sendActivation(ctx, account, token)

	return ports.Success("Account created, check your email to activate it").With("accountId", account.ID), nil
}

// VerifyEmail marks the token's account verified and consumes the token
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*ports.Result, error) {
	if token == "" {
		return nil, entities.ErrTokenInvalid
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.authRepo.GetActivationToken(ctx, token)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return entities.ErrTokenInvalid
			}
			return fmt.Errorf("load activation token: %w", err)
		}
		if s.now().After(stored.ExpiresAt) {
			return entities.ErrTokenExpired
		}

		verified := true
		if err := expectOneRow(s.accounts.Update(ctx, stored.UserID, ports.AccountUpdate{Verified: &verified})); err != nil {
			return err
		}
		return s.authRepo.DeleteActivationToken(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	return ports.Success("Email verified"), nil
}

// ResendVerification mails the activation link again, reusing a live token
func (s *AuthService) ResendVerification(ctx context.Context, email string) (*ports.Result, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	var (
		account *entities.Account
		token   *entities.ActivationToken
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		account, err = s.accounts.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return entities.ErrAccountNotFound
			}
			return fmt.Errorf("load account: %w", err)
		}
		if account.Verified {
			return entities.ErrAlreadyVerified
		}

		token, err = s.authRepo.GetActivationTokenByUser(ctx, account.ID)
		switch {
		case err == nil && !s.now().After(token.ExpiresAt):
			return nil
		case err == nil:
			if err := s.authRepo.DeleteActivationToken(ctx, token.Token); err != nil {
				return err
			}
		case !errors.Is(err, ports.ErrNotFound):
			return fmt.Errorf("load activation token: %w", err)
		}

		token, err = s.newActivationToken(ctx, account.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sendActivation(ctx, account, token)

	return ports.Success("Activation email sent"), nil
}

// Login authenticates with email and password and issues tokens
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Warnw("Login attempt with unknown email", "email", email)
			return nil, entities.ErrBadCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warnw("Login attempt with invalid password", "user_id", account.ID)
		return nil, entities.ErrBadCredentials
	}
	if account.Archived {
		return nil, entities.ErrAccountArchived
	}
	if s.auth.RequireVerified && !account.Verified {
		return nil, entities.ErrEmailNotVerified
	}

	resp, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("User logged in", "user_id", account.ID)
	return resp, nil
}

// Refresh rotates a refresh token and issues a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	if refreshToken == "" {
		return nil, entities.ErrTokenInvalid
	}
	tokenHash := hashToken(refreshToken)

	var resp *ports.AuthResponse
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stored, err := s.authRepo.GetRefreshToken(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return entities.ErrTokenInvalid
			}
			return fmt.Errorf("load refresh token: %w", err)
		}
		if s.now().After(stored.ExpiresAt) {
			return entities.ErrTokenExpired
		}

		account, err := s.accounts.GetByID(ctx, stored.UserID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return entities.ErrTokenInvalid
			}
			return fmt.Errorf("load account: %w", err)
		}
		if account.Archived {
			return entities.ErrAccountArchived
		}

		if err := s.authRepo.DeleteRefreshToken(ctx, tokenHash); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		resp, err = s.issueTokens(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.authRepo.DeleteRefreshToken(ctx, hashToken(refreshToken))
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// ValidateAccessToken validates a JWT token and returns claims
func (s *AuthService) ValidateAccessToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, entities.ErrTokenExpired
		}
		return nil, entities.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, entities.ErrTokenInvalid
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, entities.ErrTokenInvalid
	}

	return &ports.Claims{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}

// CleanupExpiredTokens deletes expired refresh and activation tokens
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (refresh, activation int64, err error) {
	now := s.now()
	refresh, err = s.authRepo.DeleteExpiredRefreshTokens(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	activation, err = s.authRepo.DeleteExpiredActivationTokens(ctx, now)
	if err != nil {
		return refresh, 0, fmt.Errorf("delete expired activation tokens: %w", err)
	}
	return refresh, activation, nil
}

// HashPassword hashes a password with the configured bcrypt cost
func (s *AuthService) HashPassword(password string) (string, error) {
	if err := validatePassword(password); err != nil {
		return "", err
	}
	return s.hashPassword(password)
}

func (s *AuthService) hashPassword(password string) (string, error) {
	cost := s.auth.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=254"); err != nil {
		return "", entities.Validation("Invalid email address")
	}
	return email, nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *entities.Account) (*ports.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(account)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateRefreshToken(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResponse{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		ExpiresIn:        int64(s.auth.AccessTTL.Seconds()),
		RefreshExpiresIn: int64(s.auth.RefreshTTL.Seconds()),
		Account:          account,
	}, nil
}

func (s *AuthService) generateAccessToken(account *entities.Account) (string, error) {
	now := s.now()
	claims := &Claims{
		Email: account.Email,
		Role:  account.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.auth.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.jwtConfig.Issuer,
			Subject:   account.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()

	err := s.authRepo.CreateRefreshToken(ctx, &entities.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: s.now().Add(s.auth.RefreshTTL),
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return token, nil
}

func (s *AuthService) newActivationToken(ctx context.Context, userID uuid.UUID) (*entities.ActivationToken, error) {
	buf := make([]byte, activationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate activation token: %w", err)
	}

	token := &entities.ActivationToken{
		Token:     hex.EncodeToString(buf),
		UserID:    userID,
		ExpiresAt: s.now().Add(s.auth.ActivationTTL),
		CreatedAt: s.now(),
	}
	if err := s.authRepo.CreateActivationToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store activation token: %w", err)
	}
	return token, nil
}

// sendActivation mails the link. Failures are logged; the user can ask for a resend.
func (s *AuthService) sendActivation(ctx context.Context, account *entities.Account, token *entities.ActivationToken) {
	link := fmt.Sprintf("%s/api/v1/auth/verify?token=%s", s.baseURL, token.Token)
	body := fmt.Sprintf("Hi %s,\n\nConfirm your email address by opening the link below. It expires on %s.\n\n%s\n",
		account.Nickname, token.ExpiresAt.UTC().Format(time.RFC1123), link)

	if err := s.mailer.Send(ctx, account.Email, "Activate your account", body); err != nil {
		s.logger.Errorw("Failed to send activation email", "user_id", account.ID, "error", err)
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
