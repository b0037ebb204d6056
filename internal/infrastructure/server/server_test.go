package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	httpHandlers "github.com/taskboard/core/internal/adapters/http"
	"github.com/taskboard/core/internal/application/services"
	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

const testSecret = "server-test-secret"

type memoryAccounts struct {
	byID map[uuid.UUID]*entities.Account
}

func (m *memoryAccounts) Insert(_ context.Context, a *entities.Account) (int64, error) {
	m.byID[a.ID] = a
	return 1, nil
}

func (m *memoryAccounts) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	a, ok := m.byID[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memoryAccounts) GetByEmail(context.Context, string) (*entities.Account, error) {
	return nil, ports.ErrNotFound
}

func (m *memoryAccounts) Update(context.Context, uuid.UUID, ports.AccountUpdate) (int64, error) {
	return 0, errors.New("not supported")
}

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Version: "test"},
		JWT:      config.JWTConfig{Secret: testSecret, Issuer: "taskboard"},
		Auth:     config.AuthConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour, AccessCookie: "tb_access", RefreshCookie: "tb_refresh"},
		Security: config.SecurityConfig{CORSAllowedOrigins: "*"},
	}
}

func newTestServer(t *testing.T, rdb *redis.Client) (*Server, *memoryAccounts) {
	t.Helper()
	cfg := testConfig()
	log := logger.NewNop()
	accounts := &memoryAccounts{byID: map[uuid.UUID]*entities.Account{}}
	app := &App{
		Accounts: accounts,
		Auth:     services.NewAuthService(nil, accounts, nil, nil, cfg, log),
	}

	s := New(cfg, app, nil, rdb, log)
	s.echo.GET("/probe", func(c echo.Context) error {
		account := accountFrom(c)
		if account == nil {
			return errors.New("no account on context")
		}
		return c.String(http.StatusOK, account.Nickname)
	}, s.authMiddleware())
	return s, accounts
}

func signToken(t *testing.T, userID uuid.UUID, expires time.Time) string {
	t.Helper()
	claims := &services.Claims{
		Role: entities.AccountRoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) ports.Result {
	t.Helper()
	var r ports.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return r
}

func TestAuthMiddleware(t *testing.T) {
	s, accounts := newTestServer(t, nil)

	active := &entities.Account{ID: uuid.New(), Nickname: "ada", Verified: true}
	archived := &entities.Account{ID: uuid.New(), Nickname: "old", Archived: true}
	accounts.byID[active.ID] = active
	accounts.byID[archived.ID] = archived

	future := time.Now().Add(time.Hour)

	tests := []struct {
		name     string
		header   string
		cookie   string
		status   int
		code     ports.ResultCode
		nickname string
	}{
		{name: "bearer", header: "Bearer " + signToken(t, active.ID, future), status: http.StatusOK, nickname: "ada"},
		{name: "cookie", cookie: signToken(t, active.ID, future), status: http.StatusOK, nickname: "ada"},
		{name: "missing", status: http.StatusUnauthorized, code: ports.CodeNeedLogin},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized, code: ports.CodeNeedLogin},
		{name: "garbage", header: "Bearer not.a.jwt", status: http.StatusUnauthorized, code: ports.CodeNeedLogin},
		{name: "expired", header: "Bearer " + signToken(t, active.ID, time.Now().Add(-time.Minute)), status: http.StatusUnauthorized, code: ports.CodeTokenExpired},
		{name: "unknown account", header: "Bearer " + signToken(t, uuid.New(), future), status: http.StatusUnauthorized, code: ports.CodeNeedLogin},
		{name: "archived account", header: "Bearer " + signToken(t, archived.ID, future), status: http.StatusForbidden, code: ports.CodeAccessDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "tb_access", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			if tt.status == http.StatusOK {
				if rec.Body.String() != tt.nickname {
					t.Fatalf("body = %q", rec.Body.String())
				}
				return
			}
			if r := envelope(t, rec); r.Code != tt.code {
				t.Fatalf("code = %d, want %d", r.Code, tt.code)
			}
		})
	}
}

func TestErrorHandlerRendersEnvelope(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.echo.GET("/boom", func(echo.Context) error { return errors.New("disk on fire") })
	s.echo.GET("/gone", func(echo.Context) error { return httpHandlers.Fail(entities.ErrBoardNotFound) })

	tests := []struct {
		path    string
		status  int
		code    ports.ResultCode
		message string
	}{
		{"/boom", http.StatusInternalServerError, ports.CodeError, http.StatusText(http.StatusInternalServerError)},
		{"/gone", http.StatusNotFound, ports.CodeNotFound, entities.ErrBoardNotFound.Message},
		{"/no-such-route", http.StatusNotFound, ports.CodeNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.status {
				t.Fatalf("status = %d", rec.Code)
			}
			r := envelope(t, rec)
			if r.Code != tt.code {
				t.Fatalf("code = %d, want %d", r.Code, tt.code)
			}
			if tt.message != "" && r.Message != tt.message {
				t.Fatalf("message = %q", r.Message)
			}
		})
	}
}

func TestReadinessChecksRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	s, _ := newTestServer(t, rdb)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d: %s", rec.Code, rec.Body.String())
	}

	mr.Close()
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status after redis stop = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
