package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

const testPassword = "hunter2hunter2"

func register(t *testing.T, env *testEnv, email string) uuid.UUID {
	t.Helper()
	res, err := env.auth.Register(context.Background(), ports.RegisterRequest{
		Email:    email,
		Password: testPassword,
		Nickname: "Tester",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return res.Data["accountId"].(uuid.UUID)
}

func activationToken(t *testing.T, body string) string {
	t.Helper()
	_, token, ok := strings.Cut(body, "token=")
	if !ok {
		t.Fatalf("no token in mail body: %q", body)
	}
	return strings.TrimSpace(token)
}

func TestRegisterVerifyLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := register(t, env, "  New.User@Example.com ")

	account := env.db.accounts[id]
	if account.Email != "new.user@example.com" || account.Verified {
		t.Fatalf("stored account = %+v", account)
	}
	if account.PasswordHash == testPassword {
		t.Fatal("password stored in clear")
	}

	mail := env.mailer.last(t)
	if mail.to != "new.user@example.com" {
		t.Fatalf("mail sent to %q", mail.to)
	}
	if !strings.Contains(mail.body, "http://boards.test/api/v1/auth/verify?token=") {
		t.Fatalf("mail body missing link: %q", mail.body)
	}
	token := activationToken(t, mail.body)
	if len(token) != 48 {
		t.Fatalf("token length = %d, want 48", len(token))
	}

	_, err := env.auth.Login(ctx, ports.LoginRequest{Email: "new.user@example.com", Password: testPassword})
	if !errors.Is(err, entities.ErrEmailNotVerified) {
		t.Fatalf("login before verify: got %v, want ErrEmailNotVerified", err)
	}

	if _, err := env.auth.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if _, err := env.auth.VerifyEmail(ctx, token); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("token reuse: got %v, want ErrTokenInvalid", err)
	}

	resp, err := env.auth.Login(ctx, ports.LoginRequest{Email: "NEW.USER@example.com", Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.TokenType != "Bearer" || resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("response = %+v", resp)
	}
	if resp.ExpiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("expires_in = %d", resp.ExpiresIn)
	}

	claims, err := env.auth.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != id || claims.Email != "new.user@example.com" || claims.Role != entities.AccountRoleUser {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "taken@example.com")

	tests := []struct {
		name string
		req  ports.RegisterRequest
		kind entities.Kind
	}{
		{"bad email", ports.RegisterRequest{Email: "nope", Password: testPassword, Nickname: "x"}, entities.KindValidation},
		{"short password", ports.RegisterRequest{Email: "a@example.com", Password: "abc1", Nickname: "x"}, entities.KindValidation},
		{"password without digit", ports.RegisterRequest{Email: "a@example.com", Password: "abcdefghij", Nickname: "x"}, entities.KindValidation},
		{"blank nickname", ports.RegisterRequest{Email: "a@example.com", Password: testPassword, Nickname: " "}, entities.KindValidation},
		{"email taken", ports.RegisterRequest{Email: "Taken@example.com", Password: testPassword, Nickname: "x"}, entities.KindInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			wantKind(t, err, tt.kind)
		})
	}
	if len(env.db.accounts) != 1 {
		t.Fatalf("accounts = %d, want 1", len(env.db.accounts))
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := register(t, env, "user@example.com")

	if _, err := env.auth.Login(ctx, ports.LoginRequest{Email: "ghost@example.com", Password: testPassword}); !errors.Is(err, entities.ErrBadCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}
	if _, err := env.auth.Login(ctx, ports.LoginRequest{Email: "user@example.com", Password: "wrong-password1"}); !errors.Is(err, entities.ErrBadCredentials) {
		t.Fatalf("bad password: got %v", err)
	}

	a := env.db.accounts[id]
	a.Verified = true
	a.Archived = true
	env.db.accounts[id] = a
	if _, err := env.auth.Login(ctx, ports.LoginRequest{Email: "user@example.com", Password: testPassword}); !errors.Is(err, entities.ErrAccountArchived) {
		t.Fatalf("archived: got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	env := newTestEnv(t)
	register(t, env, "late@example.com")
	token := activationToken(t, env.mailer.last(t).body)

	env.auth.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, err := env.auth.VerifyEmail(context.Background(), token); !errors.Is(err, entities.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestResendVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	register(t, env, "again@example.com")
	first := activationToken(t, env.mailer.last(t).body)

	if _, err := env.auth.ResendVerification(ctx, "again@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	if got := activationToken(t, env.mailer.last(t).body); got != first {
		t.Fatalf("live token not reused: %q != %q", got, first)
	}

	env.auth.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := env.auth.ResendVerification(ctx, "again@example.com"); err != nil {
		t.Fatalf("ResendVerification after expiry: %v", err)
	}
	fresh := activationToken(t, env.mailer.last(t).body)
	if fresh == first {
		t.Fatal("expired token resent")
	}
	if _, ok := env.db.activation[first]; ok {
		t.Fatal("expired token kept")
	}

	if _, err := env.auth.VerifyEmail(ctx, fresh); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if _, err := env.auth.ResendVerification(ctx, "again@example.com"); !errors.Is(err, entities.ErrAlreadyVerified) {
		t.Fatalf("verified resend: got %v, want ErrAlreadyVerified", err)
	}
	if _, err := env.auth.ResendVerification(ctx, "nobody@example.com"); !errors.Is(err, entities.ErrAccountNotFound) {
		t.Fatalf("unknown resend: got %v, want ErrAccountNotFound", err)
	}
}

func verifiedLogin(t *testing.T, env *testEnv, email string) *ports.AuthResponse {
	t.Helper()
	register(t, env, email)
	if _, err := env.auth.VerifyEmail(context.Background(), activationToken(t, env.mailer.last(t).body)); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	resp, err := env.auth.Login(context.Background(), ports.LoginRequest{Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return resp
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	login := verifiedLogin(t, env, "rotate@example.com")

	refreshed, err := env.auth.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh token not rotated")
	}
	if _, err := env.auth.Refresh(ctx, login.RefreshToken); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("old token reuse: got %v, want ErrTokenInvalid", err)
	}

	if err := env.auth.Logout(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := env.auth.Logout(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if _, err := env.auth.Refresh(ctx, refreshed.RefreshToken); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("refresh after logout: got %v", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	env := newTestEnv(t)
	login := verifiedLogin(t, env, "old@example.com")

	env.auth.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := env.auth.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, entities.ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestValidateAccessToken(t *testing.T) {
	env := newTestEnv(t)
	login := verifiedLogin(t, env, "jwt@example.com")

	if _, err := env.auth.ValidateAccessToken("not.a.jwt"); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("garbage: got %v", err)
	}

	other := NewAuthService(env.db, fakeAccounts{env.db}, fakeAuth{env.db}, env.mailer, testConfig(), logger.NewNop())
	other.jwtConfig.Secret = "another-secret"
	if _, err := other.ValidateAccessToken(login.AccessToken); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("wrong secret: got %v", err)
	}

	env.auth.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if _, err := env.auth.ValidateAccessToken(login.AccessToken); !errors.Is(err, entities.ErrTokenExpired) {
		t.Fatalf("expired: got %v, want ErrTokenExpired", err)
	}
}

func TestCleanupExpiredTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	login := verifiedLogin(t, env, "clean@example.com")
	register(t, env, "pending@example.com")

	refresh, activation, err := env.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredTokens: %v", err)
	}
	if refresh != 0 || activation != 0 {
		t.Fatalf("live tokens deleted: %d refresh, %d activation", refresh, activation)
	}

	env.auth.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	refresh, activation, err = env.auth.CleanupExpiredTokens(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredTokens: %v", err)
	}
	if refresh != 1 || activation != 1 {
		t.Fatalf("deleted %d refresh, %d activation, want 1 and 1", refresh, activation)
	}
	if _, ok := env.db.refresh[hashToken(login.RefreshToken)]; ok {
		t.Fatal("expired refresh token kept")
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	login := verifiedLogin(t, env, "pw@example.com")
	user := login.Account

	_, err := env.accounts.ChangePassword(ctx, ports.ChangePasswordRequest{OldPassword: "wrong-one1", NewPassword: "newpassword9"}, user)
	if !errors.Is(err, entities.ErrBadCredentials) {
		t.Fatalf("wrong old password: got %v", err)
	}
	_, err = env.accounts.ChangePassword(ctx, ports.ChangePasswordRequest{OldPassword: testPassword, NewPassword: testPassword}, user)
	if !errors.Is(err, entities.ErrNoChange) {
		t.Fatalf("same password: got %v", err)
	}
	_, err = env.accounts.ChangePassword(ctx, ports.ChangePasswordRequest{OldPassword: testPassword, NewPassword: "short"}, user)
	wantKind(t, err, entities.KindValidation)

	if _, err := env.accounts.ChangePassword(ctx, ports.ChangePasswordRequest{OldPassword: testPassword, NewPassword: "newpassword9"}, user); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := env.auth.Refresh(ctx, login.RefreshToken); !errors.Is(err, entities.ErrTokenInvalid) {
		t.Fatalf("session survived password change: %v", err)
	}
	if _, err := env.auth.Login(ctx, ports.LoginRequest{Email: "pw@example.com", Password: "newpassword9"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "Alice")

	_, err := env.accounts.UpdateProfile(ctx, ports.UpdateProfileRequest{}, alice)
	wantKind(t, err, entities.KindValidation)

	if _, err := env.accounts.UpdateProfile(ctx, ports.UpdateProfileRequest{Nickname: ptr("Ally"), Avatar: ptr("https://img.test/a.png")}, alice); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, err := env.accounts.Profile(ctx, alice)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.Nickname != "Ally" || got.Avatar == nil || *got.Avatar != "https://img.test/a.png" {
		t.Fatalf("profile = %+v", got)
	}
}
