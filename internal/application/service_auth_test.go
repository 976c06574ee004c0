package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/posturehq/auth-service/internal/domain"
)

func TestLoginIssuesSessionAndAccessToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat.doe@corp.example", "str0ng-horse-battery")

	res, err := env.svc.Login(context.Background(), "Pat.Doe@corp.example ", "str0ng-horse-battery", false, ClientMeta{IPAddress: "10.0.0.9"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if res.RefreshToken != "" {
		t.Fatalf("expected no refresh token without remember me, got %q", res.RefreshToken)
	}
	if !res.RefreshExpiresAt.IsZero() {
		t.Fatalf("expected zero refresh expiry without remember me, got %v", res.RefreshExpiresAt)
	}
	if res.ExpiresInMinutes != 15 {
		t.Fatalf("expected expiresIn 15, got %d", res.ExpiresInMinutes)
	}
	if res.User.Email != "pat.doe@corp.example" || res.User.Name != "Pat Doe" {
		t.Fatalf("unexpected user summary: %+v", res.User)
	}

	sessions := env.sessions.byUser(user.UserID)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	sess := sessions[0]
	if sess.AccessTokenHash == res.AccessToken {
		t.Fatal("session must not store token plaintext")
	}
	if sess.HasRefreshToken() {
		t.Fatal("expected no refresh credential on session")
	}
	if want := env.now.Add(15 * time.Minute); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, sess.ExpiresAt)
	}
	if sess.LoginMethod != domain.LoginMethodLocal {
		t.Fatalf("expected local login method, got %s", sess.LoginMethod)
	}

	stored, err := env.users.GetByID(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if stored.LastLogin == nil || !stored.LastLogin.Equal(env.now) {
		t.Fatalf("expected last login %v, got %v", env.now, stored.LastLogin)
	}
}

func TestLoginRememberMeIssuesRefreshTokenAndLongExpiry(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	res, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.RefreshToken == "" {
		t.Fatal("expected refresh token with remember me")
	}
	if res.ExpiresInMinutes != 15 {
		t.Fatalf("expiresIn reports the access lifetime, got %d", res.ExpiresInMinutes)
	}
	if want := env.now.Add(7 * 24 * time.Hour); !res.RefreshExpiresAt.Equal(want) {
		t.Fatalf("expected refresh expiry %v, got %v", want, res.RefreshExpiresAt)
	}

	sess := env.sessions.byUser(user.UserID)[0]
	if !sess.HasRefreshToken() {
		t.Fatal("expected refresh credential on session")
	}
	if want := env.now.Add(7 * 24 * time.Hour); !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expected refresh-lifetime expiry %v, got %v", want, sess.ExpiresAt)
	}
}

func TestSecondLoginInvalidatesFirstSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	first, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if got := len(env.sessions.byUser(user.UserID)); got != 1 {
		t.Fatalf("expected exactly one live session, got %d", got)
	}
	if _, err := env.svc.sessions.FindByAccessToken(context.Background(), first.AccessToken); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("first access token should be dead, got %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("first refresh token should be dead, got %v", err)
	}
	if _, err := env.svc.sessions.FindByAccessToken(context.Background(), second.AccessToken); err != nil {
		t.Fatalf("second access token should resolve: %v", err)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("known@corp.example", "str0ng-horse-battery")
	env.users.add(domain.User{
		Email:       "sso-only@corp.example",
		SSOProvider: "okta",
		Status:      domain.UserStatusActive,
	})
	env.users.add(domain.User{
		Email:        "inactive@corp.example",
		PasswordHash: "pw:str0ng-horse-battery",
		Status:       domain.UserStatusInactive,
	})

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@corp.example", "whatever-pass"},
		{"wrong password", "known@corp.example", "wrong-pass"},
		{"sso only account", "sso-only@corp.example", "any-pass"},
		{"inactive account", "inactive@corp.example", "str0ng-horse-battery"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Login(context.Background(), tc.email, tc.password, false, ClientMeta{})
			if !errors.Is(err, domain.ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginLocksOutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	for i := 0; i < 5; i++ {
		if _, err := env.svc.Login(context.Background(), "pat@corp.example", "bad-pass", false, ClientMeta{}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", false, ClientMeta{}); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}

	env.advance(31 * time.Minute)
	if _, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", false, ClientMeta{}); err != nil {
		t.Fatalf("login after lockout window: %v", err)
	}
}

func TestLoginRejectsMalformedEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	for _, email := range []string{"", "   ", "not-an-email", "two@at@signs"} {
		if _, err := env.svc.Login(context.Background(), email, "whatever-pass", false, ClientMeta{}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("email %q: expected ErrInvalidInput, got %v", email, err)
		}
	}
}

func TestRefreshRotatesAccessTokenOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	originalExpiry := env.sessions.byUser(user.UserID)[0].ExpiresAt

	seen := map[string]bool{login.AccessToken: true}
	for i := 0; i < 3; i++ {
		res, err := env.svc.Refresh(context.Background(), login.RefreshToken)
		if err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
		if seen[res.AccessToken] {
			t.Fatalf("refresh %d returned a repeated access token", i)
		}
		seen[res.AccessToken] = true
		if res.ExpiresInMinutes != 15 {
			t.Fatalf("refresh %d: expected expiresIn 15, got %d", i, res.ExpiresInMinutes)
		}
	}

	sess := env.sessions.byUser(user.UserID)[0]
	if !sess.ExpiresAt.Equal(originalExpiry) {
		t.Fatalf("refresh must not extend expiry: had %v, got %v", originalExpiry, sess.ExpiresAt)
	}
	// The same refresh token keeps working after every rotation.
	if _, err := env.svc.Refresh(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("refresh after rotations: %v", err)
	}
}

func TestRefreshRejectsMissingAndUnknownTokens(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	if _, err := env.svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken, got %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), "token-never-issued"); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
}

func TestRefreshAfterExpiryFailsAndReapsSession(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	env.advance(7*24*time.Hour + time.Second)
	if _, err := env.svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if got := env.sessions.count(); got != 0 {
		t.Fatalf("expected expired session reaped, %d rows remain", got)
	}
}

func TestLogoutDeletesSessionAndReportsMethod(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	res, err := env.svc.Logout(context.Background(), login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if res.LoginMethod != domain.LoginMethodLocal {
		t.Fatalf("expected local method, got %s", res.LoginMethod)
	}
	if got := len(env.sessions.byUser(user.UserID)); got != 0 {
		t.Fatalf("expected no sessions after logout, got %d", got)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", false, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.svc.Logout(context.Background(), login.AccessToken, ""); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	res, err := env.svc.Logout(context.Background(), login.AccessToken, "")
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if res.LoginMethod != domain.LoginMethodLocal {
		t.Fatalf("logout with dead token defaults to local, got %s", res.LoginMethod)
	}
	if _, err := env.svc.Logout(context.Background(), "", ""); err != nil {
		t.Fatalf("logout without tokens: %v", err)
	}
}

func TestLogoutFallsBackToRefreshToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	user := env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := env.svc.Logout(context.Background(), "token-never-issued", login.RefreshToken); err != nil {
		t.Fatalf("logout via refresh token: %v", err)
	}
	if got := len(env.sessions.byUser(user.UserID)); got != 0 {
		t.Fatalf("expected no sessions, got %d", got)
	}
}

func TestStoreFailuresSurfaceAsStoreUnavailable(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("pat@corp.example", "str0ng-horse-battery")
	env.sessions.replaceErr = errors.New("connection refused")

	if _, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", false, ClientMeta{}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}

	env.sessions.replaceErr = nil
	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", true, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	env.sessions.listErr = errors.New("connection refused")
	if _, err := env.svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on refresh, got %v", err)
	}
	if _, err := env.svc.Logout(context.Background(), login.AccessToken, ""); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable on logout, got %v", err)
	}
}

func TestAuthenticateResolvesUserFromAccessToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.addLocalUser("pat@corp.example", "str0ng-horse-battery")

	login, err := env.svc.Login(context.Background(), "pat@corp.example", "str0ng-horse-battery", false, ClientMeta{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	user, err := env.svc.Authenticate(context.Background(), login.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if user.Email != "pat@corp.example" {
		t.Fatalf("unexpected user: %+v", user)
	}

	env.advance(16 * time.Minute)
	if _, err := env.svc.Authenticate(context.Background(), login.AccessToken); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken after expiry, got %v", err)
	}
	if _, err := env.svc.Authenticate(context.Background(), ""); !errors.Is(err, domain.ErrInvalidOrExpiredToken) {
		t.Fatalf("expected ErrInvalidOrExpiredToken for empty token, got %v", err)
	}
}
