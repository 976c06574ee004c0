package application

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/posturehq/auth-service/internal/domain"
	"github.com/posturehq/auth-service/internal/ports"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]domain.User
	byID    map[uuid.UUID]domain.User

	createErr error
	touchErr  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byEmail: map[string]domain.User{},
		byID:    map[uuid.UUID]domain.User{},
	}
}

func (f *fakeUsers) add(u domain.User) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.UserID == uuid.Nil {
		u.UserID = uuid.New()
	}
	f.byEmail[u.Email] = u
	f.byID[u.UserID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, params ports.CreateUserParams) (domain.User, error) {
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	f.mu.Lock()
	_, exists := f.byEmail[params.Email]
	f.mu.Unlock()
	if exists {
		return domain.User{}, domain.ErrConflict
	}
	return f.add(domain.User{
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		SSOProvider:  params.SSOProvider,
		SSOID:        params.SSOID,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		Status:       params.Status,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, userID uuid.UUID) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateSSOProvider(_ context.Context, userID uuid.UUID, provider, status string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.SSOProvider = provider
	u.Status = status
	u.UpdatedAt = updatedAt
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUsers) TouchLastLogin(_ context.Context, userID uuid.UUID, at time.Time) error {
	if f.touchErr != nil {
		return f.touchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastLogin = &at
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	return nil
}

type fakeSessions struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.Session

	replaceErr error
	listErr    error
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{items: map[uuid.UUID]domain.Session{}}
}

func (f *fakeSessions) Replace(_ context.Context, params ports.SessionReplaceParams) (domain.Session, error) {
	if f.replaceErr != nil {
		return domain.Session{}, f.replaceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sess := range f.items {
		if sess.UserID == params.UserID {
			delete(f.items, id)
		}
	}
	sess := domain.Session{
		SessionID:        uuid.New(),
		UserID:           params.UserID,
		AccessTokenHash:  params.AccessTokenHash,
		AccessTokenFP:    params.AccessTokenFP,
		RefreshTokenHash: params.RefreshTokenHash,
		RefreshTokenFP:   params.RefreshTokenFP,
		LoginMethod:      params.LoginMethod,
		ExpiresAt:        params.ExpiresAt,
		SessionIndex:     params.SessionIndex,
		IPAddress:        params.IPAddress,
		UserAgent:        params.UserAgent,
		CreatedAt:        params.CreatedAt,
		UpdatedAt:        params.CreatedAt,
	}
	f.items[sess.SessionID] = sess
	return sess, nil
}

func (f *fakeSessions) ListByAccessFingerprint(_ context.Context, fp string) ([]domain.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, sess := range f.items {
		if fp != "" && sess.AccessTokenFP == fp {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeSessions) ListByRefreshFingerprint(_ context.Context, fp string) ([]domain.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, sess := range f.items {
		if fp != "" && sess.RefreshTokenFP == fp {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (f *fakeSessions) UpdateAccessToken(_ context.Context, sessionID uuid.UUID, tokenHash, tokenFP string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.items[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	sess.AccessTokenHash = tokenHash
	sess.AccessTokenFP = tokenFP
	sess.UpdatedAt = updatedAt
	f.items[sessionID] = sess
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, sessionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, sessionID)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sess := range f.items {
		if sess.UserID == userID {
			delete(f.items, id)
		}
	}
	return nil
}

func (f *fakeSessions) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func (f *fakeSessions) byUser(userID uuid.UUID) []domain.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Session
	for _, sess := range f.items {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out
}

// fakeCodec issues sequential tokens and records which digest belongs to
// which token, mimicking a salted hash without the cost.
type fakeCodec struct {
	mu      sync.Mutex
	counter int
	digests map[string]string
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{digests: map[string]string{}}
}

func (f *fakeCodec) Generate() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	return fmt.Sprintf("token-%d", f.counter), nil
}

func (f *fakeCodec) Hash(token string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter++
	digest := fmt.Sprintf("digest-%d", f.counter)
	f.digests[digest] = token
	return digest, nil
}

func (f *fakeCodec) Verify(token, digest string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.digests[digest] == token
}

func (f *fakeCodec) Fingerprint(token string) string {
	return "fp:" + token
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "pw:" + password, nil
}

func (fakeHasher) Compare(hash, password string) error {
	if strings.TrimPrefix(hash, "pw:") != password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fakeLockouts struct {
	mu    sync.Mutex
	state map[string]ports.LockoutState
}

func newFakeLockouts() *fakeLockouts {
	return &fakeLockouts{state: map[string]ports.LockoutState{}}
}

func (f *fakeLockouts) Get(_ context.Context, key string) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state[key], nil
}

func (f *fakeLockouts) RecordFailure(_ context.Context, key string, now time.Time, threshold int, lockoutWindow time.Duration) (ports.LockoutState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.state[key]
	s.FailedCount++
	if s.FailedCount >= threshold {
		until := now.Add(lockoutWindow)
		s.LockedUntil = &until
	}
	f.state[key] = s
	return s, nil
}

func (f *fakeLockouts) Clear(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, key)
	return nil
}

type testEnv struct {
	svc      *Service
	users    *fakeUsers
	sessions *fakeSessions
	codec    *fakeCodec
	lockouts *fakeLockouts
	now      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:    newFakeUsers(),
		sessions: newFakeSessions(),
		codec:    newFakeCodec(),
		lockouts: newFakeLockouts(),
		now:      time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
	}
	env.svc = NewService(Dependencies{
		Config: Config{
			AccessTokenTTL:       15 * time.Minute,
			RefreshTokenTTL:      7 * 24 * time.Hour,
			SSOProviderName:      "okta",
			FailedLoginThreshold: 5,
			LockoutDuration:      30 * time.Minute,
		},
		Users:    env.users,
		Sessions: env.sessions,
		Lockouts: env.lockouts,
		Hasher:   fakeHasher{},
		Codec:    env.codec,
	})
	nowFn := func() time.Time { return env.now }
	env.svc.nowFn = nowFn
	env.svc.sessions.nowFn = nowFn
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEnv) addLocalUser(email, password string) domain.User {
	return e.users.add(domain.User{
		Email:        email,
		PasswordHash: "pw:" + password,
		FirstName:    "Pat",
		LastName:     "Doe",
		Status:       domain.UserStatusActive,
		CreatedAt:    e.now,
		UpdatedAt:    e.now,
	})
}
