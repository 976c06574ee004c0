package application

import (
	"time"

	"github.com/posturehq/auth-service/internal/ports"
)

// Metrics receives lifecycle observations. A nil Metrics is valid and
// observations are dropped; the Prometheus adapter provides the real one.
type Metrics interface {
	LoginObserved(method string, outcome string)
	LookupCandidates(n int)
	ExpiredSessionReaped()
}

// Service orchestrates the credential and session lifecycle: local login,
// refresh, logout, and the SSO bridge. All session reads and writes go
// through the SessionStore so lazy expiry and the single-session policy are
// enforced in one place.
type Service struct {
	cfg      Config
	users    ports.UserRepository
	sessions *SessionStore
	lockouts ports.LockoutStore
	hasher   ports.PasswordHasher
	codec    ports.TokenCodec
	metrics  Metrics
	nowFn    func() time.Time
}

// Dependencies enumerates the collaborators a Service needs. Lockouts and
// Metrics are optional.
type Dependencies struct {
	Config   Config
	Users    ports.UserRepository
	Sessions ports.SessionRepository
	Lockouts ports.LockoutStore
	Hasher   ports.PasswordHasher
	Codec    ports.TokenCodec
	Metrics  Metrics
}

func NewService(deps Dependencies) *Service {
	nowFn := func() time.Time { return time.Now().UTC() }
	return &Service{
		cfg:   deps.Config,
		users: deps.Users,
		sessions: &SessionStore{
			repo:    deps.Sessions,
			codec:   deps.Codec,
			metrics: deps.Metrics,
			nowFn:   nowFn,
		},
		lockouts: deps.Lockouts,
		hasher:   deps.Hasher,
		codec:    deps.Codec,
		metrics:  deps.Metrics,
		nowFn:    nowFn,
	}
}

func (s *Service) observeLogin(method, outcome string) {
	if s.metrics != nil {
		s.metrics.LoginObserved(method, outcome)
	}
}
