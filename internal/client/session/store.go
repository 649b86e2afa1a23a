// Package session owns the client's authentication state: the bearer
// token, the profile resolved from it, and the rules deciding which
// screens the current session may open.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/dsmolkin/refind/internal/client/storage"
	"github.com/dsmolkin/refind/internal/models"
)

// ErrCredentialRejected is the resolver's signal that the identity
// endpoint definitively refused the credential. Any other resolver
// error is treated as transient and does not invalidate the session.
var ErrCredentialRejected = errors.New("credential rejected")

// State is the lifecycle phase of the session.
type State int

const (
	// Unauthenticated means no credential is installed.
	Unauthenticated State = iota
	// Resolving means a credential is installed but its profile has not
	// been confirmed yet.
	Resolving
	// Authenticated means the credential has a confirmed profile.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Session is a point-in-time snapshot of the store.
type Session struct {
	State State
	// Token is the installed credential, empty when Unauthenticated.
	Token string
	// User is the resolved profile, nil unless State is Authenticated.
	User *models.User
}

// Resolver turns a credential into the profile it identifies.
// A definitive refusal must be reported as ErrCredentialRejected.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.User, error)
}

// Store holds the session and is its only writer. All methods are safe
// for concurrent use; Logout and Current never block on I/O.
type Store struct {
	mu    sync.Mutex
	state State
	token string
	user  *models.User
	// epoch fences stale resolutions: it grows on every Login and
	// Logout, and a resolution result is applied only if the epoch it
	// was launched under is still current.
	epoch uint64

	creds    storage.CredentialStore
	resolver Resolver
	log      *zap.Logger
	subs     map[chan Session]struct{}
}

// New builds a Store and initializes it from the durable slot. If a
// credential was persisted by a previous run it is installed and
// resolution starts immediately; it is not trusted until the identity
// endpoint confirms it. A storage read failure counts as "no
// credential".
func New(creds storage.CredentialStore, resolver Resolver, log *zap.Logger) *Store {
	s := &Store{
		creds:    creds,
		resolver: resolver,
		log:      log,
		subs:     make(map[chan Session]struct{}),
	}

	token, err := creds.Load()
	if err != nil {
		log.Warn("credential storage unreadable, starting unauthenticated", zap.Error(err))
		return s
	}
	if token != "" {
		s.install(token, false)
	}
	return s
}

// Login installs the credential, persists it and starts resolution.
// It does not block and does not report success: success is observed
// later as the transition to Authenticated.
func (s *Store) Login(token string) {
	s.install(token, true)
}

// install points the session at a new credential and launches a fenced
// resolution for it.
func (s *Store) install(token string, persist bool) {
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.state = Resolving
	s.epoch++
	epoch := s.epoch
	if persist {
		if err := s.creds.Save(token); err != nil {
			s.log.Warn("failed to persist credential", zap.Error(err))
		}
	}
	s.notifyLocked()
	s.mu.Unlock()

	go s.resolve(epoch, token)
}

// Logout clears the credential, the profile and the durable slot
// synchronously. Any in-flight resolution is fenced out by the epoch
// bump. Calling it when already unauthenticated is a no-op.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Unauthenticated && s.token == "" {
		return
	}

	s.token = ""
	s.user = nil
	s.state = Unauthenticated
	s.epoch++
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("failed to clear credential storage", zap.Error(err))
	}
	s.notifyLocked()
}

// Retry relaunches resolution for the currently installed credential,
// for use after a transient resolution failure. No-op without a
// credential.
func (s *Store) Retry() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.state = Resolving
	s.user = nil
	epoch, token := s.epoch, s.token
	s.notifyLocked()
	s.mu.Unlock()

	go s.resolve(epoch, token)
}

// Current returns a snapshot of the session. It never blocks and
// performs no I/O.
func (s *Store) Current() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// resolve asks the identity endpoint for the profile behind token and
// applies the outcome unless a newer credential (or a logout) has
// superseded the epoch in the meantime.
func (s *Store) resolve(epoch uint64, token string) {
	user, err := s.resolver.Resolve(context.Background(), token)

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		// A later Login or Logout won the race; this result is stale.
		s.log.Debug("discarding stale resolution", zap.Uint64("epoch", epoch))
		return
	}

	switch {
	case err == nil:
		s.user = &user
		s.state = Authenticated
		s.log.Info("session authenticated",
			zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	case errors.Is(err, ErrCredentialRejected):
		s.token = ""
		s.user = nil
		s.state = Unauthenticated
		if cerr := s.creds.Clear(); cerr != nil {
			s.log.Warn("failed to clear credential storage", zap.Error(cerr))
		}
		s.log.Info("credential rejected, session cleared")
	default:
		// Transient failure: keep the credential so Retry can confirm
		// it later instead of logging the user out on a flaky network.
		s.log.Warn("identity resolution failed, will retry", zap.Error(err))
		return
	}
	s.notifyLocked()
}

// Subscribe returns a channel that receives a snapshot after every
// externally observable transition. Sends never block: a slow receiver
// misses intermediate snapshots, not the final one it reads next.
func (s *Store) Subscribe() <-chan Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Session, 16)
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel obtained from Subscribe.
func (s *Store) Unsubscribe(ch <-chan Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		if sub == ch {
			delete(s.subs, sub)
			close(sub)
			return
		}
	}
}

func (s *Store) snapshotLocked() Session {
	snap := Session{State: s.state, Token: s.token}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Store) notifyLocked() {
	snap := s.snapshotLocked()
	for sub := range s.subs {
		select {
		case sub <- snap:
		default:
		}
	}
}
