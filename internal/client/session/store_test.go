package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dsmolkin/refind/internal/client/storage"
	"github.com/dsmolkin/refind/internal/models"
)

// stubResolver resolves tokens from fixed maps. A token with a gate
// channel blocks until the gate is closed, which lets tests control
// the order in which overlapping resolutions complete.
type stubResolver struct {
	mu    sync.Mutex
	users map[string]models.User
	errs  map[string]error
	gates map[string]chan struct{}
}

func newStubResolver() *stubResolver {
	return &stubResolver{
		users: make(map[string]models.User),
		errs:  make(map[string]error),
		gates: make(map[string]chan struct{}),
	}
}

func (r *stubResolver) Resolve(ctx context.Context, token string) (models.User, error) {
	r.mu.Lock()
	gate := r.gates[token]
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.errs[token]; ok {
		return models.User{}, err
	}
	if user, ok := r.users[token]; ok {
		return user, nil
	}
	return models.User{}, ErrCredentialRejected
}

func waitForState(t *testing.T, s *Store, want State) Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.Current(); snap.State == want {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never reached state %v, now %v", want, s.Current().State)
	return Session{}
}

func TestNew_NoStoredCredential(t *testing.T) {
	s := New(&storage.MemStore{}, newStubResolver(), zap.NewNop())

	snap := s.Current()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
}

func TestNew_StorageUnavailableFailsOpen(t *testing.T) {
	creds := &storage.MemStore{LoadErr: errors.New("disk gone")}
	s := New(creds, newStubResolver(), zap.NewNop())

	assert.Equal(t, Unauthenticated, s.Current().State)
}

func TestNew_PersistenceRoundTrip(t *testing.T) {
	resolver := newStubResolver()
	resolver.users["abc"] = models.User{ID: 1, Name: "Alice", Email: "alice@example.com", Role: models.RoleUser}

	// First run: explicit login persists the credential.
	creds := &storage.MemStore{}
	first := New(creds, resolver, zap.NewNop())
	first.Login("abc")
	waitForState(t, first, Authenticated)
	assert.Equal(t, "abc", creds.Token)

	// Fresh start over the same durable slot: authenticates without a
	// further Login call, and re-confirms rather than trusting blindly.
	second := New(creds, resolver, zap.NewNop())
	snap := waitForState(t, second, Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Alice", snap.User.Name)
	assert.Equal(t, "abc", snap.Token)
}

func TestLogin_ResolvesProfile(t *testing.T) {
	resolver := newStubResolver()
	resolver.users["xyz"] = models.User{ID: 2, Name: "Root", Role: models.RoleAdmin}

	s := New(&storage.MemStore{}, resolver, zap.NewNop())
	s.Login("xyz")

	// Login returns before resolution completes.
	assert.Equal(t, "xyz", s.Current().Token)

	snap := waitForState(t, s, Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, models.RoleAdmin, snap.User.Role)
}

func TestLogin_RejectedCredentialClearsEverything(t *testing.T) {
	creds := &storage.MemStore{}
	s := New(creds, newStubResolver(), zap.NewNop())

	s.Login("bogus")
	snap := waitForState(t, s, Unauthenticated)

	assert.Empty(t, snap.Token)
	assert.Nil(t, snap.User)
	assert.Empty(t, creds.Token, "storage should be cleared on rejection")
}

func TestStoredCredentialRejectedOnStartup(t *testing.T) {
	creds := &storage.MemStore{Token: "stale"}
	s := New(creds, newStubResolver(), zap.NewNop())

	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	waitForState(t, s, Unauthenticated)
	assert.Empty(t, creds.Token)

	// A guarded screen re-evaluating on the transition redirects to login.
	d := Decide(s.Current(), RequireAuth)
	assert.False(t, d.Allow)
	assert.Equal(t, RedirectLogin, d.Target)
}

func TestLogout_IsSynchronousAndComplete(t *testing.T) {
	resolver := newStubResolver()
	gate := make(chan struct{})
	resolver.gates["abc"] = gate
	resolver.users["abc"] = models.User{ID: 1, Name: "Alice"}

	creds := &storage.MemStore{}
	s := New(creds, resolver, zap.NewNop())
	s.Login("abc")

	// Resolution is still blocked on the gate; logout must win anyway.
	s.Logout()

	snap := s.Current()
	assert.Equal(t, Unauthenticated, snap.State)
	assert.Empty(t, snap.Token)
	assert.Empty(t, creds.Token, "storage cleared synchronously")

	// The late resolution result must be fenced out, not resurrect the session.
	close(gate)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Unauthenticated, s.Current().State)
}

func TestLogout_IdempotentWhenUnauthenticated(t *testing.T) {
	s := New(&storage.MemStore{}, newStubResolver(), zap.NewNop())
	s.Logout()
	s.Logout()
	assert.Equal(t, Unauthenticated, s.Current().State)
}

func TestEpochFencing_StaleResolutionDiscarded(t *testing.T) {
	resolver := newStubResolver()
	gate1 := make(chan struct{})
	resolver.gates["t1"] = gate1
	resolver.users["t1"] = models.User{ID: 1, Name: "First"}
	resolver.users["t2"] = models.User{ID: 2, Name: "Second"}

	s := New(&storage.MemStore{}, resolver, zap.NewNop())

	s.Login("t1")
	s.Login("t2")

	// t2 resolves first.
	snap := waitForState(t, s, Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Second", snap.User.Name)

	// t1's resolution arrives afterwards and must be discarded.
	close(gate1)
	time.Sleep(50 * time.Millisecond)

	snap = s.Current()
	require.NotNil(t, snap.User)
	assert.Equal(t, "Second", snap.User.Name)
	assert.Equal(t, "t2", snap.Token)
}

func TestTransientFailureKeepsCredential(t *testing.T) {
	resolver := newStubResolver()
	resolver.errs["abc"] = errors.New("connection refused")

	creds := &storage.MemStore{}
	s := New(creds, resolver, zap.NewNop())
	s.Login("abc")

	// The session stays in Resolving with the credential installed.
	time.Sleep(50 * time.Millisecond)
	snap := s.Current()
	assert.Equal(t, Resolving, snap.State)
	assert.Equal(t, "abc", snap.Token)
	assert.Equal(t, "abc", creds.Token, "credential not cleared on transient failure")

	// Once the network recovers, Retry confirms the same credential.
	resolver.mu.Lock()
	delete(resolver.errs, "abc")
	resolver.users["abc"] = models.User{ID: 1, Name: "Alice"}
	resolver.mu.Unlock()

	s.Retry()
	snap = waitForState(t, s, Authenticated)
	require.NotNil(t, snap.User)
	assert.Equal(t, "Alice", snap.User.Name)
}

func TestRetry_NoCredentialIsNoop(t *testing.T) {
	s := New(&storage.MemStore{}, newStubResolver(), zap.NewNop())
	s.Retry()
	assert.Equal(t, Unauthenticated, s.Current().State)
}

func TestSubscribe_SeesTransitions(t *testing.T) {
	resolver := newStubResolver()
	resolver.users["abc"] = models.User{ID: 1, Name: "Alice"}

	s := New(&storage.MemStore{}, resolver, zap.NewNop())
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Login("abc")

	sawResolving := false
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if snap.State == Resolving {
				sawResolving = true
			}
			if snap.State == Authenticated {
				assert.True(t, sawResolving, "expected Resolving before Authenticated")
				return
			}
		case <-deadline:
			t.Fatal("never observed Authenticated transition")
		}
	}
}
