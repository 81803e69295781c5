// Package session holds the auth token and the current user, and gates every
// other fetch behind Init.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/stride/internal/api"
	"github.com/go-ports/stride/internal/events"
	"github.com/go-ports/stride/internal/models"
)

// ErrNotAuthenticated is returned by callers that need a logged-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenStore persists the single auth token between runs.
type TokenStore interface {
	Load() (string, bool, error)
	Save(token string) error
	Clear() error
}

// Client is the subset of the API client the session needs.
type Client interface {
	SetToken(token string)
	Login(ctx context.Context, usernameOrEmail, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*api.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
	Logout(ctx context.Context, token string) error
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	User    *models.User
	Token   string
	Loading bool
	Err     error // last login/register failure
}

// Authenticated reports whether a user is loaded.
func (s Snapshot) Authenticated() bool { return s.User != nil && s.Token != "" }

// Store owns the session. It is safe for concurrent use.
type Store struct {
	client Client
	tokens TokenStore
	bus    *events.Bus

	mu      sync.RWMutex
	user    *models.User
	token   string
	loading bool
	err     error

	ready    chan struct{}
	initOnce sync.Once
	unsub    func()
}

// New builds a Store in the loading state. It listens for auth failures on
// bus and treats each one as a forced logout.
func New(client Client, tokens TokenStore, bus *events.Bus) *Store {
	s := &Store{
		client:  client,
		tokens:  tokens,
		bus:     bus,
		loading: true,
		ready:   make(chan struct{}),
	}
	if bus != nil {
		s.unsub = bus.Subscribe(func(events.Event) { s.forceLogout() }, events.AuthFailed)
	}
	return s
}

// Close detaches the store from the bus.
func (s *Store) Close() {
	if s.unsub != nil {
		s.unsub()
	}
}

// Ready is closed once Init has finished.
func (s *Store) Ready() <-chan struct{} { return s.ready }

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{User: s.user, Token: s.token, Loading: s.loading, Err: s.err}
}

// Init restores a persisted token and verifies it against the profile
// endpoint. Any failure leaves the session unauthenticated. Init never
// returns an error; only the first call does any work.
func (s *Store) Init(ctx context.Context) {
	s.initOnce.Do(func() { s.init(ctx) })
}

func (s *Store) init(ctx context.Context) {
	defer s.finishInit()

	token, ok, err := s.tokens.Load()
	if err != nil {
		slog.Warn("session: load persisted token", "err", err)
		return
	}
	if !ok {
		return
	}

	s.client.SetToken(token)
	user, err := s.client.Profile(ctx)
	if err != nil {
		slog.Info("session: persisted token rejected", "err", err)
		s.client.SetToken("")
		if err := s.tokens.Clear(); err != nil {
			slog.Warn("session: clear persisted token", "err", err)
		}
		return
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
}

func (s *Store) finishInit() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	close(s.ready)
	s.publishChanged()
}

// Login exchanges credentials for a token and persists it. It reports
// success; the failure is kept in Snapshot().Err.
func (s *Store) Login(ctx context.Context, usernameOrEmail, password string) bool {
	resp, err := s.client.Login(ctx, usernameOrEmail, password)
	return s.adopt(resp, err, "login")
}

// Register creates an account and logs it in.
func (s *Store) Register(ctx context.Context, username, email, password string) bool {
	resp, err := s.client.Register(ctx, username, email, password)
	return s.adopt(resp, err, "register")
}

func (s *Store) adopt(resp *api.AuthResponse, err error, op string) bool {
	if err != nil {
		slog.Warn("session: "+op+" failed", "err", err)
		s.mu.Lock()
		s.err = fmt.Errorf("session.%s: %w", op, err)
		s.mu.Unlock()
		return false
	}

	if err := s.tokens.Save(resp.Token); err != nil {
		// The session still works for this run.
		slog.Warn("session: persist token", "err", err)
	}
	s.client.SetToken(resp.Token)

	user := resp.User
	s.mu.Lock()
	s.user = &user
	s.token = resp.Token
	s.err = nil
	s.mu.Unlock()

	s.publishChanged()
	return true
}

// Logout clears the in-memory and persisted token before returning, then
// tells the backend on a best-effort basis.
func (s *Store) Logout(ctx context.Context) {
	token := s.clear()
	if token == "" {
		return
	}
	if err := s.client.Logout(ctx, token); err != nil {
		slog.Debug("session: remote logout failed", "err", err)
	}
}

func (s *Store) forceLogout() {
	if s.clear() != "" {
		slog.Info("session: logged out after auth failure")
	}
}

// clear drops all local session state and returns the token that was held.
func (s *Store) clear() string {
	s.mu.Lock()
	token := s.token
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.client.SetToken("")
	if err := s.tokens.Clear(); err != nil {
		slog.Warn("session: clear persisted token", "err", err)
	}
	if token != "" {
		s.publishChanged()
	}
	return token
}

func (s *Store) publishChanged() {
	if s.bus != nil {
		s.bus.Publish(events.SessionChanged, s.Snapshot())
	}
}

// WaitReady blocks until Init has finished or ctx is done.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequireUser waits for Init and returns the logged-in user.
func (s *Store) RequireUser(ctx context.Context) (*models.User, error) {
	if err := s.WaitReady(ctx); err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	if !snap.Authenticated() {
		return nil, ErrNotAuthenticated
	}
	return snap.User, nil
}
