// Package session holds the authenticated identity of one portal client.
//
// A Store is the single source of truth for "who is logged in". The token and
// user profile are persisted together in a storage.KV and are always set and
// cleared as a pair. Navigation is issued as an explicit command on the
// Navigator after each state transition; the store never renders anything.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/melalfey/schoolos-admin-portal/internal/models"
	"github.com/melalfey/schoolos-admin-portal/internal/routes"
	"github.com/melalfey/schoolos-admin-portal/internal/storage"
)

const (
	TokenKey = "schoolos_token"
	UserKey  = "schoolos_user"
)

var ErrInvalidSession = errors.New("invalid session: token and user are required")

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	Token   string
	User    *models.User
	Loading bool
}

func (s Snapshot) Authenticated() bool {
	return s.Token != ""
}

type Store struct {
	kv  storage.KV
	nav Navigator
	log zerolog.Logger

	mu      sync.RWMutex
	token   string
	user    *models.User
	loading bool
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New returns a store in the loading state. Call Initialize before making
// any access decision.
func New(kv storage.KV, nav Navigator, opts ...Option) *Store {
	if nav == nil {
		nav = Discard
	}
	s := &Store{
		kv:      kv,
		nav:     nav,
		log:     zerolog.Nop(),
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores a persisted session. A malformed or half-present
// record is purged silently. Loading is false once Initialize returns, even
// when the storage read fails.
func (s *Store) Initialize(ctx context.Context) error {
	token, user, err := s.restore(ctx)

	s.mu.Lock()
	s.token, s.user = token, user
	s.loading = false
	s.mu.Unlock()

	return err
}

func (s *Store) restore(ctx context.Context) (string, *models.User, error) {
	token, hasToken, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return "", nil, fmt.Errorf("read persisted token: %w", err)
	}
	rawUser, hasUser, err := s.kv.Get(ctx, UserKey)
	if err != nil {
		return "", nil, fmt.Errorf("read persisted user: %w", err)
	}

	if !hasToken && !hasUser {
		return "", nil, nil
	}
	if token == "" || rawUser == "" {
		s.log.Debug().Bool("token", token != "").Bool("user", rawUser != "").Msg("incomplete persisted session purged")
		return "", nil, s.purge(ctx)
	}

	user, err := decodeUser(rawUser)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to parse stored user")
		return "", nil, s.purge(ctx)
	}
	return token, user, nil
}

func decodeUser(raw string) (*models.User, error) {
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login is the only way to establish a new authenticated session.
func (s *Store) Login(ctx context.Context, token string, user models.User) error {
	if token == "" {
		return ErrInvalidSession
	}
	if err := user.Validate(); err != nil {
		return errors.Join(ErrInvalidSession, err)
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.persist(ctx, token, string(rawUser)); err != nil {
		return err
	}

	s.mu.Lock()
	s.token, s.user = token, &user
	s.loading = false
	s.mu.Unlock()

	s.log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("session established")
	s.nav.Navigate(routes.Dashboard(user))
	return nil
}

func (s *Store) persist(ctx context.Context, token, rawUser string) error {
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return errors.Join(fmt.Errorf("persist token: %w", err), s.purge(ctx))
	}
	if err := s.kv.Set(ctx, UserKey, rawUser); err != nil {
		return errors.Join(fmt.Errorf("persist user: %w", err), s.purge(ctx))
	}
	return nil
}

// Logout tears the session down and navigates to the login view. Calling it
// while logged out only navigates.
func (s *Store) Logout(ctx context.Context) error {
	s.clear()
	err := s.purge(ctx)
	s.nav.Navigate(routes.Login)
	return err
}

// Expire is the teardown path for a token the backend rejected. It is a
// no-op when the session has already been replaced by a newer login, either
// in this store or in the shared storage by another client of the session.
func (s *Store) Expire(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && token != "" && s.token != token {
		s.log.Debug().Msg("ignoring expiry of a replaced session")
		return nil
	}
	if token != "" {
		persisted, ok, err := s.kv.Get(ctx, TokenKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("read persisted token before expiry failed")
		} else if ok && persisted != "" && persisted != token {
			s.log.Debug().Msg("ignoring expiry of a session replaced in storage")
			return nil
		}
	}

	s.token, s.user = "", nil
	s.loading = false
	err := s.purge(ctx)
	s.log.Info().Msg("session expired")
	s.nav.Navigate(routes.Login)
	return err
}

// Refresh rewrites the persisted pair so storage lifetimes count from the
// last authenticated use rather than from sign-in.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.RLock()
	token, user := s.token, s.user
	s.mu.RUnlock()

	if token == "" || user == nil {
		return nil
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("refresh token: %w", err)
	}
	if err := s.kv.Set(ctx, UserKey, string(rawUser)); err != nil {
		return fmt.Errorf("refresh user: %w", err)
	}
	return nil
}

func (s *Store) clear() {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) purge(ctx context.Context) error {
	return errors.Join(
		s.kv.Remove(ctx, TokenKey),
		s.kv.Remove(ctx, UserKey),
	)
}

func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{Token: s.token, Loading: s.loading}
	if s.user != nil {
		user := *s.user
		snap.User = &user
	}
	return snap
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
