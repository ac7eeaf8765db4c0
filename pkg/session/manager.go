package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/gamesession/internal/logging"
	"github.com/aretw0/gamesession/pkg/domain"
	"github.com/aretw0/gamesession/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager serializes record access per player.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	locks map[domain.ActorID]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry passed to the distributed locker.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[domain.ActorID]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking.
func (m *Manager) acquire(player domain.ActorID) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[player]
	if !exists {
		entry = &lockEntry{}
		m.locks[player] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(player domain.ActorID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[player]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, player)
	}
}

// Get returns the player's record, or domain.ErrSessionNotFound.
func (m *Manager) Get(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, player, func(ctx context.Context) error {
		var err error
		rec, err = m.store.Load(ctx, player)
		return err
	})
	return rec, err
}

// GetOrCreate returns the player's record, or a default one if none exists.
// The default record is not persisted until something changes it.
func (m *Manager) GetOrCreate(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, player, func(ctx context.Context) error {
		var err error
		rec, err = m.loadOrDefault(ctx, player)
		return err
	})
	return rec, err
}

// Update applies fn to an existing record and saves the result if fn succeeds.
func (m *Manager) Update(ctx context.Context, player domain.ActorID, fn func(*domain.SessionRecord) error) (*domain.SessionRecord, error) {
	return m.update(ctx, player, false, fn)
}

// UpdateOrCreate is Update starting from a default record when none exists.
func (m *Manager) UpdateOrCreate(ctx context.Context, player domain.ActorID, fn func(*domain.SessionRecord) error) (*domain.SessionRecord, error) {
	return m.update(ctx, player, true, fn)
}

func (m *Manager) update(ctx context.Context, player domain.ActorID, create bool, fn func(*domain.SessionRecord) error) (*domain.SessionRecord, error) {
	var rec *domain.SessionRecord
	err := m.WithLock(ctx, player, func(ctx context.Context) error {
		var err error
		if create {
			rec, err = m.loadOrDefault(ctx, player)
		} else {
			rec, err = m.store.Load(ctx, player)
		}
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		if err := m.store.Save(ctx, player, rec); err != nil {
			return fmt.Errorf("failed to save session %s: %w", player, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Save persists rec for player.
func (m *Manager) Save(ctx context.Context, player domain.ActorID, rec *domain.SessionRecord) error {
	return m.WithLock(ctx, player, func(ctx context.Context) error {
		return m.store.Save(ctx, player, rec)
	})
}

// List returns every stored session sorted by player.
func (m *Manager) List(ctx context.Context) ([]domain.SessionEntry, error) {
	players, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	entries := make([]domain.SessionEntry, 0, len(players))
	for _, p := range players {
		rec, err := m.Get(ctx, p)
		if errors.Is(err, domain.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.SessionEntry{Player: p, Record: rec})
	}
	domain.SortEntries(entries)
	return entries, nil
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

func (m *Manager) loadOrDefault(ctx context.Context, player domain.ActorID) (*domain.SessionRecord, error) {
	rec, err := m.store.Load(ctx, player)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}
	return domain.NewSessionRecord(), nil
}

// WithLock runs fn while holding the player's lock.
func (m *Manager) WithLock(ctx context.Context, player domain.ActorID, fn func(context.Context) error) error {
	entry := m.acquire(player)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(player)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, string(player), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"player", player,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
