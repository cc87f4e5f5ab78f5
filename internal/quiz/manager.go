package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/event"
)

const (
	defaultSessionTTL    = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type Config struct {
	EventBus *event.Bus
	Catalog  []domain.Question

	// SessionTTL is how long a session may stay idle before it is swept.
	SessionTTL    time.Duration
	SweepInterval time.Duration

	NewTickerFunc func(d time.Duration) Ticker
	NewRandFunc   func() *rand.Rand
	Now           func() time.Time
}

// Manager holds the live quiz sessions.
type Manager struct {
	eb            *event.Bus
	catalog       []domain.Question
	ttl           time.Duration
	sweepInterval time.Duration
	newTicker     func(d time.Duration) Ticker
	newRand       func() *rand.Rand
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(c Config) *Manager {
	m := &Manager{
		eb:            c.EventBus,
		catalog:       c.Catalog,
		ttl:           c.SessionTTL,
		sweepInterval: c.SweepInterval,
		newTicker:     c.NewTickerFunc,
		newRand:       c.NewRandFunc,
		now:           c.Now,
		sessions:      make(map[string]*Session),
	}

	if m.catalog == nil {
		m.catalog = Catalog()
	}
	if m.ttl <= 0 {
		m.ttl = defaultSessionTTL
	}
	if m.sweepInterval <= 0 {
		m.sweepInterval = defaultSweepInterval
	}
	if m.newTicker == nil {
		m.newTicker = newTimeTicker
	}
	if m.now == nil {
		m.now = time.Now
	}

	return m
}

// Create starts a new session in the configuration phase.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	var rng *rand.Rand
	if m.newRand != nil {
		rng = m.newRand()
	}

	s := NewSession(SessionConfig{
		ID:            id.String(),
		Catalog:       m.catalog,
		Rand:          rng,
		NewTickerFunc: m.newTicker,
		Now:           m.now,
		OnChange:      m.publishUpdated,
		OnComplete:    m.publishCompleted,
	})

	m.mu.Lock()
	m.sessions[s.ID()] = s
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	slog.InfoContext(ctx, "quiz: session created", "session_id", s.ID())
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.NotFound("session not found: session=%s", id)
	}
	return s, nil
}

// Delete tears a session down and forgets it.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if !ok {
		return errors.NotFound("session not found: session=%s", id)
	}

	s.Close()
	return nil
}

// Sweep closes the sessions idle since before now minus the TTL and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	deadline := now.Add(-m.ttl)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(deadline) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	activeSessions.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	t := m.newTicker(m.sweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C():
			if n := m.Sweep(m.now()); n > 0 {
				slog.InfoContext(ctx, "quiz: swept idle sessions", "count", n)
			}
		}
	}
}

// Close tears down every session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	activeSessions.Set(0)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (m *Manager) publishUpdated(snap domain.SessionSnapshot) {
	if m.eb == nil {
		return
	}

	m.eb.Publish(context.Background(), domain.EventSessionUpdated{
		Snapshot: snap,
	})
}

func (m *Manager) publishCompleted(snap domain.SessionSnapshot, res domain.Results) {
	ctx := context.Background()

	id, err := uuid.NewV7()
	if err != nil {
		slog.ErrorContext(ctx, "quiz: generate result ID failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "quiz: session completed",
		"session_id", snap.SessionID,
		"score", res.Score,
		"total", res.Total,
	)

	if m.eb == nil {
		return
	}

	m.eb.Publish(ctx, domain.EventQuizCompleted{
		Result: domain.QuizResult{
			ResultID:     id.String(),
			SessionID:    snap.SessionID,
			Difficulty:   snap.Difficulty,
			Categories:   snap.Categories,
			Results:      res,
			CompleteTime: m.now(),
		},
	})
}
