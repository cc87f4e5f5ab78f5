package quiz_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/event"
	"github.com/unveil/mediaquiz/internal/quiz"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m, _ := makeManager(t, event.NewBus(), nil)

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, s.ID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, m.Delete(s.ID()))

	_, err = m.Get(s.ID())
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.True(t, errors.Is(m.Delete(s.ID()), errors.CodeNotFound))
	assert.True(t, errors.Is(s.Start(), errors.CodeFailedPrecondition), "deleted sessions are closed")
}

func TestManager_PublishesEvents(t *testing.T) {
	eb := event.NewBus()

	var (
		mu        sync.Mutex
		updates   []domain.EventSessionUpdated
		completed []domain.EventQuizCompleted
	)
	eb.Subscribe(domain.EventNameSessionUpdated, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		updates = append(updates, e.(domain.EventSessionUpdated))
		mu.Unlock()
		return nil
	})
	eb.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		completed = append(completed, e.(domain.EventQuizCompleted))
		mu.Unlock()
		return nil
	})

	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	m, _ := makeManager(t, eb, func() time.Time { return now })

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Start())
	play(t, s, func(i int) bool { return true })

	eb.Stop()

	mu.Lock()
	defer mu.Unlock()

	// start + (answer + next) per question
	assert.Len(t, updates, 1+2*10)
	for _, u := range updates {
		assert.Equal(t, s.ID(), u.Snapshot.SessionID)
	}

	require.Len(t, completed, 1)
	r := completed[0].Result
	assert.NotEmpty(t, r.ResultID)
	assert.Equal(t, s.ID(), r.SessionID)
	assert.Equal(t, domain.DifficultyBeginner, r.Difficulty)
	assert.Equal(t, quiz.DefaultCategories, r.Categories)
	assert.Equal(t, 10, r.Results.Score)
	assert.Equal(t, 100, r.Results.Percentage)
	assert.Equal(t, now, r.CompleteTime)
}

func TestManager_Sweep(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m, _ := makeManager(t, event.NewBus(), func() time.Time { return clock() })

	idle, err := m.Create(context.Background())
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	busy, err := m.Create(context.Background())
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	require.NoError(t, busy.SetDifficulty(domain.DifficultyAdvanced))

	assert.Equal(t, 1, m.Sweep(now))

	_, err = m.Get(idle.ID())
	assert.True(t, errors.Is(err, errors.CodeNotFound), "idle session should be swept")
	_, err = m.Get(busy.ID())
	assert.NoError(t, err)
}

func TestManager_RunSweepsOnTick(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clockNow := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	m, clock := makeManager(t, event.NewBus(), clockNow)
	s, err := m.Create(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return clock.count() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	now = now.Add(time.Hour)
	mu.Unlock()
	clock.last().fire(1)

	require.Eventually(t, func() bool {
		_, err := m.Get(s.ID())
		return errors.Is(err, errors.CodeNotFound)
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func makeManager(t *testing.T, eb *event.Bus, now func() time.Time) (*quiz.Manager, *fakeClock) {
	clock := &fakeClock{}
	m := quiz.NewManager(quiz.Config{
		EventBus:      eb,
		SessionTTL:    30 * time.Minute,
		NewTickerFunc: clock.NewTicker,
		NewRandFunc:   func() *rand.Rand { return newRand() },
		Now:           now,
	})
	t.Cleanup(m.Close)
	return m, clock
}
