package quiz_test

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/quiz"
)

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() { f.stopped.Store(true) }

// fire delivers n ticks. The channel is buffered so ticks sent to a finished
// countdown never block the test.
func (f *fakeTicker) fire(n int) {
	for range n {
		f.c <- time.Now()
	}
}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (f *fakeClock) NewTicker(time.Duration) quiz.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()

	t := &fakeTicker{c: make(chan time.Time, 256)}
	f.tickers = append(f.tickers, t)
	return t
}

func (f *fakeClock) last() *fakeTicker {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.tickers) == 0 {
		return nil
	}
	return f.tickers[len(f.tickers)-1]
}

func (f *fakeClock) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.tickers)
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func answerKey() map[string]domain.Question {
	m := make(map[string]domain.Question)
	for _, q := range quiz.Catalog() {
		m[q.ID] = q
	}
	return m
}

// wrongOption returns an option index that is not the correct one.
func wrongOption(q domain.Question) int {
	return (q.CorrectOption + 1) % len(q.Options)
}

func countTrue(log []bool) int {
	n := 0
	for _, v := range log {
		if v {
			n++
		}
	}
	return n
}

func requireInvariants(t *testing.T, snap domain.SessionSnapshot) {
	t.Helper()

	require.Equal(t, countTrue(snap.AnswerLog), snap.Score, "score must equal the number of correct answers")

	switch snap.Phase {
	case domain.PhaseStart, domain.PhasePlaying:
		require.Len(t, snap.AnswerLog, snap.Index, "answer log must be parallel to the answered prefix")
	case domain.PhaseFeedback:
		require.Len(t, snap.AnswerLog, snap.Index+1)
	case domain.PhaseResults:
		require.Len(t, snap.AnswerLog, snap.Total)
	}
}

// play answers every question of a started session. correct decides, by question
// position, whether the right option is chosen.
func play(t *testing.T, s *quiz.Session, correct func(i int) bool) {
	t.Helper()

	key := answerKey()
	for {
		snap := s.Snapshot()
		requireInvariants(t, snap)
		if snap.Phase == domain.PhaseResults {
			return
		}
		require.Equal(t, domain.PhasePlaying, snap.Phase, fmt.Sprintf("question %d", snap.Index))

		q := key[snap.Question.ID]
		opt := q.CorrectOption
		if !correct(snap.Index) {
			opt = wrongOption(q)
		}

		fb, err := s.Answer(opt)
		require.NoError(t, err)
		require.Equal(t, correct(snap.Index), fb.Correct)
		requireInvariants(t, s.Snapshot())

		require.NoError(t, s.Next())
	}
}
