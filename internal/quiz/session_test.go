package quiz_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/quiz"
)

func TestSession_Defaults(t *testing.T) {
	s, _ := makeSession(t)

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseStart, snap.Phase)
	assert.Equal(t, domain.DifficultyBeginner, snap.Difficulty)
	assert.Equal(t, []domain.Category{domain.CategoryBias, domain.CategoryFactChecking}, snap.Categories)
	assert.True(t, snap.CanStart)
	assert.Equal(t, 10, snap.Total, "thin beginner pool falls back to the full catalog")
	assert.Nil(t, snap.Question)
	requireInvariants(t, snap)
}

func TestSession_ToggleCategory(t *testing.T) {
	s, _ := makeSession(t)

	require.NoError(t, s.ToggleCategory(domain.CategoryBias))
	assert.Equal(t, []domain.Category{domain.CategoryFactChecking}, s.Snapshot().Categories)

	require.NoError(t, s.ToggleCategory(domain.CategoryFactChecking), "removing the last category is a no-op")
	assert.Equal(t, []domain.Category{domain.CategoryFactChecking}, s.Snapshot().Categories)

	require.NoError(t, s.ToggleCategory(domain.CategoryMisinformation))
	require.NoError(t, s.ToggleCategory(domain.CategoryBias))
	assert.Equal(t, []domain.Category{
		domain.CategoryBias,
		domain.CategoryFactChecking,
		domain.CategoryMisinformation,
	}, s.Snapshot().Categories, "categories are kept in display order")

	err := s.ToggleCategory("astrology")
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestSession_ConfigurationRedrawsQuestions(t *testing.T) {
	s, _ := makeSession(t)

	require.NoError(t, s.SetDifficulty(domain.DifficultyAdvanced))
	require.NoError(t, s.ToggleCategory(domain.CategorySourceAnalysis))

	snap := s.Snapshot()
	assert.Equal(t, domain.DifficultyAdvanced, snap.Difficulty)
	assert.Equal(t, 6, snap.Total, "bias, fact-checking and source-analysis at advanced match 6 questions")

	err := s.SetDifficulty("expert")
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
}

func TestSession_PhaseGuards(t *testing.T) {
	s, _ := makeSession(t)

	_, err := s.Answer(0)
	assert.True(t, errors.Is(err, errors.CodeFailedPrecondition), "answer before start")
	assert.True(t, errors.Is(s.Next(), errors.CodeFailedPrecondition), "next before start")
	assert.True(t, errors.Is(s.Restart(), errors.CodeFailedPrecondition), "restart before results")
	_, err = s.Results()
	assert.True(t, errors.Is(err, errors.CodeFailedPrecondition), "results before the end")

	require.NoError(t, s.Start())
	assert.True(t, errors.Is(s.Start(), errors.CodeFailedPrecondition), "start twice")
	assert.True(t, errors.Is(s.SetDifficulty(domain.DifficultyAdvanced), errors.CodeFailedPrecondition))
	assert.True(t, errors.Is(s.ToggleCategory(domain.CategoryBias), errors.CodeFailedPrecondition))

	before := s.Snapshot()
	_, err = s.Answer(4)
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))
	_, err = s.Answer(-1)
	assert.True(t, errors.Is(err, errors.CodeInvalidArgument))

	after := s.Snapshot()
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, before.AnswerLog, after.AnswerLog)
}

func TestSession_PlayThrough(t *testing.T) {
	var (
		mu        sync.Mutex
		completed []domain.Results
	)

	s, _ := makeSession(t, withOnComplete(func(_ domain.SessionSnapshot, r domain.Results) {
		mu.Lock()
		completed = append(completed, r)
		mu.Unlock()
	}))

	require.NoError(t, s.Start())
	snap := s.Snapshot()
	assert.Equal(t, domain.PhasePlaying, snap.Phase)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.Score)
	assert.NotNil(t, snap.Question)
	assert.Equal(t, snap.MaxSeconds, snap.RemainingSeconds)

	play(t, s, func(i int) bool { return i < 8 })

	res, err := s.Results()
	require.NoError(t, err)
	assert.Equal(t, 8, res.Score)
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, 80, res.Percentage)
	assert.Contains(t, res.Achievements, quiz.AchievementMediaExpert)
	assert.NotContains(t, res.Achievements, quiz.AchievementPerfectScore)
	assert.Contains(t, res.Achievements, quiz.AchievementCriticalThinker)

	snap = s.Snapshot()
	assert.Equal(t, domain.PhaseResults, snap.Phase)
	assert.Equal(t, 10, snap.Index)
	assert.Nil(t, snap.Question)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, completed, 1)
	assert.Equal(t, *res, completed[0])
}

func TestSession_FeedbackShowsTheCorrectAnswer(t *testing.T) {
	s, _ := makeSession(t)
	require.NoError(t, s.Start())

	q := answerKey()[s.Snapshot().Question.ID]
	fb, err := s.Answer(wrongOption(q))
	require.NoError(t, err)

	assert.False(t, fb.Correct)
	assert.False(t, fb.TimedOut)
	require.NotNil(t, fb.Selected)
	assert.Equal(t, wrongOption(q), *fb.Selected)
	assert.Equal(t, q.CorrectOption, fb.CorrectOption)
	assert.Equal(t, q.Options[q.CorrectOption], fb.CorrectText)
	assert.Equal(t, q.Explanation, fb.Explanation)

	snap := s.Snapshot()
	assert.Equal(t, domain.PhaseFeedback, snap.Phase)
	assert.Equal(t, []bool{false}, snap.AnswerLog)
	assert.Equal(t, 0, snap.Score)
}

func TestSession_Countdown(t *testing.T) {
	s, clock := makeSession(t)
	require.NoError(t, s.Start())

	tk := clock.last()
	maxSeconds := s.Snapshot().MaxSeconds
	require.Positive(t, maxSeconds)

	tk.fire(3)
	require.Eventually(t, func() bool {
		return s.Snapshot().RemainingSeconds == maxSeconds-3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, domain.PhasePlaying, s.Snapshot().Phase)
}

func TestSession_TimeoutCountsAsWrong(t *testing.T) {
	s, clock := makeSession(t)
	require.NoError(t, s.Start())

	tk := clock.last()
	tk.fire(s.Snapshot().MaxSeconds)

	require.Eventually(t, func() bool {
		return s.Snapshot().Phase == domain.PhaseFeedback
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	requireInvariants(t, snap)
	assert.Equal(t, []bool{false}, snap.AnswerLog)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 0, snap.RemainingSeconds)
	require.NotNil(t, snap.Feedback)
	assert.True(t, snap.Feedback.TimedOut)
	assert.Nil(t, snap.Feedback.Selected)
	assert.Eventually(t, tk.stopped.Load, time.Second, 5*time.Millisecond, "ticker should be stopped")

	_, err := s.Answer(0)
	assert.True(t, errors.Is(err, errors.CodeFailedPrecondition), "a timed out question cannot be answered")
}

func TestSession_StaleTicksAreIgnored(t *testing.T) {
	s, clock := makeSession(t)
	require.NoError(t, s.Start())
	first := clock.last()

	q := answerKey()[s.Snapshot().Question.ID]
	_, err := s.Answer(q.CorrectOption)
	require.NoError(t, err)
	require.NoError(t, s.Next())

	require.Equal(t, 2, clock.count(), "next question arms a fresh ticker")
	want := s.Snapshot()

	first.fire(want.MaxSeconds + 5)

	assert.Never(t, func() bool {
		snap := s.Snapshot()
		return snap.RemainingSeconds != want.MaxSeconds || snap.Phase != domain.PhasePlaying
	}, 100*time.Millisecond, 5*time.Millisecond, "ticks of a superseded question must not mutate the session")
	assert.Equal(t, []bool{true}, s.Snapshot().AnswerLog)
}

func TestSession_Restart(t *testing.T) {
	s, _ := makeSession(t)
	require.NoError(t, s.SetDifficulty(domain.DifficultyIntermediate))
	require.NoError(t, s.ToggleCategory(domain.CategoryCriticalThinking))
	require.NoError(t, s.Start())

	play(t, s, func(i int) bool { return i%2 == 0 })
	require.NoError(t, s.Restart())

	snap := s.Snapshot()
	requireInvariants(t, snap)
	assert.Equal(t, domain.PhaseStart, snap.Phase)
	assert.Equal(t, 0, snap.Score)
	assert.Equal(t, 0, snap.Index)
	assert.Empty(t, snap.AnswerLog)
	assert.Equal(t, domain.DifficultyIntermediate, snap.Difficulty)
	assert.Equal(t, []domain.Category{
		domain.CategoryBias,
		domain.CategoryFactChecking,
		domain.CategoryCriticalThinking,
	}, snap.Categories)
	assert.True(t, snap.CanStart)

	require.NoError(t, s.Start(), "a restarted session can be played again")
}

func TestSession_Close(t *testing.T) {
	s, clock := makeSession(t)
	require.NoError(t, s.Start())
	tk := clock.last()

	s.Close()
	assert.Eventually(t, tk.stopped.Load, time.Second, 5*time.Millisecond, "closing stops the countdown")

	_, err := s.Answer(0)
	assert.True(t, errors.Is(err, errors.CodeFailedPrecondition))

	remaining := s.Snapshot().RemainingSeconds
	tk.fire(3)
	assert.Never(t, func() bool {
		return s.Snapshot().RemainingSeconds != remaining
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSession_OnChangeVersions(t *testing.T) {
	var (
		mu       sync.Mutex
		versions []uint64
	)

	s, clock := makeSession(t, withOnChange(func(snap domain.SessionSnapshot) {
		mu.Lock()
		versions = append(versions, snap.Version)
		mu.Unlock()
	}))

	require.NoError(t, s.SetDifficulty(domain.DifficultyAdvanced))
	require.NoError(t, s.Start())
	clock.last().fire(1)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(versions) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, versions)
}

type sessionOption func(c *quiz.SessionConfig)

func withOnChange(fn func(domain.SessionSnapshot)) sessionOption {
	return func(c *quiz.SessionConfig) {
		c.OnChange = fn
	}
}

func withOnComplete(fn func(domain.SessionSnapshot, domain.Results)) sessionOption {
	return func(c *quiz.SessionConfig) {
		c.OnComplete = fn
	}
}

func makeSession(t *testing.T, opts ...sessionOption) (*quiz.Session, *fakeClock) {
	clock := &fakeClock{}
	c := quiz.SessionConfig{
		ID:            "s1",
		Rand:          newRand(),
		NewTickerFunc: clock.NewTicker,
	}

	for _, opt := range opts {
		opt(&c)
	}

	s := quiz.NewSession(c)
	t.Cleanup(s.Close)
	return s, clock
}
