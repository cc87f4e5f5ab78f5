package quiz

import (
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
)

// DefaultCategories are selected when a session is created.
var DefaultCategories = []domain.Category{
	domain.CategoryBias,
	domain.CategoryFactChecking,
}

type SessionConfig struct {
	ID            string
	Catalog       []domain.Question
	Rand          *rand.Rand
	NewTickerFunc func(d time.Duration) Ticker
	Now           func() time.Time

	// OnChange receives a snapshot after every change, including timer ticks.
	OnChange func(domain.SessionSnapshot)
	// OnComplete is called once each time the session enters the results phase.
	OnComplete func(domain.SessionSnapshot, domain.Results)
}

// Session is one play-through of the quiz. It is safe for concurrent use; the
// countdown runs on its own goroutine and competes with player actions for the lock.
type Session struct {
	id         string
	catalog    []domain.Question
	rng        *rand.Rand
	newTicker  func(d time.Duration) Ticker
	now        func() time.Time
	onChange   func(domain.SessionSnapshot)
	onComplete func(domain.SessionSnapshot, domain.Results)

	mu         sync.Mutex
	closed     bool
	lastActive time.Time
	version    uint64

	phase      domain.Phase
	difficulty domain.Difficulty
	categories []domain.Category
	active     []domain.Question
	index      int
	score      int
	answerLog  []bool
	remaining  int
	maxSeconds int
	feedback   *domain.Feedback

	timer    *countdown
	timerGen uint64
}

func NewSession(c SessionConfig) *Session {
	s := &Session{
		id:         c.ID,
		catalog:    c.Catalog,
		rng:        c.Rand,
		newTicker:  c.NewTickerFunc,
		now:        c.Now,
		onChange:   c.OnChange,
		onComplete: c.OnComplete,
		phase:      domain.PhaseStart,
		difficulty: domain.DifficultyBeginner,
		categories: slices.Clone(DefaultCategories),
	}

	if s.catalog == nil {
		s.catalog = Catalog()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.newTicker == nil {
		s.newTicker = newTimeTicker
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.lastActive = s.now()
	s.drawLocked()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// SetDifficulty changes the difficulty during configuration and redraws the questions.
func (s *Session) SetDifficulty(d domain.Difficulty) error {
	return s.update(func() error {
		if !d.Valid() {
			return errors.InvalidArgument("unknown difficulty %q", d)
		}
		if err := s.requirePhase(domain.PhaseStart); err != nil {
			return err
		}

		s.difficulty = d
		s.drawLocked()
		return nil
	})
}

// ToggleCategory adds or removes a category during configuration and redraws the questions.
// Removing the last selected category does nothing.
func (s *Session) ToggleCategory(c domain.Category) error {
	return s.update(func() error {
		if !c.Valid() {
			return errors.InvalidArgument("unknown category %q", c)
		}
		if err := s.requirePhase(domain.PhaseStart); err != nil {
			return err
		}

		selected := slices.Contains(s.categories, c)
		if selected && len(s.categories) == 1 {
			return nil
		}

		next := make([]domain.Category, 0, len(domain.Categories))
		for _, v := range domain.Categories {
			in := slices.Contains(s.categories, v)
			if v == c {
				in = !selected
			}
			if in {
				next = append(next, v)
			}
		}

		s.categories = next
		s.drawLocked()
		return nil
	})
}

func (s *Session) CanStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.canStartLocked()
}

// Start begins play at the first drawn question.
func (s *Session) Start() error {
	return s.update(func() error {
		if err := s.requirePhase(domain.PhaseStart); err != nil {
			return err
		}
		if !s.canStartLocked() {
			return errors.FailedPrecondition("no questions to play")
		}

		s.score = 0
		s.index = 0
		s.answerLog = []bool{}
		s.feedback = nil
		s.phase = domain.PhasePlaying
		s.armTimerLocked()

		sessionsStarted.WithLabelValues(string(s.difficulty)).Inc()
		return nil
	})
}

// Answer resolves the current question with the selected option.
func (s *Session) Answer(option int) (*domain.Feedback, error) {
	var fb *domain.Feedback
	err := s.update(func() error {
		if err := s.requirePhase(domain.PhasePlaying); err != nil {
			return err
		}
		q := s.active[s.index]
		if !q.IsValidOption(option) {
			return errors.InvalidArgument("option %d out of range [0, %d)", option, len(q.Options))
		}

		fb = s.resolveLocked(&option)
		return nil
	})
	if err != nil {
		return nil, err
	}

	f := *fb
	return &f, nil
}

// Next leaves the feedback phase, either to the next question or to the results.
func (s *Session) Next() error {
	var (
		completed bool
		snap      domain.SessionSnapshot
		res       domain.Results
	)

	err := s.update(func() error {
		if err := s.requirePhase(domain.PhaseFeedback); err != nil {
			return err
		}

		s.feedback = nil
		if s.index+1 < len(s.active) {
			s.index++
			s.phase = domain.PhasePlaying
			s.armTimerLocked()
			return nil
		}

		s.index = len(s.active)
		s.phase = domain.PhaseResults
		s.remaining = 0

		completed = true
		snap = s.snapshotLocked()
		res = s.resultsLocked()
		sessionsCompleted.WithLabelValues(string(s.difficulty)).Inc()
		return nil
	})
	if err != nil {
		return err
	}

	if completed && s.onComplete != nil {
		s.onComplete(snap, res)
	}
	return nil
}

// Results returns the summary of a finished session.
func (s *Session) Results() (*domain.Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	if err := s.requirePhase(domain.PhaseResults); err != nil {
		return nil, err
	}

	res := s.resultsLocked()
	return &res, nil
}

// Restart returns to configuration. Difficulty and categories are kept, progress is discarded.
func (s *Session) Restart() error {
	return s.update(func() error {
		if err := s.requirePhase(domain.PhaseResults); err != nil {
			return err
		}

		s.stopTimerLocked()
		s.phase = domain.PhaseStart
		s.score = 0
		s.index = 0
		s.answerLog = []bool{}
		s.feedback = nil
		s.remaining = 0
		s.maxSeconds = 0
		s.drawLocked()
		return nil
	})
}

// Close cancels any running countdown. A closed session rejects every operation.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.stopTimerLocked()
}

func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// LastActive is the time of the last player action.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActive
}

func (s *Session) update(fn func() error) error {
	s.mu.Lock()
	if err := s.requireOpen(); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := fn(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.lastActive = s.now()
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Session) notify(snap domain.SessionSnapshot) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func (s *Session) requireOpen() error {
	if s.closed {
		return errors.FailedPrecondition("session %s is closed", s.id)
	}
	return nil
}

func (s *Session) requirePhase(p domain.Phase) error {
	if s.phase != p {
		return errors.FailedPrecondition("session is in phase %q, want %q", s.phase, p)
	}
	return nil
}

func (s *Session) canStartLocked() bool {
	return len(s.active) > 0 && len(s.categories) > 0
}

func (s *Session) drawLocked() {
	s.active = Select(s.catalog, s.difficulty, s.categories, s.rng)
}

// resolveLocked records the outcome of the current question. A nil selection is a timeout.
func (s *Session) resolveLocked(selected *int) *domain.Feedback {
	q := s.active[s.index]
	correct := selected != nil && q.IsCorrect(*selected)
	if correct {
		s.score++
	}
	s.answerLog = append(s.answerLog, correct)
	s.stopTimerLocked()

	s.feedback = &domain.Feedback{
		Correct:       correct,
		TimedOut:      selected == nil,
		Selected:      selected,
		CorrectOption: q.CorrectOption,
		CorrectText:   q.Options[q.CorrectOption],
		Explanation:   q.Explanation,
	}
	s.phase = domain.PhaseFeedback

	switch {
	case selected == nil:
		answers.WithLabelValues(outcomeTimeout).Inc()
	case correct:
		answers.WithLabelValues(outcomeCorrect).Inc()
	default:
		answers.WithLabelValues(outcomeIncorrect).Inc()
	}

	return s.feedback
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()

	s.maxSeconds = MaxSeconds(s.active[s.index], s.difficulty)
	s.remaining = s.maxSeconds

	gen := s.timerGen
	s.timer = startCountdown(s.newTicker(tickInterval), func() bool {
		return s.tick(gen)
	})
}

// stopTimerLocked cancels the countdown and bumps the generation so a tick that
// is already waiting for the lock is discarded.
func (s *Session) stopTimerLocked() {
	s.timer.stop()
	s.timer = nil
	s.timerGen++
}

func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	if s.closed || gen != s.timerGen || s.phase != domain.PhasePlaying {
		s.mu.Unlock()
		return false
	}

	s.remaining--
	running := true
	if s.remaining <= 0 {
		s.remaining = 0
		s.resolveLocked(nil)
		running = false
	}
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return running
}

func (s *Session) resultsLocked() domain.Results {
	return Summarize(s.active, s.answerLog, s.categories)
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:        s.id,
		Version:          s.version,
		Phase:            s.phase,
		Difficulty:       s.difficulty,
		Categories:       slices.Clone(s.categories),
		CanStart:         s.phase == domain.PhaseStart && s.canStartLocked(),
		Index:            s.index,
		Total:            len(s.active),
		Score:            s.score,
		AnswerLog:        slices.Clone(s.answerLog),
		RemainingSeconds: s.remaining,
		MaxSeconds:       s.maxSeconds,
	}
	if snap.AnswerLog == nil {
		snap.AnswerLog = []bool{}
	}

	if s.phase == domain.PhasePlaying || s.phase == domain.PhaseFeedback {
		snap.Question = s.active[s.index].View()
	}
	if s.feedback != nil {
		fb := *s.feedback
		snap.Feedback = &fb
	}

	return snap
}
