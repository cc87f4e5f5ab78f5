package domain

const (
	EventNameSessionUpdated     = "quiz.session.updated"
	EventNameQuizCompleted      = "quiz.completed"
	EventNamePreferencesUpdated = "preferences.updated"
)

// EventSessionUpdated is published after every change of a quiz session, including timer ticks.
type EventSessionUpdated struct {
	Snapshot SessionSnapshot
}

func (EventSessionUpdated) Name() string { return EventNameSessionUpdated }

type EventQuizCompleted struct {
	Result QuizResult
}

func (EventQuizCompleted) Name() string { return EventNameQuizCompleted }

type EventPreferencesUpdated struct {
	Owner string
	State GlobalState
}

func (EventPreferencesUpdated) Name() string { return EventNamePreferencesUpdated }
