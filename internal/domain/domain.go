package domain

import (
	"time"
)

// Category tags a question with the skill it exercises.
type Category string

const (
	CategoryBias             Category = "bias"
	CategoryFactChecking     Category = "fact-checking"
	CategorySourceAnalysis   Category = "source-analysis"
	CategoryCriticalThinking Category = "critical-thinking"
	CategoryMisinformation   Category = "misinformation"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryBias,
	CategoryFactChecking,
	CategorySourceAnalysis,
	CategoryCriticalThinking,
	CategoryMisinformation,
}

var categoryLabels = map[Category]string{
	CategoryBias:             "Bias Detection",
	CategoryFactChecking:     "Fact Checking",
	CategorySourceAnalysis:   "Source Analysis",
	CategoryCriticalThinking: "Critical Thinking",
	CategoryMisinformation:   "Misinformation",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	return categoryLabels[c]
}

// Difficulty is a question tier. A selected difficulty includes every question
// of its own tier and below.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

var Difficulties = []Difficulty{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
}

var difficultyTiers = map[Difficulty]int{
	DifficultyBeginner:     1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     3,
}

func (d Difficulty) Valid() bool {
	_, ok := difficultyTiers[d]
	return ok
}

func (d Difficulty) Tier() int {
	return difficultyTiers[d]
}

// Includes reports whether a question of difficulty q is playable when d is selected.
func (d Difficulty) Includes(q Difficulty) bool {
	return q.Valid() && q.Tier() <= d.Tier()
}

// Question is an immutable multiple-choice catalog entry.
type Question struct {
	ID                  string
	Text                string
	Options             [4]string
	CorrectOption       int
	Explanation         string
	Category            Category
	Difficulty          Difficulty
	TimeEstimateSeconds int
}

func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectOption
}

func (q Question) IsValidOption(option int) bool {
	return option >= 0 && option < len(q.Options)
}

// StoryType classifies a story card.
type StoryType string

const (
	StoryTypeImportant StoryType = "important"
	StoryTypeViral     StoryType = "viral"
)

// Story is a news story as returned by the story-fetch endpoint.
type Story struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Type        StoryType    `json:"type"`
	URL         string       `json:"url"`
	URLToImage  string       `json:"urlToImage"`
	PublishedAt string       `json:"publishedAt"`
	Source      string       `json:"source"`
	Metrics     StoryMetrics `json:"metrics"`
}

type StoryMetrics struct {
	Accuracy int `json:"accuracy"`
	Bias     int `json:"bias"`
	Sources  int `json:"sources"`
}

// Analysis is the bias analysis of a piece of text.
type Analysis struct {
	BiasConfidence     float64           `json:"bias_confidence"`
	Breakdown          map[string]string `json:"breakdown"`
	BiasedWords        []string          `json:"biased_words"`
	NeutralAlternative *string           `json:"neutral_alternative"`
}

type BiasLevel string

const (
	BiasLevelLow      BiasLevel = "low"
	BiasLevelModerate BiasLevel = "moderate"
	BiasLevelHigh     BiasLevel = "high"
)

func (a Analysis) Level() BiasLevel {
	switch {
	case a.BiasConfidence > 75:
		return BiasLevelHigh
	case a.BiasConfidence > 50:
		return BiasLevelModerate
	default:
		return BiasLevelLow
	}
}

// Achievement is a badge derived from a finished session.
type Achievement struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// CategoryResult counts the questions of one category in a session and how many were answered correctly.
type CategoryResult struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	Total    int      `json:"total"`
	Correct  int      `json:"correct"`
}

// Results summarizes a finished session.
type Results struct {
	Score        int              `json:"score"`
	Total        int              `json:"total"`
	Percentage   int              `json:"percentage"`
	Achievements []Achievement    `json:"achievements"`
	Breakdown    []CategoryResult `json:"breakdown"`
}

// QuizResult is a persisted record of a finished session.
type QuizResult struct {
	ResultID     string     `json:"result_id"`
	SessionID    string     `json:"session_id"`
	Difficulty   Difficulty `json:"difficulty"`
	Categories   []Category `json:"categories"`
	Results      Results    `json:"results"`
	CompleteTime time.Time  `json:"complete_time"`
}

// Phase is the state of a quiz session.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhasePlaying  Phase = "playing"
	PhaseFeedback Phase = "feedback"
	PhaseResults  Phase = "results"
)

// QuestionView is a question as shown to a player. It never carries the correct option.
type QuestionView struct {
	ID                  string     `json:"id"`
	Text                string     `json:"text"`
	Options             [4]string  `json:"options"`
	Category            Category   `json:"category"`
	Difficulty          Difficulty `json:"difficulty"`
	TimeEstimateSeconds int        `json:"time_estimate_seconds"`
}

func (q Question) View() *QuestionView {
	return &QuestionView{
		ID:                  q.ID,
		Text:                q.Text,
		Options:             q.Options,
		Category:            q.Category,
		Difficulty:          q.Difficulty,
		TimeEstimateSeconds: q.TimeEstimateSeconds,
	}
}

// Feedback describes how the current question was resolved.
type Feedback struct {
	Correct       bool   `json:"correct"`
	TimedOut      bool   `json:"timed_out"`
	Selected      *int   `json:"selected"`
	CorrectOption int    `json:"correct_option"`
	CorrectText   string `json:"correct_text"`
	Explanation   string `json:"explanation"`
}

// SessionSnapshot is a read-only copy of a quiz session. Version grows with every change.
type SessionSnapshot struct {
	SessionID        string        `json:"session_id"`
	Version          uint64        `json:"version"`
	Phase            Phase         `json:"phase"`
	Difficulty       Difficulty    `json:"difficulty"`
	Categories       []Category    `json:"categories"`
	CanStart         bool          `json:"can_start"`
	Question         *QuestionView `json:"question,omitempty"`
	Feedback         *Feedback     `json:"feedback,omitempty"`
	Index            int           `json:"index"`
	Total            int           `json:"total"`
	Score            int           `json:"score"`
	AnswerLog        []bool        `json:"answer_log"`
	RemainingSeconds int           `json:"remaining_seconds"`
	MaxSeconds       int           `json:"max_seconds"`
}
