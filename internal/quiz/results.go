package quiz

import (
	"github.com/shopspring/decimal"

	"github.com/unveil/mediaquiz/internal/domain"
)

var (
	AchievementPerfectScore = domain.Achievement{
		ID:          "perfect-score",
		Label:       "Perfect Score",
		Description: "Answered every question correctly",
	}
	AchievementMediaExpert = domain.Achievement{
		ID:          "media-expert",
		Label:       "Media Expert",
		Description: "Scored 80% or higher",
	}
	// The rule counts correct answers anywhere in the log, not a streak.
	// The copy still says "in a row"; see DESIGN.md.
	AchievementCriticalThinker = domain.Achievement{
		ID:          "critical-thinker",
		Label:       "Critical Thinker",
		Description: "Answered 3+ questions in a row correctly",
	}
	AchievementParticipant = domain.Achievement{
		ID:          "participant",
		Label:       "Participant",
		Description: "Completed the media literacy challenge",
	}
)

const criticalThinkerMinCorrect = 3

var achievements = map[string]domain.Achievement{
	AchievementPerfectScore.ID:    AchievementPerfectScore,
	AchievementMediaExpert.ID:     AchievementMediaExpert,
	AchievementCriticalThinker.ID: AchievementCriticalThinker,
	AchievementParticipant.ID:     AchievementParticipant,
}

// AchievementByID looks up a badge by its stable ID.
func AchievementByID(id string) (domain.Achievement, bool) {
	a, ok := achievements[id]
	return a, ok
}

// Summarize computes the results of a session from its questions and the
// parallel answer log. The breakdown covers the selected categories only.
func Summarize(questions []domain.Question, answerLog []bool, categories []domain.Category) domain.Results {
	score := countCorrect(answerLog)
	total := len(questions)

	res := domain.Results{
		Score:        score,
		Total:        total,
		Percentage:   Percentage(score, total),
		Achievements: Achievements(score, total, answerLog),
		Breakdown:    make([]domain.CategoryResult, 0, len(categories)),
	}

	for _, c := range categories {
		cr := domain.CategoryResult{Category: c, Label: c.Label()}
		for i, q := range questions {
			if q.Category != c {
				continue
			}
			cr.Total++
			if i < len(answerLog) && answerLog[i] {
				cr.Correct++
			}
		}
		res.Breakdown = append(res.Breakdown, cr)
	}

	return res
}

// Percentage is round(100 * score / total), half up.
func Percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(100 * score)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}

// Achievements evaluates every badge independently. Participant is awarded only when nothing else is.
func Achievements(score, total int, answerLog []bool) []domain.Achievement {
	var out []domain.Achievement

	if score == total {
		out = append(out, AchievementPerfectScore)
	}
	if score >= total*8/10 {
		out = append(out, AchievementMediaExpert)
	}
	if countCorrect(answerLog) >= criticalThinkerMinCorrect {
		out = append(out, AchievementCriticalThinker)
	}

	if len(out) == 0 {
		out = append(out, AchievementParticipant)
	}
	return out
}

func countCorrect(answerLog []bool) int {
	n := 0
	for _, ok := range answerLog {
		if ok {
			n++
		}
	}
	return n
}
