package quiz

import (
	"math/rand/v2"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/unveil/mediaquiz/internal/domain"
)

const (
	// MinPoolSize is the smallest filtered pool a session is drawn from.
	// Thinner pools fall back to the full catalog.
	MinPoolSize = 5

	// MaxQuestions caps the number of questions in one session.
	MaxQuestions = 10
)

var timeMultipliers = map[domain.Difficulty]decimal.Decimal{
	domain.DifficultyBeginner:     decimal.RequireFromString("1.5"),
	domain.DifficultyIntermediate: decimal.RequireFromString("1.25"),
	domain.DifficultyAdvanced:     decimal.RequireFromString("1.0"),
}

// TimeMultiplier returns the factor applied to a question's time estimate at difficulty d.
func TimeMultiplier(d domain.Difficulty) decimal.Decimal {
	if m, ok := timeMultipliers[d]; ok {
		return m
	}
	return decimal.NewFromInt(1)
}

// MaxSeconds is the countdown length of q when played at difficulty d, rounded half up.
func MaxSeconds(q domain.Question, d domain.Difficulty) int {
	return int(decimal.NewFromInt(int64(q.TimeEstimateSeconds)).Mul(TimeMultiplier(d)).Round(0).IntPart())
}

// Filter returns the catalog questions whose category is selected and whose difficulty is included by d.
func Filter(questions []domain.Question, d domain.Difficulty, categories []domain.Category) []domain.Question {
	var out []domain.Question
	for _, q := range questions {
		if slices.Contains(categories, q.Category) && d.Includes(q.Difficulty) {
			out = append(out, q)
		}
	}
	return out
}

// Select draws the questions of one session.
//
// The pool is the filtered catalog, or the whole catalog when fewer than MinPoolSize questions match.
// The pool is shuffled uniformly and truncated to MaxQuestions.
func Select(questions []domain.Question, d domain.Difficulty, categories []domain.Category, rng *rand.Rand) []domain.Question {
	pool := Filter(questions, d, categories)
	if len(pool) < MinPoolSize {
		pool = slices.Clone(questions)
	}

	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if len(pool) > MaxQuestions {
		pool = pool[:MaxQuestions]
	}
	return pool
}
