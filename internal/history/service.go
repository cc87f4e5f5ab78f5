package history

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/unveil/mediaquiz/internal/domain"
	"github.com/unveil/mediaquiz/internal/errors"
	"github.com/unveil/mediaquiz/internal/event"
	"github.com/unveil/mediaquiz/internal/quiz"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Config struct {
	DB       *pgxpool.Pool
	EventBus *event.Bus
}

// Service records finished quiz sessions in Postgres.
type Service struct {
	db *pgxpool.Pool
	eb *event.Bus
}

func NewService(c Config) *Service {
	s := &Service{
		db: c.DB,
		eb: c.EventBus,
	}

	s.eb.Subscribe(domain.EventNameQuizCompleted, func(ctx context.Context, e event.Event) error {
		return s.RecordResult(ctx, e.(domain.EventQuizCompleted).Result)
	})

	return s
}

const schema = `
CREATE TABLE IF NOT EXISTS quiz_results (
	result_id     UUID PRIMARY KEY,
	session_id    TEXT        NOT NULL,
	difficulty    TEXT        NOT NULL,
	categories    TEXT[]      NOT NULL,
	score         INT         NOT NULL,
	total         INT         NOT NULL,
	percentage    INT         NOT NULL,
	achievements  TEXT[]      NOT NULL,
	complete_time TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_results_complete_time_idx ON quiz_results (complete_time DESC);

CREATE TABLE IF NOT EXISTS quiz_result_categories (
	result_id UUID NOT NULL REFERENCES quiz_results (result_id) ON DELETE CASCADE,
	category  TEXT NOT NULL,
	label     TEXT NOT NULL,
	total     INT  NOT NULL,
	correct   INT  NOT NULL,
	PRIMARY KEY (result_id, category)
);`

// EnsureSchema creates the history tables when they do not exist yet.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure history schema: %w", err)
	}
	return nil
}

// RecordResult stores a finished session with its per-category breakdown.
func (s *Service) RecordResult(ctx context.Context, r domain.QuizResult) (err error) {
	id, err := uuid.Parse(r.ResultID)
	if err != nil {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid result ID: %s", r.ResultID),
			errors.WithCause(err),
		)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = stderrors.Join(err, tx.Rollback(ctx))
		}
	}()

	const (
		insResultStmt = `
INSERT INTO quiz_results (result_id, session_id, difficulty, categories, score, total, percentage, achievements, complete_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
		insCategoryStmt = `
INSERT INTO quiz_result_categories (result_id, category, label, total, correct)
VALUES ($1, $2, $3, $4, $5);`
	)

	res := r.Results
	_, err = tx.Exec(ctx, insResultStmt,
		id, r.SessionID, string(r.Difficulty), categoryStrings(r.Categories),
		res.Score, res.Total, res.Percentage, achievementIDs(res.Achievements), r.CompleteTime,
	)

	var pgErr *pgconn.PgError
	const codeUniqueViolation = "23505"
	if stderrors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return errors.New(errors.CodeAlreadyExists, errors.WithCause(err))
	}
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range res.Breakdown {
		batch.Queue(insCategoryStmt, id, string(c.Category), c.Label, c.Total, c.Correct)
	}
	if err = tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert categories: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "history: result recorded", "result_id", r.ResultID, "session_id", r.SessionID)
	return nil
}

type ListResultsRequest struct {
	Limit int
}

// ListResults returns the most recent results, newest first.
func (s *Service) ListResults(ctx context.Context, req ListResultsRequest) ([]domain.QuizResult, error) {
	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}

	const stmt = `
SELECT result_id, session_id, difficulty, categories, score, total, percentage, achievements, complete_time
FROM quiz_results
ORDER BY complete_time DESC, result_id DESC
LIMIT $1;`

	rows, err := s.db.Query(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.QuizResult, error) {
		var (
			qr           domain.QuizResult
			id           uuid.UUID
			difficulty   string
			categories   []string
			achievements []string
			completeTime time.Time
		)
		if err := r.Scan(&id, &qr.SessionID, &difficulty, &categories,
			&qr.Results.Score, &qr.Results.Total, &qr.Results.Percentage, &achievements, &completeTime); err != nil {
			return domain.QuizResult{}, err
		}

		qr.ResultID = id.String()
		qr.Difficulty = domain.Difficulty(difficulty)
		qr.CompleteTime = completeTime
		for _, c := range categories {
			qr.Categories = append(qr.Categories, domain.Category(c))
		}
		for _, a := range achievements {
			if v, ok := quiz.AchievementByID(a); ok {
				qr.Results.Achievements = append(qr.Results.Achievements, v)
			}
		}
		return qr, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan results: %w", err)
	}

	if err := s.loadBreakdowns(ctx, results); err != nil {
		return nil, err
	}

	return results, nil
}

func (s *Service) loadBreakdowns(ctx context.Context, results []domain.QuizResult) error {
	if len(results) == 0 {
		return nil
	}

	ids := make([]string, 0, len(results))
	index := make(map[string]int, len(results))
	for i, r := range results {
		ids = append(ids, r.ResultID)
		index[r.ResultID] = i
		results[i].Results.Breakdown = []domain.CategoryResult{}
	}

	const stmt = `
SELECT result_id::text, category, label, total, correct
FROM quiz_result_categories
WHERE result_id = ANY($1::uuid[])
ORDER BY result_id, array_position($2::text[], category);`

	rows, err := s.db.Query(ctx, stmt, ids, categoryStrings(domain.Categories))
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}

	type row struct {
		resultID string
		cr       domain.CategoryResult
	}
	crs, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (row, error) {
		var (
			v        row
			category string
		)
		err := r.Scan(&v.resultID, &category, &v.cr.Label, &v.cr.Total, &v.cr.Correct)
		v.cr.Category = domain.Category(category)
		return v, err
	})
	if err != nil {
		return fmt.Errorf("scan categories: %w", err)
	}

	for _, v := range crs {
		i := index[v.resultID]
		results[i].Results.Breakdown = append(results[i].Results.Breakdown, v.cr)
	}
	return nil
}

func categoryStrings(cs []domain.Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}

func achievementIDs(as []domain.Achievement) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}
