package assessment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/techbridge/internal/domain"
	"github.com/victornm/techbridge/internal/errors"
)

// PostgresStore keeps assessments in the assessments table and their history in the
// insert-only assessment_attempts table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectAssessment = `
SELECT assessment_id::text, user_id, domain, current_level, session, version, create_time, update_time
FROM assessments`

func (s *PostgresStore) FindOrCreate(ctx context.Context, userID, d string) (*domain.Assessment, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate assessment ID: %w", err)
	}

	const insStmt = `
INSERT INTO assessments (assessment_id, user_id, domain, current_level, session, version)
VALUES ($1, $2, $3, $4, '{}'::jsonb, 0)
ON CONFLICT (user_id, domain) DO NOTHING;`

	if _, err := s.db.Exec(ctx, insStmt, id, userID, d, domain.LevelBeginner); err != nil {
		return nil, fmt.Errorf("insert assessment: %w", err)
	}

	a, err := s.queryOne(ctx, selectAssessment+` WHERE user_id = $1 AND domain = $2`, userID, d)
	if err != nil {
		return nil, err
	}

	return a, s.loadHistory(ctx, a)
}

func (s *PostgresStore) Get(ctx context.Context, assessmentID string) (*domain.Assessment, error) {
	if _, err := uuid.Parse(assessmentID); err != nil {
		return nil, notFound(assessmentID)
	}

	a, err := s.queryOne(ctx, selectAssessment+` WHERE assessment_id = $1`, assessmentID)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(assessmentID)
	}
	if err != nil {
		return nil, err
	}

	return a, s.loadHistory(ctx, a)
}

func (s *PostgresStore) List(ctx context.Context, userID string) ([]domain.Assessment, error) {
	rows, err := s.db.Query(ctx, selectAssessment+` WHERE user_id = $1 ORDER BY create_time`, userID)
	if err != nil {
		return nil, fmt.Errorf("query assessments: %w", err)
	}

	as, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Assessment, error) {
		a, err := scanAssessment(r)
		if err != nil {
			return domain.Assessment{}, err
		}
		return *a, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan assessments: %w", err)
	}

	for i := range as {
		if err := s.loadHistory(ctx, &as[i]); err != nil {
			return nil, err
		}
	}

	return as, nil
}

func (s *PostgresStore) SaveSession(ctx context.Context, a *domain.Assessment) error {
	session, err := json.Marshal(a.Session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.update(ctx, s.db, a, session)
}

func (s *PostgresStore) SaveAttempt(ctx context.Context, a *domain.Assessment, at domain.Attempt) (err error) {
	questions, err := json.Marshal(at.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	answers, err := json.Marshal(at.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	session, err := json.Marshal(a.Session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
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

	const insStmt = `
INSERT INTO assessment_attempts (assessment_id, level, questions, answers, score, total, passed, accuracy, create_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`

	_, err = tx.Exec(ctx, insStmt, a.AssessmentID, at.Level, questions, answers, at.Score, at.Total, at.Passed, at.Accuracy, at.CreateTime)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	if err = s.update(ctx, tx, a, session); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *PostgresStore) update(ctx context.Context, db execer, a *domain.Assessment, session []byte) error {
	const stmt = `
UPDATE assessments
SET current_level = $3, session = $4, version = version + 1, update_time = now()
WHERE assessment_id = $1 AND version = $2;`

	tag, err := db.Exec(ctx, stmt, a.AssessmentID, a.Version, a.CurrentLevel, session)
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return errors.New(errors.CodeAborted,
			errors.WithMessagef("assessment was modified concurrently: assessment=%s", a.AssessmentID))
	}

	a.Version++
	return nil
}

func (s *PostgresStore) queryOne(ctx context.Context, sql string, args ...any) (*domain.Assessment, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query assessment: %w", err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, func(r pgx.CollectableRow) (*domain.Assessment, error) {
		return scanAssessment(r)
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func scanAssessment(r pgx.CollectableRow) (*domain.Assessment, error) {
	var (
		a       domain.Assessment
		session []byte
	)

	if err := r.Scan(&a.AssessmentID, &a.UserID, &a.Domain, &a.CurrentLevel, &session, &a.Version, &a.CreateTime, &a.UpdateTime); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(session, &a.Session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &a, nil
}

func (s *PostgresStore) loadHistory(ctx context.Context, a *domain.Assessment) error {
	const stmt = `
SELECT level, questions, answers, score, total, passed, accuracy, create_time
FROM assessment_attempts
WHERE assessment_id = $1
ORDER BY attempt_id;`

	rows, err := s.db.Query(ctx, stmt, a.AssessmentID)
	if err != nil {
		return fmt.Errorf("query attempts: %w", err)
	}

	history, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.Attempt, error) {
		var (
			at                 domain.Attempt
			questions, answers []byte
		)
		if err := r.Scan(&at.Level, &questions, &answers, &at.Score, &at.Total, &at.Passed, &at.Accuracy, &at.CreateTime); err != nil {
			return domain.Attempt{}, err
		}
		if err := json.Unmarshal(questions, &at.Questions); err != nil {
			return domain.Attempt{}, fmt.Errorf("unmarshal questions: %w", err)
		}
		if err := json.Unmarshal(answers, &at.Answers); err != nil {
			return domain.Attempt{}, fmt.Errorf("unmarshal answers: %w", err)
		}
		return at, nil
	})
	if err != nil {
		return fmt.Errorf("scan attempts: %w", err)
	}

	a.History = history
	return nil
}
