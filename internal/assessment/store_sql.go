package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	if q.CreatedAt == 0 {
		q.CreatedAt = time.Now().Unix()
	}
	qj, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,type,points,question_json,created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type, points=EXCLUDED.points, question_json=EXCLUDED.question_json`,
		q.ID, q.Type, q.Points, string(qj), q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT question_json FROM questions WHERE id=$1`, id)
	var qjson string
	if err := row.Scan(&qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal([]byte(qjson), &q); err != nil {
		return Question{}, fmt.Errorf("decode question %s: %w", id, err)
	}
	return q, nil
}

func (s *SQLStore) PutContext(ctx context.Context, c Context) error {
	ij, err := json.Marshal(c.Items)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO contexts (id,kind,title,total_points,items_json)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET kind=EXCLUDED.kind, title=EXCLUDED.title, total_points=EXCLUDED.total_points, items_json=EXCLUDED.items_json`,
		c.ID, string(c.Kind), c.Title, c.TotalPoints, string(ij))
	return err
}

func (s *SQLStore) GetContext(ctx context.Context, id string) (Context, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,kind,title,total_points,items_json FROM contexts WHERE id=$1`, id)
	var c Context
	var kind, ijson string
	if err := row.Scan(&c.ID, &kind, &c.Title, &c.TotalPoints, &ijson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Context{}, ErrNotFound
		}
		return Context{}, err
	}
	c.Kind = ContextKind(kind)
	if err := json.Unmarshal([]byte(ijson), &c.Items); err != nil {
		return Context{}, fmt.Errorf("decode context %s: %w", id, err)
	}
	return c, nil
}

// UpsertAnswer keeps the row id of the first insert so listings stay in
// first-submission order.
func (s *SQLStore) UpsertAnswer(ctx context.Context, a Answer) error {
	vj, err := json.Marshal(a.Value)
	if err != nil {
		return fmt.Errorf("encode answer value: %w", err)
	}
	var finalized sql.NullInt64
	if a.FinalizedAt != nil {
		finalized = sql.NullInt64{Int64: a.FinalizedAt.UnixMilli(), Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO answers
		(student_id,question_id,context_id,value_json,manual_score,points_awarded,max_score,is_correct,status,reason,finalized_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (student_id,question_id,context_id) DO UPDATE SET
		  value_json=EXCLUDED.value_json, manual_score=EXCLUDED.manual_score, points_awarded=EXCLUDED.points_awarded,
		  max_score=EXCLUDED.max_score, is_correct=EXCLUDED.is_correct, status=EXCLUDED.status, reason=EXCLUDED.reason,
		  finalized_at=COALESCE(EXCLUDED.finalized_at, answers.finalized_at), updated_at=EXCLUDED.updated_at`,
		a.StudentID, a.QuestionID, a.ContextID, string(vj), nullFloat(a.ManualScore), nullFloat(a.PointsAwarded),
		a.MaxScore, a.IsCorrect, string(a.Status), a.Reason, finalized, a.UpdatedAt.UnixMilli())
	return err
}

const answerColumns = `student_id,question_id,context_id,value_json,manual_score,points_awarded,max_score,is_correct,status,reason,finalized_at,updated_at`

func (s *SQLStore) ListByStudentContext(ctx context.Context, studentID, contextID string) ([]Answer, error) {
	return s.listAnswers(ctx, `SELECT `+answerColumns+` FROM answers WHERE student_id=$1 AND context_id=$2 ORDER BY id`, studentID, contextID)
}

func (s *SQLStore) ListByQuestion(ctx context.Context, questionID string) ([]Answer, error) {
	return s.listAnswers(ctx, `SELECT `+answerColumns+` FROM answers WHERE question_id=$1 ORDER BY id`, questionID)
}

func (s *SQLStore) ListByContext(ctx context.Context, contextID string) ([]Answer, error) {
	return s.listAnswers(ctx, `SELECT `+answerColumns+` FROM answers WHERE context_id=$1 ORDER BY id`, contextID)
}

func (s *SQLStore) listAnswers(ctx context.Context, query string, args ...any) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Answer{}
	for rows.Next() {
		var (
			a              Answer
			vjson, status  string
			manual, points sql.NullFloat64
			finalized      sql.NullInt64
			updated        int64
		)
		if err := rows.Scan(&a.StudentID, &a.QuestionID, &a.ContextID, &vjson, &manual, &points,
			&a.MaxScore, &a.IsCorrect, &status, &a.Reason, &finalized, &updated); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vjson), &a.Value); err != nil {
			a.Value = nil
		}
		a.ManualScore = floatPtr(manual)
		a.PointsAwarded = floatPtr(points)
		a.Status = grading.Status(status)
		if finalized.Valid {
			t := time.UnixMilli(finalized.Int64).UTC()
			a.FinalizedAt = &t
		}
		a.UpdatedAt = time.UnixMilli(updated).UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
