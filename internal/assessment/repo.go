package assessment

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type QuestionStore interface {
	GetQuestion(ctx context.Context, id string) (Question, error)
}

type ContextStore interface {
	GetContext(ctx context.Context, id string) (Context, error)
}

// AnswerStore keeps at most one Answer per (student, question, context).
// Concurrent upserts of the same key are last-write-wins.
type AnswerStore interface {
	UpsertAnswer(ctx context.Context, a Answer) error
	ListByStudentContext(ctx context.Context, studentID, contextID string) ([]Answer, error)
	ListByQuestion(ctx context.Context, questionID string) ([]Answer, error)
	ListByContext(ctx context.Context, contextID string) ([]Answer, error)
}

// Store is everything the grading core reads and writes.
type Store interface {
	QuestionStore
	ContextStore
	AnswerStore

	PutQuestion(ctx context.Context, q Question) error
	PutContext(ctx context.Context, c Context) error
}
