package assessment

import (
	"time"

	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

// ContextKind distinguishes exams from exercise lists.
type ContextKind string

const (
	KindExam ContextKind = "exam"
	KindList ContextKind = "list"
)

type Question struct {
	ID           string                `json:"id" bson:"_id"`
	Type         string                `json:"type" bson:"type"` // single_choice, statement_set, weighted_sum, numeric, free_text (legacy names accepted)
	Points       float64               `json:"points" bson:"points"`
	Options      []grading.Option      `json:"options,omitempty" bson:"options,omitempty"`
	Statements   []grading.Statement   `json:"statements,omitempty" bson:"statements,omitempty"`
	Propositions []grading.Proposition `json:"propositions,omitempty" bson:"propositions,omitempty"`
	CorrectValue *float64              `json:"correct_value,omitempty" bson:"correct_value,omitempty"`
	Tolerance    float64               `json:"tolerance,omitempty" bson:"tolerance,omitempty"`
	Reference    string                `json:"reference,omitempty" bson:"reference,omitempty"`

	CreatedAt int64 `json:"created_at,omitempty" bson:"created_at,omitempty"`
}

// Q projects the question onto the view the grading engine needs.
func (q Question) Q() grading.Q {
	return grading.Q{
		Type:         q.Type,
		Points:       q.Points,
		Options:      q.Options,
		Statements:   q.Statements,
		Propositions: q.Propositions,
		CorrectValue: q.CorrectValue,
		Tolerance:    q.Tolerance,
		Reference:    q.Reference,
	}
}

// Item places a question in a context. Points overrides the question's
// default for this context only.
type Item struct {
	QuestionID string   `json:"question_id" bson:"question_id"`
	Points     *float64 `json:"points,omitempty" bson:"points,omitempty"`
}

// Context is an exam or exercise-list instance.
type Context struct {
	ID          string      `json:"id" bson:"_id"`
	Kind        ContextKind `json:"kind" bson:"kind"`
	Title       string      `json:"title" bson:"title"`
	TotalPoints float64     `json:"total_points,omitempty" bson:"total_points,omitempty"`
	Items       []Item      `json:"items" bson:"items"`
}

// Has reports whether questionID is one of the context's items.
func (c Context) Has(questionID string) bool {
	for _, it := range c.Items {
		if it.QuestionID == questionID {
			return true
		}
	}
	return false
}

// EffectivePoints returns the override for questionID, or def when the
// context does not override it.
func (c Context) EffectivePoints(questionID string, def float64) float64 {
	for _, it := range c.Items {
		if it.QuestionID == questionID && it.Points != nil {
			return *it.Points
		}
	}
	return def
}

// Answer is the persisted record of one student's answer to one question in
// one context. PointsAwarded is nil while the answer awaits manual grading.
type Answer struct {
	StudentID     string         `json:"student_id" bson:"student_id"`
	QuestionID    string         `json:"question_id" bson:"question_id"`
	ContextID     string         `json:"context_id" bson:"context_id"`
	Value         any            `json:"value" bson:"value"`
	ManualScore   *float64       `json:"manual_score,omitempty" bson:"manual_score,omitempty"`
	PointsAwarded *float64       `json:"points_awarded" bson:"points_awarded"`
	MaxScore      float64        `json:"max_score" bson:"max_score"`
	IsCorrect     bool           `json:"is_correct" bson:"is_correct"`
	Status        grading.Status `json:"status" bson:"status"`
	Reason        string         `json:"reason,omitempty" bson:"reason,omitempty"`
	FinalizedAt   *time.Time     `json:"finalized_at,omitempty" bson:"finalized_at,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// AnswerID is the upsert key of an Answer.
type AnswerID struct {
	StudentID  string
	QuestionID string
	ContextID  string
}

func (a Answer) ID() AnswerID {
	return AnswerID{StudentID: a.StudentID, QuestionID: a.QuestionID, ContextID: a.ContextID}
}

// Points returns PointsAwarded, counting ungraded answers as zero.
func (a Answer) Points() float64 {
	if a.PointsAwarded == nil {
		return 0
	}
	return *a.PointsAwarded
}
