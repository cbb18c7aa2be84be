package correction

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

// Totals is always a fresh sum over persisted answers.
type Totals struct {
	Obtained float64 `json:"obtained"`
	Possible float64 `json:"possible"`
	Answers  int     `json:"answers"`
	Graded   int     `json:"graded"`
	Pending  int     `json:"pending"`
	Invalid  int     `json:"invalid"`
	Correct  int     `json:"correct"`
	Final    bool    `json:"finalized"`
}

type Report struct {
	StudentID string              `json:"student_id"`
	ContextID string              `json:"context_id"`
	Answers   []assessment.Answer `json:"answers"`
	Totals    Totals              `json:"totals"`
}

// Report re-reads every answer the student has in the context.
func (s *Service) Report(ctx context.Context, studentID, contextID string) (Report, error) {
	if studentID == "" || contextID == "" {
		return Report{}, fmt.Errorf("%w: student and context are required", ErrInvalidBatch)
	}
	answers, err := s.answers.ListByStudentContext(ctx, studentID, contextID)
	if err != nil {
		return Report{}, fmt.Errorf("list answers: %w", err)
	}
	return Report{
		StudentID: studentID,
		ContextID: contextID,
		Answers:   answers,
		Totals:    Sum(answers),
	}, nil
}

// Sum totals answers. Ungraded answers contribute zero points.
func Sum(answers []assessment.Answer) Totals {
	var t Totals
	for _, a := range answers {
		t.Answers++
		t.Obtained += a.Points()
		t.Possible += a.MaxScore
		switch a.Status {
		case grading.StatusPending:
			t.Pending++
		case grading.StatusInvalid:
			t.Invalid++
		default:
			t.Graded++
		}
		if a.IsCorrect {
			t.Correct++
		}
		if a.FinalizedAt != nil {
			t.Final = true
		}
	}
	return t
}
