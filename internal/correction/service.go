// Package correction grades a student's batch of answers for one exam or
// exercise list and keeps the per-context totals derived from persisted state.
package correction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/events"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
	"github.com/mind-engage/mindengage-assessment/internal/metrics"
)

var ErrInvalidBatch = errors.New("invalid batch")

// Skip reasons.
const (
	SkipMissingQuestionID = "missing_question_id"
	SkipNotInContext      = "question_not_in_context"
	SkipQuestionNotFound  = "question_not_found"
)

type Entry struct {
	QuestionID  string   `json:"question_id"`
	Value       any      `json:"value"`
	ManualScore *float64 `json:"manual_score,omitempty"`
}

type Batch struct {
	StudentID string
	ContextID string
	Entries   []Entry
	Finalize  bool // stamps FinalizedAt on every saved answer
}

type Skip struct {
	QuestionID string `json:"question_id"`
	Reason     string `json:"reason"`
}

type Outcome struct {
	BatchID string              `json:"batch_id"`
	Results []assessment.Answer `json:"results"`
	Skipped []Skip              `json:"skipped"`
	Totals  Totals              `json:"totals"`
}

// EventSink receives one event per corrected batch.
type EventSink interface {
	Append(ctx context.Context, e events.Event) error
}

type Service struct {
	questions assessment.QuestionStore
	contexts  assessment.ContextStore
	answers   assessment.AnswerStore
	engine    *grading.Engine
	events    EventSink
	log       *zap.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithEvents(e EventSink) Option         { return func(s *Service) { s.events = e } }
func WithLogger(l *zap.Logger) Option       { return func(s *Service) { s.log = l } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(questions assessment.QuestionStore, contexts assessment.ContextStore, answers assessment.AnswerStore, engine *grading.Engine, opts ...Option) *Service {
	s := &Service{
		questions: questions,
		contexts:  contexts,
		answers:   answers,
		engine:    engine,
		log:       zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.engine == nil {
		s.engine = grading.NewEngine(grading.WithLogger(s.log))
	}
	return s
}

// CorrectBatch grades and upserts every entry. Entries whose question is not
// an item of the context, or does not exist, are skipped; a store failure aborts the remaining entries and
// leaves already-saved answers in place. Totals are re-read from the store.
func (s *Service) CorrectBatch(ctx context.Context, b Batch) (Outcome, error) {
	start := time.Now()
	out, err := s.correctBatch(ctx, b)
	metrics.CorrectionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CorrectionBatches.WithLabelValues("error").Inc()
		return out, err
	}
	metrics.CorrectionBatches.WithLabelValues("ok").Inc()
	return out, nil
}

func (s *Service) correctBatch(ctx context.Context, b Batch) (Outcome, error) {
	if b.StudentID == "" || b.ContextID == "" {
		return Outcome{}, fmt.Errorf("%w: student and context are required", ErrInvalidBatch)
	}
	cx, err := s.contexts.GetContext(ctx, b.ContextID)
	if err != nil {
		return Outcome{}, fmt.Errorf("context %s: %w", b.ContextID, err)
	}

	out := Outcome{
		BatchID: uuid.NewString(),
		Results: make([]assessment.Answer, 0, len(b.Entries)),
		Skipped: []Skip{},
	}
	log := s.log.With(
		zap.String("batch", out.BatchID),
		zap.String("student", b.StudentID),
		zap.String("context", b.ContextID))

	for _, e := range b.Entries {
		if e.QuestionID == "" {
			out.Skipped = append(out.Skipped, s.skip(e.QuestionID, SkipMissingQuestionID))
			continue
		}
		if !cx.Has(e.QuestionID) {
			log.Warn("question not part of context, entry skipped", zap.String("question", e.QuestionID))
			out.Skipped = append(out.Skipped, s.skip(e.QuestionID, SkipNotInContext))
			continue
		}
		q, err := s.questions.GetQuestion(ctx, e.QuestionID)
		if errors.Is(err, assessment.ErrNotFound) {
			log.Warn("question not found, entry skipped", zap.String("question", e.QuestionID))
			out.Skipped = append(out.Skipped, s.skip(e.QuestionID, SkipQuestionNotFound))
			continue
		}
		if err != nil {
			return out, fmt.Errorf("load question %s: %w", e.QuestionID, err)
		}

		maxScore := cx.EffectivePoints(q.ID, q.Points)
		res := s.engine.ScoreQuestion(q.Q(), e.Value, maxScore, e.ManualScore)
		metrics.GradingResults.WithLabelValues(questionType(q.Type), string(res.Status)).Inc()

		a := s.record(b, q.ID, e, res)
		if err := s.answers.UpsertAnswer(ctx, a); err != nil {
			return out, fmt.Errorf("save answer for question %s: %w", q.ID, err)
		}
		out.Results = append(out.Results, a)
	}

	report, err := s.Report(ctx, b.StudentID, b.ContextID)
	if err != nil {
		return out, err
	}
	out.Totals = report.Totals

	if s.events != nil {
		ev := events.Event{
			Type: events.TypeAnswersGraded,
			Key:  b.StudentID + "|" + b.ContextID,
			Data: map[string]any{
				"batch_id": out.BatchID,
				"graded":   len(out.Results),
				"skipped":  len(out.Skipped),
				"obtained": out.Totals.Obtained,
				"possible": out.Totals.Possible,
				"finalize": b.Finalize,
			},
		}
		if err := s.events.Append(ctx, ev); err != nil {
			log.Warn("event append failed", zap.Error(err))
		}
	}
	log.Info("batch corrected",
		zap.Int("graded", len(out.Results)),
		zap.Int("skipped", len(out.Skipped)),
		zap.Float64("obtained", out.Totals.Obtained))
	return out, nil
}

func (s *Service) record(b Batch, questionID string, e Entry, res grading.Result) assessment.Answer {
	now := s.now().UTC()
	a := assessment.Answer{
		StudentID:   b.StudentID,
		QuestionID:  questionID,
		ContextID:   b.ContextID,
		Value:       e.Value,
		ManualScore: e.ManualScore,
		MaxScore:    res.MaxScore,
		IsCorrect:   res.IsCorrect,
		Status:      res.Status,
		Reason:      res.Reason,
		UpdatedAt:   now,
	}
	if res.Status != grading.StatusPending {
		pts := res.PointsAwarded
		a.PointsAwarded = &pts
	}
	if b.Finalize {
		a.FinalizedAt = &now
	}
	return a
}

func (s *Service) skip(questionID, reason string) Skip {
	metrics.SkippedEntries.WithLabelValues(reason).Inc()
	return Skip{QuestionID: questionID, Reason: reason}
}

func questionType(raw string) string {
	t, err := grading.ParseType(raw)
	if err != nil {
		return "unknown"
	}
	return string(t)
}
