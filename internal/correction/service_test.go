package correction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/events"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

func fptr(f float64) *float64 { return &f }

type recordingSink struct {
	events []events.Event
	err    error
}

func (r *recordingSink) Append(_ context.Context, e events.Event) error {
	r.events = append(r.events, e)
	return r.err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T, opts ...Option) (*Service, assessment.Store) {
	t.Helper()
	ctx := context.Background()
	store := assessment.NewInMemoryStore()
	questions := []assessment.Question{
		{ID: "mc", Type: "single_choice", Points: 1, Options: []grading.Option{
			{Label: "A", Text: "3"}, {Label: "B", Text: "4", IsCorrect: true},
		}},
		{ID: "num", Type: "numerica", Points: 2, CorrectValue: fptr(9.8), Tolerance: 0.1},
		{ID: "essay", Type: "free_text", Points: 5},
		{ID: "broken", Type: "single_choice", Points: 1, Options: []grading.Option{{Label: "A"}}},
		{ID: "foreign", Type: "single_choice", Points: 50, Options: []grading.Option{{Label: "A", IsCorrect: true}}},
	}
	for _, q := range questions {
		if err := store.PutQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	cx := assessment.Context{ID: "exam", Kind: assessment.KindExam, Items: []assessment.Item{
		{QuestionID: "mc", Points: fptr(3)},
		{QuestionID: "num"},
		{QuestionID: "essay"},
		{QuestionID: "broken"},
		{QuestionID: "ghost"},
	}}
	if err := store.PutContext(ctx, cx); err != nil {
		t.Fatal(err)
	}
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(store, store, store, grading.NewEngine(), opts...), store
}

func byQuestion(answers []assessment.Answer) map[string]assessment.Answer {
	out := make(map[string]assessment.Answer, len(answers))
	for _, a := range answers {
		out[a.QuestionID] = a
	}
	return out
}

func TestCorrectBatch(t *testing.T) {
	sink := &recordingSink{}
	svc, _ := setup(t, WithEvents(sink))

	out, err := svc.CorrectBatch(context.Background(), Batch{
		StudentID: "s1",
		ContextID: "exam",
		Entries: []Entry{
			{QuestionID: "mc", Value: "B"},
			{QuestionID: "num", Value: "9.85"},
			{QuestionID: "essay", Value: "because gravity"},
			{QuestionID: "ghost", Value: "A"},
			{QuestionID: "", Value: "A"},
		},
	})
	if err != nil {
		t.Fatalf("CorrectBatch: %v", err)
	}
	if out.BatchID == "" {
		t.Fatal("missing batch id")
	}
	if len(out.Results) != 3 || len(out.Skipped) != 2 {
		t.Fatalf("results=%d skipped=%+v", len(out.Results), out.Skipped)
	}
	if out.Skipped[0].Reason != SkipQuestionNotFound || out.Skipped[1].Reason != SkipMissingQuestionID {
		t.Fatalf("skipped = %+v", out.Skipped)
	}

	got := byQuestion(out.Results)
	if mc := got["mc"]; mc.MaxScore != 3 || mc.Points() != 3 || !mc.IsCorrect {
		t.Fatalf("mc should use the context override: %+v", mc)
	}
	if num := got["num"]; num.MaxScore != 2 || num.Points() != 2 {
		t.Fatalf("num should use the question default: %+v", num)
	}
	if essay := got["essay"]; essay.Status != grading.StatusPending || essay.PointsAwarded != nil {
		t.Fatalf("essay without manual score should be pending: %+v", essay)
	}

	want := Totals{Obtained: 5, Possible: 10, Answers: 3, Graded: 2, Pending: 1, Correct: 2}
	if out.Totals != want {
		t.Fatalf("totals = %+v, want %+v", out.Totals, want)
	}
	if len(sink.events) != 1 || sink.events[0].Type != events.TypeAnswersGraded || sink.events[0].Key != "s1|exam" {
		t.Fatalf("events = %+v", sink.events)
	}
}

func TestCorrectBatch_ResubmissionReplaces(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()

	first := Batch{StudentID: "s1", ContextID: "exam", Entries: []Entry{
		{QuestionID: "mc", Value: "A"},
		{QuestionID: "essay", Value: "draft"},
	}}
	if _, err := svc.CorrectBatch(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := Batch{StudentID: "s1", ContextID: "exam", Entries: []Entry{
		{QuestionID: "mc", Value: "B"},
		{QuestionID: "essay", Value: "draft", ManualScore: fptr(7)},
	}}
	out, err := svc.CorrectBatch(ctx, second)
	if err != nil {
		t.Fatal(err)
	}

	saved, err := store.ListByStudentContext(ctx, "s1", "exam")
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 2 {
		t.Fatalf("want one record per question, got %d", len(saved))
	}
	got := byQuestion(saved)
	if got["mc"].Points() != 3 {
		t.Fatalf("mc = %+v", got["mc"])
	}
	if essay := got["essay"]; essay.Status != grading.StatusGraded || essay.Points() != 5 {
		t.Fatalf("manual score must be clamped to max: %+v", essay)
	}
	if out.Totals.Obtained != 8 || out.Totals != Sum(saved) {
		t.Fatalf("totals %+v differ from persisted sum %+v", out.Totals, Sum(saved))
	}
}

func TestCorrectBatch_TotalsIndependentOfOrder(t *testing.T) {
	entries := []Entry{
		{QuestionID: "mc", Value: "B"},
		{QuestionID: "num", Value: 12},
		{QuestionID: "essay", Value: "x", ManualScore: fptr(2.5)},
	}
	reversed := []Entry{entries[2], entries[1], entries[0]}

	a, _ := setup(t)
	b, _ := setup(t)
	outA, err := a.CorrectBatch(context.Background(), Batch{StudentID: "s", ContextID: "exam", Entries: entries})
	if err != nil {
		t.Fatal(err)
	}
	outB, err := b.CorrectBatch(context.Background(), Batch{StudentID: "s", ContextID: "exam", Entries: reversed})
	if err != nil {
		t.Fatal(err)
	}
	if outA.Totals != outB.Totals || outA.Totals.Obtained != 5.5 {
		t.Fatalf("totals differ: %+v vs %+v", outA.Totals, outB.Totals)
	}
}

func TestCorrectBatch_InvalidKeyIsPersisted(t *testing.T) {
	svc, _ := setup(t)
	out, err := svc.CorrectBatch(context.Background(), Batch{StudentID: "s", ContextID: "exam", Entries: []Entry{
		{QuestionID: "broken", Value: "A"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Results) != 1 {
		t.Fatalf("results = %+v", out.Results)
	}
	r := out.Results[0]
	if r.Status != grading.StatusInvalid || r.Reason != grading.ReasonMalformedKey || r.Points() != 0 {
		t.Fatalf("result = %+v", r)
	}
	if out.Totals.Invalid != 1 {
		t.Fatalf("totals = %+v", out.Totals)
	}
}

func TestCorrectBatch_SkipsQuestionsOutsideContext(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	out, err := svc.CorrectBatch(ctx, Batch{StudentID: "s", ContextID: "exam", Entries: []Entry{
		{QuestionID: "mc", Value: "B"},
		{QuestionID: "foreign", Value: "A"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Skipped) != 1 || out.Skipped[0] != (Skip{QuestionID: "foreign", Reason: SkipNotInContext}) {
		t.Fatalf("skipped = %+v", out.Skipped)
	}
	if out.Totals.Obtained != 3 || out.Totals.Possible != 3 {
		t.Fatalf("totals = %+v", out.Totals)
	}
	if saved, _ := store.ListByQuestion(ctx, "foreign"); len(saved) != 0 {
		t.Fatalf("foreign answer was stored: %+v", saved)
	}
}

func TestCorrectBatch_Finalize(t *testing.T) {
	svc, store := setup(t)
	ctx := context.Background()
	if _, err := svc.CorrectBatch(ctx, Batch{StudentID: "s", ContextID: "exam", Finalize: true, Entries: []Entry{
		{QuestionID: "mc", Value: "B"},
	}}); err != nil {
		t.Fatal(err)
	}
	out, err := svc.CorrectBatch(ctx, Batch{StudentID: "s", ContextID: "exam", Entries: []Entry{
		{QuestionID: "mc", Value: "A"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	saved, _ := store.ListByStudentContext(ctx, "s", "exam")
	if len(saved) != 1 || saved[0].FinalizedAt == nil || !saved[0].FinalizedAt.Equal(fixedNow) {
		t.Fatalf("finalization must survive a later draft save: %+v", saved)
	}
	if !out.Totals.Final {
		t.Fatalf("totals = %+v", out.Totals)
	}
}

func TestCorrectBatch_Errors(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	if _, err := svc.CorrectBatch(ctx, Batch{ContextID: "exam"}); !errors.Is(err, ErrInvalidBatch) {
		t.Fatalf("missing student: err = %v", err)
	}
	if _, err := svc.CorrectBatch(ctx, Batch{StudentID: "s", ContextID: "nope"}); !errors.Is(err, assessment.ErrNotFound) {
		t.Fatalf("unknown context: err = %v", err)
	}
}

func TestCorrectBatch_EventFailureDoesNotFail(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	svc, _ := setup(t, WithEvents(sink))
	if _, err := svc.CorrectBatch(context.Background(), Batch{StudentID: "s", ContextID: "exam", Entries: []Entry{
		{QuestionID: "mc", Value: "B"},
	}}); err != nil {
		t.Fatalf("CorrectBatch: %v", err)
	}
	if len(sink.events) != 1 {
		t.Fatalf("events = %d", len(sink.events))
	}
}

func TestReport(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	if _, err := svc.CorrectBatch(ctx, Batch{StudentID: "s", ContextID: "exam", Entries: []Entry{
		{QuestionID: "num", Value: 9.7},
	}}); err != nil {
		t.Fatal(err)
	}
	r, err := svc.Report(ctx, "s", "exam")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Answers) != 1 || r.Totals.Obtained != 2 {
		t.Fatalf("report = %+v", r)
	}
	empty, err := svc.Report(ctx, "nobody", "exam")
	if err != nil || empty.Totals.Answers != 0 {
		t.Fatalf("empty report = %+v, %v", empty, err)
	}
}
