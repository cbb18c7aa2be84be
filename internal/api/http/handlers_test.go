package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/analysis"
	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/correction"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

func fptr(f float64) *float64 { return &f }

func newRouter(t *testing.T) (http.Handler, assessment.Store) {
	t.Helper()
	ctx := context.Background()
	store := assessment.NewInMemoryStore()
	for _, q := range []assessment.Question{
		{ID: "q1", Type: "alternativa", Points: 2, Options: []grading.Option{
			{Label: "A", Text: "x"}, {Label: "B", Text: "y", IsCorrect: true},
		}},
		{ID: "q2", Type: "free_text", Points: 4},
		{ID: "bad", Type: "numeric", Points: 1},
	} {
		if err := store.PutQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.PutContext(ctx, assessment.Context{ID: "c1", Kind: assessment.KindList, Items: []assessment.Item{
		{QuestionID: "q1"}, {QuestionID: "q2"},
	}}); err != nil {
		t.Fatal(err)
	}
	engine := grading.NewEngine()
	svc := correction.NewService(store, store, store, engine)
	r := chi.NewRouter()
	Mount(r, engine, svc, store)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScoreHandler(t *testing.T) {
	h, _ := newRouter(t)
	rec := do(t, h, http.MethodPost, "/score", map[string]any{
		"question": map[string]any{
			"type":          "numeric",
			"points":        3,
			"correct_value": 10,
			"tolerance":     0.5,
		},
		"value": "10.5",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var res grading.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if !res.IsCorrect || res.PointsAwarded != 3 || res.Status != grading.StatusGraded {
		t.Fatalf("result = %+v", res)
	}
}

func TestScoreHandler_RequiresQuestion(t *testing.T) {
	h, _ := newRouter(t)
	if rec := do(t, h, http.MethodPost, "/score", map[string]any{"value": "A"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCorrectionsAndResult(t *testing.T) {
	h, _ := newRouter(t)
	rec := do(t, h, http.MethodPost, "/contexts/c1/corrections", map[string]any{
		"student_id": "s1",
		"answers": []map[string]any{
			{"question_id": "q1", "value": "B"},
			{"question_id": "q2", "value": "essay", "manual_score": 3},
			{"question_id": "missing", "value": "A"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var out correction.Outcome
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Totals.Obtained != 5 || out.Totals.Possible != 6 || len(out.Skipped) != 1 {
		t.Fatalf("outcome = %+v", out)
	}

	rec = do(t, h, http.MethodGet, "/contexts/c1/students/s1/result", nil)
	var rep correction.Report
	if err := json.NewDecoder(rec.Body).Decode(&rep); err != nil {
		t.Fatal(err)
	}
	if rep.Totals != out.Totals {
		t.Fatalf("report totals %+v != outcome totals %+v", rep.Totals, out.Totals)
	}

	rec = do(t, h, http.MethodGet, "/contexts/c1/students", nil)
	var students []analysis.StudentTotal
	if err := json.NewDecoder(rec.Body).Decode(&students); err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].Obtained != 5 {
		t.Fatalf("students = %+v", students)
	}
}

func TestCorrections_Errors(t *testing.T) {
	h, _ := newRouter(t)
	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "unknown context", path: "/contexts/nope/corrections", body: map[string]any{
			"student_id": "s", "answers": []map[string]any{{"question_id": "q1", "value": "A"}},
		}, want: http.StatusNotFound},
		{name: "missing student", path: "/contexts/c1/corrections", body: map[string]any{
			"answers": []map[string]any{{"question_id": "q1", "value": "A"}},
		}, want: http.StatusBadRequest},
		{name: "no answers", path: "/contexts/c1/corrections", body: map[string]any{
			"student_id": "s", "answers": []map[string]any{},
		}, want: http.StatusBadRequest},
		{name: "not json", path: "/contexts/c1/corrections", body: "nope", want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, tc.path, tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tc.want, rec.Body)
			}
		})
	}
}

func TestQuestionStatistics(t *testing.T) {
	h, store := newRouter(t)
	ctx := context.Background()
	for i, v := range []string{"B", "A", "B"} {
		a := assessment.Answer{StudentID: string(rune('a' + i)), QuestionID: "q1", ContextID: "c1", Value: v, PointsAwarded: fptr(0), MaxScore: 2}
		if err := store.UpsertAnswer(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	rec := do(t, h, http.MethodGet, "/questions/q1/statistics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var st analysis.Statistics
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Type != grading.TypeSingleChoice || len(st.Frequencies) != 2 || st.Frequencies[1].Count != 2 {
		t.Fatalf("statistics = %+v", st)
	}

	if rec := do(t, h, http.MethodGet, "/questions/bad/statistics", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed key: status = %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/questions/ghost/statistics", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown question: status = %d", rec.Code)
	}
}

func TestContextAnalytics(t *testing.T) {
	h, _ := newRouter(t)
	do(t, h, http.MethodPost, "/contexts/c1/corrections", map[string]any{
		"student_id": "s1",
		"answers":    []map[string]any{{"question_id": "q1", "value": "B"}},
	})
	rec := do(t, h, http.MethodGet, "/contexts/c1/analytics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var sum analysis.ContextSummary
	if err := json.NewDecoder(rec.Body).Decode(&sum); err != nil {
		t.Fatal(err)
	}
	if sum.Students != 1 || sum.Distribution.Scale != 6 || sum.Questions[0].Percent != 100 {
		t.Fatalf("summary = %+v", sum)
	}
}
