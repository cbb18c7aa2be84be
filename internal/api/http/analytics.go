package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/analysis"
	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

// GET /contexts/{contextID}/students
func GradedStudentsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID := strings.TrimSpace(chi.URLParam(r, "contextID"))
		if _, err := store.GetContext(r.Context(), contextID); err != nil {
			respondError(w, err)
			return
		}
		answers, err := store.ListByContext(r.Context(), contextID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, analysis.GradedStudents(answers))
	}
}

// GET /contexts/{contextID}/analytics
func ContextAnalyticsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cx, err := store.GetContext(ctx, strings.TrimSpace(chi.URLParam(r, "contextID")))
		if err != nil {
			respondError(w, err)
			return
		}
		questions := make([]assessment.Question, 0, len(cx.Items))
		for _, it := range cx.Items {
			q, err := store.GetQuestion(ctx, it.QuestionID)
			if errors.Is(err, assessment.ErrNotFound) {
				continue
			}
			if err != nil {
				respondError(w, err)
				return
			}
			questions = append(questions, q)
		}
		answers, err := store.ListByContext(ctx, cx.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, analysis.SummarizeContext(analysis.NewContextSpec(cx, questions), answers))
	}
}

// GET /questions/{questionID}/statistics
// A question whose key cannot be resolved answers 422 rather than an empty chart.
func QuestionStatisticsHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		q, err := store.GetQuestion(ctx, strings.TrimSpace(chi.URLParam(r, "questionID")))
		if err != nil {
			respondError(w, err)
			return
		}
		key, err := grading.ResolveKey(q.Q())
		if err != nil {
			respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
			return
		}
		answers, err := store.ListByQuestion(ctx, q.ID)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, analysis.Aggregate(key, analysis.ResponsesFromAnswers(answers)))
	}
}
