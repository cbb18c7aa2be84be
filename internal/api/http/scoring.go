package http

import (
	"net/http"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

type scoreReq struct {
	Question    assessment.Question `json:"question" validate:"required"`
	Value       any                 `json:"value"`
	MaxScore    *float64            `json:"max_score,omitempty"`
	ManualScore *float64            `json:"manual_score,omitempty"`
}

// POST /score
// Grades one answer without persisting it. max_score defaults to the
// question's points.
func ScoreHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req scoreReq
		if !decode(w, r, &req) {
			return
		}
		maxScore := req.Question.Points
		if req.MaxScore != nil {
			maxScore = *req.MaxScore
		}
		respondJSON(w, http.StatusOK, engine.ScoreQuestion(req.Question.Q(), req.Value, maxScore, req.ManualScore))
	}
}
