package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/correction"
)

type correctionReq struct {
	StudentID string             `json:"student_id" validate:"required"`
	Answers   []correction.Entry `json:"answers" validate:"required,min=1"`
	Finalize  bool               `json:"finalize,omitempty"`
}

// POST /contexts/{contextID}/corrections
func CorrectBatchHandler(svc *correction.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req correctionReq
		if !decode(w, r, &req) {
			return
		}
		out, err := svc.CorrectBatch(r.Context(), correction.Batch{
			StudentID: strings.TrimSpace(req.StudentID),
			ContextID: strings.TrimSpace(chi.URLParam(r, "contextID")),
			Entries:   req.Answers,
			Finalize:  req.Finalize,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /contexts/{contextID}/students/{studentID}/result
func StudentResultHandler(svc *correction.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := svc.Report(r.Context(),
			strings.TrimSpace(chi.URLParam(r, "studentID")),
			strings.TrimSpace(chi.URLParam(r, "contextID")))
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, rep)
	}
}
