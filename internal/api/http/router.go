package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/correction"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

// Mount registers the grading and analytics routes on r.
func Mount(r chi.Router, engine *grading.Engine, svc *correction.Service, store assessment.Store) {
	r.Post("/score", ScoreHandler(engine))
	r.Route("/contexts/{contextID}", func(cr chi.Router) {
		cr.Post("/corrections", CorrectBatchHandler(svc))
		cr.Get("/students", GradedStudentsHandler(store))
		cr.Get("/students/{studentID}/result", StudentResultHandler(svc))
		cr.Get("/analytics", ContextAnalyticsHandler(store))
	})
	r.Get("/questions/{questionID}/statistics", QuestionStatisticsHandler(store))
}
