package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/events"
)

// EventFeed pages through the grading event log.
type EventFeed interface {
	Since(ctx context.Context, after int64, limit int) ([]events.Event, error)
}

type eventPage struct {
	Events []events.Event `json:"events"`
	Next   int64          `json:"next"` // pass as ?after= to continue
}

// MountEvents registers the event feed; only SQL-backed deployments keep one.
func MountEvents(r chi.Router, feed EventFeed) {
	r.Get("/events", EventsHandler(feed))
}

// GET /events?after=<seq>&limit=<n>
func EventsHandler(feed EventFeed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, err := queryInt(r, "after")
		if err != nil || after < 0 {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "after must be a non-negative integer"})
			return
		}
		limit, err := queryInt(r, "limit")
		if err != nil || limit < 0 || limit > 1000 {
			respondJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be between 0 and 1000"})
			return
		}
		evs, err := feed.Since(r.Context(), after, int(limit))
		if err != nil {
			respondError(w, err)
			return
		}
		page := eventPage{Events: evs, Next: after}
		if n := len(evs); n > 0 {
			page.Next = evs[n-1].Seq
		}
		respondJSON(w, http.StatusOK, page)
	}
}

func queryInt(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}
