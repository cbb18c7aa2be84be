package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-assessment/internal/events"
)

type fakeFeed struct {
	events   []events.Event
	err      error
	gotAfter int64
	gotLimit int
}

func (f *fakeFeed) Since(_ context.Context, after int64, limit int) ([]events.Event, error) {
	f.gotAfter, f.gotLimit = after, limit
	if f.err != nil {
		return nil, f.err
	}
	out := []events.Event{}
	for _, e := range f.events {
		if e.Seq > after {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestEventsHandler(t *testing.T) {
	feed := &fakeFeed{events: []events.Event{
		{Seq: 1, Type: events.TypeAnswersGraded, Key: "s1|c1"},
		{Seq: 2, Type: events.TypeAnswersGraded, Key: "s2|c1"},
	}}
	r := chi.NewRouter()
	MountEvents(r, feed)

	rec := do(t, r, http.MethodGet, "/events?after=1&limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var page eventPage
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Events) != 1 || page.Events[0].Key != "s2|c1" || page.Next != 2 {
		t.Fatalf("page = %+v", page)
	}
	if feed.gotAfter != 1 || feed.gotLimit != 10 {
		t.Fatalf("feed called with after=%d limit=%d", feed.gotAfter, feed.gotLimit)
	}

	rec = do(t, r, http.MethodGet, "/events?after=2", nil)
	page = eventPage{}
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Events) != 0 || page.Next != 2 {
		t.Fatalf("empty page = %+v", page)
	}
}

func TestEventsHandler_Errors(t *testing.T) {
	r := chi.NewRouter()
	MountEvents(r, &fakeFeed{err: errors.New("db down")})
	tests := map[string]int{
		"/events?after=x":      http.StatusBadRequest,
		"/events?after=-1":     http.StatusBadRequest,
		"/events?limit=100000": http.StatusBadRequest,
		"/events":              http.StatusInternalServerError,
	}
	for path, want := range tests {
		if rec := do(t, r, http.MethodGet, path, nil); rec.Code != want {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, want)
		}
	}
}
