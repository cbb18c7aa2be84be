package events_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mind-engage/mindengage-assessment/internal/db"
	"github.com/mind-engage/mindengage-assessment/internal/events"
)

func TestRepo_AppendSince(t *testing.T) {
	ctx := context.Background()
	dbh, err := db.Open(ctx, db.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dbh.Close()

	repo := events.NewRepo(dbh, "")
	for _, key := range []string{"s1|c1", "s2|c1", "s1|c2"} {
		if err := repo.Append(ctx, events.Event{Type: events.TypeAnswersGraded, Key: key, Data: map[string]any{"graded": 1}}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := repo.Since(ctx, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Key != "s1|c1" || got[0].SiteID != "local" {
		t.Fatalf("first page = %+v", got)
	}
	var data map[string]int
	if err := json.Unmarshal(got[0].Data.(json.RawMessage), &data); err != nil || data["graded"] != 1 {
		t.Fatalf("data = %s, %v", got[0].Data, err)
	}

	rest, err := repo.Since(ctx, got[1].Seq, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].Key != "s1|c2" {
		t.Fatalf("second page = %+v", rest)
	}
}
