package audit_test

import (
	"context"
	"testing"

	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/audit"
	"github.com/Shashikanth-R/voxiscribe-updated-template/internal/db/dbtest"
)

func TestRecordAndList(t *testing.T) {
	l := audit.NewLog(dbtest.Open(t), nil)
	ctx := context.Background()

	l.Record(ctx, audit.Event{Name: audit.EventExamSubmitted, Status: audit.StatusSuccess, RelatedID: 7, RelatedType: audit.RelatedAttempt})
	l.Record(ctx, audit.Event{Name: audit.EventVideoAssemblyFailed, Status: audit.StatusFailure, RelatedID: 7, RelatedType: audit.RelatedAttempt, Details: "no chunks"})
	l.Record(ctx, audit.Event{Name: audit.EventExamSubmitted, Status: audit.StatusSuccess, RelatedID: 8, RelatedType: audit.RelatedAttempt})

	events, err := l.ListFor(ctx, audit.RelatedAttempt, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Name != audit.EventVideoAssemblyFailed || events[1].Details != "no chunks" {
		t.Errorf("unexpected event: %+v", events[1])
	}
}

func TestRecordSwallowsErrors(t *testing.T) {
	d := dbtest.Open(t)
	l := audit.NewLog(d, nil)
	_ = d.Close()
	// must not panic or block
	l.Record(context.Background(), audit.Event{Name: audit.EventExamSubmitted})
}
