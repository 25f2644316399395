package memory

import (
	"context"
	"errors"
	"testing"

	"line-quiz-bot/internal/app"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	row := make([]string, app.ColumnCount)
	row[app.ColParticipantID-1] = "U1"
	row[app.ColRedeemed-1] = "FALSE"
	if err := store.InsertRow(ctx, row, 1); err != nil {
		t.Fatalf("insert: %v", err)
	}

	ref, ok, err := store.FindByParticipant(ctx, "U1")
	if err != nil || !ok || ref != 1 {
		t.Fatalf("expected row 1, got ref=%d ok=%v err=%v", ref, ok, err)
	}

	if err := store.WriteCell(ctx, ref, app.ColRedeemed, "TRUE"); err != nil {
		t.Fatalf("write cell: %v", err)
	}
	value, err := store.ReadCell(ctx, ref, app.ColRedeemed)
	if err != nil || value != "TRUE" {
		t.Fatalf("expected TRUE, got %q err=%v", value, err)
	}

	col, err := store.ListColumn(ctx, app.ColParticipantID)
	if err != nil || len(col) != 1 || col[0] != "U1" {
		t.Fatalf("unexpected column %v err=%v", col, err)
	}
}

func TestFindByParticipantReturnsMostRecent(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	for i := 0; i < 3; i++ {
		row := make([]string, app.ColumnCount)
		row[app.ColParticipantID-1] = "U1"
		if err := store.InsertRow(ctx, row, app.RowRef(i+1)); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	ref, ok, err := store.FindByParticipant(ctx, "U1")
	if err != nil || !ok || ref != 3 {
		t.Fatalf("expected last row 3, got ref=%d ok=%v err=%v", ref, ok, err)
	}
}

func TestFailNextInjectsSingleError(t *testing.T) {
	ctx := context.Background()
	store := NewRecordStore()

	store.FailNext(errors.New("boom"))
	if _, err := store.ListColumn(ctx, app.ColParticipantID); err == nil {
		t.Fatalf("expected injected error")
	}
	if _, err := store.ListColumn(ctx, app.ColParticipantID); err != nil {
		t.Fatalf("error must fire once, got %v", err)
	}
}
