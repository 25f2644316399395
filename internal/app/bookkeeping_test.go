package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/domain"
	"line-quiz-bot/internal/infra/memory"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func newBook(store *memory.RecordStore) *app.Bookkeeper {
	return app.NewBookkeeperWithClock(store, func() time.Time { return testNow })
}

func TestResolveIdentityFirstTimer(t *testing.T) {
	ctx := context.Background()
	book := newBook(memory.NewRecordStore())

	ref, err := book.ResolveIdentity(ctx, "U1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if ref.PermanentID != 1 || ref.AttemptNumber != 1 || !ref.IsFirstAttempt {
		t.Fatalf("expected fresh identity 1/1, got %+v", ref)
	}
}

func TestResolveIdentityIsStable(t *testing.T) {
	ctx := context.Background()
	book := newBook(memory.NewRecordStore())

	first, err := book.ResolveIdentity(ctx, "U1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := book.ResolveIdentity(ctx, "U1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first.PermanentID != second.PermanentID {
		t.Fatalf("permanent id must be stable with no intervening rows: %d vs %d", first.PermanentID, second.PermanentID)
	}
}

func TestAttemptNumberStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	for want := 1; want <= 3; want++ {
		ref, err := book.ResolveIdentity(ctx, "U1")
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if ref.AttemptNumber != want {
			t.Fatalf("expected attempt %d, got %d", want, ref.AttemptNumber)
		}
		if ref.IsFirstAttempt != (want == 1) {
			t.Fatalf("is_first_attempt wrong on attempt %d", want)
		}
		complete(t, book, "U1", "Ava", ref)
	}
}

func TestPermanentIDsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	refA, _ := book.ResolveIdentity(ctx, "U1")
	complete(t, book, "U1", "Ava", refA)
	refB, err := book.ResolveIdentity(ctx, "U2")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if refB.PermanentID != refA.PermanentID+1 {
		t.Fatalf("expected next permanent id %d, got %d", refA.PermanentID+1, refB.PermanentID)
	}
}

func TestRecordCompletionRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	ref, _ := book.ResolveIdentity(ctx, "U1")
	state := domain.SessionState{
		Stage:       domain.Stage{Kind: domain.StageAwaitingCompletionAck},
		DisplayName: "Ava",
		PlayerRef:   &ref,
		StartedAt:   testNow.Add(-95 * time.Second),
	}
	rec, err := book.RecordCompletion(ctx, "U1", state)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec.AttemptKey != "1-1" {
		t.Fatalf("expected attempt key 1-1, got %q", rec.AttemptKey)
	}
	if rec.DurationSeconds != 95 {
		t.Fatalf("expected duration 95s, got %d", rec.DurationSeconds)
	}
	if rec.DurationSeconds < 0 {
		t.Fatalf("duration must be non-negative")
	}
	if !rec.IsFirstEver {
		t.Fatalf("first completion must be marked first-ever")
	}

	rows := store.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0][app.ColParticipantID-1] != "U1" {
		t.Fatalf("participant column mismatch: %q", rows[0][app.ColParticipantID-1])
	}
	parsed := app.RowToRecord(rows[0])
	if parsed.AttemptKey != rec.AttemptKey || parsed.DurationSeconds != rec.DurationSeconds {
		t.Fatalf("stored row does not parse back: %+v", parsed)
	}
}

func TestIsFirstEverOnlyOnAttemptOne(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	ref1, _ := book.ResolveIdentity(ctx, "U1")
	complete(t, book, "U1", "Ava", ref1)
	ref2, _ := book.ResolveIdentity(ctx, "U1")
	complete(t, book, "U1", "Ava", ref2)

	rows := store.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	firsts := []string{rows[0][app.ColIsFirstEver-1], rows[1][app.ColIsFirstEver-1]}
	if firsts[0] != "TRUE" || firsts[1] != "FALSE" {
		t.Fatalf("is_first_ever must be true only on attempt 1, got %v", firsts)
	}
}

func TestRedeemLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	// Redeeming before any completion finds nothing and mutates nothing.
	status, err := book.Redeem(ctx, "U1")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if status != domain.RedeemNotFound {
		t.Fatalf("expected not-found, got %d", status)
	}
	if len(store.Rows()) != 0 {
		t.Fatalf("no row should have been touched")
	}

	ref, _ := book.ResolveIdentity(ctx, "U1")
	complete(t, book, "U1", "Ava", ref)

	status, err = book.Redeem(ctx, "U1")
	if err != nil || status != domain.RedeemSuccess {
		t.Fatalf("expected success, got status=%d err=%v", status, err)
	}

	// Monotonic: success never repeats.
	for i := 0; i < 3; i++ {
		status, err = book.Redeem(ctx, "U1")
		if err != nil || status != domain.RedeemAlreadyRedeemed {
			t.Fatalf("expected already-redeemed, got status=%d err=%v", status, err)
		}
	}
}

func TestRedeemedFlagCarriesForward(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	ref, _ := book.ResolveIdentity(ctx, "U1")
	complete(t, book, "U1", "Ava", ref)
	if status, _ := book.Redeem(ctx, "U1"); status != domain.RedeemSuccess {
		t.Fatalf("expected redeem success")
	}

	ref2, _ := book.ResolveIdentity(ctx, "U1")
	rec := complete(t, book, "U1", "Ava", ref2)
	if !rec.Redeemed {
		t.Fatalf("new row should carry the redeemed flag forward")
	}
}

func TestLeaderboardOrdersByDuration(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	seed := []struct {
		participant string
		name        string
		duration    time.Duration
	}{
		{"U1", "Ava", 120 * time.Second},
		{"U2", "Ben", 45 * time.Second},
		{"U3", "Cam", 300 * time.Second},
	}
	for _, s := range seed {
		ref, _ := book.ResolveIdentity(ctx, s.participant)
		state := domain.SessionState{
			DisplayName: s.name,
			PlayerRef:   &ref,
			StartedAt:   testNow.Add(-s.duration),
		}
		if _, err := book.RecordCompletion(ctx, s.participant, state); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := book.Leaderboard(ctx, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit applied, got %d entries", len(entries))
	}
	if entries[0].DisplayName != "Ben" || entries[1].DisplayName != "Ava" {
		t.Fatalf("expected Ben then Ava, got %+v", entries)
	}
}

func TestStoreFailureSurfaces(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	book := newBook(store)

	store.FailNext(errors.New("sheet offline"))
	if _, err := book.ResolveIdentity(ctx, "U1"); err == nil {
		t.Fatalf("expected resolve failure")
	}
}

func complete(t *testing.T, book *app.Bookkeeper, participant, name string, ref domain.PlayerRef) domain.CompletionRecord {
	t.Helper()
	rec, err := book.RecordCompletion(context.Background(), participant, domain.SessionState{
		DisplayName: name,
		PlayerRef:   &ref,
		StartedAt:   testNow.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("record completion: %v", err)
	}
	return rec
}
