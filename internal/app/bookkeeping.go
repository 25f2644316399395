package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"line-quiz-bot/internal/domain"
)

// RowRef addresses one row of the record store (1-based).
type RowRef int

// Record store column schema. Positions are a fixed contract with the
// backing sheet; reordering columns silently corrupts bookkeeping.
const (
	ColAttemptKey    = 1
	ColDisplayName   = 2
	ColCompletedAt   = 3
	ColDuration      = 4
	ColParticipantID = 5
	ColRedeemed      = 6
	ColIsFirstEver   = 7
	ColPermanentID   = 8
	ColAttemptNumber = 9

	ColumnCount = 9
)

// RecordStore abstracts the spreadsheet-like system of record. Rows are only
// inserted or have single cells updated; no transactions are assumed.
type RecordStore interface {
	// FindByParticipant returns the most recent row whose participant column
	// matches, or ok=false when none exists.
	FindByParticipant(ctx context.Context, participantID string) (RowRef, bool, error)
	ReadCell(ctx context.Context, row RowRef, col int) (string, error)
	WriteCell(ctx context.Context, row RowRef, col int, value string) error
	InsertRow(ctx context.Context, values []string, at RowRef) error
	ListColumn(ctx context.Context, col int) ([]string, error)
}

// Bookkeeper owns identity resolution and the completion/redemption rows.
//
// The backing store offers no compare-and-swap, so every read-then-write here
// carries a race window across processes. Within this process, the dispatcher
// serializes per participant and resolve scans are collapsed by singleflight.
type Bookkeeper struct {
	store RecordStore
	now   func() time.Time
	sf    singleflight.Group
}

func NewBookkeeper(store RecordStore) *Bookkeeper {
	return &Bookkeeper{store: store, now: time.Now}
}

// NewBookkeeperWithClock is test-only for deterministic timestamps.
func NewBookkeeperWithClock(store RecordStore, now func() time.Time) *Bookkeeper {
	return &Bookkeeper{store: store, now: now}
}

// ResolveIdentity scans prior rows for the participant. A first-time
// participant is allocated max(permanent ids)+1 with attempt 1; a returning
// one reuses their permanent id with attempt max+1.
func (b *Bookkeeper) ResolveIdentity(ctx context.Context, participantID string) (domain.PlayerRef, error) {
	v, err, _ := b.sf.Do(participantID, func() (interface{}, error) {
		return b.resolveIdentity(ctx, participantID)
	})
	if err != nil {
		return domain.PlayerRef{}, err
	}
	return v.(domain.PlayerRef), nil
}

func (b *Bookkeeper) resolveIdentity(ctx context.Context, participantID string) (domain.PlayerRef, error) {
	participants, err := b.store.ListColumn(ctx, ColParticipantID)
	if err != nil {
		return domain.PlayerRef{}, fmt.Errorf("resolve identity: %w", err)
	}
	permanents, err := b.store.ListColumn(ctx, ColPermanentID)
	if err != nil {
		return domain.PlayerRef{}, fmt.Errorf("resolve identity: %w", err)
	}
	attempts, err := b.store.ListColumn(ctx, ColAttemptNumber)
	if err != nil {
		return domain.PlayerRef{}, fmt.Errorf("resolve identity: %w", err)
	}

	maxPermanent := 0
	ownPermanent := 0
	ownMaxAttempt := 0
	for i, participant := range participants {
		permanent := atoiAt(permanents, i)
		if permanent > maxPermanent {
			maxPermanent = permanent
		}
		if participant != participantID {
			continue
		}
		if ownPermanent == 0 {
			ownPermanent = permanent
		}
		if attempt := atoiAt(attempts, i); attempt > ownMaxAttempt {
			ownMaxAttempt = attempt
		}
	}

	if ownPermanent == 0 {
		return domain.PlayerRef{
			PermanentID:    maxPermanent + 1,
			AttemptNumber:  1,
			IsFirstAttempt: true,
		}, nil
	}
	return domain.PlayerRef{
		PermanentID:    ownPermanent,
		AttemptNumber:  ownMaxAttempt + 1,
		IsFirstAttempt: false,
	}, nil
}

// RecordCompletion appends one row for the finished play-through and returns
// it. The redeemed flag carries forward from any prior redeemed row; it is a
// denormalized convenience for staff, not a correctness field.
func (b *Bookkeeper) RecordCompletion(ctx context.Context, participantID string, state domain.SessionState) (domain.CompletionRecord, error) {
	if state.PlayerRef == nil || state.StartedAt.IsZero() {
		return domain.CompletionRecord{}, fmt.Errorf("record completion: session has no resolved identity")
	}

	completedAt := b.now()
	duration := int(completedAt.Sub(state.StartedAt).Seconds())
	if duration < 0 {
		duration = 0
	}

	redeemed, err := b.priorRedeemed(ctx, participantID)
	if err != nil {
		return domain.CompletionRecord{}, err
	}

	rec := domain.CompletionRecord{
		DisplayName:     state.DisplayName,
		CompletedAt:     completedAt,
		DurationSeconds: duration,
		ParticipantID:   participantID,
		Redeemed:        redeemed,
		IsFirstEver:     state.PlayerRef.IsFirstAttempt,
		PermanentID:     state.PlayerRef.PermanentID,
		AttemptNumber:   state.PlayerRef.AttemptNumber,
	}
	rec.AttemptKey = rec.Key()

	keys, err := b.store.ListColumn(ctx, ColAttemptKey)
	if err != nil {
		return domain.CompletionRecord{}, fmt.Errorf("record completion: %w", err)
	}
	at := RowRef(len(keys) + 1)
	if err := b.store.InsertRow(ctx, RecordToRow(rec), at); err != nil {
		return domain.CompletionRecord{}, fmt.Errorf("record completion: %w", err)
	}
	return rec, nil
}

func (b *Bookkeeper) priorRedeemed(ctx context.Context, participantID string) (bool, error) {
	participants, err := b.store.ListColumn(ctx, ColParticipantID)
	if err != nil {
		return false, fmt.Errorf("record completion: %w", err)
	}
	redeemed, err := b.store.ListColumn(ctx, ColRedeemed)
	if err != nil {
		return false, fmt.Errorf("record completion: %w", err)
	}
	for i, participant := range participants {
		if participant == participantID && i < len(redeemed) && parseBool(redeemed[i]) {
			return true, nil
		}
	}
	return false, nil
}

// Redeem flips the redeemed flag on the participant's most recent row.
// Read-modify-write without locking: two concurrent redemptions can both
// observe false and both report success, exactly as the store allows.
func (b *Bookkeeper) Redeem(ctx context.Context, participantID string) (domain.RedeemStatus, error) {
	row, ok, err := b.store.FindByParticipant(ctx, participantID)
	if err != nil {
		return 0, fmt.Errorf("redeem: %w", err)
	}
	if !ok {
		return domain.RedeemNotFound, nil
	}
	raw, err := b.store.ReadCell(ctx, row, ColRedeemed)
	if err != nil {
		return 0, fmt.Errorf("redeem: %w", err)
	}
	if parseBool(raw) {
		return domain.RedeemAlreadyRedeemed, nil
	}
	if err := b.store.WriteCell(ctx, row, ColRedeemed, formatBool(true)); err != nil {
		return 0, fmt.Errorf("redeem: %w", err)
	}
	return domain.RedeemSuccess, nil
}

// Leaderboard returns up to limit finishers ordered by fastest run.
func (b *Bookkeeper) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	names, err := b.store.ListColumn(ctx, ColDisplayName)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	durations, err := b.store.ListColumn(ctx, ColDuration)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(names))
	for i, name := range names {
		entries = append(entries, domain.LeaderboardEntry{
			DisplayName:     name,
			DurationSeconds: atoiAt(durations, i),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DurationSeconds < entries[j].DurationSeconds
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// RecordToRow renders a record in column order for InsertRow.
func RecordToRow(rec domain.CompletionRecord) []string {
	row := make([]string, ColumnCount)
	row[ColAttemptKey-1] = rec.AttemptKey
	row[ColDisplayName-1] = rec.DisplayName
	row[ColCompletedAt-1] = rec.CompletedAt.UTC().Format(time.RFC3339)
	row[ColDuration-1] = strconv.Itoa(rec.DurationSeconds)
	row[ColParticipantID-1] = rec.ParticipantID
	row[ColRedeemed-1] = formatBool(rec.Redeemed)
	row[ColIsFirstEver-1] = formatBool(rec.IsFirstEver)
	row[ColPermanentID-1] = strconv.Itoa(rec.PermanentID)
	row[ColAttemptNumber-1] = strconv.Itoa(rec.AttemptNumber)
	return row
}

// RowToRecord parses a stored row back into a record.
func RowToRecord(row []string) domain.CompletionRecord {
	get := func(col int) string {
		if col-1 < len(row) {
			return row[col-1]
		}
		return ""
	}
	completedAt, _ := time.Parse(time.RFC3339, get(ColCompletedAt))
	duration, _ := strconv.Atoi(get(ColDuration))
	permanent, _ := strconv.Atoi(get(ColPermanentID))
	attempt, _ := strconv.Atoi(get(ColAttemptNumber))
	return domain.CompletionRecord{
		AttemptKey:      get(ColAttemptKey),
		DisplayName:     get(ColDisplayName),
		CompletedAt:     completedAt,
		DurationSeconds: duration,
		ParticipantID:   get(ColParticipantID),
		Redeemed:        parseBool(get(ColRedeemed)),
		IsFirstEver:     parseBool(get(ColIsFirstEver)),
		PermanentID:     permanent,
		AttemptNumber:   attempt,
	}
}

func atoiAt(col []string, i int) int {
	if i >= len(col) {
		return 0
	}
	n, _ := strconv.Atoi(col[i])
	return n
}

func parseBool(raw string) bool {
	return raw == "TRUE" || raw == "true" || raw == "1"
}

func formatBool(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
