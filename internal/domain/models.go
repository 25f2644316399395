package domain

import (
	"fmt"
	"time"
)

// StageKind enumerates the positions of the quiz conversation.
type StageKind int

const (
	// StageIdle is the resting state; "start", "leaderboard" and "redeem" are accepted here.
	StageIdle StageKind = iota
	// StageAwaitingName waits for the participant to supply a display name.
	StageAwaitingName
	// StageQuestion waits for the answer to Stage.Question (1-based).
	StageQuestion
	// StageAwaitingPhoto waits for a photo attachment; everything else is ignored.
	StageAwaitingPhoto
	// StageAwaitingCompletionAck waits for the fixed confirmation phrase.
	StageAwaitingCompletionAck
	// StageAwaitingRedeemCode waits for the fixed redeem code.
	StageAwaitingRedeemCode
)

// Stage is the tagged position of a participant in the quiz.
// Question is only meaningful when Kind == StageQuestion.
type Stage struct {
	Kind     StageKind
	Question int
}

func (s Stage) String() string {
	if s.Kind == StageQuestion {
		return fmt.Sprintf("question(%d)", s.Question)
	}
	switch s.Kind {
	case StageIdle:
		return "idle"
	case StageAwaitingName:
		return "awaiting-name"
	case StageAwaitingPhoto:
		return "awaiting-photo"
	case StageAwaitingCompletionAck:
		return "awaiting-completion-ack"
	case StageAwaitingRedeemCode:
		return "awaiting-redeem-code"
	}
	return "unknown"
}

// PlayerRef is the per-play-through identity resolved from the record store.
type PlayerRef struct {
	PermanentID    int
	AttemptNumber  int
	IsFirstAttempt bool
}

// SessionState is the in-flight progress of one participant. Held in memory
// only; a process restart drops it.
//
// Invariant: PlayerRef and StartedAt are set together, and both are present
// iff Stage is Question(n) or later.
type SessionState struct {
	Stage       Stage
	DisplayName string
	PlayerRef   *PlayerRef
	StartedAt   time.Time
}

// CompletionRecord is one row of the record store: a single play-through
// attempt. Rows are only ever inserted, or have Redeemed flipped to true.
type CompletionRecord struct {
	AttemptKey      string
	DisplayName     string
	CompletedAt     time.Time
	DurationSeconds int
	ParticipantID   string
	Redeemed        bool
	IsFirstEver     bool
	PermanentID     int
	AttemptNumber   int
}

// Key returns the attempt key derived from the permanent id and attempt number.
func (r CompletionRecord) Key() string {
	return fmt.Sprintf("%d-%d", r.PermanentID, r.AttemptNumber)
}

// LeaderboardEntry is a read-only view over completed attempts.
type LeaderboardEntry struct {
	DisplayName     string
	DurationSeconds int
}

// RedeemStatus is the outcome of a redemption attempt.
type RedeemStatus int

const (
	RedeemSuccess RedeemStatus = iota
	RedeemAlreadyRedeemed
	RedeemNotFound
)
