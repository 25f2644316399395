package quiz

import (
	"fmt"
	"strings"
	"time"

	"line-quiz-bot/internal/domain"
	"line-quiz-bot/internal/line"
)

// Commands accepted in the idle stage.
const (
	CommandStart       = "start"
	CommandMenu        = "menu"
	CommandLeaderboard = "leaderboard"
	CommandRedeem      = "redeem"
)

// Inbound is a normalized inbound user message. Exactly one of Text or
// IsPhoto is meaningful; non-text non-image events never reach the engine.
type Inbound struct {
	Text      string
	IsPhoto   bool
	MessageID string
}

// Op names a record-store operation the dispatcher must run before the
// transition can be finalized.
type Op int

const (
	OpNone Op = iota
	OpResolveIdentity
	OpRecordCompletion
	OpRedeem
	OpLeaderboard
)

// Result is the outcome of a transition: the proposed session state, the
// replies to send, and an optional store operation. When Op is not OpNone
// the dispatcher executes it and finalizes via the matching second-phase
// function; State and Replies then come from that phase instead.
type Result struct {
	State        domain.SessionState
	Replies      []line.Message
	Op           Op
	PendingName  string
	PhotoID      string
	ClearSession bool
}

// Engine is the pure decision core of the bot. It never performs I/O; the
// dispatcher owns every side effect.
type Engine struct {
	script Script
	now    func() time.Time
}

func NewEngine(script Script) *Engine {
	return &Engine{script: script, now: time.Now}
}

// NewEngineWithClock is test-only for deterministic timestamps.
func NewEngineWithClock(script Script, now func() time.Time) *Engine {
	return &Engine{script: script, now: now}
}

// Transition computes the next state and effects for one inbound message.
func (e *Engine) Transition(state domain.SessionState, in Inbound) Result {
	text := strings.TrimSpace(in.Text)

	// "start" always discards any existing session, mid-progress included.
	if !in.IsPhoto && text == CommandStart {
		return Result{
			State:   domain.SessionState{Stage: domain.Stage{Kind: domain.StageAwaitingName}},
			Replies: []line.Message{e.entryMenu(), line.TextMessage{Text: "First, what should we call you?"}},
		}
	}

	switch state.Stage.Kind {
	case domain.StageIdle:
		return e.fromIdle(state, in, text)
	case domain.StageAwaitingName:
		return e.fromAwaitingName(state, in, text)
	case domain.StageQuestion:
		return e.fromQuestion(state, in, text)
	case domain.StageAwaitingPhoto:
		return e.fromAwaitingPhoto(state, in)
	case domain.StageAwaitingCompletionAck:
		return e.fromAwaitingCompletionAck(state, text)
	case domain.StageAwaitingRedeemCode:
		return e.fromAwaitingRedeemCode(state, in, text)
	}
	return Result{State: state}
}

func (e *Engine) fromIdle(state domain.SessionState, in Inbound, text string) Result {
	if in.IsPhoto {
		return Result{State: state}
	}
	switch text {
	case CommandMenu:
		return Result{State: state, Replies: []line.Message{e.entryMenu()}}
	case CommandLeaderboard:
		return Result{State: state, Op: OpLeaderboard}
	case CommandRedeem:
		return Result{
			State:   domain.SessionState{Stage: domain.Stage{Kind: domain.StageAwaitingRedeemCode}},
			Replies: []line.Message{line.TextMessage{Text: "Please enter your redemption code."}},
		}
	}
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: "Type \"menu\" to see the game, or \"start\" to play."},
	}}
}

func (e *Engine) fromAwaitingName(state domain.SessionState, in Inbound, text string) Result {
	if in.IsPhoto || text == "" {
		return Result{State: state}
	}
	// Identity must be resolved from the record store before play begins;
	// the dispatcher calls Resolved or ResolveFailed with the outcome.
	return Result{State: state, Op: OpResolveIdentity, PendingName: text}
}

// Resolved finalizes the naming transition once identity resolution succeeded.
func (e *Engine) Resolved(state domain.SessionState, name string, ref domain.PlayerRef) Result {
	next := domain.SessionState{
		Stage:       domain.Stage{Kind: domain.StageQuestion, Question: 1},
		DisplayName: name,
		PlayerRef:   &ref,
		StartedAt:   e.now(),
	}
	welcome := fmt.Sprintf("Welcome, %s! Attempt #%d — here comes question 1.", name, ref.AttemptNumber)
	if ref.IsFirstAttempt {
		welcome = fmt.Sprintf("Welcome, %s! Good luck on your first run — here comes question 1.", name)
	}
	return Result{
		State:   next,
		Replies: []line.Message{line.TextMessage{Text: welcome}, e.questionCard(1)},
	}
}

// ResolveFailed keeps the participant in the naming stage so the same input
// can simply be retried.
func (e *Engine) ResolveFailed(state domain.SessionState) Result {
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: "Something went wrong on our side, please send that again."},
	}}
}

func (e *Engine) fromQuestion(state domain.SessionState, in Inbound, text string) Result {
	n := state.Stage.Question
	q := e.script.Questions[n-1]

	if in.IsPhoto || text != q.Answer {
		// Unlimited retries: replay the same question with its hint.
		return Result{State: state, Replies: []line.Message{
			line.TextMessage{Text: q.Hint},
			e.questionCard(n),
		}}
	}

	if n < len(e.script.Questions) {
		next := state
		next.Stage = domain.Stage{Kind: domain.StageQuestion, Question: n + 1}
		return Result{State: next, Replies: []line.Message{e.questionCard(n + 1)}}
	}

	if e.script.PhotoStage {
		next := state
		next.Stage = domain.Stage{Kind: domain.StageAwaitingPhoto}
		return Result{State: next, Replies: []line.Message{
			line.TextMessage{Text: "All answers correct! Now send us a photo of yourself at the booth."},
		}}
	}

	next := state
	next.Stage = domain.Stage{Kind: domain.StageAwaitingCompletionAck}
	return Result{State: next, Replies: []line.Message{e.ackPrompt()}}
}

func (e *Engine) fromAwaitingPhoto(state domain.SessionState, in Inbound) Result {
	// Anything but a photo is ignored on purpose: no reply, no transition.
	if !in.IsPhoto {
		return Result{State: state}
	}
	next := state
	next.Stage = domain.Stage{Kind: domain.StageAwaitingCompletionAck}
	return Result{
		State:   next,
		Replies: []line.Message{e.ackPrompt()},
		PhotoID: in.MessageID,
	}
}

func (e *Engine) fromAwaitingCompletionAck(state domain.SessionState, text string) Result {
	// Stray chat must not re-trigger completion; only the exact phrase counts.
	if text != e.script.CompletionPhrase {
		return Result{State: state}
	}
	return Result{State: state, Op: OpRecordCompletion}
}

// Completed finalizes the completion transition with the recorded row. The
// participant lands in the redeem-ready stage so the code can be entered in
// the same conversation.
func (e *Engine) Completed(state domain.SessionState, rec domain.CompletionRecord) Result {
	next := domain.SessionState{Stage: domain.Stage{Kind: domain.StageAwaitingRedeemCode}}
	congrats := fmt.Sprintf(
		"🎉 Congratulations %s! You finished in %s (attempt #%d).",
		rec.DisplayName, (time.Duration(rec.DurationSeconds) * time.Second).String(), rec.AttemptNumber,
	)
	if rec.IsFirstEver {
		congrats = fmt.Sprintf("🎉 Congratulations %s! You finished your first run in %s.",
			rec.DisplayName, (time.Duration(rec.DurationSeconds)*time.Second).String())
	}
	return Result{State: next, Replies: []line.Message{
		line.TextMessage{Text: congrats},
		line.TextMessage{Text: "Show this to our staff and enter the redemption code to claim your prize."},
	}}
}

// CompleteFailed keeps the participant in the ack stage; resending the
// phrase retries the recording.
func (e *Engine) CompleteFailed(state domain.SessionState) Result {
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: "We could not save your result just now, please send that again."},
	}}
}

func (e *Engine) fromAwaitingRedeemCode(state domain.SessionState, in Inbound, text string) Result {
	if in.IsPhoto {
		return Result{State: state}
	}
	if text != e.script.RedeemCode {
		return Result{State: state, Replies: []line.Message{
			line.TextMessage{Text: "Invalid code."},
		}}
	}
	return Result{State: state, Op: OpRedeem}
}

// Redeemed finalizes a redemption attempt. Any store outcome returns the
// participant to idle; a successful redemption also ends the play-through.
func (e *Engine) Redeemed(state domain.SessionState, status domain.RedeemStatus) Result {
	idle := domain.SessionState{Stage: domain.Stage{Kind: domain.StageIdle}}
	switch status {
	case domain.RedeemSuccess:
		return Result{
			State:        idle,
			Replies:      []line.Message{line.TextMessage{Text: "Prize redeemed, enjoy! 🎁"}},
			ClearSession: true,
		}
	case domain.RedeemAlreadyRedeemed:
		return Result{State: idle, Replies: []line.Message{
			line.TextMessage{Text: "This completion has already been redeemed."},
		}}
	default:
		return Result{State: idle, Replies: []line.Message{
			line.TextMessage{Text: "We could not find a completed run for you. Finish the quiz first!"},
		}}
	}
}

// RedeemFailed keeps the participant in the redeem stage on store failure.
func (e *Engine) RedeemFailed(state domain.SessionState) Result {
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: "Redemption is unavailable right now, please try again shortly."},
	}}
}

// Leaderboarded renders the read-only leaderboard reply.
func (e *Engine) Leaderboarded(state domain.SessionState, entries []domain.LeaderboardEntry) Result {
	if len(entries) == 0 {
		return Result{State: state, Replies: []line.Message{
			line.TextMessage{Text: "Nobody has finished yet. Be the first!"},
		}}
	}
	var b strings.Builder
	b.WriteString("🏆 Fastest finishers:\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. %s — %s\n", i+1, entry.DisplayName,
			(time.Duration(entry.DurationSeconds) * time.Second).String())
	}
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: strings.TrimRight(b.String(), "\n")},
	}}
}

// LeaderboardFailed leaves idle untouched with a retry message.
func (e *Engine) LeaderboardFailed(state domain.SessionState) Result {
	return Result{State: state, Replies: []line.Message{
		line.TextMessage{Text: "The leaderboard is unavailable right now."},
	}}
}

func (e *Engine) entryMenu() line.Message {
	return line.FlexMessage{
		AltText:  "Welcome to the quiz game, tap start to play!",
		Contents: line.ButtonBubble("", "Welcome to the quiz game, tap start to play!", []string{CommandStart}),
	}
}

func (e *Engine) questionCard(n int) line.Message {
	q := e.script.Questions[n-1]
	return line.FlexMessage{
		AltText:  q.Prompt,
		Contents: line.ButtonBubble(q.ImageURL, q.Prompt, q.Options),
	}
}

func (e *Engine) ackPrompt() line.Message {
	return line.TextMessage{
		Text: fmt.Sprintf("Almost done! Type \"%s\" to lock in your run.", e.script.CompletionPhrase),
	}
}

// QuestionCount exposes N for wiring and tests.
func (e *Engine) QuestionCount() int {
	return len(e.script.Questions)
}
