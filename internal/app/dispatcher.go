package app

import (
	"context"
	"fmt"
	"log/slog"

	"line-quiz-bot/internal/domain"
	"line-quiz-bot/internal/line"
	"line-quiz-bot/internal/quiz"
)

// Gateway is the outbound half of the messaging platform: single-use replies
// tied to an event token, free-form pushes, and content download for photos.
type Gateway interface {
	Reply(ctx context.Context, replyToken string, messages []line.Message) error
	Push(ctx context.Context, to string, messages []line.Message) error
	Content(ctx context.Context, messageID string) ([]byte, error)
}

// BlobStore archives uploaded photos. Optional; nil disables archiving.
type BlobStore interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

const leaderboardLimit = 10

// Dispatcher routes inbound events through the engine and executes the
// effects it requests. The engine stays pure; all I/O and failure handling
// lives here.
type Dispatcher struct {
	engine   *quiz.Engine
	sessions SessionRepository
	book     *Bookkeeper
	gateway  Gateway
	blobs    BlobStore
	feed     *CompletionFeed
	logger   *slog.Logger
}

func NewDispatcher(engine *quiz.Engine, sessions SessionRepository, book *Bookkeeper, gateway Gateway, blobs BlobStore, feed *CompletionFeed, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		engine:   engine,
		sessions: sessions,
		book:     book,
		gateway:  gateway,
		blobs:    blobs,
		feed:     feed,
		logger:   logger,
	}
}

// HandleEvent processes one verified platform event. Non-message and
// non-text/non-image events are dropped silently.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev line.Event) {
	if ev.Type != "message" || ev.Message == nil || ev.Source.UserID == "" {
		return
	}

	var in quiz.Inbound
	switch ev.Message.Type {
	case "text":
		in = quiz.Inbound{Text: ev.Message.Text}
	case "image":
		in = quiz.Inbound{IsPhoto: true, MessageID: ev.Message.ID}
	default:
		return
	}

	participant := ev.Source.UserID
	session := d.sessions.GetOrCreate(participant)

	state := session.lock()
	res := d.engine.Transition(state, in)
	res = d.runOp(ctx, participant, state, res)

	if res.PhotoID != "" {
		d.archivePhoto(ctx, participant, res.PhotoID)
	}

	session.commit(res.State)
	if res.ClearSession {
		d.sessions.Clear(participant)
	}

	d.send(ctx, participant, ev.ReplyToken, res.Replies)
}

// runOp executes the record-store operation a transition asked for and
// finalizes the transition with the outcome. Store failure never advances
// the stage; the same input can simply be retried.
func (d *Dispatcher) runOp(ctx context.Context, participant string, state domain.SessionState, res quiz.Result) quiz.Result {
	switch res.Op {
	case quiz.OpNone:
		return res

	case quiz.OpResolveIdentity:
		ref, err := d.book.ResolveIdentity(ctx, participant)
		if err != nil {
			d.logger.Error("identity resolution failed", "participant", participant, "err", err)
			return d.engine.ResolveFailed(state)
		}
		return d.engine.Resolved(state, res.PendingName, ref)

	case quiz.OpRecordCompletion:
		rec, err := d.book.RecordCompletion(ctx, participant, state)
		if err != nil {
			d.logger.Error("completion recording failed", "participant", participant, "err", err)
			return d.engine.CompleteFailed(state)
		}
		d.logger.Info("completion recorded",
			"participant", participant,
			"attempt_key", rec.AttemptKey,
			"duration_seconds", rec.DurationSeconds,
		)
		if d.feed != nil {
			d.feed.Publish(rec)
		}
		return d.engine.Completed(state, rec)

	case quiz.OpRedeem:
		status, err := d.book.Redeem(ctx, participant)
		if err != nil {
			d.logger.Error("redemption failed", "participant", participant, "err", err)
			return d.engine.RedeemFailed(state)
		}
		d.logger.Info("redemption processed", "participant", participant, "status", int(status))
		return d.engine.Redeemed(state, status)

	case quiz.OpLeaderboard:
		entries, err := d.book.Leaderboard(ctx, leaderboardLimit)
		if err != nil {
			d.logger.Error("leaderboard query failed", "err", err)
			return d.engine.LeaderboardFailed(state)
		}
		return d.engine.Leaderboarded(state, entries)
	}
	return res
}

// archivePhoto downloads and stores the booth photo. Failures degrade to a
// log line; completion never blocks on the blob store.
func (d *Dispatcher) archivePhoto(ctx context.Context, participant, messageID string) {
	if d.blobs == nil {
		return
	}
	data, err := d.gateway.Content(ctx, messageID)
	if err != nil {
		d.logger.Warn("photo download failed, continuing without archive", "participant", participant, "err", err)
		return
	}
	name := fmt.Sprintf("photos/%s-%s.jpg", participant, messageID)
	url, err := d.blobs.Upload(ctx, data, name)
	if err != nil {
		d.logger.Warn("photo upload failed, continuing without archive", "participant", participant, "err", err)
		return
	}
	d.logger.Info("photo archived", "participant", participant, "url", url)
}

func (d *Dispatcher) send(ctx context.Context, participant, replyToken string, messages []line.Message) {
	if len(messages) == 0 {
		return
	}
	if replyToken == "" {
		if err := d.gateway.Push(ctx, participant, messages); err != nil {
			d.logger.Error("push failed", "participant", participant, "err", err)
		}
		return
	}
	if err := d.gateway.Reply(ctx, replyToken, messages); err != nil {
		// Reply tokens are single-use and expire; fall back to push once.
		d.logger.Warn("reply failed, falling back to push", "participant", participant, "err", err)
		if err := d.gateway.Push(ctx, participant, messages); err != nil {
			d.logger.Error("push fallback failed", "participant", participant, "err", err)
		}
	}
}
