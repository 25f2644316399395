package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/domain"
)

// FeedHandler streams completion events to staff dashboards over websocket.
type FeedHandler struct {
	feed     *app.CompletionFeed
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewFeedHandler(feed *app.CompletionFeed, logger *slog.Logger) *FeedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type completionEvent struct {
	Type            string    `json:"type"`
	AttemptKey      string    `json:"attemptKey"`
	DisplayName     string    `json:"displayName"`
	CompletedAt     time.Time `json:"completedAt"`
	DurationSeconds int       `json:"durationSeconds"`
	AttemptNumber   int       `json:"attemptNumber"`
	IsFirstEver     bool      `json:"isFirstEver"`
}

// ServeFeed upgrades the request and forwards completion events until the
// client goes away.
func (h *FeedHandler) ServeFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("feed upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	events, cancel := h.feed.Subscribe()
	defer cancel()

	// Drain reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case rec, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(toEvent(rec)); err != nil {
				h.logger.Warn("feed write failed", "err", err)
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}

func toEvent(rec domain.CompletionRecord) completionEvent {
	return completionEvent{
		Type:            "completion",
		AttemptKey:      rec.AttemptKey,
		DisplayName:     rec.DisplayName,
		CompletedAt:     rec.CompletedAt,
		DurationSeconds: rec.DurationSeconds,
		AttemptNumber:   rec.AttemptNumber,
		IsFirstEver:     rec.IsFirstEver,
	}
}
