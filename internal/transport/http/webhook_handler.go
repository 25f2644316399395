package http

import (
	"io"
	"log/slog"
	"net/http"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/line"
)

// WebhookHandler accepts signed platform deliveries and feeds their events to
// the dispatcher.
type WebhookHandler struct {
	channelSecret string
	dispatcher    *app.Dispatcher
	logger        *slog.Logger
}

func NewWebhookHandler(channelSecret string, dispatcher *app.Dispatcher, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		channelSecret: channelSecret,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// ServeCallback handles POST /callback. An invalid signature is rejected
// before any session is touched.
func (h *WebhookHandler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Line-Signature")
	if !line.ValidateSignature(h.channelSecret, body, signature) {
		h.logger.Warn("webhook rejected: invalid signature")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	wb, err := line.ParseWebhook(body)
	if err != nil {
		h.logger.Warn("webhook rejected: malformed body", "err", err)
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}

	// Events within one delivery are processed in platform order; the
	// per-participant session lock serializes concurrent deliveries.
	for _, ev := range wb.Events {
		h.dispatcher.HandleEvent(r.Context(), ev)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
