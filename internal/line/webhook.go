package line

import "encoding/json"

// WebhookBody is the envelope of an inbound webhook delivery.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

// Event is a single platform event. Only message events from users are
// relevant; everything else is dropped by the webhook handler.
type Event struct {
	Type       string        `json:"type"`
	ReplyToken string        `json:"replyToken"`
	Source     EventSource   `json:"source"`
	Message    *EventMessage `json:"message,omitempty"`
	Timestamp  int64         `json:"timestamp"`
}

type EventSource struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// EventMessage carries the inbound message; Text for text messages, ID for
// downloading image content.
type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseWebhook decodes a verified webhook body.
func ParseWebhook(body []byte) (WebhookBody, error) {
	var wb WebhookBody
	err := json.Unmarshal(body, &wb)
	return wb, err
}
