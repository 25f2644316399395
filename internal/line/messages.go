package line

import "encoding/json"

// Message is any outbound LINE message payload.
type Message interface {
	message()
}

// TextMessage is a plain text reply.
type TextMessage struct {
	Text string
}

func (TextMessage) message() {}

// ImageMessage sends a hosted image.
type ImageMessage struct {
	OriginalURL string
	PreviewURL  string
}

func (ImageMessage) message() {}

// FlexMessage carries a flex bubble/carousel as raw contents.
type FlexMessage struct {
	AltText  string
	Contents map[string]any
}

func (FlexMessage) message() {}

// MarshalJSON renders the wire shape the messaging API expects.
func (m TextMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type": "text",
		"text": m.Text,
	})
}

func (m ImageMessage) MarshalJSON() ([]byte, error) {
	preview := m.PreviewURL
	if preview == "" {
		preview = m.OriginalURL
	}
	return json.Marshal(map[string]any{
		"type":               "image",
		"originalContentUrl": m.OriginalURL,
		"previewImageUrl":    preview,
	})
}

func (m FlexMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":     "flex",
		"altText":  m.AltText,
		"contents": m.Contents,
	})
}

// ButtonBubble builds a flex bubble with an optional hero image, a body text
// and one message button per option. Covers the menu and question cards.
func ButtonBubble(heroURL, bodyText string, options []string) map[string]any {
	buttons := make([]any, 0, len(options))
	for _, opt := range options {
		buttons = append(buttons, map[string]any{
			"type":  "button",
			"style": "primary",
			"color": "#6EC1E4",
			"action": map[string]any{
				"type":  "message",
				"label": opt,
				"text":  opt,
			},
		})
	}

	contents := []any{
		map[string]any{
			"type":   "text",
			"text":   bodyText,
			"weight": "bold",
			"size":   "md",
			"wrap":   true,
			"margin": "md",
		},
	}
	if len(buttons) > 0 {
		contents = append(contents, map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"margin":   "lg",
			"spacing":  "sm",
			"contents": buttons,
		})
	}

	bubble := map[string]any{
		"type": "bubble",
		"body": map[string]any{
			"type":     "box",
			"layout":   "vertical",
			"contents": contents,
		},
	}
	if heroURL != "" {
		bubble["hero"] = map[string]any{
			"type":        "image",
			"url":         heroURL,
			"size":        "full",
			"aspectRatio": "1.51:1",
			"aspectMode":  "fit",
		}
	}
	return bubble
}
