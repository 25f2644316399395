package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultAPIEndpoint  = "https://api.line.me"
	defaultDataEndpoint = "https://api-data.line.me"
	defaultTimeout      = 10 * time.Second
)

// ErrReplyTokenUsed is returned when the platform rejects a reply token,
// either spent or expired. Callers fall back to push.
var ErrReplyTokenUsed = errors.New("reply token already used")

// Config holds messaging API credentials and endpoint overrides.
type Config struct {
	ChannelAccessToken string
	APIEndpoint        string
	DataEndpoint       string
	Timeout            time.Duration
}

// Client is a thin messaging API client covering the operations the bot
// needs: reply, push and message content download.
type Client struct {
	token        string
	apiEndpoint  string
	dataEndpoint string
	httpClient   *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ChannelAccessToken) == "" {
		return nil, fmt.Errorf("channel access token is required")
	}
	api := cfg.APIEndpoint
	if api == "" {
		api = defaultAPIEndpoint
	}
	data := cfg.DataEndpoint
	if data == "" {
		data = defaultDataEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		token:        cfg.ChannelAccessToken,
		apiEndpoint:  strings.TrimRight(api, "/"),
		dataEndpoint: strings.TrimRight(data, "/"),
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// Reply sends messages against a single-use reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, messages []Message) error {
	return c.post(ctx, "/v2/bot/message/reply", map[string]any{
		"replyToken": replyToken,
		"messages":   marshalMessages(messages),
	})
}

// Push sends messages to a participant outside a reply window.
func (c *Client) Push(ctx context.Context, to string, messages []Message) error {
	return c.post(ctx, "/v2/bot/message/push", map[string]any{
		"to":       to,
		"messages": marshalMessages(messages),
	})
}

// Content downloads the binary content of an inbound message (photo bytes).
func (c *Client) Content(ctx context.Context, messageID string) ([]byte, error) {
	url := fmt.Sprintf("%s/v2/bot/message/%s/content", c.dataEndpoint, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download content: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download content: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiEndpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messaging api %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if strings.Contains(string(detail), "Invalid reply token") {
			return fmt.Errorf("messaging api %s: %w", path, ErrReplyTokenUsed)
		}
		return fmt.Errorf("messaging api %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// marshalMessages keeps the slice typed as []Message at call sites while
// letting each message marshal its own wire shape.
func marshalMessages(messages []Message) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(messages))
	for _, m := range messages {
		raw, err := json.Marshal(m)
		if err != nil {
			continue
		}
		out = append(out, raw)
	}
	return out
}
