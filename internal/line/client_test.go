package line

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReplySendsWirePayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/reply" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("unexpected auth header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewClient(Config{ChannelAccessToken: "token-1", APIEndpoint: server.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = client.Reply(context.Background(), "reply-tok", []Message{
		TextMessage{Text: "hello"},
		FlexMessage{AltText: "menu", Contents: ButtonBubble("", "play?", []string{"start"})},
	})
	if err != nil {
		t.Fatalf("reply: %v", err)
	}

	if captured["replyToken"] != "reply-tok" {
		t.Fatalf("expected reply token in payload, got %v", captured["replyToken"])
	}
	messages, ok := captured["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %v", captured["messages"])
	}
	first := messages[0].(map[string]any)
	if first["type"] != "text" || first["text"] != "hello" {
		t.Fatalf("unexpected first message %v", first)
	}
	second := messages[1].(map[string]any)
	if second["type"] != "flex" || second["altText"] != "menu" {
		t.Fatalf("unexpected second message %v", second)
	}
}

func TestReplySurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid reply token"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client, _ := NewClient(Config{ChannelAccessToken: "token-1", APIEndpoint: server.URL})
	err := client.Reply(context.Background(), "stale", []Message{TextMessage{Text: "hi"}})
	if err == nil {
		t.Fatalf("expected error for non-200 response")
	}
	if !errors.Is(err, ErrReplyTokenUsed) {
		t.Fatalf("expected reply-token sentinel, got %v", err)
	}
}

func TestContentDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/bot/message/m-1/content" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	client, _ := NewClient(Config{ChannelAccessToken: "token-1", DataEndpoint: server.URL})
	data, err := client.Content(context.Background(), "m-1")
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error without access token")
	}
}
