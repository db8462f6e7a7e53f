package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tokendash/clients/notifier"
	"tokendash/config"

	"go.uber.org/zap"
)

func TestNewTelegramClient_NoToken(t *testing.T) {
	cfg := &config.Config{
		IsProd: false,
		Telegram: config.TelegramConfig{
			BotToken:   "",
			ProdChatID: "prod-chat",
			BetaChatID: "beta-chat",
		},
	}

	client := NewTelegramClient(zap.NewNop(), cfg)

	if client.botToken != "" {
		t.Error("expected empty token")
	}
	if client.chatID != "beta-chat" {
		t.Errorf("expected beta chat, got: %s", client.chatID)
	}
	if client.Enabled() {
		t.Error("expected client to be disabled without a token")
	}
}

func TestNewTelegramClient_ProdChat(t *testing.T) {
	cfg := &config.Config{
		IsProd: true,
		Telegram: config.TelegramConfig{
			BotToken:   "token",
			ProdChatID: "prod-chat",
			BetaChatID: "beta-chat",
		},
	}

	client := NewTelegramClient(nil, cfg)

	if client.chatID != "prod-chat" {
		t.Errorf("expected prod chat, got: %s", client.chatID)
	}
	if !client.isProd {
		t.Error("expected isProd to be true")
	}
	if client.client == nil {
		t.Error("expected http client to be set")
	}
	if !client.Enabled() {
		t.Error("expected client to be enabled")
	}
}

func TestSendNotice_NotConfigured(t *testing.T) {
	client := &TelegramClient{
		logger: zap.NewNop(),
	}

	// Should not panic
	client.SendNotice(notifier.Notice{Kind: notifier.NoticeKindError, Message: "boom"})
}

func TestSendNotice_Success(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &TelegramClient{
		logger:   zap.NewNop(),
		botToken: "test-token",
		chatID:   "test-chat",
		apiURL:   server.URL + "/bot%s/%s",
		client:   server.Client(),
	}

	client.SendNotice(notifier.Notice{
		Kind:            notifier.NoticeKindSuccess,
		Message:         "New token posted: Alpha",
		TokenName:       "Alpha",
		ContractAddress: "0xAAA",
	})

	if got["chat_id"] != "test-chat" {
		t.Errorf("unexpected chat_id: %v", got["chat_id"])
	}
	if got["parse_mode"] != "HTML" {
		t.Errorf("unexpected parse_mode: %v", got["parse_mode"])
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, "<code>0xAAA</code>") {
		t.Errorf("expected contract address in text: %s", text)
	}
}

func TestSendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := &TelegramClient{
		logger:   zap.NewNop(),
		botToken: "test-token",
		chatID:   "test-chat",
		apiURL:   server.URL + "/bot%s/%s",
		client:   server.Client(),
	}

	err := client.sendMessage("hello")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("expected status in error: %v", err)
	}
}

func TestBuildNoticeMessage_Token(t *testing.T) {
	msg := buildNoticeMessage(notifier.Notice{
		Kind:            notifier.NoticeKindSuccess,
		Message:         "New token posted: <Alpha>",
		TokenName:       "<Alpha>",
		ContractAddress: "0xAAA",
		Timestamp:       time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
	})

	if !strings.HasPrefix(msg, "📣 <b>&lt;ALPHA&gt;</b>\n") {
		t.Errorf("unexpected header: %q", msg)
	}
	if !strings.Contains(msg, "🪙 <b>&lt;Alpha&gt;</b>") {
		t.Errorf("expected escaped token name: %q", msg)
	}
	if !strings.HasSuffix(msg, "<i>1/15/2024 10:30:00 AM UTC</i>") {
		t.Errorf("unexpected footer: %q", msg)
	}
}

func TestBuildNoticeMessage_Error(t *testing.T) {
	msg := buildNoticeMessage(notifier.Notice{
		Kind:    notifier.NoticeKindError,
		Message: "rpc timeout & retry",
	})

	if !strings.Contains(msg, "⚠️ <b>Monitor error</b>\nrpc timeout &amp; retry\n") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestBuildNoticeMessage_PlainSuccess(t *testing.T) {
	msg := buildNoticeMessage(notifier.Notice{
		Kind:    notifier.NoticeKindSuccess,
		Message: "Tokens refreshed",
	})

	if !strings.HasPrefix(msg, "✅ Tokens refreshed\n") {
		t.Errorf("unexpected message: %q", msg)
	}
}

func TestClose(t *testing.T) {
	client := &TelegramClient{
		logger: zap.NewNop(),
	}

	if err := client.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
