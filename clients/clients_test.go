package clients

import (
	"testing"

	"tokendash/config"

	"go.uber.org/zap"
)

func TestNewClients(t *testing.T) {
	cfg := config.Defaults()
	cfg.Discord = config.DiscordConfig{
		BotToken:      "",
		ProdChannelID: "prod",
		BetaChannelID: "beta",
	}

	logger := zap.NewNop()
	clients := NewClients(logger, cfg)

	if clients.Logger != logger {
		t.Error("unexpected logger")
	}
	if clients.Discord == nil {
		t.Error("expected Discord client to be set")
	}
	if clients.Telegram == nil {
		t.Error("expected Telegram client to be set")
	}
	if clients.Notifier == nil {
		t.Error("expected Notifier to be set")
	}
	if clients.Monitor == nil {
		t.Error("expected Monitor client to be set")
	}
	if clients.Monitor.BaseURL() != "http://localhost:5000" {
		t.Errorf("unexpected monitor base url: %s", clients.Monitor.BaseURL())
	}
	if clients.Push == nil {
		t.Error("expected Push client to be set")
	}
}

func TestNewClients_NilLogger(t *testing.T) {
	clients := NewClients(nil, config.Defaults())

	if clients.Logger != nil {
		t.Error("expected nil logger to remain nil")
	}
	// Other clients should still be initialized
	if clients.Discord == nil {
		t.Error("expected Discord client to be set")
	}
}

func TestClients_Close(t *testing.T) {
	clients := NewClients(zap.NewNop(), config.Defaults())

	if err := clients.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	// Second close should also be safe
	if err := clients.Close(); err != nil {
		t.Errorf("unexpected error on second close: %v", err)
	}
}
