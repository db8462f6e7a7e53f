package clients

import (
	"tokendash/clients/discord"
	"tokendash/clients/monitorapi"
	"tokendash/clients/notifier"
	"tokendash/clients/pushevents"
	"tokendash/clients/telegram"
	"tokendash/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord  *discord.DiscordClient
	Telegram *telegram.TelegramClient
	Notifier notifier.Notifier // Combined notifier for all channels
	Monitor  *monitorapi.MonitorApiClient
	Push     *pushevents.PushEventsClient
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	discordClient := discord.NewDiscordClient(logger, cfg)
	telegramClient := telegram.NewTelegramClient(logger, cfg)

	// Create combined notifier for all channels
	multiNotifier := notifier.NewMultiNotifier(discordClient, telegramClient)

	return &Clients{
		Logger:   logger,
		Discord:  discordClient,
		Telegram: telegramClient,
		Notifier: multiNotifier,
		Monitor:  monitorapi.NewMonitorApiClient(logger, cfg),
		Push:     pushevents.NewPushEventsClient(logger, cfg),
	}
}

// Close releases the push channel and the notifier sessions.
func (c *Clients) Close() error {
	var lastErr error
	if c.Push != nil {
		if err := c.Push.Close(); err != nil {
			lastErr = err
		}
	}
	if c.Notifier != nil {
		if err := c.Notifier.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
