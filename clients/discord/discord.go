package discord

import (
	"fmt"
	"time"

	"tokendash/clients/notifier"
	"tokendash/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorSuccess = 0x2ECC71
	colorError   = 0xE74C3C
)

// DiscordClient relays dashboard notices to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord notices disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// Enabled reports whether a bot session and a channel are configured.
func (dc *DiscordClient) Enabled() bool {
	return dc.session != nil && dc.channelID != ""
}

// SendNotice sends a notice as an embed.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendNotice(notice notifier.Notice) {
	if !dc.Enabled() {
		dc.logger.Debug("discord not configured, skipping notice")
		return
	}

	embed := dc.buildNoticeEmbed(notice)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord notice",
		zap.String("kind", string(notice.Kind)),
		zap.String("message", notice.Message),
	)
}

func (dc *DiscordClient) buildNoticeEmbed(notice notifier.Notice) *discordgo.MessageEmbed {
	title := "⚠️ Monitor Error"
	color := colorError
	if notice.Kind == notifier.NoticeKindSuccess {
		title = "✅ Dashboard Update"
		color = colorSuccess
	}

	var fields []*discordgo.MessageEmbedField
	if notice.HasToken() {
		title = "🪙 New Token Posted"
		fields = append(fields,
			&discordgo.MessageEmbedField{
				Name:   "Token",
				Value:  orNA(notice.TokenName),
				Inline: true,
			},
			&discordgo.MessageEmbedField{
				Name:   "Contract",
				Value:  fmt.Sprintf("`%s`", orNA(notice.ContractAddress)),
				Inline: true,
			},
		)
	}

	ts := notice.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	footerText := fmt.Sprintf("tokendash * %s", ts.UTC().Format("1/2/2006, 3:04:05PM (MST)"))
	if notice.SessionID != "" {
		footerText += " * " + shortID(notice.SessionID)
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: notice.Message,
		Color:       color,
		Fields:      fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText,
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
