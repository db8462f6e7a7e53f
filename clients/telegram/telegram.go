package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"tokendash/clients/notifier"
	"tokendash/config"

	"go.uber.org/zap"
)

const telegramAPIURL = "https://api.telegram.org/bot%s/%s"

// TelegramClient relays dashboard notices to Telegram.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger   *zap.Logger
	botToken string
	chatID   string
	isProd   bool
	apiURL   string // format string: token, method
	client   *http.Client
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	chatID := cfg.Telegram.BetaChatID
	if cfg.IsProd {
		chatID = cfg.Telegram.ProdChatID
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_KEY not set, Telegram notices disabled")
		return &TelegramClient{
			logger: logger,
			chatID: chatID,
			isProd: cfg.IsProd,
			apiURL: telegramAPIURL,
		}
	}

	logger.Info("telegram bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("chatID", chatID),
	)

	return &TelegramClient{
		logger:   logger,
		botToken: token,
		chatID:   chatID,
		isProd:   cfg.IsProd,
		apiURL:   telegramAPIURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a bot token and a chat are configured.
func (tc *TelegramClient) Enabled() bool {
	return tc.botToken != "" && tc.chatID != ""
}

// SendNotice sends a notice as an HTML message.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendNotice(notice notifier.Notice) {
	if !tc.Enabled() {
		tc.logger.Debug("telegram not configured, skipping notice")
		return
	}

	message := buildNoticeMessage(notice)

	if err := tc.sendMessage(message); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}

	tc.logger.Info("sent telegram notice",
		zap.String("kind", string(notice.Kind)),
		zap.String("message", notice.Message),
	)
}

func buildNoticeMessage(notice notifier.Notice) string {
	var sb strings.Builder

	if notice.HasToken() {
		sb.WriteString(fmt.Sprintf("📣 <b>%s</b>\n", html.EscapeString(strings.ToUpper(notice.TokenName))))
		sb.WriteString("posted by the token monitor 🆕!\n\n")
		sb.WriteString(fmt.Sprintf("🪙 <b>%s</b>\n", html.EscapeString(notice.TokenName)))
		if notice.ContractAddress != "" {
			sb.WriteString(fmt.Sprintf("<code>%s</code>\n", html.EscapeString(notice.ContractAddress)))
		}
	} else if notice.Kind == notifier.NoticeKindError {
		sb.WriteString(fmt.Sprintf("⚠️ <b>Monitor error</b>\n%s\n", html.EscapeString(notice.Message)))
	} else {
		sb.WriteString(fmt.Sprintf("✅ %s\n", html.EscapeString(notice.Message)))
	}

	ts := notice.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(fmt.Sprintf("\n<i>%s</i>", ts.UTC().Format("1/2/2006 3:04:05 PM MST")))

	return sb.String()
}

func (tc *TelegramClient) sendMessage(text string) error {
	url := fmt.Sprintf(tc.apiURL, tc.botToken, "sendMessage")

	payload := map[string]interface{}{
		"chat_id":                  tc.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}
