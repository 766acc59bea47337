package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/maheshrc27/postloop/configs"
)

const telegramAPIBase = "https://api.telegram.org/bot"

// Telegram delivers run outcome notifications through the Telegram Bot API.
// Disabled silently unless both the bot token and the chat id are set.
type Telegram struct {
	cfg     config.Telegram
	apiBase string
	client  *http.Client
}

func NewTelegram(cfg config.Telegram) *Telegram {
	return &Telegram{
		cfg:     cfg,
		apiBase: telegramAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Enabled() bool {
	return t.cfg.BotToken != "" && t.cfg.ChatID != ""
}

// Send posts one message to the configured chat. The return value is
// advisory; delivery is best-effort.
func (t *Telegram) Send(message string) bool {
	if !t.Enabled() {
		return false
	}

	payload := map[string]interface{}{
		"chat_id":    t.cfg.ChatID,
		"text":       message,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Info(err.Error())
		return false
	}

	url := fmt.Sprintf("%s%s/sendMessage", t.apiBase, t.cfg.BotToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		slog.Info("telegram notification failed", "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (t *Telegram) NotifySuccess(accountName, mediaType, permalink, mediaID string) bool {
	msg := fmt.Sprintf("<b>%s</b>\n%s published successfully!", accountName, mediaType)
	if permalink != "" {
		msg += fmt.Sprintf("\n%s", permalink)
	}
	if mediaID != "" {
		msg += fmt.Sprintf("\nMedia ID: <code>%s</code>", mediaID)
	}
	return t.Send(msg)
}

func (t *Telegram) NotifyFailure(accountName, errMessage string) bool {
	return t.Send(fmt.Sprintf("<b>%s</b>\nPublish failed:\n<code>%s</code>", accountName, errMessage))
}

func (t *Telegram) NotifyCustom(message string) bool {
	return t.Send(message)
}
