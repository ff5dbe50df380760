// Package notify sends operational alerts to Telegram. Delivery is
// best effort; a failed or disabled notifier never affects request
// handling.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/albedo-dev/albedo/internal/config"
)

const defaultAPIBase = "https://api.telegram.org"

// Notifier posts messages to a Telegram chat through the Bot API.
// The zero-value-disabled form is returned when config leaves the bot
// token or chat id empty.
type Notifier struct {
	client  *http.Client
	apiBase string
	token   string
	chatID  string
	enabled bool
}

// NewTelegramNotifier creates a notifier from config. When disabled or
// not fully configured every send is a silent no-op.
func NewTelegramNotifier(cfg config.TelegramConfig) *Notifier {
	enabled := cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != ""
	if cfg.Enabled && !enabled {
		log.Warn().Msg("telegram notifications enabled but not fully configured, disabling")
	}
	return &Notifier{
		client:  &http.Client{Timeout: 10 * time.Second},
		apiBase: defaultAPIBase,
		token:   cfg.BotToken,
		chatID:  cfg.ChatID,
		enabled: enabled,
	}
}

// Enabled reports whether messages will actually be sent.
func (n *Notifier) Enabled() bool {
	return n.enabled
}

// NotifyError reports a server-side failure in the background. The
// request finishes without waiting for Telegram.
func (n *Notifier) NotifyError(source string, err error) {
	if !n.enabled || err == nil {
		return
	}
	text := fmt.Sprintf("Albedo API error in %s:\n%v", source, err)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if sendErr := n.send(ctx, text); sendErr != nil {
			log.Error().Err(sendErr).Msg("failed to deliver telegram notification")
		}
	}()
}

// Send delivers a message synchronously.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if !n.enabled {
		return nil
	}
	return n.send(ctx, text)
}

func (n *Notifier) send(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encoding telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
