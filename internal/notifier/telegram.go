package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// TelegramNotifier delivers scan reports and answers commands through the Bot API.
type TelegramNotifier struct {
	BaseURL  string
	BotToken string
	ChatID   string
	Client   *http.Client
	Log      *logrus.Entry
}

// apiResult is the envelope of every Bot API reply.
type apiResult struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewTelegramNotifier creates a notifier. proxyURL may be empty.
func NewTelegramNotifier(botToken, chatID, proxyURL string, log *logrus.Entry) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BaseURL:  "https://api.telegram.org",
		BotToken: botToken,
		ChatID:   chatID,
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
		Log:      log.WithField("component", "telegram"),
	}
}

// Enabled reports whether both the token and the chat are configured.
func (t *TelegramNotifier) Enabled() bool {
	return t != nil && t.BotToken != "" && t.ChatID != ""
}

// call POSTs payload to a Bot API method and decodes its result into out.
func (t *TelegramNotifier) call(ctx context.Context, client *http.Client, method string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode payload: %w", method, err)
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.BaseURL, t.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: telegram API status %d: %s", method, resp.StatusCode, raw)
	}

	var res apiResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !res.OK {
		return fmt.Errorf("%s: telegram API refused: %s", method, res.Description)
	}
	if out != nil && len(res.Result) > 0 {
		if err := json.Unmarshal(res.Result, out); err != nil {
			return fmt.Errorf("%s: decode result: %w", method, err)
		}
	}
	return nil
}

// Send posts an HTML message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	return t.call(ctx, t.Client, "sendMessage", map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}, nil)
}

// SendWithRetry retries Send with a doubling delay starting at one second.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var err error
	delay := time.Second
	for attempt := 0; ; attempt++ {
		if err = t.Send(ctx, text); err == nil {
			return nil
		}
		if attempt == maxRetries {
			return fmt.Errorf("send failed after %d attempts: %w", attempt+1, err)
		}
		t.Log.WithError(err).Warnf("send attempt %d/%d failed, retrying in %v", attempt+1, maxRetries+1, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
