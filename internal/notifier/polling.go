package notifier

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CommandHandler turns one chat command into a reply. An empty reply sends nothing.
type CommandHandler func(ctx context.Context, command string) string

type update struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

const pollTimeout = 30

// pollOnce handles one getUpdates round and returns the offset to ask for next.
// Messages from chats other than ChatID are dropped.
func (t *TelegramNotifier) pollOnce(ctx context.Context, client *http.Client, offset int, handler CommandHandler) (int, error) {
	var updates []update
	err := t.call(ctx, client, "getUpdates", map[string]int{"offset": offset, "timeout": pollTimeout}, &updates)
	if err != nil {
		return offset, err
	}

	for _, u := range updates {
		offset = u.UpdateID + 1
		if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
			continue
		}
		log := t.Log.WithField("chat_id", u.Message.Chat.ID)
		if strconv.FormatInt(u.Message.Chat.ID, 10) != t.ChatID {
			log.Warn("ignoring message from unknown chat")
			continue
		}
		command := strings.TrimSpace(u.Message.Text)
		log.WithField("command", command).Info("command received")

		if reply := handler(ctx, command); reply != "" {
			if err := t.Send(ctx, reply); err != nil {
				log.WithError(err).Error("send reply")
			}
		}
	}
	return offset, nil
}

// StartPolling long-polls for commands until ctx is cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{
		Timeout:   (pollTimeout + 5) * time.Second,
		Transport: t.Client.Transport,
	}
	offset := 0
	for ctx.Err() == nil {
		next, err := t.pollOnce(ctx, client, offset, handler)
		if err == nil {
			offset = next
			continue
		}
		if ctx.Err() != nil {
			break
		}
		t.Log.WithError(err).Warn("getUpdates failed, backing off")
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
		}
	}
	t.Log.Info("telegram polling stopped")
}
