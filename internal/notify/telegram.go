package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/user/yt-archive-go/internal/engine"
)

// TelegramNotifier pushes job summaries to a Telegram chat, so long-running
// acquisition batches can be followed from a phone.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier with the given bot token and chat.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// NotifyJobDone sends one channel's job summary.
func (n *TelegramNotifier) NotifyJobDone(report engine.Report) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatJobSummary(report))
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

// FormatJobSummary renders a report as a short plain-text message.
func FormatJobSummary(r engine.Report) string {
	state := "finished"
	if r.Stopped {
		state = "stopped"
	}

	summary := fmt.Sprintf("%s job %s for %s: %d/%d processed",
		r.Mode, state, r.Channel, r.Processed, r.Total)

	if r.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", r.Failed)
	}
	if r.Skipped > 0 {
		summary += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return summary
}
