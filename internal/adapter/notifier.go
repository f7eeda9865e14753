package adapter

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
)

// AdminNotifier pushes booking summaries to the admin through a
// separate bot token, so admin traffic never competes with the client
// bot's rate limits.
type AdminNotifier struct {
	bot     *tgbotapi.BotAPI
	adminID int64
}

func NewAdminNotifier(token string, adminID int64) (*AdminNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init notification bot")
	}
	return &AdminNotifier{bot: bot, adminID: adminID}, nil
}

func (n *AdminNotifier) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(n.adminID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return errors.Wrap(err, errors.ErrNotification.Error())
	}
	return nil
}

func (n *AdminNotifier) Health(ctx context.Context) error {
	if _, err := n.bot.GetMe(); err != nil {
		return errors.Transient("notification bot unavailable: " + err.Error())
	}
	return nil
}
