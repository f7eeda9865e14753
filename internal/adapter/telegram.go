package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bogdankol/telrgam-bot-calendar/internal/errors"
	"github.com/bogdankol/telrgam-bot-calendar/internal/flow"
)

// TelegramAdapter long-polls the Bot API, normalizes updates into flow
// events, and implements flow.Sender for outbound replies.
type TelegramAdapter struct {
	token         string
	updateTimeout int
	handler       EventHandler
	bot           *tgbotapi.BotAPI
	updates       tgbotapi.UpdatesChannel
}

func NewTelegramAdapter(token string, handler EventHandler, updateTimeout int) *TelegramAdapter {
	return &TelegramAdapter{
		token:         token,
		updateTimeout: updateTimeout,
		handler:       handler,
	}
}

func (t *TelegramAdapter) Name() string {
	return "telegram"
}

func (t *TelegramAdapter) Start(ctx context.Context) error {
	var err error
	t.bot, err = tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return errors.Wrap(err, "failed to init telegram bot")
	}

	slog.Info("Telegram adapter started", "user", t.bot.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.updateTimeout

	t.updates = t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update := <-t.updates:
				t.handleUpdate(ctx, update)
			}
		}
	}()

	return nil
}

func (t *TelegramAdapter) Stop(ctx context.Context) error {
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	return nil
}

func (t *TelegramAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Ack first so the client's button stops spinning even when the
		// transition takes a calendar round-trip.
		if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			slog.Debug("Callback ack failed", "error", err)
		}

		t.dispatch(ctx, flow.Event{
			ClientID: fmt.Sprintf("%d", cq.From.ID),
			Kind:     flow.KindCallback,
			Callback: cq.Data,
		})
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	// Key on the sender, not the chat: callbacks only carry the sender,
	// and the two diverge in group chats.
	evt := flow.Event{ClientID: fmt.Sprintf("%d", msg.From.ID)}
	switch {
	case msg.Contact != nil:
		evt.Kind = flow.KindContact
		evt.ContactPhone = msg.Contact.PhoneNumber
	case msg.IsCommand():
		evt.Kind = flow.KindCommand
		evt.Command = msg.Command()
	default:
		evt.Kind = flow.KindText
		evt.Text = msg.Text
	}

	t.dispatch(ctx, evt)
}

func (t *TelegramAdapter) dispatch(ctx context.Context, evt flow.Event) {
	if t.handler != nil {
		t.handler(ctx, evt)
	}
}

// Send sends a plain text reply.
func (t *TelegramAdapter) Send(ctx context.Context, clientID string, text string) error {
	chatID, err := parseChatID(clientID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send telegram message")
	}
	return nil
}

// SendChoices renders interactive choices as an inline keyboard. The
// choice payloads pass through opaquely.
func (t *TelegramAdapter) SendChoices(ctx context.Context, clientID string, text string, rows [][]flow.Choice) error {
	chatID, err := parseChatID(clientID)
	if err != nil {
		return err
	}

	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(choice.Label, choice.Data))
		}
		keyboard = append(keyboard, buttons)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "failed to send telegram choices")
	}
	return nil
}

// RequestContact asks for the client's phone with a one-time
// contact-share keyboard; manual text entry stays available.
func (t *TelegramAdapter) RequestContact(ctx context.Context, clientID string, text string) error {
	chatID, err := parseChatID(clientID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	button := tgbotapi.NewKeyboardButtonContact("📱 Поділитися контактом")
	keyboard := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(button))
	keyboard.OneTimeKeyboard = true
	msg.ReplyMarkup = keyboard

	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrap(err, "failed to request telegram contact")
	}
	return nil
}

func (t *TelegramAdapter) Health(ctx context.Context) error {
	if t.bot == nil {
		return errors.Transient("telegram bot not initialized")
	}

	if _, err := t.bot.GetMe(); err != nil {
		return errors.Transient("telegram connection failed: " + err.Error())
	}
	return nil
}

func parseChatID(clientID string) (int64, error) {
	chatID, err := strconv.ParseInt(clientID, 10, 64)
	if err != nil {
		return 0, errors.InvalidInput("invalid telegram client ID: " + err.Error())
	}
	return chatID, nil
}
