package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"aptusassist-backend/lib/slotstore"
	"aptusassist-backend/lib/telegram"
	"aptusassist-backend/lib/timezone"
)

const bookCallbackPrefix = "book_"

// TelegramBot pushes freed-pass notifications to a single chat and serves
// the booking button presses and commands coming back from it.
type TelegramBot struct {
	client *telegram.Client
	chatId int64
}

func NewTelegramBot(client *telegram.Client, chatId int64) *TelegramBot {
	return &TelegramBot{
		client: client,
		chatId: chatId,
	}
}

func (b *TelegramBot) SlotFreed(ctx context.Context, slot slotstore.Slot, label string) {
	text := fmt.Sprintf("Tvättid ledig: %s %s, %s",
		dayNames[slot.Date.Weekday()],
		slot.Date.Format(slotstore.DateFormat),
		label,
	)
	callback := fmt.Sprintf("%s%s_%d", bookCallbackPrefix, slot.Date.Format(slotstore.DateFormat), slot.PassNo)

	err := b.client.SendMessage(ctx, b.chatId, text, [][]telegram.Button{
		{{Text: "Boka", CallbackData: callback}},
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to send freed-pass notification",
			"date", slot.Date.Format(slotstore.DateFormat),
			"pass_no", slot.PassNo,
			"err", err)
	}
}

// Run serves the chat until ctx is cancelled. svc is passed here rather than
// held on the struct so the bot can be handed to NewService as the notifier
// before the service exists.
func (b *TelegramBot) Run(ctx context.Context, svc Service) {
	b.client.Poll(ctx, func(ctx context.Context, update telegram.Update) {
		b.handleUpdate(ctx, svc, update)
	})
}

func (b *TelegramBot) handleUpdate(ctx context.Context, svc Service, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, svc, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *TelegramBot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.Chat.Id != b.chatId {
		slog.WarnContext(ctx, "ignoring message from unknown chat", "chat_id", msg.Chat.Id)
		return
	}

	switch strings.TrimSpace(msg.Text) {
	case "/start":
		b.reply(ctx, "Hej! Jag säger till när en tvättid blir ledig. Tryck på Boka i notisen för att boka passet.")
	case "/test":
		b.SlotFreed(ctx, slotstore.Slot{
			Date:   timezone.Now(),
			PassNo: 0,
			Status: slotstore.StatusFree,
		}, "07:00 - 10:00")
	}
}

func (b *TelegramBot) handleCallback(ctx context.Context, svc Service, query *telegram.CallbackQuery) {
	err := b.client.AnswerCallbackQuery(ctx, query.Id)
	if err != nil {
		slog.WarnContext(ctx, "failed to answer callback query", "err", err)
	}

	if query.Message != nil && query.Message.Chat.Id != b.chatId {
		slog.WarnContext(ctx, "ignoring callback from unknown chat", "chat_id", query.Message.Chat.Id)
		return
	}

	date, passNo, err := parseBookCallback(query.Data)
	if err != nil {
		slog.WarnContext(ctx, "unparseable callback data", "data", query.Data, "err", err)
		return
	}

	err = svc.Book(ctx, date, passNo)
	label := svc.Schedule().Label(passNo)
	switch {
	case err == nil:
		b.reply(ctx, fmt.Sprintf("Passet %s, %s är bokat.", date.Format(slotstore.DateFormat), label))
	case errors.Is(err, ErrNotAvailable):
		b.reply(ctx, fmt.Sprintf("Passet %s, %s är tyvärr redan upptaget.", date.Format(slotstore.DateFormat), label))
	case errors.Is(err, ErrAuthFailed):
		b.reply(ctx, "Inloggningen mot portalen misslyckades, kontrollera användaruppgifterna.")
	default:
		slog.ErrorContext(ctx, "booking via telegram failed", "err", err)
		b.reply(ctx, "Bokningen gick inte igenom, försök igen om en stund.")
	}
}

func (b *TelegramBot) reply(ctx context.Context, text string) {
	err := b.client.SendMessage(ctx, b.chatId, text, nil)
	if err != nil {
		slog.WarnContext(ctx, "failed to send reply", "err", err)
	}
}

func parseBookCallback(data string) (time.Time, int, error) {
	if !strings.HasPrefix(data, bookCallbackPrefix) {
		return time.Time{}, 0, fmt.Errorf("unknown callback %q", data)
	}
	parts := strings.Split(strings.TrimPrefix(data, bookCallbackPrefix), "_")
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("unknown callback %q", data)
	}
	date, err := time.ParseInLocation(slotstore.DateFormat, parts[0], timezone.Location)
	if err != nil {
		return time.Time{}, 0, err
	}
	passNo, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, 0, err
	}
	return date, passNo, nil
}
