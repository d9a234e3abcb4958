// Package telegram is a minimal client for the Telegram bot API covering
// what the notifier needs: sending messages with inline keyboards and long
// polling for updates.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"aptusassist-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("telegram")

// seconds the getUpdates call blocks server-side before returning empty
const longPollTimeout = 30

type Chat struct {
	Id int64 `json:"id"`
}

type Message struct {
	MessageId int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

type CallbackQuery struct {
	Id      string   `json:"id"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

type Update struct {
	UpdateId      int64          `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// Button is one cell of an inline keyboard. pressing it surfaces
// CallbackData in a CallbackQuery update.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type ApiError struct {
	Method      string
	Description string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Method, e.Description)
}

type Client struct {
	http *resty.Client
}

func NewClient(token string) *Client {
	return newClient("https://api.telegram.org/bot" + token)
}

func newClient(baseUrl string) *Client {
	client := resty.New()
	client.SetBaseURL(baseUrl)
	// must outlast the server-side long poll window
	client.SetTimeout(time.Second * (longPollTimeout + 15))
	telemetry.InstrumentResty(client, "telegram/http")

	return &Client{http: client}
}

func (c *Client) call(ctx context.Context, method string, body any, result any) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post("/" + method)
	if err != nil {
		return err
	}

	var envelope apiResponse
	err = json.Unmarshal(res.Body(), &envelope)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !envelope.Ok {
		return &ApiError{Method: method, Description: envelope.Description}
	}
	if result != nil {
		return json.Unmarshal(envelope.Result, result)
	}
	return nil
}

type sendMessageRequest struct {
	ChatId      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// SendMessage sends text to a chat, with an inline keyboard when rows is
// non-empty.
func (c *Client) SendMessage(ctx context.Context, chatId int64, text string, rows [][]Button) error {
	ctx, span := tracer.Start(ctx, "client:SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("chat_id", chatId))

	req := sendMessageRequest{
		ChatId: chatId,
		Text:   text,
	}
	if len(rows) > 0 {
		req.ReplyMarkup = &replyMarkup{InlineKeyboard: rows}
	}

	err := c.call(ctx, "sendMessage", req, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send message")
		return err
	}
	return nil
}

// AnswerCallbackQuery acknowledges a button press so the client stops showing
// a spinner. failures are not fatal to the flow that triggered it.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackQueryId string) error {
	ctx, span := tracer.Start(ctx, "client:AnswerCallbackQuery")
	defer span.End()

	err := c.call(ctx, "answerCallbackQuery", map[string]string{
		"callback_query_id": callbackQueryId,
	}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to answer callback query")
		return err
	}
	return nil
}

type getUpdatesRequest struct {
	Offset  int64 `json:"offset"`
	Timeout int   `json:"timeout"`
}

// GetUpdates long-polls for updates past offset. an empty slice after the
// poll window is normal.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:  offset,
		Timeout: longPollTimeout,
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

// Poll runs a long-poll loop until ctx is cancelled, invoking handle for each
// update in arrival order. transient API failures are logged and retried
// after a short pause.
func (c *Client) Poll(ctx context.Context, handle func(ctx context.Context, update Update)) {
	var offset int64
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := c.GetUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.WarnContext(ctx, "failed to poll telegram updates", "err", err)
			select {
			case <-time.After(time.Second * 5):
			case <-ctx.Done():
				return
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateId + 1
			handle(ctx, update)
		}
	}
}
