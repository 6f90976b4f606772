// Package transport provides the concrete chat-platform binding behind
// [bot.ChatTransport]. It speaks the Bot API wire protocol directly over
// HTTP and feeds inbound events through long polling.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/radarlink/radarlink/internal/bot"
	"github.com/radarlink/radarlink/internal/config"
	"github.com/radarlink/radarlink/internal/logger"
)

const (
	defaultAPIURL = "https://api.telegram.org"

	// pollWindow is how long one getUpdates call is allowed to hang
	// waiting for events; the HTTP timeout leaves headroom on top of it.
	pollWindow     = 50 * time.Second
	pollRetryDelay = 3 * time.Second
)

type longPoll struct {
	client *resty.Client
	logger *logger.Logger
}

// NewLongPoll builds the HTTP long-polling implementation of
// [bot.ChatTransport] from the bot token and an optional API root override.
func NewLongPoll(cfg config.Bot, log *logger.Logger) (bot.ChatTransport, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("empty bot token")
	}

	base := strings.TrimSpace(cfg.APIURL)
	if base == "" {
		base = defaultAPIURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid bot api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bot api url must include host and scheme")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(u.String(), "/") + "/bot" + cfg.Token).
		SetTimeout(pollWindow + 10*time.Second)

	return &longPoll{client: client, logger: log}, nil
}

// ─────────────────────────── outbound methods ───────────────────────────

type sendMessageRequest struct {
	ChatID      int64       `json:"chat_id"`
	Text        string      `json:"text"`
	ReplyMarkup *wireMarkup `json:"reply_markup,omitempty"`
}

type editMessageRequest struct {
	ChatID      int64       `json:"chat_id"`
	MessageID   int         `json:"message_id"`
	Text        string      `json:"text"`
	ReplyMarkup *wireMarkup `json:"reply_markup,omitempty"`
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type wireMarkup struct {
	InlineKeyboard [][]wireButton `json:"inline_keyboard"`
}

type wireButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func (t *longPoll) SendText(ctx context.Context, chatID int64, text string) error {
	_, err := t.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text})
	return err
}

func (t *longPoll) SendMessage(ctx context.Context, chatID int64, msg bot.Message) error {
	_, err := t.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        msg.Text,
		ReplyMarkup: markup(msg.Keyboard),
	})
	return err
}

func (t *longPoll) SendDocument(ctx context.Context, chatID int64, path string) error {
	resp, err := t.client.R().
		SetContext(ctx).
		SetFile("document", path).
		SetFormData(map[string]string{"chat_id": strconv.FormatInt(chatID, 10)}).
		Post("/sendDocument")
	if err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	_, err = decodeResult(resp)
	return err
}

func (t *longPoll) EditMessage(ctx context.Context, chatID int64, messageID int, msg bot.Message) error {
	_, err := t.call(ctx, "editMessageText", editMessageRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        msg.Text,
		ReplyMarkup: markup(msg.Keyboard),
	})
	return err
}

func (t *longPoll) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := t.call(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID})
	return err
}

func markup(keyboard [][]bot.Button) *wireMarkup {
	if len(keyboard) == 0 {
		return nil
	}

	rows := make([][]wireButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]wireButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, wireButton{Text: b.Label, CallbackData: b.Payload})
		}
		rows = append(rows, buttons)
	}

	return &wireMarkup{InlineKeyboard: rows}
}

// ─────────────────────────── inbound long poll ───────────────────────────

type getUpdatesRequest struct {
	Offset         int64    `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

type wireUpdate struct {
	UpdateID int64         `json:"update_id"`
	Message  *wireMessage  `json:"message"`
	Callback *wireCallback `json:"callback_query"`
}

type wireMessage struct {
	MessageID int       `json:"message_id"`
	From      *wireUser `json:"from"`
	Chat      wireChat  `json:"chat"`
	Text      string    `json:"text"`
}

type wireUser struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type wireChat struct {
	ID int64 `json:"id"`
}

type wireCallback struct {
	ID      string       `json:"id"`
	From    wireUser     `json:"from"`
	Message *wireMessage `json:"message"`
	Data    string       `json:"data"`
}

type ackCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

func (t *longPoll) Updates(ctx context.Context) (<-chan bot.Update, error) {
	out := make(chan bot.Update)
	go t.poll(ctx, out)
	return out, nil
}

func (t *longPoll) poll(ctx context.Context, out chan<- bot.Update) {
	defer close(out)

	var offset int64
	for ctx.Err() == nil {
		batch, err := t.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, wu := range batch {
			offset = wu.UpdateID + 1

			if wu.Callback != nil {
				// Stops the client-side spinner; delivery does not
				// depend on it.
				if _, ackErr := t.call(ctx, "answerCallbackQuery", ackCallbackRequest{CallbackQueryID: wu.Callback.ID}); ackErr != nil {
					t.logger.Warn().Err(ackErr).Msg("callback ack failed")
				}
			}

			upd, ok := reduceUpdate(wu)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- upd:
			}
		}
	}
}

func (t *longPoll) getUpdates(ctx context.Context, offset int64) ([]wireUpdate, error) {
	result, err := t.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        int(pollWindow / time.Second),
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return nil, err
	}

	var batch []wireUpdate
	if err = json.Unmarshal(result, &batch); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return batch, nil
}

// reduceUpdate flattens one wire update into the router's shape. Events
// without an actionable payload (bot messages, edits, stickers) are
// dropped.
func reduceUpdate(wu wireUpdate) (bot.Update, bool) {
	switch {
	case wu.Callback != nil:
		upd := bot.Update{
			UpdateID: wu.UpdateID,
			UserID:   wu.Callback.From.ID,
			Handle:   wu.Callback.From.Username,
			Name:     fullName(wu.Callback.From),
			Callback: wu.Callback.Data,
		}
		if wu.Callback.Message != nil {
			upd.ChatID = wu.Callback.Message.Chat.ID
			upd.MessageID = wu.Callback.Message.MessageID
		}
		return upd, upd.Callback != ""

	case wu.Message != nil:
		msg := wu.Message
		if msg.From == nil || msg.From.IsBot || msg.Text == "" {
			return bot.Update{}, false
		}

		upd := bot.Update{
			UpdateID:  wu.UpdateID,
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			MessageID: msg.MessageID,
			Handle:    msg.From.Username,
			Name:      fullName(*msg.From),
		}
		if strings.HasPrefix(msg.Text, "/") {
			name, args, _ := strings.Cut(msg.Text[1:], " ")
			// "/ban@mybot 42" addresses this bot explicitly.
			name, _, _ = strings.Cut(name, "@")
			upd.Command = name
			upd.CommandArgs = strings.TrimSpace(args)
		} else {
			upd.Text = msg.Text
		}
		return upd, true
	}

	return bot.Update{}, false
}

func fullName(u wireUser) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ─────────────────────────── wire plumbing ───────────────────────────

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (t *longPoll) call(ctx context.Context, method string, body any) (json.RawMessage, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/" + method)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}

	result, err := decodeResult(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	return result, nil
}

func decodeResult(resp *resty.Response) (json.RawMessage, error) {
	var api apiResponse
	if err := json.Unmarshal(resp.Body(), &api); err != nil {
		return nil, fmt.Errorf("decode response (http %d): %w", resp.StatusCode(), err)
	}
	if !api.OK {
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode(), api.Description)
	}
	return api.Result, nil
}
