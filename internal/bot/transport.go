// Package bot routes inbound chat updates to the domain services. The chat
// platform itself stays behind the ChatTransport interface; this package
// never imports an SDK.
package bot

import "context"

// Update is one inbound chat event, already reduced to the fields the
// router cares about. Exactly one of Text, Command or Callback carries the
// user's intent.
type Update struct {
	UpdateID  int64
	UserID    int64
	ChatID    int64
	MessageID int

	Handle string
	Name   string

	// Text is the plain message text for non-command messages.
	Text string

	// Command is the leading slash command, without the slash, with the
	// argument tail in CommandArgs.
	Command     string
	CommandArgs string

	// Callback is the raw payload of a pressed inline button.
	Callback string
}

// Button is one inline keyboard button; pressing it delivers Payload back
// as Update.Callback.
type Button struct {
	Label   string
	Payload string
}

// Message is an outbound message with an optional inline keyboard.
type Message struct {
	Text     string
	Keyboard [][]Button
}

// ChatTransport is the outbound boundary to the chat platform.
type ChatTransport interface {
	// SendText delivers a plain text message.
	SendText(ctx context.Context, chatID int64, text string) error

	// SendMessage delivers a message with an inline keyboard.
	SendMessage(ctx context.Context, chatID int64, msg Message) error

	// SendDocument uploads the file at path as an attachment.
	SendDocument(ctx context.Context, chatID int64, path string) error

	// EditMessage replaces the text and keyboard of an earlier message,
	// used to repaint pagers in place.
	EditMessage(ctx context.Context, chatID int64, messageID int, msg Message) error

	// DeleteMessage removes one message best-effort.
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	// Updates streams inbound events until ctx is done.
	Updates(ctx context.Context) (<-chan Update, error)
}
