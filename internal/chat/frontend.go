// Package chat provides a unified interface for chat frontends (Telegram, etc.)
package chat

import (
	"context"
)

// Message represents a normalized inbound chat message from any frontend
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	SenderName string
	Text       string
	URLs       []string
	IsCommand  bool
	Command    string // command name without the leading slash, e.g. "list"
	Raw        any    // underlying library message struct
}

// Callback represents a button press on a previously sent keyboard
type Callback struct {
	ID        string // callback query ID, used to acknowledge the press
	ChatID    string
	SenderID  string
	MessageID string // message the keyboard was attached to
	Data      string
}

// Button is a single inline keyboard button
type Button struct {
	Label string
	Data  string
}

// View is a text message with an optional inline keyboard
type View struct {
	Text    string
	Buttons [][]Button
}

// Video describes a local video file to upload
type Video struct {
	Path          string
	Caption       string
	ThumbnailPath string // empty when no thumbnail is available
	Width         int
	Height        int
}

// Document describes a local file to upload as a generic document
type Document struct {
	Path    string
	Caption string
}

// Frontend defines the unified interface for all chat integrations
type Frontend interface {
	// Start initializes the chat frontend
	Start(ctx context.Context) error

	// Listen begins delivering inbound messages and button callbacks to the
	// given handlers; it blocks until ctx is cancelled
	Listen(ctx context.Context, onMessage func(*Message), onCallback func(*Callback)) error

	// SendText sends a plain text message and returns its ID
	SendText(ctx context.Context, chatID, text string) (string, error)

	// SendView sends a text message with an inline keyboard and returns its ID
	SendView(ctx context.Context, chatID string, view *View) (string, error)

	// EditView replaces the text and keyboard of an existing message;
	// a view with no buttons removes the keyboard
	EditView(ctx context.Context, chatID, msgID string, view *View) error

	// DeleteMessage deletes a message by its ID
	DeleteMessage(ctx context.Context, chatID, msgID string) error

	// SendVideo uploads a local file as a playable video
	SendVideo(ctx context.Context, chatID string, video *Video) error

	// SendDocument uploads a local file as a generic document
	SendDocument(ctx context.Context, chatID string, doc *Document) error

	// AnswerCallback acknowledges a button press, optionally with a toast text
	AnswerCallback(ctx context.Context, callbackID, text string) error
}
