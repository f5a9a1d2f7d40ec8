package bot

import (
	"context"

	"github.com/pkg/errors"
)

var ErrEmptyMessage = errors.New("received message without text")

// Message is an outgoing chat message.
type Message struct {
	Text string
}

// Incoming is a chat message delivered by a Connector. Addressed is
// true when the message was directed at the bot (command prefix or
// mention); un-addressed messages are still delivered so the handler
// can resolve pending prompts.
type Incoming struct {
	ChatID    string
	GuildID   string
	AuthorID  string
	Text      string
	Addressed bool
}

// Connector is an abstraction of the real chat-platform backend.
type Connector interface {
	SendMessage(ctx context.Context, chatID string, message *Message) error

	RegisterHandler(handler Handler)
}

// Handler is the application side of a Connector: it receives every
// delivered message and any error the connector could not handle.
type Handler interface {
	HandleMessage(ctx context.Context, msg *Incoming, conn Connector) error

	HandleError(ctx context.Context, err error, chatID string, conn Connector) error
}
