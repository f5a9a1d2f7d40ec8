package session

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Session is transient per-chat key-value state, used for things like
// a pending prompt waiting on the user's next message.
type Session interface {
	Get(ctx context.Context, key string) (any, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Manager hands out the session for a chat, creating it on first use.
// Chats are keyed by the platform's channel identifier.
type Manager interface {
	Get(ctx context.Context, chatID string) (Session, error)
}
