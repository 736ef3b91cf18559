// Package trace tags each incoming chat message with an id so every log
// line written while handling it can be correlated.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// ContextKey type for context keys
type ContextKey string

// MessageIDKey is the context key for the message id.
const MessageIDKey ContextKey = "message_id"

// NewMessageID creates a unique id for one handled message.
func NewMessageID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("msg_%d", time.Now().UnixNano())
	}
	return "msg_" + hex.EncodeToString(bytes)
}

// WithMessageID stores id in ctx.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, MessageIDKey, id)
}

// Start returns a context carrying a fresh message id, and the id.
func Start(ctx context.Context) (context.Context, string) {
	id := NewMessageID()
	return WithMessageID(ctx, id), id
}

// MessageID extracts the message id from ctx, or "" when there is none.
func MessageID(ctx context.Context) string {
	if id, ok := ctx.Value(MessageIDKey).(string); ok {
		return id
	}
	return ""
}
