// Package chat defines the transport-neutral contracts agents use to talk in a channel.
package chat

import (
	"context"
	"time"
)

// Message is one inbound chat message. Self-sent messages never reach a Handler.
type Message struct {
	ConversationID string
	SenderID       string
	SenderName     string
	Text           string
	Timestamp      time.Time
}

// Sender posts text into a conversation.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) error
}

// Handler processes inbound messages for one party. Calls for the same
// conversation are sequential; different conversations may run concurrently.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message)
}

type HandlerFunc func(ctx context.Context, msg Message)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Message) { f(ctx, msg) }
