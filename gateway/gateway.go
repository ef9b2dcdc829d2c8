// Package gateway is the boundary between the orchestration core and the
// outside world: the request/reply types a transport adapter speaks, the
// Repository port onto durable storage, and the Recorder that writes turn
// side effects through to it off the event bus.
package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/arthvani/arthvani/core"
)

// TurnRequest is one inbound user utterance addressed to the assistant.
type TurnRequest struct {
	// CallerID identifies the caller at the transport layer, typically a
	// phone number.
	CallerID       string `json:"caller_id"`
	ConversationID string `json:"conversation_id"`
	Utterance      string `json:"utterance"`
}

// TurnReply is the speakable response to one turn.
type TurnReply struct {
	Response      string `json:"response"`
	Language      string `json:"language"`
	Intent        string `json:"intent"`
	AwaitingInput bool   `json:"awaiting_input"`
}

// Transaction is one financial record written through to durable storage.
type Transaction struct {
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Type           string    `json:"type"` // "credit" or "debit"
	Category       string    `json:"category"`
	Amount         float64   `json:"amount"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
}

// Repository is the port onto durable user and conversation storage. The core
// treats it as best effort: a failing repository degrades persistence, never
// a turn.
type Repository interface {
	// FindUserByIdentifier resolves a caller identifier (e.g. phone
	// number) to a user profile.
	FindUserByIdentifier(ctx context.Context, identifier string) (core.UserProfile, error)

	// AppendTransaction records a financial transaction for a user.
	AppendTransaction(ctx context.Context, tx Transaction) error

	// AppendMessage records one conversation message.
	AppendMessage(ctx context.Context, conversationID, role, content, lang string) error

	// EndConversation marks a conversation finished.
	EndConversation(ctx context.Context, conversationID string) error
}

// NormalizeIdentifier strips spacing and punctuation from a caller
// identifier so lookups are stable across transport formatting.
func NormalizeIdentifier(identifier string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, identifier)
}
