package model

import (
	"context"
	"fmt"
	"sync"
)

// Conversation roles used in completion messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-attributed message sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage builds a system-role message.
func SystemMessage(content string) Message { return Message{Role: RoleSystem, Content: content} }

// UserMessage builds a user-role message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// AssistantMessage builds an assistant-role message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Options are per-call generation parameters. Adapters seed them from their
// construction defaults; callers override via functional options.
type Options struct {
	Temperature float64
	MaxTokens   int64
	JSONMode    bool
}

// Info contains metadata about a completer implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", ...
}

// Completer is the minimal interface the orchestration core requires from a
// completion service. Implementations return the raw assistant text; callers
// treat empty or unparseable responses as soft failures and never let an
// adapter error escape a turn.
type Completer interface {
	Complete(ctx context.Context, messages []Message, optFns ...func(o *Options)) (string, error)

	// Info returns information about the completer implementation.
	Info() Info
}

// MockCompleter is a lightweight in-memory Completer useful for tests and
// examples. Responses are keyed by the content of the last user message; an
// unmatched prompt yields a generic echo unless a default is registered.
type MockCompleter struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	fallback  string
	err       error
	calls     []Message
}

// NewMockCompleter constructs a MockCompleter.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		info:      Info{Name: "mock", Provider: "mock"},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockCompleter) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// SetDefault registers the response returned for any unmatched prompt.
func (m *MockCompleter) SetDefault(response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = response
}

// FailWith makes every subsequent call return err (nil restores success).
func (m *MockCompleter) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastPrompt returns the last user message observed, or "".
func (m *MockCompleter) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Role == RoleUser {
			return m.calls[i].Content
		}
	}
	return ""
}

// CallCount returns the number of Complete invocations so far.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Role == RoleUser {
			n++
		}
	}
	return n
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, messages []Message, _ ...func(o *Options)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, messages...)
	if m.err != nil {
		return "", m.err
	}

	var prompt string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			prompt = messages[i].Content
			break
		}
	}
	if resp, ok := m.responses[prompt]; ok {
		return resp, nil
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return fmt.Sprintf("Mock response to: %s", prompt), nil
}

// Info implements Completer.
func (m *MockCompleter) Info() Info { return m.info }
