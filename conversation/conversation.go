// Package conversation maintains per-conversation context: language, rolling
// history and the current intent, stored with a sliding expiry so abandoned
// conversations evaporate on their own.
package conversation

import (
	"strings"
	"time"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
)

const (
	contextPrefix = "ctx:"

	// contextTTL is the sliding window a conversation stays alive without
	// activity.
	contextTTL = time.Hour

	// historyLimit caps the rolling message history per conversation.
	historyLimit = 10
)

// Context is the per-conversation state carried across turns.
type Context struct {
	ConversationID string            `json:"conversation_id"`
	UserID         string            `json:"user_id"`
	Language       string            `json:"language"`
	History        []core.Message    `json:"history"`
	CurrentIntent  *core.Intent      `json:"current_intent,omitempty"`
	Metadata       map[string]string `json:"metadata"`
}

// Manager stores conversation contexts in the shared store. Every read or
// write refreshes the context's expiry.
type Manager struct {
	store  *memstore.Store
	logger logging.Logger
}

// Options configures construction of a Manager.
type Options struct {
	Logger logging.Logger
}

// NewManager constructs a conversation manager over the shared store.
func NewManager(store *memstore.Store, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{store: store, logger: opts.Logger}
}

func key(conversationID string) string {
	return contextPrefix + conversationID
}

// UserIDFromConversation derives the owning user from a conversation id: the
// segment before the first dash, or the whole id when there is none.
func UserIDFromConversation(conversationID string) string {
	if i := strings.Index(conversationID, "-"); i >= 0 {
		return conversationID[:i]
	}
	return conversationID
}

// GetContext returns the context for a conversation, creating a fresh one on
// first contact or after expiry. The returned value is a copy; mutations must
// go back through the manager to persist.
func (m *Manager) GetContext(conversationID string) Context {
	v, ok := m.store.Get(key(conversationID))
	if ok {
		if c, ok := v.(Context); ok {
			m.save(c)
			return cloneContext(c)
		}
	}

	c := Context{
		ConversationID: conversationID,
		UserID:         UserIDFromConversation(conversationID),
		Language:       "en",
		Metadata:       make(map[string]string),
	}
	m.logger.Debug("created conversation context %s", conversationID)
	m.save(c)
	return cloneContext(c)
}

// AddToHistory appends a message to the conversation history, keeping only
// the most recent entries.
func (m *Manager) AddToHistory(conversationID, role, content string) {
	c := m.rawContext(conversationID)
	c.History = append(c.History, core.NewMessage(role, content))
	if len(c.History) > historyLimit {
		c.History = c.History[len(c.History)-historyLimit:]
	}
	m.save(c)
}

// GetHistory returns a copy of the conversation's rolling history.
func (m *Manager) GetHistory(conversationID string) []core.Message {
	c := m.rawContext(conversationID)
	out := make([]core.Message, len(c.History))
	copy(out, c.History)
	return out
}

// UpdateIntent records the most recent classified intent.
func (m *Manager) UpdateIntent(conversationID string, intent core.Intent) {
	c := m.rawContext(conversationID)
	c.CurrentIntent = &intent
	m.save(c)
}

// UpdateLanguage records the detected conversation language.
func (m *Manager) UpdateLanguage(conversationID, language string) {
	c := m.rawContext(conversationID)
	c.Language = language
	m.save(c)
}

// AddMetadata attaches an arbitrary key/value pair to the conversation.
func (m *Manager) AddMetadata(conversationID, k, v string) {
	c := m.rawContext(conversationID)
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[k] = v
	m.save(c)
}

// ClearContext drops the conversation's context immediately. It reports
// whether a context existed.
func (m *Manager) ClearContext(conversationID string) bool {
	return m.store.Delete(key(conversationID))
}

// ActiveConversations returns the ids of all live conversation contexts.
func (m *Manager) ActiveConversations() []string {
	keys := m.store.Keys("^" + contextPrefix)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, contextPrefix))
	}
	return out
}

// rawContext fetches the stored context without cloning, creating it when
// absent.
func (m *Manager) rawContext(conversationID string) Context {
	v, ok := m.store.Get(key(conversationID))
	if ok {
		if c, ok := v.(Context); ok {
			return c
		}
	}
	return Context{
		ConversationID: conversationID,
		UserID:         UserIDFromConversation(conversationID),
		Language:       "en",
		Metadata:       make(map[string]string),
	}
}

// save persists the context and restarts its expiry window.
func (m *Manager) save(c Context) {
	m.store.Set(key(c.ConversationID), c, contextTTL)
}

func cloneContext(c Context) Context {
	out := c
	out.History = make([]core.Message, len(c.History))
	copy(out.History, c.History)
	out.Metadata = make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		out.Metadata[k] = v
	}
	if c.CurrentIntent != nil {
		intent := *c.CurrentIntent
		out.CurrentIntent = &intent
	}
	return out
}
