package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Canonical capability agent names. The router tables, the registry and the
// collaboration manager all address agents by these names.
const (
	ExpenseAgentName    = "ExpenseAgent"
	IncomeAgentName     = "IncomeAgent"
	TaxAgentName        = "TaxAgent"
	InvestmentAgentName = "InvestmentAgent"
)

// Conversation history roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single role-attributed entry in a conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message stamped with the current UTC time.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// Entity is a typed value extracted from an utterance during classification
// (e.g. {type: "amount", value: "500"}).
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Intent is the classified purpose of one user utterance. Produced once per
// turn by the classifier and treated as immutable afterwards.
type Intent struct {
	Label      string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Language   string   `json:"language"`
	Entities   []Entity `json:"entities"`
}

// Task is the unit of work handed to a capability agent for one turn.
// Query is normalized to the pivot language; OriginalQuery preserves the
// caller's wording for logging and entity extraction.
type Task struct {
	Query         string `json:"query"`
	OriginalQuery string `json:"original_query"`
	Intent        Intent `json:"intent"`
}

// UserProfile is the read-only snapshot of a user loaded from the durable
// store boundary. All fields are optional; zero values mean "not on file".
type UserProfile struct {
	UserID          string  `json:"user_id"`
	Name            string  `json:"name"`
	MonthlyIncome   float64 `json:"monthly_income"`
	MonthlyExpenses float64 `json:"monthly_expenses"`
	NetSavings      float64 `json:"net_savings"`
	SalaryIncome    float64 `json:"salary_income"`
	Section80C      float64 `json:"section_80c"`
	TaxRegime       string  `json:"tax_regime"`
}

// TaskContext carries read-only context into an agent invocation. Previous
// holds the outcomes of agents that already ran earlier in the same turn;
// agents must not mutate it.
type TaskContext struct {
	UserID   string
	Previous []Outcome
	History  []Message
	User     UserProfile
}

// PreviousOutcome returns the outcome recorded for the named agent earlier in
// this turn, or nil if that agent has not run (or failed without a result).
func (tc TaskContext) PreviousOutcome(agent string) *Result {
	for i := range tc.Previous {
		if tc.Previous[i].Agent == agent && tc.Previous[i].Success {
			return tc.Previous[i].Result
		}
	}
	return nil
}

// Result is the structured payload produced by a successful agent invocation.
type Result struct {
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
}

// Float returns a numeric value from Data, tolerating the integer types that
// arithmetic helpers produce alongside float64.
func (r *Result) Float(key string) (float64, bool) {
	if r == nil || r.Data == nil {
		return 0, false
	}
	switch v := r.Data[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Outcome records the result-or-error of one agent invocation within a turn.
// Partial failure is representable: Result == nil with a non-empty Error does
// not abort sibling agents.
type Outcome struct {
	Agent     string    `json:"agent"`
	Success   bool      `json:"success"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// InsightBundle aggregates the successful outcomes of a turn. It is derived
// purely from an outcome list and recomputed each turn.
type InsightBundle struct {
	Summary         []string           `json:"summary"`
	Recommendations []string           `json:"recommendations"`
	Warnings        []string           `json:"warnings"`
	Data            map[string]*Result `json:"data"`
}

// TurnResult is the structured value returned for every processed turn. The
// turn handler always produces one, substituting degraded content on failure,
// so callers never observe an error or a dropped turn.
type TurnResult struct {
	Success       bool     `json:"success"`
	Response      string   `json:"response"`
	Language      string   `json:"language"`
	Intent        string   `json:"intent"`
	AgentsUsed    []string `json:"agents_used"`
	AwaitingInput bool     `json:"awaiting_input"`
	Entities      []Entity `json:"entities,omitempty"`
}

// Agent is a domain-specific capability handler. Handle must be idempotent
// with respect to read operations and must treat the task context as
// read-only. Implementations catch their own model failures and degrade to a
// fallback result; a returned error is recorded as a failed outcome without
// affecting sibling agents.
type Agent interface {
	Name() string
	Description() string
	Handle(ctx context.Context, task Task, tc TaskContext) (*Result, error)
}

// NewID generates a new unique identifier for turns and events.
func NewID() string { return uuid.NewString() }
