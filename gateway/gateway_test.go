package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/eventbus"
)

// memoryRepo is an in-memory Repository for recorder tests.
type memoryRepo struct {
	mu           sync.Mutex
	messages     []string
	transactions []Transaction
	failAppend   bool
}

func (m *memoryRepo) FindUserByIdentifier(ctx context.Context, identifier string) (core.UserProfile, error) {
	return core.UserProfile{UserID: identifier}, nil
}

func (m *memoryRepo) AppendTransaction(ctx context.Context, tx Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend {
		return errors.New("storage down")
	}
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *memoryRepo) AppendMessage(ctx context.Context, conversationID, role, content, lang string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend {
		return errors.New("storage down")
	}
	m.messages = append(m.messages, conversationID+"|"+role+"|"+content)
	return nil
}

func (m *memoryRepo) EndConversation(ctx context.Context, conversationID string) error {
	return nil
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "+919876543210", NormalizeIdentifier("+91 98765-43210"))
	assert.Equal(t, "+919876543210", NormalizeIdentifier("+91 (987) 654 3210"))
	assert.Equal(t, "plain", NormalizeIdentifier("plain"))
}

func TestRecorderPersistsResponses(t *testing.T) {
	repo := &memoryRepo{}
	bus := eventbus.New()
	rec := NewRecorder(repo)
	rec.Attach(bus)

	bus.PublishAsync(context.Background(), eventbus.ResponseReady, core.ResponseReadyPayload{
		ConversationID: "u1-call-1",
		UserID:         "u1",
		Response:       "hello",
		Language:       "en",
	})

	if assert.Len(t, repo.messages, 1) {
		assert.Equal(t, "u1-call-1|assistant|hello", repo.messages[0])
	}
}

func TestRecorderPersistsExpenseTransactions(t *testing.T) {
	repo := &memoryRepo{}
	bus := eventbus.New()
	rec := NewRecorder(repo)
	rec.Attach(bus)
	ctx := context.Background()

	// Expense with a positive amount becomes a debit transaction.
	bus.PublishAsync(ctx, eventbus.AgentComplete, core.AgentCompletePayload{
		Agent:  core.ExpenseAgentName,
		UserID: "u1",
		Result: &core.Result{Data: map[string]any{
			"amount": 500.0, "category": "Food", "description": "lunch",
		}},
	})
	// Zero-amount expense results are not transactions.
	bus.PublishAsync(ctx, eventbus.AgentComplete, core.AgentCompletePayload{
		Agent:  core.ExpenseAgentName,
		UserID: "u1",
		Result: &core.Result{Data: map[string]any{"amount": 0.0}},
	})
	// Other agents' completions are ignored.
	bus.PublishAsync(ctx, eventbus.AgentComplete, core.AgentCompletePayload{
		Agent:  core.TaxAgentName,
		UserID: "u1",
		Result: &core.Result{Data: map[string]any{"amount": 999.0}},
	})

	if assert.Len(t, repo.transactions, 1) {
		tx := repo.transactions[0]
		assert.Equal(t, "u1", tx.UserID)
		assert.Equal(t, "debit", tx.Type)
		assert.Equal(t, "Food", tx.Category)
		assert.Equal(t, 500.0, tx.Amount)
	}
}

func TestRecorderSurvivesRepositoryFailure(t *testing.T) {
	repo := &memoryRepo{failAppend: true}
	bus := eventbus.New()
	rec := NewRecorder(repo)
	rec.Attach(bus)

	// Must not panic or propagate; failures are logged and dropped.
	bus.PublishAsync(context.Background(), eventbus.ResponseReady, core.ResponseReadyPayload{
		ConversationID: "u1-call-1", Response: "hello",
	})
	assert.Empty(t, repo.messages)
}

func TestRecorderDetach(t *testing.T) {
	repo := &memoryRepo{}
	bus := eventbus.New()
	rec := NewRecorder(repo)
	rec.Attach(bus)
	rec.Detach(bus)

	bus.PublishAsync(context.Background(), eventbus.ResponseReady, core.ResponseReadyPayload{
		ConversationID: "u1-call-1", Response: "hello",
	})
	assert.Empty(t, repo.messages)
}
