package gateway

import (
	"context"
	"time"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/eventbus"
	"github.com/arthvani/arthvani/logging"
)

// Recorder subscribes to the event bus and writes turn side effects through
// to the repository: assistant replies become stored messages and logged
// expenses become transactions. Repository failures are logged and dropped so
// persistence problems never surface in a conversation.
type Recorder struct {
	repo   Repository
	logger logging.Logger
	subs   []*eventbus.Subscription
}

// RecorderOptions configures construction of a Recorder.
type RecorderOptions struct {
	Logger logging.Logger
}

// NewRecorder constructs a recorder over the repository.
func NewRecorder(repo Repository, optFns ...func(o *RecorderOptions)) *Recorder {
	opts := RecorderOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Recorder{repo: repo, logger: opts.Logger}
}

// Attach subscribes the recorder to the bus.
func (r *Recorder) Attach(bus *eventbus.Bus) {
	r.subs = append(r.subs,
		bus.Subscribe(eventbus.ResponseReady, r.onResponseReady),
		bus.Subscribe(eventbus.AgentComplete, r.onAgentComplete),
	)
}

// Detach removes the recorder's subscriptions from the bus.
func (r *Recorder) Detach(bus *eventbus.Bus) {
	for _, sub := range r.subs {
		bus.Unsubscribe(sub)
	}
	r.subs = nil
}

func (r *Recorder) onResponseReady(ctx context.Context, payload any) error {
	p, ok := payload.(core.ResponseReadyPayload)
	if !ok {
		return nil
	}
	if err := r.repo.AppendMessage(ctx, p.ConversationID, core.RoleAssistant, p.Response, p.Language); err != nil {
		r.logger.Warn("failed to persist assistant message for %s: %v", p.ConversationID, err)
	}
	return nil
}

// onAgentComplete persists expense-agent results carrying a logged amount as
// debit transactions.
func (r *Recorder) onAgentComplete(ctx context.Context, payload any) error {
	p, ok := payload.(core.AgentCompletePayload)
	if !ok || p.Agent != core.ExpenseAgentName || p.Result == nil {
		return nil
	}
	amount, ok := p.Result.Float("amount")
	if !ok || amount <= 0 {
		return nil
	}
	category, _ := p.Result.Data["category"].(string)
	description, _ := p.Result.Data["description"].(string)

	tx := Transaction{
		UserID:      p.UserID,
		Type:        "debit",
		Category:    category,
		Amount:      amount,
		Description: description,
		Date:        time.Now().UTC(),
	}
	if err := r.repo.AppendTransaction(ctx, tx); err != nil {
		r.logger.Warn("failed to persist transaction for user %s: %v", p.UserID, err)
	}
	return nil
}
