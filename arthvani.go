// Package arthvani provides a high-level façade over the conversational
// financial assistant: language handling, intent classification, specialist
// agent delegation and the interactive tax calculator. Most applications
// interact with this package by:
//  1. Creating an Assistant via New() with a model completer
//  2. Optionally wiring a Repository for durable persistence
//  3. Feeding user turns through HandleTurn or HandleCall
//
// The façade assembles the orchestrator and its collaborators from safe
// in-memory defaults; production deployments typically supply a durable
// repository and a structured logger.
package arthvani

import (
	"context"

	"github.com/arthvani/arthvani/agent"
	"github.com/arthvani/arthvani/collab"
	"github.com/arthvani/arthvani/conversation"
	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/eventbus"
	"github.com/arthvani/arthvani/gateway"
	"github.com/arthvani/arthvani/intent"
	"github.com/arthvani/arthvani/language"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
	"github.com/arthvani/arthvani/model"
	"github.com/arthvani/arthvani/orchestrator"
	"github.com/arthvani/arthvani/taxcalc"
)

// Options configures the Assistant instance.
type Options struct {
	// Store backs agent memories, conversation contexts and calculator
	// sessions (defaults to a fresh in-memory store).
	Store *memstore.Store

	// Bus carries lifecycle events (defaults to a fresh in-process bus).
	Bus *eventbus.Bus

	// Repository enables durable persistence of replies and transactions.
	// Nil disables write-through.
	Repository gateway.Repository

	// DefaultLanguage is the code unsupported detections coerce to.
	DefaultLanguage string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the orchestrator and its
// collaborating services.
type Assistant struct {
	opts          Options
	orchestrator  *orchestrator.Orchestrator
	conversations *conversation.Manager
	registry      *agent.Registry
	recorder      *gateway.Recorder
	bus           *eventbus.Bus
}

// New creates a new Assistant over the given completer with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(completer model.Completer, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		DefaultLanguage: language.Pivot,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		opts.Store = memstore.New(func(o *memstore.Options) { o.Logger = opts.Logger })
	}
	if opts.Bus == nil {
		opts.Bus = eventbus.New(func(o *eventbus.Options) { o.Logger = opts.Logger })
	}

	registry := agent.NewRegistry()
	registry.Register(agent.NewExpenseAgent(opts.Store, completer, func(o *agent.ExpenseAgentOptions) { o.Logger = opts.Logger }))
	registry.Register(agent.NewIncomeAgent(opts.Store, func(o *agent.IncomeAgentOptions) { o.Logger = opts.Logger }))
	registry.Register(agent.NewTaxAgent(opts.Store, func(o *agent.TaxAgentOptions) { o.Logger = opts.Logger }))
	registry.Register(agent.NewInvestmentAgent(opts.Store, func(o *agent.InvestmentAgentOptions) { o.Logger = opts.Logger }))

	conversations := conversation.NewManager(opts.Store, func(o *conversation.Options) { o.Logger = opts.Logger })

	orch := orchestrator.New(
		completer,
		language.NewManager(completer, func(o *language.Options) {
			o.DefaultLanguage = opts.DefaultLanguage
			o.Logger = opts.Logger
		}),
		intent.NewClassifier(completer, func(o *intent.Options) { o.Logger = opts.Logger }),
		conversations,
		collab.NewManager(registry, opts.Bus, func(o *collab.Options) { o.Logger = opts.Logger }),
		taxcalc.NewFlow(opts.Store, func(o *taxcalc.Options) { o.Logger = opts.Logger }),
		opts.Bus,
		func(o *orchestrator.Options) { o.Logger = opts.Logger },
	)

	a := &Assistant{
		opts:          opts,
		orchestrator:  orch,
		conversations: conversations,
		registry:      registry,
		bus:           opts.Bus,
	}
	if opts.Repository != nil {
		a.recorder = gateway.NewRecorder(opts.Repository, func(o *gateway.RecorderOptions) { o.Logger = opts.Logger })
		a.recorder.Attach(opts.Bus)
	}
	return a
}

// HandleTurn processes one user utterance within a conversation using the
// given profile snapshot. It always returns a result; degraded turns carry an
// apology response instead of an error.
func (a *Assistant) HandleTurn(ctx context.Context, conversationID, utterance string, user core.UserProfile) core.TurnResult {
	return a.orchestrator.HandleTurn(ctx, conversationID, utterance, user)
}

// HandleCall processes one transport-level turn: the caller is resolved
// through the repository (when configured) and the result is reduced to a
// speakable reply.
func (a *Assistant) HandleCall(ctx context.Context, req gateway.TurnRequest) gateway.TurnReply {
	var user core.UserProfile
	if a.opts.Repository != nil && req.CallerID != "" {
		profile, err := a.opts.Repository.FindUserByIdentifier(ctx, gateway.NormalizeIdentifier(req.CallerID))
		if err != nil {
			a.opts.Logger.Warn("caller lookup failed for %s: %v", req.CallerID, err)
		} else {
			user = profile
		}
	}

	result := a.HandleTurn(ctx, req.ConversationID, req.Utterance, user)
	return gateway.TurnReply{
		Response:      result.Response,
		Language:      result.Language,
		Intent:        result.Intent,
		AwaitingInput: result.AwaitingInput,
	}
}

// EndConversation clears the conversation's context, cancels any open
// calculator session and marks the conversation finished in the repository.
func (a *Assistant) EndConversation(ctx context.Context, conversationID string) {
	a.conversations.ClearContext(conversationID)
	a.orchestrator.Cancel(conversationID)
	if a.opts.Repository != nil {
		if err := a.opts.Repository.EndConversation(ctx, conversationID); err != nil {
			a.opts.Logger.Warn("failed to end conversation %s: %v", conversationID, err)
		}
	}
}

// Bus exposes the event bus for attaching observers.
func (a *Assistant) Bus() *eventbus.Bus { return a.bus }

// Agents returns the names of the registered capability agents.
func (a *Assistant) Agents() []string { return a.registry.Names() }
