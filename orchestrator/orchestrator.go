// Package orchestrator implements the per-turn pipeline of the assistant:
// language detection and normalization, tax-calculator interception, intent
// classification, agent delegation, insight merging and final response
// generation. Every stage degrades rather than fails, so a turn always
// produces a speakable response.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arthvani/arthvani/collab"
	"github.com/arthvani/arthvani/conversation"
	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/eventbus"
	"github.com/arthvani/arthvani/intent"
	"github.com/arthvani/arthvani/language"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/model"
	"github.com/arthvani/arthvani/router"
	"github.com/arthvani/arthvani/taxcalc"
)

const masterSystemPrompt = `You are the Master Financial Orchestrator.
Your role is to:
1. Understand user's financial queries
2. Delegate tasks to specialized agents
3. Merge responses from multiple agents
4. Provide coherent final answers

You coordinate between: InvestmentAgent, TaxAgent, ExpenseAgent, IncomeAgent.

CRITICAL RULES:
- All voice responses MUST be exactly 70 words or less
- ALWAYS use actual user data when available
- Cite specific numbers from their profile (income, expenses, tax amounts)
- Never use generic or placeholder values
- Keep responses personalized, clear, and actionable`

const (
	clarifyResponse = "I'm not sure how to help with that. I can help you with expenses, taxes, investments, and income tracking."
	errorResponse   = "I encountered an error processing your request. Please try again."
)

// Orchestrator drives the full turn pipeline.
type Orchestrator struct {
	completer     model.Completer
	languages     *language.Manager
	classifier    *intent.Classifier
	conversations *conversation.Manager
	collaborator  *collab.Manager
	calculator    *taxcalc.Flow
	bus           *eventbus.Bus
	logger        logging.Logger
}

// Options configures construction of an Orchestrator.
type Options struct {
	Logger logging.Logger
}

// New constructs an orchestrator from its collaborating components.
func New(
	completer model.Completer,
	languages *language.Manager,
	classifier *intent.Classifier,
	conversations *conversation.Manager,
	collaborator *collab.Manager,
	calculator *taxcalc.Flow,
	bus *eventbus.Bus,
	optFns ...func(o *Options),
) *Orchestrator {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		completer:     completer,
		languages:     languages,
		classifier:    classifier,
		conversations: conversations,
		collaborator:  collaborator,
		calculator:    calculator,
		bus:           bus,
		logger:        opts.Logger,
	}
}

// HandleTurn processes one user utterance end to end and always returns a
// TurnResult; total failure yields a degraded apology rather than an error.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID, utterance string, user core.UserProfile) (result core.TurnResult) {
	start := time.Now()
	lang := language.Pivot
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("turn panicked for conversation %s: %v", conversationID, rec)
			result = core.TurnResult{
				Success:  false,
				Response: o.languages.Translate(ctx, errorResponse, lang),
				Language: lang,
			}
		}
	}()

	convCtx := o.conversations.GetContext(conversationID)
	userID := convCtx.UserID

	detection := o.languages.DetectLanguage(ctx, utterance)
	if detection.LowConfidence {
		o.logger.Warn("low-confidence language detection for conversation %s, using %s", conversationID, detection.Code)
	}
	lang = detection.Code

	o.conversations.AddToHistory(conversationID, core.RoleUser, utterance)
	o.conversations.UpdateLanguage(conversationID, lang)

	query := o.languages.TranslateToPivot(ctx, utterance, lang)

	// An open calculator session swallows the turn before classification:
	// the utterance is an answer, not a query.
	if o.calculator.Active(userID) {
		prompt := o.calculator.Advance(userID, query)
		return o.respondCalculator(ctx, conversationID, userID, lang, prompt, start)
	}
	if taxcalc.IsTrigger(query) || taxcalc.IsTrigger(utterance) {
		prompt := o.calculator.Start(userID)
		return o.respondCalculator(ctx, conversationID, userID, lang, prompt, start)
	}

	classified := o.classifier.Classify(ctx, query)
	classified.Language = lang
	o.conversations.UpdateIntent(conversationID, classified)
	o.bus.PublishAsync(ctx, eventbus.IntentDetected, core.IntentDetectedPayload{
		ConversationID: conversationID,
		Intent:         classified,
	})

	if classified.Label == intent.TaxCalculator {
		prompt := o.calculator.Start(userID)
		return o.respondCalculator(ctx, conversationID, userID, lang, prompt, start)
	}

	agents := router.MapIntentToAgents(classified.Label)
	if len(agents) == 0 {
		response := o.languages.Translate(ctx, clarifyResponse, lang)
		o.finishTurn(ctx, conversationID, userID, response, lang)
		o.logger.Info("turn resolved without agents: intent=%s duration=%s", classified.Label, time.Since(start))
		return core.TurnResult{
			Success:  true,
			Response: response,
			Language: lang,
			Intent:   classified.Label,
			Entities: classified.Entities,
		}
	}

	task := core.Task{Query: query, OriginalQuery: utterance, Intent: classified}
	tc := core.TaskContext{UserID: userID, History: convCtx.History, User: user}

	outcomes := o.collaborator.Orchestrate(ctx, agents, task, tc)
	insights := collab.ExtractInsights(outcomes)

	if len(insights.Data) == 0 {
		response := o.languages.Translate(ctx, errorResponse, lang)
		o.finishTurn(ctx, conversationID, userID, response, lang)
		o.logger.Warn("all agents failed for intent %s", classified.Label)
		return core.TurnResult{
			Success:    false,
			Response:   response,
			Language:   lang,
			Intent:     classified.Label,
			AgentsUsed: agents,
			Entities:   classified.Entities,
		}
	}

	response := o.generateFinalResponse(ctx, insights, classified, user)
	response = o.languages.Translate(ctx, response, lang)
	o.finishTurn(ctx, conversationID, userID, response, lang)
	o.logger.Info("turn completed: intent=%s agents=%d duration=%s", classified.Label, len(agents), time.Since(start))

	return core.TurnResult{
		Success:    true,
		Response:   response,
		Language:   lang,
		Intent:     classified.Label,
		AgentsUsed: agents,
		Entities:   classified.Entities,
	}
}

// Cancel aborts any open calculator session for the conversation's user.
func (o *Orchestrator) Cancel(conversationID string) bool {
	return o.calculator.Cancel(conversation.UserIDFromConversation(conversationID))
}

// respondCalculator renders a calculator prompt in the caller's language and
// closes out the turn.
func (o *Orchestrator) respondCalculator(ctx context.Context, conversationID, userID, lang string, prompt taxcalc.Prompt, start time.Time) core.TurnResult {
	var response string
	switch lang {
	case "hi":
		response = prompt.ResponseHindi
	case language.Pivot:
		response = prompt.Response
	default:
		response = o.languages.Translate(ctx, prompt.Response, lang)
	}

	o.finishTurn(ctx, conversationID, userID, response, lang)
	o.logger.Info("calculator turn: step=%d/%d completed=%t duration=%s",
		prompt.Step, prompt.TotalSteps, prompt.Completed, time.Since(start))

	return core.TurnResult{
		Success:       true,
		Response:      response,
		Language:      lang,
		Intent:        intent.TaxCalculator,
		AwaitingInput: prompt.AwaitingInput,
	}
}

// finishTurn records the assistant reply in the history and announces it.
func (o *Orchestrator) finishTurn(ctx context.Context, conversationID, userID, response, lang string) {
	o.conversations.AddToHistory(conversationID, core.RoleAssistant, response)
	o.bus.PublishAsync(ctx, eventbus.ResponseReady, core.ResponseReadyPayload{
		ConversationID: conversationID,
		UserID:         userID,
		Response:       response,
		Language:       lang,
	})
}

// generateFinalResponse merges agent insights into one short personalized
// reply. A completion failure falls back to the raw summaries.
func (o *Orchestrator) generateFinalResponse(ctx context.Context, insights core.InsightBundle, classified core.Intent, user core.UserProfile) string {
	var profileInfo strings.Builder
	if user.Name != "" {
		fmt.Fprintf(&profileInfo, "User's Name: %s\n", user.Name)
	}
	if user.MonthlyIncome > 0 || user.MonthlyExpenses > 0 {
		fmt.Fprintf(&profileInfo, "Monthly Income: ₹%.0f\n", user.MonthlyIncome)
		fmt.Fprintf(&profileInfo, "Monthly Expenses: ₹%.0f\n", user.MonthlyExpenses)
		fmt.Fprintf(&profileInfo, "Net Savings: ₹%.0f\n", user.NetSavings)
	}
	if user.TaxRegime != "" {
		fmt.Fprintf(&profileInfo, "Tax Regime: %s\n", user.TaxRegime)
		fmt.Fprintf(&profileInfo, "Salary Income: ₹%.0f\n", user.SalaryIncome)
		fmt.Fprintf(&profileInfo, "Section 80C: ₹%.0f\n", user.Section80C)
	}

	analysis, err := json.MarshalIndent(insights, "", "  ")
	if err != nil {
		analysis = []byte("{}")
	}

	var prompt strings.Builder
	prompt.WriteString("Based on the following financial analysis, provide a clear, helpful PERSONALIZED response to the user.\n\n")
	fmt.Fprintf(&prompt, "User's Question Type: %s\n\n", classified.Label)
	if profileInfo.Len() > 0 {
		fmt.Fprintf(&prompt, "User Profile (FROM DATABASE):\n%s\n", profileInfo.String())
	}
	fmt.Fprintf(&prompt, "Analysis Results:\n%s\n\n", analysis)
	prompt.WriteString(`CRITICAL REQUIREMENTS:
1. Your response MUST be EXACTLY 70 words or less. Count carefully.
2. ALWAYS cite ACTUAL numbers from the user's profile above
3. If user has financial data on file, use those EXACT values (income: ₹X, expenses: ₹Y, tax: ₹Z)
4. Never say generic phrases like "based on your income" - cite the actual figure
5. Prioritize REAL DATA over analysis results

Create a natural, conversational response that:
1. Addresses the user by name if available
2. Uses their ACTUAL financial data with specific numbers
3. Provides specific actionable advice based on their real profile
4. Highlights the most important insight with real figures
5. Keep it informative yet concise - maximum 70 words

Respond in English. DO NOT EXCEED 70 WORDS.`)

	out, err := o.completer.Complete(ctx, []model.Message{
		model.SystemMessage(masterSystemPrompt),
		model.UserMessage(prompt.String()),
	}, func(opt *model.Options) {
		opt.Temperature = 0.7
		opt.MaxTokens = 200
	})
	if err != nil || strings.TrimSpace(out) == "" {
		o.logger.Warn("final response generation failed, using raw summaries: %v", err)
		if len(insights.Summary) > 0 {
			return strings.Join(insights.Summary, " ")
		}
		return "I have processed your request."
	}
	return out
}
