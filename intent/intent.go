// Package intent classifies user utterances into the closed set of financial
// intent labels the router understands. Classification runs a JSON-mode
// completion and validates the result; anything malformed degrades to the
// unknown intent with zero confidence so a turn never fails on classification.
package intent

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/model"
)

// Intent labels the classifier can emit.
const (
	Unknown            = "unknown"
	ExpenseLogging     = "expense_logging"
	TaxSavingAdvice    = "tax_saving_advice"
	TaxCalculator      = "tax_calculator"
	InvestForTaxSaving = "invest_for_tax_saving"
	IncomeVsExpenses   = "income_vs_expenses"
	InvestmentAdvice   = "investment_advice"
	IncomeTracking     = "income_tracking"
	BudgetPlanning     = "budget_planning"
	FinancialOverview  = "financial_overview"
)

// knownLabels is the closed set of valid classifier outputs. Anything outside
// it is treated as a schema violation.
var knownLabels = map[string]struct{}{
	Unknown:            {},
	ExpenseLogging:     {},
	TaxSavingAdvice:    {},
	TaxCalculator:      {},
	InvestForTaxSaving: {},
	IncomeVsExpenses:   {},
	InvestmentAdvice:   {},
	IncomeTracking:     {},
	BudgetPlanning:     {},
	FinancialOverview:  {},
}

// IsKnown reports whether label is a member of the closed intent set.
func IsKnown(label string) bool {
	_, ok := knownLabels[label]
	return ok
}

const systemPrompt = `You are an intent detection system for a multilingual financial assistant.
Detect the user's intent from their query and respond in JSON format.

Supported intents:
- expense_logging: User wants to log an expense
- tax_saving_advice: User wants tax saving tips
- tax_calculator: User wants to calculate their tax, asks "calculate my tax", "do tax calculation", "how much tax do I owe", "tax kitna hai", "mera tax calculate karo"
- invest_for_tax_saving: User wants investment advice for tax benefits
- income_vs_expenses: User wants income vs expense analysis
- investment_advice: User wants general investment advice
- income_tracking: User wants to track income
- budget_planning: User wants budget planning help
- financial_overview: User wants overall financial summary

Supported languages: Hindi (hi), English (en), Tamil (ta), Telugu (te)

Response format:
{
  "intent": "intent_name",
  "confidence": 0.95,
  "language": "hi",
  "entities": [{"type": "amount", "value": "500"}]
}`

// Classifier maps free-form utterances onto intent labels.
type Classifier struct {
	completer model.Completer
	logger    logging.Logger
}

// Options configures construction of a Classifier.
type Options struct {
	Logger logging.Logger
}

// NewClassifier constructs a Classifier over a completion service.
func NewClassifier(completer model.Completer, optFns ...func(o *Options)) *Classifier {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Classifier{completer: completer, logger: opts.Logger}
}

// Classify detects the intent of a pivot-language utterance. It never returns
// an error: completion failure, unparseable output, or an unknown label all
// yield the degraded {unknown, 0} intent.
func (c *Classifier) Classify(ctx context.Context, text string) core.Intent {
	out, err := c.completer.Complete(ctx, []model.Message{
		model.SystemMessage(systemPrompt),
		model.UserMessage(text),
	}, func(o *model.Options) {
		o.Temperature = 0.2
		o.MaxTokens = 200
		o.JSONMode = true
	})
	if err != nil {
		c.logger.Warn("intent classification failed: %v", err)
		return degraded()
	}

	parsed, err := parse(out)
	if err != nil {
		c.logger.Warn("intent classification returned invalid payload: %v", err)
		return degraded()
	}
	return parsed
}

func degraded() core.Intent {
	return core.Intent{Label: Unknown, Confidence: 0, Language: "en"}
}

// parse validates the raw classifier output against the expected schema:
// a known intent label, a confidence clamped to [0,1], and optional entities.
func parse(raw string) (core.Intent, error) {
	if !gjson.Valid(raw) {
		return core.Intent{}, fmt.Errorf("not valid json: %q", raw)
	}
	doc := gjson.Parse(raw)

	label := doc.Get("intent").String()
	if !IsKnown(label) {
		return core.Intent{}, fmt.Errorf("unknown intent label %q", label)
	}

	confidence := doc.Get("confidence").Float()
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	lang := doc.Get("language").String()
	if lang == "" {
		lang = "en"
	}

	var entities []core.Entity
	doc.Get("entities").ForEach(func(_, value gjson.Result) bool {
		typ := value.Get("type").String()
		val := value.Get("value").String()
		if typ != "" {
			entities = append(entities, core.Entity{Type: typ, Value: val})
		}
		return true
	})

	return core.Intent{
		Label:      label,
		Confidence: confidence,
		Language:   lang,
		Entities:   entities,
	}, nil
}
