package agent

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
	"github.com/arthvani/arthvani/model"
)

const expensePrefix = "expense:"

// Expense is one categorized spending record.
type Expense struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	Amount        float64   `json:"amount"`
	Description   string    `json:"description"`
	TaxDeductible bool      `json:"tax_deductible"`
	Timestamp     time.Time `json:"timestamp"`
}

// CategoryAmount pairs a spending category with its total.
type CategoryAmount struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// SpendingPattern summarizes a set of expenses.
type SpendingPattern struct {
	TotalSpent        float64            `json:"total_spent"`
	CategoryBreakdown map[string]float64 `json:"category_breakdown"`
	TopCategories     []CategoryAmount   `json:"top_categories"`
	AverageExpense    float64            `json:"average_expense"`
}

// BudgetWarning flags a category approaching or exceeding its budget.
type BudgetWarning struct {
	Category    string  `json:"category"`
	Spent       float64 `json:"spent"`
	Budget      float64 `json:"budget"`
	PercentUsed int     `json:"percent_used"`
	Severity    string  `json:"severity"` // "warning" or "critical"
}

// ExpenseMemory stores per-user expenses and budgets under the expense key
// namespace of the shared store.
type ExpenseMemory struct {
	store *memstore.Store
}

// NewExpenseMemory constructs an ExpenseMemory over the shared store.
func NewExpenseMemory(store *memstore.Store) *ExpenseMemory {
	return &ExpenseMemory{store: store}
}

func (m *ExpenseMemory) expensesKey(userID string) string {
	return expensePrefix + userID + ":expenses"
}

func (m *ExpenseMemory) budgetKey(userID string) string {
	return expensePrefix + userID + ":budget"
}

// StoreExpense appends an expense to the user's record, stamping an id and
// timestamp if absent.
func (m *ExpenseMemory) StoreExpense(userID string, e Expense) {
	if e.ID == "" {
		e.ID = core.NewID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	expenses := append(m.Expenses(userID), e)
	m.store.Set(m.expensesKey(userID), expenses, 0)
}

// Expenses returns all recorded expenses for the user.
func (m *ExpenseMemory) Expenses(userID string) []Expense {
	v, ok := m.store.Get(m.expensesKey(userID))
	if !ok {
		return nil
	}
	expenses, ok := v.([]Expense)
	if !ok {
		return nil
	}
	return expenses
}

// MonthlyExpenses returns the user's expenses recorded in the given month.
func (m *ExpenseMemory) MonthlyExpenses(userID string, month time.Month, year int) []Expense {
	var out []Expense
	for _, e := range m.Expenses(userID) {
		if e.Timestamp.Month() == month && e.Timestamp.Year() == year {
			out = append(out, e)
		}
	}
	return out
}

// TotalSpending sums the user's expenses over a period: "month", "week" or
// anything else for all time.
func (m *ExpenseMemory) TotalSpending(userID, period string) float64 {
	var total float64
	for _, e := range m.periodExpenses(userID, period) {
		total += e.Amount
	}
	return total
}

// CategoryBreakdown sums the user's spending per category over a period.
func (m *ExpenseMemory) CategoryBreakdown(userID, period string) map[string]float64 {
	breakdown := make(map[string]float64)
	for _, e := range m.periodExpenses(userID, period) {
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		breakdown[cat] += e.Amount
	}
	return breakdown
}

func (m *ExpenseMemory) periodExpenses(userID, period string) []Expense {
	switch period {
	case "month":
		now := time.Now()
		return m.MonthlyExpenses(userID, now.Month(), now.Year())
	case "week":
		cutoff := time.Now().AddDate(0, 0, -7)
		var out []Expense
		for _, e := range m.Expenses(userID) {
			if e.Timestamp.After(cutoff) {
				out = append(out, e)
			}
		}
		return out
	default:
		return m.Expenses(userID)
	}
}

// SetBudget stores a monthly spending limit for a category.
func (m *ExpenseMemory) SetBudget(userID, category string, limit float64) {
	budgets := m.Budgets(userID)
	budgets[category] = limit
	m.store.Set(m.budgetKey(userID), budgets, 0)
}

// Budgets returns the user's category budget limits.
func (m *ExpenseMemory) Budgets(userID string) map[string]float64 {
	v, ok := m.store.Get(m.budgetKey(userID))
	if ok {
		if budgets, ok := v.(map[string]float64); ok {
			return budgets
		}
	}
	return make(map[string]float64)
}

const expenseSystemPrompt = `You are the Expense Management Specialist.
Your role is to:
- Categorize expenses (food, transport, utilities, entertainment, etc.)
- Track spending patterns
- Predict overspending 3-5 days in advance
- Recommend smart spending limits
- Identify tax-deductible expenses

Always categorize expenses accurately and provide actionable insights.`

const categorizationPrompt = `Categorize this expense:
%q

Categories: Food, Transport, Utilities, Entertainment, Healthcare, Education, Shopping, Other

Respond in JSON:
{
  "category": "category_name",
  "amount": numeric_value,
  "description": "brief description",
  "taxDeductible": true/false
}`

// ExpenseAgent handles expense logging, pattern analysis and budget warnings.
type ExpenseAgent struct {
	BaseAgent
	memory    *ExpenseMemory
	completer model.Completer
	logger    logging.Logger
}

// ExpenseAgentOptions configures construction of an ExpenseAgent.
type ExpenseAgentOptions struct {
	Logger logging.Logger
}

// NewExpenseAgent constructs the expense specialist over the shared store.
func NewExpenseAgent(store *memstore.Store, completer model.Completer, optFns ...func(o *ExpenseAgentOptions)) *ExpenseAgent {
	opts := ExpenseAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ExpenseAgent{
		BaseAgent: BaseAgent{
			name:        core.ExpenseAgentName,
			description: "Categorizes expenses, tracks spending patterns and warns on budget overruns",
		},
		memory:    NewExpenseMemory(store),
		completer: completer,
		logger:    opts.Logger,
	}
}

// Memory exposes the agent's expense memory for assembly-time seeding.
func (a *ExpenseAgent) Memory() *ExpenseMemory { return a.memory }

// Handle categorizes the expense mentioned in the task (if any), stores it,
// and reports the user's monthly spending picture with budget warnings.
func (a *ExpenseAgent) Handle(ctx context.Context, task core.Task, tc core.TaskContext) (*core.Result, error) {
	userID := tc.UserID
	if userID == "" {
		userID = "default"
	}

	expense := a.CategorizeExpense(ctx, task.Query)
	if expense.Amount > 0 {
		a.memory.StoreExpense(userID, expense)
		a.logger.Debug("stored expense of %.0f in %s for user %s", expense.Amount, expense.Category, userID)
	}

	now := time.Now()
	monthly := a.memory.MonthlyExpenses(userID, now.Month(), now.Year())
	pattern := AnalyzeSpendingPattern(monthly)
	warnings := PredictOverspending(monthly, a.memory.Budgets(userID))
	recommendations := a.generateRecommendations(ctx, pattern, warnings)

	return &core.Result{
		Summary:         buildExpenseSummary(expense, pattern, warnings),
		Recommendations: recommendations,
		Warnings:        warningMessages(warnings),
		Data: map[string]any{
			"amount":            expense.Amount,
			"category":          expense.Category,
			"description":       expense.Description,
			"taxDeductible":     expense.TaxDeductible,
			"monthlyTotal":      pattern.TotalSpent,
			"categoryBreakdown": pattern.CategoryBreakdown,
			"topCategories":     pattern.TopCategories,
		},
	}, nil
}

// CategorizeExpense extracts a structured expense from natural language via a
// JSON-mode completion. Failure or malformed output degrades to an
// uncategorized zero-amount record carrying the raw text.
func (a *ExpenseAgent) CategorizeExpense(ctx context.Context, text string) Expense {
	fallback := Expense{Category: "Other", Description: text}

	out, err := a.completer.Complete(ctx, []model.Message{
		model.SystemMessage(expenseSystemPrompt),
		model.UserMessage(fmt.Sprintf(categorizationPrompt, text)),
	}, func(o *model.Options) {
		o.Temperature = 0.3
		o.MaxTokens = 200
		o.JSONMode = true
	})
	if err != nil {
		a.logger.Warn("expense categorization failed: %v", err)
		return fallback
	}
	if !gjson.Valid(out) {
		a.logger.Warn("expense categorization returned invalid json")
		return fallback
	}

	doc := gjson.Parse(out)
	expense := Expense{
		Category:      doc.Get("category").String(),
		Amount:        doc.Get("amount").Float(),
		Description:   doc.Get("description").String(),
		TaxDeductible: doc.Get("taxDeductible").Bool(),
	}
	if expense.Category == "" {
		expense.Category = "Other"
	}
	if expense.Description == "" {
		expense.Description = text
	}
	if expense.Amount < 0 {
		expense.Amount = 0
	}
	return expense
}

// AnalyzeSpendingPattern aggregates expenses into totals, a category
// breakdown and the top three categories by spend.
func AnalyzeSpendingPattern(expenses []Expense) SpendingPattern {
	breakdown := make(map[string]float64)
	var total float64
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		breakdown[cat] += e.Amount
		total += e.Amount
	}

	top := make([]CategoryAmount, 0, len(breakdown))
	for cat, amt := range breakdown {
		top = append(top, CategoryAmount{Category: cat, Amount: amt})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Amount != top[j].Amount {
			return top[i].Amount > top[j].Amount
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > 3 {
		top = top[:3]
	}

	avg := 0.0
	if len(expenses) > 0 {
		avg = total / float64(len(expenses))
	}

	return SpendingPattern{
		TotalSpent:        total,
		CategoryBreakdown: breakdown,
		TopCategories:     top,
		AverageExpense:    avg,
	}
}

// PredictOverspending flags categories that have consumed 80% or more of
// their budget, marking 95% and above as critical.
func PredictOverspending(expenses []Expense, budgets map[string]float64) []BudgetWarning {
	spending := make(map[string]float64)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = "Other"
		}
		spending[cat] += e.Amount
	}

	var warnings []BudgetWarning
	for category, budget := range budgets {
		if budget <= 0 {
			continue
		}
		spent := spending[category]
		percent := spent / budget * 100
		if percent < 80 {
			continue
		}
		severity := "warning"
		if percent >= 95 {
			severity = "critical"
		}
		warnings = append(warnings, BudgetWarning{
			Category:    category,
			Spent:       spent,
			Budget:      budget,
			PercentUsed: int(math.Round(percent)),
			Severity:    severity,
		})
	}
	sort.Slice(warnings, func(i, j int) bool { return warnings[i].Category < warnings[j].Category })
	return warnings
}

// generateRecommendations asks the model for spending advice grounded on the
// analyzed pattern, falling back to generic guidance on failure.
func (a *ExpenseAgent) generateRecommendations(ctx context.Context, pattern SpendingPattern, warnings []BudgetWarning) []string {
	fallback := []string{"Track your expenses regularly", "Set monthly budgets"}

	var top strings.Builder
	for _, c := range pattern.TopCategories {
		fmt.Fprintf(&top, "- %s: %.0f\n", c.Category, c.Amount)
	}
	prompt := fmt.Sprintf(`Based on this spending analysis, provide 2-3 practical recommendations:
Total spent: %.0f
Top categories:
%sBudget warnings: %d

Focus on:
1. Reducing spending in high-expense categories
2. Budget adherence
3. Tax-saving opportunities

Respond in JSON format:
{
  "recommendations": ["recommendation 1", "recommendation 2"],
  "priority": "high/medium/low"
}`, pattern.TotalSpent, top.String(), len(warnings))

	out, err := a.completer.Complete(ctx, []model.Message{
		model.SystemMessage(expenseSystemPrompt),
		model.UserMessage(prompt),
	}, func(o *model.Options) {
		o.Temperature = 0.7
		o.MaxTokens = 300
		o.JSONMode = true
	})
	if err != nil || !gjson.Valid(out) {
		a.logger.Warn("recommendation generation failed: %v", err)
		return fallback
	}

	var recs []string
	gjson.Get(out, "recommendations").ForEach(func(_, value gjson.Result) bool {
		if s := value.String(); s != "" {
			recs = append(recs, s)
		}
		return true
	})
	if len(recs) == 0 {
		return fallback
	}
	return recs
}

func warningMessages(warnings []BudgetWarning) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, fmt.Sprintf("%s spending at %d%% of budget (%.0f of %.0f)",
			w.Category, w.PercentUsed, w.Spent, w.Budget))
	}
	return out
}

func buildExpenseSummary(expense Expense, pattern SpendingPattern, warnings []BudgetWarning) string {
	var parts []string
	if expense.Amount > 0 {
		parts = append(parts, fmt.Sprintf("Logged ₹%.0f for %s.", expense.Amount, expense.Category))
	}
	parts = append(parts, fmt.Sprintf("Your total monthly spending is ₹%.0f.", pattern.TotalSpent))
	if len(pattern.TopCategories) > 0 {
		top := pattern.TopCategories[0]
		parts = append(parts, fmt.Sprintf("Highest expense: %s (₹%.0f).", top.Category, top.Amount))
	}
	if len(warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d budget warning(s).", len(warnings)))
	}
	return strings.Join(parts, " ")
}
