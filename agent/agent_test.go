package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/memstore"
	"github.com/arthvani/arthvani/model"
)

func TestRegistry(t *testing.T) {
	store := memstore.New()
	mock := model.NewMockCompleter()

	r := NewRegistry()
	r.Register(NewExpenseAgent(store, mock))
	r.Register(NewIncomeAgent(store))
	r.Register(NewTaxAgent(store))
	r.Register(NewInvestmentAgent(store))

	a, ok := r.Resolve(core.TaxAgentName)
	assert.True(t, ok)
	assert.Equal(t, core.TaxAgentName, a.Name())
	assert.NotEmpty(t, a.Description())

	_, ok = r.Resolve("GhostAgent")
	assert.False(t, ok)

	assert.Equal(t, []string{
		core.ExpenseAgentName, core.IncomeAgentName,
		core.InvestmentAgentName, core.TaxAgentName,
	}, r.Names())
}

func TestExpenseMemory(t *testing.T) {
	store := memstore.New()
	mem := NewExpenseMemory(store)

	mem.StoreExpense("u1", Expense{Category: "Food", Amount: 500})
	mem.StoreExpense("u1", Expense{Category: "Transport", Amount: 200})
	mem.StoreExpense("u2", Expense{Category: "Food", Amount: 900})

	expenses := mem.Expenses("u1")
	assert.Len(t, expenses, 2)
	assert.NotEmpty(t, expenses[0].ID)
	assert.False(t, expenses[0].Timestamp.IsZero())

	now := time.Now()
	assert.Len(t, mem.MonthlyExpenses("u1", now.Month(), now.Year()), 2)
	assert.Equal(t, 700.0, mem.TotalSpending("u1", "month"))
	assert.Equal(t, 900.0, mem.TotalSpending("u2", "all"))

	breakdown := mem.CategoryBreakdown("u1", "month")
	assert.Equal(t, 500.0, breakdown["Food"])
	assert.Equal(t, 200.0, breakdown["Transport"])

	mem.SetBudget("u1", "Food", 1000)
	assert.Equal(t, map[string]float64{"Food": 1000}, mem.Budgets("u1"))
	assert.Empty(t, mem.Budgets("u2"))
}

func TestAnalyzeSpendingPattern(t *testing.T) {
	pattern := AnalyzeSpendingPattern([]Expense{
		{Category: "Food", Amount: 500},
		{Category: "Food", Amount: 300},
		{Category: "Transport", Amount: 600},
		{Category: "", Amount: 100},
	})

	assert.Equal(t, 1500.0, pattern.TotalSpent)
	assert.Equal(t, 800.0, pattern.CategoryBreakdown["Food"])
	assert.Equal(t, 100.0, pattern.CategoryBreakdown["Other"])
	assert.Equal(t, 375.0, pattern.AverageExpense)
	if assert.NotEmpty(t, pattern.TopCategories) {
		assert.Equal(t, "Food", pattern.TopCategories[0].Category)
	}

	empty := AnalyzeSpendingPattern(nil)
	assert.Equal(t, 0.0, empty.TotalSpent)
	assert.Equal(t, 0.0, empty.AverageExpense)
}

func TestPredictOverspending(t *testing.T) {
	expenses := []Expense{
		{Category: "Food", Amount: 850},
		{Category: "Transport", Amount: 400},
		{Category: "Shopping", Amount: 990},
	}
	budgets := map[string]float64{
		"Food":      1000, // 85%, warning
		"Transport": 1000, // 40%, fine
		"Shopping":  1000, // 99%, critical
	}

	warnings := PredictOverspending(expenses, budgets)
	assert.Len(t, warnings, 2)

	byCategory := map[string]BudgetWarning{}
	for _, w := range warnings {
		byCategory[w.Category] = w
	}
	assert.Equal(t, "warning", byCategory["Food"].Severity)
	assert.Equal(t, 85, byCategory["Food"].PercentUsed)
	assert.Equal(t, "critical", byCategory["Shopping"].Severity)
}

func TestExpenseAgentHandle(t *testing.T) {
	t.Run("stores categorized expense", func(t *testing.T) {
		store := memstore.New()
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"category":"Food","amount":500,"description":"lunch","taxDeductible":false}`)
		a := NewExpenseAgent(store, mock)

		result, err := a.Handle(context.Background(), core.Task{Query: "I spent 500 on lunch"}, core.TaskContext{UserID: "u1"})
		assert.NoError(t, err)
		assert.Contains(t, result.Summary, "500")

		assert.Len(t, a.Memory().Expenses("u1"), 1)
		amount, ok := result.Float("amount")
		assert.True(t, ok)
		assert.Equal(t, 500.0, amount)
		assert.Equal(t, "Food", result.Data["category"])
	})

	t.Run("categorization failure degrades without storing", func(t *testing.T) {
		store := memstore.New()
		mock := model.NewMockCompleter()
		mock.FailWith(errors.New("boom"))
		a := NewExpenseAgent(store, mock)

		result, err := a.Handle(context.Background(), core.Task{Query: "some query"}, core.TaskContext{UserID: "u1"})
		assert.NoError(t, err)
		assert.NotNil(t, result)
		assert.Empty(t, a.Memory().Expenses("u1"))
		assert.Equal(t, []string{"Track your expenses regularly", "Set monthly budgets"}, result.Recommendations)
	})
}

func TestIncomeAnalysis(t *testing.T) {
	t.Run("stable salary income", func(t *testing.T) {
		analysis := AnalyzeIncome(IncomeProfile{Salary: 60000, Freelance: 10000})
		assert.Equal(t, 70000.0, analysis.Monthly)
		assert.Equal(t, 840000.0, analysis.Annual)
		assert.Equal(t, "stable", analysis.Stability)
	})

	t.Run("freelance-heavy income is variable", func(t *testing.T) {
		analysis := AnalyzeIncome(IncomeProfile{Salary: 20000, Freelance: 50000})
		assert.Equal(t, "variable", analysis.Stability)
	})

	t.Run("forecast projects linearly", func(t *testing.T) {
		forecast := ForecastIncome(IncomeProfile{Salary: 50000}, 6)
		assert.Equal(t, 300000.0, forecast.Projected)
		assert.Equal(t, 6, forecast.Months)
	})
}

func TestIncomeAgentHandle(t *testing.T) {
	t.Run("defaults when nothing on file", func(t *testing.T) {
		a := NewIncomeAgent(memstore.New())
		result, err := a.Handle(context.Background(), core.Task{}, core.TaskContext{UserID: "u1"})
		assert.NoError(t, err)

		annual, ok := result.Float("annualIncome")
		assert.True(t, ok)
		assert.Equal(t, 600000.0, annual)
	})

	t.Run("prefers profile snapshot income", func(t *testing.T) {
		a := NewIncomeAgent(memstore.New())
		tc := core.TaskContext{UserID: "u1", User: core.UserProfile{MonthlyIncome: 100000}}
		result, err := a.Handle(context.Background(), core.Task{}, tc)
		assert.NoError(t, err)

		annual, _ := result.Float("annualIncome")
		assert.Equal(t, 1200000.0, annual)
	})

	t.Run("uses stored income", func(t *testing.T) {
		a := NewIncomeAgent(memstore.New())
		a.Memory().AddIncomeSource("u1", "salary", 80000)

		result, err := a.Handle(context.Background(), core.Task{}, core.TaskContext{UserID: "u1"})
		assert.NoError(t, err)

		annual, _ := result.Float("annualIncome")
		assert.Equal(t, 960000.0, annual)
	})
}

func TestSuggestDeductions(t *testing.T) {
	t.Run("full headroom", func(t *testing.T) {
		suggestions := SuggestDeductions(map[string]float64{})
		assert.Len(t, suggestions, 3)
		assert.Equal(t, "80C", suggestions[0].Section)
		assert.Equal(t, 150000.0, suggestions[0].Remaining)
	})

	t.Run("exhausted sections are omitted", func(t *testing.T) {
		suggestions := SuggestDeductions(map[string]float64{
			"80C": 150000, "80D": 25000, "80CCD1B": 50000,
		})
		assert.Empty(t, suggestions)
	})

	t.Run("partial 80C", func(t *testing.T) {
		suggestions := SuggestDeductions(map[string]float64{
			"80C": 100000, "80D": 25000, "80CCD1B": 50000,
		})
		if assert.Len(t, suggestions, 1) {
			assert.Equal(t, 50000.0, suggestions[0].Remaining)
		}
	})
}

func TestCheckDeductibility(t *testing.T) {
	check := CheckDeductibility("Health Insurance", 20000)
	assert.True(t, check.IsDeductible)
	assert.Equal(t, "80D", check.Section)

	check = CheckDeductibility("Food", 500)
	assert.False(t, check.IsDeductible)
	assert.Empty(t, check.Section)
}

func TestTaxAgentHandle(t *testing.T) {
	t.Run("uses income from previous outcome", func(t *testing.T) {
		a := NewTaxAgent(memstore.New())
		tc := core.TaskContext{
			UserID: "u1",
			Previous: []core.Outcome{{
				Agent:   core.IncomeAgentName,
				Success: true,
				Result:  &core.Result{Data: map[string]any{"annualIncome": 1200000.0}},
			}},
		}

		result, err := a.Handle(context.Background(), core.Task{}, tc)
		assert.NoError(t, err)

		annual, _ := result.Float("annualIncome")
		assert.Equal(t, 1200000.0, annual)
		liability, ok := result.Float("taxLiability")
		assert.True(t, ok)
		assert.Greater(t, liability, 0.0)
	})

	t.Run("defaults without income", func(t *testing.T) {
		a := NewTaxAgent(memstore.New())
		result, err := a.Handle(context.Background(), core.Task{}, core.TaskContext{UserID: "u1"})
		assert.NoError(t, err)

		annual, _ := result.Float("annualIncome")
		assert.Equal(t, 600000.0, annual)
	})

	t.Run("flags deductible expense from sibling", func(t *testing.T) {
		a := NewTaxAgent(memstore.New())
		tc := core.TaskContext{
			UserID: "u1",
			Previous: []core.Outcome{{
				Agent:   core.ExpenseAgentName,
				Success: true,
				Result: &core.Result{Data: map[string]any{
					"category": "Health Insurance", "amount": 20000.0,
				}},
			}},
		}

		result, err := a.Handle(context.Background(), core.Task{}, tc)
		assert.NoError(t, err)
		assert.Contains(t, result.Summary, "80D")
	})
}

func TestSuggestInvestments(t *testing.T) {
	conservative := SuggestInvestments(RiskConservative)
	assert.Equal(t, "PPF", conservative[0].Type)

	aggressive := SuggestInvestments(RiskAggressive)
	assert.Equal(t, "Equity Mutual Funds", aggressive[0].Type)

	fallback := SuggestInvestments("unheard-of")
	assert.Equal(t, SuggestInvestments(RiskModerate), fallback)
}

func TestCalculateSIPReturns(t *testing.T) {
	projection := CalculateSIPReturns(5000, 10, 12)
	assert.Equal(t, 600000.0, projection.Invested)
	assert.Greater(t, projection.TotalValue, projection.Invested)
	assert.Equal(t, projection.TotalValue-projection.Invested, projection.Returns)
	// FV of a 10-year 5000/month SIP at 12% is roughly 11.6 lakh.
	assert.InDelta(t, 1161695, projection.TotalValue, 2000)
}

func TestInvestmentAgentHandle(t *testing.T) {
	a := NewInvestmentAgent(memstore.New())
	result, err := a.Handle(context.Background(), core.Task{}, core.TaskContext{UserID: "u1"})
	assert.NoError(t, err)

	assert.Equal(t, RiskModerate, result.Data["riskProfile"])
	assert.Contains(t, result.Summary, "ELSS")
	assert.Len(t, result.Recommendations, 3)
}
