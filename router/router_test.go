package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/intent"
)

func TestMapIntentToAgents(t *testing.T) {
	t.Run("single agent intents", func(t *testing.T) {
		assert.Equal(t, []string{core.ExpenseAgentName}, MapIntentToAgents(intent.ExpenseLogging))
		assert.Equal(t, []string{core.TaxAgentName}, MapIntentToAgents(intent.TaxSavingAdvice))
		assert.Equal(t, []string{core.InvestmentAgentName}, MapIntentToAgents(intent.InvestmentAdvice))
		assert.Equal(t, []string{core.IncomeAgentName}, MapIntentToAgents(intent.IncomeTracking))
	})

	t.Run("multi agent intents", func(t *testing.T) {
		assert.Equal(t, []string{core.InvestmentAgentName, core.TaxAgentName}, MapIntentToAgents(intent.InvestForTaxSaving))
		assert.Equal(t, []string{core.IncomeAgentName, core.ExpenseAgentName}, MapIntentToAgents(intent.IncomeVsExpenses))
		assert.Equal(t, []string{core.IncomeAgentName, core.ExpenseAgentName}, MapIntentToAgents(intent.BudgetPlanning))
	})

	t.Run("financial overview routes to all four", func(t *testing.T) {
		got := MapIntentToAgents(intent.FinancialOverview)
		assert.ElementsMatch(t, []string{
			core.IncomeAgentName, core.ExpenseAgentName,
			core.TaxAgentName, core.InvestmentAgentName,
		}, got)
	})

	t.Run("unrouted labels yield no agents", func(t *testing.T) {
		assert.Empty(t, MapIntentToAgents(intent.Unknown))
		assert.Empty(t, MapIntentToAgents("no_such_intent"))
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		got := MapIntentToAgents(intent.IncomeVsExpenses)
		got[0] = "mutated"
		assert.Equal(t, []string{core.IncomeAgentName, core.ExpenseAgentName}, MapIntentToAgents(intent.IncomeVsExpenses))
	})
}

func TestExecutionOrder(t *testing.T) {
	t.Run("orders by priority", func(t *testing.T) {
		got := ExecutionOrder([]string{
			core.InvestmentAgentName, core.TaxAgentName,
			core.IncomeAgentName, core.ExpenseAgentName,
		})
		assert.Equal(t, []string{
			core.IncomeAgentName, core.ExpenseAgentName,
			core.TaxAgentName, core.InvestmentAgentName,
		}, got)
	})

	t.Run("unranked agents sort last in given order", func(t *testing.T) {
		got := ExecutionOrder([]string{"GhostA", core.TaxAgentName, "GhostB", core.IncomeAgentName})
		assert.Equal(t, []string{core.IncomeAgentName, core.TaxAgentName, "GhostA", "GhostB"}, got)
	})

	t.Run("input not modified", func(t *testing.T) {
		in := []string{core.TaxAgentName, core.IncomeAgentName}
		ExecutionOrder(in)
		assert.Equal(t, []string{core.TaxAgentName, core.IncomeAgentName}, in)
	})
}

func TestCanRunInParallel(t *testing.T) {
	t.Run("safe pairs in any order", func(t *testing.T) {
		assert.True(t, CanRunInParallel([]string{core.InvestmentAgentName, core.ExpenseAgentName}))
		assert.True(t, CanRunInParallel([]string{core.ExpenseAgentName, core.InvestmentAgentName}))
		assert.True(t, CanRunInParallel([]string{core.IncomeAgentName, core.TaxAgentName}))
		assert.True(t, CanRunInParallel([]string{core.TaxAgentName, core.IncomeAgentName}))
	})

	t.Run("dependent combinations are sequential", func(t *testing.T) {
		assert.False(t, CanRunInParallel([]string{core.IncomeAgentName, core.ExpenseAgentName}))
		assert.False(t, CanRunInParallel([]string{core.InvestmentAgentName, core.TaxAgentName}))
		assert.False(t, CanRunInParallel([]string{
			core.IncomeAgentName, core.ExpenseAgentName,
			core.TaxAgentName, core.InvestmentAgentName,
		}))
	})

	t.Run("small plans are sequential", func(t *testing.T) {
		assert.False(t, CanRunInParallel(nil))
		assert.False(t, CanRunInParallel([]string{core.TaxAgentName}))
	})
}

func TestTaskPriority(t *testing.T) {
	assert.Equal(t, 1, TaskPriority(core.IncomeAgentName))
	assert.Equal(t, 2, TaskPriority(core.ExpenseAgentName))
	assert.Equal(t, 3, TaskPriority(core.TaxAgentName))
	assert.Equal(t, 4, TaskPriority(core.InvestmentAgentName))
	assert.Equal(t, 999, TaskPriority("SomethingElse"))
}
