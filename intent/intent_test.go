package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthvani/arthvani/model"
)

func TestClassify(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"intent":"expense_logging","confidence":0.92,"language":"hi","entities":[{"type":"amount","value":"500"}]}`)
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "maine khane par 500 kharch kiye")
		assert.Equal(t, ExpenseLogging, got.Label)
		assert.InDelta(t, 0.92, got.Confidence, 0.001)
		assert.Equal(t, "hi", got.Language)
		if assert.Len(t, got.Entities, 1) {
			assert.Equal(t, "amount", got.Entities[0].Type)
			assert.Equal(t, "500", got.Entities[0].Value)
		}
	})

	t.Run("confidence clamped to unit interval", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"intent":"tax_saving_advice","confidence":1.7,"language":"en"}`)
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "how do I save tax")
		assert.Equal(t, TaxSavingAdvice, got.Label)
		assert.Equal(t, 1.0, got.Confidence)
	})

	t.Run("negative confidence clamped", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"intent":"budget_planning","confidence":-0.5}`)
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "help me budget")
		assert.Equal(t, BudgetPlanning, got.Label)
		assert.Equal(t, 0.0, got.Confidence)
		assert.Equal(t, "en", got.Language)
	})

	t.Run("unknown label degrades", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"intent":"order_pizza","confidence":0.99}`)
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "get me a pizza")
		assert.Equal(t, Unknown, got.Label)
		assert.Equal(t, 0.0, got.Confidence)
	})

	t.Run("invalid json degrades", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("I think the intent is expense_logging")
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "spent 200 on fuel")
		assert.Equal(t, Unknown, got.Label)
		assert.Equal(t, 0.0, got.Confidence)
	})

	t.Run("completion failure degrades", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.FailWith(errors.New("boom"))
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "anything")
		assert.Equal(t, Unknown, got.Label)
		assert.Equal(t, 0.0, got.Confidence)
	})

	t.Run("entities without type are dropped", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault(`{"intent":"income_tracking","confidence":0.8,"entities":[{"value":"x"},{"type":"month","value":"july"}]}`)
		c := NewClassifier(mock)

		got := c.Classify(context.Background(), "track my income for july")
		if assert.Len(t, got.Entities, 1) {
			assert.Equal(t, "month", got.Entities[0].Type)
		}
	})
}

func TestIsKnown(t *testing.T) {
	for _, label := range []string{
		Unknown, ExpenseLogging, TaxSavingAdvice, TaxCalculator,
		InvestForTaxSaving, IncomeVsExpenses, InvestmentAdvice,
		IncomeTracking, BudgetPlanning, FinancialOverview,
	} {
		assert.True(t, IsKnown(label), label)
	}
	assert.False(t, IsKnown("order_pizza"))
	assert.False(t, IsKnown(""))
}
