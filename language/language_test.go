package language

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthvani/arthvani/model"
)

func TestDetectLanguage(t *testing.T) {
	t.Run("supported code", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("hi")
		mgr := NewManager(mock)

		det := mgr.DetectLanguage(context.Background(), "नमस्ते")
		assert.Equal(t, "hi", det.Code)
		assert.False(t, det.LowConfidence)
	})

	t.Run("code normalized", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("  TA \n")
		mgr := NewManager(mock)

		det := mgr.DetectLanguage(context.Background(), "வணக்கம்")
		assert.Equal(t, "ta", det.Code)
		assert.False(t, det.LowConfidence)
	})

	t.Run("unsupported code falls back", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("fr")
		mgr := NewManager(mock)

		det := mgr.DetectLanguage(context.Background(), "bonjour")
		assert.Equal(t, Pivot, det.Code)
		assert.True(t, det.LowConfidence)
	})

	t.Run("completion failure falls back", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.FailWith(errors.New("boom"))
		mgr := NewManager(mock)

		det := mgr.DetectLanguage(context.Background(), "hello")
		assert.Equal(t, Pivot, det.Code)
		assert.True(t, det.LowConfidence)
	})

	t.Run("custom default language", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("xx")
		mgr := NewManager(mock, func(o *Options) {
			o.DefaultLanguage = "hi"
		})

		det := mgr.DetectLanguage(context.Background(), "text")
		assert.Equal(t, "hi", det.Code)
		assert.True(t, det.LowConfidence)
	})
}

func TestTranslate(t *testing.T) {
	t.Run("pivot target is passthrough", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mgr := NewManager(mock)

		out := mgr.Translate(context.Background(), "Save more this month.", "en")
		assert.Equal(t, "Save more this month.", out)
		assert.Equal(t, 0, mock.CallCount())
	})

	t.Run("translates to target", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("इस महीने अधिक बचत करें।")
		mgr := NewManager(mock)

		out := mgr.Translate(context.Background(), "Save more this month.", "hi")
		assert.Equal(t, "इस महीने अधिक बचत करें।", out)
	})

	t.Run("failure returns original", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.FailWith(errors.New("boom"))
		mgr := NewManager(mock)

		out := mgr.Translate(context.Background(), "Save more this month.", "hi")
		assert.Equal(t, "Save more this month.", out)
	})

	t.Run("empty completion returns original", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("  ")
		mgr := NewManager(mock)

		out := mgr.Translate(context.Background(), "Save more this month.", "te")
		assert.Equal(t, "Save more this month.", out)
	})
}

func TestTranslateToPivot(t *testing.T) {
	t.Run("pivot source is passthrough", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mgr := NewManager(mock)

		out := mgr.TranslateToPivot(context.Background(), "I spent 500 on food", "en")
		assert.Equal(t, "I spent 500 on food", out)
		assert.Equal(t, 0, mock.CallCount())
	})

	t.Run("translates from source", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.SetDefault("I spent 500 rupees on food")
		mgr := NewManager(mock)

		out := mgr.TranslateToPivot(context.Background(), "मैंने खाने पर 500 रुपये खर्च किए", "hi")
		assert.Equal(t, "I spent 500 rupees on food", out)
	})

	t.Run("failure returns original", func(t *testing.T) {
		mock := model.NewMockCompleter()
		mock.FailWith(errors.New("boom"))
		mgr := NewManager(mock)

		out := mgr.TranslateToPivot(context.Background(), "మీరు ఎలా ఉన్నారు", "te")
		assert.Equal(t, "మీరు ఎలా ఉన్నారు", out)
	})
}

func TestNameAndIsSupported(t *testing.T) {
	assert.Equal(t, "Hindi", Name("hi"))
	assert.Equal(t, "English", Name("unknown"))
	assert.True(t, IsSupported("ta"))
	assert.False(t, IsSupported("fr"))
}
