package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "s"}, SystemMessage("s"))
	assert.Equal(t, Message{Role: RoleUser, Content: "u"}, UserMessage("u"))
	assert.Equal(t, Message{Role: RoleAssistant, Content: "a"}, AssistantMessage("a"))
}

func TestMockCompleterCannedResponses(t *testing.T) {
	mock := NewMockCompleter()
	mock.AddResponse("What is 2+2?", "4")

	resp, err := mock.Complete(context.Background(), []Message{
		SystemMessage("Be terse."),
		UserMessage("What is 2+2?"),
	})
	assert.NoError(t, err)
	assert.Equal(t, "4", resp)
	assert.Equal(t, "What is 2+2?", mock.LastPrompt())
	assert.Equal(t, 1, mock.CallCount())
}

func TestMockCompleterDefault(t *testing.T) {
	mock := NewMockCompleter()

	resp, err := mock.Complete(context.Background(), []Message{UserMessage("unmatched")})
	assert.NoError(t, err)
	assert.Equal(t, "Mock response to: unmatched", resp)

	mock.SetDefault("fallback")
	resp, err = mock.Complete(context.Background(), []Message{UserMessage("unmatched")})
	assert.NoError(t, err)
	assert.Equal(t, "fallback", resp)
}

func TestMockCompleterFailWith(t *testing.T) {
	mock := NewMockCompleter()
	wantErr := errors.New("service unavailable")
	mock.FailWith(wantErr)

	_, err := mock.Complete(context.Background(), []Message{UserMessage("hi")})
	assert.ErrorIs(t, err, wantErr)

	mock.FailWith(nil)
	_, err = mock.Complete(context.Background(), []Message{UserMessage("hi")})
	assert.NoError(t, err)
}

func TestMockCompleterContextCancelled(t *testing.T) {
	mock := NewMockCompleter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := mock.Complete(ctx, []Message{UserMessage("hi")})
	assert.ErrorIs(t, err, context.Canceled)
}
