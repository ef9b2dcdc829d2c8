// Package language handles multilingual turn normalization: detecting the
// caller's language and translating between it and the pivot language the
// rest of the pipeline works in. All failures degrade to pass-through of the
// original text; no error ever reaches the caller.
package language

import (
	"context"
	"fmt"
	"strings"

	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/model"
)

// Pivot is the working language the pipeline normalizes into.
const Pivot = "en"

// supported maps language codes to display names used in prompts.
var supported = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"ta": "Tamil",
	"te": "Telugu",
}

const translationSystemPrompt = `You are a professional translator.
Translate the following financial advice to %s.
Maintain accuracy and use appropriate financial terminology.
Language codes: hi=Hindi, en=English, ta=Tamil, te=Telugu`

// Detection is the result of language detection. LowConfidence marks inputs
// whose detected code fell outside the supported set and was coerced to the
// default, so callers can surface the downgrade instead of hiding it.
type Detection struct {
	Code          string
	LowConfidence bool
}

// Manager detects languages and translates text via the completion service.
type Manager struct {
	completer   model.Completer
	defaultLang string
	logger      logging.Logger
}

// Options configures construction of a Manager.
type Options struct {
	// DefaultLanguage is the code unsupported detections coerce to.
	DefaultLanguage string
	Logger          logging.Logger
}

// NewManager constructs a Manager with optional overrides.
func NewManager(completer model.Completer, optFns ...func(o *Options)) *Manager {
	opts := Options{DefaultLanguage: Pivot, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{completer: completer, defaultLang: opts.DefaultLanguage, logger: opts.Logger}
}

// IsSupported reports whether the language code is in the supported set.
func IsSupported(code string) bool {
	_, ok := supported[code]
	return ok
}

// Name returns the display name of a language code, defaulting to English.
func Name(code string) string {
	if name, ok := supported[code]; ok {
		return name
	}
	return "English"
}

// DetectLanguage classifies the language of text into the supported code set.
// A detection outside the set, or any completion failure, yields the default
// language with LowConfidence set.
func (m *Manager) DetectLanguage(ctx context.Context, text string) Detection {
	prompt := fmt.Sprintf(`Detect the language of this text and respond with only the language code (en, hi, ta, or te):
%q`, text)

	out, err := m.completer.Complete(ctx, []model.Message{model.UserMessage(prompt)}, func(o *model.Options) {
		o.Temperature = 0.1
		o.MaxTokens = 10
	})
	if err != nil {
		m.logger.Warn("language detection failed: %v", err)
		return Detection{Code: m.defaultLang, LowConfidence: true}
	}

	code := strings.ToLower(strings.TrimSpace(out))
	if IsSupported(code) {
		return Detection{Code: code}
	}

	m.logger.Warn("language detection returned unsupported code %q, falling back to %s", code, m.defaultLang)
	return Detection{Code: m.defaultLang, LowConfidence: true}
}

// Translate renders text into the target language. Translation to the pivot
// language is a no-op; completion failure returns the original text.
func (m *Manager) Translate(ctx context.Context, text, target string) string {
	if target == Pivot || text == "" {
		return text
	}

	out, err := m.completer.Complete(ctx, []model.Message{
		model.SystemMessage(fmt.Sprintf(translationSystemPrompt, Name(target))),
		model.UserMessage(text),
	}, func(o *model.Options) {
		o.Temperature = 0.3
		o.MaxTokens = 500
	})
	if err != nil || strings.TrimSpace(out) == "" {
		m.logger.Warn("translation to %s failed, returning original text: %v", target, err)
		return text
	}
	return out
}

// TranslateToPivot renders text from the source language into the pivot
// language for processing. Pivot input is a no-op; completion failure returns
// the original text.
func (m *Manager) TranslateToPivot(ctx context.Context, text, source string) string {
	if source == Pivot || text == "" {
		return text
	}

	prompt := fmt.Sprintf(`Translate this %s text to English:
%q

Respond with only the English translation, no explanations.`, Name(source), text)

	out, err := m.completer.Complete(ctx, []model.Message{model.UserMessage(prompt)}, func(o *model.Options) {
		o.Temperature = 0.2
		o.MaxTokens = 300
	})
	if err != nil || strings.TrimSpace(out) == "" {
		m.logger.Warn("translation from %s failed, returning original text: %v", source, err)
		return text
	}
	return out
}
