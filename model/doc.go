// Package model defines the completion-service boundary: a minimal Completer
// interface over single-shot chat completions, plus a deterministic
// MockCompleter for tests. Vendor adapters live in the openai and anthropic
// subpackages.
package model
