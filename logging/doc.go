// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug any
// structured logger. It also offers a richer ArthvaniLogger with contextual
// helpers (conversation, component) and domain specific logging helpers for
// model calls, agent calls and completed turns.
package logging
