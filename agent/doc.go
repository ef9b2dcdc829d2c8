// Package agent implements the specialist capability agents of the assistant
// (expense, income, tax, investment) and the registry the collaboration layer
// resolves them from. Each agent pairs a memory over the shared in-memory
// store with reasoning helpers; model-backed reasoning degrades to
// deterministic fallbacks so an agent invocation survives completion failures.
package agent
