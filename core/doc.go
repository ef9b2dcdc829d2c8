// Package core contains the shared data model of the assistant: intents,
// agent tasks and outcomes, insight bundles, turn results and the Agent
// interface implemented by every capability agent. Higher layers (router,
// collab, orchestrator) communicate exclusively through these types so that
// no component depends on another component's internals.
package core
