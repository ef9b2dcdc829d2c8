// Package collab orchestrates the execution of multi-agent plans: sequencing
// agents by data dependency, fanning out the rare dependency-free plans, and
// folding the per-agent outcomes into a single insight bundle. A failing
// agent is recorded as a failed outcome and never aborts its siblings.
package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/arthvani/arthvani/agent"
	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/eventbus"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/router"
)

// Manager runs agent plans against the registry, publishing lifecycle events
// for every invocation.
type Manager struct {
	registry *agent.Registry
	bus      *eventbus.Bus
	logger   logging.Logger
}

// Options configures construction of a Manager.
type Options struct {
	Logger logging.Logger
}

// NewManager constructs a collaboration manager.
func NewManager(registry *agent.Registry, bus *eventbus.Bus, optFns ...func(o *Options)) *Manager {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{registry: registry, bus: bus, logger: opts.Logger}
}

// Orchestrate executes the named agents for one task. Agents are ordered by
// dependency priority; a plan whose agents form a known dependency-free set
// runs concurrently, everything else runs sequentially with each agent seeing
// its predecessors' outcomes. The returned slice holds one outcome per
// requested agent.
func (m *Manager) Orchestrate(ctx context.Context, agentNames []string, task core.Task, tc core.TaskContext) []core.Outcome {
	ordered := router.ExecutionOrder(agentNames)

	if router.CanRunInParallel(ordered) {
		return m.executeParallel(ctx, ordered, task, tc)
	}
	return m.executeSequential(ctx, ordered, task, tc)
}

// executeSequential runs agents one at a time, growing the outcome list that
// later agents observe through the task context.
func (m *Manager) executeSequential(ctx context.Context, agentNames []string, task core.Task, tc core.TaskContext) []core.Outcome {
	outcomes := make([]core.Outcome, 0, len(agentNames))

	for _, name := range agentNames {
		stepCtx := tc
		stepCtx.Previous = outcomes
		outcomes = append(outcomes, m.invoke(ctx, name, task, stepCtx))
	}
	return outcomes
}

// executeParallel fans out one goroutine per agent. Agents see no sibling
// outcomes; the result slice preserves the input order regardless of
// completion order.
func (m *Manager) executeParallel(ctx context.Context, agentNames []string, task core.Task, tc core.TaskContext) []core.Outcome {
	outcomes := make([]core.Outcome, len(agentNames))

	var wg sync.WaitGroup
	for i, name := range agentNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			outcomes[i] = m.invoke(ctx, name, task, tc)
		}(i, name)
	}
	wg.Wait()
	return outcomes
}

// invoke runs one agent and translates its result or error into an outcome,
// publishing start/complete/error events around the call.
func (m *Manager) invoke(ctx context.Context, name string, task core.Task, tc core.TaskContext) core.Outcome {
	a, ok := m.registry.Resolve(name)
	if !ok {
		m.logger.Error("agent %s not found in registry", name)
		return core.Outcome{
			Agent:     name,
			Success:   false,
			Error:     fmt.Sprintf("agent %s not registered", name),
			Timestamp: time.Now().UTC(),
		}
	}

	m.bus.PublishAsync(ctx, eventbus.AgentStart, core.AgentStartPayload{Agent: name, UserID: tc.UserID})

	start := time.Now()
	result, err := m.safeHandle(ctx, a, task, tc)
	if err != nil || result == nil {
		if err == nil {
			err = fmt.Errorf("agent %s returned no result", name)
		}
		m.logger.Error("agent %s failed after %s: %v", name, time.Since(start), err)
		m.bus.PublishAsync(ctx, eventbus.AgentError, core.AgentErrorPayload{Agent: name, UserID: tc.UserID, Error: err.Error()})
		return core.Outcome{
			Agent:     name,
			Success:   false,
			Error:     err.Error(),
			Timestamp: time.Now().UTC(),
		}
	}

	m.logger.Debug("agent %s completed in %s", name, time.Since(start))
	m.bus.PublishAsync(ctx, eventbus.AgentComplete, core.AgentCompletePayload{Agent: name, UserID: tc.UserID, Result: result})
	return core.Outcome{
		Agent:     name,
		Success:   true,
		Result:    result,
		Timestamp: time.Now().UTC(),
	}
}

// safeHandle runs an agent's Handle with panic containment, so a misbehaving
// agent is reported as a failed outcome instead of taking down the turn.
func (m *Manager) safeHandle(ctx context.Context, a core.Agent, task core.Task, tc core.TaskContext) (result *core.Result, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = fmt.Errorf("agent %s panicked: %v", a.Name(), rec)
		}
	}()
	return a.Handle(ctx, task, tc)
}

// CombineOutputs indexes successful results by agent name.
func CombineOutputs(outcomes []core.Outcome) map[string]*core.Result {
	combined := make(map[string]*core.Result, len(outcomes))
	for _, o := range outcomes {
		if o.Result != nil {
			combined[o.Agent] = o.Result
		}
	}
	return combined
}

// ExtractInsights folds the successful outcomes of a turn into one bundle.
// Failed outcomes contribute nothing; their absence is visible only through
// the outcome list itself.
func ExtractInsights(outcomes []core.Outcome) core.InsightBundle {
	insights := core.InsightBundle{Data: make(map[string]*core.Result)}

	for _, o := range outcomes {
		if !o.Success || o.Result == nil {
			continue
		}
		if o.Result.Summary != "" {
			insights.Summary = append(insights.Summary, fmt.Sprintf("%s: %s", o.Agent, o.Result.Summary))
		}
		insights.Recommendations = append(insights.Recommendations, o.Result.Recommendations...)
		insights.Warnings = append(insights.Warnings, o.Result.Warnings...)
		insights.Data[o.Agent] = o.Result
	}
	return insights
}
