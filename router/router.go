// Package router maps classified intents onto the specialist agents that can
// serve them, orders multi-agent plans by data-dependency priority, and
// decides whether a plan may run its agents concurrently.
package router

import (
	"sort"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/intent"
)

// intentAgents is the static routing table from intent label to the agents
// that serve it. Labels absent from the table route to no agents.
var intentAgents = map[string][]string{
	intent.ExpenseLogging:     {core.ExpenseAgentName},
	intent.TaxSavingAdvice:    {core.TaxAgentName},
	intent.InvestForTaxSaving: {core.InvestmentAgentName, core.TaxAgentName},
	intent.IncomeVsExpenses:   {core.IncomeAgentName, core.ExpenseAgentName},
	intent.InvestmentAdvice:   {core.InvestmentAgentName},
	intent.IncomeTracking:     {core.IncomeAgentName},
	intent.BudgetPlanning:     {core.IncomeAgentName, core.ExpenseAgentName},
	intent.FinancialOverview: {
		core.IncomeAgentName,
		core.ExpenseAgentName,
		core.TaxAgentName,
		core.InvestmentAgentName,
	},
}

// agentPriority orders agents so producers of data run before consumers:
// income feeds expense analysis, which feeds tax, which feeds investment.
// Agents without an entry sort last.
var agentPriority = map[string]int{
	core.IncomeAgentName:     1,
	core.ExpenseAgentName:    2,
	core.TaxAgentName:        3,
	core.InvestmentAgentName: 4,
}

const unrankedPriority = 999

// parallelSafeSets lists the exact agent sets with no data dependency between
// members. Only these may execute concurrently.
var parallelSafeSets = [][]string{
	{core.InvestmentAgentName, core.ExpenseAgentName},
	{core.IncomeAgentName, core.TaxAgentName},
}

// MapIntentToAgents resolves an intent label to the agents serving it. The
// returned slice is a copy; callers may reorder it freely. Unrouted labels,
// including unknown, yield an empty slice.
func MapIntentToAgents(label string) []string {
	agents, ok := intentAgents[label]
	if !ok {
		return nil
	}
	out := make([]string, len(agents))
	copy(out, agents)
	return out
}

// ExecutionOrder sorts agent names by ascending priority. The sort is stable:
// agents of equal priority, including unranked ones, keep their given order.
// The input slice is not modified.
func ExecutionOrder(agents []string) []string {
	out := make([]string, len(agents))
	copy(out, agents)
	sort.SliceStable(out, func(i, j int) bool {
		return priorityOf(out[i]) < priorityOf(out[j])
	})
	return out
}

func priorityOf(agent string) int {
	if p, ok := agentPriority[agent]; ok {
		return p
	}
	return unrankedPriority
}

// TaskPriority returns the scheduling priority of an agent, with unranked
// agents sorting after all ranked ones.
func TaskPriority(agent string) int {
	return priorityOf(agent)
}

// CanRunInParallel reports whether the given agents may execute concurrently.
// Only an exact match against a known dependency-free set qualifies; any
// other combination, and any plan of one agent or none, runs sequentially.
func CanRunInParallel(agents []string) bool {
	if len(agents) <= 1 {
		return false
	}
	for _, safe := range parallelSafeSets {
		if sameSet(agents, safe) {
			return true
		}
	}
	return false
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, name := range a {
		seen[name]++
	}
	for _, name := range b {
		seen[name]--
		if seen[name] < 0 {
			return false
		}
	}
	return true
}
