package agent

import (
	"context"
	"fmt"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
)

const incomePrefix = "income:"

// defaultMonthlySalary stands in when a user has no income on file, so
// downstream tax and budget analysis always has a number to work with.
const defaultMonthlySalary = 50000

// IncomeProfile is a user's income record.
type IncomeProfile struct {
	Salary    float64   `json:"salary"`
	Freelance float64   `json:"freelance"`
	Other     []float64 `json:"other"`
	Monthly   float64   `json:"monthly"`
	Annual    float64   `json:"annual"`
}

// IncomeAnalysis is the derived view of an income profile.
type IncomeAnalysis struct {
	Monthly   float64            `json:"monthly"`
	Annual    float64            `json:"annual"`
	Breakdown map[string]float64 `json:"breakdown"`
	Stability string             `json:"stability"` // "stable" or "variable"
}

// IncomeForecast projects income over a horizon of months.
type IncomeForecast struct {
	Months    int                `json:"months"`
	Projected float64            `json:"projected"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// IncomeMemory stores per-user income profiles under the income key namespace.
type IncomeMemory struct {
	store *memstore.Store
}

// NewIncomeMemory constructs an IncomeMemory over the shared store.
func NewIncomeMemory(store *memstore.Store) *IncomeMemory {
	return &IncomeMemory{store: store}
}

func (m *IncomeMemory) profileKey(userID string) string {
	return incomePrefix + userID + ":profile"
}

// StoreIncome saves the user's income profile.
func (m *IncomeMemory) StoreIncome(userID string, profile IncomeProfile) {
	m.store.Set(m.profileKey(userID), profile, 0)
}

// Income returns the user's income profile, zero-valued when absent.
func (m *IncomeMemory) Income(userID string) IncomeProfile {
	v, ok := m.store.Get(m.profileKey(userID))
	if ok {
		if profile, ok := v.(IncomeProfile); ok {
			return profile
		}
	}
	return IncomeProfile{}
}

// AddIncomeSource records an amount for a named source ("salary" or
// "freelance") and recomputes the monthly and annual totals.
func (m *IncomeMemory) AddIncomeSource(userID, source string, amount float64) {
	profile := m.Income(userID)
	switch source {
	case "salary":
		profile.Salary = amount
	case "freelance":
		profile.Freelance = amount
	default:
		profile.Other = append(profile.Other, amount)
	}
	profile.Monthly = profile.Salary + profile.Freelance
	profile.Annual = profile.Monthly * 12
	m.StoreIncome(userID, profile)
}

// AnalyzeIncome derives totals, a source breakdown and a stability label.
// Income dominated by freelance earnings is considered variable.
func AnalyzeIncome(profile IncomeProfile) IncomeAnalysis {
	monthly := profile.Salary + profile.Freelance
	var other float64
	for _, v := range profile.Other {
		other += v
	}

	stability := "stable"
	if profile.Freelance > profile.Salary {
		stability = "variable"
	}

	return IncomeAnalysis{
		Monthly: monthly,
		Annual:  monthly * 12,
		Breakdown: map[string]float64{
			"salary":    profile.Salary,
			"freelance": profile.Freelance,
			"other":     other,
		},
		Stability: stability,
	}
}

// ForecastIncome projects income linearly over the given number of months.
func ForecastIncome(profile IncomeProfile, months int) IncomeForecast {
	analysis := AnalyzeIncome(profile)
	return IncomeForecast{
		Months:    months,
		Projected: analysis.Monthly * float64(months),
		Breakdown: analysis.Breakdown,
	}
}

// IncomeAgent tracks and analyzes income for budgeting and tax input.
type IncomeAgent struct {
	BaseAgent
	memory *IncomeMemory
	logger logging.Logger
}

// IncomeAgentOptions configures construction of an IncomeAgent.
type IncomeAgentOptions struct {
	Logger logging.Logger
}

// NewIncomeAgent constructs the income specialist over the shared store.
func NewIncomeAgent(store *memstore.Store, optFns ...func(o *IncomeAgentOptions)) *IncomeAgent {
	opts := IncomeAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &IncomeAgent{
		BaseAgent: BaseAgent{
			name:        core.IncomeAgentName,
			description: "Tracks income sources, analyzes stability and forecasts earnings",
		},
		memory: NewIncomeMemory(store),
		logger: opts.Logger,
	}
}

// Memory exposes the agent's income memory for assembly-time seeding.
func (a *IncomeAgent) Memory() *IncomeMemory { return a.memory }

// Handle analyzes the user's income, substituting a default salary when
// nothing is on file, and publishes the annual figure for downstream agents.
func (a *IncomeAgent) Handle(ctx context.Context, task core.Task, tc core.TaskContext) (*core.Result, error) {
	userID := tc.UserID
	if userID == "" {
		userID = "default"
	}

	profile := a.memory.Income(userID)
	if profile.Monthly == 0 && profile.Salary == 0 && profile.Freelance == 0 {
		if tc.User.MonthlyIncome > 0 {
			profile.Salary = tc.User.MonthlyIncome
		} else {
			profile.Salary = defaultMonthlySalary
		}
		profile.Monthly = profile.Salary
		profile.Annual = profile.Monthly * 12
		a.logger.Debug("no income on file for user %s, using %.0f/month", userID, profile.Salary)
	}

	analysis := AnalyzeIncome(profile)
	forecast := ForecastIncome(profile, 6)

	recommendations := []string{"Track all income sources monthly"}
	if analysis.Stability == "variable" {
		recommendations = append([]string{"Build an emergency fund of 6 months expenses"}, recommendations...)
	} else {
		recommendations = append([]string{"Maintain regular savings"}, recommendations...)
	}

	return &core.Result{
		Summary: fmt.Sprintf("Your monthly income is ₹%.0f. Annual: ₹%.0f.", analysis.Monthly, analysis.Annual),
		Recommendations: recommendations,
		Data: map[string]any{
			"monthlyIncome": analysis.Monthly,
			"annualIncome":  analysis.Annual,
			"breakdown":     analysis.Breakdown,
			"stability":     analysis.Stability,
			"forecast":      forecast,
		},
	}, nil
}
