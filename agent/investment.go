package agent

import (
	"context"
	"fmt"
	"math"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
)

const investPrefix = "invest:"

// defaultMonthlyInvestment is assumed when no amount can be derived from the
// query or profile.
const defaultMonthlyInvestment = 5000

// Risk profile labels.
const (
	RiskConservative = "conservative"
	RiskModerate     = "moderate"
	RiskAggressive   = "aggressive"
)

// InvestmentSuggestion is one instrument in a suggested allocation.
type InvestmentSuggestion struct {
	Type           string `json:"type"`
	Allocation     string `json:"allocation"`
	ExpectedReturn string `json:"expected_return"`
	TaxBenefit     string `json:"tax_benefit"`
}

// SIPProjection is the future value of a systematic investment plan.
type SIPProjection struct {
	Invested   float64 `json:"invested"`
	Returns    float64 `json:"returns"`
	TotalValue float64 `json:"total_value"`
}

// InvestmentProfile is a user's stored investment record.
type InvestmentProfile struct {
	RiskProfile string   `json:"risk_profile"`
	Investments []string `json:"investments"`
}

// allocations maps risk profiles to suggested instrument mixes.
var allocations = map[string][]InvestmentSuggestion{
	RiskConservative: {
		{Type: "PPF", Allocation: "40%", ExpectedReturn: "7-8%", TaxBenefit: "80C"},
		{Type: "Fixed Deposit", Allocation: "30%", ExpectedReturn: "6-7%", TaxBenefit: "80C (Tax Saver FD)"},
		{Type: "Debt Mutual Funds", Allocation: "30%", ExpectedReturn: "7-9%", TaxBenefit: "None"},
	},
	RiskModerate: {
		{Type: "ELSS", Allocation: "40%", ExpectedReturn: "12-15%", TaxBenefit: "80C"},
		{Type: "Index Funds", Allocation: "30%", ExpectedReturn: "10-12%", TaxBenefit: "None"},
		{Type: "PPF/NPS", Allocation: "30%", ExpectedReturn: "7-10%", TaxBenefit: "80C/80CCD"},
	},
	RiskAggressive: {
		{Type: "Equity Mutual Funds", Allocation: "50%", ExpectedReturn: "12-18%", TaxBenefit: "None"},
		{Type: "ELSS", Allocation: "30%", ExpectedReturn: "12-15%", TaxBenefit: "80C"},
		{Type: "Stocks", Allocation: "20%", ExpectedReturn: "15-25%", TaxBenefit: "None"},
	},
}

// SuggestInvestments returns the instrument mix for a risk profile, defaulting
// to moderate for unrecognized profiles.
func SuggestInvestments(riskProfile string) []InvestmentSuggestion {
	if mix, ok := allocations[riskProfile]; ok {
		return mix
	}
	return allocations[RiskModerate]
}

// CalculateSIPReturns projects the future value of a monthly SIP using
// compound growth at the expected annual return percentage.
func CalculateSIPReturns(monthlyAmount float64, years int, expectedReturn float64) SIPProjection {
	months := float64(years * 12)
	monthlyRate := expectedReturn / 12 / 100

	futureValue := monthlyAmount *
		((math.Pow(1+monthlyRate, months) - 1) / monthlyRate) *
		(1 + monthlyRate)

	invested := monthlyAmount * months
	return SIPProjection{
		Invested:   invested,
		Returns:    math.Round(futureValue - invested),
		TotalValue: math.Round(futureValue),
	}
}

// InvestmentMemory stores per-user investment profiles under the invest key
// namespace.
type InvestmentMemory struct {
	store *memstore.Store
}

// NewInvestmentMemory constructs an InvestmentMemory over the shared store.
func NewInvestmentMemory(store *memstore.Store) *InvestmentMemory {
	return &InvestmentMemory{store: store}
}

func (m *InvestmentMemory) profileKey(userID string) string {
	return investPrefix + userID + ":profile"
}

// StoreProfile saves the user's investment profile.
func (m *InvestmentMemory) StoreProfile(userID string, profile InvestmentProfile) {
	m.store.Set(m.profileKey(userID), profile, 0)
}

// Profile returns the user's investment profile, defaulting to moderate risk.
func (m *InvestmentMemory) Profile(userID string) InvestmentProfile {
	v, ok := m.store.Get(m.profileKey(userID))
	if ok {
		if profile, ok := v.(InvestmentProfile); ok {
			if profile.RiskProfile == "" {
				profile.RiskProfile = RiskModerate
			}
			return profile
		}
	}
	return InvestmentProfile{RiskProfile: RiskModerate}
}

// InvestmentAgent advises on risk-appropriate investments and SIP planning.
type InvestmentAgent struct {
	BaseAgent
	memory *InvestmentMemory
	logger logging.Logger
}

// InvestmentAgentOptions configures construction of an InvestmentAgent.
type InvestmentAgentOptions struct {
	Logger logging.Logger
}

// NewInvestmentAgent constructs the investment specialist over the shared
// store.
func NewInvestmentAgent(store *memstore.Store, optFns ...func(o *InvestmentAgentOptions)) *InvestmentAgent {
	opts := InvestmentAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InvestmentAgent{
		BaseAgent: BaseAgent{
			name:        core.InvestmentAgentName,
			description: "Suggests risk-appropriate investments and projects SIP returns",
		},
		memory: NewInvestmentMemory(store),
		logger: opts.Logger,
	}
}

// Memory exposes the agent's investment memory for assembly-time seeding.
func (a *InvestmentAgent) Memory() *InvestmentMemory { return a.memory }

// Handle suggests an allocation for the user's risk profile and projects a
// ten-year SIP at the default monthly amount.
func (a *InvestmentAgent) Handle(ctx context.Context, task core.Task, tc core.TaskContext) (*core.Result, error) {
	userID := tc.UserID
	if userID == "" {
		userID = "default"
	}

	profile := a.memory.Profile(userID)
	monthlyAmount := float64(defaultMonthlyInvestment)

	suggestions := SuggestInvestments(profile.RiskProfile)
	projection := CalculateSIPReturns(monthlyAmount, 10, 12)

	recommendations := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		recommendations = append(recommendations, fmt.Sprintf("%s in %s (Expected: %s, Tax: %s)",
			s.Allocation, s.Type, s.ExpectedReturn, s.TaxBenefit))
	}

	top := suggestions[0]
	return &core.Result{
		Summary: fmt.Sprintf("Invest ₹%.0f/month in %s for %s returns with %s tax benefits.",
			monthlyAmount, top.Type, top.ExpectedReturn, top.TaxBenefit),
		Recommendations: recommendations,
		Data: map[string]any{
			"riskProfile":      profile.RiskProfile,
			"monthlyAmount":    monthlyAmount,
			"projectedReturns": projection,
			"suggestions":      suggestions,
		},
	}, nil
}
