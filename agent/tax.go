package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/arthvani/arthvani/core"
	"github.com/arthvani/arthvani/logging"
	"github.com/arthvani/arthvani/memstore"
	"github.com/arthvani/arthvani/taxcalc"
)

const taxPrefix = "tax:"

// defaultAnnualIncome stands in when neither a sibling agent nor the tax
// profile provides an income figure.
const defaultAnnualIncome = 600000

// TaxProfile is a user's stored tax record.
type TaxProfile struct {
	AnnualIncome float64            `json:"annual_income"`
	Deductions   map[string]float64 `json:"deductions"`
	Regime       string             `json:"regime"`
}

// DeductionSuggestion names remaining headroom under a deduction section.
type DeductionSuggestion struct {
	Section   string   `json:"section"`
	Remaining float64  `json:"remaining"`
	Options   []string `json:"options"`
}

// DeductibilityCheck reports whether an expense category is tax-deductible.
type DeductibilityCheck struct {
	IsDeductible bool    `json:"is_deductible"`
	Section      string  `json:"section,omitempty"`
	Amount       float64 `json:"amount"`
	Reasoning    string  `json:"reasoning"`
}

// deductibleCategories maps expense categories to the tax section covering
// them.
var deductibleCategories = map[string]string{
	"Health Insurance":        "80D",
	"Life Insurance":          "80C",
	"Education Loan Interest": "80E",
	"Home Loan Interest":      "24(b)",
	"Charitable Donations":    "80G",
}

// TaxMemory stores per-user tax profiles under the tax key namespace.
type TaxMemory struct {
	store *memstore.Store
}

// NewTaxMemory constructs a TaxMemory over the shared store.
func NewTaxMemory(store *memstore.Store) *TaxMemory {
	return &TaxMemory{store: store}
}

func (m *TaxMemory) profileKey(userID string) string {
	return taxPrefix + userID + ":profile"
}

// StoreProfile saves the user's tax profile.
func (m *TaxMemory) StoreProfile(userID string, profile TaxProfile) {
	m.store.Set(m.profileKey(userID), profile, 0)
}

// Profile returns the user's tax profile, defaulting to the new regime with
// no deductions when absent.
func (m *TaxMemory) Profile(userID string) TaxProfile {
	v, ok := m.store.Get(m.profileKey(userID))
	if ok {
		if profile, ok := v.(TaxProfile); ok {
			if profile.Deductions == nil {
				profile.Deductions = make(map[string]float64)
			}
			return profile
		}
	}
	return TaxProfile{Deductions: make(map[string]float64), Regime: taxcalc.RegimeNew}
}

// StoreDeduction records an amount under a deduction section.
func (m *TaxMemory) StoreDeduction(userID, section string, amount float64) {
	profile := m.Profile(userID)
	profile.Deductions[section] = amount
	m.StoreProfile(userID, profile)
}

// SuggestDeductions lists the sections with remaining headroom given the
// user's current deductions: 80C up to 1.5 lakh, 80D up to 25 thousand and
// NPS 80CCD(1B) up to 50 thousand.
func SuggestDeductions(deductions map[string]float64) []DeductionSuggestion {
	var suggestions []DeductionSuggestion

	if current := deductions["80C"]; current < taxcalc.Max80C {
		suggestions = append(suggestions, DeductionSuggestion{
			Section:   "80C",
			Remaining: taxcalc.Max80C - current,
			Options:   []string{"PPF", "ELSS", "Life Insurance", "NSC", "Tax Saver FD"},
		})
	}
	if current := deductions["80D"]; current < 25000 {
		suggestions = append(suggestions, DeductionSuggestion{
			Section:   "80D",
			Remaining: 25000 - current,
			Options:   []string{"Health Insurance Premium"},
		})
	}
	if current := deductions["80CCD1B"]; current < 50000 {
		suggestions = append(suggestions, DeductionSuggestion{
			Section:   "80CCD(1B)",
			Remaining: 50000 - current,
			Options:   []string{"NPS Contribution"},
		})
	}
	return suggestions
}

// CheckDeductibility reports whether an expense category falls under a
// deduction section.
func CheckDeductibility(category string, amount float64) DeductibilityCheck {
	section, ok := deductibleCategories[category]
	if !ok {
		return DeductibilityCheck{Amount: amount, Reasoning: "Not tax-deductible"}
	}
	return DeductibilityCheck{
		IsDeductible: true,
		Section:      section,
		Amount:       amount,
		Reasoning:    fmt.Sprintf("Eligible under Section %s", section),
	}
}

// TaxAgent computes tax liabilities and suggests deductions under Indian tax
// law.
type TaxAgent struct {
	BaseAgent
	memory *TaxMemory
	logger logging.Logger
}

// TaxAgentOptions configures construction of a TaxAgent.
type TaxAgentOptions struct {
	Logger logging.Logger
}

// NewTaxAgent constructs the tax specialist over the shared store.
func NewTaxAgent(store *memstore.Store, optFns ...func(o *TaxAgentOptions)) *TaxAgent {
	opts := TaxAgentOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &TaxAgent{
		BaseAgent: BaseAgent{
			name:        core.TaxAgentName,
			description: "Calculates tax liability, compares regimes and suggests deductions",
		},
		memory: NewTaxMemory(store),
		logger: opts.Logger,
	}
}

// Memory exposes the agent's tax memory for assembly-time seeding.
func (a *TaxAgent) Memory() *TaxMemory { return a.memory }

// Handle computes the user's tax picture. It prefers the annual income
// produced by an income agent earlier in the same turn, then the stored tax
// profile, then a default.
func (a *TaxAgent) Handle(ctx context.Context, task core.Task, tc core.TaskContext) (*core.Result, error) {
	userID := tc.UserID
	if userID == "" {
		userID = "default"
	}

	profile := a.memory.Profile(userID)

	annualIncome := profile.AnnualIncome
	if prev := tc.PreviousOutcome(core.IncomeAgentName); prev != nil {
		if v, ok := prev.Float("annualIncome"); ok && v > 0 {
			annualIncome = v
			a.logger.Debug("using annual income %.0f from income analysis", v)
		}
	}
	if annualIncome == 0 {
		annualIncome = defaultAnnualIncome
	}

	var totalDeductions float64
	for _, v := range profile.Deductions {
		totalDeductions += v
	}

	liability := taxcalc.CalculateTax(annualIncome, totalDeductions, profile.Regime)
	suggestions := SuggestDeductions(profile.Deductions)
	comparison := taxcalc.CompareRegimes(annualIncome, totalDeductions+taxcalc.StandardDeduction)

	var deductCheck *DeductibilityCheck
	if prev := tc.PreviousOutcome(core.ExpenseAgentName); prev != nil {
		category, _ := prev.Data["category"].(string)
		amount, _ := prev.Float("amount")
		if category != "" && amount > 0 {
			check := CheckDeductibility(category, amount)
			deductCheck = &check
		}
	}

	return &core.Result{
		Summary:         buildTaxSummary(liability, suggestions, deductCheck),
		Recommendations: buildTaxRecommendations(suggestions, comparison),
		Data: map[string]any{
			"annualIncome":     annualIncome,
			"taxLiability":     liability.TaxLiability,
			"effectiveTaxRate": liability.EffectiveTaxRate,
			"potentialSavings": potentialSavings(suggestions),
			"regimeComparison": comparison,
		},
	}, nil
}

func buildTaxSummary(liability taxcalc.Liability, suggestions []DeductionSuggestion, check *DeductibilityCheck) string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Your tax liability is ₹%.0f.", liability.TaxLiability))
	parts = append(parts, fmt.Sprintf("Effective tax rate: %.2f%%.", liability.EffectiveTaxRate))
	if check != nil && check.IsDeductible {
		parts = append(parts, fmt.Sprintf("This expense is tax-deductible under Section %s.", check.Section))
	}
	if len(suggestions) > 0 {
		parts = append(parts, fmt.Sprintf("You can save up to ₹%.0f more through deductions.", potentialSavings(suggestions)))
	}
	return strings.Join(parts, " ")
}

func buildTaxRecommendations(suggestions []DeductionSuggestion, comparison taxcalc.Comparison) []string {
	var recs []string
	if comparison.Recommendation == taxcalc.RegimeOld {
		recs = append(recs, fmt.Sprintf("Stick with the old tax regime to save ₹%.0f.", comparison.Savings))
	} else {
		recs = append(recs, "The new tax regime is better for you.")
	}
	for _, s := range suggestions {
		if s.Remaining > 0 {
			recs = append(recs, fmt.Sprintf("Invest ₹%.0f in %s for Section %s benefits.",
				s.Remaining, strings.Join(s.Options, " or "), s.Section))
		}
	}
	return recs
}

// potentialSavings estimates the tax saved by exhausting remaining deduction
// headroom, assuming the 30% bracket.
func potentialSavings(suggestions []DeductionSuggestion) float64 {
	var total float64
	for _, s := range suggestions {
		total += s.Remaining
	}
	return math.Round(total * 0.3)
}
