package taxcalc

import (
	"fmt"
	"math"
)

// Indian income tax constants, FY 2024-25.
const (
	StandardDeduction = 50000
	Max80C            = 150000
	cessRate          = 0.04
)

// Regime identifiers.
const (
	RegimeOld = "old"
	RegimeNew = "new"
)

// Liability is the full tax computation for one regime.
type Liability struct {
	TaxableIncome     float64 `json:"taxable_income"`
	TaxLiability      float64 `json:"tax_liability"`
	EffectiveTaxRate  float64 `json:"effective_tax_rate"`
	DeductionsApplied float64 `json:"deductions_applied"`
}

// Comparison holds both regime computations and the recommendation.
type Comparison struct {
	OldRegime      Liability `json:"old_regime"`
	NewRegime      Liability `json:"new_regime"`
	Recommendation string    `json:"recommendation"`
	Savings        float64   `json:"savings"`
}

// oldRegimeSlabTax applies the old regime slabs to taxable income.
func oldRegimeSlabTax(taxable float64) float64 {
	switch {
	case taxable <= 250000:
		return 0
	case taxable <= 500000:
		return (taxable - 250000) * 0.05
	case taxable <= 1000000:
		return 12500 + (taxable-500000)*0.20
	default:
		return 112500 + (taxable-1000000)*0.30
	}
}

// newRegimeSlabTax applies the new regime slabs to taxable income.
func newRegimeSlabTax(taxable float64) float64 {
	switch {
	case taxable <= 300000:
		return 0
	case taxable <= 700000:
		return (taxable - 300000) * 0.05
	case taxable <= 1000000:
		return 20000 + (taxable-700000)*0.10
	case taxable <= 1200000:
		return 50000 + (taxable-1000000)*0.15
	case taxable <= 1500000:
		return 80000 + (taxable-1200000)*0.20
	default:
		return 140000 + (taxable-1500000)*0.30
	}
}

// CalculateTax computes the liability on gross income under the named regime
// after subtracting the given deductions, clamping taxable income at zero and
// adding the 4% health and education cess.
func CalculateTax(income, deductions float64, regime string) Liability {
	taxable := math.Max(0, income-deductions)

	var tax float64
	if regime == RegimeOld {
		tax = oldRegimeSlabTax(taxable)
	} else {
		tax = newRegimeSlabTax(taxable)
	}
	tax *= 1 + cessRate

	var rate float64
	if income > 0 {
		rate = math.Round(tax/income*10000) / 100
	}

	return Liability{
		TaxableIncome:     taxable,
		TaxLiability:      math.Round(tax),
		EffectiveTaxRate:  rate,
		DeductionsApplied: deductions,
	}
}

// CompareRegimes computes the liability under both regimes and recommends the
// cheaper one. The old regime applies the full deductions; the new regime
// allows only the standard deduction. Ties recommend the new regime.
func CompareRegimes(income, oldRegimeDeductions float64) Comparison {
	old := CalculateTax(income, oldRegimeDeductions, RegimeOld)
	current := CalculateTax(income, StandardDeduction, RegimeNew)

	recommendation := RegimeNew
	if old.TaxLiability < current.TaxLiability {
		recommendation = RegimeOld
	}

	return Comparison{
		OldRegime:      old,
		NewRegime:      current,
		Recommendation: recommendation,
		Savings:        math.Abs(old.TaxLiability - current.TaxLiability),
	}
}

// FormatAmount renders a rupee amount compactly for speech output using the
// lakh/thousand notation the calculator speaks in, e.g. 1200000 -> "12.0L",
// 50000 -> "50K".
func FormatAmount(amount float64) string {
	switch {
	case amount >= 100000:
		return fmt.Sprintf("%.1fL", amount/100000)
	case amount >= 1000:
		return fmt.Sprintf("%.0fK", amount/1000)
	default:
		return fmt.Sprintf("%d", int64(math.Round(amount)))
	}
}
