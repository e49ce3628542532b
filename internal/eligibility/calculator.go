// internal/eligibility/calculator.go
package eligibility

import (
	"fmt"
	"math"
)

const (
	// DefaultRatePercent is the annual rate used to size the affordable range.
	DefaultRatePercent = 6.8

	frontEndRatio    = 0.28
	debtHaircut      = 0.3
	minPriceFraction = 0.7
	termMonths       = 360
	roundingStep     = 1000.0
)

// ComputeDTI returns monthly debt as a percentage of monthly income.
func ComputeDTI(annualIncome, monthlyDebt float64) (float64, error) {
	if !(annualIncome > 0) || math.IsInf(annualIncome, 0) {
		return 0, fmt.Errorf("%w: annualIncome must be greater than 0", ErrInvalidProfile)
	}
	monthlyIncome := annualIncome / 12
	dti := monthlyDebt / monthlyIncome * 100
	if !isFinite(dti) {
		return 0, fmt.Errorf("%w: debt-to-income ratio is out of range", ErrInvalidProfile)
	}
	return dti, nil
}

// ComputeAffordableRange estimates the home-price band a buyer can carry.
// The monthly budget is the 28% front-end cap less 30% of existing debt,
// converted to a 30-year principal at annualRatePercent. A budget at or
// below zero yields no loan, leaving only the down payment.
func ComputeAffordableRange(annualIncome, monthlyDebt, downPayment, annualRatePercent float64) PriceRange {
	monthlyIncome := annualIncome / 12
	maxMonthlyPayment := monthlyIncome * frontEndRatio
	paymentAfterDebt := maxMonthlyPayment - monthlyDebt*debtHaircut

	principal := loanPrincipal(paymentAfterDebt, annualRatePercent/100/12, termMonths)

	maxPrice := principal + downPayment
	minPrice := maxPrice * minPriceFraction

	return PriceRange{
		Min: roundToStep(minPrice),
		Max: roundToStep(maxPrice),
	}
}

// loanPrincipal inverts the fixed-rate amortization formula.
func loanPrincipal(payment, monthlyRate float64, months int) float64 {
	if !(payment > 0) {
		return 0
	}
	if monthlyRate == 0 {
		return payment * float64(months)
	}
	growth := math.Pow(1+monthlyRate, float64(months))
	return payment * (growth - 1) / (monthlyRate * growth)
}

func roundToStep(v float64) float64 {
	return math.Round(v/roundingStep) * roundingStep
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
