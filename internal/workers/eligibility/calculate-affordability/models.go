// internal/workers/eligibility/calculate-affordability/models.go
package calculateaffordability

import "homebuyer-workers/internal/eligibility"

type Input struct {
	AnnualIncome     float64  `json:"annualIncome" validate:"gt=0,lte=1000000000000"`
	MonthlyDebt      float64  `json:"monthlyDebt" validate:"gte=0,lte=1000000000000"`
	DownPaymentSaved float64  `json:"downPaymentSaved" validate:"gte=0,lte=1000000000000"`
	RatePercent      *float64 `json:"ratePercent,omitempty" validate:"omitempty,gte=0,lte=30"`
}

type Output struct {
	DTIRatio        float64                `json:"dtiRatio"`
	AffordableRange eligibility.PriceRange `json:"affordableRange"`
	RatePercent     float64                `json:"ratePercent"`
}
