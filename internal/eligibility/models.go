// internal/eligibility/models.go
package eligibility

// ProgramType is the loan family a catalog entry belongs to.
type ProgramType string

const (
	ProgramTypeFHA          ProgramType = "FHA"
	ProgramTypeVA           ProgramType = "VA"
	ProgramTypeUSDA         ProgramType = "USDA"
	ProgramTypeConventional ProgramType = "Conventional"
)

// Valid reports whether t is one of the known program types.
func (t ProgramType) Valid() bool {
	switch t {
	case ProgramTypeFHA, ProgramTypeVA, ProgramTypeUSDA, ProgramTypeConventional:
		return true
	}
	return false
}

// UserProfile is the financial snapshot a single evaluation runs against.
type UserProfile struct {
	AnnualIncome     float64 `json:"annualIncome" validate:"gt=0,lte=1000000000000"`
	CreditScore      int     `json:"creditScore" validate:"gte=300,lte=850"`
	MonthlyDebt      float64 `json:"monthlyDebt" validate:"gte=0,lte=1000000000000"`
	DownPaymentSaved float64 `json:"downPaymentSaved" validate:"gte=0,lte=1000000000000"`
	Location         string  `json:"location"`
	IsFirstTime      bool    `json:"isFirstTime"`
	ZipCode          string  `json:"zipCode,omitempty"`
}

// LoanProgram is one static catalog entry.
type LoanProgram struct {
	ID                      string      `json:"id" yaml:"id"`
	Name                    string      `json:"name" yaml:"name"`
	Type                    ProgramType `json:"type" yaml:"type"`
	MinCreditScore          int         `json:"minCreditScore" yaml:"minCreditScore"`
	MinDownPaymentPercent   float64     `json:"minDownPaymentPercent" yaml:"minDownPaymentPercent"`
	MaxDTIPercent           float64     `json:"maxDTIPercent" yaml:"maxDTIPercent"`
	Benefits                []string    `json:"benefits" yaml:"benefits"`
	Description             string      `json:"description" yaml:"description"`
	RequiresFirstTime       bool        `json:"requiresFirstTime,omitempty" yaml:"requiresFirstTime,omitempty"`
	RequiresMilitaryService bool        `json:"requiresMilitaryService,omitempty" yaml:"requiresMilitaryService,omitempty"`
}

func (p LoanProgram) clone() LoanProgram {
	out := p
	if p.Benefits != nil {
		out.Benefits = append([]string(nil), p.Benefits...)
	}
	return out
}

// PriceRange is an affordable home-price band, rounded to the nearest thousand.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// LoanMatch is one eligible program scored against a profile.
type LoanMatch struct {
	Program                 LoanProgram `json:"program"`
	MatchScore              int         `json:"matchScore"`
	EstimatedDownPayment    float64     `json:"estimatedDownPayment"`
	EstimatedMonthlyPayment float64     `json:"estimatedMonthlyPayment"`
	AffordableRange         PriceRange  `json:"affordableRange"`
	WhyMatched              []string    `json:"whyMatched"`
}

// Rates are the current market rates attached to every result. They are
// supplied from configuration and never computed here.
type Rates struct {
	Fixed30 float64 `json:"fixed30" mapstructure:"fixed30"`
	Fixed15 float64 `json:"fixed15" mapstructure:"fixed15"`
	ARM51   float64 `json:"arm51" mapstructure:"arm51"`
}

// DefaultRates mirrors the static figures the product shipped with.
var DefaultRates = Rates{
	Fixed30: 6.8,
	Fixed15: 6.1,
	ARM51:   6.3,
}

// MatchResult is the output of Engine.Evaluate.
type MatchResult struct {
	DTIRatio       float64     `json:"dtiRatio"`
	ReadinessScore int         `json:"readinessScore"`
	Matches        []LoanMatch `json:"matches"`
	CurrentRates   Rates       `json:"currentRates"`
}

// ReadinessBreakdown holds the contribution of each readiness band.
type ReadinessBreakdown struct {
	Credit         int `json:"credit"`
	DebtToIncome   int `json:"debtToIncome"`
	DownPayment    int `json:"downPayment"`
	ProgramBreadth int `json:"programBreadth"`
}

// Total is the clamped readiness score.
func (b ReadinessBreakdown) Total() int {
	return clamp(b.Credit+b.DebtToIncome+b.DownPayment+b.ProgramBreadth, 0, 100)
}
