// internal/workers/eligibility/evaluate-loan-eligibility/models.go
package evaluateloaneligibility

import "homebuyer-workers/internal/eligibility"

type Input struct {
	ApplicantID string                   `json:"applicantId,omitempty"`
	UserProfile *eligibility.UserProfile `json:"userProfile"`
}

type Output struct {
	EvaluationID       string                         `json:"evaluationId"`
	DTIRatio           float64                        `json:"dtiRatio"`
	ReadinessScore     int                            `json:"readinessScore"`
	ReadinessLevel     string                         `json:"readinessLevel"`
	ReadinessBreakdown eligibility.ReadinessBreakdown `json:"readinessBreakdown"`
	Matches            []eligibility.LoanMatch        `json:"matches"`
	CurrentRates       eligibility.Rates              `json:"currentRates"`
	Eligible           bool                           `json:"eligible"`
	TopProgramID       string                         `json:"topProgramId,omitempty"`
	CacheHit           bool                           `json:"cacheHit"`
}

// cachedEvaluation is the value stored under a profile fingerprint.
type cachedEvaluation struct {
	Result    eligibility.MatchResult        `json:"result"`
	Breakdown eligibility.ReadinessBreakdown `json:"breakdown"`
}
