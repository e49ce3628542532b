// internal/eligibility/readiness.go
package eligibility

// ComputeReadinessBreakdown scores the four readiness bands. matches must be
// the full eligible list, before any top-N truncation, since the breadth
// band counts every eligible program.
func ComputeReadinessBreakdown(profile UserProfile, matches []LoanMatch) (ReadinessBreakdown, error) {
	dti, err := ComputeDTI(profile.AnnualIncome, profile.MonthlyDebt)
	if err != nil {
		return ReadinessBreakdown{}, err
	}

	return readinessBreakdown(profile, dti, matches), nil
}

func readinessBreakdown(profile UserProfile, dti float64, matches []LoanMatch) ReadinessBreakdown {
	return ReadinessBreakdown{
		Credit:         creditBand(profile.CreditScore),
		DebtToIncome:   dtiBand(dti),
		DownPayment:    downPaymentBand(profile.DownPaymentSaved, matches),
		ProgramBreadth: breadthBand(len(matches)),
	}
}

// ComputeReadinessScore returns the 0-100 readiness score.
func ComputeReadinessScore(profile UserProfile, matches []LoanMatch) (int, error) {
	b, err := ComputeReadinessBreakdown(profile, matches)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}

// Credit score (max 35)
func creditBand(score int) int {
	switch {
	case score >= 740:
		return 35
	case score >= 680:
		return 30
	case score >= 620:
		return 25
	case score >= 580:
		return 15
	default:
		return 5
	}
}

// DTI (max 25)
func dtiBand(dti float64) int {
	switch {
	case dti <= 30:
		return 25
	case dti <= 36:
		return 20
	case dti <= 43:
		return 15
	default:
		return 5
	}
}

// Down payment against the best match (max 20). No matches, no points.
func downPaymentBand(saved float64, matches []LoanMatch) int {
	if len(matches) == 0 {
		return 0
	}
	needed := matches[0].EstimatedDownPayment
	switch {
	case saved >= needed:
		return 20
	case saved >= needed*0.75:
		return 15
	case saved >= needed*0.5:
		return 10
	default:
		return 5
	}
}

// Program breadth (max 20)
func breadthBand(count int) int {
	switch {
	case count >= 3:
		return 20
	case count >= 2:
		return 15
	case count >= 1:
		return 10
	default:
		return 0
	}
}

// ReadinessLevel buckets a readiness score for display.
func ReadinessLevel(score int) string {
	switch {
	case score >= 80:
		return "ready"
	case score >= 60:
		return "almost_ready"
	case score >= 40:
		return "building"
	default:
		return "early"
	}
}
