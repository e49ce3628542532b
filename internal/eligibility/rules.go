// internal/eligibility/rules.go
package eligibility

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	baseMatchScore = 70
	lowDTIPercent  = 30.0

	// fhaProgramID receives the first-time buyer bonus. The bonus is keyed on
	// the catalog id, not on ProgramTypeFHA.
	fhaProgramID = "fha"
)

// evaluation carries the per-profile figures computed once and shared by
// every program in a single run.
type evaluation struct {
	profile    UserProfile
	dti        float64
	affordable PriceRange
}

// candidate is an eligible program with its down-payment requirement.
type candidate struct {
	program              *LoanProgram
	requiredDownPayment  float64
	estimatedDownPayment float64
}

type eligibilityRule struct {
	name   string
	passes func(ev *evaluation, p *LoanProgram) bool
}

// eligibilityRules must all pass for a program to be matched. Order only
// affects which rule is reported first by firstFailedRule.
var eligibilityRules = []eligibilityRule{
	{
		name: "minCreditScore",
		passes: func(ev *evaluation, p *LoanProgram) bool {
			return ev.profile.CreditScore >= p.MinCreditScore
		},
	},
	{
		name: "maxDTIPercent",
		passes: func(ev *evaluation, p *LoanProgram) bool {
			return ev.dti <= p.MaxDTIPercent
		},
	},
	{
		name: "requiresFirstTime",
		passes: func(ev *evaluation, p *LoanProgram) bool {
			return !p.RequiresFirstTime || ev.profile.IsFirstTime
		},
	},
	{
		// Profiles carry no military-service signal, so these programs are
		// always excluded.
		name: "requiresMilitaryService",
		passes: func(_ *evaluation, p *LoanProgram) bool {
			return !p.RequiresMilitaryService
		},
	},
}

func firstFailedRule(ev *evaluation, p *LoanProgram) (string, bool) {
	for _, r := range eligibilityRules {
		if !r.passes(ev, p) {
			return r.name, true
		}
	}
	return "", false
}

type scoreRule struct {
	name    string
	points  int
	applies func(ev *evaluation, c *candidate) bool
}

// scoreRules are additive on top of baseMatchScore; every rule is checked.
var scoreRules = []scoreRule{
	{
		name:   "creditMargin50",
		points: 10,
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.CreditScore >= c.program.MinCreditScore+50
		},
	},
	{
		name:   "creditMargin100",
		points: 10,
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.CreditScore >= c.program.MinCreditScore+100
		},
	},
	{
		name:   "lowDTI",
		points: 10,
		applies: func(ev *evaluation, _ *candidate) bool {
			return ev.dti < lowDTIPercent
		},
	},
	{
		name:   "downPaymentCovered",
		points: 10,
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.DownPaymentSaved >= c.requiredDownPayment
		},
	},
	{
		name:   "firstTimeFHA",
		points: 5,
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.IsFirstTime && c.program.ID == fhaProgramID
		},
	},
}

func matchScore(ev *evaluation, c *candidate) int {
	score := baseMatchScore
	for _, r := range scoreRules {
		if r.applies(ev, c) {
			score += r.points
		}
	}
	return clamp(score, 0, 100)
}

var printer = message.NewPrinter(language.English)

type reasonRule struct {
	applies func(ev *evaluation, c *candidate) bool
	text    func(ev *evaluation, c *candidate) string
}

// reasonRules produce whyMatched lines in this fixed order.
var reasonRules = []reasonRule{
	{
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.CreditScore >= c.program.MinCreditScore
		},
		text: func(ev *evaluation, _ *candidate) string {
			return printer.Sprintf("Your credit score (%d) meets the requirement", ev.profile.CreditScore)
		},
	},
	{
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.dti <= c.program.MaxDTIPercent
		},
		text: func(ev *evaluation, _ *candidate) string {
			return printer.Sprintf("Your debt-to-income ratio (%.1f%%) is excellent", ev.dti)
		},
	},
	{
		applies: func(ev *evaluation, c *candidate) bool {
			return ev.profile.DownPaymentSaved >= c.estimatedDownPayment
		},
		text: func(ev *evaluation, _ *candidate) string {
			return printer.Sprintf("You have enough saved for the down payment ($%.0f saved)", ev.profile.DownPaymentSaved)
		},
	},
}

func whyMatched(ev *evaluation, c *candidate) []string {
	reasons := make([]string, 0, len(reasonRules))
	for _, r := range reasonRules {
		if r.applies(ev, c) {
			reasons = append(reasons, r.text(ev, c))
		}
	}
	return reasons
}
