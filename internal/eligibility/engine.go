// internal/eligibility/engine.go
package eligibility

import (
	"fmt"
	"math"
	"sort"
)

const (
	// MaxMatches is how many programs a MatchResult carries.
	MaxMatches = 3

	// monthlyPaymentFactor is a flat per-dollar estimate of principal,
	// interest, taxes and insurance on the financed amount.
	monthlyPaymentFactor = 0.0065
)

// Engine scores profiles against an immutable catalog. It holds no mutable
// state and may be shared by any number of goroutines.
type Engine struct {
	catalog     *Catalog
	rates       Rates
	ratePercent float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRates sets the rates attached to every result.
func WithRates(r Rates) Option {
	return func(e *Engine) {
		e.rates = r
	}
}

// WithRatePercent sets the annual rate used for the affordable range.
func WithRatePercent(p float64) Option {
	return func(e *Engine) {
		if p >= 0 && isFinite(p) {
			e.ratePercent = p
		}
	}
}

// NewEngine creates an Engine over catalog.
func NewEngine(catalog *Catalog, opts ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, ErrNilCatalog
	}
	e := &Engine{
		catalog:     catalog,
		rates:       DefaultRates,
		ratePercent: DefaultRatePercent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the catalog the engine evaluates against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Rates returns the rates attached to results.
func (e *Engine) Rates() Rates {
	return e.rates
}

// Evaluate validates profile and produces its MatchResult. Readiness is
// scored against every eligible program; only the top MaxMatches are
// returned.
func (e *Engine) Evaluate(profile UserProfile) (MatchResult, error) {
	result, _, err := e.EvaluateWithBreakdown(profile)
	return result, err
}

// EvaluateWithBreakdown is Evaluate plus the per-band readiness
// contributions behind ReadinessScore.
func (e *Engine) EvaluateWithBreakdown(profile UserProfile) (MatchResult, ReadinessBreakdown, error) {
	ev, err := e.newEvaluation(profile)
	if err != nil {
		return MatchResult{}, ReadinessBreakdown{}, err
	}

	matches := e.matchPrograms(ev)

	readiness := readinessBreakdown(profile, ev.dti, matches)

	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}

	return MatchResult{
		DTIRatio:       math.Round(ev.dti*10) / 10,
		ReadinessScore: readiness.Total(),
		Matches:        matches,
		CurrentRates:   e.rates,
	}, readiness, nil
}

// MatchPrograms returns every eligible program for profile, best first.
// Programs with equal scores keep catalog order.
func (e *Engine) MatchPrograms(profile UserProfile) ([]LoanMatch, error) {
	ev, err := e.newEvaluation(profile)
	if err != nil {
		return nil, err
	}
	return e.matchPrograms(ev), nil
}

// ExcludedPrograms maps the id of every ineligible program to the first rule
// it failed.
func (e *Engine) ExcludedPrograms(profile UserProfile) (map[string]string, error) {
	ev, err := e.newEvaluation(profile)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for i := range e.catalog.programs {
		p := &e.catalog.programs[i]
		if rule, failed := firstFailedRule(ev, p); failed {
			out[p.ID] = rule
		}
	}
	return out, nil
}

func (e *Engine) newEvaluation(profile UserProfile) (*evaluation, error) {
	if err := ValidateProfile(profile); err != nil {
		return nil, err
	}
	dti, err := ComputeDTI(profile.AnnualIncome, profile.MonthlyDebt)
	if err != nil {
		return nil, fmt.Errorf("compute dti: %w", err)
	}
	affordable := ComputeAffordableRange(
		profile.AnnualIncome,
		profile.MonthlyDebt,
		profile.DownPaymentSaved,
		e.ratePercent,
	)
	if !isFinite(affordable.Min) || !isFinite(affordable.Max) {
		return nil, fmt.Errorf("%w: affordable range is out of range", ErrInvalidProfile)
	}
	return &evaluation{
		profile:    profile,
		dti:        dti,
		affordable: affordable,
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (e *Engine) matchPrograms(ev *evaluation) []LoanMatch {
	matches := make([]LoanMatch, 0, len(e.catalog.programs))

	for i := range e.catalog.programs {
		p := &e.catalog.programs[i]
		if _, failed := firstFailedRule(ev, p); failed {
			continue
		}

		required := ev.affordable.Max * (p.MinDownPaymentPercent / 100)
		c := &candidate{
			program:              p,
			requiredDownPayment:  required,
			estimatedDownPayment: math.Round(required),
		}

		matches = append(matches, LoanMatch{
			Program:                 p.clone(),
			MatchScore:              matchScore(ev, c),
			EstimatedDownPayment:    c.estimatedDownPayment,
			EstimatedMonthlyPayment: math.Round((ev.affordable.Max - c.estimatedDownPayment) * monthlyPaymentFactor),
			AffordableRange:         ev.affordable,
			WhyMatched:              whyMatched(ev, c),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}
