// internal/eligibility/engine_test.go
package eligibility

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestPrograms() []LoanProgram {
	return []LoanProgram{
		{
			ID:                    "fha",
			Name:                  "FHA Loan",
			Type:                  ProgramTypeFHA,
			MinCreditScore:        580,
			MinDownPaymentPercent: 3.5,
			MaxDTIPercent:         43,
			Benefits:              []string{"Low down payment", "Flexible credit"},
		},
		{
			ID:                      "va",
			Name:                    "VA Loan",
			Type:                    ProgramTypeVA,
			MinCreditScore:          580,
			MinDownPaymentPercent:   0,
			MaxDTIPercent:           41,
			RequiresMilitaryService: true,
		},
		{
			ID:                    "usda",
			Name:                  "USDA Loan",
			Type:                  ProgramTypeUSDA,
			MinCreditScore:        640,
			MinDownPaymentPercent: 0,
			MaxDTIPercent:         41,
		},
		{
			ID:                    "homeready",
			Name:                  "HomeReady",
			Type:                  ProgramTypeConventional,
			MinCreditScore:        620,
			MinDownPaymentPercent: 3,
			MaxDTIPercent:         50,
			RequiresFirstTime:     true,
		},
		{
			ID:                    "conventional-20",
			Name:                  "Conventional 20% Down",
			Type:                  ProgramTypeConventional,
			MinCreditScore:        700,
			MinDownPaymentPercent: 20,
			MaxDTIPercent:         36,
		},
	}
}

func createTestEngine(t *testing.T, programs []LoanProgram, opts ...Option) *Engine {
	t.Helper()
	catalog, err := NewCatalog(programs)
	require.NoError(t, err)
	engine, err := NewEngine(catalog, opts...)
	require.NoError(t, err)
	return engine
}

func createTestProfile() UserProfile {
	return UserProfile{
		AnnualIncome:     55000,
		CreditScore:      680,
		MonthlyDebt:      800,
		DownPaymentSaved: 8000,
		Location:         "Austin, TX",
		IsFirstTime:      true,
	}
}

func matchIDs(matches []LoanMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Program.ID)
	}
	return ids
}

// ==========================
// Evaluate Tests
// ==========================

func TestEngine_Evaluate_ReferenceProfile(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	result, err := engine.Evaluate(createTestProfile())
	require.NoError(t, err)

	assert.Equal(t, 17.5, result.DTIRatio)
	assert.Equal(t, 95, result.ReadinessScore) // 30 + 25 + 20 + 20
	assert.Equal(t, DefaultRates, result.CurrentRates)
	assert.Equal(t, []string{"fha", "homeready", "usda"}, matchIDs(result.Matches))

	fha := result.Matches[0]
	assert.Equal(t, 100, fha.MatchScore) // 70+10+10+10+10+5 clamped
	assert.Equal(t, 5880.0, fha.EstimatedDownPayment)
	assert.Equal(t, 1054.0, fha.EstimatedMonthlyPayment)
	assert.Equal(t, PriceRange{Min: 118000, Max: 168000}, fha.AffordableRange)
	assert.Equal(t, []string{
		"Your credit score (680) meets the requirement",
		"Your debt-to-income ratio (17.5%) is excellent",
		"You have enough saved for the down payment ($8,000 saved)",
	}, fha.WhyMatched)

	homeReady := result.Matches[1]
	assert.Equal(t, 100, homeReady.MatchScore)
	assert.Equal(t, 5040.0, homeReady.EstimatedDownPayment)
	assert.Equal(t, 1059.0, homeReady.EstimatedMonthlyPayment)

	usda := result.Matches[2]
	assert.Equal(t, 90, usda.MatchScore)
	assert.Equal(t, 0.0, usda.EstimatedDownPayment)
	assert.Equal(t, 1092.0, usda.EstimatedMonthlyPayment)
}

func TestEngine_Evaluate_ExcludesMilitaryPrograms(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	profiles := []UserProfile{
		createTestProfile(),
		{AnnualIncome: 250000, CreditScore: 850, MonthlyDebt: 0, DownPaymentSaved: 500000, IsFirstTime: true},
		{AnnualIncome: 40000, CreditScore: 600, MonthlyDebt: 200, DownPaymentSaved: 0},
	}

	for _, p := range profiles {
		matches, err := engine.MatchPrograms(p)
		require.NoError(t, err)
		assert.NotContains(t, matchIDs(matches), "va")
	}
}

func TestEngine_Evaluate_TruncatesToTopThree(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())
	profile := UserProfile{
		AnnualIncome:     150000,
		CreditScore:      800,
		MonthlyDebt:      500,
		DownPaymentSaved: 200000,
		IsFirstTime:      true,
	}

	all, err := engine.MatchPrograms(profile)
	require.NoError(t, err)
	require.Len(t, all, 4)

	result, err := engine.Evaluate(profile)
	require.NoError(t, err)
	assert.Len(t, result.Matches, MaxMatches)
	assert.Equal(t, all[:MaxMatches], result.Matches)
	assert.Equal(t, 100, result.ReadinessScore)
}

func TestEngine_Evaluate_NoMatchesStillScoresReadiness(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())
	profile := UserProfile{
		AnnualIncome:     30000,
		CreditScore:      500,
		MonthlyDebt:      3000,
		DownPaymentSaved: 1000,
	}

	result, err := engine.Evaluate(profile)
	require.NoError(t, err)

	assert.NotNil(t, result.Matches)
	assert.Empty(t, result.Matches)
	assert.Equal(t, 120.0, result.DTIRatio)
	assert.Equal(t, 10, result.ReadinessScore) // credit 5 + dti 5
}

func TestEngine_Evaluate_InvalidProfile(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	tests := []struct {
		name    string
		mutate  func(p *UserProfile)
		errPart string
	}{
		{"zero income", func(p *UserProfile) { p.AnnualIncome = 0 }, "annualIncome"},
		{"negative income", func(p *UserProfile) { p.AnnualIncome = -1 }, "annualIncome"},
		{"negative debt", func(p *UserProfile) { p.MonthlyDebt = -50 }, "monthlyDebt"},
		{"negative savings", func(p *UserProfile) { p.DownPaymentSaved = -1 }, "downPaymentSaved"},
		{"credit too low", func(p *UserProfile) { p.CreditScore = 299 }, "creditScore"},
		{"credit too high", func(p *UserProfile) { p.CreditScore = 851 }, "creditScore"},
		{"income above maximum amount", func(p *UserProfile) { p.AnnualIncome = 1e308 }, "annualIncome must be at most"},
		{"debt above maximum amount", func(p *UserProfile) { p.MonthlyDebt = 1e300 }, "monthlyDebt must be at most"},
		{"savings above maximum amount", func(p *UserProfile) { p.DownPaymentSaved = math.MaxFloat64 }, "downPaymentSaved must be at most"},
		{"income too small for debt ratio", func(p *UserProfile) { p.AnnualIncome = 1e-310 }, "debt-to-income"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := createTestProfile()
			tt.mutate(&profile)

			result, err := engine.Evaluate(profile)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProfile))
			assert.Contains(t, err.Error(), tt.errPart)
			assert.Equal(t, MatchResult{}, result)
		})
	}
}

func TestEngine_Evaluate_MaximumAmountsStayFinite(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	profile := createTestProfile()
	profile.AnnualIncome = MaxAmount
	profile.DownPaymentSaved = MaxAmount

	result, err := engine.Evaluate(profile)
	require.NoError(t, err)
	require.NotEmpty(t, result.Matches)

	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	assert.True(t, finite(result.DTIRatio))
	for _, m := range result.Matches {
		assert.True(t, finite(m.AffordableRange.Min), m.Program.ID)
		assert.True(t, finite(m.AffordableRange.Max), m.Program.ID)
		assert.True(t, finite(m.EstimatedDownPayment), m.Program.ID)
		assert.True(t, finite(m.EstimatedMonthlyPayment), m.Program.ID)
	}
}

func TestValidateProfile_MaxAmountBoundary(t *testing.T) {
	profile := createTestProfile()
	profile.AnnualIncome = MaxAmount
	assert.NoError(t, ValidateProfile(profile))

	profile.AnnualIncome = math.Nextafter(MaxAmount, math.Inf(1))
	assert.ErrorIs(t, ValidateProfile(profile), ErrInvalidProfile)
}

func TestEngine_Evaluate_IsIdempotent(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())
	profile := createTestProfile()

	first, err := engine.Evaluate(profile)
	require.NoError(t, err)
	second, err := engine.Evaluate(profile)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEngine_Evaluate_UsesInjectedRates(t *testing.T) {
	rates := Rates{Fixed30: 7.1, Fixed15: 6.4, ARM51: 6.9}
	engine := createTestEngine(t, createTestPrograms(), WithRates(rates))

	result, err := engine.Evaluate(createTestProfile())
	require.NoError(t, err)
	assert.Equal(t, rates, result.CurrentRates)
}

func TestEngine_Evaluate_ConcurrentCallers(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())
	want, err := engine.Evaluate(createTestProfile())
	require.NoError(t, err)

	results := make(chan MatchResult, 16)
	for i := 0; i < 16; i++ {
		go func() {
			r, _ := engine.Evaluate(createTestProfile())
			results <- r
		}()
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, want, <-results)
	}
}

// ==========================
// Matching Tests
// ==========================

func TestEngine_MatchPrograms_StableOnTies(t *testing.T) {
	programs := []LoanProgram{
		{ID: "alpha", Type: ProgramTypeConventional, MinCreditScore: 600, MinDownPaymentPercent: 5, MaxDTIPercent: 45},
		{ID: "bravo", Type: ProgramTypeConventional, MinCreditScore: 600, MinDownPaymentPercent: 5, MaxDTIPercent: 45},
		{ID: "charlie", Type: ProgramTypeConventional, MinCreditScore: 500, MinDownPaymentPercent: 5, MaxDTIPercent: 45},
		{ID: "delta", Type: ProgramTypeConventional, MinCreditScore: 600, MinDownPaymentPercent: 5, MaxDTIPercent: 45},
	}
	engine := createTestEngine(t, programs)
	profile := UserProfile{AnnualIncome: 60000, CreditScore: 660, MonthlyDebt: 500, DownPaymentSaved: 0}

	matches, err := engine.MatchPrograms(profile)
	require.NoError(t, err)

	// charlie earns the second credit margin; the rest tie and keep catalog order.
	assert.Equal(t, []string{"charlie", "alpha", "bravo", "delta"}, matchIDs(matches))
	assert.Equal(t, 100, matches[0].MatchScore)
	for _, m := range matches[1:] {
		assert.Equal(t, 90, m.MatchScore)
	}
}

func TestEngine_MatchPrograms_ScoreRules(t *testing.T) {
	tests := []struct {
		name     string
		program  LoanProgram
		profile  UserProfile
		expected int
	}{
		{
			name:     "base only",
			program:  LoanProgram{ID: "p", Type: ProgramTypeConventional, MinCreditScore: 640, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0},
			expected: 70,
		},
		{
			name:     "first credit margin",
			program:  LoanProgram{ID: "p", Type: ProgramTypeConventional, MinCreditScore: 600, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0},
			expected: 80,
		},
		{
			name:     "both credit margins",
			program:  LoanProgram{ID: "p", Type: ProgramTypeConventional, MinCreditScore: 550, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0},
			expected: 90,
		},
		{
			name:     "dti of exactly 30 earns nothing",
			program:  LoanProgram{ID: "p", Type: ProgramTypeConventional, MinCreditScore: 640, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 48000, CreditScore: 650, MonthlyDebt: 1200, DownPaymentSaved: 0},
			expected: 70,
		},
		{
			name:     "zero down requirement is always covered",
			program:  LoanProgram{ID: "p", Type: ProgramTypeUSDA, MinCreditScore: 640, MinDownPaymentPercent: 0, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0},
			expected: 80,
		},
		{
			name:     "fha bonus keyed on id",
			program:  LoanProgram{ID: "fha", Type: ProgramTypeFHA, MinCreditScore: 640, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0, IsFirstTime: true},
			expected: 75,
		},
		{
			name:     "fha type without fha id gets no bonus",
			program:  LoanProgram{ID: "fha-203k", Type: ProgramTypeFHA, MinCreditScore: 640, MinDownPaymentPercent: 20, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 650, MonthlyDebt: 2000, DownPaymentSaved: 0, IsFirstTime: true},
			expected: 70,
		},
		{
			name:     "score is clamped at 100",
			program:  LoanProgram{ID: "fha", Type: ProgramTypeFHA, MinCreditScore: 500, MinDownPaymentPercent: 0, MaxDTIPercent: 50},
			profile:  UserProfile{AnnualIncome: 60000, CreditScore: 800, MonthlyDebt: 100, DownPaymentSaved: 1000, IsFirstTime: true},
			expected: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := createTestEngine(t, []LoanProgram{tt.program})
			matches, err := engine.MatchPrograms(tt.profile)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, tt.expected, matches[0].MatchScore)
		})
	}
}

func TestEngine_MatchPrograms_EligibilityBoundaries(t *testing.T) {
	base := LoanProgram{
		ID:                    "edge",
		Type:                  ProgramTypeConventional,
		MinCreditScore:        620,
		MinDownPaymentPercent: 5,
		MaxDTIPercent:         25,
	}
	baseProfile := UserProfile{AnnualIncome: 48000, CreditScore: 620, MonthlyDebt: 1000, DownPaymentSaved: 5000}

	tests := []struct {
		name     string
		program  func(p LoanProgram) LoanProgram
		profile  func(p UserProfile) UserProfile
		eligible bool
	}{
		{"all predicates at their boundary", nil, nil, true},
		{"credit one below minimum", nil, func(p UserProfile) UserProfile { p.CreditScore = 619; return p }, false},
		{"dti just over cap", nil, func(p UserProfile) UserProfile { p.MonthlyDebt = 1001; return p }, false},
		{"first-time program, repeat buyer", func(p LoanProgram) LoanProgram { p.RequiresFirstTime = true; return p }, nil, false},
		{"first-time program, first-time buyer", func(p LoanProgram) LoanProgram { p.RequiresFirstTime = true; return p }, func(p UserProfile) UserProfile { p.IsFirstTime = true; return p }, true},
		{"military program", func(p LoanProgram) LoanProgram { p.RequiresMilitaryService = true; return p }, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			program, profile := base, baseProfile
			if tt.program != nil {
				program = tt.program(program)
			}
			if tt.profile != nil {
				profile = tt.profile(profile)
			}

			engine := createTestEngine(t, []LoanProgram{program})
			matches, err := engine.MatchPrograms(profile)
			require.NoError(t, err)

			if tt.eligible {
				assert.Len(t, matches, 1)
			} else {
				assert.Empty(t, matches)
			}
		})
	}
}

func TestEngine_MatchPrograms_ReasonsAreConditional(t *testing.T) {
	program := LoanProgram{ID: "p", Type: ProgramTypeConventional, MinCreditScore: 600, MinDownPaymentPercent: 20, MaxDTIPercent: 45}
	engine := createTestEngine(t, []LoanProgram{program})

	matches, err := engine.MatchPrograms(UserProfile{AnnualIncome: 60000, CreditScore: 700, MonthlyDebt: 500, DownPaymentSaved: 1000})
	require.NoError(t, err)
	require.Len(t, matches, 1)

	assert.Equal(t, []string{
		"Your credit score (700) meets the requirement",
		"Your debt-to-income ratio (10.0%) is excellent",
	}, matches[0].WhyMatched)
}

func TestEngine_ExcludedPrograms(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	excluded, err := engine.ExcludedPrograms(createTestProfile())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"va":              "requiresMilitaryService",
		"conventional-20": "minCreditScore",
	}, excluded)
}

func TestEngine_MatchPrograms_ResultsDoNotAliasCatalog(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	matches, err := engine.MatchPrograms(createTestProfile())
	require.NoError(t, err)
	matches[0].Program.Benefits[0] = "mutated"

	fha, ok := engine.Catalog().Program("fha")
	require.True(t, ok)
	assert.Equal(t, "Low down payment", fha.Benefits[0])
}

func TestNewEngine_NilCatalog(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, ErrNilCatalog)
}

func TestEngine_EvaluateWithBreakdown(t *testing.T) {
	engine := createTestEngine(t, createTestPrograms())

	result, breakdown, err := engine.EvaluateWithBreakdown(createTestProfile())
	require.NoError(t, err)

	assert.Equal(t, ReadinessBreakdown{Credit: 30, DebtToIncome: 25, DownPayment: 20, ProgramBreadth: 20}, breakdown)
	assert.Equal(t, result.ReadinessScore, breakdown.Total())

	plain, err := engine.Evaluate(createTestProfile())
	require.NoError(t, err)
	assert.Equal(t, plain, result)

	_, _, err = engine.EvaluateWithBreakdown(UserProfile{CreditScore: 700})
	assert.ErrorIs(t, err, ErrInvalidProfile)
}
