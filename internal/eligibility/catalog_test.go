// internal/eligibility/catalog_test.go
package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	catalog, err := NewCatalog(createTestPrograms())
	require.NoError(t, err)

	assert.Equal(t, 5, catalog.Len())

	p, ok := catalog.Program("usda")
	require.True(t, ok)
	assert.Equal(t, "USDA Loan", p.Name)

	_, ok = catalog.Program("missing")
	assert.False(t, ok)

	ids := make([]string, 0, catalog.Len())
	for _, p := range catalog.Programs() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"fha", "va", "usda", "homeready", "conventional-20"}, ids)
}

func TestNewCatalog_Empty(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Len())
	assert.Empty(t, catalog.Programs())
}

func TestNewCatalog_Rejects(t *testing.T) {
	base := LoanProgram{ID: "x", Type: ProgramTypeFHA, MinCreditScore: 580, MinDownPaymentPercent: 3.5, MaxDTIPercent: 43}

	tests := []struct {
		name     string
		mutate   func(p *LoanProgram)
		expected error
	}{
		{"blank id", func(p *LoanProgram) { p.ID = "  " }, ErrInvalidProgram},
		{"unknown type", func(p *LoanProgram) { p.Type = "Jumbo" }, ErrInvalidProgram},
		{"negative down payment", func(p *LoanProgram) { p.MinDownPaymentPercent = -1 }, ErrInvalidProgram},
		{"down payment over 100", func(p *LoanProgram) { p.MinDownPaymentPercent = 101 }, ErrInvalidProgram},
		{"negative dti", func(p *LoanProgram) { p.MaxDTIPercent = -5 }, ErrInvalidProgram},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, err := NewCatalog([]LoanProgram{p})
			assert.ErrorIs(t, err, tt.expected)
		})
	}

	t.Run("duplicate id", func(t *testing.T) {
		_, err := NewCatalog([]LoanProgram{base, base})
		assert.ErrorIs(t, err, ErrDuplicateProgram)
	})
}

func TestCatalog_IsImmutable(t *testing.T) {
	programs := createTestPrograms()
	catalog, err := NewCatalog(programs)
	require.NoError(t, err)

	// mutating the input after construction
	programs[0].MinCreditScore = 800
	programs[0].Benefits[0] = "changed"

	p, _ := catalog.Program("fha")
	assert.Equal(t, 580, p.MinCreditScore)
	assert.Equal(t, "Low down payment", p.Benefits[0])

	// mutating returned copies
	out := catalog.Programs()
	out[0].Benefits[0] = "changed again"
	p.Benefits[1] = "changed too"

	again, _ := catalog.Program("fha")
	assert.Equal(t, []string{"Low down payment", "Flexible credit"}, again.Benefits)
}

func TestProgramType_Valid(t *testing.T) {
	for _, pt := range []ProgramType{ProgramTypeFHA, ProgramTypeVA, ProgramTypeUSDA, ProgramTypeConventional} {
		assert.True(t, pt.Valid(), string(pt))
	}
	assert.False(t, ProgramType("fha").Valid())
	assert.False(t, ProgramType("").Valid())
}
