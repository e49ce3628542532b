// internal/eligibility/catalog.go
package eligibility

import (
	"fmt"
	"strings"
)

// Catalog is an immutable, ordered set of loan programs. It is safe to
// share across goroutines; accessors hand out copies.
type Catalog struct {
	programs []LoanProgram
	index    map[string]int
}

// NewCatalog copies programs into a new Catalog, keeping their order.
func NewCatalog(programs []LoanProgram) (*Catalog, error) {
	c := &Catalog{
		programs: make([]LoanProgram, 0, len(programs)),
		index:    make(map[string]int, len(programs)),
	}

	for i, p := range programs {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: program at position %d has no id", ErrInvalidProgram, i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateProgram, p.ID)
		}
		if !p.Type.Valid() {
			return nil, fmt.Errorf("%w: %s has unknown type %q", ErrInvalidProgram, p.ID, p.Type)
		}
		if p.MinDownPaymentPercent < 0 || p.MinDownPaymentPercent > 100 {
			return nil, fmt.Errorf("%w: %s minDownPaymentPercent %.2f outside 0-100", ErrInvalidProgram, p.ID, p.MinDownPaymentPercent)
		}
		if p.MaxDTIPercent < 0 {
			return nil, fmt.Errorf("%w: %s maxDTIPercent is negative", ErrInvalidProgram, p.ID)
		}

		c.index[p.ID] = len(c.programs)
		c.programs = append(c.programs, p.clone())
	}

	return c, nil
}

// Len returns the number of programs.
func (c *Catalog) Len() int {
	return len(c.programs)
}

// Programs returns a copy of the programs in catalog order.
func (c *Catalog) Programs() []LoanProgram {
	out := make([]LoanProgram, len(c.programs))
	for i, p := range c.programs {
		out[i] = p.clone()
	}
	return out
}

// Program looks a program up by id.
func (c *Catalog) Program(id string) (LoanProgram, bool) {
	i, ok := c.index[id]
	if !ok {
		return LoanProgram{}, false
	}
	return c.programs[i].clone(), true
}
