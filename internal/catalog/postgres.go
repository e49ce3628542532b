// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/lib/pq"

	"homebuyer-workers/internal/eligibility"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresSource reads programs from a table ordered by its position column.
// benefits is stored as a JSON array.
type PostgresSource struct {
	db    *sql.DB
	table string
	query string
}

func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{
		db:    db,
		table: table,
		query: fmt.Sprintf(`
		SELECT id, name, type, min_credit_score, min_down_payment_percent,
		       max_dti_percent, benefits, description,
		       requires_first_time, requires_military_service
		FROM %s
		ORDER BY position`, pq.QuoteIdentifier(table)),
	}, nil
}

func (s *PostgresSource) Name() string {
	return "postgres:" + s.table
}

func (s *PostgresSource) Load(ctx context.Context) (*eligibility.Catalog, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var programs []eligibility.LoanProgram
	for rows.Next() {
		var (
			p           eligibility.LoanProgram
			programType string
			benefits    []byte
			description sql.NullString
		)
		if err := rows.Scan(
			&p.ID, &p.Name, &programType, &p.MinCreditScore, &p.MinDownPaymentPercent,
			&p.MaxDTIPercent, &benefits, &description,
			&p.RequiresFirstTime, &p.RequiresMilitaryService,
		); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}

		p.Type = eligibility.ProgramType(programType)
		p.Description = description.String
		if len(benefits) > 0 {
			if err := json.Unmarshal(benefits, &p.Benefits); err != nil {
				return nil, fmt.Errorf("program %s: decode benefits: %w", p.ID, err)
			}
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	if len(programs) == 0 {
		return nil, fmt.Errorf("catalog table %s is empty", s.table)
	}

	return eligibility.NewCatalog(programs)
}
