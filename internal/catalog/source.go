// internal/catalog/source.go
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"homebuyer-workers/internal/common/config"
	"homebuyer-workers/internal/eligibility"
)

// Source produces a loan program catalog.
type Source interface {
	Load(ctx context.Context) (*eligibility.Catalog, error)
	Name() string
}

// document is the on-disk catalog shape.
type document struct {
	Programs []eligibility.LoanProgram `json:"programs" yaml:"programs"`
}

// NewSource picks a source from configuration. db is only used by the
// postgres source and may be nil otherwise.
func NewSource(cfg config.CatalogConfig, db *sql.DB) (Source, error) {
	switch cfg.Source {
	case config.CatalogSourceFile, "":
		return NewFileSource(cfg.Path), nil
	case config.CatalogSourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres catalog source requires a database connection")
		}
		return NewPostgresSource(db, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}
