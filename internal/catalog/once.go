// internal/catalog/once.go
package catalog

import (
	"context"
	"sync"

	apperrors "homebuyer-workers/internal/common/errors"
	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/eligibility"
)

// Once loads a source on first use. Every caller, including concurrent first
// callers, gets the same catalog or the same error.
type Once struct {
	source Source
	logger logger.Logger

	once    sync.Once
	catalog *eligibility.Catalog
	err     error
}

func NewOnce(source Source, log logger.Logger) *Once {
	return &Once{
		source: source,
		logger: log.WithFields(map[string]interface{}{"catalogSource": source.Name()}),
	}
}

// Get returns the catalog. The ctx of the first caller bounds the load.
func (o *Once) Get(ctx context.Context) (*eligibility.Catalog, error) {
	o.once.Do(func() {
		catalog, err := o.source.Load(ctx)
		if err != nil {
			o.err = apperrors.NewCatalogLoadFailedError(o.source.Name(), err)
			o.logger.Error("catalog load failed", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		o.catalog = catalog
		o.logger.Info("catalog loaded", map[string]interface{}{
			"programs": catalog.Len(),
		})
	})
	return o.catalog, o.err
}
