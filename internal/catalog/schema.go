// internal/catalog/schema.go
package catalog

import "homebuyer-workers/internal/common/validation"

// documentSchema describes a catalog document: {"programs": [...]}.
// Id uniqueness is checked by eligibility.NewCatalog.
const documentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["programs"],
	"properties": {
		"programs": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["id", "name", "type", "minCreditScore", "minDownPaymentPercent", "maxDTIPercent"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"name": {"type": "string", "minLength": 1},
					"type": {"type": "string", "enum": ["FHA", "VA", "USDA", "Conventional"]},
					"minCreditScore": {"type": "integer", "minimum": 300, "maximum": 850},
					"minDownPaymentPercent": {"type": "number", "minimum": 0, "maximum": 100},
					"maxDTIPercent": {"type": "number", "minimum": 0, "maximum": 100},
					"benefits": {"type": "array", "items": {"type": "string"}},
					"description": {"type": "string"},
					"requiresFirstTime": {"type": "boolean"},
					"requiresMilitaryService": {"type": "boolean"}
				}
			}
		}
	}
}`

var schema = validation.MustCompile(documentSchema)
