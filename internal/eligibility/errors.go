// internal/eligibility/errors.go
package eligibility

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidProfile is returned before any computation when a profile
	// cannot be evaluated.
	ErrInvalidProfile = errors.New("invalid profile")

	ErrNilCatalog       = errors.New("catalog is required")
	ErrDuplicateProgram = errors.New("duplicate program id")
	ErrInvalidProgram   = errors.New("invalid program")
)

// validator caches struct metadata and is safe for concurrent use.
var validate = validator.New()

// MaxAmount bounds every monetary input so derived prices stay finite. The
// validate tags on UserProfile spell it out as 1000000000000.
const MaxAmount = 1e12

// Amount names a monetary field for the finiteness check in ValidateStruct.
type Amount struct {
	Name  string
	Value float64
}

// ValidateProfile checks the monetary fields and credit score range.
func ValidateProfile(p UserProfile) error {
	return ValidateStruct(p,
		Amount{"annualIncome", p.AnnualIncome},
		Amount{"monthlyDebt", p.MonthlyDebt},
		Amount{"downPaymentSaved", p.DownPaymentSaved},
	)
}

// ValidateStruct rejects non-finite amounts, then applies the validate tags
// of s. Failures wrap ErrInvalidProfile.
func ValidateStruct(s interface{}, amounts ...Amount) error {
	for _, a := range amounts {
		if !isFinite(a.Value) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidProfile, a.Name)
		}
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, describeFieldError(fe))
		}
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(msgs, "; "))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	field := jsonFieldName(fe.StructField())
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

func jsonFieldName(structField string) string {
	if structField == "" {
		return structField
	}
	return strings.ToLower(structField[:1]) + structField[1:]
}
