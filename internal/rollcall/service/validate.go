package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON names so errors match the request body.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// Custom validators
		_ = v.RegisterValidation("scan_method", validateScanMethod)

		validate = v
	})
	return validate
}

func validateScanMethod(fl validator.FieldLevel) bool {
	return domain.ScanMethod(fl.Field().String()).Valid()
}

// validateStruct runs the struct tags and converts the first failure into a
// *ValidationError.
func validateStruct(v any) error {
	err := requestValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Reason: describeFieldError(fe)}
	}
	return &ValidationError{Field: "request", Reason: err.Error()}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without":
		return "is required"
	case "excluded_with":
		return "cannot be combined with user_id"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "scan_method":
		return "must be one of NFC, QR, Manual"
	default:
		return "failed " + fe.Tag()
	}
}

// validateLocation enforces that coordinates come as a pair.
func validateLocation(lat, lng *float64) error {
	switch {
	case lat == nil && lng == nil:
		return nil
	case lat == nil:
		return &ValidationError{Field: "location_lat", Reason: "is required when location_lng is set"}
	case lng == nil:
		return &ValidationError{Field: "location_lng", Reason: "is required when location_lat is set"}
	}
	return nil
}
