package report

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fleetsight/fleetsight/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest checks a request after defaults have been applied.
// All problems are collected into one domain.ValidationErrors value so
// callers can report every field at once.
func validateRequest(req domain.ReportRequest) error {
	var errs domain.ValidationErrors

	if err := validate.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, domain.ValidationError{
				Field:   fe.Field(),
				Message: fieldMessage(fe),
			})
		}
	}

	if req.MinimumKm != nil && *req.MinimumKm <= 0 {
		errs = append(errs, domain.ValidationError{
			Field:   "minimum_km",
			Message: "must be positive",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return fmt.Sprintf("is required for %s reports", requiredIfKind(fe.Param()))
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return fmt.Sprintf("%q is not a valid email address", fe.Value())
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// requiredIfKind extracts the kind value from a "Kind group" style
// required_if parameter.
func requiredIfKind(param string) string {
	fields := strings.Fields(param)
	if len(fields) == 2 {
		return fields[1]
	}
	return param
}
