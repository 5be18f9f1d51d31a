package validator

import (
	"errors"
	"fmt"

	"courtside/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

type BookingValidator struct {
	validate *validator.Validate
}

func NewBookingValidator() *BookingValidator {
	return &BookingValidator{
		validate: validator.New(),
	}
}

// ValidateRequest checks an admission request before any store access: tag
// rules plus a strictly positive interval.
func (v *BookingValidator) ValidateRequest(b *model.Booking) error {
	if err := v.validate.Struct(b); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if !b.Interval().Valid() {
		return ValidationErrors{{
			Field:   "EndTime",
			Message: "end time must be strictly after start time",
		}}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", err.Tag()),
		})
	}

	return validationErrors
}
