package validator

import (
	"errors"
	"fmt"
	"time"

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

type SlotValidator struct {
	validate *validator.Validate
}

func NewSlotValidator() *SlotValidator {
	return &SlotValidator{
		validate: validator.New(),
	}
}

// Validate checks struct tags plus the interval rules: end strictly after
// start and a sane maximum span.
func (v *SlotValidator) Validate(s *model.AvailabilitySlot) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateIntervalRules(s)
}

func (v *SlotValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", err.Tag()),
		})
	}

	return validationErrors
}

// MaxSlotSpan guards against typo years producing decade-long open windows.
const MaxSlotSpan = 90 * 24 * time.Hour

func (v *SlotValidator) validateIntervalRules(s *model.AvailabilitySlot) error {
	var errs ValidationErrors

	if !s.Span().Valid() {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: "end time must be strictly after start time",
		})
	}

	if s.Span().Valid() && s.Span().Duration() > MaxSlotSpan {
		errs = append(errs, ValidationError{
			Field:   "EndTime",
			Message: fmt.Sprintf("slot span cannot exceed %s", MaxSlotSpan),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
