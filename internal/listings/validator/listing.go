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

type ListingValidator struct {
	validate *validator.Validate
}

func NewListingValidator() *ListingValidator {
	return &ListingValidator{
		validate: validator.New(),
	}
}

func (v *ListingValidator) Validate(l *model.Listing) error {
	if err := v.validate.Struct(l); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	return v.validateBusinessRules(l)
}

func (v *ListingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: fmt.Sprintf("failed on the '%s' rule", err.Tag()),
		})
	}

	return validationErrors
}

func (v *ListingValidator) validateBusinessRules(l *model.Listing) error {
	var errs ValidationErrors

	if l.Location.Type != "Point" {
		errs = append(errs, ValidationError{
			Field:   "Location",
			Message: "location must be a GeoJSON Point",
		})
	}

	if !model.ValidLatLng(l.Location.Lat(), l.Location.Lng()) {
		errs = append(errs, ValidationError{
			Field:   "Location",
			Message: "latitude must be in [-90, 90] and longitude in [-180, 180]",
		})
	}

	if l.DailyRate != nil && *l.DailyRate < l.HourlyRate {
		errs = append(errs, ValidationError{
			Field:   "DailyRate",
			Message: "daily rate cannot be lower than the hourly rate",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
