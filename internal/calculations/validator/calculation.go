package validator

import (
	"time"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
	"birshibpur/pkg/validation"
)

type CalculationValidator struct {
	v   *validation.Validator
	loc *time.Location
}

func NewCalculationValidator(log *logger.Logger, loc *time.Location) *CalculationValidator {
	log.Info("Calculation validator initialized successfully")
	return &CalculationValidator{
		v:   validation.New(log),
		loc: loc,
	}
}

// Normalize cleans input in place, validates it and returns the entry
// date at local midnight. Entries cannot be dated in the future.
func (cv *CalculationValidator) Normalize(input *model.CalculationInput, now time.Time) (time.Time, error) {
	input.Type = sanitizer.SanitizeCategory(input.Type)
	input.Category = sanitizer.SanitizeCategory(input.Category)
	input.Name = sanitizer.CleanText(input.Name)
	input.Note = sanitizer.CleanMultiline(input.Note)
	if input.Phone != "" {
		phone := sanitizer.SanitizePhone(input.Phone)
		if phone == "" {
			return time.Time{}, validation.Single("phone", "phone must be a valid mobile number")
		}
		input.Phone = phone
	}

	if err := cv.v.Struct(input); err != nil {
		return time.Time{}, err
	}

	date, err := time.ParseInLocation(time.DateOnly, input.Date, cv.loc)
	if err != nil {
		return time.Time{}, validation.Single("date", "date must be in YYYY-MM-DD format")
	}
	local := now.In(cv.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, cv.loc)
	if date.After(today) {
		return time.Time{}, validation.Single("date", "date cannot be in the future")
	}
	return date, nil
}
