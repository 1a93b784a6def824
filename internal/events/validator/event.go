package validator

import (
	"time"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/validation"
)

type EventValidator struct {
	v   *validation.Validator
	loc *time.Location
}

func NewEventValidator(log *logger.Logger, loc *time.Location) *EventValidator {
	log.Info("Event validator initialized successfully")
	return &EventValidator{
		v:   validation.New(log),
		loc: loc,
	}
}

// Validate checks input and returns its dates at local midnight. The end
// date is nil when absent and never precedes the start date.
func (ev *EventValidator) Validate(input *model.EventInput) (time.Time, *time.Time, error) {
	if err := ev.v.Struct(input); err != nil {
		return time.Time{}, nil, err
	}

	start, err := time.ParseInLocation(time.DateOnly, input.StartDate, ev.loc)
	if err != nil {
		return time.Time{}, nil, validation.Single("start_date", "start_date must be in YYYY-MM-DD format")
	}
	if input.EndDate == "" {
		return start, nil, nil
	}

	end, err := time.ParseInLocation(time.DateOnly, input.EndDate, ev.loc)
	if err != nil {
		return time.Time{}, nil, validation.Single("end_date", "end_date must be in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return time.Time{}, nil, validation.Single("end_date", "end_date cannot be before start_date")
	}
	return start, &end, nil
}
