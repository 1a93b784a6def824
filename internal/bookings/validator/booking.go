package validator

import (
	"time"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/validation"
)

type BookingValidator struct {
	v   *validation.Validator
	loc *time.Location
}

func NewBookingValidator(log *logger.Logger, loc *time.Location) *BookingValidator {
	log.Info("Booking validator initialized successfully")
	return &BookingValidator{
		v:   validation.New(log),
		loc: loc,
	}
}

// ValidateRequest checks the request shape and that date falls strictly
// after today in the temple's time zone. It returns the parsed date at
// local midnight.
func (bv *BookingValidator) ValidateRequest(req *model.BookingRequest, now time.Time) (time.Time, error) {
	if err := bv.v.Struct(req); err != nil {
		return time.Time{}, err
	}

	date, err := time.ParseInLocation(time.DateOnly, req.Date, bv.loc)
	if err != nil {
		return time.Time{}, validation.Single("date", "date must be in YYYY-MM-DD format")
	}

	local := now.In(bv.loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bv.loc)
	if !date.After(today) {
		return time.Time{}, validation.Single("date", "date must be after today")
	}

	if _, ok := model.ServiceName(req.Service); !ok {
		return time.Time{}, validation.Single("service", "unknown service")
	}

	return date, nil
}

func (bv *BookingValidator) ValidateStatusUpdate(update *model.BookingStatusUpdate) error {
	return bv.v.Struct(update)
}
