package kafka

import (
	"context"
	"time"

	"birshibpur/pkg/model"
)

const (
	EventBookingCreated  = "booking.created"
	EventBookingApproved = "booking.approved"
	EventBookingRejected = "booking.rejected"
	EventBookingDeleted  = "booking.deleted"

	bookingSchemaVersion = "1"
)

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// BookingEvent is the payload on the booking topic. Consumers key on
// BookingID so every transition of one booking lands on one partition.
type BookingEvent struct {
	BookingID       string    `json:"booking_id"`
	UserID          string    `json:"user_id"`
	ServiceID       int       `json:"service_id"`
	ServiceName     string    `json:"service_name"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type BookingPublisher struct {
	producer Publisher
	source   string
	loc      *time.Location
	now      func() time.Time
}

func NewBookingPublisher(producer Publisher, source string, loc *time.Location) *BookingPublisher {
	return &BookingPublisher{
		producer: producer,
		source:   source,
		loc:      loc,
		now:      time.Now,
	}
}

// BookingEventType maps a booking's current status to its event name.
func BookingEventType(b *model.Booking) string {
	switch b.Status {
	case model.BookingApproved:
		return EventBookingApproved
	case model.BookingRejected:
		return EventBookingRejected
	default:
		return EventBookingCreated
	}
}

func (p *BookingPublisher) Publish(ctx context.Context, eventType string, b *model.Booking) error {
	now := p.now()
	msg, err := NewMessage().
		WithKey(b.ID).
		WithEventType(eventType).
		WithSource(p.source).
		WithSchemaVersion(bookingSchemaVersion).
		WithTimestamp(now).
		WithValue(BookingEvent{
			BookingID:       b.ID,
			UserID:          b.UserID,
			ServiceID:       b.ServiceID,
			ServiceName:     b.ServiceName,
			Date:            b.Date.In(p.loc).Format(time.DateOnly),
			Time:            b.Time,
			Status:          b.Status,
			RejectionReason: b.RejectionReason,
			OccurredAt:      now.UTC(),
		}).
		Build()
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}
