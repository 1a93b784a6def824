package service

import (
	"context"
	"time"

	"birshibpur/internal/notifications/repository"
	"birshibpur/internal/realtime"
	"birshibpur/pkg/config"
	"birshibpur/pkg/kafka"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/metrics"
	"birshibpur/pkg/model"
)

// EventPublisher emits booking domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, booking *model.Booking) error
}

// StatusPayload is the data of bookingStatusUpdate, bookingConfirmed
// and bookingRejected pushes.
type StatusPayload struct {
	BookingID       string `json:"booking_id"`
	Status          string `json:"status"`
	ServiceName     string `json:"service_name"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

type DeletedPayload struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// Dispatcher fans booking changes out to realtime rooms, the inbox,
// e-mail and the event bus. Every failure is logged and swallowed;
// e-mail runs in the background so requests never wait on SMTP.
type Dispatcher struct {
	repo      repository.NotificationRepository
	hub       Broadcaster
	mailer    Mailer
	directory Directory
	events    EventPublisher
	metrics   *metrics.Metrics
	cfg       *config.Config
	async     func(func())
}

// NewDispatcher accepts a nil events publisher when Kafka is not configured.
func NewDispatcher(
	repo repository.NotificationRepository,
	hub Broadcaster,
	mailer Mailer,
	directory Directory,
	events EventPublisher,
	m *metrics.Metrics,
	cfg *config.Config,
) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		hub:       hub,
		mailer:    mailer,
		directory: directory,
		events:    events,
		metrics:   m,
		cfg:       cfg,
		async:     func(f func()) { go f() },
	}
}

func (d *Dispatcher) BookingCreated(ctx context.Context, b *model.Booking) {
	d.metrics.IncBookingCreated()
	d.hub.Emit(realtime.AdminRoom, realtime.EventNewBooking, b)
	d.publish(ctx, kafka.EventBookingCreated, b)

	if !d.mailer.Enabled() {
		return
	}
	data := d.bookingData(b, d.cfg.FrontendURL+"/admin/bookings")
	bg := context.WithoutCancel(ctx)
	d.async(func() {
		recipients := d.adminRecipients(bg)
		if len(recipients) == 0 {
			d.cfg.Log.Warn("No admin recipients for new booking email", "booking_id", b.ID)
			return
		}
		logResults(d.cfg.Log, string(mailer.TemplateNewBooking), b.ID,
			d.mailer.SendBatch(bg, recipients, mailer.TemplateNewBooking, data))
	})
}

func (d *Dispatcher) BookingStatusChanged(ctx context.Context, b *model.Booking) {
	d.metrics.IncBookingTransition(b.Status)

	payload := StatusPayload{
		BookingID:       b.ID,
		Status:          b.Status,
		ServiceName:     b.ServiceName,
		Date:            b.Date.In(d.cfg.Location).Format(time.DateOnly),
		Time:            b.Time,
		RejectionReason: b.RejectionReason,
	}
	userRoom := realtime.UserRoom(b.UserID)
	d.hub.Emit(realtime.BookingRoom(b.ID), realtime.EventBookingStatusUpdate, payload)
	d.hub.Emit(userRoom, realtime.EventBookingStatusUpdate, payload)

	tmpl := mailer.TemplateBookingApproved
	if b.Status == model.BookingRejected {
		tmpl = mailer.TemplateBookingRejected
		d.hub.Emit(userRoom, realtime.EventBookingRejected, payload)
	} else {
		d.hub.Emit(userRoom, realtime.EventBookingConfirmed, payload)
	}

	d.storeInbox(ctx, b, payload)
	d.publish(ctx, kafka.BookingEventType(b), b)

	if b.Email == "" || !d.mailer.Enabled() {
		return
	}
	data := d.bookingData(b, d.cfg.FrontendURL+"/bookings")
	bg := context.WithoutCancel(ctx)
	d.async(func() {
		if err := d.mailer.Send(bg, b.Email, tmpl, data); err != nil {
			d.cfg.Log.Warn("Email delivery failed", "kind", string(tmpl), "ref", b.ID, "recipient", b.Email, logger.Err(err))
			return
		}
		d.cfg.Log.Info("Booking decision emailed", "booking_id", b.ID, "status", b.Status)
	})
}

func (d *Dispatcher) BookingDeleted(ctx context.Context, b *model.Booking) {
	d.hub.Emit(realtime.AdminRoom, realtime.EventBookingDeleted, DeletedPayload{BookingID: b.ID, Status: b.Status})
	d.publish(ctx, kafka.EventBookingDeleted, b)
}

func (d *Dispatcher) StatsUpdated(_ context.Context, stats *model.BookingStats) {
	d.hub.Emit(realtime.AdminRoom, realtime.EventRealtimeStats, stats)
}

func (d *Dispatcher) storeInbox(ctx context.Context, b *model.Booking, payload StatusPayload) {
	n := &model.Notification{
		UserID:    b.UserID,
		Type:      model.NotificationBooking,
		BookingID: b.ID,
	}
	if b.Status == model.BookingRejected {
		n.Title = "বুকিং বাতিল হয়েছে"
		n.Message = b.ServiceName + " (" + payload.Date + " " + b.Time + ") বুকিংটি গ্রহণ করা সম্ভব হয়নি।"
		if b.RejectionReason != "" {
			n.Message += " কারণ: " + b.RejectionReason
		}
	} else {
		n.Title = "বুকিং নিশ্চিত হয়েছে"
		n.Message = b.ServiceName + " (" + payload.Date + " " + b.Time + ") বুকিংটি নিশ্চিত করা হয়েছে।"
	}

	if err := d.repo.Create(ctx, n); err != nil {
		d.cfg.Log.Error("Failed to store booking notification", "booking_id", b.ID, logger.Err(err))
		return
	}
	d.hub.Emit(realtime.UserRoom(b.UserID), realtime.EventNotification, n)
}

func (d *Dispatcher) publish(ctx context.Context, eventType string, b *model.Booking) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(ctx, eventType, b); err != nil {
		d.cfg.Log.Error("Failed to publish booking event", "event_type", eventType, "booking_id", b.ID, logger.Err(err))
	}
}

// adminRecipients falls back to the configured default address when no
// admin account has an e-mail on file.
func (d *Dispatcher) adminRecipients(ctx context.Context) []string {
	emails, err := d.directory.AdminEmails(ctx)
	if err != nil {
		d.cfg.Log.Error("Failed to load admin emails", logger.Err(err))
	}
	if len(emails) == 0 && d.cfg.DefaultAdminEmail != "" {
		return []string{d.cfg.DefaultAdminEmail}
	}
	return emails
}

func (d *Dispatcher) bookingData(b *model.Booking, link string) mailer.BookingData {
	return mailer.BookingData{
		Name:        b.Name,
		Email:       b.Email,
		Phone:       b.Phone,
		ServiceName: b.ServiceName,
		Date:        b.Date.In(d.cfg.Location).Format(time.DateOnly),
		Time:        b.Time,
		Message:     b.Message,
		Reason:      b.RejectionReason,
		Link:        link,
	}
}
