package model

import "time"

const (
	BookingPending  = "pending"
	BookingApproved = "approved"
	BookingRejected = "rejected"
)

// Services is the fixed catalogue devotees can book.
var Services = map[int]string{
	1: "Puja Archana",
	2: "Annaprashan",
	3: "Bibaho",
	4: "Upanayan",
	5: "Shraddha Karma",
}

func ServiceName(id int) (string, bool) {
	name, ok := Services[id]
	return name, ok
}

type Booking struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID          string    `json:"user_id" bson:"user_id"`
	Name            string    `json:"name" bson:"name"`
	Email           string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone           string    `json:"phone,omitempty" bson:"phone,omitempty"`
	ServiceID       int       `json:"service_id" bson:"service_id"`
	ServiceName     string    `json:"service_name" bson:"service_name"`
	Date            time.Time `json:"date" bson:"date"`
	Time            string    `json:"time" bson:"time"`
	Message         string    `json:"message,omitempty" bson:"message,omitempty"`
	Status          string    `json:"status" bson:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsPending() bool {
	return b.Status == BookingPending
}

func (b *Booking) Summary(loc *time.Location) BookingSummary {
	return BookingSummary{
		ID:          b.ID,
		ServiceName: b.ServiceName,
		Date:        b.Date.In(loc).Format(time.DateOnly),
		Time:        b.Time,
		Status:      b.Status,
	}
}

type BookingRequest struct {
	Service int    `json:"service" validate:"required,min=1,max=5"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Time    string `json:"time" validate:"required,slot_time"`
	Message string `json:"message,omitempty" validate:"max=1000"`
}

type BookingStatusUpdate struct {
	Status          string `json:"status" validate:"required,oneof=approved rejected"`
	RejectionReason string `json:"rejection_reason,omitempty" validate:"max=500"`
}

type BookingSummary struct {
	ID          string `json:"id"`
	ServiceName string `json:"service_name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
}

type BookingFilter struct {
	Status       string
	UserID       string
	From         *time.Time
	To           *time.Time
	CreatedSince *time.Time
}

type BookingStats struct {
	Total           int64 `json:"total"`
	Pending         int64 `json:"pending"`
	Today           int64 `json:"today"`
	ThisMonth       int64 `json:"this_month"`
	ConnectedAdmins int   `json:"connected_admins"`
	ConnectedUsers  int   `json:"connected_users"`
}
