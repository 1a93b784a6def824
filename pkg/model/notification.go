package model

import (
	"slices"
	"time"
)

const (
	NotificationBooking      = "booking"
	NotificationAnnouncement = "announcement"
)

// Notification is an inbox entry. An empty UserID addresses everyone.
type Notification struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Title     string    `json:"title" bson:"title"`
	Message   string    `json:"message" bson:"message"`
	Type      string    `json:"type" bson:"type"`
	BookingID string    `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	ReadBy    []string  `json:"-" bson:"read_by"`
	Read      bool      `json:"read" bson:"-"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (n *Notification) ResolveRead(userID string) {
	n.Read = slices.Contains(n.ReadBy, userID)
}

type AnnouncementInput struct {
	Title     string `json:"title" validate:"required,min=2,max=200"`
	Message   string `json:"message" validate:"required,min=2,max=5000"`
	SendEmail bool   `json:"send_email"`
}
