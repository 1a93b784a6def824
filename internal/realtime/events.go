package realtime

import "time"

const (
	AdminRoom         = "admin-room"
	UserRoomPrefix    = "user:"
	BookingRoomPrefix = "booking:"
)

const (
	EventNewBooking          = "newBooking"
	EventBookingStatusUpdate = "bookingStatusUpdate"
	EventBookingConfirmed    = "bookingConfirmed"
	EventBookingRejected     = "bookingRejected"
	EventBookingDeleted      = "bookingDeleted"
	EventRealtimeStats       = "realtimeStats"
	EventNotification        = "notification"
	EventError               = "error"
)

func UserRoom(userID string) string {
	return UserRoomPrefix + userID
}

func BookingRoom(bookingID string) string {
	return BookingRoomPrefix + bookingID
}

// Envelope is the frame every server push is wrapped in.
type Envelope struct {
	Event     string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// inbound is what clients may send.
type inbound struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}
