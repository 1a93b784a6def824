package model

import (
	"testing"
	"time"
)

func TestServiceName(t *testing.T) {
	for id := 1; id <= 5; id++ {
		if name, ok := ServiceName(id); !ok || name == "" {
			t.Errorf("service %d should resolve to a name", id)
		}
	}
	for _, id := range []int{0, 6, -1} {
		if _, ok := ServiceName(id); ok {
			t.Errorf("service %d should not resolve", id)
		}
	}
}

func TestBooking_Summary(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skip("tz database unavailable")
	}
	b := &Booking{
		ID:          "65f000000000000000000001",
		ServiceName: "Puja Archana",
		Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		Time:        "10:00",
		Status:      BookingPending,
	}

	got := b.Summary(loc)
	if got.Date != "2025-03-10" {
		t.Errorf("Date = %q, want 2025-03-10", got.Date)
	}
	if got.Status != BookingPending || got.Time != "10:00" || got.ID != b.ID {
		t.Errorf("unexpected summary %+v", got)
	}
	if !b.IsPending() {
		t.Error("booking should be pending")
	}
}

func TestNotification_ResolveRead(t *testing.T) {
	n := &Notification{ReadBy: []string{"u1", "u2"}}

	n.ResolveRead("u2")
	if !n.Read {
		t.Error("u2 has read the notification")
	}
	n.ResolveRead("u3")
	if n.Read {
		t.Error("u3 has not read the notification")
	}
}
