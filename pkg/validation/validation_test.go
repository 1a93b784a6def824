package validation

import (
	"errors"
	"strings"
	"testing"

	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
)

func TestValidator_BookingRequest(t *testing.T) {
	v := New(logger.Discard())

	tests := []struct {
		name      string
		req       model.BookingRequest
		wantField string
	}{
		{name: "valid", req: model.BookingRequest{Service: 1, Date: "2030-01-02", Time: "09:30"}},
		{name: "service out of range", req: model.BookingRequest{Service: 6, Date: "2030-01-02", Time: "09:30"}, wantField: "service"},
		{name: "missing service", req: model.BookingRequest{Date: "2030-01-02", Time: "09:30"}, wantField: "service"},
		{name: "bad date", req: model.BookingRequest{Service: 2, Date: "02/01/2030", Time: "09:30"}, wantField: "date"},
		{name: "bad slot", req: model.BookingRequest{Service: 2, Date: "2030-01-02", Time: "25:00"}, wantField: "time"},
		{name: "long message", req: model.BookingRequest{Service: 2, Date: "2030-01-02", Time: "10:00", Message: strings.Repeat("a", 1001)}, wantField: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(&tt.req)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T (%v)", err, err)
			}
			if verrs[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verrs[0].Field, tt.wantField)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	if got := (ValidationErrors{}).Error(); got != "" {
		t.Errorf("empty errors should render empty, got %q", got)
	}
	got := Single("date", "must be in the future").Error()
	if !strings.Contains(got, "date: must be in the future") {
		t.Errorf("unexpected message %q", got)
	}
}
