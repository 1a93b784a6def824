package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "birshibpur/pkg/errors"
)

func TestWriteError_ClientErrorKeepsDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteError(rec, apperrors.NotFoundWithID("Booking", "665f1c2e9b1e8a3d4c2b1a00")); err != nil {
		t.Fatal(err)
	}

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != apperrors.CodeNotFound || body.Error != "Booking not found" {
		t.Errorf("body = %+v", body)
	}
	if body.Details["id"] != "665f1c2e9b1e8a3d4c2b1a00" {
		t.Errorf("details = %v", body.Details)
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"internal app error", apperrors.Internal("failed to insert booking", errors.New("E11000"))},
		{"plain error", errors.New("E11000 duplicate key")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatal(err)
			}

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("status = %d, want 500", rec.Code)
			}
			body := rec.Body.String()
			if strings.Contains(body, "E11000") || strings.Contains(body, "failed to insert") {
				t.Errorf("internal detail leaked: %s", body)
			}
			if !strings.Contains(body, apperrors.GenericMessage) {
				t.Errorf("generic message missing: %s", body)
			}
		})
	}
}
