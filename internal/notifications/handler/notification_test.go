package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockNotificationService struct {
	listFunc     func(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Notification, int64, error)
	markReadFunc func(ctx context.Context, requester *identity.Identity, id string) error
	announceFunc func(ctx context.Context, admin *identity.Identity, input *model.AnnouncementInput) (*model.Notification, error)
	deleteFunc   func(ctx context.Context, id string) error
}

func (m *mockNotificationService) List(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Notification, int64, error) {
	return m.listFunc(ctx, requester, limit, offset)
}

func (m *mockNotificationService) MarkRead(ctx context.Context, requester *identity.Identity, id string) error {
	return m.markReadFunc(ctx, requester, id)
}

func (m *mockNotificationService) Announce(ctx context.Context, admin *identity.Identity, input *model.AnnouncementInput) (*model.Notification, error) {
	return m.announceFunc(ctx, admin, input)
}

func (m *mockNotificationService) Delete(ctx context.Context, id string) error {
	return m.deleteFunc(ctx, id)
}

func newTestHandler(svc *mockNotificationService) *NotificationHandler {
	return &NotificationHandler{service: svc, log: logger.Discard()}
}

func withIdentity(r *http.Request, role identity.Role) *http.Request {
	id := &identity.Identity{UserID: "user-1", Role: role}
	return r.WithContext(identity.WithIdentity(r.Context(), id))
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestList_PassesPagination(t *testing.T) {
	h := newTestHandler(&mockNotificationService{
		listFunc: func(ctx context.Context, requester *identity.Identity, limit int, offset int64) ([]*model.Notification, int64, error) {
			if limit != 5 || offset != 10 {
				t.Errorf("limit/offset = %d/%d, want 5/10", limit, offset)
			}
			return []*model.Notification{{ID: "n1", Title: "নোটিস"}}, 11, nil
		},
	})

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/notifications?limit=5&offset=10", nil), identity.RoleUser)
	rr := httptest.NewRecorder()
	h.List(rr, req, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rr.Code, rr.Body.String())
	}
	var body struct {
		TotalCount int64 `json:"total_count"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.TotalCount != 11 {
		t.Errorf("total_count = %d, want 11", body.TotalCount)
	}
}

func TestList_RequiresIdentity(t *testing.T) {
	h := newTestHandler(&mockNotificationService{})
	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil), nil)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rr.Code)
	}
}

func TestMarkRead(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "marked", wantStatus: http.StatusNoContent},
		{name: "unknown", err: apperrors.NotFoundWithID("Notification", "x"), wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockNotificationService{
				markReadFunc: func(ctx context.Context, requester *identity.Identity, id string) error {
					if id != "65f1c0ffee0000000000000a" {
						t.Errorf("id = %q", id)
					}
					return tt.err
				},
			})

			req := withIdentity(httptest.NewRequest(http.MethodPatch, "/api/v1/notifications/id/65f1c0ffee0000000000000a/read", nil), identity.RoleUser)
			rr := httptest.NewRecorder()
			h.MarkRead(rr, req, httprouter.Params{{Key: "id", Value: "65f1c0ffee0000000000000a"}})

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestAnnounce(t *testing.T) {
	var got *model.AnnouncementInput
	h := newTestHandler(&mockNotificationService{
		announceFunc: func(ctx context.Context, admin *identity.Identity, input *model.AnnouncementInput) (*model.Notification, error) {
			got = input
			return &model.Notification{ID: "n1", Title: input.Title, Message: input.Message, Type: model.NotificationAnnouncement}, nil
		},
	})

	body := `{"title":"রথযাত্রা","message":"সকলকে আমন্ত্রণ","send_email":true}`
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(body)), identity.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Announce(rr, req, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rr.Code, rr.Body.String())
	}
	if got == nil || !got.SendEmail || got.Title != "রথযাত্রা" {
		t.Errorf("input = %+v", got)
	}
}

func TestAnnounce_RejectsUnknownFields(t *testing.T) {
	h := newTestHandler(&mockNotificationService{})
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/notifications", strings.NewReader(`{"title":"x","urgent":true}`)), identity.RoleAdmin)
	rr := httptest.NewRecorder()
	h.Announce(rr, req, nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	h := newTestHandler(&mockNotificationService{
		deleteFunc: func(ctx context.Context, id string) error { return nil },
	})
	rr := httptest.NewRecorder()
	h.Delete(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/notifications/id/n1", nil), httprouter.Params{{Key: "id", Value: "n1"}})

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rr.Code)
	}
}
