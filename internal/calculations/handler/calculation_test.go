package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"birshibpur/internal/calculations/service"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockCalculationService struct {
	createFunc  func(ctx context.Context, requester *identity.Identity, input *model.CalculationInput) (*model.Calculation, error)
	summaryFunc func(ctx context.Context, filter model.CalculationFilter) (*model.CalculationSummary, error)
	receiptFunc func(ctx context.Context, id string) (*service.Receipt, error)
}

func (m *mockCalculationService) Create(ctx context.Context, requester *identity.Identity, input *model.CalculationInput) (*model.Calculation, error) {
	return m.createFunc(ctx, requester, input)
}

func (m *mockCalculationService) GetByID(ctx context.Context, id string) (*model.Calculation, error) {
	return nil, apperrors.NotFoundWithID("Calculation", id)
}

func (m *mockCalculationService) List(ctx context.Context, filter model.CalculationFilter, limit int, offset int64) ([]*model.Calculation, int64, error) {
	return []*model.Calculation{}, 0, nil
}

func (m *mockCalculationService) Update(ctx context.Context, id string, input *model.CalculationInput) (*model.Calculation, error) {
	return nil, apperrors.NotFoundWithID("Calculation", id)
}

func (m *mockCalculationService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockCalculationService) Summary(ctx context.Context, filter model.CalculationFilter) (*model.CalculationSummary, error) {
	return m.summaryFunc(ctx, filter)
}

func (m *mockCalculationService) Receipt(ctx context.Context, id string) (*service.Receipt, error) {
	return m.receiptFunc(ctx, id)
}

var templeTZ = time.FixedZone("IST", 5*3600+1800)

func newTestHandler(svc *mockCalculationService) *CalculationHandler {
	return &CalculationHandler{service: svc, loc: templeTZ, log: logger.Discard()}
}

func withAdmin(r *http.Request) *http.Request {
	id := &identity.Identity{UserID: "admin-1", Role: identity.RoleAdmin, Kind: identity.KindSession}
	return r.WithContext(identity.WithIdentity(r.Context(), id))
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestCreate_DecodesBody(t *testing.T) {
	var got *model.CalculationInput
	h := newTestHandler(&mockCalculationService{
		createFunc: func(ctx context.Context, requester *identity.Identity, input *model.CalculationInput) (*model.Calculation, error) {
			got = input
			return &model.Calculation{ID: "c1", ReceiptNo: "BSP-2025-000001"}, nil
		},
	})

	body := `{"type":"income","category":"annadan","amount":1001,"name":"Gopal Das","date":"2025-10-01"}`
	rr := httptest.NewRecorder()
	h.Create(rr, withAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/calculations", strings.NewReader(body))), nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if got.Amount != 1001 || got.Category != "annadan" {
		t.Errorf("input = %+v", got)
	}
}

func TestCreate_RejectsUnknownField(t *testing.T) {
	h := newTestHandler(&mockCalculationService{})

	body := `{"type":"income","receipt_no":"BSP-1"}`
	rr := httptest.NewRecorder()
	h.Create(rr, withAdmin(httptest.NewRequest(http.MethodPost, "/api/v1/calculations", strings.NewReader(body))), nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSummary_ParsesDateRange(t *testing.T) {
	var got model.CalculationFilter
	h := newTestHandler(&mockCalculationService{
		summaryFunc: func(ctx context.Context, filter model.CalculationFilter) (*model.CalculationSummary, error) {
			got = filter
			return &model.CalculationSummary{}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/api/v1/calculations/summary?from=2025-10-01&to=2025-10-31&type=income", nil), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got.From == nil || !got.From.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, templeTZ)) {
		t.Errorf("from = %v", got.From)
	}
	if got.To == nil || got.To.Day() != 31 || got.Type != model.EntryIncome {
		t.Errorf("filter = %+v", got)
	}
}

func TestSummary_BadDate(t *testing.T) {
	h := newTestHandler(&mockCalculationService{})

	rr := httptest.NewRecorder()
	h.Summary(rr, httptest.NewRequest(http.MethodGet, "/api/v1/calculations/summary?from=yesterday", nil), nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestReceipt_WritesPDFAttachment(t *testing.T) {
	h := newTestHandler(&mockCalculationService{
		receiptFunc: func(ctx context.Context, id string) (*service.Receipt, error) {
			return &service.Receipt{Filename: "receipt-BSP-2025-000001.pdf", PDF: []byte("%PDF-1.3 test")}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Receipt(rr, withAdmin(httptest.NewRequest(http.MethodGet, "/api/v1/calculations/id/c1/receipt", nil)), httprouter.Params{{Key: "id", Value: "c1"}})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "receipt-BSP-2025-000001.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if rr.Body.String() != "%PDF-1.3 test" {
		t.Errorf("body = %q", rr.Body.String())
	}
}
