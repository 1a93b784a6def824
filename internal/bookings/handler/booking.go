package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"birshibpur/internal/bookings/export"
	"birshibpur/internal/bookings/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type BookingHandler struct {
	service service.BookingService
	auth    *middleware.Authenticator
	loc     *time.Location
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth *middleware.Authenticator, loc *time.Location, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		loc:     loc,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth.Authenticate(h.Create))
	router.GET("/api/v1/bookings", h.auth.RequireAdmin(h.ListAll))
	router.GET("/api/v1/bookings/mine", h.auth.Authenticate(h.ListMine))
	router.GET("/api/v1/bookings/stats", h.auth.RequireAdmin(h.Stats))
	router.GET("/api/v1/bookings/export", h.auth.RequireAdmin(h.Export))
	router.GET("/api/v1/bookings/id/:id", h.auth.Authenticate(h.GetByID))
	router.PATCH("/api/v1/bookings/id/:id/status", h.auth.RequireAdmin(h.UpdateStatus))
	router.DELETE("/api/v1/bookings/id/:id", h.auth.RequireAdmin(h.Delete))
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	summary, err := h.service.Create(r.Context(), requester, &req)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, summary); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Authentication required"))
		return
	}

	booking, err := h.service.GetByID(r.Context(), requester, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "ListMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	bookings, total, err := h.service.ListMine(r.Context(), requester, limit, offset)
	if err != nil {
		h.writeError(w, "ListMine", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListMine", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	bookings, total, err := h.service.ListAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "ListAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Export(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}

	bookings, err := h.service.Export(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Export", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, bookings, h.loc); err != nil {
		h.writeError(w, "Export", apperrors.Internal("Failed to build export", err))
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().In(h.loc).Format("20060102-1504"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Error("failed to write export", "handler", "Export", "operation", "Write", "error", err)
	}
}

func (h *BookingHandler) parseFilter(r *http.Request) (model.BookingFilter, error) {
	from, err := httputil.ParseDateParam(r, "from", h.loc)
	if err != nil {
		return model.BookingFilter{}, err
	}
	to, err := httputil.ParseDateParam(r, "to", h.loc)
	if err != nil {
		return model.BookingFilter{}, err
	}
	return model.BookingFilter{
		Status: r.URL.Query().Get("status"),
		From:   from,
		To:     to,
	}, nil
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
