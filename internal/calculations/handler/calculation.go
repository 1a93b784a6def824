package handler

import (
	"net/http"
	"strconv"
	"time"

	"birshibpur/internal/calculations/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type CalculationHandler struct {
	service service.CalculationService
	auth    *middleware.Authenticator
	loc     *time.Location
	log     *logger.Logger
}

func NewCalculationHandler(service service.CalculationService, auth *middleware.Authenticator, loc *time.Location, log *logger.Logger) *CalculationHandler {
	return &CalculationHandler{
		service: service,
		auth:    auth,
		loc:     loc,
		log:     log,
	}
}

func (h *CalculationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/calculations", h.auth.RequireAdmin(h.Create))
	router.GET("/api/v1/calculations", h.auth.RequireAdmin(h.List))
	router.GET("/api/v1/calculations/summary", h.auth.RequireAdmin(h.Summary))
	router.GET("/api/v1/calculations/id/:id", h.auth.RequireAdmin(h.GetByID))
	router.PUT("/api/v1/calculations/id/:id", h.auth.RequireAdmin(h.Update))
	router.DELETE("/api/v1/calculations/id/:id", h.auth.RequireAdmin(h.Delete))
	router.GET("/api/v1/calculations/id/:id/receipt", h.auth.RequireAdmin(h.Receipt))
}

func (h *CalculationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var input model.CalculationInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	calc, err := h.service.Create(r.Context(), requester, &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, calc); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *CalculationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	calcs, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, calcs, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *CalculationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	calc, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, calc); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalculationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.CalculationInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	calc, err := h.service.Update(r.Context(), ps.ByName("id"), &input)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, calc); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalculationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *CalculationHandler) Summary(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := h.parseFilter(r)
	if err != nil {
		h.writeError(w, "Summary", err)
		return
	}

	summary, err := h.service.Summary(r.Context(), filter)
	if err != nil {
		h.writeError(w, "Summary", err)
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Summary", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CalculationHandler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	receipt, err := h.service.Receipt(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Receipt", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+receipt.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(receipt.PDF)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(receipt.PDF); err != nil {
		h.log.Error("failed to write receipt", "handler", "Receipt", "operation", "Write", "error", err)
	}
}

func (h *CalculationHandler) parseFilter(r *http.Request) (model.CalculationFilter, error) {
	from, err := httputil.ParseDateParam(r, "from", h.loc)
	if err != nil {
		return model.CalculationFilter{}, err
	}
	to, err := httputil.ParseDateParam(r, "to", h.loc)
	if err != nil {
		return model.CalculationFilter{}, err
	}
	query := r.URL.Query()
	return model.CalculationFilter{
		Type:     query.Get("type"),
		Category: query.Get("category"),
		From:     from,
		To:       to,
	}, nil
}

func (h *CalculationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
