package handler

import (
	"net/http"

	"birshibpur/internal/notifications/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type NotificationHandler struct {
	service service.NotificationService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewNotificationHandler(service service.NotificationService, auth *middleware.Authenticator, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/notifications", h.auth.Authenticate(h.List))
	router.POST("/api/v1/notifications", h.auth.RequireAdmin(h.Announce))
	router.PATCH("/api/v1/notifications/id/:id/read", h.auth.Authenticate(h.MarkRead))
	router.DELETE("/api/v1/notifications/id/:id", h.auth.RequireAdmin(h.Delete))
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "List", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	items, total, err := h.service.List(r.Context(), requester, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, items, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "MarkRead", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.MarkRead(r.Context(), requester, ps.ByName("id")); err != nil {
		h.writeError(w, "MarkRead", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *NotificationHandler) Announce(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	admin, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Announce", apperrors.Unauthorized("Authentication required"))
		return
	}

	var input model.AnnouncementInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Announce", err)
		return
	}

	n, err := h.service.Announce(r.Context(), admin, &input)
	if err != nil {
		h.writeError(w, "Announce", err)
		return
	}

	if err := httputil.WriteCreated(w, n); err != nil {
		h.log.Error("failed to write created response", "handler", "Announce", "operation", "WriteCreated", "error", err)
	}
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
