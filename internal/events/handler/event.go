package handler

import (
	"net/http"

	"birshibpur/internal/events/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/media"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const imageField = "image"

type EventHandler struct {
	service service.EventService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewEventHandler(service service.EventService, auth *middleware.Authenticator, log *logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *EventHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/events", h.List)
	router.GET("/api/v1/events/id/:id", h.GetByID)
	router.POST("/api/v1/events", h.auth.RequireAdmin(h.Create))
	router.PUT("/api/v1/events/id/:id", h.auth.RequireAdmin(h.Update))
	router.DELETE("/api/v1/events/id/:id", h.auth.RequireAdmin(h.Delete))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	filter := model.EventFilter{When: r.URL.Query().Get("when")}
	events, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, events, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	event, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	input, image, cleanup, err := readForm(r)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}
	defer cleanup()

	event, err := h.service.Create(r.Context(), requester, input, image)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, event); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	input, image, cleanup, err := readForm(r)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}
	defer cleanup()

	event, err := h.service.Update(r.Context(), ps.ByName("id"), input, image)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, event); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

// readForm reads the event fields and the optional image from a multipart
// body. cleanup releases the image and the form's temporary files.
func readForm(r *http.Request) (*model.EventInput, *media.Upload, func(), error) {
	if err := httputil.ParseMultipart(r); err != nil {
		return nil, nil, nil, err
	}
	cleanup := func() { _ = r.MultipartForm.RemoveAll() }

	input := &model.EventInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		StartDate:   r.FormValue("start_date"),
		EndDate:     r.FormValue("end_date"),
	}

	file, header, err := httputil.OptionalFile(r, imageField)
	if err != nil {
		cleanup()
		return nil, nil, nil, err
	}
	if file == nil {
		return input, nil, cleanup, nil
	}

	return input, &media.Upload{Filename: header.Filename, Body: file}, func() {
		_ = file.Close()
		cleanup()
	}, nil
}

func (h *EventHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
