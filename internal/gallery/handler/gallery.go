package handler

import (
	"net/http"

	"birshibpur/internal/gallery/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/media"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type GalleryHandler struct {
	service service.GalleryService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewGalleryHandler(service service.GalleryService, auth *middleware.Authenticator, log *logger.Logger) *GalleryHandler {
	return &GalleryHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *GalleryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/gallery", h.List)
	router.POST("/api/v1/gallery", h.auth.RequireAdmin(h.Upload))
	router.DELETE("/api/v1/gallery/id/:id", h.auth.RequireAdmin(h.Delete))
}

func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	query := r.URL.Query()
	filter := model.GalleryFilter{
		Category: query.Get("category"),
		EventID:  query.Get("event_id"),
	}
	items, total, err := h.service.List(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WritePaginated(w, items, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *GalleryHandler) Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Upload", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := httputil.ParseMultipart(r); err != nil {
		h.writeError(w, "Upload", err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input := &model.GalleryInput{
		Title:    r.FormValue("title"),
		Category: r.FormValue("category"),
		EventID:  r.FormValue("event_id"),
	}

	var image *media.Upload
	file, header, err := httputil.OptionalFile(r, "image")
	if err != nil {
		h.writeError(w, "Upload", err)
		return
	}
	if file != nil {
		defer file.Close()
		image = &media.Upload{Filename: header.Filename, Body: file}
	}

	item, err := h.service.Upload(r.Context(), requester, input, image)
	if err != nil {
		h.writeError(w, "Upload", err)
		return
	}

	if err := httputil.WriteCreated(w, item); err != nil {
		h.log.Error("failed to write created response", "handler", "Upload", "operation", "WriteCreated", "error", err)
	}
}

func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *GalleryHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
