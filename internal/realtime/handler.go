package realtime

import (
	"context"
	"net/http"
	"slices"
	"strings"

	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// TokenResolver turns a raw bearer token into an identity.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*identity.Identity, error)
}

type Handler struct {
	hub      *Hub
	auth     TokenResolver
	access   BookingAccess
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHandler(hub *Hub, auth TokenResolver, access BookingAccess, allowedOrigins []string, log *logger.Logger) *Handler {
	return &Handler{
		hub:    hub,
		auth:   auth,
		access: access,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/ws", h.Serve)
}

func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}

	id, err := h.auth.ResolveToken(r.Context(), token)
	if err != nil {
		if writeErr := httputil.WriteError(w, middleware.AuthError(err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Serve", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "user_id", id.UserID, logger.Err(err))
		return
	}

	client := NewClient(h.hub, conn, id)
	h.hub.Register(client, DefaultRooms(id)...)
	h.log.Debug("Realtime client connected", "user_id", id.UserID, "role", id.Role)

	go client.writePump()
	client.readPump(h.access, h.log)
}
