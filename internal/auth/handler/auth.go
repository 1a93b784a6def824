package handler

import (
	"net/http"

	"birshibpur/internal/auth/service"
	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AuthHandler struct {
	service service.AuthService
	auth    *middleware.Authenticator
	log     *logger.Logger
}

func NewAuthHandler(service service.AuthService, auth *middleware.Authenticator, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *AuthHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/auth/admin/login", h.AdminLogin)
	router.POST("/api/v1/auth/admin/verify", h.AdminVerify)
	router.POST("/api/v1/auth/admin/password/forgot", h.ForgotPassword)
	router.POST("/api/v1/auth/admin/password/reset", h.ResetPassword)
	router.GET("/api/v1/auth/me", h.auth.Authenticate(h.Me))
	router.PUT("/api/v1/auth/me", h.auth.Authenticate(h.UpdateProfile))
	router.POST("/api/v1/admins", h.auth.RequireAdmin(h.CreateAdmin))
	router.GET("/api/v1/admins", h.auth.RequireAdmin(h.ListAdmins))
}

func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AdminLogin
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AdminLogin", err)
		return
	}

	if err := h.service.AdminLogin(r.Context(), &req); err != nil {
		h.writeError(w, "AdminLogin", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Verification code sent", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "AdminLogin", "operation", "WriteMessage", "error", err)
	}
}

func (h *AuthHandler) AdminVerify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AdminVerify
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "AdminVerify", err)
		return
	}

	session, err := h.service.AdminVerify(r.Context(), &req)
	if err != nil {
		h.writeError(w, "AdminVerify", err)
		return
	}

	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "AdminVerify", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PasswordForgot
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ForgotPassword", err)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), &req); err != nil {
		h.writeError(w, "ForgotPassword", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "If the email is registered, a code has been sent", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "ForgotPassword", "operation", "WriteMessage", "error", err)
	}
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PasswordReset
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "ResetPassword", err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), &req); err != nil {
		h.writeError(w, "ResetPassword", err)
		return
	}

	if err := httputil.WriteMessage(w, http.StatusOK, "Password updated", nil); err != nil {
		h.log.Error("failed to write message response", "handler", "ResetPassword", "operation", "WriteMessage", "error", err)
	}
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Me", apperrors.Unauthorized("Authentication required"))
		return
	}

	profile, err := h.service.Me(r.Context(), requester)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requester, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, "UpdateProfile", apperrors.Unauthorized("Authentication required"))
		return
	}

	var update model.UserProfileUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), requester, &update)
	if err != nil {
		h.writeError(w, "UpdateProfile", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateProfile", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.AdminCreate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "CreateAdmin", err)
		return
	}

	admin, err := h.service.CreateAdmin(r.Context(), &req)
	if err != nil {
		h.writeError(w, "CreateAdmin", err)
		return
	}

	if err := httputil.WriteCreated(w, admin); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateAdmin", "operation", "WriteCreated", "error", err)
	}
}

func (h *AuthHandler) ListAdmins(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	admins, err := h.service.ListAdmins(r.Context())
	if err != nil {
		h.writeError(w, "ListAdmins", err)
		return
	}

	if err := httputil.WriteSuccess(w, admins); err != nil {
		h.log.Error("failed to write success response", "handler", "ListAdmins", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
