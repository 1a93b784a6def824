package middleware

import (
	"context"
	"errors"
	"net/http"

	apperrors "birshibpur/pkg/errors"
	httputil "birshibpur/pkg/http"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Resolver turns a classified credential into an identity. Firebase
// credentials also upsert the devotee profile.
type Resolver interface {
	Resolve(ctx context.Context, cred identity.Credential) (*identity.Identity, error)
}

type Authenticator struct {
	resolver      Resolver
	sessionIssuer string
	log           *logger.Logger
}

func NewAuthenticator(resolver Resolver, sessionIssuer string, log *logger.Logger) *Authenticator {
	return &Authenticator{
		resolver:      resolver,
		sessionIssuer: sessionIssuer,
		log:           log,
	}
}

// Authenticate resolves the bearer credential once and stores the
// identity in the request context.
func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := a.ResolveHeader(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			a.reject(w, r, err)
			return
		}
		next(w, r.WithContext(identity.WithIdentity(r.Context(), id)), ps)
	}
}

func (a *Authenticator) RequireAdmin(next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, _ := identity.FromContext(r.Context())
		if !id.IsAdmin() {
			a.log.Warn("Admin route denied",
				"request_id", RequestID(r),
				"user_id", id.UserID,
				"path", r.URL.Path,
			)
			_ = httputil.WriteError(w, apperrors.Forbidden("Administrator access required"))
			return
		}
		next(w, r, ps)
	})
}

// ResolveHeader is also used by the websocket endpoint, which carries
// the token in the query string.
func (a *Authenticator) ResolveHeader(ctx context.Context, header string) (*identity.Identity, error) {
	cred, err := identity.ParseBearer(header, a.sessionIssuer)
	if err != nil {
		return nil, err
	}
	return a.resolver.Resolve(ctx, cred)
}

func (a *Authenticator) ResolveToken(ctx context.Context, token string) (*identity.Identity, error) {
	return a.ResolveHeader(ctx, "Bearer "+token)
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, err error) {
	appErr := AuthError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		a.log.Error("Credential resolution failed", "request_id", RequestID(r), logger.Err(err))
	} else {
		a.log.Debug("Unauthenticated request", "request_id", RequestID(r), "path", r.URL.Path, logger.Err(err))
	}
	_ = httputil.WriteError(w, appErr)
}

// AuthError maps identity failures onto the HTTP taxonomy.
func AuthError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, identity.ErrMissingCredential):
		return apperrors.Unauthorized("Authentication required")
	case errors.Is(err, identity.ErrExpiredToken):
		return apperrors.Unauthorized("Token expired")
	case errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrUnsupportedCredential):
		return apperrors.Unauthorized("Invalid token")
	case errors.Is(err, identity.ErrKeysUnavailable):
		return apperrors.Unavailable("Identity provider")
	case apperrors.IsAppError(err):
		return apperrors.AsAppError(err)
	default:
		return apperrors.Internal("failed to resolve credential", err)
	}
}
