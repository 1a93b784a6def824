package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"birshibpur/internal/auth/service"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/middleware"
	"birshibpur/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// ────────────────────────────────────────────────
// Mock service for testing
// ────────────────────────────────────────────────

type mockAuthService struct {
	service.AuthService

	resolveFunc     func(ctx context.Context, cred identity.Credential) (*identity.Identity, error)
	loginFunc       func(ctx context.Context, req *model.AdminLogin) error
	verifyFunc      func(ctx context.Context, req *model.AdminVerify) (*model.Session, error)
	createAdminFunc func(ctx context.Context, req *model.AdminCreate) (*model.Admin, error)
	meFunc          func(ctx context.Context, requester *identity.Identity) (*service.Profile, error)
}

func (m *mockAuthService) Resolve(ctx context.Context, cred identity.Credential) (*identity.Identity, error) {
	return m.resolveFunc(ctx, cred)
}

func (m *mockAuthService) AdminLogin(ctx context.Context, req *model.AdminLogin) error {
	return m.loginFunc(ctx, req)
}

func (m *mockAuthService) AdminVerify(ctx context.Context, req *model.AdminVerify) (*model.Session, error) {
	return m.verifyFunc(ctx, req)
}

func (m *mockAuthService) CreateAdmin(ctx context.Context, req *model.AdminCreate) (*model.Admin, error) {
	return m.createAdminFunc(ctx, req)
}

func (m *mockAuthService) Me(ctx context.Context, requester *identity.Identity) (*service.Profile, error) {
	return m.meFunc(ctx, requester)
}

const testIssuer = "birshibpur-test"

func newRouter(svc *mockAuthService) *httprouter.Router {
	auth := middleware.NewAuthenticator(svc, testIssuer, logger.Discard())
	router := httprouter.New()
	NewAuthHandler(svc, auth, logger.Discard()).RegisterRoutes(router)
	return router
}

func sessionToken(t *testing.T, role identity.Role) string {
	t.Helper()
	token, _, err := identity.NewSessionIssuer("0123456789abcdef0123456789abcdef", testIssuer, time.Hour).
		Issue(identity.Identity{UserID: "u-1", Role: role})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func resolveAs(role identity.Role) func(context.Context, identity.Credential) (*identity.Identity, error) {
	return func(context.Context, identity.Credential) (*identity.Identity, error) {
		return &identity.Identity{UserID: "u-1", Role: role, Kind: identity.KindSession}, nil
	}
}

// ────────────────────────────────────────────────
// Tests
// ────────────────────────────────────────────────

func TestAdminLogin_Routes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "code sent", body: `{"email":"admin@example.com","password":"secret123"}`, wantStatus: http.StatusOK},
		{name: "bad credentials", body: `{"email":"admin@example.com","password":"nope"}`, err: apperrors.Unauthorized("Invalid email or password"), wantStatus: http.StatusUnauthorized},
		{name: "malformed body", body: `{"email":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&mockAuthService{
				loginFunc: func(ctx context.Context, req *model.AdminLogin) error { return tt.err },
			})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/login", strings.NewReader(tt.body)))

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
		})
	}
}

func TestAdminVerify_ReturnsSession(t *testing.T) {
	router := newRouter(&mockAuthService{
		verifyFunc: func(ctx context.Context, req *model.AdminVerify) (*model.Session, error) {
			if req.Code != "123456" {
				t.Errorf("code = %q", req.Code)
			}
			return &model.Session{Token: "tok", Admin: &model.Admin{ID: "a1", Email: req.Email, PasswordHash: "hash"}}, nil
		},
	})

	rr := httptest.NewRecorder()
	body := `{"email":"admin@example.com","code":"123456"}`
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/admin/verify", strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "hash") {
		t.Error("password hash leaked in response")
	}
	var resp struct {
		Data model.Session `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Token != "tok" {
		t.Errorf("token = %q", resp.Data.Token)
	}
}

func TestCreateAdmin_RequiresAdmin(t *testing.T) {
	called := false
	svc := &mockAuthService{
		resolveFunc: resolveAs(identity.RoleUser),
		createAdminFunc: func(ctx context.Context, req *model.AdminCreate) (*model.Admin, error) {
			called = true
			return &model.Admin{ID: "a2"}, nil
		},
	}
	body := `{"name":"Second","email":"second@example.com","password":"long enough"}`

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admins", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, identity.RoleUser))
	newRouter(svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden || called {
		t.Errorf("user: status = %d called = %v, want 403 and not called", rr.Code, called)
	}

	svc.resolveFunc = resolveAs(identity.RoleAdmin)
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admins", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, identity.RoleAdmin))
	newRouter(svc).ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated || !called {
		t.Errorf("admin: status = %d called = %v, want 201 and called", rr.Code, called)
	}
}

func TestMe_RequiresCredential(t *testing.T) {
	router := newRouter(&mockAuthService{
		meFunc: func(ctx context.Context, requester *identity.Identity) (*service.Profile, error) {
			return &service.Profile{Role: requester.Role}, nil
		},
		resolveFunc: resolveAs(identity.RoleUser),
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t, identity.RoleUser))
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("signed-in status = %d, want 200", rr.Code)
	}
}
