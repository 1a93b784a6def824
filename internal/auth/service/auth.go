package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	autherrors "birshibpur/internal/auth/errors"
	"birshibpur/internal/auth/repository"
	"birshibpur/internal/auth/validator"
	"birshibpur/pkg/config"
	apperrors "birshibpur/pkg/errors"
	"birshibpur/pkg/identity"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/mailer"
	"birshibpur/pkg/model"
	"birshibpur/pkg/otp"
	"birshibpur/pkg/sanitizer"

	"golang.org/x/crypto/bcrypt"
)

const (
	purposeLogin = "login"
	purposeReset = "reset"
)

// dummyPasswordHash is compared against when the admin email is unknown
// so both branches of AdminLogin pay for one bcrypt comparison.
var dummyPasswordHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("birshibpur-unknown-admin"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy password hash: %v", err))
	}
	return hash
})

type FirebaseVerifier interface {
	Verify(ctx context.Context, token string) (*identity.FirebaseClaims, error)
}

type SessionManager interface {
	Issue(id identity.Identity) (string, time.Time, error)
	Verify(token string) (*identity.Identity, error)
}

type CodeMailer interface {
	Send(ctx context.Context, to string, tmpl mailer.Template, data any) error
}

// Profile is the signed-in requester's own record.
type Profile struct {
	Role  identity.Role `json:"role"`
	User  *model.User   `json:"user,omitempty"`
	Admin *model.Admin  `json:"admin,omitempty"`
}

type AuthService interface {
	Resolve(ctx context.Context, cred identity.Credential) (*identity.Identity, error)
	AdminLogin(ctx context.Context, req *model.AdminLogin) error
	AdminVerify(ctx context.Context, req *model.AdminVerify) (*model.Session, error)
	ForgotPassword(ctx context.Context, req *model.PasswordForgot) error
	ResetPassword(ctx context.Context, req *model.PasswordReset) error
	CreateAdmin(ctx context.Context, req *model.AdminCreate) (*model.Admin, error)
	ListAdmins(ctx context.Context) ([]*model.Admin, error)
	Me(ctx context.Context, requester *identity.Identity) (*Profile, error)
	UpdateProfile(ctx context.Context, requester *identity.Identity, update *model.UserProfileUpdate) (*model.User, error)

	FindUserByID(ctx context.Context, id string) (*model.User, error)
	AdminEmails(ctx context.Context) ([]string, error)
	UserEmails(ctx context.Context) ([]string, error)
}

type authService struct {
	users      repository.UserRepository
	admins     repository.AdminRepository
	firebase   FirebaseVerifier
	sessions   SessionManager
	codes      otp.Store
	mailer     CodeMailer
	validator  *validator.AuthValidator
	cfg        *config.Config
	now        func() time.Time
	bcryptCost int
	compare    func(hash, password []byte) error
}

func NewAuthService(
	users repository.UserRepository,
	admins repository.AdminRepository,
	firebase FirebaseVerifier,
	sessions SessionManager,
	codes otp.Store,
	mailer CodeMailer,
	validator *validator.AuthValidator,
	cfg *config.Config,
) AuthService {
	return &authService{
		users:      users,
		admins:     admins,
		firebase:   firebase,
		sessions:   sessions,
		codes:      codes,
		mailer:     mailer,
		validator:  validator,
		cfg:        cfg,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
		compare:    bcrypt.CompareHashAndPassword,
	}
}

// HashPassword is shared with the admin bootstrap in cmd/migrate.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *authService) Resolve(ctx context.Context, cred identity.Credential) (*identity.Identity, error) {
	switch c := cred.(type) {
	case identity.SessionCredential:
		return s.sessions.Verify(c.Token())
	case identity.FirebaseCredential:
		return s.resolveFirebase(ctx, c)
	default:
		return nil, identity.ErrUnsupportedCredential
	}
}

func (s *authService) resolveFirebase(ctx context.Context, cred identity.FirebaseCredential) (*identity.Identity, error) {
	claims, err := s.firebase.Verify(ctx, cred.Token())
	if err != nil {
		return nil, err
	}

	user, err := s.users.UpsertFromFirebase(ctx, repository.FirebaseProfile{
		UID:   claims.Subject,
		Name:  sanitizer.CleanText(claims.Name),
		Email: sanitizer.SanitizeEmail(claims.Email),
		Phone: sanitizer.SanitizePhone(claims.Phone),
	})
	if err != nil {
		s.cfg.Log.Error("Failed to upsert firebase user", "firebase_uid", claims.Subject, logger.Err(err))
		return nil, apperrors.Internal("Failed to load user profile", err)
	}

	return &identity.Identity{
		UserID: user.ID,
		Kind:   identity.KindFirebase,
		Role:   identity.RoleUser,
		Email:  user.Email,
		Name:   user.Name,
		Phone:  user.Phone,
	}, nil
}

// AdminLogin checks the password and e-mails a one-time code. Unknown
// e-mails and wrong passwords fail identically.
func (s *authService) AdminLogin(ctx context.Context, req *model.AdminLogin) error {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation("Invalid login request", map[string]any{"error": err.Error()})
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, autherrors.ErrAdminNotFound) {
			_ = s.compare(dummyPasswordHash(), []byte(req.Password))
			s.cfg.Log.Warn("Admin login for unknown email", "email", req.Email)
			return invalidCredentials()
		}
		s.cfg.Log.Error("Failed to load admin", "email", req.Email, logger.Err(err))
		return apperrors.Internal("Failed to process login", err)
	}

	if s.compare([]byte(admin.PasswordHash), []byte(req.Password)) != nil {
		s.cfg.Log.Warn("Admin login with wrong password", "admin_id", admin.ID)
		return invalidCredentials()
	}

	return s.sendCode(ctx, purposeLogin, admin.Email, "লগইন")
}

func invalidCredentials() error {
	return apperrors.Unauthorized("Invalid email or password")
}

func (s *authService) sendCode(ctx context.Context, purpose, email, label string) error {
	code, err := otp.Generate(s.cfg.OTPLength)
	if err != nil {
		return apperrors.Internal("Failed to generate code", err)
	}
	if err := s.codes.Put(ctx, codeKey(purpose, email), code); err != nil {
		s.cfg.Log.Error("Failed to store one-time code", "purpose", purpose, logger.Err(err))
		return apperrors.Internal("Failed to store code", err)
	}

	data := mailer.OTPData{Code: code, Purpose: label, Minutes: int(s.cfg.OTPTTL.Minutes())}
	if err := s.mailer.Send(ctx, email, mailer.TemplateOTP, data); err != nil {
		s.cfg.Log.Error("Failed to email one-time code", "purpose", purpose, "email", email, logger.Err(err))
		if errors.Is(err, mailer.ErrDisabled) {
			return apperrors.Unavailable("Mail delivery")
		}
		return apperrors.Internal("Failed to send code", err)
	}

	s.cfg.Log.Info("One-time code sent", "purpose", purpose, "email", email)
	return nil
}

func codeKey(purpose, email string) string {
	return purpose + ":" + email
}

func (s *authService) verifyCode(ctx context.Context, purpose, email, code string) error {
	err := s.codes.Verify(ctx, codeKey(purpose, email), code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otp.ErrCodeExpired):
		return apperrors.Unauthorized("Code has expired")
	case errors.Is(err, otp.ErrCodeInvalid):
		return apperrors.Unauthorized("Invalid code")
	case errors.Is(err, otp.ErrTooManyAttempts):
		return apperrors.Unauthorized("Too many attempts, request a new code")
	default:
		s.cfg.Log.Error("Failed to verify one-time code", "purpose", purpose, logger.Err(err))
		return apperrors.Internal("Failed to verify code", err)
	}
}

func (s *authService) AdminVerify(ctx context.Context, req *model.AdminVerify) (*model.Session, error) {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	req.Code = sanitizer.CleanText(req.Code)
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Invalid verification request", map[string]any{"error": err.Error()})
	}

	if err := s.verifyCode(ctx, purposeLogin, req.Email, req.Code); err != nil {
		return nil, err
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, autherrors.ErrAdminNotFound) {
			return nil, invalidCredentials()
		}
		return nil, apperrors.Internal("Failed to load admin", err)
	}

	now := s.now()
	if err := s.admins.TouchLogin(ctx, admin.ID, now); err != nil {
		s.cfg.Log.Warn("Failed to record admin login", "admin_id", admin.ID, logger.Err(err))
	} else {
		admin.LastLoginAt = &now
	}

	token, expiresAt, err := s.sessions.Issue(identity.Identity{
		UserID: admin.ID,
		Kind:   identity.KindSession,
		Role:   identity.RoleAdmin,
		Email:  admin.Email,
		Name:   admin.Name,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to issue session", err)
	}

	s.cfg.Log.Info("Admin signed in", "admin_id", admin.ID)
	return &model.Session{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// ForgotPassword answers the same way whether or not the e-mail belongs
// to an admin.
func (s *authService) ForgotPassword(ctx context.Context, req *model.PasswordForgot) error {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation("Invalid request", map[string]any{"error": err.Error()})
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, autherrors.ErrAdminNotFound) {
			s.cfg.Log.Warn("Password reset for unknown email", "email", req.Email)
			return nil
		}
		return apperrors.Internal("Failed to process request", err)
	}

	return s.sendCode(ctx, purposeReset, admin.Email, "পাসওয়ার্ড পরিবর্তন")
}

func (s *authService) ResetPassword(ctx context.Context, req *model.PasswordReset) error {
	req.Email = sanitizer.SanitizeEmail(req.Email)
	req.Code = sanitizer.CleanText(req.Code)
	if err := s.validator.Validate(req); err != nil {
		return apperrors.Validation("Invalid password reset", map[string]any{"error": err.Error()})
	}

	if err := s.verifyCode(ctx, purposeReset, req.Email, req.Code); err != nil {
		return err
	}

	admin, err := s.admins.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, autherrors.ErrAdminNotFound) {
			return apperrors.Unauthorized("Invalid code")
		}
		return apperrors.Internal("Failed to load admin", err)
	}

	hash, err := HashPassword(req.NewPassword, s.bcryptCost)
	if err != nil {
		return apperrors.Internal("Failed to reset password", err)
	}
	if err := s.admins.UpdatePassword(ctx, admin.ID, hash); err != nil {
		s.cfg.Log.Error("Failed to update admin password", "admin_id", admin.ID, logger.Err(err))
		return apperrors.Internal("Failed to reset password", err)
	}

	s.cfg.Log.Info("Admin password reset", "admin_id", admin.ID)
	return nil
}

func (s *authService) CreateAdmin(ctx context.Context, req *model.AdminCreate) (*model.Admin, error) {
	req.Name = sanitizer.CleanText(req.Name)
	req.Email = sanitizer.SanitizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, apperrors.Validation("Invalid admin input", map[string]any{"error": err.Error()})
	}

	hash, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("Failed to create admin", err)
	}

	admin := &model.Admin{Name: req.Name, Email: req.Email, PasswordHash: hash}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, autherrors.ErrDuplicateEmail) {
			return nil, apperrors.Duplicate("An admin with this email already exists")
		}
		s.cfg.Log.Error("Failed to create admin", "email", req.Email, logger.Err(err))
		return nil, apperrors.Internal("Failed to create admin", err)
	}

	s.cfg.Log.Info("Admin created successfully", "admin_id", admin.ID, "email", admin.Email)
	return admin, nil
}

func (s *authService) ListAdmins(ctx context.Context) ([]*model.Admin, error) {
	admins, err := s.admins.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to list admins", logger.Err(err))
		return nil, apperrors.Internal("Failed to retrieve admins", err)
	}
	return admins, nil
}

func (s *authService) Me(ctx context.Context, requester *identity.Identity) (*Profile, error) {
	if requester.IsAdmin() {
		admin, err := s.admins.FindByID(ctx, requester.UserID)
		if err != nil {
			return nil, s.mapRepoError(err, "Admin", requester.UserID)
		}
		return &Profile{Role: identity.RoleAdmin, Admin: admin}, nil
	}

	user, err := s.users.FindByID(ctx, requester.UserID)
	if err != nil {
		return nil, s.mapRepoError(err, "User", requester.UserID)
	}
	return &Profile{Role: identity.RoleUser, User: user}, nil
}

func (s *authService) UpdateProfile(ctx context.Context, requester *identity.Identity, update *model.UserProfileUpdate) (*model.User, error) {
	if requester.IsAdmin() {
		return nil, apperrors.Forbidden("Only devotee profiles can be edited here")
	}
	if err := s.validator.NormalizeProfile(update); err != nil {
		return nil, apperrors.Validation("Invalid profile update", map[string]any{"error": err.Error()})
	}

	user, err := s.users.Update(ctx, requester.UserID, update)
	if err != nil {
		return nil, s.mapRepoError(err, "User", requester.UserID)
	}

	s.cfg.Log.Info("User profile updated", "user_id", user.ID)
	return user, nil
}

func (s *authService) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *authService) AdminEmails(ctx context.Context) ([]string, error) {
	return s.admins.Emails(ctx)
}

func (s *authService) UserEmails(ctx context.Context) ([]string, error) {
	return s.users.Emails(ctx)
}

func (s *authService) mapRepoError(err error, resource, id string) error {
	switch {
	case errors.Is(err, autherrors.ErrUserNotFound), errors.Is(err, autherrors.ErrAdminNotFound):
		return apperrors.NotFoundWithID(resource, id)
	case errors.Is(err, autherrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid " + resource + " ID format")
	default:
		s.cfg.Log.Error("Failed to load "+resource, "id", id, logger.Err(err))
		return apperrors.Internal("Failed to load "+resource, err)
	}
}
