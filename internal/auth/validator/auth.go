package validator

import (
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/sanitizer"
	"birshibpur/pkg/validation"
)

type AuthValidator struct {
	v *validation.Validator
}

func NewAuthValidator(log *logger.Logger) *AuthValidator {
	log.Info("Auth validator initialized successfully")
	return &AuthValidator{v: validation.New(log)}
}

func (av *AuthValidator) Validate(s any) error {
	return av.v.Struct(s)
}

// NormalizeProfile cleans the present fields in place and validates the
// result. A phone that cannot be read as an Indian or Bangladeshi
// number is rejected.
func (av *AuthValidator) NormalizeProfile(update *model.UserProfileUpdate) error {
	if update.Name != nil {
		name := sanitizer.CleanText(*update.Name)
		update.Name = &name
	}
	if update.Address != nil {
		address := sanitizer.CleanMultiline(*update.Address)
		update.Address = &address
	}
	if update.Phone != nil {
		phone := sanitizer.SanitizePhone(*update.Phone)
		if phone == "" {
			return validation.Single("phone", "phone must be a valid mobile number")
		}
		update.Phone = &phone
	}
	if update.Name == nil && update.Phone == nil && update.Address == nil {
		return validation.Single("body", "at least one field must be provided")
	}
	return av.v.Struct(update)
}
