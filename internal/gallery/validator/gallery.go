package validator

import (
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/validation"
)

type GalleryValidator struct {
	v *validation.Validator
}

func NewGalleryValidator(log *logger.Logger) *GalleryValidator {
	log.Info("Gallery validator initialized successfully")
	return &GalleryValidator{v: validation.New(log)}
}

func (gv *GalleryValidator) Validate(input *model.GalleryInput) error {
	return gv.v.Struct(input)
}
