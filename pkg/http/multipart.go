package http

import (
	"errors"
	"mime/multipart"
	"net/http"

	apperrors "birshibpur/pkg/errors"
)

// multipartMemory is how much of a form is buffered in memory before
// file parts spill to temporary files.
const multipartMemory = 8 << 20

// ParseMultipart parses a multipart/form-data body. The body size itself
// is capped by the MaxRequestSize middleware.
func ParseMultipart(r *http.Request) error {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.New(apperrors.CodeBadRequest, "Upload is too large", http.StatusRequestEntityTooLarge)
		}
		return apperrors.InvalidInput("Request must be a valid multipart form")
	}
	return nil
}

// OptionalFile returns the named file part, or a nil file when the form
// has none. The caller closes a non-nil file.
func OptionalFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperrors.InvalidInput("Invalid " + field + " upload")
	}
	return file, header, nil
}
