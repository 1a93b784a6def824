// Package media stores uploaded images on local disk alongside a
// fixed-width thumbnail.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"birshibpur/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	ThumbnailWidth = 400
	PublicPrefix   = "/uploads/"
	thumbDir       = "thumb"
)

var (
	ErrUnsupportedType = errors.New("only JPEG, PNG and GIF images are accepted")
	ErrInvalidImage    = errors.New("image could not be decoded")
)

var allowed = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/gif":  {".gif"},
}

type Saved struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Upload is an incoming image file as read from a multipart form.
type Upload struct {
	Filename string
	Body     io.Reader
}

type Store struct {
	dir     string
	baseURL string
	log     *logger.Logger
}

func NewStore(dir, publicBaseURL string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		log:     log,
	}, nil
}

// Save validates src by extension and sniffed content type, then writes
// the re-encoded original and its thumbnail under kind.
func (s *Store) Save(kind, filename string, src io.Reader) (*Saved, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mimeType := http.DetectContentType(head)
	ext := strings.ToLower(filepath.Ext(filename))
	if !extensionAllowed(mimeType, ext) {
		return nil, ErrUnsupportedType
	}

	img, err := imaging.Decode(io.MultiReader(bytes.NewReader(head), src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	kindDir := filepath.Join(s.dir, kind)
	if err := os.MkdirAll(filepath.Join(kindDir, thumbDir), 0o755); err != nil {
		return nil, fmt.Errorf("create %s directory: %w", kind, err)
	}

	name := uuid.NewString() + ext
	originalPath := filepath.Join(kindDir, name)
	thumbnailPath := filepath.Join(kindDir, thumbDir, name)

	if err := imaging.Save(img, originalPath); err != nil {
		return nil, fmt.Errorf("save original image: %w", err)
	}
	if err := imaging.Save(thumbnail(img), thumbnailPath); err != nil {
		_ = os.Remove(originalPath)
		return nil, fmt.Errorf("save thumbnail: %w", err)
	}

	return &Saved{
		URL:          s.publicURL(kind, name),
		ThumbnailURL: s.publicURL(path.Join(kind, thumbDir), name),
	}, nil
}

// IsRejected reports whether err rejects the uploaded file itself rather
// than a storage failure.
func IsRejected(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrInvalidImage)
}

func thumbnail(img image.Image) image.Image {
	if img.Bounds().Dx() <= ThumbnailWidth {
		return img
	}
	return imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
}

func extensionAllowed(mimeType, ext string) bool {
	for _, e := range allowed[mimeType] {
		if e == ext {
			return true
		}
	}
	return false
}

func (s *Store) publicURL(dir, name string) string {
	return s.baseURL + PublicPrefix + path.Join(dir, name)
}

// Delete removes the files behind urls. Unknown or foreign URLs are
// ignored; failures are logged.
func (s *Store) Delete(urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		p, ok := s.localPath(u)
		if !ok {
			s.log.Warn("Refusing to delete media outside upload directory", "url", u)
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("Failed to delete media file", "path", p, logger.Err(err))
		}
	}
}

func (s *Store) localPath(u string) (string, bool) {
	rel, ok := strings.CutPrefix(u, s.baseURL+PublicPrefix)
	if !ok {
		return "", false
	}
	p := filepath.Join(s.dir, filepath.FromSlash(rel))
	r, err := filepath.Rel(s.dir, p)
	if err != nil || r == "." || strings.HasPrefix(r, "..") {
		return "", false
	}
	return p, true
}

// Handler serves stored files under PublicPrefix.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(PublicPrefix, http.FileServer(noDirFS{http.Dir(s.dir)}))
}

// noDirFS hides directory listings.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
