package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrInvalidObjectName is returned for bucket or object names that would escape the bucket
var ErrInvalidObjectName = errors.New("invalid object name")

// Uploader stores a blob and returns the public URL it can be fetched from
type Uploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)
}

// LocalUploader stores objects under rootDir/<bucket>/<object> and serves them
// read-only through Handler.
type LocalUploader struct {
	rootDir       string
	publicBaseURL string
	logger        *zap.Logger
}

// NewLocalUploader creates a LocalUploader. publicBaseURL is the URL Handler is mounted at.
func NewLocalUploader(rootDir, publicBaseURL string, logger *zap.Logger) *LocalUploader {
	return &LocalUploader{
		rootDir:       rootDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Upload writes the object and returns its public URL. The object becomes
// visible only once fully written. Only images whose content matches the
// object's extension are accepted; the declared contentType is not trusted.
func (u *LocalUploader) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error) {
	if !validName(bucket) || !validName(object) {
		return "", fmt.Errorf("%w: %s/%s", ErrInvalidObjectName, bucket, object)
	}
	want, ok := ImageType(object)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMedia, object)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	detected, r, err := sniff(r)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	if !isType(detected, want) {
		return "", fmt.Errorf("%w: %s content is %s", ErrUnsupportedMedia, object, detected.String())
	}

	dir := filepath.Join(u.rootDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create bucket directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create object: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, object)); err != nil {
		return "", fmt.Errorf("failed to publish object: %w", err)
	}

	u.logger.Debug("object stored",
		zap.String("bucket", bucket),
		zap.String("object", object),
		zap.String("content_type", want),
		zap.String("declared_content_type", contentType))

	return u.PublicURL(bucket, object), nil
}

// PublicURL returns the URL an object is served at
func (u *LocalUploader) PublicURL(bucket, object string) string {
	return u.publicBaseURL + "/" + url.PathEscape(bucket) + "/" + url.PathEscape(object)
}

// Handler serves stored objects; mount it with the prefix stripped. The
// Content-Type comes from the image allow-list, never from content sniffing,
// and anything outside the list is served as an attachment.
func (u *LocalUploader) Handler() http.Handler {
	fs := http.FileServer(http.Dir(u.rootDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// no directory listings and no temp files
		clean := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") || strings.HasPrefix(path.Base(clean), ".") {
			http.NotFound(w, r)
			return
		}
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		if mediaType, ok := ImageType(clean); ok {
			h.Set("Content-Type", mediaType)
		} else {
			h.Set("Content-Type", "application/octet-stream")
			h.Set("Content-Disposition", "attachment")
		}
		fs.ServeHTTP(w, r)
	})
}

// ObjectName builds the stored name for an uploaded file: <unix-millis>_<base name>
func ObjectName(now time.Time, filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload"
	}
	return fmt.Sprintf("%d_%s", now.UnixMilli(), base)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
