package assets

import (
	"context"
	"fmt"
	"path"
	"strings"

	"directory-backend/internal/apperr"
	"directory-backend/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Category string

const (
	CategoryBranch Category = "branch"
	CategoryBrand  Category = "brand"
)

// Backend persists objects by key. Remove must return nil for a missing key.
type Backend interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// Manager stores images under "<category>/<uuid>.<ext>".
type Manager struct {
	backend  Backend
	maxBytes int64
	log      *zap.Logger
}

func NewManager(backend Backend, maxKB int64, log *zap.Logger) *Manager {
	return &Manager{
		backend:  backend,
		maxBytes: maxKB * 1024,
		log:      log,
	}
}

func Key(category Category, name string) string {
	return path.Join(string(category), name)
}

// Store writes data and returns the generated file name. Errors are IOFailure.
func (m *Manager) Store(ctx context.Context, data []byte, ext string, category Category) (string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}

	err := m.backend.Put(ctx, Key(category, name), data, contentTypeFor(ext))
	metrics.AssetOps.WithLabelValues("store", string(category), metrics.Result(err)).Inc()
	if err != nil {
		m.log.Error("image store failed", zap.String("category", string(category)), zap.Error(err))
		return "", apperr.IO("could not store image", err)
	}
	return name, nil
}

// Delete is idempotent: a missing file is not an error.
func (m *Manager) Delete(ctx context.Context, name string, category Category) error {
	if name == "" {
		return nil
	}

	err := m.backend.Remove(ctx, Key(category, name))
	metrics.AssetOps.WithLabelValues("delete", string(category), metrics.Result(err)).Inc()
	if err != nil {
		return apperr.IO(fmt.Sprintf("could not delete image %s", name), err)
	}
	return nil
}

// StoreUpload validates an uploaded file and stores it.
func (m *Manager) StoreUpload(ctx context.Context, up Upload, category Category) (string, error) {
	data, ext, err := Validate(up, m.maxBytes)
	if err != nil {
		return "", err
	}
	return m.Store(ctx, data, ext, category)
}

func (m *Manager) URL(category Category, name string) string {
	if name == "" {
		return ""
	}
	return m.backend.URL(Key(category, name))
}

func contentTypeFor(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
