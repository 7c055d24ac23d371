package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalBackend writes under a root directory served statically at urlPrefix.
type LocalBackend struct {
	root      string
	urlPrefix string
}

func NewLocalBackend(root, urlPrefix string) *LocalBackend {
	return &LocalBackend{root: root, urlPrefix: urlPrefix}
}

func (b *LocalBackend) Root() string { return b.root }

func (b *LocalBackend) Put(_ context.Context, key string, data []byte, _ string) error {
	dst := filepath.Join(b.root, filepath.FromSlash(key))
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	// write to a temp file and rename; dst never holds a partial image
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) Remove(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(b.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (b *LocalBackend) URL(key string) string {
	return b.urlPrefix + "/" + key
}
