package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"shipdocs/internal/domain"
	"shipdocs/internal/port"
)

type localClient struct {
	root string
}

// NewLocalClient creates a filesystem-backed ObjectStorage rooted at dir.
// Intended for development and single-node deployments.
func NewLocalClient(dir string) (port.ObjectStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return &localClient{root: dir}, nil
}

func (c *localClient) Upload(_ context.Context, input port.UploadInput) error {
	path, err := c.resolve(input.Key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("local upload: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("local upload: %w", err)
	}
	if _, err := io.Copy(f, input.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("local upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("local upload: %w", err)
	}
	return nil
}

func (c *localClient) Download(_ context.Context, key string) ([]byte, error) {
	path, err := c.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("local download: %w", err)
	}
	return data, nil
}

func (c *localClient) Delete(_ context.Context, key string) error {
	path, err := c.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("local delete: %w", err)
	}
	return nil
}

// resolve maps a key to a path under the root, rejecting traversal.
func (c *localClient) resolve(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(c.root, filepath.FromSlash(key)), nil
}
