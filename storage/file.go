package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// File keeps each namespace in its own directory under root and each key in
// <key>.json. Writes go to a temp file that is synced and renamed over the
// target, so a reader never opens a half-written snapshot.
type File struct {
	root   string
	logger *log.Logger
}

func NewFile(root string, logger *log.Logger) *File {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &File{root: root, logger: logger}
}

func (f *File) Close() error { return nil }

func (f *File) Provision(_ context.Context, namespace string) error {
	dir, err := f.dir(namespace)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create namespace dir: %w", err)
	}
	return nil
}

func (f *File) Get(_ context.Context, namespace, key string) ([]byte, bool) {
	path, err := f.path(namespace, key)
	if err != nil {
		f.logger.WithError(err).Debug("snapshot path rejected")
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.WithError(err).WithField("path", path).Debug("snapshot read failed")
		}
		return nil, false
	}
	return data, true
}

func (f *File) Set(_ context.Context, namespace, key string, value []byte) error {
	path, err := f.path(namespace, key)
	if err != nil {
		return unavailable(namespace, key, err)
	}
	dir := filepath.Dir(path)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return unavailable(namespace, key, err)
	}

	tmp, err := os.CreateTemp(dir, "."+key+"-*.tmp")
	if err != nil {
		return unavailable(namespace, key, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return unavailable(namespace, key, fmt.Errorf("write: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return unavailable(namespace, key, fmt.Errorf("sync: %w", err))
	}
	if err := tmp.Close(); err != nil {
		return unavailable(namespace, key, fmt.Errorf("close: %w", err))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return unavailable(namespace, key, fmt.Errorf("chmod: %w", err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return unavailable(namespace, key, fmt.Errorf("rename: %w", err))
	}
	return nil
}

func (f *File) dir(namespace string) (string, error) {
	if err := checkName(namespace); err != nil {
		return "", fmt.Errorf("namespace: %w", err)
	}
	return filepath.Join(f.root, namespace), nil
}

func (f *File) path(namespace, key string) (string, error) {
	dir, err := f.dir(namespace)
	if err != nil {
		return "", err
	}
	if err := checkName(key); err != nil {
		return "", fmt.Errorf("key: %w", err)
	}
	return filepath.Join(dir, key+".json"), nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
