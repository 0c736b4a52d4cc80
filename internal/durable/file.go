package durable

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"arguesurvey/internal/survey"
)

// FileBackend stores each key as a file under <baseDir>/<clientID>/.
type FileBackend struct {
	baseDir string
}

func NewFileBackend(baseDir string) (*FileBackend, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return &FileBackend{baseDir: baseDir}, nil
}

func (b *FileBackend) For(clientID string) (survey.DurableStore, error) {
	if err := checkClientID(clientID); err != nil {
		return nil, err
	}
	return &fileStore{dir: filepath.Join(b.baseDir, clientID)}, nil
}

func (b *FileBackend) Close() error { return nil }

type fileStore struct {
	dir string
}

func (s *fileStore) Get(_ context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), true, nil
}

// Set writes through a temp file so a crash never leaves a torn value.
func (s *fileStore) Set(_ context.Context, key, value string) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create client directory: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), filepath.Join(s.dir, key))
}
