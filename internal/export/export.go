package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxNameAttempts = 1000

// DirExporter writes local export artifacts into a directory, one subdirectory
// per participant client.
type DirExporter struct {
	dir string
}

func NewDirExporter(dir string) (*DirExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	return &DirExporter{dir: dir}, nil
}

// ForClient returns an exporter scoped to one client's subdirectory.
func (e *DirExporter) ForClient(clientID string) *DirExporter {
	return &DirExporter{dir: filepath.Join(e.dir, clientID)}
}

func (e *DirExporter) Dir() string {
	return e.dir
}

// Export writes data under name and never replaces an existing file: a taken
// name gets a " (n)" suffix before the extension, the way a browser saves a
// repeated download.
func (e *DirExporter) Export(_ context.Context, name string, data []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid export name %q", name)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", base, n, ext)
		}
		f, err := os.OpenFile(filepath.Join(e.dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create export %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return fmt.Errorf("failed to write export %s: %w", candidate, err)
		}
		return f.Close()
	}
	return fmt.Errorf("failed to write export %s: too many files with this name", name)
}
