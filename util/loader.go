package util

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem is the file access the converter needs. OSFilesystem is the
// production implementation; tests substitute their own to observe temp files.
type Filesystem interface {
	// Stat describes the file at path.
	Stat(path string) (fs.FileInfo, error)
	// ReadFile returns the full contents of path.
	ReadFile(path string) ([]byte, error)
	// WriteFile creates or truncates path and writes data to it.
	WriteFile(path string, data []byte) error
	// MkdirAll creates dir and any missing parents.
	MkdirAll(dir string) error
	// CreateTemp writes data to a new, uniquely named file ending in suffix and
	// returns its path. The caller must Remove it.
	CreateTemp(pattern, suffix string, data []byte) (string, error)
	// Remove deletes path.
	Remove(path string) error
}

// OSFilesystem implements Filesystem on the host operating system.
type OSFilesystem struct {
	// TempDir is where CreateTemp places files. Empty means os.TempDir().
	TempDir string
}

// Stat implements Filesystem.
func (OSFilesystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile implements Filesystem.
func (OSFilesystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile implements Filesystem.
func (OSFilesystem) WriteFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// MkdirAll implements Filesystem.
func (OSFilesystem) MkdirAll(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// CreateTemp implements Filesystem.
func (o OSFilesystem) CreateTemp(pattern, suffix string, data []byte) (string, error) {
	f, err := os.CreateTemp(o.TempDir, pattern+"*"+suffix)
	if err != nil {
		return "", err
	}
	name := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(name)
		return "", err
	}
	return name, nil
}

// Remove implements Filesystem.
func (OSFilesystem) Remove(path string) error {
	return os.Remove(path)
}

// IsWithin reports whether path, once made absolute and cleaned, lies inside dir.
//
// Arguments:
// - dir: The directory to test against, typically the working directory.
// - path: The path to test. Relative paths are resolved against dir.
//
// Returns:
// - bool: True if path is dir itself or a descendant of it.
func IsWithin(dir, path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
