package target

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileTarget persists the artifact as a single file under a cache
// directory. Writes are direct overwrites: no temp file, no atomic
// rename, no metadata sidecar.
type FileTarget struct {
	Dir      string
	Filename string
}

// NewFileTarget returns a file target for filepath.Join(dir, filename).
func NewFileTarget(dir, filename string) *FileTarget {
	return &FileTarget{Dir: dir, Filename: filename}
}

// Path returns the artifact's full path.
func (t *FileTarget) Path() string {
	return filepath.Join(t.Dir, t.Filename)
}

// Read returns the file's contents.
func (t *FileTarget) Read() ([]byte, error) {
	data, err := os.ReadFile(t.Path())
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Path(), err)
	}
	return data, nil
}

// Write overwrites or creates the file.
func (t *FileTarget) Write(data []byte) error {
	if err := os.WriteFile(t.Path(), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", t.Path(), err)
	}
	return nil
}

// Delete removes the file if present; absence is not an error.
func (t *FileTarget) Delete() error {
	if err := os.Remove(t.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", t.Path(), err)
	}
	return nil
}

// Exists reports regular-file presence at the artifact path.
func (t *FileTarget) Exists() (bool, error) {
	info, err := os.Stat(t.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", t.Path(), err)
	}
	return info.Mode().IsRegular(), nil
}

// DatedFileTarget is a FileTarget whose effective filename is prefixed
// with a fixed-width YYYYMMDD date supplied at construction.
type DatedFileTarget struct {
	FileTarget
	Date time.Time
}

// NewDatedFileTarget returns a file target for
// filepath.Join(dir, "YYYYMMDD_"+filename).
func NewDatedFileTarget(dir, filename string, date time.Time) *DatedFileTarget {
	return &DatedFileTarget{
		FileTarget: FileTarget{
			Dir:      dir,
			Filename: date.Format("20060102") + "_" + filename,
		},
		Date: date,
	}
}
