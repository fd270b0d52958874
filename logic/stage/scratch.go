// Package stage owns the scratch directory: per-request upload staging,
// converter output directories and the expiry sweep.
package stage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"convert-gateway/vars"
)

var ErrInvalidID = errors.New("invalid staging id")

// StagedFile is an upload written to its own directory under uploads/.
type StagedFile struct {
	ID   string
	Name string
	Path string
	Size int64
}

// Scratch is rooted at a directory holding uploads/<id>/ and output/<id>/.
type Scratch struct {
	root string
}

// NewScratch creates the root layout if missing.
func NewScratch(root string) (*Scratch, error) {
	for _, dir := range []string{vars.UploadsDir, vars.OutputDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o750); err != nil {
			return nil, fmt.Errorf("creating scratch %s: %w", dir, err)
		}
	}
	return &Scratch{root: root}, nil
}

// Root returns the scratch root.
func (s *Scratch) Root() string { return s.root }

// Stage streams src into uploads/<id>/<name>. The file is created exclusively;
// on a write failure the partial directory is removed.
func (s *Scratch) Stage(id, name string, src io.Reader) (*StagedFile, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("staging %q: unsafe file name", name)
	}

	dir := filepath.Join(s.root, vars.UploadsDir, id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating staging dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("creating staged file: %w", err)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("writing staged file: %w", err)
	}

	return &StagedFile{ID: id, Name: name, Path: path, Size: n}, nil
}

// OutputDir returns output/<id>, creating it if absent.
func (s *Scratch) OutputDir(id string) (string, error) {
	if err := validateID(id); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, vars.OutputDir, id)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	return dir, nil
}

// Sweep removes uploads/<id> and output/<id> entries last modified before
// cutoff. It returns an id only once neither of its directories remains, so a
// conversion whose output is still fresh is not reported.
func (s *Scratch) Sweep(cutoff time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	var touched []string
	var errs []error

	for _, sub := range []string{vars.UploadsDir, vars.OutputDir} {
		base := filepath.Join(s.root, sub)
		entries, err := os.ReadDir(base)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		for _, entry := range entries {
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.RemoveAll(filepath.Join(base, entry.Name())); err != nil {
				errs = append(errs, err)
				continue
			}
			if _, ok := seen[entry.Name()]; !ok {
				seen[entry.Name()] = struct{}{}
				touched = append(touched, entry.Name())
			}
		}
	}

	var removed []string
	for _, id := range touched {
		gone, err := s.gone(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if gone {
			removed = append(removed, id)
		}
	}
	return removed, errors.Join(errs...)
}

// gone reports whether both scratch directories of id are absent.
func (s *Scratch) gone(id string) (bool, error) {
	for _, sub := range []string{vars.UploadsDir, vars.OutputDir} {
		_, err := os.Stat(filepath.Join(s.root, sub, id))
		if err == nil {
			return false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return true, nil
}

func validateID(id string) error {
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
