package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// Dir stores images as files in a directory.
type Dir struct {
	root string
}

var _ Store = (*Dir)(nil)

// NewDir creates the directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating image directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the directory path.
func (d *Dir) Root() string {
	return d.root
}

// Move writes src to a temporary file and renames it into place, so readers
// never see a partially written image.
func (d *Dir) Move(ctx context.Context, name string, src io.ReadSeeker) error {
	if err := ValidName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(d.root, ".upload-"+uuid.NewString())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}

	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing image: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing image: %w", err)
	}

	if err := os.Rename(tmp, filepath.Join(d.root, name)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("moving image into place: %w", err)
	}
	return nil
}

// Open opens a stored image.
func (d *Dir) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.root, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	return f, nil
}

// List returns the stored image names in sorted order.
func (d *Dir) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("listing images: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || ValidName(e.Name()) != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
