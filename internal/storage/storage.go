// Package storage keeps item images, either in a local directory or in an
// S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotExist is returned by Open for names with no stored image.
var ErrNotExist = errors.New("image does not exist")

// ErrInvalidName is returned for names that are not plain file names.
var ErrInvalidName = errors.New("invalid image name")

// Store holds images by name. Move replaces an existing image with the same name.
type Store interface {
	Move(ctx context.Context, name string, src io.ReadSeeker) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]string, error)
}

// ValidName checks that name can be used as a stored image name.
func ValidName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidName, name)
	}
	for _, c := range name {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidName, name)
		}
	}
	return nil
}
