package items

import (
	"context"
	"fmt"
	"io"
	"path"
	"reflect"
	"strings"

	"github.com/erazemk/itemadmin/internal/storage"
)

// Image modes as sent by clients.
const (
	ImageModeDefault = "default"
	ImageModeBrowse  = "browse"
	ImageModeUpload  = "upload"
)

// ImageSource says where an item's image comes from. The implementations
// are DefaultImage, BrowseImage and UploadImage.
type ImageSource interface {
	imageSource()
}

// DefaultImage keeps the shop's default image.
type DefaultImage struct{}

// BrowseImage selects an image already present in storage.
type BrowseImage struct {
	Name string
}

// UploadImage stores a newly uploaded file.
type UploadImage struct {
	File     io.ReadSeeker
	Filename string
}

func (DefaultImage) imageSource() {}
func (BrowseImage) imageSource()  {}
func (UploadImage) imageSource()  {}

// ParseImageMode maps a client-supplied mode to an ImageSource. name is used
// by browse mode and upload by upload mode; the other is ignored.
func ParseImageMode(mode, name string, upload *UploadImage) (ImageSource, error) {
	switch mode {
	case ImageModeDefault:
		return DefaultImage{}, nil
	case ImageModeBrowse:
		return BrowseImage{Name: name}, nil
	case ImageModeUpload:
		if upload == nil {
			return UploadImage{}, nil
		}
		return *upload, nil
	default:
		return nil, fmt.Errorf("%w (%q) of image mode", ErrUnexpectedValue, mode)
	}
}

// Mover places a file into image storage under name, replacing any file
// already stored under that name.
type Mover interface {
	Move(ctx context.Context, name string, src io.ReadSeeker) error
}

// Resolver turns an ImageSource into the image name stored on an item.
type Resolver struct {
	Hasher  Hasher
	Storage Mover
}

// NewResolver creates a resolver. A nil hasher selects SHA256.
func NewResolver(h Hasher, storage Mover) *Resolver {
	if h == nil {
		h = SHA256
	}
	return &Resolver{Hasher: h, Storage: storage}
}

// Resolve returns the image name, or nil for the default image. Only upload
// sources have a side effect: the file is written to storage under a name
// derived from its contents, so identical uploads share one file.
func (r *Resolver) Resolve(ctx context.Context, src ImageSource) (*string, error) {
	switch s := src.(type) {
	case DefaultImage:
		return nil, nil
	case BrowseImage:
		if s.Name == "" {
			return nil, fmt.Errorf("%w: browse mode requires an image name", ErrInvalidArgumentType)
		}
		if err := storage.ValidName(s.Name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgumentType, err)
		}
		name := s.Name
		return &name, nil
	case UploadImage:
		if isNil(s.File) {
			return nil, fmt.Errorf("%w: upload mode requires an uploaded file", ErrInvalidArgumentType)
		}
		name, err := r.moveAndName(ctx, s)
		if err != nil {
			return nil, err
		}
		return &name, nil
	default:
		return nil, fmt.Errorf("%w (%T) of image source", ErrUnexpectedValue, src)
	}
}

// isNil reports whether f is nil or an interface holding a nil pointer.
func isNil(f io.ReadSeeker) bool {
	if f == nil {
		return true
	}
	v := reflect.ValueOf(f)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// moveAndName hashes and stores the whole file, whatever its current offset.
func (r *Resolver) moveAndName(ctx context.Context, up UploadImage) (string, error) {
	if _, err := up.File.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding upload: %w", err)
	}
	hash, err := r.Hasher.Hash(up.File)
	if err != nil {
		return "", err
	}

	if _, err := up.File.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding upload: %w", err)
	}

	name := ContentName(hash, up.Filename)
	if err := r.Storage.Move(ctx, name, up.File); err != nil {
		return "", fmt.Errorf("storing image %s: %w", name, err)
	}

	return name, nil
}

// ContentName builds "{hash}.{ext}" from the extension of the original
// filename. Without an extension the name is the hash alone.
func ContentName(hash, originalFilename string) string {
	// Clients may send full paths, with either separator.
	base := path.Base(strings.ReplaceAll(originalFilename, `\`, "/"))
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if ext == "" {
		return hash
	}
	return hash + "." + ext
}
