package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	// Decoders for Thumbnail.
	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize is the default maximum width or height of thumbnails.
const DefaultThumbnailSize = 128

// MaxThumbnailSize caps requested thumbnail sizes.
const MaxThumbnailSize = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxPixels caps the declared width*height of images Thumbnail will decode.
const MaxPixels = 50_000_000

// ErrTooLarge is returned by Thumbnail for images above MaxPixels.
var ErrTooLarge = errors.New("image dimensions too large")

// AllowedMIME lists the accepted upload MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// Sniff detects the MIME type of r from its content (not trusting client
// headers) and rewinds it. It fails for anything but an allowed image type.
func Sniff(r io.ReadSeeker) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detecting image type: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding image: %w", err)
	}

	if !AllowedMIME[m.String()] {
		return "", fmt.Errorf("unsupported image format: %s (only JPEG, PNG, WebP and GIF accepted)", m.String())
	}
	return m.String(), nil
}

// Thumbnail decodes an image and re-encodes it as JPEG, downscaled so that
// neither dimension exceeds maxDim. The header is checked against MaxPixels
// before the pixel data is decoded.
func Thumbnail(r io.Reader, maxDim int) ([]byte, error) {
	if maxDim <= 0 {
		maxDim = DefaultThumbnailSize
	}
	if maxDim > MaxThumbnailSize {
		maxDim = MaxThumbnailSize
	}

	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(io.MultiReader(&header, r))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = downscale(img, maxDim)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim.
// Uses high-quality Catmull-Rom interpolation.
// Returns the original image if already within bounds.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	// Calculate new dimensions preserving aspect ratio.
	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
