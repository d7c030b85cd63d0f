// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package imageio writes rendered rasters to image files. The encoder is
// chosen from the file extension.
package imageio

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format identifies an output encoding.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WebP Format = "webp"
	TGA  Format = "tga"
)

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 95

// ErrUnknownFormat is returned for file extensions without an encoder.
var ErrUnknownFormat = errors.New("imageio: unknown image format")

var extensions = map[string]Format{
	".png":  PNG,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".bmp":  BMP,
	".tif":  TIFF,
	".tiff": TIFF,
	".webp": WebP,
	".tga":  TGA,
}

// FormatFromPath returns the format implied by the extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return f, nil
}

// rgbaConverter is implemented by rasters with a fast *image.RGBA view.
type rgbaConverter interface {
	ToRGBA() *image.RGBA
}

// Encode writes img to w in format f.
func Encode(w io.Writer, f Format, img image.Image) error {
	if c, ok := img.(rgbaConverter); ok {
		img = c.ToRGBA()
	}

	var err error
	switch f {
	case PNG:
		err = png.Encode(w, img)
	case JPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case BMP:
		err = bmp.Encode(w, img)
	case TIFF:
		err = tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case WebP:
		err = nativewebp.Encode(w, img, nil)
	case TGA:
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
	if err != nil {
		return fmt.Errorf("imageio: encode %s: %w", f, err)
	}
	return nil
}

// Save writes img to path, choosing the encoder from the extension. A partly
// written file is removed on failure.
func Save(path string, img image.Image) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imageio: create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("imageio: close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	w := bufio.NewWriter(file)
	if err := Encode(w, f, img); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("imageio: write %s: %w", path, err)
	}
	return nil
}
