package rimage

import (
	"bufio"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"github.com/xfmoulet/qoi"
	"go.uber.org/multierr"
	"golang.org/x/image/bmp"
)

// ColorMode selects how a loaded image's channels are presented.
type ColorMode int

const (
	// ColorModeRGB always yields an 8 bit per channel color image.
	ColorModeRGB ColorMode = iota
	// ColorModeNative keeps the channel layout the file was stored with.
	ColorModeNative
)

// Codec loads images from storage.
type Codec interface {
	LoadImage(ctx context.Context, path string, mode ColorMode) (image.Image, error)
}

// FileCodec is a Codec reading local files. It understands bmp, png, jpeg, ppm and qoi.
type FileCodec struct{}

// LoadImage decodes the file at path. In ColorModeRGB the result is always an *image.NRGBA.
func (FileCodec) LoadImage(ctx context.Context, path string, mode ColorMode) (img image.Image, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	//nolint:gosec
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
		if err != nil {
			img = nil
		}
	}()

	decoded, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode %s", path)
	}
	if mode == ColorModeRGB {
		return imaging.Clone(decoded), nil
	}
	return decoded, nil
}

// WriteImageToFile encodes img to fn, choosing the format from the file extension.
func WriteImageToFile(fn string, img image.Image) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	switch ext := strings.ToLower(filepath.Ext(fn)); ext {
	case ".bmp":
		err = bmp.Encode(w, img)
	case ".png":
		err = png.Encode(w, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
	case ".ppm":
		err = ppm.Encode(w, img)
	case ".qoi":
		err = qoi.Encode(w, img)
	default:
		return errors.Errorf("rimage.WriteImageToFile unsupported format: %s", ext)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}
