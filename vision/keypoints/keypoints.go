// Package keypoints contains the image features tracked per frame and the detectors that
// produce them. For now:
// - FAST keypoints
// - BRIEF descriptors
package keypoints

import (
	"context"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Descriptor is the payload a detector attaches to a feature. Frames never interpret it.
type Descriptor []uint64

// Feature is a detected point of interest with its descriptor. Detectors hand the returned
// slice and every descriptor over to the caller: neither is retained or aliased afterwards,
// so dropping a feature drops its descriptor.
type Feature struct {
	X, Y        float64
	Score       float64
	Orientation float64
	Descriptor  Descriptor
}

// Point returns the pixel the feature lies on. Coordinates are rounded half to even.
func (f Feature) Point() image.Point {
	return image.Point{X: int(math.RoundToEven(f.X)), Y: int(math.RoundToEven(f.Y))}
}

// Detector finds features in an image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Feature, error)
}

// DetectorFunc adapts a function to a Detector.
type DetectorFunc func(ctx context.Context, img image.Image) ([]Feature, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]Feature, error) {
	return f(ctx, img)
}

// toGray converts any image to an 8 bit grayscale image with its origin at (0, 0).
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}
	nrgba := imaging.Grayscale(img)
	gray := image.NewGray(nrgba.Bounds())
	for y := 0; y < nrgba.Bounds().Dy(); y++ {
		for x := 0; x < nrgba.Bounds().Dx(); x++ {
			gray.SetGray(x, y, color.Gray{Y: nrgba.Pix[nrgba.PixOffset(x, y)]})
		}
	}
	return gray
}

// blurGray applies a gaussian blur of the given sigma.
func blurGray(img *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return img
	}
	return toGray(imaging.Blur(img, sigma))
}
