package framedata

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"

	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// Annotator overlays features and a label on an image for display. It only writes pixels of
// img and never modifies the features.
type Annotator interface {
	Annotate(img draw.Image, features []keypoints.Feature, label string) error
}

// GGAnnotator draws a circle per feature, a tick in the feature's orientation and the label in
// the top left corner.
type GGAnnotator struct {
	MarkerColor  color.Color
	LabelColor   color.Color
	MarkerRadius float64
	FontSize     float64
}

// NewGGAnnotator returns an annotator with the default look.
func NewGGAnnotator() *GGAnnotator {
	return &GGAnnotator{
		MarkerColor:  color.RGBA{255, 0, 0, 255},
		LabelColor:   color.RGBA{0, 255, 255, 255},
		MarkerRadius: 4,
		FontSize:     14,
	}
}

// Annotate implements Annotator.
func (a *GGAnnotator) Annotate(img draw.Image, features []keypoints.Feature, label string) error {
	bounds := img.Bounds()
	dc := gg.NewContextForImage(img)
	for _, f := range features {
		x, y := f.X, f.Y
		rimage.DrawCircleEmpty(dc, x, y, a.MarkerRadius, a.MarkerColor, 1)
		if f.Orientation != 0 {
			dc.DrawLine(x, y, x+a.MarkerRadius*math.Cos(f.Orientation), y+a.MarkerRadius*math.Sin(f.Orientation))
			dc.Stroke()
		}
	}
	if label != "" {
		rimage.DrawString(dc, label, image.Point{5, 20}, a.LabelColor, a.FontSize)
	}
	draw.Draw(img, bounds, dc.Image(), bounds.Min, draw.Src)
	return nil
}
