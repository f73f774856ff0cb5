package framedata

import (
	"context"
	"image"
	"image/color"
	"testing"

	"go.viam.com/test"

	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// writeFrame stores frame id in dir as the color and depth bmp files a Frame loads.
func writeFrame(t *testing.T, dir string, id, width, height int, depthAt func(x, y int) rimage.Depth) {
	t.Helper()
	paths := NewPathResolver(dir)

	rgb := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			rgb.SetNRGBA(x, y, color.NRGBA{uint8(x * 8), uint8(y * 8), uint8(id), 255})
		}
	}
	test.That(t, rimage.WriteImageToFile(paths.RGBPath(id), rgb), test.ShouldBeNil)

	if depthAt == nil {
		return
	}
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dm.Set(x, y, depthAt(x, y))
		}
	}
	encoded, err := rimage.EncodeSplitDepth(dm, rimage.DefaultSplitDepthLayout)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rimage.WriteImageToFile(paths.DepthPath(id), encoded), test.ShouldBeNil)
}

// constantDepth is a depthAt function returning d everywhere.
func constantDepth(d rimage.Depth) func(x, y int) rimage.Depth {
	return func(x, y int) rimage.Depth { return d }
}

// fixedDetector returns a fresh copy of features on every call.
func fixedDetector(features ...keypoints.Feature) keypoints.Detector {
	return keypoints.DetectorFunc(func(ctx context.Context, img image.Image) ([]keypoints.Feature, error) {
		out := make([]keypoints.Feature, len(features))
		for i, f := range features {
			f.Descriptor = append(keypoints.Descriptor(nil), f.Descriptor...)
			out[i] = f
		}
		return out, nil
	})
}

// codecFunc adapts a function to rimage.Codec.
type codecFunc func(ctx context.Context, path string, mode rimage.ColorMode) (image.Image, error)

func (f codecFunc) LoadImage(ctx context.Context, path string, mode rimage.ColorMode) (image.Image, error) {
	return f(ctx, path, mode)
}

func newTestFrame(t *testing.T, dir string, detector keypoints.Detector) *Frame {
	t.Helper()
	return NewFrame(Collaborators{
		Paths:    NewPathResolver(dir),
		Detector: detector,
	}, nil)
}

func depthMapFromRows(rows [][]rimage.Depth) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, d := range row {
			dm.Set(x, y, d)
		}
	}
	return dm
}
