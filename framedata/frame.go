// Package framedata manages the per frame RGB-D data of a feature pipeline: a color image,
// its decoded depth map and the features detected in it.
package framedata

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"go.viam.com/rgbdframe/logging"
	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// NoFrame is the id of a Frame holding no data.
const NoFrame = -1

// Collaborators are the services a Frame calls into. A zero Codec reads local files and a zero
// Layout uses rimage.DefaultSplitDepthLayout.
type Collaborators struct {
	Paths    PathResolver
	Codec    rimage.Codec
	Detector keypoints.Detector
	Layout   rimage.SplitDepthLayout
}

// Frame owns the data of one frame. The image, features and depth map belong to exactly one
// Frame at a time; AssignData is the only way to hand them to another Frame.
//
// A Frame is not safe for concurrent use. Distinct Frames share nothing mutable.
type Frame struct {
	collab Collaborators
	logger logging.Logger

	id       int
	image    *image.NRGBA
	features []keypoints.Feature
	depth    *rimage.DepthMap
}

// NewFrame returns an empty frame. A nil logger discards output.
func NewFrame(collab Collaborators, logger logging.Logger) *Frame {
	if collab.Codec == nil {
		collab.Codec = rimage.FileCodec{}
	}
	if collab.Layout == (rimage.SplitDepthLayout{}) {
		collab.Layout = rimage.DefaultSplitDepthLayout
	}
	if logger == nil {
		logger = logging.NewBlankLogger("framedata")
	}
	return &Frame{collab: collab, logger: logger, id: NoFrame}
}

// ID returns the loaded frame id, or NoFrame.
func (f *Frame) ID() int {
	return f.id
}

// Image returns the color image, nil when none is loaded.
func (f *Frame) Image() *image.NRGBA {
	return f.image
}

// Features returns the current features. The slice is owned by the frame.
func (f *Frame) Features() []keypoints.Feature {
	return f.features
}

// FeatureCount returns the number of features.
func (f *Frame) FeatureCount() int {
	return len(f.features)
}

// DepthMap returns the decoded depth, nil when none is loaded.
func (f *Frame) DepthMap() *rimage.DepthMap {
	return f.depth
}

// LoadImage loads the color image of frame id. On failure the frame holds no image and its id
// is NoFrame. Depth and features are left as they are.
func (f *Frame) LoadImage(ctx context.Context, id int) error {
	if id < 0 {
		f.id, f.image = NoFrame, nil
		return errors.Errorf("invalid frame id %d", id)
	}
	path := f.collab.Paths.RGBPath(id)
	img, err := f.collab.Codec.LoadImage(ctx, path, rimage.ColorModeRGB)
	if err != nil {
		f.id, f.image = NoFrame, nil
		f.logger.Debugw("cannot load color image", "frame", id, "path", path, "error", err)
		return errors.Wrapf(err, "cannot load color image of frame %d", id)
	}
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = imaging.Clone(img)
	}
	f.id, f.image = id, nrgba
	return nil
}

// IsLoaded reports whether the frame holds the color image of frame id.
func (f *Frame) IsLoaded(id int) bool {
	return id != NoFrame && f.id == id && f.image != nil
}

// LoadDepthData loads and decodes the depth image of the current frame. The existing depth map
// is reused when its dimensions match. On failure the frame holds no depth map.
func (f *Frame) LoadDepthData(ctx context.Context) error {
	if f.id == NoFrame {
		return ErrNoFrame
	}
	path := f.collab.Paths.DepthPath(f.id)
	img, err := f.collab.Codec.LoadImage(ctx, path, rimage.ColorModeNative)
	if err != nil {
		f.depth = nil
		f.logger.Debugw("cannot load depth image", "frame", f.id, "path", path, "error", err)
		return errors.Wrapf(err, "cannot load depth image of frame %d", f.id)
	}
	dm, err := rimage.DecodeSplitDepth(img, f.collab.Layout, f.depth)
	if err != nil {
		f.depth = nil
		return errors.Wrapf(err, "cannot decode depth image of frame %d", f.id)
	}
	if f.depth != nil && dm != f.depth {
		f.logger.Debugw("depth map reallocated", "frame", f.id, "width", dm.Width(), "height", dm.Height())
	}
	f.depth = dm
	return nil
}

// ComputeFeatures detects features in the color image and returns how many were found. A frame
// without an image has no features.
func (f *Frame) ComputeFeatures(ctx context.Context) (int, error) {
	f.features = nil
	if f.image == nil {
		return 0, nil
	}
	if f.collab.Detector == nil {
		return 0, ErrNoDetector
	}
	features, err := f.collab.Detector.Detect(ctx, f.image)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot detect features of frame %d", f.id)
	}
	f.features = features
	return len(f.features), nil
}

// ReleaseData drops the image, features and depth map and resets the frame to empty. It is safe
// to call on an empty frame.
func (f *Frame) ReleaseData() {
	f.id = NoFrame
	f.image = nil
	f.features = nil
	f.depth = nil
}

// AssignData moves the data of src into f, releasing what f held. src is left empty. Nothing is
// copied: the caller must not keep using slices or images obtained from src.
func (f *Frame) AssignData(src *Frame) {
	if src == f {
		return
	}
	f.ReleaseData()
	f.id = src.id
	f.image = src.image
	f.features = src.features
	f.depth = src.depth
	src.ReleaseData()
}

// RemoveInvalidFeatures drops the features without consistent depth support and returns how
// many remain. See FilterFeatures.
func (f *Frame) RemoveInvalidFeatures(cfg FilterConfig) (int, error) {
	if f.depth == nil {
		return 0, ErrNoDepthData
	}
	kept, err := FilterFeatures(f.features, f.depth, cfg)
	if err != nil {
		return 0, err
	}
	if len(kept) < len(f.features) {
		f.logger.Debugf("Features valid: %d/%d", len(kept), len(f.features))
	}
	f.features = kept
	return len(f.features), nil
}

// FeatureDepth returns the depth under a feature, indexed by the depth map's width. ok is false
// when there is no depth map or the feature lies outside it.
func (f *Frame) FeatureDepth(feature keypoints.Feature) (rimage.Depth, bool) {
	grid, err := newDepthGrid(f.depth, 0)
	if err != nil {
		return 0, false
	}
	p := feature.Point()
	return grid.at(p.X, p.Y)
}

// Label is the text drawn on an annotated frame.
func (f *Frame) Label() string {
	return fmt.Sprintf("Frame%d nf:%d", f.id, len(f.features))
}

// DrawFeatures overlays the features and the frame label on the color image.
func (f *Frame) DrawFeatures(a Annotator) error {
	if f.image == nil {
		return ErrNoImage
	}
	return a.Annotate(f.image, f.features, f.Label())
}
