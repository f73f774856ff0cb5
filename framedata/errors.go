package framedata

import "github.com/pkg/errors"

var (
	// ErrNoFrame is returned by operations that need a loaded frame id.
	ErrNoFrame = errors.New("no frame loaded")
	// ErrNoImage is returned by operations that need the frame's color image.
	ErrNoImage = errors.New("frame has no image")
	// ErrNoDepthData is returned by operations that need a decoded depth map.
	ErrNoDepthData = errors.New("frame has no depth data")
	// ErrNoDetector is returned when features are requested without a detector.
	ErrNoDetector = errors.New("no feature detector configured")
)
