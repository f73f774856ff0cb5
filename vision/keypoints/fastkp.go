package keypoints

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// FASTConfig holds the parameters of the FAST corner detector.
type FASTConfig struct {
	// Threshold is the intensity difference, in gray levels, a circle pixel needs to count as
	// brighter or darker than the center.
	Threshold      int `json:"threshold"`
	NMatchesCircle int `json:"n_matches"`
	NMSWinSize     int `json:"nms_win_size"`
}

// Validate ensures the FAST parameters are usable.
func (cfg *FASTConfig) Validate() error {
	if cfg.Threshold < 1 || cfg.Threshold > 255 {
		return errors.New("threshold should be in [1, 255]")
	}
	if cfg.NMatchesCircle < 1 || cfg.NMatchesCircle > len(CircleIdx) {
		return errors.Errorf("n_matches should be in [1, %d]", len(CircleIdx))
	}
	if cfg.NMSWinSize < 1 {
		return errors.New("nms_win_size should be >= 1")
	}
	return nil
}

type (
	// PixelType stores 0 if a pixel is darker than center pixel, and 1 if brighter.
	PixelType int
	// ImagePoints stores the offsets of the pixels making up a neighborhood.
	ImagePoints []image.Point
)

const (
	darker PixelType = iota
	brighter
)

var (
	// CrossIdx is the 4 point cross of radius 3 used by the FAST pre-test.
	CrossIdx = ImagePoints{{0, 3}, {3, 0}, {0, -3}, {-3, 0}}
	// CircleIdx is the Bresenham circle of radius 3 in clockwise order.
	CircleIdx = ImagePoints{
		{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
		{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
	}
)

// fastRadius is the margin FAST needs around a pixel.
const fastRadius = 3

type fastCorner struct {
	pt    image.Point
	score float64
}

// GetPointValuesInNeighborhood returns the gray values at p + offsets.
func GetPointValuesInNeighborhood(img *image.Gray, p image.Point, offsets ImagePoints) []float64 {
	vals := make([]float64, len(offsets))
	for i, o := range offsets {
		vals[i] = float64(img.GrayAt(p.X+o.X, p.Y+o.Y).Y)
	}
	return vals
}

// isValidSliceVals reports whether s holds at least n contiguous positive values, wrapping
// around the end of the slice.
func isValidSliceVals(s []float64, n int) bool {
	if n > len(s) {
		return false
	}
	run := 0
	for i := 0; i < 2*len(s); i++ {
		if s[i%len(s)] > 0 {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func sumOfPositiveValuesSlice(s []float64) float64 {
	sum := 0.
	for _, v := range s {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

// classify returns, per circle pixel, how much it exceeds the threshold in the given direction,
// and zero when it does not.
func classify(center float64, vals []float64, threshold float64, kind PixelType) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		d := v - center
		if kind == darker {
			d = -d
		}
		if d > threshold {
			out[i] = d - threshold
		}
	}
	return out
}

// cornerScore returns the FAST score at p, or zero when p is not a corner.
func cornerScore(img *image.Gray, p image.Point, cfg *FASTConfig) float64 {
	center := float64(img.GrayAt(p.X, p.Y).Y)
	t := float64(cfg.Threshold)

	// the pre-test only rejects when a full circle arc could not possibly be found
	if cfg.NMatchesCircle >= 12 {
		cross := GetPointValuesInNeighborhood(img, p, CrossIdx)
		nb := 0
		nd := 0
		for _, v := range cross {
			if v-center > t {
				nb++
			} else if center-v > t {
				nd++
			}
		}
		if nb < 3 && nd < 3 {
			return 0
		}
	}

	vals := GetPointValuesInNeighborhood(img, p, CircleIdx)
	score := 0.
	for _, kind := range []PixelType{brighter, darker} {
		diffs := classify(center, vals, t, kind)
		if isValidSliceVals(diffs, cfg.NMatchesCircle) {
			score = math.Max(score, sumOfPositiveValuesSlice(diffs))
		}
	}
	return score
}

// detectFAST returns the FAST corners of img after non-maximum suppression, in raster order.
func detectFAST(img *image.Gray, cfg *FASTConfig) []fastCorner {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scores := make([]float64, w*h)
	for y := fastRadius; y < h-fastRadius; y++ {
		for x := fastRadius; x < w-fastRadius; x++ {
			scores[y*w+x] = cornerScore(img, image.Point{x, y}, cfg)
		}
	}

	half := cfg.NMSWinSize / 2
	var corners []fastCorner
	for y := fastRadius; y < h-fastRadius; y++ {
		for x := fastRadius; x < w-fastRadius; x++ {
			s := scores[y*w+x]
			if s <= 0 || !isLocalMax(scores, w, h, x, y, half) {
				continue
			}
			corners = append(corners, fastCorner{image.Point{x, y}, s})
		}
	}
	return corners
}

// isLocalMax reports whether the score at (x, y) wins its window. Ties go to the pixel that
// comes first in raster order.
func isLocalMax(scores []float64, w, h, x, y, half int) bool {
	s := scores[y*w+x]
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			nx, ny := x+dx, y+dy
			if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
				continue
			}
			n := scores[ny*w+nx]
			if n > s {
				return false
			}
			if n == s && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}
