package framedata

import (
	"image"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// FilterConfig holds the parameters of the depth consistency filter.
type FilterConfig struct {
	// NeighborhoodRadius is the half width of the square window checked around a feature.
	// Zero only requires the feature's own pixel to have depth.
	NeighborhoodRadius int `json:"neighborhood_radius"`
	// MaxDepthDelta is the largest depth difference tolerated between a feature and a neighbor.
	MaxDepthDelta int `json:"max_depth_delta"`
	// RowStride is the number of samples per depth row used for indexing. Zero uses the depth
	// map's width. Setting it to a sensor's fixed resolution (e.g. 640) reproduces indexing by
	// that resolution regardless of the decoded width.
	RowStride int `json:"row_stride,omitempty"`
}

// Validate ensures the filter parameters are usable.
func (cfg FilterConfig) Validate() error {
	if cfg.NeighborhoodRadius < 0 {
		return errors.Errorf("neighborhood_radius should be >= 0, got %d", cfg.NeighborhoodRadius)
	}
	if cfg.MaxDepthDelta < 0 {
		return errors.Errorf("max_depth_delta should be >= 0, got %d", cfg.MaxDepthDelta)
	}
	if cfg.RowStride < 0 {
		return errors.Errorf("row_stride should be >= 0, got %d", cfg.RowStride)
	}
	return nil
}

// depthGrid indexes depth samples as rows of a fixed stride. Samples outside the grid are
// reported as missing.
type depthGrid struct {
	data   []rimage.Depth
	stride int
	rows   int
}

func newDepthGrid(dm *rimage.DepthMap, stride int) (depthGrid, error) {
	if !dm.HasData() {
		return depthGrid{}, ErrNoDepthData
	}
	if stride == 0 {
		stride = dm.Width()
	}
	data := dm.Data()
	if stride > len(data) {
		return depthGrid{}, errors.Errorf("row stride %d exceeds depth map of %d samples", stride, len(data))
	}
	return depthGrid{data: data, stride: stride, rows: len(data) / stride}, nil
}

func (g depthGrid) at(x, y int) (rimage.Depth, bool) {
	if x < 0 || y < 0 || x >= g.stride || y >= g.rows {
		return 0, false
	}
	return g.data[y*g.stride+x], true
}

// consistent reports whether the feature at p has depth and every non-zero sample in its
// neighborhood is within maxDelta of it. Row offsets move along y, column offsets along x.
func (g depthGrid) consistent(p image.Point, radius, maxDelta int) bool {
	depth, ok := g.at(p.X, p.Y)
	if !ok || depth == 0 {
		return false
	}
	if radius <= 0 {
		return true
	}
	// only the part of the window inside the grid can hold samples
	radius = min(radius, max(g.rows, g.stride))
	y0, y1 := max(0, p.Y-radius), min(g.rows-1, p.Y+radius)
	x0, x1 := max(0, p.X-radius), min(g.stride-1, p.X+radius)
	for y := y0; y <= y1; y++ {
		row := g.data[y*g.stride : (y+1)*g.stride]
		for x := x0; x <= x1; x++ {
			neighbor := row[x]
			if neighbor == 0 {
				continue
			}
			if diff := int(depth) - int(neighbor); diff > maxDelta || -diff > maxDelta {
				return false
			}
		}
	}
	return true
}

// FilterFeatures returns the features whose depth neighborhood is consistent, in their original
// order. Features without depth at their own pixel are always dropped. The input is not modified.
func FilterFeatures(features []keypoints.Feature, dm *rimage.DepthMap, cfg FilterConfig) ([]keypoints.Feature, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := newDepthGrid(dm, cfg.RowStride)
	if err != nil {
		return nil, err
	}
	return lo.Filter(features, func(f keypoints.Feature, _ int) bool {
		return grid.consistent(f.Point(), cfg.NeighborhoodRadius, cfg.MaxDepthDelta)
	}), nil
}
