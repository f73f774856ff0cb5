package framedata

import (
	"github.com/montanaflynn/stats"
)

// DepthStats summarizes the depth under a frame's features. Features without depth are not
// counted.
type DepthStats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
}

// FeatureDepthStats summarizes the depth of the current features.
func (f *Frame) FeatureDepthStats() (DepthStats, error) {
	if f.depth == nil {
		return DepthStats{}, ErrNoDepthData
	}
	depths := make(stats.Float64Data, 0, len(f.features))
	for _, feature := range f.features {
		if d, ok := f.FeatureDepth(feature); ok && d != 0 {
			depths = append(depths, float64(d))
		}
	}
	if len(depths) == 0 {
		return DepthStats{}, nil
	}

	var (
		ds  = DepthStats{Count: len(depths)}
		err error
	)
	if ds.Min, err = depths.Min(); err != nil {
		return DepthStats{}, err
	}
	if ds.Max, err = depths.Max(); err != nil {
		return DepthStats{}, err
	}
	if ds.Mean, err = depths.Mean(); err != nil {
		return DepthStats{}, err
	}
	if ds.Median, err = depths.Median(); err != nil {
		return DepthStats{}, err
	}
	return ds, nil
}
