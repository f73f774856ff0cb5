package keypoints

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// MatchingConfig contains the parameters for matching descriptors.
type MatchingConfig struct {
	DoCrossCheck bool `json:"do_cross_check"`
	MaxDist      int  `json:"max_dist"`
}

// DescriptorMatch contains the index of a match in the first and second set of features.
type DescriptorMatch struct {
	Idx1     int
	Idx2     int
	Distance int
}

// MatchFeatures pairs every feature of f1 with the feature of f2 whose descriptor is closest in
// Hamming distance. With DoCrossCheck a pair is kept only if each is the other's best match, and
// a positive MaxDist drops pairs at or above that distance. Matches are sorted by distance.
func MatchFeatures(f1, f2 []Feature, cfg *MatchingConfig) ([]DescriptorMatch, error) {
	if cfg == nil {
		cfg = &MatchingConfig{}
	}
	if len(f1) == 0 || len(f2) == 0 {
		return []DescriptorMatch{}, nil
	}
	distances := make([][]int, len(f1))
	for i := range f1 {
		distances[i] = make([]int, len(f2))
		for j := range f2 {
			d, err := HammingDistance(f1[i].Descriptor, f2[j].Descriptor)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot match feature %d with %d", i, j)
			}
			distances[i][j] = d
		}
	}

	best2 := lo.Map(distances, func(row []int, _ int) int { return argMin(row) })
	var best1 []int
	if cfg.DoCrossCheck {
		best1 = make([]int, len(f2))
		column := make([]int, len(f1))
		for j := range f2 {
			for i := range f1 {
				column[i] = distances[i][j]
			}
			best1[j] = argMin(column)
		}
	}

	matches := make([]DescriptorMatch, 0, len(f1))
	for i, j := range best2 {
		if cfg.DoCrossCheck && best1[j] != i {
			continue
		}
		if cfg.MaxDist > 0 && distances[i][j] >= cfg.MaxDist {
			continue
		}
		matches = append(matches, DescriptorMatch{Idx1: i, Idx2: j, Distance: distances[i][j]})
	}
	slices.SortStableFunc(matches, func(a, b DescriptorMatch) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return matches, nil
}

// argMin returns the index of the smallest value, the first one on ties.
func argMin(values []int) int {
	idx := 0
	for i, v := range values {
		if v < values[idx] {
			idx = i
		}
	}
	return idx
}
