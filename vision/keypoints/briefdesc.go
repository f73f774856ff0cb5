package keypoints

import (
	"image"
	"math"
	"math/bits"
	"math/rand"

	"github.com/pkg/errors"
)

// BRIEFConfig stores the parameters.
type BRIEFConfig struct {
	N              int     `json:"n"` // number of samples taken
	PatchSize      int     `json:"patch_size"`
	UseOrientation bool    `json:"use_orientation"`
	BlurSigma      float64 `json:"blur_sigma"`
	Seed           int64   `json:"seed"`
}

// Validate ensures the BRIEF parameters are usable.
func (cfg *BRIEFConfig) Validate() error {
	if cfg.N < 64 || cfg.N%64 != 0 {
		return errors.New("n should be a positive multiple of 64")
	}
	if cfg.PatchSize < 5 {
		return errors.New("patch_size should be >= 5")
	}
	if cfg.BlurSigma < 0 {
		return errors.New("blur_sigma should be >= 0")
	}
	return nil
}

// SamplePairs are N pairs of points used to create the BRIEF Descriptors of a patch.
type SamplePairs struct {
	P0 []image.Point
	P1 []image.Point
	N  int
}

// GenerateSamplePairs draws n pairs from an isotropic gaussian centered on the patch, clipped
// to the patch. The same seed always yields the same pairs so descriptors stay comparable
// across frames.
func GenerateSamplePairs(n, patchSize int, seed int64) *SamplePairs {
	//nolint:gosec
	rng := rand.New(rand.NewSource(seed))
	half := patchSize / 2
	sigma := float64(patchSize) / 5
	sample := func() int {
		v := int(math.Round(rng.NormFloat64() * sigma))
		if v < -half {
			return -half
		}
		if v > half {
			return half
		}
		return v
	}
	p0 := make([]image.Point, 0, n)
	p1 := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		p0 = append(p0, image.Point{X: sample(), Y: sample()})
		p1 = append(p1, image.Point{X: sample(), Y: sample()})
	}
	return &SamplePairs{P0: p0, P1: p1, N: n}
}

// ComputeBRIEFDescriptors computes a descriptor for every point of pts on the (already
// blurred) image. Points whose rotated patch leaves the image get an all zero descriptor.
func ComputeBRIEFDescriptors(img *image.Gray, sp *SamplePairs, pts []image.Point, orientations []float64,
	cfg *BRIEFConfig,
) ([]Descriptor, error) {
	if sp.N%64 != 0 {
		return nil, errors.Errorf("number of sample pairs %d is not a multiple of 64", sp.N)
	}
	if cfg.UseOrientation && len(orientations) != len(pts) {
		return nil, errors.Errorf("got %d orientations for %d keypoints", len(orientations), len(pts))
	}
	bnd := img.Bounds()
	// a rotated patch reaches at most half*sqrt(2) from its center
	reach := int(math.Ceil(float64(cfg.PatchSize/2) * math.Sqrt2))
	descs := make([]Descriptor, len(pts))
	for k, kp := range pts {
		// Divide by 64 since we store a descriptor as a uint64 array.
		descriptor := make(Descriptor, sp.N/64)
		inner := image.Rect(kp.X-reach, kp.Y-reach, kp.X+reach+1, kp.Y+reach+1)
		if !inner.In(bnd) {
			descs[k] = descriptor
			continue
		}
		cosTheta := 1.0
		sinTheta := 0.0
		if cfg.UseOrientation {
			cosTheta = math.Cos(orientations[k])
			sinTheta = math.Sin(orientations[k])
		}
		for i := 0; i < sp.N; i++ {
			x0, y0 := float64(sp.P0[i].X), float64(sp.P0[i].Y)
			x1, y1 := float64(sp.P1[i].X), float64(sp.P1[i].Y)
			outx0 := int(math.Round(cosTheta*x0 - sinTheta*y0))
			outy0 := int(math.Round(sinTheta*x0 + cosTheta*y0))
			outx1 := int(math.Round(cosTheta*x1 - sinTheta*y1))
			outy1 := int(math.Round(sinTheta*x1 + cosTheta*y1))
			p0Val := img.GrayAt(kp.X+outx0, kp.Y+outy0).Y
			p1Val := img.GrayAt(kp.X+outx1, kp.Y+outy1).Y
			if p0Val > p1Val {
				descriptor[i/64] |= 1 << (i % 64)
			}
		}
		descs[k] = descriptor
	}
	return descs, nil
}

// computeOrientations returns the intensity centroid angle of a disc of the given radius around
// each point, clipped to the image.
func computeOrientations(img *image.Gray, pts []image.Point, radius int) []float64 {
	bnd := img.Bounds()
	orientations := make([]float64, len(pts))
	for i, kp := range pts {
		m01, m10 := 0, 0
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				if dx*dx+dy*dy > radius*radius {
					continue
				}
				p := image.Point{kp.X + dx, kp.Y + dy}
				if !p.In(bnd) {
					continue
				}
				v := int(img.GrayAt(p.X, p.Y).Y)
				m10 += v * dx
				m01 += v * dy
			}
		}
		orientations[i] = math.Atan2(float64(m01), float64(m10))
	}
	return orientations
}

// HammingDistance returns the number of differing bits between two descriptors.
func HammingDistance(d1, d2 Descriptor) (int, error) {
	if len(d1) != len(d2) {
		return 0, errors.Errorf("descriptors have different lengths %d and %d", len(d1), len(d2))
	}
	dist := 0
	for i := range d1 {
		dist += bits.OnesCount64(d1[i] ^ d2[i])
	}
	return dist, nil
}
