package keypoints

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ORBConfig contains the parameters / configs needed to compute ORB features.
type ORBConfig struct {
	MaxFeatures       int          `json:"max_features"`
	OrientationRadius int          `json:"orientation_radius"`
	FastConf          *FASTConfig  `json:"fast"`
	BRIEFConf         *BRIEFConfig `json:"brief"`
}

// DefaultORBConfig returns the configuration used when none is given.
func DefaultORBConfig() *ORBConfig {
	return &ORBConfig{
		MaxFeatures:       500,
		OrientationRadius: 15,
		FastConf:          &FASTConfig{Threshold: 20, NMatchesCircle: 9, NMSWinSize: 7},
		BRIEFConf:         &BRIEFConfig{N: 256, PatchSize: 31, UseOrientation: true, BlurSigma: 2, Seed: 1},
	}
}

// LoadORBConfiguration loads a ORBConfig from a json file.
func LoadORBConfiguration(file string) (*ORBConfig, error) {
	var config ORBConfig
	filePath := filepath.Clean(file)
	//nolint:gosec
	configFile, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(configFile.Close)
	jsonParser := json.NewDecoder(configFile)
	err = jsonParser.Decode(&config)
	if err != nil {
		return nil, err
	}
	err = config.Validate(file)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate ensures all parts of the ORBConfig are valid.
func (config *ORBConfig) Validate(path string) error {
	if config.MaxFeatures < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_features should be >= 0"))
	}
	if config.OrientationRadius < 0 {
		return utils.NewConfigValidationError(path, errors.New("orientation_radius should be >= 0"))
	}
	if config.FastConf == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "fast")
	}
	if err := config.FastConf.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if config.BRIEFConf == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "brief")
	}
	if err := config.BRIEFConf.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// ORBDetector finds FAST corners and describes them with (optionally steered) BRIEF.
type ORBDetector struct {
	cfg   *ORBConfig
	pairs *SamplePairs
}

// NewORBDetector returns a detector for the given configuration.
func NewORBDetector(cfg *ORBConfig) (*ORBDetector, error) {
	if cfg == nil {
		cfg = DefaultORBConfig()
	}
	if err := cfg.Validate("orb"); err != nil {
		return nil, err
	}
	return &ORBDetector{
		cfg:   cfg,
		pairs: GenerateSamplePairs(cfg.BRIEFConf.N, cfg.BRIEFConf.PatchSize, cfg.BRIEFConf.Seed),
	}, nil
}

// Detect implements Detector. Features are returned in raster order.
func (d *ORBDetector) Detect(ctx context.Context, img image.Image) ([]Feature, error) {
	if img == nil {
		return nil, errors.New("no image to detect features in")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	gray := toGray(img)
	corners := detectFAST(gray, d.cfg.FastConf)
	corners = strongest(corners, d.cfg.MaxFeatures)
	if len(corners) == 0 {
		return []Feature{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pts := make([]image.Point, len(corners))
	for i, c := range corners {
		pts[i] = c.pt
	}
	blurred := blurGray(gray, d.cfg.BRIEFConf.BlurSigma)
	var orientations []float64
	if d.cfg.BRIEFConf.UseOrientation {
		orientations = computeOrientations(blurred, pts, d.cfg.OrientationRadius)
	}
	descs, err := ComputeBRIEFDescriptors(blurred, d.pairs, pts, orientations, d.cfg.BRIEFConf)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	features := make([]Feature, len(corners))
	for i, c := range corners {
		features[i] = Feature{
			X:          float64(bounds.Min.X + c.pt.X),
			Y:          float64(bounds.Min.Y + c.pt.Y),
			Score:      c.score,
			Descriptor: descs[i],
		}
		if orientations != nil {
			features[i].Orientation = orientations[i]
		}
	}
	return features, nil
}

// strongest keeps the n highest scoring corners, preserving raster order. n <= 0 keeps all.
func strongest(corners []fastCorner, n int) []fastCorner {
	if n <= 0 || len(corners) <= n {
		return corners
	}
	idx := make([]int, len(corners))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return corners[idx[a]].score > corners[idx[b]].score
	})
	idx = idx[:n]
	sort.Ints(idx)
	kept := make([]fastCorner, n)
	for i, j := range idx {
		kept[i] = corners[j]
	}
	return kept
}
