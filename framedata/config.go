package framedata

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

// Config describes where frames live and how they are processed.
type Config struct {
	DataPath string                    `json:"data_path"`
	Filter   FilterConfig              `json:"filter"`
	Depth    DepthConfig               `json:"depth"`
	Detector *keypoints.ORBConfig      `json:"detector,omitempty"`
	Matching *keypoints.MatchingConfig `json:"matching,omitempty"`
}

// DepthConfig names the channels a depth sample is split across. Empty fields fall back to
// rimage.DefaultSplitDepthLayout.
type DepthConfig struct {
	HighChannel string `json:"high_channel,omitempty"`
	LowChannel  string `json:"low_channel,omitempty"`
}

// Layout returns the split depth layout described by the config.
func (dc DepthConfig) Layout() (rimage.SplitDepthLayout, error) {
	layout := rimage.DefaultSplitDepthLayout
	if dc.HighChannel != "" {
		c, err := rimage.ChannelFromString(dc.HighChannel)
		if err != nil {
			return layout, err
		}
		layout.High = c
	}
	if dc.LowChannel != "" {
		c, err := rimage.ChannelFromString(dc.LowChannel)
		if err != nil {
			return layout, err
		}
		layout.Low = c
	}
	return layout, layout.Validate()
}

// LoadConfig reads and validates a Config from a json file.
func LoadConfig(file string) (*Config, error) {
	var config Config
	//nolint:gosec
	configFile, err := os.Open(filepath.Clean(file))
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(configFile.Close)
	if err := json.NewDecoder(configFile).Decode(&config); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %s", file)
	}
	if err := config.Validate(file); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.DataPath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "data_path")
	}
	if err := c.Filter.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := c.Depth.Layout(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if c.Detector != nil {
		if err := c.Detector.Validate(path + ".detector"); err != nil {
			return err
		}
	}
	if c.Matching != nil && c.Matching.MaxDist < 0 {
		return utils.NewConfigValidationError(path+".matching", errors.New("max_dist should be >= 0"))
	}
	return nil
}

// Paths returns the resolver for the configured data directory.
func (c *Config) Paths() PathResolver {
	return NewPathResolver(c.DataPath)
}
