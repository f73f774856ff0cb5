// Package main detects features in a sequence of RGB-D frames on disk, keeps the ones with
// consistent depth support and optionally writes annotated images of every frame.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/rgbdframe/framedata"
	"go.viam.com/rgbdframe/logging"
	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

const (
	// Flags.
	flagConfig    = "config"
	flagDataPath  = "data-path"
	flagRadius    = "radius"
	flagMaxDelta  = "max-delta"
	flagRowStride = "row-stride"
	flagFrom      = "from"
	flagTo        = "to"
	flagOut       = "out"
	flagDebug     = "debug"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "framefeatures",
		Usage: "detect depth consistent features in a sequence of RGB-D frames",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:  flagDataPath,
				Usage: "directory holding frame<N>_rgb.bmp and frame<N>_depth.bmp",
			},
			&cli.IntFlag{
				Name:  flagRadius,
				Usage: "neighborhood radius of the depth consistency check",
			},
			&cli.IntFlag{
				Name:  flagMaxDelta,
				Usage: "largest depth difference allowed between a feature and its neighbors",
			},
			&cli.IntFlag{
				Name:  flagRowStride,
				Usage: "depth samples per row, 0 for the depth map width",
			},
			&cli.IntFlag{
				Name:  flagFrom,
				Usage: "first frame id",
			},
			&cli.IntFlag{
				Name:     flagTo,
				Usage:    "last frame id (inclusive)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  flagOut,
				Usage: "write annotated images to `DIR`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logging.ReplaceGlobal(logging.NewDebugLogger("framefeatures"))
			} else {
				logging.ReplaceGlobal(logging.NewLogger("framefeatures"))
			}
			return nil
		},
		After: func(c *cli.Context) error {
			//nolint:errcheck
			logging.Global().Sync()
			return nil
		},
		Action: func(c *cli.Context) error {
			return runAction(c, logging.Global())
		},
	}
}

// configFromFlags loads the config file when one is given and applies the flags on top of it.
func configFromFlags(c *cli.Context) (*framedata.Config, error) {
	cfg := &framedata.Config{}
	if fn := c.String(flagConfig); fn != "" {
		var err error
		if cfg, err = framedata.LoadConfig(fn); err != nil {
			return nil, err
		}
	}
	if c.IsSet(flagDataPath) {
		cfg.DataPath = c.String(flagDataPath)
	}
	if c.IsSet(flagRadius) {
		cfg.Filter.NeighborhoodRadius = c.Int(flagRadius)
	}
	if c.IsSet(flagMaxDelta) {
		cfg.Filter.MaxDepthDelta = c.Int(flagMaxDelta)
	}
	if c.IsSet(flagRowStride) {
		cfg.Filter.RowStride = c.Int(flagRowStride)
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := configFromFlags(c)
	if err != nil {
		return err
	}
	from, to := c.Int(flagFrom), c.Int(flagTo)
	if from < 0 || to < from {
		return errors.Errorf("invalid frame range [%d, %d]", from, to)
	}
	outDir := c.String(flagOut)
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return err
		}
	}

	detector, err := keypoints.NewORBDetector(cfg.Detector)
	if err != nil {
		return err
	}
	layout, err := cfg.Depth.Layout()
	if err != nil {
		return err
	}
	seq, err := framedata.NewSequencer(framedata.Collaborators{
		Paths:    cfg.Paths(),
		Detector: detector,
		Layout:   layout,
	}, cfg.Filter, logger.Sublogger("sequencer"))
	if err != nil {
		return err
	}
	defer seq.Close()
	if cfg.Matching != nil {
		seq.SetMatchingConfig(*cfg.Matching)
	}

	annotator := framedata.NewGGAnnotator()
	processed := 0
	for id := from; id <= to; id++ {
		if err := c.Context.Err(); err != nil {
			return err
		}
		n, err := seq.Advance(c.Context, id)
		if err != nil {
			logger.Warnw("skipping frame", "frame", id, "error", err)
			continue
		}
		processed++
		frame := seq.Current()
		depthStats, err := frame.FeatureDepthStats()
		if err != nil {
			return err
		}
		logger.Infow("frame processed",
			"frame", id,
			"features", n,
			"matches", len(seq.Matches()),
			"median_depth", depthStats.Median,
		)
		if outDir != "" {
			if err := writeFrameImages(outDir, frame, annotator); err != nil {
				return err
			}
		}
	}
	if processed == 0 {
		return errors.Errorf("no frame in [%d, %d] could be processed", from, to)
	}
	logger.Infof("processed %d/%d frames", processed, to-from+1)
	return nil
}

func writeFrameImages(outDir string, frame *framedata.Frame, annotator framedata.Annotator) error {
	dm := frame.DepthMap()
	minDepth, maxDepth := dm.MinMax()
	depthFile := filepath.Join(outDir, fmt.Sprintf("frame%d_depth.png", frame.ID()))
	if err := rimage.WriteImageToFile(depthFile, dm.ToPrettyPicture(minDepth, maxDepth)); err != nil {
		return err
	}

	if err := frame.DrawFeatures(annotator); err != nil {
		return err
	}
	featuresFile := filepath.Join(outDir, fmt.Sprintf("frame%d_features.png", frame.ID()))
	return rimage.WriteImageToFile(featuresFile, frame.Image())
}
