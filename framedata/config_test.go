package framedata

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"go.viam.com/rgbdframe/rimage"
	"go.viam.com/rgbdframe/vision/keypoints"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "config.json")
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)
	return fn
}

func TestLoadConfig(t *testing.T) {
	fn := writeConfig(t, `{
		"data_path": "/data/seq1",
		"filter": {"neighborhood_radius": 2, "max_depth_delta": 25, "row_stride": 640},
		"depth": {"high_channel": "red", "low_channel": "b"},
		"detector": {
			"max_features": 100,
			"orientation_radius": 7,
			"fast": {"threshold": 15, "n_matches": 12, "nms_win_size": 5},
			"brief": {"n": 128, "patch_size": 25, "use_orientation": false, "blur_sigma": 1.5, "seed": 3}
		},
		"matching": {"do_cross_check": true, "max_dist": 40}
	}`)
	cfg, err := LoadConfig(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.DataPath, test.ShouldEqual, "/data/seq1")
	test.That(t, cfg.Filter, test.ShouldResemble, FilterConfig{NeighborhoodRadius: 2, MaxDepthDelta: 25, RowStride: 640})
	test.That(t, cfg.Detector, test.ShouldNotBeNil)
	test.That(t, cfg.Detector.MaxFeatures, test.ShouldEqual, 100)
	test.That(t, cfg.Detector.FastConf.NMatchesCircle, test.ShouldEqual, 12)
	test.That(t, cfg.Detector.BRIEFConf.N, test.ShouldEqual, 128)
	test.That(t, cfg.Matching, test.ShouldResemble, &keypoints.MatchingConfig{DoCrossCheck: true, MaxDist: 40})

	layout, err := cfg.Depth.Layout()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout, test.ShouldResemble, rimage.SplitDepthLayout{High: rimage.ChannelRed, Low: rimage.ChannelBlue})

	paths := cfg.Paths()
	test.That(t, paths.DataPath(), test.ShouldEqual, "/data/seq1")
	test.That(t, paths.RGBPath(12), test.ShouldEqual, filepath.Join("/data/seq1", "frame12_rgb.bmp"))
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `{"data_path": "frames"}`))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Filter, test.ShouldResemble, FilterConfig{})
	test.That(t, cfg.Detector, test.ShouldBeNil)
	layout, err := cfg.Depth.Layout()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout, test.ShouldResemble, rimage.DefaultSplitDepthLayout)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	_, err = LoadConfig(writeConfig(t, `{"data_path": `))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot parse config")

	for _, tc := range []struct {
		name     string
		contents string
		expected string
	}{
		{"no data path", `{}`, "data_path"},
		{"negative radius", `{"data_path": "d", "filter": {"neighborhood_radius": -1}}`, "neighborhood_radius"},
		{"bad channel", `{"data_path": "d", "depth": {"high_channel": "alpha"}}`, "alpha"},
		{"same channels", `{"data_path": "d", "depth": {"high_channel": "green", "low_channel": "green"}}`, "both halves"},
		{"negative match distance", `{"data_path": "d", "matching": {"max_dist": -3}}`, "max_dist"},
		{"detector without fast", `{"data_path": "d", "detector": {"brief": {"n": 8, "patch_size": 9}}}`, "fast"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.contents))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.expected)
		})
	}
}

func TestPathResolver(t *testing.T) {
	paths := NewPathResolver("/tmp/data")
	test.That(t, paths.DataPath(), test.ShouldEqual, "/tmp/data")
	test.That(t, paths.RGBPath(0), test.ShouldEqual, "/tmp/data/frame0_rgb.bmp")
	test.That(t, paths.DepthPath(42), test.ShouldEqual, "/tmp/data/frame42_depth.bmp")

	relative := NewPathResolver("")
	test.That(t, relative.RGBPath(7), test.ShouldEqual, "frame7_rgb.bmp")
}
