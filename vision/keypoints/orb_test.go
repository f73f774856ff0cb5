package keypoints

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestLoadORBConfiguration(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "orbconfig.json")
	contents := `{
		"max_features": 100,
		"orientation_radius": 9,
		"fast": {"threshold": 25, "n_matches": 9, "nms_win_size": 5},
		"brief": {"n": 128, "patch_size": 21, "use_orientation": true, "blur_sigma": 1.5, "seed": 7}
	}`
	test.That(t, os.WriteFile(fn, []byte(contents), 0o600), test.ShouldBeNil)

	cfg, err := LoadORBConfiguration(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.MaxFeatures, test.ShouldEqual, 100)
	test.That(t, cfg.OrientationRadius, test.ShouldEqual, 9)
	test.That(t, cfg.FastConf.Threshold, test.ShouldEqual, 25)
	test.That(t, cfg.FastConf.NMSWinSize, test.ShouldEqual, 5)
	test.That(t, cfg.BRIEFConf.N, test.ShouldEqual, 128)
	test.That(t, cfg.BRIEFConf.BlurSigma, test.ShouldEqual, 1.5)

	missingBrief := filepath.Join(dir, "nobrief.json")
	test.That(t, os.WriteFile(missingBrief, []byte(`{"fast": {"threshold": 25, "n_matches": 9, "nms_win_size": 5}}`), 0o600),
		test.ShouldBeNil)
	_, err = LoadORBConfiguration(missingBrief)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "brief")

	_, err = LoadORBConfiguration(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestORBConfigValidate(t *testing.T) {
	test.That(t, DefaultORBConfig().Validate("orb"), test.ShouldBeNil)

	cfg := DefaultORBConfig()
	cfg.BRIEFConf.N = 100
	test.That(t, cfg.Validate("orb"), test.ShouldNotBeNil)

	cfg = DefaultORBConfig()
	cfg.FastConf = nil
	test.That(t, cfg.Validate("orb"), test.ShouldNotBeNil)

	_, err := NewORBDetector(cfg)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestORBDetect(t *testing.T) {
	det, err := NewORBDetector(nil)
	test.That(t, err, test.ShouldBeNil)

	img := createTestImage()
	features, err := det.Detect(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(features), test.ShouldBeGreaterThanOrEqualTo, 4)

	for i, f := range features {
		test.That(t, len(f.Descriptor), test.ShouldEqual, DefaultORBConfig().BRIEFConf.N/64)
		test.That(t, f.Point().In(img.Bounds()), test.ShouldBeTrue)
		if i > 0 {
			prev := features[i-1].Point()
			cur := f.Point()
			// raster order
			test.That(t, prev.Y < cur.Y || (prev.Y == cur.Y && prev.X < cur.X), test.ShouldBeTrue)
		}
	}

	again, err := det.Detect(context.Background(), img)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldResemble, features)

	// descriptors are never shared between calls
	again[0].Descriptor[0] ^= 1
	test.That(t, again[0].Descriptor[0], test.ShouldNotEqual, features[0].Descriptor[0])
}

func TestORBDetectEdgeCases(t *testing.T) {
	det, err := NewORBDetector(nil)
	test.That(t, err, test.ShouldBeNil)

	_, err = det.Detect(context.Background(), nil)
	test.That(t, err, test.ShouldNotBeNil)

	features, err := det.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 20, 20)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, features, test.ShouldBeEmpty)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = det.Detect(ctx, createTestImage())
	test.That(t, err, test.ShouldBeError, context.Canceled)
}

func TestStrongest(t *testing.T) {
	corners := []fastCorner{
		{image.Point{1, 0}, 3},
		{image.Point{2, 0}, 9},
		{image.Point{3, 0}, 1},
		{image.Point{4, 0}, 7},
	}
	kept := strongest(corners, 2)
	test.That(t, kept, test.ShouldResemble, []fastCorner{{image.Point{2, 0}, 9}, {image.Point{4, 0}, 7}})
	test.That(t, strongest(corners, 0), test.ShouldResemble, corners)
}

func TestHammingDistance(t *testing.T) {
	d, err := HammingDistance(Descriptor{0b1011, 0}, Descriptor{0b0001, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, d, test.ShouldEqual, 3)

	_, err = HammingDistance(Descriptor{1}, Descriptor{1, 2})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFeaturePointRounding(t *testing.T) {
	test.That(t, Feature{X: 2.5, Y: 3.5}.Point(), test.ShouldResemble, image.Point{2, 4})
	test.That(t, Feature{X: 2.51, Y: 0.49}.Point(), test.ShouldResemble, image.Point{3, 0})
}
