package keypoints

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"go.viam.com/test"
)

func createTestImage() *image.Gray {
	rectImage := image.NewGray(image.Rect(0, 0, 300, 200))
	whiteRect := image.Rect(50, 30, 100, 150)
	white := color.Gray{255}
	black := color.Gray{0}
	draw.Draw(rectImage, rectImage.Bounds(), &image.Uniform{black}, image.Point{0, 0}, draw.Src)
	draw.Draw(rectImage, whiteRect, &image.Uniform{white}, image.Point{0, 0}, draw.Src)
	return rectImage
}

var rectCorners = []image.Point{{50, 30}, {99, 30}, {50, 149}, {99, 149}}

func TestGetPointValuesInNeighborhood(t *testing.T) {
	// create test image
	rectImage := createTestImage()
	// testing cross neighborhood
	vals := GetPointValuesInNeighborhood(rectImage, image.Point{50, 30}, CrossIdx)
	// test length
	test.That(t, len(vals), test.ShouldEqual, 4)
	// test values at a corner of the rectangle
	test.That(t, vals[0], test.ShouldEqual, 255)
	test.That(t, vals[1], test.ShouldEqual, 255)
	test.That(t, vals[2], test.ShouldEqual, 0)
	test.That(t, vals[3], test.ShouldEqual, 0)
	// testing circle neighborhood
	valsCircle := GetPointValuesInNeighborhood(rectImage, image.Point{50, 30}, CircleIdx)
	// test length
	test.That(t, len(valsCircle), test.ShouldEqual, 16)
	// test values at a corner of the rectangle
	for i := 0; i < 4; i++ {
		test.That(t, valsCircle[i], test.ShouldEqual, 0)
	}
	for i := 4; i < 9; i++ {
		test.That(t, valsCircle[i], test.ShouldEqual, 255)
	}
	for i := 9; i < len(valsCircle); i++ {
		test.That(t, valsCircle[i], test.ShouldEqual, 0)
	}
}

func TestIsValidSlice(t *testing.T) {
	tests := []struct {
		s        []float64
		n        int
		expected bool
	}{
		{[]float64{0, 0, 0, 0, 0}, 9, false},
		{[]float64{1, 1, 1, 1, 1, 1, 1}, 3, true},
		{[]float64{0, 1, 1, 1, 0, 1, 1}, 2, true},
		{[]float64{0, 1, 0, 0, 1, 0, 1}, 2, false},
		// runs wrap around the circle
		{[]float64{1, 0, 0, 0, 0, 1, 1}, 3, true},
	}
	for _, tst := range tests {
		test.That(t, isValidSliceVals(tst.s, tst.n), test.ShouldEqual, tst.expected)
	}
}

func TestSumPositiveValues(t *testing.T) {
	tests := []struct {
		s        []float64
		expected float64
	}{
		{[]float64{0, 0, 0, 0, 0}, 0},
		{[]float64{1, -1, -1, 0, 1, 1, 1}, 4},
		{[]float64{-1, -1, -1, 0, -1, -1, -1}, 0},
	}
	for _, tst := range tests {
		test.That(t, sumOfPositiveValuesSlice(tst.s), test.ShouldEqual, tst.expected)
	}
}

func TestFASTConfigValidate(t *testing.T) {
	cfg := &FASTConfig{Threshold: 20, NMatchesCircle: 9, NMSWinSize: 7}
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	cfg.NMatchesCircle = 17
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	cfg.NMatchesCircle = 9
	cfg.Threshold = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
	cfg.Threshold = 20
	cfg.NMSWinSize = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}

func nearestCorner(p image.Point) (image.Point, int) {
	best := rectCorners[0]
	bestDist := 1 << 30
	for _, c := range rectCorners {
		d := p.Sub(c)
		dist := d.X*d.X + d.Y*d.Y
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best, bestDist
}

func TestDetectFASTOnRectangle(t *testing.T) {
	cfg := &FASTConfig{Threshold: 20, NMatchesCircle: 9, NMSWinSize: 7}
	corners := detectFAST(createTestImage(), cfg)
	test.That(t, len(corners), test.ShouldBeGreaterThanOrEqualTo, 4)

	seen := map[image.Point]bool{}
	for _, c := range corners {
		test.That(t, c.score, test.ShouldBeGreaterThan, 0)
		corner, dist := nearestCorner(c.pt)
		// straight edges never fire, only the rectangle corners
		test.That(t, dist, test.ShouldBeLessThanOrEqualTo, 25)
		seen[corner] = true
	}
	test.That(t, len(seen), test.ShouldEqual, 4)

	// no corners in a flat image
	flat := image.NewGray(image.Rect(0, 0, 40, 40))
	test.That(t, detectFAST(flat, cfg), test.ShouldBeEmpty)
}

func TestIsLocalMaxTieBreak(t *testing.T) {
	w, h := 3, 1
	scores := []float64{5, 5, 1}
	test.That(t, isLocalMax(scores, w, h, 0, 0, 1), test.ShouldBeTrue)
	test.That(t, isLocalMax(scores, w, h, 1, 0, 1), test.ShouldBeFalse)
	test.That(t, isLocalMax(scores, w, h, 2, 0, 1), test.ShouldBeFalse)
}
