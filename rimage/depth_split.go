package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// Channel names one stored 8-bit channel of a color pixel.
type Channel int

// The channels of a color pixel.
const (
	ChannelRed Channel = iota
	ChannelGreen
	ChannelBlue
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelRed:
		return "red"
	case ChannelGreen:
		return "green"
	case ChannelBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// ChannelFromString parses a channel name as written in configuration files.
func ChannelFromString(s string) (Channel, error) {
	switch s {
	case "red", "r":
		return ChannelRed, nil
	case "green", "g":
		return ChannelGreen, nil
	case "blue", "b":
		return ChannelBlue, nil
	default:
		return 0, errors.Errorf("unknown channel %q", s)
	}
}

// SplitDepthLayout describes how a 16 bit depth sample is stored across two 8 bit channels
// of a color image: depth = High<<8 | Low.
type SplitDepthLayout struct {
	High Channel
	Low  Channel
}

// DefaultSplitDepthLayout matches depth exported as BMP, where each pixel is stored
// blue, green, red: the first stored byte holds the high half and the second the low half.
var DefaultSplitDepthLayout = SplitDepthLayout{High: ChannelBlue, Low: ChannelGreen}

// Validate ensures the layout names two distinct known channels.
func (l SplitDepthLayout) Validate() error {
	for _, c := range []Channel{l.High, l.Low} {
		if c < ChannelRed || c > ChannelBlue {
			return errors.Errorf("invalid channel %d in depth layout", c)
		}
	}
	if l.High == l.Low {
		return errors.Errorf("depth layout uses %s for both halves", l.High)
	}
	return nil
}

// DecodeSplitDepth converts a depth image into a DepthMap. Color images are decoded with the
// given layout, 16 bit grayscale images are copied as is. dst is reused when it has the same
// dimensions as img, otherwise a new map is allocated.
func DecodeSplitDepth(img image.Image, layout SplitDepthLayout, dst *DepthMap) (*DepthMap, error) {
	if img == nil {
		return nil, errors.New("no depth image to decode")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("bad width or height for depth image %v %v", width, height)
	}

	dm := dst
	if dm == nil || dm.width != width || dm.height != height {
		dm = NewEmptyDepthMap(width, height)
	}

	switch im := img.(type) {
	case *image.Gray16:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				dm.data[dm.kxy(x, y)] = Depth(im.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
	case *image.Gray:
		return nil, errors.New("depth image has a single 8 bit channel, need at least 2")
	case *image.RGBA:
		decodeSplitPix(dm, im.Pix, im.Stride, layout)
	case *image.NRGBA:
		decodeSplitPix(dm, im.Pix, im.Stride, layout)
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				rgb := [3]uint8{c.R, c.G, c.B}
				dm.data[dm.kxy(x, y)] = Depth(rgb[layout.High])<<8 | Depth(rgb[layout.Low])
			}
		}
	}
	return dm, nil
}

// decodeSplitPix reads stored bytes straight from an RGBA style pixel buffer.
func decodeSplitPix(dm *DepthMap, pix []uint8, stride int, layout SplitDepthLayout) {
	hi, lo := int(layout.High), int(layout.Low)
	for y := 0; y < dm.height; y++ {
		row := pix[y*stride:]
		for x := 0; x < dm.width; x++ {
			p := row[4*x : 4*x+4]
			dm.data[dm.kxy(x, y)] = Depth(p[hi])<<8 | Depth(p[lo])
		}
	}
}

// EncodeSplitDepth is the inverse of DecodeSplitDepth: it stores every sample of dm across
// two channels of an opaque color image.
func EncodeSplitDepth(dm *DepthMap, layout SplitDepthLayout) (*image.NRGBA, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	img := image.NewNRGBA(dm.Bounds())
	hi, lo := int(layout.High), int(layout.Low)
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			z := dm.GetDepth(x, y)
			off := img.PixOffset(x, y)
			p := img.Pix[off : off+4]
			p[hi] = uint8(z >> 8)
			p[lo] = uint8(z)
			p[3] = 255
		}
	}
	return img, nil
}
