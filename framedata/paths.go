package framedata

import (
	"fmt"
	"path/filepath"
)

// PathResolver maps frame ids to the files holding their data. It is built once from
// configuration and shared read-only by every Frame.
type PathResolver struct {
	dataPath string
}

// NewPathResolver returns a resolver rooted at dataPath.
func NewPathResolver(dataPath string) PathResolver {
	return PathResolver{dataPath: dataPath}
}

// DataPath returns the directory frames are read from.
func (p PathResolver) DataPath() string {
	return p.dataPath
}

// RGBPath returns the color image file of frame id.
func (p PathResolver) RGBPath(id int) string {
	return filepath.Join(p.dataPath, fmt.Sprintf("frame%d_rgb.bmp", id))
}

// DepthPath returns the depth image file of frame id.
func (p PathResolver) DepthPath(id int) string {
	return filepath.Join(p.dataPath, fmt.Sprintf("frame%d_depth.bmp", id))
}
