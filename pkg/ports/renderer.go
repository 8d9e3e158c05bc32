package ports

import (
	"image"

	"github.com/user/tbcdecode/pkg/normalize"
)

// FrameRenderer abstracts rendering a normalized planar frame into a
// viewable image for preview export.
type FrameRenderer interface {
	// Render converts a planar frame to an RGB image at its display
	// aspect, sarNum:sarDen being the sample aspect ratio. The label, if
	// non-empty, is drawn as an overlay.
	Render(frame *normalize.PlanarFrame, sarNum, sarDen int, label string) (image.Image, error)

	// EncodePNG encodes an image as PNG.
	EncodePNG(img image.Image) ([]byte, error)
}
