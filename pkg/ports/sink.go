package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate decode results.
// It allows saving per-frame artifacts during an export without wiring the
// decode path to a particular filesystem layout.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SavePropertiesJSON saves the resolved video properties as JSON.
	SavePropertiesJSON(data []byte) error

	// SaveComponentPlane saves one raw component plane of a decoded frame.
	SaveComponentPlane(frameNumber int, plane string, data []byte) error

	// SavePreviewFrame saves a rendered preview frame.
	SavePreviewFrame(frameNumber int, img image.Image) error
}
