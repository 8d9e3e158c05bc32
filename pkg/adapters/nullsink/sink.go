// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/tbcdecode/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SavePropertiesJSON does nothing.
func (s *Sink) SavePropertiesJSON(data []byte) error {
	return nil
}

// SaveComponentPlane does nothing.
func (s *Sink) SaveComponentPlane(frameNumber int, plane string, data []byte) error {
	return nil
}

// SavePreviewFrame does nothing.
func (s *Sink) SavePreviewFrame(frameNumber int, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
