// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/tbcdecode/pkg/ports"
)

// Sink saves debug output to files under a base directory.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.FrameRenderer
}

// New creates a new file sink.
func New(baseDir string, fs ports.FileSystem, renderer ports.FrameRenderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SavePropertiesJSON saves the resolved video properties as JSON.
func (s *Sink) SavePropertiesJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "properties.json")
	return s.fs.WriteFile(path, data)
}

// SaveComponentPlane saves one raw component plane of a decoded frame.
func (s *Sink) SaveComponentPlane(frameNumber int, plane string, data []byte) error {
	dir := filepath.Join(s.baseDir, "planes")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d-%s.raw", frameNumber, plane))
	return s.fs.WriteFile(path, data)
}

// SavePreviewFrame saves a rendered preview frame as PNG.
func (s *Sink) SavePreviewFrame(frameNumber int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "preview")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodePNG(img)
	if err != nil {
		return fmt.Errorf("encode preview frame: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", frameNumber))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
