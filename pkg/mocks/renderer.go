package mocks

import (
	"image"

	"github.com/user/tbcdecode/pkg/normalize"
	"github.com/user/tbcdecode/pkg/ports"
)

// FrameRenderer is a mock implementation of ports.FrameRenderer.
type FrameRenderer struct {
	RenderFunc    func(frame *normalize.PlanarFrame, sarNum, sarDen int, label string) (image.Image, error)
	EncodePNGFunc func(img image.Image) ([]byte, error)

	RenderCalls int
	EncodeCalls int
}

func (m *FrameRenderer) Render(frame *normalize.PlanarFrame, sarNum, sarDen int, label string) (image.Image, error) {
	m.RenderCalls++
	if m.RenderFunc != nil {
		return m.RenderFunc(frame, sarNum, sarDen, label)
	}
	return image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height)), nil
}

func (m *FrameRenderer) EncodePNG(img image.Image) ([]byte, error) {
	m.EncodeCalls++
	if m.EncodePNGFunc != nil {
		return m.EncodePNGFunc(img)
	}
	return []byte("png"), nil
}

var _ ports.FrameRenderer = (*FrameRenderer)(nil)
