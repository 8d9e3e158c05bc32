package mocks

import (
	"image"
	"sync"

	"github.com/user/tbcdecode/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	PropertiesJSON []byte
	Planes         map[int]map[string][]byte
	Previews       map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:  enabled,
		Planes:   make(map[int]map[string][]byte),
		Previews: make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SavePropertiesJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PropertiesJSON = data
	return nil
}

func (m *DebugSink) SaveComponentPlane(frameNumber int, plane string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Planes[frameNumber] == nil {
		m.Planes[frameNumber] = make(map[string][]byte)
	}
	m.Planes[frameNumber][plane] = data
	return nil
}

func (m *DebugSink) SavePreviewFrame(frameNumber int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews[frameNumber] = img
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
