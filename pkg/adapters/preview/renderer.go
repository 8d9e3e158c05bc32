// Package preview renders normalized planar frames into viewable RGB
// images for export: BT.601 matrixing, sample-aspect-ratio correction, and
// an optional info overlay.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/tbcdecode/pkg/normalize"
	"github.com/user/tbcdecode/pkg/ports"
)

// Renderer implements ports.FrameRenderer using gg and x/image.
type Renderer struct{}

// New creates a new Renderer.
func New() *Renderer {
	return &Renderer{}
}

// Render converts a planar frame to RGB at its display aspect. The sample
// aspect ratio stretches the width; height is kept. A non-empty label is
// drawn in an overlay bar.
func (r *Renderer) Render(frame *normalize.PlanarFrame, sarNum, sarDen int, label string) (image.Image, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("render: empty frame")
	}

	rgba := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			idx := y*frame.Width + x
			yv := float64(frame.Y[idx])
			var cb, cr float64
			if !frame.Mono {
				cb = float64(frame.U[idx])
				cr = float64(frame.V[idx])
			}

			// BT.601 inverse matrix over normalized excursions
			// (Y in [0,1], Cb/Cr in [-0.5,0.5]).
			rv := yv + 1.402*cr
			gv := yv - 0.344136*cb - 0.714136*cr
			bv := yv + 1.772*cb

			off := y*rgba.Stride + x*4
			rgba.Pix[off] = clamp8(rv)
			rgba.Pix[off+1] = clamp8(gv)
			rgba.Pix[off+2] = clamp8(bv)
			rgba.Pix[off+3] = 255
		}
	}

	out := image.Image(rgba)
	if sarNum > 0 && sarDen > 0 && sarNum != sarDen {
		displayWidth := frame.Width * sarNum / sarDen
		if displayWidth < 1 {
			displayWidth = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, displayWidth, frame.Height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), rgba, rgba.Bounds(), draw.Over, nil)
		out = scaled
	}

	if label != "" {
		out = drawOverlay(out, label)
	}
	return out, nil
}

// EncodePNG encodes an image as PNG.
func (r *Renderer) EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func drawOverlay(img image.Image, label string) image.Image {
	b := img.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, 0, 0)

	const barHeight = 18
	dc.SetColor(color.RGBA{A: 160})
	dc.DrawRectangle(0, float64(b.Dy()-barHeight), float64(b.Dx()), barHeight)
	dc.Fill()

	dc.SetColor(color.White)
	dc.DrawStringAnchored(label, 4, float64(b.Dy())-barHeight/2, 0, 0.35)
	return dc.Image()
}

func clamp8(v float64) uint8 {
	s := v * 255.0
	if s < 0 {
		return 0
	}
	if s > 255 {
		return 255
	}
	return uint8(s + 0.5)
}

var _ ports.FrameRenderer = (*Renderer)(nil)
