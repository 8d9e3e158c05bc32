// Package monoengine provides the luma-only decode engine. It interleaves
// the two fields of a frame into the component frame's Y plane and leaves
// the color-difference planes neutral.
package monoengine

import (
	"math"

	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Engine implements ports.DecodeEngine for luma-only output.
type Engine struct {
	params tbc.VideoParameters
	lumaNR float64
}

// New creates a mono engine for the given capture.
func New(params tbc.VideoParameters, config tbc.Configuration) *Engine {
	return &Engine{
		params: params,
		lumaNR: config.LumaNR,
	}
}

// LookBehind returns 0; mono decoding needs no adjacent frames.
func (e *Engine) LookBehind() int { return 0 }

// LookAhead returns 0.
func (e *Engine) LookAhead() int { return 0 }

// Decode interleaves the target pair of fields into the frame's Y plane.
func (e *Engine) Decode(fields []tbc.SourceField, start, end int, frame *tbc.ComponentFrame) error {
	if end-start < 2 || end > len(fields) {
		return tbc.Errorf(tbc.KindDecodeFailed, "mono decode: incomplete field window")
	}

	width := e.params.FieldWidth
	lumaThreshold := e.lumaNR * float64(e.params.White16bIRE-e.params.Black16bIRE) / 100.0

	var scratch []float64
	if lumaThreshold > 0 {
		scratch = make([]float64, width)
	}

	for fi := 0; fi < 2; fi++ {
		field := fields[start+fi]
		if len(field.Data) < width*e.params.FieldHeight {
			return tbc.Errorf(tbc.KindDecodeFailed, "mono decode: short field %d", field.Record.SeqNo)
		}
		for line := 0; line < e.params.FieldHeight; line++ {
			frameLine := line*2 + fi
			if frameLine >= frame.Height() {
				break
			}
			row := frame.Y(frameLine)
			src := field.Data[line*width : (line+1)*width]
			for x, s := range src {
				row[x] = float64(s)
			}
			if lumaThreshold > 0 {
				coreLuma(row, scratch, lumaThreshold)
			}
		}
	}
	return nil
}

// coreLuma removes low-amplitude high-frequency luma detail. Detail is
// measured against a 3-tap low-pass of the row; only detail below the
// threshold counts as noise and is replaced by the low-pass value.
func coreLuma(row, scratch []float64, threshold float64) {
	copy(scratch, row)
	for x := 1; x < len(row)-1; x++ {
		low := (scratch[x-1] + 2*scratch[x] + scratch[x+1]) / 4.0
		if math.Abs(scratch[x]-low) < threshold {
			row[x] = low
		}
	}
}

var _ ports.DecodeEngine = (*Engine)(nil)
