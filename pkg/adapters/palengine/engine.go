// Package palengine provides the PAL-family chroma decode engine.
//
// Like the comb engine it separates chroma with a one-dimensional bandstop
// at the subcarrier and demodulates against the shared quadrature tables,
// with the PAL V-switch alternating the V sign per line. The transform
// variants differ in the field window they require; the full
// frequency-domain separation of the transform filters is out of scope.
package palengine

import (
	"math"

	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Engine implements ports.DecodeEngine for PAL-family captures.
type Engine struct {
	params  tbc.VideoParameters
	runtime *tbc.Runtime
	variant tbc.DecoderType
	look    int

	chromaGain  float64
	chromaPhase float64 // radians
	lumaNR      float64
}

// New creates a PAL engine configured for one of the PAL decoder variants
// (Pal2D, Transform2D, Transform3D).
func New(params tbc.VideoParameters, config tbc.Configuration, variant tbc.DecoderType) *Engine {
	e := &Engine{
		params:      params,
		runtime:     tbc.AcquireRuntime(),
		variant:     variant,
		chromaGain:  config.ChromaGain,
		chromaPhase: config.ChromaPhase * math.Pi / 180.0,
		lumaNR:      config.LumaNR,
	}
	if variant == tbc.DecoderTransform3D {
		e.look = 1
	}
	return e
}

// LookBehind returns the preceding frames required by the variant.
func (e *Engine) LookBehind() int { return e.look }

// LookAhead returns the following frames required by the variant.
func (e *Engine) LookAhead() int { return e.look }

// Decode separates and demodulates the target pair of fields into the
// component frame.
func (e *Engine) Decode(fields []tbc.SourceField, start, end int, frame *tbc.ComponentFrame) error {
	if end-start < 2 || end > len(fields) {
		return tbc.Errorf(tbc.KindDecodeFailed, "pal decode: incomplete field window")
	}

	width := e.params.FieldWidth
	lumaThreshold := e.lumaNR * float64(e.params.White16bIRE-e.params.Black16bIRE) / 100.0
	sinNorm, cosNorm := math.Sin(e.chromaPhase), math.Cos(e.chromaPhase)

	var scratch []float64
	if lumaThreshold > 0 {
		scratch = make([]float64, width)
	}

	for fi := 0; fi < 2; fi++ {
		field := fields[start+fi]
		if len(field.Data) < width*e.params.FieldHeight {
			return tbc.Errorf(tbc.KindDecodeFailed, "pal decode: short field %d", field.Record.SeqNo)
		}
		for line := 0; line < e.params.FieldHeight; line++ {
			frameLine := line*2 + fi
			if frameLine >= frame.Height() {
				break
			}
			src := field.Data[line*width : (line+1)*width]
			yRow := frame.Y(frameLine)
			uRow := frame.U(frameLine)
			vRow := frame.V(frameLine)

			phaseBase := (field.Record.FieldPhaseID + 3*line) % 4
			if phaseBase < 0 {
				phaseBase += 4
			}
			// V-switch: the V component alternates sign line by line.
			vSwitch := 1.0
			if frameLine%2 == 1 {
				vSwitch = -1.0
			}

			for x := 0; x < width; x++ {
				s := float64(src[x])
				if x < 2 || x >= width-2 {
					yRow[x] = s
					continue
				}
				c := s - (float64(src[x-2])+float64(src[x+2]))/2.0
				yRow[x] = s - c

				phase := (phaseBase + x) & 3
				u := c * e.runtime.Sin[phase] * 2.0 * e.chromaGain
				v := c * e.runtime.Cos[phase] * 2.0 * e.chromaGain * vSwitch
				uRow[x] = u*cosNorm - v*sinNorm
				vRow[x] = u*sinNorm + v*cosNorm
			}

			if lumaThreshold > 0 {
				coreLuma(yRow, scratch, lumaThreshold)
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
