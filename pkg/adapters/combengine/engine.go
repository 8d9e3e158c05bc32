// Package combengine provides the NTSC-family comb-filter decode engine.
//
// The engine separates luma and chroma with a one-dimensional bandstop at
// the color subcarrier, which is exact at the 4x-subcarrier sample rate
// where one subcarrier cycle spans four samples, then demodulates the
// separated chroma against the shared quadrature tables. The 2D/3D
// variants differ in the field window they require; the adaptive
// inter-field blending of the full 3D filter is out of scope here.
package combengine

import (
	"math"

	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Engine implements ports.DecodeEngine for NTSC-family captures.
type Engine struct {
	params  tbc.VideoParameters
	runtime *tbc.Runtime
	look    int

	chromaGain  float64
	chromaPhase float64 // radians
	chromaNR    float64
	lumaNR      float64
}

// New creates a comb engine configured for one of the NTSC decoder
// variants (Ntsc1D, Ntsc2D, Ntsc3D, Ntsc3DNoAdapt).
func New(params tbc.VideoParameters, config tbc.Configuration, variant tbc.DecoderType) *Engine {
	e := &Engine{
		params:      params,
		runtime:     tbc.AcquireRuntime(),
		chromaGain:  config.ChromaGain,
		chromaPhase: config.ChromaPhase * math.Pi / 180.0,
		chromaNR:    config.ChromaNR,
		lumaNR:      config.LumaNR,
	}
	if variant == tbc.DecoderNtsc3D || variant == tbc.DecoderNtsc3DNoAdapt {
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
		return tbc.Errorf(tbc.KindDecodeFailed, "comb decode: incomplete field window")
	}

	width := e.params.FieldWidth
	ireRange := float64(e.params.White16bIRE - e.params.Black16bIRE)
	threshold := e.chromaNR * ireRange / 100.0
	lumaThreshold := e.lumaNR * ireRange / 100.0
	sinNorm, cosNorm := math.Sin(e.chromaPhase), math.Cos(e.chromaPhase)

	var scratch []float64
	if lumaThreshold > 0 {
		scratch = make([]float64, width)
	}

	for fi := 0; fi < 2; fi++ {
		field := fields[start+fi]
		if len(field.Data) < width*e.params.FieldHeight {
			return tbc.Errorf(tbc.KindDecodeFailed, "comb decode: short field %d", field.Record.SeqNo)
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

			// The subcarrier shifts half a cycle per line; FieldPhaseID
			// anchors the four-field NTSC phase sequence.
			phaseBase := (field.Record.FieldPhaseID + 2*line) % 4
			if phaseBase < 0 {
				phaseBase += 4
			}

			for x := 0; x < width; x++ {
				s := float64(src[x])
				if x < 2 || x >= width-2 {
					yRow[x] = s
					continue
				}
				// Samples two apart are one subcarrier cycle half out of
				// phase, so their mean cancels the chroma.
				c := s - (float64(src[x-2])+float64(src[x+2]))/2.0
				if threshold > 0 && math.Abs(c) < threshold {
					c = 0
				}
				yRow[x] = s - c

				phase := (phaseBase + x) & 3
				u := c * e.runtime.Sin[phase] * 2.0 * e.chromaGain
				v := c * e.runtime.Cos[phase] * 2.0 * e.chromaGain
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
