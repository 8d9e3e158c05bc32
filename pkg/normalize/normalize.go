// Package normalize converts the decode engine's component samples into
// geometry-padded normalized planar output. Luma maps to roughly [0, 1]
// against the capture's black/white calibration levels; color-difference
// samples map to roughly [-0.5, 0.5] in IEC-normalized units.
package normalize

import (
	"github.com/user/tbcdecode/pkg/tbc"
)

// Luma-matrix blue/red coefficients, BT.601.
const (
	coeffKb = 0.114
	coeffKr = 0.299
)

// Color-difference reduction factors from the NTSC-1953 luminance matrix
// at modern precision:
//   kB = sqrt(209556997 / 96146491) / 3
//   kR = sqrt(221990474 / 288439473)
const (
	kB = 0.4921110411224836
	kR = 0.8772832199381787
)

// PlanarFrame is a normalized output frame: float32 planes in row-major
// order with stride == Width. U and V are nil for mono output.
type PlanarFrame struct {
	Width  int
	Height int
	Mono   bool
	Y      []float32
	U      []float32
	V      []float32
}

// NewPlanarFrame allocates a zeroed output frame.
func NewPlanarFrame(width, height int, mono bool) *PlanarFrame {
	f := &PlanarFrame{
		Width:  width,
		Height: height,
		Mono:   mono,
		Y:      make([]float32, width*height),
	}
	if !mono {
		f.U = make([]float32, width*height)
		f.V = make([]float32, width*height)
	}
	return f
}

// Options describes the geometry and calibration of one conversion.
type Options struct {
	Width        int // padded output width
	Height       int // padded output height
	ActiveWidth  int
	ActiveHeight int

	FirstActiveFrameLine int
	ActiveVideoStart     int

	// Offsets for the chroma read when a separate chroma source is
	// supplied; they fall back to the primary offsets above when the two
	// sources share geometry derivation.
	ChromaFirstActiveFrameLine int
	ChromaActiveVideoStart     int

	BlackLevel float64
	WhiteLevel float64

	Mono bool
}

// ChromaScales returns the Cb and Cr scale factors that convert the decode
// engine's internal color-difference units into normalized output units:
//
//	scale = 1 / ((2 * (1 - K)) * k * range)
func ChromaScales(blackLevel, whiteLevel float64) (cbScale, crScale float64) {
	r := whiteLevel - blackLevel
	cbScale = 1.0 / (2.0 * (1.0 - coeffKb) * kB * r)
	crScale = 1.0 / (2.0 * (1.0 - coeffKr) * kR * r)
	return cbScale, crScale
}

// Convert maps a primary (luma or composite) component frame, and
// optionally a secondary chroma component frame, into a normalized planar
// frame at the padded output geometry. Samples beyond the active picture
// are exactly neutral (0 luma, 0 chroma).
func Convert(luma *tbc.ComponentFrame, chroma *tbc.ComponentFrame, opts Options) *PlanarFrame {
	dst := NewPlanarFrame(opts.Width, opts.Height, opts.Mono)

	yOffset := opts.BlackLevel
	yRange := opts.WhiteLevel - opts.BlackLevel
	cbScale, crScale := ChromaScales(opts.BlackLevel, opts.WhiteLevel)

	uvSource := luma
	uvFirstLine := opts.FirstActiveFrameLine
	uvStart := opts.ActiveVideoStart
	if chroma != nil {
		uvSource = chroma
		uvFirstLine = opts.ChromaFirstActiveFrameLine
		uvStart = opts.ChromaActiveVideoStart
	}

	for y := 0; y < opts.Height; y++ {
		row := y * opts.Width
		if y >= opts.ActiveHeight {
			// Vertical padding rows stay at the zero value of a fresh
			// allocation.
			continue
		}

		srcY := luma.Y(opts.FirstActiveFrameLine + y)[opts.ActiveVideoStart:]
		for x := 0; x < opts.ActiveWidth; x++ {
			dst.Y[row+x] = float32((srcY[x] - yOffset) / yRange)
		}

		if !opts.Mono {
			srcU := uvSource.U(uvFirstLine + y)[uvStart:]
			srcV := uvSource.V(uvFirstLine + y)[uvStart:]
			for x := 0; x < opts.ActiveWidth; x++ {
				dst.U[row+x] = float32(srcU[x] * cbScale)
				dst.V[row+x] = float32(srcV[x] * crScale)
			}
		}
	}
	return dst
}
