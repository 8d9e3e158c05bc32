package source

// ColorFamily tags the output plane layout.
type ColorFamily int

const (
	// ColorFamilyGray is luma-only output (mono decoder, no chroma source).
	ColorFamilyGray ColorFamily = iota
	// ColorFamilyYUV is 4:4:4 Y'CbCr output with no subsampling.
	ColorFamilyYUV
)

// String returns a human-readable family name.
func (c ColorFamily) String() string {
	if c == ColorFamilyGray {
		return "gray"
	}
	return "yuv444"
}

// FieldOrder tags interlaced field dominance.
type FieldOrder int

const (
	FieldOrderTopFirst FieldOrder = iota
	FieldOrderBottomFirst
)

// String returns a human-readable field order.
func (f FieldOrder) String() string {
	if f == FieldOrderBottomFirst {
		return "bottom-field-first"
	}
	return "top-field-first"
}

// VideoProperties is the frame-stream description exposed to the host
// runtime: dimensions, timing, and the color metadata tags downstream
// pipelines need to stay calibrated without user configuration.
type VideoProperties struct {
	ColorFamily ColorFamily
	Width       int
	Height      int
	NumFrames   int

	FPSNum int64
	FPSDen int64

	// ITU H.273 code points: 6/6 for NTSC-family (SMPTE 170M), 5/5 for
	// PAL-family (BT.470BG); transfer is BT.601/709 for both.
	Primaries int
	Matrix    int
	Transfer  int

	// Samples are float but calibrated to limited-range excursions, so
	// the stream is tagged limited for downstream integer conversions.
	LimitedRange bool

	FieldOrder FieldOrder

	SARNum int
	SARDen int
}

// sampleAspectRatio returns the fixed sample aspect ratio for a video
// system family and widescreen flag. The ratios follow EBU R92 and SMPTE
// RP 187 scaled from BT.601 sampling to 4fSC.
func sampleAspectRatio(ntscFamily, widescreen bool) (num, den int) {
	if ntscFamily {
		if widescreen {
			return 25, 22
		}
		return 352, 413
	}
	if widescreen {
		return 865, 779
	}
	return 259, 311
}

// fieldOrderFor derives field dominance from the first active frame line:
// an odd first line means the bottom field carries the first active line.
func fieldOrderFor(firstActiveFrameLine int) FieldOrder {
	if firstActiveFrameLine%2 == 1 {
		return FieldOrderBottomFirst
	}
	return FieldOrderTopFirst
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// reduceRational reduces num/den to lowest terms.
func reduceRational(num, den int64) (int64, int64) {
	g := gcd(num, den)
	if g == 0 {
		return num, den
	}
	return num / g, den / g
}
