package source

import (
	"math"
	"testing"

	"github.com/user/tbcdecode/pkg/mocks"
	"github.com/user/tbcdecode/pkg/tbc"
)

// ntscSpec returns a small NTSC capture whose active region still lands
// inside the derived frame lines (40..525), so decoded frames can be
// normalized.
func ntscSpec(numFields int) mocks.CaptureSpec {
	return mocks.CaptureSpec{
		FieldWidth:       64,
		FieldHeight:      263,
		NumFields:        numFields,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	}
}

func TestOpen_Properties(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(4))

	src, err := Open(path, "", "", DefaultOptions(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	p := src.Properties()
	if p.ColorFamily != ColorFamilyYUV {
		t.Errorf("ColorFamily = %v, want yuv", p.ColorFamily)
	}
	if p.Width != 32 || p.Height != 488 {
		t.Errorf("dimensions = %dx%d, want 32x488", p.Width, p.Height)
	}
	if p.NumFrames != 2 {
		t.Errorf("NumFrames = %d, want 2", p.NumFrames)
	}
	if p.FPSNum != 30000 || p.FPSDen != 1001 {
		t.Errorf("fps = %d/%d, want 30000/1001", p.FPSNum, p.FPSDen)
	}
	if p.Primaries != 6 || p.Matrix != 6 || p.Transfer != 1 {
		t.Errorf("color tags = %d/%d/%d, want 6/6/1 for NTSC", p.Primaries, p.Matrix, p.Transfer)
	}
	if !p.LimitedRange {
		t.Error("output should be tagged limited range")
	}
	if p.SARNum != 352 || p.SARDen != 413 {
		t.Errorf("SAR = %d:%d, want 352:413", p.SARNum, p.SARDen)
	}
	if p.FieldOrder != FieldOrderTopFirst {
		t.Errorf("FieldOrder = %v, want top first", p.FieldOrder)
	}
}

func TestOpen_PALProperties(t *testing.T) {
	spec := mocks.CaptureSpec{
		System:           "PAL",
		FieldWidth:       64,
		FieldHeight:      313,
		NumFields:        2,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	}
	path := mocks.WriteCapture(t, t.TempDir(), "capture", spec)

	src, err := Open(path, "", "", DefaultOptions(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	p := src.Properties()
	if p.FPSNum != 25 || p.FPSDen != 1 {
		t.Errorf("fps = %d/%d, want 25/1", p.FPSNum, p.FPSDen)
	}
	if p.Primaries != 5 || p.Matrix != 5 {
		t.Errorf("color tags = %d/%d, want 5/5 for PAL", p.Primaries, p.Matrix)
	}
	if p.SARNum != 259 || p.SARDen != 311 {
		t.Errorf("SAR = %d:%d, want 259:311", p.SARNum, p.SARDen)
	}
}

func TestSampleAspectRatio(t *testing.T) {
	tests := []struct {
		name       string
		ntscFamily bool
		widescreen bool
		wantNum    int
		wantDen    int
	}{
		{"ntsc 4:3", true, false, 352, 413},
		{"ntsc 16:9", true, true, 25, 22},
		{"pal 4:3", false, false, 259, 311},
		{"pal 16:9", false, true, 865, 779},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			num, den := sampleAspectRatio(tt.ntscFamily, tt.widescreen)
			if num != tt.wantNum || den != tt.wantDen {
				t.Errorf("sampleAspectRatio = %d:%d, want %d:%d", num, den, tt.wantNum, tt.wantDen)
			}
		})
	}
}

func TestFieldOrderFor(t *testing.T) {
	if fieldOrderFor(40) != FieldOrderTopFirst {
		t.Error("even first active line should be top-field-first")
	}
	if fieldOrderFor(44) != FieldOrderTopFirst {
		t.Error("even first active line should be top-field-first")
	}
	if fieldOrderFor(23) != FieldOrderBottomFirst {
		t.Error("odd first active line should be bottom-field-first")
	}
}

func TestOpen_FPSOverride(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(4))

	opts := DefaultOptions()
	opts.FPSNum = 15000
	opts.FPSDen = 1001

	src, err := Open(path, "", "", opts, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	p := src.Properties()
	if p.FPSNum != 15000 || p.FPSDen != 1001 {
		t.Errorf("fps = %d/%d, want 15000/1001", p.FPSNum, p.FPSDen)
	}
	// Halving the rate halves the frame count so the duration holds.
	if p.NumFrames != 1 {
		t.Errorf("NumFrames = %d, want 1", p.NumFrames)
	}
}

func TestOpen_FPSOverrideReduced(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(4))

	opts := DefaultOptions()
	opts.FPSNum = 60
	opts.FPSDen = 2

	src, err := Open(path, "", "", opts, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	p := src.Properties()
	if p.FPSNum != 30 || p.FPSDen != 1 {
		t.Errorf("fps = %d/%d, want the reduced 30/1", p.FPSNum, p.FPSDen)
	}
}

func TestOpen_InvalidFPSDenominator(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(2))

	opts := DefaultOptions()
	opts.FPSNum = 30
	opts.FPSDen = 0

	if _, err := Open(path, "", "", opts, mocks.NewLogger()); err == nil {
		t.Fatal("expected an error for a zero FPS denominator")
	}
}

func TestOpen_ComponentVideoRejected(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(2))

	_, err := Open(path, "", path, DefaultOptions(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindComponentVideoUnsupported) {
		t.Fatalf("err = %v, want KindComponentVideoUnsupported", err)
	}
}

func TestOpen_UndersizedFieldGeometry(t *testing.T) {
	dir := t.TempDir()
	spec := ntscSpec(2)
	// Active frame lines 40..525 cannot fit a 19-line frame.
	spec.FieldHeight = 10
	path := mocks.WriteCapture(t, dir, "capture", spec)

	_, err := Open(path, "", "", DefaultOptions(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindInvalidVideoParameters) {
		t.Fatalf("err = %v, want KindInvalidVideoParameters", err)
	}
}

func TestOpen_MonoSelection(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(2))

	opts := DefaultOptions()
	opts.Decoder = tbc.DecoderMono

	src, err := Open(path, "", "", opts, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.Properties().ColorFamily != ColorFamilyGray {
		t.Errorf("ColorFamily = %v, want gray for a mono selection", src.Properties().ColorFamily)
	}

	frame, err := src.DecodeFrame(0)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if !frame.Mono || frame.U != nil {
		t.Error("mono decode should produce a luma-only frame")
	}
}

func TestOpen_ChromaSourceForcesColor(t *testing.T) {
	dir := t.TempDir()
	lumaPath := mocks.WriteCapture(t, dir, "luma", ntscSpec(2))
	chromaPath := mocks.WriteCapture(t, dir, "chroma", ntscSpec(2))

	opts := DefaultOptions()
	opts.Decoder = tbc.DecoderMono

	src, err := Open(lumaPath, chromaPath, "", opts, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if src.Properties().ColorFamily != ColorFamilyYUV {
		t.Error("a separate chroma source implies color output even under a mono selection")
	}

	frame, err := src.DecodeFrame(0)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Mono || frame.U == nil || frame.V == nil {
		t.Error("dual-source decode should produce full color planes")
	}
}

func TestOpen_DimensionMismatch(t *testing.T) {
	dir := t.TempDir()
	lumaPath := mocks.WriteCapture(t, dir, "luma", ntscSpec(2))

	narrow := ntscSpec(2)
	narrow.ActiveVideoEnd = 32
	chromaPath := mocks.WriteCapture(t, dir, "chroma", narrow)

	_, err := Open(lumaPath, chromaPath, "", DefaultOptions(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindDimensionMismatch) {
		t.Fatalf("err = %v, want KindDimensionMismatch", err)
	}
}

func TestOpen_FrameCountMismatch(t *testing.T) {
	dir := t.TempDir()
	lumaPath := mocks.WriteCapture(t, dir, "luma", ntscSpec(4))
	chromaPath := mocks.WriteCapture(t, dir, "chroma", ntscSpec(2))

	_, err := Open(lumaPath, chromaPath, "", DefaultOptions(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindFrameCountMismatch) {
		t.Fatalf("err = %v, want KindFrameCountMismatch", err)
	}
}

func TestDecodeFrame_FlatFieldNormalizes(t *testing.T) {
	dir := t.TempDir()
	spec := ntscSpec(2)
	spec.Sample = func(field, line, x int) uint16 {
		return uint16((16384 + 51200) / 2)
	}
	path := mocks.WriteCapture(t, dir, "capture", spec)

	src, err := Open(path, "", "", DefaultOptions(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	frame, err := src.DecodeFrame(0)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if frame.Width != 32 || frame.Height != 488 {
		t.Fatalf("frame = %dx%d, want 32x488", frame.Width, frame.Height)
	}

	// A flat field has no subcarrier energy: mid-gray luma, zero chroma
	// in the active region, neutral padding everywhere else.
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			i := y*frame.Width + x
			wantY := 0.0
			if y < 485 {
				wantY = 0.5
			}
			if math.Abs(float64(frame.Y[i])-wantY) > 1e-6 {
				t.Fatalf("Y[%d,%d] = %f, want %f", x, y, frame.Y[i], wantY)
			}
			if frame.U[i] != 0 || frame.V[i] != 0 {
				t.Fatalf("chroma at (%d,%d) = %f/%f, want 0", x, y, frame.U[i], frame.V[i])
			}
		}
	}
}

func TestDecodeFrame_RangeError(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", ntscSpec(2))

	src, err := Open(path, "", "", DefaultOptions(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()

	if _, err := src.DecodeFrame(5); !tbc.IsKind(err, tbc.KindFrameOutOfRange) {
		t.Fatalf("err = %v, want KindFrameOutOfRange", err)
	}
	if _, err := src.DecodeFrame(0); err != nil {
		t.Errorf("DecodeFrame(0) after a range error: %v", err)
	}
}

func TestReduceRational(t *testing.T) {
	tests := []struct {
		num, den   int64
		wantN, wND int64
	}{
		{30000, 1001, 30000, 1001},
		{60, 2, 30, 1},
		{25, 1, 25, 1},
		{0, 1, 0, 1},
	}
	for _, tt := range tests {
		n, d := reduceRational(tt.num, tt.den)
		if n != tt.wantN || d != tt.wND {
			t.Errorf("reduceRational(%d, %d) = %d/%d, want %d/%d", tt.num, tt.den, n, d, tt.wantN, tt.wND)
		}
	}
}
