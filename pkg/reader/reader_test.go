package reader

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/user/tbcdecode/pkg/mocks"
	"github.com/user/tbcdecode/pkg/tbc"
)

func TestPadDimension(t *testing.T) {
	tests := []struct {
		name   string
		active int
		m      int
		want   int
	}{
		{"exact multiple", 760, 8, 760},
		{"round up", 758, 8, 760},
		{"round up height", 485, 8, 488},
		{"disabled", 758, 0, 758},
		{"multiple of one", 758, 1, 758},
		{"non power of two", 485, 16, 496},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := padDimension(tt.active, tt.m); got != tt.want {
				t.Errorf("padDimension(%d, %d) = %d, want %d", tt.active, tt.m, got, tt.want)
			}
		})
	}
}

func TestResolveDecoder(t *testing.T) {
	tests := []struct {
		name      string
		requested tbc.DecoderType
		system    tbc.VideoSystem
		want      tbc.DecoderType
		wantWarn  bool
	}{
		{"auto on ntsc", tbc.DecoderAuto, tbc.SystemNTSC, tbc.DecoderNtsc2D, false},
		{"auto on pal", tbc.DecoderAuto, tbc.SystemPAL, tbc.DecoderPal2D, false},
		{"auto on palm", tbc.DecoderAuto, tbc.SystemPALM, tbc.DecoderPal2D, false},
		{"matching ntsc", tbc.DecoderNtsc3D, tbc.SystemNTSC, tbc.DecoderNtsc3D, false},
		{"matching pal", tbc.DecoderTransform2D, tbc.SystemPAL, tbc.DecoderTransform2D, false},
		{"ntsc decoder on pal video", tbc.DecoderNtsc2D, tbc.SystemPAL, tbc.DecoderPal2D, true},
		{"ntsc decoder on palm video", tbc.DecoderNtsc3D, tbc.SystemPALM, tbc.DecoderPal2D, true},
		{"pal decoder on ntsc video", tbc.DecoderTransform3D, tbc.SystemNTSC, tbc.DecoderNtsc2D, true},
		{"pal decoder on palm video", tbc.DecoderPal2D, tbc.SystemPALM, tbc.DecoderPal2D, false},
		{"mono anywhere", tbc.DecoderMono, tbc.SystemPAL, tbc.DecoderMono, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := mocks.NewLogger()
			got := ResolveDecoder(tt.requested, tt.system, log)
			if got != tt.want {
				t.Errorf("ResolveDecoder(%v, %v) = %v, want %v", tt.requested, tt.system, got, tt.want)
			}
			if gotWarn := len(log.WarnMessages) > 0; gotWarn != tt.wantWarn {
				t.Errorf("warned = %v, want %v (messages: %v)", gotWarn, tt.wantWarn, log.WarnMessages)
			}
		})
	}
}

func TestOpen_Geometry(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       910,
		FieldHeight:      263,
		NumFields:        4,
		ActiveVideoStart: 134,
		ActiveVideoEnd:   892,
	})

	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.ActiveWidth() != 758 || r.ActiveHeight() != 485 {
		t.Errorf("active = %dx%d, want 758x485", r.ActiveWidth(), r.ActiveHeight())
	}
	if r.Width() != 760 || r.Height() != 488 {
		t.Errorf("padded = %dx%d, want 760x488", r.Width(), r.Height())
	}
	if r.FrameCount() != 2 {
		t.Errorf("FrameCount() = %d, want 2", r.FrameCount())
	}
	if r.Selection() != tbc.DecoderNtsc2D {
		t.Errorf("Selection() = %v, want ntsc2d by default on NTSC", r.Selection())
	}
	if num, den := r.FrameRate(); num != 30000 || den != 1001 {
		t.Errorf("FrameRate() = %d/%d, want 30000/1001", num, den)
	}
}

func TestOpen_PaddingDisabled(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       910,
		FieldHeight:      263,
		NumFields:        2,
		ActiveVideoStart: 134,
		ActiveVideoEnd:   892,
	})

	cfg := tbc.DefaultConfiguration()
	cfg.PaddingMultiple = 0
	r, err := Open(path, cfg, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Width() != 758 || r.Height() != 485 {
		t.Errorf("padded = %dx%d, want the exact active 758x485", r.Width(), r.Height())
	}
}

func TestOpen_PALSelection(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		System:           "PAL",
		FieldWidth:       64,
		FieldHeight:      313,
		NumFields:        2,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	})

	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Selection() != tbc.DecoderPal2D {
		t.Errorf("Selection() = %v, want pal2d", r.Selection())
	}
	if num, den := r.FrameRate(); num != 25 || den != 1 {
		t.Errorf("FrameRate() = %d/%d, want 25/1", num, den)
	}
}

func TestOpen_TruncatedSampleFile(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       64,
		FieldHeight:      263,
		NumFields:        4,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	})

	// Cut the file below the declared field count.
	if err := os.Truncate(path, 64*263*2*3); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindSampleFileUnavailable) {
		t.Fatalf("err = %v, want KindSampleFileUnavailable", err)
	}
}

func TestOpen_MissingSampleFile(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       64,
		FieldHeight:      263,
		NumFields:        2,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	})
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindSampleFileUnavailable) {
		t.Fatalf("err = %v, want KindSampleFileUnavailable", err)
	}
}

// monoCapture writes a 2-frame mono test capture whose sample values
// encode their own (field, line, x) position.
func monoCapture(t *testing.T, dir string) string {
	return mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       16,
		FieldHeight:      263,
		NumFields:        4,
		ActiveVideoStart: 4,
		ActiveVideoEnd:   12,
		Sample: func(field, line, x int) uint16 {
			return uint16(16384 + field*8192 + line*16 + x)
		},
	})
}

func TestDecodeFrame_MonoInterleave(t *testing.T) {
	dir := t.TempDir()
	path := monoCapture(t, dir)

	cfg := tbc.DefaultConfiguration()
	cfg.Decoder = tbc.DecoderMono
	r, err := Open(path, cfg, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for frameNumber := 0; frameNumber < 2; frameNumber++ {
		frame, err := r.DecodeFrame(frameNumber)
		if err != nil {
			t.Fatalf("DecodeFrame(%d): %v", frameNumber, err)
		}
		if frame.Width() != 16 || frame.Height() != 525 {
			t.Fatalf("frame = %dx%d, want 16x525", frame.Width(), frame.Height())
		}

		// Even frame lines come from the first field of the pair, odd
		// lines from the second.
		for frameLine := 0; frameLine < frame.Height(); frameLine++ {
			field := 2*frameNumber + frameLine%2
			line := frameLine / 2
			for x := 0; x < frame.Width(); x++ {
				want := float64(16384 + field*8192 + line*16 + x)
				if got := frame.Y(frameLine)[x]; got != want {
					t.Fatalf("frame %d Y(%d)[%d] = %f, want %f", frameNumber, frameLine, x, got, want)
				}
			}
		}
	}
}

func TestDecodeFrame_ReverseFields(t *testing.T) {
	dir := t.TempDir()
	path := monoCapture(t, dir)

	cfg := tbc.DefaultConfiguration()
	cfg.Decoder = tbc.DecoderMono
	cfg.ReverseFields = true
	r, err := Open(path, cfg, mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	frame, err := r.DecodeFrame(0)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}

	// With the pair swapped, even frame lines read from field 1 and odd
	// lines from field 0.
	for frameLine := 0; frameLine < frame.Height(); frameLine++ {
		field := 1 - frameLine%2
		line := frameLine / 2
		want := float64(16384 + field*8192 + line*16)
		if got := frame.Y(frameLine)[0]; got != want {
			t.Fatalf("Y(%d)[0] = %f, want %f", frameLine, got, want)
		}
	}
}

func TestDecodeFrame_OutOfRange(t *testing.T) {
	dir := t.TempDir()
	path := monoCapture(t, dir)

	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for _, n := range []int{-1, 2, 100} {
		_, err := r.DecodeFrame(n)
		if !tbc.IsKind(err, tbc.KindFrameOutOfRange) {
			t.Errorf("DecodeFrame(%d) err = %v, want KindFrameOutOfRange", n, err)
		}
	}

	// A rejected frame number leaves the reader usable.
	if _, err := r.DecodeFrame(0); err != nil {
		t.Errorf("DecodeFrame(0) after range error: %v", err)
	}
}

// spyEngine records the window it is handed and checks decode calls are
// never concurrent.
type spyEngine struct {
	look     int
	inFlight int32

	mu      sync.Mutex
	windows [][]int // SeqNo per window
	starts  []int
	ends    []int
}

func (s *spyEngine) LookBehind() int { return s.look }
func (s *spyEngine) LookAhead() int  { return s.look }

func (s *spyEngine) Decode(fields []tbc.SourceField, start, end int, frame *tbc.ComponentFrame) error {
	if atomic.AddInt32(&s.inFlight, 1) != 1 {
		panic("concurrent decode")
	}
	defer atomic.AddInt32(&s.inFlight, -1)

	seqNos := make([]int, len(fields))
	for i, f := range fields {
		seqNos[i] = f.Record.SeqNo
	}
	s.mu.Lock()
	s.windows = append(s.windows, seqNos)
	s.starts = append(s.starts, start)
	s.ends = append(s.ends, end)
	s.mu.Unlock()
	return nil
}

func TestDecodeFrame_WindowClamping(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       16,
		FieldHeight:      263,
		NumFields:        6, // 3 frames
		ActiveVideoStart: 4,
		ActiveVideoEnd:   12,
	})

	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	spy := &spyEngine{look: 1}
	r.engine = spy

	tests := []struct {
		frame      int
		wantSeqNos []int
	}{
		// Windows past either end repeat the edge frame's field pair.
		{0, []int{1, 2, 1, 2, 3, 4}},
		{1, []int{1, 2, 3, 4, 5, 6}},
		{2, []int{3, 4, 5, 6, 5, 6}},
	}

	for i, tt := range tests {
		if _, err := r.DecodeFrame(tt.frame); err != nil {
			t.Fatalf("DecodeFrame(%d): %v", tt.frame, err)
		}
		got := spy.windows[i]
		if len(got) != len(tt.wantSeqNos) {
			t.Fatalf("frame %d window = %v, want %v", tt.frame, got, tt.wantSeqNos)
		}
		for j := range got {
			if got[j] != tt.wantSeqNos[j] {
				t.Errorf("frame %d window = %v, want %v", tt.frame, got, tt.wantSeqNos)
				break
			}
		}
		if spy.starts[i] != 2 || spy.ends[i] != 4 {
			t.Errorf("frame %d target bounds = [%d, %d), want [2, 4)", tt.frame, spy.starts[i], spy.ends[i])
		}
	}
}

func TestDecodeFrame_Serialized(t *testing.T) {
	dir := t.TempDir()
	path := monoCapture(t, dir)

	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	spy := &spyEngine{}
	r.engine = spy

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if _, err := r.DecodeFrame(n % 2); err != nil {
					t.Errorf("DecodeFrame: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if got := len(spy.windows); got != 160 {
		t.Errorf("decode calls = %d, want 160", got)
	}
}

func TestOpen_DecoderMismatchSubstitutes(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		System:           "PAL",
		FieldWidth:       64,
		FieldHeight:      313,
		NumFields:        2,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	})

	cfg := tbc.DefaultConfiguration()
	cfg.Decoder = tbc.DecoderNtsc3D
	log := mocks.NewLogger()
	r, err := Open(path, cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.Selection() != tbc.DecoderPal2D {
		t.Errorf("Selection() = %v, want pal2d substituted for the NTSC request", r.Selection())
	}
	if len(log.WarnMessages) == 0 {
		t.Error("expected a warning about the decoder substitution")
	}
}

func TestOpen_NoMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "capture.tbc")
	if err := os.WriteFile(path, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindMetadataUnavailable) {
		t.Fatalf("err = %v, want KindMetadataUnavailable", err)
	}
}

func TestOpen_ActiveRegionOutsideField(t *testing.T) {
	tests := []struct {
		name string
		spec mocks.CaptureSpec
	}{
		{"field height below active lines", mocks.CaptureSpec{
			FieldWidth:       64,
			FieldHeight:      10,
			NumFields:        2,
			ActiveVideoStart: 8,
			ActiveVideoEnd:   40,
		}},
		{"active video past field width", mocks.CaptureSpec{
			FieldWidth:       64,
			FieldHeight:      263,
			NumFields:        2,
			ActiveVideoStart: 8,
			ActiveVideoEnd:   80,
		}},
		{"empty active region", mocks.CaptureSpec{
			FieldWidth:       64,
			FieldHeight:      263,
			NumFields:        2,
			ActiveVideoStart: 40,
			ActiveVideoEnd:   40,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := mocks.WriteCapture(t, t.TempDir(), "capture", tt.spec)
			_, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
			if !tbc.IsKind(err, tbc.KindInvalidVideoParameters) {
				t.Fatalf("err = %v, want KindInvalidVideoParameters", err)
			}
		})
	}
}

func TestOpen_MissingFieldRecords(t *testing.T) {
	dir := t.TempDir()
	path := mocks.WriteCapture(t, dir, "capture", mocks.CaptureSpec{
		FieldWidth:       64,
		FieldHeight:      263,
		NumFields:        4,
		ActiveVideoStart: 8,
		ActiveVideoEnd:   40,
	})

	// First open migrates the sidecar into the store.
	r, err := Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Close()

	// Drop field records below the declared count behind the store's back.
	db, err := sql.Open("sqlite", "file:"+filepath.Join(dir, "capture.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec("DELETE FROM field_record WHERE field_id >= 2"); err != nil {
		t.Fatal(err)
	}
	db.Close()

	_, err = Open(path, tbc.DefaultConfiguration(), mocks.NewLogger())
	if !tbc.IsKind(err, tbc.KindMetadataCorrupt) {
		t.Fatalf("err = %v, want KindMetadataCorrupt", err)
	}
}
