package mocks

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// CaptureSpec describes a synthetic TBC capture for tests: the metadata
// written to the JSON sidecar and a sample generator for the raw file.
type CaptureSpec struct {
	System      string // NTSC, PAL or PAL_M; empty means NTSC
	FieldWidth  int
	FieldHeight int
	NumFields   int

	ActiveVideoStart int
	ActiveVideoEnd   int
	Black16bIRE      int
	White16bIRE      int
	IsWidescreen     bool

	// Sample produces the raw sample at (field, line, x); field is
	// 0-indexed. When nil, every sample is the black level.
	Sample func(field, line, x int) uint16
}

// WriteCapture writes name.tbc and name.json under dir and returns the
// sample file path, ready for the decode path to open.
func WriteCapture(t *testing.T, dir, name string, spec CaptureSpec) string {
	t.Helper()

	if spec.System == "" {
		spec.System = "NTSC"
	}
	if spec.Black16bIRE == 0 {
		spec.Black16bIRE = 16384
	}
	if spec.White16bIRE == 0 {
		spec.White16bIRE = 51200
	}

	samplePath := filepath.Join(dir, name+".tbc")
	writeSampleFile(t, samplePath, spec)
	writeSidecarJSON(t, filepath.Join(dir, name+".json"), spec)
	return samplePath
}

func writeSampleFile(t *testing.T, path string, spec CaptureSpec) {
	t.Helper()

	buf := make([]byte, spec.NumFields*spec.FieldHeight*spec.FieldWidth*2)
	i := 0
	for field := 0; field < spec.NumFields; field++ {
		for line := 0; line < spec.FieldHeight; line++ {
			for x := 0; x < spec.FieldWidth; x++ {
				s := uint16(spec.Black16bIRE)
				if spec.Sample != nil {
					s = spec.Sample(field, line, x)
				}
				binary.LittleEndian.PutUint16(buf[i:], s)
				i += 2
			}
		}
	}
	if err := os.WriteFile(path, buf, 0644); err != nil {
		t.Fatalf("write sample file: %v", err)
	}
}

func writeSidecarJSON(t *testing.T, path string, spec CaptureSpec) {
	t.Helper()

	fields := make([]map[string]interface{}, spec.NumFields)
	for i := 0; i < spec.NumFields; i++ {
		fields[i] = map[string]interface{}{
			"seqNo":          i, // 0-indexed in sidecar JSON
			"isFirstField":   i%2 == 0,
			"syncConf":       100,
			"medianBurstIRE": 20.0,
			"fieldPhaseID":   i%4 + 1,
			"diskLoc":        float64(i + 1),
			"fileLoc":        int64(i) * int64(spec.FieldWidth) * int64(spec.FieldHeight) * 2,
			"pad":            false,
		}
	}

	sidecar := map[string]interface{}{
		"videoParameters": map[string]interface{}{
			"system":                   spec.System,
			"numberOfSequentialFields": spec.NumFields,
			"fieldWidth":               spec.FieldWidth,
			"fieldHeight":              spec.FieldHeight,
			"sampleRate":               4.0 * 315.0e6 / 88.0,
			"activeVideoStart":         spec.ActiveVideoStart,
			"activeVideoEnd":           spec.ActiveVideoEnd,
			"colourBurstStart":         spec.ActiveVideoStart / 2,
			"colourBurstEnd":           spec.ActiveVideoStart,
			"white16bIre":              spec.White16bIRE,
			"black16bIre":              spec.Black16bIRE,
			"isWidescreen":             spec.IsWidescreen,
		},
		"fields": fields,
	}

	data, err := json.Marshal(sidecar)
	if err != nil {
		t.Fatalf("marshal sidecar: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}
}
