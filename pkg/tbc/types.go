// Package tbc defines the domain types shared by the TBC decode pipeline:
// capture-level video parameters, per-field metadata, decoder selection and
// the component frame produced by a decode engine.
package tbc

import "strings"

// VideoSystem identifies the analog video system of a capture.
type VideoSystem int

const (
	SystemNTSC VideoSystem = iota
	SystemPAL
	SystemPALM
)

// String returns the canonical name as stored in the metadata store.
func (s VideoSystem) String() string {
	switch s {
	case SystemPAL:
		return "PAL"
	case SystemPALM:
		return "PAL_M"
	default:
		return "NTSC"
	}
}

// ParseVideoSystem maps a stored system name to a VideoSystem.
// Unknown names map to NTSC, matching the store's read behavior.
func ParseVideoSystem(name string) VideoSystem {
	switch name {
	case "PAL":
		return SystemPAL
	case "PAL_M":
		return SystemPALM
	default:
		return SystemNTSC
	}
}

// IsNTSCCarrier reports whether the system uses an NTSC color subcarrier.
// PAL-M runs at NTSC line rates but carries a PAL-modulated subcarrier, so
// it is not an NTSC carrier for decoder selection purposes.
func (s VideoSystem) IsNTSCCarrier() bool {
	return s == SystemNTSC
}

// IsNTSCFamily reports whether the system uses NTSC frame timing
// (29.97 fps, 525 lines). True for NTSC and PAL-M.
func (s VideoSystem) IsNTSCFamily() bool {
	return s == SystemNTSC || s == SystemPALM
}

// VideoParameters holds the capture-level record from the metadata store.
// The FSC, FirstActiveFrameLine and LastActiveFrameLine fields are not
// stored; they are recomputed from System via ApplySystemDefaults.
type VideoParameters struct {
	System                   VideoSystem
	SampleRate               float64
	FieldWidth               int
	FieldHeight              int
	ActiveVideoStart         int
	ActiveVideoEnd           int
	ColourBurstStart         int
	ColourBurstEnd           int
	White16bIRE              int
	Black16bIRE              int
	IsMapped                 bool
	IsSubcarrierLocked       bool
	IsWidescreen             bool
	NumberOfSequentialFields int

	// Derived from System, never stored.
	FSC                  float64
	FirstActiveFrameLine int
	LastActiveFrameLine  int

	IsValid bool
}

// ApplySystemDefaults recomputes the derived constants from System.
// The formulas match the per-system defaults of the upstream decode engine.
func (vp *VideoParameters) ApplySystemDefaults() {
	switch vp.System {
	case SystemPAL:
		vp.FSC = 283.75*15625.0 + 25.0
		vp.FirstActiveFrameLine = 44
		vp.LastActiveFrameLine = 620
	case SystemPALM:
		vp.FSC = 5.0e6 * (63.0 / 88.0) * (909.0 / 910.0)
		vp.FirstActiveFrameLine = 40
		vp.LastActiveFrameLine = 525
	default:
		vp.FSC = 315.0e6 / 88.0
		vp.FirstActiveFrameLine = 40
		vp.LastActiveFrameLine = 525
	}
}

// FieldRecord is the per-field metadata row. Records are immutable once
// read; the decode path only consults them for windowing and phase.
type FieldRecord struct {
	SeqNo          int // 1-based sequence number
	IsFirstField   bool
	SyncConf       int
	MedianBurstIRE float64
	FieldPhaseID   int
	AudioSamples   int   // -1 when not present in the store
	DiskLoc        float64
	FileLoc        int64 // -1 when not present in the store
	DecodeFaults   int
	Pad            bool
}

// SourceField pairs a field's metadata with its raw samples, as loaded
// from the sample file for one decode window.
type SourceField struct {
	Record FieldRecord
	Data   []uint16 // FieldWidth * FieldHeight samples
}

// DecoderType is the closed set of decode-engine variants.
type DecoderType int

const (
	DecoderAuto DecoderType = iota
	DecoderNtsc1D
	DecoderNtsc2D
	DecoderNtsc3D
	DecoderNtsc3DNoAdapt
	DecoderPal2D
	DecoderTransform2D
	DecoderTransform3D
	DecoderMono
)

// String returns the CLI name of the decoder variant.
func (d DecoderType) String() string {
	switch d {
	case DecoderNtsc1D:
		return "ntsc1d"
	case DecoderNtsc2D:
		return "ntsc2d"
	case DecoderNtsc3D:
		return "ntsc3d"
	case DecoderNtsc3DNoAdapt:
		return "ntsc3dnoadapt"
	case DecoderPal2D:
		return "pal2d"
	case DecoderTransform2D:
		return "transform2d"
	case DecoderTransform3D:
		return "transform3d"
	case DecoderMono:
		return "mono"
	default:
		return "auto"
	}
}

// ParseDecoderName maps a decoder name to its DecoderType.
// Unrecognized names map to DecoderAuto.
func ParseDecoderName(name string) DecoderType {
	switch strings.ToLower(name) {
	case "ntsc1d":
		return DecoderNtsc1D
	case "ntsc2d":
		return DecoderNtsc2D
	case "ntsc3d":
		return DecoderNtsc3D
	case "ntsc3dnoadapt":
		return DecoderNtsc3DNoAdapt
	case "pal2d":
		return DecoderPal2D
	case "transform2d":
		return DecoderTransform2D
	case "transform3d":
		return DecoderTransform3D
	case "mono":
		return DecoderMono
	default:
		return DecoderAuto
	}
}

// IsNTSCVariant reports whether the variant requires an NTSC color carrier.
func (d DecoderType) IsNTSCVariant() bool {
	switch d {
	case DecoderNtsc1D, DecoderNtsc2D, DecoderNtsc3D, DecoderNtsc3DNoAdapt:
		return true
	}
	return false
}

// IsPALVariant reports whether the variant requires a PAL color carrier.
func (d DecoderType) IsPALVariant() bool {
	switch d {
	case DecoderPal2D, DecoderTransform2D, DecoderTransform3D:
		return true
	}
	return false
}

// Configuration is the immutable per-open parameter bundle for a reader.
type Configuration struct {
	ChromaGain        float64
	ChromaPhase       float64 // degrees
	ChromaNR          float64
	LumaNR            float64
	PaddingMultiple   int
	ReverseFields     bool
	PhaseCompensation bool
	Decoder           DecoderType
}

// DefaultConfiguration returns the configuration used when the caller
// supplies no options.
func DefaultConfiguration() Configuration {
	return Configuration{
		ChromaGain:      1.0,
		PaddingMultiple: 8,
		Decoder:         DecoderAuto,
	}
}
