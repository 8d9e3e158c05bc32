// Package reader opens one TBC capture and orchestrates per-frame decodes:
// it resolves the decoder selection, loads field windows with the engine's
// look-behind and look-ahead, and dispatches to the selected engine under a
// per-reader lock.
package reader

import (
	"sync"

	"github.com/user/tbcdecode/pkg/adapters/combengine"
	"github.com/user/tbcdecode/pkg/adapters/monoengine"
	"github.com/user/tbcdecode/pkg/adapters/palengine"
	"github.com/user/tbcdecode/pkg/metadata"
	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Reader decodes frames from one TBC capture. All decode calls are
// serialized on an internal lock because the engine instance keeps
// file-position-dependent state.
type Reader struct {
	mu sync.Mutex

	meta      ports.MetadataSource
	params    tbc.VideoParameters
	fields    []tbc.FieldRecord
	sample    *sampleFile
	engine    ports.DecodeEngine
	selection tbc.DecoderType
	config    tbc.Configuration
	log       ports.Logger

	activeWidth  int
	activeHeight int
	outputWidth  int
	outputHeight int
}

// Open opens the TBC sample file at path together with its metadata
// sidecar and prepares a configured reader. Open-time failures release
// every resource; no partial reader is returned.
func Open(path string, config tbc.Configuration, log ports.Logger) (*Reader, error) {
	meta, err := metadata.Open(path, log)
	if err != nil {
		return nil, err
	}

	params := meta.VideoParameters()
	if !params.IsValid {
		return nil, tbc.Errorf(tbc.KindInvalidVideoParameters, "invalid video parameters in metadata")
	}
	if params.ActiveVideoStart < 0 || params.ActiveVideoStart >= params.ActiveVideoEnd ||
		params.ActiveVideoEnd > params.FieldWidth {
		return nil, tbc.Errorf(tbc.KindInvalidVideoParameters,
			"active video samples %d..%d do not fit field width %d",
			params.ActiveVideoStart, params.ActiveVideoEnd, params.FieldWidth)
	}
	if frameHeight := 2*params.FieldHeight - 1; params.LastActiveFrameLine > frameHeight {
		return nil, tbc.Errorf(tbc.KindInvalidVideoParameters,
			"active frame lines %d..%d exceed the %d-line frame of %d-line fields",
			params.FirstActiveFrameLine, params.LastActiveFrameLine, frameHeight, params.FieldHeight)
	}

	fields := meta.FieldRecords()
	if len(fields) < params.NumberOfSequentialFields {
		return nil, tbc.Errorf(tbc.KindMetadataCorrupt,
			"metadata declares %d fields but holds %d field records",
			params.NumberOfSequentialFields, len(fields))
	}

	fieldLen := params.FieldWidth * params.FieldHeight
	sample, err := openSampleFile(path, fieldLen, params.NumberOfSequentialFields)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		meta:   meta,
		params: params,
		fields: fields,
		sample: sample,
		config: config,
		log:    log.WithComponent("reader"),
	}

	r.selection = ResolveDecoder(config.Decoder, params.System, r.log)
	r.engine = buildEngine(r.selection, params, config)
	r.log.Debug("Using decoder %s (look-behind %d, look-ahead %d)",
		r.selection, r.engine.LookBehind(), r.engine.LookAhead())

	r.activeWidth = params.ActiveVideoEnd - params.ActiveVideoStart
	r.activeHeight = params.LastActiveFrameLine - params.FirstActiveFrameLine
	r.outputWidth = padDimension(r.activeWidth, config.PaddingMultiple)
	r.outputHeight = padDimension(r.activeHeight, config.PaddingMultiple)

	return r, nil
}

// ResolveDecoder maps the requested decoder to the one actually used for
// the capture's color-carrier family. A mismatched explicit request is
// logged and replaced by the family default rather than rejected.
func ResolveDecoder(requested tbc.DecoderType, system tbc.VideoSystem, log ports.Logger) tbc.DecoderType {
	ntscCarrier := system.IsNTSCCarrier()

	if requested == tbc.DecoderAuto {
		if ntscCarrier {
			return tbc.DecoderNtsc2D
		}
		return tbc.DecoderPal2D
	}
	if requested.IsNTSCVariant() && !ntscCarrier {
		log.Warn("NTSC decoder selected but video color carrier is PAL; using PAL decoder instead")
		return tbc.DecoderPal2D
	}
	if requested.IsPALVariant() && ntscCarrier {
		log.Warn("PAL decoder selected but video color carrier is NTSC; using NTSC decoder instead")
		return tbc.DecoderNtsc2D
	}
	return requested
}

func buildEngine(selection tbc.DecoderType, params tbc.VideoParameters, config tbc.Configuration) ports.DecodeEngine {
	switch {
	case selection == tbc.DecoderMono:
		return monoengine.New(params, config)
	case selection.IsPALVariant():
		return palengine.New(params, config, selection)
	default:
		return combengine.New(params, config, selection)
	}
}

// padDimension rounds active up to the next multiple of m. m == 0 disables
// rounding.
func padDimension(active, m int) int {
	if m <= 0 {
		return active
	}
	return (active + m - 1) / m * m
}

// DecodeFrame decodes frame frameNumber (0-based) into a fresh
// ComponentFrame. Per-frame failures leave the reader usable.
func (r *Reader) DecodeFrame(frameNumber int) (*tbc.ComponentFrame, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if frameNumber < 0 || frameNumber >= r.FrameCount() {
		return nil, tbc.Errorf(tbc.KindFrameOutOfRange,
			"frame number %d out of range [0, %d)", frameNumber, r.FrameCount())
	}

	fields, start, end, err := r.loadFieldWindow(frameNumber)
	if err != nil {
		return nil, err
	}
	if r.config.ReverseFields {
		reverseFieldOrder(fields)
	}

	frame := &tbc.ComponentFrame{}
	frame.Init(r.params)

	if err := r.engine.Decode(fields, start, end, frame); err != nil {
		return nil, tbc.WrapError(tbc.KindDecodeFailed, err, "decode frame %d", frameNumber)
	}
	return frame, nil
}

// Close releases the sample file handle.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sample.close()
}

// Width returns the padded output width.
func (r *Reader) Width() int { return r.outputWidth }

// Height returns the padded output height.
func (r *Reader) Height() int { return r.outputHeight }

// ActiveWidth returns the active picture width before padding.
func (r *Reader) ActiveWidth() int { return r.activeWidth }

// ActiveHeight returns the active picture height before padding.
func (r *Reader) ActiveHeight() int { return r.activeHeight }

// FrameCount returns the number of decodable frames.
func (r *Reader) FrameCount() int { return r.params.NumberOfSequentialFields / 2 }

// VideoParameters returns the capture-level record.
func (r *Reader) VideoParameters() tbc.VideoParameters { return r.params }

// Selection returns the resolved decoder variant.
func (r *Reader) Selection() tbc.DecoderType { return r.selection }

// IsMono reports whether the luma-only engine is selected.
func (r *Reader) IsMono() bool { return r.selection == tbc.DecoderMono }

// FrameRate returns the native frame rate of the capture's video system.
func (r *Reader) FrameRate() (num, den int64) {
	if r.params.System.IsNTSCFamily() {
		return 30000, 1001
	}
	return 25, 1
}
