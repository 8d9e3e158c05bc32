package reader

import (
	"github.com/user/tbcdecode/pkg/tbc"
)

// loadFieldWindow loads the contiguous field window covering frame
// frameNumber (0-based) plus the engine's look-behind and look-ahead
// frames. Windows that would extend past either end of the capture repeat
// the edge frame, so the returned slice always has the same length and
// field parity. start/end bound the target frame's two fields within the
// window. Callers hold the decode lock.
func (r *Reader) loadFieldWindow(frameNumber int) (fields []tbc.SourceField, start, end int, err error) {
	lookBehind := r.engine.LookBehind()
	lookAhead := r.engine.LookAhead()

	firstFrame := frameNumber - lookBehind
	lastFrame := frameNumber + lookAhead

	fields = make([]tbc.SourceField, 0, 2*(lastFrame-firstFrame+1))
	for fr := firstFrame; fr <= lastFrame; fr++ {
		clamped := fr
		if clamped < 0 {
			clamped = 0
		}
		if max := r.FrameCount() - 1; clamped > max {
			clamped = max
		}
		for offset := 0; offset < 2; offset++ {
			seqNo := 2*clamped + 1 + offset
			data, readErr := r.sample.readField(seqNo)
			if readErr != nil {
				return nil, 0, 0, tbc.WrapError(tbc.KindDecodeFailed, readErr,
					"load fields for frame %d", frameNumber)
			}
			fields = append(fields, tbc.SourceField{
				Record: r.fields[seqNo-1],
				Data:   data,
			})
		}
	}

	start = 2 * lookBehind
	end = start + 2
	return fields, start, end, nil
}

// reverseFieldOrder swaps field order pairwise across the loaded window.
func reverseFieldOrder(fields []tbc.SourceField) {
	for i := 0; i+1 < len(fields); i += 2 {
		fields[i], fields[i+1] = fields[i+1], fields[i]
	}
}
