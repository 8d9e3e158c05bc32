package ports

import "github.com/user/tbcdecode/pkg/tbc"

// DecodeEngine abstracts one decode-engine variant (comb filter, PAL
// filter or mono). Exactly one engine instance is constructed per opened
// reader, and the reader serializes all calls to it: an engine may keep
// internal look-ahead state and is not safe for concurrent use.
type DecodeEngine interface {
	// Decode fills frame from the loaded field window. The window holds
	// the target frame's two fields at [start, end) plus the engine's
	// look-behind and look-ahead fields around them.
	Decode(fields []tbc.SourceField, start, end int, frame *tbc.ComponentFrame) error

	// LookBehind returns the number of preceding frames (of two fields
	// each) the engine needs loaded before the target frame.
	LookBehind() int

	// LookAhead returns the number of following frames the engine needs
	// loaded after the target frame.
	LookAhead() int
}
