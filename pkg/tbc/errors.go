package tbc

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode-pipeline failure. Open-time kinds are fatal
// to the open call; per-frame kinds leave the reader usable.
type ErrorKind int

const (
	// KindMetadataUnavailable means no store and no convertible JSON
	// sidecar were found for the source.
	KindMetadataUnavailable ErrorKind = iota
	// KindMetadataCorrupt means the store exists but required rows or
	// columns are missing.
	KindMetadataCorrupt
	// KindJSONMigrationFailed means the JSON sidecar could not be parsed
	// or the synthesized store could not be written.
	KindJSONMigrationFailed
	// KindInvalidVideoParameters means the capture record was read but is
	// not marked valid.
	KindInvalidVideoParameters
	// KindSampleFileUnavailable means the raw sample file cannot be opened
	// or is inconsistent with the declared field geometry.
	KindSampleFileUnavailable
	// KindDimensionMismatch means the luma and chroma sources disagree on
	// output dimensions.
	KindDimensionMismatch
	// KindFrameCountMismatch means the luma and chroma sources disagree on
	// frame count.
	KindFrameCountMismatch
	// KindFrameOutOfRange means a decode was requested for a frame number
	// outside [0, frameCount).
	KindFrameOutOfRange
	// KindDecodeFailed means the decode engine reported a failure.
	KindDecodeFailed
	// KindUnsupportedColorspace means the source resolves to a colorspace
	// other than YUV or gray.
	KindUnsupportedColorspace
	// KindComponentVideoUnsupported means a third (Pr) source was supplied.
	KindComponentVideoUnsupported
)

// Error is a classified pipeline error. It carries a human-readable message
// that host runtimes surface verbatim.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Errorf builds a classified error from a format string.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError classifies an underlying error with a message prefix.
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
