// Package source is the host-facing decode surface. It opens one or two
// TBC captures (composite/luma plus an optional separate chroma source for
// color-under formats), validates their compatibility, and serves
// normalized planar frames with complete video properties.
package source

import (
	"fmt"

	"github.com/user/tbcdecode/pkg/normalize"
	"github.com/user/tbcdecode/pkg/ports"
	"github.com/user/tbcdecode/pkg/reader"
	"github.com/user/tbcdecode/pkg/tbc"
)

// Options bundles the per-open decode configuration with the host-level
// frame-rate override.
type Options struct {
	tbc.Configuration

	// FPSNum > 0 overrides the native frame rate together with FPSDen.
	FPSNum int64
	FPSDen int64
}

// DefaultOptions returns Options with the default decode configuration and
// no frame-rate override.
func DefaultOptions() Options {
	return Options{
		Configuration: tbc.DefaultConfiguration(),
		FPSNum:        -1,
		FPSDen:        1,
	}
}

// Source decodes a capture (or a luma+chroma capture pair) into normalized
// planar frames.
type Source struct {
	primary *reader.Reader
	chroma  *reader.Reader // nil without a separate chroma source
	runtime *tbc.Runtime
	props   VideoProperties
	mono    bool
}

// Open opens the primary (composite or luma) source, and chromaPath's
// capture when non-empty, under one shared configuration. Supplying a
// third (Pr) source is rejected: component-video mode is unsupported.
func Open(primaryPath, chromaPath, prPath string, opts Options, log ports.Logger) (*Source, error) {
	if prPath != "" {
		return nil, tbc.Errorf(tbc.KindComponentVideoUnsupported,
			"component video mode (3 separate sources) is not supported")
	}
	if opts.FPSDen < 1 {
		return nil, fmt.Errorf("FPS denominator needs to be 1 or greater")
	}

	primary, err := reader.Open(primaryPath, opts.Configuration, log)
	if err != nil {
		return nil, err
	}

	s := &Source{
		primary: primary,
		runtime: tbc.AcquireRuntime(),
	}

	if chromaPath != "" {
		chroma, err := reader.Open(chromaPath, opts.Configuration, log)
		if err != nil {
			primary.Close()
			return nil, err
		}
		if primary.Width() != chroma.Width() || primary.Height() != chroma.Height() {
			primary.Close()
			chroma.Close()
			return nil, tbc.Errorf(tbc.KindDimensionMismatch,
				"luma source is %dx%d but chroma source is %dx%d",
				primary.Width(), primary.Height(), chroma.Width(), chroma.Height())
		}
		if primary.FrameCount() != chroma.FrameCount() {
			primary.Close()
			chroma.Close()
			return nil, tbc.Errorf(tbc.KindFrameCountMismatch,
				"luma source has %d frames but chroma source has %d",
				primary.FrameCount(), chroma.FrameCount())
		}
		s.chroma = chroma
	}

	// A genuine chroma source implies color intent even under a mono
	// primary selection.
	s.mono = primary.IsMono() && s.chroma == nil

	if err := s.initProperties(opts); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) initProperties(opts Options) error {
	params := s.primary.VideoParameters()

	family := ColorFamilyYUV
	if s.mono {
		family = ColorFamilyGray
	}

	fpsNum, fpsDen := s.primary.FrameRate()
	fpsNum, fpsDen = reduceRational(fpsNum, fpsDen)
	numFrames := s.primary.FrameCount()

	if opts.FPSNum > 0 {
		overNum, overDen := reduceRational(opts.FPSNum, opts.FPSDen)
		// Rescale the frame count so the stream duration is preserved
		// under the overridden rate.
		scaled := float64(numFrames) * float64(overNum) * float64(fpsDen) /
			(float64(fpsNum) * float64(overDen))
		numFrames = int(scaled + 0.5)
		if numFrames < 1 {
			numFrames = 1
		}
		fpsNum, fpsDen = overNum, overDen
	}

	ntscFamily := params.System.IsNTSCFamily()
	primaries, matrix := 5, 5
	if ntscFamily {
		primaries, matrix = 6, 6
	}
	sarNum, sarDen := sampleAspectRatio(ntscFamily, params.IsWidescreen)

	s.props = VideoProperties{
		ColorFamily:  family,
		Width:        s.primary.Width(),
		Height:       s.primary.Height(),
		NumFrames:    numFrames,
		FPSNum:       fpsNum,
		FPSDen:       fpsDen,
		Primaries:    primaries,
		Matrix:       matrix,
		Transfer:     1,
		LimitedRange: true,
		FieldOrder:   fieldOrderFor(params.FirstActiveFrameLine),
		SARNum:       sarNum,
		SARDen:       sarDen,
	}

	if s.props.Width == 0 || s.props.Height == 0 {
		return tbc.Errorf(tbc.KindUnsupportedColorspace, "invalid video dimensions")
	}
	return nil
}

// Properties returns the resolved output stream description.
func (s *Source) Properties() VideoProperties { return s.props }

// DecodeFrame decodes and normalizes output frame n. With a separate
// chroma source both readers decode independently, each under its own
// lock, primary first.
func (s *Source) DecodeFrame(n int) (*normalize.PlanarFrame, error) {
	lumaFrame, err := s.primary.DecodeFrame(n)
	if err != nil {
		return nil, err
	}

	var chromaFrame *tbc.ComponentFrame
	chromaParams := s.primary.VideoParameters()
	if s.chroma != nil {
		chromaFrame, err = s.chroma.DecodeFrame(n)
		if err != nil {
			return nil, err
		}
		chromaParams = s.chroma.VideoParameters()
	}

	params := s.primary.VideoParameters()
	return normalize.Convert(lumaFrame, chromaFrame, normalize.Options{
		Width:                      s.primary.Width(),
		Height:                     s.primary.Height(),
		ActiveWidth:                s.primary.ActiveWidth(),
		ActiveHeight:               s.primary.ActiveHeight(),
		FirstActiveFrameLine:       params.FirstActiveFrameLine,
		ActiveVideoStart:           params.ActiveVideoStart,
		ChromaFirstActiveFrameLine: chromaParams.FirstActiveFrameLine,
		ChromaActiveVideoStart:     chromaParams.ActiveVideoStart,
		BlackLevel:                 float64(params.Black16bIRE),
		WhiteLevel:                 float64(params.White16bIRE),
		Mono:                       s.mono,
	}), nil
}

// Close releases both readers. The shared runtime reference is dropped but
// the runtime itself is never torn down.
func (s *Source) Close() {
	s.primary.Close()
	if s.chroma != nil {
		s.chroma.Close()
	}
	s.runtime.Release()
}
