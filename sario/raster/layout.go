// Package raster decodes flat binary raster products. A Strategy describes
// the on-disk layout of one (processor, file type) pair; Decode turns the
// byte stream into typed planes, optionally restricted to a pixel window.
package raster

import (
	"fmt"

	"github.com/insarlab/sario/sario/api"
)

// ElemType is the storage type of one channel sample.
type ElemType int

const (
	ElemFloat32 ElemType = iota
	ElemInt16
)

// Size returns the sample size in bytes.
func (e ElemType) Size() int {
	if e == ElemInt16 {
		return 2
	}
	return 4
}

// ChannelLayout describes how channels are arranged within a row.
type ChannelLayout int

const (
	// Single is one full-width channel per row.
	Single ChannelLayout = iota
	// SideBySidePair is the RMG layout: two full-width channels per row,
	// first channel then second.
	SideBySidePair
	// InterleavedComplex alternates real and imaginary samples per pixel.
	InterleavedComplex
)

// Channels returns the number of samples stored per pixel.
func (l ChannelLayout) Channels() int {
	if l == Single {
		return 1
	}
	return 2
}

// OutputKind describes the semantics of the decoded planes.
type OutputKind int

const (
	// Real yields one plane of raw samples.
	Real OutputKind = iota
	// AmplitudePhase yields two real planes. Side-by-side inputs already
	// store the two channels; interleaved-complex inputs derive them as
	// magnitude and four-quadrant angle.
	AmplitudePhase
	// Complex yields one plane of native complex samples.
	Complex
)

// Strategy is the immutable decode recipe for one (processor, file type) pair.
type Strategy struct {
	Elem   ElemType
	Layout ChannelLayout
	Kind   OutputKind
}

// ROI_PAC and GAMMA products share one dispatch branch keyed by extension.
var roipacLayouts = map[string]Strategy{
	".unw":   {ElemFloat32, SideBySidePair, AmplitudePhase},
	".cor":   {ElemFloat32, SideBySidePair, AmplitudePhase},
	".hgt":   {ElemFloat32, SideBySidePair, AmplitudePhase},
	".trans": {ElemFloat32, SideBySidePair, AmplitudePhase},
	".dem":   {ElemInt16, Single, Real},
	".int":   {ElemFloat32, InterleavedComplex, AmplitudePhase},
	".mli":   {ElemFloat32, Single, Real},
	".slc":   {ElemInt16, InterleavedComplex, Complex},
}

var isceLayouts = map[string]Strategy{
	".flat": {ElemFloat32, InterleavedComplex, Complex},
	".cor":  {ElemFloat32, Single, Real},
	".slc":  {ElemFloat32, InterleavedComplex, Complex},
}

// Lookup returns the decode strategy for a processor and file type.
func Lookup(p api.Processor, fileType string) (Strategy, error) {
	var layouts map[string]Strategy
	switch p {
	case api.ROIPAC, api.GAMMA:
		layouts = roipacLayouts
	case api.ISCE:
		layouts = isceLayouts
	}
	st, has := layouts[fileType]
	if !has {
		return Strategy{}, fmt.Errorf("%w: %s %s", api.ErrUnsupportedFormat, p, fileType)
	}
	return st, nil
}
