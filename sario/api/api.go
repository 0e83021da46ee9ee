// Package api is common to the different processor chain implementations
// (ROI_PAC, ISCE, GAMMA, PySAR HDF5). It holds the canonical attribute
// record, pixel windows, decoded raster results and the error taxonomy.
package api

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/insarlab/sario/sario/util"
)

var (
	// ErrNoMetadata is returned when no sidecar file exists for a raster
	// and the raster is not a container file.
	ErrNoMetadata = errors.New("no metadata found")

	// ErrMissingKey is returned when a sidecar lacks a key the normalizer
	// must synthesize WIDTH or FILE_LENGTH from.
	ErrMissingKey = errors.New("missing attribute key")

	// ErrMalformedRow is returned for a sidecar row that does not split
	// into exactly two tokens.
	ErrMalformedRow = errors.New("malformed attribute row")

	// ErrUnrecognizedGroup is returned when a container holds no known
	// dataset group and more than one candidate remains.
	ErrUnrecognizedGroup = errors.New("unrecognized dataset group")

	// ErrUnsupportedFormat is returned for processor/extension pairs with
	// no registered binary layout.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrInvalidWindow is returned when window bounds fall outside the
	// declared extent or are not strictly ordered.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrTruncatedFile is returned when a file holds fewer bytes than the
	// declared (or windowed) extent requires.
	ErrTruncatedFile = errors.New("truncated file")

	// ErrEpochNotFound is returned when the requested epoch is absent from
	// a multi-epoch container group.
	ErrEpochNotFound = errors.New("epoch not found")
)

// Processor identifies the chain that produced a raster product.
type Processor string

const (
	ROIPAC Processor = "roipac"
	ISCE   Processor = "isce"
	GAMMA  Processor = "gamma"
	PySAR  Processor = "pysar"
)

// Canonical attribute keys present after normalization.
const (
	KeyWidth      = "WIDTH"
	KeyFileLength = "FILE_LENGTH"
	KeyProcessor  = "PROCESSOR"
	KeyFileType   = "FILE_TYPE"
	KeyUnit       = "UNIT"
)

// Attributes is the canonical attribute mapping of a raster product.
// The keys every decoder depends on are typed fields; everything else the
// sidecar carried passes through unmodified in Pairs.
type Attributes struct {
	Width     int       // samples per line
	Length    int       // number of lines
	Processor Processor // producing chain
	FileType  string    // extension, or container group name
	Unit      string    // physical unit derived from FileType

	// Pairs holds the processor-specific passthrough keys in sidecar order.
	Pairs *util.AttrMap
}

// Get looks up a key by its sidecar name, canonical keys included.
func (a *Attributes) Get(key string) (string, bool) {
	switch key {
	case KeyWidth:
		return strconv.Itoa(a.Width), true
	case KeyFileLength:
		return strconv.Itoa(a.Length), true
	case KeyProcessor:
		return string(a.Processor), true
	case KeyFileType:
		return a.FileType, true
	case KeyUnit:
		return a.Unit, true
	}
	if a.Pairs == nil {
		return "", false
	}
	return a.Pairs.Get(key)
}

// Keys returns the canonical keys followed by the passthrough keys.
func (a *Attributes) Keys() []string {
	keys := []string{KeyWidth, KeyFileLength, KeyProcessor, KeyFileType, KeyUnit}
	if a.Pairs != nil {
		keys = append(keys, a.Pairs.Keys()...)
	}
	return keys
}

// Cropped returns an independent copy of a whose extent matches w, so that
// returned attributes always agree with the shape of returned planes.
func (a *Attributes) Cropped(w Window) *Attributes {
	c := *a
	c.Width = w.Width()
	c.Length = w.Height()
	if a.Pairs != nil {
		c.Pairs = a.Pairs.Clone()
	}
	return &c
}

// Window is a half-open rectangular pixel sub-region (x0, y0, x1, y1).
type Window struct {
	X0, Y0, X1, Y1 int
}

// FullWindow covers the whole declared extent.
func FullWindow(width, length int) Window {
	return Window{0, 0, width, length}
}

func (w Window) Width() int  { return w.X1 - w.X0 }
func (w Window) Height() int { return w.Y1 - w.Y0 }

// Validate checks the window invariant against a declared extent:
// 0 <= x0 < x1 <= width and 0 <= y0 < y1 <= length.
func (w Window) Validate(width, length int) error {
	if w.X0 < 0 || w.X0 >= w.X1 || w.X1 > width ||
		w.Y0 < 0 || w.Y0 >= w.Y1 || w.Y1 > length {
		return fmt.Errorf("%w: (%d,%d,%d,%d) outside %dx%d",
			ErrInvalidWindow, w.X0, w.Y0, w.X1, w.Y1, width, length)
	}
	return nil
}

// Raster is the decoded result of one read: one or two row-major planes
// plus the attributes describing them. Planes are held as [][]float32,
// [][]int16 or [][]complex64 depending on the layout's output kind.
// Grid2 is set exactly for amplitude/phase results (Grid amplitude, Grid2
// phase) and for the two-channel geometric-offset format.
type Raster struct {
	Grid  any
	Grid2 any
	Attrs *Attributes
}

// TwoPlane reports whether the result carries a second plane.
func (r *Raster) TwoPlane() bool {
	return r.Grid2 != nil
}
