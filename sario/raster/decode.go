package raster

import (
	"fmt"
	"math"
	"os"

	"github.com/batchatco/go-thrower"

	"github.com/insarlab/sario/internal"
	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

var logger = internal.NewLogger()

// SetLogLevel sets the logging level to the given level, and returns the
// old level. The messages are for debugging the decoders.
func SetLogLevel(level internal.LogLevel) internal.LogLevel {
	return logger.SetLogLevel(level)
}

// Decode reads the raster at path per the given strategy, restricted to an
// optional pixel window, and returns the decoded plane(s) together with the
// attributes it was given. A nil window means the full declared extent.
//
// Single-channel layouts are read as true sub-reads; side-by-side and
// interleaved layouts read full-width rows for the windowed row range and
// slice columns in memory, because their channels are not separately
// addressable within a row.
func Decode(path string, atr *api.Attributes, st Strategy, win *api.Window) (ras *api.Raster, err error) {
	defer func() {
		if err != nil {
			ras = nil // no partial results
		}
	}()
	defer thrower.RecoverError(&err)

	w := api.FullWindow(atr.Width, atr.Length)
	if win != nil {
		if err := win.Validate(atr.Width, atr.Length); err != nil {
			return nil, err
		}
		w = *win
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	checkExtent(f, atr.Width, st, w)

	rowBytes := atr.Width * st.Layout.Channels() * st.Elem.Size()

	ras = &api.Raster{Attrs: atr}
	switch st.Layout {
	case Single:
		if st.Elem == ElemInt16 {
			ras.Grid = readRows[int16](f, st.Elem.Size(), rowBytes, w)
		} else {
			ras.Grid = readRows[float32](f, st.Elem.Size(), rowBytes, w)
		}

	case SideBySidePair:
		ras.Grid, ras.Grid2 = readPairRows(f, atr.Width, rowBytes, w)

	case InterleavedComplex:
		cpx := readComplexRows(f, st.Elem, atr.Width, rowBytes, w)
		if st.Kind == AmplitudePhase {
			ras.Grid, ras.Grid2 = ampPhase(cpx)
		} else {
			ras.Grid = cpx
		}
	}
	return ras, nil
}

// checkExtent throws ErrTruncatedFile if the file cannot cover the last
// byte the windowed read will touch.
func checkExtent(f *os.File, width int, st Strategy, w api.Window) {
	fi, err := f.Stat()
	thrower.ThrowIfError(err)

	rowBytes := int64(width * st.Layout.Channels() * st.Elem.Size())
	var need int64
	if st.Layout == Single {
		need = int64(w.Y1-1)*rowBytes + int64(w.X1*st.Elem.Size())
	} else {
		need = int64(w.Y1) * rowBytes
	}
	if fi.Size() < need {
		logger.Errorf("%s: have %d bytes, window needs %d", f.Name(), fi.Size(), need)
		thrower.Throw(fmt.Errorf("%w: %s", api.ErrTruncatedFile, f.Name()))
	}
}

// readRows performs a true sub-read of a single-channel layout: one seek
// and one short read per windowed row.
func readRows[T int16 | float32](f *os.File, elemSize, rowBytes int, w api.Window) [][]T {
	height, width := w.Height(), w.Width()
	flat := make([]T, height*width)
	rows := make([][]T, height)
	for y := 0; y < height; y++ {
		util.MustSeek(f, int64((w.Y0+y)*rowBytes+w.X0*elemSize))
		rows[y] = flat[y*width : (y+1)*width]
		util.MustReadLE(f, rows[y])
	}
	return rows
}

// readPairRows reads a side-by-side (RMG) layout: each row stores a
// full-width first channel followed by a full-width second channel.
func readPairRows(f *os.File, width, rowBytes int, w api.Window) (first, second [][]float32) {
	height, outWidth := w.Height(), w.Width()
	buf := make([]float32, 2*width)
	flat1 := make([]float32, height*outWidth)
	flat2 := make([]float32, height*outWidth)
	first = make([][]float32, height)
	second = make([][]float32, height)
	for y := 0; y < height; y++ {
		util.MustSeek(f, int64((w.Y0+y)*rowBytes))
		util.MustReadLE(f, buf)
		first[y] = flat1[y*outWidth : (y+1)*outWidth]
		second[y] = flat2[y*outWidth : (y+1)*outWidth]
		copy(first[y], buf[w.X0:w.X1])
		copy(second[y], buf[width+w.X0:width+w.X1])
	}
	return first, second
}

// readComplexRows reads an interleaved-complex layout and recombines the
// alternating real/imaginary samples into complex64 values.
func readComplexRows(f *os.File, elem ElemType, width, rowBytes int, w api.Window) [][]complex64 {
	height, outWidth := w.Height(), w.Width()
	flat := make([]complex64, height*outWidth)
	rows := make([][]complex64, height)

	f32 := make([]float32, 2*width)
	i16 := make([]int16, 2*width)
	for y := 0; y < height; y++ {
		util.MustSeek(f, int64((w.Y0+y)*rowBytes))
		if elem == ElemInt16 {
			util.MustReadLE(f, i16)
			for i, v := range i16 {
				f32[i] = float32(v)
			}
		} else {
			util.MustReadLE(f, f32)
		}
		rows[y] = flat[y*outWidth : (y+1)*outWidth]
		for x := 0; x < outWidth; x++ {
			rows[y][x] = complex(f32[2*(w.X0+x)], f32[2*(w.X0+x)+1])
		}
	}
	return rows
}

// ampPhase derives amplitude and phase planes from complex samples as
// hypot(re, im) and atan2(im, re).
func ampPhase(cpx [][]complex64) (amp, pha [][]float32) {
	height := len(cpx)
	width := 0
	if height > 0 {
		width = len(cpx[0])
	}
	flatA := make([]float32, height*width)
	flatP := make([]float32, height*width)
	amp = make([][]float32, height)
	pha = make([][]float32, height)
	for y, row := range cpx {
		amp[y] = flatA[y*width : (y+1)*width]
		pha[y] = flatP[y*width : (y+1)*width]
		for x, c := range row {
			re := float64(real(c))
			im := float64(imag(c))
			amp[y][x] = float32(math.Hypot(re, im))
			pha[y][x] = float32(math.Atan2(im, re))
		}
	}
	return amp, pha
}
