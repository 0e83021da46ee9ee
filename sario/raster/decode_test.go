package raster

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

// writeRaster writes samples little-endian to a file under t.TempDir.
func writeRaster(t *testing.T, name string, data any) string {
	t.Helper()
	var buf bytes.Buffer
	util.MustWriteLE(&buf, data)
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func attrs(width, length int, p api.Processor, fileType string) *api.Attributes {
	return &api.Attributes{
		Width:     width,
		Length:    length,
		Processor: p,
		FileType:  fileType,
		Unit:      "1",
		Pairs:     util.NewAttrMap(),
	}
}

// rampFloat32 fills width*length samples with y*1000+x.
func rampFloat32(width, length int) []float32 {
	data := make([]float32, width*length)
	for y := 0; y < length; y++ {
		for x := 0; x < width; x++ {
			data[y*width+x] = float32(y*1000 + x)
		}
	}
	return data
}

func TestDecodeSingleFloat32Windowed(t *testing.T) {
	const width, length = 100, 50
	path := writeRaster(t, "20070603.mli", rampFloat32(width, length))
	atr := attrs(width, length, api.GAMMA, ".mli")
	st, err := Lookup(api.GAMMA, ".mli")
	require.NoError(t, err)

	full, err := Decode(path, atr, st, nil)
	require.NoError(t, err)
	grid := full.Grid.([][]float32)
	require.Len(t, grid, length)
	require.Len(t, grid[0], width)

	win := &api.Window{X0: 10, Y0: 10, X1: 20, Y1: 20}
	sub, err := Decode(path, atr, st, win)
	require.NoError(t, err)
	cropped := sub.Grid.([][]float32)
	require.Len(t, cropped, 10)
	for y := 0; y < 10; y++ {
		require.Len(t, cropped[y], 10)
		for x := 0; x < 10; x++ {
			assert.Equal(t, grid[10+y][10+x], cropped[y][x])
		}
	}
}

func TestDecodeFullWindowEquivalence(t *testing.T) {
	const width, length = 12, 7
	path := writeRaster(t, "20070603.mli", rampFloat32(width, length))
	atr := attrs(width, length, api.GAMMA, ".mli")
	st, _ := Lookup(api.GAMMA, ".mli")

	full, err := Decode(path, atr, st, nil)
	require.NoError(t, err)
	explicit, err := Decode(path, atr, st, &api.Window{X0: 0, Y0: 0, X1: width, Y1: length})
	require.NoError(t, err)

	assert.Equal(t, full.Grid, explicit.Grid)
}

func TestDecodeSingleInt16(t *testing.T) {
	const width, length = 6, 4
	data := make([]int16, width*length)
	for i := range data {
		data[i] = int16(i - 10)
	}
	path := writeRaster(t, "srtm.dem", data)
	atr := attrs(width, length, api.ROIPAC, ".dem")
	st, _ := Lookup(api.ROIPAC, ".dem")

	ras, err := Decode(path, atr, st, &api.Window{X0: 1, Y0: 1, X1: 5, Y1: 3})
	require.NoError(t, err)
	grid := ras.Grid.([][]int16)
	require.Len(t, grid, 2)
	require.Len(t, grid[0], 4)
	assert.Equal(t, data[1*width+1], grid[0][0])
	assert.Equal(t, data[2*width+4], grid[1][3])
	assert.Nil(t, ras.Grid2)
}

func TestDecodeSideBySidePair(t *testing.T) {
	const width, length = 4, 3
	// Each row stores the full-width amplitude channel, then the
	// full-width phase channel.
	data := make([]float32, 2*width*length)
	for y := 0; y < length; y++ {
		for x := 0; x < width; x++ {
			data[y*2*width+x] = float32(100 + y*10 + x)    // amplitude
			data[y*2*width+width+x] = float32(-(y*10 + x)) // phase
		}
	}
	path := writeRaster(t, "geo_070603-070721.unw", data)
	atr := attrs(width, length, api.ROIPAC, ".unw")
	st, _ := Lookup(api.ROIPAC, ".unw")

	full, err := Decode(path, atr, st, nil)
	require.NoError(t, err)
	require.True(t, full.TwoPlane())
	amp := full.Grid.([][]float32)
	pha := full.Grid2.([][]float32)
	assert.Equal(t, float32(100), amp[0][0])
	assert.Equal(t, float32(123), amp[2][3])
	assert.Equal(t, float32(0), pha[0][0])
	assert.Equal(t, float32(-23), pha[2][3])

	win := &api.Window{X0: 1, Y0: 1, X1: 3, Y1: 3}
	sub, err := Decode(path, atr, st, win)
	require.NoError(t, err)
	subAmp := sub.Grid.([][]float32)
	subPha := sub.Grid2.([][]float32)
	require.Len(t, subAmp, 2)
	require.Len(t, subAmp[0], 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, amp[1+y][1+x], subAmp[y][x])
			assert.Equal(t, pha[1+y][1+x], subPha[y][x])
		}
	}
}

func TestDecodeInterleavedAmpPhase(t *testing.T) {
	const width, length = 8, 5
	// Constant 3+4i at every pixel.
	data := make([]float32, 2*width*length)
	for i := 0; i < len(data); i += 2 {
		data[i] = 3
		data[i+1] = 4
	}
	path := writeRaster(t, "geo_070603-070721.int", data)
	atr := attrs(width, length, api.ROIPAC, ".int")
	st, _ := Lookup(api.ROIPAC, ".int")

	ras, err := Decode(path, atr, st, nil)
	require.NoError(t, err)
	require.True(t, ras.TwoPlane())
	amp := ras.Grid.([][]float32)
	pha := ras.Grid2.([][]float32)
	wantPhase := float32(math.Atan2(4, 3))
	for y := 0; y < length; y++ {
		for x := 0; x < width; x++ {
			assert.InDelta(t, 5.0, amp[y][x], 1e-6)
			assert.InDelta(t, wantPhase, pha[y][x], 1e-6)
		}
	}
}

func TestDecodeComplexFloat32(t *testing.T) {
	const width, length = 5, 4
	data := make([]float32, 2*width*length)
	for y := 0; y < length; y++ {
		for x := 0; x < width; x++ {
			data[(y*width+x)*2] = float32(x)
			data[(y*width+x)*2+1] = float32(-y)
		}
	}
	path := writeRaster(t, "resampOnlyImage.flat", data)
	atr := attrs(width, length, api.ISCE, ".flat")
	st, _ := Lookup(api.ISCE, ".flat")

	ras, err := Decode(path, atr, st, nil)
	require.NoError(t, err)
	require.False(t, ras.TwoPlane())
	grid := ras.Grid.([][]complex64)
	assert.Equal(t, complex64(complex(3, -2)), grid[2][3])
}

func TestDecodeComplexInt16Windowed(t *testing.T) {
	const width, length = 6, 5
	data := make([]int16, 2*width*length)
	for y := 0; y < length; y++ {
		for x := 0; x < width; x++ {
			data[(y*width+x)*2] = int16(x)
			data[(y*width+x)*2+1] = int16(-y)
		}
	}
	path := writeRaster(t, "100102.slc", data)
	atr := attrs(width, length, api.GAMMA, ".slc")
	st, _ := Lookup(api.GAMMA, ".slc")

	win := &api.Window{X0: 2, Y0: 1, X1: 5, Y1: 4}
	ras, err := Decode(path, atr, st, win)
	require.NoError(t, err)
	grid := ras.Grid.([][]complex64)
	require.Len(t, grid, 3)
	require.Len(t, grid[0], 3)
	assert.Equal(t, complex64(complex(2, -1)), grid[0][0])
	assert.Equal(t, complex64(complex(4, -3)), grid[2][2])
}

func TestDecodeTruncated(t *testing.T) {
	const width, length = 10, 10
	short := rampFloat32(width, length-1)
	path := writeRaster(t, "20070603.mli", short)
	atr := attrs(width, length, api.GAMMA, ".mli")
	st, _ := Lookup(api.GAMMA, ".mli")

	ras, err := Decode(path, atr, st, nil)
	require.ErrorIs(t, err, api.ErrTruncatedFile)
	assert.Nil(t, ras)

	// A window within the available rows still succeeds.
	ras, err = Decode(path, atr, st, &api.Window{X0: 0, Y0: 0, X1: width, Y1: length - 1})
	require.NoError(t, err)
	require.Len(t, ras.Grid.([][]float32), length-1)
}

func TestDecodeInvalidWindow(t *testing.T) {
	const width, length = 10, 5
	path := writeRaster(t, "20070603.mli", rampFloat32(width, length))
	atr := attrs(width, length, api.GAMMA, ".mli")
	st, _ := Lookup(api.GAMMA, ".mli")

	for _, win := range []api.Window{
		{X0: 0, Y0: 0, X1: width + 1, Y1: length},
		{X0: 3, Y0: 0, X1: 3, Y1: length},
		{X0: -1, Y0: 0, X1: 5, Y1: 5},
	} {
		_, err := Decode(path, atr, st, &win)
		assert.ErrorIs(t, err, api.ErrInvalidWindow, "%+v", win)
	}
}

// Window shape is (y1-y0, x1-x0) for every layout.
func TestDecodeWindowShape(t *testing.T) {
	const width, length = 16, 9
	win := &api.Window{X0: 3, Y0: 2, X1: 11, Y1: 7}

	cases := []struct {
		name     string
		fileType string
		p        api.Processor
		data     any
	}{
		{"single", ".mli", api.GAMMA, rampFloat32(width, length)},
		{"pair", ".unw", api.ROIPAC, rampFloat32(2*width, length)},
		{"interleaved", ".int", api.ROIPAC, rampFloat32(2*width, length)},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			path := writeRaster(t, "file"+test.fileType, test.data)
			atr := attrs(width, length, test.p, test.fileType)
			st, err := Lookup(test.p, test.fileType)
			require.NoError(t, err)

			ras, err := Decode(path, atr, st, win)
			require.NoError(t, err)

			switch grid := ras.Grid.(type) {
			case [][]float32:
				require.Len(t, grid, win.Height())
				require.Len(t, grid[0], win.Width())
			case [][]complex64:
				require.Len(t, grid, win.Height())
				require.Len(t, grid[0], win.Width())
			default:
				t.Fatalf("unexpected grid type %T", ras.Grid)
			}
		})
	}
}
