// Package sario is a unified reader for geophysical raster products
// produced by the ROI_PAC, ISCE and GAMMA processing chains and by PySAR
// HDF5 containers. It normalizes the per-chain sidecar metadata into one
// canonical attribute mapping and decodes the raw pixel data, optionally
// restricted to a rectangular window, into typed numeric planes.
package sario

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"

	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/pysar"
	"github.com/insarlab/sario/sario/raster"
)

// Read reads one dataset and its attributes from the raster at path.
//
// win restricts the read to a pixel sub-region; nil means the full extent.
// epoch selects the time slice for multi-epoch container groups and is
// ignored otherwise. The attributes of the returned raster always describe
// the returned plane shape, windowed or not.
func Read(path string, win *api.Window, epoch string) (*api.Raster, error) {
	atr, err := ReadAttributes(path)
	if err != nil {
		return nil, err
	}

	out := atr
	if win != nil {
		if err := win.Validate(atr.Width, atr.Length); err != nil {
			return nil, err
		}
		out = atr.Cropped(*win)
	}

	ext := strings.ToLower(filepath.Ext(path))
	var ras *api.Raster
	switch {
	case containerExts[ext]:
		ras, err = pysar.ReadDataset(path, atr, epoch, win)

	case imageExts[ext]:
		ras, err = readImage(path, win)
		if err == nil && win == nil {
			// The decoded image is the authority on its own shape.
			if rows := ras.Grid.([][]float32); len(rows) > 0 {
				out = atr.Cropped(api.FullWindow(len(rows[0]), len(rows)))
			}
		}

	default:
		var st raster.Strategy
		st, err = raster.Lookup(atr.Processor, atr.FileType)
		if err == nil {
			ras, err = raster.Decode(path, atr, st, win)
		}
	}
	if err != nil {
		return nil, err
	}
	ras.Attrs = out
	return ras, nil
}

// readImage delegates pixel decode of browsable images to the registered
// stdlib image decoders (PNG, JPEG, BMP) and converts the result to one
// grayscale plane.
func readImage(path string, win *api.Window) (*api.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", api.ErrUnsupportedFormat, path, err)
	}

	bounds := img.Bounds()
	w := api.FullWindow(bounds.Dx(), bounds.Dy())
	if win != nil {
		if err := win.Validate(bounds.Dx(), bounds.Dy()); err != nil {
			return nil, err
		}
		w = *win
	}

	height, width := w.Height(), w.Width()
	flat := make([]float32, height*width)
	rows := make([][]float32, height)
	for y := 0; y < height; y++ {
		rows[y] = flat[y*width : (y+1)*width]
		for x := 0; x < width; x++ {
			px := img.At(bounds.Min.X+w.X0+x, bounds.Min.Y+w.Y0+y)
			gray := color.GrayModel.Convert(px).(color.Gray)
			rows[y][x] = float32(gray.Y)
		}
	}
	return &api.Raster{Grid: rows}, nil
}
