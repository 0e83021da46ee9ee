package sario

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/insarlab/sario/internal"
	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/gamma"
	"github.com/insarlab/sario/sario/isce"
	"github.com/insarlab/sario/sario/pysar"
	"github.com/insarlab/sario/sario/roipac"
	"github.com/insarlab/sario/sario/util"
)

var logger = internal.NewLogger()

// SetLogLevel sets the logging level to the given level, and returns the
// old level.
func SetLogLevel(level internal.LogLevel) internal.LogLevel {
	return logger.SetLogLevel(level)
}

var containerExts = map[string]bool{
	".h5":  true,
	".he5": true,
}

var imageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".ras":  true,
	".bmp":  true,
}

// ReadAttributes locates and parses the metadata for the raster at path and
// returns the canonical attribute mapping. Container files carry their own
// attributes; everything else is probed for a sidecar in the order .rsc,
// .xml, .par, then the legacy <stem>.par.
func ReadAttributes(path string) (*api.Attributes, error) {
	ext := strings.ToLower(filepath.Ext(path))

	if containerExts[ext] {
		m, fileType, err := pysar.ReadAttributes(path)
		if err != nil {
			return nil, err
		}
		return canonical(m, api.PySAR, fileType)
	}

	m, processor, err := probeSidecar(path)
	if err != nil {
		return nil, err
	}
	return canonical(m, processor, ext)
}

// probeSidecar looks for a companion metadata file; the first match
// determines the processor.
func probeSidecar(path string) (*util.AttrMap, api.Processor, error) {
	type probe struct {
		sidecar   string
		processor api.Processor
		parse     func(io.Reader) (*util.AttrMap, error)
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	probes := []probe{
		{path + ".rsc", api.ROIPAC, roipac.ParseRSC},
		{path + ".xml", api.ISCE, isce.ParseXML},
		{path + ".par", api.GAMMA, gamma.ParsePar},
		{stem + ".par", api.GAMMA, gamma.ParsePar},
	}
	for _, p := range probes {
		if _, err := os.Stat(p.sidecar); err != nil {
			continue
		}
		if p.sidecar == stem+".par" {
			logger.Warnf("using legacy sidecar name %s", p.sidecar)
		}
		m, err := parseFile(p.sidecar, p.parse)
		if err != nil {
			return nil, "", err
		}
		return m, p.processor, nil
	}
	return nil, "", fmt.Errorf("%w: no sidecar for %s", api.ErrNoMetadata, path)
}

func parseFile(name string, parse func(io.Reader) (*util.AttrMap, error)) (*util.AttrMap, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return m, nil
}

// canonical lifts the required keys out of the raw mapping and injects the
// derived FILE_TYPE and UNIT. Lifted keys are hidden from the passthrough
// map but stay readable.
func canonical(m *util.AttrMap, processor api.Processor, fileType string) (*api.Attributes, error) {
	width, err := intKey(m, api.KeyWidth)
	if err != nil {
		return nil, err
	}
	length, err := intKey(m, api.KeyFileLength)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{
		api.KeyWidth, api.KeyFileLength,
		api.KeyProcessor, api.KeyFileType, api.KeyUnit,
	} {
		m.Hide(key)
	}
	return &api.Attributes{
		Width:     width,
		Length:    length,
		Processor: processor,
		FileType:  fileType,
		Unit:      unitFor(fileType),
		Pairs:     m,
	}, nil
}

// intKey parses a required positive integer key. Fractional strings such
// as "100.0" are accepted and truncated.
func intKey(m *util.AttrMap, key string) (int, error) {
	val, has := m.Get(key)
	if !has {
		return 0, fmt.Errorf("%w: %s", api.ErrMissingKey, key)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || f < 1 {
		return 0, fmt.Errorf("%w: %s=%q is not a positive integer",
			api.ErrMissingKey, key, val)
	}
	return int(f), nil
}

// unitFor is the fixed FILE_TYPE to physical unit policy shared by all
// processors.
func unitFor(fileType string) string {
	switch fileType {
	case "interferograms", "wrapped", ".unw", ".int", ".flat":
		return "radian"
	case "timeseries", "dem", ".dem", ".hgt":
		return "m"
	case "velocity":
		return "m/yr"
	}
	return "1"
}
