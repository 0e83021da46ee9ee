// Package gamma reads GAMMA sidecar metadata (.par files).
//
// A .par file starts with a two-line header, followed by positional
// "key: value" rows. Values may carry a '#' comment suffix. WIDTH and
// FILE_LENGTH are synthesized from the range_samples and azimuth_lines
// parameters.
package gamma

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/batchatco/go-thrower"

	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

const headerLines = 2

// ParsePar reads a .par sidecar into a flat attribute mapping with WIDTH
// and FILE_LENGTH synthesized.
func ParsePar(r io.Reader) (m *util.AttrMap, err error) {
	defer thrower.RecoverError(&err)

	m = util.NewAttrMap()
	scanner := bufio.NewScanner(r)
	for i := 0; i < headerLines && scanner.Scan(); i++ {
	}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.TrimSuffix(fields[0], ":")
		val := strings.SplitN(fields[1], "#", 2)[0]
		m.Set(key, val)
	}
	thrower.ThrowIfError(scanner.Err())

	lift(m, "range_samples", api.KeyWidth)
	lift(m, "azimuth_lines", api.KeyFileLength)
	return m, nil
}

// lift copies a source parameter to its canonical key, throwing if absent.
func lift(m *util.AttrMap, from, to string) {
	val, has := m.Get(from)
	if !has {
		thrower.Throw(fmt.Errorf("%w: %s", api.ErrMissingKey, from))
	}
	m.Set(to, val)
}
