// Package roipac reads ROI_PAC sidecar metadata (.rsc files).
//
// An .rsc file is a flat list of whitespace-delimited "KEY VALUE" rows and
// already carries WIDTH and FILE_LENGTH under their canonical names.
package roipac

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/batchatco/go-thrower"

	"github.com/insarlab/sario/sario/api"
	"github.com/insarlab/sario/sario/util"
)

// ParseRSC reads an .rsc sidecar into a flat attribute mapping.
// Blank lines and '#' comment lines are skipped; any other row must split
// into exactly two tokens.
func ParseRSC(r io.Reader) (m *util.AttrMap, err error) {
	defer thrower.RecoverError(&err)

	m = util.NewAttrMap()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			thrower.Throw(fmt.Errorf("%w: line %d: %q",
				api.ErrMalformedRow, lineno, line))
		}
		m.Set(fields[0], fields[1])
	}
	thrower.ThrowIfError(scanner.Err())
	return m, nil
}
