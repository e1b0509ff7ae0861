// Package rangefile loads the "--range" mode's time-range file: one
// "<unix_seconds_start> <unix_seconds_end>" pair per line, tolerating
// overlapping and out-of-order lines.
package rangefile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c360/xmltrace/internal/xerrors"
)

// Range is an inclusive [Start, End] second range.
type Range struct {
	Start int64
	End   int64
}

// Load reads ranges from r. Blank lines and trailing whitespace are
// tolerated; malformed lines are rejected as an argument error.
func Load(r io.Reader) ([]Range, error) {
	var ranges []Range
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, xerrors.WrapArgument(
				fmt.Errorf("range file line %d: expected two fields, got %d", lineNo, len(fields)),
				"rangefile", "Load", "parse range line")
		}
		start, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, xerrors.WrapArgument(
				fmt.Errorf("range file line %d: invalid start %q: %w", lineNo, fields[0], err),
				"rangefile", "Load", "parse range start")
		}
		end, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, xerrors.WrapArgument(
				fmt.Errorf("range file line %d: invalid end %q: %w", lineNo, fields[1], err),
				"rangefile", "Load", "parse range end")
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.WrapIO(err, "rangefile", "Load", "read range file")
	}
	return ranges, nil
}

// Contains reports whether ts falls within any of the ranges, inclusive.
func Contains(ranges []Range, ts int64) bool {
	for _, r := range ranges {
		if ts >= r.Start && ts <= r.End {
			return true
		}
	}
	return false
}
