// Package tsparse parses the packet timestamp format
// "YYYY-MM-DD HH:MM:SS[.uuuuuu]" under a fixed UTC+8 (+28800-second) offset;
// no flag is offered to override the zone.
package tsparse

import (
	"fmt"
	"strings"
	"time"
)

// fixedOffsetSeconds is the hardcoded UTC+8 offset; the parser never reads
// the local system zone.
const fixedOffsetSeconds = 8 * 60 * 60

var fixedZone = time.FixedZone("UTC+8", fixedOffsetSeconds)

const layoutSeconds = "2006-01-02 15:04:05"
const layoutMicros = "2006-01-02 15:04:05.000000"

// ParseSeconds parses a timestamp to Unix seconds, ignoring any fractional
// part. Returns an error if the string does not match the
// "YYYY-MM-DD HH:MM:SS" prefix.
func ParseSeconds(s string) (int64, error) {
	base := s
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		base = s[:idx]
	}
	t, err := time.ParseInLocation(layoutSeconds, base, fixedZone)
	if err != nil {
		return 0, fmt.Errorf("tsparse: invalid timestamp %q: %w", s, err)
	}
	return t.Unix(), nil
}

// ParseMicros parses a timestamp to Unix microseconds. It first tries the
// form with a microsecond suffix; on failure it falls back to the
// seconds-only form with microsec=0.
func ParseMicros(s string) (int64, error) {
	if t, err := time.ParseInLocation(layoutMicros, s, fixedZone); err == nil {
		return t.Unix()*1_000_000 + int64(t.Nanosecond()/1000), nil
	}

	secs, err := ParseSeconds(s)
	if err != nil {
		return 0, fmt.Errorf("tsparse: invalid timestamp %q: %w", s, err)
	}
	return secs * 1_000_000, nil
}
