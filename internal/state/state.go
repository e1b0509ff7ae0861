// Package state holds the process-wide mutable state visible to action
// closures. It is mutated only by the in-order executor goroutine; workers
// must capture any inputs by value into the closure at scheduling time and
// never touch this type directly.
package state

import (
	"bufio"
	"fmt"
	"io"
)

// Direction is the last-seen PDCP packet's transfer direction.
type Direction int

const (
	DirectionUnknown Direction = iota
	DirectionUplink
	DirectionDownlink
)

func (d Direction) String() string {
	switch d {
	case DirectionUplink:
		return "Uplink"
	case DirectionDownlink:
		return "Downlink"
	default:
		return "Unknown"
	}
}

// DisruptionEvent names one radio-layer condition tracked as a pending bit.
// Reaching any of these while processing an RRC_OTA packet marks the
// connection as disrupted until the next data-bearing PDCP packet drains it.
type DisruptionEvent int

const (
	DisruptionRRCConnectionReestablishmentRequest DisruptionEvent = iota
	DisruptionRRCConnectionReestablishmentComplete
	DisruptionRRCConnectionReconfiguration
	DisruptionRRCConnectionReconfigurationComplete
	DisruptionRRCConnectionRequest
	DisruptionRRCConnectionSetup
	numDisruptionEvents
)

// disruptionEventNames gives each DisruptionEvent its printed label.
var disruptionEventNames = [numDisruptionEvents]string{
	DisruptionRRCConnectionReestablishmentRequest:  "RRCConnectionReestablishmentRequest",
	DisruptionRRCConnectionReestablishmentComplete: "RRCConnectionReestablishmentComplete",
	DisruptionRRCConnectionReconfiguration:         "RRCConnectionReconfiguration",
	DisruptionRRCConnectionReconfigurationComplete: "RRCConnectionReconfigurationComplete",
	DisruptionRRCConnectionRequest:                 "RRCConnectionRequest",
	DisruptionRRCConnectionSetup:                   "RRCConnectionSetup",
}

// State is the single explicit context threaded through the pipeline,
// holding every field that would otherwise be a scattered global variable.
type State struct {
	out *bufio.Writer

	// LatestSeenTimestampMicros backs dedup mode's monotonic invariant.
	LatestSeenTimestampMicros int64
	LatestSeenTimestampSeen   bool

	// Last data-bearing PDCP packet's timestamp string and direction,
	// recorded by action_pdcp_cipher_data_pdu and printed by
	// pdcp_cipher_data_pdu.
	LastPDCPTimestamp string
	LastPDCPDirection Direction

	InDisruption  bool
	PendingEvents [numDisruptionEvents]bool
}

// New wraps w as the line-buffered output sink.
func New(w io.Writer) *State {
	return &State{out: bufio.NewWriter(w)}
}

// WriteLine writes s followed by a newline to the output sink. Only the
// executor goroutine (or main, during cleanup) may call this.
func (s *State) WriteLine(line string) error {
	if _, err := s.out.WriteString(line); err != nil {
		return err
	}
	return s.out.WriteByte('\n')
}

// WriteFragment writes raw fragment bytes followed by a newline, used by
// the passthrough modes (range/filter/dedup/reorder).
func (s *State) WriteFragment(text []byte) error {
	if _, err := s.out.Write(text); err != nil {
		return err
	}
	return s.out.WriteByte('\n')
}

// Flush flushes the buffered output sink; called once at successful
// shutdown or before reporting a fatal error.
func (s *State) Flush() error {
	return s.out.Flush()
}

// SetPendingEvent marks a disruption event as pending.
func (s *State) SetPendingEvent(e DisruptionEvent) {
	s.PendingEvents[e] = true
	s.InDisruption = true
}

// DrainPendingEvents returns and clears the human-readable names of all
// pending disruption events, in a fixed order.
func (s *State) DrainPendingEvents() []string {
	var out []string
	for i, pending := range s.PendingEvents {
		if pending {
			out = append(out, disruptionEventNames[i])
			s.PendingEvents[i] = false
		}
	}
	s.InDisruption = false
	return out
}

// FormatExtractLine renders the "<timestamp> $ <channel> $ k1: v1, k2: v2"
// output contract shared by every --extract extractor.
func FormatExtractLine(timestamp, channel string, fields ...[2]string) string {
	line := fmt.Sprintf("%s $ %s", timestamp, channel)
	if len(fields) == 0 {
		return line
	}
	line += " $ "
	for i, f := range fields {
		if i > 0 {
			line += ", "
		}
		line += fmt.Sprintf("%s: %s", f[0], f[1])
	}
	return line
}
