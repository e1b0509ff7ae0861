package extract

import (
	"github.com/c360/xmltrace/internal/state"
	"github.com/c360/xmltrace/internal/xmltree"
)

// pdcpDirection derives the PDCP packet's transfer direction from its
// type_id pair; only the two PDCP cipher data PDU types carry a direction.
func pdcpDirection(tree *xmltree.Node) state.Direction {
	typeID, _ := packetType(tree)
	switch typeID {
	case "LTE_PDCP_UL_Cipher_Data_PDU":
		return state.DirectionUplink
	case "LTE_PDCP_DL_Cipher_Data_PDU":
		return state.DirectionDownlink
	default:
		return state.DirectionUnknown
	}
}

// isDataBearingPDCPPDU reports whether tree carries a PDCP UL/DL cipher data
// subtree whose "PDU Size" equals 1412 bytes; the upper TCP connection sends
// at full speed, so a full-size PDU is treated as data traffic rather than
// signaling filler.
func isDataBearingPDCPPDU(tree *xmltree.Node, dir state.Direction) bool {
	key := ""
	switch dir {
	case state.DirectionUplink:
		key = "PDCPUL CIPH DATA"
	case state.DirectionDownlink:
		key = "PDCPDL CIPH DATA"
	default:
		return false
	}
	for _, pdu := range tree.FindWithAttribute("key", key) {
		for _, size := range pdu.FindWithAttribute("key", "PDU Size") {
			if size.Text == "1412" {
				return true
			}
		}
	}
	return false
}

func pdcpCipherDataPDUEntry() Entry {
	return Entry{
		TypeMatch: typeIs("LTE_PDCP_UL_Cipher_Data_PDU", "LTE_PDCP_DL_Cipher_Data_PDU"),
		Run: func(tree *xmltree.Node, ts string, st *state.State) []string {
			fields := pairFields(tree)
			fields = append(fields, [2]string{"LastPDCPPacketTimestamp", st.LastPDCPTimestamp}, [2]string{"Direction", st.LastPDCPDirection.String()})
			return []string{state.FormatExtractLine(ts, "pdcp_cipher_data_pdu", fields...)}
		},
	}
}

// actionPDCPCipherDataPDUEntry implements action_pdcp_cipher_data_pdu: on a
// data-bearing PDCP packet it drains any pending disruption events (printing
// one FirstPDCPPacketAfterDisruption line per pending kind, using this
// packet's own timestamp/direction) and then records this packet as the new
// last-seen PDCP packet. A non-data-bearing packet is ignored entirely: no
// line, no state update.
func actionPDCPCipherDataPDUEntry() Entry {
	return Entry{
		TypeMatch: typeIs("LTE_PDCP_UL_Cipher_Data_PDU", "LTE_PDCP_DL_Cipher_Data_PDU"),
		Run: func(tree *xmltree.Node, ts string, st *state.State) []string {
			dir := pdcpDirection(tree)
			if !isDataBearingPDCPPDU(tree, dir) {
				return nil
			}

			var out []string
			if st.InDisruption {
				for _, name := range st.DrainPendingEvents() {
					out = append(out, state.FormatExtractLine(ts, "FirstPDCPPacketAfterDisruption",
						[2]string{"Disruption Type", name},
						[2]string{"Direction", dir.String()},
					))
				}
			}

			st.LastPDCPTimestamp = ts
			st.LastPDCPDirection = dir
			return out
		},
	}
}
