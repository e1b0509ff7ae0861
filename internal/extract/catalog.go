// Package extract implements the closed catalog of sixteen named
// field-extraction routines selectable via --extract, each following the
// "<timestamp> $ <channel> $ k1: v1, k2: v2" output contract.
package extract

import (
	"fmt"

	"github.com/c360/xmltrace/internal/state"
	"github.com/c360/xmltrace/internal/xmltree"
)

// Entry is one catalog member: a type_id predicate and its extraction
// routine. Run may mutate st (process-wide state) since it is only ever
// invoked from within an OrderedTask closure on the executor goroutine.
type Entry struct {
	TypeMatch func(tree *xmltree.Node) bool
	Run       func(tree *xmltree.Node, timestamp string, st *state.State) []string
}

func typeIs(names ...string) func(*xmltree.Node) bool {
	return func(tree *xmltree.Node) bool {
		got, ok := packetType(tree)
		if !ok {
			return false
		}
		for _, n := range names {
			if got == n {
				return true
			}
		}
		return false
	}
}

func packetType(tree *xmltree.Node) (string, bool) {
	for _, c := range tree.Children {
		if c.Name != "pair" {
			continue
		}
		if k, ok := c.Attr("key"); ok && k == "type_id" {
			return c.Text, true
		}
	}
	return "", false
}

// pairFields collects every "pair" child's key/value as a field, excluding
// the ones already surfaced as timestamp/channel.
func pairFields(tree *xmltree.Node) [][2]string {
	var fields [][2]string
	for _, c := range tree.Children {
		if c.Name != "pair" {
			continue
		}
		key, _ := c.Attr("key")
		if key == "timestamp" || key == "type_id" {
			continue
		}
		fields = append(fields, [2]string{key, c.Text})
	}
	return fields
}

func genericEntry(typeID string) Entry {
	return Entry{
		TypeMatch: typeIs(typeID),
		Run: func(tree *xmltree.Node, ts string, st *state.State) []string {
			return []string{state.FormatExtractLine(ts, typeID, pairFields(tree)...)}
		},
	}
}

// rrcShownameChannels lists the sub-element showname values rrc_ota
// checks for, in priority order; the first one present in the fragment
// picks the emitted channel.
var rrcShownameChannels = []string{
	"rrcConnectionRequest",
	"rrcConnectionSetup",
	"rrcConnectionSetupComplete",
	"rrcConnectionReconfiguration",
	"rrcConnectionReconfigurationComplete",
	"rrcConnectionReestablishmentRequest",
	"rrcConnectionReestablishmentComplete",
	"rrcConnectionReestablishmentReject",
	"rrcConnectionRelease",
	"measResults",
}

// rrcDisruptionEvents maps each disruption-triggering sub-element's
// showname to the DisruptionEvent it marks pending. Checked independently of
// the single channel picked for the printed line below, matching the
// original's independent per-sub-element checks.
var rrcDisruptionEvents = map[string]state.DisruptionEvent{
	"rrcConnectionReestablishmentRequest":  state.DisruptionRRCConnectionReestablishmentRequest,
	"rrcConnectionReestablishmentComplete": state.DisruptionRRCConnectionReestablishmentComplete,
	"rrcConnectionReconfiguration":         state.DisruptionRRCConnectionReconfiguration,
	"rrcConnectionReconfigurationComplete": state.DisruptionRRCConnectionReconfigurationComplete,
	"rrcConnectionRequest":                 state.DisruptionRRCConnectionRequest,
	"rrcConnectionSetup":                   state.DisruptionRRCConnectionSetup,
}

func rrcOtaEntry() Entry {
	return Entry{
		TypeMatch: typeIs("LTE_RRC_OTA_Packet"),
		Run: func(tree *xmltree.Node, ts string, st *state.State) []string {
			for showname, event := range rrcDisruptionEvents {
				if len(tree.FindWithAttribute("showname", showname)) > 0 {
					st.SetPendingEvent(event)
				}
			}
			for _, channel := range rrcShownameChannels {
				matches := tree.FindWithAttribute("showname", channel)
				if len(matches) == 0 {
					continue
				}
				var fields [][2]string
				for _, attr := range matches[0].Attrs {
					fields = append(fields, [2]string{attr.Name.Local, attr.Value})
				}
				return []string{state.FormatExtractLine(ts, channel, fields...)}
			}
			// No known sub-element present: fall back to a generic channel
			// rather than emitting nothing.
			return []string{state.FormatExtractLine(ts, "unclassified", pairFields(tree)...)}
		},
	}
}

func allPacketTypeEntry() Entry {
	return Entry{
		TypeMatch: func(*xmltree.Node) bool { return true },
		Run: func(tree *xmltree.Node, ts string, st *state.State) []string {
			typeID, _ := packetType(tree)
			return []string{fmt.Sprintf("%s $ %s", ts, typeID)}
		},
	}
}

// Catalog maps each of the sixteen closed-set extractor names to its Entry.
var Catalog = map[string]Entry{
	"rrc_ota":                     rrcOtaEntry(),
	"rrc_serv_cell_info":          genericEntry("LTE_RRC_Serv_Cell_Info"),
	"pdcp_cipher_data_pdu":        pdcpCipherDataPDUEntry(),
	"action_pdcp_cipher_data_pdu": actionPDCPCipherDataPDUEntry(),
	"nas_emm_ota_incoming":        genericEntry("LTE_NAS_EMM_OTA_Incoming_Packet"),
	"nas_emm_ota_outgoing":        genericEntry("LTE_NAS_EMM_OTA_Outgoing_Packet"),
	"mac_rach_attempt":            genericEntry("LTE_MAC_Rach_Attempt"),
	"mac_rach_trigger":            genericEntry("LTE_MAC_Rach_Trigger"),
	"phy_pdsch_stat":              genericEntry("LTE_PHY_PDSCH_Stat_Indication"),
	"phy_pdsch":                   genericEntry("LTE_PHY_PDSCH_Packet"),
	"phy_serv_cell_meas":          genericEntry("LTE_PHY_Serv_Cell_Measurement"),
	"rlc_dl_am_all_pdu":           genericEntry("LTE_RLC_DL_AM_All_PDU"),
	"rlc_ul_am_all_pdu":           genericEntry("LTE_RLC_UL_AM_All_PDU"),
	"rlc_dl_config_log":           genericEntry("LTE_RLC_DL_Config_Log_Packet"),
	"rlc_ul_config_log":           genericEntry("LTE_RLC_UL_Config_Log_Packet"),
	"all_packet_type":             allPacketTypeEntry(),
}

// Names returns the closed set of valid extractor names.
func Names() []string {
	names := make([]string, 0, len(Catalog))
	for n := range Catalog {
		names = append(names, n)
	}
	return names
}
