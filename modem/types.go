// Package modem provides the status model and vendor clients for LTE/WCDMA routers.
package modem

import (
	"fmt"
	"strings"

	"github.com/antenna-status/exporter/traffic"
)

// NetworkMode is the radio access technology the modem is camped on.
// Values match the Huawei `mode` identifiers.
type NetworkMode int

const (
	ModeGSM     NetworkMode = 0
	ModeWCDMA   NetworkMode = 2
	ModeLTE     NetworkMode = 7
	ModeUnknown NetworkMode = -1
)

func (m NetworkMode) String() string {
	switch m {
	case ModeGSM:
		return "GSM"
	case ModeWCDMA:
		return "WCDMA"
	case ModeLTE:
		return "LTE"
	default:
		return "Unknown"
	}
}

// SignalInfo is the mode-specific part of a Status.
// It is either WCDMASignal, LTESignal or nil.
type SignalInfo interface {
	signalInfo()
}

// WCDMASignal contains 3G radio metrics.
type WCDMASignal struct {
	// RSCP - Received Signal Code Power (dBm)
	RSCP int64

	// ECIO - Energy per chip over interference (dB)
	ECIO int64

	// NB and CC split the local cell id into NodeB and cell digit
	NB int64
	CC int64

	// RNC - Radio Network Controller id
	RNC int64

	// PSC - Primary Scrambling Code
	PSC int64
}

func (WCDMASignal) signalInfo() {}

// NewWCDMASignal decomposes a WCDMA cell id into RNC/NB/CC.
func NewWCDMASignal(cellID, rscp, ecio, psc int64) WCDMASignal {
	rnc, id := cellID>>16, cellID&0xFFFF
	return WCDMASignal{
		RSCP: rscp,
		ECIO: ecio,
		NB:   id / 10,
		CC:   id % 10,
		RNC:  rnc,
		PSC:  psc,
	}
}

// LTESignal contains 4G radio metrics.
type LTESignal struct {
	// RSRQ - Reference Signal Received Quality (dB)
	RSRQ int64

	// RSRP - Reference Signal Received Power (dBm)
	RSRP int64

	// SINR - Signal to Interference plus Noise Ratio (dB)
	SINR int64

	// CACount - number of secondary carriers aggregated
	CACount int64

	// ENB - eNodeB id
	ENB int64

	// ID - sector id within the eNodeB
	ID int64

	// PCI - Physical Cell Identity
	PCI int64
}

func (LTESignal) signalInfo() {}

// NewLTESignal decomposes an LTE cell id into eNB and sector id.
func NewLTESignal(cellID, rsrq, rsrp, sinr, pci, caCount int64) LTESignal {
	return LTESignal{
		RSRQ:    rsrq,
		RSRP:    rsrp,
		SINR:    sinr,
		CACount: caCount,
		ENB:     cellID >> 8,
		ID:      cellID & 0xFF,
		PCI:     pci,
	}
}

// Maximum lengths for text fields, counted in runes.
const (
	MaxManufacturerLen  = 40
	MaxModelLen         = 40
	MaxBandLen          = 20
	MaxBatteryStatusLen = 20
	MaxPLMNLen          = 6
)

// DeviceInfo identifies the modem hardware.
type DeviceInfo struct {
	Manufacturer string
	Model        string
}

// NewDeviceInfo builds a DeviceInfo with both fields truncated to their limits.
func NewDeviceInfo(manufacturer, model string) DeviceInfo {
	return DeviceInfo{
		Manufacturer: truncate(manufacturer, MaxManufacturerLen),
		Model:        truncate(model, MaxModelLen),
	}
}

// BatteryStatus is reported by battery powered mobile hotspots.
type BatteryStatus struct {
	Percent int64
	Status  string
}

// DeviceTemperature is reported in degrees Celsius.
type DeviceTemperature struct {
	Device  int64
	Battery int64
}

// Status is one normalized telemetry snapshot.
// A Status is built by a client and must not be modified afterwards; the next
// poll produces a new one.
type Status struct {
	Mode   NetworkMode
	Signal SignalInfo

	// PLMN is MCC followed by MNC, empty when unavailable.
	// It is truncated to MaxPLMNLen and never padded.
	PLMN string

	// RSSI in dBm
	RSSI int64

	CellID int64

	// Band is vendor formatted, e.g. "LTE B3"
	Band string

	Device      DeviceInfo
	Battery     *BatteryStatus
	Temperature *DeviceTemperature

	// Traffic is a rate or a cumulative counter depending on TrafficMode
	Traffic     *traffic.Statistics
	TrafficMode traffic.Mode
}

// CACount returns the number of aggregated secondary carriers, 0 outside LTE.
func (s *Status) CACount() int64 {
	if lte, ok := s.Signal.(LTESignal); ok {
		return lte.CACount
	}
	return 0
}

// ModeLabel returns the display name of the network mode, "LTE-A" with carrier aggregation.
func (s *Status) ModeLabel() string {
	if s.Mode == ModeLTE && s.CACount() > 0 {
		return "LTE-A"
	}
	return s.Mode.String()
}

// BandLabel returns the band with a "+nCA" suffix when carriers are aggregated.
func (s *Status) BandLabel() string {
	if ca := s.CACount(); ca > 0 {
		return fmt.Sprintf("%s+%dCA", s.Band, ca)
	}
	return s.Band
}

// CellIDHex returns the cell id in upper case hex.
func (s *Status) CellIDHex() string {
	return fmt.Sprintf("%X", s.CellID)
}

func (s *Status) String() string {
	var b strings.Builder

	plmn := s.PLMN
	if plmn == "" {
		plmn = "-"
	}

	fmt.Fprintf(&b, "Network mode : %s\nRSSI : %d dBm\nPLMN : %s\nBand : %s\nCell ID : %s / %d",
		s.ModeLabel(), s.RSSI, plmn, s.BandLabel(), s.CellIDHex(), s.CellID)

	switch sig := s.Signal.(type) {
	case WCDMASignal:
		fmt.Fprintf(&b, "\nRSCP : %ddBm EC/IO : %ddB", sig.RSCP, sig.ECIO)
	case LTESignal:
		fmt.Fprintf(&b, "\nRSRQ/RSRP/SINR : %ddB/%ddBm/%ddB", sig.RSRQ, sig.RSRP, sig.SINR)
	}

	return b.String()
}

// truncate cuts s to at most max runes.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
