package modem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWCDMASignal_CellDecomposition(t *testing.T) {
	sig := NewWCDMASignal(0x130005, -91, -7, 117)

	assert.Equal(t, int64(0x13), sig.RNC)
	assert.Equal(t, int64(0), sig.NB)
	assert.Equal(t, int64(5), sig.CC)
	assert.Equal(t, int64(-91), sig.RSCP)
	assert.Equal(t, int64(-7), sig.ECIO)
	assert.Equal(t, int64(117), sig.PSC)
}

func TestNewWCDMASignal_NodeBDigits(t *testing.T) {
	// id = 0x3039 = 12345
	sig := NewWCDMASignal(0x0A3039, 0, 0, 0)

	assert.Equal(t, int64(0x0A), sig.RNC)
	assert.Equal(t, int64(1234), sig.NB)
	assert.Equal(t, int64(5), sig.CC)
}

func TestNewLTESignal_CellDecomposition(t *testing.T) {
	sig := NewLTESignal(0x1234, -11, -95, 12, 301, 2)

	assert.Equal(t, int64(0x12), sig.ENB)
	assert.Equal(t, int64(0x34), sig.ID)
	assert.Equal(t, int64(301), sig.PCI)
	assert.Equal(t, int64(2), sig.CACount)
}

func TestStatus_Labels(t *testing.T) {
	lte := &Status{Mode: ModeLTE, Band: "LTE B3", Signal: NewLTESignal(0x1234, -11, -95, 12, 301, 2), CellID: 0x1234}
	assert.Equal(t, int64(2), lte.CACount())
	assert.Equal(t, "LTE-A", lte.ModeLabel())
	assert.Equal(t, "LTE B3+2CA", lte.BandLabel())
	assert.Equal(t, "1234", lte.CellIDHex())

	plain := &Status{Mode: ModeLTE, Band: "B20", Signal: NewLTESignal(1, 0, 0, 0, 0, 0)}
	assert.Equal(t, "LTE", plain.ModeLabel())
	assert.Equal(t, "B20", plain.BandLabel())

	wcdma := &Status{Mode: ModeWCDMA, Signal: NewWCDMASignal(0x130005, -91, -7, 117)}
	assert.Equal(t, int64(0), wcdma.CACount())
	assert.Equal(t, "WCDMA", wcdma.ModeLabel())

	unknown := &Status{Mode: ModeUnknown}
	assert.Equal(t, "Unknown", unknown.ModeLabel())
	assert.Equal(t, "GSM", ModeGSM.String())
}

func TestStatus_String(t *testing.T) {
	s := &Status{
		Mode:   ModeLTE,
		PLMN:   "26201",
		RSSI:   -67,
		CellID: 0x1234,
		Band:   "LTE B3",
		Signal: NewLTESignal(0x1234, -11, -95, 12, 301, 0),
	}

	out := s.String()
	assert.True(t, strings.HasPrefix(out, "Network mode : LTE\n"))
	assert.Contains(t, out, "PLMN : 26201")
	assert.Contains(t, out, "Cell ID : 1234 / 4660")
	assert.Contains(t, out, "RSRQ/RSRP/SINR : -11dB/-95dBm/12dB")

	s = &Status{Mode: ModeWCDMA, Signal: NewWCDMASignal(0x130005, -91, -7, 117)}
	assert.Contains(t, s.String(), "PLMN : -")
	assert.Contains(t, s.String(), "RSCP : -91dBm EC/IO : -7dB")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "26201", truncate("26201", MaxPLMNLen))
	assert.Equal(t, "262012", truncate("2620123", MaxPLMNLen))
	assert.Equal(t, "äöü", truncate("äöüß", 3))
	assert.Equal(t, "", truncate("", 5))

	info := NewDeviceInfo(strings.Repeat("M", 50), strings.Repeat("x", 41))
	assert.Len(t, info.Manufacturer, MaxManufacturerLen)
	assert.Len(t, info.Model, MaxModelLen)
}
