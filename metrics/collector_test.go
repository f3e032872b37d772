package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/monitor"
	"github.com/antenna-status/exporter/poller"
	"github.com/antenna-status/exporter/traffic"
)

func lteStatus() *modem.Status {
	return &modem.Status{
		Mode:   modem.ModeLTE,
		Signal: modem.NewLTESignal(0x1234, -11, -95, 12, 301, 2),
		PLMN:   "26201",
		RSSI:   -67,
		CellID: 0x1234,
		Band:   "LTE B3",
		Device: modem.NewDeviceInfo("NETGEAR", "AC810S"),
		Battery: &modem.BatteryStatus{
			Percent: 87,
			Status:  "USB",
		},
		Temperature: &modem.DeviceTemperature{Device: 38, Battery: 29},
		Traffic:     &traffic.Statistics{Download: 1800, Upload: 900},
		TrafficMode: traffic.Cumulative,
	}
}

func feed(c *Collector, events ...monitor.Report) {
	for _, r := range events {
		c.Observe(r)
	}
}

func successfulPoll(status *modem.Status, rates *traffic.Statistics) []monitor.Report {
	t0 := time.Unix(1700000000, 0)
	return []monitor.Report{
		{Event: poller.Event{Kind: poller.EventPollToggled, Running: true}},
		{Event: poller.Event{Kind: poller.EventFetchIssued, Time: t0}},
		{Event: poller.Event{Kind: poller.EventStatusReceived, Status: status}, Rates: rates},
		{Event: poller.Event{Kind: poller.EventFetchSucceeded, Time: t0.Add(250 * time.Millisecond)}},
	}
}

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()

	expected := `
# HELP antenna_polling_active Whether the exporter is currently polling the modem
# TYPE antenna_polling_active gauge
antenna_polling_active 0
# HELP antenna_fetches_total Number of completed fetches
# TYPE antenna_fetches_total counter
antenna_fetches_total 0
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"antenna_polling_active", "antenna_fetches_total"))

	// no modem data before the first fetch
	assert.Equal(t, 0, testutil.CollectAndCount(c, "antenna_signal_rssi", "antenna_fetch_success"))
	assert.Equal(t, 4, testutil.CollectAndCount(c, "antenna_fetch_errors_total"))
}

func TestCollector_LTEStatus(t *testing.T) {
	c := NewCollector()
	feed(c, successfulPoll(lteStatus(), &traffic.Statistics{Download: 800, Upload: 400})...)

	expected := `
# HELP antenna_polling_active Whether the exporter is currently polling the modem
# TYPE antenna_polling_active gauge
antenna_polling_active 1
# HELP antenna_fetch_success Whether the last fetch was successful
# TYPE antenna_fetch_success gauge
antenna_fetch_success 1
# HELP antenna_fetch_duration_seconds Duration of the last fetch in seconds
# TYPE antenna_fetch_duration_seconds gauge
antenna_fetch_duration_seconds 0.25
# HELP antenna_signal_rsrp Reference Signal Received Power in dBm (LTE)
# TYPE antenna_signal_rsrp gauge
antenna_signal_rsrp{model="AC810S"} -95
# HELP antenna_cell_enb eNodeB ID (LTE)
# TYPE antenna_cell_enb gauge
antenna_cell_enb{model="AC810S"} 18
# HELP antenna_carrier_aggregation_count Number of secondary component carriers
# TYPE antenna_carrier_aggregation_count gauge
antenna_carrier_aggregation_count{model="AC810S"} 2
# HELP antenna_info Modem and network information, always 1
# TYPE antenna_info gauge
antenna_info{band="LTE B3+2CA",manufacturer="NETGEAR",mode="LTE-A",model="AC810S",plmn="26201"} 1
# HELP antenna_traffic_bits_per_second Current bandwidth in bits per second
# TYPE antenna_traffic_bits_per_second gauge
antenna_traffic_bits_per_second{direction="download",model="AC810S"} 800
antenna_traffic_bits_per_second{direction="upload",model="AC810S"} 400
# HELP antenna_temperature_celsius Temperature in degrees Celsius
# TYPE antenna_temperature_celsius gauge
antenna_temperature_celsius{model="AC810S",sensor="battery"} 29
antenna_temperature_celsius{model="AC810S",sensor="device"} 38
# HELP antenna_battery_percent Battery charge level in percent
# TYPE antenna_battery_percent gauge
antenna_battery_percent{model="AC810S",status="USB"} 87
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"antenna_polling_active", "antenna_fetch_success", "antenna_fetch_duration_seconds",
		"antenna_signal_rsrp", "antenna_cell_enb", "antenna_carrier_aggregation_count",
		"antenna_info", "antenna_traffic_bits_per_second", "antenna_temperature_celsius",
		"antenna_battery_percent",
	))

	// WCDMA series are not exported for an LTE cell
	assert.Equal(t, 0, testutil.CollectAndCount(c, "antenna_signal_rscp", "antenna_cell_rnc"))
}

func TestCollector_WCDMAWithoutOptionalFields(t *testing.T) {
	c := NewCollector()
	status := &modem.Status{
		Mode:        modem.ModeWCDMA,
		Signal:      modem.NewWCDMASignal(0x130005, -91, -7, 117),
		RSSI:        -79,
		CellID:      0x130005,
		Device:      modem.NewDeviceInfo("HUAWEI", ""),
		TrafficMode: traffic.Absolute,
	}
	feed(c, successfulPoll(status, nil)...)

	expected := `
# HELP antenna_cell_rnc Radio Network Controller ID (WCDMA)
# TYPE antenna_cell_rnc gauge
antenna_cell_rnc{model=""} 19
# HELP antenna_signal_ecio Energy per chip over interference in dB (WCDMA)
# TYPE antenna_signal_ecio gauge
antenna_signal_ecio{model=""} -7
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"antenna_cell_rnc", "antenna_signal_ecio"))

	assert.Equal(t, 0, testutil.CollectAndCount(c,
		"antenna_battery_percent", "antenna_temperature_celsius",
		"antenna_traffic_bits_per_second", "antenna_signal_rsrp"))
}

func TestCollector_FailuresAreCountedByKind(t *testing.T) {
	c := NewCollector()
	feed(c, successfulPoll(lteStatus(), nil)...)

	fail := func(err error) monitor.Report {
		return monitor.Report{Event: poller.Event{Kind: poller.EventFetchFailed, ErrKind: modem.KindOf(err), Err: err}}
	}
	feed(c,
		fail(modem.ErrHTTPConnection),
		fail(modem.ErrHTTPConnection),
		fail(modem.ErrDataParsing),
		fail(errors.New("boom")),
	)

	expected := `
# HELP antenna_fetch_errors_total Number of failed fetches by error kind
# TYPE antenna_fetch_errors_total counter
antenna_fetch_errors_total{kind="access"} 0
antenna_fetch_errors_total{kind="data_parsing"} 1
antenna_fetch_errors_total{kind="http_connection"} 2
antenna_fetch_errors_total{kind="unknown"} 1
# HELP antenna_fetch_success Whether the last fetch was successful
# TYPE antenna_fetch_success gauge
antenna_fetch_success 0
# HELP antenna_fetches_total Number of completed fetches
# TYPE antenna_fetches_total counter
antenna_fetches_total 5
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected),
		"antenna_fetch_errors_total", "antenna_fetch_success", "antenna_fetches_total"))

	// signal values of the last good fetch are not reported as current
	assert.Equal(t, 0, testutil.CollectAndCount(c, "antenna_signal_rssi"))

	s := c.Snapshot()
	assert.Equal(t, modem.KindUnknown, s.LastError)
	assert.NotNil(t, s.Status)
}

func TestCollector_RatesKeptUntilBaseline(t *testing.T) {
	c := NewCollector()
	feed(c, successfulPoll(lteStatus(), &traffic.Statistics{Download: 800, Upload: 400})...)

	// the counter had no baseline for this sample
	feed(c, successfulPoll(lteStatus(), nil)...)
	s := c.Snapshot()
	require.NotNil(t, s.Rates)
	assert.Equal(t, int64(800), s.Rates.Download)

	// no traffic at all clears them
	noTraffic := lteStatus()
	noTraffic.Traffic = nil
	feed(c, successfulPoll(noTraffic, nil)...)
	assert.Nil(t, c.Snapshot().Rates)
}

func TestCollector_ShutdownClearsPolling(t *testing.T) {
	c := NewCollector()
	feed(c, successfulPoll(lteStatus(), nil)...)
	assert.True(t, c.Snapshot().Polling)

	c.Observe(monitor.Report{Event: poller.Event{Kind: poller.EventShutdown}})
	assert.False(t, c.Snapshot().Polling)
}

func TestCollector_Registers(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewCollector()))
}

func TestCollector_SnapshotIsACopy(t *testing.T) {
	c := NewCollector()
	c.Observe(monitor.Report{Event: poller.Event{Kind: poller.EventFetchFailed, ErrKind: modem.KindAccess}})

	s := c.Snapshot()
	s.ErrorCounts[modem.KindAccess] = 100
	assert.Equal(t, uint64(1), c.Snapshot().ErrorCounts[modem.KindAccess])
}
