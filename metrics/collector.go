// Package metrics provides Prometheus metric collection for polled modems.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/monitor"
	"github.com/antenna-status/exporter/poller"
	"github.com/antenna-status/exporter/traffic"
)

// Snapshot is the latest state seen by the collector.
type Snapshot struct {
	Status      *modem.Status
	Rates       *traffic.Statistics
	Success     bool
	LastError   modem.ErrorKind
	Duration    time.Duration
	Updated     time.Time
	Polling     bool
	Fetches     uint64
	ErrorCounts map[modem.ErrorKind]uint64
}

// Collector implements prometheus.Collector for modem metrics.
// It never talks to the modem itself; the monitor feeds it through Observe.
type Collector struct {
	mu       sync.Mutex
	snapshot Snapshot
	issuedAt time.Time

	// Signal metrics
	rssiDesc *prometheus.Desc
	rsrpDesc *prometheus.Desc
	rsrqDesc *prometheus.Desc
	sinrDesc *prometheus.Desc
	rscpDesc *prometheus.Desc
	ecioDesc *prometheus.Desc

	// Cell metrics
	cellIDDesc *prometheus.Desc
	pciDesc    *prometheus.Desc
	enbDesc    *prometheus.Desc
	rncDesc    *prometheus.Desc
	pscDesc    *prometheus.Desc
	caDesc     *prometheus.Desc

	// Connection metrics
	networkModeDesc *prometheus.Desc
	infoDesc        *prometheus.Desc
	bandwidthDesc   *prometheus.Desc

	// Device metrics
	batteryDesc     *prometheus.Desc
	temperatureDesc *prometheus.Desc

	// Poll metrics
	pollingDesc       *prometheus.Desc
	fetchSuccessDesc  *prometheus.Desc
	fetchDurationDesc *prometheus.Desc
	fetchesDesc       *prometheus.Desc
	fetchErrorsDesc   *prometheus.Desc
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	labels := []string{"model"}

	return &Collector{
		snapshot: Snapshot{ErrorCounts: map[modem.ErrorKind]uint64{}},

		// Signal metrics
		rssiDesc: prometheus.NewDesc(
			"antenna_signal_rssi",
			"Received Signal Strength Indicator in dBm",
			labels,
			nil,
		),
		rsrpDesc: prometheus.NewDesc(
			"antenna_signal_rsrp",
			"Reference Signal Received Power in dBm (LTE)",
			labels,
			nil,
		),
		rsrqDesc: prometheus.NewDesc(
			"antenna_signal_rsrq",
			"Reference Signal Received Quality in dB (LTE)",
			labels,
			nil,
		),
		sinrDesc: prometheus.NewDesc(
			"antenna_signal_sinr",
			"Signal to Interference Noise Ratio in dB (LTE)",
			labels,
			nil,
		),
		rscpDesc: prometheus.NewDesc(
			"antenna_signal_rscp",
			"Received Signal Code Power in dBm (WCDMA)",
			labels,
			nil,
		),
		ecioDesc: prometheus.NewDesc(
			"antenna_signal_ecio",
			"Energy per chip over interference in dB (WCDMA)",
			labels,
			nil,
		),

		// Cell metrics
		cellIDDesc: prometheus.NewDesc(
			"antenna_cell_id",
			"Serving cell id",
			labels,
			nil,
		),
		pciDesc: prometheus.NewDesc(
			"antenna_cell_pci",
			"Physical Cell ID (LTE)",
			labels,
			nil,
		),
		enbDesc: prometheus.NewDesc(
			"antenna_cell_enb",
			"eNodeB ID (LTE)",
			labels,
			nil,
		),
		rncDesc: prometheus.NewDesc(
			"antenna_cell_rnc",
			"Radio Network Controller ID (WCDMA)",
			labels,
			nil,
		),
		pscDesc: prometheus.NewDesc(
			"antenna_cell_psc",
			"Primary Scrambling Code (WCDMA)",
			labels,
			nil,
		),
		caDesc: prometheus.NewDesc(
			"antenna_carrier_aggregation_count",
			"Number of secondary component carriers",
			labels,
			nil,
		),

		// Connection metrics
		networkModeDesc: prometheus.NewDesc(
			"antenna_network_mode",
			"Network mode (0=GSM, 2=WCDMA, 7=LTE, -1=unknown)",
			labels,
			nil,
		),
		infoDesc: prometheus.NewDesc(
			"antenna_info",
			"Modem and network information, always 1",
			[]string{"manufacturer", "model", "plmn", "band", "mode"},
			nil,
		),
		bandwidthDesc: prometheus.NewDesc(
			"antenna_traffic_bits_per_second",
			"Current bandwidth in bits per second",
			[]string{"model", "direction"},
			nil,
		),

		// Device metrics
		batteryDesc: prometheus.NewDesc(
			"antenna_battery_percent",
			"Battery charge level in percent",
			[]string{"model", "status"},
			nil,
		),
		temperatureDesc: prometheus.NewDesc(
			"antenna_temperature_celsius",
			"Temperature in degrees Celsius",
			[]string{"model", "sensor"},
			nil,
		),

		// Poll metrics
		pollingDesc: prometheus.NewDesc(
			"antenna_polling_active",
			"Whether the exporter is currently polling the modem",
			nil,
			nil,
		),
		fetchSuccessDesc: prometheus.NewDesc(
			"antenna_fetch_success",
			"Whether the last fetch was successful",
			nil,
			nil,
		),
		fetchDurationDesc: prometheus.NewDesc(
			"antenna_fetch_duration_seconds",
			"Duration of the last fetch in seconds",
			nil,
			nil,
		),
		fetchesDesc: prometheus.NewDesc(
			"antenna_fetches_total",
			"Number of completed fetches",
			nil,
			nil,
		),
		fetchErrorsDesc: prometheus.NewDesc(
			"antenna_fetch_errors_total",
			"Number of failed fetches by error kind",
			[]string{"kind"},
			nil,
		),
	}
}

// Observe records a monitor report. It implements monitor.Listener.
func (c *Collector) Observe(r monitor.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ev := r.Event
	switch ev.Kind {
	case poller.EventPollToggled:
		c.snapshot.Polling = ev.Running
	case poller.EventShutdown:
		c.snapshot.Polling = false
	case poller.EventFetchIssued:
		c.issuedAt = ev.Time
	case poller.EventStatusReceived:
		c.snapshot.Status = ev.Status
		// a nil rate keeps the previous bandwidth until the counter has a baseline
		if r.Rates != nil || ev.Status == nil || ev.Status.Traffic == nil {
			c.snapshot.Rates = r.Rates
		}
	case poller.EventFetchSucceeded:
		c.finishFetch(ev.Time, true)
	case poller.EventFetchFailed:
		c.finishFetch(ev.Time, false)
		c.snapshot.LastError = ev.ErrKind
		c.snapshot.ErrorCounts[ev.ErrKind]++
	}
}

func (c *Collector) finishFetch(at time.Time, success bool) {
	c.snapshot.Success = success
	c.snapshot.Fetches++
	c.snapshot.Updated = at
	if !c.issuedAt.IsZero() && !at.IsZero() {
		c.snapshot.Duration = at.Sub(c.issuedAt)
	}
}

// Snapshot returns a copy of the collected state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.snapshot
	s.ErrorCounts = make(map[modem.ErrorKind]uint64, len(c.snapshot.ErrorCounts))
	for k, v := range c.snapshot.ErrorCounts {
		s.ErrorCounts[k] = v
	}
	return s
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.rssiDesc
	ch <- c.rsrpDesc
	ch <- c.rsrqDesc
	ch <- c.sinrDesc
	ch <- c.rscpDesc
	ch <- c.ecioDesc
	ch <- c.cellIDDesc
	ch <- c.pciDesc
	ch <- c.enbDesc
	ch <- c.rncDesc
	ch <- c.pscDesc
	ch <- c.caDesc
	ch <- c.networkModeDesc
	ch <- c.infoDesc
	ch <- c.bandwidthDesc
	ch <- c.batteryDesc
	ch <- c.temperatureDesc
	ch <- c.pollingDesc
	ch <- c.fetchSuccessDesc
	ch <- c.fetchDurationDesc
	ch <- c.fetchesDesc
	ch <- c.fetchErrorsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.pollingDesc, prometheus.GaugeValue, boolValue(s.Polling))
	ch <- prometheus.MustNewConstMetric(c.fetchesDesc, prometheus.CounterValue, float64(s.Fetches))
	for _, kind := range []modem.ErrorKind{modem.KindHTTPConnection, modem.KindAccess, modem.KindDataParsing, modem.KindUnknown} {
		ch <- prometheus.MustNewConstMetric(c.fetchErrorsDesc, prometheus.CounterValue, float64(s.ErrorCounts[kind]), kind.String())
	}

	if s.Fetches == 0 {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.fetchSuccessDesc, prometheus.GaugeValue, boolValue(s.Success))
	ch <- prometheus.MustNewConstMetric(c.fetchDurationDesc, prometheus.GaugeValue, s.Duration.Seconds())

	// stale values are dropped once a fetch fails
	if !s.Success || s.Status == nil {
		return
	}
	status := s.Status
	model := status.Device.Model

	ch <- prometheus.MustNewConstMetric(c.infoDesc, prometheus.GaugeValue, 1,
		status.Device.Manufacturer, model, status.PLMN, status.BandLabel(), status.ModeLabel())
	ch <- prometheus.MustNewConstMetric(c.networkModeDesc, prometheus.GaugeValue, float64(status.Mode), model)

	// Signal and cell metrics
	ch <- prometheus.MustNewConstMetric(c.rssiDesc, prometheus.GaugeValue, float64(status.RSSI), model)
	ch <- prometheus.MustNewConstMetric(c.cellIDDesc, prometheus.GaugeValue, float64(status.CellID), model)

	switch sig := status.Signal.(type) {
	case modem.LTESignal:
		ch <- prometheus.MustNewConstMetric(c.rsrpDesc, prometheus.GaugeValue, float64(sig.RSRP), model)
		ch <- prometheus.MustNewConstMetric(c.rsrqDesc, prometheus.GaugeValue, float64(sig.RSRQ), model)
		ch <- prometheus.MustNewConstMetric(c.sinrDesc, prometheus.GaugeValue, float64(sig.SINR), model)
		ch <- prometheus.MustNewConstMetric(c.pciDesc, prometheus.GaugeValue, float64(sig.PCI), model)
		ch <- prometheus.MustNewConstMetric(c.enbDesc, prometheus.GaugeValue, float64(sig.ENB), model)
		ch <- prometheus.MustNewConstMetric(c.caDesc, prometheus.GaugeValue, float64(sig.CACount), model)
	case modem.WCDMASignal:
		ch <- prometheus.MustNewConstMetric(c.rscpDesc, prometheus.GaugeValue, float64(sig.RSCP), model)
		ch <- prometheus.MustNewConstMetric(c.ecioDesc, prometheus.GaugeValue, float64(sig.ECIO), model)
		ch <- prometheus.MustNewConstMetric(c.rncDesc, prometheus.GaugeValue, float64(sig.RNC), model)
		ch <- prometheus.MustNewConstMetric(c.pscDesc, prometheus.GaugeValue, float64(sig.PSC), model)
	}

	// Device metrics
	if status.Battery != nil {
		ch <- prometheus.MustNewConstMetric(c.batteryDesc, prometheus.GaugeValue, float64(status.Battery.Percent), model, status.Battery.Status)
	}
	if status.Temperature != nil {
		ch <- prometheus.MustNewConstMetric(c.temperatureDesc, prometheus.GaugeValue, float64(status.Temperature.Device), model, "device")
		ch <- prometheus.MustNewConstMetric(c.temperatureDesc, prometheus.GaugeValue, float64(status.Temperature.Battery), model, "battery")
	}
	if s.Rates != nil {
		ch <- prometheus.MustNewConstMetric(c.bandwidthDesc, prometheus.GaugeValue, float64(s.Rates.Download), model, "download")
		ch <- prometheus.MustNewConstMetric(c.bandwidthDesc, prometheus.GaugeValue, float64(s.Rates.Upload), model, "upload")
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
