package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/antenna-status/exporter/metrics"
	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/monitor"
	"github.com/antenna-status/exporter/traffic"
)

// pollController is the part of the monitor the HTTP surface drives.
type pollController interface {
	Toggle(ctx context.Context) error
	Running() bool
}

type server struct {
	log         *zap.Logger
	collector   *metrics.Collector
	polls       pollController
	vendor      modem.Vendor
	host        string
	metricsPath string
}

func (s *server) routes(metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(s.metricsPath, metricsHandler)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/poll/toggle", s.handleToggle)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.polls.Toggle(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, monitor.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		s.log.Warn("toggle request failed", zap.Error(err))
		http.Error(w, err.Error(), status)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	w.Write([]byte("OK"))
}

var indexTemplate = template.Must(template.New("index").Parse(`<html>
<head><title>Antenna Status Exporter</title></head>
<body>
<h1>Antenna Status Exporter</h1>
<p>Version: {{.Version}}</p>
<p>Modem: {{.Vendor}} at {{.Host}}</p>
<p>Polling: {{if .Polling}}active{{else}}stopped{{end}}</p>
{{- with .Error}}
<p>Last poll: {{.}}</p>
{{- end}}
{{- with .Status}}
<pre>{{.}}</pre>
<p>Device: {{.Device.Manufacturer}} {{.Device.Model}}</p>
{{- end}}
{{- if .Rates}}
<p>Download: {{.Download}} Upload: {{.Upload}} (plot ceiling {{.Ceiling}} MiB/s)</p>
{{- end}}
<p><a href="{{.MetricsPath}}">Metrics</a></p>
</body>
</html>`))

type indexData struct {
	Version     string
	Vendor      modem.Vendor
	Host        string
	Polling     bool
	Error       string
	Status      *modem.Status
	Rates       bool
	Download    string
	Upload      string
	Ceiling     int64
	MetricsPath string
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap := s.collector.Snapshot()
	data := indexData{
		Version:     version,
		Vendor:      s.vendor,
		Host:        s.host,
		Polling:     s.polls.Running(),
		MetricsPath: s.metricsPath,
	}

	if snap.Fetches > 0 && !snap.Success {
		data.Error = snap.LastError.Label()
	} else {
		data.Status = snap.Status
	}

	if rates := snap.Rates; rates != nil {
		data.Rates = true
		data.Download = traffic.FormatBandwidth(rates.Download)
		data.Upload = traffic.FormatBandwidth(rates.Upload)
		data.Ceiling = plotCeiling(*rates)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.log.Error("failed to render index page", zap.Error(err))
	}
}

// plotCeiling is the Fibonacci step just above the larger direction, in MiB/s.
func plotCeiling(rates traffic.Statistics) int64 {
	peak := max(rates.Download, rates.Upload) / 8
	return traffic.NearestFib(peak / traffic.SizeMB)
}
