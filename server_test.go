package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/antenna-status/exporter/metrics"
	"github.com/antenna-status/exporter/modem"
	"github.com/antenna-status/exporter/monitor"
	"github.com/antenna-status/exporter/poller"
	"github.com/antenna-status/exporter/traffic"
)

type fakePolls struct {
	running bool
	toggles int
	err     error
}

func (f *fakePolls) Toggle(context.Context) error {
	if f.err != nil {
		return f.err
	}
	f.toggles++
	f.running = !f.running
	return nil
}

func (f *fakePolls) Running() bool { return f.running }

func newTestServer(polls pollController) (*server, *metrics.Collector) {
	collector := metrics.NewCollector()
	return &server{
		log:         zap.NewNop(),
		collector:   collector,
		polls:       polls,
		vendor:      modem.VendorHuawei,
		host:        "192.168.8.1",
		metricsPath: "/metrics",
	}, collector
}

func serve(s *server, method, path string) *httptest.ResponseRecorder {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("metrics"))
	})
	rec := httptest.NewRecorder()
	s.routes(metricsHandler).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(&fakePolls{})
	rec := serve(s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(&fakePolls{})
	rec := serve(s, http.MethodGet, "/metrics")
	assert.Equal(t, "metrics", rec.Body.String())
}

func TestServer_Toggle(t *testing.T) {
	polls := &fakePolls{}
	s, _ := newTestServer(polls)

	rec := serve(s, http.MethodPost, "/poll/toggle")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, polls.running)

	rec = serve(s, http.MethodGet, "/poll/toggle")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 1, polls.toggles)

	polls.err = monitor.ErrStopped
	rec = serve(s, http.MethodPost, "/poll/toggle")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Index(t *testing.T) {
	polls := &fakePolls{running: true}
	s, collector := newTestServer(polls)

	status := &modem.Status{
		Mode:   modem.ModeLTE,
		Signal: modem.NewLTESignal(0x1234, -9, -97, 14, 385, 0),
		PLMN:   "26201",
		Device: modem.NewDeviceInfo("HUAWEI", "E3372<script>"),
	}
	collector.Observe(monitor.Report{Event: poller.Event{Kind: poller.EventStatusReceived, Status: status},
		Rates: &traffic.Statistics{Download: 50 * 8 * traffic.SizeMB, Upload: 2048}})
	collector.Observe(monitor.Report{Event: poller.Event{Kind: poller.EventFetchSucceeded}})

	rec := serve(s, http.MethodGet, "/")
	body := rec.Body.String()

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Polling: active")
	assert.Contains(t, body, "huawei at 192.168.8.1")
	assert.Contains(t, body, "PLMN : 26201")
	assert.Contains(t, body, "E3372&lt;script&gt;")
	assert.Contains(t, body, "Upload: 2.00KBit/s")
	assert.Contains(t, body, "plot ceiling 55 MiB/s")
}

func TestServer_IndexShowsErrorLabel(t *testing.T) {
	s, collector := newTestServer(&fakePolls{})
	collector.Observe(monitor.Report{Event: poller.Event{Kind: poller.EventFetchFailed, ErrKind: modem.KindAccess}})

	body := serve(s, http.MethodGet, "/").Body.String()
	assert.Contains(t, body, "Polling: stopped")
	assert.Contains(t, body, "Last poll: Access Error")
}

func TestServer_UnknownPath(t *testing.T) {
	s, _ := newTestServer(&fakePolls{})
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/nope").Code)
}

func TestPlotCeiling(t *testing.T) {
	assert.Equal(t, int64(1), plotCeiling(traffic.Statistics{}))
	assert.Equal(t, int64(55), plotCeiling(traffic.Statistics{Download: 50 * 8 * traffic.SizeMB}))
	assert.Equal(t, int64(13), plotCeiling(traffic.Statistics{Download: 1, Upload: 8 * 8 * traffic.SizeMB}))
}
