package modem

import (
	"github.com/imroc/req/v3"
	"go.uber.org/zap"

	"github.com/antenna-status/exporter/traffic"
)

// netgearInfoPath serves the whole device state as one JSON document, no login needed.
const netgearInfoPath = "/model.json?internalapi=1"

// JSON paths in the Netgear document.
const (
	ngServiceType = "wwan.currentNWserviceType"
	ngRSSI        = "wwan.signalStrength.rssi"
	ngRSCP        = "wwan.signalStrength.rscp"
	ngECIO        = "wwan.signalStrength.ecio"
	ngRSRQ        = "wwan.signalStrength.rsrq"
	ngRSRP        = "wwan.signalStrength.rsrp"
	ngSINR        = "wwan.signalStrength.sinr"
	ngCACount     = "wwan.ca.SCCcount"
	ngRxBytes     = "wwan.dataTransferredRx"
	ngTxBytes     = "wwan.dataTransferredTx"
	ngMCC         = "wwanadv.MCC"
	ngMNC         = "wwanadv.MNC"
	ngBand        = "wwanadv.curBand"
	ngCellID      = "wwanadv.cellId"
	ngPrimScode   = "wwanadv.primScode"
	ngCompany     = "general.companyName"
	ngDeviceName  = "general.deviceName"
	ngDevTemp     = "general.devTemperature"
	ngBattLevel   = "power.battChargeLevel"
	ngBattSource  = "power.battChargeSource"
	ngBattTemp    = "power.batteryTemperature"
)

var netgearRequiredFields = []string{
	ngServiceType, ngRSSI,
	ngMCC, ngMNC, ngBand, ngCellID,
	ngCompany, ngDeviceName, ngDevTemp,
	ngBattLevel, ngBattSource, ngBattTemp,
}

// NetgearClient implements Client for Netgear AirCard / Nighthawk mobile routers.
// The device exposes a single unauthenticated JSON document.
type NetgearClient struct {
	httpClient *req.Client
	log        *zap.Logger
}

// NewNetgearClient creates a new client for Netgear modems.
func NewNetgearClient(httpClient *req.Client, log *zap.Logger) (*NetgearClient, error) {
	if err := requireHTTPClient(httpClient); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &NetgearClient{
		httpClient: httpClient,
		log:        log.Named("netgear"),
	}, nil
}

// Fetch retrieves the current modem status.
func (c *NetgearClient) Fetch(host string) (*Status, error) {
	body, err := get(c.httpClient, c.log, host, netgearInfoPath, nil)
	if err != nil {
		c.log.Warn("cannot access info JSON", zap.String("host", host), zap.Error(err))
		return nil, err
	}

	doc, err := parseJSON(body, c.log)
	if err != nil {
		return nil, newError(KindDataParsing, netgearInfoPath, err)
	}

	return c.parseInfo(doc)
}

func netgearMode(s string) NetworkMode {
	switch s {
	case "GsmService":
		return ModeGSM
	case "WcdmaService":
		return ModeWCDMA
	case "LteService":
		return ModeLTE
	default:
		return ModeUnknown
	}
}

// parseInfo builds a Status, any missing required field fails the whole document.
func (c *NetgearClient) parseInfo(doc *jsonDocument) (*Status, error) {
	if !hasRequiredFields(doc, netgearRequiredFields...) {
		return nil, errorf(KindDataParsing, netgearInfoPath, "required fields missing")
	}

	serviceType, _ := field(doc, ngServiceType)
	mode := netgearMode(serviceType)

	p := &fieldParser{doc: doc}

	rssi := p.required(ngRSSI)
	cellID := p.required(ngCellID)

	mcc, _ := field(doc, ngMCC)
	mnc, _ := field(doc, ngMNC)
	band, _ := field(doc, ngBand)

	var signal SignalInfo
	switch mode {
	case ModeWCDMA:
		signal = NewWCDMASignal(cellID, p.required(ngRSCP), p.required(ngECIO), p.required(ngPrimScode))
	case ModeLTE:
		caCount, _ := fieldAs[int64](doc, ngCACount)
		signal = NewLTESignal(cellID, p.required(ngRSRQ), p.required(ngRSRP), p.required(ngSINR), p.required(ngPrimScode), caCount)
	}

	company, _ := field(doc, ngCompany)
	deviceName, _ := field(doc, ngDeviceName)
	battSource, _ := field(doc, ngBattSource)

	battery := &BatteryStatus{
		Percent: p.required(ngBattLevel),
		Status:  truncate(battSource, MaxBatteryStatusLen),
	}
	temperature := &DeviceTemperature{
		Device:  p.required(ngDevTemp),
		Battery: p.required(ngBattTemp),
	}

	if p.err != nil {
		return nil, p.err
	}

	return &Status{
		Mode:        mode,
		Signal:      signal,
		PLMN:        truncate(mcc+mnc, MaxPLMNLen),
		RSSI:        rssi,
		CellID:      cellID,
		Band:        truncate(band, MaxBandLen),
		Device:      NewDeviceInfo(company, deviceName),
		Battery:     battery,
		Temperature: temperature,
		Traffic: &traffic.Statistics{
			Download: c.counterBits(doc, ngRxBytes),
			Upload:   c.counterBits(doc, ngTxBytes),
		},
		TrafficMode: traffic.Cumulative,
	}, nil
}

// counterBits reads a byte counter sent as a string and converts it to bits.
// Implausible values are reported as 0.
func (c *NetgearClient) counterBits(doc *jsonDocument, path string) int64 {
	bytes, ok := fieldAs[int64](doc, path)
	if !ok {
		return 0
	}
	if bytes < 0 || bytes > traffic.SanityCeiling {
		c.log.Debug("discarding implausible traffic counter", zap.String("field", path), zap.Int64("bytes", bytes))
		return 0
	}
	return bytes * 8
}

// Vendor returns the vendor this client speaks to.
func (c *NetgearClient) Vendor() Vendor {
	return VendorNetgear
}

// Close releases any resources held by the client.
func (c *NetgearClient) Close() error {
	return nil
}
