package modem

import (
	"github.com/imroc/req/v3"
	"go.uber.org/zap"

	"github.com/antenna-status/exporter/traffic"
)

// Huawei HiLink REST endpoints.
const (
	huaweiSessionPath  = "/api/webserver/SesTokInfo"
	huaweiSignalPath   = "/api/device/signal"
	huaweiPLMNPath     = "/api/net/current-plmn"
	huaweiTrafficPath  = "/api/monitoring/traffic-statistics"
	huaweiBatteryPath  = "/api/monitoring/status"
	huaweiErrorRootTag = "error"
)

// Device information is served from one of these, depending on firmware.
var huaweiDevicePaths = []string{
	"/api/device/basic_information",
	"/api/device/information",
}

// huaweiManufacturer is not reported by the API.
const huaweiManufacturer = "HUAWEI"

// SessionToken authenticates HiLink API calls for one fetch cycle.
type SessionToken struct {
	Cookie string
	Token  string
}

func (t *SessionToken) headers() map[string]string {
	if t == nil {
		return nil
	}
	return map[string]string{
		"X-Requested-With":           "XMLHttpRequest",
		"Cookie":                     t.Cookie,
		"__RequestVerificationToken": t.Token,
	}
}

// HuaweiClient implements Client for Huawei HiLink modems and routers.
// Each fetch acquires a fresh session token; tokens are never reused.
type HuaweiClient struct {
	httpClient *req.Client
	log        *zap.Logger
}

// NewHuaweiClient creates a new client for Huawei modems.
func NewHuaweiClient(httpClient *req.Client, log *zap.Logger) (*HuaweiClient, error) {
	if err := requireHTTPClient(httpClient); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &HuaweiClient{
		httpClient: httpClient,
		log:        log.Named("huawei"),
	}, nil
}

// Fetch retrieves the current modem status.
// Only the signal request is fatal; everything else is best effort.
func (c *HuaweiClient) Fetch(host string) (*Status, error) {
	token := c.sessionToken(host)

	status, err := c.fetchSignal(host, token)
	if err != nil {
		c.log.Warn("cannot get signal data", zap.String("host", host), zap.Error(err))
		return nil, err
	}

	if plmn, ok := c.lookupPLMN(host, token); ok {
		status.PLMN = plmn
	}
	if stats, ok := c.lookupTraffic(host, token); ok {
		status.Traffic = &stats
	}
	if battery, ok := c.lookupBattery(host, token); ok {
		status.Battery = &battery
	}
	if device, ok := c.lookupDevice(host, token); ok {
		status.Device = device
	}

	return status, nil
}

// sessionToken returns nil when the modem does not hand out a token,
// some endpoints still answer without one.
func (c *HuaweiClient) sessionToken(host string) *SessionToken {
	doc, err := c.getXML(host, huaweiSessionPath, nil)
	if err != nil {
		c.log.Debug("no session token, continuing unauthenticated", zap.Error(err))
		return nil
	}

	ses, sesOK := doc.lookup("SesInfo")
	tok, tokOK := doc.lookup("TokInfo")
	if !sesOK || !tokOK {
		c.log.Debug("incomplete session token, continuing unauthenticated")
		return nil
	}
	return &SessionToken{Cookie: ses, Token: tok}
}

// getXML fetches and parses one document, turning <error> documents into Access errors.
func (c *HuaweiClient) getXML(host, path string, token *SessionToken) (*xmlDocument, error) {
	body, err := get(c.httpClient, c.log, host, path, token.headers())
	if err != nil {
		return nil, err
	}

	doc, err := parseXML(body, c.log)
	if err != nil {
		return nil, newError(KindDataParsing, path, err)
	}

	if doc.rootTag() == huaweiErrorRootTag {
		code, _ := doc.lookup("code")
		message, _ := doc.lookup("message")
		c.log.Warn("Huawei REST error",
			zap.String("path", path),
			zap.String("code", code),
			zap.String("message", message),
		)
		return nil, errorf(KindAccess, path, "Huawei REST error code=%q message=%q", code, message)
	}

	return doc, nil
}

func huaweiMode(s string) NetworkMode {
	switch s {
	case "0":
		return ModeGSM
	case "2":
		return ModeWCDMA
	case "7":
		return ModeLTE
	default:
		return ModeUnknown
	}
}

// fetchSignal is the primary request, every failure aborts the fetch.
func (c *HuaweiClient) fetchSignal(host string, token *SessionToken) (*Status, error) {
	doc, err := c.getXML(host, huaweiSignalPath, token)
	if err != nil {
		return nil, err
	}

	if !hasRequiredFields(doc, "mode", "rssi", "cell_id") {
		return nil, errorf(KindDataParsing, huaweiSignalPath, "required fields missing")
	}

	modeID, _ := field(doc, "mode")
	mode := huaweiMode(modeID)

	rssi, ok := fieldAsUnit[int64](doc, "rssi")
	if !ok {
		return nil, errorf(KindDataParsing, huaweiSignalPath, "malformed rssi")
	}
	cellID, ok := fieldAs[int64](doc, "cell_id")
	if !ok {
		return nil, errorf(KindDataParsing, huaweiSignalPath, "malformed cell_id")
	}

	var signal SignalInfo
	switch mode {
	case ModeWCDMA:
		if !hasRequiredFields(doc, "rscp", "ecio") {
			return nil, errorf(KindDataParsing, huaweiSignalPath, "WCDMA fields missing")
		}
		p := &fieldParser{doc: doc}
		rscp, ecio := p.requiredUnit("rscp"), p.requiredUnit("ecio")
		if p.err != nil {
			return nil, p.err
		}
		psc, _ := fieldAsUnit[int64](doc, "sc")
		signal = NewWCDMASignal(cellID, rscp, ecio, psc)

	case ModeLTE:
		if !hasRequiredFields(doc, "rsrp", "rsrq", "sinr") {
			return nil, errorf(KindDataParsing, huaweiSignalPath, "LTE fields missing")
		}
		p := &fieldParser{doc: doc}
		rsrq, rsrp, sinr := p.requiredUnit("rsrq"), p.requiredUnit("rsrp"), p.requiredUnit("sinr")
		if p.err != nil {
			return nil, p.err
		}
		pci, _ := fieldAsUnit[int64](doc, "pci")
		signal = NewLTESignal(cellID, rsrq, rsrp, sinr, pci, 0)
	}

	band, _ := doc.lookup("band")

	return &Status{
		Mode:        mode,
		Signal:      signal,
		RSSI:        rssi,
		CellID:      cellID,
		Band:        truncate(band, MaxBandLen),
		Device:      NewDeviceInfo(huaweiManufacturer, ""),
		TrafficMode: traffic.Absolute,
	}, nil
}

// The lookup helpers below are supplementary: failures are logged and dropped.

func (c *HuaweiClient) lookupPLMN(host string, token *SessionToken) (string, bool) {
	doc, err := c.getXML(host, huaweiPLMNPath, token)
	if err != nil {
		c.log.Debug("PLMN not available", zap.Error(err))
		return "", false
	}
	numeric, ok := field(doc, "Numeric")
	if !ok || numeric == "" {
		return "", false
	}
	return truncate(numeric, MaxPLMNLen), true
}

// lookupTraffic reads the current rate, reported in bytes/s.
func (c *HuaweiClient) lookupTraffic(host string, token *SessionToken) (traffic.Statistics, bool) {
	doc, err := c.getXML(host, huaweiTrafficPath, token)
	if err != nil {
		c.log.Debug("traffic statistics not available", zap.Error(err))
		return traffic.Statistics{}, false
	}

	var stats traffic.Statistics
	if dl, ok := fieldAsUnit[int64](doc, "CurrentDownloadRate"); ok {
		stats.Download = dl * 8
	}
	if ul, ok := fieldAsUnit[int64](doc, "CurrentUploadRate"); ok {
		stats.Upload = ul * 8
	}
	return stats, true
}

var huaweiBatteryStates = map[string]string{
	"0":  "No Charge",
	"1":  "Charging",
	"-1": "Low",
	"2":  "No Battery",
}

func (c *HuaweiClient) lookupBattery(host string, token *SessionToken) (BatteryStatus, bool) {
	doc, err := c.getXML(host, huaweiBatteryPath, token)
	if err != nil {
		c.log.Debug("battery status not available", zap.Error(err))
		return BatteryStatus{}, false
	}

	percent, ok := fieldAsUnit[int64](doc, "BatteryPercent")
	if !ok {
		return BatteryStatus{}, false
	}
	code, ok := field(doc, "BatteryStatus")
	if !ok {
		return BatteryStatus{}, false
	}

	state, known := huaweiBatteryStates[code]
	if !known {
		state = "Unknown status"
	}
	return BatteryStatus{
		Percent: percent,
		Status:  truncate(state, MaxBatteryStatusLen),
	}, true
}

// lookupDevice takes the first non-empty model from the candidate endpoints.
func (c *HuaweiClient) lookupDevice(host string, token *SessionToken) (DeviceInfo, bool) {
	for _, path := range huaweiDevicePaths {
		model, err := c.deviceModel(host, path, token)
		if err != nil {
			c.log.Debug("device information not available",
				zap.String("path", path),
				zap.Stringer("kind", KindOf(err)),
				zap.Error(err),
			)
			continue
		}
		if model != "" {
			return NewDeviceInfo(huaweiManufacturer, model), true
		}
	}
	return DeviceInfo{}, false
}

func (c *HuaweiClient) deviceModel(host, path string, token *SessionToken) (string, error) {
	doc, err := c.getXML(host, path, token)
	if err != nil {
		return "", err
	}
	if model, ok := doc.lookup("devicename"); ok {
		return model, nil
	}
	model, _ := doc.lookup("DeviceName")
	return model, nil
}

// Vendor returns the vendor this client speaks to.
func (c *HuaweiClient) Vendor() Vendor {
	return VendorHuawei
}

// Close releases any resources held by the client.
func (c *HuaweiClient) Close() error {
	return nil
}
