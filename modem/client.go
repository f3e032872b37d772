package modem

import (
	"fmt"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

// Vendor selects the protocol client for a modem.
type Vendor string

const (
	VendorNetgear Vendor = "netgear"
	VendorHuawei  Vendor = "huawei"
	VendorAuto    Vendor = "auto"
)

// DefaultHost returns the factory default address of the vendor's web UI.
func (v Vendor) DefaultHost() string {
	switch v {
	case VendorNetgear:
		return "192.168.1.1"
	case VendorHuawei:
		return "192.168.8.1"
	default:
		return ""
	}
}

// ParseVendor maps a configuration value to a Vendor.
func ParseVendor(s string) (Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "netgear", "aircard":
		return VendorNetgear, nil
	case "huawei":
		return VendorHuawei, nil
	case "auto", "":
		return VendorAuto, nil
	default:
		return "", errorf(KindUnknown, "select vendor", "unsupported modem vendor: %q", s)
	}
}

// ConnectTimeout bounds the TCP connect of every request.
const ConnectTimeout = 3000 * time.Millisecond

// DefaultTimeout bounds a whole request when none is configured.
const DefaultTimeout = 10 * time.Second

// ClientConfig contains configuration for connecting to a modem.
type ClientConfig struct {
	// Host is the address of the modem web UI, e.g. 192.168.8.1
	Host string

	// Vendor selects the protocol client
	Vendor Vendor

	// ConnectTimeout for establishing connections
	ConnectTimeout time.Duration

	// Timeout for a whole HTTP request
	Timeout time.Duration

	// InsecureSkipVerify skips TLS certificate verification
	InsecureSkipVerify bool
}

// DefaultConfig returns a ClientConfig with default values.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Vendor:             VendorAuto,
		ConnectTimeout:     ConnectTimeout,
		Timeout:            DefaultTimeout,
		InsecureSkipVerify: true,
	}
}

// Client is implemented by every vendor protocol client.
type Client interface {
	// Fetch retrieves one status snapshot from the modem at host.
	Fetch(host string) (*Status, error)

	// Vendor returns the vendor this client speaks to.
	Vendor() Vendor

	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates the client for cfg.Vendor.
// VendorAuto probes cfg.Host and keeps the first vendor that answers.
func NewClient(cfg ClientConfig, log *zap.Logger) (Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := NewHTTPClient(cfg)

	switch cfg.Vendor {
	case VendorNetgear:
		return NewNetgearClient(httpClient, log)
	case VendorHuawei:
		return NewHuaweiClient(httpClient, log)
	case VendorAuto, "":
		return autoDetectClient(cfg, httpClient, log)
	default:
		return nil, errorf(KindUnknown, "select vendor", "unsupported modem vendor: %q", cfg.Vendor)
	}
}

// autoDetectClient tries each vendor against the configured host.
func autoDetectClient(cfg ClientConfig, httpClient *req.Client, log *zap.Logger) (Client, error) {
	candidates := []func() (Client, error){
		func() (Client, error) { return NewNetgearClient(httpClient, log) },
		func() (Client, error) { return NewHuaweiClient(httpClient, log) },
	}

	for _, newCandidate := range candidates {
		client, err := newCandidate()
		if err != nil {
			continue
		}

		host := cfg.Host
		if host == "" {
			host = client.Vendor().DefaultHost()
		}

		if _, err := client.Fetch(host); err == nil {
			log.Info("detected modem vendor", zap.String("vendor", string(client.Vendor())), zap.String("host", host))
			return client, nil
		}
		client.Close()
	}

	return nil, errorf(KindUnknown, "detect vendor", "could not auto-detect modem vendor at %q", cfg.Host)
}

// ResolveHost returns host, or the vendor default when host is empty.
func ResolveHost(c Client, host string) string {
	if host != "" {
		return host
	}
	return c.Vendor().DefaultHost()
}

func requireHTTPClient(c *req.Client) error {
	if c == nil {
		return fmt.Errorf("httpClient is required")
	}
	return nil
}
