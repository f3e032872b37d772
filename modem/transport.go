package modem

import (
	"net"
	"net/http"
	"strings"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

// NewHTTPClient creates the req client shared by the vendor clients.
// Non-positive timeouts fall back to ConnectTimeout and DefaultTimeout.
func NewHTTPClient(cfg ClientConfig) *req.Client {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = ConnectTimeout
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialer := &net.Dialer{Timeout: connectTimeout}

	c := req.C().
		SetTimeout(timeout).
		SetDial(dialer.DialContext).
		SetCommonHeader("Accept", "*/*")

	if cfg.InsecureSkipVerify {
		c.EnableInsecureSkipVerify()
	}

	return c
}

// hostURL builds the request URL, defaulting to plain http like the modems' web UIs.
func hostURL(host, path string) string {
	host = strings.TrimSuffix(host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + path
	}
	return "http://" + host + path
}

// get performs one GET and classifies failures into the modem error taxonomy.
func get(c *req.Client, log *zap.Logger, host, path string, headers map[string]string) ([]byte, error) {
	url := hostURL(host, path)

	resp, err := c.R().SetHeaders(headers).Get(url)
	if err != nil {
		log.Debug("HTTP request failed", zap.String("url", url), zap.Error(err))
		return nil, newError(KindHTTPConnection, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		log.Debug("HTTP access denied", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, errorf(KindAccess, path, "unexpected status code: %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Debug("HTTP error", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, errorf(KindHTTPConnection, path, "unexpected status code: %d", resp.StatusCode)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, newError(KindHTTPConnection, path, err)
	}
	return body, nil
}
