package modem

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/imroc/req/v3"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

func loadTestData(t *testing.T, filename string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", filename))
	require.NoError(t, err, "failed to load test data: %s", filename)
	return string(data)
}

// newMockedHTTPClient returns a req client whose transport is served by httpmock.
func newMockedHTTPClient(t *testing.T) *req.Client {
	t.Helper()
	c := NewHTTPClient(DefaultConfig())
	httpmock.ActivateNonDefault(c.GetClient())
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func xmlResponder(body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "text/xml")
		return resp, nil
	}
}
