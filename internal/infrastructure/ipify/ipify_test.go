package ipify_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"dealwatch/internal/domain"
	"dealwatch/internal/infrastructure/ipify"
	"dealwatch/pkg/errcodes"
)

func TestExternalIP(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		body     string
		expected string
		code     string
	}{
		{name: "ipv4", status: http.StatusOK, body: "203.0.113.7\n", expected: "203.0.113.7"},
		{name: "ipv6", status: http.StatusOK, body: "2001:db8::1", expected: "2001:db8::1"},
		{name: "garbage", status: http.StatusOK, body: "<html>", code: string(errcodes.DataShapeError)},
		{name: "unavailable", status: http.StatusServiceUnavailable, code: string(errcodes.TransportError)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer server.Close()

			ip, err := ipify.NewClient(server.URL, nil).ExternalIP(context.Background())

			if tc.code != "" {
				code, ok := domain.GetCode(err)
				rq.True(ok)
				rq.EqualValues(tc.code, code)

				return
			}

			rq.NoError(err)
			rq.Equal(tc.expected, ip.String())
		})
	}
}
