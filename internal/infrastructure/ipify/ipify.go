// Package ipify looks up the public address the service egresses from.
// 3Commas API keys can be bound to an IP whitelist, so the address is logged
// at startup.
package ipify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"dealwatch/internal/domain"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/logx"
)

const (
	DefaultURL     = "https://api.ipify.org"
	defaultTimeout = 10 * time.Second
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, httpClient *http.Client) Client {
	if url == "" {
		url = DefaultURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return Client{
		url:        url,
		httpClient: httpClient,
	}
}

func (c Client) ExternalIP(ctx context.Context) (net.IP, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequestWithContext: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.TransportError, "ipify request failed")
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(errcodes.TransportError, fmt.Sprintf("ipify responded %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64)) //nolint:mnd
	if err != nil {
		return nil, domain.WrapError(err, errcodes.TransportError, "read ipify response")
	}

	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil {
		return nil, domain.NewError(errcodes.DataShapeError, fmt.Sprintf("ipify returned %q", body))
	}

	return ip, nil
}

// LogExternalIP logs the public address; a failed lookup is only logged.
func (c Client) LogExternalIP(ctx context.Context) {
	ip, err := c.ExternalIP(ctx)
	if err != nil {
		logger(ctx).Warn("failed to get external ip", logx.Error(err))
		return
	}

	logger(ctx).Info("current external ip", slog.String(logx.FieldIP, ip.String()))
}
