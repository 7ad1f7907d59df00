package threecommas_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/internal/infrastructure/threecommas"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/httpx"
)

const (
	apiKey    = "test-key"
	apiSecret = "test-secret"
)

func dealJSON(id int, status string, finished bool, volume string, closedAt string) string {
	closed := "null"
	if closedAt != "" {
		closed = strconv.Quote(closedAt)
	}

	return fmt.Sprintf(`{
		"id": %d,
		"bot_id": 7,
		"bot_name": "DCA BTC",
		"pair": "USDT_BTC",
		"status": %q,
		"finished?": %t,
		"completed_safety_orders_count": 2,
		"bought_volume": %q,
		"bought_average_price": "64000.5",
		"base_order_average_price": "65000",
		"final_profit": "1.25",
		"final_profit_percentage": "0.8",
		"created_at": "2024-03-01T10:00:00.000Z",
		"closed_at": %s
	}`, id, status, finished, volume, closed)
}

func newClient(url string, limit int) *threecommas.Client {
	return threecommas.NewClient(threecommas.Options{
		BaseURL:   url,
		APIKey:    apiKey,
		APISecret: apiSecret,
		PageLimit: limit,
		Timeout:   5 * time.Second,
	})
}

func requireCode(rq *require.Assertions, err error, code string) {
	rq.Error(err)

	got, ok := domain.GetCode(err)
	rq.True(ok, "not a domain error: %v", err)
	rq.EqualValues(code, got)
}

func TestFetchDealsPaginatesAndSigns(t *testing.T) {
	rq := require.New(t)

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if r.Header.Get("Apikey") != apiKey ||
			r.Header.Get("Signature") != httpx.Sign([]byte(apiSecret), r.URL.RequestURI()) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		rq.Equal("/public/api/ver1/deals", r.URL.Path)
		rq.Equal("active", r.URL.Query().Get("scope"))
		rq.Equal("2", r.URL.Query().Get("limit"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

		var items []string
		for id := offset + 1; id <= min(offset+2, 5); id++ {
			items = append(items, dealJSON(id, "bought", false, "10", ""))
		}

		w.Write([]byte("[" + strings.Join(items, ",") + "]")) //nolint:errcheck
	}))
	defer server.Close()

	deals, err := newClient(server.URL, 2).FetchDeals(context.Background(), entity.ActiveScope())
	rq.NoError(err)
	rq.Len(deals, 5)
	rq.Equal(int32(3), requests.Load())

	for i, d := range deals {
		rq.Equal(strconv.Itoa(i+1), d.ID)
	}

	d := deals[0]
	rq.Equal("7", d.BotID)
	rq.Equal("DCA BTC", d.BotName)
	rq.Equal(entity.DealStatusEntered, d.Status)
	rq.Equal("bought", d.RawStatus)
	rq.Equal(2, d.StepCount)
	rq.Equal("64000.5", d.EntryPrice.String())
	rq.Equal("10", d.BoughtVolume.String())
	rq.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), d.CreatedAt.UTC())
	rq.True(d.ClosedAt.IsZero())
}

func TestFetchDealsFinishedStopsAtSince(t *testing.T) {
	rq := require.New(t)

	since := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	var requests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		rq.Equal("finished", r.URL.Query().Get("scope"))
		rq.Equal("closed_at", r.URL.Query().Get("order"))
		rq.Equal("desc", r.URL.Query().Get("order_direction"))

		w.Write([]byte("[" + strings.Join([]string{ //nolint:errcheck
			dealJSON(3, "completed", true, "10", "2024-03-04T00:00:00Z"),
			dealJSON(2, "completed", true, "10", "2024-03-03T00:00:00Z"),
			dealJSON(1, "completed", true, "10", "2024-03-01T00:00:00Z"),
		}, ",") + "]"))
	}))
	defer server.Close()

	deals, err := newClient(server.URL, 3).FetchDeals(context.Background(), entity.FinishedScope(since))
	rq.NoError(err)
	rq.Len(deals, 2)
	rq.Equal("3", deals[0].ID)
	rq.Equal("2", deals[1].ID)
	rq.Equal(int32(1), requests.Load())

	rq.Equal(entity.DealStatusCompleted, deals[0].Status)
	rq.Equal("1.25", deals[0].ProfitAbs.String())
	rq.Equal("0.8", deals[0].ProfitPercent.String())
	rq.Equal(3*24*time.Hour-10*time.Hour, deals[0].Duration())
}

func TestFetchDealsStatusMapping(t *testing.T) {
	testCases := []struct {
		name     string
		status   string
		finished bool
		volume   string
		expected entity.DealStatus
	}{
		{name: "base order placed", status: "base_order_placed", volume: "0", expected: entity.DealStatusSearching},
		{name: "created without volume", status: "created", volume: "", expected: entity.DealStatusSearching},
		{name: "bought", status: "bought", volume: "12.5", expected: entity.DealStatusEntered},
		{name: "safety order placed", status: "bought_safety_pending", volume: "30", expected: entity.DealStatusEntered},
		{name: "completed", status: "completed", finished: true, volume: "30", expected: entity.DealStatusCompleted},
		{name: "stop loss", status: "stop_loss_finished", volume: "30", expected: entity.DealStatusCompleted},
		{name: "cancelled", status: "cancelled", volume: "0", expected: entity.DealStatusCompleted},
		{name: "finished flag only", status: "unknown_status", finished: true, volume: "0", expected: entity.DealStatusCompleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte("[" + dealJSON(1, tc.status, tc.finished, tc.volume, "") + "]")) //nolint:errcheck
			}))
			defer server.Close()

			deals, err := newClient(server.URL, 10).FetchDeals(context.Background(), entity.ActiveScope())
			rq.NoError(err)
			rq.Len(deals, 1)
			rq.Equal(tc.expected, deals[0].Status)
		})
	}
}

func TestFetchDealsErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"signature_invalid"}`, code: string(errcodes.AuthError)},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, code: string(errcodes.AuthError)},
		{name: "server error", status: http.StatusBadGateway, body: `oops`, code: string(errcodes.TransportError)},
		{name: "rate limited", status: http.StatusTooManyRequests, body: ``, code: string(errcodes.TransportError)},
		{name: "not json", status: http.StatusOK, body: `<html>`, code: string(errcodes.DataShapeError)},
		{name: "object instead of list", status: http.StatusOK, body: `{"id":1}`, code: string(errcodes.DataShapeError)},
		{name: "missing id", status: http.StatusOK, body: `[{"pair":"USDT_BTC","status":"bought","created_at":"2024-03-01T10:00:00Z"}]`, code: string(errcodes.DataShapeError)},
		{name: "bad decimal", status: http.StatusOK, body: `[{"id":1,"pair":"USDT_BTC","status":"bought","bought_volume":"ten","created_at":"2024-03-01T10:00:00Z"}]`, code: string(errcodes.DataShapeError)},
		{name: "bad timestamp", status: http.StatusOK, body: `[{"id":1,"pair":"USDT_BTC","status":"bought","created_at":"yesterday"}]`, code: string(errcodes.DataShapeError)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body)) //nolint:errcheck
			}))
			defer server.Close()

			_, err := newClient(server.URL, 10).FetchDeals(context.Background(), entity.ActiveScope())
			requireCode(rq, err, tc.code)
		})
	}
}

func TestFetchDealsAuthErrorMessage(t *testing.T) {
	rq := require.New(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"signature_invalid","error_description":"Provided signature is invalid"}`)) //nolint:errcheck
	}))
	defer server.Close()

	_, err := newClient(server.URL, 10).FetchDeals(context.Background(), entity.ActiveScope())
	rq.ErrorContains(err, "3commas responded 401: signature_invalid (Provided signature is invalid)")
	rq.True(domain.IsRetryable(err))
}

func TestFetchDealsNetworkError(t *testing.T) {
	rq := require.New(t)

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newClient(url, 10).FetchDeals(context.Background(), entity.ActiveScope())
	requireCode(rq, err, string(errcodes.TransportError))
	rq.True(domain.IsRetryable(err))
}

func TestAccountBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/public/api/ver1/accounts":
			w.Write([]byte(`[{"id":1,"usd_amount":"1000.5"},{"id":2,"usd_amount":"250"}]`)) //nolint:errcheck
		case "/public/api/ver1/accounts/2":
			w.Write([]byte(`{"id":2,"usd_amount":"250"}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	t.Run("all accounts", func(t *testing.T) {
		rq := require.New(t)

		balance, err := newClient(server.URL, 10).AccountBalance(context.Background())
		rq.NoError(err)
		rq.Equal("1250.5", balance.String())
	})

	t.Run("configured account", func(t *testing.T) {
		rq := require.New(t)

		client := threecommas.NewClient(threecommas.Options{
			BaseURL:   server.URL,
			APIKey:    apiKey,
			APISecret: apiSecret,
			AccountID: "2",
		})

		balance, err := client.AccountBalance(context.Background())
		rq.NoError(err)
		rq.Equal("250", balance.String())
	})

	t.Run("unknown account", func(t *testing.T) {
		rq := require.New(t)

		client := threecommas.NewClient(threecommas.Options{
			BaseURL:   server.URL,
			AccountID: "9",
		})

		_, err := client.AccountBalance(context.Background())
		requireCode(rq, err, string(errcodes.TransportError))
	})
}
