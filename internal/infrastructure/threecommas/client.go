package threecommas

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"dealwatch/internal/domain"
	"dealwatch/internal/domain/entity"
	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/httpx"
	"dealwatch/pkg/logx"
	"dealwatch/pkg/lox"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	DefaultBaseURL   = "https://api.3commas.io"
	DefaultPageLimit = 100

	dealsPath    = "/public/api/ver1/deals"
	accountsPath = "/public/api/ver1/accounts"

	errorBodyMaxLen = 512
)

type Options struct {
	BaseURL   string
	APIKey    string
	APISecret string
	PageLimit int
	BotID     string
	AccountID string
	Timeout   time.Duration
	LogLevel  slog.Level
}

// Client reads deals and balances from the 3Commas REST API. Every request is
// signed with the account's API key.
type Client struct {
	baseURL    string
	pageLimit  int
	botID      string
	accountID  string
	httpClient *http.Client
	validate   *validator.Validate
}

func NewClient(opts Options) *Client {
	transport := httpx.NewSigningRoundTripper(
		httpx.NewLoggingRoundTripper(
			http.DefaultTransport,
			httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
			httpx.WithLogFieldMaxLen(4096), //nolint:mnd
			httpx.WithLogLevel(opts.LogLevel),
		),
		opts.APIKey,
		opts.APISecret,
	)

	return &Client{
		baseURL:   strings.TrimRight(lo.Ternary(opts.BaseURL == "", DefaultBaseURL, opts.BaseURL), "/"),
		pageLimit: lo.Ternary(opts.PageLimit <= 0, DefaultPageLimit, opts.PageLimit),
		botID:     opts.BotID,
		accountID: opts.AccountID,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// FetchDeals drains every page of the scope. For the finished scope pages are
// ordered by closing time and paging stops at the first deal closed before
// scope.Since.
func (c *Client) FetchDeals(ctx context.Context, scope entity.Scope) ([]entity.Deal, error) {
	var deals []entity.Deal

	for offset := 0; ; offset += c.pageLimit {
		page, err := c.fetchDealsPage(ctx, scope, offset)
		if err != nil {
			return nil, fmt.Errorf("fetch %s deals (offset %d): %w", scope.Name, offset, err)
		}

		reachedSince := false

		for _, d := range page {
			if scope.Name == entity.ScopeFinished && !scope.Since.IsZero() && d.ClosedAt.Before(scope.Since) {
				reachedSince = true
				break
			}

			deals = append(deals, d)
		}

		if reachedSince || len(page) < c.pageLimit {
			break
		}
	}

	logger(ctx).Debug("deals fetched",
		slog.String(logx.FieldScope, scope.Name),
		slog.Int("count", len(deals)),
	)

	return deals, nil
}

func (c *Client) fetchDealsPage(ctx context.Context, scope entity.Scope, offset int) ([]entity.Deal, error) {
	query := url.Values{}
	query.Set("scope", scope.Name)
	query.Set("limit", strconv.Itoa(c.pageLimit))
	query.Set("offset", strconv.Itoa(offset))

	if scope.Name == entity.ScopeFinished {
		query.Set("order", "closed_at")
		query.Set("order_direction", "desc")
	}

	if c.botID != "" {
		query.Set("bot_id", c.botID)
	}

	if c.accountID != "" {
		query.Set("account_id", c.accountID)
	}

	var page []dealDTO
	if err := c.get(ctx, dealsPath, query, &page); err != nil {
		return nil, err
	}

	deals, err := lox.MapErr(page, func(d dealDTO) (entity.Deal, error) {
		if err := c.validate.Struct(d); err != nil {
			return entity.Deal{}, fmt.Errorf("deal %d: %w", d.ID, err)
		}

		return d.toDomain()
	})
	if err != nil {
		return nil, domain.WrapError(err, errcodes.DataShapeError, "unexpected deal payload")
	}

	return deals, nil
}

// AccountBalance returns the USD value of the configured account, or of all
// accounts when none is configured.
func (c *Client) AccountBalance(ctx context.Context) (decimal.Decimal, error) {
	var accounts []accountDTO

	if c.accountID != "" {
		var account accountDTO
		if err := c.get(ctx, accountsPath+"/"+url.PathEscape(c.accountID), nil, &account); err != nil {
			return decimal.Zero, fmt.Errorf("fetch account: %w", err)
		}

		accounts = append(accounts, account)
	} else if err := c.get(ctx, accountsPath, nil, &accounts); err != nil {
		return decimal.Zero, fmt.Errorf("fetch accounts: %w", err)
	}

	amounts, err := lox.MapErr(accounts, func(a accountDTO) (decimal.Decimal, error) {
		if err := c.validate.Struct(a); err != nil {
			return decimal.Zero, err
		}

		return parseDecimal(a.USDAmount)
	})
	if err != nil {
		return decimal.Zero, domain.WrapError(err, errcodes.DataShapeError, "unexpected account payload")
	}

	return lo.Reduce(amounts, func(sum decimal.Decimal, amount decimal.Decimal, _ int) decimal.Decimal {
		return sum.Add(amount)
	}, decimal.Zero), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "build request")
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.WrapError(err, errcodes.TransportError, "3commas request timed out")
		}

		return domain.WrapError(err, errcodes.TransportError, "3commas request failed")
	}

	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(resp)
	}

	if err = json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return domain.WrapError(err, errcodes.DataShapeError, "decode 3commas response")
	}

	return nil
}

func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyMaxLen)) //nolint:errcheck

	message := fmt.Sprintf("3commas responded %d", resp.StatusCode)

	var apiErr errorDTO
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		message += ": " + apiErr.Error
		if apiErr.Description != "" {
			message += " (" + apiErr.Description + ")"
		}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.NewError(errcodes.AuthError, message)
	default:
		return domain.NewError(errcodes.TransportError, message)
	}
}
