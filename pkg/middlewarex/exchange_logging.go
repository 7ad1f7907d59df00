package middlewarex

import (
	"bytes"
	"cmp"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/zenazn/goji/web/mutil"

	"dealwatch/pkg/logx"
)

// ExchangeLogging writes one record per request holding the masked request
// dump, the response status, headers and body, and the duration. Dumps are
// cut to maxLen bytes.
func ExchangeLogging(masker logx.SensitiveDataMaskerInterface, maxLen int) func(next http.Handler) http.Handler {
	truncate := func(b []byte) string {
		b = masker.Mask(b)
		if len(b) > maxLen {
			b = b[:maxLen]
		}

		return string(b)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			reqDump, err := httputil.DumpRequest(r, true)
			if err != nil {
				logger(ctx).Warn("httputil.DumpRequest", logx.Error(err))
			}

			lw := mutil.WrapWriter(w)

			var body bytes.Buffer

			lw.Tee(&body)

			next.ServeHTTP(lw, r)

			var headers bytes.Buffer

			_ = lw.Header().WriteSubset(&headers, nil)

			// Status is 0 when the handler never called WriteHeader.
			status := cmp.Or(lw.Status(), http.StatusOK)

			logger(ctx).Info(
				logx.FieldHTTPResponse,
				slog.String(logx.FieldRequestBody, truncate(reqDump)),
				slog.Int(logx.FieldResponseStatus, status),
				slog.String(logx.FieldResponseHeaders, truncate(headers.Bytes())),
				slog.String(logx.FieldResponseBody, truncate(body.Bytes())),
				slog.Int64(logx.FieldDurationMs, time.Since(start).Milliseconds()),
			)
		})
	}
}
