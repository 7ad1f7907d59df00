package reply_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/httpx/reply"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type codedError struct {
	code failure.ErrorCode
}

func (e codedError) Error() string                { return string(e.code) }
func (e codedError) ErrorCode() failure.ErrorCode { return e.code }

func TestError(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		name       string
		err        error
		statusCode int
		code       string
	}{
		{
			name:       "Transport error",
			err:        fmt.Errorf("aggregator.Compute: %w", codedError{code: errcodes.TransportError}),
			statusCode: http.StatusBadGateway,
			code:       "TransportError",
		},
		{
			name:       "Auth error",
			err:        codedError{code: errcodes.AuthError},
			statusCode: http.StatusBadGateway,
			code:       "AuthError",
		},
		{
			name:       "Deadline",
			err:        fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			statusCode: http.StatusGatewayTimeout,
			code:       "TimeoutExceeded",
		},
		{
			name:       "Plain error",
			err:        errors.New("boom"),
			statusCode: http.StatusInternalServerError,
			code:       "InternalServerError",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			ctx := contextx.WithTraceID(context.Background(), "trace-1")
			w := httptest.NewRecorder()

			reply.Error(ctx, w, tc.err)

			rq.Equal(tc.statusCode, w.Code)
			rq.Equal("application/json; charset=utf-8", w.Header().Get("Content-Type"))

			var body map[string]string

			rq.NoError(json.Unmarshal(w.Body.Bytes(), &body))
			rq.Equal(tc.code, body["code"])
			rq.Equal("trace-1", body["supportId"])
		})
	}
}
