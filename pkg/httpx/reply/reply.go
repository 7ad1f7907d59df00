package reply

import (
	"context"
	"errors"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	jsoniter "github.com/json-iterator/go"

	"dealwatch/pkg/contextx"
	"dealwatch/pkg/errcodes"
	"dealwatch/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SupportID string `json:"supportId"`
}

// coder is implemented by application errors that carry their own code.
type coder interface {
	ErrorCode() failure.ErrorCode
}

func OK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

func JSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger(ctx).Error("json.Encode", logx.Error(err))
	}
}

func Error(ctx context.Context, w http.ResponseWriter, err error) {
	logger(ctx).Error("error", logx.Error(err))

	code := Code(err)

	response := errorResponse{
		Code:      code.String(),
		Message:   err.Error(),
		SupportID: supportID(ctx),
	}

	switch code {
	case errcodes.TransportError, errcodes.AuthError, errcodes.DataShapeError:
		// The upstream platform failed us, not the caller.
		JSON(ctx, w, http.StatusBadGateway, response)
	case errcodes.TimeoutExceeded:
		JSON(ctx, w, http.StatusGatewayTimeout, response)
	case errcodes.NotFound:
		JSON(ctx, w, http.StatusNotFound, response)
	case errcodes.ValidationError:
		JSON(ctx, w, http.StatusBadRequest, response)
	default:
		JSON(ctx, w, http.StatusInternalServerError, response)
	}
}

// Code resolves the error code of err, defaulting to InternalServerError.
func Code(err error) failure.ErrorCode {
	if errors.Is(err, context.DeadlineExceeded) {
		return errcodes.TimeoutExceeded
	}

	var c coder
	if errors.As(err, &c) && c.ErrorCode() != "" {
		return c.ErrorCode()
	}

	return errcodes.InternalServerError
}

func supportID(ctx context.Context) string {
	traceID, err := contextx.TraceIDFromContext(ctx)
	if err != nil {
		return "unsupported"
	}

	return traceID.String()
}
