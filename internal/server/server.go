package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dealwatch/pkg/logx"
	"dealwatch/pkg/middlewarex"
)

// Server groups the HTTP servers of each resource.
type Server struct {
	StatusServer
}

func NewServer(statusServer StatusServer) Server {
	return Server{
		StatusServer: statusServer,
	}
}

// Handler returns the router with the logging and recovery middlewares
// applied. A zero logFieldMaxLen turns request and response dumps off.
func (s Server) Handler(masker logx.SensitiveDataMaskerInterface, logFieldMaxLen int) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middlewarex.TraceID,
		middlewarex.Logger,
		middlewarex.Recovery,
	)

	if logFieldMaxLen > 0 {
		r.Use(middlewarex.ExchangeLogging(masker, logFieldMaxLen))
	}

	s.RegisterRoutes(r)

	return r
}
