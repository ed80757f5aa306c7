package http

import (
	"context"
	"errors"
	"net/http"

	commonHTTP "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

// Server exposes the observability surface only: health and Prometheus
// metrics. The booking engine itself has no wire protocol.
type Server struct {
	addr string
	e    *echo.Echo
}

func NewServer(addr string) *Server {
	e := commonHTTP.NewEcho()
	e.Use(otelecho.Middleware("boxoffice"))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return &Server{
		addr: addr,
		e:    e,
	}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		err := s.e.Start(s.addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.e.Shutdown(context.Background())
	}
}
