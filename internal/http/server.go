package http

import (
	"context"
	"net/http"
	"time"

	"order-relay/internal/config"
	"order-relay/internal/hub"
	"order-relay/internal/http/middleware"
	"order-relay/internal/metrics"
	"order-relay/internal/repository"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, pg *sqlx.DB, h *hub.Hub, rds *redis.Client) *Server {
	ordersRepo := repository.NewOrdersRepository(pg)

	// echo
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger(), echoMid.CORS())

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// per-client-IP limiter on the mutating routes; allow-all when Redis
	// is not configured
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		DefaultRPS:     cfg.RateLimit.RPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	e.GET("/orders", listOrdersHandler(ordersRepo))
	e.POST("/orders", createOrderHandler(ordersRepo), rlMW)
	e.PUT("/orders/:id", updateOrderHandler(ordersRepo), rlMW)
	e.DELETE("/orders/:id", deleteOrderHandler(ordersRepo), rlMW)

	// broadcast channel
	e.GET("/ws", serveWSHandler(h, cfg.Hub.SessionBuffer))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
