package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/locvowork/employee_proxy/internal/config"
	"github.com/locvowork/employee_proxy/internal/handler"
	"github.com/locvowork/employee_proxy/internal/logger"
	"github.com/locvowork/employee_proxy/internal/metrics"
	"github.com/locvowork/employee_proxy/internal/repository"
	"github.com/locvowork/employee_proxy/internal/service"
)

type App struct {
	Echo    *echo.Echo
	Config  *config.EnvConfig
	Metrics *metrics.Metrics
}

func NewApp(cfg *config.EnvConfig) *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &App{
		Echo:    e,
		Config:  cfg,
		Metrics: metrics.NewMetrics(),
	}
}

// Initialize builds the dependency graph explicitly: upstream client,
// employee service, handler. Logging must already be set up.
func (a *App) Initialize(ctx context.Context) error {
	if a.Config == nil {
		return errors.New("missing config")
	}
	if err := a.Config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	httpClient := &http.Client{Timeout: a.Config.UPSTREAM_TIMEOUT}
	empRepo := repository.NewEmployeeAPIRepository(
		a.Config.UPSTREAM_BASE_URL,
		httpClient,
		repository.WithRateLimit(a.Config.UPSTREAM_RATE_LIMIT, a.Config.UPSTREAM_RATE_BURST),
		repository.WithObserver(a.Metrics),
	)
	empSvc := service.NewEmployeeService(empRepo)
	empHandler := handler.NewEmployeeHandler(empSvc)

	a.RegisterMiddlewares()
	a.RegisterRoutes(empHandler)

	logger.InfoLog(ctx, "Employee gateway initialized, upstream=%s", a.Config.UPSTREAM_BASE_URL)
	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.Echo.Use(requestLogger())
	a.Echo.Use(a.Metrics.Middleware())
	a.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: a.Config.CORS_ALLOW_ORIGINS,
	}))
}

func (a *App) RegisterRoutes(empHandler *handler.EmployeeHandler) {
	a.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	a.Echo.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	employees := a.Echo.Group("/employees")
	employees.GET("", empHandler.ListHandler)
	employees.POST("", empHandler.CreateHandler)
	employees.GET("/search/:searchString", empHandler.SearchHandler)
	employees.GET("/highestSalary", empHandler.HighestSalaryHandler)
	employees.GET("/topTenSalaries", empHandler.TopTenHandler)
	employees.GET("/export", empHandler.ExportHandler)
	employees.GET("/:id", empHandler.GetHandler)
	employees.DELETE("/:id", empHandler.DeleteHandler)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	addr := ":" + strconv.Itoa(a.Config.APP_PORT)
	errCh := make(chan error, 1)
	go func() {
		logger.InfoLog(ctx, "Listening on %s", addr)
		if err := a.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.InfoLog(ctx, "Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.SHUTDOWN_TIMEOUT)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// requestLogger attaches a request-scoped zerolog logger to the request
// context and logs one line per completed request.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			ctx := logger.WithLogger(req.Context(), map[string]interface{}{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"method":     req.Method,
				"path":       req.URL.Path,
			})
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			l := logger.FromContext(ctx)
			l.Info().
				Int("status", c.Response().Status).
				Int64("bytes_out", c.Response().Size).
				Dur("latency", time.Since(start)).
				Msg("request completed")
			return nil
		}
	}
}
