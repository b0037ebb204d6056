package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskboard/core/docs"
	httpHandlers "github.com/taskboard/core/internal/adapters/http"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	app    *App
	db     *database.DB
	redis  *redis.Client
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance. rdb may be nil when the cache is disabled.
func New(cfg *config.Config, app *App, db *database.DB, rdb *redis.Client, appLogger *logger.Logger) *Server {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger.WithComponent("http"),
		app:    app,
		db:     db,
		redis:  rdb,
	}

	server.setupMiddleware()
	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			req := logger.HTTPRequest{
				ID:        values.RequestID,
				Method:    values.Method,
				URI:       values.URI,
				Status:    values.Status,
				Latency:   values.Latency,
				RemoteIP:  values.RemoteIP,
				UserAgent: values.UserAgent,
				Err:       values.Error,
			}
			if account := accountFrom(c); account != nil {
				req.AccountID = account.ID.String()
			}
			s.logger.LogHTTPRequest(req)
			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods:     []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	if s.config.Security.RateLimitRequests > 0 {
		s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Every(s.config.Security.RateLimitWindow / time.Duration(s.config.Security.RateLimitRequests)),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			}),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return c.JSON(http.StatusForbidden, ports.Failure(ports.CodeAccessDenied, "Rate limit exceeded"))
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, ports.Failure(ports.CodeError, "Rate limit exceeded"))
			},
		}))
	}

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
	}))

	if s.config.Server.RequestTimeout > 0 {
		s.echo.Use(middleware.ContextTimeout(s.config.Server.RequestTimeout))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/ready", s.readinessCheck)
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := httpHandlers.NewAuthHandler(s.app.Auth, s.config.Auth, s.logger)
	accountHandler := httpHandlers.NewAccountHandler(s.app.Account, s.logger)
	boardHandler := httpHandlers.NewBoardHandler(s.app.Boards, s.logger)
	memberHandler := httpHandlers.NewMemberHandler(s.app.Members, s.logger)
	listHandler := httpHandlers.NewListHandler(s.app.Lists, s.logger)
	cardHandler := httpHandlers.NewCardHandler(s.app.Cards, s.logger)

	v1 := s.echo.Group("/api/v1")

	// Auth routes (public)
	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.GET("/verify", authHandler.VerifyEmail)
	authGroup.POST("/verify/resend", authHandler.ResendVerification)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)

	authenticated := s.authMiddleware()

	accountGroup := v1.Group("/account", authenticated)
	accountGroup.GET("", accountHandler.Profile)
	accountGroup.PATCH("", accountHandler.UpdateProfile)
	accountGroup.PUT("/password", accountHandler.ChangePassword)

	boardGroup := v1.Group("/boards", authenticated)
	boardGroup.GET("", boardHandler.ListBoards)
	boardGroup.POST("", boardHandler.CreateBoard)
	boardGroup.GET("/:boardId", boardHandler.BoardContent)
	boardGroup.PATCH("/:boardId", boardHandler.UpdateBoard)
	boardGroup.POST("/:boardId/close", boardHandler.CloseBoard)
	boardGroup.POST("/:boardId/archive", boardHandler.ArchiveBoard)
	boardGroup.PUT("/:boardId/star", memberHandler.StarBoard)
	boardGroup.GET("/:boardId/members", memberHandler.ListMembers)
	boardGroup.POST("/:boardId/members", memberHandler.InviteMember)
	boardGroup.PATCH("/:boardId/members/:userId", memberHandler.UpdateMember)
	boardGroup.DELETE("/:boardId/members/:userId", memberHandler.RemoveMember)
	boardGroup.POST("/:boardId/lists", listHandler.CreateList)

	listGroup := v1.Group("/lists", authenticated)
	listGroup.GET("/:listId", listHandler.ListContent)
	listGroup.PATCH("/:listId", listHandler.EditList)
	listGroup.POST("/:listId/move", listHandler.MoveList)
	listGroup.POST("/:listId/archive", listHandler.ArchiveList)
	listGroup.POST("/:listId/cards", cardHandler.CreateCard)

	cardGroup := v1.Group("/cards", authenticated)
	cardGroup.GET("/:cardId", cardHandler.CardDetail)
	cardGroup.PATCH("/:cardId", cardHandler.EditCard)
	cardGroup.POST("/:cardId/move", cardHandler.MoveCard)
	cardGroup.POST("/:cardId/complete", cardHandler.CompleteCard)
	cardGroup.POST("/:cardId/incomplete", cardHandler.IncompleteCard)
	cardGroup.POST("/:cardId/archive", cardHandler.ArchiveCard)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskboard",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "taskboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(
		requestsTotal,
		requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if s.db != nil {
		registry.MustRegister(collectors.NewDBStatsCollector(s.db.DB.DB, "taskboard"))
	}

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			var he *echo.HTTPError
			if errors.As(err, &he) {
				status = he.Code
			}

			requestsTotal.WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())
			return err
		}
	})

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.config.App.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// readinessCheck reports whether the database and, when configured, Redis answer.
func (s *Server) readinessCheck(c echo.Context) error {
	ctx := c.Request().Context()
	checks := map[string]string{}
	ready := true

	if s.db != nil {
		if err := s.db.HealthCheck(ctx); err != nil {
			checks["database"] = err.Error()
			ready = false
		} else {
			checks["database"] = "ok"
		}
	}

	if s.redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(pingCtx).Err(); err != nil {
			checks["redis"] = err.Error()
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if !ready {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "not_ready", "checks": checks})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ready", "checks": checks})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Infow("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// customErrorHandler renders every error as a result envelope
func customErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			he = httpHandlers.Fail(err)
		}

		result, ok := he.Message.(*ports.Result)
		if !ok {
			result = ports.Failure(codeForStatus(he.Code), messageOf(he))
		}

		switch {
		case he.Code >= http.StatusInternalServerError:
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			log.Errorw("Internal server error", "error", cause, "path", c.Request().URL.Path)
		case he.Code == http.StatusForbidden:
			userID := ""
			if account := accountFrom(c); account != nil {
				userID = account.ID.String()
			}
			log.LogSecurityEvent("access_denied", userID, c.RealIP(), map[string]interface{}{
				"path":   c.Request().URL.Path,
				"reason": result.Message,
			})
		}

		if c.Response().Committed {
			return
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, result)
		}
		if err != nil {
			log.Errorw("Error sending response", "error", err)
		}
	}
}

func codeForStatus(status int) ports.ResultCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return ports.CodeBadArgument
	case http.StatusUnauthorized:
		return ports.CodeNeedLogin
	case http.StatusForbidden:
		return ports.CodeAccessDenied
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ports.CodeNotFound
	}
	return ports.CodeError
}

func messageOf(he *echo.HTTPError) string {
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return http.StatusText(he.Code)
}
