package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"airline-reservation/internal/models"
	"airline-reservation/internal/reservation"
	"airline-reservation/internal/service"
	"airline-reservation/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles what the handler serves
type Services struct {
	Booking   *service.BookingService
	Refunds   *service.RefundService
	Fares     *service.FareService
	Analytics *service.AnalyticsService
	Auth      *service.AuthService
}

// Handler contains HTTP handlers
type Handler struct {
	booking   *service.BookingService
	refunds   *service.RefundService
	fares     *service.FareService
	analytics *service.AnalyticsService
	auth      *service.AuthService
	checks    map[string]Pinger
	logger    *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Services) *Handler {
	return &Handler{
		booking:   s.Booking,
		refunds:   s.Refunds,
		fares:     s.Fares,
		analytics: s.Analytics,
		auth:      s.Auth,
		checks:    make(map[string]Pinger),
		logger:    util.GetLogger(),
	}
}

// AddReadinessCheck makes /ready fail while p cannot be reached
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.checks[name] = p
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) error {
	if err := registerValidators(); err != nil {
		return err
	}

	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", h.login)
		v1.GET("/auth/session", h.session)
		v1.GET("/auth/roles", h.roles)

		v1.POST("/customers", h.createCustomer)
		v1.GET("/customers", h.listCustomers)
		v1.GET("/customers/:id", h.getCustomer)
		v1.PUT("/customers/:id", h.updateCustomer)
		v1.DELETE("/customers/:id", h.deleteCustomer)
		v1.GET("/customers/:id/reservations", h.customerReservations)

		v1.POST("/flights", h.createFlight)
		v1.GET("/flights", h.listFlights)
		v1.GET("/flights/search", h.searchFlights)
		v1.GET("/flights/:code", h.getFlight)
		v1.PUT("/flights/:code", h.updateFlight)
		v1.DELETE("/flights/:code", h.deleteFlight)
		v1.GET("/flights/:code/availability", h.availability)
		v1.PUT("/flights/:code/fares", h.setFares)
		v1.GET("/flights/:code/quote", h.quote)

		v1.GET("/fares", h.fareSummary)
		v1.POST("/fares/adjust", h.adjustFares)

		v1.POST("/reservations", h.createReservation)
		v1.GET("/reservations", h.listReservations)
		v1.GET("/reservations/:id", h.getReservation)
		v1.POST("/reservations/:id/cancel", h.cancelReservation)
		v1.POST("/reservations/:id/refund", h.refundReservation)

		v1.GET("/refunds", h.listRefunds)
		v1.POST("/refunds/auto", h.autoRefund)
		v1.GET("/refunds/:id", h.getRefund)
		v1.POST("/refunds/:id/settle", h.settleRefund)

		v1.GET("/stats", h.statistics)
	}
	return nil
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Login failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) session(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
		return
	}

	username, role, err := h.auth.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid token",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username, "role": role})
}

func (h *Handler) roles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"roles": service.Roles()})
}

func (h *Handler) statistics(c *gin.Context) {
	var period models.Period
	for _, bound := range []struct {
		param string
		dst   *models.Date
	}{{"from", &period.From}, {"to", &period.To}} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid " + bound.param + " date",
				"details": err.Error(),
			})
			return
		}
		*bound.dst = d
	}

	if c.Query("async") != "true" {
		stats, err := h.analytics.Statistics(c.Request.Context(), period)
		if err != nil {
			h.writeError(c, "Failed to compute statistics", err)
			return
		}
		c.JSON(http.StatusOK, stats)
		return
	}

	select {
	case res := <-h.analytics.StatisticsAsync(c.Request.Context(), period):
		if res.Err != nil {
			h.writeError(c, "Failed to compute statistics", res.Err)
			return
		}
		c.JSON(http.StatusOK, res.Stats)
	case <-c.Request.Context().Done():
		c.Status(http.StatusRequestTimeout)
	}
}

// statusFor maps an error kind to an HTTP status
func statusFor(err error) int {
	switch reservation.KindOf(err) {
	case reservation.KindNotFound:
		return http.StatusNotFound
	case reservation.KindConflict:
		return http.StatusConflict
	case reservation.KindValidation:
		return http.StatusBadRequest
	case reservation.KindBusy:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		h.logger.Error(msg, zap.String("path", c.FullPath()), zap.Error(err))
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", "1")
	}
	c.JSON(status, gin.H{
		"error":   msg,
		"kind":    reservation.KindOf(err),
		"details": err.Error(),
	})
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

func parseID(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + what + " ID",
		})
		return 0, false
	}
	return id, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		util.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		util.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
