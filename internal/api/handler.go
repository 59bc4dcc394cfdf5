package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/askwhyharsh/deskfinder/internal/directory"
	"github.com/askwhyharsh/deskfinder/internal/filter"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/ratelimit"
	"github.com/askwhyharsh/deskfinder/internal/render"
	"github.com/askwhyharsh/deskfinder/internal/session"
	apperrors "github.com/askwhyharsh/deskfinder/pkg/errors"
	"github.com/askwhyharsh/deskfinder/pkg/logger"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DetailLinker maps a listing id to the backend's detail page.
type DetailLinker interface {
	DetailURL(id int64) string
}

type Handler struct {
	sessionService session.SessionService
	sessionManager *session.Manager
	controller     *directory.Controller
	rateLimiter    ratelimit.RateLimiter
	details        DetailLinker
	page           render.PageData
	store          Pinger
	logger         logger.Logger
}

type directionsRequest struct {
	Latitude        *float64 `form:"latitude" binding:"required"`
	Longitude       *float64 `form:"longitude" binding:"required"`
	OriginLatitude  *float64 `form:"origin_latitude"`
	OriginLongitude *float64 `form:"origin_longitude"`
}

func NewHandler(
	sessionService session.SessionService,
	sessionManager *session.Manager,
	controller *directory.Controller,
	rateLimiter ratelimit.RateLimiter,
	details DetailLinker,
	page render.PageData,
	store Pinger,
	log logger.Logger,
) *Handler {
	return &Handler{
		sessionService: sessionService,
		sessionManager: sessionManager,
		controller:     controller,
		rateLimiter:    rateLimiter,
		details:        details,
		page:           page,
		store:          store,
		logger:         log,
	}
}

// GET /
func (h *Handler) Index(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := render.Page(c.Writer, h.page); err != nil {
		h.logger.Error("Failed to render index page", "error", err)
	}
}

// POST /api/session/create
func (h *Handler) CreateSession(c *gin.Context) {
	ip := c.ClientIP()

	allowed, err := h.rateLimiter.AllowSessionCreation(c.Request.Context(), ip)
	if err != nil || !allowed {
		c.JSON(http.StatusTooManyRequests, ErrorResponse("Rate limit exceeded", "RATE_LIMIT"))
		return
	}

	sess, err := h.sessionService.Create(c.Request.Context(), ip)
	if err != nil {
		h.logger.Error("Failed to create session", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse("Failed to create session", "INTERNAL_ERROR"))
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse(sess))
}

// DELETE /api/session
func (h *Handler) EndSession(c *gin.Context) {
	sessionID := c.GetString(ratelimit.SessionIDKey)

	if err := h.sessionManager.End(c.Request.Context(), sessionID); err != nil {
		h.logger.Error("Failed to end session", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse("Failed to end session", "INTERNAL_ERROR"))
		return
	}

	if err := h.rateLimiter.ResetLimits(c.Request.Context(), sessionID); err != nil {
		h.logger.Warn("Failed to release rate limit counters", "session_id", sessionID, "error", err)
	}

	c.Status(http.StatusNoContent)
}

// POST /api/session/location
func (h *Handler) ReportLocation(c *gin.Context) {
	var report location.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("Invalid request", "INVALID_REQUEST"))
		return
	}

	result, err := h.controller.Start(c.Request.Context(), c.GetString(ratelimit.SessionIDKey), report)
	h.respond(c, result, err)
}

// GET /api/listings
func (h *Handler) GetListings(c *gin.Context) {
	result, err := h.controller.Current(c.Request.Context(), c.GetString(ratelimit.SessionIDKey))
	h.respond(c, result, err)
}

// GET /api/listings/search
func (h *Handler) SearchListings(c *gin.Context) {
	sessionID := c.GetString(ratelimit.SessionIDKey)
	if !h.allow(c, h.rateLimiter.AllowSearch, sessionID) {
		return
	}

	result, err := h.controller.Search(c.Request.Context(), sessionID, c.Query("query"))
	h.respond(c, result, err)
}

// GET /api/listings/filter
func (h *Handler) FilterListings(c *gin.Context) {
	var criteria filter.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("Invalid request", "INVALID_REQUEST"))
		return
	}

	result, err := h.controller.Filter(c.Request.Context(), c.GetString(ratelimit.SessionIDKey), criteria)
	h.respond(c, result, err)
}

// GET /api/directions
func (h *Handler) GetDirections(c *gin.Context) {
	var req directionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse("Invalid request", "INVALID_REQUEST"))
		return
	}

	sessionID := c.GetString(ratelimit.SessionIDKey)
	if !h.allow(c, h.rateLimiter.AllowDirections, sessionID) {
		return
	}

	destination := location.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}

	var origin *location.Point
	if req.OriginLatitude != nil && req.OriginLongitude != nil {
		origin = &location.Point{Latitude: *req.OriginLatitude, Longitude: *req.OriginLongitude}
	}

	route, err := h.controller.Directions(c.Request.Context(), sessionID, destination, origin)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(route))
}

// GET /coworking_space/:id
func (h *Handler) ShowListing(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse("Invalid listing id", "INVALID_REQUEST"))
		return
	}

	c.Redirect(http.StatusFound, h.details.DetailURL(id))
}

// GET /api/health
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"time":   c.GetTime(requestTimeKey),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   c.GetTime(requestTimeKey),
	})
}

// ValidSession rejects requests whose session is missing or expired and
// refreshes the session's TTL otherwise. It expects SessionRequired to
// have run.
func (h *Handler) ValidSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.sessionManager.ValidateSession(c.Request.Context(), c.GetString(ratelimit.SessionIDKey)); err != nil {
			abortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (h *Handler) allow(c *gin.Context, check func(context.Context, string) (bool, error), sessionID string) bool {
	allowed, err := check(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error("Failed to check rate limit", "session_id", sessionID, "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse("Failed to check rate limit", "INTERNAL_ERROR"))
		return false
	}
	if !allowed {
		abortWithError(c, apperrors.ErrRateLimitExceeded)
		return false
	}
	return true
}

// respond writes a controller result as JSON, or as the results fragment
// when the caller asks for format=html.
func (h *Handler) respond(c *gin.Context, result *directory.Result, err error) {
	if err != nil {
		abortWithError(c, err)
		return
	}

	if c.Query("format") == "html" {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.Status(http.StatusOK)
		if err := render.HTML(c.Writer, result.View); err != nil {
			h.logger.Error("Failed to render results", "error", err)
		}
		return
	}

	c.JSON(http.StatusOK, SuccessResponse(result))
}
