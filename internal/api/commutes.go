package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/cache"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/routing"
)

// Statuses reported by the routing proxy.
const (
	RouteStatusOK        = "ok"
	RouteStatusCached    = "cached"
	RouteStatusEstimated = "estimated"
	RouteStatusNoResult  = "no_result"
	RouteStatusError     = "error"
)

// RouteResponse is the routing proxy answer. Minutes is null whenever no
// travel time is known.
type RouteResponse struct {
	Minutes *int   `json:"minutes"`
	Status  string `json:"status"`
}

type RouteQuery struct {
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
	Mode        string `form:"mode"`
	ArriveBy    string `form:"arriveBy"`
	DepartAt    string `form:"departAt"`
}

func (h *Handler) ListCommutes(c *gin.Context) {
	results, err := h.db.ListCommutes(c.Request.Context(), ownerID(c), c.Query("residence_id"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get commutes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get commutes"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *Handler) ResyncCommutes(c *gin.Context) {
	owner := ownerID(c)
	n, err := h.scheduler.ResyncOwner(c.Request.Context(), owner)
	if err != nil {
		h.logger.WithError(err).WithField("owner_id", owner).Error("Failed to resync commutes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resync commutes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"enqueued": n})
}

// Route answers a single routing question, serving from the local commute
// cache when it can.
func (h *Handler) Route(c *gin.Context) {
	var q RouteQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	q.Origin = strings.TrimSpace(q.Origin)
	q.Destination = strings.TrimSpace(q.Destination)
	if q.Origin == "" || q.Destination == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin and destination are required"})
		return
	}

	mode := models.TravelMode(strings.ToLower(strings.TrimSpace(q.Mode)))
	if mode == "" {
		mode = models.ModeTransit
	}
	if !mode.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be transit, driving or bicycling"})
		return
	}

	fields := logrus.Fields{
		"origin":      q.Origin,
		"destination": q.Destination,
		"mode":        mode,
	}

	// A missing credential is a configuration error even when the answer is
	// cached.
	if checker, ok := h.provider.(routing.CredentialChecker); ok {
		if err := checker.CheckCredential(); err != nil {
			h.routingNotConfigured(c, err, fields)
			return
		}
	}

	key := cache.Key(q.Origin, q.Destination, mode, q.ArriveBy, q.DepartAt)
	if minutes, ok := h.cache.Get(key); ok {
		c.JSON(http.StatusOK, RouteResponse{Minutes: &minutes, Status: RouteStatusCached})
		return
	}

	res, err := h.provider.Route(c.Request.Context(), routing.Request{
		Origin:      q.Origin,
		Destination: q.Destination,
		Mode:        mode,
		ArriveBy:    q.ArriveBy,
		DepartAt:    q.DepartAt,
	})
	if errors.Is(err, routing.ErrMissingCredential) {
		h.routingNotConfigured(c, err, fields)
		return
	}
	if err != nil {
		h.logger.WithError(err).WithFields(fields).Warn("Routing request failed")
		c.JSON(http.StatusOK, RouteResponse{Status: RouteStatusError})
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, RouteResponse{Status: RouteStatusNoResult})
		return
	}

	minutes := res.Minutes
	if res.Estimated {
		c.JSON(http.StatusOK, RouteResponse{Minutes: &minutes, Status: RouteStatusEstimated})
		return
	}

	h.cache.Set(key, minutes)
	c.JSON(http.StatusOK, RouteResponse{Minutes: &minutes, Status: RouteStatusOK})
}

func (h *Handler) routingNotConfigured(c *gin.Context, err error, fields logrus.Fields) {
	h.logger.WithError(err).WithFields(fields).Error("Routing credential missing")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Routing provider is not configured"})
}
