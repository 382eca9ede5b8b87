package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/database"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/routing"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/scheduler"
)

type PlaceRequest struct {
	Label    string `json:"label"`
	Address  string `json:"address"`
	ArriveBy string `json:"arrive_by"`
	LeaveAt  string `json:"leave_at"`
}

func (req *PlaceRequest) apply(p *models.Place) error {
	if strings.TrimSpace(req.Label) == "" && strings.TrimSpace(req.Address) == "" {
		return errors.New("label or address is required")
	}
	for name, v := range map[string]string{"arrive_by": req.ArriveBy, "leave_at": req.LeaveAt} {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, _, ok := routing.ParseClock(v); !ok {
			return fmt.Errorf("%s must be HH:MM", name)
		}
	}

	p.Label = strings.TrimSpace(req.Label)
	p.Address = strings.TrimSpace(req.Address)
	p.ArriveBy = strings.TrimSpace(req.ArriveBy)
	p.LeaveAt = strings.TrimSpace(req.LeaveAt)
	return nil
}

func (h *Handler) ListPlaces(c *gin.Context) {
	places, err := h.db.ListPlaces(c.Request.Context(), ownerID(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get places")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get places"})
		return
	}

	c.JSON(http.StatusOK, places)
}

func (h *Handler) CreatePlace(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p := &models.Place{OwnerID: ownerID(c)}
	if err := req.apply(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.CreatePlace(c.Request.Context(), p); err != nil {
		h.logger.WithError(err).Error("Failed to create place")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create place"})
		return
	}

	h.scheduler.PlaceSaved(c.Request.Context(), p)
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePlace(c *gin.Context) {
	ctx := c.Request.Context()

	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	existing, err := h.db.GetPlace(ctx, ownerID(c), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get place")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update place"})
		return
	}

	before := *existing
	updated := *existing
	if err := req.apply(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdatePlace(ctx, &updated); err != nil {
		h.logger.WithError(err).Error("Failed to update place")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update place"})
		return
	}

	if scheduler.PlaceDestinationChanged(&before, &updated) {
		h.scheduler.PlaceSaved(ctx, &updated)
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeletePlace(c *gin.Context) {
	err := h.db.DeletePlace(c.Request.Context(), ownerID(c), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Place not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete place")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete place"})
		return
	}

	c.Status(http.StatusNoContent)
}
