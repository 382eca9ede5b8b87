package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/money"
)

// SettingsRequest updates finance settings. Omitted rates keep their
// current value; incomes are replaced as sent.
type SettingsRequest struct {
	DownPaymentRate    any `json:"down_payment_rate"`
	InterestRateAnnual any `json:"interest_rate_annual"`
	MonthlyIncome1     any `json:"monthly_income_1"`
	MonthlyIncome2     any `json:"monthly_income_2"`
}

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.settingsFor(c, ownerID(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get finance settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get finance settings"})
		return
	}

	c.JSON(http.StatusOK, s)
}

// UpdateSettings saves the settings and returns every residence recomputed
// against them.
func (h *Handler) UpdateSettings(c *gin.Context) {
	owner := ownerID(c)

	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	s, err := h.settingsFor(c, owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get finance settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update finance settings"})
		return
	}

	if rate := money.ParsePtr(req.DownPaymentRate); rate != nil {
		if *rate < 0 || *rate > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "down_payment_rate must be between 0 and 1"})
			return
		}
		s.DownPaymentRate = *rate
	}
	if rate := money.ParsePtr(req.InterestRateAnnual); rate != nil {
		if *rate < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interest_rate_annual must not be negative"})
			return
		}
		s.InterestRateAnnual = *rate
	}
	s.MonthlyIncome1 = money.ParsePtr(req.MonthlyIncome1)
	s.MonthlyIncome2 = money.ParsePtr(req.MonthlyIncome2)
	s.OwnerID = owner

	if err := h.db.SaveSettings(c.Request.Context(), &s); err != nil {
		h.logger.WithError(err).Error("Failed to save finance settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update finance settings"})
		return
	}

	views, err := h.views(c, owner, s)
	if err != nil {
		h.logger.WithError(err).Error("Failed to recompute residences")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recompute residences"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"settings":   s,
		"residences": views,
	})
}
