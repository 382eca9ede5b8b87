package api

import (
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/database"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/finance"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/money"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/scheduler"
)

// ResidenceRequest accepts numeric fields in any shape money.Parse
// understands ("4 250 000 kr", 4250000, {"amount": ...}).
type ResidenceRequest struct {
	Kind                string        `json:"kind"`
	Title               string        `json:"title"`
	Address             string        `json:"address"`
	URL                 string        `json:"url"`
	AskingPrice         any           `json:"asking_price"`
	MonthlyFee          any           `json:"monthly_fee"`
	OperatingCostAnnual any           `json:"operating_cost_annual"`
	LivingArea          any           `json:"living_area"`
	SupplementalArea    any           `json:"supplemental_area"`
	PlotArea            any           `json:"plot_area"`
	ConstructionYear    any           `json:"construction_year"`
	EnergyClass         string        `json:"energy_class"`
	Rooms               any           `json:"rooms"`
	Valuation           any           `json:"valuation"`
	Loans               []LoanRequest `json:"loans"`
}

type LoanRequest struct {
	Principal          any `json:"principal"`
	InterestRateAnnual any `json:"interest_rate_annual"`
}

// apply copies the request onto r. Unparseable numbers become unknown.
func (req *ResidenceRequest) apply(r *models.Residence) error {
	kind := models.ResidenceKind(strings.ToLower(strings.TrimSpace(req.Kind)))
	if kind == "" {
		kind = models.KindCandidate
	}
	if !kind.IsValid() {
		return errors.New("kind must be candidate or current")
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Address) == "" {
		return errors.New("title or address is required")
	}

	r.Kind = kind
	r.Title = strings.TrimSpace(req.Title)
	r.Address = strings.TrimSpace(req.Address)
	r.URL = strings.TrimSpace(req.URL)
	r.AskingPrice = money.ParsePtr(req.AskingPrice)
	r.MonthlyFee = money.ParsePtr(req.MonthlyFee)
	r.OperatingCostAnnual = money.ParsePtr(req.OperatingCostAnnual)
	r.LivingArea = money.ParsePtr(req.LivingArea)
	r.SupplementalArea = money.ParsePtr(req.SupplementalArea)
	r.PlotArea = money.ParsePtr(req.PlotArea)
	r.EnergyClass = strings.ToUpper(strings.TrimSpace(req.EnergyClass))
	r.Rooms = money.ParsePtr(req.Rooms)
	r.Valuation = money.ParsePtr(req.Valuation)

	r.ConstructionYear = nil
	if year := money.ParsePtr(req.ConstructionYear); year != nil {
		y := int(math.Round(*year))
		r.ConstructionYear = &y
	}

	r.Loans = nil
	for _, l := range req.Loans {
		principal, ok := money.Parse(l.Principal)
		if !ok || principal <= 0 {
			continue
		}
		rate, _ := money.Parse(l.InterestRateAnnual)
		r.Loans = append(r.Loans, models.Loan{Principal: principal, InterestRateAnnual: rate})
	}
	return nil
}

func (h *Handler) ListResidences(c *gin.Context) {
	owner := ownerID(c)
	s, err := h.settingsFor(c, owner)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get finance settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get residences"})
		return
	}

	views, err := h.views(c, owner, s)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get residences")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get residences"})
		return
	}

	c.JSON(http.StatusOK, views)
}

func (h *Handler) GetResidence(c *gin.Context) {
	owner := ownerID(c)
	r, err := h.db.GetResidence(c.Request.Context(), owner, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Residence not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get residence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get residence"})
		return
	}

	h.respondResidence(c, http.StatusOK, r)
}

func (h *Handler) CreateResidence(c *gin.Context) {
	var req ResidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	r := &models.Residence{OwnerID: ownerID(c)}
	if err := req.apply(r); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.CreateResidence(c.Request.Context(), r); err != nil {
		h.logger.WithError(err).Error("Failed to create residence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create residence"})
		return
	}

	h.scheduler.ResidenceSaved(c.Request.Context(), r)
	h.respondResidence(c, http.StatusCreated, r)
}

func (h *Handler) UpdateResidence(c *gin.Context) {
	owner := ownerID(c)
	ctx := c.Request.Context()

	var req ResidenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	existing, err := h.db.GetResidence(ctx, owner, c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Residence not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get residence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update residence"})
		return
	}

	before := *existing
	updated := *existing
	if err := req.apply(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.UpdateResidence(ctx, &updated); err != nil {
		h.logger.WithError(err).Error("Failed to update residence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update residence"})
		return
	}

	if scheduler.ResidenceOriginChanged(&before, &updated) {
		h.scheduler.ResidenceSaved(ctx, &updated)
	}
	h.respondResidence(c, http.StatusOK, &updated)
}

func (h *Handler) DeleteResidence(c *gin.Context) {
	err := h.db.DeleteResidence(c.Request.Context(), ownerID(c), c.Param("id"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Residence not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to delete residence")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete residence"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) respondResidence(c *gin.Context, status int, r *models.Residence) {
	ctx := c.Request.Context()
	s, err := h.settingsFor(c, r.OwnerID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get finance settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get finance settings"})
		return
	}
	commutes, err := h.db.ListCommutes(ctx, r.OwnerID, r.ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get commutes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get commutes"})
		return
	}

	views := finance.DeriveAll([]models.Residence{*r}, s, h.options, map[string][]models.CommuteResult{r.ID: commutes})
	c.JSON(status, views[0])
}
