package api

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/LeonCort/jamfor-bostader-sub000/internal/cache"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/database"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/finance"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/models"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/routing"
	"github.com/LeonCort/jamfor-bostader-sub000/internal/scheduler"
)

const ownerHeader = "X-Owner-ID"

type Handler struct {
	db        *database.Database
	logger    *logrus.Logger
	scheduler *scheduler.CommuteScheduler
	provider  routing.Provider
	cache     *cache.CommuteCache
	defaults  models.FinanceSettings
	options   finance.Options
}

// Deps bundles what the handlers are built from.
type Deps struct {
	DB        *database.Database
	Scheduler *scheduler.CommuteScheduler
	Provider  routing.Provider
	Cache     *cache.CommuteCache

	// Finance settings used until an owner saves their own.
	Defaults models.FinanceSettings
	Options  finance.Options
}

func NewHandler(deps Deps, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		db:        deps.DB,
		logger:    logger,
		scheduler: deps.Scheduler,
		provider:  deps.Provider,
		cache:     deps.Cache,
		defaults:  deps.Defaults,
		options:   deps.Options,
	}
}

// RequireOwner rejects requests without an owner id. Identity itself is
// resolved upstream; the header is trusted.
func (h *Handler) RequireOwner(c *gin.Context) {
	owner := c.GetHeader(ownerHeader)
	if owner == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing " + ownerHeader + " header"})
		return
	}
	c.Set("owner_id", owner)
	c.Next()
}

func ownerID(c *gin.Context) string {
	return c.GetString("owner_id")
}

// settingsFor returns the owner's saved finance settings or the defaults.
func (h *Handler) settingsFor(c *gin.Context, owner string) (models.FinanceSettings, error) {
	s, err := h.db.GetSettings(c.Request.Context(), owner)
	if err != nil {
		return models.FinanceSettings{}, err
	}
	if s == nil {
		d := h.defaults
		d.OwnerID = owner
		return d, nil
	}
	return *s, nil
}

// views derives every residence of owner against its current settings.
func (h *Handler) views(c *gin.Context, owner string, s models.FinanceSettings) ([]models.ResidenceView, error) {
	ctx := c.Request.Context()
	residences, err := h.db.ListResidences(ctx, owner)
	if err != nil {
		return nil, err
	}
	commutes, err := h.db.CommutesByResidence(ctx, owner)
	if err != nil {
		return nil, err
	}
	return finance.DeriveAll(residences, s, h.options, commutes), nil
}
