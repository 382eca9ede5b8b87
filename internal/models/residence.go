package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResidenceKind separates listings being considered from the home the owner
// lives in today.
type ResidenceKind string

const (
	KindCandidate ResidenceKind = "candidate"
	KindCurrent   ResidenceKind = "current"
)

// IsValid checks if a residence kind is recognized.
func (k ResidenceKind) IsValid() bool {
	return k == KindCandidate || k == KindCurrent
}

// Residence is a tracked home. Numeric inputs are pointers: nil means the
// value is unknown, which the finance engine treats differently from zero.
type Residence struct {
	ID      string        `gorm:"primaryKey;type:text" json:"id"`
	OwnerID string        `gorm:"type:text;not null;index" json:"owner_id"`
	Kind    ResidenceKind `gorm:"type:text;not null" json:"kind"`
	Title   string        `json:"title"`
	Address string        `json:"address"`
	URL     string        `json:"url,omitempty"`

	AskingPrice         *float64 `json:"asking_price"`
	MonthlyFee          *float64 `json:"monthly_fee"`
	OperatingCostAnnual *float64 `json:"operating_cost_annual"`
	LivingArea          *float64 `json:"living_area"`
	SupplementalArea    *float64 `json:"supplemental_area"`
	PlotArea            *float64 `json:"plot_area"`
	ConstructionYear    *int     `json:"construction_year"`
	EnergyClass         string   `json:"energy_class"`
	Rooms               *float64 `json:"rooms"`

	// Current residence only.
	Valuation *float64 `json:"valuation"`
	Loans     []Loan   `gorm:"foreignKey:ResidenceID" json:"loans,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID to new residences.
func (r *Residence) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Origin is the text handed to the routing provider as the trip start.
func (r *Residence) Origin() string {
	if a := strings.TrimSpace(r.Address); a != "" {
		return a
	}
	return strings.TrimSpace(r.Title)
}

// Loan is one mortgage on the current residence, with its own rate.
type Loan struct {
	ID                 uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	ResidenceID        string  `gorm:"type:text;not null;index" json:"residence_id"`
	Principal          float64 `json:"principal"`
	InterestRateAnnual float64 `json:"interest_rate_annual"`
}

// DerivedMetrics is the monthly cost breakdown computed on every read.
// Nil fields are unknown, not zero.
type DerivedMetrics struct {
	DownPayment            *float64 `json:"down_payment"`
	Equity                 *float64 `json:"equity"`
	LoanAmount             *float64 `json:"loan_amount"`
	LoanToValue            *float64 `json:"loan_to_value"`
	AmortizationRate       *float64 `json:"amortization_rate"`
	MonthlyAmortization    *float64 `json:"monthly_amortization"`
	MonthlyInterest        *float64 `json:"monthly_interest"`
	OperatingCostAnnual    *float64 `json:"operating_cost_annual"`
	MonthlyOperatingCost   *float64 `json:"monthly_operating_cost"`
	TotalMonthlyCost       *float64 `json:"total_monthly_cost"`
	OperatingCostEstimated bool     `json:"operating_cost_estimated"`
	OperatingCostUnknown   bool     `json:"operating_cost_unknown"`
}

// ResidenceView is what API consumers see: the stored record, its derived
// costs and whatever commute times are known.
type ResidenceView struct {
	Residence
	Derived  DerivedMetrics  `json:"derived"`
	Commutes []CommuteResult `json:"commutes"`
}
