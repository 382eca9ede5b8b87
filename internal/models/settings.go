package models

import "time"

// FinanceSettings holds the owner-wide inputs every residence is derived
// against. Rates are fractions (0.15 = 15 %).
type FinanceSettings struct {
	OwnerID            string    `gorm:"primaryKey;type:text" json:"owner_id"`
	DownPaymentRate    float64   `gorm:"not null" json:"down_payment_rate"`
	InterestRateAnnual float64   `gorm:"not null" json:"interest_rate_annual"`
	MonthlyIncome1     *float64  `json:"monthly_income_1"`
	MonthlyIncome2     *float64  `json:"monthly_income_2"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AnnualIncome is the combined yearly household income; unknown incomes
// count as zero.
func (s FinanceSettings) AnnualIncome() float64 {
	var monthly float64
	for _, inc := range []*float64{s.MonthlyIncome1, s.MonthlyIncome2} {
		if inc != nil && *inc > 0 {
			monthly += *inc
		}
	}
	return monthly * 12
}
