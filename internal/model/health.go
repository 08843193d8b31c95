package model

import (
	"time"
)

// Customer risk tiers derived from the overall health score
const (
	RiskLevelCritical = "critical"
	RiskLevelAtRisk   = "at_risk"
	RiskLevelWatch    = "watch"
	RiskLevelHealthy  = "healthy"
)

// CustomerHealth represents a customer account's composite health record
type CustomerHealth struct {
	ID                   string     `json:"id" db:"id"`
	CustomerID           string     `json:"customer_id" db:"customer_id"`
	CustomerName         string     `json:"customer_name,omitempty" db:"customer_name"`
	OverallScore         int        `json:"overall_score" db:"overall_score"`
	UsageScore           int        `json:"usage_score" db:"usage_score"`
	EngagementScore      int        `json:"engagement_score" db:"engagement_score"`
	SupportScore         int        `json:"support_score" db:"support_score"`
	AdoptionScore        int        `json:"adoption_score" db:"adoption_score"`
	RiskLevel            string     `json:"risk_level" db:"risk_level"`
	RenewalDate          *time.Time `json:"renewal_date,omitempty" db:"renewal_date"`
	ContractValue        *float64   `json:"contract_value,omitempty" db:"contract_value"`
	ExpansionOpportunity bool       `json:"expansion_opportunity" db:"expansion_opportunity"`
	ExpansionNotes       *string    `json:"expansion_notes,omitempty" db:"expansion_notes"`
	LastCalculatedAt     time.Time  `json:"last_calculated_at" db:"last_calculated_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
}

// HealthScore is the weighted composite score plus its risk classification
type HealthScore struct {
	Score     int    `json:"score"`
	RiskLevel string `json:"risk_level"`
}

// CustomerHealthCreate represents data for creating a health record
type CustomerHealthCreate struct {
	CustomerID           string     `json:"customer_id" binding:"required"`
	UsageScore           int        `json:"usage_score"`
	EngagementScore      int        `json:"engagement_score"`
	SupportScore         int        `json:"support_score"`
	AdoptionScore        int        `json:"adoption_score"`
	RenewalDate          *time.Time `json:"renewal_date,omitempty"`
	ContractValue        *float64   `json:"contract_value,omitempty"`
	ExpansionOpportunity bool       `json:"expansion_opportunity"`
	ExpansionNotes       *string    `json:"expansion_notes,omitempty"`
}

// CustomerHealthUpdate is a partial patch; nil fields are left untouched
type CustomerHealthUpdate struct {
	CustomerID           *string    `json:"customer_id,omitempty"`
	UsageScore           *int       `json:"usage_score,omitempty"`
	EngagementScore      *int       `json:"engagement_score,omitempty"`
	SupportScore         *int       `json:"support_score,omitempty"`
	AdoptionScore        *int       `json:"adoption_score,omitempty"`
	RenewalDate          *time.Time `json:"renewal_date,omitempty"`
	ContractValue        *float64   `json:"contract_value,omitempty"`
	ExpansionOpportunity *bool      `json:"expansion_opportunity,omitempty"`
	ExpansionNotes       *string    `json:"expansion_notes,omitempty"`
}

// Empty reports whether the patch carries no recognized fields
func (u CustomerHealthUpdate) Empty() bool {
	return u.CustomerID == nil &&
		u.UsageScore == nil &&
		u.EngagementScore == nil &&
		u.SupportScore == nil &&
		u.AdoptionScore == nil &&
		u.RenewalDate == nil &&
		u.ContractValue == nil &&
		u.ExpansionOpportunity == nil &&
		u.ExpansionNotes == nil
}

// HasScoreChange reports whether any weighted sub-score is being patched
func (u CustomerHealthUpdate) HasScoreChange() bool {
	return u.UsageScore != nil || u.EngagementScore != nil || u.SupportScore != nil || u.AdoptionScore != nil
}
