package model

import (
	"time"
)

// Notification types produced by the alert engine.
const (
	NotificationRenewalDue     = "renewal_due"
	NotificationHealthDrop     = "health_drop"
	NotificationSLABreach      = "sla_breach"
	NotificationTaxDeadline    = "tax_deadline"
	NotificationBudgetWarning  = "budget_warning"
	NotificationInvoiceOverdue = "invoice_overdue"
	NotificationGoalBehind     = "goal_behind"
)

// Dashboard sections a notification can point at.
const (
	SectionSales           = "sales"
	SectionCustomerSuccess = "customer_success"
	SectionFinance         = "finance"
	SectionLegal           = "legal"
	SectionMarketing       = "marketing"
	SectionGoals           = "goals"
)

// Notification severities, highest to lowest.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Notification represents an alert or manual notice shown on the dashboard
type Notification struct {
	ID         string     `json:"id" db:"id"`
	Type       string     `json:"type" db:"type"`
	Severity   string     `json:"severity" db:"severity"`
	Title      string     `json:"title" db:"title"`
	Message    string     `json:"message,omitempty" db:"message"`
	Section    string     `json:"section" db:"section"`
	ActionURL  *string    `json:"action_url,omitempty" db:"action_url"`
	EntityID   *string    `json:"entity_id,omitempty" db:"entity_id"`
	EntityType *string    `json:"entity_type,omitempty" db:"entity_type"`
	IsRead     bool       `json:"is_read" db:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// NotificationCreate represents data for creating a notification
type NotificationCreate struct {
	Type       string  `json:"type" binding:"required"`
	Severity   string  `json:"severity"`
	Title      string  `json:"title" binding:"required"`
	Message    string  `json:"message"`
	Section    string  `json:"section" binding:"required"`
	ActionURL  *string `json:"action_url,omitempty"`
	EntityID   *string `json:"entity_id,omitempty"`
	EntityType *string `json:"entity_type,omitempty"`
}

// NotificationFilter holds optional filters for listing notifications
type NotificationFilter struct {
	Section  string
	Severity string
	IsRead   *bool
	Page     int
	Limit    int
}

// NotificationListResponse represents a paginated list of notifications with metadata
type NotificationListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
}

// NotificationCountResponse represents the count of unread notifications
type NotificationCountResponse struct {
	Count int `json:"count"`
}

// NotificationMarkResponse represents the response after marking notifications as read
type NotificationMarkResponse struct {
	Success     bool  `json:"success"`
	MarkedCount int64 `json:"marked_count"`
}
