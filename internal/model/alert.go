package model

import (
	"time"
)

// Candidate rows returned by the alert rule queries. Each row is a subject
// record whose condition is true and which has no matching open notification.

// RenewalCandidate is a customer health record with an upcoming renewal
type RenewalCandidate struct {
	ID            string    `db:"id"`
	CustomerName  string    `db:"customer_name"`
	RenewalDate   time.Time `db:"renewal_date"`
	ContractValue float64   `db:"contract_value"`
}

// HealthDropCandidate is a customer health record scoring below 50
type HealthDropCandidate struct {
	ID           string `db:"id"`
	CustomerName string `db:"customer_name"`
	OverallScore int    `db:"overall_score"`
	RiskLevel    string `db:"risk_level"`
}

// SLABreachCandidate is an unresolved support ticket past its SLA deadline
type SLABreachCandidate struct {
	ID               string    `db:"id"`
	Subject          string    `db:"subject"`
	Priority         string    `db:"priority"`
	CustomerName     string    `db:"customer_name"`
	SLAResolutionDue time.Time `db:"sla_resolution_due"`
}

// TaxDeadlineCandidate is an uncompleted tax event with a near due date
type TaxDeadlineCandidate struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	EventType string    `db:"event_type"`
	DueDate   time.Time `db:"due_date"`
	Amount    *float64  `db:"amount"`
}

// BudgetCandidate is a budget spent past the warning threshold
type BudgetCandidate struct {
	ID        string  `db:"id"`
	Category  string  `db:"category"`
	Period    string  `db:"period"`
	Allocated float64 `db:"allocated"`
	Spent     float64 `db:"spent"`
}

// InvoiceCandidate is an unpaid invoice past its due date
type InvoiceCandidate struct {
	ID            string    `db:"id"`
	InvoiceNumber string    `db:"invoice_number"`
	CustomerName  string    `db:"customer_name"`
	DueDate       time.Time `db:"due_date"`
	Total         float64   `db:"total"`
}

// GoalPaceCandidate is an open objective checked against its expected pace
type GoalPaceCandidate struct {
	ID           string     `db:"id"`
	Title        string     `db:"title"`
	Progress     int        `db:"progress"`
	Quarter      *string    `db:"quarter"`
	DueDate      *time.Time `db:"due_date"`
	BusinessArea *string    `db:"business_area"`
}
