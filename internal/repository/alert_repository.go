package repository

import (
	"context"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// AlertRepository runs the candidate queries for the alert engine. Every query
// excludes subjects that already carry a matching notification inside the
// rule's recency window, so running the engine twice back to back inserts
// nothing on the second pass.
type AlertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

// RenewalsDueWithin retrieves customer health records whose renewal date falls
// inside the next N days and that have no renewal_due notification of the given
// severity from the last week. Severity is part of the dedup key so each
// threshold band fires independently.
func (r *AlertRepository) RenewalsDueWithin(ctx context.Context, days int, severity string) ([]model.RenewalCandidate, error) {
	query := `
		SELECT ch.id, ch.renewal_date, COALESCE(ch.contract_value, 0) AS contract_value,
		       COALESCE(c.name, 'Unknown') AS customer_name
		FROM customer_health ch
		LEFT JOIN customers c ON ch.customer_id = c.id
		WHERE ch.renewal_date IS NOT NULL
		  AND ch.renewal_date >= CURRENT_DATE
		  AND ch.renewal_date <= CURRENT_DATE + make_interval(days => $1)
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = ch.id AND n.entity_type = 'customer_health'
		      AND n.type = 'renewal_due' AND n.severity = $2
		      AND n.created_at >= CURRENT_DATE - INTERVAL '7 days'
		  )
	`

	candidates := []model.RenewalCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query, days, severity)
	if err != nil {
		r.logger.Error("Failed to query upcoming renewals", zap.Error(err), zap.Int("days", days))
		return nil, err
	}

	return candidates, nil
}

// LowHealthScores retrieves customer health records scoring below 50 without a
// health_drop notification from the last week
func (r *AlertRepository) LowHealthScores(ctx context.Context) ([]model.HealthDropCandidate, error) {
	query := `
		SELECT ch.id, ch.overall_score, ch.risk_level,
		       COALESCE(c.name, 'Unknown') AS customer_name
		FROM customer_health ch
		LEFT JOIN customers c ON ch.customer_id = c.id
		WHERE ch.overall_score < 50
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = ch.id AND n.entity_type = 'customer_health'
		      AND n.type = 'health_drop'
		      AND n.created_at >= CURRENT_DATE - INTERVAL '7 days'
		  )
	`

	candidates := []model.HealthDropCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query)
	if err != nil {
		r.logger.Error("Failed to query low health scores", zap.Error(err))
		return nil, err
	}

	return candidates, nil
}

// BreachedTickets retrieves unresolved support tickets past their SLA
// resolution deadline without an sla_breach notification from the last day
func (r *AlertRepository) BreachedTickets(ctx context.Context) ([]model.SLABreachCandidate, error) {
	query := `
		SELECT st.id, st.subject, st.priority, st.sla_resolution_due,
		       COALESCE(c.name, 'Unknown') AS customer_name
		FROM support_tickets st
		LEFT JOIN customers c ON st.customer_id = c.id
		WHERE st.sla_resolution_due < NOW()
		  AND st.status NOT IN ('resolved', 'closed')
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = st.id AND n.entity_type = 'support_ticket'
		      AND n.type = 'sla_breach'
		      AND n.created_at >= CURRENT_DATE - INTERVAL '1 day'
		  )
	`

	candidates := []model.SLABreachCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query)
	if err != nil {
		r.logger.Error("Failed to query SLA breaches", zap.Error(err))
		return nil, err
	}

	return candidates, nil
}

// TaxEventsDueWithin retrieves uncompleted tax events due inside the next N
// days without a tax_deadline notification of the given severity from the last
// week
func (r *AlertRepository) TaxEventsDueWithin(ctx context.Context, days int, severity string) ([]model.TaxDeadlineCandidate, error) {
	query := `
		SELECT te.id, te.title, te.event_type, te.due_date, te.amount
		FROM tax_events te
		WHERE te.status != 'completed'
		  AND te.due_date >= CURRENT_DATE
		  AND te.due_date <= CURRENT_DATE + make_interval(days => $1)
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = te.id AND n.entity_type = 'tax_event'
		      AND n.type = 'tax_deadline' AND n.severity = $2
		      AND n.created_at >= CURRENT_DATE - INTERVAL '7 days'
		  )
	`

	candidates := []model.TaxDeadlineCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query, days, severity)
	if err != nil {
		r.logger.Error("Failed to query tax deadlines", zap.Error(err), zap.Int("days", days))
		return nil, err
	}

	return candidates, nil
}

// OverspentBudgets retrieves budgets spent past 80% of their allocation
// without a budget_warning notification from the last week. The threshold is
// strictly greater than 0.8.
func (r *AlertRepository) OverspentBudgets(ctx context.Context) ([]model.BudgetCandidate, error) {
	query := `
		SELECT b.id, b.category, b.period, b.allocated, b.spent
		FROM budgets b
		WHERE b.allocated > 0
		  AND (b.spent / b.allocated) > 0.8
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = b.id AND n.entity_type = 'budget'
		      AND n.type = 'budget_warning'
		      AND n.created_at >= CURRENT_DATE - INTERVAL '7 days'
		  )
	`

	candidates := []model.BudgetCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query)
	if err != nil {
		r.logger.Error("Failed to query overspent budgets", zap.Error(err))
		return nil, err
	}

	return candidates, nil
}

// OverdueInvoices retrieves unpaid invoices past their due date without an
// invoice_overdue notification from the last three days
func (r *AlertRepository) OverdueInvoices(ctx context.Context) ([]model.InvoiceCandidate, error) {
	query := `
		SELECT i.id, i.invoice_number, i.due_date, i.total,
		       COALESCE(c.name, 'Unknown') AS customer_name
		FROM invoices i
		LEFT JOIN customers c ON i.customer_id = c.id
		WHERE i.due_date < CURRENT_DATE
		  AND i.status NOT IN ('paid', 'cancelled')
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = i.id AND n.entity_type = 'invoice'
		      AND n.type = 'invoice_overdue'
		      AND n.created_at >= CURRENT_DATE - INTERVAL '3 days'
		  )
	`

	candidates := []model.InvoiceCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query)
	if err != nil {
		r.logger.Error("Failed to query overdue invoices", zap.Error(err))
		return nil, err
	}

	return candidates, nil
}

// LaggingObjectives retrieves open objectives eligible for a pace check,
// excluding those with a goal_behind notification from the last week. The pace
// math itself lives in the service; the query only narrows the field.
func (r *AlertRepository) LaggingObjectives(ctx context.Context) ([]model.GoalPaceCandidate, error) {
	query := `
		SELECT g.id, g.title, g.progress, g.quarter, g.due_date, g.business_area
		FROM goals g
		WHERE g.status NOT IN ('completed')
		  AND g.goal_type = 'objective'
		  AND (g.quarter IS NOT NULL OR g.due_date IS NOT NULL)
		  AND NOT EXISTS (
		    SELECT 1 FROM notifications n
		    WHERE n.entity_id = g.id AND n.entity_type = 'goal'
		      AND n.type = 'goal_behind'
		      AND n.created_at >= CURRENT_DATE - INTERVAL '7 days'
		  )
	`

	candidates := []model.GoalPaceCandidate{}
	err := r.db.SelectContext(ctx, &candidates, query)
	if err != nil {
		r.logger.Error("Failed to query lagging objectives", zap.Error(err))
		return nil, err
	}

	return candidates, nil
}
