package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// MaintenanceRepository runs the date-bound status sweeps driven by the
// scheduler.
type MaintenanceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewMaintenanceRepository creates a new maintenance repository
func NewMaintenanceRepository(db *sqlx.DB, logger *zap.Logger) *MaintenanceRepository {
	return &MaintenanceRepository{
		db:     db,
		logger: logger,
	}
}

// MarkOverdueInvoices flips sent invoices past their due date to overdue and
// returns the number of rows updated
func (r *MaintenanceRepository) MarkOverdueInvoices(ctx context.Context) (int64, error) {
	query := `
		UPDATE invoices
		SET status = 'overdue'
		WHERE status = 'sent'
		  AND due_date < CURRENT_DATE
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to mark overdue invoices", zap.Error(err))
		return 0, err
	}

	return result.RowsAffected()
}

// MarkOverdueTaxEvents flips upcoming tax events past their due date to
// overdue and returns the number of rows updated
func (r *MaintenanceRepository) MarkOverdueTaxEvents(ctx context.Context) (int64, error) {
	query := `
		UPDATE tax_events
		SET status = 'overdue'
		WHERE status = 'upcoming'
		  AND due_date < CURRENT_DATE
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to mark overdue tax events", zap.Error(err))
		return 0, err
	}

	return result.RowsAffected()
}
