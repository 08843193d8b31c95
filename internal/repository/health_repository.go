package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// HealthRepository handles database operations for customer health records
type HealthRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewHealthRepository creates a new health repository
func NewHealthRepository(db *sqlx.DB, logger *zap.Logger) *HealthRepository {
	return &HealthRepository{
		db:     db,
		logger: logger,
	}
}

const healthColumns = `
	ch.id, ch.customer_id, COALESCE(c.name, '') AS customer_name,
	ch.overall_score, ch.usage_score, ch.engagement_score, ch.support_score, ch.adoption_score,
	ch.risk_level, ch.renewal_date, ch.contract_value,
	ch.expansion_opportunity, ch.expansion_notes, ch.last_calculated_at, ch.created_at`

// List retrieves all health records, optionally filtered by risk level
func (r *HealthRepository) List(ctx context.Context, riskLevel string) ([]model.CustomerHealth, error) {
	query := `
		SELECT ` + healthColumns + `
		FROM customer_health ch
		LEFT JOIN customers c ON ch.customer_id = c.id
	`
	params := []interface{}{}

	if riskLevel != "" {
		query += " WHERE ch.risk_level = $1"
		params = append(params, riskLevel)
	}
	query += " ORDER BY ch.overall_score ASC"

	records := []model.CustomerHealth{}
	err := r.db.SelectContext(ctx, &records, query, params...)
	if err != nil {
		r.logger.Error("Failed to list customer health records", zap.Error(err))
		return nil, err
	}

	return records, nil
}

// GetByID retrieves a single health record, or nil when it does not exist
func (r *HealthRepository) GetByID(ctx context.Context, id string) (*model.CustomerHealth, error) {
	query := `
		SELECT ` + healthColumns + `
		FROM customer_health ch
		LEFT JOIN customers c ON ch.customer_id = c.id
		WHERE ch.id = $1
	`

	var record model.CustomerHealth
	err := r.db.GetContext(ctx, &record, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get customer health record", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &record, nil
}

// Create inserts a health record with a precomputed overall score
func (r *HealthRepository) Create(ctx context.Context, create model.CustomerHealthCreate, score model.HealthScore) (*model.CustomerHealth, error) {
	query := `
		INSERT INTO customer_health (customer_id, overall_score, usage_score, engagement_score,
		                             support_score, adoption_score, risk_level, renewal_date,
		                             contract_value, expansion_opportunity, expansion_notes, last_calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		RETURNING id
	`

	var id string
	err := r.db.GetContext(ctx, &id, query,
		create.CustomerID,
		score.Score,
		create.UsageScore,
		create.EngagementScore,
		create.SupportScore,
		create.AdoptionScore,
		score.RiskLevel,
		create.RenewalDate,
		create.ContractValue,
		create.ExpansionOpportunity,
		create.ExpansionNotes,
	)
	if err != nil {
		r.logger.Error("Failed to create customer health record", zap.Error(err),
			zap.String("customer_id", create.CustomerID))
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Update applies the non-nil fields of the patch. When score is non-nil the
// recomputed overall score and risk level are persisted with it. Returns nil
// when the id is unknown.
func (r *HealthRepository) Update(ctx context.Context, id string, patch model.CustomerHealthUpdate, score *model.HealthScore) (*model.CustomerHealth, error) {
	sets := []string{}
	params := []interface{}{}

	addSet := func(column string, value interface{}) {
		params = append(params, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(params)))
	}

	if patch.CustomerID != nil {
		addSet("customer_id", *patch.CustomerID)
	}
	if patch.UsageScore != nil {
		addSet("usage_score", *patch.UsageScore)
	}
	if patch.EngagementScore != nil {
		addSet("engagement_score", *patch.EngagementScore)
	}
	if patch.SupportScore != nil {
		addSet("support_score", *patch.SupportScore)
	}
	if patch.AdoptionScore != nil {
		addSet("adoption_score", *patch.AdoptionScore)
	}
	if patch.RenewalDate != nil {
		addSet("renewal_date", *patch.RenewalDate)
	}
	if patch.ContractValue != nil {
		addSet("contract_value", *patch.ContractValue)
	}
	if patch.ExpansionOpportunity != nil {
		addSet("expansion_opportunity", *patch.ExpansionOpportunity)
	}
	if patch.ExpansionNotes != nil {
		addSet("expansion_notes", *patch.ExpansionNotes)
	}

	if score != nil {
		addSet("overall_score", score.Score)
		addSet("risk_level", score.RiskLevel)
		sets = append(sets, "last_calculated_at = NOW()")
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("empty health patch for id %s", id)
	}

	params = append(params, id)
	query := fmt.Sprintf(
		"UPDATE customer_health SET %s WHERE id = $%d RETURNING id",
		strings.Join(sets, ", "), len(params),
	)

	var updatedID string
	err := r.db.GetContext(ctx, &updatedID, query, params...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to update customer health record", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return r.GetByID(ctx, updatedID)
}

// Delete removes a health record, reporting whether a row existed
func (r *HealthRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `DELETE FROM customer_health WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete customer health record", zap.Error(err), zap.String("id", id))
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// UpcomingRenewals retrieves health records with a renewal date inside the
// next N days, soonest first
func (r *HealthRepository) UpcomingRenewals(ctx context.Context, days int) ([]model.CustomerHealth, error) {
	query := `
		SELECT ` + healthColumns + `
		FROM customer_health ch
		LEFT JOIN customers c ON ch.customer_id = c.id
		WHERE ch.renewal_date IS NOT NULL
		  AND ch.renewal_date >= CURRENT_DATE
		  AND ch.renewal_date <= CURRENT_DATE + make_interval(days => $1)
		ORDER BY ch.renewal_date ASC
	`

	records := []model.CustomerHealth{}
	err := r.db.SelectContext(ctx, &records, query, days)
	if err != nil {
		r.logger.Error("Failed to list upcoming renewals", zap.Error(err), zap.Int("days", days))
		return nil, err
	}

	return records, nil
}
