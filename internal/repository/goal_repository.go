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

// GoalRepository handles database operations for goals and key results
type GoalRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db *sqlx.DB, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves goals matching the filter, objectives before key results
func (r *GoalRepository) List(ctx context.Context, filter model.GoalFilter) ([]model.Goal, error) {
	conditions := []string{}
	params := []interface{}{}

	if filter.Quarter != "" {
		params = append(params, filter.Quarter)
		conditions = append(conditions, fmt.Sprintf("quarter = $%d", len(params)))
	}
	if filter.BusinessArea != "" {
		params = append(params, filter.BusinessArea)
		conditions = append(conditions, fmt.Sprintf("business_area = $%d", len(params)))
	}
	if filter.GoalType != "" {
		params = append(params, filter.GoalType)
		conditions = append(conditions, fmt.Sprintf("goal_type = $%d", len(params)))
	}

	query := "SELECT * FROM goals"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY goal_type ASC, created_at ASC"

	goals := []model.Goal{}
	err := r.db.SelectContext(ctx, &goals, query, params...)
	if err != nil {
		r.logger.Error("Failed to list goals", zap.Error(err))
		return nil, err
	}

	return goals, nil
}

// GetByID retrieves a single goal, or nil when it does not exist
func (r *GoalRepository) GetByID(ctx context.Context, id string) (*model.Goal, error) {
	query := `SELECT * FROM goals WHERE id = $1`

	var goal model.Goal
	err := r.db.GetContext(ctx, &goal, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get goal", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &goal, nil
}

// Children retrieves the key results under an objective, oldest first
func (r *GoalRepository) Children(ctx context.Context, parentID string) ([]model.Goal, error) {
	query := `SELECT * FROM goals WHERE parent_id = $1 ORDER BY created_at ASC`

	children := []model.Goal{}
	err := r.db.SelectContext(ctx, &children, query, parentID)
	if err != nil {
		r.logger.Error("Failed to get goal children", zap.Error(err), zap.String("parent_id", parentID))
		return nil, err
	}

	return children, nil
}

// Create inserts a goal and returns the stored row
func (r *GoalRepository) Create(ctx context.Context, create model.GoalCreate) (*model.Goal, error) {
	query := `
		INSERT INTO goals (parent_id, title, description, goal_type, business_area, quarter,
		                   target_value, current_value, unit, progress, status, owner, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING *
	`

	status := create.Status
	if status == "" {
		status = model.GoalStatusOnTrack
	}

	var goal model.Goal
	err := r.db.GetContext(ctx, &goal, query,
		create.ParentID,
		create.Title,
		create.Description,
		create.GoalType,
		create.BusinessArea,
		create.Quarter,
		create.TargetValue,
		create.CurrentValue,
		create.Unit,
		create.Progress,
		status,
		create.Owner,
		create.DueDate,
	)
	if err != nil {
		r.logger.Error("Failed to create goal", zap.Error(err), zap.String("title", create.Title))
		return nil, err
	}

	return &goal, nil
}

// Update applies the non-nil fields of the patch and returns the updated row,
// or nil when the id is unknown. Callers guard against empty patches; an empty
// patch here is a programming error.
func (r *GoalRepository) Update(ctx context.Context, id string, patch model.GoalUpdate) (*model.Goal, error) {
	sets := []string{}
	params := []interface{}{}

	addSet := func(column string, value interface{}) {
		params = append(params, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(params)))
	}

	if patch.ParentID != nil {
		addSet("parent_id", *patch.ParentID)
	}
	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.Description != nil {
		addSet("description", *patch.Description)
	}
	if patch.GoalType != nil {
		addSet("goal_type", *patch.GoalType)
	}
	if patch.BusinessArea != nil {
		addSet("business_area", *patch.BusinessArea)
	}
	if patch.Quarter != nil {
		addSet("quarter", *patch.Quarter)
	}
	if patch.TargetValue != nil {
		addSet("target_value", *patch.TargetValue)
	}
	if patch.CurrentValue != nil {
		addSet("current_value", *patch.CurrentValue)
	}
	if patch.Unit != nil {
		addSet("unit", *patch.Unit)
	}
	if patch.Progress != nil {
		addSet("progress", *patch.Progress)
	}
	if patch.Status != nil {
		addSet("status", *patch.Status)
	}
	if patch.Owner != nil {
		addSet("owner", *patch.Owner)
	}
	if patch.DueDate != nil {
		addSet("due_date", *patch.DueDate)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("empty goal patch for id %s", id)
	}

	sets = append(sets, "updated_at = NOW()")

	params = append(params, id)
	query := fmt.Sprintf(
		"UPDATE goals SET %s WHERE id = $%d RETURNING *",
		strings.Join(sets, ", "), len(params),
	)

	var goal model.Goal
	err := r.db.GetContext(ctx, &goal, query, params...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to update goal", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &goal, nil
}

// Delete removes a goal and returns its id and parent id so the caller can
// roll up the parent, or nil when the id is unknown
func (r *GoalRepository) Delete(ctx context.Context, id string) (*model.DeletedGoal, error) {
	query := `DELETE FROM goals WHERE id = $1 RETURNING id, parent_id`

	var deleted model.DeletedGoal
	err := r.db.GetContext(ctx, &deleted, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to delete goal", zap.Error(err), zap.String("id", id))
		return nil, err
	}

	return &deleted, nil
}

// ChildProgress retrieves the progress values of an objective's children
func (r *GoalRepository) ChildProgress(ctx context.Context, parentID string) ([]int, error) {
	query := `SELECT progress FROM goals WHERE parent_id = $1`

	progress := []int{}
	err := r.db.SelectContext(ctx, &progress, query, parentID)
	if err != nil {
		r.logger.Error("Failed to get child progress", zap.Error(err), zap.String("parent_id", parentID))
		return nil, err
	}

	return progress, nil
}

// SetProgress persists a rolled-up progress value on an objective
func (r *GoalRepository) SetProgress(ctx context.Context, id string, progress int) error {
	query := `UPDATE goals SET progress = $1, updated_at = NOW() WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, progress, id)
	if err != nil {
		r.logger.Error("Failed to set goal progress", zap.Error(err), zap.String("id", id))
		return err
	}

	return nil
}
