package model

import (
	"time"
)

// Goal types
const (
	GoalTypeObjective = "objective"
	GoalTypeKeyResult = "key_result"
)

// Goal statuses, set by callers and never derived by the rollup
const (
	GoalStatusOnTrack   = "on_track"
	GoalStatusBehind    = "behind"
	GoalStatusCompleted = "completed"
	GoalStatusAtRisk    = "at_risk"
)

// Goal represents an OKR record: an objective, or a key result under one
type Goal struct {
	ID           string     `json:"id" db:"id"`
	ParentID     *string    `json:"parent_id" db:"parent_id"`
	Title        string     `json:"title" db:"title"`
	Description  *string    `json:"description,omitempty" db:"description"`
	GoalType     string     `json:"goal_type" db:"goal_type"`
	BusinessArea *string    `json:"business_area,omitempty" db:"business_area"`
	Quarter      *string    `json:"quarter,omitempty" db:"quarter"`
	TargetValue  *float64   `json:"target_value,omitempty" db:"target_value"`
	CurrentValue float64    `json:"current_value" db:"current_value"`
	Unit         *string    `json:"unit,omitempty" db:"unit"`
	Progress     int        `json:"progress" db:"progress"`
	Status       string     `json:"status" db:"status"`
	Owner        *string    `json:"owner,omitempty" db:"owner"`
	DueDate      *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	// Populated for objectives fetched by id; not a database column.
	KeyResults []Goal `json:"key_results,omitempty" db:"-"`
}

// GoalCreate represents data for creating a goal
type GoalCreate struct {
	ParentID     *string    `json:"parent_id,omitempty"`
	Title        string     `json:"title" binding:"required"`
	Description  *string    `json:"description,omitempty"`
	GoalType     string     `json:"goal_type" binding:"required,oneof=objective key_result"`
	BusinessArea *string    `json:"business_area,omitempty"`
	Quarter      *string    `json:"quarter,omitempty"`
	TargetValue  *float64   `json:"target_value,omitempty"`
	CurrentValue float64    `json:"current_value"`
	Unit         *string    `json:"unit,omitempty"`
	Progress     int        `json:"progress"`
	Status       string     `json:"status"`
	Owner        *string    `json:"owner,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// GoalUpdate is a partial patch. Nil fields are left untouched; the field set
// itself is the allow-list, so unknown JSON keys are dropped at bind time.
type GoalUpdate struct {
	ParentID     *string    `json:"parent_id,omitempty"`
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	GoalType     *string    `json:"goal_type,omitempty"`
	BusinessArea *string    `json:"business_area,omitempty"`
	Quarter      *string    `json:"quarter,omitempty"`
	TargetValue  *float64   `json:"target_value,omitempty"`
	CurrentValue *float64   `json:"current_value,omitempty"`
	Unit         *string    `json:"unit,omitempty"`
	Progress     *int       `json:"progress,omitempty"`
	Status       *string    `json:"status,omitempty"`
	Owner        *string    `json:"owner,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

// Empty reports whether the patch carries no recognized fields
func (u GoalUpdate) Empty() bool {
	return u.ParentID == nil &&
		u.Title == nil &&
		u.Description == nil &&
		u.GoalType == nil &&
		u.BusinessArea == nil &&
		u.Quarter == nil &&
		u.TargetValue == nil &&
		u.CurrentValue == nil &&
		u.Unit == nil &&
		u.Progress == nil &&
		u.Status == nil &&
		u.Owner == nil &&
		u.DueDate == nil
}

// DeletedGoal is the stub returned when a goal row is removed
type DeletedGoal struct {
	ID       string  `json:"id" db:"id"`
	ParentID *string `json:"parent_id" db:"parent_id"`
}

// GoalFilter holds optional filters for listing goals
type GoalFilter struct {
	Quarter      string
	BusinessArea string
	GoalType     string
}

// GoalTreeNode is an objective with its key results and derived rollup fields
type GoalTreeNode struct {
	Goal
	KeyResults         []Goal `json:"key_results"`
	CalculatedProgress int    `json:"calculated_progress"`
	KeyResultCount     int    `json:"key_result_count"`
}

// GoalTreeSummary aggregates the whole tree
type GoalTreeSummary struct {
	TotalObjectives int `json:"total_objectives"`
	TotalKeyResults int `json:"total_key_results"`
	AvgProgress     int `json:"avg_progress"`
}

// GoalTree is the full objective hierarchy for a quarter
type GoalTree struct {
	Tree    []GoalTreeNode            `json:"tree"`
	ByArea  map[string][]GoalTreeNode `json:"by_area"`
	Summary GoalTreeSummary           `json:"summary"`
}
