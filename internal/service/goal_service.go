package service

import (
	"context"
	"fmt"
	"math"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"go.uber.org/zap"
)

// GoalStore abstracts the goal persistence layer
type GoalStore interface {
	List(ctx context.Context, filter model.GoalFilter) ([]model.Goal, error)
	GetByID(ctx context.Context, id string) (*model.Goal, error)
	Children(ctx context.Context, parentID string) ([]model.Goal, error)
	Create(ctx context.Context, create model.GoalCreate) (*model.Goal, error)
	Update(ctx context.Context, id string, patch model.GoalUpdate) (*model.Goal, error)
	Delete(ctx context.Context, id string) (*model.DeletedGoal, error)
	ChildProgress(ctx context.Context, parentID string) ([]int, error)
	SetProgress(ctx context.Context, id string, progress int) error
}

// GoalService handles OKR operations and keeps objective progress consistent
// with the key results underneath it
type GoalService struct {
	store  GoalStore
	logger *zap.Logger
}

// NewGoalService creates a new goal service
func NewGoalService(store GoalStore, logger *zap.Logger) *GoalService {
	return &GoalService{
		store:  store,
		logger: logger,
	}
}

// GetGoals retrieves goals as a flat list
func (s *GoalService) GetGoals(ctx context.Context, filter model.GoalFilter) ([]model.Goal, error) {
	return s.store.List(ctx, filter)
}

// GetGoalByID retrieves a goal; objectives come back with their key results
// embedded. Returns nil when the id is unknown.
func (s *GoalService) GetGoalByID(ctx context.Context, id string) (*model.Goal, error) {
	goal, err := s.store.GetByID(ctx, id)
	if err != nil || goal == nil {
		return goal, err
	}

	if goal.GoalType == model.GoalTypeObjective {
		children, err := s.store.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		goal.KeyResults = children
	}

	return goal, nil
}

// CreateGoal inserts a goal. Creating a key result does not trigger a rollup;
// the new child starts at its own progress and the parent catches up on the
// first mutation.
func (s *GoalService) CreateGoal(ctx context.Context, create model.GoalCreate) (*model.Goal, error) {
	return s.store.Create(ctx, create)
}

// UpdateGoal applies a partial patch. An empty patch is a no-op returning nil
// with no query issued. When the updated goal has a parent, the parent's
// progress is rolled up before returning; a rollup failure is surfaced
// alongside the successfully updated goal.
func (s *GoalService) UpdateGoal(ctx context.Context, id string, patch model.GoalUpdate) (*model.Goal, error) {
	if patch.Empty() {
		return nil, nil
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}

	if updated.ParentID != nil {
		if err := s.RollupProgress(ctx, *updated.ParentID); err != nil {
			return updated, fmt.Errorf("goal %s updated but parent rollup failed: %w", id, err)
		}
	}

	return updated, nil
}

// DeleteGoal removes a goal. Deleting a key result rolls up its former parent
// against the reduced child set. Returns nil when the id is unknown.
func (s *GoalService) DeleteGoal(ctx context.Context, id string) (*model.DeletedGoal, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil || deleted == nil {
		return deleted, err
	}

	if deleted.ParentID != nil {
		if err := s.RollupProgress(ctx, *deleted.ParentID); err != nil {
			return deleted, fmt.Errorf("goal %s deleted but parent rollup failed: %w", id, err)
		}
	}

	return deleted, nil
}

// RollupProgress recomputes an objective's progress as the rounded mean of its
// children's progress. An objective with no children keeps its last value.
func (s *GoalService) RollupProgress(ctx context.Context, objectiveID string) error {
	children, err := s.store.ChildProgress(ctx, objectiveID)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return nil
	}

	return s.store.SetProgress(ctx, objectiveID, meanProgress(children))
}

// GetTree builds the full objective hierarchy for a quarter: objectives with
// their key results, derived progress, a by-area grouping and a summary
func (s *GoalService) GetTree(ctx context.Context, quarter string) (*model.GoalTree, error) {
	goals, err := s.store.List(ctx, model.GoalFilter{Quarter: quarter})
	if err != nil {
		return nil, err
	}

	childMap := map[string][]model.Goal{}
	objectives := []model.Goal{}
	totalKeyResults := 0
	for _, g := range goals {
		switch g.GoalType {
		case model.GoalTypeObjective:
			objectives = append(objectives, g)
		case model.GoalTypeKeyResult:
			totalKeyResults++
			if g.ParentID != nil {
				childMap[*g.ParentID] = append(childMap[*g.ParentID], g)
			}
		}
	}

	tree := make([]model.GoalTreeNode, 0, len(objectives))
	byArea := map[string][]model.GoalTreeNode{}
	progressSum := 0

	for _, obj := range objectives {
		children := childMap[obj.ID]
		calculated := obj.Progress
		if len(children) > 0 {
			values := make([]int, len(children))
			for i, kr := range children {
				values[i] = kr.Progress
			}
			calculated = meanProgress(values)
		}

		node := model.GoalTreeNode{
			Goal:               obj,
			KeyResults:         children,
			CalculatedProgress: calculated,
			KeyResultCount:     len(children),
		}
		if node.KeyResults == nil {
			node.KeyResults = []model.Goal{}
		}
		tree = append(tree, node)
		progressSum += calculated

		area := "general"
		if obj.BusinessArea != nil && *obj.BusinessArea != "" {
			area = *obj.BusinessArea
		}
		byArea[area] = append(byArea[area], node)
	}

	avgProgress := 0
	if len(tree) > 0 {
		avgProgress = int(math.Round(float64(progressSum) / float64(len(tree))))
	}

	return &model.GoalTree{
		Tree:   tree,
		ByArea: byArea,
		Summary: model.GoalTreeSummary{
			TotalObjectives: len(objectives),
			TotalKeyResults: totalKeyResults,
			AvgProgress:     avgProgress,
		},
	}, nil
}

// meanProgress rounds half away from zero, so [80 40 60] averages to 60 and
// [50 75] averages to 63
func meanProgress(values []int) int {
	sum := 0
	for _, v := range values {
		sum += v
	}
	return int(math.Round(float64(sum) / float64(len(values))))
}
