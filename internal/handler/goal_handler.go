package handler

import (
	"net/http"
	"strings"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/service"
	"github.com/AscentXR/AscentXR-Business-sub002/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GoalHandler handles goal-related HTTP requests
type GoalHandler struct {
	goalService *service.GoalService
	logger      *zap.Logger
}

// NewGoalHandler creates a new goal handler
func NewGoalHandler(goalService *service.GoalService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		goalService: goalService,
		logger:      logger,
	}
}

// GetGoals handles retrieving goals as a flat list
// GET /api/v1/goals
func (h *GoalHandler) GetGoals(c *gin.Context) {
	filter := model.GoalFilter{
		Quarter:      c.Query("quarter"),
		BusinessArea: c.Query("business_area"),
		GoalType:     c.Query("goal_type"),
	}

	goals, err := h.goalService.GetGoals(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to get goals", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch goals")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": goals})
}

// GetTree handles retrieving the full OKR hierarchy
// GET /api/v1/goals/tree
func (h *GoalHandler) GetTree(c *gin.Context) {
	tree, err := h.goalService.GetTree(c.Request.Context(), c.Query("quarter"))
	if err != nil {
		h.logger.Error("Failed to build goal tree", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to build goal tree")
		return
	}

	c.JSON(http.StatusOK, tree)
}

// GetGoalByID handles retrieving a single goal with its key results
// GET /api/v1/goals/{id}
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	goal, err := h.goalService.GetGoalByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get goal", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to fetch goal")
		return
	}
	if goal == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Goal not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": goal})
}

// CreateGoal handles creating an objective or key result
// POST /api/v1/goals
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var request model.GoalCreate
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := h.goalService.CreateGoal(c.Request.Context(), request)
	if err != nil {
		h.logger.Error("Failed to create goal", zap.Error(err))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to create goal")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": goal})
}

// UpdateGoal handles patching a goal; a patch without recognized fields is a
// no-op answered with 404
// PUT /api/v1/goals/{id}
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	var patch model.GoalUpdate
	if err := c.ShouldBindJSON(&patch); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Request.Context(), id, patch)
	if err != nil {
		// The goal may have been updated with the parent rollup failing after
		// it; surface that as a partial failure rather than hiding it.
		if goal != nil && strings.Contains(err.Error(), "rollup") {
			h.logger.Error("Goal updated but rollup failed", zap.Error(err), zap.String("id", id))
			c.JSON(http.StatusInternalServerError, gin.H{"data": goal, "error": "Parent progress rollup failed"})
			return
		}
		h.logger.Error("Failed to update goal", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to update goal")
		return
	}
	if goal == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Goal not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": goal})
}

// DeleteGoal handles deleting a goal
// DELETE /api/v1/goals/{id}
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		utils.SendErrorResponse(c, http.StatusBadRequest, "Invalid goal ID")
		return
	}

	deleted, err := h.goalService.DeleteGoal(c.Request.Context(), id)
	if err != nil {
		if deleted != nil && strings.Contains(err.Error(), "rollup") {
			h.logger.Error("Goal deleted but rollup failed", zap.Error(err), zap.String("id", id))
			c.JSON(http.StatusInternalServerError, gin.H{"data": deleted, "error": "Parent progress rollup failed"})
			return
		}
		h.logger.Error("Failed to delete goal", zap.Error(err), zap.String("id", id))
		utils.SendErrorResponse(c, http.StatusInternalServerError, "Failed to delete goal")
		return
	}
	if deleted == nil {
		utils.SendErrorResponse(c, http.StatusNotFound, "Goal not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
