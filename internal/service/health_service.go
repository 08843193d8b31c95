package service

import (
	"context"
	"math"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"go.uber.org/zap"
)

// Health score weights: usage 25%, engagement 30%, support 20%, adoption 25%.
const (
	usageWeight      = 0.25
	engagementWeight = 0.30
	supportWeight    = 0.20
	adoptionWeight   = 0.25
)

// HealthStore abstracts the customer health persistence layer
type HealthStore interface {
	List(ctx context.Context, riskLevel string) ([]model.CustomerHealth, error)
	GetByID(ctx context.Context, id string) (*model.CustomerHealth, error)
	Create(ctx context.Context, create model.CustomerHealthCreate, score model.HealthScore) (*model.CustomerHealth, error)
	Update(ctx context.Context, id string, patch model.CustomerHealthUpdate, score *model.HealthScore) (*model.CustomerHealth, error)
	Delete(ctx context.Context, id string) (bool, error)
	UpcomingRenewals(ctx context.Context, days int) ([]model.CustomerHealth, error)
}

// HealthService handles customer health records and the weighted score
type HealthService struct {
	store  HealthStore
	logger *zap.Logger
}

// NewHealthService creates a new health service
func NewHealthService(store HealthStore, logger *zap.Logger) *HealthService {
	return &HealthService{
		store:  store,
		logger: logger,
	}
}

// CalculateHealthScore computes the weighted composite score and its risk
// tier. Rounding is half away from zero, so 84.5 classifies as 85.
func CalculateHealthScore(usage, engagement, support, adoption int) model.HealthScore {
	score := int(math.Round(
		float64(usage)*usageWeight +
			float64(engagement)*engagementWeight +
			float64(support)*supportWeight +
			float64(adoption)*adoptionWeight,
	))

	var riskLevel string
	switch {
	case score <= 40:
		riskLevel = model.RiskLevelCritical
	case score <= 60:
		riskLevel = model.RiskLevelAtRisk
	case score <= 80:
		riskLevel = model.RiskLevelWatch
	default:
		riskLevel = model.RiskLevelHealthy
	}

	return model.HealthScore{Score: score, RiskLevel: riskLevel}
}

// GetHealthRecords retrieves all health records, optionally by risk level
func (s *HealthService) GetHealthRecords(ctx context.Context, riskLevel string) ([]model.CustomerHealth, error) {
	return s.store.List(ctx, riskLevel)
}

// GetHealthRecordByID retrieves a single health record; nil when not found
func (s *HealthService) GetHealthRecordByID(ctx context.Context, id string) (*model.CustomerHealth, error) {
	return s.store.GetByID(ctx, id)
}

// CreateHealthRecord computes the overall score from the sub-scores and
// persists the record
func (s *HealthService) CreateHealthRecord(ctx context.Context, create model.CustomerHealthCreate) (*model.CustomerHealth, error) {
	score := CalculateHealthScore(create.UsageScore, create.EngagementScore, create.SupportScore, create.AdoptionScore)
	return s.store.Create(ctx, create, score)
}

// UpdateHealthRecord applies a partial patch. An empty patch is a no-op
// returning nil with no query issued. When any sub-score changes, the overall
// score is recomputed from the stored values merged with the patch.
func (s *HealthService) UpdateHealthRecord(ctx context.Context, id string, patch model.CustomerHealthUpdate) (*model.CustomerHealth, error) {
	if patch.Empty() {
		return nil, nil
	}

	var score *model.HealthScore
	if patch.HasScoreChange() {
		current, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, nil
		}

		usage := current.UsageScore
		engagement := current.EngagementScore
		support := current.SupportScore
		adoption := current.AdoptionScore
		if patch.UsageScore != nil {
			usage = *patch.UsageScore
		}
		if patch.EngagementScore != nil {
			engagement = *patch.EngagementScore
		}
		if patch.SupportScore != nil {
			support = *patch.SupportScore
		}
		if patch.AdoptionScore != nil {
			adoption = *patch.AdoptionScore
		}

		recomputed := CalculateHealthScore(usage, engagement, support, adoption)
		score = &recomputed
	}

	return s.store.Update(ctx, id, patch, score)
}

// RecalculateHealth recomputes a record's overall score from its stored
// sub-scores; nil when the record does not exist
func (s *HealthService) RecalculateHealth(ctx context.Context, id string) (*model.CustomerHealth, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	score := CalculateHealthScore(current.UsageScore, current.EngagementScore, current.SupportScore, current.AdoptionScore)
	return s.store.Update(ctx, id, model.CustomerHealthUpdate{}, &score)
}

// DeleteHealthRecord removes a health record, reporting whether it existed
func (s *HealthService) DeleteHealthRecord(ctx context.Context, id string) (bool, error) {
	return s.store.Delete(ctx, id)
}

// GetUpcomingRenewals retrieves customers renewing inside the next N days
func (s *HealthService) GetUpcomingRenewals(ctx context.Context, days int) ([]model.CustomerHealth, error) {
	if days <= 0 {
		days = 90
	}
	return s.store.UpcomingRenewals(ctx, days)
}
