package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
)

type fakeHealthStore struct {
	records map[string]*model.CustomerHealth

	getCalls    int
	updateCalls int
	lastPatch   model.CustomerHealthUpdate
	lastScore   *model.HealthScore
}

func newFakeHealthStore() *fakeHealthStore {
	return &fakeHealthStore{records: map[string]*model.CustomerHealth{}}
}

func (f *fakeHealthStore) List(ctx context.Context, riskLevel string) ([]model.CustomerHealth, error) {
	out := []model.CustomerHealth{}
	for _, r := range f.records {
		if riskLevel == "" || r.RiskLevel == riskLevel {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeHealthStore) GetByID(ctx context.Context, id string) (*model.CustomerHealth, error) {
	f.getCalls++
	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (f *fakeHealthStore) Create(ctx context.Context, create model.CustomerHealthCreate, score model.HealthScore) (*model.CustomerHealth, error) {
	record := &model.CustomerHealth{
		ID:              "h-" + create.CustomerID,
		CustomerID:      create.CustomerID,
		OverallScore:    score.Score,
		UsageScore:      create.UsageScore,
		EngagementScore: create.EngagementScore,
		SupportScore:    create.SupportScore,
		AdoptionScore:   create.AdoptionScore,
		RiskLevel:       score.RiskLevel,
	}
	f.records[record.ID] = record
	return record, nil
}

func (f *fakeHealthStore) Update(ctx context.Context, id string, patch model.CustomerHealthUpdate, score *model.HealthScore) (*model.CustomerHealth, error) {
	f.updateCalls++
	f.lastPatch = patch
	f.lastScore = score

	r, ok := f.records[id]
	if !ok {
		return nil, nil
	}
	if patch.UsageScore != nil {
		r.UsageScore = *patch.UsageScore
	}
	if patch.EngagementScore != nil {
		r.EngagementScore = *patch.EngagementScore
	}
	if patch.SupportScore != nil {
		r.SupportScore = *patch.SupportScore
	}
	if patch.AdoptionScore != nil {
		r.AdoptionScore = *patch.AdoptionScore
	}
	if score != nil {
		r.OverallScore = score.Score
		r.RiskLevel = score.RiskLevel
	}
	copied := *r
	return &copied, nil
}

func (f *fakeHealthStore) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := f.records[id]
	delete(f.records, id)
	return ok, nil
}

func (f *fakeHealthStore) UpcomingRenewals(ctx context.Context, days int) ([]model.CustomerHealth, error) {
	return nil, nil
}

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name       string
		usage      int
		engagement int
		support    int
		adoption   int
		wantScore  int
		wantRisk   string
	}{
		{"healthy account", 80, 90, 85, 82, 85, model.RiskLevelHealthy},
		{"critical account", 20, 10, 15, 25, 17, model.RiskLevelCritical},
		{"at-risk boundary", 50, 50, 50, 50, 50, model.RiskLevelAtRisk},
		{"watch tier", 70, 70, 70, 70, 70, model.RiskLevelWatch},
		{"exactly 40 is critical", 40, 40, 40, 40, 40, model.RiskLevelCritical},
		{"exactly 80 is watch", 80, 80, 80, 80, 80, model.RiskLevelWatch},
		{"all zero", 0, 0, 0, 0, 0, model.RiskLevelCritical},
		{"all hundred", 100, 100, 100, 100, 100, model.RiskLevelHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateHealthScore(tt.usage, tt.engagement, tt.support, tt.adoption)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantRisk, got.RiskLevel)
		})
	}
}

func TestCalculateHealthScore_RoundsHalfAwayFromZero(t *testing.T) {
	// 82*0.25 + 90*0.30 + 80*0.20 + 85*0.25 = 84.75 -> 85
	got := CalculateHealthScore(82, 90, 80, 85)
	assert.Equal(t, 85, got.Score)
	assert.Equal(t, model.RiskLevelHealthy, got.RiskLevel)

	// 90*0.25 + 79*0.30 + 81*0.20 + 82*0.25 = 82.9 -> 83
	got = CalculateHealthScore(90, 79, 81, 82)
	assert.Equal(t, 83, got.Score)
}

func TestCreateHealthRecord_ComputesScore(t *testing.T) {
	store := newFakeHealthStore()
	svc := NewHealthService(store, zap.NewNop())

	record, err := svc.CreateHealthRecord(context.Background(), model.CustomerHealthCreate{
		CustomerID:      "c1",
		UsageScore:      80,
		EngagementScore: 90,
		SupportScore:    85,
		AdoptionScore:   82,
	})
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 85, record.OverallScore)
	assert.Equal(t, model.RiskLevelHealthy, record.RiskLevel)
}

func TestUpdateHealthRecord_EmptyPatchIsNoOp(t *testing.T) {
	store := newFakeHealthStore()
	svc := NewHealthService(store, zap.NewNop())

	record, err := svc.UpdateHealthRecord(context.Background(), "h-c1", model.CustomerHealthUpdate{})
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Zero(t, store.getCalls, "empty patch should not touch the store")
	assert.Zero(t, store.updateCalls)
}

func TestUpdateHealthRecord_SubScoreChangeRecomputes(t *testing.T) {
	store := newFakeHealthStore()
	store.records["h-c1"] = &model.CustomerHealth{
		ID:              "h-c1",
		CustomerID:      "c1",
		UsageScore:      80,
		EngagementScore: 90,
		SupportScore:    85,
		AdoptionScore:   82,
		OverallScore:    85,
		RiskLevel:       model.RiskLevelHealthy,
	}
	svc := NewHealthService(store, zap.NewNop())

	usage := 20
	record, err := svc.UpdateHealthRecord(context.Background(), "h-c1", model.CustomerHealthUpdate{UsageScore: &usage})
	require.NoError(t, err)
	require.NotNil(t, record)

	// 20*0.25 + 90*0.30 + 85*0.20 + 82*0.25 = 69.5 -> 70
	require.NotNil(t, store.lastScore)
	assert.Equal(t, 70, record.OverallScore)
	assert.Equal(t, model.RiskLevelWatch, record.RiskLevel)
}

func TestUpdateHealthRecord_NonScorePatchSkipsRecompute(t *testing.T) {
	store := newFakeHealthStore()
	store.records["h-c1"] = &model.CustomerHealth{ID: "h-c1", CustomerID: "c1", OverallScore: 85}
	svc := NewHealthService(store, zap.NewNop())

	notes := "expansion call booked"
	record, err := svc.UpdateHealthRecord(context.Background(), "h-c1", model.CustomerHealthUpdate{ExpansionNotes: &notes})
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Zero(t, store.getCalls, "notes-only patch should not fetch the current record")
	assert.Nil(t, store.lastScore)
	assert.Equal(t, 85, record.OverallScore)
}

func TestUpdateHealthRecord_UnknownID(t *testing.T) {
	store := newFakeHealthStore()
	svc := NewHealthService(store, zap.NewNop())

	usage := 50
	record, err := svc.UpdateHealthRecord(context.Background(), "missing", model.CustomerHealthUpdate{UsageScore: &usage})
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestRecalculateHealth(t *testing.T) {
	store := newFakeHealthStore()
	store.records["h-c1"] = &model.CustomerHealth{
		ID:              "h-c1",
		CustomerID:      "c1",
		UsageScore:      50,
		EngagementScore: 50,
		SupportScore:    50,
		AdoptionScore:   50,
		OverallScore:    85, // stale
		RiskLevel:       model.RiskLevelHealthy,
	}
	svc := NewHealthService(store, zap.NewNop())

	record, err := svc.RecalculateHealth(context.Background(), "h-c1")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, 50, record.OverallScore)
	assert.Equal(t, model.RiskLevelAtRisk, record.RiskLevel)
}

func TestRecalculateHealth_UnknownID(t *testing.T) {
	store := newFakeHealthStore()
	svc := NewHealthService(store, zap.NewNop())

	record, err := svc.RecalculateHealth(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Zero(t, store.updateCalls)
}
