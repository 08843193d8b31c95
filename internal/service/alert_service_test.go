package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"
)

// fakeNotifier records created notifications and stands in for the dedup
// state the candidate queries consult.
type fakeNotifier struct {
	mu      sync.Mutex
	created []model.Notification
	err     error
}

func (f *fakeNotifier) Create(ctx context.Context, create model.NotificationCreate) (*model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	n := model.Notification{
		ID:         fmt.Sprintf("n-%d", len(f.created)+1),
		Type:       create.Type,
		Severity:   create.Severity,
		Title:      create.Title,
		Message:    create.Message,
		Section:    create.Section,
		ActionURL:  create.ActionURL,
		EntityID:   create.EntityID,
		EntityType: create.EntityType,
		CreatedAt:  time.Now(),
	}
	f.created = append(f.created, n)
	return &n, nil
}

// has mirrors the NOT EXISTS dedup key: entity, type, severity.
func (f *fakeNotifier) has(entityID, typ, severity string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.created {
		if n.Type == typ && n.Severity == severity && n.EntityID != nil && *n.EntityID == entityID {
			return true
		}
	}
	return false
}

// hasType is the dedup key without the severity band.
func (f *fakeNotifier) hasType(entityID, typ string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, n := range f.created {
		if n.Type == typ && n.EntityID != nil && *n.EntityID == entityID {
			return true
		}
	}
	return false
}

func (f *fakeNotifier) byType(typ string) []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []model.Notification{}
	for _, n := range f.created {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// fakeAlertStore serves fixed candidate sets, filtering out rows the notifier
// already covers the way the real queries do.
type fakeAlertStore struct {
	notifier *fakeNotifier

	renewals   []model.RenewalCandidate
	lowHealth  []model.HealthDropCandidate
	breached   []model.SLABreachCandidate
	taxEvents  []model.TaxDeadlineCandidate
	budgets    []model.BudgetCandidate
	invoices   []model.InvoiceCandidate
	objectives []model.GoalPaceCandidate

	errs map[string]error

	now time.Time
}

func (f *fakeAlertStore) fail(rule string) error {
	if f.errs == nil {
		return nil
	}
	return f.errs[rule]
}

func (f *fakeAlertStore) RenewalsDueWithin(ctx context.Context, days int, severity string) ([]model.RenewalCandidate, error) {
	if err := f.fail(model.NotificationRenewalDue); err != nil {
		return nil, err
	}
	out := []model.RenewalCandidate{}
	for _, r := range f.renewals {
		if r.RenewalDate.After(f.now.AddDate(0, 0, days)) {
			continue
		}
		if f.notifier.has(r.ID, model.NotificationRenewalDue, severity) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAlertStore) LowHealthScores(ctx context.Context) ([]model.HealthDropCandidate, error) {
	if err := f.fail(model.NotificationHealthDrop); err != nil {
		return nil, err
	}
	out := []model.HealthDropCandidate{}
	for _, r := range f.lowHealth {
		if f.notifier.hasType(r.ID, model.NotificationHealthDrop) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAlertStore) BreachedTickets(ctx context.Context) ([]model.SLABreachCandidate, error) {
	if err := f.fail(model.NotificationSLABreach); err != nil {
		return nil, err
	}
	return f.breached, nil
}

func (f *fakeAlertStore) TaxEventsDueWithin(ctx context.Context, days int, severity string) ([]model.TaxDeadlineCandidate, error) {
	if err := f.fail(model.NotificationTaxDeadline); err != nil {
		return nil, err
	}
	out := []model.TaxDeadlineCandidate{}
	for _, r := range f.taxEvents {
		if r.DueDate.After(f.now.AddDate(0, 0, days)) {
			continue
		}
		if f.notifier.has(r.ID, model.NotificationTaxDeadline, severity) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeAlertStore) OverspentBudgets(ctx context.Context) ([]model.BudgetCandidate, error) {
	if err := f.fail(model.NotificationBudgetWarning); err != nil {
		return nil, err
	}
	out := []model.BudgetCandidate{}
	for _, r := range f.budgets {
		if r.Allocated > 0 && r.Spent/r.Allocated > 0.8 {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) OverdueInvoices(ctx context.Context) ([]model.InvoiceCandidate, error) {
	if err := f.fail(model.NotificationInvoiceOverdue); err != nil {
		return nil, err
	}
	return f.invoices, nil
}

func (f *fakeAlertStore) LaggingObjectives(ctx context.Context) ([]model.GoalPaceCandidate, error) {
	if err := f.fail(model.NotificationGoalBehind); err != nil {
		return nil, err
	}
	return f.objectives, nil
}

var alertNow = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

func newAlertFixture() (*AlertService, *fakeAlertStore, *fakeNotifier) {
	notifier := &fakeNotifier{}
	store := &fakeAlertStore{notifier: notifier, now: alertNow}
	svc := NewAlertService(store, notifier, nil, zap.NewNop())
	svc.now = func() time.Time { return alertNow }
	return svc, store, notifier
}

func TestCheckAlerts_Empty(t *testing.T) {
	svc, _, _ := newAlertFixture()

	created, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestCheckAlerts_SecondRunCreatesNothing(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.renewals = []model.RenewalCandidate{
		{ID: "ch-1", CustomerName: "Acme", RenewalDate: alertNow.AddDate(0, 0, 20), ContractValue: 300000},
	}
	store.lowHealth = []model.HealthDropCandidate{
		{ID: "ch-2", CustomerName: "Globex", OverallScore: 35, RiskLevel: model.RiskLevelCritical},
	}

	first, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second, "every subject was already notified")
	assert.Len(t, notifier.created, len(first))
}

func TestCheckAlerts_RuleFailureDoesNotBlockOthers(t *testing.T) {
	svc, store, _ := newAlertFixture()

	store.errs = map[string]error{model.NotificationHealthDrop: errors.New("relation does not exist")}
	store.budgets = []model.BudgetCandidate{
		{ID: "b-1", Category: "Marketing", Period: "2026-08", Allocated: 10000, Spent: 9500},
	}

	created, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err, "a failing rule is contained, not propagated")
	require.Len(t, created, 1)
	assert.Equal(t, model.NotificationBudgetWarning, created[0].Type)
}

func TestCheckRenewalDue_OverlappingWindows(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	// Due in 20 days: inside all three windows, one alert per severity band.
	store.renewals = []model.RenewalCandidate{
		{ID: "ch-1", CustomerName: "Acme", RenewalDate: alertNow.AddDate(0, 0, 20), ContractValue: 300000},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationRenewalDue)
	require.Len(t, got, 3)
	severities := map[string]bool{}
	for _, n := range got {
		severities[n.Severity] = true
		assert.Equal(t, model.SectionCustomerSuccess, n.Section)
		require.NotNil(t, n.EntityID)
		assert.Equal(t, "ch-1", *n.EntityID)
	}
	assert.True(t, severities[model.SeverityCritical])
	assert.True(t, severities[model.SeverityHigh])
	assert.True(t, severities[model.SeverityMedium])
}

func TestCheckRenewalDue_OuterWindowOnly(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.renewals = []model.RenewalCandidate{
		{ID: "ch-1", CustomerName: "Acme", RenewalDate: alertNow.AddDate(0, 0, 75), ContractValue: 120000},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationRenewalDue)
	require.Len(t, got, 1)
	assert.Equal(t, model.SeverityMedium, got[0].Severity)
	assert.Contains(t, got[0].Message, "$120,000")
}

func TestCheckHealthDrop_Severity(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.lowHealth = []model.HealthDropCandidate{
		{ID: "ch-1", CustomerName: "Acme", OverallScore: 25, RiskLevel: model.RiskLevelCritical},
		{ID: "ch-2", CustomerName: "Globex", OverallScore: 49, RiskLevel: model.RiskLevelAtRisk},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationHealthDrop)
	require.Len(t, got, 2)
	bySubject := map[string]string{}
	for _, n := range got {
		bySubject[*n.EntityID] = n.Severity
	}
	assert.Equal(t, model.SeverityCritical, bySubject["ch-1"], "25 and under is critical")
	assert.Equal(t, model.SeverityHigh, bySubject["ch-2"])
}

func TestCheckSLABreach(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.breached = []model.SLABreachCandidate{
		{ID: "t-1", Subject: "Login broken", Priority: "urgent", CustomerName: "Acme", SLAResolutionDue: alertNow.Add(-6 * time.Hour)},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationSLABreach)
	require.Len(t, got, 1)
	assert.Equal(t, model.SeverityCritical, got[0].Severity)
	assert.Equal(t, model.SectionCustomerSuccess, got[0].Section)
	require.NotNil(t, got[0].EntityType)
	assert.Equal(t, "support_ticket", *got[0].EntityType)
}

func TestCheckTaxDeadline_Bands(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	amount := 18500.0
	store.taxEvents = []model.TaxDeadlineCandidate{
		{ID: "tx-1", Title: "Q2 VAT return", EventType: "filing", DueDate: alertNow.AddDate(0, 0, 5), Amount: &amount},
		{ID: "tx-2", Title: "Payroll tax", EventType: "payment", DueDate: alertNow.AddDate(0, 0, 25)},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationTaxDeadline)
	bySubject := map[string][]model.Notification{}
	for _, n := range got {
		bySubject[*n.EntityID] = append(bySubject[*n.EntityID], n)
	}

	// Due in 5 days sits in all three bands; due in 25 days only in the widest.
	require.Len(t, bySubject["tx-1"], 3)
	require.Len(t, bySubject["tx-2"], 1)
	assert.Equal(t, model.SeverityMedium, bySubject["tx-2"][0].Severity)
	assert.Equal(t, model.SectionFinance, bySubject["tx-2"][0].Section)

	for _, n := range bySubject["tx-1"] {
		assert.Contains(t, n.Message, "$18,500")
	}
}

func TestCheckBudgetWarning_Severity(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.budgets = []model.BudgetCandidate{
		{ID: "b-1", Category: "Marketing", Period: "2026-08", Allocated: 10000, Spent: 8500},
		{ID: "b-2", Category: "Cloud", Period: "2026-08", Allocated: 10000, Spent: 9500},
		{ID: "b-3", Category: "Travel", Period: "2026-08", Allocated: 10000, Spent: 10500},
		{ID: "b-4", Category: "Training", Period: "2026-08", Allocated: 10000, Spent: 4000},
		{ID: "b-5", Category: "Unfunded", Period: "2026-08", Allocated: 0, Spent: 500},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationBudgetWarning)
	require.Len(t, got, 3, "under-threshold and zero-allocation budgets stay silent")

	bySubject := map[string]model.Notification{}
	for _, n := range got {
		bySubject[*n.EntityID] = n
	}
	assert.Equal(t, model.SeverityMedium, bySubject["b-1"].Severity)
	assert.Equal(t, model.SeverityHigh, bySubject["b-2"].Severity)
	assert.Equal(t, model.SeverityCritical, bySubject["b-3"].Severity)
	assert.Contains(t, bySubject["b-3"].Title, "Budget exceeded")
	assert.Contains(t, bySubject["b-2"].Title, "Budget warning")
	assert.Contains(t, bySubject["b-2"].Message, "95% utilization")
}

func TestCheckInvoiceOverdue_EscalatesWithAge(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	store.invoices = []model.InvoiceCandidate{
		{ID: "i-1", InvoiceNumber: "INV-001", CustomerName: "Acme", DueDate: alertNow.AddDate(0, 0, -5), Total: 950},
		{ID: "i-2", InvoiceNumber: "INV-002", CustomerName: "Globex", DueDate: alertNow.AddDate(0, 0, -20), Total: 4400},
		{ID: "i-3", InvoiceNumber: "INV-003", CustomerName: "Initech", DueDate: alertNow.AddDate(0, 0, -35), Total: 12000},
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationInvoiceOverdue)
	require.Len(t, got, 3)

	bySubject := map[string]model.Notification{}
	for _, n := range got {
		bySubject[*n.EntityID] = n
	}
	assert.Equal(t, model.SeverityMedium, bySubject["i-1"].Severity)
	assert.Equal(t, model.SeverityHigh, bySubject["i-2"].Severity)
	assert.Equal(t, model.SeverityCritical, bySubject["i-3"].Severity)
	assert.Contains(t, bySubject["i-1"].Title, "INV-001 (5 days)")
}

func TestCheckGoalBehind(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	quarter := "Q3_2026"
	sales := "sales"
	malformed := "H2-2026"
	// Expected progress on Aug 15 for Q3_2026 is 49%.
	store.objectives = []model.GoalPaceCandidate{
		{ID: "g-1", Title: "Grow pipeline", Progress: 30, Quarter: &quarter, BusinessArea: &sales}, // gap 19 -> medium
		{ID: "g-2", Title: "Ship v2", Progress: 20, Quarter: &quarter},                             // gap 29 -> high
		{ID: "g-3", Title: "SOC 2", Progress: 5, Quarter: &quarter},                                // gap 44 -> critical
		{ID: "g-4", Title: "On pace", Progress: 40, Quarter: &quarter},                             // gap 9 -> silent
		{ID: "g-5", Title: "No schedule", Progress: 0},                                             // skipped
		{ID: "g-6", Title: "Odd label", Progress: 0, Quarter: &malformed},                          // skipped
	}

	_, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)

	got := notifier.byType(model.NotificationGoalBehind)
	require.Len(t, got, 3)

	bySubject := map[string]model.Notification{}
	for _, n := range got {
		bySubject[*n.EntityID] = n
	}
	assert.Equal(t, model.SeverityMedium, bySubject["g-1"].Severity)
	assert.Equal(t, model.SeverityHigh, bySubject["g-2"].Severity)
	assert.Equal(t, model.SeverityCritical, bySubject["g-3"].Severity)

	// Section comes from the business area when there is one.
	assert.Equal(t, "sales", bySubject["g-1"].Section)
	assert.Equal(t, model.SectionGoals, bySubject["g-2"].Section)

	assert.Contains(t, bySubject["g-2"].Message, "at 20% progress but expected to be at 49%")
}

func TestCheckAlerts_CreateFailureKeepsOtherRules(t *testing.T) {
	svc, store, notifier := newAlertFixture()

	notifier.err = errors.New("insert failed")
	store.lowHealth = []model.HealthDropCandidate{
		{ID: "ch-1", CustomerName: "Acme", OverallScore: 20, RiskLevel: model.RiskLevelCritical},
	}

	created, err := svc.CheckAlerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, created)
}
