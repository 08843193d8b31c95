package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/AscentXR/AscentXR-Business-sub002/internal/model"

	"go.uber.org/zap"
)

// AlertStore abstracts the candidate queries behind the alert rules. Each
// query already excludes subjects with a matching open notification, so the
// engine only sees rows that still need one.
type AlertStore interface {
	RenewalsDueWithin(ctx context.Context, days int, severity string) ([]model.RenewalCandidate, error)
	LowHealthScores(ctx context.Context) ([]model.HealthDropCandidate, error)
	BreachedTickets(ctx context.Context) ([]model.SLABreachCandidate, error)
	TaxEventsDueWithin(ctx context.Context, days int, severity string) ([]model.TaxDeadlineCandidate, error)
	OverspentBudgets(ctx context.Context) ([]model.BudgetCandidate, error)
	OverdueInvoices(ctx context.Context) ([]model.InvoiceCandidate, error)
	LaggingObjectives(ctx context.Context) ([]model.GoalPaceCandidate, error)
}

// NotificationCreator is the write side the engine needs
type NotificationCreator interface {
	Create(ctx context.Context, create model.NotificationCreate) (*model.Notification, error)
}

// AlertService evaluates the business alert rules and turns matches into
// notifications
type AlertService struct {
	store         AlertStore
	notifications NotificationCreator
	broadcaster   Broadcaster
	logger        *zap.Logger
	now           func() time.Time
}

// NewAlertService creates a new alert service. The broadcaster may be nil;
// push fan-out is a side effect, not a requirement.
func NewAlertService(store AlertStore, notifications NotificationCreator, broadcaster Broadcaster, logger *zap.Logger) *AlertService {
	return &AlertService{
		store:         store,
		notifications: notifications,
		broadcaster:   broadcaster,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckAlerts evaluates every rule concurrently and returns the notifications
// created in this pass. A failing rule is logged and skipped; the remaining
// rules still deliver. Order across rules is undefined, order within a rule
// follows the candidate query.
func (s *AlertService) CheckAlerts(ctx context.Context) ([]model.Notification, error) {
	checks := []struct {
		name string
		run  func(context.Context) ([]model.Notification, error)
	}{
		{model.NotificationRenewalDue, s.checkRenewalDue},
		{model.NotificationHealthDrop, s.checkHealthDrop},
		{model.NotificationSLABreach, s.checkSLABreach},
		{model.NotificationTaxDeadline, s.checkTaxDeadline},
		{model.NotificationBudgetWarning, s.checkBudgetWarning},
		{model.NotificationInvoiceOverdue, s.checkInvoiceOverdue},
		{model.NotificationGoalBehind, s.checkGoalBehind},
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		created []model.Notification
	)

	for _, check := range checks {
		wg.Add(1)
		go func(name string, run func(context.Context) ([]model.Notification, error)) {
			defer wg.Done()

			batch, err := run(ctx)
			if err != nil {
				// Partial batches are still kept; the rule may have inserted
				// some rows before failing.
				s.logger.Error("Alert rule failed", zap.String("rule", name), zap.Error(err))
			}

			if len(batch) > 0 {
				mu.Lock()
				created = append(created, batch...)
				mu.Unlock()
			}
		}(check.name, check.run)
	}

	wg.Wait()

	if len(created) > 0 {
		s.logger.Info("Alert check produced notifications", zap.Int("count", len(created)))
	}

	return created, nil
}

// create inserts one notification and fans it out to connected clients
func (s *AlertService) create(ctx context.Context, create model.NotificationCreate) (*model.Notification, error) {
	notification, err := s.notifications.Create(ctx, create)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("notification", notification)
	}

	return notification, nil
}

// renewal_due: renewal date inside the 30/60/90-day horizon. The windows
// overlap; severity is part of the dedup key so each band fires at most once
// per record.
func (s *AlertService) checkRenewalDue(ctx context.Context) ([]model.Notification, error) {
	thresholds := []struct {
		days     int
		severity string
	}{
		{30, model.SeverityCritical},
		{60, model.SeverityHigh},
		{90, model.SeverityMedium},
	}

	alerts := []model.Notification{}
	for _, t := range thresholds {
		candidates, err := s.store.RenewalsDueWithin(ctx, t.days, t.severity)
		if err != nil {
			return alerts, err
		}

		for _, row := range candidates {
			row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
			daysLeft := daysUntil(row.RenewalDate, s.now())
			entityType := "customer_health"
			notification, err := s.create(ctx, model.NotificationCreate{
				Type:     model.NotificationRenewalDue,
				Severity: t.severity,
				Title:    fmt.Sprintf("Renewal due in %d days: %s", daysLeft, row.CustomerName),
				Message: fmt.Sprintf("Contract renewal for %s is due on %s. Contract value: $%s.",
					row.CustomerName, row.RenewalDate.Format("2006-01-02"), formatAmount(row.ContractValue)),
				Section:    model.SectionCustomerSuccess,
				ActionURL:  stringPtr("/customer-success/health/" + row.ID),
				EntityID:   &row.ID,
				EntityType: &entityType,
			})
			if err != nil {
				return alerts, err
			}
			alerts = append(alerts, *notification)
		}
	}

	return alerts, nil
}

// health_drop: overall score below 50, critical at 25 and under
func (s *AlertService) checkHealthDrop(ctx context.Context) ([]model.Notification, error) {
	candidates, err := s.store.LowHealthScores(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []model.Notification{}
	for _, row := range candidates {
		row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
		severity := model.SeverityHigh
		if row.OverallScore <= 25 {
			severity = model.SeverityCritical
		}

		entityType := "customer_health"
		notification, err := s.create(ctx, model.NotificationCreate{
			Type:     model.NotificationHealthDrop,
			Severity: severity,
			Title:    fmt.Sprintf("Low health score: %s (%d)", row.CustomerName, row.OverallScore),
			Message: fmt.Sprintf("%s health score has dropped to %d (%s). Immediate attention recommended.",
				row.CustomerName, row.OverallScore, row.RiskLevel),
			Section:    model.SectionCustomerSuccess,
			ActionURL:  stringPtr("/customer-success/health/" + row.ID),
			EntityID:   &row.ID,
			EntityType: &entityType,
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, *notification)
	}

	return alerts, nil
}

// sla_breach: unresolved ticket past its committed resolution deadline
func (s *AlertService) checkSLABreach(ctx context.Context) ([]model.Notification, error) {
	candidates, err := s.store.BreachedTickets(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []model.Notification{}
	for _, row := range candidates {
		row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
		entityType := "support_ticket"
		notification, err := s.create(ctx, model.NotificationCreate{
			Type:     model.NotificationSLABreach,
			Severity: model.SeverityCritical,
			Title:    fmt.Sprintf("SLA breach: %s", row.Subject),
			Message: fmt.Sprintf("Support ticket %q for %s has exceeded its SLA resolution deadline (%s). Priority: %s.",
				row.Subject, row.CustomerName, row.SLAResolutionDue.Format(time.RFC3339), row.Priority),
			Section:    model.SectionCustomerSuccess,
			ActionURL:  stringPtr("/customer-success/tickets/" + row.ID),
			EntityID:   &row.ID,
			EntityType: &entityType,
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, *notification)
	}

	return alerts, nil
}

// tax_deadline: uncompleted tax event due inside 7/14/30 days
func (s *AlertService) checkTaxDeadline(ctx context.Context) ([]model.Notification, error) {
	thresholds := []struct {
		days     int
		severity string
	}{
		{7, model.SeverityCritical},
		{14, model.SeverityHigh},
		{30, model.SeverityMedium},
	}

	alerts := []model.Notification{}
	for _, t := range thresholds {
		candidates, err := s.store.TaxEventsDueWithin(ctx, t.days, t.severity)
		if err != nil {
			return alerts, err
		}

		for _, row := range candidates {
			row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
			daysLeft := daysUntil(row.DueDate, s.now())
			message := fmt.Sprintf("%s: %q is due on %s.", row.EventType, row.Title, row.DueDate.Format("2006-01-02"))
			if row.Amount != nil {
				message += fmt.Sprintf(" Amount: $%s.", formatAmount(*row.Amount))
			}

			entityType := "tax_event"
			notification, err := s.create(ctx, model.NotificationCreate{
				Type:       model.NotificationTaxDeadline,
				Severity:   t.severity,
				Title:      fmt.Sprintf("Tax deadline in %d days: %s", daysLeft, row.Title),
				Message:    message,
				Section:    model.SectionFinance,
				ActionURL:  stringPtr("/finance/tax-events/" + row.ID),
				EntityID:   &row.ID,
				EntityType: &entityType,
			})
			if err != nil {
				return alerts, err
			}
			alerts = append(alerts, *notification)
		}
	}

	return alerts, nil
}

// budget_warning: spend past 80% of allocation, escalating at 90% and 100%
func (s *AlertService) checkBudgetWarning(ctx context.Context) ([]model.Notification, error) {
	candidates, err := s.store.OverspentBudgets(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []model.Notification{}
	for _, row := range candidates {
		row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
		utilization := int(math.Round(row.Spent / row.Allocated * 100))

		severity := model.SeverityMedium
		label := "warning"
		switch {
		case utilization >= 100:
			severity = model.SeverityCritical
			label = "exceeded"
		case utilization >= 90:
			severity = model.SeverityHigh
		}

		entityType := "budget"
		notification, err := s.create(ctx, model.NotificationCreate{
			Type:     model.NotificationBudgetWarning,
			Severity: severity,
			Title:    fmt.Sprintf("Budget %s: %s (%s)", label, row.Category, row.Period),
			Message: fmt.Sprintf("Budget for %s (%s) is at %d%% utilization. Spent: $%s / Allocated: $%s.",
				row.Category, row.Period, utilization, formatAmount(row.Spent), formatAmount(row.Allocated)),
			Section:    model.SectionFinance,
			ActionURL:  stringPtr("/finance/budgets/" + row.ID),
			EntityID:   &row.ID,
			EntityType: &entityType,
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, *notification)
	}

	return alerts, nil
}

// invoice_overdue: unpaid invoice past due, escalating with age
func (s *AlertService) checkInvoiceOverdue(ctx context.Context) ([]model.Notification, error) {
	candidates, err := s.store.OverdueInvoices(ctx)
	if err != nil {
		return nil, err
	}

	alerts := []model.Notification{}
	for _, row := range candidates {
		row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
		daysOverdue := daysUntil(s.now(), row.DueDate)

		severity := model.SeverityMedium
		switch {
		case daysOverdue >= 30:
			severity = model.SeverityCritical
		case daysOverdue >= 14:
			severity = model.SeverityHigh
		}

		entityType := "invoice"
		notification, err := s.create(ctx, model.NotificationCreate{
			Type:     model.NotificationInvoiceOverdue,
			Severity: severity,
			Title:    fmt.Sprintf("Invoice overdue: %s (%d days)", row.InvoiceNumber, daysOverdue),
			Message: fmt.Sprintf("Invoice %s for %s is %d days overdue. Amount: $%s.",
				row.InvoiceNumber, row.CustomerName, daysOverdue, formatAmount(row.Total)),
			Section:    model.SectionFinance,
			ActionURL:  stringPtr("/finance/invoices/" + row.ID),
			EntityID:   &row.ID,
			EntityType: &entityType,
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, *notification)
	}

	return alerts, nil
}

// goal_behind: open objective whose progress trails the elapsed share of its
// quarter (or 90-day due-date window) by more than 15 points
func (s *AlertService) checkGoalBehind(ctx context.Context) ([]model.Notification, error) {
	candidates, err := s.store.LaggingObjectives(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	alerts := []model.Notification{}
	for _, row := range candidates {
		row := row // per-iteration copy; &row.ID escapes (pre-go1.22 loopvar)
		expected, ok := expectedProgress(row, now)
		if !ok {
			continue
		}

		gap := expected - row.Progress
		if gap <= 15 {
			continue
		}

		severity := model.SeverityMedium
		switch {
		case gap > 40:
			severity = model.SeverityCritical
		case gap > 25:
			severity = model.SeverityHigh
		}

		section := model.SectionGoals
		if row.BusinessArea != nil && *row.BusinessArea != "" {
			section = *row.BusinessArea
		}

		entityType := "goal"
		notification, err := s.create(ctx, model.NotificationCreate{
			Type:     model.NotificationGoalBehind,
			Severity: severity,
			Title:    fmt.Sprintf("Goal behind schedule: %s", row.Title),
			Message: fmt.Sprintf("%q is at %d%% progress but expected to be at %d%% based on time elapsed. Gap: %d%%.",
				row.Title, row.Progress, expected, gap),
			Section:    section,
			ActionURL:  stringPtr("/goals/" + row.ID),
			EntityID:   &row.ID,
			EntityType: &entityType,
		})
		if err != nil {
			return alerts, err
		}
		alerts = append(alerts, *notification)
	}

	return alerts, nil
}

// daysUntil counts whole days from now to a deadline, rounding partial days up
func daysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

func stringPtr(s string) *string {
	return &s
}
