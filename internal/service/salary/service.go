package salary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/domain/schedule"
	"github.com/klaslink/school-backend-go/internal/pkg/cache"
)

type SalaryServiceImpl struct {
	repo    salary.Repository
	reports *cache.ReportCache
	logger  *slog.Logger

	reconciler *Reconciler
	earnings   *EarningsAccumulator
	deductions *DeductionEngine
	bonuses    *BonusAggregator

	// Fallback Sunday policy when the school has no stored settings.
	defaultIncludeSundays bool
}

func NewSalaryService(
	repo salary.Repository,
	reports *cache.ReportCache,
	logger *slog.Logger,
	defaultIncludeSundays bool,
) salary.Service {
	return &SalaryServiceImpl{
		repo:                  repo,
		reports:               reports,
		logger:                logger,
		reconciler:            NewReconciler(repo),
		earnings:              NewEarningsAccumulator(repo),
		deductions:            NewDeductionEngine(repo),
		bonuses:               NewBonusAggregator(repo),
		defaultIncludeSundays: defaultIncludeSundays,
	}
}

// CalculateTeacherSalary returns the memoized report when one exists, else
// computes and caches it. Internal failures produce a zeroed report so a
// payroll run survives one bad record; the failure is logged, never raised.
func (s *SalaryServiceImpl) CalculateTeacherSalary(ctx context.Context, teacherID string, from, to time.Time) salary.TeacherSalaryReport {
	from = schedule.DateOnly(from)
	to = schedule.DateOnly(to)

	key := cache.Key(teacherID, from, to)
	if report, ok := s.reports.Get(key); ok {
		return report
	}

	report, err := s.computeSafe(ctx, teacherID, from, to)
	if err != nil {
		s.logger.Warn("salary calculation failed",
			slog.String("teacher_id", teacherID),
			slog.String("from", from.Format(dateLayout)),
			slog.String("to", to.Format(dateLayout)),
			slog.String("error", err.Error()),
		)
		return salary.ZeroedReport(teacherID, from.Format(dateLayout), to.Format(dateLayout))
	}

	s.reports.Set(key, report)
	return report
}

// computeSafe converts a panic inside a single computation into an error so
// one corrupt record cannot take down a batch run.
func (s *SalaryServiceImpl) computeSafe(ctx context.Context, teacherID string, from, to time.Time) (report salary.TeacherSalaryReport, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("salary computation panicked: %v", p)
		}
	}()
	return s.compute(ctx, teacherID, from, to)
}

func (s *SalaryServiceImpl) compute(ctx context.Context, teacherID string, from, to time.Time) (salary.TeacherSalaryReport, error) {
	var report salary.TeacherSalaryReport

	if to.Before(from) {
		return report, salary.ErrInvalidPeriod
	}

	// GetTeacher is a direct lookup, not a roster query: it resolves teachers
	// that only appear in session-event data. A truly unknown id fails here
	// and surfaces as a zeroed report.
	teacher, err := s.repo.GetTeacher(ctx, teacherID)
	if err != nil {
		return report, fmt.Errorf("get teacher: %w", err)
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		if !errors.Is(err, salary.ErrSettingsNotFound) {
			return report, fmt.Errorf("get settings: %w", err)
		}
		settings = salary.Settings{IncludeSundays: s.defaultIncludeSundays}
	}

	reconciled, err := s.reconciler.Reconcile(ctx, teacherID, from, to, settings.IncludeSundays)
	if err != nil {
		return report, fmt.Errorf("reconcile teaching records: %w", err)
	}

	earned, err := s.earnings.Accumulate(ctx, teacherID, reconciled.Periods, settings.IncludeSundays)
	if err != nil {
		return report, fmt.Errorf("accumulate earnings: %w", err)
	}

	lateness, err := s.deductions.Lateness(ctx, teacherID, reconciled.Periods, from, to)
	if err != nil {
		return report, fmt.Errorf("lateness deductions: %w", err)
	}

	absence, err := s.deductions.Absence(ctx, teacherID, reconciled.Periods, from, to, settings.IncludeSundays)
	if err != nil {
		return report, fmt.Errorf("absence deductions: %w", err)
	}

	bonuses, err := s.bonuses.Total(ctx, teacherID, from, to)
	if err != nil {
		return report, fmt.Errorf("bonuses: %w", err)
	}

	paymentStatus, err := s.repo.GetPaymentStatus(ctx, teacherID, from, to)
	if err != nil {
		if !errors.Is(err, salary.ErrPaymentStatusMissing) {
			return report, fmt.Errorf("get payment status: %w", err)
		}
		paymentStatus = salary.PaymentUnpaid
	}

	total := earned.TotalBaseSalary.Sub(lateness.Total).Sub(absence.Total).Add(bonuses)

	return salary.TeacherSalaryReport{
		TeacherID:         teacher.ID,
		TeacherName:       teacher.Name,
		PeriodStart:       from.Format(dateLayout),
		PeriodEnd:         to.Format(dateLayout),
		BaseSalary:        earned.TotalBaseSalary,
		LatenessDeduction: lateness.Total,
		AbsenceDeduction:  absence.Total,
		Bonuses:           bonuses,
		TotalSalary:       total,
		PaymentStatus:     paymentStatus,
		TeachingDays:      earned.TeachingDays,
		StudentCount:      earned.ActiveStudentCount,
		HasTeacherChanges: reconciled.HasTeacherChanges,
		DailyEarnings:     earned.DailyEarnings,
		Students:          earned.Students,
		LatenessItems:     lateness.Items,
		AbsenceItems:      absence.Items,
		Diagnostics:       reconciled.Diagnostics,
	}, nil
}

// CalculateAllTeacherSalaries computes every teacher in isolation: roster
// teachers plus any teacher id that only appears on session events. Failed
// computations are omitted; one bad record never breaks the run.
func (s *SalaryServiceImpl) CalculateAllTeacherSalaries(ctx context.Context, from, to time.Time) []salary.TeacherSalaryReport {
	from = schedule.DateOnly(from)
	to = schedule.DateOnly(to)

	ids := make(map[string]bool)

	teachers, err := s.repo.ListTeachers(ctx)
	if err != nil {
		s.logger.Warn("list teachers failed", slog.String("error", err.Error()))
	}
	for _, t := range teachers {
		ids[t.ID] = true
	}

	eventTeacherIDs, err := s.repo.ListEventTeacherIDs(ctx, from, to)
	if err != nil {
		s.logger.Warn("list event teacher ids failed", slog.String("error", err.Error()))
	}
	for _, id := range eventTeacherIDs {
		ids[id] = true
	}

	ordered := make([]string, 0, len(ids))
	for id := range ids {
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	results := make([]salary.TeacherSalaryReport, len(ordered))
	var wg sync.WaitGroup
	for i, teacherID := range ordered {
		wg.Add(1)
		go func(i int, teacherID string) {
			defer wg.Done()
			results[i] = s.CalculateTeacherSalary(ctx, teacherID, from, to)
		}(i, teacherID)
	}
	wg.Wait()

	reports := make([]salary.TeacherSalaryReport, 0, len(results))
	for _, r := range results {
		if r.CalculationFailed {
			continue
		}
		reports = append(reports, r)
	}
	return reports
}

// ========== CACHE INVALIDATION HOOKS ==========

func (s *SalaryServiceImpl) OnTeacherChangeRecorded(teacherIDs ...string) {
	for _, id := range teacherIDs {
		s.reports.InvalidateTeacher(id)
	}
}

func (s *SalaryServiceImpl) OnSessionEventCreated(teacherID string) {
	s.reports.InvalidateTeacher(teacherID)
}

func (s *SalaryServiceImpl) OnWaiverCreated(teacherID string) {
	s.reports.InvalidateTeacher(teacherID)
}
