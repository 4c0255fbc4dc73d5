package salary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// Reconciler rebuilds what a teacher actually taught during a window from
// four independent record sources. Assignment rows get deleted or rewritten
// when a student changes status or teacher, so the reconstruction falls back
// through an explicit precedence order: change history > assignment >
// session-event bounds.
type Reconciler struct {
	repo salary.Repository
}

func NewReconciler(repo salary.Repository) *Reconciler {
	return &Reconciler{repo: repo}
}

// ReconcileResult carries the reconciled periods plus diagnostics for
// discrepancies that were resolved rather than surfaced as errors.
type ReconcileResult struct {
	Periods           []salary.TeachingPeriod
	HasTeacherChanges bool
	Diagnostics       []string
}

// Reconcile returns one TeachingPeriod per (student, window) the teacher held
// within [from, to]. A student may appear twice only when history shows the
// teacher returning after being replaced.
func (r *Reconciler) Reconcile(ctx context.Context, teacherID string, from, to time.Time, includeSundays bool) (ReconcileResult, error) {
	from = schedule.DateOnly(from)
	to = schedule.DateOnly(to)

	var result ReconcileResult

	assignments, err := r.repo.GetAssignments(ctx, teacherID, from, to)
	if err != nil {
		return result, fmt.Errorf("get assignments: %w", err)
	}

	changes, err := r.repo.GetTeacherChangeRecords(ctx, teacherID, from, to)
	if err != nil {
		return result, fmt.Errorf("get teacher change records: %w", err)
	}
	result.HasTeacherChanges = len(changes) > 0

	events, err := r.repo.GetSessionEvents(ctx, teacherID, "", from, to)
	if err != nil {
		return result, fmt.Errorf("get session events: %w", err)
	}

	// Candidate union across all sources. Students in inactive states with
	// lingering session events arrive through the event source; no separate
	// per-status query is needed.
	assignmentByStudent := make(map[string]salary.Assignment)
	for _, a := range assignments {
		assignmentByStudent[a.StudentID] = a
	}
	changesByStudent := make(map[string][]salary.TeacherChangeRecord)
	for _, c := range changes {
		changesByStudent[c.StudentID] = append(changesByStudent[c.StudentID], c)
	}
	eventsByStudent := make(map[string][]salary.SessionEvent)
	for _, e := range events {
		eventsByStudent[e.StudentID] = append(eventsByStudent[e.StudentID], e)
	}

	candidates := make(map[string]bool)
	for id := range assignmentByStudent {
		candidates[id] = true
	}
	for id := range changesByStudent {
		candidates[id] = true
	}
	for id := range eventsByStudent {
		candidates[id] = true
	}

	studentIDs := make([]string, 0, len(candidates))
	for id := range candidates {
		studentIDs = append(studentIDs, id)
	}
	sort.Strings(studentIDs)

	for _, studentID := range studentIDs {
		student, err := r.repo.GetStudent(ctx, studentID)
		if err != nil {
			if errors.Is(err, salary.ErrStudentNotFound) {
				result.Diagnostics = append(result.Diagnostics,
					fmt.Sprintf("student %s referenced by records but not found; skipped", studentID))
				continue
			}
			return result, fmt.Errorf("get student %s: %w", studentID, err)
		}

		history := changesByStudent[studentID]
		if len(history) > 0 {
			periods := r.periodsFromHistory(teacherID, student, history, from, to, includeSundays)
			result.Periods = append(result.Periods, periods...)
			continue
		}

		period, diag, ok := r.periodWithoutHistory(ctx, teacherID, student,
			assignmentByStudent[studentID], eventsByStudent[studentID], from, to, includeSundays)
		if diag != "" {
			result.Diagnostics = append(result.Diagnostics, diag)
		}
		if ok {
			result.Periods = append(result.Periods, period)
		}
	}

	sort.Slice(result.Periods, func(i, j int) bool {
		if result.Periods[i].StudentID != result.Periods[j].StudentID {
			return result.Periods[i].StudentID < result.Periods[j].StudentID
		}
		return result.Periods[i].Start.Before(result.Periods[j].Start)
	})

	return result, nil
}

// periodsFromHistory splits a student's timeline using the append-only change
// records. An old-teacher record does not store when the teacher started; when
// no prior in-window record shows them taking over, the window start is the
// best reconstruction. The change date itself belongs to the incoming teacher,
// so old-teacher periods end the day before.
func (r *Reconciler) periodsFromHistory(teacherID string, student salary.Student, history []salary.TeacherChangeRecord, from, to time.Time, includeSundays bool) []salary.TeachingPeriod {
	sort.Slice(history, func(i, j int) bool {
		return history[i].ChangeDate.Before(history[j].ChangeDate)
	})

	var periods []salary.TeachingPeriod
	for i, rec := range history {
		changeDate := schedule.DateOnly(rec.ChangeDate)

		if rec.OldTeacherID != nil && *rec.OldTeacherID == teacherID {
			// If an earlier in-window record made this teacher the new teacher,
			// that record's branch already emitted the period; emitting it here
			// too would duplicate it.
			covered := false
			for j := i - 1; j >= 0; j-- {
				if history[j].NewTeacherID == teacherID {
					covered = true
					break
				}
			}
			if !covered {
				end := changeDate.AddDate(0, 0, -1)
				if p, ok := r.buildHistoryPeriod(student, rec, from, end, from, to, salary.RoleOld, includeSundays); ok {
					periods = append(periods, p)
				}
			}
		}

		if rec.NewTeacherID == teacherID {
			start := changeDate
			end := to
			if i+1 < len(history) {
				end = schedule.DateOnly(history[i+1].ChangeDate).AddDate(0, 0, -1)
			}
			if p, ok := r.buildHistoryPeriod(student, rec, start, end, from, to, salary.RoleNew, includeSundays); ok {
				periods = append(periods, p)
			}
		}
	}

	return periods
}

func (r *Reconciler) buildHistoryPeriod(student salary.Student, rec salary.TeacherChangeRecord, start, end, from, to time.Time, role salary.PeriodRole, includeSundays bool) (salary.TeachingPeriod, bool) {
	start, end, ok := clamp(start, end, from, to)
	if !ok {
		return salary.TeachingPeriod{}, false
	}

	pattern := rec.DayPattern
	if pattern == "" {
		pattern = student.DayPattern
	}

	monthlyRate := rec.MonthlyRate
	dailyRate := rec.DailyRate
	if dailyRate.IsZero() && !monthlyRate.IsZero() {
		dailyRate = dailyRateFor(monthlyRate, start, pattern, includeSundays)
	}

	pkg := rec.Package
	if pkg == "" {
		pkg = student.Package
	}

	return salary.TeachingPeriod{
		StudentID:   student.ID,
		StudentName: student.Name,
		Start:       start,
		End:         end,
		Package:     pkg,
		MonthlyRate: monthlyRate,
		DailyRate:   dailyRate,
		DayPattern:  pattern,
		TimeSlot:    rec.TimeSlot,
		Role:        role,
		Source:      salary.SourceHistory,
	}, true
}

// periodWithoutHistory derives a period from the assignment row when it is
// present and consistent with the session events; otherwise the events bound
// the period. Evidence wins over a malformed or deleted assignment.
func (r *Reconciler) periodWithoutHistory(ctx context.Context, teacherID string, student salary.Student, assignment salary.Assignment, events []salary.SessionEvent, from, to time.Time, includeSundays bool) (salary.TeachingPeriod, string, bool) {
	firstEvent, lastEvent, hasEvents := eventBounds(events)

	start, end := from, to
	source := salary.SourceEvents
	timeSlot := ""
	pattern := student.DayPattern
	var diag string

	if assignment.ID != "" {
		aStart := schedule.DateOnly(assignment.StartDate)
		aEnd := to
		if assignment.EndDate != nil {
			aEnd = schedule.DateOnly(*assignment.EndDate)
		}

		collapsed := !aEnd.After(aStart)
		disagrees := hasEvents && (firstEvent.Before(aStart) || lastEvent.After(aEnd))

		if collapsed || disagrees {
			diag = fmt.Sprintf("assignment %s for student %s discarded (collapsed=%v, event range disagrees=%v); using session-event bounds",
				assignment.ID, student.ID, collapsed, disagrees)
		} else {
			start, end = aStart, aEnd
			source = salary.SourceAssignment
			timeSlot = assignment.TimeSlot
			if assignment.DayPattern != "" {
				pattern = assignment.DayPattern
			}
		}
	}

	if source == salary.SourceEvents {
		if !hasEvents {
			return salary.TeachingPeriod{}, diag, false
		}
		start, end = firstEvent, lastEvent
	}

	start, end, ok := clamp(start, end, from, to)
	if !ok {
		return salary.TeachingPeriod{}, diag, false
	}

	monthlyRate, err := r.repo.GetPackageRate(ctx, student.Package)
	if err != nil {
		// Missing rate is non-fatal: the student stays in the breakdown and
		// simply contributes no earnings.
		monthlyRate = decimal.Zero
	}
	dailyRate := decimal.Zero
	if !monthlyRate.IsZero() {
		dailyRate = dailyRateFor(monthlyRate, start, pattern, includeSundays)
	}

	return salary.TeachingPeriod{
		StudentID:   student.ID,
		StudentName: student.Name,
		Start:       start,
		End:         end,
		Package:     student.Package,
		MonthlyRate: monthlyRate,
		DailyRate:   dailyRate,
		DayPattern:  pattern,
		TimeSlot:    timeSlot,
		Role:        salary.RoleNew,
		Source:      source,
		Note:        diag,
	}, diag, true
}

// dailyRateFor divides the monthly rate by the student's own expected
// teaching days in the month containing the period start.
func dailyRateFor(monthlyRate decimal.Decimal, periodStart time.Time, pattern string, includeSundays bool) decimal.Decimal {
	monthStart, monthEnd := schedule.MonthBounds(periodStart)
	days := schedule.TeachingDaysInMonth(monthStart, monthEnd, pattern, includeSundays)
	if days == 0 {
		return decimal.Zero
	}
	return monthlyRate.Div(decimal.NewFromInt(int64(days))).Round(2)
}

func eventBounds(events []salary.SessionEvent) (first, last time.Time, ok bool) {
	for _, e := range events {
		d := schedule.DateOnly(e.SentAt)
		if !ok {
			first, last, ok = d, d, true
			continue
		}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	return first, last, ok
}

func clamp(start, end, from, to time.Time) (time.Time, time.Time, bool) {
	if start.Before(from) {
		start = from
	}
	if end.After(to) {
		end = to
	}
	if end.Before(start) {
		return start, end, false
	}
	return start, end, true
}
