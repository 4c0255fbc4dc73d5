package salary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// EarningsAccumulator walks reconciled periods and turns worked days into
// base pay. A day counts as worked when a session event or an approved
// Permission marker falls on an expected teaching day.
type EarningsAccumulator struct {
	repo salary.Repository
}

func NewEarningsAccumulator(repo salary.Repository) *EarningsAccumulator {
	return &EarningsAccumulator{repo: repo}
}

type EarningsResult struct {
	TotalBaseSalary    decimal.Decimal
	DailyEarnings      []salary.DailyEarning
	Students           []salary.StudentBreakdown
	TeachingDays       int
	ActiveStudentCount int
}

// Accumulate credits each worked day once per student across all periods.
// This is the single deduplication point: a student legitimately appearing in
// two periods for the same teacher (teacher returned after being replaced)
// cannot produce double pay for an overlapping date.
func (a *EarningsAccumulator) Accumulate(ctx context.Context, teacherID string, periods []salary.TeachingPeriod, includeSundays bool) (EarningsResult, error) {
	result := EarningsResult{TotalBaseSalary: decimal.Zero}

	creditedByStudent := make(map[string]map[string]bool)
	dailyTotals := make(map[string]decimal.Decimal)
	distinctDays := make(map[string]bool)

	type studentAgg struct {
		breakdown salary.StudentBreakdown
	}
	students := make(map[string]*studentAgg)
	var studentOrder []string

	for _, period := range periods {
		agg, seen := students[period.StudentID]
		if !seen {
			agg = &studentAgg{breakdown: salary.StudentBreakdown{
				StudentID:   period.StudentID,
				StudentName: period.StudentName,
				Package:     period.Package,
				MonthlyRate: period.MonthlyRate,
				DailyRate:   period.DailyRate,
				Earned:      decimal.Zero,
			}}
			students[period.StudentID] = agg
			studentOrder = append(studentOrder, period.StudentID)
		}
		agg.breakdown.Periods = append(agg.breakdown.Periods, salary.PeriodDetail{
			Start:  period.Start.Format(dateLayout),
			End:    period.End.Format(dateLayout),
			Role:   string(period.Role),
			Source: string(period.Source),
			Note:   period.Note,
		})

		workedDates, err := a.workedDates(ctx, teacherID, period, includeSundays)
		if err != nil {
			return result, err
		}

		if creditedByStudent[period.StudentID] == nil {
			creditedByStudent[period.StudentID] = make(map[string]bool)
		}
		credited := creditedByStudent[period.StudentID]

		for _, d := range workedDates {
			key := d.Format(dateLayout)
			if credited[key] {
				continue // already paid for this date in an earlier period
			}
			credited[key] = true

			dailyTotals[key] = dailyTotals[key].Add(period.DailyRate)
			distinctDays[key] = true

			agg.breakdown.DaysWorked++
			agg.breakdown.Earned = agg.breakdown.Earned.Add(period.DailyRate)
			result.TotalBaseSalary = result.TotalBaseSalary.Add(period.DailyRate)
		}
	}

	dayKeys := make([]string, 0, len(dailyTotals))
	for k := range dailyTotals {
		dayKeys = append(dayKeys, k)
	}
	sort.Strings(dayKeys)
	for _, k := range dayKeys {
		result.DailyEarnings = append(result.DailyEarnings, salary.DailyEarning{
			Date:   k,
			Amount: dailyTotals[k],
		})
	}

	for _, id := range studentOrder {
		b := students[id].breakdown
		result.Students = append(result.Students, b)
		if b.Earned.IsPositive() {
			result.ActiveStudentCount++
		}
	}
	result.TeachingDays = len(distinctDays)

	return result, nil
}

// workedDates intersects the period's expected days with the days a session
// event or Permission marker exists. For an "All days" pattern the calendar
// pre-expansion is skipped: any evidence day is a valid day, so the worked
// set is the evidence union directly (Sundays still subject to policy).
func (a *EarningsAccumulator) workedDates(ctx context.Context, teacherID string, period salary.TeachingPeriod, includeSundays bool) ([]time.Time, error) {
	events, err := a.repo.GetSessionEvents(ctx, teacherID, period.StudentID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("get session events for student %s: %w", period.StudentID, err)
	}

	markers, err := a.repo.GetAttendanceMarkers(ctx, period.StudentID, period.Start, period.End)
	if err != nil {
		return nil, fmt.Errorf("get attendance markers for student %s: %w", period.StudentID, err)
	}

	evidence := make(map[string]time.Time)
	for _, e := range events {
		d := schedule.DateOnly(e.SentAt)
		if d.Before(period.Start) || d.After(period.End) {
			continue
		}
		evidence[d.Format(dateLayout)] = d
	}
	for _, m := range markers {
		if m.Status != salary.AttendancePermission {
			continue
		}
		d := schedule.DateOnly(m.Date)
		if d.Before(period.Start) || d.After(period.End) {
			continue
		}
		evidence[d.Format(dateLayout)] = d
	}

	var worked []time.Time

	if schedule.IsAllDays(period.DayPattern) {
		for _, d := range evidence {
			if d.Weekday() == time.Sunday && !includeSundays {
				continue
			}
			worked = append(worked, d)
		}
	} else {
		expected := schedule.Expand(period.Start, period.End, period.DayPattern, includeSundays)
		for _, d := range expected {
			if _, ok := evidence[d.Format(dateLayout)]; ok {
				worked = append(worked, d)
			}
		}
	}

	sort.Slice(worked, func(i, j int) bool { return worked[i].Before(worked[j]) })
	return worked, nil
}
