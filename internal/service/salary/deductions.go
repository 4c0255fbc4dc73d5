package salary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
)

// DeductionEngine computes lateness and absence deductions over reconciled
// periods. Every deduction amount derives from that student's own daily rate.
type DeductionEngine struct {
	repo salary.Repository
}

func NewDeductionEngine(repo salary.Repository) *DeductionEngine {
	return &DeductionEngine{repo: repo}
}

type LatenessResult struct {
	Total decimal.Decimal
	Items []salary.LatenessItem
}

type AbsenceResult struct {
	Total decimal.Decimal
	Items []salary.AbsenceItem
}

// DefaultLatenessConfig applies when a teacher has no tier table configured.
func DefaultLatenessConfig() salary.LatenessTierConfig {
	return salary.LatenessTierConfig{
		ExcusedThreshold: 5,
		Tiers: []salary.LatenessTier{
			{StartMinute: 0, EndMinute: 10, Percent: decimal.Zero},
			{StartMinute: 11, EndMinute: 30, Percent: decimal.NewFromInt(25)},
			{StartMinute: 31, EndMinute: 60, Percent: decimal.NewFromInt(50)},
		},
	}
}

// Lateness evaluates only the earliest session event per (student, day);
// later events the same day are not separately penalized. A waiver matching
// the event's date suppresses the deduction but keeps the itemized row.
func (d *DeductionEngine) Lateness(ctx context.Context, teacherID string, periods []salary.TeachingPeriod, from, to time.Time) (LatenessResult, error) {
	result := LatenessResult{Total: decimal.Zero}

	config, err := d.repo.GetLatenessTierConfig(ctx, teacherID)
	if err != nil {
		if !errors.Is(err, salary.ErrLatenessConfigMissing) {
			return result, fmt.Errorf("get lateness tier config: %w", err)
		}
		config = DefaultLatenessConfig()
	}
	tiers := append([]salary.LatenessTier(nil), config.Tiers...)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].StartMinute < tiers[j].StartMinute })

	waivers, err := d.repo.GetWaivers(ctx, teacherID, salary.WaiverLateness, from, to)
	if err != nil {
		return result, fmt.Errorf("get lateness waivers: %w", err)
	}

	evaluated := make(map[string]bool) // studentID|date

	for _, period := range periods {
		slotMinutes, ok := slotStartMinutes(period.TimeSlot)
		if !ok {
			continue // no usable scheduled time for this period
		}

		events, err := d.repo.GetSessionEvents(ctx, teacherID, period.StudentID, period.Start, period.End)
		if err != nil {
			return result, fmt.Errorf("get session events for student %s: %w", period.StudentID, err)
		}

		earliest := earliestEventPerDay(events, period.Start, period.End)

		dates := make([]string, 0, len(earliest))
		for k := range earliest {
			dates = append(dates, k)
		}
		sort.Strings(dates)

		for _, dateKey := range dates {
			dedupKey := period.StudentID + "|" + dateKey
			if evaluated[dedupKey] {
				continue
			}
			evaluated[dedupKey] = true

			event := earliest[dateKey]
			minutes := event.SentAt.Hour()*60 + event.SentAt.Minute() - slotMinutes
			if minutes < 0 || minutes < config.ExcusedThreshold {
				continue
			}

			var tierPercent decimal.Decimal
			matched := false
			for _, tier := range tiers {
				if minutes >= tier.StartMinute && minutes <= tier.EndMinute {
					tierPercent = tier.Percent
					matched = true
					break
				}
			}
			if !matched || tierPercent.IsZero() {
				continue
			}

			amount := period.DailyRate.Mul(tierPercent).Div(decimal.NewFromInt(100)).Round(2)
			waived := waiverApplies(waivers, dateKey, period.StudentName)

			result.Items = append(result.Items, salary.LatenessItem{
				StudentID:   period.StudentID,
				StudentName: period.StudentName,
				Date:        dateKey,
				Minutes:     minutes,
				TierPercent: tierPercent,
				Amount:      amount,
				Waived:      waived,
			})
			if !waived {
				result.Total = result.Total.Add(amount)
			}
		}
	}

	return result, nil
}

// Absence deducts a full daily rate for each expected day with no session
// event, no Permission marker, and no covering waiver. Waived rows still
// appear in the itemized list with a zero contribution to the total.
//
// Day-of-month 31 is always excluded from absence evaluation: a long-standing
// workaround for a month-boundary mismatch between the business timezone and
// record timestamps.
func (d *DeductionEngine) Absence(ctx context.Context, teacherID string, periods []salary.TeachingPeriod, from, to time.Time, includeSundays bool) (AbsenceResult, error) {
	result := AbsenceResult{Total: decimal.Zero}

	waivers, err := d.repo.GetWaivers(ctx, teacherID, salary.WaiverAbsence, from, to)
	if err != nil {
		return result, fmt.Errorf("get absence waivers: %w", err)
	}

	evaluated := make(map[string]bool) // studentID|date

	for _, period := range periods {
		events, err := d.repo.GetSessionEvents(ctx, teacherID, period.StudentID, period.Start, period.End)
		if err != nil {
			return result, fmt.Errorf("get session events for student %s: %w", period.StudentID, err)
		}
		markers, err := d.repo.GetAttendanceMarkers(ctx, period.StudentID, period.Start, period.End)
		if err != nil {
			return result, fmt.Errorf("get attendance markers for student %s: %w", period.StudentID, err)
		}

		covered := make(map[string]bool)
		for _, e := range events {
			covered[schedule.DateOnly(e.SentAt).Format(dateLayout)] = true
		}
		for _, m := range markers {
			if m.Status == salary.AttendancePermission {
				covered[schedule.DateOnly(m.Date).Format(dateLayout)] = true
			}
		}

		for _, day := range schedule.Expand(period.Start, period.End, period.DayPattern, includeSundays) {
			if day.Day() == 31 {
				continue
			}
			if !schedule.ValidDate(day.Year(), day.Month(), day.Day()) {
				continue
			}

			dateKey := day.Format(dateLayout)
			dedupKey := period.StudentID + "|" + dateKey
			if evaluated[dedupKey] || covered[dateKey] {
				continue
			}
			evaluated[dedupKey] = true

			if period.DailyRate.IsZero() {
				continue
			}

			waived := waiverApplies(waivers, dateKey, period.StudentName)

			result.Items = append(result.Items, salary.AbsenceItem{
				StudentID:   period.StudentID,
				StudentName: period.StudentName,
				Date:        dateKey,
				Amount:      period.DailyRate,
				Waived:      waived,
			})
			if !waived {
				result.Total = result.Total.Add(period.DailyRate)
			}
		}
	}

	return result, nil
}

// waiverApplies checks the date match first; a waiver with no enumerated
// students is a legacy blanket waiver for its date.
func waiverApplies(waivers []salary.DeductionWaiver, dateKey, studentName string) bool {
	for _, w := range waivers {
		if schedule.DateOnly(w.Date).Format(dateLayout) != dateKey {
			continue
		}
		if w.Covers(studentName) {
			return true
		}
	}
	return false
}

func earliestEventPerDay(events []salary.SessionEvent, from, to time.Time) map[string]salary.SessionEvent {
	earliest := make(map[string]salary.SessionEvent)
	for _, e := range events {
		d := schedule.DateOnly(e.SentAt)
		if d.Before(from) || d.After(to) {
			continue
		}
		key := d.Format(dateLayout)
		if cur, ok := earliest[key]; !ok || e.SentAt.Before(cur.SentAt) {
			earliest[key] = e
		}
	}
	return earliest
}

// slotStartMinutes parses the start of a time-slot string ("14:00" or
// "14:00-15:00") into minutes since midnight.
func slotStartMinutes(slot string) (int, bool) {
	s := strings.TrimSpace(slot)
	if s == "" {
		return 0, false
	}
	s = strings.TrimSpace(strings.Split(s, "-")[0])

	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}
