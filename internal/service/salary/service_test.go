package salary

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/pkg/cache"
	"github.com/klaslink/school-backend-go/internal/repository/inmemory"
)

func newTestService(repo salary.Repository) (salary.Service, *cache.ReportCache) {
	reports := cache.NewReportCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSalaryService(repo, reports, logger, false), reports
}

// stubRepo lets tests inject a roster filter and a per-teacher failure on top
// of the in-memory repository.
type stubRepo struct {
	*inmemory.Repository
	panicTeacherID string
	roster         []salary.Teacher
}

func (r *stubRepo) GetTeacherChangeRecords(ctx context.Context, teacherID string, from, to time.Time) ([]salary.TeacherChangeRecord, error) {
	if teacherID == r.panicTeacherID {
		panic("corrupt change record for " + teacherID)
	}
	return r.Repository.GetTeacherChangeRecords(ctx, teacherID, from, to)
}

func (r *stubRepo) ListTeachers(ctx context.Context) ([]salary.Teacher, error) {
	if r.roster != nil {
		return r.roster, nil
	}
	return r.Repository.ListTeachers(ctx)
}

// seedHandover builds the mid-month teacher change scenario: one Gold student
// on an "All days" schedule, taught by t1 through Mar 15 and by t2 from
// Mar 16, with a session event on every non-Sunday day on each side.
func seedHandover(repo *inmemory.Repository) {
	repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	repo.AddTeacher(salary.Teacher{ID: "t2", Name: "Bu Rina"})
	student := repo.AddStudent(salary.Student{
		ID: "s1", Name: "Sari", Package: "Gold", DayPattern: "All days", Status: salary.StatusActive,
	})
	repo.PackageRates["Gold"] = money("1000")
	repo.Settings = &salary.Settings{IncludeSundays: false}
	repo.AddChangeRecord(salary.TeacherChangeRecord{
		StudentID:    student.ID,
		OldTeacherID: strPtr("t1"),
		NewTeacherID: "t2",
		ChangeDate:   d(2025, time.March, 16),
		DayPattern:   "All days",
		Package:      "Gold",
		MonthlyRate:  money("1000"),
		TimeSlot:     "10:00",
	})

	for day := 1; day <= 31; day++ {
		date := d(2025, time.March, day)
		if date.Weekday() == time.Sunday {
			continue
		}
		teacherID := "t1"
		if day >= 16 {
			teacherID = "t2"
		}
		repo.AddSessionEvent(salary.SessionEvent{
			TeacherID: teacherID,
			StudentID: student.ID,
			SentAt:    dt(2025, time.March, day, 10, 0),
		})
	}
}

func TestCalculateTeacherSalary_MidMonthHandover(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	seedHandover(repo)
	svc, _ := newTestService(repo)

	from, to := d(2025, time.March, 1), d(2025, time.March, 31)

	r1 := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)
	r2 := svc.CalculateTeacherSalary(context.Background(), "t2", from, to)

	// March 2025 has 26 non-Sunday days, so the Gold daily rate is 38.46.
	// Each teacher worked 13 of them.
	assert.Equal(t, 13, r1.TeachingDays)
	assert.True(t, r1.BaseSalary.Equal(money("499.98")), "got %s", r1.BaseSalary)
	assert.True(t, r1.AbsenceDeduction.IsZero(), "got %s", r1.AbsenceDeduction)
	assert.True(t, r1.LatenessDeduction.IsZero())
	assert.True(t, r1.TotalSalary.Equal(money("499.98")))
	assert.True(t, r1.HasTeacherChanges)
	assert.Equal(t, 1, r1.StudentCount)
	assert.Equal(t, salary.PaymentUnpaid, r1.PaymentStatus)
	assert.False(t, r1.CalculationFailed)

	assert.Equal(t, 13, r2.TeachingDays)
	assert.True(t, r2.BaseSalary.Equal(money("499.98")), "got %s", r2.BaseSalary)
	assert.True(t, r2.AbsenceDeduction.IsZero(), "got %s", r2.AbsenceDeduction)
	assert.True(t, r2.TotalSalary.Equal(money("499.98")))

	// No calendar date is paid to both teachers.
	r1Dates := make(map[string]bool)
	for _, e := range r1.DailyEarnings {
		r1Dates[e.Date] = true
		assert.LessOrEqual(t, e.Date, "2025-03-15")
	}
	for _, e := range r2.DailyEarnings {
		assert.False(t, r1Dates[e.Date], "date %s paid twice", e.Date)
		assert.GreaterOrEqual(t, e.Date, "2025-03-16")
	}
}

func TestCalculateTeacherSalary_PermissionDayPaidAbsenceDeducted(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	student := repo.AddStudent(salary.Student{
		ID: "s1", Name: "Budi", Package: "Basic", DayPattern: "MWF", Status: salary.StatusActive,
	})
	repo.PackageRates["Basic"] = money("900")
	repo.AddAssignment(salary.Assignment{
		TeacherID: "t1", StudentID: student.ID,
		TimeSlot:  "14:00",
		StartDate: d(2025, time.February, 3),
		EndDate:   timePtr(d(2025, time.February, 28)),
	})
	// Expected days in the window: Mon 3, Wed 5, Fri 7. The event pays Monday,
	// the Permission marker pays Wednesday, Friday deducts.
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "t1", StudentID: student.ID, SentAt: dt(2025, time.February, 3, 14, 0)})
	repo.AddAttendanceMarker(salary.AttendanceMarker{StudentID: student.ID, Date: d(2025, time.February, 5), Status: salary.AttendancePermission})

	svc, _ := newTestService(repo)
	report := svc.CalculateTeacherSalary(context.Background(), "t1", d(2025, time.February, 3), d(2025, time.February, 7))

	// February 2025 has 12 Mon/Wed/Fri days: 900 / 12 = 75 per day.
	assert.True(t, report.BaseSalary.Equal(money("150")), "got %s", report.BaseSalary)
	assert.True(t, report.AbsenceDeduction.Equal(money("75")), "got %s", report.AbsenceDeduction)
	assert.True(t, report.TotalSalary.Equal(money("75")), "got %s", report.TotalSalary)
	require.Len(t, report.AbsenceItems, 1)
	assert.Equal(t, "2025-02-07", report.AbsenceItems[0].Date)
}

func TestCalculateTeacherSalary_UnknownTeacherYieldsZeroedReport(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	svc, reports := newTestService(repo)

	report := svc.CalculateTeacherSalary(context.Background(), "nobody", d(2025, time.March, 1), d(2025, time.March, 31))

	assert.True(t, report.CalculationFailed)
	assert.Equal(t, "nobody", report.TeacherID)
	assert.True(t, report.TotalSalary.IsZero())
	assert.Equal(t, salary.PaymentUnpaid, report.PaymentStatus)
	assert.Equal(t, 0, reports.Len(), "failed reports are never cached")
}

func TestCalculateTeacherSalary_InvertedPeriodFails(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	svc, _ := newTestService(repo)

	report := svc.CalculateTeacherSalary(context.Background(), "t1", d(2025, time.March, 31), d(2025, time.March, 1))
	assert.True(t, report.CalculationFailed)
}

func TestCalculateTeacherSalary_CachedUntilInvalidated(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	student := repo.AddStudent(salary.Student{
		ID: "s1", Name: "Budi", Package: "Basic", DayPattern: "MWF", Status: salary.StatusActive,
	})
	repo.PackageRates["Basic"] = money("900")
	repo.AddAssignment(salary.Assignment{
		TeacherID: "t1", StudentID: student.ID,
		StartDate: d(2025, time.February, 3),
		EndDate:   timePtr(d(2025, time.February, 28)),
	})
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "t1", StudentID: student.ID, SentAt: dt(2025, time.February, 3, 14, 0)})

	svc, reports := newTestService(repo)
	from, to := d(2025, time.February, 3), d(2025, time.February, 5)

	first := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)
	assert.True(t, first.BaseSalary.Equal(money("75")))
	assert.Equal(t, 1, reports.Len())

	second := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)
	assert.Equal(t, first, second)

	// New evidence lands but nothing invalidates: the stale report is served.
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "t1", StudentID: student.ID, SentAt: dt(2025, time.February, 5, 14, 0)})
	stale := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)
	assert.True(t, stale.BaseSalary.Equal(money("75")))

	svc.OnSessionEventCreated("t1")
	assert.Equal(t, 0, reports.Len())

	fresh := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)
	assert.True(t, fresh.BaseSalary.Equal(money("150")), "got %s", fresh.BaseSalary)
	assert.True(t, fresh.AbsenceDeduction.IsZero())
}

func TestCalculateTeacherSalary_PaymentStatusFromRecords(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	from, to := d(2025, time.March, 1), d(2025, time.March, 31)
	repo.SetPaymentStatus("t1", from, to, salary.PaymentPaid)

	svc, _ := newTestService(repo)
	report := svc.CalculateTeacherSalary(context.Background(), "t1", from, to)

	assert.Equal(t, salary.PaymentPaid, report.PaymentStatus)
}

func TestCalculateAllTeacherSalaries_OneFailureDoesNotBreakTheRun(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	good := repo.AddTeacher(salary.Teacher{ID: "t1", Name: "Pak Adi"})
	repo.AddTeacher(salary.Teacher{ID: "tx", Name: "Corrupt"})
	repo.AddTeacher(salary.Teacher{ID: "t9", Name: "Bu Maya"})
	student := repo.AddStudent(salary.Student{
		ID: "s1", Name: "Budi", Package: "Basic", DayPattern: "MWF", Status: salary.StatusActive,
	})
	repo.PackageRates["Basic"] = money("900")
	repo.AddAssignment(salary.Assignment{
		TeacherID: "t1", StudentID: student.ID,
		StartDate: d(2025, time.February, 3),
		EndDate:   timePtr(d(2025, time.February, 28)),
	})
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "t1", StudentID: student.ID, SentAt: dt(2025, time.February, 3, 14, 0)})
	// t9 is off the roster but left session-event evidence; tx has evidence
	// and a record that panics the computation.
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "t9", StudentID: student.ID, SentAt: dt(2025, time.February, 3, 16, 0)})
	repo.AddSessionEvent(salary.SessionEvent{TeacherID: "tx", StudentID: student.ID, SentAt: dt(2025, time.February, 3, 18, 0)})

	stub := &stubRepo{
		Repository:     repo,
		panicTeacherID: "tx",
		roster:         []salary.Teacher{good},
	}
	svc, _ := newTestService(stub)

	results := svc.CalculateAllTeacherSalaries(context.Background(), d(2025, time.February, 3), d(2025, time.February, 7))

	require.Len(t, results, 2)
	assert.Equal(t, "t1", results[0].TeacherID)
	assert.Equal(t, "t9", results[1].TeacherID, "evidence-only teachers are included via their events")
	assert.True(t, results[0].BaseSalary.Equal(money("75")))
	assert.True(t, results[1].BaseSalary.Equal(money("75")))
}

func TestBonusAggregator_OnlyApprovedAssessmentsPay(t *testing.T) {
	t.Parallel()

	repo := inmemory.NewRepository()
	repo.AddAssessment(salary.QualityAssessment{TeacherID: "t1", Amount: money("50"), Approved: true, Date: d(2025, time.March, 10)})
	repo.AddAssessment(salary.QualityAssessment{TeacherID: "t1", Amount: money("100"), Approved: false, Date: d(2025, time.March, 12)})
	repo.AddBonus(salary.BonusRecord{TeacherID: "t1", Amount: money("20"), Date: d(2025, time.March, 15)})

	total, err := NewBonusAggregator(repo).Total(context.Background(), "t1", d(2025, time.March, 1), d(2025, time.March, 31))
	require.NoError(t, err)
	assert.True(t, total.Equal(money("70")), "got %s", total)
}
