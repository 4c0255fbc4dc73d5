package salary

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the data access boundary for salary computation. The
// engine depends on nothing below this interface, so the production binding
// (postgresql) and the test binding (in-memory fake) are interchangeable.
// All methods honor ctx cancellation.
type Repository interface {
	// Roster
	GetTeacher(ctx context.Context, teacherID string) (Teacher, error)
	ListTeachers(ctx context.Context) ([]Teacher, error)
	GetStudent(ctx context.Context, studentID string) (Student, error)
	GetStudentsTaughtBy(ctx context.Context, teacherID string, from, to time.Time) ([]Student, error)

	// Reconciliation sources
	GetAssignments(ctx context.Context, teacherID string, from, to time.Time) ([]Assignment, error)
	GetTeacherChangeRecords(ctx context.Context, teacherID string, from, to time.Time) ([]TeacherChangeRecord, error)
	// GetSessionEvents returns events sent by teacherID in [from, to];
	// studentID narrows to one student when non-empty.
	GetSessionEvents(ctx context.Context, teacherID, studentID string, from, to time.Time) ([]SessionEvent, error)
	// ListEventTeacherIDs returns every teacher id that sent a session event
	// in the window, including teachers absent from the roster.
	ListEventTeacherIDs(ctx context.Context, from, to time.Time) ([]string, error)
	GetAttendanceMarkers(ctx context.Context, studentID string, from, to time.Time) ([]AttendanceMarker, error)

	// Deduction configuration
	GetWaivers(ctx context.Context, teacherID string, typ WaiverType, from, to time.Time) ([]DeductionWaiver, error)
	GetLatenessTierConfig(ctx context.Context, teacherID string) (LatenessTierConfig, error)

	// Rates and extras
	GetPackageRate(ctx context.Context, packageName string) (decimal.Decimal, error)
	GetBonusRecords(ctx context.Context, teacherID string, from, to time.Time) ([]BonusRecord, error)
	GetQualityAssessments(ctx context.Context, teacherID string, from, to time.Time) ([]QualityAssessment, error)
	GetPaymentStatus(ctx context.Context, teacherID string, from, to time.Time) (PaymentStatus, error)
	GetSettings(ctx context.Context) (Settings, error)
}
