package salary

import (
	"time"

	"github.com/shopspring/decimal"
)

// Teacher - roster entry, immutable within a computation
type Teacher struct {
	ID   string
	Name string
}

// StudentStatus enum
type StudentStatus string

const (
	StatusActive     StudentStatus = "active"
	StatusLeave      StudentStatus = "leave"
	StatusCompleted  StudentStatus = "completed"
	StatusNotSucceed StudentStatus = "not_succeed"
	StatusNotYet     StudentStatus = "not_yet"
	StatusFresh      StudentStatus = "fresh"
)

// InactiveStatuses are the lifecycle states whose assignment rows tend to be
// deleted or rewritten even though past teaching happened. Students in these
// states are still candidates for reconciliation when session events exist.
var InactiveStatuses = []StudentStatus{StatusLeave, StatusCompleted, StatusNotSucceed}

func (s StudentStatus) IsInactive() bool {
	for _, st := range InactiveStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Student - pricing tier and schedule live on the student record
type Student struct {
	ID         string
	Name       string
	Package    string
	DayPattern string
	Status     StudentStatus
}

// Assignment - current teacher/student pairing. Mutable: rows may be deleted
// when a student's status changes or a teacher change occurs, even though the
// teaching happened.
type Assignment struct {
	ID         string
	TeacherID  string
	StudentID  string
	TimeSlot   string
	DayPattern string
	StartDate  time.Time
	EndDate    *time.Time // nil means still active
}

// TeacherChangeRecord - append-only history entry splitting a student's
// timeline between two teachers. The authoritative source for period bounds.
type TeacherChangeRecord struct {
	ID           string
	StudentID    string
	OldTeacherID *string
	NewTeacherID string
	ChangeDate   time.Time
	TimeSlot     string
	DayPattern   string
	Package      string
	MonthlyRate  decimal.Decimal
	DailyRate    decimal.Decimal
}

// SessionEvent - timestamped class-start signal sent by the teacher. Outlives
// assignment deletion, so it is the most durable source of truth.
type SessionEvent struct {
	ID        string
	TeacherID string
	StudentID string
	SentAt    time.Time
}

// Attendance marker statuses
const (
	AttendancePermission = "Permission"
	AttendanceAbsent     = "Absent"
)

// AttendanceMarker - per-student, per-date attendance record. A Permission
// marker counts as a paid day with no session event required and exempts the
// day from absence deduction.
type AttendanceMarker struct {
	StudentID string
	Date      time.Time
	Status    string
}

// WaiverType enum
type WaiverType string

const (
	WaiverLateness WaiverType = "lateness"
	WaiverAbsence  WaiverType = "absence"
)

// DeductionWaiver - administrative override for a single date. An empty
// StudentNames list is a legacy blanket waiver covering every student on that
// date; a populated list covers only the named students.
type DeductionWaiver struct {
	ID           string
	TeacherID    string
	Type         WaiverType
	Date         time.Time
	StudentNames []string
}

// Covers reports whether the waiver applies to the named student.
func (w DeductionWaiver) Covers(studentName string) bool {
	if len(w.StudentNames) == 0 {
		return true
	}
	for _, n := range w.StudentNames {
		if n == studentName {
			return true
		}
	}
	return false
}

// LatenessTier - [StartMinute, EndMinute] inclusive band deducting Percent of
// the day's rate. Tiers are evaluated in ascending order, first match wins.
type LatenessTier struct {
	StartMinute int
	EndMinute   int
	Percent     decimal.Decimal
}

// LatenessTierConfig - per-teacher lateness policy
type LatenessTierConfig struct {
	TeacherID        string
	ExcusedThreshold int
	Tiers            []LatenessTier
}

// BonusRecord - manual bonus entered by an administrator
type BonusRecord struct {
	ID        string
	TeacherID string
	Amount    decimal.Decimal
	Note      *string
	Date      time.Time
}

// QualityAssessment - quality review with an attached bonus amount. Only
// approved assessments pay out.
type QualityAssessment struct {
	ID        string
	TeacherID string
	Amount    decimal.Decimal
	Approved  bool
	Date      time.Time
}

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentPaid   PaymentStatus = "paid"
	PaymentUnpaid PaymentStatus = "unpaid"
)

// PeriodRole enum - whether the teacher held the student before or after a
// recorded teacher change.
type PeriodRole string

const (
	RoleOld PeriodRole = "old"
	RoleNew PeriodRole = "new"
)

// PeriodSource enum - which record class bounded the period.
type PeriodSource string

const (
	SourceHistory    PeriodSource = "history"
	SourceAssignment PeriodSource = "assignment"
	SourceEvents     PeriodSource = "events"
)

// TeachingPeriod - one reconciled (student, window, rate-context) tuple for a
// teacher. A student appears in more than one period for the same teacher only
// when history shows the teacher returning after being replaced.
type TeachingPeriod struct {
	StudentID   string
	StudentName string
	Start       time.Time
	End         time.Time
	Package     string
	MonthlyRate decimal.Decimal
	DailyRate   decimal.Decimal
	DayPattern  string
	TimeSlot    string
	Role        PeriodRole
	Source      PeriodSource
	Note        string
}

// Settings - school-wide salary policy
type Settings struct {
	IncludeSundays bool
}
