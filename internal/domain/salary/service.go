package salary

import (
	"context"
	"time"
)

// Service is the salary computation facade. Calculate methods never propagate
// internal failures: a failed single-teacher computation comes back as a
// zeroed report tagged with the teacher id, and a batch run omits failures
// instead of aborting.
type Service interface {
	CalculateTeacherSalary(ctx context.Context, teacherID string, from, to time.Time) TeacherSalaryReport
	CalculateAllTeacherSalaries(ctx context.Context, from, to time.Time) []TeacherSalaryReport

	// Domain-event hooks; each invalidates every cached report for the named
	// teacher(s) regardless of period.
	OnTeacherChangeRecorded(teacherIDs ...string)
	OnSessionEventCreated(teacherID string)
	OnWaiverCreated(teacherID string)
}
