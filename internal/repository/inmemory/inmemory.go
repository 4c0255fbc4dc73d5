// Package inmemory provides an in-process implementation of the salary
// repository. It backs the service test suites and local development seeding;
// the postgresql package is the production binding.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

type Repository struct {
	mu sync.RWMutex

	Teachers      map[string]salary.Teacher
	Students      map[string]salary.Student
	Assignments   []salary.Assignment
	ChangeRecords []salary.TeacherChangeRecord
	SessionEvents []salary.SessionEvent
	Attendance    []salary.AttendanceMarker
	Waivers       []salary.DeductionWaiver
	TierConfigs   map[string]salary.LatenessTierConfig
	PackageRates  map[string]decimal.Decimal
	Bonuses       []salary.BonusRecord
	Assessments   []salary.QualityAssessment
	Payments      map[string]salary.PaymentStatus // teacherID|from|to
	Settings      *salary.Settings
}

func NewRepository() *Repository {
	return &Repository{
		Teachers:     make(map[string]salary.Teacher),
		Students:     make(map[string]salary.Student),
		TierConfigs:  make(map[string]salary.LatenessTierConfig),
		PackageRates: make(map[string]decimal.Decimal),
		Payments:     make(map[string]salary.PaymentStatus),
	}
}

var _ salary.Repository = (*Repository)(nil)

// ========== SEED HELPERS ==========

func (r *Repository) AddTeacher(t salary.Teacher) salary.Teacher {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	r.Teachers[t.ID] = t
	return t
}

func (r *Repository) AddStudent(s salary.Student) salary.Student {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	r.Students[s.ID] = s
	return s
}

func (r *Repository) AddAssignment(a salary.Assignment) salary.Assignment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.Assignments = append(r.Assignments, a)
	return a
}

func (r *Repository) AddChangeRecord(c salary.TeacherChangeRecord) salary.TeacherChangeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	r.ChangeRecords = append(r.ChangeRecords, c)
	return c
}

func (r *Repository) AddSessionEvent(e salary.SessionEvent) salary.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	r.SessionEvents = append(r.SessionEvents, e)
	return e
}

func (r *Repository) AddAttendanceMarker(m salary.AttendanceMarker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Attendance = append(r.Attendance, m)
}

func (r *Repository) AddWaiver(w salary.DeductionWaiver) salary.DeductionWaiver {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	r.Waivers = append(r.Waivers, w)
	return w
}

func (r *Repository) AddBonus(b salary.BonusRecord) salary.BonusRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	r.Bonuses = append(r.Bonuses, b)
	return b
}

func (r *Repository) AddAssessment(a salary.QualityAssessment) salary.QualityAssessment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.Assessments = append(r.Assessments, a)
	return a
}

// ========== REPOSITORY IMPLEMENTATION ==========

func (r *Repository) GetTeacher(ctx context.Context, teacherID string) (salary.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.Teachers[teacherID]
	if !ok {
		return salary.Teacher{}, salary.ErrTeacherNotFound
	}
	return t, nil
}

func (r *Repository) ListTeachers(ctx context.Context) ([]salary.Teacher, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	teachers := make([]salary.Teacher, 0, len(r.Teachers))
	for _, t := range r.Teachers {
		teachers = append(teachers, t)
	}
	sort.Slice(teachers, func(i, j int) bool { return teachers[i].ID < teachers[j].ID })
	return teachers, nil
}

func (r *Repository) GetStudent(ctx context.Context, studentID string) (salary.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.Students[studentID]
	if !ok {
		return salary.Student{}, salary.ErrStudentNotFound
	}
	return s, nil
}

func (r *Repository) GetStudentsTaughtBy(ctx context.Context, teacherID string, from, to time.Time) ([]salary.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var students []salary.Student
	for _, a := range r.Assignments {
		if a.TeacherID != teacherID || seen[a.StudentID] {
			continue
		}
		if s, ok := r.Students[a.StudentID]; ok {
			students = append(students, s)
			seen[a.StudentID] = true
		}
	}
	return students, nil
}

func (r *Repository) GetAssignments(ctx context.Context, teacherID string, from, to time.Time) ([]salary.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.Assignment
	for _, a := range r.Assignments {
		if a.TeacherID != teacherID {
			continue
		}
		if a.StartDate.After(to) {
			continue
		}
		if a.EndDate != nil && a.EndDate.Before(from) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) GetTeacherChangeRecords(ctx context.Context, teacherID string, from, to time.Time) ([]salary.TeacherChangeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.TeacherChangeRecord
	for _, c := range r.ChangeRecords {
		if c.ChangeDate.Before(from) || c.ChangeDate.After(to.AddDate(0, 0, 1)) {
			continue
		}
		if c.NewTeacherID == teacherID || (c.OldTeacherID != nil && *c.OldTeacherID == teacherID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *Repository) GetSessionEvents(ctx context.Context, teacherID, studentID string, from, to time.Time) ([]salary.SessionEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	endOfWindow := to.AddDate(0, 0, 1)
	var out []salary.SessionEvent
	for _, e := range r.SessionEvents {
		if e.TeacherID != teacherID {
			continue
		}
		if studentID != "" && e.StudentID != studentID {
			continue
		}
		if e.SentAt.Before(from) || !e.SentAt.Before(endOfWindow) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Repository) ListEventTeacherIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	endOfWindow := to.AddDate(0, 0, 1)
	seen := make(map[string]bool)
	var ids []string
	for _, e := range r.SessionEvents {
		if e.SentAt.Before(from) || !e.SentAt.Before(endOfWindow) || seen[e.TeacherID] {
			continue
		}
		seen[e.TeacherID] = true
		ids = append(ids, e.TeacherID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *Repository) GetAttendanceMarkers(ctx context.Context, studentID string, from, to time.Time) ([]salary.AttendanceMarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.AttendanceMarker
	for _, m := range r.Attendance {
		if m.StudentID != studentID {
			continue
		}
		if m.Date.Before(from) || m.Date.After(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *Repository) GetWaivers(ctx context.Context, teacherID string, typ salary.WaiverType, from, to time.Time) ([]salary.DeductionWaiver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.DeductionWaiver
	for _, w := range r.Waivers {
		if w.TeacherID != teacherID || w.Type != typ {
			continue
		}
		if w.Date.Before(from) || w.Date.After(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *Repository) GetLatenessTierConfig(ctx context.Context, teacherID string) (salary.LatenessTierConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.TierConfigs[teacherID]
	if !ok {
		return salary.LatenessTierConfig{}, salary.ErrLatenessConfigMissing
	}
	return cfg, nil
}

func (r *Repository) GetPackageRate(ctx context.Context, packageName string) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rate, ok := r.PackageRates[packageName]
	if !ok {
		return decimal.Zero, salary.ErrPackageRateNotFound
	}
	return rate, nil
}

func (r *Repository) GetBonusRecords(ctx context.Context, teacherID string, from, to time.Time) ([]salary.BonusRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.BonusRecord
	for _, b := range r.Bonuses {
		if b.TeacherID != teacherID || b.Date.Before(from) || b.Date.After(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *Repository) GetQualityAssessments(ctx context.Context, teacherID string, from, to time.Time) ([]salary.QualityAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []salary.QualityAssessment
	for _, a := range r.Assessments {
		if a.TeacherID != teacherID || a.Date.Before(from) || a.Date.After(to.AddDate(0, 0, 1)) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *Repository) GetPaymentStatus(ctx context.Context, teacherID string, from, to time.Time) (salary.PaymentStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	key := teacherID + "|" + from.Format("2006-01-02") + "|" + to.Format("2006-01-02")
	status, ok := r.Payments[key]
	if !ok {
		return "", salary.ErrPaymentStatusMissing
	}
	return status, nil
}

func (r *Repository) SetPaymentStatus(teacherID string, from, to time.Time, status salary.PaymentStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := teacherID + "|" + from.Format("2006-01-02") + "|" + to.Format("2006-01-02")
	r.Payments[key] = status
}

func (r *Repository) GetSettings(ctx context.Context) (salary.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Settings == nil {
		return salary.Settings{}, salary.ErrSettingsNotFound
	}
	return *r.Settings, nil
}
