package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) salary.Repository {
	return &salaryRepository{db: db}
}

// ========== ROSTER ==========

func (r *salaryRepository) GetTeacher(ctx context.Context, teacherID string) (salary.Teacher, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, display_name
		FROM teachers
		WHERE id = $1
	`

	var t salary.Teacher
	err := q.QueryRow(ctx, query, teacherID).Scan(&t.ID, &t.Name)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Teacher{}, salary.ErrTeacherNotFound
		}
		return salary.Teacher{}, fmt.Errorf("failed to get teacher: %w", err)
	}

	return t, nil
}

func (r *salaryRepository) ListTeachers(ctx context.Context) ([]salary.Teacher, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, display_name
		FROM teachers
		WHERE active = true
		ORDER BY id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []salary.Teacher
	for rows.Next() {
		var t salary.Teacher
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}

	return teachers, rows.Err()
}

func (r *salaryRepository) GetStudent(ctx context.Context, studentID string) (salary.Student, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, package, day_pattern, status
		FROM students
		WHERE id = $1
	`

	var s salary.Student
	err := q.QueryRow(ctx, query, studentID).Scan(&s.ID, &s.Name, &s.Package, &s.DayPattern, &s.Status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Student{}, salary.ErrStudentNotFound
		}
		return salary.Student{}, fmt.Errorf("failed to get student: %w", err)
	}

	return s, nil
}

func (r *salaryRepository) GetStudentsTaughtBy(ctx context.Context, teacherID string, from, to time.Time) ([]salary.Student, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT s.id, s.name, s.package, s.day_pattern, s.status
		FROM students s
		JOIN assignments a ON a.student_id = s.id
		WHERE a.teacher_id = $1
		  AND a.start_date <= $3
		  AND (a.end_date IS NULL OR a.end_date >= $2)
		ORDER BY s.id
	`

	rows, err := q.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get students taught by teacher: %w", err)
	}
	defer rows.Close()

	var students []salary.Student
	for rows.Next() {
		var s salary.Student
		if err := rows.Scan(&s.ID, &s.Name, &s.Package, &s.DayPattern, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}

	return students, rows.Err()
}

// ========== RECONCILIATION SOURCES ==========

func (r *salaryRepository) GetAssignments(ctx context.Context, teacherID string, from, to time.Time) ([]salary.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, teacher_id, student_id, time_slot, day_pattern, start_date, end_date
		FROM assignments
		WHERE teacher_id = $1
		  AND start_date <= $3
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	defer rows.Close()

	var assignments []salary.Assignment
	for rows.Next() {
		var a salary.Assignment
		if err := rows.Scan(&a.ID, &a.TeacherID, &a.StudentID, &a.TimeSlot, &a.DayPattern, &a.StartDate, &a.EndDate); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (r *salaryRepository) GetTeacherChangeRecords(ctx context.Context, teacherID string, from, to time.Time) ([]salary.TeacherChangeRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, student_id, old_teacher_id, new_teacher_id, change_date,
			   time_slot, day_pattern, package, monthly_rate, daily_rate
		FROM teacher_change_records
		WHERE (old_teacher_id = $1 OR new_teacher_id = $1)
		  AND change_date >= $2 AND change_date < $3 + INTERVAL '1 day'
		ORDER BY change_date
	`

	rows, err := q.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher change records: %w", err)
	}
	defer rows.Close()

	var records []salary.TeacherChangeRecord
	for rows.Next() {
		var c salary.TeacherChangeRecord
		if err := rows.Scan(&c.ID, &c.StudentID, &c.OldTeacherID, &c.NewTeacherID, &c.ChangeDate,
			&c.TimeSlot, &c.DayPattern, &c.Package, &c.MonthlyRate, &c.DailyRate); err != nil {
			return nil, fmt.Errorf("failed to scan teacher change record: %w", err)
		}
		records = append(records, c)
	}

	return records, rows.Err()
}

func (r *salaryRepository) GetSessionEvents(ctx context.Context, teacherID, studentID string, from, to time.Time) ([]salary.SessionEvent, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, teacher_id, student_id, sent_at
		FROM session_events
		WHERE teacher_id = $1
		  AND sent_at >= $2 AND sent_at < $3 + INTERVAL '1 day'
	`
	args := []interface{}{teacherID, from, to}
	if studentID != "" {
		query += " AND student_id = $4"
		args = append(args, studentID)
	}
	query += " ORDER BY sent_at"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get session events: %w", err)
	}
	defer rows.Close()

	var events []salary.SessionEvent
	for rows.Next() {
		var e salary.SessionEvent
		if err := rows.Scan(&e.ID, &e.TeacherID, &e.StudentID, &e.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

func (r *salaryRepository) ListEventTeacherIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT teacher_id
		FROM session_events
		WHERE sent_at >= $1 AND sent_at < $2 + INTERVAL '1 day'
		ORDER BY teacher_id
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list event teacher ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan teacher id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *salaryRepository) GetAttendanceMarkers(ctx context.Context, studentID string, from, to time.Time) ([]salary.AttendanceMarker, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT student_id, date, status
		FROM attendance_markers
		WHERE student_id = $1
		  AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, studentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance markers: %w", err)
	}
	defer rows.Close()

	var markers []salary.AttendanceMarker
	for rows.Next() {
		var m salary.AttendanceMarker
		if err := rows.Scan(&m.StudentID, &m.Date, &m.Status); err != nil {
			return nil, fmt.Errorf("failed to scan attendance marker: %w", err)
		}
		markers = append(markers, m)
	}

	return markers, rows.Err()
}

// ========== DEDUCTION CONFIGURATION ==========

func (r *salaryRepository) GetWaivers(ctx context.Context, teacherID string, typ salary.WaiverType, from, to time.Time) ([]salary.DeductionWaiver, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, teacher_id, type, date, student_names
		FROM deduction_waivers
		WHERE teacher_id = $1 AND type = $2
		  AND date >= $3 AND date <= $4
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, teacherID, typ, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get waivers: %w", err)
	}
	defer rows.Close()

	var waivers []salary.DeductionWaiver
	for rows.Next() {
		var w salary.DeductionWaiver
		if err := rows.Scan(&w.ID, &w.TeacherID, &w.Type, &w.Date, &w.StudentNames); err != nil {
			return nil, fmt.Errorf("failed to scan waiver: %w", err)
		}
		waivers = append(waivers, w)
	}

	return waivers, rows.Err()
}

func (r *salaryRepository) GetLatenessTierConfig(ctx context.Context, teacherID string) (salary.LatenessTierConfig, error) {
	q := GetQuerier(ctx, r.db)

	var config salary.LatenessTierConfig
	err := q.QueryRow(ctx, `
		SELECT teacher_id, excused_threshold
		FROM lateness_tier_configs
		WHERE teacher_id = $1
	`, teacherID).Scan(&config.TeacherID, &config.ExcusedThreshold)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.LatenessTierConfig{}, salary.ErrLatenessConfigMissing
		}
		return salary.LatenessTierConfig{}, fmt.Errorf("failed to get lateness tier config: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT start_minute, end_minute, percent
		FROM lateness_tiers
		WHERE teacher_id = $1
		ORDER BY start_minute
	`, teacherID)
	if err != nil {
		return salary.LatenessTierConfig{}, fmt.Errorf("failed to get lateness tiers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t salary.LatenessTier
		if err := rows.Scan(&t.StartMinute, &t.EndMinute, &t.Percent); err != nil {
			return salary.LatenessTierConfig{}, fmt.Errorf("failed to scan lateness tier: %w", err)
		}
		config.Tiers = append(config.Tiers, t)
	}

	return config, rows.Err()
}

// ========== RATES AND EXTRAS ==========

func (r *salaryRepository) GetPackageRate(ctx context.Context, packageName string) (decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	var rate decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT monthly_rate
		FROM package_rates
		WHERE package = $1
	`, packageName).Scan(&rate)
	if err != nil {
		if err == pgx.ErrNoRows {
			return decimal.Zero, salary.ErrPackageRateNotFound
		}
		return decimal.Zero, fmt.Errorf("failed to get package rate: %w", err)
	}

	return rate, nil
}

func (r *salaryRepository) GetBonusRecords(ctx context.Context, teacherID string, from, to time.Time) ([]salary.BonusRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, teacher_id, amount, note, date
		FROM bonus_records
		WHERE teacher_id = $1
		  AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get bonus records: %w", err)
	}
	defer rows.Close()

	var bonuses []salary.BonusRecord
	for rows.Next() {
		var b salary.BonusRecord
		if err := rows.Scan(&b.ID, &b.TeacherID, &b.Amount, &b.Note, &b.Date); err != nil {
			return nil, fmt.Errorf("failed to scan bonus record: %w", err)
		}
		bonuses = append(bonuses, b)
	}

	return bonuses, rows.Err()
}

func (r *salaryRepository) GetQualityAssessments(ctx context.Context, teacherID string, from, to time.Time) ([]salary.QualityAssessment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, teacher_id, amount, approved, date
		FROM quality_assessments
		WHERE teacher_id = $1
		  AND date >= $2 AND date <= $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, teacherID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get quality assessments: %w", err)
	}
	defer rows.Close()

	var assessments []salary.QualityAssessment
	for rows.Next() {
		var a salary.QualityAssessment
		if err := rows.Scan(&a.ID, &a.TeacherID, &a.Amount, &a.Approved, &a.Date); err != nil {
			return nil, fmt.Errorf("failed to scan quality assessment: %w", err)
		}
		assessments = append(assessments, a)
	}

	return assessments, rows.Err()
}

func (r *salaryRepository) GetPaymentStatus(ctx context.Context, teacherID string, from, to time.Time) (salary.PaymentStatus, error) {
	q := GetQuerier(ctx, r.db)

	var status salary.PaymentStatus
	err := q.QueryRow(ctx, `
		SELECT status
		FROM payment_records
		WHERE teacher_id = $1 AND period_start = $2 AND period_end = $3
	`, teacherID, from, to).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", salary.ErrPaymentStatusMissing
		}
		return "", fmt.Errorf("failed to get payment status: %w", err)
	}

	return status, nil
}

func (r *salaryRepository) GetSettings(ctx context.Context) (salary.Settings, error) {
	q := GetQuerier(ctx, r.db)

	var s salary.Settings
	err := q.QueryRow(ctx, `
		SELECT include_sundays
		FROM salary_settings
		LIMIT 1
	`).Scan(&s.IncludeSundays)
	if err != nil {
		if err == pgx.ErrNoRows {
			return salary.Settings{}, salary.ErrSettingsNotFound
		}
		return salary.Settings{}, fmt.Errorf("failed to get salary settings: %w", err)
	}

	return s, nil
}
