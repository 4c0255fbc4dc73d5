package salary

import (
	"github.com/shopspring/decimal"
)

// Dates in report DTOs are "2006-01-02" strings; the report is a serialization
// boundary, not a computation input.

type DailyEarning struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type PeriodDetail struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Role   string `json:"role"`
	Source string `json:"source"`
	Note   string `json:"note,omitempty"`
}

type StudentBreakdown struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	Package     string          `json:"package"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	DailyRate   decimal.Decimal `json:"daily_rate"`
	DaysWorked  int             `json:"days_worked"`
	Earned      decimal.Decimal `json:"earned"`
	Periods     []PeriodDetail  `json:"periods"`
}

type LatenessItem struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	Date        string          `json:"date"`
	Minutes     int             `json:"minutes"`
	TierPercent decimal.Decimal `json:"tier_percent"`
	Amount      decimal.Decimal `json:"amount"`
	Waived      bool            `json:"waived"`
}

type AbsenceItem struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Waived      bool            `json:"waived"`
}

// TeacherSalaryReport is the full computation output: headline numbers plus a
// breakdown sufficient to reconstruct every figure shown to an end user.
type TeacherSalaryReport struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	BaseSalary        decimal.Decimal `json:"base_salary"`
	LatenessDeduction decimal.Decimal `json:"lateness_deduction"`
	AbsenceDeduction  decimal.Decimal `json:"absence_deduction"`
	Bonuses           decimal.Decimal `json:"bonuses"`
	TotalSalary       decimal.Decimal `json:"total_salary"`

	PaymentStatus     PaymentStatus `json:"payment_status"`
	TeachingDays      int           `json:"teaching_days"`
	StudentCount      int           `json:"student_count"`
	HasTeacherChanges bool          `json:"has_teacher_changes"`

	// CalculationFailed distinguishes an internal failure from a genuinely
	// zero salary; both produce the same numeric shape.
	CalculationFailed bool `json:"calculation_failed,omitempty"`

	DailyEarnings []DailyEarning     `json:"daily_earnings"`
	Students      []StudentBreakdown `json:"students"`
	LatenessItems []LatenessItem     `json:"lateness_items"`
	AbsenceItems  []AbsenceItem      `json:"absence_items"`

	// Diagnostics records reconciliation discrepancies (e.g. an assignment
	// discarded in favor of session-event bounds) without failing the run.
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// ZeroedReport returns the failure-shaped report for a teacher: every amount
// zero, tagged with the teacher id so payroll runs stay resilient to one bad
// record.
func ZeroedReport(teacherID string, periodStart, periodEnd string) TeacherSalaryReport {
	return TeacherSalaryReport{
		TeacherID:         teacherID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		BaseSalary:        decimal.Zero,
		LatenessDeduction: decimal.Zero,
		AbsenceDeduction:  decimal.Zero,
		Bonuses:           decimal.Zero,
		TotalSalary:       decimal.Zero,
		PaymentStatus:     PaymentUnpaid,
		CalculationFailed: true,
	}
}
