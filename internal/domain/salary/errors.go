package salary

import "errors"

var (
	ErrTeacherNotFound       = errors.New("teacher not found")
	ErrStudentNotFound       = errors.New("student not found")
	ErrPackageRateNotFound   = errors.New("package rate not found")
	ErrLatenessConfigMissing = errors.New("lateness tier config not found")
	ErrPaymentStatusMissing  = errors.New("payment status not found for period")
	ErrSettingsNotFound      = errors.New("salary settings not found")
	ErrInvalidPeriod         = errors.New("invalid salary period")
)
