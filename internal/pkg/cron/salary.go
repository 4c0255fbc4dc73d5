package cron

import (
	"context"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/klaslink/school-backend-go/internal/domain/schedule"
)

// RegisterSalaryPrecompute registers a job that recomputes every teacher's
// report for the current month. Record writes invalidate cached reports, so a
// periodic batch run keeps the first payroll-screen load of the day cheap.
func RegisterSalaryPrecompute(s *Scheduler, svc salary.Service, interval time.Duration) {
	s.AddJob("salary-precompute", interval, func(ctx context.Context) error {
		from, to := schedule.MonthBounds(time.Now().UTC())
		svc.CalculateAllTeacherSalaries(ctx, from, to)
		return nil
	})
}
