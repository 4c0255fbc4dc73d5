package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
)

// ReportCache memoizes computed salary reports by (teacherID, from, to).
// Invalidation removes entries; it never mutates a stored report, so a
// computation holding a copy is unaffected by a concurrent invalidation.
type ReportCache struct {
	mu      sync.RWMutex
	reports map[string]salary.TeacherSalaryReport
}

func NewReportCache() *ReportCache {
	return &ReportCache{
		reports: make(map[string]salary.TeacherSalaryReport),
	}
}

// Key builds the cache key. The teacher id prefix is what per-teacher
// invalidation matches on.
func Key(teacherID string, from, to time.Time) string {
	return teacherID + "|" + from.Format("2006-01-02") + "|" + to.Format("2006-01-02")
}

func (c *ReportCache) Get(key string) (salary.TeacherSalaryReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	report, ok := c.reports[key]
	return report, ok
}

func (c *ReportCache) Set(key string, report salary.TeacherSalaryReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports[key] = report
}

// InvalidateTeacher drops every cached report for the teacher regardless of
// period.
func (c *ReportCache) InvalidateTeacher(teacherID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := teacherID + "|"
	for key := range c.reports {
		if strings.HasPrefix(key, prefix) {
			delete(c.reports, key)
		}
	}
}

func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.reports)
}
