package salary

import (
	"context"
	"fmt"
	"time"

	"github.com/klaslink/school-backend-go/internal/domain/salary"
	"github.com/shopspring/decimal"
)

// BonusAggregator sums approved quality-assessment bonuses and manual bonus
// records. No tiering; unapproved assessments are excluded.
type BonusAggregator struct {
	repo salary.Repository
}

func NewBonusAggregator(repo salary.Repository) *BonusAggregator {
	return &BonusAggregator{repo: repo}
}

func (b *BonusAggregator) Total(ctx context.Context, teacherID string, from, to time.Time) (decimal.Decimal, error) {
	total := decimal.Zero

	assessments, err := b.repo.GetQualityAssessments(ctx, teacherID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get quality assessments: %w", err)
	}
	for _, qa := range assessments {
		if qa.Approved {
			total = total.Add(qa.Amount)
		}
	}

	bonuses, err := b.repo.GetBonusRecords(ctx, teacherID, from, to)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get bonus records: %w", err)
	}
	for _, bonus := range bonuses {
		total = total.Add(bonus.Amount)
	}

	return total, nil
}
