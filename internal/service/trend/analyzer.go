package trend

import (
	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// Analyzer compares a driver's KPIs against the previous period and
// against the fleet targets. Movement is judged by each KPI's own
// improvement direction, so a falling idle share and a rising cruise
// share both count as improvements.
type Analyzer struct {
	targets map[domain.KPI]domain.TargetBand
	log     *zap.Logger
}

// NewAnalyzer builds an analyzer. A nil target map selects the
// built-in fleet targets.
func NewAnalyzer(targets map[domain.KPI]domain.TargetBand, log *zap.Logger) *Analyzer {
	if targets == nil {
		targets = domain.DefaultTargets()
	}
	return &Analyzer{targets: targets, log: log}
}

// Target returns the goal corridor for k. KPIs without a configured
// target get an empty band that classifies everything as "none".
func (a *Analyzer) Target(k domain.KPI) domain.TargetBand {
	return a.targets[k]
}

// Compare builds the full per-KPI comparison for one driver. A nil
// previous marks a new driver: every row keeps a neutral direction and
// no change figure. A previous value of zero makes the relative change
// undefined; the row is flagged not measurable instead of reporting a
// fabricated percentage.
func (a *Analyzer) Compare(current domain.CalculatedMetrics, previous *domain.CalculatedMetrics) domain.TrendResult {
	result := domain.TrendResult{
		NewDriver: previous == nil,
		KPIs:      make([]domain.KPITrend, 0, len(domain.AllKPIs)),
	}

	for _, k := range domain.AllKPIs {
		cur := current.Value(k)
		row := domain.KPITrend{
			KPI:          k,
			Current:      cur,
			TargetStatus: a.targets[k].Classify(cur),
		}

		if previous == nil {
			row.Direction = domain.TrendNewDriver
			result.KPIs = append(result.KPIs, row)
			continue
		}

		prev := previous.Value(k)
		row.Previous = &prev

		if prev == 0 {
			row.Direction = domain.TrendNotMeasurable
			result.KPIs = append(result.KPIs, row)
			continue
		}

		change := (cur - prev) / prev * 100
		row.ChangePercent = &change

		switch {
		case change == 0:
			row.Direction = domain.TrendUnchanged
		case (change > 0) == k.HigherIsBetter():
			row.Direction = domain.TrendImproved
		default:
			row.Direction = domain.TrendDeclined
		}

		result.KPIs = append(result.KPIs, row)
	}

	return result
}
