package ranking

import (
	"sort"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// Engine builds the combined driver leaderboard from four behavior
// KPIs. Rankings are fully deterministic: equal values resolve by
// input order, so callers must pass drivers in a stable order.
type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	return &Engine{log: log}
}

// better reports whether value a beats value b for KPI k.
func better(k domain.KPI, a, b float64) bool {
	if k.HigherIsBetter() {
		return a > b
	}
	return a < b
}

// rankByKPI assigns distinct ranks 1..n for one KPI. Ties keep input
// order, so the earlier driver takes the better rank.
func rankByKPI(drivers []domain.DriverMetrics, k domain.KPI) []int {
	idx := make([]int, len(drivers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return better(k, drivers[idx[a]].Metrics.Value(k), drivers[idx[b]].Metrics.Value(k))
	})

	ranks := make([]int, len(drivers))
	for pos, i := range idx {
		ranks[i] = pos + 1
	}
	return ranks
}

// Rank produces the combined leaderboard. Each driver is ranked per
// scored KPI, the four ranks are summed into a total score, and the
// final order is ascending score. Equal scores resolve by ascending
// weight-adjusted consumption, remaining ties by input order.
func (e *Engine) Rank(drivers []domain.DriverMetrics) []domain.RankingEntry {
	if len(drivers) == 0 {
		return []domain.RankingEntry{}
	}

	idleRanks := rankByKPI(drivers, domain.KPIIdleShare)
	cruiseRanks := rankByKPI(drivers, domain.KPICruiseShare)
	brakeRanks := rankByKPI(drivers, domain.KPIEngineBrakeShare)
	coastRanks := rankByKPI(drivers, domain.KPICoastingShare)

	entries := make([]domain.RankingEntry, len(drivers))
	for i, d := range drivers {
		entries[i] = domain.RankingEntry{
			DriverName:      d.DriverName,
			IdleRank:        idleRanks[i],
			CruiseRank:      cruiseRanks[i],
			EngineBrakeRank: brakeRanks[i],
			CoastingRank:    coastRanks[i],
			TotalScore:      idleRanks[i] + cruiseRanks[i] + brakeRanks[i] + coastRanks[i],
			Metrics:         d.Metrics,
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		if entries[a].TotalScore != entries[b].TotalScore {
			return entries[a].TotalScore < entries[b].TotalScore
		}
		return entries[a].Metrics.WeightAdjConsumption < entries[b].Metrics.WeightAdjConsumption
	})

	for i := range entries {
		entries[i].Position = i + 1
	}

	if e.log != nil {
		e.log.Debug("ranking computed", zap.Int("drivers", len(entries)))
	}
	return entries
}

// ByKPIRank returns the entries reordered by their rank for one
// scored KPI. Ranks are distinct, so the order is unambiguous.
func ByKPIRank(entries []domain.RankingEntry, k domain.KPI) []domain.RankingEntry {
	out := make([]domain.RankingEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Rank(k) < out[b].Rank(k)
	})
	return out
}
