package domain

// DriverMetrics pairs a driver with the KPIs derived from one period.
// Slices of DriverMetrics keep storage order; ranking tie-breaks fall
// back to that order, so it must be stable between calls.
type DriverMetrics struct {
	DriverName string            `json:"driver_name"`
	Metrics    CalculatedMetrics `json:"metrics"`
}

// RankingEntry is one driver's position in the combined ranking. The
// per-KPI ranks are preserved for display next to the total score.
type RankingEntry struct {
	Position        int               `json:"position"` // 1 = best
	DriverName      string            `json:"driver_name"`
	IdleRank        int               `json:"idle_rank"`
	CruiseRank      int               `json:"cruise_rank"`
	EngineBrakeRank int               `json:"engine_brake_rank"`
	CoastingRank    int               `json:"coasting_rank"`
	TotalScore      int               `json:"total_score"` // sum of the four ranks, lower is better
	Metrics         CalculatedMetrics `json:"metrics"`
}

// Rank returns the entry's rank for one of the four scored KPIs.
func (e RankingEntry) Rank(k KPI) int {
	switch k {
	case KPIIdleShare:
		return e.IdleRank
	case KPICruiseShare:
		return e.CruiseRank
	case KPIEngineBrakeShare:
		return e.EngineBrakeRank
	case KPICoastingShare:
		return e.CoastingRank
	}
	return 0
}
