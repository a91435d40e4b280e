package domain

// TrendDirection classifies a month-over-month KPI movement.
type TrendDirection string

const (
	TrendImproved      TrendDirection = "improved"
	TrendDeclined      TrendDirection = "declined"
	TrendUnchanged     TrendDirection = "unchanged"
	TrendNewDriver     TrendDirection = "new_driver"     // no previous period exists
	TrendNotMeasurable TrendDirection = "not_measurable" // previous value was zero
)

// KPITrend describes one KPI's movement between two periods together
// with its standing against the fleet target. Previous and
// ChangePercent are nil when the comparison could not be made; nil is
// never rendered as a fabricated zero.
type KPITrend struct {
	KPI           KPI            `json:"kpi"`
	Current       float64        `json:"current"`
	Previous      *float64       `json:"previous,omitempty"`
	ChangePercent *float64       `json:"change_percent,omitempty"`
	Direction     TrendDirection `json:"direction"`
	TargetStatus  TargetStatus   `json:"target_status"`
}

// TrendResult is the full per-KPI comparison for one driver, in
// report display order.
type TrendResult struct {
	NewDriver bool       `json:"new_driver"`
	KPIs      []KPITrend `json:"kpis"`
}

// Find returns the trend row for k, or nil if absent.
func (r TrendResult) Find(k KPI) *KPITrend {
	for i := range r.KPIs {
		if r.KPIs[i].KPI == k {
			return &r.KPIs[i]
		}
	}
	return nil
}
