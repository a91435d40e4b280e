package domain

import "fmt"

// KPI identifies one derived performance indicator.
type KPI string

const (
	KPIIdleShare            KPI = "idle_share"
	KPICruiseShare          KPI = "cruise_share"
	KPIEngineBrakeShare     KPI = "engine_brake_share"
	KPICoastingShare        KPI = "coasting_share"
	KPIDieselEfficiency     KPI = "diesel_efficiency"
	KPIWeightAdjConsumption KPI = "weight_adjusted_consumption"
	KPIOverspeedShare       KPI = "overspeed_share"
	KPICO2PerTonKm          KPI = "co2_per_ton_km"
)

// AllKPIs lists every indicator in report display order.
var AllKPIs = []KPI{
	KPIIdleShare,
	KPICruiseShare,
	KPIEngineBrakeShare,
	KPICoastingShare,
	KPIDieselEfficiency,
	KPIWeightAdjConsumption,
	KPIOverspeedShare,
	KPICO2PerTonKm,
}

// RankedKPIs are the four indicators that feed the ranking score.
var RankedKPIs = []KPI{
	KPIIdleShare,
	KPICruiseShare,
	KPIEngineBrakeShare,
	KPICoastingShare,
}

// CalculatedMetrics holds every KPI derived from one period record or
// from an aggregated cohort. Values are raw, unrounded floats; display
// precision is applied at formatting time only.
type CalculatedMetrics struct {
	IdleShare            float64 `json:"idle_share"`                  // %
	CruiseShare          float64 `json:"cruise_share"`                // %
	EngineBrakeShare     float64 `json:"engine_brake_share"`          // %
	CoastingShare        float64 `json:"coasting_share"`              // %
	DieselEfficiency     float64 `json:"diesel_efficiency"`           // km/l
	WeightAdjConsumption float64 `json:"weight_adjusted_consumption"` // l/100km per ton
	OverspeedShare       float64 `json:"overspeed_share"`             // %
	CO2PerTonKm          float64 `json:"co2_per_ton_km"`              // kg per ton-km
}

// Value returns the metric value for k.
func (m CalculatedMetrics) Value(k KPI) float64 {
	switch k {
	case KPIIdleShare:
		return m.IdleShare
	case KPICruiseShare:
		return m.CruiseShare
	case KPIEngineBrakeShare:
		return m.EngineBrakeShare
	case KPICoastingShare:
		return m.CoastingShare
	case KPIDieselEfficiency:
		return m.DieselEfficiency
	case KPIWeightAdjConsumption:
		return m.WeightAdjConsumption
	case KPIOverspeedShare:
		return m.OverspeedShare
	case KPICO2PerTonKm:
		return m.CO2PerTonKm
	}
	return 0
}

// HigherIsBetter reports the improvement direction for k. A rising
// cruise share is good; a rising idle share is not.
func (k KPI) HigherIsBetter() bool {
	switch k {
	case KPICruiseShare, KPIEngineBrakeShare, KPICoastingShare, KPIDieselEfficiency:
		return true
	}
	return false
}

// Decimals returns the display precision for k. Shares use one
// decimal place; efficiency figures carry more.
func (k KPI) Decimals() int {
	switch k {
	case KPIDieselEfficiency:
		return 2
	case KPIWeightAdjConsumption:
		return 3
	case KPICO2PerTonKm:
		return 4
	}
	return 1
}

// Label returns the display name for k.
func (k KPI) Label() string {
	switch k {
	case KPIIdleShare:
		return "Idle Share"
	case KPICruiseShare:
		return "Cruise Control Share"
	case KPIEngineBrakeShare:
		return "Engine Brake Share"
	case KPICoastingShare:
		return "Coasting Share"
	case KPIDieselEfficiency:
		return "Diesel Efficiency"
	case KPIWeightAdjConsumption:
		return "Weight-Adjusted Consumption"
	case KPIOverspeedShare:
		return "Overspeed Share"
	case KPICO2PerTonKm:
		return "CO2 per Ton-Kilometer"
	}
	return string(k)
}

// Unit returns the display unit for k.
func (k KPI) Unit() string {
	switch k {
	case KPIDieselEfficiency:
		return "km/l"
	case KPIWeightAdjConsumption:
		return "l/100km/t"
	case KPICO2PerTonKm:
		return "kg/tkm"
	}
	return "%"
}

// Format renders v with the display precision of k.
func (k KPI) Format(v float64) string {
	return fmt.Sprintf("%.*f", k.Decimals(), v)
}

// TargetStatus classifies a value against its target band.
type TargetStatus string

const (
	TargetStatusOK    TargetStatus = "ok"
	TargetStatusBelow TargetStatus = "below"
	TargetStatusAbove TargetStatus = "above"
	TargetStatusNone  TargetStatus = "none" // KPI carries no target
)

// TargetBand is a one-sided goal corridor for a KPI. Min set means
// "at least", Max set means "at most". Both nil means no target.
type TargetBand struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Classify places v relative to the band.
func (b TargetBand) Classify(v float64) TargetStatus {
	if b.Min == nil && b.Max == nil {
		return TargetStatusNone
	}
	if b.Min != nil && v < *b.Min {
		return TargetStatusBelow
	}
	if b.Max != nil && v > *b.Max {
		return TargetStatusAbove
	}
	return TargetStatusOK
}

// Label renders the band for display, e.g. ">= 66.5" or "<= 5.0".
func (b TargetBand) Label(k KPI) string {
	switch {
	case b.Min != nil:
		return fmt.Sprintf(">= %s", k.Format(*b.Min))
	case b.Max != nil:
		return fmt.Sprintf("<= %s", k.Format(*b.Max))
	}
	return "-"
}

func floatPtr(v float64) *float64 { return &v }

// DefaultTargets returns the fleet-wide goal corridors. Only the four
// ranked behavior KPIs carry targets.
func DefaultTargets() map[KPI]TargetBand {
	return map[KPI]TargetBand{
		KPIIdleShare:        {Max: floatPtr(5.0)},
		KPICruiseShare:      {Min: floatPtr(66.5)},
		KPIEngineBrakeShare: {Min: floatPtr(56.0)},
		KPICoastingShare:    {Min: floatPtr(7.0)},
	}
}
