package metrics

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// Calculator derives performance KPIs from raw period records. Every
// derivation degrades to zero on a zero denominator; results are never
// NaN and never negative. Values above 100% are possible for shares
// whose numerator is not a subset of the denominator and are reported
// as-is.
type Calculator struct {
	log *zap.Logger
}

func NewCalculator(log *zap.Logger) *Calculator {
	return &Calculator{log: log}
}

// DurationSeconds converts a telematics duration string "hh:mm:ss" to
// seconds. Anything that does not split into three integer parts
// counts as zero; trucks with no reported runtime simply drop out of
// the time-based KPIs.
func DurationSeconds(s string) int64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0
	}
	var vals [3]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		vals[i] = n
	}
	return vals[0]*3600 + vals[1]*60 + vals[2]
}

// safeShare returns num/den*100, or zero when den is not positive.
func safeShare(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den * 100
}

// safeDiv returns num/den, or zero when den is not positive.
func safeDiv(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// nonNeg treats negative raw counters as zero. Telemetry aggregates
// cannot legitimately be negative.
func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Calculate derives all KPIs for one driver period.
func (c *Calculator) Calculate(rec domain.DriverPeriodRecord) domain.CalculatedMetrics {
	driving := nonNeg(rec.DrivingDistance)
	cruise := nonNeg(rec.CruiseDistanceOver50)
	noCruise := nonNeg(rec.DistanceOver50NoCruise)
	engBrake := nonNeg(rec.EngineBrakeDistance)
	srvBrake := nonNeg(rec.ServiceBrakeDistance)
	coasting := nonNeg(rec.ActiveCoastingDistance) + nonNeg(rec.CoastingDistance)
	overspeed := nonNeg(rec.OverspeedDistance)
	consumption := nonNeg(rec.TotalConsumption)
	weight := nonNeg(rec.AvgTotalWeight)
	co2 := nonNeg(rec.CO2Emission)

	runtime := float64(DurationSeconds(rec.EngineRuntime))
	idle := float64(DurationSeconds(rec.IdleTime))
	if runtime == 0 && rec.EngineRuntime != "" && c.log != nil {
		c.log.Debug("engine runtime not parseable, idle share degrades to zero",
			zap.String("driver", rec.DriverName),
			zap.String("engine_runtime", rec.EngineRuntime))
	}

	m := domain.CalculatedMetrics{
		IdleShare:        safeShare(idle, runtime),
		CruiseShare:      safeShare(cruise, cruise+noCruise),
		EngineBrakeShare: safeShare(engBrake, engBrake+srvBrake),
		CoastingShare:    safeShare(coasting, driving),
		DieselEfficiency: safeDiv(driving, consumption),
		OverspeedShare:   safeShare(overspeed, driving),
		CO2PerTonKm:      safeDiv(co2, driving*weight),
	}

	// Liters per 100 km, normalized by average total weight.
	per100 := safeDiv(consumption, driving) * 100
	m.WeightAdjConsumption = safeDiv(per100, weight)

	return m
}

// CalculateAll derives KPIs for every record, preserving input order.
func (c *Calculator) CalculateAll(records []domain.DriverPeriodRecord) []domain.DriverMetrics {
	out := make([]domain.DriverMetrics, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.DriverMetrics{
			DriverName: rec.DriverName,
			Metrics:    c.Calculate(rec),
		})
	}
	return out
}

// Aggregate combines a cohort into one KPI set using the given mode.
func (c *Calculator) Aggregate(records []domain.DriverPeriodRecord, mode domain.AggregationMode) domain.CalculatedMetrics {
	if mode == domain.AggregationAverage {
		return c.aggregateAverage(records)
	}
	return c.aggregateSum(records)
}

// aggregateSum pools the raw counters of the whole cohort and derives
// each KPI once from the pooled totals. The pooled average weight is
// the distance-weighted mean so that ton-kilometer figures stay
// physically consistent.
func (c *Calculator) aggregateSum(records []domain.DriverPeriodRecord) domain.CalculatedMetrics {
	var (
		driving, cruise, noCruise    float64
		engBrake, srvBrake, coasting float64
		overspeed, consumption, co2  float64
		tonKm                        float64
		runtime, idle                int64
	)
	for _, rec := range records {
		d := nonNeg(rec.DrivingDistance)
		driving += d
		cruise += nonNeg(rec.CruiseDistanceOver50)
		noCruise += nonNeg(rec.DistanceOver50NoCruise)
		engBrake += nonNeg(rec.EngineBrakeDistance)
		srvBrake += nonNeg(rec.ServiceBrakeDistance)
		coasting += nonNeg(rec.ActiveCoastingDistance) + nonNeg(rec.CoastingDistance)
		overspeed += nonNeg(rec.OverspeedDistance)
		consumption += nonNeg(rec.TotalConsumption)
		co2 += nonNeg(rec.CO2Emission)
		tonKm += d * nonNeg(rec.AvgTotalWeight)
		runtime += DurationSeconds(rec.EngineRuntime)
		idle += DurationSeconds(rec.IdleTime)
	}

	pooledWeight := safeDiv(tonKm, driving)

	m := domain.CalculatedMetrics{
		IdleShare:        safeShare(float64(idle), float64(runtime)),
		CruiseShare:      safeShare(cruise, cruise+noCruise),
		EngineBrakeShare: safeShare(engBrake, engBrake+srvBrake),
		CoastingShare:    safeShare(coasting, driving),
		DieselEfficiency: safeDiv(driving, consumption),
		OverspeedShare:   safeShare(overspeed, driving),
		CO2PerTonKm:      safeDiv(co2, tonKm),
	}

	per100 := safeDiv(consumption, driving) * 100
	m.WeightAdjConsumption = safeDiv(per100, pooledWeight)

	return m
}

// aggregateAverage derives each driver's KPIs first and takes the
// unweighted mean, so every driver counts equally regardless of
// mileage.
func (c *Calculator) aggregateAverage(records []domain.DriverPeriodRecord) domain.CalculatedMetrics {
	if len(records) == 0 {
		return domain.CalculatedMetrics{}
	}

	var sum domain.CalculatedMetrics
	for _, rec := range records {
		m := c.Calculate(rec)
		sum.IdleShare += m.IdleShare
		sum.CruiseShare += m.CruiseShare
		sum.EngineBrakeShare += m.EngineBrakeShare
		sum.CoastingShare += m.CoastingShare
		sum.DieselEfficiency += m.DieselEfficiency
		sum.WeightAdjConsumption += m.WeightAdjConsumption
		sum.OverspeedShare += m.OverspeedShare
		sum.CO2PerTonKm += m.CO2PerTonKm
	}

	n := float64(len(records))
	return domain.CalculatedMetrics{
		IdleShare:            sum.IdleShare / n,
		CruiseShare:          sum.CruiseShare / n,
		EngineBrakeShare:     sum.EngineBrakeShare / n,
		CoastingShare:        sum.CoastingShare / n,
		DieselEfficiency:     sum.DieselEfficiency / n,
		WeightAdjConsumption: sum.WeightAdjConsumption / n,
		OverspeedShare:       sum.OverspeedShare / n,
		CO2PerTonKm:          sum.CO2PerTonKm / n,
	}
}
