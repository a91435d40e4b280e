package metrics

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newCalculator() *Calculator {
	return NewCalculator(newTestLogger())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDurationSeconds(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int64
	}{
		{"standard", "08:30:00", 30600},
		{"zero", "00:00:00", 0},
		{"minutes and seconds", "01:02:03", 3723},
		{"no leading zeros", "1:2:3", 3723},
		{"large hours", "120:00:30", 432030},
		{"surrounding whitespace", " 02:00:00 ", 7200},
		{"empty string", "", 0},
		{"two parts", "12:30", 0},
		{"four parts", "1:2:3:4", 0},
		{"non numeric", "aa:bb:cc", 0},
		{"negative part", "-1:00:00", 0},
		{"plain number", "3600", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DurationSeconds(tt.input)
			if got != tt.expected {
				t.Errorf("DurationSeconds(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCalculator_Calculate_AllFormulas(t *testing.T) {
	// Arrange
	calc := newCalculator()
	rec := domain.DriverPeriodRecord{
		DriverName:             "Berger",
		DrivingDistance:        10000,
		CruiseDistanceOver50:   6650,
		DistanceOver50NoCruise: 3350,
		EngineBrakeDistance:    560,
		ServiceBrakeDistance:   440,
		ActiveCoastingDistance: 400,
		CoastingDistance:       300,
		OverspeedDistance:      250,
		EngineRuntime:          "200:00:00",
		IdleTime:               "10:00:00",
		TotalConsumption:       2500,
		AvgTotalWeight:         25,
		CO2Emission:            6600,
	}

	// Act
	m := calc.Calculate(rec)

	// Assert
	if !almostEqual(m.IdleShare, 5.0) {
		t.Errorf("expected idle share 5.0, got %f", m.IdleShare)
	}
	if !almostEqual(m.CruiseShare, 66.5) {
		t.Errorf("expected cruise share 66.5, got %f", m.CruiseShare)
	}
	if !almostEqual(m.EngineBrakeShare, 56.0) {
		t.Errorf("expected engine brake share 56.0, got %f", m.EngineBrakeShare)
	}
	if !almostEqual(m.CoastingShare, 7.0) {
		t.Errorf("expected coasting share 7.0, got %f", m.CoastingShare)
	}
	if !almostEqual(m.DieselEfficiency, 4.0) {
		t.Errorf("expected diesel efficiency 4.0, got %f", m.DieselEfficiency)
	}
	// 2500 l / 10000 km * 100 = 25 l/100km, divided by 25 t = 1.0
	if !almostEqual(m.WeightAdjConsumption, 1.0) {
		t.Errorf("expected weight-adjusted consumption 1.0, got %f", m.WeightAdjConsumption)
	}
	if !almostEqual(m.OverspeedShare, 2.5) {
		t.Errorf("expected overspeed share 2.5, got %f", m.OverspeedShare)
	}
	// 6600 kg / (10000 km * 25 t) = 0.0264
	if !almostEqual(m.CO2PerTonKm, 0.0264) {
		t.Errorf("expected co2 per ton-km 0.0264, got %f", m.CO2PerTonKm)
	}
}

func TestCalculator_Calculate_ZeroDrivingDistance(t *testing.T) {
	// Arrange
	calc := newCalculator()
	rec := domain.DriverPeriodRecord{
		DriverName:             "Idle Only",
		DrivingDistance:        0,
		ActiveCoastingDistance: 12,
		CoastingDistance:       8,
		OverspeedDistance:      5,
		TotalConsumption:       40,
		AvgTotalWeight:         18,
		CO2Emission:            100,
		EngineRuntime:          "05:00:00",
		IdleTime:               "05:00:00",
	}

	// Act
	m := calc.Calculate(rec)

	// Assert
	if m.CoastingShare != 0 {
		t.Errorf("expected coasting share 0, got %f", m.CoastingShare)
	}
	if m.OverspeedShare != 0 {
		t.Errorf("expected overspeed share 0, got %f", m.OverspeedShare)
	}
	if m.WeightAdjConsumption != 0 {
		t.Errorf("expected weight-adjusted consumption 0, got %f", m.WeightAdjConsumption)
	}
	if m.CO2PerTonKm != 0 {
		t.Errorf("expected co2 per ton-km 0, got %f", m.CO2PerTonKm)
	}
	// Truck idled the whole runtime.
	if !almostEqual(m.IdleShare, 100.0) {
		t.Errorf("expected idle share 100.0, got %f", m.IdleShare)
	}
}

func TestCalculator_Calculate_ZeroRuntime(t *testing.T) {
	// Arrange
	calc := newCalculator()
	rec := domain.DriverPeriodRecord{
		DriverName:    "No Runtime",
		EngineRuntime: "00:00:00",
		IdleTime:      "02:00:00",
	}

	// Act
	m := calc.Calculate(rec)

	// Assert
	if m.IdleShare != 0 {
		t.Errorf("expected idle share 0 for zero runtime, got %f", m.IdleShare)
	}
}

func TestCalculator_Calculate_ZeroConsumption(t *testing.T) {
	// Arrange
	calc := newCalculator()
	rec := domain.DriverPeriodRecord{
		DriverName:       "Free Rider",
		DrivingDistance:  100,
		TotalConsumption: 0,
		AvgTotalWeight:   20,
	}

	// Act
	m := calc.Calculate(rec)

	// Assert
	if m.DieselEfficiency != 0 {
		t.Errorf("expected diesel efficiency 0, got %f", m.DieselEfficiency)
	}
	if m.WeightAdjConsumption != 0 {
		t.Errorf("expected weight-adjusted consumption 0, got %f", m.WeightAdjConsumption)
	}
}

func TestCalculator_Calculate_NeverNaNOrNegative(t *testing.T) {
	// Arrange
	calc := newCalculator()
	records := []domain.DriverPeriodRecord{
		{},
		{DrivingDistance: -50, TotalConsumption: -10, AvgTotalWeight: -5},
		{EngineRuntime: "garbage", IdleTime: "also garbage"},
		{DrivingDistance: 1, CruiseDistanceOver50: 0, DistanceOver50NoCruise: 0},
	}

	for _, rec := range records {
		// Act
		m := calc.Calculate(rec)

		// Assert
		for _, k := range domain.AllKPIs {
			v := m.Value(k)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("KPI %s is not finite: %f", k, v)
			}
			if v < 0 {
				t.Errorf("KPI %s is negative: %f", k, v)
			}
		}
	}
}

func TestCalculator_Calculate_ShareCanExceedHundred(t *testing.T) {
	// Arrange: coasting distance above total driving distance stays
	// uncapped so data problems remain visible.
	calc := newCalculator()
	rec := domain.DriverPeriodRecord{
		DriverName:             "Data Glitch",
		DrivingDistance:        100,
		ActiveCoastingDistance: 90,
		CoastingDistance:       30,
	}

	// Act
	m := calc.Calculate(rec)

	// Assert
	if !almostEqual(m.CoastingShare, 120.0) {
		t.Errorf("expected coasting share 120.0, got %f", m.CoastingShare)
	}
}

func TestCalculator_CalculateAll_PreservesOrder(t *testing.T) {
	// Arrange
	calc := newCalculator()
	records := []domain.DriverPeriodRecord{
		{DriverName: "Zimmermann", DrivingDistance: 500},
		{DriverName: "Abel", DrivingDistance: 700},
		{DriverName: "Meier", DrivingDistance: 600},
	}

	// Act
	all := calc.CalculateAll(records)

	// Assert
	if len(all) != 3 {
		t.Fatalf("expected 3 results, got %d", len(all))
	}
	for i, want := range []string{"Zimmermann", "Abel", "Meier"} {
		if all[i].DriverName != want {
			t.Errorf("position %d: expected %s, got %s", i, want, all[i].DriverName)
		}
	}
}

func TestCalculator_Aggregate_SumPoolsRawTotals(t *testing.T) {
	// Arrange: two drivers with very different mileage. Pooled idle
	// share uses total idle over total runtime, not the mean of the
	// two per-driver shares.
	calc := newCalculator()
	records := []domain.DriverPeriodRecord{
		{
			DriverName:      "Heavy",
			DrivingDistance: 9000,
			EngineRuntime:   "90:00:00",
			IdleTime:        "09:00:00", // 10%
		},
		{
			DriverName:      "Light",
			DrivingDistance: 1000,
			EngineRuntime:   "10:00:00",
			IdleTime:        "05:00:00", // 50%
		},
	}

	// Act
	m := calc.Aggregate(records, domain.AggregationSum)

	// Assert: 14h idle over 100h runtime.
	if !almostEqual(m.IdleShare, 14.0) {
		t.Errorf("expected pooled idle share 14.0, got %f", m.IdleShare)
	}
}

func TestCalculator_Aggregate_AverageWeighsDriversEqually(t *testing.T) {
	// Arrange
	calc := newCalculator()
	records := []domain.DriverPeriodRecord{
		{
			DriverName:      "Heavy",
			DrivingDistance: 9000,
			EngineRuntime:   "90:00:00",
			IdleTime:        "09:00:00", // 10%
		},
		{
			DriverName:      "Light",
			DrivingDistance: 1000,
			EngineRuntime:   "10:00:00",
			IdleTime:        "05:00:00", // 50%
		},
	}

	// Act
	m := calc.Aggregate(records, domain.AggregationAverage)

	// Assert: mean of 10% and 50%.
	if !almostEqual(m.IdleShare, 30.0) {
		t.Errorf("expected averaged idle share 30.0, got %f", m.IdleShare)
	}
}

func TestCalculator_Aggregate_EmptyCohort(t *testing.T) {
	// Arrange
	calc := newCalculator()

	// Act
	sum := calc.Aggregate(nil, domain.AggregationSum)
	avg := calc.Aggregate(nil, domain.AggregationAverage)

	// Assert
	if sum != (domain.CalculatedMetrics{}) {
		t.Errorf("expected zero metrics for empty sum aggregation, got %+v", sum)
	}
	if avg != (domain.CalculatedMetrics{}) {
		t.Errorf("expected zero metrics for empty average aggregation, got %+v", avg)
	}
}

func TestCalculator_Aggregate_SumUsesDistanceWeightedTons(t *testing.T) {
	// Arrange: 1000 km at 10 t and 1000 km at 30 t give 40000 ton-km.
	calc := newCalculator()
	records := []domain.DriverPeriodRecord{
		{DriverName: "A", DrivingDistance: 1000, AvgTotalWeight: 10, CO2Emission: 200},
		{DriverName: "B", DrivingDistance: 1000, AvgTotalWeight: 30, CO2Emission: 600},
	}

	// Act
	m := calc.Aggregate(records, domain.AggregationSum)

	// Assert: 800 kg over 40000 ton-km.
	if !almostEqual(m.CO2PerTonKm, 0.02) {
		t.Errorf("expected co2 per ton-km 0.02, got %f", m.CO2PerTonKm)
	}
}
