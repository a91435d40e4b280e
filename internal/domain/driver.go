package domain

import (
	"fmt"
	"time"
)

// DriverPeriodRecord is one driver's raw telemetry aggregate for one
// calendar month. Records are written by the import pipeline and are
// read-only for the analytics core; all derived values are recomputed
// from these fields on demand.
type DriverPeriodRecord struct {
	ID         string `json:"id" gorm:"primaryKey"`
	DriverName string `json:"driver_name" gorm:"uniqueIndex:idx_driver_period"`
	GroupName  string `json:"group_name" gorm:"index"`
	Month      int    `json:"month" gorm:"uniqueIndex:idx_driver_period"`
	Year       int    `json:"year" gorm:"uniqueIndex:idx_driver_period"`

	// Distances, all in km.
	DrivingDistance        float64 `json:"driving_distance"`
	CruiseDistanceOver50   float64 `json:"cruise_distance_over_50"`    // >50 km/h with cruise control
	DistanceOver50NoCruise float64 `json:"distance_over_50_no_cruise"` // >50 km/h without cruise control
	EngineBrakeDistance    float64 `json:"engine_brake_distance"`
	ServiceBrakeDistance   float64 `json:"service_brake_distance"`
	ActiveCoastingDistance float64 `json:"active_coasting_distance"`
	CoastingDistance       float64 `json:"coasting_distance"`
	OverspeedDistance      float64 `json:"overspeed_distance"` // overspeed while not coasting

	// Durations as reported by the telematics unit, "hh:mm:ss".
	EngineRuntime string `json:"engine_runtime"`
	IdleTime      string `json:"idle_time"`
	DrivingTime   string `json:"driving_time"`

	TotalConsumption float64 `json:"total_consumption"` // liters
	AvgTotalWeight   float64 `json:"avg_total_weight"`  // tons
	CO2Emission      float64 `json:"co2_emission"`      // kg

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Period identifies one reporting month.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// Previous returns the calendar month before p.
func (p Period) Previous() Period {
	if p.Month == 1 {
		return Period{Month: 12, Year: p.Year - 1}
	}
	return Period{Month: p.Month - 1, Year: p.Year}
}

// Label returns the human-readable period name, e.g. "June 2025".
func (p Period) Label() string {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%s %d", time.Month(p.Month).String(), p.Year)
}

// GeneratedReport is the archive entry written after every successful
// render. The artifact bytes themselves are not stored.
type GeneratedReport struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	Kind         ReportKind   `json:"kind" gorm:"index"`
	GroupName    string       `json:"group_name,omitempty"`
	DriverName   string       `json:"driver_name,omitempty"`
	Month        int          `json:"month"`
	Year         int          `json:"year"`
	Format       OutputFormat `json:"format"`
	Filename     string       `json:"filename"`
	SizeBytes    int          `json:"size_bytes"`
	RenderMillis int64        `json:"render_millis"`
	CreatedAt    time.Time    `json:"created_at"`
}
