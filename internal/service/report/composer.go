package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/service/metrics"
	"github.com/fleetsight/fleetsight/internal/service/ranking"
	"github.com/fleetsight/fleetsight/internal/service/trend"
)

// Composer assembles report documents from period records. It is a
// pure assembly step: no I/O, no clock access, and identical inputs
// always produce an identical document apart from its ID.
type Composer struct {
	calc   *metrics.Calculator
	ranker *ranking.Engine
	trends *trend.Analyzer
}

func NewComposer(calc *metrics.Calculator, ranker *ranking.Engine, trends *trend.Analyzer) *Composer {
	return &Composer{calc: calc, ranker: ranker, trends: trends}
}

// Compose builds the document for a validated request. The current
// slice is the cohort universe for the report scope: the whole fleet
// for fleet and individual reports, one group for group reports. An
// empty cohort after qualification yields a no-data document, not an
// error.
func (c *Composer) Compose(req domain.ReportRequest, orgName string, current, previous []domain.DriverPeriodRecord, generatedAt time.Time) *domain.ReportDocument {
	minKm := 0.0
	if req.MinimumKm != nil {
		minKm = *req.MinimumKm
	}
	doc := &domain.ReportDocument{
		ID:          uuid.New().String(),
		Kind:        req.Kind,
		OrgName:     orgName,
		Month:       req.Month,
		Year:        req.Year,
		PeriodLabel: req.Period().Label(),
		GeneratedAt: generatedAt,
		MinimumKm:   minKm,
		Aggregation: req.Aggregation,
	}
	switch req.Kind {
	case domain.ReportKindGroup:
		doc.GroupName = req.GroupName
	case domain.ReportKindIndividual:
		doc.DriverName = req.DriverName
	}

	qualified := make([]domain.DriverPeriodRecord, 0, len(current))
	for _, rec := range current {
		if rec.DrivingDistance >= minKm {
			qualified = append(qualified, rec)
		}
	}
	doc.TotalDrivers = len(current)
	doc.QualifiedDrivers = len(qualified)

	if len(qualified) == 0 {
		doc.NoData = true
		doc.NoDataReason = fmt.Sprintf("no drivers reached %s km in %s",
			formatKm(minKm), doc.PeriodLabel)
		return doc
	}

	if req.Kind == domain.ReportKindIndividual && !containsDriver(qualified, req.DriverName) {
		doc.NoData = true
		doc.NoDataReason = fmt.Sprintf("driver %q has no qualifying record for %s",
			req.DriverName, doc.PeriodLabel)
		return doc
	}

	// Rankings always cover the full qualified cohort, also for an
	// individual report, so the driver's position is fleet-relative.
	entries := c.ranker.Rank(c.calc.CalculateAll(qualified))
	doc.Ranking = entries
	doc.KPIRankings = c.kpiRankings(entries)

	aggregated := c.calc.Aggregate(qualified, req.Aggregation)
	doc.Summary = &domain.CohortSummary{
		Mode:        req.Aggregation,
		DriverCount: len(qualified),
		Metrics:     aggregated,
		Rows:        c.summaryRows(aggregated),
	}

	prevByName := make(map[string]domain.CalculatedMetrics, len(previous))
	for _, rec := range previous {
		prevByName[rec.DriverName] = c.calc.Calculate(rec)
	}
	recByName := make(map[string]domain.DriverPeriodRecord, len(qualified))
	for _, rec := range qualified {
		recByName[rec.DriverName] = rec
	}

	for _, entry := range entries {
		if req.Kind == domain.ReportKindIndividual && entry.DriverName != req.DriverName {
			continue
		}
		rec := recByName[entry.DriverName]

		var prevMetrics *domain.CalculatedMetrics
		if prev, ok := prevByName[entry.DriverName]; ok {
			prevMetrics = &prev
		}
		trends := c.trends.Compare(entry.Metrics, prevMetrics)

		doc.Drivers = append(doc.Drivers, domain.DriverSection{
			DriverName: entry.DriverName,
			Position:   entry.Position,
			TotalScore: entry.TotalScore,
			NewDriver:  trends.NewDriver,
			DataTables: dataTables(rec),
			MetricRows: c.metricRows(trends),
			Trends:     trends,
		})
	}

	return doc
}

func containsDriver(records []domain.DriverPeriodRecord, name string) bool {
	for _, rec := range records {
		if rec.DriverName == name {
			return true
		}
	}
	return false
}

func formatKm(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// summaryRows formats the aggregated cohort KPIs with their targets.
func (c *Composer) summaryRows(m domain.CalculatedMetrics) []domain.SummaryRow {
	rows := make([]domain.SummaryRow, 0, len(domain.AllKPIs))
	for _, k := range domain.AllKPIs {
		v := m.Value(k)
		band := c.trends.Target(k)
		rows = append(rows, domain.SummaryRow{
			KPI:    k,
			Label:  k.Label(),
			Unit:   k.Unit(),
			Value:  k.Format(v),
			Target: band.Label(k),
			Status: band.Classify(v),
		})
	}
	return rows
}

// kpiRankings builds one leaderboard per scored KPI.
func (c *Composer) kpiRankings(entries []domain.RankingEntry) []domain.KPIRankingTable {
	tables := make([]domain.KPIRankingTable, 0, len(domain.RankedKPIs))
	for _, k := range domain.RankedKPIs {
		direction := "lower is better"
		if k.HigherIsBetter() {
			direction = "higher is better"
		}
		table := domain.KPIRankingTable{
			KPI:   k,
			Title: fmt.Sprintf("%s (%s)", k.Label(), direction),
		}
		for _, entry := range ranking.ByKPIRank(entries, k) {
			table.Rows = append(table.Rows, domain.KPIRankingRow{
				Position:   entry.Rank(k),
				DriverName: entry.DriverName,
				Value:      k.Format(entry.Metrics.Value(k)),
			})
		}
		tables = append(tables, table)
	}
	return tables
}

// metricRows formats the per-driver indicator table. A driver without
// a prior period is labeled "new driver" in the previous column; other
// values that cannot be compared render as "n/a" and are never shown
// as zero.
func (c *Composer) metricRows(trends domain.TrendResult) []domain.MetricsRow {
	rows := make([]domain.MetricsRow, 0, len(trends.KPIs))
	for _, row := range trends.KPIs {
		k := row.KPI
		previous := "n/a"
		if row.Direction == domain.TrendNewDriver {
			previous = "new driver"
		} else if row.Previous != nil {
			previous = k.Format(*row.Previous)
		}
		change := "n/a"
		if row.ChangePercent != nil {
			change = fmt.Sprintf("%+.1f%%", *row.ChangePercent)
		}
		rows = append(rows, domain.MetricsRow{
			KPI:       k,
			Label:     k.Label(),
			Unit:      k.Unit(),
			Current:   k.Format(row.Current),
			Previous:  previous,
			Change:    change,
			Target:    c.trends.Target(k).Label(k),
			Direction: row.Direction,
			Status:    row.TargetStatus,
		})
	}
	return rows
}

// dataTables groups the raw telemetry of one record into the three
// display tables.
func dataTables(rec domain.DriverPeriodRecord) []domain.DataTable {
	f1 := func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }
	duration := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	return []domain.DataTable{
		{
			Title: "Operating Data",
			Rows: []domain.DataRow{
				{Label: "Driving distance (km)", Value: f1(rec.DrivingDistance)},
				{Label: "Total consumption (l)", Value: f1(rec.TotalConsumption)},
				{Label: "Average total weight (t)", Value: f1(rec.AvgTotalWeight)},
				{Label: "CO2 emission (kg)", Value: f1(rec.CO2Emission)},
			},
		},
		{
			Title: "Driving Behavior",
			Rows: []domain.DataRow{
				{Label: "Cruise control distance >50 km/h (km)", Value: f1(rec.CruiseDistanceOver50)},
				{Label: "Distance >50 km/h without cruise control (km)", Value: f1(rec.DistanceOver50NoCruise)},
				{Label: "Engine brake distance (km)", Value: f1(rec.EngineBrakeDistance)},
				{Label: "Service brake distance (km)", Value: f1(rec.ServiceBrakeDistance)},
				{Label: "Active coasting distance (km)", Value: f1(rec.ActiveCoastingDistance)},
				{Label: "Coasting distance (km)", Value: f1(rec.CoastingDistance)},
				{Label: "Overspeed distance (km)", Value: f1(rec.OverspeedDistance)},
			},
		},
		{
			Title: "Idle and Time Data",
			Rows: []domain.DataRow{
				{Label: "Engine runtime", Value: duration(rec.EngineRuntime)},
				{Label: "Idle time", Value: duration(rec.IdleTime)},
				{Label: "Driving time", Value: duration(rec.DrivingTime)},
			},
		},
	}
}
