package report

import (
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/service/metrics"
	"github.com/fleetsight/fleetsight/internal/service/ranking"
	"github.com/fleetsight/fleetsight/internal/service/trend"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestComposer() *Composer {
	log := newTestLogger()
	return NewComposer(metrics.NewCalculator(log), ranking.NewEngine(log), trend.NewAnalyzer(nil, log))
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func floatPtr(v float64) *float64 { return &v }

// benchmarkRecord returns a record whose KPIs land exactly on the
// default targets: idle 5.0, cruise 66.5, engine brake 56.0,
// coasting 7.0.
func benchmarkRecord(name, group string, month, year int) domain.DriverPeriodRecord {
	return domain.DriverPeriodRecord{
		DriverName:             name,
		GroupName:              group,
		Month:                  month,
		Year:                   year,
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
		DrivingTime:            "180:00:00",
		TotalConsumption:       2500,
		AvgTotalWeight:         25,
		CO2Emission:            6600,
	}
}

// threeTierFleet returns drivers with strictly ordered behavior KPIs:
// Anna beats Bernd beats Carla on every scored KPI.
func threeTierFleet(month, year int) []domain.DriverPeriodRecord {
	anna := benchmarkRecord("Anna", "North", month, year)
	anna.IdleTime = "08:00:00" // 4.0 %
	anna.CruiseDistanceOver50 = 7000
	anna.DistanceOver50NoCruise = 3000 // 70.0 %
	anna.EngineBrakeDistance = 600
	anna.ServiceBrakeDistance = 400 // 60.0 %
	anna.ActiveCoastingDistance = 500
	anna.CoastingDistance = 300 // 8.0 %
	bernd := benchmarkRecord("Bernd", "North", month, year)
	carla := benchmarkRecord("Carla", "South", month, year)
	carla.IdleTime = "12:00:00" // 6.0 %
	carla.CruiseDistanceOver50 = 6000
	carla.DistanceOver50NoCruise = 4000 // 60.0 %
	carla.EngineBrakeDistance = 500
	carla.ServiceBrakeDistance = 500 // 50.0 %
	carla.ActiveCoastingDistance = 300
	carla.CoastingDistance = 300 // 6.0 %
	return []domain.DriverPeriodRecord{anna, bernd, carla}
}

func fleetRequest(month, year int) domain.ReportRequest {
	return domain.ReportRequest{
		Kind:        domain.ReportKindFleet,
		Month:       month,
		Year:        year,
		MinimumKm:   floatPtr(100),
		Aggregation: domain.AggregationSum,
		Format:      domain.FormatPDF,
	}
}

func TestComposer_Compose_FleetReport(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	records := threeTierFleet(6, 2025)
	low := benchmarkRecord("Dora", "South", 6, 2025)
	low.DrivingDistance = 50
	records = append(records, low)
	generatedAt := time.Date(2025, 7, 10, 14, 30, 0, 0, time.UTC)

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Fleetsight Logistics GmbH", records, nil, generatedAt)

	// Assert
	if doc.Kind != domain.ReportKindFleet {
		t.Errorf("expected fleet kind, got %s", doc.Kind)
	}
	if doc.OrgName != "Fleetsight Logistics GmbH" {
		t.Errorf("unexpected org name %q", doc.OrgName)
	}
	if doc.PeriodLabel != "June 2025" {
		t.Errorf("expected period label June 2025, got %q", doc.PeriodLabel)
	}
	if !doc.GeneratedAt.Equal(generatedAt) {
		t.Errorf("unexpected generation time %v", doc.GeneratedAt)
	}
	if doc.ID == "" {
		t.Error("expected a document ID")
	}
	if doc.NoData {
		t.Fatalf("expected data, got no-data document: %s", doc.NoDataReason)
	}
	if doc.TotalDrivers != 4 || doc.QualifiedDrivers != 3 {
		t.Errorf("expected 4 total / 3 qualified, got %d / %d", doc.TotalDrivers, doc.QualifiedDrivers)
	}
	if doc.Summary == nil {
		t.Fatal("expected a cohort summary")
	}
	if doc.Summary.DriverCount != 3 {
		t.Errorf("expected summary over 3 drivers, got %d", doc.Summary.DriverCount)
	}
	if len(doc.Summary.Rows) != len(domain.AllKPIs) {
		t.Errorf("expected %d summary rows, got %d", len(domain.AllKPIs), len(doc.Summary.Rows))
	}
	if len(doc.Ranking) != 3 {
		t.Errorf("expected 3 ranking entries, got %d", len(doc.Ranking))
	}
	if len(doc.KPIRankings) != len(domain.RankedKPIs) {
		t.Errorf("expected %d leaderboards, got %d", len(domain.RankedKPIs), len(doc.KPIRankings))
	}
	if len(doc.Drivers) != 3 {
		t.Fatalf("expected 3 driver sections, got %d", len(doc.Drivers))
	}
	for _, section := range doc.Drivers {
		if section.DriverName == "Dora" {
			t.Error("driver below the qualification distance must not get a section")
		}
		if !section.NewDriver {
			t.Errorf("driver %s without previous period should be marked new", section.DriverName)
		}
	}
}

func TestComposer_Compose_RankingOrder(t *testing.T) {
	// Arrange
	comp := newTestComposer()

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", threeTierFleet(6, 2025), nil, time.Now())

	// Assert
	expected := []struct {
		name  string
		score int
	}{
		{"Anna", 4},
		{"Bernd", 8},
		{"Carla", 12},
	}
	for i, want := range expected {
		entry := doc.Ranking[i]
		if entry.DriverName != want.name {
			t.Errorf("position %d: expected %s, got %s", i+1, want.name, entry.DriverName)
		}
		if entry.TotalScore != want.score {
			t.Errorf("%s: expected score %d, got %d", want.name, want.score, entry.TotalScore)
		}
		if entry.Position != i+1 {
			t.Errorf("%s: expected position %d, got %d", want.name, i+1, entry.Position)
		}
	}
	for i, section := range doc.Drivers {
		if section.Position != i+1 {
			t.Errorf("driver sections must follow ranking order, got position %d at index %d", section.Position, i)
		}
		if section.DriverName != expected[i].name {
			t.Errorf("expected section %d for %s, got %s", i, expected[i].name, section.DriverName)
		}
	}
}

func TestComposer_Compose_NoQualifiedDrivers(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	rec := benchmarkRecord("Anna", "North", 6, 2025)
	rec.DrivingDistance = 40

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", []domain.DriverPeriodRecord{rec}, nil, time.Now())

	// Assert
	if !doc.NoData {
		t.Fatal("expected a no-data document")
	}
	if !strings.Contains(doc.NoDataReason, "no drivers reached 100 km in June 2025") {
		t.Errorf("unexpected reason %q", doc.NoDataReason)
	}
	if doc.TotalDrivers != 1 || doc.QualifiedDrivers != 0 {
		t.Errorf("expected 1 total / 0 qualified, got %d / %d", doc.TotalDrivers, doc.QualifiedDrivers)
	}
	if doc.Summary != nil || len(doc.Ranking) != 0 || len(doc.Drivers) != 0 {
		t.Error("no-data document must not carry summary, ranking or sections")
	}
}

func TestComposer_Compose_EmptyCohort(t *testing.T) {
	// Arrange
	comp := newTestComposer()

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", nil, nil, time.Now())

	// Assert
	if !doc.NoData {
		t.Fatal("expected a no-data document")
	}
	if doc.TotalDrivers != 0 || doc.QualifiedDrivers != 0 {
		t.Errorf("expected empty cohort counts, got %d / %d", doc.TotalDrivers, doc.QualifiedDrivers)
	}
}

func TestComposer_Compose_IndividualScopesSectionsToDriver(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	req := fleetRequest(6, 2025)
	req.Kind = domain.ReportKindIndividual
	req.DriverName = "Bernd"

	// Act
	doc := comp.Compose(req, "Org", threeTierFleet(6, 2025), nil, time.Now())

	// Assert
	if doc.DriverName != "Bernd" {
		t.Errorf("expected document driver Bernd, got %q", doc.DriverName)
	}
	if len(doc.Ranking) != 3 {
		t.Errorf("individual report must rank the whole cohort, got %d entries", len(doc.Ranking))
	}
	if len(doc.Drivers) != 1 {
		t.Fatalf("expected exactly one driver section, got %d", len(doc.Drivers))
	}
	section := doc.Drivers[0]
	if section.DriverName != "Bernd" {
		t.Errorf("expected section for Bernd, got %s", section.DriverName)
	}
	if section.Position != 2 {
		t.Errorf("expected fleet-relative position 2, got %d", section.Position)
	}
}

func TestComposer_Compose_IndividualDriverMissing(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	req := fleetRequest(6, 2025)
	req.Kind = domain.ReportKindIndividual
	req.DriverName = "Nobody"

	// Act
	doc := comp.Compose(req, "Org", threeTierFleet(6, 2025), nil, time.Now())

	// Assert
	if !doc.NoData {
		t.Fatal("expected a no-data document for an unknown driver")
	}
	if !strings.Contains(doc.NoDataReason, `driver "Nobody" has no qualifying record`) {
		t.Errorf("unexpected reason %q", doc.NoDataReason)
	}
}

func TestComposer_Compose_GroupReport(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	req := fleetRequest(6, 2025)
	req.Kind = domain.ReportKindGroup
	req.GroupName = "North"
	records := []domain.DriverPeriodRecord{
		benchmarkRecord("Anna", "North", 6, 2025),
		benchmarkRecord("Bernd", "North", 6, 2025),
	}

	// Act
	doc := comp.Compose(req, "Org", records, nil, time.Now())

	// Assert
	if doc.GroupName != "North" {
		t.Errorf("expected group North on the document, got %q", doc.GroupName)
	}
	if doc.NoData {
		t.Fatalf("expected data, got: %s", doc.NoDataReason)
	}
	if len(doc.Drivers) != 2 {
		t.Errorf("expected 2 driver sections, got %d", len(doc.Drivers))
	}
}

func TestComposer_Compose_TrendsUsePreviousMonth(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	current := []domain.DriverPeriodRecord{
		benchmarkRecord("Anna", "North", 6, 2025),
		benchmarkRecord("Bernd", "North", 6, 2025),
	}
	prevAnna := benchmarkRecord("Anna", "North", 5, 2025)
	prevAnna.IdleTime = "08:00:00" // 4.0 %, worsened to 5.0 in June
	previous := []domain.DriverPeriodRecord{prevAnna}

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", current, previous, time.Now())

	// Assert
	var anna, bernd *domain.DriverSection
	for i := range doc.Drivers {
		switch doc.Drivers[i].DriverName {
		case "Anna":
			anna = &doc.Drivers[i]
		case "Bernd":
			bernd = &doc.Drivers[i]
		}
	}
	if anna == nil || bernd == nil {
		t.Fatal("expected sections for Anna and Bernd")
	}

	if anna.NewDriver {
		t.Error("Anna has a previous record and must not be marked new")
	}
	idleRow := anna.MetricRows[0]
	if idleRow.KPI != domain.KPIIdleShare {
		t.Fatalf("expected first row to be idle share, got %s", idleRow.KPI)
	}
	if idleRow.Current != "5.0" || idleRow.Previous != "4.0" {
		t.Errorf("expected idle 5.0 after 4.0, got %s after %s", idleRow.Current, idleRow.Previous)
	}
	if idleRow.Change != "+25.0%" {
		t.Errorf("expected change +25.0%%, got %s", idleRow.Change)
	}
	if idleRow.Direction != domain.TrendDeclined {
		t.Errorf("rising idle share must decline, got %s", idleRow.Direction)
	}
	if idleRow.Target != "<= 5.0" {
		t.Errorf("expected idle target <= 5.0, got %q", idleRow.Target)
	}
	cruiseRow := anna.MetricRows[1]
	if cruiseRow.Change != "+0.0%" || cruiseRow.Direction != domain.TrendUnchanged {
		t.Errorf("expected unchanged cruise share, got change %s direction %s", cruiseRow.Change, cruiseRow.Direction)
	}

	if !bernd.NewDriver {
		t.Error("Bernd has no previous record and must be marked new")
	}
	berndIdle := bernd.MetricRows[0]
	if berndIdle.Previous != "new driver" || berndIdle.Change != "n/a" {
		t.Errorf("new driver rows must label the previous column, got previous %q change %q", berndIdle.Previous, berndIdle.Change)
	}
	if berndIdle.Direction != domain.TrendNewDriver {
		t.Errorf("expected new_driver direction, got %s", berndIdle.Direction)
	}
}

func TestComposer_Compose_NewDriverPreviousColumn(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	records := []domain.DriverPeriodRecord{benchmarkRecord("Anna", "North", 6, 2025)}

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", records, nil, time.Now())

	// Assert
	section := doc.Drivers[0]
	if !section.NewDriver {
		t.Fatal("driver without a previous period must be marked new")
	}
	if len(section.MetricRows) != len(domain.AllKPIs) {
		t.Fatalf("expected %d metric rows, got %d", len(domain.AllKPIs), len(section.MetricRows))
	}
	for _, row := range section.MetricRows {
		if row.Previous != "new driver" {
			t.Errorf("%s: previous column must read new driver, got %q", row.KPI, row.Previous)
		}
		if row.Change != "n/a" {
			t.Errorf("%s: change must stay n/a for a new driver, got %q", row.KPI, row.Change)
		}
		if row.Direction != domain.TrendNewDriver {
			t.Errorf("%s: expected new_driver direction, got %s", row.KPI, row.Direction)
		}
	}
}

func TestComposer_Compose_SummaryRowsCarryTargets(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	records := []domain.DriverPeriodRecord{benchmarkRecord("Anna", "North", 6, 2025)}

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", records, nil, time.Now())

	// Assert
	rows := doc.Summary.Rows
	idle := rows[0]
	if idle.Value != "5.0" || idle.Target != "<= 5.0" || idle.Status != domain.TargetStatusOK {
		t.Errorf("unexpected idle row: %+v", idle)
	}
	cruise := rows[1]
	if cruise.Value != "66.5" || cruise.Target != ">= 66.5" || cruise.Status != domain.TargetStatusOK {
		t.Errorf("unexpected cruise row: %+v", cruise)
	}
	diesel := rows[4]
	if diesel.Value != "4.00" || diesel.Target != "-" || diesel.Status != domain.TargetStatusNone {
		t.Errorf("unexpected diesel row: %+v", diesel)
	}
	weightAdj := rows[5]
	if weightAdj.Value != "1.000" {
		t.Errorf("expected weight-adjusted consumption 1.000, got %s", weightAdj.Value)
	}
	co2 := rows[7]
	if co2.Value != "0.0264" {
		t.Errorf("expected CO2 per ton-km 0.0264, got %s", co2.Value)
	}
}

func TestComposer_Compose_KPIRankingTables(t *testing.T) {
	// Arrange
	comp := newTestComposer()

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", threeTierFleet(6, 2025), nil, time.Now())

	// Assert
	titles := []string{
		"Idle Share (lower is better)",
		"Cruise Control Share (higher is better)",
		"Engine Brake Share (higher is better)",
		"Coasting Share (higher is better)",
	}
	if len(doc.KPIRankings) != len(titles) {
		t.Fatalf("expected %d leaderboards, got %d", len(titles), len(doc.KPIRankings))
	}
	for i, want := range titles {
		if doc.KPIRankings[i].Title != want {
			t.Errorf("expected title %q, got %q", want, doc.KPIRankings[i].Title)
		}
	}

	idleBoard := doc.KPIRankings[0]
	if idleBoard.Rows[0].DriverName != "Anna" || idleBoard.Rows[0].Value != "4.0" || idleBoard.Rows[0].Position != 1 {
		t.Errorf("unexpected idle leader: %+v", idleBoard.Rows[0])
	}
	if idleBoard.Rows[2].DriverName != "Carla" || idleBoard.Rows[2].Value != "6.0" {
		t.Errorf("unexpected idle last place: %+v", idleBoard.Rows[2])
	}
	cruiseBoard := doc.KPIRankings[1]
	if cruiseBoard.Rows[0].DriverName != "Anna" || cruiseBoard.Rows[0].Value != "70.0" {
		t.Errorf("unexpected cruise leader: %+v", cruiseBoard.Rows[0])
	}
}

func TestComposer_Compose_DataTables(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	records := []domain.DriverPeriodRecord{benchmarkRecord("Anna", "North", 6, 2025)}

	// Act
	doc := comp.Compose(fleetRequest(6, 2025), "Org", records, nil, time.Now())

	// Assert
	tables := doc.Drivers[0].DataTables
	if len(tables) != 3 {
		t.Fatalf("expected 3 data tables, got %d", len(tables))
	}
	expected := []struct {
		title string
		rows  int
	}{
		{"Operating Data", 4},
		{"Driving Behavior", 7},
		{"Idle and Time Data", 3},
	}
	for i, want := range expected {
		if tables[i].Title != want.title {
			t.Errorf("expected table %q, got %q", want.title, tables[i].Title)
		}
		if len(tables[i].Rows) != want.rows {
			t.Errorf("%s: expected %d rows, got %d", want.title, want.rows, len(tables[i].Rows))
		}
	}
	if tables[0].Rows[0].Label != "Driving distance (km)" || tables[0].Rows[0].Value != "10000.0" {
		t.Errorf("unexpected first operating row: %+v", tables[0].Rows[0])
	}
	if tables[1].Rows[0].Value != "6650.0" {
		t.Errorf("expected cruise distance 6650.0, got %s", tables[1].Rows[0].Value)
	}
	if tables[2].Rows[1].Label != "Idle time" || tables[2].Rows[1].Value != "10:00:00" {
		t.Errorf("unexpected idle time row: %+v", tables[2].Rows[1])
	}
}

func TestComposer_Compose_AggregationModes(t *testing.T) {
	// Arrange
	comp := newTestComposer()
	big := benchmarkRecord("Anna", "North", 6, 2025) // 10000 km, 2500 l
	small := benchmarkRecord("Bernd", "North", 6, 2025)
	small.DrivingDistance = 1000
	small.TotalConsumption = 500 // 2.0 km/l vs Anna's 4.0
	records := []domain.DriverPeriodRecord{big, small}

	sumReq := fleetRequest(6, 2025)
	avgReq := fleetRequest(6, 2025)
	avgReq.Aggregation = domain.AggregationAverage

	// Act
	sumDoc := comp.Compose(sumReq, "Org", records, nil, time.Now())
	avgDoc := comp.Compose(avgReq, "Org", records, nil, time.Now())

	// Assert
	if sumDoc.Summary.Mode != domain.AggregationSum || avgDoc.Summary.Mode != domain.AggregationAverage {
		t.Error("summary must carry the requested aggregation mode")
	}
	if !almostEqual(sumDoc.Summary.Metrics.DieselEfficiency, 11000.0/3000.0) {
		t.Errorf("sum mode must pool raw totals, got %f", sumDoc.Summary.Metrics.DieselEfficiency)
	}
	if !almostEqual(avgDoc.Summary.Metrics.DieselEfficiency, 3.0) {
		t.Errorf("average mode must average per-driver values, got %f", avgDoc.Summary.Metrics.DieselEfficiency)
	}
}
