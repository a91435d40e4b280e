package domain

import "time"

// ReportKind selects the audience of a report.
type ReportKind string

const (
	ReportKindFleet      ReportKind = "fleet"
	ReportKindGroup      ReportKind = "group"
	ReportKindIndividual ReportKind = "individual"
)

// Valid reports whether k is a known kind.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportKindFleet, ReportKindGroup, ReportKindIndividual:
		return true
	}
	return false
}

// Title returns the document heading for k.
func (k ReportKind) Title() string {
	switch k {
	case ReportKindFleet:
		return "Fleet Performance Report"
	case ReportKindGroup:
		return "Group Performance Report"
	case ReportKindIndividual:
		return "Driver Performance Report"
	}
	return "Performance Report"
}

// OutputFormat selects the rendered artifact type.
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatWord OutputFormat = "word"
)

// Valid reports whether f is a known format.
func (f OutputFormat) Valid() bool {
	return f == FormatPDF || f == FormatWord
}

// Extension returns the file extension including the dot.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatWord:
		return ".docx"
	}
	return ""
}

// AggregationMode selects how cohort summary KPIs are combined. The
// two modes answer different questions and are never mixed within one
// report.
type AggregationMode string

const (
	// AggregationSum pools the raw counters of all drivers first and
	// derives each KPI once from the pooled totals. Heavy-mileage
	// drivers weigh in proportionally.
	AggregationSum AggregationMode = "sum"

	// AggregationAverage derives each driver's KPIs first and averages
	// the results. Every driver counts equally.
	AggregationAverage AggregationMode = "average"
)

// Valid reports whether a is a known mode.
func (a AggregationMode) Valid() bool {
	return a == AggregationSum || a == AggregationAverage
}

// ReportRequest carries every parameter of a report run. Zero-valued
// optional fields are filled with configured defaults before
// validation.
type ReportRequest struct {
	Kind       ReportKind `json:"kind" validate:"required,oneof=fleet group individual"`
	Month      int        `json:"month" validate:"required,min=1,max=12"`
	Year       int        `json:"year" validate:"required,min=2000,max=2100"`
	GroupName  string     `json:"group_name" validate:"required_if=Kind group"`
	DriverName string     `json:"driver_name" validate:"required_if=Kind individual"`

	// MinimumKm excludes drivers below this driving distance. Nil means
	// "use the configured default"; non-positive values are invalid.
	MinimumKm   *float64        `json:"minimum_km,omitempty"`
	Aggregation AggregationMode `json:"aggregation" validate:"omitempty,oneof=sum average"`
	Format      OutputFormat    `json:"format" validate:"omitempty,oneof=pdf word"`

	// Recipients is only used by dispatch requests.
	Recipients []string `json:"recipients" validate:"omitempty,dive,email"`
}

// Period returns the requested reporting month.
func (r ReportRequest) Period() Period {
	return Period{Month: r.Month, Year: r.Year}
}

// SummaryRow is one formatted KPI line of the cohort summary.
type SummaryRow struct {
	KPI    KPI          `json:"kpi"`
	Label  string       `json:"label"`
	Unit   string       `json:"unit"`
	Value  string       `json:"value"`
	Target string       `json:"target"`
	Status TargetStatus `json:"status"`
}

// CohortSummary aggregates the qualified cohort into a single KPI set.
type CohortSummary struct {
	Mode        AggregationMode   `json:"mode"`
	DriverCount int               `json:"driver_count"`
	Metrics     CalculatedMetrics `json:"metrics"`
	Rows        []SummaryRow      `json:"rows"`
}

// KPIRankingRow is one line of a single-KPI leaderboard.
type KPIRankingRow struct {
	Position   int    `json:"position"`
	DriverName string `json:"driver_name"`
	Value      string `json:"value"`
}

// KPIRankingTable is the leaderboard for one scored KPI.
type KPIRankingTable struct {
	KPI   KPI             `json:"kpi"`
	Title string          `json:"title"`
	Rows  []KPIRankingRow `json:"rows"`
}

// DataRow is one label/value line of a raw-data table.
type DataRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DataTable groups related raw telemetry values for display.
type DataTable struct {
	Title string    `json:"title"`
	Rows  []DataRow `json:"rows"`
}

// MetricsRow is one formatted KPI line of a driver's detail table,
// covering current value, previous value, movement and target.
type MetricsRow struct {
	KPI       KPI            `json:"kpi"`
	Label     string         `json:"label"`
	Unit      string         `json:"unit"`
	Current   string         `json:"current"`
	Previous  string         `json:"previous"`
	Change    string         `json:"change"`
	Target    string         `json:"target"`
	Direction TrendDirection `json:"direction"`
	Status    TargetStatus   `json:"status"`
}

// DriverSection is the per-driver detail block of a report.
type DriverSection struct {
	DriverName string       `json:"driver_name"`
	Position   int          `json:"position"`
	TotalScore int          `json:"total_score"`
	NewDriver  bool         `json:"new_driver"`
	DataTables []DataTable  `json:"data_tables"`
	MetricRows []MetricsRow `json:"metric_rows"`
	Trends     TrendResult  `json:"trends"`
}

// ReportDocument is the fully assembled, renderer-independent report.
// The preview endpoint serializes it as-is; the render engines walk it
// section by section. All display values are pre-formatted so screen
// and artifact always agree.
type ReportDocument struct {
	ID          string          `json:"id"`
	Kind        ReportKind      `json:"kind"`
	OrgName     string          `json:"org_name"`
	GroupName   string          `json:"group_name,omitempty"`
	DriverName  string          `json:"driver_name,omitempty"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	PeriodLabel string          `json:"period_label"`
	GeneratedAt time.Time       `json:"generated_at"`
	MinimumKm   float64         `json:"minimum_km"`
	Aggregation AggregationMode `json:"aggregation"`

	// NoData marks a structurally valid document whose cohort was
	// empty after qualification. Renderers emit a notice page instead
	// of tables.
	NoData       bool   `json:"no_data"`
	NoDataReason string `json:"no_data_reason,omitempty"`

	TotalDrivers     int `json:"total_drivers"`
	QualifiedDrivers int `json:"qualified_drivers"`

	Summary     *CohortSummary    `json:"summary,omitempty"`
	Ranking     []RankingEntry    `json:"ranking,omitempty"`
	KPIRankings []KPIRankingTable `json:"kpi_rankings,omitempty"`
	Drivers     []DriverSection   `json:"drivers,omitempty"`
}

// Period returns the document's reporting month.
func (d *ReportDocument) Period() Period {
	return Period{Month: d.Month, Year: d.Year}
}

// RenderedReport is a finished artifact together with its download
// metadata.
type RenderedReport struct {
	Document *ReportDocument `json:"document,omitempty"`
	Filename string          `json:"filename"`
	MIMEType string          `json:"mime_type"`
	Bytes    []byte          `json:"-"`
}

// Queue subjects for report lifecycle events.
const (
	SubjectReportRequested = "report.requested"
	SubjectReportGenerated = "report.generated"
)

// ReportRequestedEvent asks the dispatch worker to generate and mail a
// report asynchronously.
type ReportRequestedEvent struct {
	Request     ReportRequest `json:"request"`
	RequestedAt time.Time     `json:"requested_at"`
}

// ReportGeneratedEvent announces a finished artifact to downstream
// consumers. It carries metadata only, never the document bytes.
type ReportGeneratedEvent struct {
	ReportID    string       `json:"report_id"`
	Kind        ReportKind   `json:"kind"`
	Format      OutputFormat `json:"format"`
	Filename    string       `json:"filename"`
	Month       int          `json:"month"`
	Year        int          `json:"year"`
	SizeBytes   int          `json:"size_bytes"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// DriverPerformance is the API view of one driver's KPIs for one
// period, including the comparison against the month before.
type DriverPerformance struct {
	DriverName string              `json:"driver_name"`
	Month      int                 `json:"month"`
	Year       int                 `json:"year"`
	Metrics    CalculatedMetrics   `json:"metrics"`
	Trends     TrendResult         `json:"trends"`
	Record     *DriverPeriodRecord `json:"record,omitempty"`
}
