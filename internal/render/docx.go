package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleetsight/fleetsight/internal/domain"
)

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>
</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>
</Relationships>`

	docxApp = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties"><Application>fleetsight</Application></Properties>`
)

// Row and cell colors as RRGGBB hex.
const (
	docxShadeHeader = "E6E6E6"
	docxShadeTop    = "FAF0CC"
	docxColorGood   = "1A7A1A"
	docxColorBad    = "C00000"
	docxColorMuted  = "666666"
)

var docxEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// DOCXEngine renders report documents as Office Open XML word
// processing files. The package parts are written directly into a zip
// container; formatting is applied inline, no style sheet part is
// referenced.
type DOCXEngine struct{}

func NewDOCXEngine() *DOCXEngine {
	return &DOCXEngine{}
}

func (e *DOCXEngine) MIMEType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// docxCell is one table cell with optional emphasis and text color.
type docxCell struct {
	text  string
	bold  bool
	color string
}

// docxRow is one table row; shade tints every cell.
type docxRow struct {
	cells []docxCell
	shade string
}

func docxPlainRow(cells ...string) docxRow {
	row := docxRow{cells: make([]docxCell, len(cells))}
	for i, c := range cells {
		row.cells[i] = docxCell{text: c}
	}
	return row
}

// docxBody accumulates the document body markup.
type docxBody struct {
	b strings.Builder
}

func (d *docxBody) run(text string, bold bool, halfPoints int, color string) string {
	var props strings.Builder
	if bold {
		props.WriteString("<w:b/>")
	}
	if color != "" {
		fmt.Fprintf(&props, `<w:color w:val="%s"/>`, color)
	}
	if halfPoints > 0 {
		fmt.Fprintf(&props, `<w:sz w:val="%d"/>`, halfPoints)
	}
	rPr := ""
	if props.Len() > 0 {
		rPr = "<w:rPr>" + props.String() + "</w:rPr>"
	}
	return fmt.Sprintf(`<w:r>%s<w:t xml:space="preserve">%s</w:t></w:r>`, rPr, docxEscaper.Replace(text))
}

func (d *docxBody) para(text string) {
	d.b.WriteString("<w:p>" + d.run(text, false, 0, "") + "</w:p>")
}

func (d *docxBody) heading(text string, halfPoints int) {
	d.b.WriteString("<w:p>" + d.run(text, true, halfPoints, "") + "</w:p>")
}

func (d *docxBody) centeredHeading(text string, halfPoints int) {
	d.b.WriteString(`<w:p><w:pPr><w:jc w:val="center"/></w:pPr>` + d.run(text, true, halfPoints, "") + "</w:p>")
}

func (d *docxBody) emptyLine() {
	d.b.WriteString("<w:p/>")
}

func (d *docxBody) pageBreak() {
	d.b.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

// table writes a full-width bordered table with a shaded header row.
func (d *docxBody) table(headers []string, rows []docxRow) {
	d.b.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="5000" w:type="pct"/><w:tblLayout w:type="autofit"/>` +
		`<w:tblBorders>` +
		`<w:top w:val="single" w:sz="4" w:color="999999"/>` +
		`<w:left w:val="single" w:sz="4" w:color="999999"/>` +
		`<w:bottom w:val="single" w:sz="4" w:color="999999"/>` +
		`<w:right w:val="single" w:sz="4" w:color="999999"/>` +
		`<w:insideH w:val="single" w:sz="4" w:color="999999"/>` +
		`<w:insideV w:val="single" w:sz="4" w:color="999999"/>` +
		`</w:tblBorders></w:tblPr>`)

	header := docxRow{shade: docxShadeHeader, cells: make([]docxCell, len(headers))}
	for i, h := range headers {
		header.cells[i] = docxCell{text: h, bold: true}
	}
	d.tableRow(header)

	for _, row := range rows {
		d.tableRow(row)
	}
	d.b.WriteString("</w:tbl>")
	d.emptyLine()
}

func (d *docxBody) tableRow(row docxRow) {
	d.b.WriteString("<w:tr>")
	for _, cell := range row.cells {
		d.b.WriteString("<w:tc><w:tcPr>")
		if row.shade != "" {
			fmt.Fprintf(&d.b, `<w:shd w:val="clear" w:color="auto" w:fill="%s"/>`, row.shade)
		}
		d.b.WriteString("</w:tcPr><w:p>" + d.run(cell.text, cell.bold, 0, cell.color) + "</w:p></w:tc>")
	}
	d.b.WriteString("</w:tr>")
}

// docxStatusColor maps a target status to a text color, empty for
// neutral.
func docxStatusColor(s domain.TargetStatus) string {
	switch s {
	case domain.TargetStatusOK:
		return docxColorGood
	case domain.TargetStatusBelow, domain.TargetStatusAbove:
		return docxColorBad
	}
	return ""
}

func docxDirectionColor(dir domain.TrendDirection) string {
	switch dir {
	case domain.TrendImproved:
		return docxColorGood
	case domain.TrendDeclined:
		return docxColorBad
	case domain.TrendNewDriver, domain.TrendNotMeasurable:
		return docxColorMuted
	}
	return ""
}

// Render walks the document in the same order as the PDF engine:
// cover, summary, rankings, then one section per driver, each behind
// a page break.
func (e *DOCXEngine) Render(doc *domain.ReportDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("docx: nil document")
	}

	body := &docxBody{}
	e.cover(body, doc)

	if doc.NoData {
		body.pageBreak()
		body.heading("No Data Available", 28)
		reason := doc.NoDataReason
		if reason == "" {
			reason = "No drivers qualified for this reporting period."
		}
		body.para(reason)
	} else {
		if doc.Summary != nil {
			body.pageBreak()
			e.summary(body, doc)
		}
		body.pageBreak()
		e.ranking(body, doc)
		if len(doc.KPIRankings) > 0 {
			body.pageBreak()
			e.kpiRankings(body, doc)
		}
		for i := range doc.Drivers {
			body.pageBreak()
			e.driver(body, &doc.Drivers[i])
		}
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.b.String() +
		`<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr>` +
		`</w:body></w:document>`

	title := fmt.Sprintf("%s %s", doc.Kind.Title(), doc.PeriodLabel)
	core := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>%s</dc:title>
<dc:creator>fleetsight</dc:creator>
<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>
</cp:coreProperties>`, docxEscaper.Replace(title), doc.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", document},
		{"docProps/core.xml", core},
		{"docProps/app.xml", docxApp},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("docx: create %s: %w", part.name, err)
		}
		if _, err := fw.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("docx: write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("docx: close container: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *DOCXEngine) cover(body *docxBody, doc *domain.ReportDocument) {
	body.emptyLine()
	body.emptyLine()
	body.centeredHeading(doc.Kind.Title(), 48)
	body.centeredHeading(doc.OrgName, 28)
	body.emptyLine()
	body.centeredHeading(doc.PeriodLabel, 32)
	body.emptyLine()

	switch doc.Kind {
	case domain.ReportKindGroup:
		body.para(fmt.Sprintf("Group: %s", doc.GroupName))
	case domain.ReportKindIndividual:
		body.para(fmt.Sprintf("Driver: %s", doc.DriverName))
	}
	body.para(fmt.Sprintf("Qualification: at least %s km driving distance",
		strconv.FormatFloat(doc.MinimumKm, 'f', -1, 64)))
	body.para(fmt.Sprintf("Cohort: %d of %d drivers qualified", doc.QualifiedDrivers, doc.TotalDrivers))
	body.para(fmt.Sprintf("Aggregation: %s", doc.Aggregation))
	body.emptyLine()
	body.para(fmt.Sprintf("Generated %s", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
}

func (e *DOCXEngine) summary(body *docxBody, doc *domain.ReportDocument) {
	body.heading("Cohort Summary", 28)
	rows := make([]docxRow, 0, len(doc.Summary.Rows))
	for _, r := range doc.Summary.Rows {
		row := docxPlainRow(r.Label, r.Value, r.Unit, r.Target)
		row.cells = append(row.cells, docxCell{text: statusText(r.Status), color: docxStatusColor(r.Status)})
		rows = append(rows, row)
	}
	body.table([]string{"Indicator", "Value", "Unit", "Target", "Status"}, rows)
}

func (e *DOCXEngine) ranking(body *docxBody, doc *domain.ReportDocument) {
	body.heading("Driver Ranking", 28)
	rows := make([]docxRow, 0, len(doc.Ranking))
	for _, entry := range doc.Ranking {
		top := entry.Position <= 3
		row := docxRow{cells: []docxCell{
			{text: strconv.Itoa(entry.Position), bold: top},
			{text: entry.DriverName, bold: top},
			{text: strconv.Itoa(entry.IdleRank)},
			{text: strconv.Itoa(entry.CruiseRank)},
			{text: strconv.Itoa(entry.EngineBrakeRank)},
			{text: strconv.Itoa(entry.CoastingRank)},
			{text: strconv.Itoa(entry.TotalScore), bold: top},
		}}
		if top {
			row.shade = docxShadeTop
		}
		rows = append(rows, row)
	}
	body.table([]string{"#", "Driver", "Idle", "Cruise", "Eng. Brake", "Coasting", "Score"}, rows)
}

func (e *DOCXEngine) kpiRankings(body *docxBody, doc *domain.ReportDocument) {
	body.heading("Rankings by Indicator", 28)
	for _, t := range doc.KPIRankings {
		body.heading(t.Title, 24)
		rows := make([]docxRow, 0, len(t.Rows))
		for _, r := range t.Rows {
			row := docxPlainRow(strconv.Itoa(r.Position), r.DriverName, r.Value)
			if r.Position <= 3 {
				row.shade = docxShadeTop
			}
			rows = append(rows, row)
		}
		body.table([]string{"#", "Driver", "Value"}, rows)
	}
}

func (e *DOCXEngine) driver(body *docxBody, sec *domain.DriverSection) {
	body.heading(sec.DriverName, 28)
	if sec.NewDriver {
		body.para(fmt.Sprintf("Rank %d of cohort, score %d (new driver, no previous period)", sec.Position, sec.TotalScore))
	} else {
		body.para(fmt.Sprintf("Rank %d of cohort, score %d", sec.Position, sec.TotalScore))
	}
	body.emptyLine()

	for _, t := range sec.DataTables {
		body.heading(t.Title, 24)
		rows := make([]docxRow, 0, len(t.Rows))
		for _, r := range t.Rows {
			rows = append(rows, docxPlainRow(r.Label, r.Value))
		}
		body.table([]string{"Measure", "Value"}, rows)
	}

	body.heading("Performance Indicators", 24)
	rows := make([]docxRow, 0, len(sec.MetricRows))
	for _, r := range sec.MetricRows {
		rows = append(rows, docxRow{cells: []docxCell{
			{text: fmt.Sprintf("%s (%s)", r.Label, r.Unit)},
			{text: r.Current, color: docxStatusColor(r.Status)},
			{text: r.Previous},
			{text: r.Change, color: docxDirectionColor(r.Direction)},
			{text: r.Target},
		}})
	}
	body.table([]string{"Indicator", "Current", "Previous", "Change", "Target"}, rows)
}
