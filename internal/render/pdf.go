package render

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// Page geometry in points, US Letter.
const (
	pdfPageWidth  = 612.0
	pdfPageHeight = 792.0
	pdfMargin     = 72.0
	pdfFontSize   = 10.0
	pdfRowHeight  = 18.0
)

// Objects 1-4 are reserved: catalog, page tree and the two fonts.
// Dynamic objects are numbered behind them.
const pdfReservedObjects = 4

var (
	pdfColorHeaderBg = [3]float64{0.90, 0.90, 0.90}
	pdfColorTopBg    = [3]float64{0.98, 0.94, 0.80}
	pdfColorGood     = [3]float64{0.10, 0.48, 0.10}
	pdfColorBad      = [3]float64{0.75, 0.08, 0.08}
	pdfColorMuted    = [3]float64{0.40, 0.40, 0.40}
)

// PDFEngine renders report documents as self-contained PDF 1.4 files.
// It writes objects, cross-reference table and trailer directly; page
// content streams are zlib-compressed unless compression is disabled
// for inspection in tests.
type PDFEngine struct {
	compress bool
}

func NewPDFEngine() *PDFEngine {
	return &PDFEngine{compress: true}
}

func (e *PDFEngine) MIMEType() string {
	return "application/pdf"
}

// pdfText converts s to WinAnsi bytes and escapes the string literal
// delimiters. Runes outside Latin-1 degrade to '?'.
func pdfText(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '(' || r == ')':
			b.WriteByte('\\')
			b.WriteByte(byte(r))
		case r < 256:
			b.WriteByte(byte(r))
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

// pdfDoc accumulates numbered objects and finished pages.
type pdfDoc struct {
	objects  []string
	pages    []int // final object numbers of page objects
	compress bool
}

// addObject stores a dynamic object and returns its 1-based index.
// The final object number is index + pdfReservedObjects.
func (d *pdfDoc) addObject(content string) int {
	d.objects = append(d.objects, content)
	return len(d.objects)
}

// addPage wraps one content stream into a page object.
func (d *pdfDoc) addPage(content string) {
	stream := []byte(content)
	filter := ""
	if d.compress {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		zw.Write(stream)
		zw.Close()
		stream = buf.Bytes()
		filter = " /Filter /FlateDecode"
	}

	contentIdx := d.addObject(fmt.Sprintf("<< /Length %d%s >>\nstream\n%s\nendstream", len(stream), filter, stream))
	pageIdx := d.addObject(fmt.Sprintf(
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Contents %d 0 R /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >> >>",
		pdfPageWidth, pdfPageHeight, contentIdx+pdfReservedObjects))
	d.pages = append(d.pages, pageIdx+pdfReservedObjects)
}

// build assembles header, objects, xref table and trailer.
func (d *pdfDoc) build(title string, created time.Time) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	buf.Write([]byte{'%', 0xE2, 0xE3, 0xCF, 0xD3, '\n'})

	var offsets []int
	writeObj := func(num int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	var kids strings.Builder
	for _, p := range d.pages {
		fmt.Fprintf(&kids, "%d 0 R ", p)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.TrimSpace(kids.String()), len(d.pages)))
	writeObj(3, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	writeObj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica-Bold /Encoding /WinAnsiEncoding >>")
	for i, obj := range d.objects {
		writeObj(pdfReservedObjects+1+i, obj)
	}

	infoNum := pdfReservedObjects + len(d.objects) + 1
	writeObj(infoNum, fmt.Sprintf("<< /Title (%s) /Producer (fleetsight) /CreationDate (D:%s) >>",
		pdfText(title), created.UTC().Format("20060102150405")))

	xrefPos := buf.Len()
	total := infoNum + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", total)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		total, infoNum, xrefPos)

	return buf.Bytes()
}

// pdfWriter builds page content streams with a downward cursor and
// transparent page breaks.
type pdfWriter struct {
	doc  *pdfDoc
	page strings.Builder
	y    float64
	open bool
}

func newPDFWriter(doc *pdfDoc) *pdfWriter {
	return &pdfWriter{doc: doc}
}

// newPage flushes the current page and starts a fresh one.
func (w *pdfWriter) newPage() {
	w.flush()
	w.page.Reset()
	w.y = pdfPageHeight - pdfMargin
	w.open = true
}

func (w *pdfWriter) flush() {
	if w.open {
		w.doc.addPage(w.page.String())
		w.open = false
	}
}

// ensure starts a new page when fewer than h points remain.
func (w *pdfWriter) ensure(h float64) {
	if !w.open || w.y-h < pdfMargin {
		w.newPage()
	}
}

func (w *pdfWriter) text(x, y, size float64, bold bool, s string) {
	font := "F1"
	if bold {
		font = "F2"
	}
	fmt.Fprintf(&w.page, "BT /%s %.2f Tf %.2f %.2f Td (%s) Tj ET\n", font, size, x, y, pdfText(s))
}

func (w *pdfWriter) colorText(x, y, size float64, bold bool, c [3]float64, s string) {
	fmt.Fprintf(&w.page, "%.2f %.2f %.2f rg\n", c[0], c[1], c[2])
	w.text(x, y, size, bold, s)
	w.page.WriteString("0 0 0 rg\n")
}

func (w *pdfWriter) fillRect(x, y, wd, ht float64, c [3]float64) {
	fmt.Fprintf(&w.page, "%.2f %.2f %.2f rg %.2f %.2f %.2f %.2f re f 0 0 0 rg\n",
		c[0], c[1], c[2], x, y, wd, ht)
}

func (w *pdfWriter) line(x1, y1, x2, y2, width float64) {
	fmt.Fprintf(&w.page, "%.2f w %.2f %.2f m %.2f %.2f l S\n", width, x1, y1, x2, y2)
}

// writeLine writes one left-aligned text line at the cursor and
// advances it.
func (w *pdfWriter) writeLine(size float64, bold bool, s string) {
	lineH := size * 1.5
	w.ensure(lineH)
	w.y -= lineH
	w.text(pdfMargin, w.y, size, bold, s)
}

func (w *pdfWriter) space(h float64) {
	w.y -= h
}

// pdfCell is one table cell with optional emphasis and color.
type pdfCell struct {
	text  string
	bold  bool
	color *[3]float64
}

// pdfRow is one table row; bg tints the whole row.
type pdfRow struct {
	cells []pdfCell
	bg    *[3]float64
}

func plainRow(cells ...string) pdfRow {
	row := pdfRow{cells: make([]pdfCell, len(cells))}
	for i, c := range cells {
		row.cells[i] = pdfCell{text: c}
	}
	return row
}

// table draws a bordered table with a shaded header. Column widths are
// fractions of the content width and must sum to 1. Page breaks repeat
// the header.
func (w *pdfWriter) table(headers []string, widths []float64, rows []pdfRow) {
	contentW := pdfPageWidth - 2*pdfMargin

	colX := make([]float64, len(widths)+1)
	colX[0] = pdfMargin
	for i, frac := range widths {
		colX[i+1] = colX[i] + frac*contentW
	}

	drawHeader := func() {
		w.y -= pdfRowHeight
		w.fillRect(pdfMargin, w.y, contentW, pdfRowHeight, pdfColorHeaderBg)
		for i, h := range headers {
			w.text(colX[i]+4, w.y+5, pdfFontSize, true, h)
		}
		w.line(pdfMargin, w.y, pdfMargin+contentW, w.y, 0.8)
	}

	w.ensure(pdfRowHeight * 2)
	drawHeader()

	for _, row := range rows {
		if w.y-pdfRowHeight < pdfMargin {
			w.newPage()
			drawHeader()
		}
		w.y -= pdfRowHeight
		if row.bg != nil {
			w.fillRect(pdfMargin, w.y, contentW, pdfRowHeight, *row.bg)
		}
		for i, cell := range row.cells {
			if i >= len(headers) {
				break
			}
			if cell.color != nil {
				w.colorText(colX[i]+4, w.y+5, pdfFontSize, cell.bold, *cell.color, cell.text)
			} else {
				w.text(colX[i]+4, w.y+5, pdfFontSize, cell.bold, cell.text)
			}
		}
		w.line(pdfMargin, w.y, pdfMargin+contentW, w.y, 0.3)
	}
	w.space(6)
}

// statusColor maps a target status to a text color, nil for neutral.
func statusColor(s domain.TargetStatus) *[3]float64 {
	switch s {
	case domain.TargetStatusOK:
		return &pdfColorGood
	case domain.TargetStatusBelow, domain.TargetStatusAbove:
		return &pdfColorBad
	}
	return nil
}

// directionColor maps a trend direction to a text color.
func directionColor(d domain.TrendDirection) *[3]float64 {
	switch d {
	case domain.TrendImproved:
		return &pdfColorGood
	case domain.TrendDeclined:
		return &pdfColorBad
	case domain.TrendNewDriver, domain.TrendNotMeasurable:
		return &pdfColorMuted
	}
	return nil
}

// Render lays the document out page by page: cover, cohort summary,
// combined ranking, per-KPI leaderboards, then one section per driver.
// Every ranking section and every driver section starts on a fresh
// page.
func (e *PDFEngine) Render(doc *domain.ReportDocument) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("pdf: nil document")
	}

	d := &pdfDoc{compress: e.compress}
	w := newPDFWriter(d)

	e.coverPage(w, doc)

	if doc.NoData {
		e.noDataPage(w, doc)
	} else {
		if doc.Summary != nil {
			e.summaryPage(w, doc)
		}
		e.rankingPage(w, doc)
		e.kpiRankingPages(w, doc)
		for i := range doc.Drivers {
			e.driverPage(w, &doc.Drivers[i])
		}
	}

	w.flush()

	title := fmt.Sprintf("%s %s", doc.Kind.Title(), doc.PeriodLabel)
	return d.build(title, doc.GeneratedAt), nil
}

func (e *PDFEngine) coverPage(w *pdfWriter, doc *domain.ReportDocument) {
	w.newPage()
	w.space(120)
	w.writeLine(26, true, doc.Kind.Title())
	w.space(6)
	w.writeLine(14, false, doc.OrgName)
	w.space(18)
	w.writeLine(16, true, doc.PeriodLabel)
	w.space(30)

	switch doc.Kind {
	case domain.ReportKindGroup:
		w.writeLine(12, false, fmt.Sprintf("Group: %s", doc.GroupName))
	case domain.ReportKindIndividual:
		w.writeLine(12, false, fmt.Sprintf("Driver: %s", doc.DriverName))
	}
	w.writeLine(11, false, fmt.Sprintf("Qualification: at least %s km driving distance", strconv.FormatFloat(doc.MinimumKm, 'f', -1, 64)))
	w.writeLine(11, false, fmt.Sprintf("Cohort: %d of %d drivers qualified", doc.QualifiedDrivers, doc.TotalDrivers))
	w.writeLine(11, false, fmt.Sprintf("Aggregation: %s", doc.Aggregation))
	w.space(24)
	w.writeLine(10, false, fmt.Sprintf("Generated %s", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
}

func (e *PDFEngine) noDataPage(w *pdfWriter, doc *domain.ReportDocument) {
	w.newPage()
	w.space(60)
	w.writeLine(16, true, "No Data Available")
	w.space(10)
	reason := doc.NoDataReason
	if reason == "" {
		reason = "No drivers qualified for this reporting period."
	}
	w.writeLine(11, false, reason)
}

func (e *PDFEngine) summaryPage(w *pdfWriter, doc *domain.ReportDocument) {
	w.newPage()
	w.writeLine(16, true, "Cohort Summary")
	w.space(8)

	rows := make([]pdfRow, 0, len(doc.Summary.Rows))
	for _, r := range doc.Summary.Rows {
		row := plainRow(r.Label, r.Value, r.Unit, r.Target)
		row.cells = append(row.cells, pdfCell{text: statusText(r.Status), color: statusColor(r.Status)})
		rows = append(rows, row)
	}
	w.table(
		[]string{"Indicator", "Value", "Unit", "Target", "Status"},
		[]float64{0.34, 0.16, 0.14, 0.18, 0.18},
		rows,
	)
}

func (e *PDFEngine) rankingPage(w *pdfWriter, doc *domain.ReportDocument) {
	w.newPage()
	w.writeLine(16, true, "Driver Ranking")
	w.space(8)

	rows := make([]pdfRow, 0, len(doc.Ranking))
	for _, entry := range doc.Ranking {
		row := pdfRow{cells: []pdfCell{
			{text: strconv.Itoa(entry.Position), bold: entry.Position <= 3},
			{text: entry.DriverName, bold: entry.Position <= 3},
			{text: strconv.Itoa(entry.IdleRank)},
			{text: strconv.Itoa(entry.CruiseRank)},
			{text: strconv.Itoa(entry.EngineBrakeRank)},
			{text: strconv.Itoa(entry.CoastingRank)},
			{text: strconv.Itoa(entry.TotalScore), bold: entry.Position <= 3},
		}}
		if entry.Position <= 3 {
			row.bg = &pdfColorTopBg
		}
		rows = append(rows, row)
	}
	w.table(
		[]string{"#", "Driver", "Idle", "Cruise", "Eng. Brake", "Coasting", "Score"},
		[]float64{0.07, 0.33, 0.12, 0.12, 0.12, 0.12, 0.12},
		rows,
	)
}

func (e *PDFEngine) kpiRankingPages(w *pdfWriter, doc *domain.ReportDocument) {
	if len(doc.KPIRankings) == 0 {
		return
	}
	w.newPage()
	w.writeLine(16, true, "Rankings by Indicator")
	w.space(8)

	for _, t := range doc.KPIRankings {
		w.ensure(pdfRowHeight * 4)
		w.writeLine(12, true, t.Title)
		w.space(4)
		rows := make([]pdfRow, 0, len(t.Rows))
		for _, r := range t.Rows {
			row := plainRow(strconv.Itoa(r.Position), r.DriverName, r.Value)
			if r.Position <= 3 {
				row.bg = &pdfColorTopBg
			}
			rows = append(rows, row)
		}
		w.table(
			[]string{"#", "Driver", "Value"},
			[]float64{0.10, 0.60, 0.30},
			rows,
		)
		w.space(8)
	}
}

func (e *PDFEngine) driverPage(w *pdfWriter, sec *domain.DriverSection) {
	w.newPage()
	w.writeLine(16, true, sec.DriverName)
	w.space(2)
	if sec.NewDriver {
		w.writeLine(10, false, fmt.Sprintf("Rank %d of cohort, score %d (new driver, no previous period)", sec.Position, sec.TotalScore))
	} else {
		w.writeLine(10, false, fmt.Sprintf("Rank %d of cohort, score %d", sec.Position, sec.TotalScore))
	}
	w.space(10)

	for _, table := range sec.DataTables {
		w.ensure(pdfRowHeight * 4)
		w.writeLine(12, true, table.Title)
		w.space(4)
		rows := make([]pdfRow, 0, len(table.Rows))
		for _, r := range table.Rows {
			rows = append(rows, plainRow(r.Label, r.Value))
		}
		w.table(
			[]string{"Measure", "Value"},
			[]float64{0.60, 0.40},
			rows,
		)
		w.space(6)
	}

	w.ensure(pdfRowHeight * 4)
	w.writeLine(12, true, "Performance Indicators")
	w.space(4)

	rows := make([]pdfRow, 0, len(sec.MetricRows))
	for _, r := range sec.MetricRows {
		row := pdfRow{cells: []pdfCell{
			{text: fmt.Sprintf("%s (%s)", r.Label, r.Unit)},
			{text: r.Current, color: statusColor(r.Status)},
			{text: r.Previous},
			{text: r.Change, color: directionColor(r.Direction)},
			{text: r.Target},
		}}
		rows = append(rows, row)
	}
	w.table(
		[]string{"Indicator", "Current", "Previous", "Change", "Target"},
		[]float64{0.36, 0.16, 0.16, 0.16, 0.16},
		rows,
	)
}

// statusText renders a target status for table cells.
func statusText(s domain.TargetStatus) string {
	switch s {
	case domain.TargetStatusOK:
		return "met"
	case domain.TargetStatusBelow:
		return "below target"
	case domain.TargetStatusAbove:
		return "above target"
	}
	return "-"
}
