package render

import (
	"strconv"
	"strings"
	"time"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// sanitizePart reduces a name to filesystem-safe ASCII: letters and
// digits pass through, spaces become underscores, everything else is
// dropped.
func sanitizePart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteByte(byte(r))
		}
	}
	return b.String()
}

// Filename builds the artifact name from organization, report kind,
// selector, period and generation time:
//
//	<Org>_<Kind>_[Selector_]<Month>_<Year>_<Timestamp><ext>
func Filename(doc *domain.ReportDocument, format domain.OutputFormat) string {
	parts := []string{sanitizePart(doc.OrgName)}

	switch doc.Kind {
	case domain.ReportKindFleet:
		parts = append(parts, "Fleet_Report")
	case domain.ReportKindGroup:
		parts = append(parts, "Group_Report", sanitizePart(doc.GroupName))
	case domain.ReportKindIndividual:
		parts = append(parts, "Driver_Report", sanitizePart(doc.DriverName))
	default:
		parts = append(parts, "Report")
	}

	month := strconv.Itoa(doc.Month)
	if doc.Month >= 1 && doc.Month <= 12 {
		month = time.Month(doc.Month).String()
	}
	parts = append(parts, month, strconv.Itoa(doc.Year), doc.GeneratedAt.Format("20060102150405"))

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "_") + format.Extension()
}
