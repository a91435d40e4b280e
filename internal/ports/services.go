package ports

import (
	"context"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// ReportService is the application surface for report generation.
type ReportService interface {
	// Preview assembles the report document without rendering it.
	Preview(ctx context.Context, req domain.ReportRequest) (*domain.ReportDocument, error)

	// Generate assembles and renders the report, archives it and
	// returns the artifact with download metadata.
	Generate(ctx context.Context, req domain.ReportRequest) (*domain.RenderedReport, error)

	// Dispatch validates the request and queues it for asynchronous
	// generation and mailing.
	Dispatch(ctx context.Context, req domain.ReportRequest) error

	// ListGenerated returns archive entries, newest first.
	ListGenerated(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error)

	// DriverPerformance returns one driver's KPIs for a period with
	// the month-over-month comparison.
	DriverPerformance(ctx context.Context, driverName string, month, year int) (*domain.DriverPerformance, error)
}

// DocumentRenderer turns an assembled report document into artifact
// bytes. Render honors the context deadline; a document is produced in
// one bounded attempt or not at all.
type DocumentRenderer interface {
	Render(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat) ([]byte, error)
	Filename(doc *domain.ReportDocument, format domain.OutputFormat) string
	MIMEType(format domain.OutputFormat) string
}

// Attachment is a file carried by an outgoing email.
type Attachment struct {
	Filename string
	MIMEType string
	Bytes    []byte
}

// EmailService handles outbound notifications.
type EmailService interface {
	// Send sends a plain-text email.
	Send(ctx context.Context, to, subject, body string) error

	// SendHTML sends an HTML email.
	SendHTML(ctx context.Context, to, subject, htmlBody string) error

	// SendReport mails a rendered report. The body is an HTML summary
	// of the document's KPIs against their targets.
	SendReport(ctx context.Context, to string, doc *domain.ReportDocument, attachment Attachment) error
}
