package mocks

import (
	"context"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// MockReportService is a mock implementation of ReportService interface
type MockReportService struct {
	PreviewFunc           func(ctx context.Context, req domain.ReportRequest) (*domain.ReportDocument, error)
	GenerateFunc          func(ctx context.Context, req domain.ReportRequest) (*domain.RenderedReport, error)
	DispatchFunc          func(ctx context.Context, req domain.ReportRequest) error
	ListGeneratedFunc     func(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error)
	DriverPerformanceFunc func(ctx context.Context, driverName string, month, year int) (*domain.DriverPerformance, error)
}

func (m *MockReportService) Preview(ctx context.Context, req domain.ReportRequest) (*domain.ReportDocument, error) {
	if m.PreviewFunc != nil {
		return m.PreviewFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReportService) Generate(ctx context.Context, req domain.ReportRequest) (*domain.RenderedReport, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockReportService) Dispatch(ctx context.Context, req domain.ReportRequest) error {
	if m.DispatchFunc != nil {
		return m.DispatchFunc(ctx, req)
	}
	return nil
}

func (m *MockReportService) ListGenerated(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error) {
	if m.ListGeneratedFunc != nil {
		return m.ListGeneratedFunc(ctx, limit, offset)
	}
	return []domain.GeneratedReport{}, nil
}

func (m *MockReportService) DriverPerformance(ctx context.Context, driverName string, month, year int) (*domain.DriverPerformance, error) {
	if m.DriverPerformanceFunc != nil {
		return m.DriverPerformanceFunc(ctx, driverName, month, year)
	}
	return nil, nil
}

// MockDocumentRenderer is a mock implementation of DocumentRenderer interface
type MockDocumentRenderer struct {
	RenderFunc   func(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat) ([]byte, error)
	FilenameFunc func(doc *domain.ReportDocument, format domain.OutputFormat) string
	MIMETypeFunc func(format domain.OutputFormat) string
}

func (m *MockDocumentRenderer) Render(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat) ([]byte, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, doc, format)
	}
	return []byte("rendered"), nil
}

func (m *MockDocumentRenderer) Filename(doc *domain.ReportDocument, format domain.OutputFormat) string {
	if m.FilenameFunc != nil {
		return m.FilenameFunc(doc, format)
	}
	return "report" + format.Extension()
}

func (m *MockDocumentRenderer) MIMEType(format domain.OutputFormat) string {
	if m.MIMETypeFunc != nil {
		return m.MIMETypeFunc(format)
	}
	if format == domain.FormatWord {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// MockEmailService is a mock implementation of EmailService interface
type MockEmailService struct {
	SendFunc       func(ctx context.Context, to, subject, body string) error
	SendHTMLFunc   func(ctx context.Context, to, subject, htmlBody string) error
	SendReportFunc func(ctx context.Context, to string, doc *domain.ReportDocument, attachment ports.Attachment) error

	// Track sent emails for assertions
	SentEmails []SentEmail
}

// SentEmail represents a sent email for testing
type SentEmail struct {
	To         string
	Subject    string
	Body       string
	Attachment *ports.Attachment
}

func (m *MockEmailService) Send(ctx context.Context, to, subject, body string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: body})
	if m.SendFunc != nil {
		return m.SendFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *MockEmailService) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: htmlBody})
	if m.SendHTMLFunc != nil {
		return m.SendHTMLFunc(ctx, to, subject, htmlBody)
	}
	return nil
}

func (m *MockEmailService) SendReport(ctx context.Context, to string, doc *domain.ReportDocument, attachment ports.Attachment) error {
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Attachment: &attachment})
	if m.SendReportFunc != nil {
		return m.SendReportFunc(ctx, to, doc, attachment)
	}
	return nil
}

// GetSentEmails returns all sent emails for assertions
func (m *MockEmailService) GetSentEmails() []SentEmail {
	return m.SentEmails
}

// ClearSentEmails clears the sent emails list
func (m *MockEmailService) ClearSentEmails() {
	m.SentEmails = nil
}
