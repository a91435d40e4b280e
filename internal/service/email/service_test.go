package email

import (
	"context"
	"errors"
	"html/template"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// MockProvider is a mock email transport for testing
type MockProvider struct {
	SentEmails []MockEmail
	ShouldFail bool
	FailError  error
}

type MockEmail struct {
	To         string
	Subject    string
	Body       string
	IsHTML     bool
	Attachment *ports.Attachment
}

func (m *MockProvider) Send(ctx context.Context, to, subject, body string, isHTML bool) error {
	if m.ShouldFail {
		if m.FailError != nil {
			return m.FailError
		}
		return errors.New("mock send failed")
	}

	m.SentEmails = append(m.SentEmails, MockEmail{
		To:      to,
		Subject: subject,
		Body:    body,
		IsHTML:  isHTML,
	})
	return nil
}

func (m *MockProvider) SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, attachment ports.Attachment) error {
	if m.ShouldFail {
		if m.FailError != nil {
			return m.FailError
		}
		return errors.New("mock send failed")
	}

	m.SentEmails = append(m.SentEmails, MockEmail{
		To:         to,
		Subject:    subject,
		Body:       body,
		IsHTML:     isHTML,
		Attachment: &attachment,
	})
	return nil
}

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func newTestService(provider *MockProvider) *Service {
	return &Service{
		config: &Config{
			Provider:  "mock",
			FromEmail: "reports@fleetsight.io",
			FromName:  "Fleetsight Test",
			BaseURL:   "http://localhost:3000",
		},
		provider:  provider,
		templates: make(map[string]*template.Template),
		log:       newTestLogger(),
	}
}

func fleetDocument() *domain.ReportDocument {
	return &domain.ReportDocument{
		ID:               "doc-1",
		Kind:             domain.ReportKindFleet,
		OrgName:          "Fleetsight Logistics GmbH",
		Month:            6,
		Year:             2025,
		PeriodLabel:      "June 2025",
		MinimumKm:        100,
		Aggregation:      domain.AggregationSum,
		TotalDrivers:     4,
		QualifiedDrivers: 3,
		Summary: &domain.CohortSummary{
			Mode:        domain.AggregationSum,
			DriverCount: 3,
			Rows: []domain.SummaryRow{
				{KPI: domain.KPIIdleShare, Label: "Idle Share", Unit: "%", Value: "5.0", Target: "<= 5.0", Status: domain.TargetStatusOK},
				{KPI: domain.KPICruiseShare, Label: "Cruise Control Share", Unit: "%", Value: "60.0", Target: ">= 66.5", Status: domain.TargetStatusBelow},
			},
		},
	}
}

func pdfAttachment() ports.Attachment {
	return ports.Attachment{
		Filename: "Fleetsight_fleet_June_2025.pdf",
		MIMEType: "application/pdf",
		Bytes:    []byte("%PDF-1.7 artifact"),
	}
}

func TestService_Send_Success(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	// Act
	err := service.Send(context.Background(), "fleet@example.com", "Test Subject", "Test Body")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if email.To != "fleet@example.com" {
		t.Errorf("expected to 'fleet@example.com', got '%s'", email.To)
	}
	if email.Subject != "Test Subject" {
		t.Errorf("expected subject 'Test Subject', got '%s'", email.Subject)
	}
	if email.Body != "Test Body" {
		t.Errorf("expected body 'Test Body', got '%s'", email.Body)
	}
	if email.IsHTML {
		t.Error("expected plain text email, got HTML")
	}
}

func TestService_Send_Failure(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{
		ShouldFail: true,
		FailError:  errors.New("SMTP connection failed"),
	}
	service := newTestService(mockProvider)

	// Act
	err := service.Send(context.Background(), "fleet@example.com", "Test Subject", "Test Body")

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "SMTP connection failed") {
		t.Errorf("expected error to contain 'SMTP connection failed', got '%s'", err.Error())
	}
}

func TestService_SendHTML_Success(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)

	htmlBody := "<h1>Hello World</h1>"

	// Act
	err := service.SendHTML(context.Background(), "fleet@example.com", "HTML Subject", htmlBody)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if !email.IsHTML {
		t.Error("expected HTML email, got plain text")
	}
	if email.Body != htmlBody {
		t.Errorf("expected body '%s', got '%s'", htmlBody, email.Body)
	}
}

func TestService_SendReport_FleetSummary(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)
	service.loadTemplates()

	// Act
	err := service.SendReport(context.Background(), "fleet@example.com", fleetDocument(), pdfAttachment())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(mockProvider.SentEmails) != 1 {
		t.Fatalf("expected 1 email sent, got %d", len(mockProvider.SentEmails))
	}
	email := mockProvider.SentEmails[0]
	if email.Subject != "Fleet Performance Report - June 2025" {
		t.Errorf("unexpected subject '%s'", email.Subject)
	}
	if !email.IsHTML {
		t.Error("expected HTML body")
	}
	if !strings.Contains(email.Body, "Idle Share") {
		t.Error("expected body to contain KPI label")
	}
	if !strings.Contains(email.Body, "5.0 %") {
		t.Error("expected body to contain formatted KPI value")
	}
	if !strings.Contains(email.Body, "below target") {
		t.Error("expected body to mark the missed cruise target")
	}
	if !strings.Contains(email.Body, "3 of 4") {
		t.Error("expected body to contain the qualification counts")
	}
	if email.Attachment == nil {
		t.Fatal("expected attachment to be passed through")
	}
	if email.Attachment.Filename != "Fleetsight_fleet_June_2025.pdf" {
		t.Errorf("unexpected attachment filename '%s'", email.Attachment.Filename)
	}
	if !strings.Contains(email.Body, "Fleetsight_fleet_June_2025.pdf") {
		t.Error("expected body to name the attached file")
	}
}

func TestService_SendReport_IndividualShowsChange(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)
	service.loadTemplates()

	doc := &domain.ReportDocument{
		ID:               "doc-2",
		Kind:             domain.ReportKindIndividual,
		OrgName:          "Fleetsight Logistics GmbH",
		DriverName:       "Anna Schmidt",
		Month:            6,
		Year:             2025,
		PeriodLabel:      "June 2025",
		MinimumKm:        100,
		TotalDrivers:     3,
		QualifiedDrivers: 3,
		Drivers: []domain.DriverSection{
			{
				DriverName: "Anna Schmidt",
				Position:   2,
				MetricRows: []domain.MetricsRow{
					{
						KPI:       domain.KPIIdleShare,
						Label:     "Idle Share",
						Unit:      "%",
						Current:   "5.0",
						Previous:  "4.0",
						Change:    "+25.0%",
						Target:    "<= 5.0",
						Direction: domain.TrendDeclined,
						Status:    domain.TargetStatusOK,
					},
				},
			},
		},
	}

	// Act
	err := service.SendReport(context.Background(), "anna@example.com", doc, pdfAttachment())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	email := mockProvider.SentEmails[0]
	if email.Subject != "Driver Performance Report - June 2025" {
		t.Errorf("unexpected subject '%s'", email.Subject)
	}
	if !strings.Contains(email.Body, "Anna Schmidt") {
		t.Error("expected body to contain the driver name")
	}
	if !strings.Contains(email.Body, "+25.0%") {
		t.Error("expected body to contain the month-over-month change")
	}
}

func TestService_SendReport_NoData(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{}
	service := newTestService(mockProvider)
	service.loadTemplates()

	doc := fleetDocument()
	doc.NoData = true
	doc.NoDataReason = "no drivers reached 100 km in June 2025"
	doc.QualifiedDrivers = 0
	doc.Summary = nil

	// Act
	err := service.SendReport(context.Background(), "fleet@example.com", doc, pdfAttachment())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	email := mockProvider.SentEmails[0]
	if !strings.Contains(email.Body, "no drivers reached 100 km in June 2025") {
		t.Error("expected body to contain the no-data reason")
	}
	if strings.Contains(email.Body, "Qualified drivers") {
		t.Error("expected no cohort table for a no-data document")
	}
}

func TestService_SendReport_ProviderFailure(t *testing.T) {
	// Arrange
	mockProvider := &MockProvider{
		ShouldFail: true,
		FailError:  errors.New("relay refused"),
	}
	service := newTestService(mockProvider)
	service.loadTemplates()

	// Act
	err := service.SendReport(context.Background(), "fleet@example.com", fleetDocument(), pdfAttachment())

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "relay refused") {
		t.Errorf("expected error to contain 'relay refused', got '%s'", err.Error())
	}
}

func TestNewService_SendGridProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:       "sendgrid",
		SendGridAPIKey: "test-api-key",
		FromEmail:      "test@example.com",
		FromName:       "Test",
	}

	// Act
	service, err := NewService(config, newTestLogger())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if service == nil {
		t.Fatal("expected service, got nil")
	}
	if _, ok := service.provider.(*SendGridProvider); !ok {
		t.Error("expected SendGridProvider")
	}
}

func TestNewService_SMTPProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:  "smtp",
		SMTPHost:  "localhost",
		SMTPPort:  1025,
		FromEmail: "test@example.com",
		FromName:  "Test",
	}

	// Act
	service, err := NewService(config, newTestLogger())

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if service == nil {
		t.Fatal("expected service, got nil")
	}
	if _, ok := service.provider.(*SMTPProvider); !ok {
		t.Error("expected SMTPProvider")
	}
}

func TestNewService_UnknownProvider(t *testing.T) {
	// Arrange
	config := &Config{
		Provider: "unknown",
	}

	// Act
	_, err := NewService(config, newTestLogger())

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unknown email provider") {
		t.Errorf("expected 'unknown email provider' error, got '%s'", err.Error())
	}
}

func TestNewService_SendGridMissingAPIKey(t *testing.T) {
	// Arrange
	config := &Config{
		Provider:       "sendgrid",
		SendGridAPIKey: "",
	}

	// Act
	_, err := NewService(config, newTestLogger())

	// Assert
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "API key is required") {
		t.Errorf("expected 'API key is required' error, got '%s'", err.Error())
	}
}

func TestDefaultConfig(t *testing.T) {
	// Act
	config := DefaultConfig()

	// Assert
	if config.Provider != "smtp" {
		t.Errorf("expected provider 'smtp', got '%s'", config.Provider)
	}
	if config.SMTPHost != "localhost" {
		t.Errorf("expected SMTP host 'localhost', got '%s'", config.SMTPHost)
	}
	if config.SMTPPort != 1025 {
		t.Errorf("expected SMTP port 1025, got %d", config.SMTPPort)
	}
}

func TestWrapBase64_LineLength(t *testing.T) {
	// Arrange
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i % 251)
	}

	// Act
	wrapped := string(wrapBase64(data))

	// Assert
	for i, line := range strings.Split(wrapped, "\r\n") {
		if len(line) > 76 {
			t.Errorf("line %d exceeds 76 columns: %d", i, len(line))
		}
	}
	if strings.Contains(wrapped, " ") {
		t.Error("expected no spaces in encoded output")
	}
}
