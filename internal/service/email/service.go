package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// Provider defines the interface for email transports
type Provider interface {
	Send(ctx context.Context, to, subject, body string, isHTML bool) error
	SendWithAttachment(ctx context.Context, to, subject, body string, isHTML bool, attachment ports.Attachment) error
}

// Config holds email service configuration
type Config struct {
	// Provider type: "sendgrid" or "smtp"
	Provider string `mapstructure:"provider"`

	// From email address
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`

	// SendGrid configuration
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`

	// SMTP configuration (for Mailhog or other SMTP servers)
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     int    `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	SMTPUseTLS   bool   `mapstructure:"smtp_use_tls"`

	// BaseURL for links in email bodies
	BaseURL string `mapstructure:"base_url"`
}

// DefaultConfig returns a default configuration for development (Mailhog)
func DefaultConfig() *Config {
	return &Config{
		Provider:   "smtp",
		FromEmail:  "reports@fleetsight.io",
		FromName:   "Fleetsight Reports",
		SMTPHost:   "localhost",
		SMTPPort:   1025, // Mailhog default port
		SMTPUseTLS: false,
		BaseURL:    "http://localhost:3000",
	}
}

// Service implements the EmailService interface
type Service struct {
	config    *Config
	provider  Provider
	templates map[string]*template.Template
	log       *zap.Logger
}

// NewService creates a new email service
func NewService(config *Config, log *zap.Logger) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}

	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
		log:       log,
	}

	// Initialize provider
	switch config.Provider {
	case "sendgrid":
		if config.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SendGrid API key is required")
		}
		s.provider = NewSendGridProvider(config.SendGridAPIKey, config.FromEmail, config.FromName)
	case "smtp":
		s.provider = NewSMTPProvider(
			config.SMTPHost,
			config.SMTPPort,
			config.SMTPUsername,
			config.SMTPPassword,
			config.FromEmail,
			config.FromName,
			config.SMTPUseTLS,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", config.Provider)
	}

	// Load templates
	s.loadTemplates()

	return s, nil
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {
	s.templates["report_summary"] = template.Must(template.New("report_summary").Parse(reportSummaryTemplate))
}

// Send sends a plain-text email
func (s *Service) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("Sending email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, body, false); err != nil {
		s.log.Error("Failed to send email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// SendHTML sends an HTML email
func (s *Service) SendHTML(ctx context.Context, to, subject, htmlBody string) error {
	s.log.Info("Sending HTML email",
		zap.String("to", to),
		zap.String("subject", subject),
	)

	if err := s.provider.Send(ctx, to, subject, htmlBody, true); err != nil {
		s.log.Error("Failed to send HTML email",
			zap.String("to", to),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send HTML email: %w", err)
	}

	return nil
}

// SendReport mails a rendered report artifact. The body summarizes the
// document's KPIs against their targets so the recipient sees the
// headline numbers without opening the attachment.
func (s *Service) SendReport(ctx context.Context, to string, doc *domain.ReportDocument, attachment ports.Attachment) error {
	body, err := s.executeTemplate("report_summary", s.reportSummaryData(doc, attachment.Filename))
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("%s - %s", doc.Kind.Title(), doc.PeriodLabel)

	s.log.Info("Sending report email",
		zap.String("to", to),
		zap.String("report_id", doc.ID),
		zap.String("attachment", attachment.Filename),
	)

	if err := s.provider.SendWithAttachment(ctx, to, subject, body, true, attachment); err != nil {
		s.log.Error("Failed to send report email",
			zap.String("to", to),
			zap.String("report_id", doc.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send report email: %w", err)
	}

	return nil
}

// executeTemplate renders a loaded template with the base URL injected
func (s *Service) executeTemplate(name string, data map[string]interface{}) (string, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		return "", fmt.Errorf("template not found: %s", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["BaseURL"] = s.config.BaseURL

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// reportRow is one KPI line of the summary mail body.
type reportRow struct {
	Label       string
	Value       string
	Change      string
	Target      string
	StatusClass string
	StatusText  string
}

func (s *Service) reportSummaryData(doc *domain.ReportDocument, filename string) map[string]interface{} {
	data := map[string]interface{}{
		"Title":        doc.Kind.Title(),
		"OrgName":      doc.OrgName,
		"PeriodLabel":  doc.PeriodLabel,
		"GroupName":    doc.GroupName,
		"DriverName":   doc.DriverName,
		"Qualified":    doc.QualifiedDrivers,
		"Total":        doc.TotalDrivers,
		"MinimumKm":    strconv.FormatFloat(doc.MinimumKm, 'f', -1, 64),
		"NoData":       doc.NoData,
		"NoDataReason": doc.NoDataReason,
		"Filename":     filename,
	}

	// Individual reports show the driver's detail rows with the
	// month-over-month change; cohort reports show the aggregate.
	if doc.Kind == domain.ReportKindIndividual && len(doc.Drivers) > 0 {
		rows := make([]reportRow, 0, len(doc.Drivers[0].MetricRows))
		for _, r := range doc.Drivers[0].MetricRows {
			class, text := statusView(r.Status)
			rows = append(rows, reportRow{
				Label:       r.Label,
				Value:       fmt.Sprintf("%s %s", r.Current, r.Unit),
				Change:      r.Change,
				Target:      r.Target,
				StatusClass: class,
				StatusText:  text,
			})
		}
		data["DriverRows"] = rows
	} else if doc.Summary != nil {
		rows := make([]reportRow, 0, len(doc.Summary.Rows))
		for _, r := range doc.Summary.Rows {
			class, text := statusView(r.Status)
			rows = append(rows, reportRow{
				Label:       r.Label,
				Value:       fmt.Sprintf("%s %s", r.Value, r.Unit),
				Target:      r.Target,
				StatusClass: class,
				StatusText:  text,
			})
		}
		data["SummaryRows"] = rows
	}

	return data
}

func statusView(status domain.TargetStatus) (class, text string) {
	switch status {
	case domain.TargetStatusOK:
		return "pass", "met"
	case domain.TargetStatusBelow:
		return "miss", "below target"
	case domain.TargetStatusAbove:
		return "miss", "above target"
	}
	return "none", "-"
}
