package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/adapter/queue"
	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// handleTimeout bounds one dispatched request end to end, covering
// generation and every recipient delivery.
const handleTimeout = 2 * time.Minute

// Worker consumes queued report requests, generates the artifact and
// mails it to every recipient. Worker instances share a queue group,
// so each request is handled once across the deployment.
type Worker struct {
	reports ports.ReportService
	mailer  ports.EmailService
	log     *zap.Logger
}

// NewWorker creates a dispatch worker.
func NewWorker(reports ports.ReportService, mailer ports.EmailService, log *zap.Logger) *Worker {
	return &Worker{
		reports: reports,
		mailer:  mailer,
		log:     log,
	}
}

// Start subscribes the worker to the report request subject. The
// subscription lives until the queue connection is closed.
func (w *Worker) Start(mq queue.MessageQueue) error {
	if err := mq.Subscribe(domain.SubjectReportRequested, w.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", domain.SubjectReportRequested, err)
	}

	w.log.Info("Dispatch worker started",
		zap.String("subject", domain.SubjectReportRequested),
	)
	return nil
}

// Handle processes one queued report request.
func (w *Worker) Handle(msg []byte) error {
	var event domain.ReportRequestedEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		// Undecodable messages are dropped, not retried.
		telemetry.ReportDispatches.WithLabelValues("decode_error").Inc()
		w.log.Error("Discarding undecodable report request", zap.Error(err))
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), handleTimeout)
	defer cancel()

	w.log.Info("Processing report request",
		zap.String("kind", string(event.Request.Kind)),
		zap.Int("month", event.Request.Month),
		zap.Int("year", event.Request.Year),
		zap.Int("recipients", len(event.Request.Recipients)),
	)

	rendered, err := w.reports.Generate(ctx, event.Request)
	if err != nil {
		telemetry.ReportDispatches.WithLabelValues("generate_error").Inc()
		w.log.Error("Failed to generate dispatched report", zap.Error(err))
		return fmt.Errorf("failed to generate dispatched report: %w", err)
	}

	attachment := ports.Attachment{
		Filename: rendered.Filename,
		MIMEType: rendered.MIMEType,
		Bytes:    rendered.Bytes,
	}

	var failed int
	var lastErr error
	for _, recipient := range event.Request.Recipients {
		if err := w.mailer.SendReport(ctx, recipient, rendered.Document, attachment); err != nil {
			telemetry.ReportDispatches.WithLabelValues("email_error").Inc()
			w.log.Error("Failed to deliver report",
				zap.String("recipient", recipient),
				zap.String("report_id", rendered.Document.ID),
				zap.Error(err),
			)
			failed++
			lastErr = err
			continue
		}
		telemetry.ReportDispatches.WithLabelValues("sent").Inc()
	}

	if failed > 0 {
		return fmt.Errorf("failed to deliver report to %d of %d recipients: %w",
			failed, len(event.Request.Recipients), lastErr)
	}

	w.log.Info("Report delivered",
		zap.String("report_id", rendered.Document.ID),
		zap.String("filename", rendered.Filename),
		zap.Int("recipients", len(event.Request.Recipients)),
	)
	return nil
}
