package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/adapter/queue"
	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// Config carries the report defaults applied to incomplete requests.
type Config struct {
	OrgName            string                 `mapstructure:"org_name"`
	DefaultMinimumKm   float64                `mapstructure:"default_minimum_km"`
	DefaultFormat      domain.OutputFormat    `mapstructure:"default_format"`
	DefaultAggregation domain.AggregationMode `mapstructure:"default_aggregation"`
	PreviewCacheTTL    time.Duration          `mapstructure:"preview_cache_ttl"`

	// Recipients receive dispatched reports when the request names none.
	Recipients []string `mapstructure:"recipients"`
}

// DefaultConfig returns the report defaults used when configuration is
// silent.
func DefaultConfig() Config {
	return Config{
		DefaultMinimumKm:   100,
		DefaultFormat:      domain.FormatPDF,
		DefaultAggregation: domain.AggregationSum,
		PreviewCacheTTL:    5 * time.Minute,
	}
}

type Service struct {
	records  ports.PeriodRecordRepository
	archive  ports.ReportArchiveRepository
	composer *Composer
	renderer ports.DocumentRenderer
	cache    ports.Cache
	mq       queue.MessageQueue
	cfg      Config
	log      *zap.Logger
}

func NewService(records ports.PeriodRecordRepository, archive ports.ReportArchiveRepository, composer *Composer, renderer ports.DocumentRenderer, cache ports.Cache, mq queue.MessageQueue, cfg Config, log *zap.Logger) ports.ReportService {
	return &Service{
		records:  records,
		archive:  archive,
		composer: composer,
		renderer: renderer,
		cache:    cache,
		mq:       mq,
		cfg:      cfg,
		log:      log,
	}
}

// prepare fills defaults and validates. Every entry point goes through
// it so a request behaves the same whether it arrives via the API, the
// CLI or the dispatch queue.
func (s *Service) prepare(req domain.ReportRequest) (domain.ReportRequest, error) {
	if req.Format == "" {
		req.Format = s.cfg.DefaultFormat
	}
	if req.Aggregation == "" {
		req.Aggregation = s.cfg.DefaultAggregation
	}
	if req.MinimumKm == nil {
		minKm := s.cfg.DefaultMinimumKm
		req.MinimumKm = &minKm
	}
	if err := validateRequest(req); err != nil {
		return req, err
	}
	return req, nil
}

func (s *Service) Preview(ctx context.Context, req domain.ReportRequest) (*domain.ReportDocument, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	key := previewCacheKey(req)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			var cached domain.ReportDocument
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				telemetry.PreviewCacheHits.Inc()
				return &cached, nil
			}
			s.log.Warn("Discarding undecodable preview cache entry", zap.String("key", key))
		} else if !errors.Is(err, ports.ErrCacheMiss) {
			s.log.Warn("Preview cache read failed", zap.String("key", key), zap.Error(err))
		}
		telemetry.PreviewCacheMisses.Inc()
	}

	doc, err := s.assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, doc, s.cfg.PreviewCacheTTL); err != nil {
			s.log.Warn("Preview cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return doc, nil
}

func (s *Service) Generate(ctx context.Context, req domain.ReportRequest) (*domain.RenderedReport, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	doc, err := s.assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := s.renderer.Render(ctx, doc, req.Format)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start)

	filename := s.renderer.Filename(doc, req.Format)
	entry := &domain.GeneratedReport{
		ID:           doc.ID,
		Kind:         doc.Kind,
		GroupName:    doc.GroupName,
		DriverName:   doc.DriverName,
		Month:        doc.Month,
		Year:         doc.Year,
		Format:       req.Format,
		Filename:     filename,
		SizeBytes:    len(data),
		RenderMillis: elapsed.Milliseconds(),
		CreatedAt:    time.Now(),
	}
	// An archive failure is logged but does not void the artifact the
	// caller is waiting for.
	if err := s.archive.Save(ctx, entry); err != nil {
		s.log.Error("Failed to archive generated report",
			zap.String("report_id", doc.ID), zap.Error(err))
	}

	telemetry.ReportsGenerated.WithLabelValues(string(doc.Kind), string(req.Format)).Inc()
	s.publishGenerated(doc, req.Format, filename, len(data))

	s.log.Info("Report generated",
		zap.String("report_id", doc.ID),
		zap.String("kind", string(doc.Kind)),
		zap.String("format", string(req.Format)),
		zap.Int("size_bytes", len(data)),
		zap.Duration("render_time", elapsed))

	return &domain.RenderedReport{
		Document: doc,
		Filename: filename,
		MIMEType: s.renderer.MIMEType(req.Format),
		Bytes:    data,
	}, nil
}

func (s *Service) Dispatch(ctx context.Context, req domain.ReportRequest) error {
	req, err := s.prepare(req)
	if err != nil {
		return err
	}
	if len(req.Recipients) == 0 {
		req.Recipients = s.cfg.Recipients
	}
	if len(req.Recipients) == 0 {
		return domain.ValidationErrors{{
			Field:   "recipients",
			Message: "no recipients given and none configured",
		}}
	}

	event := domain.ReportRequestedEvent{Request: req, RequestedAt: time.Now()}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode dispatch event: %w", err)
	}
	if err := s.mq.Publish(domain.SubjectReportRequested, data); err != nil {
		telemetry.ReportDispatches.WithLabelValues("queue_error").Inc()
		return fmt.Errorf("failed to queue report request: %w", err)
	}

	telemetry.ReportDispatches.WithLabelValues("queued").Inc()
	s.log.Info("Report dispatch queued",
		zap.String("kind", string(req.Kind)),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("recipients", len(req.Recipients)))
	return nil
}

func (s *Service) ListGenerated(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.archive.List(ctx, limit, offset)
}

func (s *Service) DriverPerformance(ctx context.Context, driverName string, month, year int) (*domain.DriverPerformance, error) {
	record, err := s.records.FindByDriverPeriod(ctx, driverName, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load driver record: %w", err)
	}
	if record == nil {
		return nil, domain.ErrDriverNotFound
	}

	current := s.composer.calc.Calculate(*record)

	prev := domain.Period{Month: month, Year: year}.Previous()
	var prevMetrics *domain.CalculatedMetrics
	prevRecord, err := s.records.FindByDriverPeriod(ctx, driverName, prev.Month, prev.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load previous driver record: %w", err)
	}
	if prevRecord != nil {
		m := s.composer.calc.Calculate(*prevRecord)
		prevMetrics = &m
	}

	return &domain.DriverPerformance{
		DriverName: driverName,
		Month:      month,
		Year:       year,
		Metrics:    current,
		Trends:     s.composer.trends.Compare(current, prevMetrics),
		Record:     record,
	}, nil
}

// assemble loads the current and previous period and composes the
// document. Group reports scope both periods to the group; fleet and
// individual reports always load the whole fleet so rankings stay
// fleet-relative.
func (s *Service) assemble(ctx context.Context, req domain.ReportRequest) (*domain.ReportDocument, error) {
	period := req.Period()
	prev := period.Previous()

	var (
		current, previous []domain.DriverPeriodRecord
		err               error
	)
	if req.Kind == domain.ReportKindGroup {
		current, err = s.records.ListByGroupPeriod(ctx, req.GroupName, period.Month, period.Year)
		if err == nil {
			previous, err = s.records.ListByGroupPeriod(ctx, req.GroupName, prev.Month, prev.Year)
		}
	} else {
		current, err = s.records.ListByPeriod(ctx, period.Month, period.Year)
		if err == nil {
			previous, err = s.records.ListByPeriod(ctx, prev.Month, prev.Year)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load period records: %w", err)
	}

	return s.composer.Compose(req, s.cfg.OrgName, current, previous, time.Now()), nil
}

func (s *Service) publishGenerated(doc *domain.ReportDocument, format domain.OutputFormat, filename string, size int) {
	if s.mq == nil {
		return
	}
	event := domain.ReportGeneratedEvent{
		ReportID:    doc.ID,
		Kind:        doc.Kind,
		Format:      format,
		Filename:    filename,
		Month:       doc.Month,
		Year:        doc.Year,
		SizeBytes:   size,
		GeneratedAt: doc.GeneratedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Warn("Failed to encode report event", zap.Error(err))
		return
	}
	if err := s.mq.Publish(domain.SubjectReportGenerated, data); err != nil {
		s.log.Warn("Failed to publish report event",
			zap.String("report_id", doc.ID), zap.Error(err))
	}
}

func previewCacheKey(req domain.ReportRequest) string {
	return fmt.Sprintf("report:preview:%s:%d:%d:%s:%s:%s:%s",
		req.Kind, req.Month, req.Year, req.GroupName, req.DriverName,
		strconv.FormatFloat(*req.MinimumKm, 'f', -1, 64), req.Aggregation)
}
