package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
)

// Engine renders one output format from an assembled document.
type Engine interface {
	Render(doc *domain.ReportDocument) ([]byte, error)
	MIMEType() string
}

// Config controls render deadlines and the failure circuit.
type Config struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	BreakerMaxRequests  uint32        `mapstructure:"breaker_max_requests"`
	BreakerInterval     time.Duration `mapstructure:"breaker_interval"`
	BreakerCooldown     time.Duration `mapstructure:"breaker_cooldown"`
	BreakerMinRequests  uint32        `mapstructure:"breaker_min_requests"`
	BreakerFailureRatio float64       `mapstructure:"breaker_failure_ratio"`
}

func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		BreakerMaxRequests:  3,
		BreakerInterval:     time.Minute,
		BreakerCooldown:     30 * time.Second,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.6,
	}
}

// Renderer routes documents to the registered engines. Every render is
// a single bounded attempt: it either produces the full artifact
// within the deadline or fails without retry. Repeated failures open a
// circuit that rejects further attempts until the cooldown passes.
type Renderer struct {
	engines map[domain.OutputFormat]Engine
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Renderer {
	if cfg.Timeout <= 0 {
		cfg = DefaultConfig()
	}

	r := &Renderer{
		engines: map[domain.OutputFormat]Engine{
			domain.FormatPDF:  NewPDFEngine(),
			domain.FormatWord: NewDOCXEngine(),
		},
		timeout: cfg.Timeout,
		log:     log,
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "document-renderer",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.BreakerMinRequests && failureRatio >= cfg.BreakerFailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if log != nil {
				log.Warn("render circuit state changed",
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	})

	return r
}

// Render produces the document bytes for one format.
func (r *Renderer) Render(ctx context.Context, doc *domain.ReportDocument, format domain.OutputFormat) ([]byte, error) {
	engine, ok := r.engines[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	out, err := r.breaker.Execute(func() (interface{}, error) {
		return renderBounded(ctx, engine, doc)
	})
	if err != nil {
		telemetry.RenderFailures.WithLabelValues(string(format)).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			r.log.Warn("render rejected, circuit open", zap.String("format", string(format)))
			return nil, domain.ErrRenderUnavailable
		}
		r.log.Error("render failed",
			zap.String("format", string(format)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}

	data := out.([]byte)
	telemetry.RenderDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	r.log.Info("document rendered",
		zap.String("format", string(format)),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}

// renderBounded runs the engine in its own goroutine so a slow render
// cannot outlive the context. An abandoned render finishes in the
// background and its result is dropped.
func renderBounded(ctx context.Context, engine Engine, doc *domain.ReportDocument) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- result{err: fmt.Errorf("render engine panic: %v", rec)}
			}
		}()
		data, err := engine.Render(doc)
		ch <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ErrRenderTimeout
		}
		return nil, ctx.Err()
	case res := <-ch:
		return res.data, res.err
	}
}

// Filename returns the artifact name for the document.
func (r *Renderer) Filename(doc *domain.ReportDocument, format domain.OutputFormat) string {
	return Filename(doc, format)
}

// MIMEType returns the content type for a format.
func (r *Renderer) MIMEType(format domain.OutputFormat) string {
	if engine, ok := r.engines[format]; ok {
		return engine.MIMEType()
	}
	return "application/octet-stream"
}
