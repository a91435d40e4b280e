package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fleetsight/fleetsight/internal/adapter/cache"
	"github.com/fleetsight/fleetsight/internal/adapter/storage/postgres"
	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/render"
	"github.com/fleetsight/fleetsight/internal/service/metrics"
	"github.com/fleetsight/fleetsight/internal/service/ranking"
	"github.com/fleetsight/fleetsight/internal/service/report"
	"github.com/fleetsight/fleetsight/internal/service/trend"
	"github.com/fleetsight/fleetsight/pkg/config"
)

var (
	kind        = flag.String("kind", "fleet", "Report kind: fleet, group or individual")
	group       = flag.String("group", "", "Group name (required for kind=group)")
	driver      = flag.String("driver", "", "Driver name (required for kind=individual)")
	month       = flag.Int("month", int(time.Now().Month()), "Report month (1-12)")
	year        = flag.Int("year", time.Now().Year(), "Report year")
	minKm       = flag.Float64("min-km", 0, "Qualification distance in km (0 = configured default)")
	aggregation = flag.String("aggregation", "", "Summary aggregation: sum or average (empty = configured default)")
	format      = flag.String("format", "", "Output format: pdf or word (empty = configured default)")
	out         = flag.String("out", "", "Output file (empty = generated filename in the working directory)")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	// Setup logger
	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := postgres.NewConnection(cfg.Database.URL, postgres.Options{
		MaxOpenConns: 5,
		MaxIdleConns: 1,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Same composer and renderer wiring as the server, without the
	// queue and mail side of the pipeline.
	periodRepo := postgres.NewPeriodRecordRepository(db, logger)
	archiveRepo := postgres.NewReportArchiveRepository(db, logger)
	composer := report.NewComposer(
		metrics.NewCalculator(logger),
		ranking.NewEngine(logger),
		trend.NewAnalyzer(domain.DefaultTargets(), logger),
	)
	renderer := render.New(cfg.Render, logger)
	previewCache := cache.NewLocalCache(cfg.Cache.CleanupInterval, logger)
	defer previewCache.Close()

	svc := report.NewService(periodRepo, archiveRepo, composer, renderer, previewCache, nil, cfg.Report, logger)

	req := domain.ReportRequest{
		Kind:        domain.ReportKind(*kind),
		Month:       *month,
		Year:        *year,
		GroupName:   *group,
		DriverName:  *driver,
		Aggregation: domain.AggregationMode(*aggregation),
		Format:      domain.OutputFormat(*format),
	}
	if *minKm != 0 {
		req.MinimumKm = minKm
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rendered, err := svc.Generate(ctx, req)
	if err != nil {
		logger.Fatal("Failed to generate report", zap.Error(err))
	}

	path := *out
	if path == "" {
		path = rendered.Filename
	}
	if err := os.WriteFile(path, rendered.Bytes, 0o644); err != nil {
		logger.Fatal("Failed to write report file", zap.Error(err))
	}

	logger.Info("Report written",
		zap.String("path", path),
		zap.Int("bytes", len(rendered.Bytes)),
	)
}
