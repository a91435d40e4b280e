package ports

import (
	"context"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// PeriodRecordRepository persists monthly driver telemetry aggregates.
// Listing methods return records ordered by driver name so downstream
// ranking tie-breaks see a stable input order.
type PeriodRecordRepository interface {
	// Save inserts a record or updates the existing one for the same
	// driver and period.
	Save(ctx context.Context, record *domain.DriverPeriodRecord) error

	// SaveBatch upserts many records in one transaction.
	SaveBatch(ctx context.Context, records []domain.DriverPeriodRecord) error

	// FindByDriverPeriod returns nil without error when the driver has
	// no record for the period.
	FindByDriverPeriod(ctx context.Context, driverName string, month, year int) (*domain.DriverPeriodRecord, error)

	// ListByPeriod returns every record of one month.
	ListByPeriod(ctx context.Context, month, year int) ([]domain.DriverPeriodRecord, error)

	// ListByGroupPeriod returns one group's records for one month.
	ListByGroupPeriod(ctx context.Context, groupName string, month, year int) ([]domain.DriverPeriodRecord, error)
}

// ReportArchiveRepository persists metadata about rendered reports.
type ReportArchiveRepository interface {
	Save(ctx context.Context, report *domain.GeneratedReport) error

	// List returns archive entries, newest first.
	List(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error)
}
