package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/observability/telemetry"
	"github.com/fleetsight/fleetsight/internal/ports"
)

// driverPeriodKey is the upsert target: one record per driver and
// calendar month.
var driverPeriodKey = []clause.Column{
	{Name: "driver_name"},
	{Name: "month"},
	{Name: "year"},
}

type PeriodRecordRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPeriodRecordRepository(db *gorm.DB, log *zap.Logger) ports.PeriodRecordRepository {
	return &PeriodRecordRepository{
		db:  db,
		log: log,
	}
}

func observeQuery(start time.Time) {
	telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
}

func (r *PeriodRecordRepository) Save(ctx context.Context, record *domain.DriverPeriodRecord) error {
	defer observeQuery(time.Now())

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: driverPeriodKey, UpdateAll: true}).
		Create(record).Error
}

func (r *PeriodRecordRepository) SaveBatch(ctx context.Context, records []domain.DriverPeriodRecord) error {
	if len(records) == 0 {
		return nil
	}
	defer observeQuery(time.Now())

	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: driverPeriodKey, UpdateAll: true}).
		CreateInBatches(records, 200).Error
}

func (r *PeriodRecordRepository) FindByDriverPeriod(ctx context.Context, driverName string, month, year int) (*domain.DriverPeriodRecord, error) {
	defer observeQuery(time.Now())

	var record domain.DriverPeriodRecord
	err := r.db.WithContext(ctx).
		First(&record, "driver_name = ? AND month = ? AND year = ?", driverName, month, year).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *PeriodRecordRepository) ListByPeriod(ctx context.Context, month, year int) ([]domain.DriverPeriodRecord, error) {
	defer observeQuery(time.Now())

	var records []domain.DriverPeriodRecord
	err := r.db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Order("driver_name").
		Find(&records).Error
	return records, err
}

func (r *PeriodRecordRepository) ListByGroupPeriod(ctx context.Context, groupName string, month, year int) ([]domain.DriverPeriodRecord, error) {
	defer observeQuery(time.Now())

	var records []domain.DriverPeriodRecord
	err := r.db.WithContext(ctx).
		Where("group_name = ? AND month = ? AND year = ?", groupName, month, year).
		Order("driver_name").
		Find(&records).Error
	return records, err
}
