package postgres

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fleetsight/fleetsight/internal/domain"
	"github.com/fleetsight/fleetsight/internal/ports"
)

type ReportArchiveRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewReportArchiveRepository(db *gorm.DB, log *zap.Logger) ports.ReportArchiveRepository {
	return &ReportArchiveRepository{
		db:  db,
		log: log,
	}
}

func (r *ReportArchiveRepository) Save(ctx context.Context, report *domain.GeneratedReport) error {
	defer observeQuery(time.Now())
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *ReportArchiveRepository) List(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error) {
	defer observeQuery(time.Now())

	var reports []domain.GeneratedReport
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}
