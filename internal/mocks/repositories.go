package mocks

import (
	"context"

	"github.com/fleetsight/fleetsight/internal/domain"
)

// MockPeriodRecordRepository is a mock implementation of PeriodRecordRepository
type MockPeriodRecordRepository struct {
	Records []domain.DriverPeriodRecord

	SaveFunc               func(ctx context.Context, record *domain.DriverPeriodRecord) error
	SaveBatchFunc          func(ctx context.Context, records []domain.DriverPeriodRecord) error
	FindByDriverPeriodFunc func(ctx context.Context, driverName string, month, year int) (*domain.DriverPeriodRecord, error)
	ListByPeriodFunc       func(ctx context.Context, month, year int) ([]domain.DriverPeriodRecord, error)
	ListByGroupPeriodFunc  func(ctx context.Context, groupName string, month, year int) ([]domain.DriverPeriodRecord, error)
}

func (m *MockPeriodRecordRepository) Save(ctx context.Context, record *domain.DriverPeriodRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, record)
	}
	m.Records = append(m.Records, *record)
	return nil
}

func (m *MockPeriodRecordRepository) SaveBatch(ctx context.Context, records []domain.DriverPeriodRecord) error {
	if m.SaveBatchFunc != nil {
		return m.SaveBatchFunc(ctx, records)
	}
	m.Records = append(m.Records, records...)
	return nil
}

func (m *MockPeriodRecordRepository) FindByDriverPeriod(ctx context.Context, driverName string, month, year int) (*domain.DriverPeriodRecord, error) {
	if m.FindByDriverPeriodFunc != nil {
		return m.FindByDriverPeriodFunc(ctx, driverName, month, year)
	}
	for i := range m.Records {
		rec := m.Records[i]
		if rec.DriverName == driverName && rec.Month == month && rec.Year == year {
			return &rec, nil
		}
	}
	return nil, nil
}

func (m *MockPeriodRecordRepository) ListByPeriod(ctx context.Context, month, year int) ([]domain.DriverPeriodRecord, error) {
	if m.ListByPeriodFunc != nil {
		return m.ListByPeriodFunc(ctx, month, year)
	}
	var out []domain.DriverPeriodRecord
	for _, rec := range m.Records {
		if rec.Month == month && rec.Year == year {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *MockPeriodRecordRepository) ListByGroupPeriod(ctx context.Context, groupName string, month, year int) ([]domain.DriverPeriodRecord, error) {
	if m.ListByGroupPeriodFunc != nil {
		return m.ListByGroupPeriodFunc(ctx, groupName, month, year)
	}
	var out []domain.DriverPeriodRecord
	for _, rec := range m.Records {
		if rec.GroupName == groupName && rec.Month == month && rec.Year == year {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MockReportArchiveRepository is a mock implementation of ReportArchiveRepository
type MockReportArchiveRepository struct {
	Saved []domain.GeneratedReport

	SaveFunc func(ctx context.Context, report *domain.GeneratedReport) error
	ListFunc func(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error)
}

func (m *MockReportArchiveRepository) Save(ctx context.Context, report *domain.GeneratedReport) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, report)
	}
	m.Saved = append(m.Saved, *report)
	return nil
}

func (m *MockReportArchiveRepository) List(ctx context.Context, limit, offset int) ([]domain.GeneratedReport, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	if offset >= len(m.Saved) {
		return []domain.GeneratedReport{}, nil
	}
	end := offset + limit
	if end > len(m.Saved) {
		end = len(m.Saved)
	}
	return m.Saved[offset:end], nil
}
