package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/export"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reporting"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/storage"
	"go.uber.org/zap"
)

// ExportFile is a rendered export ready to be streamed or stored
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService builds revenue reports and renders exports
type ReportService struct {
	clientRepo   *repository.ClientRepository
	dealRepo     *repository.DealRepository
	activityRepo *repository.ActivityRepository
	storage      storage.Storage
	aggregator   *reporting.Aggregator
	clock        *Clock
	trendMonths  int
	companyName  string
	logger       *zap.Logger
}

func NewReportService(
	clientRepo *repository.ClientRepository,
	dealRepo *repository.DealRepository,
	activityRepo *repository.ActivityRepository,
	store storage.Storage,
	clock *Clock,
	trendMonths int,
	companyName string,
	logger *zap.Logger,
) *ReportService {
	if trendMonths <= 0 {
		trendMonths = reporting.DefaultTrendMonths
	}
	return &ReportService{
		clientRepo:   clientRepo,
		dealRepo:     dealRepo,
		activityRepo: activityRepo,
		storage:      store,
		aggregator:   reporting.NewAggregator(clock.Location()),
		clock:        clock,
		trendMonths:  trendMonths,
		companyName:  companyName,
		logger:       logger,
	}
}

// GetRevenueReport returns the revenue report for the current year. Store
// errors are logged and yield the report of an empty snapshot.
func (s *ReportService) GetRevenueReport(ctx context.Context) domain.RevenueReport {
	report, err := s.revenueReport(ctx)
	if err != nil {
		s.logger.Warn("failed to build revenue report", zap.Error(err))
		return s.aggregator.Report(nil, nil, nil, s.clock.Now(), s.trendMonths)
	}
	return report
}

func (s *ReportService) revenueReport(ctx context.Context) (domain.RevenueReport, error) {
	clients, err := s.clientRepo.List(ctx, repository.ClientFilters{})
	if err != nil {
		return domain.RevenueReport{}, fmt.Errorf("failed to load clients: %w", err)
	}
	deals, err := s.dealRepo.List(ctx, nil)
	if err != nil {
		return domain.RevenueReport{}, fmt.Errorf("failed to load deals: %w", err)
	}
	now := s.clock.Now()
	monthStart := period.MonthStart(now.In(s.clock.Location()))
	activities, _, err := s.activityRepo.List(ctx, &repository.ActivityFilters{From: &monthStart}, 1, 0)
	if err != nil {
		return domain.RevenueReport{}, fmt.Errorf("failed to load activities: %w", err)
	}
	return s.aggregator.Report(clients, deals, activities, now, s.trendMonths), nil
}

// Export renders a dataset in the given format. PDF is available for the
// revenue report only. Fetch errors are returned, an empty file would
// look like a valid export.
func (s *ReportService) Export(ctx context.Context, dataset, format string) (*ExportFile, error) {
	dataset = strings.ToLower(strings.TrimSpace(dataset))
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = export.FormatCSV
	}

	if format != export.FormatCSV && format != export.FormatXLSX && format != export.FormatPDF {
		return nil, fmt.Errorf("%w: format %q", ErrUnsupportedExport, format)
	}
	if format == export.FormatPDF && dataset != export.DatasetRevenue {
		return nil, fmt.Errorf("%w: pdf is only available for %s", ErrUnsupportedExport, export.DatasetRevenue)
	}

	now := s.clock.Now()
	var buf bytes.Buffer

	if format == export.FormatPDF {
		report, err := s.revenueReport(ctx)
		if err != nil {
			return nil, err
		}
		err = export.WritePDF(&buf, report, export.PDFOptions{
			CompanyName: s.companyName,
			GeneratedAt: now.In(s.clock.Location()),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render pdf: %w", err)
		}
	} else {
		records, err := s.records(ctx, dataset)
		if err != nil {
			return nil, err
		}
		if format == export.FormatXLSX {
			err = export.WriteXLSX(&buf, dataset, records)
		} else {
			err = export.WriteCSV(&buf, records)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", format, err)
		}
	}

	contentType, ext := export.ContentType(format)
	file := &ExportFile{
		Filename:    fmt.Sprintf("%s_%s%s", dataset, now.In(s.clock.Location()).Format("2006-01-02"), ext),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}

	s.logger.Info("export rendered",
		zap.String("dataset", dataset),
		zap.String("format", format),
		zap.Int("bytes", len(file.Data)))

	return file, nil
}

func (s *ReportService) records(ctx context.Context, dataset string) ([]export.Record, error) {
	switch dataset {
	case export.DatasetClients:
		clients, err := s.clientRepo.List(ctx, repository.ClientFilters{})
		if err != nil {
			return nil, fmt.Errorf("failed to load clients: %w", err)
		}
		return export.ClientRecords(clients), nil
	case export.DatasetDeals:
		deals, err := s.dealRepo.List(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load deals: %w", err)
		}
		return export.DealRecords(deals), nil
	case export.DatasetActivities:
		activities, _, err := s.activityRepo.List(ctx, nil, 1, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to load activities: %w", err)
		}
		return export.ActivityRecords(activities, s.clock.Location()), nil
	case export.DatasetRevenue:
		report, err := s.revenueReport(ctx)
		if err != nil {
			return nil, err
		}
		return export.RevenueRecords(report.RevenueByClient), nil
	default:
		return nil, fmt.Errorf("%w: dataset %q", ErrUnsupportedExport, dataset)
	}
}

// Archive renders an export and keeps it in storage
func (s *ReportService) Archive(ctx context.Context, dataset, format string) (*domain.ArchiveDTO, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: archive storage is not configured", ErrUnsupportedExport)
	}

	file, err := s.Export(ctx, dataset, format)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now().UTC()
	dataset = strings.ToLower(strings.TrimSpace(dataset))
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = export.FormatCSV
	}
	key := storage.ArchiveKey(dataset, format, now)

	size, err := s.storage.Put(ctx, key, file.ContentType, bytes.NewReader(file.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	s.logger.Info("export archived",
		zap.String("path", key),
		zap.Int64("bytes", size))

	return &domain.ArchiveDTO{
		Path:        key,
		Dataset:     dataset,
		Format:      format,
		SizeBytes:   int(size),
		GeneratedAt: now,
	}, nil
}

// OpenArchive opens a stored export. The caller closes the reader.
func (s *ReportService) OpenArchive(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("%w: archive storage is not configured", ErrNotFound)
	}
	clean, err := storage.CleanKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	rc, err := s.storage.Open(ctx, clean)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("failed to open archive: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return rc, nil
}
