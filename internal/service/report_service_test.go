package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/export"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/repository"
	"github.com/gestionale-crm/crm-api/internal/service"
	"github.com/gestionale-crm/crm-api/internal/storage"
	"github.com/gestionale-crm/crm-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type reportFixture struct {
	svc *service.ReportService
	ctx context.Context
}

func setupReportService(t *testing.T, store storage.Storage) *reportFixture {
	db := testutil.SetupTestDB(t)
	svc := service.NewReportService(
		repository.NewClientRepository(db),
		repository.NewDealRepository(db),
		repository.NewActivityRepository(db),
		store,
		service.FixedClock(testNow, time.UTC),
		0,
		"Agenzia Test",
		zap.NewNop(),
	)

	user := testutil.CreateTestUser(t, db, domain.UserRoleOwner)
	acme := testutil.CreateTestClient(t, db, user.ID, "Acme, S.r.l.")
	beta := testutil.CreateTestClient(t, db, user.ID, "Beta")
	testutil.CreateTestDeal(t, db, acme, 1000, domain.DealStatusWon, period.Civil(2025, 1, 15))
	testutil.CreateTestDeal(t, db, acme, 500, domain.DealStatusWon, period.Civil(2025, 2, 20))
	testutil.CreateTestDeal(t, db, beta, 700, domain.DealStatusWon, period.Civil(2025, 3, 1))
	testutil.CreateTestDeal(t, db, beta, 900, domain.DealStatusInProgress, period.Civil(2025, 2, 2))
	testutil.CreateTestActivity(t, db, user.ID, &acme.ID, time.Date(2025, 2, 27, 15, 0, 0, 0, time.UTC))
	testutil.CreateTestActivity(t, db, user.ID, &beta.ID, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	return &reportFixture{svc: svc, ctx: testutil.UserContext(user)}
}

func TestReportService_GetRevenueReport(t *testing.T) {
	f := setupReportService(t, nil)

	report := f.svc.GetRevenueReport(f.ctx)
	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, 3, report.WonDeals)
	assert.True(t, decimal.NewFromInt(2200).Equal(report.TotalRevenue))
	assert.True(t, decimal.NewFromInt(700).Equal(report.CurrentMonthRevenue))
	assert.Equal(t, 75, report.ConversionRate)
	assert.True(t, decimal.NewFromInt(775).Equal(report.AverageDealValue))
	assert.Equal(t, 1, report.ActivitiesThisMonth)
	require.Len(t, report.QuarterlyRevenue, 1)
	assert.Equal(t, "Q1 2025", report.QuarterlyRevenue[0].Period)
	require.Len(t, report.RevenueByClient, 2)
	assert.Equal(t, "Acme, S.r.l.", report.RevenueByClient[0].CompanyName)
}

func TestReportService_ExportCSV(t *testing.T) {
	f := setupReportService(t, nil)

	file, err := f.svc.Export(f.ctx, "clienti", "csv")
	require.NoError(t, err)
	assert.Equal(t, "clienti_2025-03-01.csv", file.Filename)
	assert.Contains(t, file.ContentType, "text/csv")

	rows, err := csv.NewReader(bytes.NewReader(file.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	var names []string
	for _, row := range rows[1:] {
		names = append(names, row[0])
	}
	assert.ElementsMatch(t, []string{"Acme, S.r.l.", "Beta"}, names)
	assert.Contains(t, string(file.Data), `"Acme, S.r.l."`)
}

func TestReportService_ExportFormats(t *testing.T) {
	f := setupReportService(t, nil)

	xlsx, err := f.svc.Export(f.ctx, "trattative", "xlsx")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx.Data, []byte("PK")))

	pdf, err := f.svc.Export(f.ctx, "fatturato", "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", pdf.ContentType)

	activities, err := f.svc.Export(f.ctx, "attivita", "")
	require.NoError(t, err)
	assert.Equal(t, "attivita_2025-03-01.csv", activities.Filename)

	_, err = f.svc.Export(f.ctx, "clienti", "pdf")
	assert.ErrorIs(t, err, service.ErrUnsupportedExport)

	_, err = f.svc.Export(f.ctx, "clienti", "json")
	assert.ErrorIs(t, err, service.ErrUnsupportedExport)

	_, err = f.svc.Export(f.ctx, "fornitori", "csv")
	assert.ErrorIs(t, err, service.ErrUnsupportedExport)
}

func TestReportService_Archive(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := setupReportService(t, store)

	archive, err := f.svc.Archive(f.ctx, "fatturato", "csv")
	require.NoError(t, err)
	assert.Equal(t, "reports/fatturato/2025/03/fatturato_20250301T090000Z.csv", archive.Path)
	assert.Positive(t, archive.SizeBytes)

	rc, err := f.svc.OpenArchive(f.ctx, archive.Path)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Len(t, data, archive.SizeBytes)

	_, err = f.svc.OpenArchive(f.ctx, "reports/missing.csv")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = f.svc.OpenArchive(f.ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestReportService_ArchiveWithoutStorage(t *testing.T) {
	f := setupReportService(t, nil)

	_, err := f.svc.Archive(f.ctx, export.DatasetClients, export.FormatCSV)
	assert.ErrorIs(t, err, service.ErrUnsupportedExport)
}
