package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
)

func setupTestExportService(t *testing.T) (ExportService, *memStore) {
	t.Helper()
	cfg := newTestConfig(t)
	repo, st := newMockRepository()
	stats := NewStatsService(cfg, repo, zap.NewNop())
	stats.(*statsService).now = func() time.Time { return testNow(t) }
	svc := NewExportService(cfg, repo, stats, zap.NewNop())
	svc.(*exportService).now = func() time.Time { return testNow(t) }

	seedMember(st, "m1", "Hery", model.MemberStatusActive)
	seedMember(st, "m2", "Lova", model.MemberStatusActive)
	seedMember(st, "m3", "Fara", model.MemberStatusInactive)
	seedDues(st, "m1", "2026-02", model.DuesStatusPaid)
	seedDues(st, "m2", "2026-02", model.DuesStatusUnpaid)
	seedAttendance(st, "m1", time.Date(2026, 2, 8, 12, 0, 0, 0, testLoc(t)), model.AttendancePresent)
	return svc, st
}

func TestExportMonthlyReport(t *testing.T) {
	svc, _ := setupTestExportService(t)

	data, err := svc.ExportMonthlyReport(context.Background(), "2026-02", testOwner)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("PK")), "xlsx 应为 zip 格式")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetDues, sheetAttendance, sheetSummary}, f.GetSheetList())

	rows, err := f.GetRows(sheetDues)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Membre", rows[0][0])
	assert.Equal(t, "Hery Rakoto", rows[1][0])
	assert.Equal(t, "Payé", rows[1][3])
	assert.Equal(t, "Espèces", rows[1][4])
	assert.Equal(t, "Non payé", rows[2][3])

	summary, err := f.GetRows(sheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mois", "Février 2026"}, summary[1])
	assert.Equal(t, []string{"Objectif", "6 000 Ar"}, summary[3])
	assert.Equal(t, []string{"Montant collecté", "3 000 Ar"}, summary[4])
}

func TestExportMonthlyReport_InvalidMonth(t *testing.T) {
	svc, _ := setupTestExportService(t)
	_, err := svc.ExportMonthlyReport(context.Background(), "fevrier", testOwner)
	assert.True(t, errors.Is(err, ErrInvalidMonth))
}

func TestExportMembers_FilterByStatus(t *testing.T) {
	svc, _ := setupTestExportService(t)

	data, err := svc.ExportMembers(context.Background(), &dto.ExportMembersRequest{Status: model.MemberStatusActive}, testOwner)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetMembers)
	require.NoError(t, err)
	assert.Len(t, rows, 3, "表头 + 2 名活跃成员")
	assert.Equal(t, "Actif", rows[1][9])
}

func TestExportDuesCSV(t *testing.T) {
	svc, _ := setupTestExportService(t)

	data, err := svc.ExportDuesCSV(context.Background(), "2026-02", testOwner)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM), "CSV 应以 UTF-8 BOM 开头")

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Hery Rakoto", "2026-02", "3000", "Payé", "Espèces", "2026-02-01"}, records[1])
	assert.Equal(t, "", records[2][5])
}

func TestExportFilenames(t *testing.T) {
	assert.Equal(t, "rapport-2026-02.xlsx", MonthlyReportFilename("2026-02"))
	assert.Equal(t, "cotisations-2026-02.csv", DuesCSVFilename("2026-02"))
	assert.Equal(t, "membres-2026-02-20.xlsx", MembersFilename(testNow(t)))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Février 2026", monthLabel("2026-02"))
	assert.Equal(t, "2026-13", monthLabel("2026-13"))
	assert.Equal(t, "3 000 Ar", formatAmount(3000, "Ar"))
	assert.Equal(t, "1 250 000", formatAmount(1250000, ""))
	assert.Equal(t, "-500 Ar", formatAmount(-500, "Ar"))
	assert.Equal(t, "", paymentMethodLabel(nil))
	assert.Equal(t, "En retard", attendanceStatusLabel(model.AttendanceLate))
}
