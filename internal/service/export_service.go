package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Dotaka123/worship-team-manager/config"
	"github.com/Dotaka123/worship-team-manager/internal/dto"
	"github.com/Dotaka123/worship-team-manager/internal/model"
	"github.com/Dotaka123/worship-team-manager/internal/repository"
	pkgerrors "github.com/Dotaka123/worship-team-manager/pkg/errors"
	"github.com/Dotaka123/worship-team-manager/pkg/period"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = pkgerrors.New(pkgerrors.ErrDependency, 19001, "生成导出文件失败")
)

// utf8BOM 让 Excel 以 UTF-8 打开 CSV
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	sheetDues       = "Cotisations"
	sheetAttendance = "Présences"
	sheetSummary    = "Résumé"
	sheetMembers    = "Membres"
)

// ExportService 导出业务接口
//
// 导出结果以字节返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportMonthlyReport 月度报表：会费、考勤、汇总三个 Sheet
	ExportMonthlyReport(ctx context.Context, month, callerID string) ([]byte, error)
	// ExportMembers 成员名单，可按状态筛选
	ExportMembers(ctx context.Context, req *dto.ExportMembersRequest, callerID string) ([]byte, error)
	// ExportDuesCSV 当月会费 CSV（带 BOM）
	ExportDuesCSV(ctx context.Context, month, callerID string) ([]byte, error)
}

type exportService struct {
	repo     *repository.Repository
	stats    StatsService
	currency string
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, repo *repository.Repository, stats StatsService, logger *zap.Logger) ExportService {
	return &exportService{
		repo:     repo,
		stats:    stats,
		currency: cfg.Dues.Currency,
		loc:      cfg.App.Location(),
		now:      time.Now,
		logger:   logger,
	}
}

// MonthlyReportFilename 月度报表建议文件名
func MonthlyReportFilename(month string) string {
	return fmt.Sprintf("rapport-%s.xlsx", month)
}

// MembersFilename 成员名单建议文件名
func MembersFilename(now time.Time) string {
	return fmt.Sprintf("membres-%s.xlsx", now.Format(period.DateLayout))
}

// DuesCSVFilename 会费 CSV 建议文件名
func DuesCSVFilename(month string) string {
	return fmt.Sprintf("cotisations-%s.csv", month)
}

// ────────────────────── ExportMonthlyReport ──────────────────────

func (s *exportService) ExportMonthlyReport(ctx context.Context, month, callerID string) ([]byte, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}

	// 1. 数据
	dues, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{Month: month})
	if err != nil {
		s.logger.Error("查询月度会费失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("查询月度会费", err)
	}
	start, end, _ := period.MonthBounds(month, s.loc)
	attendance, err := s.repo.Attendance.ListByRange(ctx, callerID, start, end)
	if err != nil {
		s.logger.Error("查询月度考勤失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("查询月度考勤", err)
	}
	goals, err := s.stats.Goals(ctx, month, callerID)
	if err != nil {
		return nil, err
	}

	// 2. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()
	st := newSheetStyles(f)

	f.SetSheetName("Sheet1", sheetDues)
	writeTable(f, st, sheetDues,
		[]string{"Membre", "Mois", "Montant", "Statut", "Mode de paiement", "Date de paiement"},
		[]float64{28, 10, 14, 12, 18, 18},
		len(dues), func(i int) []interface{} {
			d := &dues[i]
			name := ""
			if d.Member != nil {
				name = d.Member.FullName()
			}
			paidAt := ""
			if d.PaidAt != nil {
				paidAt = d.PaidAt.In(s.loc).Format("02/01/2006")
			}
			return []interface{}{name, d.Month, d.Amount, duesStatusLabel(d.Status), paymentMethodLabel(d.PaymentMethod), paidAt}
		})

	if _, err := f.NewSheet(sheetAttendance); err != nil {
		return nil, s.fail(err)
	}
	writeTable(f, st, sheetAttendance,
		[]string{"Date", "Membre", "Statut", "Type", "Heure d'arrivée", "Motif"},
		[]float64{12, 28, 12, 12, 14, 36},
		len(attendance), func(i int) []interface{} {
			a := &attendance[i]
			name := ""
			if a.Member != nil {
				name = a.Member.FullName()
			}
			return []interface{}{a.Date.In(s.loc).Format("02/01/2006"), name, attendanceStatusLabel(a.Status), a.Type, a.ArrivalTime, a.Reason}
		})

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, s.fail(err)
	}
	att := summarizeAttendance(attendance)
	summary := [][]interface{}{
		{"Mois", monthLabel(month)},
		{"Membres actifs", goals.ActiveMembers},
		{"Objectif", formatAmount(goals.TargetAmount, s.currency)},
		{"Montant collecté", formatAmount(goals.CollectedAmount, s.currency)},
		{"Progression", fmt.Sprintf("%d%%", goals.Progress)},
		{"Cotisations payées", goals.PaidCount},
		{"Cotisations impayées", goals.UnpaidCount},
		{"Présences enregistrées", att.Total},
		{"Taux de présence", fmt.Sprintf("%d%%", att.Rate)},
	}
	writeTable(f, st, sheetSummary, []string{"Indicateur", "Valeur"}, []float64{26, 22},
		len(summary), func(i int) []interface{} { return summary[i] })

	return s.write(f)
}

// ────────────────────── ExportMembers ──────────────────────

func (s *exportService) ExportMembers(ctx context.Context, req *dto.ExportMembersRequest, callerID string) ([]byte, error) {
	members, err := s.repo.Member.List(ctx, callerID, repository.MemberFilter{Status: req.Status, Sort: "name", Order: "asc"})
	if err != nil {
		s.logger.Error("查询成员失败", zap.Error(err))
		return nil, pkgerrors.Dependency("查询成员", err)
	}

	now := s.now().In(s.loc)
	f := excelize.NewFile()
	defer f.Close()
	st := newSheetStyles(f)

	f.SetSheetName("Sheet1", sheetMembers)
	writeTable(f, st, sheetMembers,
		[]string{"Nom", "Prénom", "Pseudo", "Email", "Téléphone", "Sexe", "Âge", "Rôle", "Instrument", "Statut", "Date d'entrée"},
		[]float64{18, 18, 16, 28, 16, 10, 6, 14, 16, 10, 14},
		len(members), func(i int) []interface{} {
			m := &members[i]
			email := ""
			if m.Email != nil {
				email = *m.Email
			}
			age := ""
			if a, ok := m.AgeAt(now); ok {
				age = strconv.Itoa(a)
			}
			return []interface{}{
				m.LastName, m.FirstName, m.Pseudo, email, m.Phone, genderLabel(m.Gender), age,
				memberRoleLabel(m.Role), m.Instrument, memberStatusLabel(m.Status), m.EntryDate.Format("02/01/2006"),
			}
		})

	return s.write(f)
}

// ────────────────────── ExportDuesCSV ──────────────────────

func (s *exportService) ExportDuesCSV(ctx context.Context, month, callerID string) ([]byte, error) {
	if err := checkMonth(month); err != nil {
		return nil, err
	}
	dues, err := s.repo.Dues.List(ctx, callerID, repository.DuesFilter{Month: month})
	if err != nil {
		s.logger.Error("查询月度会费失败", zap.String("month", month), zap.Error(err))
		return nil, pkgerrors.Dependency("查询月度会费", err)
	}

	buf := new(bytes.Buffer)
	buf.Write(utf8BOM)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"Membre", "Mois", "Montant", "Statut", "Mode de paiement", "Date de paiement"})
	for i := range dues {
		d := &dues[i]
		name := ""
		if d.Member != nil {
			name = d.Member.FullName()
		}
		paidAt := ""
		if d.PaidAt != nil {
			paidAt = d.PaidAt.In(s.loc).Format(period.DateLayout)
		}
		_ = w.Write([]string{name, d.Month, strconv.FormatInt(d.Amount, 10), duesStatusLabel(d.Status), paymentMethodLabel(d.PaymentMethod), paidAt})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, s.fail(err)
	}
	return buf.Bytes(), nil
}

// ── 辅助函数 ──

type sheetStyles struct {
	header int
}

func newSheetStyles(f *excelize.File) sheetStyles {
	header, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	return sheetStyles{header: header}
}

// writeTable 写入表头与 n 行数据，首行冻结
func writeTable(f *excelize.File, st sheetStyles, sheet string, headers []string, widths []float64, n int, rowAt func(i int) []interface{}) {
	for i, h := range headers {
		col := colName(i)
		f.SetCellValue(sheet, cell(col, 1), h)
		if i < len(widths) {
			f.SetColWidth(sheet, col, col, widths[i])
		}
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), st.header)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i := 0; i < n; i++ {
		for j, v := range rowAt(i) {
			f.SetCellValue(sheet, cell(colName(j), i+2), v)
		}
	}
}

func summarizeAttendance(list []model.Attendance) dto.AttendanceSummary {
	var sum dto.AttendanceSummary
	for i := range list {
		switch list[i].Status {
		case model.AttendancePresent:
			sum.Present++
		case model.AttendanceLate:
			sum.Late++
		case model.AttendanceAbsent:
			sum.Absent++
		case model.AttendanceExcused:
			sum.Excused++
		}
		sum.Total++
	}
	sum.Rate = attendanceRate(sum.Present, sum.Late, sum.Total)
	return sum
}

func (s *exportService) write(f *excelize.File) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, s.fail(err)
	}
	return buf.Bytes(), nil
}

func (s *exportService) fail(err error) error {
	s.logger.Error("写入导出文件失败", zap.Error(err))
	return ErrExportGenerateFail
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
