package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoEvent      = errors.New("暂无可导出的活动")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	sheetPresent = "签到记录"
	sheetAbsent  = "未签到"
)

// ExportService 导出业务接口
//
// 输出两个 Sheet：
//   - "签到记录"：姓名 / 部门 / 签到方式 / 签到时间（最新在前）
//   - "未签到"：在册但未签到的人员
type ExportService interface {
	ExportAttendance(ctx context.Context, eventID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportAttendance 导出活动签到情况为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportAttendance(ctx context.Context, eventID string) (*bytes.Buffer, string, error) {
	event, err := resolveDashboardEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, "", err
	}
	if event == nil {
		return nil, "", ErrExportNoEvent
	}

	records, err := s.repo.Attendance.ListByEvent(ctx, event.EventID)
	if err != nil {
		s.logger.Error("查询签到列表失败", zap.Error(err))
		return nil, "", pkgerrors.Store("attendance.list", err)
	}
	absent, err := s.repo.Person.ListAbsent(ctx, event.EventID)
	if err != nil {
		s.logger.Error("查询未签到人员失败", zap.Error(err))
		return nil, "", pkgerrors.Store("people.list_absent", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(sheetPresent)
	f.SetActiveSheet(idx)
	f.NewSheet(sheetAbsent)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#FFB800"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 签到记录
	title := fmt.Sprintf("%s（%s）", event.Name, event.EventDate.Format("2006-01-02"))
	f.SetCellValue(sheetPresent, "A1", title)
	f.MergeCell(sheetPresent, "A1", "D1")
	f.SetCellStyle(sheetPresent, "A1", "A1", headerStyle)
	writeHeader(f, sheetPresent, 2, []string{"姓名", "部门", "签到方式", "签到时间"}, headerStyle)

	row := 3
	for _, r := range records {
		name, dept := "", ""
		if r.Person != nil {
			name, dept = r.Person.Name, deref(r.Person.Department)
		}
		f.SetCellValue(sheetPresent, cell("A", row), name)
		f.SetCellValue(sheetPresent, cell("B", row), dept)
		f.SetCellValue(sheetPresent, cell("C", row), methodLabel(r.Method))
		f.SetCellValue(sheetPresent, cell("D", row), r.CheckInTime.Format("2006-01-02 15:04:05"))
		row++
	}
	f.SetColWidth(sheetPresent, "A", "B", 24)
	f.SetColWidth(sheetPresent, "C", "D", 20)

	// 未签到
	writeHeader(f, sheetAbsent, 1, []string{"姓名", "部门", "邮箱", "电话"}, headerStyle)
	row = 2
	for _, p := range absent {
		f.SetCellValue(sheetAbsent, cell("A", row), p.Name)
		f.SetCellValue(sheetAbsent, cell("B", row), deref(p.Department))
		f.SetCellValue(sheetAbsent, cell("C", row), deref(p.Email))
		f.SetCellValue(sheetAbsent, cell("D", row), deref(p.Phone))
		row++
	}
	f.SetColWidth(sheetAbsent, "A", "D", 24)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("签到_%s_%s.xlsx", sanitizeFilename(event.Name), event.EventDate.Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func writeHeader(f *excelize.File, sheet string, row int, titles []string, style int) {
	for i, t := range titles {
		c := cell(colName(i), row)
		f.SetCellValue(sheet, c, t)
		f.SetCellStyle(sheet, c, c, style)
	}
}

func methodLabel(method string) string {
	if method == model.MethodManual {
		return "手动选择"
	}
	return "扫码"
}

func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
