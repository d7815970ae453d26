package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/observability"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

// ── 人员模块业务错误 ──

var (
	ErrPersonNotFound = errors.New("人员不存在")

	ErrImportNoData          = errors.New("导入文件无数据行（第一行为表头）")
	ErrImportTooManyRows     = errors.New("导入数据行数超过上限")
	ErrImportBadHeader       = errors.New("导入文件表头缺少 name 列")
	ErrImportUnsupportedFile = errors.New("仅支持 .csv 或 .xlsx 文件")
	ErrImportMalformed       = errors.New("导入文件格式错误")
)

const (
	recentAttendanceLimit = 10
	importDBErrorReason   = "数据库错误，本批次未写入"
)

// importColumns 导入模板列顺序
var importColumns = []string{"name", "email", "phone", "department", "notes"}

// codeGenerator 人员二维码标识生成器
type codeGenerator interface {
	Generate(name string) (string, error)
}

// PersonService 人员业务接口
type PersonService interface {
	Add(ctx context.Context, req *dto.PersonRequest) (*dto.PersonResponse, error)
	ListActive(ctx context.Context, keyword string) ([]dto.PersonResponse, error)
	GetDetail(ctx context.Context, id string) (*dto.PersonDetailResponse, error)
	Update(ctx context.Context, id string, req *dto.PersonRequest) (*dto.PersonResponse, error)
	Delete(ctx context.Context, id string) error
	ParseImportFile(filename string, reader io.Reader) ([]ImportPersonRow, error)
	Import(ctx context.Context, rows []ImportPersonRow) (*dto.ImportPeopleResponse, error)
	ImportTemplate() []byte
}

// ImportPersonRow 导入文件解析后的单行数据；Row 为文件行号
type ImportPersonRow struct {
	Row    int
	Fields dto.PersonRequest
}

type personService struct {
	repo    *repository.Repository
	codes   codeGenerator
	maxRows int
	logger  *zap.Logger
}

// NewPersonService 创建 PersonService 实例
func NewPersonService(repo *repository.Repository, codes codeGenerator, maxRows int, logger *zap.Logger) PersonService {
	return &personService{repo: repo, codes: codes, maxRows: maxRows, logger: logger}
}

// ────────────────────── Add ──────────────────────

func (s *personService) Add(ctx context.Context, req *dto.PersonRequest) (*dto.PersonResponse, error) {
	fields := normalizePerson(req)
	if err := validatePerson(&fields); err != nil {
		return nil, err
	}

	person, err := s.newPerson(&fields)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Person.Create(ctx, person); err != nil {
		s.logger.Error("新增人员失败", zap.String("name", person.Name), zap.Error(err))
		return nil, pkgerrors.Store("people.insert", err)
	}

	s.logger.Info("新增人员", zap.String("person_id", person.PersonID), zap.String("qr_code", person.QRCode))
	return toPersonResponse(person), nil
}

// ────────────────────── ListActive ──────────────────────

func (s *personService) ListActive(ctx context.Context, keyword string) ([]dto.PersonResponse, error) {
	people, err := s.repo.Person.ListActive(ctx, keyword)
	if err != nil {
		s.logger.Error("查询人员列表失败", zap.Error(err))
		return nil, pkgerrors.Store("people.list", err)
	}

	result := make([]dto.PersonResponse, 0, len(people))
	for i := range people {
		result = append(result, *toPersonResponse(&people[i]))
	}
	return result, nil
}

// ────────────────────── GetDetail ──────────────────────

func (s *personService) GetDetail(ctx context.Context, id string) (*dto.PersonDetailResponse, error) {
	person, err := s.getPerson(ctx, id)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.Attendance.ListRecentByPerson(ctx, id, recentAttendanceLimit)
	if err != nil {
		s.logger.Error("查询人员签到记录失败", zap.String("person_id", id), zap.Error(err))
		return nil, pkgerrors.Store("attendance.list_by_person", err)
	}

	detail := &dto.PersonDetailResponse{
		PersonResponse:   *toPersonResponse(person),
		RecentAttendance: make([]dto.PersonAttendanceItem, 0, len(records)),
	}
	for _, r := range records {
		item := dto.PersonAttendanceItem{
			RecordID:    r.RecordID,
			EventID:     r.EventID,
			Method:      r.Method,
			CheckInTime: r.CheckInTime.Format(dto.DateTimeLayout),
		}
		if r.Event != nil {
			item.EventName = r.Event.Name
			item.EventDate = r.Event.EventDate.Format(dto.DateLayout)
		}
		detail.RecentAttendance = append(detail.RecentAttendance, item)
	}
	return detail, nil
}

// ────────────────────── Update ──────────────────────

func (s *personService) Update(ctx context.Context, id string, req *dto.PersonRequest) (*dto.PersonResponse, error) {
	person, err := s.getPerson(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := normalizePerson(req)
	if err := validatePerson(&fields); err != nil {
		return nil, err
	}

	// 二维码标识保持不变
	person.Name = fields.Name
	person.Email = optional(fields.Email)
	person.Phone = optional(fields.Phone)
	person.Department = optional(fields.Department)
	person.Notes = optional(fields.Notes)

	if err := s.repo.Person.Update(ctx, person); err != nil {
		s.logger.Error("更新人员失败", zap.String("person_id", id), zap.Error(err))
		return nil, pkgerrors.Store("people.update", err)
	}
	return toPersonResponse(person), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除，签到历史保留
func (s *personService) Delete(ctx context.Context, id string) error {
	if _, err := s.getPerson(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Person.Deactivate(ctx, id); err != nil {
		s.logger.Error("停用人员失败", zap.String("person_id", id), zap.Error(err))
		return pkgerrors.Store("people.deactivate", err)
	}
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

// ParseImportFile 按扩展名解析 CSV / XLSX；列序灵活，表头不区分大小写，全空行跳过
func (s *personService) ParseImportFile(filename string, reader io.Reader) ([]ImportPersonRow, error) {
	var (
		rows []ImportPersonRow
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", "":
		rows, err = parseCSV(reader)
	case ".xlsx":
		rows, err = parseXLSX(reader)
	default:
		return nil, ErrImportUnsupportedFile
	}
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, fmt.Errorf("%w: %d 行（上限 %d）", ErrImportTooManyRows, len(rows), s.maxRows)
	}
	return rows, nil
}

func parseCSV(reader io.Reader) ([]ImportPersonRow, error) {
	r := csv.NewReader(reader)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, ErrImportNoData
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	colIndex, err := parseHeaderIndex(header)
	if err != nil {
		return nil, err
	}

	var rows []ImportPersonRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
		}
		line, _ := r.FieldPos(0)
		if row, ok := buildImportRow(line, record, colIndex); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseXLSX(reader io.Reader) ([]ImportPersonRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	defer f.Close()

	excelRows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportMalformed, err)
	}
	if len(excelRows) == 0 {
		return nil, ErrImportNoData
	}

	colIndex, err := parseHeaderIndex(excelRows[0])
	if err != nil {
		return nil, err
	}

	var rows []ImportPersonRow
	for i := 1; i < len(excelRows); i++ {
		if row, ok := buildImportRow(i+1, excelRows[i], colIndex); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// parseHeaderIndex 解析表头，返回列名 -> 列索引映射；name 列必需
func parseHeaderIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(importColumns))
	for i, h := range header {
		col := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for _, known := range importColumns {
			if col == known {
				if _, seen := idx[col]; !seen {
					idx[col] = i
				}
			}
		}
	}
	if _, ok := idx["name"]; !ok {
		return nil, ErrImportBadHeader
	}
	return idx, nil
}

// buildImportRow 提取单行；全空行返回 false
func buildImportRow(line int, record []string, colIndex map[string]int) (ImportPersonRow, bool) {
	get := func(col string) string {
		i, ok := colIndex[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}
	fields := dto.PersonRequest{
		Name:       get("name"),
		Email:      get("email"),
		Phone:      get("phone"),
		Department: get("department"),
		Notes:      get("notes"),
	}
	if strings.TrimSpace(fields.Name+fields.Email+fields.Phone+fields.Department+fields.Notes) == "" {
		return ImportPersonRow{}, false
	}
	return ImportPersonRow{Row: line, Fields: fields}, true
}

// ────────────────────── Import ──────────────────────

// Import 逐行校验，通过的行一次性批量写入
// 批量写入失败时所有候选行均记为失败；Success + Failed == Total
func (s *personService) Import(ctx context.Context, rows []ImportPersonRow) (*dto.ImportPeopleResponse, error) {
	resp := &dto.ImportPeopleResponse{
		Total:  len(rows),
		Errors: []dto.ImportPeopleError{},
	}

	// 第一阶段：逐行校验并生成标识（不接触数据库）
	var (
		candidates []*model.Person
		candRows   []int
	)
	for _, row := range rows {
		fields := normalizePerson(&row.Fields)
		if err := validatePerson(&fields); err != nil {
			resp.Errors = append(resp.Errors, dto.ImportPeopleError{Row: row.Row, Reason: validationReason(err)})
			continue
		}
		person, err := s.newPerson(&fields)
		if err != nil {
			resp.Errors = append(resp.Errors, dto.ImportPeopleError{Row: row.Row, Reason: "生成二维码标识失败"})
			continue
		}
		candidates = append(candidates, person)
		candRows = append(candRows, row.Row)
	}

	// 第二阶段：单条 INSERT 批量写入
	if len(candidates) > 0 {
		if err := s.repo.Person.BatchCreate(ctx, candidates); err != nil {
			s.logger.Error("批量导入人员写入失败，整批拒绝",
				zap.Int("candidates", len(candidates)), zap.Error(err))
			for _, r := range candRows {
				resp.Errors = append(resp.Errors, dto.ImportPeopleError{Row: r, Reason: importDBErrorReason})
			}
		} else {
			resp.Success = len(candidates)
		}
	}

	sort.SliceStable(resp.Errors, func(i, j int) bool { return resp.Errors[i].Row < resp.Errors[j].Row })
	resp.Failed = len(resp.Errors)

	observability.RecordImport(resp.Success, resp.Failed)
	s.logger.Info("批量导入人员完成",
		zap.Int("total", resp.Total), zap.Int("success", resp.Success), zap.Int("failed", resp.Failed))
	return resp, nil
}

// ImportTemplate CSV 导入模板
func (s *personService) ImportTemplate() []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(importColumns)
	_ = w.Write([]string{"John Doe", "john@example.com", "081234567890", "Keuangan", ""})
	w.Flush()
	return buf.Bytes()
}

// ── 内部辅助方法 ──

func (s *personService) getPerson(ctx context.Context, id string) (*model.Person, error) {
	person, err := s.repo.Person.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.String("person_id", id), zap.Error(err))
		return nil, pkgerrors.Store("people.get", err)
	}
	return person, nil
}

func (s *personService) newPerson(fields *dto.PersonRequest) (*model.Person, error) {
	code, err := s.codes.Generate(fields.Name)
	if err != nil {
		s.logger.Error("生成二维码标识失败", zap.Error(err))
		return nil, err
	}
	return &model.Person{
		Name:       fields.Name,
		Email:      optional(fields.Email),
		Phone:      optional(fields.Phone),
		Department: optional(fields.Department),
		Notes:      optional(fields.Notes),
		QRCode:     code,
		IsActive:   true,
	}, nil
}

func validationReason(err error) string {
	if ve, ok := pkgerrors.IsValidation(err); ok {
		return ve.Message
	}
	return err.Error()
}

func toPersonResponse(p *model.Person) *dto.PersonResponse {
	return &dto.PersonResponse{
		ID:         p.PersonID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Department: p.Department,
		Notes:      p.Notes,
		QRCode:     p.QRCode,
		IsActive:   p.IsActive,
		PhotoURL:   p.PhotoURL,
		CreatedAt:  p.CreatedAt.Format(dto.DateTimeLayout),
	}
}
