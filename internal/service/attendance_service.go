package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/observability"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
	"github.com/mariamwidari-blip/kunyit-attendee/pkg/events"
)

// ── 签到模块业务错误 ──

var (
	ErrDuplicateAttendance = errors.New("已签到")
	ErrScanAlreadyHandled  = errors.New("该扫码会话已处理")
)

// AttendanceService 签到业务接口
// 三个入口最终都走 record：进行中活动 → 解析人员 → 去重 → 写入
type AttendanceService interface {
	CheckInByScan(ctx context.Context, sessionID, code string) (*dto.CheckInResponse, error)
	CheckInByQRCode(ctx context.Context, code string) (*dto.CheckInResponse, error)
	CheckInManual(ctx context.Context, personID string) (*dto.CheckInResponse, error)
}

// personRef 人员引用：按 ID（列表选择）或按二维码标识
type personRef struct {
	id   string
	code string
}

type attendanceService struct {
	repo      *repository.Repository
	guard     ScanGuard
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, guard ScanGuard, publisher events.Publisher, logger *zap.Logger) AttendanceService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &attendanceService{repo: repo, guard: guard, publisher: publisher, logger: logger}
}

// ────────────────────── 入口 ──────────────────────

// CheckInByScan 摄像头解码回调；同一会话的第二次解码直接拒绝，不进入签到流程
func (s *attendanceService) CheckInByScan(ctx context.Context, sessionID, code string) (*dto.CheckInResponse, error) {
	ok, err := s.guard.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrScanAlreadyHandled
	}
	return s.record(ctx, personRef{code: code}, model.MethodQRScan)
}

// CheckInByQRCode 手动输入/粘贴二维码标识，与扫码同属 qr_scan
func (s *attendanceService) CheckInByQRCode(ctx context.Context, code string) (*dto.CheckInResponse, error) {
	return s.record(ctx, personRef{code: code}, model.MethodQRScan)
}

// CheckInManual 从人员列表中选择
func (s *attendanceService) CheckInManual(ctx context.Context, personID string) (*dto.CheckInResponse, error) {
	return s.record(ctx, personRef{id: personID}, model.MethodManual)
}

// ────────────────────── record ──────────────────────

func (s *attendanceService) record(ctx context.Context, ref personRef, method string) (*dto.CheckInResponse, error) {
	// 1. 进行中活动
	event, err := s.repo.Event.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordCheckIn(method, observability.ResultNoEvent)
			return nil, ErrNoActiveEvent
		}
		observability.RecordCheckIn(method, observability.ResultError)
		s.logger.Error("查询进行中活动失败", zap.Error(err))
		return nil, pkgerrors.Store("events.get_active", err)
	}

	// 2. 解析人员（仅在册人员）
	person, err := s.resolvePerson(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrPersonNotFound) {
			observability.RecordCheckIn(method, observability.ResultNotFound)
		} else {
			observability.RecordCheckIn(method, observability.ResultError)
		}
		return nil, err
	}

	// 3. 去重预检，给出带姓名的提示
	exists, err := s.repo.Attendance.Exists(ctx, person.PersonID, event.EventID)
	if err != nil {
		observability.RecordCheckIn(method, observability.ResultError)
		s.logger.Error("查询签到记录失败", zap.Error(err))
		return nil, pkgerrors.Store("attendance.exists", err)
	}
	if exists {
		observability.RecordCheckIn(method, observability.ResultDuplicate)
		return nil, fmt.Errorf("%s %w", person.Name, ErrDuplicateAttendance)
	}

	// 4. 写入；唯一索引兜底并发重复提交
	record := &model.AttendanceRecord{
		PersonID: person.PersonID,
		EventID:  event.EventID,
		Method:   method,
	}
	created, err := s.repo.Attendance.CreateIfAbsent(ctx, record)
	if err != nil {
		observability.RecordCheckIn(method, observability.ResultError)
		s.logger.Error("写入签到记录失败",
			zap.String("person_id", person.PersonID), zap.String("event_id", event.EventID), zap.Error(err))
		return nil, pkgerrors.Store("attendance.insert", err)
	}
	if !created {
		observability.RecordCheckIn(method, observability.ResultDuplicate)
		return nil, fmt.Errorf("%s %w", person.Name, ErrDuplicateAttendance)
	}

	observability.RecordCheckIn(method, observability.ResultRecorded)
	s.logger.Info("签到成功",
		zap.String("person_id", person.PersonID),
		zap.String("event_id", event.EventID),
		zap.String("method", method))

	if err := s.publisher.PublishCheckedIn(ctx, events.CheckedIn{
		RecordID:    record.RecordID,
		PersonID:    person.PersonID,
		PersonName:  person.Name,
		EventID:     event.EventID,
		EventName:   event.Name,
		Method:      method,
		CheckInTime: record.CheckInTime,
	}); err != nil {
		s.logger.Warn("发布签到事件失败", zap.String("record_id", record.RecordID), zap.Error(err))
	}

	return &dto.CheckInResponse{
		RecordID:    record.RecordID,
		PersonID:    person.PersonID,
		PersonName:  person.Name,
		Department:  deref(person.Department),
		EventID:     event.EventID,
		EventName:   event.Name,
		Method:      method,
		CheckInTime: record.CheckInTime.Format(dto.DateTimeLayout),
	}, nil
}

func (s *attendanceService) resolvePerson(ctx context.Context, ref personRef) (*model.Person, error) {
	var (
		person *model.Person
		err    error
	)
	if ref.id != "" {
		person, err = s.repo.Person.GetActiveByID(ctx, ref.id)
	} else {
		code := strings.TrimSpace(ref.code)
		if code == "" {
			return nil, ErrPersonNotFound
		}
		person, err = s.repo.Person.GetActiveByQRCode(ctx, code)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		s.logger.Error("查询人员失败", zap.Error(err))
		return nil, pkgerrors.Store("people.resolve", err)
	}
	return person, nil
}
