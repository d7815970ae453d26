package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

// ── 活动模块业务错误 ──

var (
	ErrEventNotFound = errors.New("活动不存在")
	ErrEventActive   = errors.New("活动进行中，请先结束后再删除")
	ErrNoActiveEvent = errors.New("当前没有进行中的活动")
)

const maxEventNameLen = 200

// EventService 活动业务接口
type EventService interface {
	Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	List(ctx context.Context) ([]dto.EventResponse, error)
	GetActive(ctx context.Context) (*dto.EventResponse, error)
	SetActive(ctx context.Context, id string, active bool) (*dto.EventResponse, error)
	Delete(ctx context.Context, id string) error
	Calendar(ctx context.Context) ([]byte, error)
}

type eventService struct {
	repo   *repository.Repository
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewEventService 创建 EventService 实例；loc 用于解释活动日期与“今天”
func NewEventService(repo *repository.Repository, loc *time.Location, logger *zap.Logger) EventService {
	if loc == nil {
		loc = time.Local
	}
	return &eventService{repo: repo, loc: loc, now: time.Now, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *eventService) Create(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name", "活动名称不能为空")
	}
	if utf8.RuneCountInString(name) > maxEventNameLen {
		return nil, pkgerrors.NewValidationError("name", "活动名称不能超过 200 个字符")
	}

	date, err := s.parseDate(req.EventDate)
	if err != nil {
		return nil, err
	}

	event := &model.Event{Name: name, EventDate: date}
	if err := s.repo.Event.Create(ctx, event); err != nil {
		s.logger.Error("创建活动失败", zap.String("name", name), zap.Error(err))
		return nil, pkgerrors.Store("events.insert", err)
	}

	s.logger.Info("创建活动", zap.String("event_id", event.EventID), zap.String("name", name))
	return toEventResponse(event), nil
}

// parseDate 解析 YYYY-MM-DD；为空时取当天
func (s *eventService) parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		y, m, d := s.now().In(s.loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return time.Time{}, pkgerrors.NewValidationError("event_date", "日期格式应为 YYYY-MM-DD")
	}
	return t, nil
}

// ────────────────────── List / GetActive ──────────────────────

func (s *eventService) List(ctx context.Context) ([]dto.EventResponse, error) {
	events, err := s.repo.Event.List(ctx)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, pkgerrors.Store("events.list", err)
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *toEventResponse(&events[i]))
	}
	return result, nil
}

func (s *eventService) GetActive(ctx context.Context) (*dto.EventResponse, error) {
	event, err := s.repo.Event.GetActive(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveEvent
		}
		s.logger.Error("查询进行中活动失败", zap.Error(err))
		return nil, pkgerrors.Store("events.get_active", err)
	}
	return toEventResponse(event), nil
}

// ────────────────────── SetActive ──────────────────────

// SetActive 开启活动时在同一事务内先清除其他活动；结束活动只更新目标
// 并发开启由部分唯一索引兜底，落败方得到 StoreError
func (s *eventService) SetActive(ctx context.Context, id string, active bool) (*dto.EventResponse, error) {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if !active {
		if err := s.repo.Event.SetActive(ctx, id, false); err != nil {
			s.logger.Error("结束活动失败", zap.String("event_id", id), zap.Error(err))
			return nil, pkgerrors.Store("events.deactivate", err)
		}
		event.IsActive = false
		return toEventResponse(event), nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, pkgerrors.Store("events.begin", err)
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	if err := txRepo.Event.ClearActive(ctx); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("清除进行中活动失败", zap.Error(err))
		return nil, pkgerrors.Store("events.clear_active", err)
	}

	if err := txRepo.Event.SetActive(ctx, id, true); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("开启活动失败", zap.String("event_id", id), zap.Error(err))
		return nil, pkgerrors.Store("events.activate", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, pkgerrors.Store("events.commit", err)
		}
	}

	s.logger.Info("开启活动", zap.String("event_id", id), zap.String("name", event.Name))
	event.IsActive = true
	return toEventResponse(event), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 进行中的活动不可删除；签到记录随活动一并删除
func (s *eventService) Delete(ctx context.Context, id string) error {
	event, err := s.getEvent(ctx, id)
	if err != nil {
		return err
	}
	if event.IsActive {
		return ErrEventActive
	}

	if err := s.repo.Event.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		s.logger.Error("删除活动失败", zap.String("event_id", id), zap.Error(err))
		return pkgerrors.Store("events.delete", err)
	}
	s.logger.Info("删除活动", zap.String("event_id", id))
	return nil
}

// ────────────────────── Calendar ──────────────────────

// Calendar 导出全部活动为 iCalendar（全天事件）
func (s *eventService) Calendar(ctx context.Context) ([]byte, error) {
	events, err := s.repo.Event.List(ctx)
	if err != nil {
		s.logger.Error("查询活动列表失败", zap.Error(err))
		return nil, pkgerrors.Store("events.list", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//kunyit-attendee//events//ID")
	cal.SetXWRCalName("Kunyit Attendee")

	stamp := s.now().UTC()
	for _, e := range events {
		ev := cal.AddEvent(e.EventID + "@kunyit-attendee")
		ev.SetDtStampTime(stamp)
		ev.SetCreatedTime(e.CreatedAt)
		ev.SetSummary(e.Name)
		ev.SetAllDayStartAt(e.EventDate)
		ev.SetAllDayEndAt(e.EventDate.AddDate(0, 0, 1))
		if e.IsActive {
			ev.SetDescription("进行中")
		}
	}
	return []byte(cal.Serialize()), nil
}

// ── 内部辅助方法 ──

func (s *eventService) getEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := s.repo.Event.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		s.logger.Error("查询活动失败", zap.String("event_id", id), zap.Error(err))
		return nil, pkgerrors.Store("events.get", err)
	}
	return event, nil
}

func toEventResponse(e *model.Event) *dto.EventResponse {
	return &dto.EventResponse{
		ID:        e.EventID,
		Name:      e.Name,
		EventDate: e.EventDate.Format(dto.DateLayout),
		IsActive:  e.IsActive,
		CreatedAt: e.CreatedAt.Format(dto.DateTimeLayout),
	}
}
