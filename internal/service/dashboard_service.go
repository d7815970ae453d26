package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/dto"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
	"github.com/mariamwidari-blip/kunyit-attendee/internal/repository"
	pkgerrors "github.com/mariamwidari-blip/kunyit-attendee/pkg/errors"
)

// DashboardService 仪表盘只读汇总
type DashboardService interface {
	Stats(ctx context.Context, eventID string) (*dto.DashboardStatsResponse, error)
	CheckIns(ctx context.Context, eventID string) ([]dto.CheckInItem, error)
}

type dashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService 创建 DashboardService 实例
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) DashboardService {
	return &dashboardService{repo: repo, logger: logger}
}

// ────────────────────── Stats ──────────────────────

// Stats 出席 = 有签到记录的在册人员（去重），缺席 = 在册总数 - 出席
// 签到总数为原始行数
func (s *dashboardService) Stats(ctx context.Context, eventID string) (*dto.DashboardStatsResponse, error) {
	total, err := s.repo.Person.CountActive(ctx)
	if err != nil {
		s.logger.Error("统计在册人员失败", zap.Error(err))
		return nil, pkgerrors.Store("people.count", err)
	}

	resp := &dto.DashboardStatsResponse{TotalPeople: total, AbsentCount: total}

	event, err := resolveDashboardEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return resp, nil
	}
	resp.Event = toEventResponse(event)

	present, err := s.repo.Attendance.CountPresent(ctx, event.EventID)
	if err != nil {
		s.logger.Error("统计出席人数失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, pkgerrors.Store("attendance.count_present", err)
	}
	rows, err := s.repo.Attendance.CountByEvent(ctx, event.EventID)
	if err != nil {
		s.logger.Error("统计签到行数失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, pkgerrors.Store("attendance.count", err)
	}

	if present > total {
		present = total
	}
	resp.PresentCount = present
	resp.AbsentCount = total - present
	resp.TotalCheckIns = rows
	return resp, nil
}

// ────────────────────── CheckIns ──────────────────────

// CheckIns 签到列表，最新在前
func (s *dashboardService) CheckIns(ctx context.Context, eventID string) ([]dto.CheckInItem, error) {
	event, err := resolveDashboardEvent(ctx, s.repo, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return []dto.CheckInItem{}, nil
	}

	records, err := s.repo.Attendance.ListByEvent(ctx, event.EventID)
	if err != nil {
		s.logger.Error("查询签到列表失败", zap.String("event_id", event.EventID), zap.Error(err))
		return nil, pkgerrors.Store("attendance.list", err)
	}

	items := make([]dto.CheckInItem, 0, len(records))
	for _, r := range records {
		item := dto.CheckInItem{
			RecordID:    r.RecordID,
			PersonID:    r.PersonID,
			Method:      r.Method,
			CheckInTime: r.CheckInTime.Format(dto.DateTimeLayout),
		}
		if r.Person != nil {
			item.PersonName = r.Person.Name
			item.Department = deref(r.Person.Department)
		}
		items = append(items, item)
	}
	return items, nil
}

// ── 内部辅助方法 ──

// resolveDashboardEvent 指定 ID → 该活动；否则进行中活动；否则日期最近的活动；都没有返回 nil
func resolveDashboardEvent(ctx context.Context, repo *repository.Repository, eventID string) (*model.Event, error) {
	if eventID != "" {
		event, err := repo.Event.GetByID(ctx, eventID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrEventNotFound
			}
			return nil, pkgerrors.Store("events.get", err)
		}
		return event, nil
	}

	event, err := repo.Event.GetActive(ctx)
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Store("events.get_active", err)
	}

	event, err = repo.Event.GetLatest(ctx)
	if err == nil {
		return event, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, pkgerrors.Store("events.get_latest", err)
}
