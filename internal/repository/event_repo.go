package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
)

// EventRepository 活动数据访问接口
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	GetActive(ctx context.Context) (*model.Event, error)
	GetLatest(ctx context.Context) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	ClearActive(ctx context.Context) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type eventRepo struct {
	db *gorm.DB
}

// NewEventRepo 创建 EventRepository 实例
func NewEventRepo(db *gorm.DB) EventRepository {
	return &eventRepo{db: db}
}

func (r *eventRepo) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *eventRepo) GetByID(ctx context.Context, id string) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) GetActive(ctx context.Context) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetLatest 日期最近的活动，同日按创建时间
func (r *eventRepo) GetLatest(ctx context.Context) (*model.Event, error) {
	var event model.Event
	err := r.db.WithContext(ctx).
		Order("event_date DESC").
		Order("created_at DESC").
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepo) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Order("event_date DESC").
		Order("created_at DESC").
		Find(&events).Error
	return events, err
}

// ClearActive 将所有活动的 is_active 设为 false
func (r *eventRepo) ClearActive(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("is_active = ?", true).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// SetActive 更新单个活动的状态；目标不存在返回 gorm.ErrRecordNotFound
func (r *eventRepo) SetActive(ctx context.Context, id string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("event_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete 删除活动及其签到记录，不留孤立记录
func (r *eventRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&model.AttendanceRecord{}).Error; err != nil {
			return err
		}
		result := tx.Where("event_id = ?", id).Delete(&model.Event{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
