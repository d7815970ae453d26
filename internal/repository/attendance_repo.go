package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
)

// AttendanceRepository 签到记录数据访问接口
type AttendanceRepository interface {
	CreateIfAbsent(ctx context.Context, record *model.AttendanceRecord) (bool, error)
	Exists(ctx context.Context, personID, eventID string) (bool, error)
	CountByEvent(ctx context.Context, eventID string) (int64, error)
	CountPresent(ctx context.Context, eventID string) (int64, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.AttendanceRecord, error)
	ListRecentByPerson(ctx context.Context, personID string, limit int) ([]model.AttendanceRecord, error)
}

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

// CreateIfAbsent INSERT ... ON CONFLICT (person_id, event_id) DO NOTHING
// 返回 false 表示该人员已在本活动签到（含并发写入的情况）
func (r *attendanceRepo) CreateIfAbsent(ctx context.Context, record *model.AttendanceRecord) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "person_id"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *attendanceRepo) Exists(ctx context.Context, personID, eventID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("person_id = ? AND event_id = ?", personID, eventID).
		Count(&n).Error
	return n > 0, err
}

// CountByEvent 活动签到行数
func (r *attendanceRepo) CountByEvent(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AttendanceRecord{}).
		Where("event_id = ?", eventID).
		Count(&n).Error
	return n, err
}

// CountPresent 已签到的在册人员数（去重，停用人员不计入）
func (r *attendanceRepo) CountPresent(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("attendance_records AS ar").
		Joins("JOIN people p ON p.person_id = ar.person_id").
		Where("ar.event_id = ? AND p.is_active = ?", eventID, true).
		Distinct("ar.person_id").
		Count(&n).Error
	return n, err
}

// ListByEvent 按签到时间倒序，附带人员信息
func (r *attendanceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Person").
		Where("event_id = ?", eventID).
		Order("check_in_time DESC").
		Find(&records).Error
	return records, err
}

// ListRecentByPerson 人员最近的签到记录，附带活动信息
func (r *attendanceRepo) ListRecentByPerson(ctx context.Context, personID string, limit int) ([]model.AttendanceRecord, error) {
	var records []model.AttendanceRecord
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("person_id = ?", personID).
		Order("check_in_time DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
