package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mariamwidari-blip/kunyit-attendee/internal/model"
)

// PersonRepository 人员数据访问接口
type PersonRepository interface {
	Create(ctx context.Context, person *model.Person) error
	BatchCreate(ctx context.Context, people []*model.Person) error
	GetByID(ctx context.Context, id string) (*model.Person, error)
	GetActiveByID(ctx context.Context, id string) (*model.Person, error)
	GetActiveByQRCode(ctx context.Context, code string) (*model.Person, error)
	ListActive(ctx context.Context, keyword string) ([]model.Person, error)
	ListAbsent(ctx context.Context, eventID string) ([]model.Person, error)
	CountActive(ctx context.Context) (int64, error)
	Update(ctx context.Context, person *model.Person) error
	Deactivate(ctx context.Context, id string) error
}

type personRepo struct {
	db *gorm.DB
}

// NewPersonRepo 创建 PersonRepository 实例
func NewPersonRepo(db *gorm.DB) PersonRepository {
	return &personRepo{db: db}
}

func (r *personRepo) Create(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).Create(person).Error
}

// BatchCreate 单条 INSERT 写入全部行，任一行被拒绝则整批失败
func (r *personRepo) BatchCreate(ctx context.Context, people []*model.Person) error {
	if len(people) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&people).Error
}

func (r *personRepo) GetByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Where("person_id = ?", id).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) GetActiveByID(ctx context.Context, id string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Where("person_id = ? AND is_active = ?", id, true).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *personRepo) GetActiveByQRCode(ctx context.Context, code string) (*model.Person, error) {
	var person model.Person
	err := r.db.WithContext(ctx).
		Where("qr_code = ? AND is_active = ?", code, true).
		First(&person).Error
	if err != nil {
		return nil, err
	}
	return &person, nil
}

// ListActive 按姓名排序；keyword 对姓名/邮箱/部门做不区分大小写的模糊匹配
func (r *personRepo) ListActive(ctx context.Context, keyword string) ([]model.Person, error) {
	var people []model.Person
	db := r.db.WithContext(ctx).Where("is_active = ?", true)

	if kw := strings.TrimSpace(keyword); kw != "" {
		like := "%" + strings.ToLower(kw) + "%"
		db = db.Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(email, '')) LIKE ? OR LOWER(COALESCE(department, '')) LIKE ?",
			like, like, like,
		)
	}

	err := db.Order("name ASC").Find(&people).Error
	return people, err
}

// ListAbsent 活动中尚未签到的在册人员
func (r *personRepo) ListAbsent(ctx context.Context, eventID string) ([]model.Person, error) {
	var people []model.Person
	sub := r.db.Model(&model.AttendanceRecord{}).
		Select("person_id").
		Where("event_id = ?", eventID)

	err := r.db.WithContext(ctx).
		Where("is_active = ? AND person_id NOT IN (?)", true, sub).
		Order("name ASC").
		Find(&people).Error
	return people, err
}

func (r *personRepo) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Person{}).
		Where("is_active = ?", true).
		Count(&n).Error
	return n, err
}

// Update 仅更新可编辑字段，qr_code 与 is_active 不受影响
func (r *personRepo) Update(ctx context.Context, person *model.Person) error {
	return r.db.WithContext(ctx).
		Model(&model.Person{}).
		Where("person_id = ?", person.PersonID).
		Updates(map[string]interface{}{
			"name":       person.Name,
			"email":      person.Email,
			"phone":      person.Phone,
			"department": person.Department,
			"notes":      person.Notes,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

// Deactivate 软删除：is_active=false，签到历史保留
func (r *personRepo) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Person{}).
		Where("person_id = ?", id).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}
