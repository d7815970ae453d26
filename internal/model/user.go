package model

import "gorm.io/gorm"

// 工作人员角色
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

// User 工作人员账号，对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"                          json:"user_id"`
	Name         string `gorm:"type:varchar(100);not null"                    json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                    json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                    json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'operator'"  json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.UserID)
	return nil
}
