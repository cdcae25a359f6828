package model

type User struct {
	UserID         uint64 `gorm:"column:user_id;primaryKey;autoIncrement"`
	Email          string `gorm:"column:email;type:text;not null;uniqueIndex"`
	HashedPassword string `gorm:"column:hashed_password;type:text;not null"`
	IsActive       bool   `gorm:"column:is_active;not null;default:1"`
	CreatedAt      string `gorm:"column:created_at;type:text;not null"`
	UpdatedAt      string `gorm:"column:updated_at;type:text;not null"`
}

func (User) TableName() string {
	return "users"
}
