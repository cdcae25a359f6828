package model

type RepositoryConfig struct {
	RepositoryConfigID uint64  `gorm:"column:repository_config_id;primaryKey;autoIncrement"`
	RepoName           string  `gorm:"column:repo_name;type:text;not null;uniqueIndex"`
	WebhookURL         string  `gorm:"column:webhook_url;type:text;not null"`
	Enabled            bool    `gorm:"column:enabled;not null;default:1"`
	UserID             *uint64 `gorm:"column:user_id;index"`
	CreatedAt          string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt          string  `gorm:"column:updated_at;type:text;not null"`
}

func (RepositoryConfig) TableName() string {
	return "repository_configs"
}
