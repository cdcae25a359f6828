package model

type Spell struct {
	SpellID         uint64  `gorm:"column:spell_id;primaryKey;autoIncrement"`
	Title           string  `gorm:"column:title;type:text;not null"`
	Description     string  `gorm:"column:description;type:text;not null"`
	ErrorType       string  `gorm:"column:error_type;type:text;not null;index"`
	ErrorPattern    string  `gorm:"column:error_pattern;type:text;not null"`
	SolutionCode    string  `gorm:"column:solution_code;type:text;not null"`
	Tags            string  `gorm:"column:tags;type:text;not null"`
	AutoGenerated   bool    `gorm:"column:auto_generated;not null;default:0"`
	ConfidenceScore int     `gorm:"column:confidence_score;not null;default:50"`
	HumanReviewed   bool    `gorm:"column:human_reviewed;not null;default:0"`
	RepositoryID    *uint64 `gorm:"column:repository_id;index"`
	CreatedAt       string  `gorm:"column:created_at;type:text;not null"`
	UpdatedAt       string  `gorm:"column:updated_at;type:text;not null"`
}

func (Spell) TableName() string {
	return "spells"
}
