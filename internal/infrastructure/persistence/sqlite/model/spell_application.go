package model

type SpellApplication struct {
	SpellApplicationID uint64 `gorm:"column:spell_application_id;primaryKey;autoIncrement"`
	SpellID            uint64 `gorm:"column:spell_id;not null;index"`
	Repository         string `gorm:"column:repository;type:text;not null"`
	CommitSHA          string `gorm:"column:commit_sha;type:text;not null"`
	Language           string `gorm:"column:language;type:text;not null;default:''"`
	Version            string `gorm:"column:version;type:text;not null;default:''"`
	FailingTest        string `gorm:"column:failing_test;type:text;not null;default:''"`
	StackTrace         string `gorm:"column:stack_trace;type:text;not null;default:''"`
	Patch              string `gorm:"column:patch;type:text;not null"`
	FilesTouchedJSON   string `gorm:"column:files_touched_json;type:text;not null"`
	Rationale          string `gorm:"column:rationale;type:text;not null"`
	CreatedAt          string `gorm:"column:created_at;type:text;not null"`
}

func (SpellApplication) TableName() string {
	return "spell_applications"
}
