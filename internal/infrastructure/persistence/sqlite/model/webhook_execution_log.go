package model

type WebhookExecutionLog struct {
	WebhookExecutionLogID uint64  `gorm:"column:webhook_execution_log_id;primaryKey;autoIncrement"`
	RepositoryConfigID    *uint64 `gorm:"column:repository_config_id;index"`
	RepoName              string  `gorm:"column:repo_name;type:text;not null;index"`
	PRNumber              *int    `gorm:"column:pr_number"`
	EventType             string  `gorm:"column:event_type;type:text;not null"`
	Action                string  `gorm:"column:action;type:text;not null;default:''"`
	Status                string  `gorm:"column:status;type:text;not null;index"`
	MatchedSpellIDsJSON   string  `gorm:"column:matched_spell_ids_json;type:text;not null;default:'[]'"`
	AutoGeneratedSpellID  *uint64 `gorm:"column:auto_generated_spell_id"`
	ErrorMessage          string  `gorm:"column:error_message;type:text;not null;default:''"`
	PRProcessingJSON      string  `gorm:"column:pr_processing_json;type:text;not null;default:''"`
	ExecutionDurationMS   int64   `gorm:"column:execution_duration_ms;not null;default:0"`
	ExecutedAt            string  `gorm:"column:executed_at;type:text;not null;index"`
}

func (WebhookExecutionLog) TableName() string {
	return "webhook_execution_logs"
}
