package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"grimoire/internal/errs"
	"grimoire/internal/infrastructure/persistence/sqlite/model"
	"grimoire/internal/ports"
)

type SpellbookRepository struct {
	db *gorm.DB
}

func NewSpellbookRepository(db *gorm.DB) *SpellbookRepository {
	return &SpellbookRepository{db: db}
}

func (r *SpellbookRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *SpellbookRepository) CreateSpell(ctx context.Context, spell ports.Spell) (ports.Spell, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Spell{}, err
	}

	row := spellToRow(spell)
	row.SpellID = 0
	if err := db.Create(&row).Error; err != nil {
		return ports.Spell{}, errs.Wrap(err, "insert spell")
	}
	return spellFromRow(row), nil
}

func (r *SpellbookRepository) GetSpell(ctx context.Context, spellID uint64) (ports.Spell, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Spell{}, err
	}

	var row model.Spell
	if err := db.First(&row, "spell_id = ?", spellID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Spell{}, ports.ErrSpellNotFound
		}
		return ports.Spell{}, errs.Wrap(err, "query spell")
	}
	return spellFromRow(row), nil
}

func (r *SpellbookRepository) ListSpells(ctx context.Context, offset int, limit int) ([]ports.Spell, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Spell{}).Order("spell_id asc")
	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Spell
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query spells")
	}

	items := make([]ports.Spell, 0, len(rows))
	for _, row := range rows {
		items = append(items, spellFromRow(row))
	}
	return items, nil
}

func (r *SpellbookRepository) UpdateSpell(ctx context.Context, spell ports.Spell) (ports.Spell, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Spell{}, err
	}

	row := spellToRow(spell)
	result := db.Model(&model.Spell{}).Where("spell_id = ?", spell.SpellID).Updates(map[string]any{
		"title":            row.Title,
		"description":      row.Description,
		"error_type":       row.ErrorType,
		"error_pattern":    row.ErrorPattern,
		"solution_code":    row.SolutionCode,
		"tags":             row.Tags,
		"auto_generated":   row.AutoGenerated,
		"confidence_score": row.ConfidenceScore,
		"human_reviewed":   row.HumanReviewed,
		"repository_id":    row.RepositoryID,
		"updated_at":       row.UpdatedAt,
	})
	if result.Error != nil {
		return ports.Spell{}, errs.Wrap(result.Error, "update spell")
	}
	if result.RowsAffected == 0 {
		return ports.Spell{}, ports.ErrSpellNotFound
	}

	return r.GetSpell(ctx, spell.SpellID)
}

func (r *SpellbookRepository) DeleteSpell(ctx context.Context, spellID uint64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&model.Spell{}, "spell_id = ?", spellID)
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete spell")
	}
	if result.RowsAffected == 0 {
		return ports.ErrSpellNotFound
	}
	return nil
}

func (r *SpellbookRepository) ListSpellCandidates(ctx context.Context, errorType string) ([]ports.Spell, error) {
	return r.listCandidates(ctx, errorType, "")
}

func (r *SpellbookRepository) ListSpellCandidatesInRepo(ctx context.Context, errorType string, repoName string) ([]ports.Spell, error) {
	return r.listCandidates(ctx, errorType, repoName)
}

func (r *SpellbookRepository) listCandidates(ctx context.Context, errorType string, repoName string) ([]ports.Spell, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Spell{})
	if errorType = strings.TrimSpace(errorType); errorType != "" {
		// Stored error types may carry detail suffixes; containment keeps
		// "TypeError: attribute missing" a candidate for "typeerror".
		query = query.Where("lower(error_type) LIKE '%' || lower(?) || '%'", errorType)
	}
	if repoName = strings.TrimSpace(repoName); repoName != "" {
		sub := db.Model(&model.RepositoryConfig{}).
			Select("repository_config_id").
			Where("repo_name = ?", repoName)
		query = query.Where("repository_id IN (?)", sub)
	}

	var rows []model.Spell
	if err := query.Order("spell_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query spell candidates")
	}

	items := make([]ports.Spell, 0, len(rows))
	for _, row := range rows {
		items = append(items, spellFromRow(row))
	}
	return items, nil
}

func (r *SpellbookRepository) CreateRepositoryConfig(ctx context.Context, cfg ports.RepositoryConfig) (ports.RepositoryConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.RepositoryConfig{}, err
	}

	row := repoConfigToRow(cfg)
	row.RepositoryConfigID = 0
	if err := db.Create(&row).Error; err != nil {
		return ports.RepositoryConfig{}, errs.Wrap(err, "insert repository config")
	}
	return repoConfigFromRow(row), nil
}

func (r *SpellbookRepository) GetRepositoryConfig(ctx context.Context, id uint64) (ports.RepositoryConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.RepositoryConfig{}, err
	}

	var row model.RepositoryConfig
	if err := db.First(&row, "repository_config_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
		}
		return ports.RepositoryConfig{}, errs.Wrap(err, "query repository config")
	}
	return repoConfigFromRow(row), nil
}

func (r *SpellbookRepository) GetRepositoryConfigByName(ctx context.Context, repoName string) (ports.RepositoryConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.RepositoryConfig{}, err
	}

	var row model.RepositoryConfig
	if err := db.First(&row, "repo_name = ?", repoName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
		}
		return ports.RepositoryConfig{}, errs.Wrap(err, "query repository config by name")
	}
	return repoConfigFromRow(row), nil
}

func (r *SpellbookRepository) ListRepositoryConfigs(ctx context.Context) ([]ports.RepositoryConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.RepositoryConfig
	if err := db.Order("repository_config_id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query repository configs")
	}

	items := make([]ports.RepositoryConfig, 0, len(rows))
	for _, row := range rows {
		items = append(items, repoConfigFromRow(row))
	}
	return items, nil
}

func (r *SpellbookRepository) UpdateRepositoryConfig(ctx context.Context, cfg ports.RepositoryConfig) (ports.RepositoryConfig, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.RepositoryConfig{}, err
	}

	row := repoConfigToRow(cfg)
	result := db.Model(&model.RepositoryConfig{}).
		Where("repository_config_id = ?", cfg.RepositoryConfigID).
		Updates(map[string]any{
			"repo_name":   row.RepoName,
			"webhook_url": row.WebhookURL,
			"enabled":     row.Enabled,
			"user_id":     row.UserID,
			"updated_at":  row.UpdatedAt,
		})
	if result.Error != nil {
		return ports.RepositoryConfig{}, errs.Wrap(result.Error, "update repository config")
	}
	if result.RowsAffected == 0 {
		return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
	}

	return r.GetRepositoryConfig(ctx, cfg.RepositoryConfigID)
}

func (r *SpellbookRepository) DeleteRepositoryConfig(ctx context.Context, id uint64) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&model.RepositoryConfig{}, "repository_config_id = ?", id)
	if result.Error != nil {
		return errs.Wrap(result.Error, "delete repository config")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRepositoryConfigNotFound
	}
	return nil
}

func (r *SpellbookRepository) CreateUser(ctx context.Context, user ports.User) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	row := model.User{
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		IsActive:       user.IsActive,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.User{}, errs.Wrap(err, "insert user")
	}
	return userFromRow(row), nil
}

func (r *SpellbookRepository) GetUserByEmail(ctx context.Context, email string) (ports.User, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.User{}, err
	}

	var row model.User
	if err := db.First(&row, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.User{}, ports.ErrUserNotFound
		}
		return ports.User{}, errs.Wrap(err, "query user by email")
	}
	return userFromRow(row), nil
}

func (r *SpellbookRepository) CreateSpellApplication(ctx context.Context, app ports.SpellApplication) (ports.SpellApplication, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.SpellApplication{}, err
	}

	row := model.SpellApplication{
		SpellID:          app.SpellID,
		Repository:       app.Repository,
		CommitSHA:        app.CommitSHA,
		Language:         app.Language,
		Version:          app.Version,
		FailingTest:      app.FailingTest,
		StackTrace:       app.StackTrace,
		Patch:            app.Patch,
		FilesTouchedJSON: app.FilesTouchedJSON,
		Rationale:        app.Rationale,
		CreatedAt:        app.CreatedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.SpellApplication{}, errs.Wrap(err, "insert spell application")
	}
	return spellApplicationFromRow(row), nil
}

func (r *SpellbookRepository) ListSpellApplications(ctx context.Context, spellID uint64, limit int) ([]ports.SpellApplication, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.SpellApplication{}).
		Where("spell_id = ?", spellID).
		Order("spell_application_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.SpellApplication
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query spell applications")
	}

	items := make([]ports.SpellApplication, 0, len(rows))
	for _, row := range rows {
		items = append(items, spellApplicationFromRow(row))
	}
	return items, nil
}

func (r *SpellbookRepository) CreateExecutionLog(ctx context.Context, entry ports.ExecutionLog) (ports.ExecutionLog, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ExecutionLog{}, err
	}

	row := model.WebhookExecutionLog{
		RepositoryConfigID:   entry.RepositoryConfigID,
		RepoName:             entry.RepoName,
		PRNumber:             entry.PRNumber,
		EventType:            entry.EventType,
		Action:               entry.Action,
		Status:               entry.Status,
		MatchedSpellIDsJSON:  entry.MatchedSpellIDsJSON,
		AutoGeneratedSpellID: entry.AutoGeneratedSpellID,
		ErrorMessage:         entry.ErrorMessage,
		PRProcessingJSON:     entry.PRProcessingJSON,
		ExecutionDurationMS:  entry.ExecutionDurationMS,
		ExecutedAt:           entry.ExecutedAt,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.ExecutionLog{}, errs.Wrap(err, "insert execution log")
	}
	return executionLogFromRow(row), nil
}

func (r *SpellbookRepository) ListExecutionLogs(ctx context.Context, filter ports.ExecutionLogFilter) ([]ports.ExecutionLog, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.WebhookExecutionLog{}).Order("webhook_execution_log_id desc")
	if repoName := strings.TrimSpace(filter.RepoName); repoName != "" {
		query = query.Where("repo_name = ?", repoName)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.WebhookExecutionLog
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query execution logs")
	}

	items := make([]ports.ExecutionLog, 0, len(rows))
	for _, row := range rows {
		items = append(items, executionLogFromRow(row))
	}
	return items, nil
}

func spellToRow(spell ports.Spell) model.Spell {
	return model.Spell{
		SpellID:         spell.SpellID,
		Title:           spell.Title,
		Description:     spell.Description,
		ErrorType:       spell.ErrorType,
		ErrorPattern:    spell.ErrorPattern,
		SolutionCode:    spell.SolutionCode,
		Tags:            spell.Tags,
		AutoGenerated:   spell.AutoGenerated,
		ConfidenceScore: spell.ConfidenceScore,
		HumanReviewed:   spell.HumanReviewed,
		RepositoryID:    spell.RepositoryID,
		CreatedAt:       spell.CreatedAt,
		UpdatedAt:       spell.UpdatedAt,
	}
}

func spellFromRow(row model.Spell) ports.Spell {
	return ports.Spell{
		SpellID:         row.SpellID,
		Title:           row.Title,
		Description:     row.Description,
		ErrorType:       row.ErrorType,
		ErrorPattern:    row.ErrorPattern,
		SolutionCode:    row.SolutionCode,
		Tags:            row.Tags,
		AutoGenerated:   row.AutoGenerated,
		ConfidenceScore: row.ConfidenceScore,
		HumanReviewed:   row.HumanReviewed,
		RepositoryID:    row.RepositoryID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}

func repoConfigToRow(cfg ports.RepositoryConfig) model.RepositoryConfig {
	return model.RepositoryConfig{
		RepositoryConfigID: cfg.RepositoryConfigID,
		RepoName:           cfg.RepoName,
		WebhookURL:         cfg.WebhookURL,
		Enabled:            cfg.Enabled,
		UserID:             cfg.UserID,
		CreatedAt:          cfg.CreatedAt,
		UpdatedAt:          cfg.UpdatedAt,
	}
}

func repoConfigFromRow(row model.RepositoryConfig) ports.RepositoryConfig {
	return ports.RepositoryConfig{
		RepositoryConfigID: row.RepositoryConfigID,
		RepoName:           row.RepoName,
		WebhookURL:         row.WebhookURL,
		Enabled:            row.Enabled,
		UserID:             row.UserID,
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func userFromRow(row model.User) ports.User {
	return ports.User{
		UserID:         row.UserID,
		Email:          row.Email,
		HashedPassword: row.HashedPassword,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func spellApplicationFromRow(row model.SpellApplication) ports.SpellApplication {
	return ports.SpellApplication{
		SpellApplicationID: row.SpellApplicationID,
		SpellID:            row.SpellID,
		Repository:         row.Repository,
		CommitSHA:          row.CommitSHA,
		Language:           row.Language,
		Version:            row.Version,
		FailingTest:        row.FailingTest,
		StackTrace:         row.StackTrace,
		Patch:              row.Patch,
		FilesTouchedJSON:   row.FilesTouchedJSON,
		Rationale:          row.Rationale,
		CreatedAt:          row.CreatedAt,
	}
}

func executionLogFromRow(row model.WebhookExecutionLog) ports.ExecutionLog {
	return ports.ExecutionLog{
		ExecutionLogID:       row.WebhookExecutionLogID,
		RepositoryConfigID:   row.RepositoryConfigID,
		RepoName:             row.RepoName,
		PRNumber:             row.PRNumber,
		EventType:            row.EventType,
		Action:               row.Action,
		Status:               row.Status,
		MatchedSpellIDsJSON:  row.MatchedSpellIDsJSON,
		AutoGeneratedSpellID: row.AutoGeneratedSpellID,
		ErrorMessage:         row.ErrorMessage,
		PRProcessingJSON:     row.PRProcessingJSON,
		ExecutionDurationMS:  row.ExecutionDurationMS,
		ExecutedAt:           row.ExecutedAt,
	}
}
