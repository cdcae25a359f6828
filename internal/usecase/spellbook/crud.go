package spellbook

import (
	"context"
	"errors"

	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

// CreateSpellInput carries caller-editable spell fields. Confidence
// defaults to 50 when the caller leaves it at zero.
type CreateSpellInput struct {
	Title           string
	Description     string
	ErrorType       string
	ErrorPattern    string
	SolutionCode    string
	Tags            string
	ConfidenceScore int
	RepositoryID    *uint64
}

func (s *Service) CreateSpell(ctx context.Context, input CreateSpellInput) (ports.Spell, error) {
	if ctx == nil {
		return ports.Spell{}, errors.New("context is required")
	}
	if err := validateSpellInput(input); err != nil {
		return ports.Spell{}, err
	}

	confidence := input.ConfidenceScore
	if confidence == 0 {
		confidence = 50
	}
	pattern := input.ErrorPattern
	if pattern == "" {
		pattern = ".*"
	}

	now := nowUTCString()
	return s.repo.CreateSpell(ctx, ports.Spell{
		Title:           input.Title,
		Description:     input.Description,
		ErrorType:       input.ErrorType,
		ErrorPattern:    pattern,
		SolutionCode:    input.SolutionCode,
		Tags:            input.Tags,
		AutoGenerated:   false,
		ConfidenceScore: confidence,
		HumanReviewed:   true,
		RepositoryID:    input.RepositoryID,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *Service) GetSpell(ctx context.Context, spellID uint64) (ports.Spell, error) {
	if ctx == nil {
		return ports.Spell{}, errors.New("context is required")
	}
	return s.repo.GetSpell(ctx, spellID)
}

func (s *Service) ListSpells(ctx context.Context, offset int, limit int) ([]ports.Spell, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListSpells(ctx, offset, limit)
}

type UpdateSpellInput struct {
	SpellID         uint64
	Title           string
	Description     string
	ErrorType       string
	ErrorPattern    string
	SolutionCode    string
	Tags            string
	ConfidenceScore int
	HumanReviewed   bool
	RepositoryID    *uint64
}

func (s *Service) UpdateSpell(ctx context.Context, input UpdateSpellInput) (ports.Spell, error) {
	if ctx == nil {
		return ports.Spell{}, errors.New("context is required")
	}

	existing, err := s.repo.GetSpell(ctx, input.SpellID)
	if err != nil {
		return ports.Spell{}, err
	}
	if err := validateSpellInput(CreateSpellInput{
		Title:        input.Title,
		Description:  input.Description,
		ErrorType:    input.ErrorType,
		SolutionCode: input.SolutionCode,
	}); err != nil {
		return ports.Spell{}, err
	}

	existing.Title = input.Title
	existing.Description = input.Description
	existing.ErrorType = input.ErrorType
	existing.ErrorPattern = input.ErrorPattern
	existing.SolutionCode = input.SolutionCode
	existing.Tags = input.Tags
	existing.ConfidenceScore = input.ConfidenceScore
	existing.HumanReviewed = input.HumanReviewed
	existing.RepositoryID = input.RepositoryID
	existing.UpdatedAt = nowUTCString()

	return s.repo.UpdateSpell(ctx, existing)
}

func (s *Service) DeleteSpell(ctx context.Context, spellID uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return s.repo.DeleteSpell(ctx, spellID)
}

func validateSpellInput(input CreateSpellInput) error {
	if input.Title == "" {
		return domainspellbook.NewValidationError("title is required")
	}
	if input.ErrorType == "" {
		return domainspellbook.NewValidationError("error_type is required")
	}
	if input.SolutionCode == "" {
		return domainspellbook.NewValidationError("solution_code is required")
	}
	return nil
}

type RepositoryConfigInput struct {
	RepoName   string
	WebhookURL string
	Enabled    bool
	UserID     *uint64
}

func (s *Service) CreateRepositoryConfig(ctx context.Context, input RepositoryConfigInput) (ports.RepositoryConfig, error) {
	if ctx == nil {
		return ports.RepositoryConfig{}, errors.New("context is required")
	}
	if input.RepoName == "" {
		return ports.RepositoryConfig{}, domainspellbook.NewValidationError("repo_name is required")
	}

	now := nowUTCString()
	return s.repo.CreateRepositoryConfig(ctx, ports.RepositoryConfig{
		RepoName:   input.RepoName,
		WebhookURL: input.WebhookURL,
		Enabled:    input.Enabled,
		UserID:     input.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (s *Service) GetRepositoryConfig(ctx context.Context, id uint64) (ports.RepositoryConfig, error) {
	if ctx == nil {
		return ports.RepositoryConfig{}, errors.New("context is required")
	}
	return s.repo.GetRepositoryConfig(ctx, id)
}

func (s *Service) ListRepositoryConfigs(ctx context.Context) ([]ports.RepositoryConfig, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	return s.repo.ListRepositoryConfigs(ctx)
}

func (s *Service) UpdateRepositoryConfig(ctx context.Context, id uint64, input RepositoryConfigInput) (ports.RepositoryConfig, error) {
	if ctx == nil {
		return ports.RepositoryConfig{}, errors.New("context is required")
	}
	if input.RepoName == "" {
		return ports.RepositoryConfig{}, domainspellbook.NewValidationError("repo_name is required")
	}

	existing, err := s.repo.GetRepositoryConfig(ctx, id)
	if err != nil {
		return ports.RepositoryConfig{}, err
	}

	existing.RepoName = input.RepoName
	existing.WebhookURL = input.WebhookURL
	existing.Enabled = input.Enabled
	existing.UserID = input.UserID
	existing.UpdatedAt = nowUTCString()

	return s.repo.UpdateRepositoryConfig(ctx, existing)
}

func (s *Service) DeleteRepositoryConfig(ctx context.Context, id uint64) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	return s.repo.DeleteRepositoryConfig(ctx, id)
}

func (s *Service) ListSpellApplications(ctx context.Context, spellID uint64, limit int) ([]ports.SpellApplication, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if _, err := s.repo.GetSpell(ctx, spellID); err != nil {
		return nil, err
	}
	return s.repo.ListSpellApplications(ctx, spellID, limit)
}
