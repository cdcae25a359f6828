package spellbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

const (
	systemUserEmail    = "system@grimoire.local"
	systemUserPassword = "!disabled!"
	fallbackConfidence = 20
)

// GenerateSpell creates a new auto-generated spell for an error nothing
// matched. Returns nil without error when auto-creation is disabled.
// Provider failures fall back to low-confidence placeholder content;
// database failures propagate.
func (s *Service) GenerateSpell(ctx context.Context, desc domainspellbook.ErrorDescription, pr PRProcessingResult) (*uint64, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if !s.autoCreateSpells {
		return nil, nil
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.spellbook.generate"),
		slog.String("error_type", desc.ErrorType),
	)

	content := s.generateContent(logCtx, desc, pr)

	now := nowUTCString()
	spell := ports.Spell{
		Title:           content.Title,
		Description:     content.Description,
		ErrorType:       desc.ErrorType,
		ErrorPattern:    domainspellbook.GeneralizeErrorPattern(desc.Message),
		SolutionCode:    content.SolutionCode,
		Tags:            domainspellbook.DeriveTags(desc.ErrorType, pr.FilesChanged),
		AutoGenerated:   true,
		ConfidenceScore: content.ConfidenceScore,
		HumanReviewed:   false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if spell.ErrorType == "" {
		spell.ErrorType = "Unknown"
	}

	var spellID uint64
	err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		repoConfig, err := s.resolveRepositoryConfig(txCtx, pr.Repo)
		if err != nil {
			return err
		}
		if repoConfig != nil {
			spell.RepositoryID = &repoConfig.RepositoryConfigID
		}

		created, err := s.repo.CreateSpell(txCtx, spell)
		if err != nil {
			return errs.Wrap(err, "create spell")
		}
		spellID = created.SpellID
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Info(logCtx, "spell auto-generated",
		slog.Uint64("spell_id", spellID),
		slog.Int("confidence", spell.ConfidenceScore),
	)
	return &spellID, nil
}

// generateContent asks the provider for spell content and falls back to
// placeholder content on any failure.
func (s *Service) generateContent(ctx context.Context, desc domainspellbook.ErrorDescription, pr PRProcessingResult) ports.SpellContent {
	providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	content, err := s.generator.GenerateSpellContent(providerCtx, ports.SpellContentInput{
		ErrorType:    desc.ErrorType,
		Message:      desc.Message,
		Context:      desc.Context,
		StackTrace:   desc.StackTrace,
		Repo:         pr.Repo,
		PRNumber:     pr.PRNumber,
		FilesChanged: pr.FilesChanged,
	})
	if err != nil {
		logging.Warn(ctx, "provider content generation failed, using fallback",
			slog.Any("err", errs.Loggable(err)))

		errorType := desc.ErrorType
		if errorType == "" {
			errorType = "Unknown"
		}
		return ports.SpellContent{
			Title:           fmt.Sprintf("Fix %s", errorType),
			Description:     fmt.Sprintf("Error: %s\n\nThis spell was auto-generated without provider assistance. Please review and update with proper solution.", desc.Message),
			SolutionCode:    "# TODO: Add solution code",
			ConfidenceScore: fallbackConfidence,
		}
	}
	return content
}

// resolveRepositoryConfig finds or creates the config row for a repo so
// the generated spell can be scoped to it. A blank repo name leaves the
// spell global. Auto-created configs are owned by the system account and
// disabled until someone reviews them.
func (s *Service) resolveRepositoryConfig(ctx context.Context, repoName string) (*ports.RepositoryConfig, error) {
	if repoName == "" {
		return nil, nil
	}

	existing, err := s.repo.GetRepositoryConfigByName(ctx, repoName)
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, ports.ErrRepositoryConfigNotFound) {
		return nil, errs.Wrap(err, "lookup repository config")
	}

	user, err := s.resolveSystemUser(ctx)
	if err != nil {
		return nil, err
	}

	now := nowUTCString()
	created, err := s.repo.CreateRepositoryConfig(ctx, ports.RepositoryConfig{
		RepoName:   repoName,
		WebhookURL: fmt.Sprintf("https://grimoire.invalid/hooks/%s", repoName),
		Enabled:    false,
		UserID:     &user.UserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		// A concurrent delivery may have created it between lookup and
		// insert; surface the race to the caller.
		return nil, errs.Wrap(err, "create repository config")
	}
	return &created, nil
}

func (s *Service) resolveSystemUser(ctx context.Context) (ports.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, systemUserEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ports.ErrUserNotFound) {
		return ports.User{}, errs.Wrap(err, "lookup system user")
	}

	now := nowUTCString()
	created, err := s.repo.CreateUser(ctx, ports.User{
		Email:          systemUserEmail,
		HashedPassword: systemUserPassword,
		IsActive:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return ports.User{}, errs.Wrap(err, "create system user")
	}
	return created, nil
}
