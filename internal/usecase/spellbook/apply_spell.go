package spellbook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

// FailingContext describes where the spell's solution must be adapted to.
type FailingContext struct {
	Repository  string `json:"repository"`
	CommitSHA   string `json:"commit_sha"`
	Language    string `json:"language,omitempty"`
	Version     string `json:"version,omitempty"`
	FailingTest string `json:"failing_test,omitempty"`
	StackTrace  string `json:"stack_trace,omitempty"`
}

type ApplySpellInput struct {
	SpellID        uint64
	FailingContext FailingContext
	Constraints    *domainspellbook.AdaptationConstraints
}

type ApplySpellResult struct {
	ApplicationID uint64
	SpellID       uint64
	Patch         string
	FilesTouched  []string
	Rationale     string
	CreatedAt     string
}

// ApplySpell adapts a stored spell into a validated unified-diff patch for
// a concrete failing context and records the application. Failure modes:
// ports.ErrSpellNotFound, *spellbook.ValidationError, and the provider
// sentinels ErrProviderTimeout / ErrProviderNotConfigured /
// ErrProviderUpstream.
func (s *Service) ApplySpell(ctx context.Context, input ApplySpellInput) (ApplySpellResult, error) {
	if ctx == nil {
		return ApplySpellResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ApplySpellResult{}, errs.Wrap(err, "check context")
	}

	if input.FailingContext.Repository == "" {
		return ApplySpellResult{}, domainspellbook.NewValidationError("failing_context.repository is required")
	}
	if input.FailingContext.CommitSHA == "" {
		return ApplySpellResult{}, domainspellbook.NewValidationError("failing_context.commit_sha is required")
	}

	constraints := domainspellbook.DefaultConstraints()
	if input.Constraints != nil {
		constraints = *input.Constraints
		if constraints.MaxFiles <= 0 {
			constraints.MaxFiles = domainspellbook.DefaultMaxPatchFiles
		}
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.spellbook.apply"),
		slog.Uint64("spell_id", input.SpellID),
		slog.String("repository", input.FailingContext.Repository),
	)

	spell, err := s.repo.GetSpell(ctx, input.SpellID)
	if err != nil {
		return ApplySpellResult{}, err
	}

	fc := input.FailingContext
	if fc.Language == "" {
		if inferred := domainspellbook.InferLanguage(spell.SolutionCode); inferred != "" {
			fc.Language = inferred
			logging.Info(logCtx, "language inferred from solution code", slog.String("language", inferred))
		}
	}

	payload, err := s.adaptPatch(logCtx, spell, fc, constraints)
	if err != nil {
		return ApplySpellResult{}, err
	}
	if payload.Error != "" {
		return ApplySpellResult{}, domainspellbook.NewValidationError(
			fmt.Sprintf("provider failed to generate patch: %s", payload.Error))
	}

	if err := domainspellbook.ValidatePatch(payload.Patch, payload.FilesTouched, constraints); err != nil {
		logging.Warn(logCtx, "patch validation failed", slog.Any("err", errs.Loggable(err)))
		return ApplySpellResult{}, err
	}

	filesJSON, err := json.Marshal(payload.FilesTouched)
	if err != nil {
		return ApplySpellResult{}, errs.Wrap(err, "encode files touched")
	}

	application, err := s.repo.CreateSpellApplication(ctx, ports.SpellApplication{
		SpellID:          spell.SpellID,
		Repository:       fc.Repository,
		CommitSHA:        fc.CommitSHA,
		Language:         fc.Language,
		Version:          fc.Version,
		FailingTest:      fc.FailingTest,
		StackTrace:       fc.StackTrace,
		Patch:            payload.Patch,
		FilesTouchedJSON: string(filesJSON),
		Rationale:        payload.Rationale,
		CreatedAt:        nowUTCString(),
	})
	if err != nil {
		return ApplySpellResult{}, errs.Wrap(err, "record spell application")
	}

	logging.Info(logCtx, "spell applied",
		slog.Uint64("application_id", application.SpellApplicationID),
		slog.Int("files_touched", len(payload.FilesTouched)),
	)

	return ApplySpellResult{
		ApplicationID: application.SpellApplicationID,
		SpellID:       spell.SpellID,
		Patch:         payload.Patch,
		FilesTouched:  payload.FilesTouched,
		Rationale:     payload.Rationale,
		CreatedAt:     application.CreatedAt,
	}, nil
}

func (s *Service) adaptPatch(ctx context.Context, spell ports.Spell, fc FailingContext, constraints domainspellbook.AdaptationConstraints) (ports.PatchPayload, error) {
	providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout)
	defer cancel()

	payload, err := s.generator.GeneratePatch(providerCtx, buildPatchPrompt(spell, fc, constraints))
	if err != nil {
		switch {
		case errors.Is(err, domainspellbook.ErrProviderTimeout),
			errors.Is(err, domainspellbook.ErrProviderNotConfigured),
			errors.Is(err, domainspellbook.ErrProviderUpstream):
			return ports.PatchPayload{}, err
		case errors.Is(err, context.DeadlineExceeded):
			return ports.PatchPayload{}, fmt.Errorf("%w: %v", domainspellbook.ErrProviderTimeout, err)
		default:
			return ports.PatchPayload{}, fmt.Errorf("%w: %v", domainspellbook.ErrProviderUpstream, err)
		}
	}
	return payload, nil
}
