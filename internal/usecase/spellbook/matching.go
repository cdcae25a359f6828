package spellbook

import (
	"context"
	"log/slog"
	"sort"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

// MatchSpells ranks stored spells against an error description. Spells
// bound to the event's repository are preferred; when none exist the
// search falls back to the global set. Storage failures degrade to an
// empty ranking instead of erroring.
func (s *Service) MatchSpells(ctx context.Context, desc domainspellbook.ErrorDescription, repoName string) []uint64 {
	logCtx := logging.WithAttrs(ctx, slog.String("error_type", desc.ErrorType))

	candidates, err := s.loadCandidates(ctx, desc.ErrorType, repoName)
	if err != nil {
		logging.Error(logCtx, "candidate query failed, degrading to empty match",
			slog.Any("err", errs.Loggable(err)))
		return []uint64{}
	}
	if len(candidates) == 0 {
		logging.Info(logCtx, "no candidate spells for error type")
		return []uint64{}
	}

	type scored struct {
		spellID uint64
		score   float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		score := domainspellbook.Similarity(desc, domainspellbook.Spell{
			SpellID:      candidate.SpellID,
			Description:  candidate.Description,
			ErrorPattern: candidate.ErrorPattern,
			ErrorType:    candidate.ErrorType,
		})
		ranked = append(ranked, scored{spellID: candidate.SpellID, score: score})
	}

	// Stable sort: equal scores keep ascending spell id order.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	ids := make([]uint64, 0, len(ranked))
	for _, entry := range ranked {
		ids = append(ids, entry.spellID)
	}

	logging.Info(logCtx, "spells matched",
		slog.Int("count", len(ids)),
		slog.Uint64("top_spell_id", ids[0]),
	)
	return ids
}

func (s *Service) loadCandidates(ctx context.Context, errorType string, repoName string) ([]ports.Spell, error) {
	if repoName != "" {
		scoped, err := s.repo.ListSpellCandidatesInRepo(ctx, errorType, repoName)
		if err != nil {
			return nil, err
		}
		if len(scoped) > 0 {
			return scoped, nil
		}
	}
	return s.repo.ListSpellCandidates(ctx, errorType)
}
