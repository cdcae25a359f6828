package spellbook

import (
	"context"
	"errors"
	"testing"

	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
)

func seedSpell(t *testing.T, repo *stubRepo, description string, errorType string, repoID *uint64) uint64 {
	t.Helper()

	now := nowUTCString()
	spell, err := repo.CreateSpell(context.Background(), ports.Spell{
		Title:        "t",
		Description:  description,
		ErrorType:    errorType,
		ErrorPattern: ".*",
		SolutionCode: "s",
		RepositoryID: repoID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("seed spell: %v", err)
	}
	return spell.SpellID
}

func TestMatchSpellsRanksByScore(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)

	weak := seedSpell(t, repo, "unrelated words entirely", "PullRequestChange", nil)
	strong := seedSpell(t, repo, "pull request opened acme", "PullRequestChange", nil)

	desc := domainspellbook.ErrorDescription{
		ErrorType: "PullRequestChange",
		Message:   "Pull request opened in acme/api",
	}

	ids := svc.MatchSpells(context.Background(), desc, "")
	if len(ids) != 2 {
		t.Fatalf("MatchSpells() = %v, want 2 ids", ids)
	}
	if ids[0] != strong || ids[1] != weak {
		t.Fatalf("MatchSpells() order = %v, want [%d %d]", ids, strong, weak)
	}
}

func TestMatchSpellsPrefersRepoScopedCandidates(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)

	cfg, err := repo.CreateRepositoryConfig(context.Background(), ports.RepositoryConfig{
		RepoName: "acme/api",
	})
	if err != nil {
		t.Fatalf("seed repo config: %v", err)
	}

	seedSpell(t, repo, "pull request opened acme", "PullRequestChange", nil)
	scoped := seedSpell(t, repo, "some other description", "PullRequestChange", &cfg.RepositoryConfigID)

	desc := domainspellbook.ErrorDescription{
		ErrorType: "PullRequestChange",
		Message:   "Pull request opened in acme/api",
	}

	ids := svc.MatchSpells(context.Background(), desc, "acme/api")
	if len(ids) != 1 || ids[0] != scoped {
		t.Fatalf("MatchSpells(scoped) = %v, want [%d]", ids, scoped)
	}

	// Unknown repo falls back to the global candidate set.
	ids = svc.MatchSpells(context.Background(), desc, "other/repo")
	if len(ids) != 2 {
		t.Fatalf("MatchSpells(fallback) = %v, want 2 ids", ids)
	}
}

func TestMatchSpellsMatchesErrorTypeBySubstring(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)

	suffixed := seedSpell(t, repo, "pull request opened acme", "TypeError: attribute missing", nil)
	seedSpell(t, repo, "pull request opened acme", "ValueError", nil)

	desc := domainspellbook.ErrorDescription{
		ErrorType: "typeerror",
		Message:   "Pull request opened in acme/api",
	}

	ids := svc.MatchSpells(context.Background(), desc, "")
	if len(ids) != 1 || ids[0] != suffixed {
		t.Fatalf("MatchSpells(substring) = %v, want [%d]", ids, suffixed)
	}
}

func TestMatchSpellsDegradesOnStorageFailure(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)
	repo.candidatesErr = errors.New("disk on fire")

	desc := domainspellbook.ErrorDescription{ErrorType: "PullRequestChange", Message: "m"}
	ids := svc.MatchSpells(context.Background(), desc, "acme/api")
	if ids == nil || len(ids) != 0 {
		t.Fatalf("MatchSpells(storage failure) = %v, want empty non-nil", ids)
	}
}

func TestMatchSpellsStableTieOrder(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)

	first := seedSpell(t, repo, "identical words here", "E", nil)
	second := seedSpell(t, repo, "identical words here", "E", nil)

	desc := domainspellbook.ErrorDescription{ErrorType: "E", Message: "identical words here"}
	ids := svc.MatchSpells(context.Background(), desc, "")
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Fatalf("MatchSpells(tie) = %v, want [%d %d]", ids, first, second)
	}
}
