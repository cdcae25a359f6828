package spellbook

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainspellbook "grimoire/internal/domain/spellbook"
)

func TestGenerateSpellDisabled(t *testing.T) {
	svc, repo, _, _ := setupService(t, false)

	id, err := svc.GenerateSpell(context.Background(), domainspellbook.ErrorDescription{ErrorType: "E"}, PRProcessingResult{})
	if err != nil {
		t.Fatalf("GenerateSpell() error = %v", err)
	}
	if id != nil {
		t.Fatalf("GenerateSpell() = %v, want nil", id)
	}
	if len(repo.spells) != 0 {
		t.Fatalf("spells created = %d, want 0", len(repo.spells))
	}
}

func TestGenerateSpellProviderFallback(t *testing.T) {
	svc, repo, _, generator := setupService(t, true)
	generator.contentErr = domainspellbook.ErrProviderNotConfigured

	desc := domainspellbook.ErrorDescription{
		ErrorType: "PullRequestChange",
		Message:   "Pull request opened in acme/api with 3 files",
	}
	pr := PRProcessingResult{
		Repo:         "acme/api",
		PRNumber:     42,
		FilesChanged: []string{"app/main.py", "web/index.js"},
		Status:       "success",
	}

	id, err := svc.GenerateSpell(context.Background(), desc, pr)
	if err != nil {
		t.Fatalf("GenerateSpell() error = %v", err)
	}
	if id == nil {
		t.Fatalf("GenerateSpell() = nil id")
	}

	spell := repo.spells[*id]
	if spell.Title != "Fix PullRequestChange" {
		t.Fatalf("Title = %q", spell.Title)
	}
	if spell.ConfidenceScore != fallbackConfidence {
		t.Fatalf("ConfidenceScore = %d, want %d", spell.ConfidenceScore, fallbackConfidence)
	}
	if !spell.AutoGenerated || spell.HumanReviewed {
		t.Fatalf("flags = %+v", spell)
	}
	if spell.ErrorPattern != `Pull request opened in acme/api with \d+ files` {
		t.Fatalf("ErrorPattern = %q", spell.ErrorPattern)
	}
	if spell.Tags != "auto-generated,js,pullrequestchange,py" {
		t.Fatalf("Tags = %q", spell.Tags)
	}
}

func TestGenerateSpellCreatesRepositoryConfigAndSystemUser(t *testing.T) {
	svc, repo, _, generator := setupService(t, true)
	generator.content.Title = "generated"
	generator.content.SolutionCode = "code"
	generator.content.ConfidenceScore = 60

	pr := PRProcessingResult{Repo: "acme/api", PRNumber: 7, Status: "success"}
	id, err := svc.GenerateSpell(context.Background(), domainspellbook.ErrorDescription{ErrorType: "E", Message: "m"}, pr)
	if err != nil {
		t.Fatalf("GenerateSpell() error = %v", err)
	}

	spell := repo.spells[*id]
	if spell.RepositoryID == nil {
		t.Fatalf("RepositoryID = nil, want scoped")
	}

	cfg := repo.repoConfigs[*spell.RepositoryID]
	if cfg.RepoName != "acme/api" || cfg.Enabled {
		t.Fatalf("repository config = %+v", cfg)
	}
	if cfg.UserID == nil {
		t.Fatalf("repository config user = nil")
	}

	user := repo.users[*cfg.UserID]
	if user.Email != systemUserEmail || user.IsActive {
		t.Fatalf("system user = %+v", user)
	}

	// A second generation reuses the existing config and user.
	if _, err := svc.GenerateSpell(context.Background(), domainspellbook.ErrorDescription{ErrorType: "E", Message: "m"}, pr); err != nil {
		t.Fatalf("GenerateSpell(second) error = %v", err)
	}
	if len(repo.repoConfigs) != 1 || len(repo.users) != 1 {
		t.Fatalf("configs = %d users = %d, want 1 and 1", len(repo.repoConfigs), len(repo.users))
	}
}

func TestGenerateSpellStorageFailurePropagates(t *testing.T) {
	svc, repo, _, _ := setupService(t, true)
	repo.createSpellErr = errors.New("constraint violated")

	_, err := svc.GenerateSpell(context.Background(), domainspellbook.ErrorDescription{ErrorType: "E"}, PRProcessingResult{})
	if err == nil || !strings.Contains(err.Error(), "constraint violated") {
		t.Fatalf("GenerateSpell() error = %v", err)
	}
}
