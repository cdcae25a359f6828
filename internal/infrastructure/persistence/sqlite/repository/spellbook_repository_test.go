package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"grimoire/internal/infrastructure/persistence/sqlite/model"
	"grimoire/internal/ports"
)

func setupSpellbookRepository(t *testing.T) *SpellbookRepository {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "grimoire.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	if err := db.AutoMigrate(
		&model.Spell{},
		&model.RepositoryConfig{},
		&model.User{},
		&model.SpellApplication{},
		&model.WebhookExecutionLog{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSpellbookRepository(db)
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func TestSpellRoundTrip(t *testing.T) {
	repo := setupSpellbookRepository(t)
	ctx := context.Background()
	now := nowString()

	created, err := repo.CreateSpell(ctx, ports.Spell{
		Title:           "Fix TypeError",
		Description:     "null access",
		ErrorType:       "TypeError",
		ErrorPattern:    ".*",
		SolutionCode:    "check for nil",
		Tags:            "typeerror,auto-generated",
		AutoGenerated:   true,
		ConfidenceScore: 20,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		t.Fatalf("create spell: %v", err)
	}
	if created.SpellID == 0 {
		t.Fatalf("create spell: id not assigned")
	}

	got, err := repo.GetSpell(ctx, created.SpellID)
	if err != nil {
		t.Fatalf("get spell: %v", err)
	}
	if got.Title != "Fix TypeError" || !got.AutoGenerated || got.ConfidenceScore != 20 {
		t.Fatalf("get spell = %+v", got)
	}

	got.Title = "Fix TypeError properly"
	got.HumanReviewed = true
	updated, err := repo.UpdateSpell(ctx, got)
	if err != nil {
		t.Fatalf("update spell: %v", err)
	}
	if updated.Title != "Fix TypeError properly" || !updated.HumanReviewed {
		t.Fatalf("update spell = %+v", updated)
	}

	if err := repo.DeleteSpell(ctx, created.SpellID); err != nil {
		t.Fatalf("delete spell: %v", err)
	}
	if _, err := repo.GetSpell(ctx, created.SpellID); !errors.Is(err, ports.ErrSpellNotFound) {
		t.Fatalf("get deleted spell error = %v, want ErrSpellNotFound", err)
	}
}

func TestGetSpellNotFound(t *testing.T) {
	repo := setupSpellbookRepository(t)

	if _, err := repo.GetSpell(context.Background(), 999); !errors.Is(err, ports.ErrSpellNotFound) {
		t.Fatalf("error = %v, want ErrSpellNotFound", err)
	}
}

func TestListSpellCandidatesFiltersByTypeAndRepo(t *testing.T) {
	repo := setupSpellbookRepository(t)
	ctx := context.Background()
	now := nowString()

	cfg, err := repo.CreateRepositoryConfig(ctx, ports.RepositoryConfig{
		RepoName:   "acme/api",
		WebhookURL: "https://example.invalid/hook",
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("create repo config: %v", err)
	}

	mustCreateSpell := func(errorType string, repoID *uint64) ports.Spell {
		spell, err := repo.CreateSpell(ctx, ports.Spell{
			Title:        "t",
			Description:  "d",
			ErrorType:    errorType,
			ErrorPattern: ".*",
			SolutionCode: "s",
			Tags:         "x",
			RepositoryID: repoID,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			t.Fatalf("create spell: %v", err)
		}
		return spell
	}

	inRepo := mustCreateSpell("TypeError", &cfg.RepositoryConfigID)
	global := mustCreateSpell("typeerror", nil)
	suffixed := mustCreateSpell("TypeError: attribute missing", nil)
	mustCreateSpell("ValueError", nil)

	// Case-insensitive containment: detail suffixes still match the type.
	candidates, err := repo.ListSpellCandidates(ctx, "typeerror")
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(candidates) != 3 {
		t.Fatalf("list candidates = %d rows, want 3", len(candidates))
	}
	if candidates[0].SpellID != inRepo.SpellID ||
		candidates[1].SpellID != global.SpellID ||
		candidates[2].SpellID != suffixed.SpellID {
		t.Fatalf("candidates out of order: %v %v %v",
			candidates[0].SpellID, candidates[1].SpellID, candidates[2].SpellID)
	}

	scoped, err := repo.ListSpellCandidatesInRepo(ctx, "TypeError", "acme/api")
	if err != nil {
		t.Fatalf("list candidates in repo: %v", err)
	}
	if len(scoped) != 1 || scoped[0].SpellID != inRepo.SpellID {
		t.Fatalf("scoped candidates = %+v", scoped)
	}
}

func TestRepositoryConfigUniqueName(t *testing.T) {
	repo := setupSpellbookRepository(t)
	ctx := context.Background()
	now := nowString()

	base := ports.RepositoryConfig{
		RepoName:   "acme/api",
		WebhookURL: "https://example.invalid/hook",
		Enabled:    true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := repo.CreateRepositoryConfig(ctx, base); err != nil {
		t.Fatalf("create repo config: %v", err)
	}

	_, err := repo.CreateRepositoryConfig(ctx, base)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("duplicate repo config error = %v, want gorm.ErrDuplicatedKey", err)
	}
}

func TestExecutionLogFilterAndOrder(t *testing.T) {
	repo := setupSpellbookRepository(t)
	ctx := context.Background()
	now := nowString()

	prNumber := 7
	for _, repoName := range []string{"acme/api", "acme/web", "acme/api"} {
		if _, err := repo.CreateExecutionLog(ctx, ports.ExecutionLog{
			RepoName:            repoName,
			PRNumber:            &prNumber,
			EventType:           "pull_request",
			Action:              "opened",
			Status:              "success",
			MatchedSpellIDsJSON: "[1,2]",
			ExecutedAt:          now,
		}); err != nil {
			t.Fatalf("create execution log: %v", err)
		}
	}

	logs, err := repo.ListExecutionLogs(ctx, ports.ExecutionLogFilter{RepoName: "acme/api"})
	if err != nil {
		t.Fatalf("list execution logs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("list execution logs = %d rows, want 2", len(logs))
	}
	if logs[0].ExecutionLogID < logs[1].ExecutionLogID {
		t.Fatalf("execution logs not newest-first: %v %v", logs[0].ExecutionLogID, logs[1].ExecutionLogID)
	}

	limited, err := repo.ListExecutionLogs(ctx, ports.ExecutionLogFilter{Limit: 1})
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("list limited = %d rows, want 1", len(limited))
	}
}

func TestSpellApplicationsNewestFirst(t *testing.T) {
	repo := setupSpellbookRepository(t)
	ctx := context.Background()
	now := nowString()

	spell, err := repo.CreateSpell(ctx, ports.Spell{
		Title: "t", Description: "d", ErrorType: "E", ErrorPattern: ".*",
		SolutionCode: "s", Tags: "x", CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("create spell: %v", err)
	}

	for _, sha := range []string{"aaa", "bbb"} {
		if _, err := repo.CreateSpellApplication(ctx, ports.SpellApplication{
			SpellID:          spell.SpellID,
			Repository:       "acme/api",
			CommitSHA:        sha,
			Patch:            "diff --git a/x b/x",
			FilesTouchedJSON: `["x"]`,
			Rationale:        "r",
			CreatedAt:        now,
		}); err != nil {
			t.Fatalf("create application: %v", err)
		}
	}

	apps, err := repo.ListSpellApplications(ctx, spell.SpellID, 0)
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(apps) != 2 || apps[0].CommitSHA != "bbb" {
		t.Fatalf("applications = %+v", apps)
	}
}
