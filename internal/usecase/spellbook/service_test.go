package spellbook

import (
	"context"
	"sort"
	"strings"
	"testing"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/ports"
)

type stubRepo struct {
	spells      map[uint64]ports.Spell
	nextSpellID uint64

	repoConfigs map[uint64]ports.RepositoryConfig
	nextRepoID  uint64

	users      map[uint64]ports.User
	nextUserID uint64

	applications []ports.SpellApplication
	logs         []ports.ExecutionLog

	candidatesErr  error
	createSpellErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		spells:      make(map[uint64]ports.Spell),
		repoConfigs: make(map[uint64]ports.RepositoryConfig),
		users:       make(map[uint64]ports.User),
	}
}

func (r *stubRepo) CreateSpell(_ context.Context, spell ports.Spell) (ports.Spell, error) {
	if r.createSpellErr != nil {
		return ports.Spell{}, r.createSpellErr
	}
	r.nextSpellID++
	spell.SpellID = r.nextSpellID
	r.spells[spell.SpellID] = spell
	return spell, nil
}

func (r *stubRepo) GetSpell(_ context.Context, spellID uint64) (ports.Spell, error) {
	spell, ok := r.spells[spellID]
	if !ok {
		return ports.Spell{}, ports.ErrSpellNotFound
	}
	return spell, nil
}

func (r *stubRepo) ListSpells(_ context.Context, offset int, limit int) ([]ports.Spell, error) {
	all := r.sortedSpells()
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *stubRepo) UpdateSpell(_ context.Context, spell ports.Spell) (ports.Spell, error) {
	if _, ok := r.spells[spell.SpellID]; !ok {
		return ports.Spell{}, ports.ErrSpellNotFound
	}
	r.spells[spell.SpellID] = spell
	return spell, nil
}

func (r *stubRepo) DeleteSpell(_ context.Context, spellID uint64) error {
	if _, ok := r.spells[spellID]; !ok {
		return ports.ErrSpellNotFound
	}
	delete(r.spells, spellID)
	return nil
}

func (r *stubRepo) ListSpellCandidates(_ context.Context, errorType string) ([]ports.Spell, error) {
	if r.candidatesErr != nil {
		return nil, r.candidatesErr
	}
	matched := make([]ports.Spell, 0)
	for _, spell := range r.sortedSpells() {
		if errorTypeMatches(spell.ErrorType, errorType) {
			matched = append(matched, spell)
		}
	}
	return matched, nil
}

func (r *stubRepo) ListSpellCandidatesInRepo(ctx context.Context, errorType string, repoName string) ([]ports.Spell, error) {
	if r.candidatesErr != nil {
		return nil, r.candidatesErr
	}
	var repoID uint64
	for _, cfg := range r.repoConfigs {
		if cfg.RepoName == repoName {
			repoID = cfg.RepositoryConfigID
		}
	}
	matched := make([]ports.Spell, 0)
	for _, spell := range r.sortedSpells() {
		if spell.RepositoryID == nil || *spell.RepositoryID != repoID {
			continue
		}
		if errorTypeMatches(spell.ErrorType, errorType) {
			matched = append(matched, spell)
		}
	}
	return matched, nil
}

// errorTypeMatches mirrors the sqlite candidate predicate: case-insensitive
// containment of the queried type in the stored one.
func errorTypeMatches(stored string, queried string) bool {
	if queried == "" {
		return true
	}
	return strings.Contains(strings.ToLower(stored), strings.ToLower(queried))
}

func (r *stubRepo) CreateRepositoryConfig(_ context.Context, cfg ports.RepositoryConfig) (ports.RepositoryConfig, error) {
	r.nextRepoID++
	cfg.RepositoryConfigID = r.nextRepoID
	r.repoConfigs[cfg.RepositoryConfigID] = cfg
	return cfg, nil
}

func (r *stubRepo) GetRepositoryConfig(_ context.Context, id uint64) (ports.RepositoryConfig, error) {
	cfg, ok := r.repoConfigs[id]
	if !ok {
		return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
	}
	return cfg, nil
}

func (r *stubRepo) GetRepositoryConfigByName(_ context.Context, repoName string) (ports.RepositoryConfig, error) {
	for _, cfg := range r.repoConfigs {
		if cfg.RepoName == repoName {
			return cfg, nil
		}
	}
	return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
}

func (r *stubRepo) ListRepositoryConfigs(_ context.Context) ([]ports.RepositoryConfig, error) {
	items := make([]ports.RepositoryConfig, 0, len(r.repoConfigs))
	for _, cfg := range r.repoConfigs {
		items = append(items, cfg)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RepositoryConfigID < items[j].RepositoryConfigID
	})
	return items, nil
}

func (r *stubRepo) UpdateRepositoryConfig(_ context.Context, cfg ports.RepositoryConfig) (ports.RepositoryConfig, error) {
	if _, ok := r.repoConfigs[cfg.RepositoryConfigID]; !ok {
		return ports.RepositoryConfig{}, ports.ErrRepositoryConfigNotFound
	}
	r.repoConfigs[cfg.RepositoryConfigID] = cfg
	return cfg, nil
}

func (r *stubRepo) DeleteRepositoryConfig(_ context.Context, id uint64) error {
	if _, ok := r.repoConfigs[id]; !ok {
		return ports.ErrRepositoryConfigNotFound
	}
	delete(r.repoConfigs, id)
	return nil
}

func (r *stubRepo) CreateUser(_ context.Context, user ports.User) (ports.User, error) {
	r.nextUserID++
	user.UserID = r.nextUserID
	r.users[user.UserID] = user
	return user, nil
}

func (r *stubRepo) GetUserByEmail(_ context.Context, email string) (ports.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return ports.User{}, ports.ErrUserNotFound
}

func (r *stubRepo) CreateSpellApplication(_ context.Context, app ports.SpellApplication) (ports.SpellApplication, error) {
	app.SpellApplicationID = uint64(len(r.applications) + 1)
	r.applications = append(r.applications, app)
	return app, nil
}

func (r *stubRepo) ListSpellApplications(_ context.Context, spellID uint64, limit int) ([]ports.SpellApplication, error) {
	matched := make([]ports.SpellApplication, 0)
	for i := len(r.applications) - 1; i >= 0; i-- {
		if r.applications[i].SpellID == spellID {
			matched = append(matched, r.applications[i])
		}
		if limit > 0 && len(matched) == limit {
			break
		}
	}
	return matched, nil
}

func (r *stubRepo) CreateExecutionLog(_ context.Context, entry ports.ExecutionLog) (ports.ExecutionLog, error) {
	entry.ExecutionLogID = uint64(len(r.logs) + 1)
	r.logs = append(r.logs, entry)
	return entry, nil
}

func (r *stubRepo) ListExecutionLogs(_ context.Context, filter ports.ExecutionLogFilter) ([]ports.ExecutionLog, error) {
	matched := make([]ports.ExecutionLog, 0)
	for i := len(r.logs) - 1; i >= 0; i-- {
		if filter.RepoName == "" || r.logs[i].RepoName == filter.RepoName {
			matched = append(matched, r.logs[i])
		}
		if filter.Limit > 0 && len(matched) == filter.Limit {
			break
		}
	}
	return matched, nil
}

func (r *stubRepo) sortedSpells() []ports.Spell {
	all := make([]ports.Spell, 0, len(r.spells))
	for _, spell := range r.spells {
		all = append(all, spell)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SpellID < all[j].SpellID })
	return all
}

type stubUnitOfWork struct{}

func (stubUnitOfWork) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type stubFetcher struct {
	diff string
	err  error
}

func (f *stubFetcher) FetchPullRequestDiff(context.Context, string, int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.diff, nil
}

type stubGenerator struct {
	content    ports.SpellContent
	contentErr error

	patch      ports.PatchPayload
	patchErr   error
	lastPrompt string
}

func (g *stubGenerator) Provider() string { return "stub" }

func (g *stubGenerator) GenerateSpellContent(context.Context, ports.SpellContentInput) (ports.SpellContent, error) {
	if g.contentErr != nil {
		return ports.SpellContent{}, g.contentErr
	}
	return g.content, nil
}

func (g *stubGenerator) GeneratePatch(_ context.Context, prompt string) (ports.PatchPayload, error) {
	g.lastPrompt = prompt
	if g.patchErr != nil {
		return ports.PatchPayload{}, g.patchErr
	}
	return g.patch, nil
}

func setupService(t *testing.T, autoCreate bool) (*Service, *stubRepo, *stubFetcher, *stubGenerator) {
	t.Helper()

	repo := newStubRepo()
	fetcher := &stubFetcher{}
	generator := &stubGenerator{}
	svc := NewService(repo, stubUnitOfWork{}, fetcher, generator, config.LLMConfig{
		Provider:         "mock",
		TimeoutSeconds:   30,
		AutoCreateSpells: autoCreate,
	})
	return svc, repo, fetcher, generator
}
