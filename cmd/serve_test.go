package cmd

import (
	"context"

	"grimoire/internal/ports"
	"grimoire/internal/usecase/spellbook"
)

type stubSpellbookService struct {
	processResult spellbook.ProcessEventResult
	processErr    error
	lastProcess   spellbook.ProcessEventInput

	applyResult spellbook.ApplySpellResult
	applyErr    error
	lastApply   spellbook.ApplySpellInput

	spell    ports.Spell
	spellErr error

	repoConfig    ports.RepositoryConfig
	repoConfigErr error

	logs       []ports.ExecutionLog
	logsErr    error
	lastFilter ports.ExecutionLogFilter

	deleted []uint64
}

func (s *stubSpellbookService) ProcessEvent(_ context.Context, input spellbook.ProcessEventInput) (spellbook.ProcessEventResult, error) {
	s.lastProcess = input
	return s.processResult, s.processErr
}

func (s *stubSpellbookService) ApplySpell(_ context.Context, input spellbook.ApplySpellInput) (spellbook.ApplySpellResult, error) {
	s.lastApply = input
	return s.applyResult, s.applyErr
}

func (s *stubSpellbookService) CreateSpell(_ context.Context, _ spellbook.CreateSpellInput) (ports.Spell, error) {
	return s.spell, s.spellErr
}

func (s *stubSpellbookService) GetSpell(_ context.Context, _ uint64) (ports.Spell, error) {
	return s.spell, s.spellErr
}

func (s *stubSpellbookService) ListSpells(_ context.Context, _ int, _ int) ([]ports.Spell, error) {
	if s.spellErr != nil {
		return nil, s.spellErr
	}
	return []ports.Spell{s.spell}, nil
}

func (s *stubSpellbookService) UpdateSpell(_ context.Context, _ spellbook.UpdateSpellInput) (ports.Spell, error) {
	return s.spell, s.spellErr
}

func (s *stubSpellbookService) DeleteSpell(_ context.Context, spellID uint64) error {
	s.deleted = append(s.deleted, spellID)
	return s.spellErr
}

func (s *stubSpellbookService) CreateRepositoryConfig(_ context.Context, _ spellbook.RepositoryConfigInput) (ports.RepositoryConfig, error) {
	return s.repoConfig, s.repoConfigErr
}

func (s *stubSpellbookService) GetRepositoryConfig(_ context.Context, _ uint64) (ports.RepositoryConfig, error) {
	return s.repoConfig, s.repoConfigErr
}

func (s *stubSpellbookService) ListRepositoryConfigs(_ context.Context) ([]ports.RepositoryConfig, error) {
	if s.repoConfigErr != nil {
		return nil, s.repoConfigErr
	}
	return []ports.RepositoryConfig{s.repoConfig}, nil
}

func (s *stubSpellbookService) UpdateRepositoryConfig(_ context.Context, _ uint64, _ spellbook.RepositoryConfigInput) (ports.RepositoryConfig, error) {
	return s.repoConfig, s.repoConfigErr
}

func (s *stubSpellbookService) DeleteRepositoryConfig(_ context.Context, id uint64) error {
	s.deleted = append(s.deleted, id)
	return s.repoConfigErr
}

func (s *stubSpellbookService) ListSpellApplications(_ context.Context, _ uint64, _ int) ([]ports.SpellApplication, error) {
	return nil, s.spellErr
}

func (s *stubSpellbookService) ListExecutionLogs(_ context.Context, filter ports.ExecutionLogFilter) ([]ports.ExecutionLog, error) {
	s.lastFilter = filter
	return s.logs, s.logsErr
}
