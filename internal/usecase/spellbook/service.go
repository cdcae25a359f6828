package spellbook

import (
	"time"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/ports"
)

type Service struct {
	repo      ports.SpellbookRepository
	uow       ports.UnitOfWork
	fetcher   ports.DiffFetcher
	generator ports.ContentGenerator

	autoCreateSpells bool
	providerTimeout  time.Duration
}

// NewService wires the spellbook usecases with persistence, the diff
// fetcher, and the content provider.
func NewService(
	repo ports.SpellbookRepository,
	uow ports.UnitOfWork,
	fetcher ports.DiffFetcher,
	generator ports.ContentGenerator,
	llmCfg config.LLMConfig,
) *Service {
	timeout := time.Duration(llmCfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Service{
		repo:             repo,
		uow:              uow,
		fetcher:          fetcher,
		generator:        generator,
		autoCreateSpells: llmCfg.AutoCreateSpells,
		providerTimeout:  timeout,
	}
}

func nowUTCString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
