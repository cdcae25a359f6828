package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/bootstrap/database"
	"grimoire/internal/bootstrap/logging"
	githubinfra "grimoire/internal/infrastructure/github"
	llminfra "grimoire/internal/infrastructure/llm"
	sqliterepo "grimoire/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "grimoire/internal/infrastructure/persistence/sqlite/uow"
	"grimoire/internal/ports"
	"grimoire/internal/usecase/spellbook"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewSpellbookRepository,
			fx.As(new(ports.SpellbookRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			provideDiffFetcher,
			fx.As(new(ports.DiffFetcher)),
		),
	),
	fx.Provide(provideContentGenerator),
	fx.Provide(provideService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideDiffFetcher(ctx context.Context, cfg config.Config) (*githubinfra.PullRequestDiffFetcher, error) {
	return githubinfra.NewPullRequestDiffFetcher(ctx, cfg.GitHub)
}

func provideContentGenerator(cfg config.Config) (ports.ContentGenerator, error) {
	return llminfra.NewContentGenerator(cfg.LLM)
}

func provideService(
	repo ports.SpellbookRepository,
	uow ports.UnitOfWork,
	fetcher ports.DiffFetcher,
	generator ports.ContentGenerator,
	cfg config.Config,
) *spellbook.Service {
	return spellbook.NewService(repo, uow, fetcher, generator, cfg.LLM)
}
