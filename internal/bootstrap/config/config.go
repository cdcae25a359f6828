package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"grimoire/internal/bootstrap/logging"
	"grimoire/internal/errs"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	LLM      LLMConfig      `mapstructure:"llm"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// GitHubConfig selects between token auth and GitHub App installation auth.
// When AppID/InstallationID/PrivateKeyPath are all set the App path wins.
type GitHubConfig struct {
	Token          string `mapstructure:"token"`
	AppID          int64  `mapstructure:"app_id"`
	InstallationID int64  `mapstructure:"installation_id"`
	PrivateKeyPath string `mapstructure:"private_key_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type WebhookConfig struct {
	Secret string `mapstructure:"secret"`
}

type LLMConfig struct {
	Provider         string `mapstructure:"provider"`
	Model            string `mapstructure:"model"`
	APIKey           string `mapstructure:"api_key"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	MaxTokens        int    `mapstructure:"max_tokens"`
	AutoCreateSpells bool   `mapstructure:"auto_create_spells"`
}

func Load(ctx context.Context, configFile string) (Config, error) {
	if ctx == nil {
		return Config{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return Config{}, errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.config"))

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("GRIMOIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			// Keep default and env-backed config when no file is provided.
			logging.Warn(logCtx, "config file not found, fallback to defaults and env")
		} else {
			return Config{}, errs.Wrap(err, "read config")
		}
	} else {
		logging.Info(logCtx, "using config file", slog.String("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errs.Wrap(err, "unmarshal config")
	}

	if cfg.Database.DSN == "" {
		return Config{}, errors.New("database.dsn is required")
	}
	if err := validateLLM(cfg.LLM); err != nil {
		return Config{}, err
	}

	logging.Info(
		logCtx,
		"config loaded",
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
		slog.String("database_driver", cfg.Database.Driver),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.Bool("auto_create_spells", cfg.LLM.AutoCreateSpells),
	)

	return cfg, nil
}

func validateLLM(cfg LLMConfig) error {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "openai", "anthropic", "mock":
		return nil
	default:
		return fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "grimoire")
	v.SetDefault("app.env", "local")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", ".grimoire/state/grimoire.sqlite")
	v.SetDefault("github.timeout_seconds", 30)
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "gpt-4-turbo")
	v.SetDefault("llm.timeout_seconds", 30)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.auto_create_spells", false)
}
