package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"grimoire/internal/bootstrap"
	"grimoire/internal/bootstrap/logging"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
	"grimoire/internal/usecase/spellbook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook receiver and spellbook HTTP API",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *spellbook.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = app.Config.Server.Addr
		}

		server := &http.Server{
			Addr:    addr,
			Handler: newHTTPHandler(svc, app.Config.Webhook.Secret),
		}

		logging.Info(
			ctx,
			"http server started",
			slog.String("addr", addr),
			slog.Bool("webhook_secret_configured", app.Config.Webhook.Secret != ""),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "http server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve http")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (defaults to server.addr from config)")
}

type spellbookHTTPService interface {
	ProcessEvent(ctx context.Context, input spellbook.ProcessEventInput) (spellbook.ProcessEventResult, error)
	ApplySpell(ctx context.Context, input spellbook.ApplySpellInput) (spellbook.ApplySpellResult, error)
	CreateSpell(ctx context.Context, input spellbook.CreateSpellInput) (ports.Spell, error)
	GetSpell(ctx context.Context, spellID uint64) (ports.Spell, error)
	ListSpells(ctx context.Context, offset int, limit int) ([]ports.Spell, error)
	UpdateSpell(ctx context.Context, input spellbook.UpdateSpellInput) (ports.Spell, error)
	DeleteSpell(ctx context.Context, spellID uint64) error
	CreateRepositoryConfig(ctx context.Context, input spellbook.RepositoryConfigInput) (ports.RepositoryConfig, error)
	GetRepositoryConfig(ctx context.Context, id uint64) (ports.RepositoryConfig, error)
	ListRepositoryConfigs(ctx context.Context) ([]ports.RepositoryConfig, error)
	UpdateRepositoryConfig(ctx context.Context, id uint64, input spellbook.RepositoryConfigInput) (ports.RepositoryConfig, error)
	DeleteRepositoryConfig(ctx context.Context, id uint64) error
	ListSpellApplications(ctx context.Context, spellID uint64, limit int) ([]ports.SpellApplication, error)
	ListExecutionLogs(ctx context.Context, filter ports.ExecutionLogFilter) ([]ports.ExecutionLog, error)
}

type httpHandler struct {
	svc           spellbookHTTPService
	webhookSecret string
}

func newHTTPHandler(svc spellbookHTTPService, webhookSecret string) http.Handler {
	h := &httpHandler{
		svc:           svc,
		webhookSecret: webhookSecret,
	}

	r := chi.NewRouter()
	r.Post("/webhook/github", h.handleGitHubWebhook)
	r.Route("/api", func(r chi.Router) {
		r.Route("/spells", func(r chi.Router) {
			r.Get("/", h.handleListSpells)
			r.Post("/", h.handleCreateSpell)
			r.Route("/{spellID}", func(r chi.Router) {
				r.Get("/", h.handleGetSpell)
				r.Put("/", h.handleUpdateSpell)
				r.Delete("/", h.handleDeleteSpell)
				r.Get("/applications", h.handleListSpellApplications)
				r.Post("/apply", h.handleApplySpell)
			})
		})
		r.Route("/repos", func(r chi.Router) {
			r.Get("/", h.handleListRepositoryConfigs)
			r.Post("/", h.handleCreateRepositoryConfig)
			r.Route("/{repoID}", func(r chi.Router) {
				r.Get("/", h.handleGetRepositoryConfig)
				r.Put("/", h.handleUpdateRepositoryConfig)
				r.Delete("/", h.handleDeleteRepositoryConfig)
			})
		})
		r.Get("/webhook-logs", h.handleListExecutionLogs)
	})
	return r
}

type apiErrorResponse struct {
	Error string `json:"error"`
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	writeAPIJSON(w, status, apiErrorResponse{Error: message})
}

func writeAPIJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
