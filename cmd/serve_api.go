package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/ports"
	"grimoire/internal/usecase/spellbook"
)

type spellRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ErrorType       string  `json:"error_type"`
	ErrorPattern    string  `json:"error_pattern"`
	SolutionCode    string  `json:"solution_code"`
	Tags            string  `json:"tags"`
	ConfidenceScore int     `json:"confidence_score"`
	HumanReviewed   bool    `json:"human_reviewed"`
	RepositoryID    *uint64 `json:"repository_id"`
}

type spellResponse struct {
	ID              uint64  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	ErrorType       string  `json:"error_type"`
	ErrorPattern    string  `json:"error_pattern"`
	SolutionCode    string  `json:"solution_code"`
	Tags            string  `json:"tags"`
	AutoGenerated   bool    `json:"auto_generated"`
	ConfidenceScore int     `json:"confidence_score"`
	HumanReviewed   bool    `json:"human_reviewed"`
	RepositoryID    *uint64 `json:"repository_id"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

type repositoryConfigRequest struct {
	RepoName   string  `json:"repo_name"`
	WebhookURL string  `json:"webhook_url"`
	Enabled    bool    `json:"enabled"`
	UserID     *uint64 `json:"user_id"`
}

type repositoryConfigResponse struct {
	ID         uint64  `json:"id"`
	RepoName   string  `json:"repo_name"`
	WebhookURL string  `json:"webhook_url"`
	Enabled    bool    `json:"enabled"`
	UserID     *uint64 `json:"user_id"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

type applyRequest struct {
	FailingContext spellbook.FailingContext `json:"failing_context"`
	Constraints    *applyConstraints        `json:"adaptation_constraints"`
}

type applyConstraints struct {
	MaxFiles         int      `json:"max_files"`
	ExcludedPatterns []string `json:"excluded_patterns"`
	PreserveStyle    bool     `json:"preserve_style"`
}

type applyResponse struct {
	ApplicationID uint64   `json:"application_id"`
	SpellID       uint64   `json:"spell_id"`
	Patch         string   `json:"patch"`
	FilesTouched  []string `json:"files_touched"`
	Rationale     string   `json:"rationale"`
	CreatedAt     string   `json:"created_at"`
}

type spellApplicationResponse struct {
	ID           uint64   `json:"id"`
	SpellID      uint64   `json:"spell_id"`
	Repository   string   `json:"repository"`
	CommitSHA    string   `json:"commit_sha"`
	Language     string   `json:"language,omitempty"`
	Version      string   `json:"version,omitempty"`
	FailingTest  string   `json:"failing_test,omitempty"`
	StackTrace   string   `json:"stack_trace,omitempty"`
	Patch        string   `json:"patch"`
	FilesTouched []string `json:"files_touched"`
	Rationale    string   `json:"rationale"`
	CreatedAt    string   `json:"created_at"`
}

type executionLogResponse struct {
	ID                   uint64          `json:"id"`
	RepositoryConfigID   *uint64         `json:"repository_config_id"`
	RepoName             string          `json:"repo_name"`
	PRNumber             *int            `json:"pr_number"`
	EventType            string          `json:"event_type"`
	Action               string          `json:"action"`
	Status               string          `json:"status"`
	MatchedSpellIDs      []uint64        `json:"matched_spell_ids"`
	AutoGeneratedSpellID *uint64         `json:"auto_generated_spell_id"`
	ErrorMessage         string          `json:"error_message,omitempty"`
	PRProcessing         json.RawMessage `json:"pr_processing,omitempty"`
	ExecutionDurationMS  int64           `json:"execution_duration_ms"`
	ExecutedAt           string          `json:"executed_at"`
}

func (h *httpHandler) handleApplySpell(w http.ResponseWriter, r *http.Request) {
	spellID, err := pathID(r, "spellID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid spell id")
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	input := spellbook.ApplySpellInput{
		SpellID:        spellID,
		FailingContext: req.FailingContext,
	}
	if req.Constraints != nil {
		input.Constraints = &domainspellbook.AdaptationConstraints{
			MaxFiles:         req.Constraints.MaxFiles,
			ExcludedPatterns: req.Constraints.ExcludedPatterns,
			PreserveStyle:    req.Constraints.PreserveStyle,
		}
	}

	result, err := h.svc.ApplySpell(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeAPIJSON(w, http.StatusCreated, applyResponse{
		ApplicationID: result.ApplicationID,
		SpellID:       result.SpellID,
		Patch:         result.Patch,
		FilesTouched:  result.FilesTouched,
		Rationale:     result.Rationale,
		CreatedAt:     result.CreatedAt,
	})
}

func (h *httpHandler) handleListSpells(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)

	spells, err := h.svc.ListSpells(r.Context(), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]spellResponse, 0, len(spells))
	for _, spell := range spells {
		out = append(out, spellToResponse(spell))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *httpHandler) handleCreateSpell(w http.ResponseWriter, r *http.Request) {
	var req spellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	spell, err := h.svc.CreateSpell(r.Context(), spellbook.CreateSpellInput{
		Title:           req.Title,
		Description:     req.Description,
		ErrorType:       req.ErrorType,
		ErrorPattern:    req.ErrorPattern,
		SolutionCode:    req.SolutionCode,
		Tags:            req.Tags,
		ConfidenceScore: req.ConfidenceScore,
		RepositoryID:    req.RepositoryID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusCreated, spellToResponse(spell))
}

func (h *httpHandler) handleGetSpell(w http.ResponseWriter, r *http.Request) {
	spellID, err := pathID(r, "spellID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid spell id")
		return
	}

	spell, err := h.svc.GetSpell(r.Context(), spellID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, spellToResponse(spell))
}

func (h *httpHandler) handleUpdateSpell(w http.ResponseWriter, r *http.Request) {
	spellID, err := pathID(r, "spellID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid spell id")
		return
	}

	var req spellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	spell, err := h.svc.UpdateSpell(r.Context(), spellbook.UpdateSpellInput{
		SpellID:         spellID,
		Title:           req.Title,
		Description:     req.Description,
		ErrorType:       req.ErrorType,
		ErrorPattern:    req.ErrorPattern,
		SolutionCode:    req.SolutionCode,
		Tags:            req.Tags,
		ConfidenceScore: req.ConfidenceScore,
		HumanReviewed:   req.HumanReviewed,
		RepositoryID:    req.RepositoryID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, spellToResponse(spell))
}

func (h *httpHandler) handleDeleteSpell(w http.ResponseWriter, r *http.Request) {
	spellID, err := pathID(r, "spellID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid spell id")
		return
	}

	if err := h.svc.DeleteSpell(r.Context(), spellID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) handleListSpellApplications(w http.ResponseWriter, r *http.Request) {
	spellID, err := pathID(r, "spellID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid spell id")
		return
	}

	applications, err := h.svc.ListSpellApplications(r.Context(), spellID, queryInt(r, "limit", 0))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]spellApplicationResponse, 0, len(applications))
	for _, app := range applications {
		out = append(out, applicationToResponse(app))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *httpHandler) handleListRepositoryConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := h.svc.ListRepositoryConfigs(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]repositoryConfigResponse, 0, len(configs))
	for _, cfg := range configs {
		out = append(out, repositoryConfigToResponse(cfg))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func (h *httpHandler) handleCreateRepositoryConfig(w http.ResponseWriter, r *http.Request) {
	var req repositoryConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	cfg, err := h.svc.CreateRepositoryConfig(r.Context(), spellbook.RepositoryConfigInput{
		RepoName:   req.RepoName,
		WebhookURL: req.WebhookURL,
		Enabled:    req.Enabled,
		UserID:     req.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusCreated, repositoryConfigToResponse(cfg))
}

func (h *httpHandler) handleGetRepositoryConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "repoID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid repository config id")
		return
	}

	cfg, err := h.svc.GetRepositoryConfig(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, repositoryConfigToResponse(cfg))
}

func (h *httpHandler) handleUpdateRepositoryConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "repoID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid repository config id")
		return
	}

	var req repositoryConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	cfg, err := h.svc.UpdateRepositoryConfig(r.Context(), id, spellbook.RepositoryConfigInput{
		RepoName:   req.RepoName,
		WebhookURL: req.WebhookURL,
		Enabled:    req.Enabled,
		UserID:     req.UserID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAPIJSON(w, http.StatusOK, repositoryConfigToResponse(cfg))
}

func (h *httpHandler) handleDeleteRepositoryConfig(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "repoID")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid repository config id")
		return
	}

	if err := h.svc.DeleteRepositoryConfig(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) handleListExecutionLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ListExecutionLogs(r.Context(), ports.ExecutionLogFilter{
		RepoName: r.URL.Query().Get("repo"),
		Limit:    queryInt(r, "limit", 0),
		Offset:   queryInt(r, "offset", 0),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]executionLogResponse, 0, len(logs))
	for _, entry := range logs {
		out = append(out, executionLogToResponse(entry))
	}
	writeAPIJSON(w, http.StatusOK, out)
}

func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domainspellbook.ValidationError
	switch {
	case errors.Is(err, ports.ErrSpellNotFound),
		errors.Is(err, ports.ErrRepositoryConfigNotFound):
		writeAPIError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		writeAPIError(w, http.StatusUnprocessableEntity, validationErr.Reason)
	case errors.Is(err, domainspellbook.ErrProviderTimeout):
		writeAPIError(w, http.StatusGatewayTimeout, "patch generation timed out")
	case errors.Is(err, domainspellbook.ErrProviderNotConfigured):
		writeAPIError(w, http.StatusServiceUnavailable, "llm provider not configured")
	case errors.Is(err, domainspellbook.ErrProviderUpstream):
		writeAPIError(w, http.StatusBadGateway, "llm provider request failed")
	default:
		writeAPIError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(r *http.Request, name string) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, name), 10, 64)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func spellToResponse(spell ports.Spell) spellResponse {
	return spellResponse{
		ID:              spell.SpellID,
		Title:           spell.Title,
		Description:     spell.Description,
		ErrorType:       spell.ErrorType,
		ErrorPattern:    spell.ErrorPattern,
		SolutionCode:    spell.SolutionCode,
		Tags:            spell.Tags,
		AutoGenerated:   spell.AutoGenerated,
		ConfidenceScore: spell.ConfidenceScore,
		HumanReviewed:   spell.HumanReviewed,
		RepositoryID:    spell.RepositoryID,
		CreatedAt:       spell.CreatedAt,
		UpdatedAt:       spell.UpdatedAt,
	}
}

func repositoryConfigToResponse(cfg ports.RepositoryConfig) repositoryConfigResponse {
	return repositoryConfigResponse{
		ID:         cfg.RepositoryConfigID,
		RepoName:   cfg.RepoName,
		WebhookURL: cfg.WebhookURL,
		Enabled:    cfg.Enabled,
		UserID:     cfg.UserID,
		CreatedAt:  cfg.CreatedAt,
		UpdatedAt:  cfg.UpdatedAt,
	}
}

func applicationToResponse(app ports.SpellApplication) spellApplicationResponse {
	out := spellApplicationResponse{
		ID:           app.SpellApplicationID,
		SpellID:      app.SpellID,
		Repository:   app.Repository,
		CommitSHA:    app.CommitSHA,
		Language:     app.Language,
		Version:      app.Version,
		FailingTest:  app.FailingTest,
		StackTrace:   app.StackTrace,
		Patch:        app.Patch,
		FilesTouched: []string{},
		Rationale:    app.Rationale,
		CreatedAt:    app.CreatedAt,
	}
	if app.FilesTouchedJSON != "" {
		_ = json.Unmarshal([]byte(app.FilesTouchedJSON), &out.FilesTouched)
	}
	return out
}

func executionLogToResponse(entry ports.ExecutionLog) executionLogResponse {
	out := executionLogResponse{
		ID:                   entry.ExecutionLogID,
		RepositoryConfigID:   entry.RepositoryConfigID,
		RepoName:             entry.RepoName,
		PRNumber:             entry.PRNumber,
		EventType:            entry.EventType,
		Action:               entry.Action,
		Status:               entry.Status,
		MatchedSpellIDs:      []uint64{},
		AutoGeneratedSpellID: entry.AutoGeneratedSpellID,
		ErrorMessage:         entry.ErrorMessage,
		ExecutionDurationMS:  entry.ExecutionDurationMS,
		ExecutedAt:           entry.ExecutedAt,
	}
	if entry.MatchedSpellIDsJSON != "" {
		_ = json.Unmarshal([]byte(entry.MatchedSpellIDsJSON), &out.MatchedSpellIDs)
	}
	if entry.PRProcessingJSON != "" {
		out.PRProcessing = json.RawMessage(entry.PRProcessingJSON)
	}
	return out
}
