package cmd

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
	"grimoire/internal/usecase/spellbook"
)

type webhookResponse struct {
	Status               string                        `json:"status"`
	Event                string                        `json:"event"`
	Action               string                        `json:"action"`
	PRProcessing         *spellbook.PRProcessingResult `json:"pr_processing"`
	MatchedSpells        []uint64                      `json:"matched_spells"`
	AutoGeneratedSpellID *uint64                       `json:"auto_generated_spell_id,omitempty"`
}

// handleGitHubWebhook verifies the delivery signature and runs the event
// pipeline. A processed delivery always answers 200, even when diff
// fetching or matching degraded; non-200 answers mean the delivery itself
// was rejected.
func (h *httpHandler) handleGitHubWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret == "" {
		writeAPIError(w, http.StatusInternalServerError, "webhook secret not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "failed to read payload")
		return
	}

	signature := strings.TrimSpace(r.Header.Get("X-Hub-Signature-256"))
	if !domainspellbook.VerifySignature(body, signature, h.webhookSecret) {
		writeAPIError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	raw, err := extractWebhookPayload(r.Header.Get("Content-Type"), body)
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "malformed form payload")
		return
	}

	var payload spellbook.WebhookPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	deliveryID := strings.TrimSpace(r.Header.Get("X-GitHub-Delivery"))
	if deliveryID == "" {
		deliveryID = uuid.NewString()
	}
	ctx := logging.WithTelemetry(r.Context(), deliveryID, "")

	result, err := h.svc.ProcessEvent(ctx, spellbook.ProcessEventInput{
		EventType: r.Header.Get("X-GitHub-Event"),
		Payload:   payload,
	})
	if err != nil {
		logging.Error(ctx, "webhook processing failed", slog.Any("err", errs.Loggable(err)))
		writeAPIError(w, http.StatusInternalServerError, "webhook processing failed")
		return
	}

	writeAPIJSON(w, http.StatusOK, webhookResponse{
		Status:               "success",
		Event:                result.Event,
		Action:               result.Action,
		PRProcessing:         result.PRProcessing,
		MatchedSpells:        result.MatchedSpellIDs,
		AutoGeneratedSpellID: result.AutoGeneratedSpellID,
	})
}

// extractWebhookPayload unwraps form-encoded deliveries (payload=<json>)
// that GitHub sends when the hook content type is form data. JSON
// deliveries pass through untouched. The signature always covers the raw
// body, so unwrapping happens after verification.
func extractWebhookPayload(contentType string, body []byte) ([]byte, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "application/x-www-form-urlencoded" {
		return body, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errs.Wrap(err, "parse form payload")
	}
	return []byte(form.Get("payload")), nil
}
