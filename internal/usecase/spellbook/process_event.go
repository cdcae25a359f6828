package spellbook

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
)

const (
	processingStatusSuccess = "success"
	processingStatusError   = "error"
)

// WebhookPayload is the subset of a GitHub webhook body the pipeline needs.
type WebhookPayload struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	PullRequest struct {
		Number int `json:"number"`
	} `json:"pull_request"`
}

type ProcessEventInput struct {
	EventType string
	Payload   WebhookPayload
}

// PRProcessingResult is the diff-processing outcome embedded in the
// webhook response and the audit log.
type PRProcessingResult struct {
	Repo         string   `json:"repo"`
	PRNumber     int      `json:"pr_number"`
	FilesChanged []string `json:"files_changed,omitempty"`
	Status       string   `json:"status"`
	Error        string   `json:"error,omitempty"`
}

type ProcessEventResult struct {
	Event                string
	Action               string
	PRProcessing         *PRProcessingResult
	MatchedSpellIDs      []uint64
	AutoGeneratedSpellID *uint64
}

// ProcessEvent runs the webhook pipeline: diff processing for change
// events, matching, generation fallback, and the audit log write. Every
// stage degrades instead of failing the delivery; the returned error only
// covers context problems.
func (s *Service) ProcessEvent(ctx context.Context, input ProcessEventInput) (ProcessEventResult, error) {
	if ctx == nil {
		return ProcessEventResult{}, errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return ProcessEventResult{}, errs.Wrap(err, "check context")
	}

	start := time.Now()
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.spellbook"),
		slog.String("event", input.EventType),
		slog.String("action", input.Payload.Action),
	)

	result := ProcessEventResult{
		Event:           input.EventType,
		Action:          input.Payload.Action,
		MatchedSpellIDs: []uint64{},
	}

	if input.EventType == "pull_request" {
		pr := s.processPullRequest(logCtx, input.Payload)
		result.PRProcessing = &pr

		if pr.Status == processingStatusSuccess {
			desc := buildErrorDescription(input.Payload.Action, pr)
			result.MatchedSpellIDs = s.MatchSpells(logCtx, desc, pr.Repo)

			if len(result.MatchedSpellIDs) == 0 {
				spellID, err := s.GenerateSpell(logCtx, desc, pr)
				if err != nil {
					logging.Error(logCtx, "spell auto-generation failed", slog.Any("err", errs.Loggable(err)))
				} else if spellID != nil {
					result.AutoGeneratedSpellID = spellID
					result.MatchedSpellIDs = []uint64{*spellID}
				}
			}
		}
	} else {
		logging.Info(logCtx, "event carries no pull request changes, skipping diff processing")
	}

	s.writeExecutionLog(logCtx, input, result, time.Since(start))

	return result, nil
}

func (s *Service) processPullRequest(ctx context.Context, payload WebhookPayload) PRProcessingResult {
	pr := PRProcessingResult{
		Repo:     payload.Repository.FullName,
		PRNumber: payload.PullRequest.Number,
	}

	if pr.Repo == "" || pr.PRNumber == 0 {
		pr.Status = processingStatusError
		pr.Error = "missing repository or pull request number"
		return pr
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("repo", pr.Repo),
		slog.Int("pr_number", pr.PRNumber),
	)

	diff, err := s.fetcher.FetchPullRequestDiff(ctx, pr.Repo, pr.PRNumber)
	if err != nil {
		logging.Warn(logCtx, "diff fetch failed", slog.Any("err", errs.Loggable(err)))
		pr.Status = processingStatusError
		pr.Error = "failed to fetch pull request diff"
		return pr
	}

	pr.FilesChanged = domainspellbook.ChangedFiles(diff)
	pr.Status = processingStatusSuccess

	logging.Info(logCtx, "pull request diff processed", slog.Int("files_changed", len(pr.FilesChanged)))
	return pr
}
