package spellbook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"grimoire/internal/bootstrap/logging"
	domainspellbook "grimoire/internal/domain/spellbook"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

// writeExecutionLog records the audit row for a processed delivery. Log
// writes never fail the pipeline; failures are logged and swallowed.
func (s *Service) writeExecutionLog(ctx context.Context, input ProcessEventInput, result ProcessEventResult, duration time.Duration) {
	entry := ports.ExecutionLog{
		RepoName:            input.Payload.Repository.FullName,
		EventType:           input.EventType,
		Action:              input.Payload.Action,
		ExecutionDurationMS: duration.Milliseconds(),
		ExecutedAt:          nowUTCString(),
	}

	var processingStatus string
	if pr := result.PRProcessing; pr != nil {
		if pr.PRNumber != 0 {
			number := pr.PRNumber
			entry.PRNumber = &number
		}
		processingStatus = pr.Status
		entry.ErrorMessage = pr.Error

		encoded, err := json.Marshal(pr)
		if err == nil {
			entry.PRProcessingJSON = string(encoded)
		}
	}

	entry.Status = string(domainspellbook.DeriveStatus(entry.ErrorMessage, processingStatus, len(result.MatchedSpellIDs)))
	entry.AutoGeneratedSpellID = result.AutoGeneratedSpellID

	matched, err := json.Marshal(result.MatchedSpellIDs)
	if err == nil {
		entry.MatchedSpellIDsJSON = string(matched)
	} else {
		entry.MatchedSpellIDsJSON = "[]"
	}

	if entry.RepoName != "" {
		if cfg, err := s.repo.GetRepositoryConfigByName(ctx, entry.RepoName); err == nil {
			entry.RepositoryConfigID = &cfg.RepositoryConfigID
		} else if !errors.Is(err, ports.ErrRepositoryConfigNotFound) {
			logging.Warn(ctx, "repository config lookup for audit log failed",
				slog.Any("err", errs.Loggable(err)))
		}
	}

	if _, err := s.repo.CreateExecutionLog(ctx, entry); err != nil {
		logging.Error(ctx, "execution log write failed", slog.Any("err", errs.Loggable(err)))
		return
	}

	logging.Info(ctx, "execution logged",
		slog.String("status", entry.Status),
		slog.Int64("duration_ms", entry.ExecutionDurationMS),
	)
}

// ListExecutionLogs exposes the audit trail, newest first.
func (s *Service) ListExecutionLogs(ctx context.Context, filter ports.ExecutionLogFilter) ([]ports.ExecutionLog, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.ListExecutionLogs(ctx, filter)
}
