package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"grimoire/internal/bootstrap/config"
	"grimoire/internal/bootstrap/logging"
	"grimoire/internal/errs"
	"grimoire/internal/ports"
)

// PullRequestDiffFetcher implements ports.DiffFetcher against the GitHub
// REST API. Every upstream failure is collapsed into
// ports.ErrDiffUnavailable so the webhook pipeline can degrade.
type PullRequestDiffFetcher struct {
	client *gogithub.Client
}

// NewPullRequestDiffFetcher builds a fetcher. GitHub App installation
// credentials win over a plain token; with neither, requests go out
// unauthenticated and live off the anonymous rate limit.
func NewPullRequestDiffFetcher(ctx context.Context, cfg config.GitHubConfig) (*PullRequestDiffFetcher, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var httpClient *http.Client
	switch {
	case cfg.AppID != 0 && cfg.InstallationID != 0 && cfg.PrivateKeyPath != "":
		transport, err := ghinstallation.NewKeyFromFile(
			http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath,
		)
		if err != nil {
			return nil, errs.Wrap(err, "load github app key")
		}
		httpClient = &http.Client{Transport: transport, Timeout: timeout}
	case cfg.Token != "":
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
		httpClient.Timeout = timeout
	default:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &PullRequestDiffFetcher{client: gogithub.NewClient(httpClient)}, nil
}

func newFetcherWithClient(client *gogithub.Client) *PullRequestDiffFetcher {
	return &PullRequestDiffFetcher{client: client}
}

func (f *PullRequestDiffFetcher) FetchPullRequestDiff(ctx context.Context, repoFullName string, number int) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return "", errs.Wrap(err, "check context")
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "github.diff_fetcher"),
		slog.String("repo", repoFullName),
		slog.Int("pr_number", number),
	)

	owner, name, err := splitRepoFullName(repoFullName)
	if err != nil {
		logging.Warn(logCtx, "invalid repository name", slog.Any("err", errs.Loggable(err)))
		return "", ports.ErrDiffUnavailable
	}

	diff, resp, err := f.client.PullRequests.GetRaw(ctx, owner, name, number, gogithub.RawOptions{Type: gogithub.Diff})
	if err != nil {
		var rateLimitErr *gogithub.RateLimitError
		switch {
		case errors.As(err, &rateLimitErr):
			logging.Warn(logCtx, "github rate limit exhausted",
				slog.Time("reset_at", rateLimitErr.Rate.Reset.Time))
		case resp != nil && resp.StatusCode == http.StatusNotFound:
			logging.Warn(logCtx, "pull request not found")
		default:
			logging.Warn(logCtx, "fetch pull request diff failed", slog.Any("err", errs.Loggable(err)))
		}
		return "", ports.ErrDiffUnavailable
	}

	logging.Info(logCtx, "pull request diff fetched", slog.Int("bytes", len(diff)))
	return diff, nil
}

func splitRepoFullName(fullName string) (string, string, error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository name %q is not owner/name", fullName)
	}
	return parts[0], parts[1], nil
}
