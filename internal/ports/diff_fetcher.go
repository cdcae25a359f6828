package ports

import (
	"context"
	"errors"
)

// ErrDiffUnavailable covers every upstream failure mode: rate limiting,
// missing pull requests, auth problems, network errors. Callers degrade
// instead of branching on the cause.
var ErrDiffUnavailable = errors.New("pull request diff unavailable")

type DiffFetcher interface {
	FetchPullRequestDiff(ctx context.Context, repoFullName string, number int) (string, error)
}
