package batch

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/blackmichael/bluesky-engagement/internal/domain"
)

var (
	reactedHeader    = []string{"Feed At URI", "Feed Display Name", "Reacted user count", "Reacted users"}
	feedLikersHeader = []string{"Feed At URI", "Feed Display Name", "User like count", "Users"}
)

// Runner drives the per-feed engagement batches: one feed at a time, one
// output record per feed.
type Runner struct {
	svc    *domain.EngagementService
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(svc *domain.EngagementService, logger *slog.Logger) *Runner {
	return &Runner{svc: svc, logger: logger}
}

// RunReactedUsers processes every input feed row, collecting likers, reply
// authors and optionally reposters per feed. A remote failure aborts the
// run; records already appended stay on disk.
func (r *Runner) RunReactedUsers(ctx context.Context, rows []FeedRow, outputPath string, opts domain.Options) error {
	return r.run(ctx, rows, outputPath, reactedHeader, func(ctx context.Context, feed domain.Feed) (int, string, error) {
		report, err := r.svc.CollectReactedUsers(ctx, feed, opts)
		if err != nil {
			return 0, "", err
		}
		return report.Count(), report.UserList(), nil
	})
}

// RunFeedLikers processes every input feed row, listing the likers of each
// feed's generator record in like order.
func (r *Runner) RunFeedLikers(ctx context.Context, rows []FeedRow, outputPath string, pageSize int) error {
	return r.run(ctx, rows, outputPath, feedLikersHeader, func(ctx context.Context, feed domain.Feed) (int, string, error) {
		report, err := r.svc.CollectFeedLikers(ctx, feed, pageSize)
		if err != nil {
			return 0, "", err
		}
		return report.Count(), report.UserList(), nil
	})
}

// collectFunc produces one feed's output count and delimited user field.
type collectFunc func(ctx context.Context, feed domain.Feed) (int, string, error)

func (r *Runner) run(ctx context.Context, rows []FeedRow, outputPath string, header []string, collect collectFunc) error {
	out, err := NewWriter(outputPath, header)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, row := range rows {
		if row.URI == "" {
			continue
		}
		feed := domain.Feed{URI: row.URI, DisplayName: row.DisplayName}
		r.logger.Info("selected feed", "name", feed.DisplayName, "uri", feed.URI)

		count, users, err := collect(ctx, feed)
		if err != nil {
			return err
		}

		record := []string{
			feed.URI,
			feed.DisplayName,
			strconv.Itoa(count),
			users,
		}
		if err := out.Append(record); err != nil {
			return err
		}
		r.logger.Info("added feed record", "name", feed.DisplayName, "users", count)
	}

	return nil
}
