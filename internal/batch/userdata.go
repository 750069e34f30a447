package batch

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/blackmichael/bluesky-engagement/internal/domain"
)

var userDataHeader = []string{
	"Feed Name",
	"Creator DID",
	"Account Name",
	"Account Description",
	"Account Handle",
	"Last Posts",
}

// UserDataRunner fetches account details and recent post texts for every
// distinct creator listed in the input CSV.
type UserDataRunner struct {
	reader domain.ActorReader
	logger *slog.Logger
}

// NewUserDataRunner creates a UserDataRunner.
func NewUserDataRunner(reader domain.ActorReader, logger *slog.Logger) *UserDataRunner {
	return &UserDataRunner{reader: reader, logger: logger}
}

// Run deduplicates creators (keeping the first feed name seen for each) and
// processes them in sorted order, appending one record per creator.
func (r *UserDataRunner) Run(ctx context.Context, rows []CreatorRow, outputPath string, postLimit int) error {
	creatorToFeed := make(map[string]string)
	for _, row := range rows {
		if row.DID == "" {
			continue
		}
		if _, seen := creatorToFeed[row.DID]; !seen {
			creatorToFeed[row.DID] = row.FeedName
		}
	}

	creators := make([]string, 0, len(creatorToFeed))
	for did := range creatorToFeed {
		creators = append(creators, did)
	}
	sort.Strings(creators)
	r.logger.Info("unique creators", "count", len(creators))

	out, err := NewWriter(outputPath, userDataHeader)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, did := range creators {
		r.logger.Info("extracting user data", "creator", did)

		profile, err := r.reader.GetProfile(ctx, did)
		if err != nil {
			return err
		}

		posts, err := r.reader.ListAuthorPosts(ctx, did, postLimit)
		if err != nil {
			return err
		}
		texts := make([]string, 0, len(posts))
		for _, p := range posts {
			texts = append(texts, p.Text)
		}

		record := []string{
			creatorToFeed[did],
			did,
			profile.DisplayName,
			profile.Description,
			profile.Handle,
			strings.Join(texts, "|"),
		}
		if err := out.Append(record); err != nil {
			return err
		}
	}

	return nil
}
