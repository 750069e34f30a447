package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// userDelimiter joins the sorted engagement set in output records.
const userDelimiter = ";"

// Options are the tunables accepted at the aggregation boundary.
type Options struct {
	// LookbackDays is the trailing window of posts to scan.
	LookbackDays int

	// ReplyDepth is the thread nesting depth requested from the server.
	ReplyDepth int

	// IncludeReposts also collects reposters. Off by default for speed.
	IncludeReposts bool

	// PostPageSize is the page size for feed listings.
	PostPageSize int

	// ActorPageSize is the page size for like and repost listings.
	ActorPageSize int
}

// DefaultOptions mirrors the defaults of the original batch tooling.
func DefaultOptions() Options {
	return Options{
		LookbackDays:  7,
		ReplyDepth:    6,
		PostPageSize:  50,
		ActorPageSize: 100,
	}
}

// EngagementReport is the result of aggregating one feed. It is final once
// returned; sets never carry over between feeds.
type EngagementReport struct {
	Feed Feed

	// Users holds the deduplicated engaging-account DIDs, sorted
	// lexicographically so output is deterministic.
	Users []string
}

// Count returns the number of distinct engaging users.
func (r *EngagementReport) Count() int {
	return len(r.Users)
}

// UserList renders the set as a single delimited field.
func (r *EngagementReport) UserList() string {
	return strings.Join(r.Users, userDelimiter)
}

// FeedLikersReport lists the likers of one feed's generator record, in the
// order the server returned them.
type FeedLikersReport struct {
	Feed Feed

	Likers []string
}

// Count returns the total number of likes on the record.
func (r *FeedLikersReport) Count() int {
	return len(r.Likers)
}

// UserList renders the likers as a single delimited field.
func (r *FeedLikersReport) UserList() string {
	return strings.Join(r.Likers, userDelimiter)
}

// EngagementService aggregates, per feed, the set of accounts that engaged
// with the feed's recent posts.
type EngagementService struct {
	reader FeedReader
	logger *slog.Logger

	// now is swappable in tests.
	now func() time.Time
}

// NewEngagementService creates an EngagementService.
func NewEngagementService(reader FeedReader, logger *slog.Logger) *EngagementService {
	return &EngagementService{
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// CollectReactedUsers scans the feed's posts inside the lookback window and
// unions likers, reply authors and, when enabled, reposters into one set.
// Any remote failure aborts the feed; there is no partial-post recovery.
func (s *EngagementService) CollectReactedUsers(ctx context.Context, feed Feed, opts Options) (*EngagementReport, error) {
	users := make(map[string]struct{})

	posts, err := s.scanWindow(ctx, feed, opts)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		if err := s.addLikers(ctx, post, opts, users); err != nil {
			return nil, err
		}
		s.logger.Info("collected likers", "post", post.URI)

		if opts.IncludeReposts {
			if err := s.addReposters(ctx, post, opts, users); err != nil {
				return nil, err
			}
			s.logger.Info("collected reposters", "post", post.URI)
		}

		if err := s.addReplyAuthors(ctx, post, opts, users); err != nil {
			return nil, err
		}
		s.logger.Info("collected reply authors", "post", post.URI)
	}

	return newReport(feed, users), nil
}

// CollectFeedLikers lists the accounts that liked the feed's generator
// record itself. The record is resolved first, then its likes are drained
// page by page. Unlike engagement sets, the result keeps the server's like
// order and any duplicates; the count is the total number of likes.
func (s *EngagementService) CollectFeedLikers(ctx context.Context, feed Feed, pageSize int) (*FeedLikersReport, error) {
	gen, err := s.reader.GetFeedGenerator(ctx, feed.URI)
	if err != nil {
		return nil, fmt.Errorf("resolve feed generator %s: %w", feed.URI, err)
	}
	s.logger.Info("resolved feed generator", "uri", gen.URI, "cid", gen.CID)

	likers, err := collectPages(ctx, func(ctx context.Context, cursor string) ([]string, string, error) {
		return s.reader.ListLikers(ctx, gen.URI, gen.CID, cursor, pageSize)
	})
	if err != nil {
		return nil, fmt.Errorf("list likers of %s: %w", gen.URI, err)
	}

	return &FeedLikersReport{Feed: feed, Likers: likers}, nil
}

func (s *EngagementService) scanWindow(ctx context.Context, feed Feed, opts Options) ([]PostRef, error) {
	// The cutoff is fixed once per feed, not re-evaluated per page.
	cutoff := s.now().UTC().Add(-time.Duration(opts.LookbackDays) * 24 * time.Hour)

	posts, err := scanPostsSince(ctx, s.reader, feed.URI, cutoff, opts.PostPageSize)
	if err != nil {
		return nil, fmt.Errorf("scan feed %s: %w", feed.URI, err)
	}
	s.logger.Info("scanned feed window", "feed", feed.URI, "posts", len(posts), "days", opts.LookbackDays)
	return posts, nil
}

func (s *EngagementService) addLikers(ctx context.Context, post PostRef, opts Options, users map[string]struct{}) error {
	likers, err := collectPages(ctx, func(ctx context.Context, cursor string) ([]string, string, error) {
		return s.reader.ListLikers(ctx, post.URI, post.CID, cursor, opts.ActorPageSize)
	})
	if err != nil {
		return fmt.Errorf("list likers of %s: %w", post.URI, err)
	}
	for _, did := range likers {
		users[did] = struct{}{}
	}
	return nil
}

func (s *EngagementService) addReposters(ctx context.Context, post PostRef, opts Options, users map[string]struct{}) error {
	reposters, err := collectPages(ctx, func(ctx context.Context, cursor string) ([]string, string, error) {
		return s.reader.ListReposters(ctx, post.URI, cursor, opts.ActorPageSize)
	})
	if err != nil {
		return fmt.Errorf("list reposters of %s: %w", post.URI, err)
	}
	for _, did := range reposters {
		users[did] = struct{}{}
	}
	return nil
}

func (s *EngagementService) addReplyAuthors(ctx context.Context, post PostRef, opts Options, users map[string]struct{}) error {
	thread, err := s.reader.GetPostThread(ctx, post.URI, opts.ReplyDepth)
	if err != nil {
		return fmt.Errorf("get thread of %s: %w", post.URI, err)
	}
	for did := range flattenReplyAuthors(thread) {
		users[did] = struct{}{}
	}
	return nil
}

func newReport(feed Feed, users map[string]struct{}) *EngagementReport {
	sorted := make([]string, 0, len(users))
	for did := range users {
		sorted = append(sorted, did)
	}
	sort.Strings(sorted)

	return &EngagementReport{Feed: feed, Users: sorted}
}
