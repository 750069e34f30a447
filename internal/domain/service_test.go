package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(reader FeedReader, now time.Time) *EngagementService {
	svc := NewEngagementService(reader, testLogger())
	svc.now = func() time.Time { return now }
	return svc
}

// windowFeed returns a reader whose feed holds the given posts, all created
// one hour before now, on a single page.
func windowFeed(now time.Time, uris ...string) *stubReader {
	posts := make([]FeedPost, len(uris))
	for i, uri := range uris {
		posts[i] = postAt(uri, now.Add(-time.Hour))
	}
	return &stubReader{
		listFeedPosts: func(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
			return posts, "", nil
		},
	}
}

func singlePage(items ...string) func(context.Context, string, string, string, int) ([]string, string, error) {
	return func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
		return items, "", nil
	}
}

func TestCollectReactedUsersUnionsChannels(t *testing.T) {
	now := scanBase
	reader := windowFeed(now, "post-1", "post-2")
	reader.listLikers = singlePage("did:plc:a", "did:plc:b")
	reader.getPostThread = func(ctx context.Context, postURI string, depth int) (*ThreadNode, error) {
		return replyNode("op", replyNode("did:plc:c")), nil
	}

	svc := newTestService(reader, now)
	report, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed", DisplayName: "Left News"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Count())
	assert.Equal(t, "did:plc:a;did:plc:b;did:plc:c", report.UserList())
}

func TestCollectReactedUsersOverlapIsIdempotent(t *testing.T) {
	now := scanBase
	reader := windowFeed(now, "post-1", "post-2")
	// Same actors across every channel and every post.
	reader.listLikers = singlePage("did:plc:x", "did:plc:y")
	reader.listReposters = func(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error) {
		return []string{"did:plc:x", "did:plc:y"}, "", nil
	}
	reader.getPostThread = func(ctx context.Context, postURI string, depth int) (*ThreadNode, error) {
		return replyNode("op", replyNode("did:plc:x"), replyNode("did:plc:y")), nil
	}

	opts := DefaultOptions()
	opts.IncludeReposts = true

	svc := newTestService(reader, now)
	report, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Count(), "set size equals distinct actors, not per-channel sums")
}

func TestCollectReactedUsersSkipsRepostsByDefault(t *testing.T) {
	now := scanBase
	repostCalls := 0
	reader := windowFeed(now, "post-1")
	reader.listReposters = func(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error) {
		repostCalls++
		return []string{"did:plc:reposter"}, "", nil
	}

	svc := newTestService(reader, now)
	report, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed"}, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, repostCalls)
	assert.Equal(t, 0, report.Count())
}

func TestCollectReactedUsersEmptyWindow(t *testing.T) {
	now := scanBase
	reader := &stubReader{
		listFeedPosts: func(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
			// Everything is older than the window.
			return []FeedPost{postAt("ancient", now.Add(-30 * 24 * time.Hour))}, "", nil
		},
	}

	svc := newTestService(reader, now)
	report, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Count())
	assert.Equal(t, "", report.UserList())
}

func TestCollectReactedUsersRemoteFailureAborts(t *testing.T) {
	now := scanBase
	boom := errors.New("expired token")
	reader := windowFeed(now, "post-1")
	reader.listLikers = func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
		return nil, "", boom
	}

	svc := newTestService(reader, now)
	report, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed"}, DefaultOptions())

	require.ErrorIs(t, err, boom)
	assert.Nil(t, report)
}

func TestCollectReactedUsersPassesTunables(t *testing.T) {
	now := scanBase
	var gotDepth, gotPostLimit, gotActorLimit int
	reader := &stubReader{
		listFeedPosts: func(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
			gotPostLimit = limit
			return []FeedPost{postAt("post-1", now.Add(-time.Hour))}, "", nil
		},
		listLikers: func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
			gotActorLimit = limit
			return nil, "", nil
		},
		getPostThread: func(ctx context.Context, postURI string, depth int) (*ThreadNode, error) {
			gotDepth = depth
			return &ThreadNode{}, nil
		},
	}

	opts := Options{LookbackDays: 3, ReplyDepth: 9, PostPageSize: 25, ActorPageSize: 73}
	svc := newTestService(reader, now)
	_, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 9, gotDepth)
	assert.Equal(t, 25, gotPostLimit)
	assert.Equal(t, 73, gotActorLimit)
}

func TestCollectFeedLikersQueriesGeneratorRecord(t *testing.T) {
	feedCalls, threadCalls := 0, 0
	var gotURI, gotCID string
	reader := &stubReader{
		getFeedGenerator: func(ctx context.Context, feedURI string) (*GeneratorView, error) {
			return &GeneratorView{URI: "at://did:plc:owner/app.bsky.feed.generator/left-news", CID: "bafyrei-gen"}, nil
		},
		listFeedPosts: func(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
			feedCalls++
			return nil, "", nil
		},
		getPostThread: func(ctx context.Context, postURI string, depth int) (*ThreadNode, error) {
			threadCalls++
			return &ThreadNode{}, nil
		},
		listLikers: func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
			gotURI, gotCID = postURI, cid
			return []string{"did:plc:liker"}, "", nil
		},
	}

	svc := NewEngagementService(reader, testLogger())
	report, err := svc.CollectFeedLikers(context.Background(), Feed{URI: "at://feed", DisplayName: "Left News"}, 100)
	require.NoError(t, err)

	// Likes attach to the generator record, not to the feed's posts.
	assert.Equal(t, "at://did:plc:owner/app.bsky.feed.generator/left-news", gotURI)
	assert.Equal(t, "bafyrei-gen", gotCID)
	assert.Zero(t, feedCalls)
	assert.Zero(t, threadCalls)
	assert.Equal(t, "did:plc:liker", report.UserList())
}

func TestCollectFeedLikersKeepsOrderAndDuplicates(t *testing.T) {
	pages := [][]string{
		{"did:plc:z", "did:plc:a"},
		{"did:plc:z", "did:plc:m"},
	}
	reader := &stubReader{
		listLikers: func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
			if cursor == "" {
				return pages[0], "next", nil
			}
			return pages[1], "", nil
		},
	}

	svc := NewEngagementService(reader, testLogger())
	report, err := svc.CollectFeedLikers(context.Background(), Feed{URI: "at://feed"}, 100)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Count(), "count is total likes, not distinct likers")
	assert.Equal(t, "did:plc:z;did:plc:a;did:plc:z;did:plc:m", report.UserList())
}

func TestCollectFeedLikersGeneratorLookupFailureAborts(t *testing.T) {
	boom := errors.New("feed not found")
	likerCalls := 0
	reader := &stubReader{
		getFeedGenerator: func(ctx context.Context, feedURI string) (*GeneratorView, error) {
			return nil, boom
		},
		listLikers: func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
			likerCalls++
			return nil, "", nil
		},
	}

	svc := NewEngagementService(reader, testLogger())
	report, err := svc.CollectFeedLikers(context.Background(), Feed{URI: "at://feed"}, 100)

	require.ErrorIs(t, err, boom)
	assert.Nil(t, report)
	assert.Zero(t, likerCalls)
}

func TestReportsAreIndependentAcrossFeeds(t *testing.T) {
	now := scanBase
	reader := windowFeed(now, "post-1")
	reader.listLikers = singlePage("did:plc:a")

	svc := newTestService(reader, now)
	first, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed-1"}, DefaultOptions())
	require.NoError(t, err)

	reader.listLikers = singlePage("did:plc:b")
	second, err := svc.CollectReactedUsers(context.Background(), Feed{URI: "at://feed-2"}, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"did:plc:a"}, first.Users)
	assert.Equal(t, []string{"did:plc:b"}, second.Users, "no state carries across feeds")
}
