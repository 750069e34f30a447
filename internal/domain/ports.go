package domain

import "context"

// FeedReader defines the remote read operations the engagement service
// depends on. All listing operations are cursor-paginated: they return a page
// of results plus the next cursor, empty string when there are no more pages.
// Cursors are opaque server tokens and must be passed back unchanged.
type FeedReader interface {
	// ListFeedPosts retrieves one page of a feed's posts, newest first.
	ListFeedPosts(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error)

	// ListLikers retrieves one page of DIDs that liked the given post. The
	// cid may be empty.
	ListLikers(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error)

	// ListReposters retrieves one page of DIDs that reposted the given post.
	ListReposters(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error)

	// GetPostThread fetches the reply thread below a post. The depth bound
	// is applied server-side.
	GetPostThread(ctx context.Context, postURI string, depth int) (*ThreadNode, error)

	// GetFeedGenerator resolves a feed URI to its generator record.
	GetFeedGenerator(ctx context.Context, feedURI string) (*GeneratorView, error)
}

// ActorReader defines the remote operations the user-data batch depends on.
type ActorReader interface {
	// GetProfile fetches account details for a handle or DID.
	GetProfile(ctx context.Context, actor string) (*Profile, error)

	// ListAuthorPosts retrieves up to limit recent posts by the actor.
	ListAuthorPosts(ctx context.Context, actor string, limit int) ([]AuthorPost, error)
}
