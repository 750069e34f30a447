package domain

import (
	"context"
	"time"
)

// scanPostsSince walks a feed's posts newest-first and returns references to
// every post created at or after cutoff, in arrival order.
//
// Per-post time resolution: the author-supplied createdAt is tried first,
// then indexedAt. A post with neither timestamp parseable is included and
// never triggers termination.
//
// The scan stops at the first post older than cutoff: the rest of that page
// and all later pages are discarded. This relies on the feed being ordered
// by non-increasing time, which the AppView provides but does not guarantee;
// a feed that pins newer-than-cutoff posts below older ones would be
// under-collected.
func scanPostsSince(ctx context.Context, reader FeedReader, feedURI string, cutoff time.Time, pageSize int) ([]PostRef, error) {
	var posts []PostRef

	fetch := func(ctx context.Context, cursor string) ([]FeedPost, string, error) {
		return reader.ListFeedPosts(ctx, feedURI, cursor, pageSize)
	}

	err := eachPage(ctx, fetch, func(items []FeedPost) (bool, error) {
		if len(items) == 0 {
			return true, nil
		}
		for _, p := range items {
			if t, ok := resolvePostTime(p); ok && t.Before(cutoff) {
				return true, nil
			}
			posts = append(posts, PostRef{URI: p.URI, CID: p.CID})
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// resolvePostTime applies the createdAt-then-indexedAt fallback. The second
// return is false when no usable timestamp exists.
func resolvePostTime(p FeedPost) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, p.IndexedAt); err == nil {
		return t, true
	}
	return time.Time{}, false
}
