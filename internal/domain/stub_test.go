package domain

import "context"

// stubReader implements FeedReader with overridable function fields. Unset
// operations return empty results.
type stubReader struct {
	listFeedPosts    func(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error)
	listLikers       func(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error)
	listReposters    func(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error)
	getPostThread    func(ctx context.Context, postURI string, depth int) (*ThreadNode, error)
	getFeedGenerator func(ctx context.Context, feedURI string) (*GeneratorView, error)
}

func (s *stubReader) ListFeedPosts(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
	if s.listFeedPosts == nil {
		return nil, "", nil
	}
	return s.listFeedPosts(ctx, feedURI, cursor, limit)
}

func (s *stubReader) ListLikers(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
	if s.listLikers == nil {
		return nil, "", nil
	}
	return s.listLikers(ctx, postURI, cid, cursor, limit)
}

func (s *stubReader) ListReposters(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error) {
	if s.listReposters == nil {
		return nil, "", nil
	}
	return s.listReposters(ctx, postURI, cursor, limit)
}

func (s *stubReader) GetPostThread(ctx context.Context, postURI string, depth int) (*ThreadNode, error) {
	if s.getPostThread == nil {
		return &ThreadNode{}, nil
	}
	return s.getPostThread(ctx, postURI, depth)
}

func (s *stubReader) GetFeedGenerator(ctx context.Context, feedURI string) (*GeneratorView, error) {
	if s.getFeedGenerator == nil {
		return &GeneratorView{URI: feedURI, CID: "gen-cid"}, nil
	}
	return s.getFeedGenerator(ctx, feedURI)
}

// pagedFeed serves pre-built pages of posts keyed by cursor, recording every
// cursor it was asked for. Page i is addressed by cursor "p<i>"; the last
// page returns no next cursor.
type pagedFeed struct {
	pages    [][]FeedPost
	requests []string
}

func (p *pagedFeed) fetch(ctx context.Context, feedURI, cursor string, limit int) ([]FeedPost, string, error) {
	p.requests = append(p.requests, cursor)
	idx := 0
	if cursor != "" {
		for i := range p.pages {
			if cursor == pageCursor(i) {
				idx = i
			}
		}
	}
	next := ""
	if idx < len(p.pages)-1 {
		next = pageCursor(idx + 1)
	}
	return p.pages[idx], next, nil
}

func pageCursor(i int) string {
	return "p" + string(rune('0'+i))
}
