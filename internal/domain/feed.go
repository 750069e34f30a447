package domain

// Feed identifies a single feed generator to scan.
type Feed struct {
	// URI is the AT-URI of the feed generator record
	// (e.g. at://did:plc:abc/app.bsky.feed.generator/left-news).
	URI string

	// DisplayName is the human-readable feed name carried through to output.
	DisplayName string
}

// FeedPost is one post as returned by a feed listing. Timestamps are kept as
// the raw wire strings; parsing and fallback policy belong to the scanner.
type FeedPost struct {
	// URI is the AT-URI of the post.
	URI string

	// CID is the content identifier of the record.
	CID string

	// CreatedAt is the author-supplied creation timestamp. May be empty or
	// malformed; clients set whatever the record carried.
	CreatedAt string

	// IndexedAt is when the AppView indexed the post. Used as a fallback
	// when CreatedAt is unusable.
	IndexedAt string
}

// PostRef identifies a post selected by a feed scan.
type PostRef struct {
	URI string
	CID string
}

// ThreadNode is one node of a reply thread. The root node corresponds to the
// scanned post; its descendants are the replies.
type ThreadNode struct {
	// Post is nil when the node could not be hydrated (deleted, blocked, or
	// otherwise missing on the wire).
	Post *ThreadPost

	Replies []*ThreadNode
}

// ThreadPost is the post carried by a thread node.
type ThreadPost struct {
	URI       string
	CID       string
	AuthorDID string
}

// GeneratorView identifies a feed's generator record. Likes on a feed attach
// to this record, not to the feed's posts.
type GeneratorView struct {
	URI string
	CID string
}

// Profile holds the account details surfaced by the user-data batch.
type Profile struct {
	DID         string
	Handle      string
	DisplayName string
	Description string
}

// AuthorPost is one post from an author's feed.
type AuthorPost struct {
	URI  string
	Text string
}
