package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/blackmichael/bluesky-engagement/internal/domain"
)

const defaultPDS = "https://bsky.social"

// Client is a minimal BlueSky/AT Protocol API client for reading feeds,
// engagement listings and profiles. It implements domain.FeedReader and
// domain.ActorReader.
type Client struct {
	pds        string
	httpClient *http.Client

	// populated after Login
	accessJwt string
	did       string
}

// NewClient creates a new BlueSky API client. If pds is empty, it defaults to
// https://bsky.social.
func NewClient(pds string) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login authenticates with the PDS and stores the session token. Use an App
// Password, not your account password. The session is reused for every call
// for the lifetime of the client; it is not refreshed.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/xrpc/com.atproto.server.createSession", body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.accessJwt = resp.AccessJwt
	c.did = resp.DID
	return nil
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	return c.did
}

// ListFeedPosts retrieves one page of a feed's posts via
// app.bsky.feed.getFeed. Posts arrive newest first.
func (c *Client) ListFeedPosts(ctx context.Context, feedURI, cursor string, limit int) ([]domain.FeedPost, string, error) {
	params := url.Values{}
	params.Set("feed", feedURI)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp getFeedResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getFeed", params, &resp); err != nil {
		return nil, "", fmt.Errorf("get feed: %w", err)
	}

	posts := make([]domain.FeedPost, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		posts = append(posts, domain.FeedPost{
			URI:       item.Post.URI,
			CID:       item.Post.CID,
			CreatedAt: item.Post.Record.CreatedAt,
			IndexedAt: item.Post.IndexedAt,
		})
	}
	return posts, resp.Cursor, nil
}

// ListLikers retrieves one page of DIDs that liked a post via
// app.bsky.feed.getLikes. The cid narrows the listing to one record version
// and may be empty.
func (c *Client) ListLikers(ctx context.Context, postURI, cid, cursor string, limit int) ([]string, string, error) {
	params := url.Values{}
	params.Set("uri", postURI)
	params.Set("limit", strconv.Itoa(limit))
	if cid != "" {
		params.Set("cid", cid)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp getLikesResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getLikes", params, &resp); err != nil {
		return nil, "", fmt.Errorf("get likes: %w", err)
	}

	dids := make([]string, 0, len(resp.Likes))
	for _, like := range resp.Likes {
		dids = append(dids, like.Actor.DID)
	}
	return dids, resp.Cursor, nil
}

// ListReposters retrieves one page of DIDs that reposted a post via
// app.bsky.feed.getRepostedBy.
func (c *Client) ListReposters(ctx context.Context, postURI, cursor string, limit int) ([]string, string, error) {
	params := url.Values{}
	params.Set("uri", postURI)
	params.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp getRepostedByResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getRepostedBy", params, &resp); err != nil {
		return nil, "", fmt.Errorf("get reposted by: %w", err)
	}

	dids := make([]string, 0, len(resp.RepostedBy))
	for _, actor := range resp.RepostedBy {
		dids = append(dids, actor.DID)
	}
	return dids, resp.Cursor, nil
}

// GetPostThread fetches the reply thread below a post via
// app.bsky.feed.getPostThread. The depth bound is enforced server-side.
// Nodes the AppView could not hydrate (deleted or blocked posts) come back
// without a post and are mapped to nodes with a nil Post.
func (c *Client) GetPostThread(ctx context.Context, postURI string, depth int) (*domain.ThreadNode, error) {
	params := url.Values{}
	params.Set("uri", postURI)
	params.Set("depth", strconv.Itoa(depth))

	var resp getPostThreadResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPostThread", params, &resp); err != nil {
		return nil, fmt.Errorf("get post thread: %w", err)
	}

	return toThreadNode(&resp.Thread), nil
}

// GetFeedGenerator resolves a feed URI to its generator record via
// app.bsky.feed.getFeedGenerator. Likes on a feed attach to this record.
func (c *Client) GetFeedGenerator(ctx context.Context, feedURI string) (*domain.GeneratorView, error) {
	params := url.Values{}
	params.Set("feed", feedURI)

	var resp getFeedGeneratorResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getFeedGenerator", params, &resp); err != nil {
		return nil, fmt.Errorf("get feed generator: %w", err)
	}

	return &domain.GeneratorView{
		URI: resp.View.URI,
		CID: resp.View.CID,
	}, nil
}

// GetProfile fetches account details via app.bsky.actor.getProfile.
func (c *Client) GetProfile(ctx context.Context, actor string) (*domain.Profile, error) {
	params := url.Values{}
	params.Set("actor", actor)

	var resp actorView
	if err := c.get(ctx, "/xrpc/app.bsky.actor.getProfile", params, &resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &domain.Profile{
		DID:         resp.DID,
		Handle:      resp.Handle,
		DisplayName: resp.DisplayName,
		Description: resp.Description,
	}, nil
}

// ListAuthorPosts retrieves up to limit recent posts by an actor via
// app.bsky.feed.getAuthorFeed.
func (c *Client) ListAuthorPosts(ctx context.Context, actor string, limit int) ([]domain.AuthorPost, error) {
	params := url.Values{}
	params.Set("actor", actor)
	params.Set("limit", strconv.Itoa(limit))

	var resp getFeedResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getAuthorFeed", params, &resp); err != nil {
		return nil, fmt.Errorf("get author feed: %w", err)
	}

	posts := make([]domain.AuthorPost, 0, len(resp.Feed))
	for _, item := range resp.Feed {
		posts = append(posts, domain.AuthorPost{
			URI:  item.Post.URI,
			Text: item.Post.Record.Text,
		})
	}
	return posts, nil
}

// toThreadNode converts the wire thread into domain nodes with an explicit
// worklist, mirroring the flattener's non-recursive walk.
func toThreadNode(view *threadView) *domain.ThreadNode {
	root := &domain.ThreadNode{}

	type pending struct {
		view *threadView
		node *domain.ThreadNode
	}
	work := []pending{{view: view, node: root}}

	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		if p.view.Post != nil && p.view.Post.Author != nil {
			p.node.Post = &domain.ThreadPost{
				URI:       p.view.Post.URI,
				CID:       p.view.Post.CID,
				AuthorDID: p.view.Post.Author.DID,
			}
		}
		for i := range p.view.Replies {
			child := &domain.ThreadNode{}
			p.node.Replies = append(p.node.Replies, child)
			work = append(work, pending{view: &p.view.Replies[i], node: child})
		}
	}
	return root
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if c.accessJwt == "" {
		return fmt.Errorf("not authenticated: call Login first")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pds+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessJwt)

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type getFeedResponse struct {
	Feed   []feedViewPost `json:"feed"`
	Cursor string         `json:"cursor"`
}

type feedViewPost struct {
	Post postView `json:"post"`
}

type postView struct {
	URI       string     `json:"uri"`
	CID       string     `json:"cid"`
	Author    actorView  `json:"author"`
	Record    postRecord `json:"record"`
	IndexedAt string     `json:"indexedAt"`
}

type postRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type actorView struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
}

type getLikesResponse struct {
	Likes  []likeView `json:"likes"`
	Cursor string     `json:"cursor"`
}

type likeView struct {
	Actor actorView `json:"actor"`
}

type getRepostedByResponse struct {
	RepostedBy []actorView `json:"repostedBy"`
	Cursor     string      `json:"cursor"`
}

type getFeedGeneratorResponse struct {
	View generatorView `json:"view"`
}

type generatorView struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type getPostThreadResponse struct {
	Thread threadView `json:"thread"`
}

type threadView struct {
	Post    *threadPostView `json:"post"`
	Replies []threadView    `json:"replies"`
}

type threadPostView struct {
	URI    string     `json:"uri"`
	CID    string     `json:"cid"`
	Author *actorView `json:"author"`
}
