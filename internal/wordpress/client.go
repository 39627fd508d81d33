package wordpress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/pressview/pressview/internal/infrastructure/logging"
)

// DefaultAPIBase is the WordPress.com public API root.
const DefaultAPIBase = "https://public-api.wordpress.com"

// ErrNotFound indicates the requested post or page does not exist.
var ErrNotFound = errors.New("wordpress: resource not found")

// APIError carries a non-2xx upstream response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordpress: upstream returned %d: %s", e.Status, e.Body)
}

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the WordPress REST API (WordPress.com public API for
// hosted sites, /wp-json on the site itself for self-hosted ones).
type Client struct {
	http    *resty.Client
	apiBase string
	logger  *logging.Logger
	observe func(operation, status string, elapsed time.Duration)

	// selfHostedBase overrides self-hosted URL derivation in tests.
	selfHostedBase string
}

// New creates a REST client with retrying transport.
func New(apiBase string, logger *logging.Logger) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New().
		SetTimeout(30 * time.Second).
		SetTransport(retryClient.HTTPClient.Transport).
		SetHeader("User-Agent", "pressview/1.0")

	return &Client{
		http:    restyClient,
		apiBase: apiBase,
		logger:  logger,
	}
}

// WithObserver registers a per-call hook for metrics collection. The hook
// receives the operation name, a status label, and the elapsed time.
func (c *Client) WithObserver(fn func(operation, status string, elapsed time.Duration)) *Client {
	c.observe = fn
	return c
}

// record reports one finished API call to the observer, if any.
func (c *Client) record(operation string, start time.Time, err error) {
	if c.observe == nil {
		return
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	default:
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			status = strconv.Itoa(apiErr.Status)
		} else {
			status = "error"
		}
	}
	c.observe(operation, status, time.Since(start))
}

// sitesBase returns the wp/v2 root for a WordPress.com-hosted site.
func (c *Client) sitesBase(site string) string {
	return c.apiBase + "/wp/v2/sites/" + SiteIdentifier(site)
}

// selfHostedRoot returns the wp/v2 root served by the site itself.
func (c *Client) selfHostedRoot(domain string) string {
	if c.selfHostedBase != "" {
		return c.selfHostedBase
	}
	return "https://" + SiteIdentifier(domain) + "/wp-json/wp/v2"
}

// request prepares an authenticated request. An empty token sends no
// Authorization header, matching the public read endpoints.
func (c *Client) request(ctx context.Context, token string) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	return req
}

// decode maps a resty response onto the error taxonomy.
func decode(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("wordpress: request failed: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		return &APIError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	return nil
}

// ListPosts fetches up to 100 posts for a site.
func (c *Client) ListPosts(ctx context.Context, site, token string) ([]Post, error) {
	start := time.Now()
	var posts []Post
	resp, err := c.request(ctx, token).
		SetQueryParam("per_page", "100").
		SetResult(&posts).
		Get(c.sitesBase(site) + "/posts")
	derr := decode(resp, err)
	c.record("list_posts", start, derr)
	if derr != nil {
		return nil, derr
	}
	return posts, nil
}

// ListPages fetches up to 100 pages for a site.
func (c *Client) ListPages(ctx context.Context, site, token string) ([]Post, error) {
	start := time.Now()
	var pages []Post
	resp, err := c.request(ctx, token).
		SetQueryParam("per_page", "100").
		SetResult(&pages).
		Get(c.sitesBase(site) + "/pages")
	derr := decode(resp, err)
	c.record("list_pages", start, derr)
	if derr != nil {
		return nil, derr
	}
	return pages, nil
}

// GetPost fetches a single post by ID.
func (c *Client) GetPost(ctx context.Context, site, token string, id int) (*Post, error) {
	start := time.Now()
	var post Post
	resp, err := c.request(ctx, token).
		SetResult(&post).
		Get(c.sitesBase(site) + "/posts/" + strconv.Itoa(id))
	derr := decode(resp, err)
	c.record("get_post", start, derr)
	if derr != nil {
		return nil, derr
	}
	return &post, nil
}

// GetPage fetches a single page by ID.
func (c *Client) GetPage(ctx context.Context, site, token string, id int) (*Post, error) {
	start := time.Now()
	var page Post
	resp, err := c.request(ctx, token).
		SetResult(&page).
		Get(c.sitesBase(site) + "/pages/" + strconv.Itoa(id))
	derr := decode(resp, err)
	c.record("get_page", start, derr)
	if derr != nil {
		return nil, derr
	}
	return &page, nil
}

// GetPostBySlug resolves a post by slug.
func (c *Client) GetPostBySlug(ctx context.Context, site, token, slug string) (*Post, error) {
	start := time.Now()
	post, err := c.bySlug(ctx, token, c.sitesBase(site)+"/posts", slug)
	c.record("get_post_by_slug", start, err)
	return post, err
}

// GetPageBySlug resolves a page by slug.
func (c *Client) GetPageBySlug(ctx context.Context, site, token, slug string) (*Post, error) {
	start := time.Now()
	page, err := c.bySlug(ctx, token, c.sitesBase(site)+"/pages", slug)
	c.record("get_page_by_slug", start, err)
	return page, err
}

func (c *Client) bySlug(ctx context.Context, token, endpoint, slug string) (*Post, error) {
	var items []Post
	resp, err := c.request(ctx, token).
		SetQueryParam("slug", slug).
		SetResult(&items).
		Get(endpoint)
	if err := decode(resp, err); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}

// UpdatePost applies a partial update to a post.
func (c *Client) UpdatePost(ctx context.Context, site, token string, id int, upd Update) (*Post, error) {
	start := time.Now()
	post, err := c.update(ctx, token, c.sitesBase(site)+"/posts/"+strconv.Itoa(id), upd)
	c.record("update_post", start, err)
	return post, err
}

// UpdatePage applies a partial update to a page.
func (c *Client) UpdatePage(ctx context.Context, site, token string, id int, upd Update) (*Post, error) {
	start := time.Now()
	page, err := c.update(ctx, token, c.sitesBase(site)+"/pages/"+strconv.Itoa(id), upd)
	c.record("update_page", start, err)
	return page, err
}

func (c *Client) update(ctx context.Context, token, endpoint string, upd Update) (*Post, error) {
	var updated Post
	resp, err := c.request(ctx, token).
		SetBody(upd).
		SetResult(&updated).
		Post(endpoint)
	if err := decode(resp, err); err != nil {
		return nil, err
	}
	return &updated, nil
}

// VerifySite checks that a WordPress site is reachable and returns its
// settings summary. Works against self-hosted sites; the token is optional.
func (c *Client) VerifySite(ctx context.Context, siteURL, token string) (*SiteInfo, error) {
	start := time.Now()
	var info SiteInfo
	resp, err := c.request(ctx, token).
		SetResult(&info).
		Get(c.selfHostedRoot(siteURL) + "/settings")
	derr := decode(resp, err)
	c.record("verify_site", start, derr)
	if derr != nil {
		return nil, derr
	}
	return &info, nil
}

// FetchContent resolves a post or page on a domain, trying numeric ID as
// post, then as page, then slug as post, then slug as page. The first
// success wins. A "slug:<type>:<slug>" postID, as emitted by the injected
// script's canonical-URL fallback, resolves through the slug endpoints with
// the tagged type tried first. WordPress.com domains go through the public
// API; anything else is treated as self-hosted.
func (c *Client) FetchContent(ctx context.Context, domain, token, postID, slug string) (*ContentSummary, error) {
	start := time.Now()
	summary, err := c.fetchContent(ctx, domain, token, postID, slug)
	c.record("fetch_content", start, err)
	return summary, err
}

func (c *Client) fetchContent(ctx context.Context, domain, token, postID, slug string) (*ContentSummary, error) {
	postsBase, pagesBase := c.contentEndpoints(domain)

	if strings.HasPrefix(postID, "slug:") {
		parts := strings.SplitN(postID, ":", 3)
		if len(parts) == 3 && parts[2] != "" {
			first, second := postsBase, pagesBase
			firstType, secondType := "post", "page"
			if parts[1] == "page" {
				first, second = pagesBase, postsBase
				firstType, secondType = "page", "post"
			}
			if item, err := c.bySlug(ctx, token, first, parts[2]); err == nil {
				return item.Summary(firstType), nil
			}
			if item, err := c.bySlug(ctx, token, second, parts[2]); err == nil {
				return item.Summary(secondType), nil
			}
		}
		return nil, ErrNotFound
	}

	if postID != "" {
		if _, err := strconv.Atoi(postID); err == nil {
			if post, err := c.fetchOne(ctx, token, postsBase+"/"+postID); err == nil {
				return post.Summary("post"), nil
			} else if !IsNotFound(err) {
				c.logger.Debug("post lookup failed, trying page", zap.String("domain", domain), zap.Error(err))
			}
			if page, err := c.fetchOne(ctx, token, pagesBase+"/"+postID); err == nil {
				return page.Summary("page"), nil
			}
		}
	}

	if slug != "" {
		if post, err := c.bySlug(ctx, token, postsBase, slug); err == nil {
			return post.Summary("post"), nil
		}
		if page, err := c.bySlug(ctx, token, pagesBase, slug); err == nil {
			return page.Summary("page"), nil
		}
	}

	return nil, ErrNotFound
}

func (c *Client) contentEndpoints(domain string) (posts, pages string) {
	if IsWordPressCom(domain) && c.selfHostedBase == "" {
		base := c.sitesBase(domain)
		return base + "/posts", base + "/pages"
	}
	root := c.selfHostedRoot(domain)
	return root + "/posts", root + "/pages"
}

func (c *Client) fetchOne(ctx context.Context, token, endpoint string) (*Post, error) {
	var post Post
	resp, err := c.request(ctx, token).
		SetResult(&post).
		Get(endpoint)
	if err := decode(resp, err); err != nil {
		return nil, err
	}
	return &post, nil
}
