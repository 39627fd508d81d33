package wordpress

import (
	"context"
	"strings"
	"sync"
)

// searchFields is the fixed match priority for auto-detect searches.
var searchFields = []string{"title", "excerpt", "content"}

// SearchItem pairs a post with its API collection.
type SearchItem struct {
	Post
	ContentType string `json:"contentType"`
}

// fetchAll pulls posts and pages concurrently. Partial failure degrades to
// whatever collection succeeded; a total failure returns the posts error.
func (c *Client) fetchAll(ctx context.Context, site, token string) ([]SearchItem, error) {
	var (
		wg       sync.WaitGroup
		posts    []Post
		pages    []Post
		postsErr error
		pagesErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		posts, postsErr = c.ListPosts(ctx, site, token)
	}()
	go func() {
		defer wg.Done()
		pages, pagesErr = c.ListPages(ctx, site, token)
	}()
	wg.Wait()

	if postsErr != nil && pagesErr != nil {
		return nil, postsErr
	}

	all := make([]SearchItem, 0, len(posts)+len(pages))
	for _, p := range posts {
		all = append(all, SearchItem{Post: p, ContentType: "post"})
	}
	for _, p := range pages {
		all = append(all, SearchItem{Post: p, ContentType: "page"})
	}
	return all, nil
}

// ListAll returns every post and page on the site, posts first.
func (c *Client) ListAll(ctx context.Context, site, token string) ([]SearchItem, error) {
	return c.fetchAll(ctx, site, token)
}

// Search finds the first post or page containing term. With a field hint
// ("title", "excerpt", "content") only that field is inspected; otherwise
// fields are tried in title, excerpt, content priority and the first
// containing field wins.
func (c *Client) Search(ctx context.Context, site, token, term, field string) (*SearchResult, error) {
	all, err := c.fetchAll(ctx, site, token)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	fields := searchFields
	if field != "" {
		fields = []string{field}
	}

	for _, item := range all {
		for _, f := range fields {
			rendered, plain := item.field(f)
			if plain == "" || !strings.Contains(strings.ToLower(plain), needle) {
				continue
			}
			return &SearchResult{
				Found:          true,
				PostID:         item.ID,
				Type:           item.ContentType,
				MatchedField:   f,
				MatchedContent: rendered,
			}, nil
		}
	}

	return &SearchResult{Found: false}, nil
}

// SearchContent returns every post and page whose content contains term.
func (c *Client) SearchContent(ctx context.Context, site, token, term string) ([]SearchItem, error) {
	all, err := c.fetchAll(ctx, site, token)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	matches := make([]SearchItem, 0)
	for _, item := range all {
		if strings.Contains(strings.ToLower(item.Content.Text()), needle) {
			matches = append(matches, item)
		}
	}
	return matches, nil
}

// field returns the rendered HTML and stripped text of a named field.
func (t SearchItem) field(name string) (rendered, plain string) {
	switch name {
	case "title":
		return t.Title.Rendered, t.Title.Text()
	case "excerpt":
		return t.Excerpt.Rendered, t.Excerpt.Text()
	case "content":
		return t.Content.Rendered, t.Content.Text()
	}
	return "", ""
}
