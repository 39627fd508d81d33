package wordpress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchAutoDetectFieldPriority(t *testing.T) {
	_, client := fakeAPI(t)

	// "Hello World" appears in a title; titles are checked first.
	res, err := client.Search(context.Background(), "demo.wordpress.com", "tok", "hello world", "")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 7, res.PostID)
	assert.Equal(t, "post", res.Type)
	assert.Equal(t, "title", res.MatchedField)
	assert.Equal(t, "Hello World", res.MatchedContent)
}

func TestSearchFieldHint(t *testing.T) {
	_, client := fakeAPI(t)

	// Restricting to content skips the title hit.
	res, err := client.Search(context.Background(), "demo.wordpress.com", "tok", "body", "content")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, "content", res.MatchedField)
}

func TestSearchNoMatch(t *testing.T) {
	_, client := fakeAPI(t)

	res, err := client.Search(context.Background(), "demo.wordpress.com", "tok", "zzz-nothing", "")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Zero(t, res.PostID)
}

func TestSearchIncludesPages(t *testing.T) {
	_, client := fakeAPI(t)

	res, err := client.Search(context.Background(), "demo.wordpress.com", "tok", "page body", "")
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.Equal(t, 21, res.PostID)
	assert.Equal(t, "page", res.Type)
}

func TestSearchContent(t *testing.T) {
	_, client := fakeAPI(t)

	items, err := client.SearchContent(context.Background(), "demo.wordpress.com", "tok", "body")
	require.NoError(t, err)
	// "Body" in post 7, "Page body" in page 21.
	require.Len(t, items, 2)
	assert.Equal(t, "post", items[0].ContentType)
	assert.Equal(t, "page", items[1].ContentType)
}

func TestListAll(t *testing.T) {
	_, client := fakeAPI(t)

	items, err := client.ListAll(context.Background(), "demo.wordpress.com", "tok")
	require.NoError(t, err)
	require.Len(t, items, 3, "two posts and one page")
	assert.Equal(t, "post", items[0].ContentType)
	assert.Equal(t, "page", items[2].ContentType)
}
