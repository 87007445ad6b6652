package dtx

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentVar_PostContext(t *testing.T) {
	engine := MustNew()
	scope := NewScope(newTestRequest(t), newTestHost(t), testPolicies())
	ctx := context.Background()

	tests := []struct {
		raw      string
		expected string
	}{
		{"CF7_get_current_var", "Hello World"},
		{"CF7_get_current_var key='slug'", "hello-world"},
		{"CF7_get_current_var key='acf_id'", "10"},
		{"CF7_get_current_var key='image'", "https://example.com/uploads/hero.jpg"},
		{"CF7_get_current_var key='featured_image'", "https://example.com/uploads/hero.jpg"},
		{"CF7_get_current_var key='terms'", "News, Tech &amp; Science"},
		{"CF7_get_current_var key='post_excerpt'", "An excerpt"},
		{"CF7_get_current_var key='excerpt'", "An excerpt"},
		{"CF7_get_current_var key='color'", "blue"},
		{"CF7_get_current_var key='secret'", ""},
		{"CF7_get_current_var key=''", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ResolveDefaultValue(ctx, tt.raw, scope))
		})
	}
}

func TestCurrentVar_UserContext(t *testing.T) {
	engine := MustNew()
	host := newTestHost(t)
	host.SetQueriedObject(UserContext{User: &User{
		ID:          1,
		DisplayName: "John Doe",
		LastName:    "Doe",
		AvatarURL:   "https://example.com/avatar/1.png",
	}})
	scope := NewScope(newTestRequest(t), host, testPolicies())
	ctx := context.Background()

	tests := []struct {
		raw      string
		expected string
	}{
		{"CF7_get_current_var key='image'", "https://example.com/avatar/1.png"},
		{"CF7_get_current_var key='display_name'", "John Doe"},
		{"CF7_get_current_var key='phone'", "555-0100"},
		{"CF7_get_current_var key='last_name'", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ResolveDefaultValue(ctx, tt.raw, scope))
		})
	}
}

func TestCurrentVar_TermContext(t *testing.T) {
	engine := MustNew()
	host := newTestHost(t)
	host.SetQueriedObject(TermContext{Term: &Term{
		ID:          100,
		Name:        "News",
		Slug:        "news",
		Taxonomy:    "category",
		Description: "Latest news",
		Count:       4,
	}})
	scope := NewScope(nil, host, nil)
	ctx := context.Background()

	tests := []struct {
		raw      string
		expected string
	}{
		{"CF7_get_current_var", "News"},
		{"CF7_get_current_var key='slug'", "news"},
		{"CF7_get_current_var key='acf_id'", "category_100"},
		{"CF7_get_current_var key='description'", "Latest news"},
		{"CF7_get_current_var key='count'", "4"},
		{"CF7_get_current_var key='id'", "100"},
		{"CF7_get_current_var key='icon'", "star"},
		{"CF7_get_current_var key='missing'", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ResolveDefaultValue(ctx, tt.raw, scope))
		})
	}
}

func TestCurrentVar_ArchiveAndUnknown(t *testing.T) {
	engine := MustNew()
	ctx := context.Background()
	req := newTestRequest(t)

	host := newTestHost(t)
	host.SetQueriedObject(ArchiveContext{Title: "Archives: 2024"})
	scope := NewScope(req, host, nil)
	assert.Equal(t, "Archives: 2024", engine.ResolveDefaultValue(ctx, "CF7_get_current_var", scope))
	assert.Equal(t, "my-page", engine.ResolveDefaultValue(ctx, "CF7_get_current_var key='slug'", scope))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_get_current_var key='description'", scope))

	host.SetQueriedObject(UnknownContext{DocumentTitle: "Search Results"})
	assert.Equal(t, "Search Results", engine.ResolveDefaultValue(ctx, "CF7_get_current_var", scope))
	assert.Equal(t, "my-page", engine.ResolveDefaultValue(ctx, "CF7_get_current_var key='slug'", scope))
}

func TestCurrentVar_NoCurrentPost(t *testing.T) {
	engine := MustNew()
	host := NewMemoryHost(nil)
	host.SetSiteInfo("name", "Example Site")
	u, _ := url.Parse("https://example.com/Caf%C3%A9-Menu/")
	scope := NewScope(&Request{URL: u}, host, nil)
	ctx := context.Background()

	assert.Equal(t, "Example Site", engine.ResolveDefaultValue(ctx, "CF7_get_current_var", scope))
	assert.Equal(t, "cafe-menu", engine.ResolveDefaultValue(ctx, "CF7_get_current_var key='slug'", scope))
}

func TestLastPathSegment(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{"https://example.com/a/b/", "b"},
		{"https://example.com/a/b", "b"},
		{"https://example.com/", ""},
		{"https://example.com", ""},
	}
	for _, tt := range tests {
		u, _ := url.Parse(tt.raw)
		assert.Equal(t, tt.expected, lastPathSegment(&Request{URL: u}), tt.raw)
	}
	assert.Equal(t, "", lastPathSegment(nil))
}
