package dtx

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSiteYAML = `
site:
  name: Example Site
  description: Just another site
  url: https://example.com
theme_mods:
  header_color: "#ff0000"
posts:
  - id: 10
    type: post
    slug: hello-world
    title: Hello <b>World</b>
    excerpt: An excerpt
    author: 1
    date: 2024-01-02T03:04:05Z
    permalink: https://example.com/hello-world/
    thumbnail_id: 50
    meta:
      color: blue
      secret: hunter2
    terms:
      category: [100, 101]
  - id: 11
    type: page
    slug: about
    title: About Us
users:
  - id: 1
    login: jdoe
    email: john@example.com
    display_name: John Doe
    first_name: John
    last_name: Doe
    url: https://john.example.com
    avatar_url: https://example.com/avatar/1.png
    meta:
      phone: "555-0100"
terms:
  - id: 100
    name: News
    slug: news
    taxonomy: category
    description: Latest news
    count: 4
    meta:
      icon: star
  - id: 101
    name: Tech & Science
    slug: tech-science
    taxonomy: category
attachments:
  - id: 50
    url: https://example.com/uploads/hero.jpg
    sizes:
      thumbnail: https://example.com/uploads/hero-150x150.jpg
forms:
  - id: 3
    title: Newsletter
    body: '[email* your-email] [submit "Send"]'
  - id: 2
    title: Contact
    body: |
      [dynamic_text your-name "CF7_get_current_user key='display_name'"]
      [dynamic_hidden color "CF7_get_custom_field key='color'"]
      [dynamic_hidden secret "CF7_get_custom_field key='secret'"]
      [dynamic_hidden login "CF7_get_current_user"]
current_post: 10
current_user: 1
`

// newTestHost returns a host loaded from testSiteYAML
func newTestHost(t *testing.T) *MemoryHost {
	t.Helper()
	fixture, err := ParseSiteFixture([]byte(testSiteYAML))
	require.NoError(t, err)
	return NewMemoryHost(fixture)
}

// newTestRequest returns a request for https://example.com/blog/my-page/?ref=home
func newTestRequest(t *testing.T) *Request {
	t.Helper()
	u, err := url.Parse("https://example.com/blog/my-page/?ref=home")
	require.NoError(t, err)
	return &Request{
		URL: u,
		Query: url.Values{
			"foo":  {"bar"},
			"one":  {"a"},
			"html": {"<b>x</b>"},
			"q":    {`He said "hi"`},
			"list": {"first", "second"},
		},
		Form:     url.Values{"name": {"Alice"}},
		Cookies:  map[string]string{"session": "abc"},
		Referrer: "https://google.com/search",
	}
}

// testPolicies allows the color meta key and a few user fields
func testPolicies() *AccessPolicies {
	return &AccessPolicies{
		PostMeta: AllowListPolicy("color"),
		UserData: AllowListPolicy("display_name", "first_name", "user_email", "user_url", "phone"),
	}
}
