package dtx

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_BuiltinTags(t *testing.T) {
	engine, err := New()
	require.NoError(t, err)

	tags := engine.Tags()
	assert.Len(t, tags, 14)
	for _, tag := range []string{
		TagNameGet, TagNamePost, TagNameURL, TagNameReferrer, TagNameCookie,
		TagNameBlogInfo, TagNamePostVar, TagNameCustomField, TagNameCurrentUser,
		TagNameAttachment, TagNameTaxonomy, TagNameThemeOption, TagNameGUID, TagNameCurrentVar,
	} {
		assert.True(t, engine.Has(tag), tag)
	}
	assert.True(t, engine.Has("cf7_get"))
	assert.False(t, engine.Has("CF7_nothing"))
}

func TestNew_ResolverCollision(t *testing.T) {
	_, err := New(WithResolver(NewResolverFunc(TagNameGet, OptionSet{}, func(ctx context.Context, s *Scope, o *Options) Result {
		return TextResult("override")
	})))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgResolverExists)
}

func TestNew_NilResolver(t *testing.T) {
	_, err := New(WithResolver(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgNilResolver)
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(WithResolver(nil))
	})
}

func TestEngine_CustomResolver(t *testing.T) {
	greet := NewResolverFunc("MY_greeting", OptionSet{OptKey: "world", OptObfuscate: ""},
		func(ctx context.Context, s *Scope, o *Options) Result {
			return TextResult("hello " + o.Get(OptKey))
		})
	engine := MustNew(WithResolver(greet))

	ctx := context.Background()
	assert.Equal(t, "hello world", engine.ResolveDefaultValue(ctx, "MY_greeting", nil))
	assert.Equal(t, "hello you", engine.ResolveDefaultValue(ctx, "my_greeting key='you' ignored='x'", nil))
	assert.Equal(t, "&#104;&#101;&#108;&#108;&#111;&#32;&#120;",
		engine.ResolveDefaultValue(ctx, "MY_greeting key='x' obfuscate='1'", nil))

	r, ok := engine.Resolver("MY_GREETING")
	require.True(t, ok)
	assert.Equal(t, "MY_greeting", r.TagName())
}

func TestEngine_PanickingResolver(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	boom := NewResolverFunc("MY_boom", OptionSet{}, func(ctx context.Context, s *Scope, o *Options) Result {
		panic("boom")
	})
	engine := MustNew(WithResolver(boom), WithLogger(zap.New(core)))

	value, ok := engine.ResolveShortcode(context.Background(), "MY_boom", nil, false)
	assert.True(t, ok)
	assert.Equal(t, "", value)
	assert.Equal(t, 1, logs.FilterMessage(LogMsgResolverPanic).Len())
}

func TestEngine_UnknownTag(t *testing.T) {
	engine := MustNew()
	ctx := context.Background()

	value, ok := engine.ResolveShortcode(ctx, "Hello World", nil, false)
	assert.False(t, ok)
	assert.Equal(t, "", value)

	assert.Equal(t, "Hello World", engine.ResolveDefaultValue(ctx, "Hello World", nil))
	assert.Equal(t, "Your name", engine.ResolvePlaceholderValue(ctx, "Your name", nil))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "", nil))
}

func TestEngine_Resolve_Builtins(t *testing.T) {
	engine := MustNew()
	scope := NewScope(newTestRequest(t), newTestHost(t), testPolicies())
	ctx := context.Background()

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"get", "CF7_GET key='foo'", "bar"},
		{"get quoted", `"CF7_GET key='foo'"`, "bar"},
		{"get default", "CF7_GET key='missing' default='fallback'", "fallback"},
		{"get without key uses default", "CF7_GET default='d'", "d"},
		{"get first of many", "CF7_GET key='list'", "first"},
		{"get strips tags", "CF7_GET key='html'", "x"},
		{"get escapes quotes", "CF7_GET key='q'", "He said &quot;hi&quot;"},
		{"get obfuscated", "CF7_GET key='one' obfuscate='1'", "&#97;"},
		{"get obfuscated word", "CF7_GET key='foo' obfuscate='yes'", "&#98;&#97;&#114;"},
		{"post", "CF7_POST key='name'", "Alice"},
		{"post missing", "CF7_POST key='email'", ""},
		{"cookie", "CF7_get_cookie key='session'", "abc"},
		{"cookie default", "CF7_get_cookie key='none' default='guest'", "guest"},
		{"url", "CF7_URL", "https://example.com/blog/my-page/?ref=home"},
		{"url host", "CF7_URL part='host'", "example.com"},
		{"url path", "CF7_URL part='path'", "/blog/my-page/"},
		{"url query", "CF7_URL part='query'", "ref=home"},
		{"url scheme", "CF7_URL part='scheme'", "https"},
		{"url unknown part", "CF7_URL part='bogus'", ""},
		{"url protocol not allowed", "CF7_URL allowed_protocols='ftp'", ""},
		{"referrer", "CF7_referrer", "https://google.com/search"},
		{"bloginfo", "CF7_bloginfo", "Example Site"},
		{"bloginfo show", "CF7_bloginfo show='description'", "Just another site"},
		{"bloginfo missing", "CF7_bloginfo show='nope'", ""},
		{"post var default title", "CF7_get_post_var", "Hello World"},
		{"post var alias slug", "CF7_get_post_var key='slug'", "hello-world"},
		{"post var alias id", "CF7_get_post_var key='id'", "10"},
		{"post var unprefixed", "CF7_get_post_var key='title'", "Hello World"},
		{"post var date", "CF7_get_post_var key='date'", "2024-01-02 03:04:05"},
		{"post var by id", "CF7_get_post_var key='title' post_id='11'", "About Us"},
		{"post var unknown post", "CF7_get_post_var post_id='999'", ""},
		{"post var unknown field", "CF7_get_post_var key='nonsense'", ""},
		{"custom field allowed", "CF7_get_custom_field key='color'", "blue"},
		{"custom field denied", "CF7_get_custom_field key='secret'", ""},
		{"custom field other post", "CF7_get_custom_field key='color' post_id='11'", ""},
		{"custom field no key", "CF7_get_custom_field", ""},
		{"attachment featured", "CF7_get_attachment", "https://example.com/uploads/hero.jpg"},
		{"attachment size", "CF7_get_attachment size='thumbnail'", "https://example.com/uploads/hero-150x150.jpg"},
		{"attachment id", "CF7_get_attachment return='id'", "50"},
		{"attachment missing", "CF7_get_attachment id='999'", ""},
		{"attachment no thumbnail", "CF7_get_attachment post_id='11'", ""},
		{"taxonomy names", "CF7_get_taxonomy", "News, Tech &amp; Science"},
		{"taxonomy slugs", "CF7_get_taxonomy fields='slugs'", "news, tech-science"},
		{"taxonomy ids", "CF7_get_taxonomy fields='ids'", "100, 101"},
		{"taxonomy empty", "CF7_get_taxonomy taxonomy='post_tag'", ""},
		{"theme option", "CF7_get_theme_option key='header_color'", "#ff0000"},
		{"theme option default", "CF7_get_theme_option key='missing' default='plain'", "plain"},
		{"current user default key denied", "CF7_get_current_user", ""},
		{"current user field", "CF7_get_current_user key='display_name'", "John Doe"},
		{"current user email", "CF7_get_current_user key='user_email'", "john@example.com"},
		{"current user url", "CF7_get_current_user key='user_url'", "https://john.example.com"},
		{"current user meta", "CF7_get_current_user key='phone'", "555-0100"},
		{"current user denied", "CF7_get_current_user key='last_name'", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ResolveDefaultValue(ctx, tt.raw, scope))
		})
	}
}

func TestEngine_Resolve_GUID(t *testing.T) {
	engine := MustNew()
	ctx := context.Background()
	uuidPattern := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

	first := engine.ResolveDefaultValue(ctx, "CF7_guid", nil)
	second := engine.ResolveDefaultValue(ctx, "CF7_guid", nil)
	assert.Regexp(t, uuidPattern, first)
	assert.NotEqual(t, first, second)
}

func TestEngine_Resolve_ReferrerRejected(t *testing.T) {
	engine := MustNew()
	req := &Request{Referrer: "javascript:alert(1)"}
	assert.Equal(t, "", engine.ResolveDefaultValue(context.Background(), "CF7_referrer", NewScope(req, nil, nil)))
}

func TestEngine_Resolve_Multiline(t *testing.T) {
	engine := MustNew()
	req := &Request{Query: map[string][]string{"msg": {"line one\nline <two> & 'three'"}}}
	scope := NewScope(req, nil, nil)
	ctx := context.Background()

	single := engine.ResolveDefaultValue(ctx, "CF7_GET key='msg'", scope)
	assert.Equal(t, "line one line &amp; &#039;three&#039;", single)

	multi, ok := engine.ResolveShortcode(ctx, "CF7_GET key='msg'", scope, true)
	require.True(t, ok)
	assert.Equal(t, "line one\nline &amp; &#039;three&#039;", multi)
}

func TestEngine_Resolve_NilScope(t *testing.T) {
	engine := MustNew()
	ctx := context.Background()

	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_GET key='foo'", nil))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_URL", nil))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_get_post_var", nil))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_get_custom_field key='color'", nil))
}

func TestEngine_DeniedKeyRecordsAlert(t *testing.T) {
	alerts := NewMemoryAlerts(DefaultAlertLimit)
	core, logs := observer.New(zap.WarnLevel)
	engine := MustNew(WithAlertRecorder(alerts), WithLogger(zap.New(core)))
	scope := NewScope(newTestRequest(t), newTestHost(t), nil)
	ctx := context.Background()

	raw := "CF7_get_custom_field key='secret'"
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, raw, scope))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, raw, scope))

	require.Equal(t, 1, alerts.Count())
	alert := alerts.Alerts()[0]
	assert.Equal(t, DomainPostMeta, alert.Domain)
	assert.Equal(t, "secret", alert.Key)
	assert.Equal(t, TagNameCustomField, alert.Tag)
	assert.Equal(t, raw, alert.Raw)
	assert.Equal(t, 2, logs.FilterMessage(LogMsgAccessDenied).Len())
}

func TestEngine_DeniedKeyNeverReachesHost(t *testing.T) {
	host := &countingHost{MemoryHost: newTestHost(t)}
	engine := MustNew()
	scope := NewScope(nil, host, &AccessPolicies{})
	ctx := context.Background()

	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_get_custom_field key='secret'", scope))
	assert.Equal(t, "", engine.ResolveDefaultValue(ctx, "CF7_get_current_user key='user_email'", scope))
	assert.Zero(t, host.calls)
}

func TestEngine_AllowAll(t *testing.T) {
	engine := MustNew()
	policies := &AccessPolicies{PostMeta: AllowAllPolicy(), UserData: AllowAllPolicy()}
	scope := NewScope(nil, newTestHost(t), policies)
	ctx := context.Background()

	assert.Equal(t, "hunter2", engine.ResolveDefaultValue(ctx, "CF7_get_custom_field key='secret'", scope))
	assert.Equal(t, "jdoe", engine.ResolveDefaultValue(ctx, "CF7_get_current_user", scope))
}

func TestEngine_ConcurrentResolve(t *testing.T) {
	engine := MustNew(WithAlertRecorder(NewMemoryAlerts(0)))
	scope := NewScope(newTestRequest(t), newTestHost(t), testPolicies())
	ctx := context.Background()

	done := make(chan string, 20)
	for i := 0; i < 20; i++ {
		go func() {
			done <- engine.ResolveDefaultValue(ctx, "CF7_get_custom_field key='color'", scope)
		}()
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "blue", <-done)
	}
}

// countingHost counts the host lookups that reach post meta and users
type countingHost struct {
	*MemoryHost
	calls int
}

func (h *countingHost) PostMeta(ctx context.Context, postID int, key string) (string, error) {
	h.calls++
	return h.MemoryHost.PostMeta(ctx, postID, key)
}

func (h *countingHost) CurrentUser(ctx context.Context) (*User, error) {
	h.calls++
	return h.MemoryHost.CurrentUser(ctx)
}

func (h *countingHost) CurrentPost(ctx context.Context) (*Post, error) {
	h.calls++
	return h.MemoryHost.CurrentPost(ctx)
}
