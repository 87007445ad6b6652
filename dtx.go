// Package dtx resolves dynamic form-field values written as shortcodes.
//
// A shortcode is a tag followed by single quoted attributes:
//
//	CF7_GET key='utm_source' default='direct'
//
// # Basic Usage
//
// Create an engine and resolve a shortcode against the current request:
//
//	engine := dtx.MustNew()
//	scope := dtx.NewScope(dtx.RequestFromHTTP(r), host, settings.Policies())
//	value := engine.ResolveDefaultValue(ctx, "CF7_GET key='utm_source'", scope)
//
// Input that does not start with a registered tag is returned unchanged, so
// plain default values and placeholders pass through.
//
// # Built-in Tags
//
// Request values: CF7_GET, CF7_POST, CF7_URL, CF7_referrer, CF7_get_cookie.
//
// Site content: CF7_bloginfo, CF7_get_post_var, CF7_get_custom_field,
// CF7_get_current_user, CF7_get_attachment, CF7_get_taxonomy,
// CF7_get_theme_option, CF7_get_current_var.
//
// Generated values: CF7_guid.
//
// Tag names are matched case-insensitively, so cf7_get resolves as CF7_GET.
// Prefer the spellings listed here; custom resolvers are looked up the same way.
//
// Tags that declare the obfuscate option accept obfuscate='1', which encodes
// each character of the result as a numeric HTML entity.
//
// # Access Control
//
// CF7_get_custom_field reads post meta and CF7_get_current_user reads user
// data. Both are gated by AccessPolicies built from the persisted Settings.
// Nothing is allowed until an administrator lists the keys or turns on
// allow-all for the domain. A denied lookup resolves to "" and records an
// AccessAlert once per key.
//
// The Scanner walks every stored form and reports the protected keys its
// dynamic form-tags reference, so existing forms can be allowed in one step.
//
// # Custom Resolvers
//
// Add tags at construction time by implementing Resolver:
//
//	type DateResolver struct{}
//
//	func (r *DateResolver) TagName() string { return "CF7_date" }
//
//	func (r *DateResolver) Options() dtx.OptionSet {
//	    return dtx.OptionSet{"format": time.DateOnly}
//	}
//
//	func (r *DateResolver) Resolve(ctx context.Context, scope *dtx.Scope, opts *dtx.Options) dtx.Result {
//	    return dtx.TextResult(time.Now().Format(opts.Get("format")))
//	}
//
//	engine, _ := dtx.New(dtx.WithResolver(&DateResolver{}))
//
// # Deferred Lookups
//
// Values that depend on server state are fetched in batches through
// BatchHandler. The client package resolves the request-only tags locally
// and coalesces the rest into a single request.
//
// # Storage
//
// Settings and alerts persist through a SettingsStorage. The memory,
// filesystem, sqlite and postgres drivers register themselves and are
// opened by name:
//
//	storage, err := dtx.OpenStorage("sqlite", "/var/lib/dtx/settings.db")
package dtx
