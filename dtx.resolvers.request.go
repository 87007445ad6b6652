package dtx

import (
	"context"
	"net/url"

	"github.com/google/uuid"
	"github.com/itsatony/go-dtx/internal"
)

// registerBuiltins registers every built-in resolver.
func registerBuiltins(r *internal.Registry[Resolver]) {
	r.MustRegister(NewResolverFunc(TagNameGet, keyDefaultOptions(), resolveGet))
	r.MustRegister(NewResolverFunc(TagNamePost, keyDefaultOptions(), resolvePost))
	r.MustRegister(NewResolverFunc(TagNameURL, OptionSet{
		OptAllowedProtocols: DefaultAllowedProtocols,
		OptPart:             "",
		OptObfuscate:        "",
	}, resolveURL))
	r.MustRegister(NewResolverFunc(TagNameReferrer, OptionSet{
		OptAllowedProtocols: DefaultAllowedProtocols,
		OptObfuscate:        "",
	}, resolveReferrer))
	r.MustRegister(NewResolverFunc(TagNameCookie, keyDefaultOptions(), resolveCookie))
	r.MustRegister(NewResolverFunc(TagNameGUID, OptionSet{}, resolveGUID))

	r.MustRegister(NewResolverFunc(TagNameBlogInfo, OptionSet{
		OptShow:      DefaultBlogInfoShow,
		OptObfuscate: "",
	}, resolveBlogInfo))
	r.MustRegister(NewResolverFunc(TagNamePostVar, OptionSet{
		OptKey:       DefaultPostVarKey,
		OptPostID:    "",
		OptObfuscate: "",
	}, resolvePostVar))
	r.MustRegister(NewResolverFunc(TagNameCustomField, OptionSet{
		OptKey:       "",
		OptPostID:    "",
		OptObfuscate: "",
	}, resolveCustomField))
	r.MustRegister(NewResolverFunc(TagNameAttachment, OptionSet{
		OptID:        "",
		OptPostID:    "",
		OptSize:      DefaultAttachmentSize,
		OptReturn:    DefaultAttachmentReturn,
		OptObfuscate: "",
	}, resolveAttachment))
	r.MustRegister(NewResolverFunc(TagNameTaxonomy, OptionSet{
		OptPostID:    "",
		OptTaxonomy:  DefaultTaxonomy,
		OptFields:    DefaultTaxonomyFields,
		OptObfuscate: "",
	}, resolveTaxonomy))
	r.MustRegister(NewResolverFunc(TagNameThemeOption, keyDefaultOptions(), resolveThemeOption))

	r.MustRegister(NewResolverFunc(TagNameCurrentUser, OptionSet{
		OptKey:       DefaultCurrentUserKey,
		OptObfuscate: "",
	}, resolveCurrentUser))
	r.MustRegister(NewResolverFunc(TagNameCurrentVar, OptionSet{
		OptKey:       DefaultCurrentVarKey,
		OptObfuscate: "",
	}, resolveCurrentVar))
}

func keyDefaultOptions() OptionSet {
	return OptionSet{
		OptKey:       "",
		OptDefault:   "",
		OptObfuscate: "",
	}
}

// firstValue returns the first value of key, reporting whether it was sent.
func firstValue(values url.Values, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

func resolveGet(ctx context.Context, s *Scope, opts *Options) Result {
	if v, ok := firstValue(s.Request.Query, opts.Get(OptKey)); ok {
		return TextResult(v)
	}
	return TextResult(opts.Get(OptDefault))
}

func resolvePost(ctx context.Context, s *Scope, opts *Options) Result {
	if v, ok := firstValue(s.Request.Form, opts.Get(OptKey)); ok {
		return TextResult(v)
	}
	return TextResult(opts.Get(OptDefault))
}

func resolveCookie(ctx context.Context, s *Scope, opts *Options) Result {
	if key := opts.Get(OptKey); key != "" {
		if v, ok := s.Request.Cookies[key]; ok {
			return TextResult(v)
		}
	}
	return TextResult(opts.Get(OptDefault))
}

func resolveURL(ctx context.Context, s *Scope, opts *Options) Result {
	protocols := opts.List(OptAllowedProtocols)
	u := s.Request.URL
	if u == nil {
		return EmptyResult()
	}
	switch opts.Get(OptPart) {
	case "":
		return URLResult(u.String(), protocols)
	case URLPartScheme:
		return TextResult(u.Scheme)
	case URLPartHost:
		return TextResult(u.Hostname())
	case URLPartPort:
		return TextResult(u.Port())
	case URLPartPath:
		return TextResult(u.Path)
	case URLPartQuery:
		return TextResult(u.RawQuery)
	case URLPartFragment:
		return TextResult(u.Fragment)
	default:
		return EmptyResult()
	}
}

func resolveReferrer(ctx context.Context, s *Scope, opts *Options) Result {
	return URLResult(s.Request.Referrer, opts.List(OptAllowedProtocols))
}

func resolveGUID(ctx context.Context, s *Scope, opts *Options) Result {
	return RawResult(uuid.NewString())
}
