package dtx

import (
	"context"
	"strconv"
	"strings"
)

// Post key aliases accepted by CF7_get_post_var
const (
	postKeyAliasID   = "id"
	postKeyAliasSlug = "slug"
)

// canonicalPostField maps a user supplied key to a Post field name.
// The boolean is false when key names no post field.
func canonicalPostField(key string) (string, bool) {
	switch strings.ToLower(key) {
	case postKeyAliasID:
		return PostFieldID, true
	case postKeyAliasSlug:
		return PostFieldName, true
	}
	var probe Post
	if _, ok := probe.Field(key); ok {
		return key, true
	}
	if !strings.HasPrefix(key, PostFieldPrefix) {
		prefixed := PostFieldPrefix + key
		if _, ok := probe.Field(prefixed); ok {
			return prefixed, true
		}
	}
	return "", false
}

// postFor returns the post named by the post_id option, or the current post.
func postFor(ctx context.Context, s *Scope, opts *Options) (*Post, bool) {
	var (
		post *Post
		err  error
	)
	if id, ok := opts.Int(OptPostID); ok {
		post, err = s.Host.Post(ctx, id)
	} else {
		post, err = s.Host.CurrentPost(ctx)
	}
	if err != nil {
		s.lookupFailed(EntityPost, err)
		return nil, false
	}
	return post, post != nil
}

func resolveBlogInfo(ctx context.Context, s *Scope, opts *Options) Result {
	v, err := s.Host.SiteInfo(ctx, opts.Get(OptShow))
	if err != nil {
		s.lookupFailed(EntitySite, err)
		return EmptyResult()
	}
	return TextResult(v)
}

func resolvePostVar(ctx context.Context, s *Scope, opts *Options) Result {
	field, ok := canonicalPostField(opts.Get(OptKey))
	if !ok {
		return EmptyResult()
	}
	post, ok := postFor(ctx, s, opts)
	if !ok {
		return EmptyResult()
	}
	v, _ := post.Field(field)
	return TextResult(v)
}

func resolveCustomField(ctx context.Context, s *Scope, opts *Options) Result {
	key := opts.Get(OptKey)
	if key == "" || !s.Allowed(ctx, DomainPostMeta, key) {
		return EmptyResult()
	}
	post, ok := postFor(ctx, s, opts)
	if !ok {
		return EmptyResult()
	}
	return postMetaResult(ctx, s, post.ID, key)
}

// postMetaResult reads an already authorized meta key.
func postMetaResult(ctx context.Context, s *Scope, postID int, key string) Result {
	v, err := s.Host.PostMeta(ctx, postID, key)
	if err != nil {
		s.lookupFailed(EntityPostMeta, err)
		return EmptyResult()
	}
	return TextResult(v)
}

func resolveAttachment(ctx context.Context, s *Scope, opts *Options) Result {
	id, ok := opts.Int(OptID)
	if !ok {
		post, found := postFor(ctx, s, opts)
		if !found || post.ThumbnailID <= 0 {
			return EmptyResult()
		}
		id = post.ThumbnailID
	}

	if opts.Get(OptReturn) == AttachmentReturnID {
		return RawResult(strconv.Itoa(id))
	}
	return attachmentURLResult(ctx, s, id, opts.Get(OptSize))
}

func attachmentURLResult(ctx context.Context, s *Scope, id int, size string) Result {
	att, err := s.Host.Attachment(ctx, id)
	if err != nil {
		s.lookupFailed(EntityAttachment, err)
		return EmptyResult()
	}
	return URLResult(att.URLFor(size), nil)
}

func resolveTaxonomy(ctx context.Context, s *Scope, opts *Options) Result {
	post, ok := postFor(ctx, s, opts)
	if !ok {
		return EmptyResult()
	}
	return termsResult(ctx, s, post.ID, opts.Get(OptTaxonomy), opts.Get(OptFields))
}

// termsResult joins the terms of a post, selecting names, slugs or IDs.
func termsResult(ctx context.Context, s *Scope, postID int, taxonomy, fields string) Result {
	terms, err := s.Host.PostTerms(ctx, postID, taxonomy)
	if err != nil {
		s.lookupFailed(EntityTerm, err)
		return EmptyResult()
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		switch fields {
		case TaxonomyFieldsSlugs:
			parts = append(parts, t.Slug)
		case TaxonomyFieldsIDs:
			parts = append(parts, strconv.Itoa(t.ID))
		default:
			parts = append(parts, t.Name)
		}
	}
	return TextResult(strings.Join(parts, JoinSeparator))
}

func resolveThemeOption(ctx context.Context, s *Scope, opts *Options) Result {
	key := opts.Get(OptKey)
	if key == "" {
		return TextResult(opts.Get(OptDefault))
	}
	v, err := s.Host.ThemeMod(ctx, key)
	if err != nil {
		s.lookupFailed(EntityThemeMod, err)
		return TextResult(opts.Get(OptDefault))
	}
	return TextResult(v)
}
