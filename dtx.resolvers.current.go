package dtx

import (
	"context"
	"path"
	"strconv"
	"strings"
)

// resolveCurrentVar reads a value from whatever the page represents.
func resolveCurrentVar(ctx context.Context, s *Scope, opts *Options) Result {
	key := opts.Get(OptKey)
	if key == "" {
		return EmptyResult()
	}

	obj, err := s.Host.QueriedObject(ctx)
	if err != nil {
		s.lookupFailed(EntityQueriedObject, err)
		obj = UnknownContext{}
	}

	switch o := obj.(type) {
	case UserContext:
		if o.User == nil {
			return EmptyResult()
		}
		return currentUserContextValue(ctx, s, o.User, key)
	case PostContext:
		if o.Post == nil {
			return EmptyResult()
		}
		return currentPostContextValue(ctx, s, o.Post, key)
	case TermContext:
		if o.Term == nil {
			return EmptyResult()
		}
		return currentTermContextValue(ctx, s, o.Term, key)
	case ArchiveContext:
		if key == CurrentKeyTitle {
			return TextResult(o.Title)
		}
		// anything else is answered like an unclassified page
		return defaultContextValue(s, key, "")
	case UnknownContext:
		return defaultContextValue(s, key, o.DocumentTitle)
	default:
		return defaultContextValue(s, key, "")
	}
}

func currentUserContextValue(ctx context.Context, s *Scope, user *User, key string) Result {
	switch key {
	case CurrentKeyImage, CurrentKeyFeaturedImage:
		return URLResult(user.AvatarURL, nil)
	}
	if !s.Allowed(ctx, DomainUserData, key) {
		return EmptyResult()
	}
	return userValueResult(ctx, s, user, key)
}

func currentPostContextValue(ctx context.Context, s *Scope, post *Post, key string) Result {
	switch key {
	case CurrentKeyImage, CurrentKeyFeaturedImage:
		if post.ThumbnailID <= 0 {
			return EmptyResult()
		}
		return attachmentURLResult(ctx, s, post.ThumbnailID, DefaultAttachmentSize)
	case CurrentKeyTerms:
		return termsResult(ctx, s, post.ID, DefaultTaxonomy, TaxonomyFieldsNames)
	case CurrentKeySlug:
		return TextResult(post.Name)
	case CurrentKeyTitle:
		return TextResult(post.Title)
	case CurrentKeyACFID:
		return RawResult(strconv.Itoa(post.ID))
	}
	if field, ok := canonicalPostField(key); ok {
		v, _ := post.Field(field)
		return TextResult(v)
	}
	if !s.Allowed(ctx, DomainPostMeta, key) {
		return EmptyResult()
	}
	return postMetaResult(ctx, s, post.ID, key)
}

func currentTermContextValue(ctx context.Context, s *Scope, term *Term, key string) Result {
	switch key {
	case CurrentKeyTitle:
		return TextResult(term.Name)
	case CurrentKeySlug:
		return TextResult(term.Slug)
	case CurrentKeyACFID:
		return RawResult(term.Taxonomy + KeyPartSeparator + strconv.Itoa(term.ID))
	case CurrentKeyDescription:
		return TextResult(term.Description)
	case CurrentKeyCount:
		return RawResult(strconv.Itoa(term.Count))
	case CurrentKeyID:
		return RawResult(strconv.Itoa(term.ID))
	}
	v, err := s.Host.TermMeta(ctx, term.ID, key)
	if err != nil {
		s.lookupFailed(EntityTermMeta, err)
		return EmptyResult()
	}
	return TextResult(v)
}

// defaultContextValue answers slug from the request path and title from
// the document title; every other key is empty.
func defaultContextValue(s *Scope, key, documentTitle string) Result {
	switch key {
	case CurrentKeySlug:
		return Result{Value: lastPathSegment(s.Request), Sanitize: SanitizeSlug, Hint: EscapeText}
	case CurrentKeyTitle:
		return TextResult(documentTitle)
	default:
		return EmptyResult()
	}
}

func lastPathSegment(req *Request) string {
	if req == nil || req.URL == nil {
		return ""
	}
	p := strings.TrimRight(req.URL.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}
