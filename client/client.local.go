// Package client mirrors the rendering side of dynamic form fields: the
// tags that only depend on the visitor's own request are resolved locally,
// everything else is deferred and fetched from the batch endpoint in a
// single coalesced request.
package client

import (
	"context"
	"strings"

	dtx "github.com/itsatony/go-dtx"
)

// clientSafeTags can be answered from the page request alone.
var clientSafeTags = []string{
	dtx.TagNameGet,
	dtx.TagNameURL,
	dtx.TagNameReferrer,
	dtx.TagNameCookie,
	dtx.TagNameGUID,
}

// IsClientSafe reports whether tag can be resolved without the server.
func IsClientSafe(tag string) bool {
	for _, t := range clientSafeTags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Local resolves client-safe tags against the page request.
type Local struct {
	engine  *dtx.Engine
	request *dtx.Request
}

// NewLocal creates a local resolver for the page described by req.
func NewLocal(req *dtx.Request, opts ...dtx.Option) (*Local, error) {
	engine, err := dtx.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Local{engine: engine, request: req}, nil
}

// Resolve resolves raw when its tag is client-safe. The boolean is false
// for any other input, which must then be deferred to a Batcher.
func (l *Local) Resolve(ctx context.Context, raw string, multiline bool) (string, bool) {
	parsed := dtx.Parse(raw)
	if parsed.IsEmpty() || !IsClientSafe(parsed.Tag()) {
		return "", false
	}
	return l.engine.ResolveShortcode(ctx, raw, dtx.NewScope(l.request, nil, nil), multiline)
}
