package dtx

import (
	"context"
)

func resolveCurrentUser(ctx context.Context, s *Scope, opts *Options) Result {
	key := opts.Get(OptKey)
	if key == "" || !s.Allowed(ctx, DomainUserData, key) {
		return EmptyResult()
	}
	user, err := s.Host.CurrentUser(ctx)
	if err != nil || user == nil {
		if err != nil {
			s.lookupFailed(EntityUser, err)
		}
		return EmptyResult()
	}
	return userValueResult(ctx, s, user, key)
}

// userValueResult reads an already authorized key from a user: an account
// field when key names one, user meta otherwise.
func userValueResult(ctx context.Context, s *Scope, user *User, key string) Result {
	if v, ok := user.Field(key); ok {
		if key == UserFieldURL {
			return URLResult(v, nil)
		}
		if key == UserFieldEmail {
			return Result{Value: v, Sanitize: SanitizeEmail, Hint: EscapeText}
		}
		return TextResult(v)
	}
	v, err := s.Host.UserMeta(ctx, user.ID, key)
	if err != nil {
		s.lookupFailed(EntityUserMeta, err)
		return EmptyResult()
	}
	return TextResult(v)
}
