package dtx

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AccessDomain names a family of protected keys.
type AccessDomain string

// Access domains
const (
	DomainPostMeta AccessDomain = "post_meta"
	DomainUserData AccessDomain = "user_data"
)

// AccessMode decides how an AccessPolicy treats keys. The zero value denies
// everything, so an unconfigured policy is closed.
type AccessMode int

const (
	// AccessDenyAll denies every key
	AccessDenyAll AccessMode = iota
	// AccessAllowList allows only the listed keys
	AccessAllowList
	// AccessAllowAll allows every key
	AccessAllowAll
)

// Access mode names
const (
	AccessModeNameDenyAll   = "deny_all"
	AccessModeNameAllowList = "allow_list"
	AccessModeNameAllowAll  = "allow_all"
)

// String returns the name of the access mode
func (m AccessMode) String() string {
	switch m {
	case AccessAllowList:
		return AccessModeNameAllowList
	case AccessAllowAll:
		return AccessModeNameAllowAll
	default:
		return AccessModeNameDenyAll
	}
}

// AccessPolicy is the access rule for one domain.
type AccessPolicy struct {
	Mode AccessMode
	Keys map[string]struct{}
}

// AllowListPolicy allows exactly the given keys (case-sensitive).
func AllowListPolicy(keys ...string) AccessPolicy {
	p := AccessPolicy{Mode: AccessAllowList, Keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		p.Keys[k] = struct{}{}
	}
	return p
}

// AllowAllPolicy allows every key.
func AllowAllPolicy() AccessPolicy {
	return AccessPolicy{Mode: AccessAllowAll}
}

// DenyAllPolicy denies every key.
func DenyAllPolicy() AccessPolicy {
	return AccessPolicy{Mode: AccessDenyAll}
}

// IsAllowed reports whether key may be read under this policy.
func (p AccessPolicy) IsAllowed(key string) bool {
	switch p.Mode {
	case AccessAllowAll:
		return true
	case AccessAllowList:
		_, ok := p.Keys[key]
		return ok
	default:
		return false
	}
}

// AccessPolicies holds the policy of every domain. A nil *AccessPolicies
// denies everything.
type AccessPolicies struct {
	PostMeta AccessPolicy
	UserData AccessPolicy
}

// Policy returns the policy for domain. Unknown domains are denied.
func (p *AccessPolicies) Policy(domain AccessDomain) AccessPolicy {
	if p == nil {
		return DenyAllPolicy()
	}
	switch domain {
	case DomainPostMeta:
		return p.PostMeta
	case DomainUserData:
		return p.UserData
	default:
		return DenyAllPolicy()
	}
}

// IsAllowed reports whether key may be read in domain.
func (p *AccessPolicies) IsAllowed(key string, domain AccessDomain) bool {
	return p.Policy(domain).IsAllowed(key)
}

// PoliciesFromSettings derives the access policies from persisted settings:
// an enabled allow-all toggle wins, a non-empty allow-list comes next and
// anything else denies.
func PoliciesFromSettings(s *Settings) *AccessPolicies {
	if s == nil {
		return &AccessPolicies{}
	}
	return &AccessPolicies{
		PostMeta: policyFrom(s.PostMetaAllowAll, s.PostMetaAllowList),
		UserData: policyFrom(s.UserDataAllowAll, s.UserDataAllowList),
	}
}

func policyFrom(allowAll bool, allowList string) AccessPolicy {
	if allowAll {
		return AllowAllPolicy()
	}
	if keys := ParseAllowList(allowList); len(keys) > 0 {
		return AllowListPolicy(keys...)
	}
	return DenyAllPolicy()
}

// ParseAllowList splits a stored allow-list, one key per line. Lines are
// trimmed and blank lines skipped.
func ParseAllowList(text string) []string {
	var keys []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", AllowListSeparator), AllowListSeparator) {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys
}

// Gate applies the access policies during one resolution and reports every
// denial to an AlertRecorder. It never fails the caller.
type Gate struct {
	policies *AccessPolicies
	recorder AlertRecorder
	logger   *zap.Logger
}

// NewGate creates a gate. A nil recorder drops alerts; nil policies deny all.
func NewGate(policies *AccessPolicies, recorder AlertRecorder, logger *zap.Logger) *Gate {
	if recorder == nil {
		recorder = NoOpAlerts{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		policies: policies,
		recorder: recorder,
		logger:   logger,
	}
}

// Check reports whether key may be read in domain. A denial is logged and
// recorded as an access alert carrying the tag and raw shortcode.
func (g *Gate) Check(ctx context.Context, domain AccessDomain, key, tag, raw string) bool {
	if g.policies.IsAllowed(key, domain) {
		return true
	}

	g.logger.Warn(LogMsgAccessDenied,
		zap.String(LogFieldDomain, string(domain)),
		zap.String(LogFieldKey, key),
		zap.String(LogFieldTag, tag))

	alert := NewAccessAlert(domain, key).WithShortcode(tag, raw)
	if err := g.recorder.RecordAccessDenied(ctx, alert); err != nil {
		g.logger.Warn(LogMsgAlertRecordFailed, zap.Error(err))
	}
	return false
}

// AccessAlert is the administrative notice left behind by a denied key.
type AccessAlert struct {
	Domain AccessDomain `json:"domain" yaml:"domain"`
	Key    string       `json:"key" yaml:"key"`
	Tag    string       `json:"tag,omitempty" yaml:"tag,omitempty"`
	Raw    string       `json:"raw,omitempty" yaml:"raw,omitempty"`
	At     time.Time    `json:"at" yaml:"at"`
}

// NewAccessAlert creates an alert for key in domain stamped with the current time.
func NewAccessAlert(domain AccessDomain, key string) *AccessAlert {
	return &AccessAlert{
		Domain: domain,
		Key:    key,
		At:     timeNow(),
	}
}

// WithShortcode records which shortcode triggered the alert.
func (a *AccessAlert) WithShortcode(tag, raw string) *AccessAlert {
	a.Tag = tag
	a.Raw = raw
	return a
}

// DedupKey identifies alerts that count as the same notice.
func (a *AccessAlert) DedupKey() string {
	return string(a.Domain) + AllowListSeparator + a.Key
}

// timeNow is swapped in tests.
var timeNow = func() time.Time { return time.Now().UTC() }
