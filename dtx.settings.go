package dtx

import (
	"strings"
	"time"
)

// ScanStatus records whether stored forms need an administrator's attention.
type ScanStatus string

// Scan status values
const (
	// ScanStatusNone means no scan has run yet
	ScanStatusNone ScanStatus = ""
	// ScanStatusNotRequired means every referenced key is allowed or none exist
	ScanStatusNotRequired ScanStatus = "intervention_not_required"
	// ScanStatusRequired means at least one referenced key is denied
	ScanStatusRequired ScanStatus = "intervention_required"
	// ScanStatusCompleted means a required intervention has been resolved
	ScanStatusCompleted ScanStatus = "intervention_completed"
)

// ParseScanStatus maps a stored string to a ScanStatus. Unknown values mean no scan.
func ParseScanStatus(s string) ScanStatus {
	switch ScanStatus(s) {
	case ScanStatusNotRequired, ScanStatusRequired, ScanStatusCompleted:
		return ScanStatus(s)
	default:
		return ScanStatusNone
	}
}

// Settings is the persisted access configuration. Allow-lists are stored as
// text with one key per line, the form administrators edit them in.
type Settings struct {
	PostMetaAllowList string     `json:"post_meta_allow_keys" yaml:"post_meta_allow_keys"`
	UserDataAllowList string     `json:"user_data_allow_keys" yaml:"user_data_allow_keys"`
	PostMetaAllowAll  bool       `json:"post_meta_allow_all" yaml:"post_meta_allow_all"`
	UserDataAllowAll  bool       `json:"user_data_allow_all" yaml:"user_data_allow_all"`
	ScanStatus        ScanStatus `json:"scan_status,omitempty" yaml:"scan_status,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at" yaml:"updated_at"`
}

// DefaultSettings returns settings that deny every protected key.
func DefaultSettings() *Settings {
	return &Settings{}
}

// Clone returns a copy of s.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return DefaultSettings()
	}
	c := *s
	return &c
}

// AllowList returns the stored allow-list of domain.
func (s *Settings) AllowList(domain AccessDomain) []string {
	switch domain {
	case DomainPostMeta:
		return ParseAllowList(s.PostMetaAllowList)
	case DomainUserData:
		return ParseAllowList(s.UserDataAllowList)
	default:
		return nil
	}
}

// SetAllowList replaces the allow-list of domain.
func (s *Settings) SetAllowList(domain AccessDomain, keys []string) {
	text := strings.Join(keys, AllowListSeparator)
	switch domain {
	case DomainPostMeta:
		s.PostMetaAllowList = text
	case DomainUserData:
		s.UserDataAllowList = text
	}
}

// AddAllowedKeys appends keys to the allow-list of domain, skipping keys
// already present.
func (s *Settings) AddAllowedKeys(domain AccessDomain, keys ...string) {
	current := s.AllowList(domain)
	seen := make(map[string]struct{}, len(current))
	for _, k := range current {
		seen[k] = struct{}{}
	}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		current = append(current, k)
	}
	s.SetAllowList(domain, current)
}

// RemoveAllowedKeys drops keys from the allow-list of domain.
func (s *Settings) RemoveAllowedKeys(domain AccessDomain, keys ...string) {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[strings.TrimSpace(k)] = struct{}{}
	}
	var kept []string
	for _, k := range s.AllowList(domain) {
		if _, ok := drop[k]; !ok {
			kept = append(kept, k)
		}
	}
	s.SetAllowList(domain, kept)
}

// SetAllowAll sets the allow-all toggle of domain.
func (s *Settings) SetAllowAll(domain AccessDomain, on bool) {
	switch domain {
	case DomainPostMeta:
		s.PostMetaAllowAll = on
	case DomainUserData:
		s.UserDataAllowAll = on
	}
}

// Policies derives the access policies from s.
func (s *Settings) Policies() *AccessPolicies {
	return PoliciesFromSettings(s)
}

// ParseAccessDomain maps a name to an AccessDomain.
func ParseAccessDomain(name string) (AccessDomain, bool) {
	switch AccessDomain(strings.TrimSpace(name)) {
	case DomainPostMeta:
		return DomainPostMeta, true
	case DomainUserData:
		return DomainUserData, true
	default:
		return "", false
	}
}
