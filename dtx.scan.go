package dtx

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Form is a stored contact form whose body holds form-tags.
type Form struct {
	ID    int    `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Body  string `yaml:"body" json:"body"`
}

// FormSource lists every stored form.
type FormSource interface {
	Forms(ctx context.Context) ([]*Form, error)
}

var (
	// dynamicFormTag matches form-tags such as [dynamic_text* name "value"]
	dynamicFormTag = regexp.MustCompile(`\[\s*dynamic_[a-z_]+\*?(?:\s[^\]]*)?\]`)
	// quotedValue matches the double quoted values of a form-tag
	quotedValue = regexp.MustCompile(`"([^"]*)"`)
)

// ScanFinding is one protected key referenced by a form but not allowed.
type ScanFinding struct {
	FormID    int          `json:"form_id" yaml:"form_id"`
	FormTitle string       `json:"form_title" yaml:"form_title"`
	Domain    AccessDomain `json:"domain" yaml:"domain"`
	Key       string       `json:"key" yaml:"key"`
	Tag       string       `json:"tag" yaml:"tag"`
	Raw       string       `json:"raw" yaml:"raw"`
}

// ScanResult is the outcome of a maintenance scan.
type ScanResult struct {
	Status   ScanStatus
	Previous ScanStatus
	Forms    int
	Findings []ScanFinding
	// Problems aggregates form-tags whose shortcode had to be repaired
	Problems error
}

// DeniedKeys returns the distinct denied keys of domain in first-seen order.
func (r *ScanResult) DeniedKeys(domain AccessDomain) []string {
	var keys []string
	seen := make(map[string]struct{})
	for _, f := range r.Findings {
		if f.Domain != domain {
			continue
		}
		if _, ok := seen[f.Key]; ok {
			continue
		}
		seen[f.Key] = struct{}{}
		keys = append(keys, f.Key)
	}
	return keys
}

// Scanner checks stored forms for protected keys the access settings deny
// and records whether an administrator needs to act.
type Scanner struct {
	forms   FormSource
	storage SettingsStorage
	logger  *zap.Logger
}

// NewScanner creates a scanner. A nil logger disables logging.
func NewScanner(forms FormSource, storage SettingsStorage, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		forms:   forms,
		storage: storage,
		logger:  logger,
	}
}

// Scan walks every form, collects the protected keys its dynamic form-tags
// reference, and persists the resulting ScanStatus.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	if s.forms == nil {
		return nil, NewScanError(ErrMsgScanNoForms, nil)
	}
	if s.storage == nil {
		return nil, NewScanError(ErrMsgScanNoStorage, nil)
	}

	settings, err := s.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	forms, err := s.forms.Forms(ctx)
	if err != nil {
		return nil, NewScanError(ErrMsgScanListForms, err)
	}

	s.logger.Info(LogMsgScanStart, zap.Int(LogFieldForms, len(forms)))

	policies := settings.Policies()
	result := &ScanResult{
		Previous: settings.ScanStatus,
		Forms:    len(forms),
	}
	for _, form := range forms {
		findings, problems := scanForm(form, policies)
		result.Findings = append(result.Findings, findings...)
		if problems != nil {
			s.logger.Warn(LogMsgScanFormProblem, zap.Int(LogFieldFormID, form.ID), zap.Error(problems))
			result.Problems = multierr.Append(result.Problems, NewScanFormProblem(form.ID, problems))
		}
	}

	result.Status = nextScanStatus(settings.ScanStatus, len(result.Findings) > 0)
	settings.ScanStatus = result.Status
	if err := s.storage.Save(ctx, settings); err != nil {
		return nil, err
	}

	s.logger.Info(LogMsgScanComplete,
		zap.String(LogFieldStatus, string(result.Status)),
		zap.Int(LogFieldFindings, len(result.Findings)))
	return result, nil
}

// AllowFindings adds every denied key of result to the allow-lists and
// scans again, completing the intervention.
func (s *Scanner) AllowFindings(ctx context.Context, result *ScanResult) (*ScanResult, error) {
	if s.storage == nil {
		return nil, NewScanError(ErrMsgScanNoStorage, nil)
	}
	settings, err := s.storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	for _, domain := range []AccessDomain{DomainPostMeta, DomainUserData} {
		if keys := result.DeniedKeys(domain); len(keys) > 0 {
			settings.AddAllowedKeys(domain, keys...)
		}
	}
	if err := s.storage.Save(ctx, settings); err != nil {
		return nil, err
	}
	return s.Scan(ctx)
}

// nextScanStatus derives the new status from the previous one.
func nextScanStatus(previous ScanStatus, denied bool) ScanStatus {
	switch {
	case denied:
		return ScanStatusRequired
	case previous == ScanStatusRequired, previous == ScanStatusCompleted:
		return ScanStatusCompleted
	default:
		return ScanStatusNotRequired
	}
}

// scanForm returns the denied keys of one form plus any parse problems of
// shortcodes that read protected keys.
func scanForm(form *Form, policies *AccessPolicies) ([]ScanFinding, error) {
	var (
		findings []ScanFinding
		problems error
	)
	for _, formTag := range dynamicFormTag.FindAllString(form.Body, -1) {
		for _, m := range quotedValue.FindAllStringSubmatch(formTag, -1) {
			raw := strings.TrimSpace(m[1])
			if raw == "" {
				continue
			}
			outcome := ParseOutcome(raw)
			domain, key, ok := protectedKey(outcome.Shortcode)
			if !ok {
				continue
			}
			if !outcome.OK() {
				problems = multierr.Append(problems, multierr.Combine(outcome.Problems...))
			}
			if key == "" || policies.IsAllowed(key, domain) {
				continue
			}
			findings = append(findings, ScanFinding{
				FormID:    form.ID,
				FormTitle: form.Title,
				Domain:    domain,
				Key:       key,
				Tag:       outcome.Shortcode.Tag(),
				Raw:       raw,
			})
		}
	}
	return findings, problems
}

// protectedKey reports the gated key a shortcode reads, if any.
func protectedKey(sc *ParsedShortcode) (AccessDomain, string, bool) {
	attrs := sc.Attributes()
	switch {
	case strings.EqualFold(sc.Tag(), TagNameCustomField):
		return DomainPostMeta, attrs.GetDefault(OptKey, ""), true
	case strings.EqualFold(sc.Tag(), TagNameCurrentUser):
		return DomainUserData, attrs.GetDefault(OptKey, DefaultCurrentUserKey), true
	default:
		return "", "", false
	}
}
