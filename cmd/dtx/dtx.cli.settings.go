package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	dtx "github.com/itsatony/go-dtx"
	"gopkg.in/yaml.v3"
)

// settingsConfig holds parsed settings command configuration
type settingsConfig struct {
	site   siteFlags
	action string
	domain dtx.AccessDomain
	keys   []string
}

// settingsView is the YAML form of the stored settings
type settingsView struct {
	PostMeta   domainView     `yaml:"post_meta"`
	UserData   domainView     `yaml:"user_data"`
	ScanStatus dtx.ScanStatus `yaml:"scan_status"`
	UpdatedAt  time.Time      `yaml:"updated_at"`
}

type domainView struct {
	Mode     string   `yaml:"mode"`
	AllowAll bool     `yaml:"allow_all"`
	Keys     []string `yaml:"keys"`
}

func runSettings(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseSettingsFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgUnknownSettingsCmd, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	env, err := openEnv(ctx, &cfg.site, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStorageFailed, err)
		return ExitCodeInputError
	}
	defer env.Close()

	switch cfg.action {
	case SettingsCmdAlerts:
		return listAlerts(ctx, env.storage, stdout, stderr)
	case SettingsCmdClearAlerts:
		if err := env.storage.ClearAlerts(ctx); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgSaveSettingsFailed, err)
			return ExitCodeError
		}
		return ExitCodeSuccess
	}

	settings, err := env.storage.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadSettingsFailed, err)
		return ExitCodeError
	}

	switch cfg.action {
	case SettingsCmdAllow:
		settings.AddAllowedKeys(cfg.domain, cfg.keys...)
	case SettingsCmdRevoke:
		settings.RemoveAllowedKeys(cfg.domain, cfg.keys...)
	case SettingsCmdAllowAll:
		settings.SetAllowAll(cfg.domain, true)
	case SettingsCmdDenyAll:
		settings.SetAllowAll(cfg.domain, false)
		settings.SetAllowList(cfg.domain, nil)
	}

	if cfg.action != SettingsCmdShow {
		if err := env.storage.Save(ctx, settings); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgSaveSettingsFailed, err)
			return ExitCodeError
		}
		if settings, err = env.storage.Load(ctx); err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadSettingsFailed, err)
			return ExitCodeError
		}
	}

	data, err := yaml.Marshal(viewSettings(settings))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	fmt.Fprint(stdout, string(data))
	return ExitCodeSuccess
}

func viewSettings(s *dtx.Settings) settingsView {
	policies := s.Policies()
	view := func(domain dtx.AccessDomain, allowAll bool) domainView {
		keys := s.AllowList(domain)
		if keys == nil {
			keys = []string{}
		}
		return domainView{
			Mode:     policies.Policy(domain).Mode.String(),
			AllowAll: allowAll,
			Keys:     keys,
		}
	}
	return settingsView{
		PostMeta:   view(dtx.DomainPostMeta, s.PostMetaAllowAll),
		UserData:   view(dtx.DomainUserData, s.UserDataAllowAll),
		ScanStatus: s.ScanStatus,
		UpdatedAt:  s.UpdatedAt,
	}
}

func listAlerts(ctx context.Context, storage dtx.SettingsStorage, stdout, stderr io.Writer) int {
	alerts, err := storage.ListAlerts(ctx)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgListAlertsFailed, err)
		return ExitCodeError
	}
	if len(alerts) == 0 {
		fmt.Fprintln(stdout, TextNone)
		return ExitCodeSuccess
	}
	for _, a := range alerts {
		fmt.Fprintf(stdout, TextAlertLine, a.At.Format(time.RFC3339), a.Domain, a.Key, a.Raw)
	}
	return ExitCodeSuccess
}

func parseSettingsFlags(args []string) (*settingsConfig, error) {
	if len(args) == 0 {
		return nil, errors.New(ErrMsgUnknownSettingsCmd)
	}
	cfg := &settingsConfig{action: args[0]}
	switch cfg.action {
	case SettingsCmdShow, SettingsCmdAllow, SettingsCmdRevoke, SettingsCmdAllowAll,
		SettingsCmdDenyAll, SettingsCmdAlerts, SettingsCmdClearAlerts:
	default:
		return nil, errors.New(ErrMsgUnknownSettingsCmd)
	}

	fs := flag.NewFlagSet(CmdNameSettings, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var domain string
	cfg.site.register(fs, FlagDefaultLogLevel)
	fs.StringVar(&domain, FlagDomain, FlagDefaultDomain, "")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}

	d, ok := dtx.ParseAccessDomain(domain)
	if !ok {
		return nil, errors.New(ErrMsgInvalidDomain)
	}
	cfg.domain = d
	cfg.keys = fs.Args()

	if (cfg.action == SettingsCmdAllow || cfg.action == SettingsCmdRevoke) && len(cfg.keys) == 0 {
		return nil, errors.New(ErrMsgMissingKeys)
	}
	return cfg, nil
}
