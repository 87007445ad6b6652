package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// resolveConfig holds parsed resolve command configuration
type resolveConfig struct {
	site      siteFlags
	multiline bool
	shortcode string
}

func runResolve(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseResolveFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingShortcode, err)
		return ExitCodeUsageError
	}
	req, err := cfg.site.request()
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidURL, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	env, err := openEnv(ctx, &cfg.site, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStorageFailed, err)
		return ExitCodeInputError
	}
	defer env.Close()

	engine, err := env.engine()
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}
	scope, err := env.scope(ctx, req)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgLoadSettingsFailed, err)
		return ExitCodeError
	}

	var value string
	if cfg.multiline {
		var ok bool
		if value, ok = engine.ResolveShortcode(ctx, cfg.shortcode, scope, true); !ok {
			value = cfg.shortcode
		}
	} else {
		value = engine.ResolveDefaultValue(ctx, cfg.shortcode, scope)
	}

	fmt.Fprintln(stdout, value)
	return ExitCodeSuccess
}

func parseResolveFlags(args []string) (*resolveConfig, error) {
	fs := flag.NewFlagSet(CmdNameResolve, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &resolveConfig{}
	cfg.site.register(fs, FlagDefaultLogLevel)
	fs.BoolVar(&cfg.multiline, FlagMultiline, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.shortcode = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cfg.shortcode == "" {
		return nil, errors.New(ErrMsgMissingShortcode)
	}
	return cfg, nil
}
