package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	dtx "github.com/itsatony/go-dtx"
)

// lineReader is the part of a readline instance the shell loop uses
type lineReader interface {
	Readline() (string, error)
}

func runShell(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(CmdNameShell, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var site siteFlags
	site.register(fs, FlagDefaultLogLevel)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgShellFailed, err)
		return ExitCodeUsageError
	}
	req, err := site.request()
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidURL, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	env, err := openEnv(ctx, &site, stderr)
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

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ShellPrompt,
		InterruptPrompt: ShellInterruptPrompt,
		EOFPrompt:       ShellEOFPrompt,
		Stdin:           io.NopCloser(stdin),
		Stdout:          stdout,
		Stderr:          stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgShellFailed, err)
		return ExitCodeError
	}
	defer rl.Close()

	if err := shellLoop(ctx, rl, engine, env, req, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgShellFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

// shellLoop resolves one shortcode per line until :quit or end of input.
// Settings are reloaded for every line so changes made elsewhere apply.
func shellLoop(ctx context.Context, in lineReader, engine *dtx.Engine, env *siteEnv, req *dtx.Request, out io.Writer) error {
	for {
		line, err := in.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ShellCmdQuit:
			return nil
		case line == ShellCmdHelp:
			fmt.Fprintln(out, ShellHelp)
		case line == ShellCmdTags:
			for _, tag := range engine.Tags() {
				fmt.Fprintln(out, tag)
			}
		case strings.HasPrefix(line, ShellCmdParse):
			parsed := engine.Parse(strings.TrimSpace(strings.TrimPrefix(line, ShellCmdParse)))
			fmt.Fprintf(out, TextParseTag, parsed.Shortcode.Tag())
			attrs := parsed.Shortcode.Attributes()
			for _, k := range attrs.Keys() {
				v, _ := attrs.Get(k)
				fmt.Fprintf(out, TextParseAttr, k, v)
			}
			for _, p := range parsed.Problems {
				fmt.Fprintf(out, TextParseProblem, p)
			}
		default:
			scope, err := env.scope(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, engine.ResolveDefaultValue(ctx, line, scope))
		}
	}
}
