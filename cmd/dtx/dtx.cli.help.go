package main

import (
	"fmt"
	"io"
)

var helpTexts = map[string]string{
	CmdNameResolve:  HelpResolveUsage,
	CmdNameParse:    HelpParseUsage,
	CmdNameScan:     HelpScanUsage,
	CmdNameSettings: HelpSettingsUsage,
	CmdNameServe:    HelpServeUsage,
	CmdNameShell:    HelpShellUsage,
	CmdNameVersion:  HelpVersionUsage,
	CmdNameHelp:     HelpHelpUsage,
}

func runHelp(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeSuccess
	}

	cmd := args[0]
	text, ok := helpTexts[cmd]
	if !ok {
		fmt.Fprintf(stdout, FmtErrorWithDetail, ErrMsgUnknownCommand, cmd)
		fmt.Fprintln(stdout, HelpMainUsage)
		return ExitCodeUsageError
	}
	fmt.Fprintln(stdout, text)
	return ExitCodeSuccess
}
