package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	dtx "github.com/itsatony/go-dtx"
	"go.uber.org/multierr"
)

// scanConfig holds parsed scan command configuration
type scanConfig struct {
	site   siteFlags
	allow  bool
	format string
}

// scanOutput is the JSON form of a scan result
type scanOutput struct {
	Status   dtx.ScanStatus    `json:"status"`
	Previous dtx.ScanStatus    `json:"previous"`
	Forms    int               `json:"forms"`
	Findings []dtx.ScanFinding `json:"findings"`
	Problems []string          `json:"problems,omitempty"`
}

func runScan(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseScanFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingFixture, err)
		return ExitCodeUsageError
	}

	ctx := context.Background()
	env, err := openEnv(ctx, &cfg.site, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStorageFailed, err)
		return ExitCodeInputError
	}
	defer env.Close()

	scanner := dtx.NewScanner(env.host, env.storage, env.logger)
	result, err := scanner.Scan(ctx)
	if err == nil && cfg.allow && len(result.Findings) > 0 {
		result, err = scanner.AllowFindings(ctx, result)
	}
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgScanFailed, err)
		return ExitCodeError
	}

	if cfg.format == OutputFormatJSON {
		out := scanOutput{
			Status:   result.Status,
			Previous: result.Previous,
			Forms:    result.Forms,
			Findings: result.Findings,
		}
		if out.Findings == nil {
			out.Findings = []dtx.ScanFinding{}
		}
		for _, p := range multierr.Errors(result.Problems) {
			out.Problems = append(out.Problems, p.Error())
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
			return ExitCodeError
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		writeScanText(stdout, result)
	}

	if result.Status == dtx.ScanStatusRequired {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func writeScanText(w io.Writer, result *dtx.ScanResult) {
	previous := string(result.Previous)
	if previous == "" {
		previous = TextNone
	}
	fmt.Fprintf(w, TextScanStatus, result.Status, previous)
	fmt.Fprintf(w, TextScanForms, result.Forms)
	for _, f := range result.Findings {
		fmt.Fprintf(w, TextScanFinding, f.FormID, f.FormTitle, f.Domain, f.Key, f.Tag)
	}
	if result.Problems != nil {
		fmt.Fprintf(w, TextScanProblems, result.Problems)
	}
}

func parseScanFlags(args []string) (*scanConfig, error) {
	fs := flag.NewFlagSet(CmdNameScan, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &scanConfig{}
	cfg.site.register(fs, FlagDefaultLogLevel)
	fs.BoolVar(&cfg.allow, FlagAllow, false, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := checkFormat(cfg.format, OutputFormatText, OutputFormatJSON); err != nil {
		return nil, err
	}
	if cfg.site.fixture == "" {
		return nil, errors.New(ErrMsgMissingFixture)
	}
	return cfg, nil
}
