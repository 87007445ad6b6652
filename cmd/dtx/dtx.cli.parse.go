package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
	dtx "github.com/itsatony/go-dtx"
)

// parseConfig holds parsed parse command configuration
type parseConfig struct {
	format    string
	dump      bool
	shortcode string
}

// parseAttr is one attribute in JSON output
type parseAttr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// parseOutput is the JSON form of a parse result
type parseOutput struct {
	Tag        string      `json:"tag"`
	Attributes []parseAttr `json:"attributes"`
	Canonical  string      `json:"canonical"`
	Problems   []string    `json:"problems,omitempty"`
}

func runParse(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseParseFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingShortcode, err)
		return ExitCodeUsageError
	}

	result := dtx.ParseOutcome(cfg.shortcode)
	if cfg.dump {
		spew.Fdump(stdout, result)
		return ExitCodeSuccess
	}

	sc := result.Shortcode
	if cfg.format == OutputFormatJSON {
		out := parseOutput{Tag: sc.Tag(), Canonical: sc.String(), Attributes: []parseAttr{}}
		for _, k := range sc.Attributes().Keys() {
			v, _ := sc.Attributes().Get(k)
			out.Attributes = append(out.Attributes, parseAttr{Key: k, Value: v})
		}
		for _, p := range result.Problems {
			out.Problems = append(out.Problems, p.Error())
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
			return ExitCodeError
		}
		fmt.Fprintln(stdout, string(data))
	} else {
		fmt.Fprintf(stdout, TextParseTag, sc.Tag())
		for _, k := range sc.Attributes().Keys() {
			v, _ := sc.Attributes().Get(k)
			fmt.Fprintf(stdout, TextParseAttr, k, v)
		}
		for _, p := range result.Problems {
			fmt.Fprintf(stdout, TextParseProblem, p)
		}
	}

	if !result.OK() {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}

func parseParseFlags(args []string) (*parseConfig, error) {
	fs := flag.NewFlagSet(CmdNameParse, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &parseConfig{}
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.BoolVar(&cfg.dump, FlagDump, false, "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := checkFormat(cfg.format, OutputFormatText, OutputFormatJSON); err != nil {
		return nil, err
	}

	cfg.shortcode = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if cfg.shortcode == "" {
		return nil, errors.New(ErrMsgMissingShortcode)
	}
	return cfg, nil
}
