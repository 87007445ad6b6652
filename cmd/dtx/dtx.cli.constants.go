package main

import "time"

// Command names
const (
	CmdNameResolve  = "resolve"
	CmdNameParse    = "parse"
	CmdNameScan     = "scan"
	CmdNameSettings = "settings"
	CmdNameServe    = "serve"
	CmdNameShell    = "shell"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Settings subcommands
const (
	SettingsCmdShow        = "show"
	SettingsCmdAllow       = "allow"
	SettingsCmdRevoke      = "revoke"
	SettingsCmdAllowAll    = "allow-all"
	SettingsCmdDenyAll     = "deny-all"
	SettingsCmdAlerts      = "alerts"
	SettingsCmdClearAlerts = "clear-alerts"
)

// Flag names - long form
const (
	FlagFixture   = "fixture"
	FlagStorage   = "storage"
	FlagDSN       = "dsn"
	FlagURL       = "url"
	FlagReferrer  = "referrer"
	FlagCookie    = "cookie"
	FlagForm      = "form"
	FlagMultiline = "multiline"
	FlagFormat    = "format"
	FlagLogLevel  = "log-level"
	FlagDump      = "dump"
	FlagAllow     = "allow"
	FlagDomain    = "domain"
	FlagConfig    = "config"
	FlagListen    = "listen"
)

// Flag names - short form
const (
	FlagFixtureShort = "x"
	FlagStorageShort = "s"
	FlagURLShort     = "u"
	FlagFormatShort  = "F"
	FlagConfigShort  = "c"
	FlagListenShort  = "l"
)

// Flag default values
const (
	FlagDefaultStorage  = "memory"
	FlagDefaultFormat   = "text"
	FlagDefaultLogLevel = "error"
	FlagDefaultDomain   = "post_meta"
	FlagDefaultListen   = ":8080"
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Server settings
const (
	ServeBatchPath         = "/dtx/batch"
	ServeHealthPath        = "/healthz"
	ServeReadHeaderTimeout = 5 * time.Second
	ServeShutdownTimeout   = 10 * time.Second
	ServeLogLevel          = "info"
)

// Shell settings
const (
	ShellPrompt          = "dtx> "
	ShellInterruptPrompt = "^C"
	ShellEOFPrompt       = "exit"
	ShellCmdQuit         = ":quit"
	ShellCmdTags         = ":tags"
	ShellCmdParse        = ":parse"
	ShellCmdHelp         = ":help"
	ShellHelp            = "Enter a shortcode to resolve it.\n  :tags          list tags\n  :parse <code>  show parsed attributes\n  :quit          exit"
)

// Error messages - ALL must be constants
const (
	ErrMsgUnknownCommand     = "unknown command"
	ErrMsgMissingShortcode   = "shortcode required"
	ErrMsgMissingFixture     = "site fixture required"
	ErrMsgLoadFixtureFailed  = "failed to load site fixture"
	ErrMsgOpenStorageFailed  = "failed to open settings storage"
	ErrMsgLoadSettingsFailed = "failed to load settings"
	ErrMsgSaveSettingsFailed = "failed to save settings"
	ErrMsgScanFailed         = "form scan failed"
	ErrMsgInvalidFormat      = "invalid output format"
	ErrMsgInvalidURL         = "invalid page URL"
	ErrMsgInvalidCookie      = "invalid cookie, want name=value"
	ErrMsgInvalidDomain      = "invalid access domain"
	ErrMsgInvalidLogLevel    = "invalid log level"
	ErrMsgUnknownSettingsCmd = "unknown settings command"
	ErrMsgMissingKeys        = "at least one key required"
	ErrMsgReadConfigFailed   = "failed to read config file"
	ErrMsgServeFailed        = "server failed"
	ErrMsgShellFailed        = "shell failed"
	ErrMsgEngineFailed       = "failed to create engine"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgListAlertsFailed   = "failed to list alerts"
)

// Output text
const (
	TextScanStatus     = "Status: %s (previously %s)\n"
	TextScanForms      = "Forms scanned: %d\n"
	TextScanFinding    = "  form %d (%s): %s key %q denied in %s\n"
	TextScanProblems   = "Problems: %v\n"
	TextParseTag       = "tag: %s\n"
	TextParseAttr      = "  %s = %q\n"
	TextParseProblem   = "problem: %v\n"
	TextAlertLine      = "%s  %s  %s  %s\n"
	TextServeListening = "listening on %s\n"
	TextNone           = "(none)"
)

// Log messages
const (
	LogMsgServeStart = "batch server starting"
	LogMsgServeStop  = "batch server stopped"
	LogFieldAddr     = "addr"
)

// Help text templates
const (
	HelpMainUsage = `go-dtx - dynamic form field value CLI

Usage:
    dtx <command> [options]

Commands:
    resolve     Resolve a shortcode against a site fixture
    parse       Show how a shortcode is parsed
    scan        Scan stored forms for protected keys
    settings    Inspect or change access settings
    serve       Serve the batch lookup endpoint
    shell       Resolve shortcodes interactively
    version     Show version information
    help        Show help for a command

Use "dtx help <command>" for more information about a command.`

	HelpResolveUsage = `Resolve a shortcode against a site fixture

Usage:
    dtx resolve [options] <shortcode>

Options:
    -x, --fixture <file>    Site fixture (YAML)
    -s, --storage <driver>  Settings storage driver (default: memory)
    --dsn <string>          Storage connection string
    -u, --url <url>         Page URL (query string feeds CF7_GET)
    --referrer <url>        Referring URL
    --cookie <name=value>   Cookie, repeatable
    --form <name=value>     Posted form field, repeatable
    --multiline             Resolve for a textarea
    --log-level <level>     debug, info, warn, error (default: error)

Examples:
    dtx resolve -u 'https://example.com/?foo=bar' "CF7_GET key='foo'"
    dtx resolve -x site.yaml -s filesystem --dsn ./state "CF7_get_custom_field key='color'"`

	HelpParseUsage = `Show how a shortcode is parsed

Usage:
    dtx parse [options] <shortcode>

Options:
    -F, --format <format>   Output format: text, json (default: text)
    --dump                  Dump the parsed structure`

	HelpScanUsage = `Scan stored forms for protected keys

Usage:
    dtx scan [options]

Options:
    -x, --fixture <file>    Site fixture with forms (YAML)
    -s, --storage <driver>  Settings storage driver (default: memory)
    --dsn <string>          Storage connection string
    --allow                 Add every denied key to the allow-lists
    -F, --format <format>   Output format: text, json (default: text)`

	HelpSettingsUsage = `Inspect or change access settings

Usage:
    dtx settings <show|allow|revoke|allow-all|deny-all|alerts|clear-alerts> [options] [keys...]

Options:
    -s, --storage <driver>  Settings storage driver (default: memory)
    --dsn <string>          Storage connection string
    --domain <domain>       post_meta or user_data (default: post_meta)

Examples:
    dtx settings show -s filesystem --dsn ./state
    dtx settings allow -s filesystem --dsn ./state --domain user_data first_name last_name`

	HelpServeUsage = `Serve the batch lookup endpoint

Usage:
    dtx serve [options]

Options:
    -c, --config <file>     YAML config file
    -l, --listen <addr>     Listen address (default: :8080)
    -x, --fixture <file>    Site fixture (YAML)
    -s, --storage <driver>  Settings storage driver (default: memory)
    --dsn <string>          Storage connection string
    --log-level <level>     debug, info, warn, error (default: info)`

	HelpShellUsage = `Resolve shortcodes interactively

Usage:
    dtx shell [options]

Options:
    -x, --fixture <file>    Site fixture (YAML)
    -s, --storage <driver>  Settings storage driver (default: memory)
    --dsn <string>          Storage connection string
    -u, --url <url>         Page URL`

	HelpVersionUsage = `Show version information

Usage:
    dtx version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    dtx help [command]`
)

// Version output format templates
const (
	VersionTextTemplate = "go-dtx version %s\nCommit: %s\nBranch: %s\nBuilt: %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)
