package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"

	dtx "github.com/itsatony/go-dtx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// multiFlag collects a repeatable string flag
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// siteFlags are shared by the commands that resolve against a site
type siteFlags struct {
	fixture  string
	storage  string
	dsn      string
	pageURL  string
	referrer string
	logLevel string
	cookies  multiFlag
	form     multiFlag
}

func (f *siteFlags) register(fs *flag.FlagSet, defaultLogLevel string) {
	fs.StringVar(&f.fixture, FlagFixture, "", "")
	fs.StringVar(&f.fixture, FlagFixtureShort, "", "")
	fs.StringVar(&f.storage, FlagStorage, FlagDefaultStorage, "")
	fs.StringVar(&f.storage, FlagStorageShort, FlagDefaultStorage, "")
	fs.StringVar(&f.dsn, FlagDSN, "", "")
	fs.StringVar(&f.pageURL, FlagURL, "", "")
	fs.StringVar(&f.pageURL, FlagURLShort, "", "")
	fs.StringVar(&f.referrer, FlagReferrer, "", "")
	fs.StringVar(&f.logLevel, FlagLogLevel, defaultLogLevel, "")
	fs.Var(&f.cookies, FlagCookie, "")
	fs.Var(&f.form, FlagForm, "")
}

// request builds the page request described by the flags
func (f *siteFlags) request() (*dtx.Request, error) {
	req := &dtx.Request{
		Query:    url.Values{},
		Form:     url.Values{},
		Cookies:  make(map[string]string),
		Referrer: f.referrer,
	}
	if f.pageURL != "" {
		u, err := url.Parse(f.pageURL)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgInvalidURL, err)
		}
		req.URL = u
		req.Query = u.Query()
	}
	for _, c := range f.cookies {
		name, value, ok := strings.Cut(c, "=")
		if !ok || name == "" {
			return nil, errors.New(ErrMsgInvalidCookie)
		}
		req.Cookies[name] = value
	}
	for _, field := range f.form {
		name, value, _ := strings.Cut(field, "=")
		req.Form.Add(name, value)
	}
	return req, nil
}

// siteEnv is the opened host, storage and logger of one command run
type siteEnv struct {
	host    *dtx.MemoryHost
	storage dtx.SettingsStorage
	logger  *zap.Logger
}

// openEnv loads the fixture and opens the storage. A memory storage is
// seeded with the fixture's settings.
func openEnv(ctx context.Context, f *siteFlags, stderr io.Writer) (*siteEnv, error) {
	logger, err := newLogger(f.logLevel, stderr)
	if err != nil {
		return nil, err
	}

	var fixture *dtx.SiteFixture
	if f.fixture != "" {
		fixture, err = dtx.LoadSiteFixture(f.fixture)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgLoadFixtureFailed, err)
		}
	}

	storage, err := dtx.OpenStorage(f.storage, f.dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgOpenStorageFailed, err)
	}
	if f.storage == dtx.StorageDriverNameMemory && fixture != nil && fixture.Settings != nil {
		if err := storage.Save(ctx, fixture.Settings); err != nil {
			return nil, multierr.Append(fmt.Errorf("%s: %w", ErrMsgSaveSettingsFailed, err), storage.Close())
		}
	}

	return &siteEnv{
		host:    dtx.NewMemoryHost(fixture),
		storage: storage,
		logger:  logger,
	}, nil
}

// engine creates an engine that records alerts in the env's storage
func (e *siteEnv) engine() (*dtx.Engine, error) {
	return dtx.New(
		dtx.WithLogger(e.logger),
		dtx.WithAlertRecorder(dtx.NewStorageAlerts(e.storage)),
	)
}

// scope loads the current settings into a resolution scope
func (e *siteEnv) scope(ctx context.Context, req *dtx.Request) (*dtx.Scope, error) {
	settings, err := e.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgLoadSettingsFailed, err)
	}
	return dtx.NewScope(req, e.host, settings.Policies()), nil
}

func (e *siteEnv) Close() error {
	return multierr.Combine(e.storage.Close(), e.logger.Sync())
}

// newLogger builds a console logger on w at the named level
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidLogLevel, err)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return errors.New(ErrMsgInvalidFormat)
}
