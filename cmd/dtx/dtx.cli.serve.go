package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	dtx "github.com/itsatony/go-dtx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// serveFileConfig is the layout of the serve config file
type serveFileConfig struct {
	Listen  string `yaml:"listen"`
	Fixture string `yaml:"fixture"`
	Storage struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"storage"`
	LogLevel        string `yaml:"log_level"`
	MaxBatchEntries int    `yaml:"max_batch_entries"`
	MaxBodyBytes    int64  `yaml:"max_body_bytes"`
}

// serveConfig holds parsed serve command configuration
type serveConfig struct {
	site            siteFlags
	listen          string
	maxBatchEntries int
	maxBodyBytes    int64
}

func runServe(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseServeFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadConfigFailed, err)
		return ExitCodeUsageError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env, err := openEnv(ctx, &cfg.site, stderr)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgOpenStorageFailed, err)
		return ExitCodeInputError
	}
	defer env.Close()

	engine, err := dtx.New(
		dtx.WithLogger(env.logger),
		dtx.WithAlertRecorder(dtx.NewStorageAlerts(env.storage)),
		dtx.WithMaxBatchEntries(cfg.maxBatchEntries),
		dtx.WithMaxBodyBytes(cfg.maxBodyBytes),
	)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEngineFailed, err)
		return ExitCodeError
	}

	ln, err := net.Listen("tcp", cfg.listen)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgServeFailed, err)
		return ExitCodeError
	}
	fmt.Fprintf(stdout, TextServeListening, ln.Addr())

	if err := serve(ctx, ln, newServeHandler(engine, env.host, env.storage), env.logger); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgServeFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

// newServeHandler routes the batch endpoint and the health check
func newServeHandler(engine *dtx.Engine, host dtx.Host, settings dtx.SettingsLoader) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(ServeBatchPath, engine.BatchHandler(host, settings))
	mux.HandleFunc(ServeHealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// serve runs the server on ln until ctx is done, then shuts it down
func serve(ctx context.Context, ln net.Listener, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: ServeReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(LogMsgServeStart, zap.String(LogFieldAddr, ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ServeShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	logger.Info(LogMsgServeStop)
	return err
}

func parseServeFlags(args []string) (*serveConfig, error) {
	fs := flag.NewFlagSet(CmdNameServe, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &serveConfig{}
	var configPath string
	cfg.site.register(fs, ServeLogLevel)
	fs.StringVar(&cfg.listen, FlagListen, FlagDefaultListen, "")
	fs.StringVar(&cfg.listen, FlagListenShort, FlagDefaultListen, "")
	fs.StringVar(&configPath, FlagConfig, "", "")
	fs.StringVar(&configPath, FlagConfigShort, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var file serveFileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	apply := func(dst *string, value string, names ...string) {
		if value == "" {
			return
		}
		for _, n := range names {
			if set[n] {
				return
			}
		}
		*dst = value
	}
	apply(&cfg.listen, file.Listen, FlagListen, FlagListenShort)
	apply(&cfg.site.fixture, file.Fixture, FlagFixture, FlagFixtureShort)
	apply(&cfg.site.storage, file.Storage.Driver, FlagStorage, FlagStorageShort)
	apply(&cfg.site.dsn, file.Storage.DSN, FlagDSN)
	apply(&cfg.site.logLevel, file.LogLevel, FlagLogLevel)
	cfg.maxBatchEntries = file.MaxBatchEntries
	cfg.maxBodyBytes = file.MaxBodyBytes
	return cfg, nil
}
