// Package main is the planreview CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/cli"
	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/inbox"
	"github.com/hyperjump/planreview/internal/library"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/server"
	"github.com/hyperjump/planreview/internal/service"
	"github.com/hyperjump/planreview/internal/standards"
	"github.com/hyperjump/planreview/internal/storage"
	"github.com/hyperjump/planreview/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/planreview/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory wins if present, and a missing default file yields the
// built-in defaults. Returns the config and the path actually loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "review":
		runReview()
	case "points":
		runPoints()
	case "rules":
		runRules()
	case "version", "--version", "-v":
		fmt.Printf("planreview version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, true)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()
	svc := components.Service

	var box *inbox.Inbox
	if cfg.Inbox.Directory != "" {
		box = inbox.New(cfg.Inbox.Directory, cfg.Inbox.Extensions, func(ctx context.Context, path string) {
			if _, err := svc.ReviewInbox(ctx, path); err != nil {
				logger.Warn("inbox review failed", zap.String("path", path), zap.Error(err))
			}
		}, inbox.WithLogger(logger))
	}
	inboxCtx, inboxCancel := context.WithCancel(context.Background())
	defer inboxCancel()
	if box != nil {
		if err := box.Start(inboxCtx); err != nil {
			logger.Fatal("Failed to start inbox", zap.Error(err))
		}
		logger.Info("watching inbox", zap.String("dir", box.Dir()))
	}

	srv := server.NewServer(svc, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	inboxCancel()
	if box != nil {
		box.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// flagsFirst moves any flags (and their values) that appear after the
// positional arguments to the front, since flag.Parse stops at the first
// non-flag argument. "planreview review plan.docx -format json" then parses
// the same as "planreview review -format json plan.docx".
func flagsFirst(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runReview() {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	formatFlag := fs.String("format", "text", "report format: text, json, or pdf")
	outPath := fs.String("out", "", "write the report to this file instead of stdout")
	projectName := fs.String("name", "", "project name shown in the report (default: file name)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: planreview review [flags] <file>\n\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(flagsFirst(os.Args[2:]))

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	format, err := report.ParseFormat(*formatFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v; use text, json, or pdf\n", err)
		os.Exit(1)
	}
	if format == report.FormatPDF && *outPath == "" {
		fmt.Fprintln(os.Stderr, "PDF reports need -out")
		os.Exit(1)
	}

	components, logger := mustComponents(*configPath)
	defer logger.Sync()
	defer components.Close()

	var w io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", *outPath, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	res, err := writeReview(w, components.Service, fs.Arg(0), *projectName, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Review failed: %v\n", err)
		os.Exit(1)
	}
	if *outPath != "" {
		cli.WriteReviewSummary(os.Stdout, *outPath, res.Report)
	}
}

// writeReview reviews the file at path and writes the report in format.
func writeReview(w io.Writer, svc *service.Service, path, projectName string, format report.Format) (*service.FileReview, error) {
	res, err := svc.ReviewFile(path, projectName)
	if err != nil {
		return nil, err
	}
	if err := svc.Export(res.Report, format, w); err != nil {
		return nil, err
	}
	return res, nil
}

func runPoints() {
	fs := flag.NewFlagSet("points", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lib, err := loadLibrary(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load review points: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WritePoints(os.Stdout, lib, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRules() {
	fs := flag.NewFlagSet("rules", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	components, logger := mustComponents(*configPath)
	defer logger.Sync()
	defer components.Close()

	if err := cli.WriteRules(os.Stdout, components.Service.Engine().Rules(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// Components holds the long-lived objects behind a command.
type Components struct {
	Storage   *storage.SQLiteStorage
	Standards *standards.Index
	Service   *service.Service
}

func (c *Components) Close() {
	if c.Standards != nil {
		_ = c.Standards.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// mustComponents loads config and builds components for a one-shot command.
// The standards index is skipped so the command can run next to a server
// holding the index open.
func mustComponents(configPath string) (*Components, *zap.Logger) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	return components, logger
}

func loadLibrary(cfg *config.Config) (*library.Library, error) {
	if cfg.Review.LibraryPath == "" {
		return library.Default()
	}
	return library.Load(cfg.Review.LibraryPath)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger, withStandards bool) (*Components, error) {
	lib, err := loadLibrary(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load review points: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c := &Components{Storage: store}

	opts := []service.Option{service.WithLogger(logger)}
	if withStandards {
		idx, err := standards.NewIndex(cfg.Storage.StandardsIndexPath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize standards index: %w", err)
		}
		c.Standards = idx
		opts = append(opts, service.WithStandardsIndex(idx))
	}

	svc, err := service.New(cfg, store, lib, opts...)
	if err != nil {
		c.Close()
		return nil, err
	}
	if err := svc.LoadRules(context.Background()); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	c.Service = svc
	logger.Info("components initialized",
		zap.String("library_version", lib.Version()),
		zap.Int("rules", len(svc.Engine().Rules())),
		zap.Bool("standards_index", c.Standards != nil),
		zap.Bool("ai_rule_generation", cfg.LLM.Enabled()),
	)
	return c, nil
}

func printUsage() {
	fmt.Println(`planreview - Construction technical proposal review

Usage:
  planreview server [flags]            Start the HTTP server
  planreview review [flags] <file>     Review a proposal file and print the report
  planreview points [flags]            Show the review-point library
  planreview rules [flags]             Show the active pattern rules
  planreview version                   Show version
  planreview help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/planreview/config.yaml)
  --debug            Enable debug logging

Review Flags:
  --config string    Config file path
  --format string    Report format: text, json, or pdf (default: text)
  --out string       Write the report to a file; required for pdf
  --name string      Project name shown in the report (default: file name)

Points/Rules Flags:
  --config string    Config file path
  --output string    Output format: text or json (default: text)

Examples:
  planreview server
  planreview review 施工方案.docx
  planreview review -format pdf -out report.pdf 施工方案.docx
  planreview rules --output json`)
}
