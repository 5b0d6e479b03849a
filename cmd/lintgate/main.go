package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lintgate/lintgate/internal/adapter/cli"
	"github.com/lintgate/lintgate/internal/config"
	"github.com/lintgate/lintgate/internal/version"
)

func main() {
	err := run()
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrVersionRequested):
	case errors.Is(err, cli.ErrFindingsReported):
		// The findings were already printed; the exit code is the signal.
		os.Exit(1)
	default:
		log.Println(err)
		os.Exit(2)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigFile:  configFlag(os.Args[1:]),
		ConfigPaths: defaultConfigPaths(),
		FileName:    "lintgate",
		EnvPrefix:   "LINTGATE",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	app := newApp(cfg, version.Value())

	root := cli.NewRootCommand(cli.Dependencies{
		Reviewer: app,
		Checker:  app,
		History:  app,
		Defaults: defaultsFromConfig(cfg),
		Version:  version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		if errors.Is(err, cli.ErrFindingsReported) {
			return err
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// configFlag extracts --config from raw arguments. The file has to be
// read before the command tree exists because its values become flag
// defaults; cobra parses the flag again later for help and validation.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
		if strings.HasPrefix(arg, "--config=") {
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lintgate"))
	}
	return paths
}

func defaultsFromConfig(cfg config.Config) cli.Defaults {
	return cli.Defaults{
		Repository:           cfg.GitHub.Repository,
		PullNumber:           cfg.GitHub.PullNumber,
		TidyReview:           cfg.Review.TidyReview,
		FormatReview:         cfg.Review.FormatReview,
		LinesChangedOnly:     cfg.Review.LinesChangedOnly,
		PassiveReviews:       cfg.Review.PassiveReviews,
		NoLGTM:               cfg.Review.NoLGTM,
		SummaryOnly:          cfg.Review.SummaryOnly,
		DeleteReviewComments: cfg.Review.DeleteReviewComments,
		ThreadComments:       threadCommentsDefault(cfg.Review.ThreadComments),
		Style:                cfg.Tools.Style,
		TidyChecks:           cfg.Tools.TidyChecks,
		Jobs:                 cfg.Tools.Jobs,
		Extensions:           cfg.Files.Extensions,
		LogLevel:             cfg.Logging.Level,
		LogFormat:            cfg.Logging.Format,
	}
}

// threadCommentsDefault collapses the tri-state config value into the
// true/false surface the flag documents.
func threadCommentsDefault(value string) string {
	if value == "true" {
		return "true"
	}
	return "false"
}
