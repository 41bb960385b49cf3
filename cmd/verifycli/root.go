package main

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"talentmatch/internal/platform/config"
	"talentmatch/internal/platform/logger"
	"talentmatch/internal/platform/tracer"
	"talentmatch/internal/verification/verifier"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile     string
	VerifierURL string
	Format      string // "text" | "json"
	Verbose     bool
}

var validFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "verifycli",
		Short:         "Begin a wallet verification and wait for the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if !slices.Contains(validFormats, opts.Format) {
				return &usageError{msg: fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats)}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file read before the environment")
	cmd.PersistentFlags().StringVar(&opts.VerifierURL, "verifier-url", "", "override VERIFIER_BASE_URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log poll attempts to stderr")

	cmd.AddCommand(NewBeginCommand(opts))
	cmd.AddCommand(NewReverifyCommand(opts))
	return cmd
}

// environment is what every subcommand builds from the global flags.
type environment struct {
	cfg      config.Config
	logger   *slog.Logger
	verifier *verifier.Client
}

func (o *RootOptions) load(stderr io.Writer) (environment, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return environment{}, err
	}
	if o.VerifierURL != "" {
		cfg.Verifier.BaseURL = o.VerifierURL
	}
	level := "warn"
	if o.Verbose {
		level = "debug"
	}
	return environment{
		cfg:      cfg,
		logger:   logger.NewWithWriter(stderr, level),
		verifier: verifier.New(cfg.Verifier.BaseURL, cfg.Verifier.AccessToken, cfg.Verifier.Timeout,
			verifier.WithTracer(tracer.NewOTel(tracer.WithInstrumentationName("talentmatch/verifycli")))),
	}, nil
}
