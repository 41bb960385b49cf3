package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"talentmatch/internal/verification/models"
	"talentmatch/internal/verification/poller"
	"talentmatch/internal/verification/session"
	"talentmatch/pkg/domain"
)

type beginOptions struct {
	Ref         string
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
	QROut       string
}

// NewBeginCommand starts one verification and blocks until it finishes.
func NewBeginCommand(root *RootOptions) *cobra.Command {
	opts := &beginOptions{}

	cmd := &cobra.Command{
		Use:   "begin",
		Short: "Request a presentation and wait until the wallet answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			pollCfg := poller.Config{
				Interval:    env.cfg.Poll.Interval,
				MaxAttempts: env.cfg.Poll.MaxAttempts,
				Timeout:     env.cfg.Poll.Timeout,
			}
			if cmd.Flags().Changed("interval") {
				pollCfg.Interval = opts.Interval
			}
			if cmd.Flags().Changed("max-attempts") {
				pollCfg.MaxAttempts = opts.MaxAttempts
			}
			if cmd.Flags().Changed("timeout") {
				pollCfg.Timeout = opts.Timeout
			}
			ref := env.cfg.Verifier.Ref
			if opts.Ref != "" {
				ref = opts.Ref
			}

			p := poller.New(env.verifier, pollCfg, poller.WithLogger(env.logger))
			sess := session.New(domain.SlotID("cli"), env.verifier, p,
				session.WithRef(ref),
				session.WithLogger(env.logger),
			)
			defer sess.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			updates, unsubscribe := sess.Subscribe()
			defer unsubscribe()

			req, err := sess.Begin(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if root.Format == "text" {
				fmt.Fprintf(out, "transaction %s (ref %s)\n", req.TransactionID, ref)
			}
			if opts.QROut != "" {
				if err := writeQRCode(opts.QROut, req); err != nil {
					return err
				}
				if root.Format == "text" {
					fmt.Fprintf(out, "scan the QR code written to %s\n", opts.QROut)
				}
			}

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case t, ok := <-updates:
					if !ok {
						return fmt.Errorf("session closed before a result arrived")
					}
					if !t.To.IsTerminal() || t.TransactionID != req.TransactionID {
						continue
					}
					snap := sess.Snapshot()
					if t.To == models.StateFailed {
						return snap.Err
					}
					return printResult(out, root.Format, *snap.Result)
				}
			}
		},
	}

	cmd.Flags().StringVar(&opts.Ref, "ref", "", "verifier policy reference (default VERIFIER_REF)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", poller.DefaultInterval, "delay between polls")
	cmd.Flags().IntVar(&opts.MaxAttempts, "max-attempts", poller.DefaultMaxAttempts, "poll attempts before giving up (0 for no limit)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", poller.DefaultTimeout, "overall verification deadline")
	cmd.Flags().StringVar(&opts.QROut, "qr-out", "", "write the QR image to this file")
	return cmd
}

func writeQRCode(path string, req models.Request) error {
	_, img, err := models.DecodeQRCodeImage(req.QRCodeImage)
	if err != nil {
		return fmt.Errorf("decode QR image: %w", err)
	}
	return os.WriteFile(path, img, 0o600)
}
