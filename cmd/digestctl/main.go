// digestctl drives one-off digest builds from the terminal: preview the
// push text without sending, or run a full build-push-record cycle.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"campusdigest/config"
	"campusdigest/internal/app"
	"campusdigest/internal/util"
	"campusdigest/pkg/logger"
)

var (
	configPath string
	asJSON     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "digestctl",
		Short:         "Build and inspect campus daily digests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "path to config.yaml")

	previewCmd := &cobra.Command{
		Use:   "preview",
		Short: "Build a digest and print it without pushing",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := assemble(app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			d, err := a.Runner.Today(ctx)
			if err != nil {
				return fmt.Errorf("build digest: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			fmt.Println(d.PushText)
			return nil
		},
	}
	previewCmd.Flags().BoolVar(&asJSON, "json", false, "print the full digest record as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Build a digest, send the push, and record it",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, log, err := assemble(app.Options{WithHistory: true, WithEvents: true, WithPush: true})
			if err != nil {
				return err
			}
			defer a.Close()
			defer log.Sync()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			result, err := a.Runner.RunNow(ctx)
			if err != nil {
				return fmt.Errorf("run digest: %w", err)
			}

			fmt.Printf("digest %s built: %d tasks, %d mails\n",
				result.Digest.ID, len(result.Digest.Tasks), result.Digest.Buckets.Total())
			if result.PushSent {
				fmt.Println("push sent")
			} else if result.PushError != "" {
				fmt.Printf("push not sent: %s\n", result.PushError)
			} else {
				fmt.Println("push skipped (no notifier configured)")
			}
			return nil
		},
	}

	hashCmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash to store as auth.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := util.HashPassword(args[0])
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Println(hash)
			return nil
		},
	}

	rootCmd.AddCommand(previewCmd, runCmd, hashCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func assemble(opts app.Options) (*app.App, *zap.Logger, error) {
	log := logger.NewLogger(os.Getenv("APP_MODE"))

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(cfg, opts, log)
	if err != nil {
		return nil, nil, err
	}
	return a, log, nil
}
