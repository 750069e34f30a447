// Package main provides the feedscan CLI, a set of batch tools for pulling
// engagement and account data out of BlueSky feeds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/blackmichael/bluesky-engagement/internal/batch"
	"github.com/blackmichael/bluesky-engagement/internal/bluesky"
	"github.com/blackmichael/bluesky-engagement/internal/config"
	"github.com/blackmichael/bluesky-engagement/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "feedscan",
		Short:         "Batch tools for BlueSky feed engagement data",
		Long:          "Feedscan reads feeds from a CSV, collects the users that engaged with their recent posts, and writes one CSV record per feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")

	rootCmd.AddCommand(newReactedUsersCmd())
	rootCmd.AddCommand(newLikesCmd())
	rootCmd.AddCommand(newUserDataCmd())

	return rootCmd
}

func setupLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	})
	slog.SetDefault(slog.New(handler))
}

// login loads credentials and returns an authenticated client. Configuration
// problems surface here, before any batch input is touched.
func login(ctx context.Context) (*bluesky.Client, error) {
	// A missing .env is fine; the environment may carry the credentials.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	client := bluesky.NewClient(cfg.PDS)
	if err := client.Login(ctx, cfg.Handle, cfg.AppPassword); err != nil {
		return nil, err
	}
	slog.Info("authenticated", "handle", cfg.Handle, "did", client.DID())
	return client, nil
}

func newReactedUsersCmd() *cobra.Command {
	var (
		input          string
		output         string
		days           int
		replyDepth     int
		includeReposts bool
	)

	cmd := &cobra.Command{
		Use:   "reacted-users",
		Short: "Collect users who liked, reposted, or replied to each feed's recent posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			// Input problems surface before any network call.
			rows, err := batch.ReadFeedRows(input)
			if err != nil {
				return err
			}

			client, err := login(ctx)
			if err != nil {
				return err
			}

			opts := domain.DefaultOptions()
			opts.LookbackDays = days
			opts.ReplyDepth = replyDepth
			opts.IncludeReposts = includeReposts

			svc := domain.NewEngagementService(client, slog.Default())
			runner := batch.NewRunner(svc, slog.Default())
			return runner.RunReactedUsers(ctx, rows, output, opts)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input CSV path")
	cmd.Flags().StringVar(&output, "output", "data/Feed-Reacted Users.csv", "Output CSV path")
	cmd.Flags().IntVar(&days, "days", 7, "Look back N days for posts")
	cmd.Flags().IntVar(&replyDepth, "reply-depth", 6, "Reply thread depth to scan")
	cmd.Flags().BoolVar(&includeReposts, "include-reposts", false, "Include users who reposted posts (disabled by default for speed)")
	cmd.MarkFlagRequired("input")

	return cmd
}

func newLikesCmd() *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:   "likes",
		Short: "Collect users who liked each feed itself",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rows, err := batch.ReadFeedRows(input)
			if err != nil {
				return err
			}

			client, err := login(ctx)
			if err != nil {
				return err
			}

			svc := domain.NewEngagementService(client, slog.Default())
			runner := batch.NewRunner(svc, slog.Default())
			return runner.RunFeedLikers(ctx, rows, output, domain.DefaultOptions().ActorPageSize)
		},
	}

	cmd.Flags().StringVar(&input, "input", "data/feeds.csv", "Input CSV path")
	cmd.Flags().StringVar(&output, "output", "data/Feed-Users Likes.csv", "Output CSV path")

	return cmd
}

func newUserDataCmd() *cobra.Command {
	var (
		input  string
		output string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "user-data",
		Short: "Fetch account details and recent post texts for feed creators",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rows, err := batch.ReadCreatorRows(input)
			if err != nil {
				return err
			}

			client, err := login(ctx)
			if err != nil {
				return err
			}

			runner := batch.NewUserDataRunner(client, slog.Default())
			return runner.Run(ctx, rows, output, limit)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Input CSV path")
	cmd.Flags().StringVar(&output, "output", "", "Output CSV path")
	cmd.Flags().IntVar(&limit, "limit", 15, "Number of recent posts to fetch per account")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}
