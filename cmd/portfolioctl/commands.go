package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	portfolio "github.com/arkadas/portfolio-api"
	"github.com/arkadas/portfolio-api/internal/config"
	"github.com/arkadas/portfolio-api/internal/seed"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Administer a portfolio API data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "path to configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(newBackupCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))

	return cmd
}

func newBackupCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage store backups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Snapshot the store into a new backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, db *portfolio.Portfolio) error {
				res, err := db.Backups().Create(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("created %s (%s)\n", res.Filename, humanize.IBytes(uint64(res.SizeBytes)))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backup files, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, db *portfolio.Portfolio) error {
				list, err := db.Backups().List()
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Println("no backups found")
					return nil
				}
				for _, info := range list {
					fmt.Printf("%s  %8s  %s\n", info.CreatedAt.Format(time.RFC3339),
						humanize.IBytes(uint64(info.SizeBytes)), info.Filename)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <filename>",
		Short: "Replace the store's state with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, db *portfolio.Portfolio) error {
				res, err := db.Backups().Restore(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Printf("restored %s (integrity check %s", args[0], res.IntegrityCheck)
				if res.SafetyBackup != "" {
					fmt.Printf(", safety backup %s", res.SafetyBackup)
				}
				fmt.Println(")")
				return nil
			})
		},
	})

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups beyond the retention count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, db *portfolio.Portfolio) error {
				deleted, kept, err := db.Backups().Prune(keep)
				if err != nil {
					return err
				}
				fmt.Printf("deleted %d, kept %d\n", deleted, kept)
				return nil
			})
		},
	}
	prune.Flags().IntVar(&keep, "keep", 5, "number of newest backups to keep")
	cmd.AddCommand(prune)

	return cmd
}

func newSeedCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with sample portfolio content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(opts, func(ctx context.Context, db *portfolio.Portfolio) error {
				res, err := seed.Apply(ctx, db.Store(), slog.Default())
				if err != nil {
					return err
				}
				fmt.Printf("seeded %d projects, %d experience entries, %d skills\n",
					res.Projects, res.Experience, res.Skills)
				return nil
			})
		},
	}
}

// withService opens the configured store, runs fn, and closes everything
// again. Commands stay short-lived so the server can take the directory back.
func withService(opts *rootOptions, fn func(ctx context.Context, db *portfolio.Portfolio) error) error {
	logLevel := slog.LevelWarn
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	conf, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	db, err := portfolio.New(portfolio.Config{
		DataDir:         conf.DataDir,
		BackupDir:       conf.BackupDir,
		Backend:         conf.Storage.Backend,
		MinimumFreeGB:   conf.Storage.MinimumFreeGB,
		CompressBackups: conf.Backups.Compress,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.Start(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		_ = db.Close(closeCtx)
	}()

	return fn(ctx, db)
}
