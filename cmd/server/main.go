package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/config"
	"github.com/AnshRaj112/patience-portal/internal/logger"
)

const serviceName = "patience-portal"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "La Patience TV subscriber portal backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				// A missing .env is normal in containers.
				fmt.Fprintln(os.Stderr, "No .env file found")
			}
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.Environment, Level: cfg.LogLevel, ServiceName: serviceName})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.L().Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the PostgreSQL tables, sequences and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), cfg)
		},
	}

	var seedFile string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load zones, bouquets and subscribers from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seedFile == "" {
				return fmt.Errorf("--file is required")
			}
			return runSeed(cmd.Context(), cfg, seedFile, cmd.OutOrStdout())
		},
	}
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML fixtures file")

	var (
		activityPhone string
		activityLimit int64
	)
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent portal activity for a phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if activityPhone == "" {
				return fmt.Errorf("--phone is required")
			}
			return runActivity(cmd.Context(), cfg, activityPhone, activityLimit, cmd.OutOrStdout())
		},
	}
	activityCmd.Flags().StringVar(&activityPhone, "phone", "", "Subscriber phone number, any format")
	activityCmd.Flags().Int64Var(&activityLimit, "limit", 50, "Maximum entries to show")

	var unblockIP string
	unblockCmd := &cobra.Command{
		Use:   "unblock-ip",
		Short: "Lift a rate-limit block on an IP address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if unblockIP == "" {
				return fmt.Errorf("--ip is required")
			}
			return runUnblock(cmd.Context(), cfg, unblockIP, cmd.OutOrStdout())
		},
	}
	unblockCmd.Flags().StringVar(&unblockIP, "ip", "", "Blocked client IP")

	root.AddCommand(serveCmd, migrateCmd, seedCmd, activityCmd, unblockCmd)
	return root
}

// failed logs err and returns it wrapped with msg.
func failed(msg string, err error) error {
	logger.L().Error(msg, zap.Error(err))
	return fmt.Errorf("%s: %w", msg, err)
}
