package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/locvowork/employee_proxy/internal/bootstrap"
	"github.com/locvowork/employee_proxy/internal/config"
	"github.com/locvowork/employee_proxy/internal/logger"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "employee-proxy",
		Short:         "REST gateway in front of the upstream employee API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newVersionCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringP("env-file", "e", ".env", "Path to an env file (ignored when missing)")
	cmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides APP_PORT)")
	cmd.Flags().StringP("upstream-url", "u", "", "Upstream employee API base URL (overrides UPSTREAM_BASE_URL)")
	cmd.Flags().StringP("log-level", "l", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger.InitLogging(cfg.LOG_FILE_PATH, cfg.LOG_LEVEL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	app := bootstrap.NewApp(cfg)
	if err := app.Initialize(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize app", err)
		return err
	}
	return app.Run(ctx)
}

// loadConfig reads the env config and applies any flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.EnvConfig, error) {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}
	cfg, err := config.LoadEnvConfig(envFile)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		if cfg.APP_PORT, err = cmd.Flags().GetInt("port"); err != nil {
			return nil, fmt.Errorf("failed to get port flag: %w", err)
		}
	}
	if cmd.Flags().Changed("upstream-url") {
		if cfg.UPSTREAM_BASE_URL, err = cmd.Flags().GetString("upstream-url"); err != nil {
			return nil, fmt.Errorf("failed to get upstream-url flag: %w", err)
		}
	}
	if cmd.Flags().Changed("log-level") {
		if cfg.LOG_LEVEL, err = cmd.Flags().GetString("log-level"); err != nil {
			return nil, fmt.Errorf("failed to get log-level flag: %w", err)
		}
	}
	return cfg, cfg.Validate()
}
