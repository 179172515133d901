package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Global command flags
var (
	configFile string
	logLevel   string
	verbose    bool
)

var (
	globalConfig = config.DefaultGlobalConfig()
	flushLogger  = func() {}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := createRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	flushLogger()
	if err != nil {
		os.Exit(1)
	}
}

func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rabbitmq-provisioner",
		Short: "Installs and configures a RabbitMQ broker on a Linux host",
		Long: `rabbitmq-provisioner converges a host to the state declared in an
attribute file: it installs Erlang and the RabbitMQ server for the host's
distribution family, writes the broker configuration and optionally enables
and starts the service. Runs are idempotent.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Tool configuration file (default: ./"+config.DefaultGlobalConfigFile+" if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Shorthand for --log-level debug")

	rootCmd.AddCommand(createConvergeCommand())
	rootCmd.AddCommand(createPlanCommand())
	rootCmd.AddCommand(createRenderCommand())
	rootCmd.AddCommand(createValidateCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks loads the tool configuration and initializes logging
// before any subcommand runs.
func attachLoggingHooks(rootCmd *cobra.Command) {
	for _, sub := range rootCmd.Commands() {
		prev := sub.PersistentPreRunE
		sub.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
			if err := initGlobalConfig(cmd); err != nil {
				return err
			}
			if prev != nil {
				return prev(cmd, args)
			}
			return nil
		}
	}
}

func initGlobalConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return err
	}
	globalConfig = cfg

	level := config.NewConfigHelpers(cfg).LogLevel()
	if requested := resolveRequestedLogLevel(cmd); requested != "" {
		level = requested
	}
	flush, err := logger.Init(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	flushLogger = flush
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" to keep the configured one.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed && f.Value.String() == "true" {
		return "debug"
	}
	return ""
}
