package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provisioner"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"github.com/spf13/cobra"
)

// Converge command flags
var (
	rootDir     string
	cacheDir    string
	reportDir   string
	metricsFile string
)

func createConvergeCommand() *cobra.Command {
	convergeCmd := &cobra.Command{
		Use:   "converge [flags] ATTR_FILE",
		Short: "Brings the host to the state declared in ATTR_FILE",
		Long: `Converge resolves the package for the host's distribution family,
installs it, writes the broker configuration and, when manage_service is
set, enables and starts the service. Resources already in the desired state
are left untouched. The run stops at the first failing resource.`,
		Args: cobra.ExactArgs(1),
		RunE: executeConverge,
	}

	convergeCmd.Flags().StringVar(&rootDir, "root", "",
		"Converge the system mounted at this path instead of the running host")
	convergeCmd.Flags().StringVar(&cacheDir, "cache-dir", "",
		"Directory for downloaded packages (overrides config file)")
	convergeCmd.Flags().StringVar(&reportDir, "report-dir", "",
		"Directory for the converge report (overrides config file)")
	convergeCmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write Prometheus metrics for the run to this file")
	return convergeCmd
}

// applyConvergeFlags overrides the loaded tool configuration with flags.
func applyConvergeFlags(cfg *config.GlobalConfig) *config.GlobalConfig {
	out := *cfg
	if rootDir != "" {
		out.RootDir = rootDir
	}
	if cacheDir != "" {
		out.CacheDir = cacheDir
	}
	if reportDir != "" {
		out.ReportDir = reportDir
	}
	if metricsFile != "" {
		out.MetricsFile = metricsFile
	}
	return &out
}

func executeConverge(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	helpers := config.NewConfigHelpers(applyConvergeFlags(globalConfig))

	attrs, err := loadAttributes(args[0])
	if err != nil {
		return err
	}
	root, err := helpers.RootDir()
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}

	plan, err := provisioner.BuildPlan(attrs, helpers.CacheDir())
	if err != nil {
		return err
	}
	if plan.Artifact.IsRemote() {
		if err := helpers.CreateCacheDir(root); err != nil {
			return fmt.Errorf("creating cache directory: %w", err)
		}
	}

	prov, err := provisioner.New(plan, root)
	if err != nil {
		return err
	}
	report, convergeErr := prov.Converge(cmd.Context(), plan)

	if err := writeReport(helpers, report); err != nil {
		log.Warnf("failed to write converge report: %v", err)
	}
	if path := helpers.GetConfig().MetricsFile; path != "" {
		if err := prov.Metrics.WriteTextfile(path); err != nil {
			log.Warnf("failed to write metrics to %s: %v", path, err)
		}
	}
	if convergeErr != nil {
		return convergeErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Converged %s on %s: %d/%d resources updated in %s\n",
		attrs.ServiceName, attrs.Platform.Name, report.Updated, len(plan.Steps), report.Duration.Round(time.Millisecond))
	return nil
}

func writeReport(helpers *config.ConfigHelpers, report *provisioner.Report) error {
	if err := helpers.CreateReportDir(); err != nil {
		return err
	}
	dir, err := helpers.ReportDir()
	if err != nil {
		return err
	}
	logger.ReportPath = dir
	logger.GlobalStringListReport.Title = report.RunID

	path, err := logger.WriteReportToFile()
	if err != nil {
		return err
	}
	logger.Logger().Infof("converge report written to %s", filepath.Clean(path))
	return nil
}
