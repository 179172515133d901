package main

import (
	"fmt"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/brokerconf"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/spf13/cobra"
)

var renderFile string

func createRenderCommand() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render [flags] ATTR_FILE",
		Short: "Prints a rendered configuration file without touching the host",
		Args:  cobra.ExactArgs(1),
		RunE:  executeRender,
	}
	renderCmd.Flags().StringVar(&renderFile, "file", "config",
		"File to render: env, config, default or forceyes")
	return renderCmd
}

func executeRender(cmd *cobra.Command, args []string) error {
	attrs, err := config.LoadAttributes(args[0])
	if err != nil {
		return err
	}

	var content []byte
	switch renderFile {
	case "env":
		content = brokerconf.RenderEnv(attrs)
	case "config":
		content = brokerconf.RenderConfig(attrs)
	case "default":
		content = brokerconf.RenderDefault(attrs)
	case "forceyes":
		content = brokerconf.RenderAptForceYes()
	default:
		return fmt.Errorf("invalid --file %q (expected env|config|default|forceyes)", renderFile)
	}
	_, err = cmd.OutOrStdout().Write(content)
	return err
}
