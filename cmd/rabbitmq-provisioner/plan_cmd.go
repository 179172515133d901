package main

import (
	"fmt"
	"io"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/provisioner"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/resource"
	"github.com/spf13/cobra"
)

func createPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan ATTR_FILE",
		Short: "Prints the ordered resources a converge would apply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attrs, err := loadAttributes(args[0])
			if err != nil {
				return err
			}
			plan, err := provisioner.BuildPlan(attrs, config.NewConfigHelpers(globalConfig).CacheDir())
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), plan)
			return nil
		},
	}
}

func printPlan(w io.Writer, plan *provisioner.Plan) {
	fmt.Fprintf(w, "Platform: %s %s (%s)\n", plan.Platform.Name, plan.Platform.Version, plan.Family)
	if plan.Artifact.IsRemote() {
		fmt.Fprintf(w, "Package:  %s from %s\n", plan.Artifact.FileName, plan.Artifact.URL)
	} else {
		fmt.Fprintf(w, "Package:  %v from OS repositories\n", plan.Artifact.RepoPackages)
	}
	for i, step := range plan.Steps {
		fmt.Fprintf(w, "%3d  %-10s %-60s %s\n", i+1, step.Phase, resource.ID(step.Resource), step.Resource.Action())
	}
}
