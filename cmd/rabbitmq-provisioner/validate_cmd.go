package main

import (
	"fmt"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config"
	"github.com/open-edge-platform/rabbitmq-provisioner/internal/config/validate"
	"github.com/spf13/cobra"
)

var printSchema bool

func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] ATTR_FILE",
		Short: "Checks an attribute file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE:  executeValidate,
	}
	validateCmd.Flags().BoolVar(&printSchema, "schema", false,
		"Print the attribute JSON schema and exit")
	return validateCmd
}

func executeValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if printSchema {
		_, err := out.Write(validate.AttributesSchema())
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("validate requires an attribute file")
	}

	attrs, err := config.LoadAttributes(args[0])
	if err != nil {
		return err
	}
	for _, w := range attrs.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	fmt.Fprintf(out, "%s is valid\n", args[0])
	return nil
}
