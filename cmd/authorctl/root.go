package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "authorctl",
		Short:         "Course authoring tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newSegmentCommand())
	rootCmd.AddCommand(newAssembleCommand())
	rootCmd.AddCommand(newSlugCommand())
	rootCmd.AddCommand(newImportCommand())

	return rootCmd
}
