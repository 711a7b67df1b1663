package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "districtrisk-cli",
		Short:         "Query district service-stress risk from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newStatesCmd(),
		newTopCmd(),
		newHotspotsCmd(),
		newTrendCmd(),
		newExportCmd(),
	)
	return rootCmd
}
