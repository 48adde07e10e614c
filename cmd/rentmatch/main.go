// Command rentmatch runs the RentMatch marketplace core service and its
// operational tooling.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rentmatch",
		Short:         "Reverse rental marketplace core service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "YAML config file (default rentmatch.yaml)")
	root.PersistentFlags().String("env-file", "", "dotenv file (default .env)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newNotificationsCmd(),
	)
	return root
}
