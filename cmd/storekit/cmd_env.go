package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// storekit env <path>
var envCmd = &cobra.Command{
	Use:   "env <path>",
	Short: "Print the resolved credentials of a store as KEY=value lines",
	Long:  "Print the environment a child process needs to reach the store serving <path>, e.g. eval $(storekit env s3://bucket).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		m, err := openManager(ctx, args[0])
		if err != nil {
			return err
		}
		defer m.Close()

		env, err := m.Environ(ctx)
		if err != nil {
			return err
		}
		for _, kv := range env {
			fmt.Fprintln(cmd.OutOrStdout(), kv)
		}
		return nil
	},
}
