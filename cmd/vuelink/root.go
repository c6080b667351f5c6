package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/user/vuelink/vuelog"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "vuelink",
	Short: "Offline BLE-advertisement mesh messaging for flight-ops events",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		vuelog.SetLevel(vuelog.ParseLevel(logLevel))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "trace, debug, info, warn, or error")
}
