package main

import (
	"github.com/spf13/cobra"
)

var (
	flagJSON  bool
	flagDebug bool

	rootCmd = &cobra.Command{
		Use:   "matcher",
		Short: "matcher recomputes the task/seeker ranking cache",
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "verbose/debug output")
	rootCmd.AddCommand(runCmd)
}
