// Command edged is the host process for the plugin runtime kernel: it
// parses flags and configuration, builds a logger, and drives
// lifecycle.Application through a run. Grounded on go-lynx's
// cmd/lynx/main.go command-tree shape (root command + subcommands, version
// wired from -ldflags).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// release is overwritten at build time via:
//
//	go build -ldflags "-X main.release=$(git describe --tags)"
var release = "dev"

var (
	flagLogLevel    string
	flagLogFile     string
	flagChromeTrace string
	flagTracy       bool
)

var rootCmd = &cobra.Command{
	Use:     "edged",
	Short:   "edged: a plugin-oriented edge agent runtime kernel",
	Long:    "edged hosts and supervises a fixed set of in-process plugins, routing typed messages between them over a directory of named addresses.",
	Version: release,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "off|trace|debug|info|warn|error (default: EDGED_LOG, else info)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "path to a rotating log file, in addition to console output")
	rootCmd.PersistentFlags().StringVar(&flagChromeTrace, "chrome-trace", "", "write a Chrome Trace Event Format file of kernel spans to this path")
	rootCmd.PersistentFlags().BoolVar(&flagTracy, "tracy", false, "write kernel spans to stderr in Chrome Trace Event Format when --chrome-trace is not set")

	rootCmd.AddCommand(runCmd, validateConfigCmd, getPluginKindsCmd, docCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
