// Command kinesis serves and renders the demo components.
package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/vango-dev/kinesis/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		var ke *errors.KinesisError
		if stderrors.As(err, &ke) {
			fmt.Fprintln(os.Stderr, ke.Format())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts globalOptions

	root := &cobra.Command{
		Use:   "kinesis",
		Short: "Incremental component rendering engine",
		Long: `kinesis mounts components, routes events to their handlers and keeps
a live tree in step with component state without recreating unchanged nodes.

Commands:
  serve    serve a component to browsers over WebSocket
  render   render a component, optionally after scripted events
  version  print build information`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if opts.noColor || os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stderr) {
				errors.DisableColors()
			}
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (default: kinesis.json or kinesis.yaml in the working directory)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored error output")

	root.AddCommand(
		serveCmd(&opts),
		renderCmd(&opts),
		versionCmd(),
	)
	return root
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
