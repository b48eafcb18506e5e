package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with the status/start/stop/serve
// subcommands.
func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	serveFlags := &ServeFlags{}
	c := &command{flags: global}

	root := &cobra.Command{
		Use:           "flowctl",
		Short:         "Supervise the long-running services of a workflow deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&global.Home, "home", "", "base directory (defaults to $AIRFLOW_HOME, then ~/airflow)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report up/down for every known service identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Status()
		},
	}

	startCmd := &cobra.Command{
		Use:   "start [service...]",
		Short: "Start services (none given: all host-singleton services)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Start(args)
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop [service...]",
		Short: "Stop services (none given: all host-singleton services)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Stop(args)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose status/start/stop and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Serve(serveFlags)
		},
	}
	serveCmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address (defaults to the configured one)")

	root.AddCommand(statusCmd, startCmd, stopCmd, serveCmd)
	return root
}
