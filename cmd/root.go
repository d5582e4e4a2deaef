package cmd

import (
	"fmt"
	"github.com/ValentinKolb/rconn/cmd/kv"
	"github.com/ValentinKolb/rconn/cmd/util"
	"github.com/ValentinKolb/rconn/rpc/transport"
	_ "github.com/ValentinKolb/rconn/rpc/transport/std" // built-in drivers
	"github.com/spf13/cobra"
	"io"
	"os"
	"text/tabwriter"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rconn",
		Short: "key-value server connection tool",
		Long: fmt.Sprintf(`rconn (v%s)

A client connection layer for key-value servers speaking the RESP wire
protocol, over tcp, unix sockets and TLS.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rconn",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rconn v%s\n", Version)
		},
	}
	driversCmd = &cobra.Command{
		Use:   "drivers",
		Short: "List the registered connection drivers",
		Long:  `List the registered connection drivers in registration order. The first driver is used when no --driver is given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printDrivers(cmd.OutOrStdout(), transport.Drivers())
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(driversCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("log level (debug, info, warn, error)"))
}

// printDrivers writes one line per driver with its name and capabilities
func printDrivers(w io.Writer, entries []transport.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCAPABILITIES")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\n", entry.Name, entry.Capabilities)
	}
	return tw.Flush()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
