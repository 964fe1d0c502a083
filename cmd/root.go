// Package cmd provides the hermes command-line interface.
package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hermes/bootstrap"
	"hermes/config"
)

// Version is the hermes release version, overridable at build time with
// -ldflags "-X hermes/cmd.Version=...".
var Version = "0.7.0"

var errorColor = color.New(color.FgRed, color.Bold)

// NewRootCmd builds the hermes root command. Flags feed configuration
// resolution; --version prints the program name and version and exits before
// any configuration is loaded or socket bound.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		port       int
		verbose    int
		quiet      int
	)

	rootCmd := &cobra.Command{
		Use:           "hermes",
		Short:         "hermes host event tracker server",
		Long:          "hermes tracks events that happen to hosts and serves them over an HTTP API.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := bootstrap.Options{
				ConfigPath: configPath,
				Verbose:    verbose,
				Quiet:      quiet,
				Version:    Version,
			}
			// Apply the port override only when the flag was explicitly
			// supplied; the default must not clobber the file value.
			if cmd.Flags().Changed("port") {
				opts.Overrides = config.Overrides{Port: port, PortSet: true}
			}

			app, err := bootstrap.NewApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return app.Run(cmd.Context())
		},
	}

	rootCmd.SetVersionTemplate("hermes version {{.Version}}\n")

	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the server configuration file")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "Override the configured listen port")
	rootCmd.Flags().CountVarP(&verbose, "verbose", "v", "Increase logging verbosity (repeatable)")
	rootCmd.Flags().CountVarP(&quiet, "quiet", "q", "Decrease logging verbosity (repeatable)")

	return rootCmd
}

// PrintFatal writes a fatal startup error to stderr.
func PrintFatal(err error) {
	errorColor.Fprintf(color.Error, "Error: %v\n", err)
}
