package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	configPath string
	verbose    bool
	dryRun     bool
	noColor    bool
}

func newRootCmd(envFactory environmentFactory) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "devstrap",
		Short:         "devstrap provisions a Debian-family developer workstation",
		Long:          "devstrap installs packages, vendor repositories, services, shell setup and developer tools.\nRunning it again only does what is still missing.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, flags, envFactory)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a configuration file (defaults to the built-in workstation)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "Probe every step and show what would change")
	cmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newApplyCmd(flags, envFactory))
	cmd.AddCommand(newVerifyCmd(flags, envFactory))
	cmd.AddCommand(newPlanCmd(flags, envFactory))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
