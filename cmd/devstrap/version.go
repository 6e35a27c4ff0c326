package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set through -ldflags "-X main.version=..." by release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildVersion fills in what ldflags left at their defaults from the
// module's embedded build info, so `go install` builds still identify
// themselves.
func buildVersion() (ver, rev, built string) {
	ver, rev, built = version, commit, date
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ver, rev, built
	}
	if ver == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		ver = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && rev == "none":
			rev = s.Value
		case s.Key == "vcs.time" && built == "unknown":
			built = s.Value
		}
	}
	return ver, rev, built
}

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ver, rev, built := buildVersion()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), ver)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "devstrap %s\ncommit: %s\nbuilt: %s\n", ver, rev, built)
			return nil
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version")

	return cmd
}
