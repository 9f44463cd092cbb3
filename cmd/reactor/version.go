package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd(a *app) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the reactor CLI.`,
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				a.printf("%s\n", version)
				return
			}

			a.printf("  Version:    %s\n", version)
			a.printf("  Commit:     %s\n", commit)
			a.printf("  Built:      %s\n", date)
			a.printf("  Go version: %s\n", runtime.Version())
			a.printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
