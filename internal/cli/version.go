package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped with -ldflags "-X .../internal/cli.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the digits version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "digits %s\n", VersionString())
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n  built:  %s\n", Commit, BuildDate)
	},
}

// VersionString is what the health endpoint reports. Builds without ldflags
// fall back to the module version go install recorded.
func VersionString() string {
	v := Version
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			v = info.Main.Version
		}
	}
	return fmt.Sprintf("%s (%s)", v, Commit)
}
