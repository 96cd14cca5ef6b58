package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagen/pkg/cli/internal/output"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show schemagen version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := buildVersion()
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), info)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "schemagen %s (%s, %s)\n", displayVersion(info.Version), info.Commit, info.Date)
		fmt.Fprintf(w, "%s %s/%s\n", info.Go, info.OS, info.Arch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildVersion prefers values injected with -ldflags and falls back to the
// module and VCS stamps of the binary.
func buildVersion() VersionOutput {
	out := VersionOutput{
		Version: Version,
		Commit:  Commit,
		Date:    BuildDate,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}
	if out.Version == "dev" && info.Main.Version != "" {
		out.Version = info.Main.Version
	}
	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}
	if rev := settings["vcs.revision"]; rev != "" && out.Commit == "none" {
		out.Commit = rev
		if settings["vcs.modified"] == "true" {
			out.Commit += "-dirty"
		}
	}
	if t := settings["vcs.time"]; t != "" && out.Date == "unknown" {
		out.Date = t
	}
	return out
}

func displayVersion(v string) string {
	if v == "" || v == "dev" || v == "(devel)" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
