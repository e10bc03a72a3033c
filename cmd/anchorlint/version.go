package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build metadata injected via ldflags. When a value is absent it is recovered
// from the build info the Go linker embeds in the binary.
var (
	version = ""
	commit  = ""
	date    = ""
)

// versionInfo is the resolved build metadata for this binary.
type versionInfo struct {
	version string
	commit  string
	date    string
}

// resolveVersion merges ldflags values with debug.ReadBuildInfo, preferring
// ldflags.
func resolveVersion() versionInfo {
	info := versionInfo{version: version, commit: commit, date: date}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.version == "" {
			info.version = bi.Main.Version
		}
		for _, setting := range bi.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.commit == "" {
					info.commit = shortRevision(setting.Value)
				}
			case "vcs.time":
				if info.date == "" {
					info.date = setting.Value
				}
			}
		}
	}

	return info.withDefaults()
}

// withDefaults fills any still-unknown field with its placeholder.
func (v versionInfo) withDefaults() versionInfo {
	if v.version == "" {
		v.version = "(devel)"
	}
	if v.commit == "" {
		v.commit = "unknown"
	}
	if v.date == "" {
		v.date = "unknown"
	}
	return v
}

// shortRevision abbreviates a VCS revision to the conventional short form.
func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getVersion returns the version string for the root command.
func getVersion() string {
	return resolveVersion().version
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of anchorlint.`,
		Run: func(cmd *cobra.Command, _ []string) {
			info := resolveVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "anchorlint %s (commit %s, built %s)\n",
				info.version, info.commit, info.date)
		},
	}
}
