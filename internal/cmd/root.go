// Package cmd provides the CLI commands for ballast.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

const version = "0.3.0"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ballast",
	Short: "Trim the memory ballast of docker-compose manifests",
	Long: `ballast - trim the memory ballast of docker-compose manifests

Adjust declared memory allocations, shed reservations, jettison
optional subsystems, and diff manifest versions. Edits preserve key
order, comments, and indentation.

TUNING
  trim <preset> [file]  Apply a stack preset (cassandra, pulsar, qdrant)
    --limit, -l         Memory limit override
    --reservation, -r   Memory reservation override
    --heap              JVM heap override (cassandra)
  shed [file]           Scale all memory reservations by a factor
    --factor, -f        Reduction factor (default 0.5)
    --min-memory, -m    Floor in MB (default 32)
  jettison [file]       Remove the monitoring stack (grafana, prometheus, loki)
    --keep-volumes      Keep volume definitions

COMPARISON
  diff <old> <new>      Show structural differences between two manifests
    --section, -s       Focus on one subtree (e.g. "services.pulsar")
    --memory-only, -m   Only memory-related changes
    --services          Per-service comparison

All mutating commands accept --dry-run/-n (report changes, write
nothing) and --diff/-d (show a unified diff of the pending edit).
When [file] is omitted, the nearest well-known compose file is used.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate("ballast version {{.Version}}\n")
}
