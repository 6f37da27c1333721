package cmd

import (
	"github.com/spf13/cobra"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/patch"
	"github.com/cameronsjo/ballast/internal/tune"
	"github.com/cameronsjo/ballast/internal/ui"
)

var (
	trimLimit       string
	trimReservation string
	trimHeap        string
	trimDryRun      bool
	trimShowDiff    bool
)

// trimCmd represents the trim command.
var trimCmd = &cobra.Command{
	Use:   "trim <preset> [file]",
	Short: "Apply a stack tuning preset",
	Long: `Apply a memory tuning preset to a compose file.

Presets set deploy.resources.limits/reservations and the environment
variables that keep the stack's own processes inside those limits:

  cassandra   600M/500M plus a 200M JVM heap via JVM_OPTS
  qdrant      600M/500M plus mmap storage settings
  pulsar      per-service targets for zookeeper, bookie, pulsar,
              pulsar-init (no overrides)

Examples:
  ballast trim cassandra
  ballast trim cassandra -l 800M -r 600M --heap 300M stack/compose.yaml
  ballast trim pulsar --dry-run --diff`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runTrim,
}

func init() {
	trimCmd.Flags().StringVarP(&trimLimit, "limit", "l", tune.DefaultLimit, "memory limit")
	trimCmd.Flags().StringVarP(&trimReservation, "reservation", "r", tune.DefaultReservation, "memory reservation")
	trimCmd.Flags().StringVar(&trimHeap, "heap", tune.DefaultHeap, "JVM heap size (cassandra preset)")
	trimCmd.Flags().BoolVarP(&trimDryRun, "dry-run", "n", false, "show changes without modifying the file")
	trimCmd.Flags().BoolVarP(&trimShowDiff, "diff", "d", false, "show a unified diff of the edit")

	rootCmd.AddCommand(trimCmd)
}

func runTrim(cmd *cobra.Command, args []string) {
	preset, err := tune.Lookup(args[0], trimLimit, trimReservation, trimHeap)
	if err != nil {
		ui.Fatal("%v", err)
	}

	file, err := resolveComposeFile(args[1:])
	if err != nil {
		ui.Fatal("%v", err)
	}

	doc, before, err := loadDocument(file)
	if err != nil {
		ui.Fatal("%v", err)
	}
	if _, err := doc.Services(); err != nil {
		ui.Fatal("%v", err)
	}

	edits, skipped := preset.Edits(doc)
	for _, name := range skipped {
		ui.Warning("Service %q not found in compose file (skipping)", name)
	}
	if len(edits) == 0 {
		ui.Warning("Nothing to tune: no %s services present", preset.Name)
		return
	}

	for _, t := range preset.Services {
		if doc.HasService(t.Service) {
			ui.Info("Updating %s...", t.Service)
		}
	}

	changes, err := patch.Apply(doc, edits)
	if err != nil {
		ui.Fatal("%v", err)
	}
	printChanges(changes)

	after, err := doc.Marshal()
	if err != nil {
		ui.Fatal("%v", err)
	}

	if trimShowDiff {
		printUnifiedDiff(file, before, after)
	}

	if trimDryRun {
		ui.Warning("Dry run - no changes written")
		return
	}

	if err := writeDocument(file, after); err != nil {
		ui.Fatal("%v", err)
	}
	ui.Success("Updated %s", file)
	printManifestName(before)
}

// printManifestName mentions the compose project name when declared.
func printManifestName(data []byte) {
	meta, err := compose.PeekMeta(data)
	if err != nil || meta.Name == "" {
		return
	}
	ui.Info("Project: %s", meta.Name)
}
