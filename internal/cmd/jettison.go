package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/patch"
	"github.com/cameronsjo/ballast/internal/tune"
	"github.com/cameronsjo/ballast/internal/ui"
)

var (
	jettisonKeepVolumes bool
	jettisonDryRun      bool
	jettisonShowDiff    bool
)

// jettisonCmd represents the jettison command.
var jettisonCmd = &cobra.Command{
	Use:   "jettison [file]",
	Short: "Remove the monitoring stack",
	Long: `Remove the monitoring services (grafana, prometheus, loki) and
their volumes from a compose file.

Examples:
  ballast jettison --dry-run
  ballast jettison --keep-volumes stack/compose.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runJettison,
}

func init() {
	jettisonCmd.Flags().BoolVar(&jettisonKeepVolumes, "keep-volumes", false, "keep volume definitions (only remove services)")
	jettisonCmd.Flags().BoolVarP(&jettisonDryRun, "dry-run", "n", false, "show changes without modifying the file")
	jettisonCmd.Flags().BoolVarP(&jettisonShowDiff, "diff", "d", false, "show a unified diff of the edit")

	rootCmd.AddCommand(jettisonCmd)
}

func runJettison(cmd *cobra.Command, args []string) {
	file, err := resolveComposeFile(args)
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

	for _, name := range tune.MonitoringServices {
		if doc.HasService(name) {
			ui.Info("Removing service: %s", name)
		} else {
			ui.Warning("Service %q not found (skipping)", name)
		}
	}

	changes, err := patch.Apply(doc, tune.MonitoringEdits(jettisonKeepVolumes))
	if err != nil {
		ui.Fatal("%v", err)
	}

	var removedServices, removedVolumes []string
	for _, c := range changes {
		p := compose.ParsePath(c.Path)
		if len(p) != 2 {
			continue
		}
		switch p[0] {
		case "services":
			removedServices = append(removedServices, p[1])
		case "volumes":
			removedVolumes = append(removedVolumes, p[1])
			ui.Info("Removing volume: %s", p[1])
		}
	}

	after, err := doc.Marshal()
	if err != nil {
		ui.Fatal("%v", err)
	}
	if jettisonShowDiff {
		printUnifiedDiff(file, before, after)
	}

	if jettisonDryRun {
		ui.Warning("\nDry run - no changes written")
	} else {
		if err := writeDocument(file, after); err != nil {
			ui.Fatal("%v", err)
		}
		ui.Success("Updated %s", file)
	}

	ui.Header("\n=== Summary ===")
	ui.Info("Services removed: %s", listOrNone(removedServices))
	ui.Info("Volumes removed: %s", listOrNone(removedVolumes))
	ui.Info("Estimated memory savings: ~%dM", tune.EstimateSavings(removedServices))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
