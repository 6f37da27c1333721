package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/ballast/internal/compose"
	"github.com/cameronsjo/ballast/internal/diff"
	"github.com/cameronsjo/ballast/internal/ui"
)

var (
	diffSection    string
	diffMemoryOnly bool
	diffByService  bool
)

// diffCmd represents the diff command.
var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two compose files",
	Long: `Compare two compose files and show structural differences,
path by path.

Examples:
  ballast diff compose.yaml compose.new.yaml
  ballast diff -s services.pulsar old.yaml new.yaml
  ballast diff --services --memory-only old.yaml new.yaml`,
	Args: cobra.ExactArgs(2),
	Run:  runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffSection, "section", "s", "", `focus on a subtree (e.g. "services.pulsar")`)
	diffCmd.Flags().BoolVarP(&diffMemoryOnly, "memory-only", "m", false, "only show memory-related changes")
	diffCmd.Flags().BoolVar(&diffByService, "services", false, "show per-service comparison")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	oldDoc, _, err := loadDocument(args[0])
	if err != nil {
		ui.Fatal("%v", err)
	}
	newDoc, _, err := loadDocument(args[1])
	if err != nil {
		ui.Fatal("%v", err)
	}

	ui.Info("Comparing: %s -> %s\n", args[0], args[1])

	if diffByService {
		runServiceDiff(oldDoc, newDoc)
		return
	}

	entries := diff.Compare(oldDoc, newDoc, diffSection)
	if diffMemoryOnly {
		entries = filterMemory(entries)
	}

	printEntries(entries)

	if len(entries) > 0 {
		added, removed, changed := countKinds(entries)
		ui.Info("Total: %d added, %d removed, %d changed", added, removed, changed)
	}
}

func runServiceDiff(oldDoc, newDoc *compose.Document) {
	oldNames := oldDoc.ServiceNames()
	newNames := newDoc.ServiceNames()

	oldSet := make(map[string]bool, len(oldNames))
	for _, n := range oldNames {
		oldSet[n] = true
	}
	newSet := make(map[string]bool, len(newNames))
	for _, n := range newNames {
		newSet[n] = true
	}

	var added, removed, common []string
	for _, n := range newNames {
		if !oldSet[n] {
			added = append(added, n)
		}
	}
	for _, n := range oldNames {
		if !newSet[n] {
			removed = append(removed, n)
		} else {
			common = append(common, n)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	sort.Strings(common)

	if len(added) > 0 || len(removed) > 0 {
		ui.Header("=== Service Changes ===")
		if len(added) > 0 {
			ui.Info("  Added: %s", listOrNone(added))
		}
		if len(removed) > 0 {
			ui.Info("  Removed: %s", listOrNone(removed))
		}
		fmt.Println()
	}

	for _, name := range common {
		entries := diff.Compare(oldDoc, newDoc, "services."+name)
		if diffMemoryOnly {
			entries = filterMemory(entries)
		}
		if len(entries) == 0 {
			continue
		}
		ui.Header("=== %s ===", name)
		printEntries(entries)
	}
}

func filterMemory(entries []diff.Entry) []diff.Entry {
	var out []diff.Entry
	for _, e := range entries {
		if diff.MemoryRelated(e.Path) {
			out = append(out, e)
		}
	}
	return out
}

func printEntries(entries []diff.Entry) {
	var added, removed, changed []diff.Entry
	for _, e := range entries {
		switch e.Kind {
		case diff.Added:
			added = append(added, e)
		case diff.Removed:
			removed = append(removed, e)
		default:
			changed = append(changed, e)
		}
	}

	if len(removed) > 0 {
		ui.Header("=== Removed ===")
		for _, e := range removed {
			ui.Red.Printf("  - %s: %s\n", e.Path, formatValue(e.Old))
		}
		fmt.Println()
	}
	if len(added) > 0 {
		ui.Header("=== Added ===")
		for _, e := range added {
			ui.Green.Printf("  + %s: %s\n", e.Path, formatValue(e.New))
		}
		fmt.Println()
	}
	if len(changed) > 0 {
		ui.Header("=== Changed ===")
		for _, e := range changed {
			ui.Yellow.Printf("  ~ %s:\n", e.Path)
			fmt.Printf("      %s -> %s\n", formatValue(e.Old), formatValue(e.New))
		}
		fmt.Println()
	}

	if len(entries) == 0 {
		ui.Info("No differences found.")
	}
}

func countKinds(entries []diff.Entry) (added, removed, changed int) {
	for _, e := range entries {
		switch e.Kind {
		case diff.Added:
			added++
		case diff.Removed:
			removed++
		default:
			changed++
		}
	}
	return added, removed, changed
}
