package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cameronsjo/ballast/internal/memory"
	"github.com/cameronsjo/ballast/internal/patch"
	"github.com/cameronsjo/ballast/internal/tune"
	"github.com/cameronsjo/ballast/internal/ui"
)

var (
	shedFactor   float64
	shedFloor    int
	shedDryRun   bool
	shedShowDiff bool
)

// shedCmd represents the shed command.
var shedCmd = &cobra.Command{
	Use:   "shed [file]",
	Short: "Scale down all memory reservations",
	Long: `Reduce every service's memory reservation by a factor, keeping
limits unchanged. Services can still burst to their limit; the system
just no longer guarantees the full amount upfront.

Services without a declared reservation are left alone.

Examples:
  ballast shed --dry-run
  ballast shed -f 0.25 -m 64 stack/compose.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runShed,
}

func init() {
	shedCmd.Flags().Float64VarP(&shedFactor, "factor", "f", 0.5, "reduction factor")
	shedCmd.Flags().IntVarP(&shedFloor, "min-memory", "m", memory.DefaultFloor, "minimum reservation in MB")
	shedCmd.Flags().BoolVarP(&shedDryRun, "dry-run", "n", false, "show changes without modifying the file")
	shedCmd.Flags().BoolVarP(&shedShowDiff, "diff", "d", false, "show a unified diff of the edit")

	rootCmd.AddCommand(shedCmd)
}

func runShed(cmd *cobra.Command, args []string) {
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

	edits := tune.ShedEdits(doc, shedFactor, shedFloor)
	changes, err := patch.Apply(doc, edits)
	if err != nil {
		ui.Fatal("%v", err)
	}

	if shedDryRun {
		ui.Warning("Dry run - no changes written\n")
	}

	if len(changes) == 0 {
		ui.Info("No memory reservations found to modify.")
		return
	}

	printReservationTable(changes)

	after, err := doc.Marshal()
	if err != nil {
		ui.Fatal("%v", err)
	}
	if shedShowDiff {
		printUnifiedDiff(file, before, after)
	}

	if !shedDryRun {
		if err := writeDocument(file, after); err != nil {
			ui.Fatal("%v", err)
		}
		ui.Success("Updated %s", file)
	}

	ui.Info("\nReservations reduced by %d%%", int((1-shedFactor)*100))
}

// printReservationTable renders the per-service old/new/saved table
// with totals. Change paths look like
// services.<name>.deploy.resources.reservations.memory.
func printReservationTable(changes []patch.Change) {
	type row struct {
		service string
		old     string
		new     string
		oldMB   int
		newMB   int
	}

	rows := make([]row, 0, len(changes))
	for _, c := range changes {
		segments := strings.Split(c.Path, ".")
		if len(segments) < 2 {
			continue
		}
		oldMB, err := memory.ParseValue(c.Old)
		if err != nil {
			continue
		}
		newMB, err := memory.ParseValue(c.New)
		if err != nil {
			continue
		}
		rows = append(rows, row{
			service: segments[1],
			old:     fmt.Sprintf("%v", c.Old),
			new:     fmt.Sprintf("%v", c.New),
			oldMB:   oldMB,
			newMB:   newMB,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].service < rows[j].service })

	ui.Header("%-30s %10s %10s %10s", "Service", "Old", "New", "Saved")
	fmt.Println(strings.Repeat("-", 62))

	totalOld, totalNew := 0, 0
	for _, r := range rows {
		totalOld += r.oldMB
		totalNew += r.newMB
		fmt.Printf("%-30s %10s %10s %9dM\n", r.service, r.old, r.new, r.oldMB-r.newMB)
	}

	fmt.Println(strings.Repeat("-", 62))
	saved := totalOld - totalNew
	fmt.Printf("%-30s %9dM %9dM %9dM\n", "TOTAL", totalOld, totalNew, saved)
	ui.Info("\nTotal reservation savings: %dM (%.1fG)", saved, float64(saved)/1024)
}
