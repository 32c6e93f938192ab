package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastui/internal/placement"
)

var placementsCmd = &cobra.Command{
	Use:   "placements",
	Short: "List placements and the direction toasts swipe away in",
	RunE:  runPlacements,
}

func init() {
	rootCmd.AddCommand(placementsCmd)
}

func runPlacements(cmd *cobra.Command, args []string) error {
	current := cfg.Placement()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLACEMENT\tAXIS\tLTR\tRTL\t")
	for _, p := range placement.All() {
		name := p.String()
		if p == current {
			name += " *"
		}
		axis := placement.AxisFor(p)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", name, axis,
			describe(axis.Resolve(placement.LTR)),
			describe(axis.Resolve(placement.RTL)),
		)
	}
	return w.Flush()
}

// describe names the physical travel of a vector.
func describe(v placement.Vector) string {
	switch {
	case v.X > 0:
		return "right"
	case v.X < 0:
		return "left"
	case v.Y > 0:
		return "down"
	case v.Y < 0:
		return "up"
	case v.Horizontal && v.Vertical:
		return "any"
	case v.Horizontal:
		return "left/right"
	default:
		return "up/down"
	}
}
