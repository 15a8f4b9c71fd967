package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
)

var checkCmd = &cobra.Command{
	Use:   "check [package...]",
	Short: "Check packages for warnings",
	Long: `Loads each package, computes its derived state and reports its
warnings. Without arguments every package of the pool is checked.
The command fails when any package has warnings or cannot be loaded.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	targets := args
	if len(targets) == 0 {
		for _, id := range dir.PackageIDs() {
			targets = append(targets, id.String())
		}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, arg := range targets {
		p, err := loadPackage(dir, arg)
		if err != nil {
			fmt.Fprintf(out, "✗ %s: %v\n", arg, err)
			failed++
			continue
		}
		if n := checkPackage(p); n > 0 {
			fmt.Fprintf(out, "✗ %s: %d warning(s)\n", p.Name, n)
			for _, w := range p.Warnings {
				fmt.Fprintf(out, "    (%s, %s) %s\n", mm(w.Position.X), mm(w.Position.Y), w.Text)
			}
			failed++
			continue
		}
		fmt.Fprintf(out, "✓ %s\n", p.Name)
	}

	fmt.Fprintf(out, "\nChecked %d package(s), %d with problems\n", len(targets), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d packages have problems", failed, len(targets))
	}
	return nil
}

func checkPackage(p *footprint.Package) int {
	p.Expand()
	p.UpdateWarnings()
	return len(p.Warnings)
}
