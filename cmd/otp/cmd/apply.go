package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
)

var applyOutput string

var applyCmd = &cobra.Command{
	Use:   "apply <package> [name=value...]",
	Short: "Apply a parameter set to a package",
	Long: `Runs the package and pad parameter programs with the given
parameters. Values are nanometres, or millimetres with an "mm" suffix.

Example:
  otp apply sot23.json courtyard_expansion=0.5mm solder_mask_expansion=0.05mm -o out.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().StringVarP(&applyOutput, "output", "o", "", "write the result to this file")
}

func runApply(cmd *cobra.Command, args []string) error {
	ps := make(parameter.Set)
	for _, a := range args[1:] {
		id, v, err := parameter.ParseAssignment(a)
		if err != nil {
			return err
		}
		ps[id] = v
	}

	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	p, err := loadPackage(dir, args[0])
	if err != nil {
		return err
	}
	if err := p.ApplyParameterSet(ps); err != nil {
		return fmt.Errorf("apply %s: %w", p.Name, err)
	}
	p.Expand()

	out := cmd.OutOrStdout()
	bb := p.BBox()
	fmt.Fprintf(out, "Applied %d parameter(s) to %s\n", len(ps), p.Name)
	fmt.Fprintf(out, "  BBox: (%s, %s) - (%s, %s) mm\n", mm(bb.Min.X), mm(bb.Min.Y), mm(bb.Max.X), mm(bb.Max.Y))

	if applyOutput == "" {
		return nil
	}
	if err := p.Save(applyOutput); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", applyOutput)
	return nil
}
