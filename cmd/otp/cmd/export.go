package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/report"
)

var exportPadsCmd = &cobra.Command{
	Use:   "export-pads <package> <output.xlsx>",
	Short: "Export the pad table of a package",
	Args:  cobra.ExactArgs(2),
	RunE:  runExportPads,
}

func init() {
	rootCmd.AddCommand(exportPadsCmd)
}

func runExportPads(cmd *cobra.Command, args []string) error {
	dst := args[1]
	if !strings.HasSuffix(dst, ".xlsx") {
		return fmt.Errorf("output file name must end in .xlsx")
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

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := report.WritePadTable(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d pad(s) to %s\n", len(p.Pads), dst)
	return nil
}
