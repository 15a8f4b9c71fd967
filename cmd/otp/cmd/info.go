package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
)

var (
	outputJSON bool
)

// PackageInfo is the structured form of a package summary
type PackageInfo struct {
	UUID         string           `json:"uuid"`
	Name         string           `json:"name"`
	Manufacturer string           `json:"manufacturer,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	Pads         []PadInfo        `json:"pads"`
	Counts       map[string]int   `json:"counts"`
	BBox         [4]int64         `json:"bbox"`
	Parameters   map[string]int64 `json:"parameters,omitempty"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// PadInfo describes one pad
type PadInfo struct {
	Name     string `json:"name"`
	Padstack string `json:"padstack"`
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	Angle    int    `json:"angle"`
}

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show a package summary",
	Long: `Loads a package, by file path or by pool id, computes its derived
state and prints its contents, bounding box and warnings.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&outputJSON, "json", false, "output JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	dir, err := openPool()
	if err != nil {
		return err
	}
	defer dir.Close()

	p, err := loadPackage(dir, args[0])
	if err != nil {
		return err
	}
	p.Expand()
	p.UpdateWarnings()
	info := packageInfo(p)

	out := cmd.OutOrStdout()
	if outputJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	fmt.Fprintf(out, "Package: %s\n", info.Name)
	fmt.Fprintf(out, "  UUID: %s\n", info.UUID)
	if info.Manufacturer != "" {
		fmt.Fprintf(out, "  Manufacturer: %s\n", info.Manufacturer)
	}
	if len(info.Tags) > 0 {
		fmt.Fprintf(out, "  Tags: %v\n", info.Tags)
	}
	for _, k := range []string{"junctions", "lines", "arcs", "texts", "pads", "polygons", "keepouts", "dimensions", "models"} {
		fmt.Fprintf(out, "  %-11s %d\n", k+":", info.Counts[k])
	}
	fmt.Fprintf(out, "  BBox: (%s, %s) - (%s, %s) mm\n", mm(info.BBox[0]), mm(info.BBox[1]), mm(info.BBox[2]), mm(info.BBox[3]))
	fmt.Fprintf(out, "  Max pad name: %d\n", p.MaxPadName())

	fmt.Fprintf(out, "\nPads:\n")
	for _, pad := range info.Pads {
		fmt.Fprintf(out, "  %-6s %-32s (%s, %s)\n", pad.Name, pad.Padstack, mm(pad.X), mm(pad.Y))
	}

	if len(info.Warnings) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, w := range info.Warnings {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	return nil
}

func packageInfo(p *footprint.Package) PackageInfo {
	bb := p.BBox()
	info := PackageInfo{
		UUID:         p.UUID.String(),
		Name:         p.Name,
		Manufacturer: p.Manufacturer,
		Tags:         p.Tags,
		Counts: map[string]int{
			"junctions":  len(p.Junctions),
			"lines":      len(p.Lines),
			"arcs":       len(p.Arcs),
			"texts":      len(p.Texts),
			"pads":       len(p.Pads),
			"polygons":   len(p.Polygons),
			"keepouts":   len(p.Keepouts),
			"dimensions": len(p.Dimensions),
			"models":     len(p.Models),
		},
		BBox:       [4]int64{bb.Min.X, bb.Min.Y, bb.Max.X, bb.Max.Y},
		Parameters: map[string]int64{},
	}
	for _, id := range p.ParameterSet.IDs() {
		info.Parameters[id.String()] = p.ParameterSet[id]
	}
	for _, id := range ident.SortedKeys(p.Pads) {
		pad := p.Pads[id]
		pi := PadInfo{
			Name:  pad.Name,
			X:     pad.Placement.Shift.X,
			Y:     pad.Placement.Shift.Y,
			Angle: pad.Placement.Angle,
		}
		if pad.Padstack != nil {
			pi.Padstack = pad.Padstack.Name
		}
		info.Pads = append(info.Pads, pi)
	}
	for _, w := range p.Warnings {
		info.Warnings = append(info.Warnings, fmt.Sprintf("(%s, %s) %s", mm(w.Position.X), mm(w.Position.Y), w.Text))
	}
	return info
}
