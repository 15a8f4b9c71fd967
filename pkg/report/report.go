// Package report exports package data as spreadsheets.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/OpenTraceLab/OpenTracePool/pkg/footprint"
	"github.com/OpenTraceLab/OpenTracePool/pkg/geom"
	"github.com/OpenTraceLab/OpenTracePool/pkg/ident"
	"github.com/OpenTraceLab/OpenTracePool/pkg/parameter"
)

// PadSheet is the name of the sheet WritePadTable fills.
const PadSheet = "Pads"

var padHeaders = []string{
	"Pad", "X (mm)", "Y (mm)", "Angle (deg)", "Mirror",
	"Padstack", "Type", "Width (mm)", "Height (mm)", "Parameters",
}

// WritePadTable writes one row per pad of pkg, ordered by pad name, as an
// xlsx workbook.
func WritePadTable(w io.Writer, pkg *footprint.Package) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", PadSheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for i, h := range padHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(PadSheet, cell, h); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(padHeaders))
	if err := f.SetCellStyle(PadSheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	for i, pad := range sortedPads(pkg) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(PadSheet, cell, padRow(pad)); err != nil {
			return fmt.Errorf("report: pad %s: %w", pad.Name, err)
		}
	}

	widths := []float64{8, 10, 10, 11, 8, 28, 10, 12, 12, 40}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(PadSheet, col, col, width); err != nil {
			return fmt.Errorf("report: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

func padRow(pad *footprint.Pad) *[]any {
	row := []any{
		pad.Name,
		toMM(pad.Placement.Shift.X),
		toMM(pad.Placement.Shift.Y),
		pad.Placement.AngleDegrees(),
		pad.Placement.Mirror,
	}
	if ps := pad.Padstack; ps != nil {
		bb := ps.BBox()
		row = append(row, ps.Name, string(ps.Type), toMM(bb.Width()), toMM(bb.Height()))
	} else {
		row = append(row, "", "", "", "")
	}
	row = append(row, formatSet(pad.ParameterSet))
	return &row
}

// sortedPads orders pads by name the way pad numbers read, ties broken by id.
func sortedPads(pkg *footprint.Package) []*footprint.Pad {
	pads := make([]*footprint.Pad, 0, len(pkg.Pads))
	for _, id := range ident.SortedKeys(pkg.Pads) {
		pads = append(pads, pkg.Pads[id])
	}
	less := func(a, b *footprint.Pad) bool {
		na, errA := strconv.Atoi(a.Name)
		nb, errB := strconv.Atoi(b.Name)
		switch {
		case errA == nil && errB == nil && na != nb:
			return na < nb
		case (errA == nil) != (errB == nil):
			return errA == nil
		}
		return a.Name < b.Name
	}
	sort.SliceStable(pads, func(i, j int) bool { return less(pads[i], pads[j]) })
	return pads
}

func formatSet(ps parameter.Set) string {
	var out string
	for _, id := range ps.IDs() {
		if out != "" {
			out += ", "
		}
		out += id.String() + "=" + strconv.FormatFloat(toMM(ps[id]), 'f', -1, 64)
	}
	return out
}

func toMM(nm int64) float64 {
	return float64(nm) / geom.NanometersPerMM
}
