package export

import (
	"fmt"

	"github.com/piwi3910/nestcut/internal/model"
	"github.com/xuri/excelize/v2"
)

// ExportXLSX writes the cut optimization results to an Excel workbook:
// one "Summary" sheet with per-sheet efficiency, and one "Placements"
// sheet listing every placed part's position and rotation, the
// counterpart of importer.ImportExcel on the results side.
func ExportXLSX(path string, result model.OptimizeResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, result); err != nil {
		return fmt.Errorf("write summary sheet: %w", err)
	}
	if err := writePlacementsSheet(f, result); err != nil {
		return fmt.Errorf("write placements sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(0)

	return f.SaveAs(path)
}

func writeSummarySheet(f *excelize.File, result model.OptimizeResult) error {
	const name = "Summary"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []string{"Sheet", "Stock", "Width", "Height", "Parts Placed", "Used Area", "Total Area", "Efficiency %"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}

	for i, sheet := range result.Sheets {
		row := i + 2
		values := []any{
			i + 1,
			sheet.Stock.Label,
			sheet.Stock.Width,
			sheet.Stock.Height,
			len(sheet.Placements),
			sheet.UsedArea(),
			sheet.TotalArea(),
			sheet.Efficiency(),
		}
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, row)
			f.SetCellValue(name, cell, v)
		}
	}

	footerRow := len(result.Sheets) + 3
	f.SetCellValue(name, fmt.Sprintf("A%d", footerRow), "Overall Efficiency")
	f.SetCellValue(name, fmt.Sprintf("B%d", footerRow), result.TotalEfficiency())
	f.SetCellValue(name, fmt.Sprintf("A%d", footerRow+1), "Unplaced Parts")
	f.SetCellValue(name, fmt.Sprintf("B%d", footerRow+1), len(result.UnplacedParts))
	return nil
}

func writePlacementsSheet(f *excelize.File, result model.OptimizeResult) error {
	const name = "Placements"
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	headers := []string{"Sheet", "Part", "Label", "X", "Y", "Rotation", "Width", "Height"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, h)
	}

	row := 2
	for sheetIdx, sheet := range result.Sheets {
		for _, p := range sheet.Placements {
			values := []any{
				sheetIdx + 1,
				p.Part.ID,
				p.Part.Label,
				p.X,
				p.Y,
				p.RotationDeg,
				p.PlacedWidth(),
				p.PlacedHeight(),
			}
			for c, v := range values {
				cell, _ := excelize.CoordinatesToCellName(c+1, row)
				f.SetCellValue(name, cell, v)
			}
			row++
		}
	}
	return nil
}
