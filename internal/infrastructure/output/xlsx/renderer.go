package xlsx

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/profile-export/internal/core/domain"
)

const FileName = "profile.xlsx"

// Renderer writes all non-empty category tables of a profile into one
// workbook, one sheet per category in file order.
type Renderer struct{}

func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(dir string, profile *domain.Profile) (string, error) {
	tables := profile.Outputs()
	if len(tables) == 0 {
		return "", nil
	}

	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	for i, table := range tables {
		sheet := string(table.Category)
		if i == 0 {
			if err := f.SetSheetName(first, sheet); err != nil {
				return "", fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, table); err != nil {
			return "", err
		}
	}
	f.SetActiveSheet(0)

	if err := f.SaveAs(filepath.Join(dir, FileName)); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return FileName, nil
}

func writeSheet(f *excelize.File, sheet string, table domain.Table) error {
	rows := make([][]string, 0, len(table.Rows)+1)
	rows = append(rows, table.Columns)
	rows = append(rows, table.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
