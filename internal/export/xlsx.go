package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"microbiz/internal/core"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "帳務明細"

var columnWidths = map[string]float64{
	"A": 12, "B": 8, "C": 14, "D": 12, "E": 16, "F": 10, "G": 10, "H": 10,
	"I": 30, "J": 10, "K": 12, "L": 12, "M": 10, "N": 12, "O": 12, "P": 10, "Q": 10,
}

// numeric columns are written as numbers so spreadsheet formulas work on them.
var numericColumns = map[int]bool{3: true, 15: true, 16: true}

// WriteXLSX writes txs as a single-sheet workbook with the same columns as WriteCSV.
func WriteXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}

	for r, t := range txs {
		values := cellValues(t)
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func cellValues(t core.Transaction) []any {
	rec := Record(t)
	money := []core.Money{t.Amount, t.TaxWithheld, t.HealthIns}
	out := make([]any, len(rec))
	m := 0
	for i, v := range rec {
		if numericColumns[i] {
			out[i] = money[m].Float64()
			m++
			continue
		}
		out[i] = v
	}
	return out
}
