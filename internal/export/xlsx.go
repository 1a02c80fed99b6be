// Package export renders transaction lists as spreadsheets for download.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"dooto/internal/core"
)

const (
	SheetName   = "Giao dịch"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Header is the first row of the export.
var Header = []string{"Ngày", "Loại", "Danh mục", "Mô tả", "Số tiền"}

// FileName is the attachment name for an export taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("dooto_transactions_%s.xlsx", t.Format("20060102_150405"))
}

// Transactions writes txs in the given order to a single-sheet workbook.
// Amounts are signed: expenses are negative.
func Transactions(txs []core.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, header)
	}

	for i, tx := range txs {
		row := i + 2
		amount, _ := tx.Amount.Abs().Float64()
		if tx.Type == core.Expense {
			amount = -amount
		}
		f.SetCellValue(SheetName, fmt.Sprintf("A%d", row), core.FormatDate(tx.TransactionDate))
		f.SetCellValue(SheetName, fmt.Sprintf("B%d", row), tx.Type.Label())
		f.SetCellValue(SheetName, fmt.Sprintf("C%d", row), tx.Category)
		f.SetCellValue(SheetName, fmt.Sprintf("D%d", row), tx.Description)
		f.SetCellValue(SheetName, fmt.Sprintf("E%d", row), amount)
	}

	f.SetColWidth(SheetName, "A", "B", 14)
	f.SetColWidth(SheetName, "C", "C", 20)
	f.SetColWidth(SheetName, "D", "D", 36)
	f.SetColWidth(SheetName, "E", "E", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
