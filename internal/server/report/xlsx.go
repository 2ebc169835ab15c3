// Package report renders ledger entries as spreadsheets.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/tradexinvest/tradex/internal/server/models"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Transactions"

var header = []any{"ID", "Date", "Account", "Email", "Type", "Method", "Amount", "Status", "Decided At"}

// WriteEntries writes one row per entry, after a bold header row, into a
// single-sheet workbook.
func WriteEntries(w io.Writer, entries []*models.LedgerEntry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, e := range entries {
		decidedAt := ""
		if e.DecidedAt != nil {
			decidedAt = e.DecidedAt.UTC().Format(time.RFC3339)
		}
		amount, _ := e.Amount.Float64()
		row := []any{
			e.ID,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.AccountName,
			e.AccountEmail,
			string(e.Kind),
			string(e.Method),
			amount,
			string(e.Status),
			decidedAt,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "D", 24); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
