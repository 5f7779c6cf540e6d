// Package export renders ledger entries as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName   = "Ledger"
	timeLayout  = "2006-01-02 15:04:05"
)

var ledgerHeader = []any{"id", "created_at", "user_id", "type", "quantity", "balance", "description"}

// Filename is the download name for item's ledger.
func Filename(item domain.Item) string {
	return fmt.Sprintf("ledger_%s.xlsx", item.Code)
}

// OpeningBalance is the stock item held before the first of entries.
func OpeningBalance(item domain.Item, entries []domain.Transaction) int {
	balance := item.Stock
	for _, e := range entries {
		if e.Type == domain.DirectionIn {
			balance -= e.Quantity
		} else {
			balance += e.Quantity
		}
	}
	return balance
}

// LedgerWorkbook writes entries, oldest first, with a running balance that
// ends at the item's current stock.
func LedgerWorkbook(w io.Writer, item domain.Item, entries []domain.Transaction) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(sheet, SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	sheet = SheetName

	if err := f.SetSheetRow(sheet, "A1", &[]any{"item", item.Name, "code", item.Code, "stock", item.Stock}); err != nil {
		return fmt.Errorf("write title: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A3", &ledgerHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	balance := OpeningBalance(item, entries)
	for i, e := range entries {
		if e.Type == domain.DirectionIn {
			balance += e.Quantity
		} else {
			balance -= e.Quantity
		}
		description := ""
		if e.Description != nil {
			description = *e.Description
		}

		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		row := []any{e.ID, e.CreatedAt.Format(timeLayout), e.UserID, string(e.Type), e.Quantity, balance, description}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write entry %d: %w", e.ID, err)
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "G", "G", 40); err != nil {
		return err
	}
	return f.Write(w)
}
