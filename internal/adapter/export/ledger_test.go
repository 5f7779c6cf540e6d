package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rl1809/inventory-ledger/internal/core/domain"
)

func TestLedgerWorkbook(t *testing.T) {
	item := domain.Item{ID: 1, Name: "Pen", Code: "PEN-1", Stock: 7}
	note := "restock"
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []domain.Transaction{
		{ID: 1, ItemID: 1, UserID: 2, Type: domain.DirectionIn, Quantity: 5, Description: &note, CreatedAt: at},
		{ID: 2, ItemID: 1, UserID: 3, Type: domain.DirectionOut, Quantity: 8, CreatedAt: at},
	}

	if got := OpeningBalance(item, entries); got != 10 {
		t.Fatalf("expected opening balance 10, got %d", got)
	}

	var buf bytes.Buffer
	if err := LedgerWorkbook(&buf, item, entries); err != nil {
		t.Fatalf("LedgerWorkbook failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	cases := map[string]string{
		"B1": "Pen",
		"A3": "id",
		"D4": "in",
		"F4": "15",
		"G4": "restock",
		"D5": "out",
		"F5": "7",
		"B5": "2024-01-02 03:04:05",
	}
	for cell, want := range cases {
		got, err := f.GetCellValue(SheetName, cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s: expected %q, got %q", cell, want, got)
		}
	}
}

func TestFilename(t *testing.T) {
	if got := Filename(domain.Item{Code: "A-1"}); got != "ledger_A-1.xlsx" {
		t.Errorf("unexpected filename %s", got)
	}
}
