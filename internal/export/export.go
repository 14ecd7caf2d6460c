// Package export writes the current quote as CSV or as an Excel workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/quote"
)

var itemHeader = []string{
	"#", "W", "H", "Type", "Price", "Location", "F-Name", "F-Color",
	"Over", "O/I", "L/R", "Dual", "Chain", "Winder", "Motor",
}

func itemRecord(n int, it quote.Item) []string {
	return []string{
		strconv.Itoa(n),
		optInt(it.Width),
		optInt(it.Height),
		it.FabricType,
		optPrice(it.LinePrice),
		it.Location,
		it.Fabric,
		it.Color,
		it.Over,
		it.OI,
		it.LR,
		it.Dual,
		optInt(it.Chain),
		it.Winder,
		it.Motor,
	}
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func optPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}

// rows returns the non-empty items numbered from 1.
func rows(q *quote.QuoteData) [][]string {
	var out [][]string
	for _, it := range q.Items() {
		if it.IsEmpty() {
			continue
		}
		out = append(out, itemRecord(len(out)+1, it))
	}
	return out
}

// CSV writes one line per non-empty item followed by the quote total.
func CSV(w io.Writer, q *quote.QuoteData) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(itemHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows(q)); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	total := make([]string, len(itemHeader))
	total[3] = "Total"
	total[4] = strconv.FormatFloat(q.Current().Summary.TotalSum, 'f', 2, 64)
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("write csv total: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

const (
	itemsSheet   = "Items"
	summarySheet = "Summary"
)

// XLSX writes a workbook with an items sheet and a summary sheet holding the
// F1 cost and F2 profit figures.
func XLSX(w io.Writer, q *quote.QuoteData, f1 pricing.F1Result, f2 pricing.F2Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), itemsSheet); err != nil {
		return fmt.Errorf("rename items sheet: %w", err)
	}

	if err := setRow(f, itemsSheet, 1, toCells(itemHeader)); err != nil {
		return err
	}
	row := 2
	for _, it := range q.Items() {
		if it.IsEmpty() {
			continue
		}
		if err := setRow(f, itemsSheet, row, itemCells(row-1, it)); err != nil {
			return err
		}
		row++
	}
	if err := setRow(f, itemsSheet, row, []any{nil, nil, nil, "Total", q.Current().Summary.TotalSum}); err != nil {
		return err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summary := [][]any{
		{"Cost (F1)", nil},
		{"Component total", f1.Totals.ComponentTotal},
		{"Retail total", f1.Totals.RetailTotal},
		{"Discount %", f1.Totals.DiscountPercentage},
		{"Discounted retail", f1.Totals.DiscountedRetail},
		{"Subtotal", f1.Totals.Subtotal},
		{"GST", f1.Totals.GST},
		{"Final total", f1.Totals.FinalTotal},
		{nil, nil},
		{"Profit (F2)", nil},
		{"Surcharge", f2.SurchargeFee},
		{"Discounted retail", f2.DisRbPrice},
		{"Sum price", f2.SumPrice},
		{"Retail profit", f2.RbProfit},
		{"Profit per blind", f2.SingleProfit},
		{"Sum profit", f2.SumProfit},
		{"GST", f2.GST},
		{"Net profit", f2.NetProfit},
	}
	for i, r := range summary {
		if err := setRow(f, summarySheet, i+1, r); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// itemCells keeps numbers numeric so the sheet can be summed.
func itemCells(n int, it quote.Item) []any {
	cells := toCells(itemRecord(n, it))
	cells[0] = n
	if it.Width != nil {
		cells[1] = *it.Width
	}
	if it.Height != nil {
		cells[2] = *it.Height
	}
	if it.LinePrice != nil {
		cells[4] = *it.LinePrice
	}
	if it.Chain != nil {
		cells[12] = *it.Chain
	}
	return cells
}

func toCells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if v != "" {
			out[i] = v
		}
	}
	return out
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
