package csvimport

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// Expected column order. A header row matching the first column name is
// skipped automatically.
// date,description,amount,category,installmentNumber,totalInstallments
const columns = 6

const dateLayout = "2006-01-02"

// Record is one purchase row from an exported bill CSV.
type Record struct {
	Date              time.Time
	Description       string
	AmountCents       int64
	Category          string
	InstallmentNumber int
	TotalInstallments int
}

// Allocator receives each purchase and spreads it across bill periods.
type Allocator interface {
	AllocateInstallments(ctx context.Context, cardID int64, purchaseDate time.Time, totalCents int64, count int, description, category string) ([]models.CreditCardItem, error)
}

// Importer feeds parsed CSV purchases into the installment allocator.
type Importer struct {
	alloc Allocator
}

func NewImporter(alloc Allocator) *Importer {
	return &Importer{alloc: alloc}
}

// Report summarizes one import run.
type Report struct {
	Imported     int `json:"imported"`
	ItemsCreated int `json:"itemsCreated"`
	Skipped      int `json:"skipped"`
}

// Import parses the CSV and allocates every purchase onto the card's bills.
// Rows describing a later installment of an already-listed purchase
// (installmentNumber > 1) are skipped: the allocator creates the whole group
// from the first row.
func (im *Importer) Import(ctx context.Context, cardID int64, r io.Reader) (*Report, error) {
	records, err := ParseRecords(r)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, rec := range records {
		if rec.InstallmentNumber > 1 {
			report.Skipped++
			continue
		}
		items, err := im.alloc.AllocateInstallments(ctx, cardID, rec.Date, rec.AmountCents, rec.TotalInstallments, rec.Description, rec.Category)
		if err != nil {
			return nil, fmt.Errorf("import row %q: %w", rec.Description, err)
		}
		report.Imported++
		report.ItemsCreated += len(items)
	}
	return report, nil
}

// ParseRecords reads all rows from the CSV, skipping a header row if present.
func ParseRecords(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = columns
	cr.TrimLeadingSpace = true

	var out []Record
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		line++
		if line == 1 && strings.EqualFold(row[0], "date") {
			continue
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseRow(row []string) (Record, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(row[0]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid date %q: %w", row[0], err)
	}

	cents, err := parseCents(row[2])
	if err != nil {
		return Record{}, err
	}

	number, total := 1, 1
	if v := strings.TrimSpace(row[4]); v != "" {
		if number, err = strconv.Atoi(v); err != nil {
			return Record{}, fmt.Errorf("invalid installment number %q: %w", row[4], err)
		}
	}
	if v := strings.TrimSpace(row[5]); v != "" {
		if total, err = strconv.Atoi(v); err != nil {
			return Record{}, fmt.Errorf("invalid installment total %q: %w", row[5], err)
		}
	}
	if number < 1 || total < 1 || number > total {
		return Record{}, fmt.Errorf("invalid installment %d/%d", number, total)
	}

	return Record{
		Date:              date,
		Description:       strings.TrimSpace(row[1]),
		AmountCents:       cents,
		Category:          strings.TrimSpace(row[3]),
		InstallmentNumber: number,
		TotalInstallments: total,
	}, nil
}

// parseCents converts a decimal amount string to cents without rounding.
// Amounts with more than two fractional digits are rejected rather than
// silently truncated.
func parseCents(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("amount %q has sub-cent precision", raw)
	}
	v := cents.IntPart()
	if v <= 0 {
		return 0, fmt.Errorf("amount %q is not positive", raw)
	}
	return v, nil
}
