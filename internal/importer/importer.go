package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"feathermart/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}

// CSVImporter loads a farm's product sheet. Products are matched by name
// within the farm, so re-running an import updates prices and stock.
//
// Columns: name, description, category, price, discount_price, stock,
// available, image_url. Prices are decimal amounts ("6.50"). A row with only
// image_url adds another image to the product above it.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	farmID     string
	seen       map[string]bool
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, farmID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		farmID:     farmID,
		seen:       map[string]bool{},
	}
}

type csvRow struct {
	Line          int
	Name          string
	Desc          string
	Category      string
	Price         string
	DiscountPrice string
	Stock         string
	Available     string
	ImageURLs     []string
}

// Run imports every product in the sheet and returns how many were written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line

		if row.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		if current != nil && len(row.ImageURLs) > 0 {
			current.ImageURLs = append(current.ImageURLs, row.ImageURLs...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	price, err := parseCents(row.Price)
	if err != nil || price <= 0 {
		return fmt.Errorf("row %d %q: invalid price %q", row.Line, row.Name, row.Price)
	}
	p := domain.Product{
		FarmID:      i.farmID,
		Name:        row.Name,
		Description: row.Desc,
		Category:    domain.CategoryKey(row.Category),
		PriceCents:  price,
		Available:   true,
		Images:      row.ImageURLs,
	}
	if row.DiscountPrice != "" {
		discount, err := parseCents(row.DiscountPrice)
		if err != nil || discount < 0 {
			return fmt.Errorf("row %d %q: invalid discount price %q", row.Line, row.Name, row.DiscountPrice)
		}
		p.DiscountPriceCents = &discount
	}
	if row.Stock != "" {
		if p.Stock, err = strconv.Atoi(row.Stock); err != nil || p.Stock < 0 {
			return fmt.Errorf("row %d %q: invalid stock %q", row.Line, row.Name, row.Stock)
		}
	}
	if row.Available != "" {
		if p.Available, err = strconv.ParseBool(row.Available); err != nil {
			return fmt.Errorf("row %d %q: invalid available %q", row.Line, row.Name, row.Available)
		}
	}

	if err := i.ensureCategory(ctx, p.Category); err != nil {
		return err
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Name, err)
	}
	return nil
}

func (i *CSVImporter) ensureCategory(ctx context.Context, key string) error {
	if key == "" || i.categories == nil || i.seen[key] {
		return nil
	}
	name := strings.ToUpper(key[:1]) + strings.ReplaceAll(key[1:], "-", " ")
	if _, err := i.categories.Upsert(ctx, domain.Category{Key: key, Name: name}.Normalize()); err != nil {
		return fmt.Errorf("upsert category %q: %w", key, err)
	}
	i.seen[key] = true
	return nil
}

// parseCents converts a decimal amount such as "6.5" to 650.
func parseCents(amount string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(amount, "$"))
	if err != nil {
		return 0, err
	}
	return d.Shift(2).Round(0).IntPart(), nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	name := pick(record, index, "name")
	imageURL := pick(record, index, "image_url")
	if name == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		Name:          name,
		Desc:          pick(record, index, "description"),
		Category:      pick(record, index, "category"),
		Price:         pick(record, index, "price"),
		DiscountPrice: pick(record, index, "discount_price"),
		Stock:         pick(record, index, "stock"),
		Available:     pick(record, index, "available"),
	}
	if imageURL != "" {
		row.ImageURLs = []string{imageURL}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
