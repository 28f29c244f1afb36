// Package basket builds binary transaction-by-item matrices from raw rows.
//
// Two input shapes are supported, matching the two dataset layouts seen in
// the wild: long-form transaction/item rows (one row per purchased item,
// grouped by a transaction key) and wide one-hot tables (one column per item,
// numeric presence or quantity values). Both produce the same matrix type
// with lexicographically ordered item columns, so the miner downstream never
// cares which shape the upload had.
package basket

import (
	"sort"
	"strconv"

	"github.com/fridell/cartlens/pkg/models"
)

// FromTransactions groups long-form rows by (transaction key, item) and marks
// presence for every group with at least one row. Multiplicity collapses to
// presence. Returns a SchemaError if either required column is absent.
func FromTransactions(d *models.Dataset, keyColumn, itemColumn string) (*models.BasketMatrix, error) {
	keyIdx := d.ColumnIndex(keyColumn)
	if keyIdx < 0 {
		return nil, &models.SchemaError{Column: models.NormalizeColumn(keyColumn), Available: d.Columns}
	}
	itemIdx := d.ColumnIndex(itemColumn)
	if itemIdx < 0 {
		return nil, &models.SchemaError{Column: models.NormalizeColumn(itemColumn), Available: d.Columns}
	}

	// First pass: collect transaction keys in first-seen order and the
	// distinct item labels.
	var txOrder []string
	txRows := make(map[string]int)
	itemSet := make(map[string]struct{})
	for _, row := range d.Rows {
		key := row[keyIdx]
		item := row[itemIdx]
		if key == "" || item == "" {
			continue
		}
		if _, seen := txRows[key]; !seen {
			txRows[key] = len(txOrder)
			txOrder = append(txOrder, key)
		}
		itemSet[item] = struct{}{}
	}

	items := make([]string, 0, len(itemSet))
	for item := range itemSet {
		items = append(items, item)
	}
	sort.Strings(items)
	itemCols := make(map[string]int, len(items))
	for i, item := range items {
		itemCols[item] = i
	}

	m := models.NewBasketMatrix(txOrder, items)
	for _, row := range d.Rows {
		key := row[keyIdx]
		item := row[itemIdx]
		if key == "" || item == "" {
			continue
		}
		m.Set(txRows[key], itemCols[item], true)
	}
	return m, nil
}

// FromOneHot treats every column as an item and every row as a transaction.
// Cell values are coerced to numbers; anything non-numeric or missing counts
// as zero presence, and any value greater than zero counts as presence.
// Binarizing an already-binary table yields the same table.
func FromOneHot(d *models.Dataset) (*models.BasketMatrix, error) {
	items := make([]string, len(d.Columns))
	copy(items, d.Columns)
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return items[order[a]] < items[order[b]] })
	sorted := make([]string, len(items))
	for i, src := range order {
		sorted[i] = items[src]
	}

	transactions := make([]string, len(d.Rows))
	for r := range d.Rows {
		transactions[r] = strconv.Itoa(r)
	}

	m := models.NewBasketMatrix(transactions, sorted)
	for r, row := range d.Rows {
		for c, src := range order {
			m.Set(r, c, coercePresence(row[src]))
		}
	}
	return m, nil
}

// coercePresence converts a raw cell to a presence flag: numeric and > 0.
func coercePresence(cell string) bool {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return false
	}
	return v > 0
}
