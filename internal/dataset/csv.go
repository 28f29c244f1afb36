// Package dataset handles CSV intake and schema validation for uploads.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fridell/cartlens/pkg/models"
)

// Parse errors.
var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrDuplicateColumn = errors.New("duplicate column name in header")
)

// ParseCSV reads a CSV stream with a header row into a Dataset. Header names
// are normalized (trimmed, lowercased) so later column lookup is
// case-insensitive. Rows shorter than the header are padded with empty cells;
// extra cells past the header width are dropped.
func ParseCSV(r io.Reader, filename string) (*models.Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	columns := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, name := range header {
		normalized := models.NormalizeColumn(name)
		if normalized == "" {
			normalized = fmt.Sprintf("column_%d", i+1)
		}
		if _, dup := seen[normalized]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, normalized)
		}
		seen[normalized] = struct{}{}
		columns[i] = normalized
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(rows)+2, err)
		}
		row := make([]string, len(columns))
		for i := range row {
			if i < len(record) {
				row[i] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}

	return &models.Dataset{
		Columns:  columns,
		Rows:     rows,
		Filename: filename,
	}, nil
}

// ValueCount is one bar of a column-distribution chart.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Numeric columns with more than binThreshold distinct values are binned into
// distributionBins equal-width ranges; categorical columns are tallied per
// value.
const (
	distributionBins = 10
	binThreshold     = 12
)

// ColumnDistribution tallies one column for charting. Categorical columns get
// per-value counts ordered by count descending with a lexicographic
// tie-break; continuous numeric columns (ages, quantities) get equal-width
// range counts in ascending range order, since one bar per distinct reading
// is unreadable. Empty cells are skipped. Returns a SchemaError if the column
// is absent.
func ColumnDistribution(d *models.Dataset, column string) ([]ValueCount, error) {
	idx := d.ColumnIndex(column)
	if idx < 0 {
		return nil, &models.SchemaError{Column: models.NormalizeColumn(column), Available: d.Columns}
	}

	var values []string
	for _, row := range d.Rows {
		if v := row[idx]; v != "" {
			values = append(values, v)
		}
	}

	if nums, ok := continuousColumn(values); ok {
		return binCounts(nums), nil
	}

	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out, nil
}

// continuousColumn parses the cells as numbers, reporting whether the column
// should be binned: every cell numeric and more distinct values than a
// readable categorical chart holds.
func continuousColumn(values []string) ([]float64, bool) {
	nums := make([]float64, len(values))
	distinct := make(map[string]struct{}, len(values))
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, false
		}
		nums[i] = f
		distinct[v] = struct{}{}
	}
	return nums, len(distinct) > binThreshold
}

// binCounts tallies numeric values into equal-width ranges, ascending. The
// top edge is inclusive so the maximum lands in the last bin.
func binCounts(nums []float64) []ValueCount {
	lo, hi := nums[0], nums[0]
	for _, v := range nums[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []ValueCount{{Value: binEdge(lo), Count: len(nums)}}
	}

	width := (hi - lo) / distributionBins
	counts := make([]int, distributionBins)
	for _, v := range nums {
		b := int((v - lo) / width)
		if b >= distributionBins {
			b = distributionBins - 1
		}
		counts[b]++
	}

	out := make([]ValueCount, distributionBins)
	for i, c := range counts {
		label := binEdge(lo+width*float64(i)) + "-" + binEdge(lo+width*float64(i+1))
		out[i] = ValueCount{Value: label, Count: c}
	}
	return out
}

// binEdge formats a bin boundary for a bar label.
func binEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}
