// Package mining implements frequent-itemset search and association-rule
// generation over a binary basket matrix.
//
// The miner is the classic Apriori level-wise search (Agrawal & Srikant,
// VLDB'94) with anti-monotone pruning:
//   - Level 1: per-item supports from the matrix columns.
//   - Level k: candidates are joins of two surviving (k-1)-itemsets sharing
//     their first k-2 items; a candidate whose any (k-1)-subset was pruned is
//     discarded before counting, since no superset of an infrequent itemset
//     can be frequent.
//   - Support counting intersects sorted transaction-id lists, so each
//     candidate costs O(|tidset|) rather than a pass over the matrix.
//
// Worst-case candidate generation is still exponential in the item count;
// Config.MaxItems bounds the catalog as a guard rail.
//
// References:
//   - Apriori: https://www.vldb.org/conf/1994/P487.PDF
package mining

import (
	"sort"

	"github.com/fridell/cartlens/pkg/models"
)

// Miner finds every itemset whose support meets a minimum threshold.
// Implementations must be deterministic for identical input.
type Miner interface {
	Mine(m *models.BasketMatrix, minSupport float64) ([]models.Itemset, error)
}

// Config bounds the search.
type Config struct {
	// MaxItems caps the distinct-item catalog; 0 means unbounded.
	MaxItems int

	// MaxLen caps the itemset size; 0 means unbounded.
	MaxLen int
}

// DefaultConfig returns the default mining configuration.
func DefaultConfig() Config {
	return Config{
		MaxItems: 4096,
		MaxLen:   0,
	}
}

// Apriori is the level-wise miner.
type Apriori struct {
	cfg Config
}

// NewApriori creates a miner with the given configuration.
func NewApriori(cfg Config) *Apriori {
	return &Apriori{cfg: cfg}
}

// candidate is an in-flight itemset: sorted item column indices plus the
// sorted ids of transactions containing all of them.
type candidate struct {
	cols []int
	tids []int
}

// Mine returns every itemset with support >= minSupport, boundary inclusive.
// Itemsets are ordered by size, then lexicographically by item columns, which
// is stable across runs on identical input. A threshold outside (0,1] is an
// InvalidParameterError; an empty matrix yields an empty result.
func (a *Apriori) Mine(m *models.BasketMatrix, minSupport float64) ([]models.Itemset, error) {
	if minSupport <= 0 || minSupport > 1 {
		return nil, models.NewInvalidParameter("min_support", minSupport, "must be in (0, 1]")
	}
	n := m.TransactionCount()
	if n == 0 || m.ItemCount() == 0 {
		return []models.Itemset{}, nil
	}
	if a.cfg.MaxItems > 0 && m.ItemCount() > a.cfg.MaxItems {
		return nil, models.NewInvalidParameter("items", m.ItemCount(),
			"item catalog exceeds configured maximum")
	}

	total := float64(n)
	var result []models.Itemset

	// Level 1: single items.
	var level []candidate
	for col := 0; col < m.ItemCount(); col++ {
		tids := m.ItemTransactions(col)
		if float64(len(tids))/total >= minSupport {
			level = append(level, candidate{cols: []int{col}, tids: tids})
		}
	}
	a.emit(m, level, total, &result)

	// Level k: join survivors sharing their first k-2 items. Candidates come
	// out in lexicographic column order because each level is kept sorted.
	for k := 2; len(level) > 1; k++ {
		if a.cfg.MaxLen > 0 && k > a.cfg.MaxLen {
			break
		}
		seen := make(map[string]struct{}, len(level))
		for _, c := range level {
			seen[colKey(c.cols)] = struct{}{}
		}

		var next []candidate
		for i := 0; i < len(level); i++ {
			for j := i + 1; j < len(level); j++ {
				joined, ok := join(level[i].cols, level[j].cols)
				if !ok {
					break // sorted level: later j cannot share the prefix either
				}
				if !allSubsetsFrequent(joined, seen) {
					continue
				}
				tids := intersect(level[i].tids, level[j].tids)
				if float64(len(tids))/total >= minSupport {
					next = append(next, candidate{cols: joined, tids: tids})
				}
			}
		}
		a.emit(m, next, total, &result)
		level = next
	}

	return result, nil
}

// emit converts a level's surviving candidates to labeled itemsets.
func (a *Apriori) emit(m *models.BasketMatrix, level []candidate, total float64, out *[]models.Itemset) {
	for _, c := range level {
		items := make([]string, len(c.cols))
		for i, col := range c.cols {
			items[i] = m.Items[col]
		}
		// Columns are sorted and column order is lexicographic, so items
		// arrive sorted too.
		*out = append(*out, models.Itemset{
			Items:   items,
			Support: float64(len(c.tids)) / total,
		})
	}
}

// join merges two sorted k-1 column sets sharing their first k-2 entries.
func join(a, b []int) ([]int, bool) {
	k := len(a)
	for i := 0; i < k-1; i++ {
		if a[i] != b[i] {
			return nil, false
		}
	}
	if a[k-1] >= b[k-1] {
		return nil, false
	}
	joined := make([]int, k+1)
	copy(joined, a)
	joined[k] = b[k-1]
	return joined, true
}

// allSubsetsFrequent checks the anti-monotone prune: every (k-1)-subset of
// the candidate must itself have survived the previous level.
func allSubsetsFrequent(cols []int, seen map[string]struct{}) bool {
	if len(cols) <= 2 {
		return true // both 1-subsets are the joined parents
	}
	sub := make([]int, 0, len(cols)-1)
	for skip := 0; skip < len(cols); skip++ {
		sub = sub[:0]
		for i, c := range cols {
			if i != skip {
				sub = append(sub, c)
			}
		}
		if _, ok := seen[colKey(sub)]; !ok {
			return false
		}
	}
	return true
}

// intersect merges two sorted int slices.
func intersect(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}

// colKey builds a map key from sorted column indices.
func colKey(cols []int) string {
	buf := make([]byte, 0, len(cols)*3)
	for _, c := range cols {
		buf = append(buf, byte(c), byte(c>>8), byte(c>>16))
	}
	return string(buf)
}

// SupportIndex builds a lookup from canonical itemset key to support. Every
// subset of a frequent itemset is itself frequent, so the index answers all
// lookups the rule generator needs.
func SupportIndex(itemsets []models.Itemset) map[string]float64 {
	idx := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		items := s.Items
		if !sort.StringsAreSorted(items) {
			items = append([]string(nil), items...)
			sort.Strings(items)
		}
		idx[models.ItemsetKey(items)] = s.Support
	}
	return idx
}
