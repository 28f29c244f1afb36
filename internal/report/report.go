// Package report selects and projects mining results for display: top-N
// tables, the rule network graph and the rendered charts. Everything here is
// pure selection over already-computed results; no metric is recomputed.
package report

import (
	"sort"

	"github.com/fridell/cartlens/pkg/models"
)

// DefaultTopN is the default recommendation count.
const DefaultTopN = 5

// Recommendation is the minimal rule projection shown to the user.
type Recommendation struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
}

// TopRules selects the first n rules. Rules arrive already totally ordered by
// the generator (metric descending, deterministic tie-break), so truncation
// is reproducible.
func TopRules(rules []models.Rule, n int) []Recommendation {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > len(rules) {
		n = len(rules)
	}
	out := make([]Recommendation, n)
	for i, r := range rules[:n] {
		out[i] = Recommendation{
			Antecedent: r.Antecedent,
			Consequent: r.Consequent,
			Support:    r.Support,
			Confidence: r.Confidence,
		}
	}
	return out
}

// TopItemsets selects the n itemsets with the highest support, ties broken by
// label, without mutating the input order.
func TopItemsets(itemsets []models.Itemset, n int) []models.Itemset {
	if n <= 0 {
		n = DefaultTopN
	}
	sorted := append([]models.Itemset(nil), itemsets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Support != sorted[j].Support {
			return sorted[i].Support > sorted[j].Support
		}
		return sorted[i].Label() < sorted[j].Label()
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}
