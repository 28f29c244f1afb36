package mining

import (
	"math"
	"sort"

	"github.com/fridell/cartlens/pkg/models"
)

// GenerateRules derives every association rule from the frequent-itemset
// collection whose value for the chosen metric meets the threshold.
//
// For every frequent itemset of size >= 2, every non-empty proper subset is a
// candidate antecedent and its complement within the itemset the consequent.
// All five metrics are computed from supports alone; the union support is the
// originating itemset's own support.
//
// The returned rules are totally ordered: chosen metric descending, then
// antecedent label, then consequent label, so top-N truncation is
// reproducible. An empty itemset collection yields an empty rule set.
func GenerateRules(itemsets []models.Itemset, metric models.Metric, minThreshold float64) ([]models.Rule, error) {
	if _, err := models.ParseMetric(string(metric)); err != nil {
		return nil, err
	}
	if err := metric.ValidateThreshold(minThreshold); err != nil {
		return nil, err
	}

	index := SupportIndex(itemsets)
	rules := []models.Rule{}

	for _, s := range itemsets {
		k := len(s.Items)
		if k < 2 {
			continue
		}
		// Enumerate antecedents as bitmasks over the (sorted) items.
		for mask := 1; mask < (1<<k)-1; mask++ {
			antecedent := make([]string, 0, k-1)
			consequent := make([]string, 0, k-1)
			for i, item := range s.Items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}

			supA, okA := index[models.ItemsetKey(antecedent)]
			supC, okC := index[models.ItemsetKey(consequent)]
			if !okA || !okC || supA == 0 {
				// Cannot happen for itemsets mined with anti-monotone
				// pruning, but a hand-built collection may be incomplete.
				continue
			}

			rule := buildRule(antecedent, consequent, s.Support, supA, supC)
			if rule.MetricValue(metric) >= minThreshold {
				rules = append(rules, rule)
			}
		}
	}

	SortRules(rules, metric)
	return rules, nil
}

// buildRule computes all five metrics from the three supports.
func buildRule(antecedent, consequent []string, supUnion, supA, supC float64) models.Rule {
	confidence := supUnion / supA
	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - supC) / (1 - confidence)
	}
	return models.Rule{
		Antecedent: antecedent,
		Consequent: consequent,
		Support:    supUnion,
		Confidence: confidence,
		Lift:       confidence / supC,
		Leverage:   supUnion - supA*supC,
		Conviction: models.JSONFloat(conviction),
	}
}

// SortRules orders rules by the metric descending with a deterministic
// lexicographic tie-break on antecedent then consequent.
func SortRules(rules []models.Rule, metric models.Metric) {
	sort.SliceStable(rules, func(i, j int) bool {
		vi, vj := rules[i].MetricValue(metric), rules[j].MetricValue(metric)
		if vi != vj {
			// Inf sorts first for conviction; NaN never occurs since
			// supports are positive.
			return vi > vj
		}
		ai, aj := rules[i].AntecedentLabel(), rules[j].AntecedentLabel()
		if ai != aj {
			return ai < aj
		}
		return rules[i].ConsequentLabel() < rules[j].ConsequentLabel()
	})
}
