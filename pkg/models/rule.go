package models

import (
	"math"
	"strconv"
	"strings"
)

// Metric identifies the rule-filtering metric.
type Metric string

// Recognized rule metrics.
const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
	MetricLeverage   Metric = "leverage"
	MetricConviction Metric = "conviction"
)

// metricRanges maps each metric to the valid threshold range, inclusive.
var metricRanges = map[Metric][2]float64{
	MetricSupport:    {0, 1},
	MetricConfidence: {0, 1},
	MetricLift:       {0, math.Inf(1)},
	MetricLeverage:   {-1, 1},
	MetricConviction: {0, math.Inf(1)},
}

// ParseMetric validates a metric name.
func ParseMetric(name string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := metricRanges[m]; !ok {
		return "", NewInvalidParameter("metric", name,
			"must be one of support, confidence, lift, leverage, conviction")
	}
	return m, nil
}

// ValidateThreshold checks a threshold against the metric's valid range.
func (m Metric) ValidateThreshold(threshold float64) error {
	r, ok := metricRanges[m]
	if !ok {
		return NewInvalidParameter("metric", string(m), "unrecognized metric")
	}
	if math.IsNaN(threshold) || threshold < r[0] || threshold > r[1] {
		return NewInvalidParameter("min_threshold", threshold,
			"outside valid range for metric "+string(m))
	}
	return nil
}

// JSONFloat is a float64 whose JSON form degrades Inf and NaN to null.
// Conviction is +Inf for every rule with confidence 1, and encoding/json
// refuses to marshal infinities.
type JSONFloat float64

// MarshalJSON implements json.Marshaler.
func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// Rule is a directional association rule between two disjoint itemsets drawn
// from the same frequent-itemset collection.
type Rule struct {
	Antecedent []string  `json:"antecedent"`
	Consequent []string  `json:"consequent"`
	Support    float64   `json:"support"`
	Confidence float64   `json:"confidence"`
	Lift       float64   `json:"lift"`
	Leverage   float64   `json:"leverage"`
	Conviction JSONFloat `json:"conviction"`
}

// AntecedentLabel returns the canonical display form of the antecedent.
func (r Rule) AntecedentLabel() string {
	return Itemset{Items: r.Antecedent}.Label()
}

// ConsequentLabel returns the canonical display form of the consequent.
func (r Rule) ConsequentLabel() string {
	return Itemset{Items: r.Consequent}.Label()
}

// MetricValue returns the rule's value for the given metric.
func (r Rule) MetricValue(m Metric) float64 {
	switch m {
	case MetricSupport:
		return r.Support
	case MetricConfidence:
		return r.Confidence
	case MetricLift:
		return r.Lift
	case MetricLeverage:
		return r.Leverage
	case MetricConviction:
		return float64(r.Conviction)
	}
	return 0
}
