package mining

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/fridell/cartlens/pkg/models"
)

const tolerance = 1e-9

// groceryItemsets is the frequent-itemset collection for the milk/bread
// scenario at min support 0.25.
func groceryItemsets() []models.Itemset {
	return []models.Itemset{
		{Items: []string{"bread"}, Support: 0.75},
		{Items: []string{"eggs"}, Support: 0.25},
		{Items: []string{"milk"}, Support: 0.75},
		{Items: []string{"bread", "eggs"}, Support: 0.25},
		{Items: []string{"bread", "milk"}, Support: 0.5},
		{Items: []string{"eggs", "milk"}, Support: 0.25},
		{Items: []string{"bread", "eggs", "milk"}, Support: 0.25},
	}
}

func findRule(rules []models.Rule, antecedent, consequent []string) (models.Rule, bool) {
	for _, r := range rules {
		if reflect.DeepEqual(r.Antecedent, antecedent) && reflect.DeepEqual(r.Consequent, consequent) {
			return r, true
		}
	}
	return models.Rule{}, false
}

func TestGenerateRulesMilkBread(t *testing.T) {
	rules, err := GenerateRules(groceryItemsets(), models.MetricConfidence, 0.5)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}

	r, ok := findRule(rules, []string{"milk"}, []string{"bread"})
	if !ok {
		t.Fatalf("rule milk->bread missing from %v", rules)
	}

	wantConfidence := 0.5 / 0.75
	wantLift := wantConfidence / 0.75
	if math.Abs(r.Support-0.5) > tolerance {
		t.Errorf("support = %v, want 0.5", r.Support)
	}
	if math.Abs(r.Confidence-wantConfidence) > tolerance {
		t.Errorf("confidence = %v, want %v", r.Confidence, wantConfidence)
	}
	if math.Abs(r.Lift-wantLift) > tolerance {
		t.Errorf("lift = %v, want %v", r.Lift, wantLift)
	}
	if math.Abs(r.Leverage-(0.5-0.75*0.75)) > tolerance {
		t.Errorf("leverage = %v, want %v", r.Leverage, 0.5-0.75*0.75)
	}
	wantConviction := (1 - 0.75) / (1 - wantConfidence)
	if math.Abs(float64(r.Conviction)-wantConviction) > tolerance {
		t.Errorf("conviction = %v, want %v", r.Conviction, wantConviction)
	}
}

func TestGenerateRulesMetricFormulas(t *testing.T) {
	// confidence = support(A union C) / support(A); lift = confidence /
	// support(C). Check every rule against the index.
	itemsets := groceryItemsets()
	index := SupportIndex(itemsets)

	rules, err := GenerateRules(itemsets, models.MetricLift, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	for _, r := range rules {
		supA := index[models.ItemsetKey(r.Antecedent)]
		supC := index[models.ItemsetKey(r.Consequent)]
		if math.Abs(r.Confidence-r.Support/supA) > tolerance {
			t.Errorf("rule %v->%v confidence %v != support/supA %v",
				r.Antecedent, r.Consequent, r.Confidence, r.Support/supA)
		}
		if math.Abs(r.Lift-r.Confidence/supC) > tolerance {
			t.Errorf("rule %v->%v lift %v != confidence/supC %v",
				r.Antecedent, r.Consequent, r.Lift, r.Confidence/supC)
		}
	}
}

func TestGenerateRulesLiftZeroThresholdPassesAll(t *testing.T) {
	// Lift is always >= 0, so a zero threshold keeps every enumerable
	// split: 2 per 2-itemset (x3) and 6 for the 3-itemset.
	rules, err := GenerateRules(groceryItemsets(), models.MetricLift, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	if got, want := len(rules), 3*2+6; got != want {
		t.Errorf("rule count = %d, want %d", got, want)
	}
}

func TestGenerateRulesEmptyInput(t *testing.T) {
	rules, err := GenerateRules(nil, models.MetricConfidence, 0.5)
	if err != nil {
		t.Fatalf("GenerateRules() on empty input error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("GenerateRules() on empty input = %v, want empty", rules)
	}
}

func TestGenerateRulesInvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		metric    models.Metric
		threshold float64
	}{
		{name: "unknown metric", metric: "certainty", threshold: 0.5},
		{name: "confidence above one", metric: models.MetricConfidence, threshold: 1.5},
		{name: "negative lift", metric: models.MetricLift, threshold: -1},
		{name: "NaN threshold", metric: models.MetricSupport, threshold: math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateRules(groceryItemsets(), tt.metric, tt.threshold)
			var paramErr *models.InvalidParameterError
			if !errors.As(err, &paramErr) {
				t.Errorf("GenerateRules() error = %v, want InvalidParameterError", err)
			}
		})
	}
}

func TestGenerateRulesOrdering(t *testing.T) {
	rules, err := GenerateRules(groceryItemsets(), models.MetricConfidence, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	for i := 1; i < len(rules); i++ {
		prev, cur := rules[i-1], rules[i]
		if prev.Confidence < cur.Confidence {
			t.Fatalf("rules not sorted by confidence desc at %d: %v < %v", i, prev.Confidence, cur.Confidence)
		}
		if prev.Confidence == cur.Confidence {
			if prev.AntecedentLabel() > cur.AntecedentLabel() {
				t.Fatalf("tie-break violated at %d: %q > %q", i, prev.AntecedentLabel(), cur.AntecedentLabel())
			}
		}
	}
}

func TestGenerateRulesDeterministic(t *testing.T) {
	first, err := GenerateRules(groceryItemsets(), models.MetricLift, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	second, err := GenerateRules(groceryItemsets(), models.MetricLift, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated runs differ")
	}
}

func TestConvictionInfiniteWhenConfidenceOne(t *testing.T) {
	// eggs only ever appears with bread and milk, so eggs->bread has
	// confidence 1 and conviction +Inf.
	rules, err := GenerateRules(groceryItemsets(), models.MetricConviction, 0)
	if err != nil {
		t.Fatalf("GenerateRules() error = %v", err)
	}
	r, ok := findRule(rules, []string{"eggs"}, []string{"bread"})
	if !ok {
		t.Fatalf("rule eggs->bread missing")
	}
	if r.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", r.Confidence)
	}
	if !math.IsInf(float64(r.Conviction), 1) {
		t.Errorf("conviction = %v, want +Inf", r.Conviction)
	}
}
