package report

import (
	"reflect"
	"testing"

	"github.com/fridell/cartlens/pkg/models"
)

func sampleRules() []models.Rule {
	// Already in generator order: confidence descending.
	return []models.Rule{
		{Antecedent: []string{"eggs"}, Consequent: []string{"bread"}, Support: 0.25, Confidence: 1.0},
		{Antecedent: []string{"milk"}, Consequent: []string{"bread"}, Support: 0.5, Confidence: 0.75},
		{Antecedent: []string{"bread"}, Consequent: []string{"milk"}, Support: 0.5, Confidence: 0.6667},
	}
}

func TestTopRules(t *testing.T) {
	rules := sampleRules()

	got := TopRules(rules, 2)
	if len(got) != 2 {
		t.Fatalf("TopRules returned %d recommendations, want 2", len(got))
	}
	want := Recommendation{
		Antecedent: []string{"eggs"},
		Consequent: []string{"bread"},
		Support:    0.25,
		Confidence: 1.0,
	}
	if !reflect.DeepEqual(got[0], want) {
		t.Errorf("first recommendation = %+v, want %+v", got[0], want)
	}
}

func TestTopRulesBounds(t *testing.T) {
	rules := sampleRules()

	if got := TopRules(rules, 0); len(got) != len(rules) {
		// DefaultTopN exceeds the sample, so everything comes back.
		t.Errorf("n=0 returned %d recommendations, want %d", len(got), len(rules))
	}
	if got := TopRules(rules, 100); len(got) != len(rules) {
		t.Errorf("oversized n returned %d recommendations, want %d", len(got), len(rules))
	}
	if got := TopRules(nil, 5); len(got) != 0 {
		t.Errorf("nil rules returned %d recommendations", len(got))
	}
}

func TestTopItemsets(t *testing.T) {
	itemsets := []models.Itemset{
		{Items: []string{"bread", "milk"}, Support: 0.5},
		{Items: []string{"bread"}, Support: 0.75},
		{Items: []string{"milk"}, Support: 0.75},
		{Items: []string{"eggs"}, Support: 0.25},
	}

	got := TopItemsets(itemsets, 3)
	if len(got) != 3 {
		t.Fatalf("TopItemsets returned %d itemsets, want 3", len(got))
	}
	// Ties at 0.75 break by label: {bread} before {milk}.
	wantLabels := []string{"{bread}", "{milk}", "{bread, milk}"}
	for i, want := range wantLabels {
		if got[i].Label() != want {
			t.Errorf("itemset[%d] = %s, want %s", i, got[i].Label(), want)
		}
	}

	// Input order is untouched.
	if itemsets[0].Label() != "{bread, milk}" {
		t.Errorf("input slice was reordered: first is %s", itemsets[0].Label())
	}
}
