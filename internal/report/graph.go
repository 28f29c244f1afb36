package report

import (
	"sort"

	"github.com/katalvlaran/lvlath/core"

	"github.com/fridell/cartlens/pkg/models"
)

// weightScale converts float metric values to lvlath's int64 edge weights.
// Six decimal places comfortably exceeds the display precision of any of the
// five metrics.
const weightScale = 1e6

// GraphNode is one itemset node of the rule network.
type GraphNode struct {
	ID        string `json:"id"`
	InDegree  int    `json:"in_degree"`
	OutDegree int    `json:"out_degree"`
}

// GraphEdge is one antecedent-to-consequent edge, weighted by the metric the
// rules were filtered on.
type GraphEdge struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"`
}

// RuleGraph is the JSON projection of the rule network for the UI.
type RuleGraph struct {
	Metric models.Metric `json:"metric"`
	Nodes  []GraphNode   `json:"nodes"`
	Edges  []GraphEdge   `json:"edges"`
}

// BuildRuleGraph assembles the directed rule network: nodes are the itemset
// labels appearing on either side of a rule, edges run antecedent to
// consequent weighted by the chosen metric. Duplicate edges (the same label
// pair from different rules) keep the first, highest-metric occurrence since
// rules arrive sorted.
func BuildRuleGraph(rules []models.Rule, metric models.Metric) (*RuleGraph, error) {
	g := core.NewGraph(core.WithDirected(true), core.WithWeighted())
	exact := make(map[[2]string]float64, len(rules))

	for _, r := range rules {
		from := r.AntecedentLabel()
		to := r.ConsequentLabel()
		pair := [2]string{from, to}
		if _, dup := exact[pair]; dup {
			continue
		}
		w := r.MetricValue(metric)
		exact[pair] = w
		if _, err := g.AddEdge(from, to, scaleWeight(w)); err != nil {
			return nil, err
		}
	}

	out := &RuleGraph{Metric: metric, Nodes: []GraphNode{}, Edges: []GraphEdge{}}

	ids := g.Vertices()
	sort.Strings(ids)
	for _, id := range ids {
		in, outDeg, _, err := g.Degree(id)
		if err != nil {
			return nil, err
		}
		out.Nodes = append(out.Nodes, GraphNode{ID: id, InDegree: in, OutDegree: outDeg})
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, GraphEdge{
			From:   e.From,
			To:     e.To,
			Weight: exact[[2]string{e.From, e.To}],
		})
	}
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].From != out.Edges[j].From {
			return out.Edges[i].From < out.Edges[j].From
		}
		return out.Edges[i].To < out.Edges[j].To
	})

	return out, nil
}

// scaleWeight converts a metric value to a fixed-point edge weight, clamping
// infinite conviction to the int64 range.
func scaleWeight(v float64) int64 {
	scaled := v * weightScale
	if scaled > float64(int64(1)<<62) {
		return int64(1) << 62
	}
	if scaled < -float64(int64(1)<<62) {
		return -(int64(1) << 62)
	}
	return int64(scaled)
}
