package report

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/fridell/cartlens/internal/dataset"
	"github.com/fridell/cartlens/pkg/models"
)

// ErrNoChartData is returned when there is nothing to draw.
var ErrNoChartData = errors.New("no data to chart")

// maxBars caps the bar count so labels stay readable.
const maxBars = 30

// RenderTopItemsetsChart draws the top-n itemsets by support as a PNG bar
// chart.
func RenderTopItemsetsChart(w io.Writer, itemsets []models.Itemset, n int) error {
	top := TopItemsets(itemsets, n)
	if len(top) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, len(top))
	for i, s := range top {
		bars[i] = chart.Value{Label: s.Label(), Value: s.Support}
	}
	return renderBars(w, "Top Itemsets by Support", "support", bars, &chart.ContinuousRange{Min: 0, Max: 1})
}

// RenderRulesChart draws confidence per rule, bars labeled by the rule's
// support, mirroring the support-vs-confidence view of the dashboard.
func RenderRulesChart(w io.Writer, rules []models.Rule) error {
	if len(rules) == 0 {
		return ErrNoChartData
	}
	if len(rules) > maxBars {
		rules = rules[:maxBars]
	}

	bars := make([]chart.Value, len(rules))
	for i, r := range rules {
		bars[i] = chart.Value{
			Label: fmt.Sprintf("%.3f", r.Support),
			Value: r.Confidence,
		}
	}
	return renderBars(w, "Support vs Confidence", "confidence", bars, &chart.ContinuousRange{Min: 0, Max: 1})
}

// RenderColumnChart draws a column's value distribution as a PNG bar chart.
func RenderColumnChart(w io.Writer, column string, counts []dataset.ValueCount) error {
	if len(counts) == 0 {
		return ErrNoChartData
	}
	if len(counts) > maxBars {
		counts = counts[:maxBars]
	}

	bars := make([]chart.Value, len(counts))
	max := 0.0
	for i, vc := range counts {
		bars[i] = chart.Value{Label: vc.Value, Value: float64(vc.Count)}
		if float64(vc.Count) > max {
			max = float64(vc.Count)
		}
	}
	title := fmt.Sprintf("%s Distribution", column)
	return renderBars(w, title, "count", bars, &chart.ContinuousRange{Min: 0, Max: max * 1.1})
}

// renderBars draws a PNG bar chart with the shared styling.
func renderBars(w io.Writer, title, yName string, bars []chart.Value, yRange *chart.ContinuousRange) error {
	bc := chart.BarChart{
		Title:  title,
		Width:  1024,
		Height: 512,
		Background: chart.Style{
			Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		BarWidth: barWidth(len(bars)),
		YAxis: chart.YAxis{
			Name:  yName,
			Range: yRange,
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

// barWidth keeps bars inside the fixed canvas as the bar count grows.
func barWidth(n int) int {
	if n <= 0 {
		return 60
	}
	w := 900 / n
	if w > 80 {
		return 80
	}
	if w < 10 {
		return 10
	}
	return w
}
