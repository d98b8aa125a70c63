package report

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"watermesh/internal/orchestrator"
)

var (
	headerBgColor = &props.Color{Red: 44, Green: 62, Blue: 80}
	primaryColor  = &props.Color{Red: 52, Green: 152, Blue: 219}
	darkGrayColor = &props.Color{Red: 127, Green: 140, Blue: 141}

	titleStyle = props.Text{Size: 22, Style: fontstyle.Bold, Align: align.Center, Color: headerBgColor}
	h2Style    = props.Text{Size: 14, Style: fontstyle.Bold, Color: headerBgColor, Top: 5}
	smallStyle = props.Text{Size: 8, Color: darkGrayColor}

	metricValueStyle = props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Center, Color: primaryColor}
	metricLabelStyle = props.Text{Size: 9, Align: align.Center, Color: darkGrayColor}
)

// PDF renders a one-page summary of r: key planning metrics, resilience
// augmentation (if run), and availability figures (if computed).
func PDF(r *orchestrator.Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	m.AddRow(14, text.NewCol(12, "Network Planning Report", titleStyle))
	m.AddRow(5, line.NewCol(12))
	m.AddRow(6,
		text.NewCol(6, fmt.Sprintf("Run: %s", r.RunID), smallStyle),
		text.NewCol(6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04:05")),
			props.Text{Size: 8, Color: darkGrayColor, Align: align.Right}),
	)
	m.AddRow(8)

	addSection(m, "Plan Outcome")
	addMetricCards(m, []metricCard{
		{Label: "Variant", Value: r.Variant},
		{Label: "Percent Served", Value: fmt.Sprintf("%.1f%%", r.PercentServed)},
		{Label: "Cost (EUR)", Value: fmt.Sprintf("%.0f", r.CostEUR)},
	})
	m.AddRow(5)
	addKeyValueTable(m, []keyValue{
		{"Stop Reason", r.StopReason},
		{"Nodes Served", fmt.Sprintf("%d", r.NodesServed)},
		{"Pipe Length (m)", fmt.Sprintf("%.1f", r.PipeLength)},
		{"Tank Capacity (m3)", fmt.Sprintf("%.1f", r.TankCapacityM3)},
		{"Tank Capacity Exceeded", fmt.Sprintf("%v", r.TankCapacityExceeded)},
		{"Failure Rate", fmt.Sprintf("%.4f", r.FailureRate)},
		{"Iterations", fmt.Sprintf("%d", r.Iterations)},
	})

	if r.Augmentation != nil {
		m.AddRow(10)
		addSection(m, "Resilience Augmentation")
		addMetricCards(m, []metricCard{
			{Label: "Pipes Added", Value: fmt.Sprintf("%d", len(r.Augmentation.NewPipes))},
			{Label: "Added Cost (EUR)", Value: fmt.Sprintf("%.0f", r.Augmentation.CostEUR)},
		})
	}

	if r.Availability != nil {
		m.AddRow(10)
		addSection(m, "Availability")
		a := r.Availability
		addMetricCards(m, []metricCard{
			{Label: "Network Availability", Value: fmt.Sprintf("%.4f", a.NetworkAvailability)},
			{Label: "MTBF (days)", Value: fmt.Sprintf("%.1f", a.MTBFDays)},
		})
		m.AddRow(5)
		addKeyValueTable(m, []keyValue{
			{"Node Avg Availability", fmt.Sprintf("%.4f", a.NodeAvgAvailability)},
			{"Node Worst Availability", fmt.Sprintf("%.4f", a.NodeWorstAvailability)},
			{"Mean Unsupplied Water (m3)", fmt.Sprintf("%.2f", a.MeanUnsuppliedWaterM3)},
			{"AFY", fmt.Sprintf("%.2f", a.AFY)},
			{"YAUW", fmt.Sprintf("%.4f", a.YAUW)},
		})
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

type metricCard struct {
	Label string
	Value string
}

func addMetricCards(m core.Maroto, cards []metricCard) {
	if len(cards) == 0 {
		return
	}
	colSize := 12 / len(cards)
	if colSize < 2 {
		colSize = 2
	}

	var cols []core.Col
	for _, c := range cards {
		cols = append(cols, col.New(colSize).Add(
			text.New(c.Value, metricValueStyle),
			text.New(c.Label, metricLabelStyle),
		))
	}
	m.AddRow(18, cols...)
}

type keyValue struct {
	Key   string
	Value string
}

func addKeyValueTable(m core.Maroto, items []keyValue) {
	for _, item := range items {
		m.AddRow(6,
			text.NewCol(6, item.Key, props.Text{Size: 10, Style: fontstyle.Bold}),
			text.NewCol(6, item.Value, props.Text{Size: 10}),
		)
	}
}

func addSection(m core.Maroto, title string) {
	m.AddRow(9, text.NewCol(12, title, h2Style))
	m.AddRow(2, line.NewCol(12, props.Line{Color: primaryColor}))
	m.AddRow(4)
}
