// Package report renders a finished orchestrator.Report as an Excel
// workbook or a one-page PDF summary.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"watermesh/internal/orchestrator"
)

// Excel renders r as a workbook: a Summary sheet, a Pipes sheet listing
// every sized edge, and, when present, an Availability sheet.
func Excel(r *orchestrator.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2C3E50"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	writeSummarySheet(f, r, headerStyle)
	writePipesSheet(f, r, headerStyle)
	if r.Availability != nil {
		writeAvailabilitySheet(f, r, headerStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, r *orchestrator.Report, headerStyle int) {
	sheet := "Summary"
	f.NewSheet(sheet)

	f.SetCellValue(sheet, "A1", "Network Planning Report")
	f.MergeCell(sheet, "A1", "B1")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	rows := []struct {
		label string
		value any
	}{
		{"Run ID", r.RunID},
		{"Variant", r.Variant},
		{"Stop Reason", r.StopReason},
		{"Partial", r.Partial},
		{"Nodes Served", r.NodesServed},
		{"Demand Served (m3/day)", r.DemandServed},
		{"Total Demand (m3/day)", r.TotalDemand},
		{"Percent Served", r.PercentServed},
		{"Pipe Length (m)", r.PipeLength},
		{"Cost (EUR)", r.CostEUR},
		{"Tank Capacity (m3)", r.TankCapacityM3},
		{"Tank Capacity Exceeded", r.TankCapacityExceeded},
		{"Failure Rate", r.FailureRate},
		{"Iterations", r.Iterations},
	}
	row := 3
	for _, kv := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), kv.label)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), kv.value)
		row++
	}

	if r.Augmentation != nil {
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Resilience Augmentation")
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Added Cost (EUR)")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.Augmentation.CostEUR)
		row++
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Edges Added")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), len(r.Augmentation.NewPipes))
	}

	f.SetColWidth(sheet, "A", "B", 24)
}

func writePipesSheet(f *excelize.File, r *orchestrator.Report, headerStyle int) {
	sheet := "Pipes"
	f.NewSheet(sheet)

	headers := []string{"From", "To", "Length (m)", "Diameter (mm)", "Flow (m3/day)", "Has Valve", "Valve (mm)"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(i, 1), h)
	}
	f.SetCellStyle(sheet, "A1", "G1", headerStyle)

	row := 2
	for _, e := range r.Sized {
		f.SetCellValue(sheet, cellAddr(0, row), e.From)
		f.SetCellValue(sheet, cellAddr(1, row), e.To)
		f.SetCellValue(sheet, cellAddr(2, row), e.Length)
		f.SetCellValue(sheet, cellAddr(3, row), e.DiameterMM)
		f.SetCellValue(sheet, cellAddr(4, row), e.FlowM3PerDay)
		f.SetCellValue(sheet, cellAddr(5, row), e.HasValve)
		f.SetCellValue(sheet, cellAddr(6, row), e.ValveMM)
		row++
	}

	f.SetColWidth(sheet, "A", "G", 15)
}

func writeAvailabilitySheet(f *excelize.File, r *orchestrator.Report, headerStyle int) {
	sheet := "Availability"
	f.NewSheet(sheet)

	a := r.Availability
	metrics := []struct {
		name  string
		value float64
	}{
		{"Node Average Availability", a.NodeAvgAvailability},
		{"Node Worst Availability", a.NodeWorstAvailability},
		{"Network Availability", a.NetworkAvailability},
		{"Mean Unsupplied Water (m3)", a.MeanUnsuppliedWaterM3},
		{"MTBF (days)", a.MTBFDays},
		{"AFY (failures/year)", a.AFY},
		{"YAUW", a.YAUW},
	}

	f.SetCellValue(sheet, "A1", "Metric")
	f.SetCellValue(sheet, "B1", "Value")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	for i, m := range metrics {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.value)
	}

	f.SetColWidth(sheet, "A", "B", 28)
}

func cellAddr(col, row int) string {
	return fmt.Sprintf("%s%d", string(rune('A'+col)), row)
}
