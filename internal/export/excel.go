// Package export writes skill gap reports as Excel workbooks.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cvmatch/internal/types"
)

const (
	summarySheet = "Summary"
	gapsSheet    = "Skill Gaps"
)

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteSkillGapWorkbook writes gaps and their summary to an .xlsx file and
// returns the path written. The extension is appended when missing.
func WriteSkillGapWorkbook(path string, gaps []types.SkillGapEntry, summary types.SkillGapSummary, generated time.Time) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return "", err
	}
	if _, err := f.NewSheet(gapsSheet); err != nil {
		return "", err
	}

	if err := writeSummary(f, summary, generated); err != nil {
		return "", fmt.Errorf("failed to write summary sheet: %w", err)
	}
	if err := writeGaps(f, gaps); err != nil {
		return "", fmt.Errorf("failed to write skill gap sheet: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, summary types.SkillGapSummary, generated time.Time) error {
	if err := f.SetColWidth(summarySheet, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 24); err != nil {
		return err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Skill Gap Report")
	_ = f.MergeCell(summarySheet, "A1", "B1")
	_ = f.SetCellStyle(summarySheet, "A1", "B1", titleStyle)

	rows := [][2]any{
		{"Generated:", generated.Format("2006-01-02 15:04:05")},
		{"Total gaps:", summary.TotalGaps},
		{"High priority gaps:", summary.HighPriorityGaps},
		{"Certification opportunities:", summary.CertificationOpportunities},
	}
	for i, r := range rows {
		row := i + 3
		label := fmt.Sprintf("A%d", row)
		_ = f.SetCellValue(summarySheet, label, r[0])
		_ = f.SetCellStyle(summarySheet, label, label, labelStyle)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), r[1])
	}
	return nil
}

func writeGaps(f *excelize.File, gaps []types.SkillGapEntry) error {
	widths := map[string]float64{"A": 28, "B": 16, "C": 12, "D": 60}
	for col, w := range widths {
		if err := f.SetColWidth(gapsSheet, col, col, w); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	if err != nil {
		return err
	}
	highStyle, err := rowStyle(f, "FFC7CE")
	if err != nil {
		return err
	}
	mediumStyle, err := rowStyle(f, "FFEB9C")
	if err != nil {
		return err
	}

	headers := []string{"Skill", "Category", "Priority", "Certifications"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(gapsSheet, cell, header)
		_ = f.SetCellStyle(gapsSheet, cell, cell, headerStyle)
	}

	for i, gap := range gaps {
		row := i + 2
		values := []any{gap.Skill, gap.Category, gap.Priority, strings.Join(gap.CertificationSuggestions, ", ")}
		if err := f.SetSheetRow(gapsSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		style := mediumStyle
		if gap.Priority == "high" {
			style = highStyle
		}
		_ = f.SetCellStyle(gapsSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), style)
	}

	if len(gaps) > 0 {
		if err := f.AutoFilter(gapsSheet, fmt.Sprintf("A1:D%d", len(gaps)+1), nil); err != nil {
			return err
		}
	}
	return f.SetPanes(gapsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func rowStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    cellBorder,
	})
}
