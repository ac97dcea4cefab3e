package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

const narrativeWidth = 72

// renderResult formats a result as terminal tables followed by the narrative.
func renderResult(res *domain.Result) string {
	var b strings.Builder

	summary := table.NewWriter()
	summary.SetStyle(table.StyleLight)
	summary.SetTitle("Analysis " + res.ID)
	summary.AppendRows([]table.Row{
		{"Scan type", strings.ToUpper(string(res.ScanType))},
		{"File", fmt.Sprintf("%s (%d bytes)", res.FileName, res.FileSize)},
		{"Patient", patientLine(res.PatientInfo)},
		{"Date", res.AnalysisDate.Format("2006-01-02 15:04:05")},
		{"Confidence", fmt.Sprintf("%.0f%%", res.Confidence*100)},
		{"Result", verdict(res.Findings)},
	})
	if res.Image != nil {
		summary.AppendRow(table.Row{"DICOM", fmt.Sprintf("%s %dx%d", res.Image.Modality, res.Image.Columns, res.Image.Rows)})
	}
	b.WriteString(summary.Render())
	b.WriteString("\n")

	if len(res.Findings.Regions) > 0 {
		regions := table.NewWriter()
		regions.SetStyle(table.StyleLight)
		regions.AppendHeader(table.Row{"Region", "Status", "Confidence"})
		for _, r := range res.Findings.Regions {
			status := "normal"
			if !r.Normal {
				status = "abnormal"
			}
			regions.AppendRow(table.Row{r.Name, status, fmt.Sprintf("%.0f%%", r.Confidence*100)})
		}
		regions.SetColumnConfigs([]table.ColumnConfig{{Number: 3, Align: text.AlignRight}})
		b.WriteString(regions.Render())
		b.WriteString("\n")
	}

	if len(res.Findings.Abnormalities) > 0 {
		b.WriteString("\nAbnormalities:\n")
		for _, a := range res.Findings.Abnormalities {
			b.WriteString("  - " + a + "\n")
		}
	}
	b.WriteString("\n" + text.WrapSoft(res.AIAnalysis, narrativeWidth) + "\n")
	b.WriteString("\nRecommendation: " + text.WrapSoft(res.Recommendation, narrativeWidth) + "\n")
	return b.String()
}

func verdict(f domain.Findings) string {
	if f.Normal {
		return "Normal"
	}
	return "Abnormal: " + f.DetectedCondition
}

func patientLine(p domain.PatientInfo) string {
	parts := []string{p.PatientID}
	for _, s := range []string{p.PatientName, p.PatientAge, p.PatientGender} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " / ")
}
