package logger

import (
	"fmt"
	"os"
	"path/filepath"
)

// StringListReport collects one line per converged resource.
type StringListReport struct {
	Title string
	Items []string
}

var GlobalStringListReport StringListReport
var ReportPath = "reports"

func init() {
	GlobalStringListReport = StringListReport{
		Title: "ConvergedResources",
		Items: []string{},
	}
}

// AddReportItem appends a line to the global report.
func AddReportItem(item string) {
	GlobalStringListReport.Items = append(GlobalStringListReport.Items, item)
}

// WriteReportToFile appends the global report to converge-<title>.txt under
// ReportPath and resets the collected items.
func WriteReportToFile() (string, error) {
	if err := os.MkdirAll(ReportPath, 0755); err != nil {
		return "", fmt.Errorf("creating report path: %w", err)
	}

	title := GlobalStringListReport.Title
	if title == "" {
		title = "untitled"
	}
	// Replace spaces and special characters with underscores
	safeTitle := ""
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safeTitle += string(r)
		} else {
			safeTitle += "_"
		}
	}

	reportFullPath := filepath.Join(ReportPath, fmt.Sprintf("converge-%s.txt", safeTitle))

	f, err := os.OpenFile(reportFullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	for _, item := range GlobalStringListReport.Items {
		if _, err := fmt.Fprintln(f, item); err != nil {
			return "", fmt.Errorf("writing to file: %w", err)
		}
	}

	GlobalStringListReport.Items = []string{}
	if _, err := fmt.Fprintln(f); err != nil {
		return "", fmt.Errorf("writing new line to file: %w", err)
	}

	return reportFullPath, nil
}
