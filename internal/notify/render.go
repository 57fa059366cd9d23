package notify

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"certwatch/internal/scan"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html").Funcs(template.FuncMap{
		"formatTime": func(t time.Time) string { return t.Format("2006-01-02") },
		"outcome":    func(k scan.OutcomeKind) string { return k.String() },
		"verdict":    func(k scan.VerdictKind) string { return k.String() },
	}).ParseFS(templateFS, "templates/report.html"),
)

// RenderReport produces the HTML email body for a report.
func RenderReport(report *scan.Report) (string, error) {
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, report); err != nil {
		return "", fmt.Errorf("failed to execute report template: %w", err)
	}
	return buf.String(), nil
}
