package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// ErrUnsupportedFormat is returned by ParseFormat for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ParseFormat accepts json, text (or txt) and pdf. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the HTTP content type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json; charset=utf-8"
	}
}

// Extension returns the file extension of the format, including the dot.
func (f Format) Extension() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// Exporter renders reports in any supported format.
type Exporter struct {
	pdf PDFOptions
}

func NewExporter(pdf PDFOptions) *Exporter {
	return &Exporter{pdf: pdf}
}

// Write renders r to w in format f.
func (e *Exporter) Write(w io.Writer, r Report, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatText:
		return WriteText(w, r)
	case FormatPDF:
		return WritePDF(w, r, e.pdf)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// WriteJSON writes r as indented JSON with non-ASCII text left unescaped.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteText writes the sectioned plain-text rendering of r.
func WriteText(w io.Writer, r Report) error {
	if _, err := io.WriteString(w, Text(r)); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Text returns the plain-text rendering of r.
func Text(r Report) string {
	rule := strings.Repeat("=", 60)
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("%s", rule)
	add("%s", r.Info.Title)
	add("%s", rule)
	add("")

	add("一、报告基本信息")
	add("项目名称：%s", r.Info.ProjectName)
	add("项目类型：%s", r.Info.ProjectType)
	add("生成时间：%s", r.Info.GenerateTime)
	add("")

	add("二、审核结果概览")
	add("审核得分：%d分", r.Summary.Score)
	add("严重问题：%d项", r.Summary.SevereIssues)
	add("一般问题：%d项", r.Summary.GeneralIssues)
	add("优化建议：%d项", r.Summary.Suggestions)
	add("")

	add("三、问题清单")
	for _, g := range r.Issues {
		add("")
		add("【%s】", g.Category)
		for i, f := range g.Items {
			add("%d. %s", i+1, f.Description)
			if f.Suggestion != "" {
				add("   建议：%s", f.Suggestion)
			}
		}
	}
	add("")

	add("四、审核结论")
	add("结论：%s", r.Conclusion.Label)
	add("说明：%s", r.Conclusion.Description)
	add("")
	add("后续步骤：")
	for _, step := range r.Conclusion.NextSteps {
		add("  - %s", step)
	}
	return strings.Join(lines, "\n")
}
