/*
Package report exports the monthly fund summary as a document.

PURPOSE:
  fund.Summarize computes the figures. This package lays them out as an
  HTML page and, when a PDF renderer is configured, converts that page to
  PDF.

LAYOUT:
  - Title with the Spanish month name and year
  - Summary block: collected, resort and birthday contributions,
    expenses, net balance
  - Detail table of confirmed payments ordered by payment time

SEE ALSO:
  - fund/summary.go: MonthlySummary
  - gotenberg.go: HTML to PDF conversion
*/
package report

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/alohafunds/engine/fund"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNoRenderer is returned by PDF when no renderer is configured.
var ErrNoRenderer = errors.New("no PDF renderer configured")

// Renderer turns an HTML page into a PDF.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Exporter renders monthly summaries.
type Exporter struct {
	renderer Renderer
	tpl      *template.Template
	now      func() time.Time
}

// NewExporter parses the report template. renderer may be nil, in which
// case only HTML output is available.
func NewExporter(renderer Renderer) (*Exporter, error) {
	funcMap := template.FuncMap{
		"money":     formatMoney,
		"monthName": fund.MonthName,
		"paidAt": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("02/01/2006 15:04")
		},
	}
	tpl, err := template.New("monthly.html").Funcs(funcMap).ParseFS(templateFS, "templates/monthly.html")
	if err != nil {
		return nil, fmt.Errorf("parse monthly report template: %w", err)
	}
	return &Exporter{renderer: renderer, tpl: tpl, now: time.Now}, nil
}

// CanRenderPDF reports whether PDF output is available.
func (e *Exporter) CanRenderPDF() bool {
	return e != nil && e.renderer != nil
}

type pageData struct {
	fund.MonthlySummary
	GeneratedAt string
}

// HTML renders the summary as a standalone HTML page.
func (e *Exporter) HTML(summary fund.MonthlySummary) (string, error) {
	var buf bytes.Buffer
	data := pageData{MonthlySummary: summary, GeneratedAt: e.now().Format("02/01/2006 15:04")}
	if err := e.tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render monthly report: %w", err)
	}
	return buf.String(), nil
}

// PDF renders the summary and converts it to PDF.
func (e *Exporter) PDF(ctx context.Context, summary fund.MonthlySummary) ([]byte, error) {
	if !e.CanRenderPDF() {
		return nil, ErrNoRenderer
	}
	page, err := e.HTML(summary)
	if err != nil {
		return nil, err
	}
	pdf, err := e.renderer.RenderHTML(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("convert monthly report: %w", err)
	}
	return pdf, nil
}

// FileName is the download name of the PDF report for period.
func FileName(period fund.Period) string {
	return fmt.Sprintf("AlohaFunds_Reporte_%s_%d.pdf", fund.MonthName(period.Month), period.Year)
}

func formatMoney(m fund.Money) string {
	return "$" + m.Fixed()
}
