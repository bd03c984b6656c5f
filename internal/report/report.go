// Package report writes a run's results to a multi-sheet xlsx workbook for
// the operations team: records, metrics, monthly totals, reconciliation, and
// the portfolio summary.
package report

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/calc"
	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// Writer renders run results into workbooks.
type Writer struct {
	printer *message.Printer
}

// NewWriter creates a Writer with US English number formatting.
func NewWriter() *Writer {
	return &Writer{printer: message.NewPrinter(language.AmericanEnglish)}
}

// Write renders the run result to an xlsx workbook at path.
func (w *Writer) Write(result *model.RunResult, path string) error {
	f := xlsx.NewFile()

	if err := w.recordsSheet(f, result); err != nil {
		return err
	}
	if err := w.metricsSheet(f, result); err != nil {
		return err
	}
	if err := w.monthlySheet(f, result); err != nil {
		return err
	}
	if err := w.reconciliationSheet(f, result); err != nil {
		return err
	}
	if err := w.portfolioSheet(f, result); err != nil {
		return err
	}
	if err := w.skippedSheet(f, result); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func (w *Writer) recordsSheet(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet("Records")
	if err != nil {
		return eris.Wrap(err, "report: add records sheet")
	}
	addHeader(sheet,
		"source_id", "property_id", "vendor", "invoice_number", "invoice_date",
		"billing_period", "amount_due", "monthly_tons", "line_items",
		"confidence", "tier", "flags")

	for _, rr := range result.Records {
		rec := rr.Record
		row := sheet.AddRow()
		addCells(row,
			rec.SourceID,
			rec.PropertyID,
			rec.Vendor,
			rec.InvoiceNumber,
			rec.InvoiceDate,
			rec.BillingPeriod,
			floatPtr(rec.AmountDue),
			floatPtr(rec.MonthlyTons),
			strconv.Itoa(len(rec.LineItems)),
			strconv.FormatFloat(rr.Validation.Confidence, 'f', 2, 64),
			string(rr.Validation.Tier),
			flagSummary(rr.Validation.Flags),
		)
	}
	return nil
}

func (w *Writer) metricsSheet(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet("Metrics")
	if err != nil {
		return eris.Wrap(err, "report: add metrics sheet")
	}
	addHeader(sheet,
		"source_id", "property_id", "period", "monthly_yards",
		"yards_per_door", "cost_per_door", "benchmark_tier", "notes")

	for _, rr := range result.Records {
		m := rr.Metrics
		row := sheet.AddRow()
		addCells(row,
			m.SourceID,
			m.PropertyID,
			m.Period,
			metricCell(m.MonthlyYards),
			metricCell(m.YPD),
			metricCell(m.CPD),
			string(m.BenchmarkTier),
			strings.Join(m.Notes, "; "),
		)
	}
	return nil
}

func (w *Writer) monthlySheet(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet("Monthly Totals")
	if err != nil {
		return eris.Wrap(err, "report: add monthly sheet")
	}
	addHeader(sheet, "property_id", "period", "total", "records", "pending_manual")

	for _, mt := range result.Monthly {
		row := sheet.AddRow()
		addCells(row,
			mt.PropertyID,
			mt.Period,
			w.money(mt.Total),
			strconv.Itoa(mt.RecordCount),
			strings.Join(mt.PendingManual, "; "),
		)
	}
	return nil
}

func (w *Writer) reconciliationSheet(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet("Reconciliation")
	if err != nil {
		return eris.Wrap(err, "report: add reconciliation sheet")
	}
	addHeader(sheet,
		"property_id", "period", "computed", "reported", "abs_diff",
		"pct_diff", "status", "reported_source")

	for _, rec := range result.Discrepant {
		row := sheet.AddRow()
		addCells(row,
			rec.PropertyID,
			rec.Period,
			w.money(rec.Computed),
			w.money(rec.Reported),
			w.money(rec.AbsDiff),
			strconv.FormatFloat(calc.Round2(rec.PctDiff), 'f', 2, 64),
			string(rec.Status),
			rec.ReportedSrc,
		)
	}
	return nil
}

func (w *Writer) portfolioSheet(f *xlsx.File, result *model.RunResult) error {
	sheet, err := f.AddSheet("Portfolio")
	if err != nil {
		return eris.Wrap(err, "report: add portfolio sheet")
	}

	p := result.Portfolio
	if p == nil {
		return nil
	}

	kv := func(k, v string) {
		row := sheet.AddRow()
		addCells(row, k, v)
	}
	kv("properties_total", strconv.Itoa(p.PropertiesTotal))
	kv("avg_cost_per_door", metricCell(p.AvgCPD))
	kv("avg_yards_per_door", metricCell(p.AvgYPD))
	kv("excluded_missing_data", strconv.Itoa(p.ExcludedMissing))
	for _, tier := range []model.BenchmarkTier{
		model.BenchmarkExcellent,
		model.BenchmarkWithinTarget,
		model.BenchmarkAboveTarget,
		model.BenchmarkUnavailable,
	} {
		kv("tier_"+string(tier), strconv.Itoa(p.TierCounts[tier]))
	}
	kv("records_processed", strconv.Itoa(result.RecordCount))
	kv("duration_ms", strconv.FormatInt(result.DurationMS, 10))
	return nil
}

func (w *Writer) skippedSheet(f *xlsx.File, result *model.RunResult) error {
	if len(result.Skipped) == 0 {
		return nil
	}
	sheet, err := f.AddSheet("Skipped")
	if err != nil {
		return eris.Wrap(err, "report: add skipped sheet")
	}
	addHeader(sheet, "source_id", "reason")
	for _, sk := range result.Skipped {
		row := sheet.AddRow()
		addCells(row, sk.SourceID, sk.Reason)
	}
	return nil
}

// money formats a dollar amount with thousands separators, e.g. 12,847.50.
func (w *Writer) money(v float64) string {
	return w.printer.Sprintf("%.2f", calc.Round2(v))
}

func addHeader(sheet *xlsx.Sheet, names ...string) {
	row := sheet.AddRow()
	addCells(row, names...)
}

func addCells(row *xlsx.Row, values ...string) {
	for _, v := range values {
		cell := row.AddCell()
		cell.SetString(v)
	}
}

// metricCell renders an available metric to two decimals and an unavailable
// one to the explicit marker the analysts expect.
func metricCell(m model.Metric) string {
	if !m.Available {
		return "n/a"
	}
	return strconv.FormatFloat(calc.Round2(m.Value), 'f', 2, 64)
}

func floatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func flagSummary(flags []model.Flag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(flags))
	for _, fl := range flags {
		parts = append(parts, string(fl.Severity)+":"+fl.Field)
	}
	return strings.Join(parts, "; ")
}
