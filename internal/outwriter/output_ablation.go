package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/rankeval/core/ablation"
	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// writeAblation dispatches an ablation report to the configured format.
func writeAblation(w io.Writer, report *schema.AblationReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, schema.EnrichedAblationReport{
			AblationReport: *report,
			Results:        schema.EnrichAblation(ablation.SortByImpact(report.Results), decision.VerdictFor),
		})
	case schema.CSVOut:
		return writeAblationCSV(w, report, cfg)
	case schema.MarkdownOut:
		_, err := io.WriteString(w, ablation.FormatReport(report))
		return err
	default:
		return writeAblationTable(w, report, cfg)
	}
}

// writeAblationTable prints one row per channel ordered by impact.
func writeAblationTable(w io.Writer, report *schema.AblationReport, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	sorted := ablation.SortByImpact(report.Results)

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		delta := formatSigned(r.Delta, cfg.Precision)
		if r.Significant() {
			delta += "*"
		}
		rows = append(rows, []string{
			string(r.Channel),
			fmtFloat(r.BaselineRecall),
			fmtFloat(r.AblatedRecall),
			delta,
			formatOptional(r.PValue, fmtFloat),
			strconv.Itoa(r.QueriesHurt),
			strconv.Itoa(r.QueriesHelped),
			strconv.Itoa(r.QueriesUnchanged),
			verdictLabel(decision.VerdictFor(r), cfg),
		})
	}
	headers := []string{"Channel", "Baseline", "Ablated", "Delta", "p-value", "Hurt", "Helped", "Unchanged", "Verdict"}
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Run %s: %d queries, baseline Recall@%d %s, completed in %dms\n",
		report.RunID, report.QueriesEvaluated(), report.Config.EffectiveRecallK(),
		fmtFloat(report.OverallBaselineRecall), report.DurationMs)
	return err
}

// writeAblationCSV writes one record per channel ordered by impact.
func writeAblationCSV(w io.Writer, report *schema.AblationReport, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	header := []string{
		"rank", "channel", "baseline_recall", "ablated_recall", "delta", "contribution",
		"p_value", "queries_hurt", "queries_helped", "queries_unchanged", "query_count", "verdict",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range schema.EnrichAblation(ablation.SortByImpact(report.Results), decision.VerdictFor) {
			pValue := ""
			if r.PValue != nil {
				pValue = fmtFloat(*r.PValue)
			}
			rec := []string{
				strconv.Itoa(r.Rank),
				string(r.Channel),
				fmtFloat(r.BaselineRecall),
				fmtFloat(r.AblatedRecall),
				fmtFloat(r.Delta),
				fmtFloat(r.Contribution),
				pValue,
				strconv.Itoa(r.QueriesHurt),
				strconv.Itoa(r.QueriesHelped),
				strconv.Itoa(r.QueriesUnchanged),
				strconv.Itoa(r.QueryCount),
				string(r.Verdict),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
