package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// baselineRows returns the four core metrics as label/value pairs.
func baselineRows(m schema.BaselineMetrics, fmtFloat func(float64) string) [][]string {
	return [][]string{
		{schema.MetricMRR5, fmtFloat(m.MRR5)},
		{schema.MetricNDCG10, fmtFloat(m.NDCG10)},
		{schema.MetricRecall20, fmtFloat(m.Recall20)},
		{schema.MetricHitRate1, fmtFloat(m.HitRate1)},
	}
}

// writeBaseline dispatches a baseline result to the configured format.
func writeBaseline(w io.Writer, result schema.BaselineResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, result)
	case schema.CSVOut:
		return writeBaselineCSV(w, result, cfg)
	case schema.MarkdownOut:
		return writeBaselineMarkdown(w, result, cfg)
	default:
		return writeBaselineText(w, result, cfg)
	}
}

func writeBaselineText(w io.Writer, result schema.BaselineResult, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	if err := writeTable(w, []string{"Metric", "Value"}, baselineRows(result.Metrics, fmtFloat)); err != nil {
		return err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Queries evaluated: %d\n", result.QueryCount)
	writeDecision(&sb, "Contingency", result.Contingency, cfg)
	if result.Relative != nil {
		writeDecision(&sb, "Relative", *result.Relative, cfg)
	}
	if ci := result.BootstrapCI; ci != nil {
		fmt.Fprintf(&sb, "MRR@5 95%% CI: [%s, %s] (width %s, n=%d, %d iterations)\n",
			fmtFloat(ci.CILower), fmtFloat(ci.CIUpper), fmtFloat(ci.CIWidth), ci.SampleSize, ci.Iterations)
		fmt.Fprintf(&sb, "Significant vs %s boundary: %t\n", fmtFloat(ci.TestedBoundary), ci.IsSignificant)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func writeDecision(sb *strings.Builder, label string, d schema.ContingencyDecision, cfg *contract.Config) {
	fmt.Fprintf(sb, "%s: %s (%s)\n", label, actionLabel(d.Action, cfg), d.Threshold)
	fmt.Fprintf(sb, "  %s\n", d.Interpretation)
}

func writeBaselineMarkdown(w io.Writer, result schema.BaselineResult, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	header := fmt.Sprintf("# BM25 Baseline\n\n- **Timestamp:** %s\n- **Queries:** %d\n- **Decision:** %s (%s)\n\n",
		result.Timestamp.UTC().Format("2006-01-02T15:04:05Z07:00"), result.QueryCount,
		result.Contingency.Action, result.Contingency.Threshold)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	if err := writeMarkdownTable(w, []string{"Metric", "Value"}, baselineRows(result.Metrics, fmtFloat)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n", result.Contingency.Interpretation)
	return err
}

func writeBaselineCSV(w io.Writer, result schema.BaselineResult, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	return writeCSVWithHeader(w, []string{"metric", "value", "query_count"}, func(cw *csv.Writer) error {
		count := strconv.Itoa(result.QueryCount)
		for _, row := range baselineRows(result.Metrics, fmtFloat) {
			if err := cw.Write(append(row, count)); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return cw.Write([]string{schema.MetricContingencyDecision, string(result.Contingency.Action), count})
	})
}
