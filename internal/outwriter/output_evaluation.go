package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// EvaluationOutput is a full evaluation with the optional mean channel attribution.
type EvaluationOutput struct {
	schema.EvaluationResult
	Attribution []schema.ChannelECR `json:"attribution,omitempty"`
}

var metricHeaders = []string{"MRR", "NDCG", "Recall", "Hit", "Inv", "Const", "IWR", "Cold", "IntNDCG"}

// metricCells renders the nine metrics in a fixed column order.
func metricCells(m schema.AllMetrics, fmtFloat func(float64) string) []string {
	return []string{
		fmtFloat(m.MRR),
		fmtFloat(m.NDCG),
		fmtFloat(m.Recall),
		fmtFloat(m.HitRate),
		fmtFloat(m.InversionRate),
		fmtFloat(m.ConstitutionalSurfacingRate),
		fmtFloat(m.ImportanceWeightedRecall),
		fmtFloat(m.ColdStartDetectionRate),
		fmtFloat(m.IntentWeightedNDCG),
	}
}

// writeEvaluation dispatches an evaluation to the configured format.
func writeEvaluation(w io.Writer, out EvaluationOutput, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, out)
	case schema.CSVOut:
		return writeEvaluationCSV(w, out, cfg)
	case schema.MarkdownOut:
		return writeEvaluationMarkdown(w, out, cfg)
	default:
		return writeEvaluationText(w, out, cfg)
	}
}

func writeEvaluationText(w io.Writer, out EvaluationOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	// Nine metric columns plus id and intent
	queryWidth := GetMaxQueryWidth(cfg, len(metricHeaders)*(cfg.Precision+5)+20)

	rows := make([][]string, 0, len(out.PerQuery)+1)
	for _, q := range out.PerQuery {
		row := []string{strconv.Itoa(q.QueryID), contract.TruncateText(q.Query, queryWidth), q.Intent}
		rows = append(rows, append(row, metricCells(q.Metrics, fmtFloat)...))
	}
	rows = append(rows, append([]string{"", "MEAN", ""}, metricCells(out.Mean, fmtFloat)...))

	headers := append([]string{"ID", "Query", "Intent"}, metricHeaders...)
	if err := writeTable(w, headers, rows); err != nil {
		return err
	}

	summary := fmt.Sprintf("Evaluated %d queries (%d skipped without judgments)", out.Evaluated, out.Skipped)
	if out.Disabled != "" {
		summary += fmt.Sprintf(", disabled channels: %s", out.Disabled)
	}
	if _, err := fmt.Fprintln(w, summary); err != nil {
		return err
	}

	if out.Attribution == nil {
		return nil
	}
	return writeTable(w, []string{"Channel", "Exclusive", "Queries", "Mean ECR"}, attributionRows(out.Attribution, fmtFloat))
}

func attributionRows(ecrs []schema.ChannelECR, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, len(ecrs))
	for i, e := range ecrs {
		rows[i] = []string{string(e.Channel), strconv.Itoa(e.ExclusiveCount), strconv.Itoa(e.TotalInTopK), fmtFloat(e.ECR)}
	}
	return rows
}

func writeEvaluationMarkdown(w io.Writer, out EvaluationOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	if _, err := fmt.Fprintf(w, "# Retrieval Evaluation\n\n- **Evaluated:** %d\n- **Skipped:** %d\n\n", out.Evaluated, out.Skipped); err != nil {
		return err
	}

	rows := make([][]string, 0, len(out.PerQuery)+1)
	for _, q := range out.PerQuery {
		rows = append(rows, append([]string{strconv.Itoa(q.QueryID), q.Intent}, metricCells(q.Metrics, fmtFloat)...))
	}
	rows = append(rows, append([]string{"**mean**", ""}, metricCells(out.Mean, fmtFloat)...))
	if err := writeMarkdownTable(w, append([]string{"ID", "Intent"}, metricHeaders...), rows); err != nil {
		return err
	}

	if out.Attribution == nil {
		return nil
	}
	if _, err := io.WriteString(w, "\n## Channel Attribution\n\n"); err != nil {
		return err
	}
	return writeMarkdownTable(w, []string{"Channel", "Exclusive", "Queries", "Mean ECR"}, attributionRows(out.Attribution, fmtFloat))
}

func writeEvaluationCSV(w io.Writer, out EvaluationOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	header := []string{
		"query_id", "intent", "mrr", "ndcg", "recall", "hit_rate", "inversion_rate",
		"constitutional_surfacing_rate", "importance_weighted_recall", "cold_start_detection_rate", "intent_weighted_ndcg",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, q := range out.PerQuery {
			if err := cw.Write(append([]string{strconv.Itoa(q.QueryID), q.Intent}, metricCells(q.Metrics, fmtFloat)...)); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return cw.Write(append([]string{"mean", ""}, metricCells(out.Mean, fmtFloat)...))
	})
}
