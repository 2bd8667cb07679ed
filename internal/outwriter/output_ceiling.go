package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// CeilingOutput is a ceiling estimate with the optional quadrant placement.
type CeilingOutput struct {
	schema.CeilingResult
	Quadrant *schema.QuadrantResult `json:"quadrant,omitempty"`
}

// writeCeiling dispatches a ceiling result to the configured format.
func writeCeiling(w io.Writer, out CeilingOutput, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeJSON(w, out)
	case schema.CSVOut:
		return writeCeilingCSV(w, out, cfg)
	case schema.MarkdownOut:
		return writeCeilingMarkdown(w, out, cfg)
	default:
		return writeCeilingText(w, out, cfg)
	}
}

func ceilingRows(perQuery []schema.PerQueryCeiling, fmtFloat func(float64) string) [][]string {
	rows := make([][]string, len(perQuery))
	for i, q := range perQuery {
		rows[i] = []string{strconv.Itoa(q.QueryID), strconv.Itoa(q.CeilingRank), fmtFloat(q.ReciprocalRank)}
	}
	return rows
}

func writeCeilingText(w io.Writer, out CeilingOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	if err := writeTable(w, []string{"Query", "Ceiling Rank", "RR"}, ceilingRows(out.PerQuery, fmtFloat)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Ceiling MRR: %s | System MRR: %s | Gap: %s\n",
		fmtFloat(out.CeilingMRR), formatOptional(out.SystemMRR, fmtFloat), fmtFloat(out.Gap)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s\n", out.Interpretation); err != nil {
		return err
	}
	if q := out.Quadrant; q != nil {
		if _, err := fmt.Fprintf(w, "Quadrant: %s\n  %s\n  %s\n", q.Quadrant, q.Interpretation, q.Recommendation); err != nil {
			return err
		}
	}
	return nil
}

func writeCeilingMarkdown(w io.Writer, out CeilingOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	if _, err := fmt.Fprintf(w, "# Ceiling Estimate\n\n- **Ceiling MRR:** %s\n- **System MRR:** %s\n- **Gap:** %s\n\n%s\n\n",
		fmtFloat(out.CeilingMRR), formatOptional(out.SystemMRR, fmtFloat), fmtFloat(out.Gap), out.Interpretation); err != nil {
		return err
	}
	if q := out.Quadrant; q != nil {
		if _, err := fmt.Fprintf(w, "**Quadrant:** %s. %s\n\n", q.Quadrant, q.Recommendation); err != nil {
			return err
		}
	}
	return writeMarkdownTable(w, []string{"Query", "Ceiling Rank", "RR"}, ceilingRows(out.PerQuery, fmtFloat))
}

func writeCeilingCSV(w io.Writer, out CeilingOutput, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	return writeCSVWithHeader(w, []string{"query_id", "ceiling_rank", "reciprocal_rank"}, func(cw *csv.Writer) error {
		for _, row := range ceilingRows(out.PerQuery, fmtFloat) {
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}
