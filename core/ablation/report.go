package ablation

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/schema"
)

// isoMillis matches the millisecond ISO-8601 layout used in stored reports.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// SortByImpact returns a copy of results ordered by |delta| descending.
func SortByImpact(results []schema.AblationResult) []schema.AblationResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b schema.AblationResult) int {
		return cmp.Compare(math.Abs(b.Delta), math.Abs(a.Delta))
	})
	return sorted
}

// SortByContribution returns a copy of results ordered by signed delta ascending,
// so the most valuable channel comes first.
func SortByContribution(results []schema.AblationResult) []schema.AblationResult {
	sorted := SortByImpact(results)
	slices.SortStableFunc(sorted, func(a, b schema.AblationResult) int {
		return cmp.Compare(a.Delta, b.Delta)
	})
	return sorted
}

// FormatReport renders a report as markdown: a summary list, the impact table,
// a legend and the contribution ranking.
func FormatReport(report *schema.AblationReport) string {
	if report == nil {
		return ""
	}
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("## Ablation Study Report")
	line("")
	line("- **Run ID:** %s", report.RunID)
	line("- **Timestamp:** %s", report.Timestamp.UTC().Format(isoMillis))
	line("- **Baseline Recall@20:** %.4f", report.OverallBaselineRecall)
	line("- **Duration:** %dms", report.DurationMs)
	line("- **Queries evaluated:** %d", report.QueriesEvaluated())
	line("")

	sorted := SortByImpact(report.Results)
	line("| Channel | Baseline | Ablated | Delta | p-value | Hurt | Helped | Unchanged | Verdict |")
	line("|---------|----------|---------|-------|---------|------|--------|-----------|---------|")
	for _, r := range sorted {
		sig := ""
		if r.Significant() {
			sig = "*"
		}
		pStr := "n/a"
		if r.PValue != nil {
			pStr = fmt.Sprintf("%.4f", *r.PValue)
		}
		line("| %s | %.4f | %.4f | %s%s | %s | %d | %d | %d | %s |",
			r.Channel, r.BaselineRecall, r.AblatedRecall, signed(r.Delta), sig, pStr,
			r.QueriesHurt, r.QueriesHelped, r.QueriesUnchanged, decision.VerdictFor(r))
	}

	line("")
	line("**Legend:** Delta = ablated - baseline. Negative delta = channel contributes positively.")
	line("Hurt = queries where removing channel decreased recall. * = significant at p<0.05.")
	line("")
	line("### Channel Contribution Ranking")
	line("")
	for i, r := range SortByContribution(report.Results) {
		line("%d. **%s** — contribution: %s Recall@20", i+1, r.Channel, signed(-r.Delta))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// signed formats v with four decimals and a leading plus for non-negative values.
func signed(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.4f", math.Abs(v))
	}
	return fmt.Sprintf("%.4f", v)
}
