package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/rankeval/core"
	"github.com/huangsam/rankeval/core/ablation"
	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/core/metrics"
	"github.com/huangsam/rankeval/core/stats"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// signTestResult is the JSON shape of the sign_test tool.
type signTestResult struct {
	PValue      *float64 `json:"p_value"`
	Significant bool     `json:"significant"`
	Pairs       int      `json:"pairs"`
}

// attributionResult is the JSON shape of the channel_attribution tool.
type attributionResult struct {
	K         int                 `json:"k"`
	Evaluated int                 `json:"queries_evaluated"`
	Disabled  string              `json:"disabled_channels,omitempty"`
	Channels  []schema.ChannelECR `json:"channels"`
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

// optionalFloat returns a pointer to the named argument, or nil when it is absent.
func optionalFloat(request mcp.CallToolRequest, name string) *float64 {
	if _, ok := request.GetArguments()[name]; !ok {
		return nil
	}
	v := request.GetFloat(name, 0)
	return &v
}

// unitInterval rejects values outside [0, 1].
func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1 (received %v)", name, v)
	}
	return nil
}

// requestConfig clones the base config and applies the shared path arguments.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) *contract.Config {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("dataset_path", ""); p != "" {
		cfg.DatasetPath = p
	}
	if p := request.GetString("replay_path", ""); p != "" {
		cfg.ReplayPath = p
	}
	return cfg
}

func (h *toolHandler) handleComputeMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var results []schema.ScoredResult
	if err := json.Unmarshal([]byte(request.GetString("results", "")), &results); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid results: %v", err)), nil
	}
	var judgments []schema.Judgment
	if err := json.Unmarshal([]byte(request.GetString("judgments", "")), &judgments); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid judgments: %v", err)), nil
	}
	for _, j := range judgments {
		if j.Relevance < 0 || j.Relevance > 3 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid judgments: relevance %d for memory %d is outside 0..3", j.Relevance, j.MemoryID)), nil
		}
	}
	var constitutional []int
	if raw := request.GetString("constitutional_ids", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &constitutional); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid constitutional_ids: %v", err)), nil
		}
	}

	for i := range results {
		if results[i].Rank <= 0 {
			results[i].Rank = i + 1
		}
	}

	all := metrics.ComputeAllMetrics(metrics.Params{
		Results:           results,
		Judgments:         judgments,
		ConstitutionalIDs: constitutional,
		Intent:            request.GetString("intent", ""),
	})
	return jsonResult(all), nil
}

func (h *toolHandler) handleSignTest(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pos := request.GetInt("n_positive", -1)
	neg := request.GetInt("n_negative", -1)
	if pos < 0 || neg < 0 {
		return mcp.NewToolResultError("n_positive and n_negative must be non-negative integers"), nil
	}

	p, ok := stats.SignTest(pos, neg)
	return jsonResult(signTestResult{
		PValue:      stats.PValuePtr(p, ok),
		Significant: stats.IsSignificant(p, ok),
		Pairs:       pos + neg,
	}), nil
}

func (h *toolHandler) handleEvaluateContingency(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bm25 := optionalFloat(request, "bm25_mrr")
	if bm25 == nil {
		return mcp.NewToolResultError("bm25_mrr is required"), nil
	}
	if err := unitInterval("bm25_mrr", *bm25); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	hybrid := optionalFloat(request, "hybrid_mrr")
	if hybrid == nil {
		return jsonResult(decision.EvaluateContingency(*bm25)), nil
	}
	if err := unitInterval("hybrid_mrr", *hybrid); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(decision.EvaluateContingencyRelative(*bm25, *hybrid)), nil
}

func (h *toolHandler) handleInterpretCeiling(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ceilingMRR := request.GetFloat("ceiling_mrr", -1)
	baselineMRR := request.GetFloat("baseline_mrr", -1)
	if err := unitInterval("ceiling_mrr", ceilingMRR); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := unitInterval("baseline_mrr", baselineMRR); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(decision.InterpretCeilingVsBaseline(ceilingMRR, baselineMRR)), nil
}

func (h *toolHandler) handleComputeCeiling(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	if system := optionalFloat(request, "system_mrr"); system != nil {
		if err := unitInterval("system_mrr", *system); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cfg.SystemMRR = system
	}

	in, err := core.LoadInputs(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := core.GetCeilingResults(ctx, cfg, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ceiling estimation failed: %v", err)), nil
	}
	return jsonResult(out), nil
}

func (h *toolHandler) handleRunAblation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	if !cfg.AblationEnabled {
		return mcp.NewToolResultError(core.ErrAblationDisabled.Error()), nil
	}
	// Results are never persisted from tool calls
	cfg.Persist = false

	channels, err := schema.ParseChannels(request.GetString("channels", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid channels: %v", err)), nil
	}
	cfg.Channels = channels
	ids, err := contract.ParseQueryIDs(request.GetString("query_ids", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cfg.QueryIDs = ids
	if k := request.GetInt("recall_k", 0); k > 0 {
		cfg.RecallK = k
	}

	in, err := core.LoadInputs(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := core.GetAblationResults(ctx, cfg, in, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ablation failed: %v", err)), nil
	}
	return jsonResult(schema.EnrichedAblationReport{
		AblationReport: *report,
		Results:        schema.EnrichAblation(ablation.SortByImpact(report.Results), decision.VerdictFor),
	}), nil
}

func (h *toolHandler) handleChannelAttribution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig(request)
	cfg.Attribution = true
	cfg.Disabled = 0
	if raw := strings.TrimSpace(request.GetString("disable", "")); raw != "" {
		disabled, err := schema.ParseChannels(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid disable: %v", err)), nil
		}
		cfg.Disabled = schema.NewChannelSet(disabled...)
	}
	cfg.AttributionK = request.GetInt("k", contract.DefaultAttributionK)
	if cfg.AttributionK <= 0 {
		return mcp.NewToolResultError("k must be at least 1"), nil
	}

	in, err := core.LoadInputs(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := core.GetEvaluationResults(ctx, cfg, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("attribution failed: %v", err)), nil
	}
	return jsonResult(attributionResult{
		K:         cfg.AttributionK,
		Evaluated: out.Evaluated,
		Disabled:  out.Disabled,
		Channels:  out.Attribution,
	}), nil
}
