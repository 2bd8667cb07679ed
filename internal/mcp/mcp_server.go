// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the rankeval MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"Retrieval Evaluation Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: compute_metrics ---
	s.AddTool(mcp.NewTool("compute_metrics",
		mcp.WithDescription("Compute all nine retrieval metrics for one ranked result list against graded judgments."),
		mcp.WithString("results", mcp.Description("JSON array of {memory_id, score, rank}, best first. Missing ranks are filled from position."), mcp.Required()),
		mcp.WithString("judgments", mcp.Description("JSON array of {query_id, memory_id, relevance, tier}. Relevance is 0..3."), mcp.Required()),
		mcp.WithString("intent", mcp.Description("Query intent for intent-weighted NDCG. Defaults to 'understand'.")),
		mcp.WithString("constitutional_ids", mcp.Description("JSON array of memory ids that must always surface.")),
	), h.handleComputeMetrics)

	// --- 2. Tool: sign_test ---
	s.AddTool(mcp.NewTool("sign_test",
		mcp.WithDescription("Two-sided exact sign test for paired win/loss counts. Needs at least 5 non-tied pairs."),
		mcp.WithNumber("n_positive", mcp.Description("Number of pairs where the first condition won."), mcp.Required()),
		mcp.WithNumber("n_negative", mcp.Description("Number of pairs where the second condition won."), mcp.Required()),
	), h.handleSignTest)

	// --- 3. Tool: evaluate_contingency ---
	s.AddTool(mcp.NewTool("evaluate_contingency",
		mcp.WithDescription("Classify a BM25 MRR@5 into PAUSE, RATIONALIZE or PROCEED. With hybrid_mrr the relative matrix is used."),
		mcp.WithNumber("bm25_mrr", mcp.Description("BM25-only MRR@5 in [0, 1]."), mcp.Required()),
		mcp.WithNumber("hybrid_mrr", mcp.Description("Hybrid MRR@5 in [0, 1] for the relative decision.")),
	), h.handleEvaluateContingency)

	// --- 4. Tool: interpret_ceiling ---
	s.AddTool(mcp.NewTool("interpret_ceiling",
		mcp.WithDescription("Place a ceiling MRR and a baseline MRR in the 2x2 ceiling-vs-baseline matrix."),
		mcp.WithNumber("ceiling_mrr", mcp.Description("Theoretical ceiling MRR in [0, 1]."), mcp.Required()),
		mcp.WithNumber("baseline_mrr", mcp.Description("BM25 baseline MRR in [0, 1]."), mcp.Required()),
	), h.handleInterpretCeiling)

	// --- 5. Tool: compute_ceiling ---
	s.AddTool(mcp.NewTool("compute_ceiling",
		mcp.WithDescription("Estimate the ground-truth MRR ceiling of a dataset and its gap to the system."),
		mcp.WithString("dataset_path", mcp.Description("Path to a YAML or JSON dataset (defaults to the embedded sample).")),
		mcp.WithString("replay_path", mcp.Description("Path to a replay fixture used to compute the system MRR.")),
		mcp.WithNumber("system_mrr", mcp.Description("System MRR in [0, 1]; computed from the replay fixture when omitted.")),
	), h.handleComputeCeiling)

	// --- 6. Tool: run_ablation ---
	s.AddTool(mcp.NewTool("run_ablation",
		mcp.WithDescription("Disable each channel in turn over a replay fixture and report the Recall@K delta with sign-test significance."),
		mcp.WithString("dataset_path", mcp.Description("Path to a YAML or JSON dataset.")),
		mcp.WithString("replay_path", mcp.Description("Path to a replay fixture of per-channel rankings.")),
		mcp.WithString("channels", mcp.Description("Comma-separated channels to ablate (vector, bm25, fts5, graph, trigger). Defaults to all.")),
		mcp.WithString("query_ids", mcp.Description("Comma-separated query ids to evaluate. Defaults to all.")),
		mcp.WithNumber("recall_k", mcp.Description("Recall cutoff. Defaults to 20.")),
	), h.handleRunAblation)

	// --- 7. Tool: channel_attribution ---
	s.AddTool(mcp.NewTool("channel_attribution",
		mcp.WithDescription("Mean exclusive contribution rate of each channel in the fused top K of a replay fixture."),
		mcp.WithString("dataset_path", mcp.Description("Path to a YAML or JSON dataset.")),
		mcp.WithString("replay_path", mcp.Description("Path to a replay fixture of per-channel rankings.")),
		mcp.WithString("disable", mcp.Description("Comma-separated channels to disable before fusion.")),
		mcp.WithNumber("k", mcp.Description("Top K cutoff. Defaults to 10.")),
	), h.handleChannelAttribution)

	return s
}

// StartMCPServer starts the rankeval MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
