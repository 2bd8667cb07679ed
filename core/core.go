// Package core has the entry logic that ties datasets, replay fixtures and the
// evaluation engines together for the CLI and the MCP server.
package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/huangsam/rankeval/core/ablation"
	"github.com/huangsam/rankeval/core/attribution"
	"github.com/huangsam/rankeval/core/baseline"
	"github.com/huangsam/rankeval/core/ceiling"
	"github.com/huangsam/rankeval/core/decision"
	"github.com/huangsam/rankeval/core/metrics"
	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/internal/dataset"
	"github.com/huangsam/rankeval/internal/outwriter"
	"github.com/huangsam/rankeval/internal/replay"
	"github.com/huangsam/rankeval/schema"
)

// ErrAblationDisabled is returned when an ablation study is requested with the toggle off.
var ErrAblationDisabled = errors.New("ablation is disabled; set RANKEVAL_ABLATION=true to enable it")

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, store contract.SnapshotStore) error

// Inputs are the judged dataset and the recorded rankings every command evaluates.
type Inputs struct {
	GroundTruth schema.GroundTruth
	Replay      *replay.Fixture
}

// LoadInputs reads the dataset and replay fixture named by cfg.
// Empty paths fall back to the embedded samples.
func LoadInputs(cfg *contract.Config) (*Inputs, error) {
	gt, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	fixture, err := replay.Load(cfg.ReplayPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load replay fixture: %w", err)
	}
	return &Inputs{GroundTruth: gt, Replay: fixture}, nil
}

// bm25Only disables every channel except the keyword one.
func bm25Only() schema.ChannelSet {
	var others []schema.Channel
	for _, ch := range schema.AllChannels {
		if ch != schema.BM25Channel {
			others = append(others, ch)
		}
	}
	return schema.NewChannelSet(others...)
}

// GetAblationResults runs an ablation study over the replay fixture.
// With Persist set, snapshot failures are logged and the report is still returned.
func GetAblationResults(ctx context.Context, cfg *contract.Config, in *Inputs, store contract.SnapshotStore) (*schema.AblationReport, error) {
	orch := ablation.New(ablation.Options{Enabled: cfg.AblationEnabled, Workers: cfg.Workers})
	res := orch.Run(ctx, in.Replay.Search, in.GroundTruth, schema.AblationConfig{
		Channels:      cfg.Channels,
		QueryIDs:      cfg.QueryIDs,
		BaselineRunID: cfg.BaselineRunID,
		RecallK:       cfg.RecallK,
	})
	if res.Disabled {
		return nil, ErrAblationDisabled
	}
	if res.Err != nil {
		return nil, res.Err
	}

	if cfg.Persist {
		if stored := orch.Store(store, res.Value); stored.OK() {
			contract.LogInfo(fmt.Sprintf("Stored %d ablation snapshots", stored.Value))
		}
	}
	return res.Value, nil
}

// GetBaselineResults runs the BM25-only baseline. The relative decision compares
// against cfg.HybridMRR, or the fused replay MRR@5 when unset.
func GetBaselineResults(ctx context.Context, cfg *contract.Config, in *Inputs, store contract.SnapshotStore) (schema.BaselineResult, error) {
	hybrid := cfg.HybridMRR
	if hybrid == nil {
		eval, err := metrics.Evaluate(ctx, in.Replay.Search, in.GroundTruth, metrics.EvaluateOptions{Workers: cfg.Workers})
		if err != nil {
			return schema.BaselineResult{}, fmt.Errorf("hybrid evaluation failed: %w", err)
		}
		mrr := eval.Mean.MRR
		hybrid = &mrr
	}

	var rng *rand.Rand
	if cfg.Seed != 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}
	result, err := baseline.Run(ctx, in.Replay.BM25, in.GroundTruth, baseline.Config{
		K:                   cfg.K,
		QueryLimit:          cfg.QueryLimit,
		SkipHardNegatives:   cfg.SkipHardNegatives,
		BootstrapIterations: cfg.BootstrapIterations,
		Rand:                rng,
		HybridMRR:           hybrid,
	})
	if err != nil {
		return schema.BaselineResult{}, err
	}

	if cfg.Persist {
		if err := baseline.Record(store, result); err != nil {
			contract.LogWarn("failed to record baseline snapshots", err)
		}
	}
	return result, nil
}

// GetCeilingResults estimates the ground-truth MRR ceiling and places it against
// the BM25 baseline. The system MRR comes from cfg.SystemMRR or the fused replay.
func GetCeilingResults(ctx context.Context, cfg *contract.Config, in *Inputs) (outwriter.CeilingOutput, error) {
	system := cfg.SystemMRR
	if system == nil {
		eval, err := metrics.Evaluate(ctx, in.Replay.Search, in.GroundTruth, metrics.EvaluateOptions{Workers: cfg.Workers})
		if err != nil {
			return outwriter.CeilingOutput{}, fmt.Errorf("system evaluation failed: %w", err)
		}
		mrr := eval.Mean.MRR
		system = &mrr
	}

	result := ceiling.FromGroundTruth(ceiling.Options{
		Queries:   in.GroundTruth.Queries,
		Memories:  in.GroundTruth.Memories,
		Judgments: in.GroundTruth.Judgments,
		K:         cfg.K,
		SystemMRR: system,
	})

	keyword, err := metrics.Evaluate(ctx, in.Replay.Search, in.GroundTruth, metrics.EvaluateOptions{Disabled: bm25Only(), Workers: cfg.Workers})
	if err != nil {
		return outwriter.CeilingOutput{}, fmt.Errorf("baseline evaluation failed: %w", err)
	}
	quadrant := decision.InterpretCeilingVsBaseline(result.CeilingMRR, keyword.Mean.MRR)
	return outwriter.CeilingOutput{CeilingResult: result, Quadrant: &quadrant}, nil
}

// GetEvaluationResults computes all metrics per query over the fused replay and,
// when requested, the mean exclusive contribution rate of every channel.
func GetEvaluationResults(ctx context.Context, cfg *contract.Config, in *Inputs) (outwriter.EvaluationOutput, error) {
	eval, err := metrics.Evaluate(ctx, in.Replay.Search, in.GroundTruth, metrics.EvaluateOptions{
		Disabled: cfg.Disabled,
		Intent:   cfg.Intent,
		Workers:  cfg.Workers,
	})
	if err != nil {
		return outwriter.EvaluationOutput{}, err
	}
	out := outwriter.EvaluationOutput{EvaluationResult: eval}
	if !cfg.Attribution {
		return out, nil
	}

	k := cfg.AttributionK
	if k <= 0 {
		k = contract.DefaultAttributionK
	}
	reports := make([]schema.AttributionReport, 0, len(eval.PerQuery))
	for _, q := range eval.PerQuery {
		results, err := in.Replay.Search(ctx, q.Query, cfg.Disabled)
		if err != nil {
			return outwriter.EvaluationOutput{}, fmt.Errorf("attribution search for query %d: %w", q.QueryID, err)
		}
		reports = append(reports, attribution.Report(results, in.Replay.Sources(q.Query, cfg.Disabled), k))
	}
	out.Attribution = attribution.MeanECR(reports)
	return out, nil
}

// ExecuteAblation runs an ablation study and prints the report.
func ExecuteAblation(ctx context.Context, cfg *contract.Config, store contract.SnapshotStore) error {
	in, err := LoadInputs(cfg)
	if err != nil {
		return err
	}
	report, err := GetAblationResults(ctx, cfg, in, store)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteAblation(report, cfg)
}

// ExecuteBaseline runs the BM25 baseline and prints the result.
func ExecuteBaseline(ctx context.Context, cfg *contract.Config, store contract.SnapshotStore) error {
	in, err := LoadInputs(cfg)
	if err != nil {
		return err
	}
	result, err := GetBaselineResults(ctx, cfg, in, store)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteBaseline(result, cfg)
}

// ExecuteCeiling estimates the MRR ceiling and prints it.
func ExecuteCeiling(ctx context.Context, cfg *contract.Config, _ contract.SnapshotStore) error {
	in, err := LoadInputs(cfg)
	if err != nil {
		return err
	}
	out, err := GetCeilingResults(ctx, cfg, in)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteCeiling(out, cfg)
}

// ExecuteEvaluation computes per-query metrics and prints them.
func ExecuteEvaluation(ctx context.Context, cfg *contract.Config, _ contract.SnapshotStore) error {
	start := time.Now()
	in, err := LoadInputs(cfg)
	if err != nil {
		return err
	}
	out, err := GetEvaluationResults(ctx, cfg, in)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WriteEvaluation(out, cfg); err != nil {
		return err
	}
	if cfg.OutputFile != "" {
		contract.LogInfo(fmt.Sprintf("Evaluation finished in %v", time.Since(start).Round(time.Millisecond)))
	}
	return nil
}
