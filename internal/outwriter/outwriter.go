// Package outwriter has output and writer logic.
package outwriter

import (
	"io"

	"github.com/huangsam/rankeval/internal/contract"
	"github.com/huangsam/rankeval/schema"
)

// OutWriter provides a unified interface for all output operations.
// Each method writes to cfg.OutputFile, or stdout when it is empty.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteAblation prints an ablation report using the configured output format.
func (ow *OutWriter) WriteAblation(report *schema.AblationReport, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeAblation(w, report, cfg)
	}, successMessage(cfg.Output))
}

// WriteBaseline prints a BM25 baseline result using the configured output format.
func (ow *OutWriter) WriteBaseline(result schema.BaselineResult, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeBaseline(w, result, cfg)
	}, successMessage(cfg.Output))
}

// WriteCeiling prints a ceiling estimate using the configured output format.
func (ow *OutWriter) WriteCeiling(out CeilingOutput, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeCeiling(w, out, cfg)
	}, successMessage(cfg.Output))
}

// WriteEvaluation prints per-query metrics using the configured output format.
func (ow *OutWriter) WriteEvaluation(out EvaluationOutput, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeEvaluation(w, out, cfg)
	}, successMessage(cfg.Output))
}

// WriteSnapshotStatus prints snapshot store status as text or JSON.
func (ow *OutWriter) WriteSnapshotStatus(status schema.SnapshotStatus, cfg *contract.Config) error {
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeSnapshotStatus(w, status, cfg)
	}, successMessage(cfg.Output))
}
