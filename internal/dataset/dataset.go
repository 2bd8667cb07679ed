// Package dataset loads and validates ground-truth datasets from YAML or JSON.
package dataset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/huangsam/rankeval/schema"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleDataset []byte

// Validation errors.
var (
	ErrDuplicateJudgment = errors.New("duplicate judgment")
	ErrDuplicateQuery    = errors.New("duplicate query id")
	ErrUnknownQuery      = errors.New("judgment references unknown query")
	ErrRelevanceRange    = errors.New("relevance out of range")
)

// MaxRelevance is the highest relevance grade.
const MaxRelevance = 3

// fileFormat is the on-disk layout. Timestamps are RFC 3339 strings so that
// YAML and JSON files decode the same way.
type fileFormat struct {
	Queries           []schema.Query   `yaml:"queries"`
	Judgments         []judgmentRecord `yaml:"judgments"`
	Memories          []memoryRecord   `yaml:"memories"`
	ConstitutionalIDs []int            `yaml:"constitutional_ids"`
}

type judgmentRecord struct {
	QueryID   int    `yaml:"query_id"`
	MemoryID  int    `yaml:"memory_id"`
	Relevance int    `yaml:"relevance"`
	Tier      string `yaml:"tier"`
	CreatedAt string `yaml:"created_at"`
}

type memoryRecord struct {
	ID             int    `yaml:"id"`
	Title          string `yaml:"title"`
	Summary        string `yaml:"summary"`
	SpecFolder     string `yaml:"spec_folder"`
	CreatedAt      string `yaml:"created_at"`
	Constitutional bool   `yaml:"constitutional"`
}

// Load reads a dataset file. An empty path loads the embedded sample.
func Load(path string) (schema.GroundTruth, error) {
	if path == "" {
		return Sample()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.GroundTruth{}, fmt.Errorf("reading dataset: %w", err)
	}
	gt, err := Parse(data)
	if err != nil {
		return schema.GroundTruth{}, fmt.Errorf("dataset %s: %w", path, err)
	}
	return gt, nil
}

// Sample returns the embedded sample dataset.
func Sample() (schema.GroundTruth, error) {
	return Parse(sampleDataset)
}

// Parse decodes and validates a YAML or JSON dataset.
func Parse(data []byte) (schema.GroundTruth, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return schema.GroundTruth{}, fmt.Errorf("decoding dataset: %w", err)
	}

	gt := schema.GroundTruth{
		Queries:           raw.Queries,
		ConstitutionalIDs: raw.ConstitutionalIDs,
	}
	for _, j := range raw.Judgments {
		judgment := schema.Judgment{
			QueryID:   j.QueryID,
			MemoryID:  j.MemoryID,
			Relevance: j.Relevance,
			Tier:      j.Tier,
		}
		if j.CreatedAt != "" {
			ts, err := time.Parse(time.RFC3339, j.CreatedAt)
			if err != nil {
				return schema.GroundTruth{}, fmt.Errorf("judgment (%d, %d): invalid created_at: %w", j.QueryID, j.MemoryID, err)
			}
			judgment.CreatedAt = &ts
		}
		gt.Judgments = append(gt.Judgments, judgment)
	}
	for _, m := range raw.Memories {
		gt.Memories = append(gt.Memories, schema.Memory{
			ID:         m.ID,
			Title:      m.Title,
			Summary:    m.Summary,
			SpecFolder: m.SpecFolder,
		})
		if m.Constitutional {
			gt.ConstitutionalIDs = append(gt.ConstitutionalIDs, m.ID)
		}
		if m.CreatedAt == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, m.CreatedAt)
		if err != nil {
			return schema.GroundTruth{}, fmt.Errorf("memory %d: invalid created_at: %w", m.ID, err)
		}
		if gt.MemoryTimestamps == nil {
			gt.MemoryTimestamps = make(map[int]time.Time)
		}
		gt.MemoryTimestamps[m.ID] = ts
	}

	if err := Validate(gt); err != nil {
		return schema.GroundTruth{}, err
	}
	return gt, nil
}

// Validate checks query ids, judgment references and relevance grades.
func Validate(gt schema.GroundTruth) error {
	queries := make(map[int]struct{}, len(gt.Queries))
	for _, q := range gt.Queries {
		if q.ID <= 0 {
			return fmt.Errorf("query id must be positive (received %d)", q.ID)
		}
		if _, dup := queries[q.ID]; dup {
			return fmt.Errorf("%w: %d", ErrDuplicateQuery, q.ID)
		}
		queries[q.ID] = struct{}{}
	}

	type pair struct{ query, memory int }
	seen := make(map[pair]struct{}, len(gt.Judgments))
	for _, j := range gt.Judgments {
		if _, ok := queries[j.QueryID]; !ok {
			return fmt.Errorf("%w: %d", ErrUnknownQuery, j.QueryID)
		}
		if j.Relevance < 0 || j.Relevance > MaxRelevance {
			return fmt.Errorf("%w: query %d memory %d has %d", ErrRelevanceRange, j.QueryID, j.MemoryID, j.Relevance)
		}
		p := pair{j.QueryID, j.MemoryID}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: query %d memory %d", ErrDuplicateJudgment, j.QueryID, j.MemoryID)
		}
		seen[p] = struct{}{}
	}
	return nil
}
