package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/huangsam/rankeval/schema"
)

// Default values for configuration.
const (
	DefaultPrecision    = 4
	MaxPrecision        = 6
	DefaultAttributionK = 10
	MaxBootstrapIters   = 1_000_000
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for every command.
// This struct remains the "final, validated" config.
type Config struct {
	DatasetPath string // empty = embedded sample dataset
	ReplayPath  string // empty = embedded sample replay

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	// Ablation study
	AblationEnabled bool
	Channels        []schema.Channel
	QueryIDs        []int
	RecallK         int
	BaselineRunID   string

	// BM25 baseline
	K                   int // overrides every cutoff when > 0
	QueryLimit          int
	SkipHardNegatives   bool
	BootstrapIterations int
	Seed                uint64 // 0 = random
	HybridMRR           *float64

	// Ceiling and evaluation
	SystemMRR    *float64
	Intent       string
	Disabled     schema.ChannelSet
	Attribution  bool
	AttributionK int

	Persist           bool
	SnapshotBackend   schema.DatabaseBackend
	SnapshotDBConnect string // Please use env var as this is plaintext
}

// Clone returns a copy of the config that can be modified per request.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Channels = slices.Clone(c.Channels)
	clone.QueryIDs = slices.Clone(c.QueryIDs)
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Dataset           string `mapstructure:"dataset"`
	Replay            string `mapstructure:"replay"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Width             int    `mapstructure:"width"`
	Color             string `mapstructure:"color"`
	Persist           bool   `mapstructure:"persist"`
	SnapshotBackend   string `mapstructure:"snapshot-backend"`
	SnapshotDBConnect string `mapstructure:"snapshot-db-connect"`

	// --- Feature toggle, usually RANKEVAL_ABLATION ---
	Ablation string `mapstructure:"ablation"`

	// --- Fields from ablationCmd.Flags() ---
	Channels      string `mapstructure:"channels"`
	QueryIDs      string `mapstructure:"query-ids"`
	RecallK       int    `mapstructure:"recall-k"`
	BaselineRunID string `mapstructure:"baseline-run-id"`

	// --- Fields from baselineCmd.Flags() ---
	K                   int    `mapstructure:"k"`
	QueryLimit          int    `mapstructure:"query-limit"`
	SkipHardNegatives   bool   `mapstructure:"skip-hard-negatives"`
	BootstrapIterations int    `mapstructure:"bootstrap-iterations"`
	Seed                uint64 `mapstructure:"seed"`
	HybridMRR           string `mapstructure:"hybrid-mrr"`

	// --- Fields from ceilingCmd.Flags() and evaluateCmd.Flags() ---
	SystemMRR    string `mapstructure:"system-mrr"`
	Intent       string `mapstructure:"intent"`
	Disable      string `mapstructure:"disable"`
	Attribution  bool   `mapstructure:"attribution"`
	AttributionK int    `mapstructure:"attribution-k"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processAblationInputs(cfg, input); err != nil {
		return err
	}
	if err := processBaselineInputs(cfg, input); err != nil {
		return err
	}
	return processEvaluationInputs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("snapshot-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("snapshot-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseEnableFlag reads a feature toggle. Only a case-insensitive "true" enables it.
func ParseEnableFlag(s string) bool {
	return strings.ToLower(s) == "true"
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// ParseQueryIDs parses a comma-separated list of positive query ids.
func ParseQueryIDs(s string) ([]int, error) {
	var ids []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid query id '%s': %w", part, err)
		}
		if id <= 0 {
			return nil, fmt.Errorf("query id must be positive (received %d)", id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseOptionalMRR parses an MRR override that may be left empty.
func parseOptionalMRR(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s value '%s': %w", name, s, err)
	}
	if v < 0 || v > 1 {
		return nil, fmt.Errorf("--%s must be between 0 and 1 (received %v)", name, v)
	}
	return &v, nil
}

// validateSimpleInputs processes and validates the shared output fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.DatasetPath = strings.TrimSpace(input.Dataset)
	cfg.ReplayPath = strings.TrimSpace(input.Replay)
	cfg.OutputFile = input.OutputFile
	cfg.Persist = input.Persist

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}
	cfg.Width = input.Width

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv, markdown", input.Output)
	}
	return nil
}

// validateBackendConfig validates the snapshot backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.SnapshotBackend = schema.DatabaseBackend(strings.ToLower(input.SnapshotBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.SnapshotBackend]; !ok {
		return fmt.Errorf("invalid snapshot backend '%s'. must be sqlite, mysql, postgresql, none", input.SnapshotBackend)
	}
	cfg.SnapshotDBConnect = input.SnapshotDBConnect
	return ValidateDatabaseConnectionString(cfg.SnapshotBackend, cfg.SnapshotDBConnect)
}

// processAblationInputs handles the feature toggle, channels and query ids.
func processAblationInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.AblationEnabled = ParseEnableFlag(input.Ablation)
	cfg.BaselineRunID = strings.TrimSpace(input.BaselineRunID)

	channels, err := schema.ParseChannels(input.Channels)
	if err != nil {
		return fmt.Errorf("invalid --channels value: %w", err)
	}
	cfg.Channels = channels

	ids, err := ParseQueryIDs(input.QueryIDs)
	if err != nil {
		return err
	}
	cfg.QueryIDs = ids

	if input.RecallK < 0 {
		return fmt.Errorf("recall-k cannot be negative (received %d)", input.RecallK)
	}
	cfg.RecallK = input.RecallK
	return nil
}

// processBaselineInputs handles the BM25 baseline knobs.
func processBaselineInputs(cfg *Config, input *ConfigRawInput) error {
	if input.K < 0 {
		return fmt.Errorf("k cannot be negative (received %d)", input.K)
	}
	cfg.K = input.K

	if input.QueryLimit < 0 {
		return fmt.Errorf("query-limit cannot be negative (received %d)", input.QueryLimit)
	}
	cfg.QueryLimit = input.QueryLimit
	cfg.SkipHardNegatives = input.SkipHardNegatives

	if input.BootstrapIterations < 0 || input.BootstrapIterations > MaxBootstrapIters {
		return fmt.Errorf("bootstrap-iterations must be between 0 and %d (received %d)", MaxBootstrapIters, input.BootstrapIterations)
	}
	cfg.BootstrapIterations = input.BootstrapIterations
	cfg.Seed = input.Seed

	hybrid, err := parseOptionalMRR("hybrid-mrr", input.HybridMRR)
	if err != nil {
		return err
	}
	cfg.HybridMRR = hybrid
	return nil
}

// processEvaluationInputs handles the ceiling and evaluate knobs.
func processEvaluationInputs(cfg *Config, input *ConfigRawInput) error {
	system, err := parseOptionalMRR("system-mrr", input.SystemMRR)
	if err != nil {
		return err
	}
	cfg.SystemMRR = system
	cfg.Intent = strings.TrimSpace(input.Intent)
	cfg.Attribution = input.Attribution

	cfg.Disabled = 0
	if strings.TrimSpace(input.Disable) != "" {
		disabled, err := schema.ParseChannels(input.Disable)
		if err != nil {
			return fmt.Errorf("invalid --disable value: %w", err)
		}
		cfg.Disabled = schema.NewChannelSet(disabled...)
	}

	cfg.AttributionK = input.AttributionK
	if cfg.AttributionK <= 0 {
		cfg.AttributionK = DefaultAttributionK
	}
	return nil
}
