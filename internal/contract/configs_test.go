package contract

import (
	"testing"

	"github.com/huangsam/rankeval/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns a raw input that passes validation; tests mutate a copy.
func validInput() ConfigRawInput {
	return ConfigRawInput{
		Workers:         4,
		Precision:       4,
		Output:          "text",
		Color:           "yes",
		SnapshotBackend: "sqlite",
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 7 }, expectError: true},
		{name: "precision zero", mutate: func(in *ConfigRawInput) { in.Precision = 0 }, expectError: true},
		{name: "unknown output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "markdown output", mutate: func(in *ConfigRawInput) { in.Output = "MARKDOWN" }},
		{name: "bad color", mutate: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "negative width", mutate: func(in *ConfigRawInput) { in.Width = -1 }, expectError: true},
		{name: "unknown backend", mutate: func(in *ConfigRawInput) { in.SnapshotBackend = "oracle" }, expectError: true},
		{name: "mysql without connect", mutate: func(in *ConfigRawInput) { in.SnapshotBackend = "mysql" }, expectError: true},
		{name: "unknown channel", mutate: func(in *ConfigRawInput) { in.Channels = "vector,splade" }, expectError: true},
		{name: "bad query id", mutate: func(in *ConfigRawInput) { in.QueryIDs = "1,x" }, expectError: true},
		{name: "negative query id", mutate: func(in *ConfigRawInput) { in.QueryIDs = "-3" }, expectError: true},
		{name: "negative recall k", mutate: func(in *ConfigRawInput) { in.RecallK = -1 }, expectError: true},
		{name: "negative k", mutate: func(in *ConfigRawInput) { in.K = -5 }, expectError: true},
		{name: "negative query limit", mutate: func(in *ConfigRawInput) { in.QueryLimit = -1 }, expectError: true},
		{name: "bootstrap too large", mutate: func(in *ConfigRawInput) { in.BootstrapIterations = MaxBootstrapIters + 1 }, expectError: true},
		{name: "hybrid mrr not a number", mutate: func(in *ConfigRawInput) { in.HybridMRR = "abc" }, expectError: true},
		{name: "system mrr out of range", mutate: func(in *ConfigRawInput) { in.SystemMRR = "1.5" }, expectError: true},
		{name: "bad disable list", mutate: func(in *ConfigRawInput) { in.Disable = "graph,nope" }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, &input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestProcessAndValidateValues tests that parsed values land in the final config.
func TestProcessAndValidateValues(t *testing.T) {
	input := validInput()
	input.Ablation = "TRUE"
	input.Channels = "graph, vector,graph"
	input.QueryIDs = "3, 1"
	input.HybridMRR = "0.42"
	input.Disable = "bm25,trigger"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, &input))

	assert.True(t, cfg.AblationEnabled)
	assert.Equal(t, []schema.Channel{schema.GraphChannel, schema.VectorChannel}, cfg.Channels)
	assert.Equal(t, []int{3, 1}, cfg.QueryIDs)
	require.NotNil(t, cfg.HybridMRR)
	assert.Equal(t, 0.42, *cfg.HybridMRR)
	assert.Nil(t, cfg.SystemMRR)
	assert.True(t, cfg.Disabled.Has(schema.BM25Channel))
	assert.True(t, cfg.Disabled.Has(schema.TriggerChannel))
	assert.Equal(t, 2, cfg.Disabled.Len())
	assert.Equal(t, DefaultAttributionK, cfg.AttributionK)
	assert.Equal(t, schema.TextOut, cfg.Output)
	assert.True(t, cfg.UseColors)
}

func TestProcessAndValidateDefaultsToAllChannels(t *testing.T) {
	input := validInput()
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, &input))
	assert.Equal(t, schema.AllChannels, cfg.Channels)
	assert.False(t, cfg.AblationEnabled)
	assert.Equal(t, schema.ChannelSet(0), cfg.Disabled)
}

func TestParseEnableFlag(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"True", true},
		{"TRUE", true},
		{"1", false},
		{"yes", false},
		{"", false},
		{" true", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseEnableFlag(tt.input), "input=%q", tt.input)
	}
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite needs nothing", schema.SQLiteBackend, "", false},
		{"none needs nothing", schema.NoneBackend, "", false},
		{"valid mysql", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/rankeval", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/rankeval", true},
		{"mysql missing database", schema.MySQLBackend, "user:pass@tcp(localhost:3306)", true},
		{"valid postgres", schema.PostgreSQLBackend, "host=localhost port=5432 dbname=rankeval", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=rankeval", true},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseQueryIDs(t *testing.T) {
	ids, err := ParseQueryIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = ParseQueryIDs(" 7,,9 ")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 9}, ids)

	_, err = ParseQueryIDs("0")
	assert.Error(t, err)
}
