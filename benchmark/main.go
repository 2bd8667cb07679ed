// Package main provides a performance benchmarking tool for the rankeval CLI.
// It measures execution times of the evaluation commands over dataset and replay
// fixture pairs, running each command multiple times sequentially and in parallel,
// treating the first parallel run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - rankeval binary installed and available in PATH
// - Fixture pairs in the base directory: <name>.dataset.yaml and <name>.replay.yaml
//
// Usage: go run benchmark/main.go [fixture-dir]
//
//	fixture-dir: Directory containing the fixture pairs
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (sequential average, cold run and average of warm runs).
type BenchmarkResult struct {
	Fixture        string
	Command        string
	SequentialTime string
	ColdTime       string
	WarmTime       string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	FixtureDir     string
	Timeout        time.Duration
	Workers        int
	SequentialRuns int
	ParallelRuns   int
	Fixtures       []string
	Commands       map[string][]string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [fixture-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		FixtureDir:     os.Args[1],
		Timeout:        5 * time.Minute,
		Workers:        14,
		SequentialRuns: 3,
		ParallelRuns:   4,
		Commands: map[string][]string{
			"evaluate": {"evaluate", "--attribution"},
			"ablation": {"ablation"},
			"baseline": {"baseline", "--bootstrap-iterations", "10000", "--seed", "1"},
		},
	}

	fixtures, err := discoverFixtures(config.FixtureDir)
	if err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}
	config.Fixtures = fixtures

	if _, err := exec.LookPath("rankeval"); err != nil {
		fmt.Printf("Prerequisites check failed: rankeval binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config)
}

// discoverFixtures returns the names of complete fixture pairs in dir.
func discoverFixtures(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.dataset.yaml"))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, m := range matches {
		name := strings.TrimSuffix(filepath.Base(m), ".dataset.yaml")
		if _, err := os.Stat(filepath.Join(dir, name+".replay.yaml")); err == nil {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no fixture pairs found in %s", dir)
	}
	slices.Sort(names)
	return names, nil
}

// runBenchmarks executes every command against every fixture pair.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d fixtures, %v timeout, %d workers, sequential: %d runs, parallel: %d runs\n",
		len(config.Fixtures), config.Timeout, config.Workers, config.SequentialRuns, config.ParallelRuns)

	commands := make([]string, 0, len(config.Commands))
	for name := range config.Commands {
		commands = append(commands, name)
	}
	slices.Sort(commands)

	for _, fixture := range config.Fixtures {
		fmt.Printf("Benchmarking %s\n", fixture)
		for _, name := range commands {
			results = append(results, runBenchmarkSuite(config, fixture, name))
		}
	}
	return results
}

// runBenchmarkSuite runs both sequential and parallel benchmarks for a command.
func runBenchmarkSuite(config BenchmarkConfig, fixture, command string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", command, fixture)

	runPhase := func(workers, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		times := runBenchmark(config, fixture, command, workers, numRuns)
		if len(times) == 0 {
			return 0, "TIMEOUT"
		}
		coldTime = times[0]
		warm := times
		if len(times) > 1 {
			warm = times[1:]
		}
		var sum float64
		for _, t := range warm {
			sum += t
		}
		return coldTime, fmt.Sprintf("%.3fs", sum/float64(len(warm)))
	}

	_, sequentialAvg := runPhase(1, config.SequentialRuns, "Sequential")
	coldTime, warmAvg := runPhase(config.Workers, config.ParallelRuns, "Parallel")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}
	fmt.Printf("  Sequential average: %s, Cold time: %s, Warm average: %s\n", sequentialAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Fixture:        fixture,
		Command:        command,
		SequentialTime: sequentialAvg,
		ColdTime:       coldTimeStr,
		WarmTime:       warmAvg,
	}
}

// runBenchmark executes a rankeval command multiple times and returns the successful run times.
func runBenchmark(config BenchmarkConfig, fixture, command string, workers, numRuns int) []float64 {
	args := append(slices.Clone(config.Commands[command]),
		"--dataset", filepath.Join(config.FixtureDir, fixture+".dataset.yaml"),
		"--replay", filepath.Join(config.FixtureDir, fixture+".replay.yaml"),
		"--workers", strconv.Itoa(workers),
		"--output", "json",
	)

	var times []float64
	for range numRuns {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		cmd := exec.CommandContext(ctx, "rankeval", args...)
		cmd.Env = append(os.Environ(), "RANKEVAL_ABLATION=true")

		start := time.Now()
		output, err := cmd.Output()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}
	return times
}

// isSuccess checks that the command printed a JSON document.
func isSuccess(output []byte) bool {
	trimmed := strings.TrimSpace(string(output))
	return strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")
}

// saveResults writes benchmark results to a timestamped CSV file.
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/rankeval_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"fixture", "cmd", "sequential_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Fixture, result.Command, result.SequentialTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by command.
func printSummary(results []BenchmarkResult, config BenchmarkConfig) {
	fmt.Printf("Benchmark complete\n")
	for _, command := range []string{"evaluate", "ablation", "baseline"} {
		if _, ok := config.Commands[command]; !ok {
			continue
		}
		fmt.Printf("%s:\n", command)
		for _, result := range results {
			if result.Command == command {
				fmt.Printf("  %-16s: Sequential: %s, Cold: %s, Warm: %s\n", result.Fixture, result.SequentialTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
