// Package main measures docudash command latency against a running DocuMetrics backend.
// Each command runs several times live (no cache) and several times offline from the
// SQLite cache; the first offline run follows a fresh live load and counts as cold.
// Results are written as CSV for comparison across releases.
//
// Prerequisites:
// - docudash binary installed and available in PATH
// - a DocuMetrics backend with metrics already loaded
//
// Usage: go run benchmark/main.go [backend-url] [file-identifier]
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// BenchmarkResult holds the live average, the cold offline run and the warm offline average.
type BenchmarkResult struct {
	Command     string
	LiveTime    string
	ColdTime    string
	OfflineTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Server      string
	Identifier  string
	Timeout     time.Duration
	LiveRuns    int
	OfflineRuns int
}

func main() {
	if len(os.Args) != 3 {
		fmt.Printf("Usage: %s [backend-url] [file-identifier]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		Server:      os.Args[1],
		Identifier:  os.Args[2],
		Timeout:     2 * time.Minute,
		LiveRuns:    3,
		OfflineRuns: 4,
	}

	if _, err := exec.LookPath("docudash"); err != nil {
		fmt.Printf("Prerequisites check failed: docudash binary not found in PATH\n")
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("docudash", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	commands := [][]string{
		{"show", "--limit", "0"},
		{"project"},
		{"file", config.Identifier},
	}
	var results []BenchmarkResult
	for _, args := range commands {
		results = append(results, runBenchmarkSuite(config, args))
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}
	printSummary(results)
}

// runBenchmarkSuite runs the live and offline phases for one command.
func runBenchmarkSuite(config BenchmarkConfig, args []string) BenchmarkResult {
	fmt.Printf("Running %s\n", args[0])

	live := runBenchmark(config, append(args, "--cache-backend", "none"), config.LiveRuns)

	// A live sqlite run fills the cache before the offline phase.
	_ = runBenchmark(config, append(args, "--cache-backend", "sqlite"), 1)
	offline := runBenchmark(config, append(args, "--cache-backend", "sqlite", "--offline"), config.OfflineRuns)

	result := BenchmarkResult{
		Command:     args[0],
		LiveTime:    average(live),
		ColdTime:    "TIMEOUT",
		OfflineTime: "TIMEOUT",
	}
	if len(offline) > 0 {
		result.ColdTime = fmt.Sprintf("%.3fs", offline[0])
		result.OfflineTime = average(offline[1:])
	}
	fmt.Printf("  Live average: %s, Cold offline: %s, Warm offline: %s\n", result.LiveTime, result.ColdTime, result.OfflineTime)
	return result
}

// runBenchmark executes a docudash command numRuns times and returns the durations of the successful runs.
func runBenchmark(config BenchmarkConfig, args []string, numRuns int) []float64 {
	args = append(args, "--server", config.Server, "--output", "json")

	var times []float64
	for range numRuns {
		start := time.Now()
		cmd := exec.Command("docudash", args...)

		done := make(chan error, 1)
		go func() {
			_, err := cmd.Output()
			done <- err
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
		}
	}
	return times
}

func average(times []float64) string {
	if len(times) == 0 {
		return "TIMEOUT"
	}
	var sum float64
	for _, t := range times {
		sum += t
	}
	return fmt.Sprintf("%.3fs", sum/float64(len(times)))
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/docudash_benchmark_%s.csv", timestamp)

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

	if err := writer.Write([]string{"cmd", "live_avg", "cold_offline", "warm_offline_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Command, result.LiveTime, result.ColdTime, result.OfflineTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")
	for _, result := range results {
		fmt.Printf("  %-8s: Live: %s, Cold offline: %s, Warm offline: %s\n", result.Command, result.LiveTime, result.ColdTime, result.OfflineTime)
	}
}
