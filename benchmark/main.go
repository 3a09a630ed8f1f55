// Package main provides a performance benchmarking tool for the Powerrank CLI.
// It generates synthetic tool catalogs of increasing size and measures ranking time
// across worker counts, running each test multiple times, treating the first successful
// run as cold and averaging the rest as warm, generating CSV output for documentation.
//
// Prerequisites:
// - powerrank binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic tool catalogs are written
package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (cold run and average of warm runs).
type BenchmarkResult struct {
	Catalog  string
	Workers  int
	ColdTime string
	WarmTime string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir      string
	Timeout      time.Duration
	Runs         int
	CatalogSizes []int
	WorkerCounts []int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:      os.Args[1],
		Timeout:      5 * time.Minute,
		Runs:         4,
		CatalogSizes: []int{100, 1_000, 10_000},
		WorkerCounts: []int{1, 4, 14},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results, err := runBenchmarks(config)
	if err != nil {
		fmt.Printf("Benchmark failed: %v\n", err)
		os.Exit(1)
	}

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the powerrank binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("powerrank"); err != nil {
		return fmt.Errorf("powerrank binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// writeCatalog writes n synthetic tools to a JSON file and returns its path
func writeCatalog(dir string, n int) (string, error) {
	providers := []string{"openai", "anthropic", "google", "mistral"}
	tools := make([]map[string]any, n)
	for i := range tools {
		tools[i] = map[string]any{
			"id":       fmt.Sprintf("tool-%05d", i),
			"name":     fmt.Sprintf("Tool %05d", i),
			"category": []string{"ide", "cli", "agent"}[i%3],
			"status":   "active",
			"info": map[string]any{
				"metrics": map[string]any{
					"agentic_capability": 3 + float64(i%700)/100,
					"innovation_score":   2 + float64((i*7)%800)/100,
					"github_stars":       (i * 37) % 90_000,
				},
				"technical": map[string]any{
					"llm_providers": providers[:1+i%len(providers)],
					"open_source":   i%4 == 0,
				},
			},
		}
	}

	data, err := json.Marshal(tools)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("tools_%d.json", n))
	return path, os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark tests across catalog sizes and worker counts
func runBenchmarks(config BenchmarkConfig) ([]BenchmarkResult, error) {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d catalogs, %v timeout, workers %v, %d runs\n",
		len(config.CatalogSizes), config.Timeout, config.WorkerCounts, config.Runs)

	for _, size := range config.CatalogSizes {
		path, err := writeCatalog(config.WorkDir, size)
		if err != nil {
			return nil, fmt.Errorf("failed to write catalog of %d tools: %w", size, err)
		}
		for _, workers := range config.WorkerCounts {
			results = append(results, runBenchmarkSuite(config, strconv.Itoa(size), path, workers))
		}
	}

	return results, nil
}

// runBenchmarkSuite runs one catalog at one worker count
func runBenchmarkSuite(config BenchmarkConfig, catalog, path string, workers int) BenchmarkResult {
	fmt.Printf("Ranking %s tools with %d workers (%d runs)\n", catalog, workers, config.Runs)

	coldTime, times := runBenchmark(config, path, workers)
	warmAvg := "TIMEOUT"
	if len(times) > 0 {
		var sum float64
		for _, t := range times {
			sum += t
		}
		warmAvg = fmt.Sprintf("%.3fs", sum/float64(len(times)))
	}

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  Cold time: %s, Warm average: %s\n", coldTimeStr, warmAvg)

	return BenchmarkResult{
		Catalog:  catalog,
		Workers:  workers,
		ColdTime: coldTimeStr,
		WarmTime: warmAvg,
	}
}

// runBenchmark executes a dry-run ranking multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, path string, workers int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"rank", "--tools", path, "--dry-run",
		"--store-backend", "none",
		"--workers", strconv.Itoa(workers),
		"--limit", "10",
	}

	var times []float64
	for run := 1; run <= config.Runs; run++ {
		start := time.Now()

		cmd := exec.Command("powerrank", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "Ranking completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/powerrank_benchmark_%s.csv", timestamp)

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

	// Write header
	if err := writer.Write([]string{"tools", "workers", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Catalog, strconv.Itoa(result.Workers), result.ColdTime, result.WarmTime}); err != nil {
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
		fmt.Printf("  %6s tools, %2d workers: Cold: %s, Warm: %s\n", result.Catalog, result.Workers, result.ColdTime, result.WarmTime)
	}
}
