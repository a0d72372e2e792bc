// Benchmark tool for testing TrustEngine against labeled entity histories.
//
// Usage:
//
//	go run cmd/benchmark/main.go -csv /path/to/histories.csv -url http://localhost:8080
//
// This tool:
//  1. Reads per-event rows with per-entity trust labels
//  2. Groups rows into entity histories and sends each to POST /assess
//  3. Compares the Chitty Score against a threshold with the actual labels
//  4. Calculates precision, recall, F1-score, and confusion matrix
//
// Expected CSV columns (header required, case-insensitive):
//
//	entity_id, entity_type, identity_verified, event_type, outcome,
//	channel, impact, days_ago, trusted
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EntityHistory is one benchmark unit: an entity, its accumulated
// events, and the label the assessment is judged against.
type EntityHistory struct {
	EntityID         string
	EntityType       string
	IdentityVerified bool
	Events           []EventRow
	Trusted          bool
}

// EventRow is a single event parsed from the CSV.
type EventRow struct {
	EventType string
	Outcome   string
	Channel   string
	Impact    float64
	DaysAgo   int
}

// AssessRequest is the TrustEngine API request format
type AssessRequest struct {
	Entity Entity  `json:"entity"`
	Events []Event `json:"events"`
}

type Entity struct {
	ID               string    `json:"id"`
	EntityType       string    `json:"entityType"`
	Name             string    `json:"name"`
	CreatedAt        time.Time `json:"createdAt"`
	IdentityVerified bool      `json:"identityVerified"`
}

type Event struct {
	ID          string    `json:"id"`
	EntityID    string    `json:"entityId"`
	EventType   string    `json:"eventType"`
	Timestamp   time.Time `json:"timestamp"`
	Channel     string    `json:"channel,omitempty"`
	Outcome     string    `json:"outcome"`
	ImpactScore float64   `json:"impactScore"`
}

// AssessResponse is the TrustEngine API response format
type AssessResponse struct {
	EntityID string `json:"entityId"`
	Score    struct {
		Scores   map[string]float64 `json:"scores"`
		Metadata struct {
			Confidence float64 `json:"confidence"`
		} `json:"metadata"`
	} `json:"score"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Untrusted flagged below threshold
	FalsePositives int64 // Trusted flagged below threshold
	TrueNegatives  int64 // Trusted scored at or above threshold
	FalseNegatives int64 // Untrusted scored at or above threshold (missed!)

	TotalProcessed int64
	TotalUntrusted int64
	TotalTrusted   int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	// Parse flags
	csvPath := flag.String("csv", "", "Path to labeled history CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "TrustEngine base URL")
	tenantID := flag.String("tenant", "benchmark-test", "Tenant ID for requests")
	threshold := flag.Float64("threshold", 50.0, "Chitty Score below which an entity is flagged")
	limit := flag.Int("limit", 10000, "Maximum entities to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	verbose := flag.Bool("verbose", false, "Print each entity result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/histories.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        TRUSTENGINE BENCHMARK - Labeled Entity Histories       ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:    %s\n", *csvPath)
	fmt.Printf("Engine URL:  %s\n", *baseURL)
	fmt.Printf("Tenant ID:   %s\n", *tenantID)
	fmt.Printf("Threshold:   %.1f\n", *threshold)
	fmt.Printf("Workers:     %d\n", *workers)
	fmt.Printf("Limit:       %d\n", *limit)
	fmt.Println()

	// Check the engine is running
	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: TrustEngine not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure TrustEngine is running:")
		fmt.Println("  go run cmd/trustengine/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ TrustEngine is healthy")

	// Read labeled histories
	fmt.Printf("\nReading entity histories from %s...\n", *csvPath)
	histories, err := readHistoryCSV(*csvPath, *limit)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d entities\n", len(histories))

	// Count trusted vs untrusted
	untrustedCount := 0
	for _, h := range histories {
		if !h.Trusted {
			untrustedCount++
		}
	}
	fmt.Printf("  - Untrusted: %d (%.2f%%)\n", untrustedCount, 100*float64(untrustedCount)/float64(len(histories)))
	fmt.Printf("  - Trusted:   %d (%.2f%%)\n", len(histories)-untrustedCount, 100*float64(len(histories)-untrustedCount)/float64(len(histories)))

	// Run benchmark
	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(histories, *baseURL, *tenantID, *threshold, *workers, *verbose)
	duration := time.Since(startTime)

	// Print results
	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func readHistoryCSV(path string, limit int) ([]*EntityHistory, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}

	byEntity := make(map[string]*EntityHistory)
	var order []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		entityID := record[colIndex["entity_id"]]
		if entityID == "" {
			continue
		}

		h, ok := byEntity[entityID]
		if !ok {
			if limit > 0 && len(order) >= limit {
				continue
			}
			h = &EntityHistory{
				EntityID:         entityID,
				EntityType:       record[colIndex["entity_type"]],
				IdentityVerified: record[colIndex["identity_verified"]] == "1",
				Trusted:          record[colIndex["trusted"]] == "1",
			}
			if h.EntityType == "" {
				h.EntityType = "person"
			}
			byEntity[entityID] = h
			order = append(order, entityID)
		}

		impact, _ := strconv.ParseFloat(record[colIndex["impact"]], 64)
		daysAgo, _ := strconv.Atoi(record[colIndex["days_ago"]])

		h.Events = append(h.Events, EventRow{
			EventType: record[colIndex["event_type"]],
			Outcome:   record[colIndex["outcome"]],
			Channel:   record[colIndex["channel"]],
			Impact:    impact,
			DaysAgo:   daysAgo,
		})
	}

	histories := make([]*EntityHistory, 0, len(order))
	for _, id := range order {
		histories = append(histories, byEntity[id])
	}
	return histories, nil
}

func runBenchmark(histories []*EntityHistory, baseURL, tenantID string, threshold float64, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	// Create work channel
	work := make(chan *EntityHistory, 100)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for h := range work {
				start := time.Now()
				result, err := assessEntity(client, baseURL, tenantID, h)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", h.EntityID, err)
					}
					continue
				}

				// Track actual labels
				if h.Trusted {
					atomic.AddInt64(&metrics.TotalTrusted, 1)
				} else {
					atomic.AddInt64(&metrics.TotalUntrusted, 1)
				}

				// Calculate confusion matrix. A "positive" is a flag:
				// Chitty Score below the threshold.
				chitty := result.Score.Scores["chitty"]
				predicted := chitty < threshold
				actual := !h.Trusted

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					name := h.EntityID
					if len(name) > 14 {
						name = name[:14]
					}
					fmt.Printf("%s %-14s | Events: %3d | Trusted: %-5v | Chitty: %6.2f | Confidence: %.2f\n",
						status,
						name,
						len(h.Events),
						h.Trusted,
						chitty,
						result.Score.Metadata.Confidence,
					)
				}
			}
		}()
	}

	// Send work
	for _, h := range histories {
		work <- h
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func assessEntity(client *http.Client, baseURL, tenantID string, h *EntityHistory) (*AssessResponse, error) {
	now := time.Now().UTC()

	// Entity creation predates the oldest event
	oldest := 0
	for _, e := range h.Events {
		if e.DaysAgo > oldest {
			oldest = e.DaysAgo
		}
	}

	req := AssessRequest{
		Entity: Entity{
			ID:               h.EntityID,
			EntityType:       h.EntityType,
			Name:             h.EntityID,
			CreatedAt:        now.AddDate(0, 0, -(oldest + 30)),
			IdentityVerified: h.IdentityVerified,
		},
	}

	for i, e := range h.Events {
		req.Events = append(req.Events, Event{
			ID:          fmt.Sprintf("%s-evt-%d", h.EntityID, i+1),
			EntityID:    h.EntityID,
			EventType:   e.EventType,
			Timestamp:   now.AddDate(0, 0, -e.DaysAgo),
			Channel:     e.Channel,
			Outcome:     e.Outcome,
			ImpactScore: e.Impact,
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/assess", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Tenant-ID", tenantID)

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result AssessResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:   %d\n", m.TotalProcessed)
	fmt.Printf("   Total Untrusted:   %d\n", m.TotalUntrusted)
	fmt.Printf("   Total Trusted:     %d\n", m.TotalTrusted)
	fmt.Printf("   Errors:            %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                   FLAGGED      CLEAR")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  U  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           T  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	// Calculate metrics
	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 DETECTION METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flags, how many were actually untrusted)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of untrusted, how many did we flag)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct predictions)\n", accuracy)

	// Detection rate analysis
	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalUntrusted > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalUntrusted) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalUntrusted) * 100
		fmt.Printf("   Untrusted Flagged:  %d / %d (%.2f%%)\n", m.TruePositives, m.TotalUntrusted, detectionRate)
		fmt.Printf("   Untrusted Missed:   %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalUntrusted, missRate)
	}
	if m.TotalTrusted > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalTrusted) * 100
		fmt.Printf("   False Alarms:       %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalTrusted, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		eps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f entities/sec\n", eps)
	}

	// Interpretation
	fmt.Printf("\n💡 INTERPRETATION\n")
	if recall >= 0.9 {
		fmt.Println("   ✅ Excellent recall - flagging most untrusted entities")
	} else if recall >= 0.7 {
		fmt.Println("   ⚠️  Good recall - but missing some untrusted entities")
	} else if recall >= 0.5 {
		fmt.Println("   ⚠️  Moderate recall - many untrusted entities pass")
	} else {
		fmt.Println("   ❌ Poor recall - most untrusted entities pass!")
	}

	if precision >= 0.5 {
		fmt.Println("   ✅ Good precision - flags are meaningful")
	} else if precision >= 0.2 {
		fmt.Println("   ⚠️  Low precision - many false alarms")
	} else {
		fmt.Println("   ❌ Very low precision - mostly false alarms")
	}

	fmt.Println()
}
