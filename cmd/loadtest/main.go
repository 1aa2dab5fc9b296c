// Command loadtest drives POST /api/v1/documents with synthetic documents
// and reports throughput, latency percentiles and status codes.
//
// Usage:
//
//	go run ./cmd/loadtest [-url http://localhost:8090] [-concurrency 10] [-duration 30s]
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	BaseURL     string
	APIKey      string
	Concurrency int
	Duration    time.Duration
	Vocabulary  int
	WordsPerDoc int
	BatchSize   int
}

type Stats struct {
	requests    atomic.Int64
	documents   atomic.Int64
	success     atomic.Int64
	partial     atomic.Int64
	failures    atomic.Int64
	newWords    atomic.Int64
	mu          sync.Mutex
	latencies   []time.Duration
	statusCodes map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latencies:   make([]time.Duration, 0, 100000),
		statusCodes: make(map[int]int64),
	}
}

func (s *Stats) Record(latency time.Duration, docs, status int, body ingestResponse, err error) {
	s.requests.Add(1)
	if err != nil {
		s.failures.Add(1)
		return
	}
	s.mu.Lock()
	s.latencies = append(s.latencies, latency)
	s.statusCodes[status]++
	s.mu.Unlock()

	if status != http.StatusOK {
		s.failures.Add(1)
		return
	}
	s.success.Add(1)
	s.documents.Add(int64(docs))
	s.newWords.Add(int64(len(body.NewWords)))
	if body.Status == "partial" {
		s.partial.Add(1)
	}
}

type ingestResponse struct {
	Status   string         `json:"status"`
	NewWords map[string]int `json:"new_words"`
}

// corpus draws documents from a Zipf-distributed synthetic vocabulary so
// common words repeat and rare words keep growing the vocabulary.
type corpus struct {
	words []string
	zipf  *rand.Zipf
}

func newCorpus(size int, seed uint64) *corpus {
	words := make([]string, size)
	for i := range words {
		words[i] = fmt.Sprintf("term%05d", i)
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &corpus{words: words, zipf: rand.NewZipf(r, 1.1, 1, uint64(size-1))}
}

func (c *corpus) document(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.words[c.zipf.Uint64()])
	}
	return b.String()
}

func main() {
	cfg := Config{}
	flag.StringVar(&cfg.BaseURL, "url", "http://localhost:8090", "base URL of the vocabulary service")
	flag.StringVar(&cfg.APIKey, "api-key", os.Getenv("LV_API_KEY"), "writer API key")
	flag.IntVar(&cfg.Concurrency, "concurrency", 10, "number of concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "test duration")
	flag.IntVar(&cfg.Vocabulary, "vocabulary", 20000, "synthetic vocabulary size")
	flag.IntVar(&cfg.WordsPerDoc, "words", 40, "words per document")
	flag.IntVar(&cfg.BatchSize, "batch", 1, "documents per request (1 sends single documents)")
	flag.Parse()

	fmt.Println("=== Live Vocabulary Load Test ===")
	fmt.Printf("Target:      %s\n", cfg.BaseURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Documents:   %d words, batch %d, vocabulary %d\n", cfg.WordsPerDoc, cfg.BatchSize, cfg.Vocabulary)
	fmt.Println()

	stats := run(cfg)
	if !report(os.Stdout, stats, cfg.Duration) {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

func run(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c := newCorpus(cfg.Vocabulary, uint64(worker)+1)
			for ctx.Err() == nil {
				body, docs := payload(c, cfg)
				start := time.Now()
				status, resp, err := post(ctx, client, cfg, body)
				if ctx.Err() != nil {
					return
				}
				stats.Record(time.Since(start), docs, status, resp, err)
			}
		}(w)
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Printf("  %d requests, %d new words\n", stats.requests.Load(), stats.newWords.Load())
			}
		}
	}()

	wg.Wait()
	fmt.Println()
	return stats
}

func payload(c *corpus, cfg Config) ([]byte, int) {
	if cfg.BatchSize <= 1 {
		b, _ := json.Marshal(map[string]string{"document": c.document(cfg.WordsPerDoc)})
		return b, 1
	}
	docs := make([]string, cfg.BatchSize)
	for i := range docs {
		docs[i] = c.document(cfg.WordsPerDoc)
	}
	b, _ := json.Marshal(map[string][]string{"documents": docs})
	return b, len(docs)
}

func post(ctx context.Context, client *http.Client, cfg Config, body []byte) (int, ingestResponse, error) {
	var out ingestResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/api/v1/documents", bytes.NewReader(body))
	if err != nil {
		return 0, out, err
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("X-API-Key", cfg.APIKey)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return resp.StatusCode, out, err
		}
	}
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, out, nil
}

// report prints the results and returns false when nothing completed.
func report(w io.Writer, stats *Stats, duration time.Duration) bool {
	total := stats.requests.Load()
	fmt.Fprintln(w, "=== Results ===")
	fmt.Fprintf(w, "Requests:        %d\n", total)
	fmt.Fprintf(w, "Successful:      %d (%d partial)\n", stats.success.Load(), stats.partial.Load())
	fmt.Fprintf(w, "Failed:          %d\n", stats.failures.Load())
	fmt.Fprintf(w, "Documents:       %d\n", stats.documents.Load())
	fmt.Fprintf(w, "New words:       %d\n", stats.newWords.Load())
	if total > 0 {
		fmt.Fprintf(w, "Failure rate:    %.2f%%\n", float64(stats.failures.Load())/float64(total)*100)
		fmt.Fprintf(w, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
		fmt.Fprintf(w, "Documents/sec:   %.2f\n", float64(stats.documents.Load())/duration.Seconds())
	}

	stats.mu.Lock()
	latencies := append([]time.Duration(nil), stats.latencies...)
	codes := make([]int, 0, len(stats.statusCodes))
	for code := range stats.statusCodes {
		codes = append(codes, code)
	}
	counts := make(map[int]int64, len(codes))
	for _, code := range codes {
		counts[code] = stats.statusCodes[code]
	}
	stats.mu.Unlock()

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))
		var sq float64
		for _, l := range latencies {
			d := float64(l - avg)
			sq += d * d
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "=== Latency ===")
		fmt.Fprintf(w, "Min:    %s\n", latencies[0])
		fmt.Fprintf(w, "Avg:    %s\n", avg)
		for _, p := range []float64{50, 90, 95, 99} {
			fmt.Fprintf(w, "P%-2.0f:    %s\n", p, percentile(latencies, p))
		}
		fmt.Fprintf(w, "Max:    %s\n", latencies[len(latencies)-1])
		fmt.Fprintf(w, "StdDev: %s\n", time.Duration(math.Sqrt(sq/float64(len(latencies)))))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Status Codes ===")
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  %d: %d\n", code, counts[code])
	}
	return total > 0
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
