package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// assessRequest and assessReply mirror the service's /assess contract.
type assessRequest struct {
	Fields map[string]string `json:"fields"`
}

type assessReply struct {
	Verdict model.Verdict `json:"verdict"`
	Code    string        `json:"code"`
	Field   string        `json:"field"`
}

// submitCases posts every case concurrently and returns replies in case order.
func submitCases(ctx context.Context, config *Config, cases []Case, stats *Stats) []Reply {
	log := logger.Get().Named("submit")
	log.Info(ctx, "submitting forms",
		logger.Int("forms", len(cases)),
		logger.Int("workers", config.Workers),
	)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/assess"
	replies := make([]Reply, len(cases))

	var (
		submitted atomic.Int64
		failed    atomic.Int64
		lastMu    sync.Mutex
		last      = time.Now()
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				reply := submitSingleCase(ctx, client, url, cases[index])
				replies[index] = reply

				total := submitted.Add(1)
				if reply.Err != nil {
					failed.Add(1)
				}

				lastMu.Lock()
				report := time.Since(last) >= progressInterval
				if report {
					last = time.Now()
				}
				lastMu.Unlock()
				if report && config.Verbose {
					log.Info(ctx, "progress",
						logger.Int("submitted", int(total)),
						logger.Int("of", len(cases)),
						logger.Int("failed", int(failed.Load())),
					)
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range cases {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	for _, r := range replies {
		if r.CaseID == "" {
			continue
		}
		stats.Submitted++
		if r.Latency > stats.MaxLatency {
			stats.MaxLatency = r.Latency
		}
		switch {
		case r.Err != nil:
			stats.Failed++
		case r.Status == http.StatusOK:
			stats.Assessed++
			if r.Verdict == model.VerdictAtRisk {
				stats.AtRisk++
			}
		case r.Status == http.StatusBadRequest:
			stats.Rejected++
		default:
			stats.Failed++
		}
	}

	log.Info(ctx, "submission completed",
		logger.Int("assessed", stats.Assessed),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
	)

	return replies
}

// submitSingleCase posts one form and decodes whichever body comes back.
func submitSingleCase(ctx context.Context, client *HTTPClient, url string, c Case) Reply {
	reply := Reply{CaseID: c.ID}
	start := time.Now()
	resp, err := client.Post(ctx, url, assessRequest{Fields: c.Fields})
	if err != nil {
		reply.Err = err
		return reply
	}

	body, err := readResponseBody(resp)
	reply.Latency = time.Since(start)
	reply.Status = resp.StatusCode
	if err != nil {
		reply.Err = fmt.Errorf("read response: %w", err)
		return reply
	}

	var decoded assessReply
	if err := json.Unmarshal(body, &decoded); err != nil {
		reply.Err = fmt.Errorf("decode %d response: %w", resp.StatusCode, err)
		return reply
	}
	reply.Verdict = decoded.Verdict
	reply.Code = decoded.Code
	reply.Field = decoded.Field
	return reply
}

// fetchStats reads GET /stats.
func fetchStats(ctx context.Context, client *HTTPClient, baseURL string) (model.Stats, error) {
	var stats model.Stats
	resp, err := client.Get(ctx, baseURL+"/stats")
	if err != nil {
		return stats, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return stats, err
	}
	if resp.StatusCode != http.StatusOK {
		return stats, fmt.Errorf("stats returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &stats); err != nil {
		return stats, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}
