package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jewan100/message-queue-study/internal/api/dto"
)

// Config holds OCR worker client configuration
type Config struct {
	BaseURL        string
	Nodes          []string
	PredictPath    string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// newHTTPClient builds the shared HTTP client with the configured
// connect and read timeouts
func newHTTPClient(cfg *Config) *http.Client {
	return &http.Client{
		Timeout: cfg.ReadTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
		},
	}
}

// predict issues the prediction RPC against one worker endpoint and
// returns the worker's response verbatim. Failures surface unmodified;
// there is no retry and no fallback node.
func predict(ctx context.Context, httpClient *http.Client, url, pdfName string, logger *slog.Logger) (*dto.PredictResponse, error) {
	body, err := json.Marshal(map[string]string{"pdfName": pdfName})
	if err != nil {
		return nil, fmt.Errorf("failed to encode predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error("OCR worker request failed",
			slog.String("url", url),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("ocr worker request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.Error("OCR worker returned non-success status",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("ocr worker returned status %d: %s", resp.StatusCode, string(data))
	}

	var predictResp dto.PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&predictResp); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}

	return &predictResp, nil
}

// WorkerClient calls a single fixed OCR worker endpoint
type WorkerClient struct {
	httpClient *http.Client
	url        string
	logger     *slog.Logger
}

// NewWorkerClient creates a client bound to the configured base URL
func NewWorkerClient(cfg *Config, logger *slog.Logger) *WorkerClient {
	return &WorkerClient{
		httpClient: newHTTPClient(cfg),
		url:        cfg.BaseURL + cfg.PredictPath,
		logger:     logger,
	}
}

// Predict issues a synchronous prediction RPC to the fixed endpoint
func (c *WorkerClient) Predict(ctx context.Context, pdfName string) (*dto.PredictResponse, error) {
	return predict(ctx, c.httpClient, c.url, pdfName, c.logger)
}

// RoundRobinClient load-balances prediction RPCs across a fixed list of
// worker nodes. The counter is the only shared mutable state; a single
// atomic fetch-and-add selects the node, so concurrent calls never need
// a wider critical section. The counter may wrap at the int64 boundary,
// which is fine because only its value modulo len(nodes) is observed.
type RoundRobinClient struct {
	httpClient  *http.Client
	nodes       []string
	predictPath string
	counter     atomic.Int64
	logger      *slog.Logger
}

// NewRoundRobinClient creates a client over the configured node list
func NewRoundRobinClient(cfg *Config, logger *slog.Logger) (*RoundRobinClient, error) {
	if len(cfg.Nodes) == 0 {
		return nil, fmt.Errorf("ocr worker node list is empty")
	}

	return &RoundRobinClient{
		httpClient:  newHTTPClient(cfg),
		nodes:       cfg.Nodes,
		predictPath: cfg.PredictPath,
		logger:      logger,
	}, nil
}

// nextBaseURL advances the counter and returns the selected node
func (c *RoundRobinClient) nextBaseURL() string {
	idx := floorMod(c.counter.Add(1)-1, int64(len(c.nodes)))
	return c.nodes[idx]
}

// Predict issues a synchronous prediction RPC to the next node in
// round-robin order
func (c *RoundRobinClient) Predict(ctx context.Context, pdfName string) (*dto.PredictResponse, error) {
	baseURL := c.nextBaseURL()
	url := baseURL + c.predictPath

	c.logger.Debug("Dispatching predict call",
		slog.String("node", baseURL),
	)

	return predict(ctx, c.httpClient, url, pdfName, c.logger)
}

// floorMod returns the non-negative remainder of a divided by n
func floorMod(a, n int64) int64 {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
