package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Client defaults.
const (
	DefaultEndpoint         = "https://code-runner-new.livelypebble-17c142a1.eastus.azurecontainerapps.io/run"
	DefaultExecutionTimeout = 5 * time.Second
	DefaultClientTimeout    = 10 * time.Second
	DefaultMaxProgramBytes  = 256 * 1024
	DefaultMaxResponseBytes = 1 << 20
)

// ClientConfig configures the remote execution service client.
type ClientConfig struct {
	Endpoint         string
	ExecutionTimeout time.Duration
	ClientTimeout    time.Duration
	MaxProgramBytes  int
	MaxResponseBytes int64
	HTTPClient       *http.Client
	Logger           zerolog.Logger
}

// Client dispatches programs to the remote execution service over HTTP.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	tracer trace.Tracer
	logger zerolog.Logger
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Timeout  int    `json:"timeout"`
}

type executeResponse struct {
	Output interface{} `json:"output"`
}

// NewClient constructs a Client, filling unset values with defaults.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ExecutionTimeout <= 0 {
		cfg.ExecutionTimeout = DefaultExecutionTimeout
	}
	if cfg.ClientTimeout <= 0 {
		cfg.ClientTimeout = DefaultClientTimeout
	}
	if cfg.MaxProgramBytes <= 0 {
		cfg.MaxProgramBytes = DefaultMaxProgramBytes
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = DefaultMaxResponseBytes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	clone := *httpClient
	clone.Timeout = cfg.ClientTimeout

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &Client{
		cfg:    cfg,
		http:   &clone,
		tracer: otel.Tracer("github.com/treytuscai/DevReady/pkg/sandbox"),
		logger: logger.With().Str("component", "sandbox_client").Logger(),
	}
}

// Dispatch posts the program to the execution service and parses the response.
func (c *Client) Dispatch(ctx context.Context, language, program string) ExecutionResult {
	ctx, span := c.tracer.Start(ctx, "sandbox.client.dispatch", trace.WithAttributes(
		attribute.String("sandbox.language", language),
		attribute.Int("sandbox.program_bytes", len(program)),
	))
	defer span.End()

	start := time.Now()
	result, outcome := c.dispatch(ctx, language, program)
	dispatchDuration.WithLabelValues("remote", language).Observe(time.Since(start).Seconds())
	dispatchTotal.WithLabelValues("remote", language, outcome).Inc()

	if outcome != outcomeOK {
		span.SetStatus(codes.Error, outcome)
		c.logger.Warn().Str("language", language).Str("outcome", outcome).Strs("stderr", result.Stderr).Msg("sandbox dispatch failed")
	}
	return result
}

func (c *Client) dispatch(ctx context.Context, language, program string) (ExecutionResult, string) {
	if len(program) > c.cfg.MaxProgramBytes {
		return Failure(fmt.Sprintf("Program exceeds the maximum size of %d bytes", c.cfg.MaxProgramBytes)), outcomeRejected
	}

	timeoutSeconds := int(c.cfg.ExecutionTimeout / time.Second)
	if timeoutSeconds < 1 {
		timeoutSeconds = 1
	}

	payload, err := json.Marshal(executeRequest{Language: language, Code: program, Timeout: timeoutSeconds})
	if err != nil {
		return Failure(fmt.Sprintf("Unexpected error: %v", err)), outcomeDecodeError
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return Failure(fmt.Sprintf("Request failed: %v", err)), outcomeTransport
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Failure(fmt.Sprintf("Request failed: %v", err)), outcomeTransport
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxResponseBytes))
	if err != nil {
		return Failure(fmt.Sprintf("Request failed: %v", err)), outcomeTransport
	}

	if resp.StatusCode != http.StatusOK {
		return Failure(fmt.Sprintf("Code execution service error: %s", string(body))), outcomeServiceError
	}

	var decoded executeResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&decoded); err != nil {
		return Failure(fmt.Sprintf("Unexpected error: %v", err)), outcomeDecodeError
	}

	return parseWireOutput(decoded.Output), outcomeOK
}
