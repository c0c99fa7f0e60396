// Package gemini implements the extraction and categorization model calls
// on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/claud0698/boulder-delivery-receipts/constants"
	"github.com/claud0698/boulder-delivery-receipts/internal/common"
	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
	"github.com/claud0698/boulder-delivery-receipts/internal/retry"
	"github.com/claud0698/boulder-delivery-receipts/internal/telemetry"
)

// Config for the Gemini client.
type Config struct {
	APIKey  string
	Model   string        // e.g. "gemini-2.5-flash-lite"
	Timeout time.Duration // per-attempt timeout
}

// Client wraps one shared genai connection. It is constructed once at
// process start and reused across invocations; the only per-call state is
// the generative model handle, which is cheap.
type Client struct {
	cfg    Config
	genai  *genai.Client
	usage  telemetry.Recorder
	logger *slog.Logger
	policy retry.Policy
}

func NewClient(ctx context.Context, cfg Config, usage telemetry.Recorder, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "gemini api key is empty", common.ErrInvalidInput)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash-lite"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if usage == nil {
		usage = telemetry.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(cfg.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		cfg:    cfg,
		genai:  cl,
		usage:  usage,
		logger: logger,
		policy: retry.Extraction(IsTransient),
	}, nil
}

func (c *Client) Close() error { return c.genai.Close() }

// Extract issues one vision call and parses the strict-JSON response.
// Transient call failures are retried per the extraction policy; a
// response that fails schema validation is not retried and yields
// (nil, 0, nil) with the raw text logged for diagnosis.
func (c *Client) Extract(ctx context.Context, ref llm.ImageRef) (*llm.ReceiptFields, float64, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"inline_bytes", len(ref.Data),
		"has_uri", ref.URI != "",
	)

	m := c.genai.GenerativeModel(c.cfg.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}

	parts := []genai.Part{genai.Text(llm.BuildExtractionPrompt()), imagePart(ref)}

	var resp *genai.GenerateContentResponse
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		var callErr error
		resp, callErr = m.GenerateContent(callCtx, parts...)
		return callErr
	})
	if err != nil {
		c.logger.Error("extract.call_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, fmt.Errorf("%w: %w", common.ErrExtraction, err)
	}

	txt := llm.StripCodeFences(firstText(resp))
	if txt == "" {
		c.logger.Error("extract.empty_response", "req_id", rid)
		return nil, 0, nil
	}

	fields, conf, perr := llm.ParseExtraction([]byte(txt))
	if perr != nil {
		// non-retryable per contract: the caller sees an empty result
		c.logger.Error("extract.parse_failed",
			"req_id", rid, "error", perr, "raw", txt,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		c.reportUsage(ctx, "extract", "", resp)
		return nil, 0, nil
	}

	c.reportUsage(ctx, "extract", fields.ReceiptNumber, resp)
	c.logger.Info("extract.ok",
		"req_id", rid,
		"receipt_number", fields.ReceiptNumber,
		"material", fields.MaterialName,
		"net_weight", fields.NetWeight,
		"confidence", conf,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, conf, nil
}

// Label issues a single categorization call. Retry is the caller's
// concern (the categorizer wraps this with its own policy).
func (c *Client) Label(ctx context.Context, materialName string) (string, error) {
	m := c.genai.GenerativeModel(c.cfg.Model)
	m.GenerationConfig = genai.GenerationConfig{Temperature: ptrFloat32(0.1)}

	prompt := llm.BuildCategorizationPrompt(materialName, categoryLabels())

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	resp, err := m.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrCategorization, err)
	}

	c.reportUsage(ctx, "categorize", "", resp)

	label := strings.TrimSpace(firstText(resp))
	if label == "" {
		return "", fmt.Errorf("%w: empty response", common.ErrCategorization)
	}
	return label, nil
}

func (c *Client) reportUsage(ctx context.Context, op, receiptNumber string, resp *genai.GenerateContentResponse) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	rec := telemetry.Record{
		ReceiptNumber: receiptNumber,
		Operation:     op,
		Model:         c.cfg.Model,
		PromptTokens:  resp.UsageMetadata.PromptTokenCount,
		OutputTokens:  resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:   resp.UsageMetadata.TotalTokenCount,
	}
	if err := c.usage.Record(ctx, rec); err != nil {
		c.logger.Warn("telemetry.record_failed", "operation", op, "error", err)
	}
}

// IsTransient classifies model-call errors for the retry policies:
// rate limits, server errors and network failures are retryable, auth and
// malformed-request errors are not.
func IsTransient(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 429 || gerr.Code >= 500
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func categoryLabels() []string { return constants.AsStringSlice() }

func imagePart(ref llm.ImageRef) genai.Part {
	mime := ref.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	if ref.URI != "" {
		return genai.FileData{MIMEType: mime, URI: ref.URI}
	}
	return genai.Blob{MIMEType: mime, Data: ref.Data}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
