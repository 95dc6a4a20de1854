package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
	"github.com/joseph-ayodele/invoice-extractor/internal/llm"
)

// ExtractFields implements llm.FieldExtractor with one JSON-mode chat completion.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (invoice.Record, []byte, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(req.Text),
		"missing", req.Missing,
		"failed", req.Failed,
	)

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.BuildSystemPrompt(req)},
			{Role: goopenai.ChatMessageRoleUser, Content: llm.BuildUserPrompt(req)},
			{Role: goopenai.ChatMessageRoleSystem, Content: llm.SchemaPrompt()},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return invoice.Record{}, nil, fmt.Errorf("%w: chat completion: %v", common.ErrExternalExtractor, err)
	}
	if len(resp.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return invoice.Record{}, nil, fmt.Errorf("%w: no choices in response", common.ErrExternalExtractor)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	rec, raw, err := llm.Decode([]byte(content), c.log)
	if err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return invoice.Record{}, raw, err
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"variable_symbol", invoice.Value(rec.VariableSymbol),
		"issue_date", invoice.Value(rec.IssueDate),
		"currency", invoice.Value(rec.Currency),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rec, raw, nil
}
