package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

// Extractor runs one document through the extraction pipeline.
type Extractor interface {
	Run(ctx context.Context, in pipeline.Input) pipeline.Output
}

type ExtractionService struct {
	pipe   Extractor
	logger *slog.Logger
}

func NewExtractionService(pipe Extractor, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{pipe: pipe, logger: logger}
}

// Extract accepts {text, raw_text, method, source} and answers with the
// record fields plus a "report" object.
func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	text := fields["text"].GetStringValue()
	raw := fields["raw_text"].GetStringValue()
	if strings.TrimSpace(text) == "" && strings.TrimSpace(raw) == "" {
		s.logger.Warn("extract request missing text")
		return nil, common.InvalidArgumentError("text or raw_text is required")
	}

	method, err := pipeline.ParseMethod(fields["method"].GetStringValue())
	if err != nil {
		return nil, common.InvalidArgumentError(err.Error())
	}
	source := fields["source"].GetStringValue()
	if source == "" {
		source = "grpc"
	}

	out := s.pipe.Run(ctx, pipeline.Input{Text: text, Raw: raw, Method: method, Source: source})
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}

	resp, err := toStruct(out)
	if err != nil {
		s.logger.Error("extract response encoding failed", "req_id", out.Report.RequestID, "error", err)
		return nil, common.InternalError("encode response")
	}
	return resp, nil
}

func toStruct(out pipeline.Output) (*structpb.Struct, error) {
	m, err := jsonMap(out.Record)
	if err != nil {
		return nil, err
	}
	rep, err := jsonMap(out.Report)
	if err != nil {
		return nil, err
	}
	m["report"] = rep
	return structpb.NewStruct(m)
}

func jsonMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
