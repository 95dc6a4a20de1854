package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func dial(t *testing.T, ext Extractor) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(NewExtractionService(ext, quiet), quiet)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func request(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

type recorder struct {
	in  pipeline.Input
	rid string
}

func (r *recorder) Run(ctx context.Context, in pipeline.Input) pipeline.Output {
	r.in = in
	p := pipeline.New(quiet, pipeline.Config{}, nil, nil, nil)
	out := p.Run(ctx, in)
	r.rid = out.Report.RequestID
	return out
}

func TestExtractOverGRPC(t *testing.T) {
	rec := &recorder{}
	client := NewExtractionClient(dial(t, rec))

	ctx := metadata.AppendToOutgoingContext(t.Context(), RequestIDHeader, "req-42")
	resp, err := client.Extract(ctx, request(t, map[string]any{
		"text":   "Variabilní symbol: 2024001234\nDatum vystavení: 12.06.2025\nCelkem k úhradě: 12 100,00 Kč\n",
		"method": "heuristic",
	}))
	require.NoError(t, err)

	m := resp.AsMap()
	assert.Equal(t, "2024001234", m["variable_symbol"])
	assert.Equal(t, "2025-06-12", m["issue_date"])
	assert.Equal(t, "12100.00", m["amount_incl_tax"])
	assert.Equal(t, "CZK", m["currency"])
	assert.Equal(t, "heuristic", m["method"])
	assert.Contains(t, m, "validations")

	report, ok := m["report"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "req-42", report["request_id"])
	assert.Equal(t, "req-42", rec.rid)
	assert.Equal(t, pipeline.MethodHeuristic, rec.in.Method)
	assert.Equal(t, "grpc", rec.in.Source)
}

func TestExtractRejectsEmptyBody(t *testing.T) {
	client := NewExtractionClient(dial(t, &recorder{}))

	_, err := client.Extract(t.Context(), request(t, map[string]any{"text": "   "}))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestExtractRejectsUnknownMethod(t *testing.T) {
	client := NewExtractionClient(dial(t, &recorder{}))

	_, err := client.Extract(t.Context(), request(t, map[string]any{"text": "Faktura", "method": "magic"}))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthServing(t *testing.T) {
	hc := grpc_health_v1.NewHealthClient(dial(t, &recorder{}))

	resp, err := hc.Check(t.Context(), &grpc_health_v1.HealthCheckRequest{Service: ExtractionServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}
