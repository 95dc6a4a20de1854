package batch

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunKeepsOrderAndCollectsErrors(t *testing.T) {
	items := []string{"a", "bad", "c", "d"}
	rs, err := Run(t.Context(), items, 2, func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			return "", errors.New("bad item")
		}
		return strings.ToUpper(s), nil
	})
	require.NoError(t, err)
	require.Len(t, rs, 4)

	assert.Equal(t, "A", rs[0].Value)
	assert.Equal(t, "bad", rs[1].Input)
	assert.Error(t, rs[1].Err)
	assert.Equal(t, "D", rs[3].Value)
	assert.Equal(t, 1, Failed(rs))
}

func TestRunBoundsParallelism(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]string, 12)
	_, err := Run(t.Context(), items, 3, func(context.Context, string) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	rs, err := Run(ctx, []string{"a", "b"}, 1, func(context.Context, string) (int, error) { return 1, nil })
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 2, Failed(rs))
}
