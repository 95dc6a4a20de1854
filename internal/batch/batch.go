// Package batch runs a function over many inputs with bounded parallelism.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs an input with its outcome. Results keep input order.
type Result[T any] struct {
	Input string
	Value T
	Err   error
}

// Run calls fn for every item with at most limit calls in flight. A failing
// item does not stop the others; only ctx cancellation does, in which case
// the items not yet started carry ctx.Err().
func Run[T any](ctx context.Context, items []string, limit int, fn func(ctx context.Context, item string) (T, error)) ([]Result[T], error) {
	if limit <= 0 {
		limit = 1
	}
	results := make([]Result[T], len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, item := range items {
		results[i].Input = item
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			v, err := fn(gctx, item)
			results[i].Value = v
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

// Failed counts results with an error.
func Failed[T any](rs []Result[T]) int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}
