package fetch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Ordered runs fn over every input with at most limit calls in flight and
// returns the results in input order. fn reports its own failures through
// its result; a cancelled context stops new calls from starting.
func Ordered[T, R any](ctx context.Context, limit int, in []T, fn func(ctx context.Context, i int, v T) R) []R {
	out := make([]R, len(in))
	if limit < 1 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, v := range in {
		if ctx.Err() != nil {
			break
		}
		i, v := i, v
		g.Go(func() error {
			out[i] = fn(ctx, i, v)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
