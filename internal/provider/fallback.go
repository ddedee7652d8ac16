package provider

import "context"

// TryEach runs try against each candidate in order until one succeeds.
// After a failed attempt, next decides whether the traversal moves on to
// the remaining candidates; returning false surfaces that error
// immediately. When every candidate has been tried, the last error is
// returned. The context is checked between attempts, never mid-attempt.
//
// Both fallback levels in the system are this one loop: the dispatcher
// walks providers with it and the huggingface adapter walks model ids.
func TryEach[C any, R any](
	ctx context.Context,
	candidates []C,
	try func(context.Context, C) (R, error),
	next func(C, error) bool,
) (R, error) {
	var (
		zero    R
		lastErr error
	)

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		res, err := try(ctx, c)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if next != nil && !next(c, err) {
			return zero, err
		}
	}

	return zero, lastErr
}
