package attack

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DecodeBatch decodes several ciphertext messages concurrently, at most
// workers at a time (workers <= 0 means one per message). Results are in
// input order. The first malformed message cancels the remaining work.
func DecodeBatch(ctx context.Context, dec *Decoder, messages []string, workers int) ([]Result, error) {
	results := make([]Result, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, msg := range messages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := dec.DecodeHex(msg)
			if err != nil {
				return fmt.Errorf("message %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
