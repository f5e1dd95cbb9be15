package apiclient

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/abhidhakal/HReady-WebApp-sub001/pkg/util/errorutil"
)

// maxRetries is the number of extra attempts after a transient failure.
const maxRetries = 1

// withRetry runs attempt and repeats it once after the backoff when it fails without a
// response. The counter lives in this call frame, so concurrent calls never share it.
func (c *Client) withRetry(ctx context.Context, path string, attempt func(context.Context) (*response, error)) (*response, error) {
	attempts := 0
	for {
		attempts++
		resp, err := attempt(ctx)
		if err == nil {
			return resp, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var transport *transportError
		if !errors.As(err, &transport) {
			return nil, err
		}
		if attempts > maxRetries {
			return nil, apperrors.NewTransientNetworkError(path, attempts, transport.err)
		}

		c.metrics.RecordRetry(path)
		c.logger.Warn("transient api failure, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempts),
			zap.Duration("backoff", c.backoff),
			zap.Error(transport.err),
		)
		if err := c.sleep(ctx, c.backoff); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
