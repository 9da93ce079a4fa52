// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"log/slog"
	"time"
)

// retryPolicy retries embedding calls with exponential backoff.
type retryPolicy struct {
	attempts  int           // total attempts, at least 1
	baseDelay time.Duration // doubles after each failed attempt
}

// do runs op until it succeeds, the attempts are used up, or ctx is done.
// Returns the error from the last attempt if all attempts fail.
func (rp retryPolicy) do(ctx context.Context, logger *slog.Logger, op func() error) error {
	if rp.attempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	delay := rp.baseDelay
	var lastErr error
	for attempt := 1; attempt <= rp.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op()
		if lastErr == nil {
			if attempt > 1 {
				logger.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		logger.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", rp.attempts, "err", lastErr)

		if attempt == rp.attempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}
