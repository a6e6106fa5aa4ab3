package core

import (
	"context"
	"fmt"
	"time"
)

// WaitConfig defines polling parameters for WaitFor and WaitCondition.
//
// Polling happens at a fixed interval. There is no backoff: platform
// resources become ready on a human timescale (seconds), so a steady
// cadence keeps the total wait predictable and the bound strict.
//
// Fields:
//   - Timeout: Maximum total duration to wait before giving up (default: 10 minutes)
//   - Interval: Fixed delay between consecutive polls (default: 3 seconds)
//
// Zero values are replaced with defaults by the normalize() method.
type WaitConfig struct {
	Timeout  time.Duration // Maximum total wait time
	Interval time.Duration // Fixed polling interval
}

// normalize fills in missing (zero) values with sensible defaults.
func (c *WaitConfig) normalize() {
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Minute
	}
	if c.Interval == 0 {
		c.Interval = 3 * time.Second
	}
}

// stateFromRecord extracts a short human-readable state out of a record for
// timeout diagnostics. Platform resources expose either a "state" field
// (importers, analyses) or just the "active" flag (gates, cleaners).
func stateFromRecord(record Record) string {
	if record == nil {
		return "<unknown>"
	}
	if state, ok := record["state"]; ok && state != nil {
		return fmt.Sprintf("%v", state)
	}
	if active, ok := record["active"]; ok && active != nil {
		return fmt.Sprintf("active=%v", active)
	}
	return "<unknown>"
}

// WaitFor is the fixed-interval poll loop behind every wait operation: record
// state checks (WaitCondition), series counts, gate file arrivals, cleaner
// availability. It owns the timeout bound, the cadence and the TimeoutError
// construction, so callers only describe how to fetch and evaluate.
//
// pollFn runs once per cycle with a deadline-bound context and returns the
// fetched result, whether the condition is met, a short human-readable state
// for timeout diagnostics (empty keeps the previous one), and an error.
// Errors abort the wait, with two exceptions resolved here: a cancelled parent
// context surfaces as a cancellation, and a deadline expiring mid-request
// surfaces as a *TimeoutError rather than a transport error.
//
// On deadline the returned *TimeoutError carries the resource path, the
// condition description, the elapsed time and the last observed state.
func WaitFor[T any](
	ctx context.Context,
	resource, condition string,
	waitConfig *WaitConfig,
	pollFn func(context.Context) (T, bool, string, error),
) (T, error) {
	var zero T
	if waitConfig == nil {
		waitConfig = &WaitConfig{}
	}
	waitConfig.normalize()

	if ctx == nil {
		ctx = context.Background()
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, waitConfig.Timeout)
	defer cancel()

	started := time.Now()
	lastState := "<unknown>"
	timedOut := func() (T, error) {
		return zero, &TimeoutError{
			Resource:  resource,
			Condition: condition,
			Elapsed:   time.Since(started),
			LastState: lastState,
		}
	}

	for {
		if timeoutCtx.Err() != nil {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("wait cancelled: %w", ctx.Err())
			}
			return timedOut()
		}

		result, completed, state, err := pollFn(timeoutCtx)
		if state != "" {
			lastState = state
		}
		if err != nil {
			if ctx.Err() != nil {
				return zero, fmt.Errorf("wait cancelled: %w", ctx.Err())
			}
			if timeoutCtx.Err() != nil {
				return timedOut()
			}
			return zero, err
		}
		if completed {
			return result, nil
		}

		select {
		case <-timeoutCtx.Done():
			if ctx.Err() != nil {
				return zero, fmt.Errorf("wait cancelled: %w", ctx.Err())
			}
			return timedOut()
		case <-time.After(waitConfig.Interval):
		}
	}
}

// WaitCondition polls an API endpoint until a condition on its record is met
// or the timeout elapses. It is the single-record mode of WaitFor.
//
// Parameters:
//   - ctx: The context for the operation (can be used for cancellation)
//   - caller: The resource API to poll (must support GetByIdWithContext or GetWithContext)
//   - searchParams: Parameters to identify the resource (if contains "id", uses GetById, otherwise Get)
//   - waitConfig: Timeout and interval settings (nil uses defaults)
//   - verifyFn: Function that checks if the condition is met. Returns (true, nil) when complete,
//     (false, nil) to continue polling, or (false, error) to abort with error.
//
// Returns:
//   - Record: The final record when the condition is met
//   - error: A *TimeoutError when the deadline passes, carrying the elapsed time and the
//     last observed resource state. Verification and API errors are returned as-is.
func WaitCondition(
	ctx context.Context,
	caller OvbpResourceAPIWithContext,
	searchParams Params,
	waitConfig *WaitConfig,
	verifyFn func(Record) (bool, error),
) (Record, error) {
	return WaitFor(ctx, caller.GetResourcePath(), searchParams.ToQuery(), waitConfig,
		func(pollCtx context.Context) (Record, bool, string, error) {
			var (
				record Record
				err    error
			)
			// Use GetById if "id" parameter is present, otherwise use Get with search params
			if id, ok := searchParams["id"]; ok {
				record, err = caller.GetByIdWithContext(pollCtx, id)
			} else {
				record, err = caller.GetWithContext(pollCtx, searchParams)
			}
			if err != nil {
				return nil, false, "", fmt.Errorf("WaitCondition API call failed: %w", err)
			}
			completed, err := verifyFn(record)
			if err != nil {
				return nil, false, stateFromRecord(record), fmt.Errorf("WaitCondition verification failed: %w", err)
			}
			return record, completed, stateFromRecord(record), nil
		})
}
