// Package respond drafts replies for open crawler-sourced tickets and
// runs the sequential batch loop that paces them.
package respond

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ItemResult records the outcome of one item in a batch run.
type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchReport summarizes a sequential batch run. Success is true only
// when every item succeeded.
type BatchReport struct {
	Success      bool         `json:"success"`
	Results      []ItemResult `json:"results"`
	SuccessCount int          `json:"successCount"`
	FailCount    int          `json:"failCount"`
}

// Action processes a single item in a batch run.
type Action func(ctx context.Context, id string) error

// RunSequential applies action to each id strictly in order, waiting the
// fixed delay after every item regardless of its outcome. A panic or
// error in one item is recorded against that item only; the run
// continues. Context cancellation stops the run early, leaving the
// remaining ids unprocessed and unrecorded.
func RunSequential(ctx context.Context, ids []string, delay time.Duration, action Action) BatchReport {
	report := BatchReport{Results: make([]ItemResult, 0, len(ids))}

	var limiter *rate.Limiter
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
		// Drain the initial burst token so the first wait is a full delay.
		limiter.Allow()
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		result := ItemResult{ID: id, Success: true}
		if err := runOne(ctx, id, action); err != nil {
			result.Success = false
			result.Error = err.Error()
			report.FailCount++
		} else {
			report.SuccessCount++
		}
		report.Results = append(report.Results, result)

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
	}

	report.Success = report.FailCount == 0 && len(report.Results) == len(ids)
	return report
}

func runOne(ctx context.Context, id string, action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch item panicked",
				zap.String("id", id),
				zap.Any("panic", r),
			)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx, id)
}
