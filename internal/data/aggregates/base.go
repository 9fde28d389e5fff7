package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	domainagg "github.com/yungbote/neurobridge-lessons/internal/domain/aggregates"
	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type BaseDeps struct {
	Gateway  kv.Gateway
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewKVTxRunner(d.Gateway)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.attr == "" {
		d.CASGuard = NewCASGuard()
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// executeCASWrite runs fn in a fresh transaction until it commits, fails with
// anything but a conflict, or maxAttempts is reached. fn must redo its reads
// on every attempt. It returns the number of attempts made.
func executeCASWrite(ctx context.Context, deps BaseDeps, op string, maxAttempts int, fn func(tx *Tx, attempt int) error) (int, error) {
	start := time.Now()
	deps = deps.withDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		mapped  error
		attempt int
	)
	for attempt = 1; ; attempt++ {
		n := attempt
		err := deps.Runner.InTx(ctx, func(tx *Tx) error { return fn(tx, n) })
		mapped = MapError(op, err)
		if !domainagg.IsCode(mapped, domainagg.CodeConflict) || attempt >= maxAttempts {
			break
		}
		if ctx.Err() != nil {
			mapped = MapError(op, ctx.Err())
			break
		}
		deps.Hooks.IncRetry(op)
		deps.Log.Debug("aggregate write conflict, retrying", "op", op, "attempt", attempt)
	}

	status := "success"
	if mapped != nil {
		status = aggregateErrorStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.IsCode(mapped, domainagg.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return attempt, mapped
}

func aggregateErrorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		code = strings.TrimSpace(string(domainagg.CodeOf(MapError("aggregate.status", err))))
	}
	if code == "" {
		return "failure"
	}
	return code
}
