package testutil

import (
	"context"
	"sync"

	"github.com/yungbote/neurobridge-lessons/internal/data/aggregates"
	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
)

// InjectedTxRunner is a test helper for aggregate integration tests.
// It supports rollback/failure injection; with Gateway set, successful bodies
// are committed through it.
type InjectedTxRunner struct {
	mu sync.Mutex

	Gateway kv.Gateway

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int

	// Committed holds the ops of every committed transaction, in order.
	Committed [][]kv.TxOp
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(tx *aggregates.Tx) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	gw := r.Gateway
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.rollback()
		return failBeforeBody
	}
	tx := aggregates.NewTx(ctx)
	if fn != nil {
		if err := fn(tx); err != nil {
			r.rollback()
			return err
		}
	}
	if failCommit != nil {
		r.rollback()
		return failCommit
	}
	ops := tx.Ops()
	if gw != nil && len(ops) > 0 {
		if err := gw.TransactWrite(ctx, ops); err != nil {
			r.rollback()
			return aggregates.RequireCASSuccess(err, "injected commit guard did not hold")
		}
	}
	r.mu.Lock()
	r.CommitCalls++
	r.Committed = append(r.Committed, ops)
	r.mu.Unlock()
	return nil
}

func (r *InjectedTxRunner) rollback() {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
}
