package aggregates

import (
	"context"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
	domainagg "github.com/yungbote/neurobridge-lessons/internal/domain/aggregates"
)

// Tx collects the writes of one aggregate operation. Reads go straight to the
// repos with Ctx; the runner commits the collected writes all or none.
type Tx struct {
	Ctx context.Context
	ops []kv.TxOp
}

func NewTx(ctx context.Context) *Tx {
	return &Tx{Ctx: ctx}
}

func (t *Tx) Add(ops ...kv.TxOp) { t.ops = append(t.ops, ops...) }

func (t *Tx) Ops() []kv.TxOp { return append([]kv.TxOp(nil), t.ops...) }

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *Tx) error) error
}

type kvTxRunner struct {
	gw kv.Gateway
}

// NewKVTxRunner returns a runner that commits through one gateway transaction.
func NewKVTxRunner(gw kv.Gateway) TxRunner {
	return &kvTxRunner{gw: gw}
}

func (r *kvTxRunner) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.gw == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil gateway", nil)
	}
	tx := NewTx(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.ops) == 0 {
		return nil
	}
	return RequireCASSuccess(r.gw.TransactWrite(ctx, tx.ops), "transaction guard did not hold")
}
