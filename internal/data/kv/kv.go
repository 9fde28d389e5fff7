package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// IndexGSI1 is the single secondary index every gateway exposes.
const IndexGSI1 = "GSI1"

// MaxTxItems bounds TransactWrite, matching the classic DynamoDB limit.
const MaxTxItems = 25

var (
	// ErrConditionFailed is returned when a conditional write's guard did not hold.
	ErrConditionFailed = errors.New("kv: condition failed")
	// ErrInvalidRequest flags a malformed gateway call (missing keys, empty tx...).
	ErrInvalidRequest = errors.New("kv: invalid request")
)

type Key struct {
	PK string
	SK string
}

func (k Key) String() string { return k.PK + "|" + k.SK }

func (k Key) valid() bool {
	return strings.TrimSpace(k.PK) != "" && strings.TrimSpace(k.SK) != ""
}

// IndexKeys place an item in GSI1. Items with empty index keys are not indexed.
type IndexKeys struct {
	PK string
	SK string
}

type Item struct {
	Key
	GSI1  IndexKeys
	Attrs map[string]any
}

// Query selects items of one partition whose sort key starts with SKPrefix.
// With Index set, PK/SKPrefix address the index keys instead.
//
// Filter is an equality match on attributes evaluated after the key condition;
// Limit counts items after filtering.
type Query struct {
	Index    string
	PK       string
	SKPrefix string
	Filter   map[string]any
	Limit    int
	Forward  bool
}

// Condition guards a write on the stored value of one attribute. A nil Equals
// requires the attribute to be absent. OrMissing also accepts an absent
// attribute (or absent item) when Equals is set.
type Condition struct {
	Attr      string
	Equals    any
	OrMissing bool
}

func (c *Condition) String() string {
	if c == nil {
		return "<none>"
	}
	if c.Equals == nil {
		return fmt.Sprintf("attribute_not_exists(%s)", c.Attr)
	}
	if c.OrMissing {
		return fmt.Sprintf("%s = %v OR attribute_not_exists(%s)", c.Attr, c.Equals, c.Attr)
	}
	return fmt.Sprintf("%s = %v", c.Attr, c.Equals)
}

type Put struct {
	Item Item
	Cond *Condition
}

// Update merges Set into the stored attributes, creating the item if needed.
type Update struct {
	Key  Key
	Set  map[string]any
	GSI1 *IndexKeys
	Cond *Condition
}

// TxOp is exactly one of Put or Update.
type TxOp struct {
	Put    *Put
	Update *Update
}

func (op TxOp) key() (Key, error) {
	switch {
	case op.Put != nil && op.Update == nil:
		return op.Put.Item.Key, nil
	case op.Update != nil && op.Put == nil:
		return op.Update.Key, nil
	default:
		return Key{}, fmt.Errorf("%w: tx op must set exactly one of Put or Update", ErrInvalidRequest)
	}
}

// Gateway is the storage contract the repositories are written against.
type Gateway interface {
	// GetItem returns nil, nil when the item does not exist.
	GetItem(ctx context.Context, key Key) (*Item, error)
	// PutItem overwrites the whole item.
	PutItem(ctx context.Context, item Item, cond *Condition) error
	QueryItems(ctx context.Context, q Query) ([]Item, error)
	// TransactWrite applies all ops or none.
	TransactWrite(ctx context.Context, ops []TxOp) error
}

// Options are shared by every gateway implementation.
type Options struct {
	// Timeout bounds each storage call. Zero means no extra bound.
	Timeout time.Duration
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if o.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.Timeout)
}

func validateTx(ops []TxOp) error {
	if len(ops) == 0 {
		return fmt.Errorf("%w: empty transaction", ErrInvalidRequest)
	}
	if len(ops) > MaxTxItems {
		return fmt.Errorf("%w: transaction has %d items (max %d)", ErrInvalidRequest, len(ops), MaxTxItems)
	}
	seen := make(map[Key]struct{}, len(ops))
	for _, op := range ops {
		k, err := op.key()
		if err != nil {
			return err
		}
		if !k.valid() {
			return fmt.Errorf("%w: missing key", ErrInvalidRequest)
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: key %s appears twice in one transaction", ErrInvalidRequest, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

func validateQuery(q Query) error {
	if strings.TrimSpace(q.PK) == "" {
		return fmt.Errorf("%w: query needs a partition key", ErrInvalidRequest)
	}
	if q.Index != "" && q.Index != IndexGSI1 {
		return fmt.Errorf("%w: unknown index %q", ErrInvalidRequest, q.Index)
	}
	return nil
}
