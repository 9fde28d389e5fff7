package aggregates

import (
	"errors"
	"testing"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
)

func TestCASGuard_ExpectVersion(t *testing.T) {
	g := NewCASGuard()
	c := g.ExpectVersion(0)
	if c.Attr != "version" || !c.OrMissing {
		t.Fatalf("version 0 must accept a missing attribute: %+v", c)
	}
	c = g.ExpectVersion(4)
	if c.OrMissing || c.Equals != int64(4) {
		t.Fatalf("version 4: %+v", c)
	}
	if got := g.NextVersion(4); got != 5 {
		t.Fatalf("next: want=5 got=%d", got)
	}
	if got := (CASGuard{}).Attr(); got != "version" {
		t.Fatalf("zero guard attr: got=%s", got)
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(nil, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := RequireCASSuccess(kv.ErrConditionFailed, "stale")
	if !errors.Is(err, ErrConflict) || !errors.Is(err, kv.ErrConditionFailed) {
		t.Fatalf("expected conflict error wrapping condition failure, got %v", err)
	}
	plain := errors.New("io")
	if err := RequireCASSuccess(plain, "x"); err != plain {
		t.Fatalf("non-CAS errors pass through, got %v", err)
	}
}
