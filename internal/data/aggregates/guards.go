package aggregates

import (
	"errors"
	"strings"

	"github.com/yungbote/neurobridge-lessons/internal/data/kv"
)

const defaultVersionAttr = "version"

// CASGuard builds optimistic-lock conditions on a version attribute.
type CASGuard struct {
	attr string
}

func NewCASGuard() CASGuard {
	return CASGuard{attr: defaultVersionAttr}
}

func (g CASGuard) Attr() string {
	if strings.TrimSpace(g.attr) == "" {
		return defaultVersionAttr
	}
	return g.attr
}

// ExpectVersion guards a write on the stored version. Rows written before
// versioning read as version 0, so 0 also accepts a missing attribute.
func (g CASGuard) ExpectVersion(version int64) *kv.Condition {
	return &kv.Condition{Attr: g.Attr(), Equals: version, OrMissing: version == 0}
}

func (g CASGuard) NextVersion(version int64) int64 {
	if version < 0 {
		return 1
	}
	return version + 1
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(err error, message string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kv.ErrConditionFailed) {
		return errors.Join(ConflictError(strings.TrimSpace(message)), err)
	}
	return err
}
