package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

// ItemRow is the single-table layout used on SQL engines.
type ItemRow struct {
	PK        string         `gorm:"column:pk;primaryKey;size:512"`
	SK        string         `gorm:"column:sk;primaryKey;size:512"`
	GSI1PK    string         `gorm:"column:gsi1pk;size:512;index:idx_kv_item_gsi1,priority:1"`
	GSI1SK    string         `gorm:"column:gsi1sk;size:512;index:idx_kv_item_gsi1,priority:2"`
	Attrs     datatypes.JSON `gorm:"column:attrs"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (ItemRow) TableName() string { return "kv_item" }

type gormGateway struct {
	db   *gorm.DB
	log  *logger.Logger
	opts Options
}

// NewGormGateway serves the gateway contract from the kv_item table. The
// table must exist (see data/db.AutoMigrate).
func NewGormGateway(db *gorm.DB, log *logger.Logger, opts Options) Gateway {
	return &gormGateway{db: db, log: log.With("repo", "KVGormGateway"), opts: opts}
}

func (g *gormGateway) GetItem(ctx context.Context, key Key) (*Item, error) {
	if !key.valid() {
		return nil, fmt.Errorf("%w: missing key", ErrInvalidRequest)
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	var row ItemRow
	err := g.db.WithContext(ctx).
		Where("pk = ? AND sk = ?", key.PK, key.SK).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classifySQLError(err)
	}
	return rowToItem(row)
}

func (g *gormGateway) PutItem(ctx context.Context, item Item, cond *Condition) error {
	if !item.Key.valid() {
		return fmt.Errorf("%w: missing key", ErrInvalidRequest)
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	if cond == nil {
		return classifySQLError(g.upsert(g.db.WithContext(ctx), item))
	}
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return g.applyPut(tx, Put{Item: item, Cond: cond})
	})
	return classifySQLError(err)
}

func (g *gormGateway) QueryItems(ctx context.Context, q Query) ([]Item, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	pkCol, skCol := "pk", "sk"
	if q.Index == IndexGSI1 {
		pkCol, skCol = "gsi1pk", "gsi1sk"
	}
	tx := g.db.WithContext(ctx).Model(&ItemRow{}).Where(pkCol+" = ?", q.PK)
	if q.SKPrefix != "" {
		// substr instead of LIKE: SQLite's LIKE is case-insensitive and both
		// engines would need wildcard escaping.
		tx = tx.Where(fmt.Sprintf("substr(%s, 1, ?) = ?", skCol), utf8.RuneCountInString(q.SKPrefix), q.SKPrefix)
	}
	dir := "ASC"
	if !q.Forward {
		dir = "DESC"
	}
	orderCol := skCol
	if g.db.Dialector != nil && g.db.Dialector.Name() == "postgres" {
		orderCol = skCol + ` COLLATE "C"`
	}
	tx = tx.Order(orderCol + " " + dir)
	if q.Limit > 0 && len(q.Filter) == 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []ItemRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, classifySQLError(err)
	}
	out := make([]Item, 0, len(rows))
	for _, row := range rows {
		it, err := rowToItem(row)
		if err != nil {
			return nil, err
		}
		if !matchesFilter(it.Attrs, q.Filter) {
			continue
		}
		out = append(out, *it)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func (g *gormGateway) TransactWrite(ctx context.Context, ops []TxOp) error {
	if err := validateTx(ops); err != nil {
		return err
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range ops {
			var err error
			if op.Put != nil {
				err = g.applyPut(tx, *op.Put)
			} else {
				err = g.applyUpdate(tx, *op.Update)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrConditionFailed) {
		g.log.Warn("kv transaction failed", "items", len(ops), "error", err)
	}
	return classifySQLError(err)
}

func (g *gormGateway) applyPut(tx *gorm.DB, p Put) error {
	if p.Cond != nil {
		current, err := lockRow(tx, p.Item.Key)
		if err != nil {
			return err
		}
		if !conditionHolds(attrsOf(current), p.Cond) {
			return fmt.Errorf("%w: put %s (%s)", ErrConditionFailed, p.Item.Key, p.Cond)
		}
	}
	return g.upsert(tx, p.Item)
}

func (g *gormGateway) applyUpdate(tx *gorm.DB, u Update) error {
	current, err := lockRow(tx, u.Key)
	if err != nil {
		return err
	}
	if !conditionHolds(attrsOf(current), u.Cond) {
		return fmt.Errorf("%w: update %s (%s)", ErrConditionFailed, u.Key, u.Cond)
	}
	next := Item{Key: u.Key, Attrs: mergeAttrs(attrsOf(current), u.Set)}
	if current != nil {
		next.GSI1 = current.GSI1
	}
	if u.GSI1 != nil {
		next.GSI1 = *u.GSI1
	}
	return g.upsert(tx, next)
}

func (g *gormGateway) upsert(tx *gorm.DB, item Item) error {
	attrs := item.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("kv marshal attrs: %w", err)
	}
	row := ItemRow{
		PK:        item.PK,
		SK:        item.SK,
		GSI1PK:    item.GSI1.PK,
		GSI1SK:    item.GSI1.SK,
		Attrs:     datatypes.JSON(raw),
		UpdatedAt: time.Now().UTC(),
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "pk"}, {Name: "sk"}},
		DoUpdates: clause.AssignmentColumns([]string{"gsi1pk", "gsi1sk", "attrs", "updated_at"}),
	}).Create(&row).Error
}

// lockRow reads the row for update inside tx; nil when absent.
func lockRow(tx *gorm.DB, key Key) (*Item, error) {
	var row ItemRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("pk = ? AND sk = ?", key.PK, key.SK).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rowToItem(row)
}

func attrsOf(it *Item) map[string]any {
	if it == nil {
		return nil
	}
	return it.Attrs
}

func rowToItem(row ItemRow) (*Item, error) {
	attrs := map[string]any{}
	if len(row.Attrs) > 0 {
		if err := json.Unmarshal(row.Attrs, &attrs); err != nil {
			return nil, fmt.Errorf("kv unmarshal attrs %s|%s: %w", row.PK, row.SK, err)
		}
	}
	return &Item{
		Key:   Key{PK: row.PK, SK: row.SK},
		GSI1:  IndexKeys{PK: row.GSI1PK, SK: row.GSI1SK},
		Attrs: attrs,
	}, nil
}

// classifySQLError folds engine-specific races into ErrConditionFailed.
func classifySQLError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation: a concurrent insert won
			return fmt.Errorf("%w: %v", ErrConditionFailed, err)
		}
	}
	return err
}
