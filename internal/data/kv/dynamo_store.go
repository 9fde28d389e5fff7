package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"
)

// DynamoClient is the subset of the DynamoDB API the gateway uses.
type DynamoClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

var _ DynamoClient = (*dynamodb.Client)(nil)

type dynamoGateway struct {
	client DynamoClient
	table  string
	log    *logger.Logger
	opts   Options
}

// NewDynamoGateway serves the gateway contract from one DynamoDB table keyed
// by PK/SK with a GSI1 (GSI1PK/GSI1SK) index.
func NewDynamoGateway(client DynamoClient, table string, log *logger.Logger, opts Options) (Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamo client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("dynamo table name required")
	}
	return &dynamoGateway{
		client: client,
		table:  strings.TrimSpace(table),
		log:    log.With("repo", "KVDynamoGateway"),
		opts:   opts,
	}, nil
}

func (g *dynamoGateway) GetItem(ctx context.Context, key Key) (*Item, error) {
	if !key.valid() {
		return nil, fmt.Errorf("%w: missing key", ErrInvalidRequest)
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	out, err := g.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(g.table),
		Key:       keyAV(key),
	})
	if err != nil {
		return nil, classifyDynamoError(err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return avToItem(out.Item)
}

func (g *dynamoGateway) PutItem(ctx context.Context, item Item, cond *Condition) error {
	if !item.Key.valid() {
		return fmt.Errorf("%w: missing key", ErrInvalidRequest)
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	av, err := itemToAV(item)
	if err != nil {
		return err
	}
	in := &dynamodb.PutItemInput{TableName: aws.String(g.table), Item: av}
	if cond != nil {
		expr, names, values, err := conditionExpr(cond)
		if err != nil {
			return err
		}
		in.ConditionExpression = aws.String(expr)
		in.ExpressionAttributeNames = names
		in.ExpressionAttributeValues = values
	}
	_, err = g.client.PutItem(ctx, in)
	return classifyDynamoError(err)
}

func (g *dynamoGateway) QueryItems(ctx context.Context, q Query) ([]Item, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	pkName, skName := attrPK, attrSK
	if q.Index == IndexGSI1 {
		pkName, skName = attrGSI1PK, attrGSI1SK
	}
	names := map[string]string{"#pk": pkName}
	values := map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: q.PK}}
	keyCond := "#pk = :pk"
	if q.SKPrefix != "" {
		names["#sk"] = skName
		values[":skp"] = &types.AttributeValueMemberS{Value: q.SKPrefix}
		keyCond += " AND begins_with(#sk, :skp)"
	}

	in := &dynamodb.QueryInput{
		TableName:              aws.String(g.table),
		KeyConditionExpression: aws.String(keyCond),
		ScanIndexForward:       aws.Bool(q.Forward),
	}
	if q.Index != "" {
		in.IndexName = aws.String(q.Index)
	}
	if len(q.Filter) > 0 {
		filter, err := filterExpr(q.Filter, names, values)
		if err != nil {
			return nil, err
		}
		in.FilterExpression = aws.String(filter)
	} else if q.Limit > 0 {
		// Dynamo applies Limit before FilterExpression, so only push it down
		// when there is no filter.
		in.Limit = aws.Int32(int32(q.Limit))
	}
	in.ExpressionAttributeNames = names
	in.ExpressionAttributeValues = values

	var out []Item
	for {
		page, err := g.client.Query(ctx, in)
		if err != nil {
			return nil, classifyDynamoError(err)
		}
		for _, raw := range page.Items {
			it, err := avToItem(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, *it)
			if q.Limit > 0 && len(out) >= q.Limit {
				return out, nil
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			return out, nil
		}
		in.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

func (g *dynamoGateway) TransactWrite(ctx context.Context, ops []TxOp) error {
	if err := validateTx(ops); err != nil {
		return err
	}
	ctx, cancel := g.opts.withTimeout(ctx)
	defer cancel()

	items := make([]types.TransactWriteItem, 0, len(ops))
	for _, op := range ops {
		twi, err := g.transactItem(op)
		if err != nil {
			return err
		}
		items = append(items, twi)
	}
	_, err := g.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	if err != nil {
		mapped := classifyDynamoError(err)
		if !errors.Is(mapped, ErrConditionFailed) {
			g.log.Warn("dynamo transaction failed", "items", len(ops), "error", err)
		}
		return mapped
	}
	return nil
}

func (g *dynamoGateway) transactItem(op TxOp) (types.TransactWriteItem, error) {
	if op.Put != nil {
		av, err := itemToAV(op.Put.Item)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		put := &types.Put{TableName: aws.String(g.table), Item: av}
		if op.Put.Cond != nil {
			expr, names, values, err := conditionExpr(op.Put.Cond)
			if err != nil {
				return types.TransactWriteItem{}, err
			}
			put.ConditionExpression = aws.String(expr)
			put.ExpressionAttributeNames = names
			put.ExpressionAttributeValues = values
		}
		return types.TransactWriteItem{Put: put}, nil
	}

	u := op.Update
	set := make(map[string]any, len(u.Set)+2)
	for k, v := range u.Set {
		set[k] = v
	}
	if u.GSI1 != nil {
		set[attrGSI1PK] = u.GSI1.PK
		set[attrGSI1SK] = u.GSI1.SK
	}
	if len(set) == 0 {
		return types.TransactWriteItem{}, fmt.Errorf("%w: update %s sets nothing", ErrInvalidRequest, u.Key)
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	clauses := make([]string, 0, len(keys))
	for i, k := range keys {
		av, err := attributevalue.Marshal(set[k])
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("kv marshal %s: %w", k, err)
		}
		n, v := fmt.Sprintf("#u%d", i), fmt.Sprintf(":u%d", i)
		names[n] = k
		values[v] = av
		clauses = append(clauses, n+" = "+v)
	}
	update := &types.Update{
		TableName:        aws.String(g.table),
		Key:              keyAV(u.Key),
		UpdateExpression: aws.String("SET " + strings.Join(clauses, ", ")),
	}
	if u.Cond != nil {
		expr, cn, cv, err := conditionExpr(u.Cond)
		if err != nil {
			return types.TransactWriteItem{}, err
		}
		for k, v := range cn {
			names[k] = v
		}
		for k, v := range cv {
			values[k] = v
		}
		update.ConditionExpression = aws.String(expr)
	}
	update.ExpressionAttributeNames = names
	update.ExpressionAttributeValues = values
	return types.TransactWriteItem{Update: update}, nil
}

func keyAV(k Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: k.PK},
		attrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}

func itemToAV(it Item) (map[string]types.AttributeValue, error) {
	attrs := it.Attrs
	if attrs == nil {
		attrs = map[string]any{}
	}
	av, err := attributevalue.MarshalMap(attrs)
	if err != nil {
		return nil, fmt.Errorf("kv marshal item %s: %w", it.Key, err)
	}
	av[attrPK] = &types.AttributeValueMemberS{Value: it.PK}
	av[attrSK] = &types.AttributeValueMemberS{Value: it.SK}
	// sparse index: only indexed items carry GSI1 keys
	if it.GSI1.PK != "" {
		av[attrGSI1PK] = &types.AttributeValueMemberS{Value: it.GSI1.PK}
		av[attrGSI1SK] = &types.AttributeValueMemberS{Value: it.GSI1.SK}
	}
	return av, nil
}

func avToItem(av map[string]types.AttributeValue) (*Item, error) {
	attrs := map[string]any{}
	if err := attributevalue.UnmarshalMap(av, &attrs); err != nil {
		return nil, fmt.Errorf("kv unmarshal item: %w", err)
	}
	it := &Item{
		Key: Key{PK: stringAttr(attrs, attrPK), SK: stringAttr(attrs, attrSK)},
		GSI1: IndexKeys{
			PK: stringAttr(attrs, attrGSI1PK),
			SK: stringAttr(attrs, attrGSI1SK),
		},
	}
	for _, k := range []string{attrPK, attrSK, attrGSI1PK, attrGSI1SK} {
		delete(attrs, k)
	}
	it.Attrs = attrs
	return it, nil
}

func stringAttr(attrs map[string]any, k string) string {
	s, _ := attrs[k].(string)
	return s
}

func conditionExpr(c *Condition) (string, map[string]string, map[string]types.AttributeValue, error) {
	if strings.TrimSpace(c.Attr) == "" {
		return "", nil, nil, fmt.Errorf("%w: condition without attribute", ErrInvalidRequest)
	}
	names := map[string]string{"#c": c.Attr}
	if c.Equals == nil {
		return "attribute_not_exists(#c)", names, nil, nil
	}
	av, err := attributevalue.Marshal(c.Equals)
	if err != nil {
		return "", nil, nil, fmt.Errorf("kv marshal condition: %w", err)
	}
	values := map[string]types.AttributeValue{":c": av}
	if c.OrMissing {
		return "(#c = :c OR attribute_not_exists(#c))", names, values, nil
	}
	return "#c = :c", names, values, nil
}

func filterExpr(filter map[string]any, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for i, k := range keys {
		av, err := attributevalue.Marshal(filter[k])
		if err != nil {
			return "", fmt.Errorf("kv marshal filter %s: %w", k, err)
		}
		n, v := fmt.Sprintf("#f%d", i), fmt.Sprintf(":f%d", i)
		names[n] = k
		values[v] = av
		parts = append(parts, n+" = "+v)
	}
	return strings.Join(parts, " AND "), nil
}

func classifyDynamoError(err error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("%w: %v", ErrConditionFailed, err)
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, r := range tce.CancellationReasons {
			if aws.ToString(r.Code) == "ConditionalCheckFailed" {
				return fmt.Errorf("%w: %v", ErrConditionFailed, err)
			}
		}
	}
	return err
}
