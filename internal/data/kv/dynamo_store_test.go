package kv

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yungbote/neurobridge-lessons/internal/platform/logger"
)

type fakeDynamo struct {
	getOut  *dynamodb.GetItemOutput
	putIn   *dynamodb.PutItemInput
	putErr  error
	queryIn []*dynamodb.QueryInput
	pages   []*dynamodb.QueryOutput
	txIn    *dynamodb.TransactWriteItemsInput
	txErr   error
}

func (f *fakeDynamo) GetItem(_ context.Context, _ *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putIn = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	cp := *in
	f.queryIn = append(f.queryIn, &cp)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.txIn = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func newDynamoForTest(t *testing.T, f *fakeDynamo) Gateway {
	t.Helper()
	gw, err := NewDynamoGateway(f, "courses", logger.NewNop(), Options{})
	if err != nil {
		t.Fatalf("NewDynamoGateway: %v", err)
	}
	return gw
}

func sAV(s string) types.AttributeValue { return &types.AttributeValueMemberS{Value: s} }

func TestNewDynamoGateway_RequiresTable(t *testing.T) {
	if _, err := NewDynamoGateway(&fakeDynamo{}, " ", logger.NewNop(), Options{}); err == nil {
		t.Fatalf("expected error for blank table")
	}
}

func TestDynamoGateway_GetItemSplitsKeys(t *testing.T) {
	f := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"PK":      sAV("UC#u#c"),
		"SK":      sAV("COURSE#METADATA"),
		"GSI1PK":  sAV("USER#u"),
		"GSI1SK":  sAV("STATUS#active#t"),
		"status":  sAV("active"),
		"version": &types.AttributeValueMemberN{Value: "2"},
	}}}
	gw := newDynamoForTest(t, f)
	it, err := gw.GetItem(context.Background(), Key{PK: "UC#u#c", SK: "COURSE#METADATA"})
	if err != nil || it == nil {
		t.Fatalf("GetItem: item=%v err=%v", it, err)
	}
	if it.GSI1.PK != "USER#u" || it.SK != "COURSE#METADATA" {
		t.Fatalf("keys: got %+v", it)
	}
	if _, ok := it.Attrs["PK"]; ok {
		t.Fatalf("key attributes must not leak into Attrs: %+v", it.Attrs)
	}
	if it.Attrs["version"] != float64(2) {
		t.Fatalf("version: want=2 got=%v (%T)", it.Attrs["version"], it.Attrs["version"])
	}
}

func TestDynamoGateway_GetItemAbsent(t *testing.T) {
	gw := newDynamoForTest(t, &fakeDynamo{})
	it, err := gw.GetItem(context.Background(), Key{PK: "a", SK: "b"})
	if err != nil || it != nil {
		t.Fatalf("absent: want nil,nil got %v,%v", it, err)
	}
}

func TestDynamoGateway_PutItemOmitsEmptyIndexAndMapsCondition(t *testing.T) {
	f := &fakeDynamo{putErr: &types.ConditionalCheckFailedException{Message: aws.String("nope")}}
	gw := newDynamoForTest(t, f)
	err := gw.PutItem(context.Background(), Item{Key: Key{PK: "a", SK: "b"}, Attrs: map[string]any{"x": "y"}}, &Condition{Attr: "x"})
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("want ErrConditionFailed got %v", err)
	}
	if _, ok := f.putIn.Item["GSI1PK"]; ok {
		t.Fatalf("unindexed item must not carry GSI1PK")
	}
	if got := aws.ToString(f.putIn.ConditionExpression); got != "attribute_not_exists(#c)" {
		t.Fatalf("condition: got %q", got)
	}
}

func TestDynamoGateway_QueryPaginatesUntilLimitWithFilter(t *testing.T) {
	f := &fakeDynamo{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{{"PK": sAV("LESSON#a"), "SK": sAV("CONTENT"), "lessonId": sAV("a")}},
			LastEvaluatedKey: map[string]types.AttributeValue{"PK": sAV("LESSON#a")},
		},
		{
			Items: []map[string]types.AttributeValue{
				{"PK": sAV("LESSON#b"), "SK": sAV("CONTENT"), "lessonId": sAV("b")},
				{"PK": sAV("LESSON#c"), "SK": sAV("CONTENT"), "lessonId": sAV("c")},
			},
			LastEvaluatedKey: map[string]types.AttributeValue{"PK": sAV("LESSON#c")},
		},
	}}
	gw := newDynamoForTest(t, f)
	items, err := gw.QueryItems(context.Background(), Query{
		Index:    IndexGSI1,
		PK:       "COURSE#c",
		SKPrefix: "LESSON#",
		Filter:   map[string]any{"lessonId": "b"},
		Limit:    2,
		Forward:  true,
	})
	if err != nil {
		t.Fatalf("QueryItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: want=2 got=%d", len(items))
	}
	if len(f.queryIn) != 2 {
		t.Fatalf("pages requested: want=2 got=%d", len(f.queryIn))
	}
	first := f.queryIn[0]
	if aws.ToString(first.IndexName) != IndexGSI1 {
		t.Fatalf("index: got %q", aws.ToString(first.IndexName))
	}
	if first.Limit != nil {
		t.Fatalf("limit must not be pushed down with a filter")
	}
	if !strings.Contains(aws.ToString(first.KeyConditionExpression), "begins_with") {
		t.Fatalf("key condition: got %q", aws.ToString(first.KeyConditionExpression))
	}
	if first.ExpressionAttributeNames["#pk"] != "GSI1PK" {
		t.Fatalf("pk attribute: got %q", first.ExpressionAttributeNames["#pk"])
	}
	if f.queryIn[1].ExclusiveStartKey == nil {
		t.Fatalf("second page must carry ExclusiveStartKey")
	}
}

func TestDynamoGateway_TransactWriteBuildsConditionalUpdate(t *testing.T) {
	f := &fakeDynamo{}
	gw := newDynamoForTest(t, f)
	ops := []TxOp{
		{Put: &Put{Item: Item{Key: Key{PK: "UC#u#c", SK: "PROGRESS#LESSON#x"}, Attrs: map[string]any{"status": "completed"}}}},
		{Update: &Update{
			Key:  Key{PK: "UC#u#c", SK: "COURSE#METADATA"},
			Set:  map[string]any{"completedLessons": 2, "version": 3},
			GSI1: &IndexKeys{PK: "USER#u", SK: "STATUS#active#t"},
			Cond: &Condition{Attr: "version", Equals: 2, OrMissing: true},
		}},
	}
	if err := gw.TransactWrite(context.Background(), ops); err != nil {
		t.Fatalf("TransactWrite: %v", err)
	}
	if len(f.txIn.TransactItems) != 2 {
		t.Fatalf("items: want=2 got=%d", len(f.txIn.TransactItems))
	}
	u := f.txIn.TransactItems[1].Update
	if u == nil {
		t.Fatalf("second item must be an update")
	}
	expr := aws.ToString(u.UpdateExpression)
	if !strings.HasPrefix(expr, "SET ") || strings.Count(expr, "=") != 4 {
		t.Fatalf("update expression: got %q", expr)
	}
	if got := aws.ToString(u.ConditionExpression); got != "(#c = :c OR attribute_not_exists(#c))" {
		t.Fatalf("condition: got %q", got)
	}
	if u.ExpressionAttributeNames["#c"] != "version" {
		t.Fatalf("condition attr: got %q", u.ExpressionAttributeNames["#c"])
	}
}

func TestDynamoGateway_TransactionCanceledMapsToConditionFailed(t *testing.T) {
	f := &fakeDynamo{txErr: &types.TransactionCanceledException{
		Message: aws.String("cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}}
	gw := newDynamoForTest(t, f)
	err := gw.TransactWrite(context.Background(), []TxOp{
		{Update: &Update{Key: Key{PK: "a", SK: "b"}, Set: map[string]any{"v": 1}}},
	})
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("want ErrConditionFailed got %v", err)
	}

	f.txErr = errors.New("throttled")
	err = gw.TransactWrite(context.Background(), []TxOp{
		{Update: &Update{Key: Key{PK: "a", SK: "b"}, Set: map[string]any{"v": 1}}},
	})
	if err == nil || errors.Is(err, ErrConditionFailed) {
		t.Fatalf("plain failure must pass through, got %v", err)
	}
}
