package ctxutil

import (
	"context"
	"testing"
)

func TestRequestDataRoundTrip(t *testing.T) {
	ctx := WithRequestData(context.Background(), &RequestData{UserID: "  u-1 "})
	if got := UserID(ctx); got != "u-1" {
		t.Fatalf("UserID: want=u-1 got=%q", got)
	}
	if got := UserID(context.Background()); got != "" {
		t.Fatalf("UserID without data: want empty got=%q", got)
	}
}

func TestTraceDataRoundTrip(t *testing.T) {
	ctx := WithTraceData(context.Background(), &TraceData{TraceID: "t", RequestID: "r"})
	td := GetTraceData(ctx)
	if td == nil || td.TraceID != "t" || td.RequestID != "r" {
		t.Fatalf("unexpected trace data: %+v", td)
	}
	if GetTraceData(context.Background()) != nil {
		t.Fatalf("expected nil trace data")
	}
}
