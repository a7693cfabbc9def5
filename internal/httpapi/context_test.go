package httpapi

import (
	"context"
	"testing"
	"time"
)

func TestJoinContexts_BaseCancels(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(base, context.Background())
	defer cancel()
	cancelBase()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not cancelled by base")
	}
}

func TestJoinContexts_RequestCancels(t *testing.T) {
	req, cancelReq := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(context.Background(), req)
	defer cancel()
	cancelReq()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatalf("joined context not cancelled by request")
	}
}

func TestJoinContexts_CancelReleases(t *testing.T) {
	ctx, cancel := joinContexts(context.Background(), context.Background())
	cancel()
	if ctx.Err() == nil {
		t.Fatalf("cancel should end the joined context")
	}
}

func TestSetBaseContext_NilResets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	SetBaseContext(ctx)
	SetBaseContext(nil)
	cancel()
	if serverBaseCtx.Err() != nil {
		t.Fatalf("nil should restore Background")
	}
}
