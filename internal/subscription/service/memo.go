package service

import (
	"context"
	"sync"
)

type syncMemoKey struct{}

type syncMemo struct {
	mu     sync.Mutex
	synced map[string]struct{}
}

// WithSyncMemo scopes ctx so FindSubscriptionsAndSyncIfNeeded reconciles each
// organization at most once for every call made with the returned context.
// Without it the bound is one reconcile per call.
func WithSyncMemo(ctx context.Context) context.Context {
	if _, ok := ctx.Value(syncMemoKey{}).(*syncMemo); ok {
		return ctx
	}
	return context.WithValue(ctx, syncMemoKey{}, &syncMemo{synced: map[string]struct{}{}})
}

// claim reports whether identity still needs a sync in ctx and records it.
func claim(ctx context.Context, identity string) bool {
	memo, ok := ctx.Value(syncMemoKey{}).(*syncMemo)
	if !ok {
		return true
	}
	memo.mu.Lock()
	defer memo.mu.Unlock()
	if _, done := memo.synced[identity]; done {
		return false
	}
	memo.synced[identity] = struct{}{}
	return true
}
