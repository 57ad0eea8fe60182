package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
)

// blockingSource lets the test control when each Products call returns.
type blockingSource struct {
	calls   chan chan []json.RawMessage
	product json.RawMessage
}

func newBlockingSource() *blockingSource {
	return &blockingSource{calls: make(chan chan []json.RawMessage, 4)}
}

func (s *blockingSource) Products(ctx context.Context) ([]json.RawMessage, error) {
	reply := make(chan []json.RawMessage)
	s.calls <- reply
	select {
	case list := <-reply:
		return list, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *blockingSource) Product(ctx context.Context, id string) (json.RawMessage, error) {
	if s.product == nil {
		return nil, errors.New("no product")
	}
	return s.product, nil
}

func TestRefreshDiscardsSupersededFetch(t *testing.T) {
	src := newBlockingSource()
	cache := NewCache(src, zap.NewNop())

	oldList := []json.RawMessage{json.RawMessage(`{"id":1}`)}
	newList := []json.RawMessage{json.RawMessage(`{"id":1}`), json.RawMessage(`{"id":2}`)}

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		if _, err := cache.Refresh(context.Background()); err != nil {
			t.Errorf("first refresh: %v", err)
		}
	}()
	firstReply := <-src.calls // first fetch is now in flight

	secondDone := make(chan struct{})
	go func() {
		defer close(secondDone)
		if _, err := cache.Refresh(context.Background()); err != nil {
			t.Errorf("second refresh: %v", err)
		}
	}()
	secondReply := <-src.calls

	// the newer fetch completes first and installs its result
	secondReply <- newList
	<-secondDone
	if got := cache.Cached(); len(got) != 2 {
		t.Fatalf("newer result not installed: %d items", len(got))
	}

	// the stale fetch completes late; its result must be discarded
	firstReply <- oldList
	<-firstDone
	if got := cache.Cached(); len(got) != 2 {
		t.Fatalf("stale fetch clobbered newer data: %d items", len(got))
	}
}

func TestRefreshInstallsInOrderResult(t *testing.T) {
	src := newBlockingSource()
	cache := NewCache(src, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := cache.Refresh(context.Background()); err != nil {
			t.Errorf("refresh: %v", err)
		}
	}()
	reply := <-src.calls
	reply <- []json.RawMessage{json.RawMessage(`{"id":9}`)}
	<-done

	if got := cache.Cached(); len(got) != 1 {
		t.Fatalf("result not installed: %d items", len(got))
	}
}

type failingSource struct{}

func (failingSource) Products(ctx context.Context) ([]json.RawMessage, error) {
	return nil, errors.New("backend down")
}

func (failingSource) Product(ctx context.Context, id string) (json.RawMessage, error) {
	return nil, errors.New("backend down")
}

func TestRefreshErrorKeepsCache(t *testing.T) {
	src := newBlockingSource()
	cache := NewCache(src, zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Refresh(context.Background())
	}()
	reply := <-src.calls
	reply <- []json.RawMessage{json.RawMessage(`{"id":1}`)}
	<-done

	cache.source = failingSource{}
	if _, err := cache.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error from failing source")
	}
	if got := cache.Cached(); len(got) != 1 {
		t.Fatalf("failed refresh dropped cached list: %d items", len(got))
	}
}
