package heartbeat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestPingsUntilContextEnds(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	p := New(srv.URL, WithInterval(20*time.Millisecond))
	p.Start(ctx)

	deadline := time.After(2 * time.Second)
	for hits.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("pinger never reached the endpoint")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	time.Sleep(50 * time.Millisecond)
	n := hits.Load()
	time.Sleep(100 * time.Millisecond)
	if hits.Load() > n+1 {
		t.Fatal("pinger kept running after cancel")
	}
}

func TestEmptyURLIsNoop(t *testing.T) {
	p := New("")
	p.Start(context.Background()) // must not panic or spin
}

func TestFailuresAreSilent(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // refuse connections

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	p := New(srv.URL, WithInterval(20*time.Millisecond))
	p.Start(ctx)
	<-ctx.Done() // no panic is the assertion
}
