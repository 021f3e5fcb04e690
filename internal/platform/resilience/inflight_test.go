package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestInFlight_SkipsWhileHeld(t *testing.T) {
	var g InFlight
	var ran int32
	var skipped int32

	const workers = 20
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			release, ok := g.TryAcquire("fixtures")
			if !ok {
				atomic.AddInt32(&skipped, 1)
				return
			}
			defer release()
			atomic.AddInt32(&ran, 1)
			time.Sleep(50 * time.Millisecond)
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt32(&ran); got < 1 {
		t.Fatalf("expected at least one holder, got %d", got)
	}
	if got := atomic.LoadInt32(&ran) + atomic.LoadInt32(&skipped); got != workers {
		t.Fatalf("unexpected total: got=%d want=%d", got, workers)
	}
	if g.Busy("fixtures") {
		t.Fatalf("expected key to be released")
	}
}

func TestInFlight_KeysAreIndependent(t *testing.T) {
	var g InFlight

	releaseFixtures, ok := g.TryAcquire("fixtures")
	if !ok {
		t.Fatalf("expected fixtures acquire")
	}
	if _, ok := g.TryAcquire("fixtures"); ok {
		t.Fatalf("expected second fixtures acquire to fail")
	}
	releaseLive, ok := g.TryAcquire("live")
	if !ok {
		t.Fatalf("expected live acquire while fixtures held")
	}

	releaseFixtures()
	releaseFixtures()
	releaseLive()

	if _, ok := g.TryAcquire("fixtures"); !ok {
		t.Fatalf("expected fixtures acquire after release")
	}
}
