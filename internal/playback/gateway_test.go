package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// blockingSaver records writes and optionally holds them until released, so
// tests can pin a write in flight deterministically.
type blockingSaver struct {
	mu      sync.Mutex
	writes  []Snapshot
	err     error
	release chan struct{}
}

func (s *blockingSaver) SaveVideoProgress(ctx context.Context, courseID string, snap Snapshot) error {
	if s.release != nil {
		<-s.release
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, snap)
	return s.err
}

func (s *blockingSaver) recorded() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Snapshot, len(s.writes))
	copy(out, s.writes)
	return out
}

func snapAt(moduleID, videoID string, max float64) Snapshot {
	return Snapshot{
		ModuleID:          moduleID,
		VideoID:           videoID,
		MaxReachedSeconds: max,
		CurrentPosition:   max,
		DurationSeconds:   600,
	}
}

func TestGatewayLatestWins(t *testing.T) {
	saver := &blockingSaver{release: make(chan struct{})}
	g := NewGateway("c1", saver, GatewayOptions{}, nil)

	// First report goes on the wire and blocks there.
	g.Report(snapAt("m1", "v1", 10))
	// These three queue behind it; only the last may survive.
	g.Report(snapAt("m1", "v1", 20))
	g.Report(snapAt("m1", "v1", 30))
	g.Report(snapAt("m1", "v1", 40))

	close(saver.release)
	g.Wait()

	writes := saver.recorded()
	if len(writes) != 2 {
		t.Fatalf("writes = %d, want 2 (in-flight + latest)", len(writes))
	}
	if writes[0].MaxReachedSeconds != 10 || writes[1].MaxReachedSeconds != 40 {
		t.Fatalf("write order = %v / %v, want 10 then 40",
			writes[0].MaxReachedSeconds, writes[1].MaxReachedSeconds)
	}
}

func TestGatewayIdenticalSuppression(t *testing.T) {
	saver := &blockingSaver{release: make(chan struct{})}
	g := NewGateway("c1", saver, GatewayOptions{}, nil)

	snap := snapAt("m1", "v1", 10)
	g.Report(snap)
	g.Report(snap)
	g.Report(snap)

	close(saver.release)
	g.Wait()

	if writes := saver.recorded(); len(writes) != 1 {
		t.Fatalf("writes = %d, want 1 for identical payloads", len(writes))
	}
}

func TestGatewayKeyIndependence(t *testing.T) {
	saver := &blockingSaver{}
	g := NewGateway("c1", saver, GatewayOptions{}, nil)

	g.Report(snapAt("m1", "v1", 10))
	g.Report(snapAt("m1", "v2", 20))
	g.Report(snapAt("m2", "v3", 30))
	g.Wait()

	writes := saver.recorded()
	if len(writes) != 3 {
		t.Fatalf("writes = %d, want 3 across distinct keys", len(writes))
	}
	seen := map[string]bool{}
	for _, w := range writes {
		seen[w.ModuleID+"/"+w.VideoID] = true
	}
	for _, key := range []string{"m1/v1", "m1/v2", "m2/v3"} {
		if !seen[key] {
			t.Fatalf("missing write for %s", key)
		}
	}
}

func TestGatewayFailureNotifies(t *testing.T) {
	var notices []string
	saver := &blockingSaver{err: errors.New("boom")}
	g := NewGateway("c1", saver, GatewayOptions{
		Notify: func(msg string) { notices = append(notices, msg) },
	}, nil)

	g.Report(snapAt("m1", "v1", 10))
	g.Wait()

	if len(notices) != 1 {
		t.Fatalf("notices = %d, want 1", len(notices))
	}
	// A failed write is dropped; the next report still flows.
	saver.mu.Lock()
	saver.err = nil
	saver.mu.Unlock()
	g.Report(snapAt("m1", "v1", 20))
	g.Wait()
	if writes := saver.recorded(); len(writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(writes))
	}
}

func TestGatewayRefreshThrottled(t *testing.T) {
	var refreshes int
	saver := &blockingSaver{}
	g := NewGateway("c1", saver, GatewayOptions{
		Refresh:       func() { refreshes++ },
		RefreshWindow: time.Hour,
	}, nil)

	for i := 0; i < 5; i++ {
		g.Report(snapAt("m1", "v1", float64(10*(i+1))))
		g.Wait()
	}

	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1 inside the window", refreshes)
	}
}

func TestGatewayFlush(t *testing.T) {
	saver := &blockingSaver{}
	g := NewGateway("c1", saver, GatewayOptions{}, nil)

	// Nothing reported yet: flush is a no-op.
	g.Flush(context.Background())
	if len(saver.recorded()) != 0 {
		t.Fatal("flush without snapshots must not write")
	}

	g.Report(snapAt("m1", "v1", 10))
	g.Wait()
	g.Report(snapAt("m1", "v1", 25))
	g.Wait()

	g.Flush(context.Background())
	writes := saver.recorded()
	if len(writes) != 3 {
		t.Fatalf("writes = %d, want 2 reports + 1 flush", len(writes))
	}
	if last := writes[len(writes)-1]; last.MaxReachedSeconds != 25 {
		t.Fatalf("flush wrote %v, want the latest snapshot", last.MaxReachedSeconds)
	}
}
