package playback

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestScriptLoaderSingleFlight(t *testing.T) {
	var loads int32
	started := make(chan struct{})
	release := make(chan struct{})
	l := NewScriptLoader(func() error {
		atomic.AddInt32(&loads, 1)
		close(started)
		<-release
		return nil
	}, nil)

	var wg sync.WaitGroup
	var callbacks int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		l.Subscribe(func(err error) {
			defer wg.Done()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			atomic.AddInt32(&callbacks, 1)
		})
	}

	<-started
	if l.State() != LoadLoading {
		t.Fatalf("state = %v, want loading", l.State())
	}
	close(release)
	wg.Wait()

	if atomic.LoadInt32(&loads) != 1 {
		t.Fatalf("loads = %d, want 1", loads)
	}
	if atomic.LoadInt32(&callbacks) != 5 {
		t.Fatalf("callbacks = %d, want 5", callbacks)
	}
	if l.State() != LoadReady {
		t.Fatalf("state = %v, want ready", l.State())
	}
}

func TestScriptLoaderSubscribeAfterSettled(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		l := NewScriptLoader(func() error { return nil }, nil)
		done := make(chan struct{})
		l.Subscribe(func(err error) { close(done) })
		<-done

		// Settled loader calls back synchronously, no new load.
		var got error = errors.New("sentinel")
		l.Subscribe(func(err error) { got = err })
		if got != nil {
			t.Fatalf("late subscriber got %v, want nil", got)
		}
	})

	t.Run("failed stays failed", func(t *testing.T) {
		loadErr := errors.New("script blocked")
		var loads int32
		l := NewScriptLoader(func() error {
			atomic.AddInt32(&loads, 1)
			return loadErr
		}, nil)

		done := make(chan error, 1)
		l.Subscribe(func(err error) { done <- err })
		if err := <-done; !errors.Is(err, loadErr) {
			t.Fatalf("err = %v, want load error", err)
		}
		if l.State() != LoadFailed {
			t.Fatalf("state = %v, want failed", l.State())
		}

		// No retry: late subscribers get the original error immediately.
		var got error
		l.Subscribe(func(err error) { got = err })
		if !errors.Is(got, loadErr) {
			t.Fatalf("late subscriber got %v, want load error", got)
		}
		if atomic.LoadInt32(&loads) != 1 {
			t.Fatalf("loads = %d, want 1 (no retry)", loads)
		}
	})
}
