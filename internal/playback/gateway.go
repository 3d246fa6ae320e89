package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cursoteca_backend/pkg/monitoring"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Saver persists one snapshot to the enrollment store. The server upsert is
// idempotent and monotonic, so duplicate delivery is harmless.
type Saver interface {
	SaveVideoProgress(ctx context.Context, courseID string, snap Snapshot) error
}

// RestSaver posts snapshots to the enrollment API.
type RestSaver struct {
	client *resty.Client
}

func NewRestSaver(baseURL, token string) *RestSaver {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(10 * time.Second)
	return &RestSaver{client: client}
}

func (s *RestSaver) SaveVideoProgress(ctx context.Context, courseID string, snap Snapshot) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(snap).
		Post(fmt.Sprintf("/enrollments/%s/save-video-progress", courseID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("save video progress: %s", resp.Status())
	}
	return nil
}

// Gateway is the debounced write-through channel between trackers and the
// enrollment store. Writes are keyed by (module, video): one write per key
// is in flight at a time, an in-flight write suppresses identical queued
// payloads, and the latest queued snapshot always wins. Failures are logged
// and surfaced as a non-blocking notice; playback never waits on a write.
type Gateway struct {
	courseID string
	saver    Saver
	log      *zap.Logger

	// notify surfaces a non-blocking user notice on write failure.
	notify func(msg string)
	// refresh refetches the authoritative enrollment, throttled by limiter
	// so a 10s emission cadence cannot cause a refetch storm.
	refresh func()
	limiter *rate.Limiter

	mu       sync.Mutex
	inflight map[snapKey]Snapshot
	pending  map[snapKey]Snapshot
	// latest is the side-channel for the unload flush: the single most
	// recent snapshot reported across all keys.
	latest    Snapshot
	hasLatest bool
	wg        sync.WaitGroup
}

type snapKey struct {
	moduleID string
	videoID  string
}

// GatewayOptions configures a Gateway. RefreshWindow guards the read
// refresh; zero means 30s.
type GatewayOptions struct {
	Notify        func(msg string)
	Refresh       func()
	RefreshWindow time.Duration
}

func NewGateway(courseID string, saver Saver, opts GatewayOptions, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	window := opts.RefreshWindow
	if window <= 0 {
		window = 30 * time.Second
	}
	return &Gateway{
		courseID: courseID,
		saver:    saver,
		log:      log,
		notify:   opts.Notify,
		refresh:  opts.Refresh,
		limiter:  rate.NewLimiter(rate.Every(window), 1),
		inflight: make(map[snapKey]Snapshot),
		pending:  make(map[snapKey]Snapshot),
	}
}

// Report queues a snapshot write. Fire-and-forget: the caller never blocks
// on the network.
func (g *Gateway) Report(snap Snapshot) {
	key := snapKey{snap.ModuleID, snap.VideoID}

	g.mu.Lock()
	g.latest = snap
	g.hasLatest = true

	if cur, busy := g.inflight[key]; busy {
		if cur == snap {
			// Identical payload already on the wire; nothing to queue.
			g.mu.Unlock()
			return
		}
		g.pending[key] = snap
		g.mu.Unlock()
		return
	}

	g.inflight[key] = snap
	g.mu.Unlock()

	g.wg.Add(1)
	go g.drain(key, snap)
}

// drain writes snap, then any snapshot queued behind it, one at a time so
// writes for the same key never reorder.
func (g *Gateway) drain(key snapKey, snap Snapshot) {
	defer g.wg.Done()
	for {
		g.write(snap)

		g.mu.Lock()
		next, ok := g.pending[key]
		if !ok {
			delete(g.inflight, key)
			g.mu.Unlock()
			return
		}
		delete(g.pending, key)
		g.inflight[key] = next
		g.mu.Unlock()
		snap = next
	}
}

func (g *Gateway) write(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := g.saver.SaveVideoProgress(ctx, g.courseID, snap); err != nil {
		// Bounded loss: the next cadence tick carries fresher data, so no
		// retry here.
		monitoring.ProgressWrites.WithLabelValues("error").Inc()
		g.log.Warn("progress write failed",
			zap.String("module", snap.ModuleID),
			zap.String("video", snap.VideoID),
			zap.Error(err))
		if g.notify != nil {
			g.notify("No pudimos guardar tu progreso. Seguimos intentando.")
		}
		return
	}

	monitoring.ProgressWrites.WithLabelValues("ok").Inc()
	if g.refresh != nil && g.limiter.Allow() {
		g.refresh()
	}
}

// Flush performs the last-resort page-unload write: one synchronous,
// fire-and-forget attempt with the most recent snapshot. No retry and no
// error handling; the server's monotonic merge makes a racing duplicate
// harmless.
func (g *Gateway) Flush(ctx context.Context) {
	g.mu.Lock()
	snap, ok := g.latest, g.hasLatest
	g.mu.Unlock()
	if !ok {
		return
	}
	_ = g.saver.SaveVideoProgress(ctx, g.courseID, snap)
}

// Wait blocks until queued writes drain. Tests and graceful shutdown only;
// trackers never call it.
func (g *Gateway) Wait() {
	g.wg.Wait()
}
