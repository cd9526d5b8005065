// Package scheduler orchestrates recomputation: event-triggered incremental
// runs, periodic full runs with a wall-clock budget, optimistic commit with
// bounded retries, and snapshot-change notifications.
package scheduler

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/communeos/bridgenet/pkg/detect"
	"github.com/communeos/bridgenet/pkg/graph"
	"github.com/communeos/bridgenet/pkg/logging"
	"github.com/communeos/bridgenet/pkg/metrics"
	"github.com/communeos/bridgenet/pkg/pubsub"
	"github.com/communeos/bridgenet/pkg/source"
)

// Archiver receives committed snapshots for out-of-band persistence.
// Archiving failures never fail a commit.
type Archiver interface {
	Archive(ctx context.Context, snap *graph.NetworkSnapshot) error
}

// Config holds the scheduler tuning knobs.
type Config struct {
	// Workers is the size of the recompute worker pool.
	Workers int `yaml:"workers"`

	// Interval between periodic full recomputes. Zero disables the
	// periodic loop.
	Interval time.Duration `yaml:"interval"`

	// Budget is the hard wall-clock limit for one recompute run. An
	// overrunning run aborts without committing; the prior snapshot stays
	// current.
	Budget time.Duration `yaml:"budget"`

	// CommitRetries bounds optimistic-commit attempts before surfacing
	// ErrConcurrentUpdate.
	CommitRetries int `yaml:"commit_retries"`

	// RetryBackoff is the base delay between commit attempts; actual
	// delays grow per attempt with added jitter.
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// DefaultConfig returns the production scheduler tuning.
func DefaultConfig() Config {
	return Config{
		Workers:       4,
		Interval:      5 * time.Minute,
		Budget:        30 * time.Second,
		CommitRetries: 3,
		RetryBackoff:  50 * time.Millisecond,
	}
}

// Scheduler drives the detect-commit-notify cycle.
type Scheduler struct {
	cfg      Config
	store    *graph.Store
	detector *detect.Detector
	feed     source.Feed
	bus      *pubsub.Bus
	archiver Archiver
	registry *metrics.Registry
	log      logging.Logger

	pool     *workerPool
	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// New creates a scheduler. bus, archiver and registry may be nil.
func New(cfg Config, store *graph.Store, detector *detect.Detector, feed source.Feed, bus *pubsub.Bus, archiver Archiver, registry *metrics.Registry, log logging.Logger) *Scheduler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	log = log.With(logging.Component("scheduler"))
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		detector: detector,
		feed:     feed,
		bus:      bus,
		archiver: archiver,
		registry: registry,
		log:      log,
		pool:     newWorkerPool(cfg.Workers, log),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the periodic full-recompute loop. Incremental triggers via
// TriggerRecompute work whether or not the loop is running.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cfg.Interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case <-ticker.C:
				if err := s.run(ctx, "periodic"); err != nil {
					s.log.Error("periodic recompute failed", logging.Error(err))
				}
			}
		}
	}()
}

// Stop ends the periodic loop and drains the worker pool.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	s.pool.close()
}

// TriggerRecompute enqueues an incremental recompute and returns its job id.
// The run happens asynchronously on the worker pool.
func (s *Scheduler) TriggerRecompute(reason string) (string, error) {
	jobID := uuid.NewString()
	log := s.log.With(logging.JobID(jobID), logging.String("reason", reason))

	ok := s.pool.submit(func() {
		if err := s.run(context.Background(), "event"); err != nil {
			log.Error("triggered recompute failed", logging.Error(err))
			if s.bus != nil {
				s.bus.Publish(pubsub.TopicRecomputeFailed, err.Error())
			}
			return
		}
		log.Info("triggered recompute complete")
	})
	if !ok {
		return "", graph.NewError("TriggerRecompute").Context(reason).Wrap(graph.ErrStoreClosed)
	}
	return jobID, nil
}

// RunOnce performs one synchronous recompute, used at startup to populate
// the first snapshot before the server accepts reads.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	return s.run(ctx, "startup")
}

// run executes one full detect-commit cycle under the wall-clock budget.
func (s *Scheduler) run(ctx context.Context, trigger string) error {
	start := time.Now()
	status := "ok"
	defer func() {
		if s.registry != nil {
			s.registry.RecordRecompute(trigger, status, time.Since(start))
		}
	}()

	if s.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}

	input, err := source.Pull(ctx, s.feed)
	if err != nil {
		status = "pull_failed"
		return graph.NewError("Recompute").Context(trigger).Wrap(err)
	}

	edges := s.detector.Detect(input)

	// Never commit a partial graph: a run that blew its budget during
	// detection aborts here and the prior snapshot stays current.
	if ctx.Err() != nil {
		status = "budget_exceeded"
		s.log.Warn("recompute aborted over budget",
			logging.Duration("budget", s.cfg.Budget),
			logging.Latency(time.Since(start)))
		return graph.NewError("Recompute").Context(trigger).Wrap(ctx.Err())
	}

	version, err := s.commitWithRetry(ctx, input.Communities, edges)
	if err != nil {
		status = "commit_failed"
		return err
	}

	snap := s.store.Current()
	s.log.Info("snapshot committed",
		logging.SnapshotVersion(version),
		logging.Int("communities", snap.NodeCount()),
		logging.Int("bridges", snap.EdgeCount()),
		logging.Latency(time.Since(start)))

	if s.registry != nil {
		s.registry.RecordSnapshot(version, snap.NodeCount(), snap.EdgeCount())
		s.registry.RecordBridgeCounts(countByType(edges))
	}
	if s.bus != nil {
		s.bus.Publish(pubsub.TopicSnapshotCommitted, pubsub.SnapshotEvent{
			Version:     version,
			Communities: snap.NodeCount(),
			Bridges:     snap.EdgeCount(),
			CommittedAt: snap.CreatedAt(),
		})
	}
	if s.archiver != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.archiver.Archive(context.Background(), snap); err != nil {
				s.log.Warn("snapshot archive failed",
					logging.SnapshotVersion(version), logging.Error(err))
			}
		}()
	}

	return nil
}

// commitWithRetry retries optimistic commits against a moving base version.
// Each retry recomputes from the latest committed version, so concurrent
// runs converge by last-committer-wins.
func (s *Scheduler) commitWithRetry(ctx context.Context, nodes []graph.CommunityNode, edges []graph.BridgeEdge) (uint64, error) {
	attempts := s.cfg.CommitRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		base := s.store.Current().Version()
		version, err := s.store.Commit(base, nodes, edges)
		if err == nil {
			return version, nil
		}
		lastErr = err

		if !errors.Is(err, graph.ErrStaleSnapshot) {
			return 0, err
		}
		if s.registry != nil {
			s.registry.CommitConflictsTotal.Inc()
		}
		s.log.Debug("commit conflict, retrying",
			logging.Int("attempt", attempt),
			logging.SnapshotVersion(base))

		if attempt < attempts {
			select {
			case <-ctx.Done():
				return 0, graph.NewError("Commit").Wrap(ctx.Err())
			case <-time.After(backoff(s.cfg.RetryBackoff, attempt)):
			}
		}
	}

	return 0, graph.NewError("Commit").Context("retries exhausted").Wrap(
		errors.Join(graph.ErrConcurrentUpdate, lastErr))
}

// backoff grows linearly per attempt with up to 50% jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base * time.Duration(attempt)
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func countByType(edges []graph.BridgeEdge) map[string]int {
	counts := make(map[string]int)
	for _, e := range edges {
		counts[e.Type.String()]++
	}
	return counts
}
