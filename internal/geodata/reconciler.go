package geodata

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/winspan/xraysync/pkg/logger"
)

// Reconciler 驱动整个同步流程: 对每个文件独立地执行
// 读取当前指纹 → 下载 → 比较 → 提交, 最后汇总并决定是否重启服务
//
// Per-artifact pipelines have no data dependency on one another and run on
// their own goroutines; the docker channel serializes itself. The single
// restart happens after the barrier, exactly once, iff at least one
// artifact was applied. Restart failure does not roll anything back.
type Reconciler struct {
	target    Target
	fetcher   *Fetcher
	restarter Restarter
	log       *logger.Logger
}

func NewReconciler(target Target, fetcher *Fetcher, restarter Restarter, log *logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default("sync")
	}
	return &Reconciler{target: target, fetcher: fetcher, restarter: restarter, log: log}
}

// Run synchronizes every artifact and returns the aggregate result.
// The only error return is channel-level unavailability, reported before
// any artifact is touched; per-artifact failures live inside the result.
func (r *Reconciler) Run(ctx context.Context, specs []ArtifactSpec) (*SyncResult, error) {
	if err := r.target.Ping(ctx); err != nil {
		r.log.Error("target unreachable: %v", err)
		return nil, err
	}

	result := &SyncResult{
		Started:   time.Now(),
		Artifacts: make(map[string]ArtifactResult, len(specs)),
		Restart:   RestartNotAttempted,
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, spec := range specs {
		wg.Add(1)
		go func(spec ArtifactSpec) {
			defer wg.Done()
			ar := r.syncOne(ctx, spec)
			artifactOutcomes.WithLabelValues(spec.Name, string(ar.Outcome)).Inc()
			mu.Lock()
			result.Artifacts[spec.Name] = ar
			mu.Unlock()
		}(spec)
	}
	wg.Wait()

	if result.Changed() {
		r.log.Info("changes applied, restarting dependent service")
		if err := r.restarter.Restart(ctx); err != nil {
			r.log.Error("restart failed: %v", err)
			result.Restart = RestartFailed
			result.RestartErr = err
			restartsTotal.WithLabelValues("failed").Inc()
		} else {
			result.Restart = RestartSucceeded
			restartsTotal.WithLabelValues("succeeded").Inc()
		}
	} else {
		r.log.Info("no updates found, no restart needed")
	}

	result.Finished = time.Now()
	switch {
	case result.Failed():
		syncRunsTotal.WithLabelValues("partial").Inc()
	case result.Restart == RestartFailed:
		syncRunsTotal.WithLabelValues("restart_failed").Inc()
	default:
		syncRunsTotal.WithLabelValues("success").Inc()
		lastSuccessTimestamp.SetToCurrentTime()
	}
	return result, nil
}

// syncOne runs the per-artifact state machine to a terminal outcome.
func (r *Reconciler) syncOne(ctx context.Context, spec ArtifactSpec) ArtifactResult {
	ar := ArtifactResult{Spec: spec}

	// Current fingerprint; confirmed absence means "changed from nothing".
	currentFP := ""
	current, err := r.target.Read(ctx, spec.Path)
	switch {
	case err == nil:
		currentFP = Fingerprint(current)
		r.log.Debug("current %s MD5: %s", spec.Name, currentFP)
	case errors.Is(err, ErrNotFound):
		r.log.Debug("%s not deployed yet", spec.Name)
	default:
		// Transport error: not absence, fail this artifact only.
		r.log.Error("read %s: %v", spec.Name, err)
		ar.Outcome = OutcomeApplyFailed
		ar.Err = err
		return ar
	}

	start := time.Now()
	data, err := r.fetcher.Fetch(ctx, spec.URL)
	ar.FetchTime = time.Since(start)
	fetchDuration.WithLabelValues(spec.Name).Observe(ar.FetchTime.Seconds())
	if err != nil {
		r.log.Warn("download %s: %v", spec.Name, err)
		ar.Outcome = OutcomeFetchFailed
		ar.Err = err
		return ar
	}

	ar.Fingerprint = Fingerprint(data)
	r.log.Debug("downloaded %s MD5: %s", spec.Name, ar.Fingerprint)

	if ar.Fingerprint == currentFP {
		r.log.Info("%s is up to date", spec.Name)
		ar.Outcome = OutcomeUnchanged
		return ar
	}

	r.log.Info("%s has changed, updating deployed copy", spec.Name)
	if err := r.target.Commit(ctx, data, spec.Path); err != nil {
		r.log.Error("commit %s: %v", spec.Name, err)
		ar.Outcome = OutcomeApplyFailed
		ar.Err = err
		return ar
	}
	ar.Outcome = OutcomeApplied
	return ar
}
