package geodata

import (
	"context"
	"sync"
	"time"

	"github.com/winspan/xraysync/pkg/logger"
)

// RunRecorder persists finished runs for the admin history view. The
// engine never reads anything back; recording is strictly observational.
type RunRecorder interface {
	RecordRun(ctx context.Context, result *SyncResult) error
}

// ReadinessProbe verifies the dependent service is serving again after a
// restart.
type ReadinessProbe interface {
	Wait(ctx context.Context) error
}

// SyncManager 定时同步管理器 (daemon 模式)
type SyncManager struct {
	rec      *Reconciler
	specs    []ArtifactSpec
	interval time.Duration
	log      *logger.Logger

	recorder RunRecorder    // 可选
	probe    ReadinessProbe // 可选

	// 同步状态跟踪
	mu         sync.RWMutex
	running    bool
	lastRun    time.Time
	lastResult *SyncResult
	syncStats  struct {
		totalRuns      int64
		successfulRuns int64
		failedRuns     int64
		lastError      string
	}
}

func NewSyncManager(rec *Reconciler, specs []ArtifactSpec, interval time.Duration, log *logger.Logger) *SyncManager {
	if log == nil {
		log = logger.Default("syncmgr")
	}
	return &SyncManager{rec: rec, specs: specs, interval: interval, log: log}
}

// SetRecorder 注入运行历史存储
func (m *SyncManager) SetRecorder(r RunRecorder) { m.recorder = r }

// SetProbe 注入重启后的就绪探测
func (m *SyncManager) SetProbe(p ReadinessProbe) { m.probe = p }

// Start runs an immediate sync and then one per interval until ctx ends.
func (m *SyncManager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	_, _ = m.SyncNow(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = m.SyncNow(ctx)
		}
	}
}

// SyncNow 立即执行一次同步, 供定时器和管理接口共用
func (m *SyncManager) SyncNow(ctx context.Context) (*SyncResult, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.log.Warn("sync already in progress, skipping")
		return nil, nil
	}
	m.running = true
	m.lastRun = time.Now()
	m.syncStats.totalRuns++
	m.mu.Unlock()

	result, err := m.rec.Run(ctx, m.specs)

	m.mu.Lock()
	m.running = false
	if err != nil {
		m.syncStats.failedRuns++
		m.syncStats.lastError = err.Error()
		m.mu.Unlock()
		return nil, err
	}
	m.lastResult = result
	if result.Failed() || result.Restart == RestartFailed {
		m.syncStats.failedRuns++
		m.syncStats.lastError = summarizeFailure(result)
	} else {
		m.syncStats.successfulRuns++
		m.syncStats.lastError = ""
	}
	m.mu.Unlock()

	if m.recorder != nil {
		if rerr := m.recorder.RecordRun(ctx, result); rerr != nil {
			m.log.Warn("record run: %v", rerr)
		}
	}
	if m.probe != nil && result.Restart == RestartSucceeded {
		if perr := m.probe.Wait(ctx); perr != nil {
			m.log.Warn("service not ready after restart: %v", perr)
		} else {
			m.log.Info("service answering again after restart")
		}
	}
	return result, nil
}

func summarizeFailure(result *SyncResult) string {
	for _, ar := range result.Artifacts {
		if ar.Outcome.Failed() && ar.Err != nil {
			return ar.Err.Error()
		}
	}
	if result.RestartErr != nil {
		return result.RestartErr.Error()
	}
	return ""
}

// Status 返回当前同步状态, 供管理 API 使用
func (m *SyncManager) Status() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var successRate float64
	if m.syncStats.totalRuns > 0 {
		successRate = float64(m.syncStats.successfulRuns) / float64(m.syncStats.totalRuns) * 100
	}

	status := map[string]interface{}{
		"running":         m.running,
		"last_run":        m.lastRun,
		"interval":        m.interval.String(),
		"total_runs":      m.syncStats.totalRuns,
		"successful_runs": m.syncStats.successfulRuns,
		"failed_runs":     m.syncStats.failedRuns,
		"success_rate":    successRate,
		"last_error":      m.syncStats.lastError,
	}
	if m.lastResult != nil {
		artifacts := make(map[string]interface{}, len(m.lastResult.Artifacts))
		for name, ar := range m.lastResult.Artifacts {
			entry := map[string]interface{}{
				"outcome":       string(ar.Outcome),
				"fingerprint":   ar.Fingerprint,
				"url":           ar.Spec.URL,
				"fetch_time_ms": ar.FetchTime.Milliseconds(),
			}
			if ar.Err != nil {
				entry["error"] = ar.Err.Error()
			}
			artifacts[name] = entry
		}
		status["artifacts"] = artifacts
		status["restart"] = string(m.lastResult.Restart)
	}
	return status
}

// LastResult 返回最近一次完成的同步结果, 可能为 nil
func (m *SyncManager) LastResult() *SyncResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastResult
}
