package geodata

import "time"

// ArtifactSpec 描述一个需要同步的远程数据文件
type ArtifactSpec struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
	Path string `yaml:"path" json:"path"`
}

// DefaultArtifacts returns the standard xray rule databases from the
// Loyalsoldier release channel, placed directly under the target data dir.
func DefaultArtifacts() []ArtifactSpec {
	return []ArtifactSpec{
		{
			Name: "geoip.dat",
			URL:  "https://github.com/Loyalsoldier/v2ray-rules-dat/raw/release/geoip.dat",
			Path: "geoip.dat",
		},
		{
			Name: "geosite.dat",
			URL:  "https://github.com/Loyalsoldier/v2ray-rules-dat/raw/release/geosite.dat",
			Path: "geosite.dat",
		},
	}
}

// Outcome 单个文件的同步结果
type Outcome string

const (
	OutcomeUnchanged   Outcome = "unchanged"
	OutcomeApplied     Outcome = "applied"
	OutcomeFetchFailed Outcome = "fetch_failed"
	OutcomeApplyFailed Outcome = "apply_failed"
)

// Failed reports whether this outcome counts against the run's exit status.
func (o Outcome) Failed() bool {
	return o == OutcomeFetchFailed || o == OutcomeApplyFailed
}

// RestartOutcome 重启容器的结果
type RestartOutcome string

const (
	RestartNotAttempted RestartOutcome = "not_attempted"
	RestartSucceeded    RestartOutcome = "succeeded"
	RestartFailed       RestartOutcome = "failed"
)

// ArtifactResult is the terminal per-artifact state of one run.
type ArtifactResult struct {
	Spec        ArtifactSpec  `json:"spec"`
	Outcome     Outcome       `json:"outcome"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	FetchTime   time.Duration `json:"fetch_time_ms,omitempty"`
	Err         error         `json:"-"`
}

// SyncResult aggregates every artifact's terminal outcome plus the single
// restart decision. It is recomputed from scratch on every run; nothing in
// the engine reads a previous SyncResult.
type SyncResult struct {
	Started   time.Time                 `json:"started"`
	Finished  time.Time                 `json:"finished"`
	Artifacts map[string]ArtifactResult `json:"artifacts"`
	Restart   RestartOutcome            `json:"restart"`
	// RestartErr 仅在 Restart == RestartFailed 时有值
	RestartErr error `json:"-"`
}

// Changed reports whether at least one artifact was applied, i.e. whether
// the dependent service needed a restart this run.
func (r *SyncResult) Changed() bool {
	for _, ar := range r.Artifacts {
		if ar.Outcome == OutcomeApplied {
			return true
		}
	}
	return false
}

// Failed reports whether any artifact ended in a failure outcome.
func (r *SyncResult) Failed() bool {
	for _, ar := range r.Artifacts {
		if ar.Outcome.Failed() {
			return true
		}
	}
	return false
}

// ExitCode maps the run onto the process exit signal: 0 full success,
// 1 at least one artifact failed, 2 artifacts clean but restart failed.
func (r *SyncResult) ExitCode() int {
	if r.Failed() {
		return 1
	}
	if r.Restart == RestartFailed {
		return 2
	}
	return 0
}
