// Package history keeps an audit log of finished sync runs in SQLite.
// The sync engine never reads it back; it feeds the admin API only.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/winspan/xraysync/internal/geodata"
)

// Run 一次同步运行的持久化记录
type Run struct {
	ID        int64         `json:"id"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	Changed   bool          `json:"changed"`
	Failed    bool          `json:"failed"`
	Restart   string        `json:"restart"`
	Error     string        `json:"error,omitempty"`
	Artifacts []RunArtifact `json:"artifacts"`
}

// RunArtifact 运行中单个文件的记录
type RunArtifact struct {
	Name        string `json:"name"`
	Outcome     string `json:"outcome"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Store SQLite 运行历史存储
type Store struct {
	db       *sql.DB
	keepRuns int
}

// NewStore opens (and initializes) the history database. keepRuns bounds
// how many runs CleanupOldRuns retains.
func NewStore(dbPath string, keepRuns int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %v", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("打开 SQLite 数据库失败: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %v", err)
	}

	s := &Store{db: db, keepRuns: keepRuns}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据库失败: %v", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			changed INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			restart TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS sync_artifacts (
			run_id INTEGER NOT NULL REFERENCES sync_runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			outcome TEXT NOT NULL,
			fingerprint TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_artifacts_run ON sync_artifacts(run_id)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun 保存一次完成的同步运行
func (s *Store) RecordRun(ctx context.Context, result *geodata.SyncResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	runErr := ""
	if result.RestartErr != nil {
		runErr = result.RestartErr.Error()
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO sync_runs (started_at, finished_at, changed, failed, restart, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.Started.Unix(), result.Finished.Unix(),
		boolToInt(result.Changed()), boolToInt(result.Failed()),
		string(result.Restart), runErr,
	)
	if err != nil {
		return err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for _, ar := range result.Artifacts {
		arErr := ""
		if ar.Err != nil {
			arErr = ar.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sync_artifacts (run_id, name, outcome, fingerprint, error)
			 VALUES (?, ?, ?, ?, ?)`,
			runID, ar.Spec.Name, string(ar.Outcome), ar.Fingerprint, arErr,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	return s.CleanupOldRuns(ctx)
}

// RecentRuns 返回最近 limit 条运行记录, 新的在前
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, changed, failed, restart, error
		 FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started, finished int64
		var changed, failed int
		if err := rows.Scan(&r.ID, &started, &finished, &changed, &failed, &r.Restart, &r.Error); err != nil {
			return nil, err
		}
		r.Started = time.Unix(started, 0)
		r.Finished = time.Unix(finished, 0)
		r.Changed = changed != 0
		r.Failed = failed != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		arts, err := s.runArtifacts(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Artifacts = arts
	}
	return runs, nil
}

func (s *Store) runArtifacts(ctx context.Context, runID int64) ([]RunArtifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, outcome, fingerprint, error FROM sync_artifacts WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var arts []RunArtifact
	for rows.Next() {
		var a RunArtifact
		if err := rows.Scan(&a.Name, &a.Outcome, &a.Fingerprint, &a.Error); err != nil {
			return nil, err
		}
		arts = append(arts, a)
	}
	return arts, rows.Err()
}

// CleanupOldRuns 清理超过保留数量的历史记录
func (s *Store) CleanupOldRuns(ctx context.Context) error {
	if s.keepRuns <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sync_runs WHERE id NOT IN (
			SELECT id FROM sync_runs ORDER BY started_at DESC, id DESC LIMIT ?
		)`, s.keepRuns)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM sync_artifacts WHERE run_id NOT IN (SELECT id FROM sync_runs)`)
	return err
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
