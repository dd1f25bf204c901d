package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type IndexStore struct {
	db *sql.DB
	mu sync.RWMutex
}

func NewIndexStore(dbPath string) (*IndexStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, err
	}

	store := &IndexStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *IndexStore) initSchema() error {
	schema := GetSchema()

	lines := strings.Split(schema, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}
	cleanSchema := strings.Join(cleanLines, "\n")

	if _, err := s.db.Exec(cleanSchema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, GetSchemaVersion())
	return nil
}

func (s *IndexStore) Close() error {
	return s.db.Close()
}

func (s *IndexStore) UpsertFile(file *IndexedFile) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	result, err := s.db.Exec(`
		INSERT INTO files (path, kind, system, content_hash, status, error_message, indexed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			kind = excluded.kind,
			system = excluded.system,
			content_hash = excluded.content_hash,
			status = excluded.status,
			error_message = excluded.error_message,
			indexed_at = excluded.indexed_at,
			updated_at = CURRENT_TIMESTAMP
	`, file.Path, file.Kind, file.System, file.ContentHash, file.Status, file.ErrorMessage, now)

	if err != nil {
		return 0, fmt.Errorf("upsert file: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		row := s.db.QueryRow("SELECT id FROM files WHERE path = ?", file.Path)
		if err := row.Scan(&id); err != nil {
			return 0, fmt.Errorf("get file id: %w", err)
		}
	}

	return id, nil
}

func (s *IndexStore) GetFile(path string) (*IndexedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanFile(s.db.QueryRow(`
		SELECT id, path, kind, system, content_hash, status, error_message, indexed_at, updated_at
		FROM files WHERE path = ?
	`, path))
}

func (s *IndexStore) GetFileByID(id int64) (*IndexedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.scanFile(s.db.QueryRow(`
		SELECT id, path, kind, system, content_hash, status, error_message, indexed_at, updated_at
		FROM files WHERE id = ?
	`, id))
}

func (s *IndexStore) scanFile(row *sql.Row) (*IndexedFile, error) {
	file := &IndexedFile{}
	var system, hash, errorMsg sql.NullString
	var indexedAt, updatedAt sql.NullTime

	err := row.Scan(
		&file.ID, &file.Path, &file.Kind, &system, &hash,
		&file.Status, &errorMsg, &indexedAt, &updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	if system.Valid {
		file.System = system.String
	}
	if hash.Valid {
		file.ContentHash = hash.String
	}
	if errorMsg.Valid {
		file.ErrorMessage = errorMsg.String
	}
	if indexedAt.Valid {
		file.IndexedAt = indexedAt.Time
	}
	if updatedAt.Valid {
		file.UpdatedAt = updatedAt.Time
	}

	return file, nil
}

func (s *IndexStore) DeleteFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM files WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (s *IndexStore) UpdateFileStatus(path string, status FileStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	_, err := s.db.Exec(`
		UPDATE files SET status = ?, error_message = ?, updated_at = ? WHERE path = ?
	`, status, errorMsg, now, path)

	if err != nil {
		return fmt.Errorf("update file status: %w", err)
	}

	return nil
}

// InsertVariables replaces the variable rows of a file in one transaction.
func (s *IndexStore) InsertVariables(fileID int64, vars []*IndexedVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec("DELETE FROM variables WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("clear variables: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO variables (file_id, name, unit, col, points)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, v := range vars {
		_, err := stmt.Exec(fileID, v.Name, v.Unit, v.Col, v.Points)
		if err != nil {
			return fmt.Errorf("insert variable %s: %w", v.Name, err)
		}
	}

	return tx.Commit()
}

func (s *IndexStore) GetVariablesByFile(fileID int64) ([]*IndexedVariable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, file_id, name, unit, col, points
		FROM variables WHERE file_id = ? ORDER BY col ASC
	`, fileID)

	if err != nil {
		return nil, fmt.Errorf("get variables by file: %w", err)
	}
	defer rows.Close()

	return scanVariables(rows)
}

// SearchVariables runs an FTS match over variable titles and units.
func (s *IndexStore) SearchVariables(query string, limit int) ([]*IndexedVariable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT v.id, v.file_id, v.name, v.unit, v.col, v.points
		FROM variables v
		INNER JOIN variables_fts fts ON v.id = fts.rowid
		WHERE variables_fts MATCH ? LIMIT ?
	`, query, limit)

	if err != nil {
		return nil, fmt.Errorf("search variables: %w", err)
	}
	defer rows.Close()

	return scanVariables(rows)
}

func scanVariables(rows *sql.Rows) ([]*IndexedVariable, error) {
	var vars []*IndexedVariable

	for rows.Next() {
		v := &IndexedVariable{}
		var unit sql.NullString

		if err := rows.Scan(&v.ID, &v.FileID, &v.Name, &unit, &v.Col, &v.Points); err != nil {
			return nil, fmt.Errorf("scan variable: %w", err)
		}
		if unit.Valid {
			v.Unit = unit.String
		}

		vars = append(vars, v)
	}

	return vars, rows.Err()
}

func (s *IndexStore) InsertRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO runs (id, system, solver, status, error_message, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.ID, run.System, run.Solver, run.Status, run.ErrorMessage, run.StartedAt.UTC())

	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *IndexStore) UpdateRun(id string, status RunStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?
	`, status, errorMsg, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func (s *IndexStore) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run := &Run{}
	var solver, errorMsg sql.NullString
	var startedAt, finishedAt sql.NullTime

	err := s.db.QueryRow(`
		SELECT id, system, solver, status, error_message, started_at, finished_at
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.System, &solver, &run.Status, &errorMsg, &startedAt, &finishedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	if solver.Valid {
		run.Solver = solver.String
	}
	if errorMsg.Valid {
		run.ErrorMessage = errorMsg.String
	}
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	return run, nil
}

func (s *IndexStore) RecentRuns(limit int) ([]*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, system, solver, status, error_message, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)

	if err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var solver, errorMsg sql.NullString
		var startedAt, finishedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.System, &solver, &run.Status, &errorMsg, &startedAt, &finishedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		if solver.Valid {
			run.Solver = solver.String
		}
		if errorMsg.Valid {
			run.ErrorMessage = errorMsg.String
		}
		if startedAt.Valid {
			run.StartedAt = startedAt.Time
		}
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *IndexStore) GetStats() (*IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &IndexStats{}
	var lastIndexed sql.NullTime

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total_files,
			COALESCE(SUM(CASE WHEN status = 'indexed' THEN 1 ELSE 0 END), 0) as indexed_files,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed_files,
			COALESCE(SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END), 0) as skipped_files,
			MAX(indexed_at) as last_indexed_at
		FROM files
	`).Scan(&stats.TotalFiles, &stats.IndexedFiles, &stats.FailedFiles, &stats.SkippedFiles, &lastIndexed)

	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	if lastIndexed.Valid {
		stats.LastIndexedAt = lastIndexed.Time
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM variables").Scan(&stats.TotalVariables)
	if err != nil {
		return nil, fmt.Errorf("get variable count: %w", err)
	}

	return stats, nil
}
