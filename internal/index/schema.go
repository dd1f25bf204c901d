package index

const SchemaVersion = 1

const schemaSQL = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

-- Indexed data files (.results/.var pairs and .mat containers)
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT UNIQUE NOT NULL,
    kind TEXT NOT NULL,
    system TEXT,
    content_hash TEXT,
    status TEXT DEFAULT 'pending',
    error_message TEXT,
    indexed_at DATETIME,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_files_path ON files(path);
CREATE INDEX IF NOT EXISTS idx_files_status ON files(status);
CREATE INDEX IF NOT EXISTS idx_files_kind ON files(kind);

-- Variables extracted from data files
CREATE TABLE IF NOT EXISTS variables (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    file_id INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    unit TEXT,
    col INTEGER NOT NULL,
    points INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_variables_file ON variables(file_id);
CREATE INDEX IF NOT EXISTS idx_variables_name ON variables(name);

-- FTS5 for fast variable title search
CREATE VIRTUAL TABLE IF NOT EXISTS variables_fts USING fts5(
    name, unit,
    content=variables,
    content_rowid=id
);

-- Triggers to keep FTS5 in sync
CREATE TRIGGER IF NOT EXISTS variables_ai AFTER INSERT ON variables BEGIN
    INSERT INTO variables_fts(rowid, name, unit)
    VALUES (NEW.id, NEW.name, NEW.unit);
END;

CREATE TRIGGER IF NOT EXISTS variables_ad AFTER DELETE ON variables BEGIN
    INSERT INTO variables_fts(variables_fts, rowid, name, unit)
    VALUES ('delete', OLD.id, OLD.name, OLD.unit);
END;

CREATE TRIGGER IF NOT EXISTS variables_au AFTER UPDATE ON variables BEGIN
    INSERT INTO variables_fts(variables_fts, rowid, name, unit)
    VALUES ('delete', OLD.id, OLD.name, OLD.unit);
    INSERT INTO variables_fts(rowid, name, unit)
    VALUES (NEW.id, NEW.name, NEW.unit);
END;

-- Solver run history
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    system TEXT NOT NULL,
    solver TEXT,
    status TEXT NOT NULL,
    error_message TEXT,
    started_at DATETIME,
    finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_system ON runs(system);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func GetSchema() string {
	return schemaSQL
}

func GetSchemaVersion() int {
	return SchemaVersion
}
