package pathlib

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"mindloop/internal/logging"
	"mindloop/internal/types"
)

// SQLiteBackend persists paths in one table keyed by path_id, with the
// metadata serialized as a JSON document in one column and indexes on
// strategy_id, path_type and created_at.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteBackend opens (or creates) the SQLite database at the given path.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewSQLiteBackend")
	defer timer.Stop()

	if path == "" {
		return nil, fmt.Errorf("sqlite backend: database path required")
	}

	logging.Store("Initializing path store at: %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("sqlite backend: failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("sqlite backend: failed to set busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("sqlite backend: failed to set journal_mode=WAL: %v", err)
	}
	// synchronous=NORMAL is safe with WAL and much faster than FULL.
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.StoreDebug("sqlite backend: failed to set synchronous=NORMAL: %v", err)
	}

	b := &SQLiteBackend{db: db, dbPath: path}
	if err := b.initializeSchema(); err != nil {
		db.Close()
		return nil, err
	}
	logging.StoreDebug("sqlite backend: schema initialized")
	return b, nil
}

func (b *SQLiteBackend) initializeSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reasoning_paths (
		path_id TEXT PRIMARY KEY,
		path_type TEXT NOT NULL,
		description TEXT,
		prompt_template TEXT,
		strategy_id TEXT,
		instance_id TEXT,
		metadata_doc TEXT NOT NULL,
		is_learned INTEGER DEFAULT 0,
		learning_source TEXT,
		effectiveness_score REAL DEFAULT 0.5,
		created_at DATETIME,
		updated_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_paths_strategy ON reasoning_paths(strategy_id);
	CREATE INDEX IF NOT EXISTS idx_paths_type ON reasoning_paths(path_type);
	CREATE INDEX IF NOT EXISTS idx_paths_created ON reasoning_paths(created_at);
	`
	if _, err := b.db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite backend: failed to create schema: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

// Load reads all rows. Rows with malformed metadata are skipped with a warning.
func (b *SQLiteBackend) Load() (map[string]*types.ReasoningPath, error) {
	timer := logging.StartTimer(logging.CategoryStore, "SQLiteBackend.Load")
	defer timer.Stop()

	rows, err := b.db.Query(`
		SELECT path_id, path_type, description, prompt_template, strategy_id,
		       instance_id, metadata_doc, is_learned, learning_source,
		       effectiveness_score
		FROM reasoning_paths`)
	if err != nil {
		return nil, fmt.Errorf("sqlite backend: query failed: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*types.ReasoningPath)
	for rows.Next() {
		var (
			p          types.ReasoningPath
			instanceID sql.NullString
			metaDoc    string
			isLearned  int
			learnSrc   sql.NullString
		)
		if err := rows.Scan(&p.PathID, &p.PathType, &p.Description,
			&p.PromptTemplate, &p.StrategyID, &instanceID, &metaDoc,
			&isLearned, &learnSrc, &p.EffectivenessScore); err != nil {
			return nil, fmt.Errorf("sqlite backend: scan failed: %w", err)
		}
		if err := json.Unmarshal([]byte(metaDoc), &p.Metadata); err != nil {
			logging.Get(logging.CategoryStore).Warn("sqlite backend: skipping %s: malformed metadata: %v", p.PathID, err)
			continue
		}
		p.InstanceID = instanceID.String
		p.IsLearned = isLearned != 0
		p.LearningSource = learnSrc.String
		out[p.PathID] = &p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite backend: row iteration failed: %w", err)
	}
	logging.StoreDebug("sqlite backend: loaded %d paths", len(out))
	return out, nil
}

// Save upserts one path.
func (b *SQLiteBackend) Save(p *types.ReasoningPath) error {
	return b.upsert(b.db, p)
}

// SaveAll upserts a batch inside one transaction.
func (b *SQLiteBackend) SaveAll(paths []*types.ReasoningPath) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite backend: begin failed: %w", err)
	}
	for _, p := range paths {
		if err := b.upsert(tx, p); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// execer covers *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (b *SQLiteBackend) upsert(e execer, p *types.ReasoningPath) error {
	metaDoc, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite backend: failed to marshal metadata for %s: %w", p.PathID, err)
	}
	isLearned := 0
	if p.IsLearned {
		isLearned = 1
	}
	_, err = e.Exec(`
		INSERT INTO reasoning_paths
			(path_id, path_type, description, prompt_template, strategy_id,
			 instance_id, metadata_doc, is_learned, learning_source,
			 effectiveness_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path_id) DO UPDATE SET
			path_type = excluded.path_type,
			description = excluded.description,
			prompt_template = excluded.prompt_template,
			strategy_id = excluded.strategy_id,
			instance_id = excluded.instance_id,
			metadata_doc = excluded.metadata_doc,
			is_learned = excluded.is_learned,
			learning_source = excluded.learning_source,
			effectiveness_score = excluded.effectiveness_score,
			updated_at = excluded.updated_at`,
		p.PathID, p.PathType, p.Description, p.PromptTemplate, p.StrategyID,
		p.InstanceID, string(metaDoc), isLearned, p.LearningSource,
		p.EffectivenessScore,
		p.Metadata.CreatedAt.UTC().Format(time.RFC3339Nano),
		p.Metadata.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite backend: upsert %s failed: %w", p.PathID, err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
