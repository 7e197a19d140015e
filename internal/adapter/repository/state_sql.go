package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // ensure postgres driver available
	_ "github.com/mattn/go-sqlite3" // ensure sqlite driver available

	"github.com/hvirta/sanatreeni/internal/entity"
)

const stateSchema = `
CREATE TABLE IF NOT EXISTS app_state (
	name       TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLStateRepository stores blobs in an app_state table, one row per blob.
// The same implementation serves sqlite and postgres; sqlx rebinds the
// placeholders per driver.
type SQLStateRepository struct {
	db *sqlx.DB
}

// NewSQLiteStateRepository opens (and creates when missing) a sqlite file
// store at the given path.
func NewSQLiteStateRepository(path string) (*SQLStateRepository, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite state store: %w", err)
	}
	// sqlite tolerates a single writer only
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite state store: %w", err)
	}
	repo := &SQLStateRepository{db: db}
	if err := repo.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewPostgresStateRepository connects to a postgres database identified by
// the DSN.
func NewPostgresStateRepository(dsn string) (*SQLStateRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres state store: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	repo := &SQLStateRepository{db: db}
	if err := repo.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLStateRepository) ensureSchema() error {
	if _, err := r.db.Exec(stateSchema); err != nil {
		return fmt.Errorf("create app_state table: %w", err)
	}
	return nil
}

func (r *SQLStateRepository) Load(ctx context.Context, name string) ([]byte, error) {
	var content string
	query := r.db.Rebind("SELECT content FROM app_state WHERE name = ?")
	if err := r.db.GetContext(ctx, &content, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", name, entity.ErrBlobNotFound)
		}
		return nil, fmt.Errorf("load state blob %s: %w", name, err)
	}
	return []byte(content), nil
}

func (r *SQLStateRepository) Save(ctx context.Context, name string, content []byte) error {
	query := r.db.Rebind(`INSERT INTO app_state (name, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`)
	if _, err := r.db.ExecContext(ctx, query, name, string(content), time.Now().UTC()); err != nil {
		return fmt.Errorf("save state blob %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *SQLStateRepository) Close() error {
	return r.db.Close()
}
