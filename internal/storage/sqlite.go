// internal/storage/sqlite.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"nutriscan/internal/models"
)

// Fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS kv_store (
        key TEXT PRIMARY KEY,
        value BLOB NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS scans (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        product_id TEXT NOT NULL,
        product_name TEXT NOT NULL,
        score INTEGER NOT NULL,
        category TEXT NOT NULL,
        scanned_at TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS scan_levels (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        scan_id INTEGER NOT NULL,
        nutrient TEXT NOT NULL,
        level TEXT NOT NULL,
        FOREIGN KEY (scan_id) REFERENCES scans(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_scans_scanned_at ON scans(scanned_at);
    CREATE INDEX IF NOT EXISTS idx_scan_levels_scan_id ON scan_levels(scan_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Get returns the value stored under key. The bool is false when the key was
// never written.
func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Put replaces the value stored under key in a single statement.
func (s *SQLiteStorage) Put(ctx context.Context, key string, value []byte) error {
	query := `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `
	if value == nil {
		value = []byte{}
	}
	if _, err := s.db.ExecContext(ctx, query, key, value, time.Now().UTC().Format(timeLayout)); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStorage) SaveScan(ctx context.Context, scan *models.ScanEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	scanQuery := `
        INSERT INTO scans (product_id, product_name, score, category, scanned_at)
        VALUES (?, ?, ?, ?, ?)
    `
	res, err := tx.ExecContext(ctx, scanQuery,
		scan.ProductID, scan.ProductName, scan.Score,
		string(scan.Category), scan.ScannedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to insert scan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read scan id: %w", err)
	}

	levelQuery := `
        INSERT INTO scan_levels (scan_id, nutrient, level)
        VALUES (?, ?, ?)
    `
	for _, key := range models.NutrientKeys {
		level, ok := scan.Levels[key]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, levelQuery, id, string(key), string(level)); err != nil {
			return fmt.Errorf("failed to insert scan level: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit scan: %w", err)
	}
	scan.ID = id
	return nil
}

// GetScans returns the most recent scans first.
func (s *SQLiteStorage) GetScans(ctx context.Context, limit int) ([]*models.ScanEntry, error) {
	query := `
        SELECT id, product_id, product_name, score, category, scanned_at
        FROM scans
        ORDER BY scanned_at DESC, id DESC
        LIMIT ?
    `

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	scans := []*models.ScanEntry{}
	for rows.Next() {
		scan := &models.ScanEntry{}
		var categoryStr, scannedAtStr string

		if err := rows.Scan(&scan.ID, &scan.ProductID, &scan.ProductName, &scan.Score, &categoryStr, &scannedAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if scan.ScannedAt, err = time.Parse(timeLayout, scannedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse scanned_at: %w", err)
		}
		scan.Category = models.Category(categoryStr)
		scans = append(scans, scan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	rows.Close()

	for _, scan := range scans {
		if err := s.loadLevelsForScan(ctx, scan); err != nil {
			return nil, fmt.Errorf("failed to load levels for scan %d: %w", scan.ID, err)
		}
	}

	return scans, nil
}

func (s *SQLiteStorage) loadLevelsForScan(ctx context.Context, scan *models.ScanEntry) error {
	query := `
        SELECT nutrient, level
        FROM scan_levels
        WHERE scan_id = ?
        ORDER BY id
    `

	rows, err := s.db.QueryContext(ctx, query, scan.ID)
	if err != nil {
		return fmt.Errorf("failed to query levels: %w", err)
	}
	defer rows.Close()

	levels := map[models.NutrientKey]models.Level{}
	for rows.Next() {
		var nutrient, level string
		if err := rows.Scan(&nutrient, &level); err != nil {
			return fmt.Errorf("failed to scan level: %w", err)
		}
		levels[models.NutrientKey(nutrient)] = models.Level(level)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate levels: %w", err)
	}

	scan.Levels = levels
	return nil
}
