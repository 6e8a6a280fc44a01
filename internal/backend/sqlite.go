package backend

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// searchCandidateLimit bounds how many rows are fetched for scoring per query.
const searchCandidateLimit = 200

// SQLiteBackend serves items from a SQLite database with native site filtering.
type SQLiteBackend struct {
	id string
	db *sql.DB
}

// NewSQLiteBackend opens or creates the database at path and initializes the
// schema. Parent directories are created if they do not exist.
func NewSQLiteBackend(id, path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBackend{id: id, db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		url TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		site TEXT DEFAULT '',
		score REAL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_site ON items(site);
	`
	_, err := db.Exec(schema)
	return err
}

func (s *SQLiteBackend) ID() string { return s.id }

func (s *SQLiteBackend) Capabilities() Capabilities {
	return Capabilities{
		SiteFiltering: true,
		MaxResults:    100,
		Description:   "sqlite item store with substring matching",
	}
}

// Search fetches candidate rows whose name or description contains any query
// token, then scores them by term coverage.
func (s *SQLiteBackend) Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	tokens := utils.Tokenize(text)
	if len(tokens) == 0 {
		return []models.Result{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(tokens)*2+2)
	sb.WriteString(`SELECT url, name, COALESCE(description, ''), COALESCE(site, '') FROM items WHERE (`)
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteString(" OR ")
		}
		sb.WriteString("name LIKE ? OR description LIKE ?")
		pattern := "%" + tok + "%"
		args = append(args, pattern, pattern)
	}
	sb.WriteString(")")
	if site != "" {
		sb.WriteString(" AND site = ?")
		args = append(args, site)
	}
	sb.WriteString(" LIMIT ?")
	args = append(args, searchCandidateLimit)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite search failed: %w", err)
	}
	defer rows.Close()

	results := make([]models.Result, 0, maxResults)
	for rows.Next() {
		var r models.Result
		if err := rows.Scan(&r.URL, &r.Name, &r.Description, &r.Site); err != nil {
			return nil, err
		}
		r.Score = scoreTokens(tokens, r.Name, r.Description)
		if r.Score <= 0 {
			continue
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

func (s *SQLiteBackend) Sites(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT site FROM items WHERE site != '' ORDER BY site`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *SQLiteBackend) GetByURL(ctx context.Context, url string) (*models.Result, error) {
	var r models.Result
	err := s.db.QueryRowContext(ctx,
		`SELECT url, name, COALESCE(description, ''), COALESCE(site, ''), score
		 FROM items WHERE url = ?`, url,
	).Scan(&r.URL, &r.Name, &r.Description, &r.Site, &r.Score)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Put upserts items keyed by URL in a single transaction.
func (s *SQLiteBackend) Put(ctx context.Context, items []models.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	for _, item := range items {
		if item.URL == "" || item.Name == "" {
			return fmt.Errorf("item needs name and url, got name=%q url=%q", item.Name, item.URL)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (url, name, description, site, score, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(url) DO UPDATE SET
			   name = excluded.name,
			   description = excluded.description,
			   site = excluded.site,
			   score = excluded.score,
			   updated_at = excluded.updated_at`,
			item.URL, item.Name, item.Description, item.Site, item.Score, now, now,
		); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", item.URL, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteBackend) Close() error {
	return s.db.Close()
}
