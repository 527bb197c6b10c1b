// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arxivmind/arxivmind/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		id TEXT PRIMARY KEY,
		title TEXT,
		abstract TEXT,
		authors TEXT,
		categories TEXT,
		source TEXT,
		url TEXT,
		published TEXT,
		content TEXT,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_papers_created_at ON papers(created_at);
	CREATE INDEX IF NOT EXISTS idx_papers_source ON papers(source);

	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		paper_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		sections TEXT NOT NULL,
		model TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_analyses_paper_id ON analyses(paper_id);
	CREATE INDEX IF NOT EXISTS idx_analyses_paper_kind ON analyses(paper_id, kind);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertPaper inserts the paper or replaces an existing row with the same ID.
// CreatedAt is preserved on update.
func (s *SQLiteStorage) UpsertPaper(ctx context.Context, paper *models.Paper) error {
	authorsJSON, err := json.Marshal(paper.Authors)
	if err != nil {
		return fmt.Errorf("failed to marshal authors: %w", err)
	}
	categoriesJSON, err := json.Marshal(paper.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}
	metadataJSON, err := json.Marshal(paper.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	now := time.Now()
	if paper.CreatedAt.IsZero() {
		paper.CreatedAt = now
	}
	paper.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO papers (id, title, abstract, authors, categories, source, url, published, content, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			authors = excluded.authors,
			categories = excluded.categories,
			source = excluded.source,
			url = excluded.url,
			published = excluded.published,
			content = excluded.content,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`,
		paper.ID, paper.Title, paper.Abstract, string(authorsJSON), string(categoriesJSON),
		paper.Source, paper.URL, paper.Published, paper.Content, string(metadataJSON),
		paper.CreatedAt, paper.UpdatedAt,
	)
	return err
}

// GetPaper returns a paper by ID, or ErrNotFound.
func (s *SQLiteStorage) GetPaper(ctx context.Context, id string) (*models.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, abstract, authors, categories, source, url, published, content, metadata, created_at, updated_at
		 FROM papers WHERE id = ?`, id)
	paper, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: paper %s", ErrNotFound, id)
	}
	return paper, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(row rowScanner) (*models.Paper, error) {
	var paper models.Paper
	var authorsJSON, categoriesJSON, metadataJSON string
	err := row.Scan(&paper.ID, &paper.Title, &paper.Abstract, &authorsJSON, &categoriesJSON,
		&paper.Source, &paper.URL, &paper.Published, &paper.Content, &metadataJSON,
		&paper.CreatedAt, &paper.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if authorsJSON != "" {
		_ = json.Unmarshal([]byte(authorsJSON), &paper.Authors)
	}
	if categoriesJSON != "" {
		_ = json.Unmarshal([]byte(categoriesJSON), &paper.Categories)
	}
	if metadataJSON != "" && metadataJSON != "null" {
		if err := json.Unmarshal([]byte(metadataJSON), &paper.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &paper, nil
}

// DeletePaper removes a paper and, via cascade, its analyses.
func (s *SQLiteStorage) DeletePaper(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: paper %s", ErrNotFound, id)
	}
	return nil
}

// ListPapers returns papers newest first with offset and limit.
func (s *SQLiteStorage) ListPapers(ctx context.Context, offset, limit int) ([]*models.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, abstract, authors, categories, source, url, published, content, metadata, created_at, updated_at
		 FROM papers ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var papers []*models.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}

// CountPapers returns the total number of papers.
func (s *SQLiteStorage) CountPapers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count)
	return count, err
}

// SaveAnalysis inserts an analysis result.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, a *models.PaperAnalysis) error {
	sectionsJSON, err := json.Marshal(a.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, paper_id, kind, sections, model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.PaperID, a.Kind, string(sectionsJSON), a.Model, a.CreatedAt,
	)
	return err
}

// GetAnalyses returns all analyses for a paper, newest first.
func (s *SQLiteStorage) GetAnalyses(ctx context.Context, paperID string) ([]*models.PaperAnalysis, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, paper_id, kind, sections, model, created_at
		 FROM analyses WHERE paper_id = ? ORDER BY created_at DESC`,
		paperID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*models.PaperAnalysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// LatestAnalysis returns the most recent analysis of the given kind for a
// paper, or ErrNotFound.
func (s *SQLiteStorage) LatestAnalysis(ctx context.Context, paperID, kind string) (*models.PaperAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, paper_id, kind, sections, model, created_at
		 FROM analyses WHERE paper_id = ? AND kind = ?
		 ORDER BY created_at DESC LIMIT 1`,
		paperID, kind,
	)
	a, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s analysis of paper %s", ErrNotFound, kind, paperID)
	}
	return a, err
}

func scanAnalysis(row rowScanner) (*models.PaperAnalysis, error) {
	var a models.PaperAnalysis
	var sectionsJSON string
	err := row.Scan(&a.ID, &a.PaperID, &a.Kind, &sectionsJSON, &a.Model, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sectionsJSON), &a.Sections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
	}
	return &a, nil
}

// CountAnalyses returns the total number of stored analyses.
func (s *SQLiteStorage) CountAnalyses(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
