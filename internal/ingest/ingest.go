// Package ingest brings papers into the system: fetched from arXiv, uploaded
// via the API, or picked up from the local drop folder. Every ingested paper
// is stored, embedded into the vector index, and added to the keyword index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/arxiv"
	"github.com/arxivmind/arxivmind/internal/extract"
	"github.com/arxivmind/arxivmind/internal/keyword"
	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/paperid"
	"github.com/arxivmind/arxivmind/internal/retriever"
	"github.com/arxivmind/arxivmind/internal/storage"
	"github.com/arxivmind/arxivmind/pkg/utils"
)

// abstractChars caps the abstract synthesized from a local file's text.
const abstractChars = 500

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// Ingestor coordinates storage, embedding, and keyword indexing for new papers.
type Ingestor struct {
	storage      storage.Storage
	retriever    *retriever.Retriever
	keywordIndex keyword.KeywordIndex
	arxiv        *arxiv.Client
	extractor    *extract.Extractor
	logger       *zap.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithLogger sets the logger used for ingest events.
func WithLogger(l *zap.Logger) Option {
	return func(in *Ingestor) { in.logger = l }
}

// WithArxivClient sets the client used for arXiv fetches.
func WithArxivClient(c *arxiv.Client) Option {
	return func(in *Ingestor) { in.arxiv = c }
}

// New creates an ingestor. extractor may be nil, in which case local files
// are read as plain text.
func New(
	store storage.Storage,
	r *retriever.Retriever,
	keywordIndex keyword.KeywordIndex,
	extractor *extract.Extractor,
	opts ...Option,
) *Ingestor {
	in := &Ingestor{
		storage:      store,
		retriever:    r,
		keywordIndex: keywordIndex,
		extractor:    extractor,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.arxiv == nil {
		in.arxiv = arxiv.NewClient()
	}
	return in
}

// IngestPaper stores the paper and indexes it for keyword and similarity
// search. An existing ID is updated in place.
func (in *Ingestor) IngestPaper(ctx context.Context, paper *models.Paper) error {
	if paper.ID == "" {
		paper.ID = uuid.New().String()
	}
	if paper.Title == "" {
		return fmt.Errorf("paper %s has no title", paper.ID)
	}
	if err := in.storage.UpsertPaper(ctx, paper); err != nil {
		return fmt.Errorf("store paper: %w", err)
	}
	if err := in.retriever.AddPaper(ctx, paper); err != nil {
		return fmt.Errorf("embed paper: %w", err)
	}
	if err := in.keywordIndex.Index(ctx, paper); err != nil {
		return fmt.Errorf("keyword index paper: %w", err)
	}
	in.logger.Info("paper ingested",
		zap.String("id", paper.ID),
		zap.String("source", paper.Source),
		zap.String("title", paper.Title))
	return nil
}

// IngestArxivQuery searches arXiv and ingests every returned paper. It
// returns the ingested papers and fails on the first paper that cannot be
// ingested; papers ingested before the failure stay ingested.
func (in *Ingestor) IngestArxivQuery(ctx context.Context, query string, maxResults int) ([]*models.Paper, error) {
	papers, err := in.arxiv.Search(ctx, query, maxResults)
	if err != nil {
		return nil, fmt.Errorf("arxiv search: %w", err)
	}
	return in.ingestAll(ctx, papers)
}

// IngestArxivIDs fetches the given arXiv IDs and ingests them. IDs may be
// bare ("2301.00001"), versioned, or full abs URLs.
func (in *Ingestor) IngestArxivIDs(ctx context.Context, ids []string) ([]*models.Paper, error) {
	normalized := make([]string, len(ids))
	for i, id := range ids {
		normalized[i] = arxiv.NormalizeID(id)
	}
	papers, err := in.arxiv.FetchByIDs(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("arxiv fetch: %w", err)
	}
	return in.ingestAll(ctx, papers)
}

func (in *Ingestor) ingestAll(ctx context.Context, papers []*models.Paper) ([]*models.Paper, error) {
	for _, p := range papers {
		if err := in.IngestPaper(ctx, p); err != nil {
			return nil, err
		}
	}
	return papers, nil
}

// IngestFile extracts text from a local file and ingests it as a paper. The
// paper ID is derived from the absolute path, so re-ingesting an updated file
// replaces the same paper. Unchanged files (same mtime and size as last
// ingest) are skipped.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (*models.Paper, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	id := paperid.FromPath(absPath)
	if in.unchanged(ctx, id, absPath, info) {
		in.logger.Debug("file unchanged, skipping", zap.String("path", absPath))
		return in.storage.GetPaper(ctx, id)
	}

	text, err := in.extractText(absPath)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", absPath, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", absPath)
	}

	paper := &models.Paper{
		ID:       id,
		Title:    titleFromFilename(absPath),
		Abstract: utils.TruncateRunes(utils.CollapseWhitespace(text), abstractChars),
		Source:   "upload",
		Content:  text,
		Metadata: map[string]interface{}{
			metaKeySourcePath: absPath,
			// Stored as strings: UnixNano does not survive a JSON float64 round trip.
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	if err := in.IngestPaper(ctx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// IngestBytes ingests uploaded file content without touching the filesystem.
// filename determines the extraction format and the paper title.
func (in *Ingestor) IngestBytes(ctx context.Context, filename string, content []byte) (*models.Paper, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	var (
		text string
		err  error
	)
	if in.extractor != nil {
		text, err = in.extractor.ExtractBytes(content, ext)
	} else {
		text = string(content)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("no text extracted from %s", filename)
	}

	paper := &models.Paper{
		ID:       uuid.New().String(),
		Title:    titleFromFilename(filename),
		Abstract: utils.TruncateRunes(utils.CollapseWhitespace(text), abstractChars),
		Source:   "upload",
		Content:  text,
		Metadata: map[string]interface{}{"filename": filepath.Base(filename)},
	}
	if err := in.IngestPaper(ctx, paper); err != nil {
		return nil, err
	}
	return paper, nil
}

// IngestDirectory walks dir and ingests every regular file whose extension is
// in allowedExts (all files when the list is empty). It returns the number of
// papers ingested and the first error, if any.
func (in *Ingestor) IngestDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	n := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !ExtensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if _, ingestErr := in.IngestFile(ctx, path); ingestErr != nil {
			return ingestErr
		}
		n++
		return nil
	})
	return n, err
}

// Delete removes the paper from storage and both indexes. Analyses stored for
// the paper are removed with it.
func (in *Ingestor) Delete(ctx context.Context, id string) error {
	if err := in.keywordIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete from keyword index: %w", err)
	}
	if err := in.retriever.RemovePaper(ctx, id); err != nil {
		return fmt.Errorf("delete from vector index: %w", err)
	}
	if err := in.storage.DeletePaper(ctx, id); err != nil {
		return fmt.Errorf("delete paper: %w", err)
	}
	in.logger.Info("paper deleted", zap.String("id", id))
	return nil
}

// unchanged reports whether the stored paper for id came from the same path
// with the same mtime and size.
func (in *Ingestor) unchanged(ctx context.Context, id, absPath string, info os.FileInfo) bool {
	paper, err := in.storage.GetPaper(ctx, id)
	if err != nil || paper.Metadata == nil {
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			in.logger.Warn("lookup for change check failed", zap.String("id", id), zap.Error(err))
		}
		return false
	}
	if paper.Metadata[metaKeySourcePath] != absPath {
		return false
	}
	return metadataInt64(paper.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(paper.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func (in *Ingestor) extractText(path string) (string, error) {
	if in.extractor != nil {
		return in.extractor.Extract(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// titleFromFilename turns "deep_residual_learning.pdf" into
// "deep residual learning". Underscores become spaces so the keyword
// analyzer can match the individual words.
func titleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

// ExtensionAllowed reports whether ext is in the allowed list. The comparison
// ignores case and leading dots; an empty list allows everything.
func ExtensionAllowed(ext string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	norm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == norm {
			return true
		}
	}
	return false
}
