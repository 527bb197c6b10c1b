package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/arxivmind/arxivmind/internal/models"
	"github.com/arxivmind/arxivmind/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paperCount, err := s.storage.CountPapers(ctx)
	if err != nil {
		s.logger.Error("status: count papers failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	analysisCount, err := s.storage.CountAnalyses(ctx)
	if err != nil {
		s.logger.Error("status: count analyses failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"papers":   paperCount,
		"analyses": analysisCount,
		"config": map[string]interface{}{
			"embedding_provider":   s.config.Embedding.Provider,
			"embedding_dimensions": s.config.Embedding.Dimensions,
			"analysis_model":       s.config.Analysis.Model,
		},
	}
	diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.BleveIndexPath,
		s.config.Storage.VectorIndexPath,
	)
	if err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArxivSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	max := s.config.Arxiv.MaxResults
	if v := r.URL.Query().Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "max must be a positive integer")
			return
		}
		max = n
	}

	papers, err := s.arxiv.Search(r.Context(), query, max)
	if err != nil {
		s.logger.Error("arxiv search failed", zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"papers": papers,
		"total":  len(papers),
	})
}

type arxivIngestRequest struct {
	Query      string   `json:"query,omitempty"`
	IDs        []string `json:"ids,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

func (s *Server) handleArxivIngest(w http.ResponseWriter, r *http.Request) {
	var req arxivIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" && len(req.IDs) == 0 {
		s.respondError(w, http.StatusBadRequest, "either query or ids is required")
		return
	}

	var (
		papers []*models.Paper
		err    error
	)
	if len(req.IDs) > 0 {
		papers, err = s.ingestor.IngestArxivIDs(r.Context(), req.IDs)
	} else {
		max := req.MaxResults
		if max <= 0 {
			max = s.config.Arxiv.MaxResults
		}
		papers, err = s.ingestor.IngestArxivQuery(r.Context(), req.Query, max)
	}
	if err != nil {
		s.logger.Error("arxiv ingest failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"papers": papers,
		"total":  len(papers),
	})
}

func (s *Server) handleListPapers(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	papers, err := s.storage.ListPapers(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list papers failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.storage.CountPapers(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"papers": papers,
		"total":  total,
	})
}

func (s *Server) handleAddPaper(w http.ResponseWriter, r *http.Request) {
	var input models.PaperInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if input.Title == "" {
		s.respondError(w, http.StatusBadRequest, "title is required")
		return
	}

	paper := &models.Paper{
		ID:       input.ID,
		Title:    input.Title,
		Abstract: input.Abstract,
		Authors:  input.Authors,
		Source:   "api",
		Content:  input.Content,
		Metadata: input.Metadata,
	}
	if err := s.ingestor.IngestPaper(r.Context(), paper); err != nil {
		s.logger.Error("add paper failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, paper)
}

func (s *Server) handleUploadPaper(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	paper, err := s.ingestor.IngestBytes(r.Context(), header.Filename, content)
	if err != nil {
		s.logger.Error("upload failed", zap.String("filename", header.Filename), zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, paper)
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	paper, err := s.storage.GetPaper(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	s.respondJSON(w, http.StatusOK, paper)
}

func (s *Server) handleDeletePaper(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.ingestor.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "paper not found")
			return
		}
		s.logger.Error("delete failed", zap.String("id", id), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetAnalyses(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.storage.GetPaper(r.Context(), id); err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}
	analyses, err := s.storage.GetAnalyses(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"analyses": analyses,
		"total":    len(analyses),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var query models.SimilarQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := query.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		results []*models.SimilarPaper
		err     error
	)
	if query.Text != "" {
		results, err = s.retriever.FindSimilarByText(r.Context(), query.Text, query.Limit)
	} else {
		results, err = s.retriever.FindSimilarByGroup(r.Context(), query.PaperIDs, query.Limit, query.ExcludeInput)
	}
	if err != nil {
		s.logger.Error("similarity search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &models.SimilarResponse{
		Results: results,
		Total:   len(results),
	})
}

type analyzeRequest struct {
	PaperID string `json:"paper_id"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, models.AnalysisKindPaper)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, models.AnalysisKindInsights)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	s.runAnalysis(w, r, models.AnalysisKindReview)
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, kind string) {
	if s.analyzer == nil {
		s.respondError(w, http.StatusNotImplemented, "analysis backend not configured")
		return
	}
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaperID == "" {
		s.respondError(w, http.StatusBadRequest, "paper_id is required")
		return
	}

	paper, err := s.storage.GetPaper(r.Context(), req.PaperID)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "paper not found")
		return
	}

	var result *models.PaperAnalysis
	switch kind {
	case models.AnalysisKindInsights:
		result, err = s.analyzer.Insights(r.Context(), paper)
	case models.AnalysisKindReview:
		result, err = s.analyzer.Review(r.Context(), paper)
	default:
		result, err = s.analyzer.AnalyzePaper(r.Context(), paper)
	}
	if err != nil {
		s.logger.Error("analysis failed",
			zap.String("paper_id", req.PaperID), zap.String("kind", kind), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.storage.SaveAnalysis(r.Context(), result); err != nil {
		s.logger.Warn("saving analysis failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, result)
}

type compareRequest struct {
	PaperIDs []string `json:"paper_ids"`
	RelatedK int      `json:"related_k,omitempty"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if s.comparator == nil {
		s.respondError(w, http.StatusNotImplemented, "analysis backend not configured")
		return
	}
	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.PaperIDs) < 2 {
		s.respondError(w, http.StatusBadRequest, "at least 2 paper_ids are required")
		return
	}

	papers := make([]*models.Paper, 0, len(req.PaperIDs))
	for _, id := range req.PaperIDs {
		paper, err := s.storage.GetPaper(r.Context(), id)
		if err != nil {
			s.respondError(w, http.StatusNotFound, "paper not found: "+id)
			return
		}
		papers = append(papers, paper)
	}

	relatedK := req.RelatedK
	if relatedK <= 0 {
		relatedK = s.config.Search.DefaultLimit
	}
	result, err := s.comparator.Compare(r.Context(), papers, relatedK)
	if err != nil {
		s.logger.Error("comparison failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if result.Failed() {
		s.respondJSON(w, http.StatusBadGateway, result)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
