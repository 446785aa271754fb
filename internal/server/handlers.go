package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/models"
	"github.com/hyperjump/planreview/internal/report"
	"github.com/hyperjump/planreview/internal/rulegen"
	"github.com/hyperjump/planreview/internal/service"
	"github.com/hyperjump/planreview/internal/standards"
	"github.com/hyperjump/planreview/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.service.Status(r.Context())
	if err != nil {
		s.respondServiceError(w, "status", err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

type createProjectRequest struct {
	Name string `json:"name"`
	Type string `json:"project_type"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := s.service.CreateProject(r.Context(), req.Name, req.Type)
	if err != nil {
		s.respondServiceError(w, "create project", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 0)
	projects, err := s.service.ListProjects(r.Context(), offset, limit)
	if err != nil {
		s.respondServiceError(w, "list projects", err)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.service.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "list reviews", err)
		return
	}
	if reviews == nil {
		reviews = []*models.ReviewRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"reviews": reviews})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	projectID := chi.URLParam(r, "id")
	s.logger.Debug("upload document request", zap.String("project_id", projectID), zap.String("file", header.Filename))
	doc, err := s.service.UploadDocument(r.Context(), projectID, header.Filename, file)
	if err != nil {
		s.respondServiceError(w, "upload document", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleParseDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.ParseDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil && doc != nil {
		// Extraction failed; the document is stored as 解析失败.
		s.logger.Warn("parse document failed", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		s.respondServiceError(w, "parse document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleReviewDocument(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.ReviewDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "review document", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	rep, err := s.service.Report(r.Context(), id)
	if err != nil {
		s.respondServiceError(w, "report", err)
		return
	}
	var buf bytes.Buffer
	if err := s.service.Export(rep, format, &buf); err != nil {
		s.respondServiceError(w, "report export", err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format != report.FormatJSON {
		w.Header().Set("Content-Disposition", `attachment; filename="report_`+id+format.Extension()+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleReviewPoints(w http.ResponseWriter, r *http.Request) {
	lib := s.service.Library()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":           lib.Version(),
		"required_chapters": lib.RequiredChapters(),
		"review_points":     lib.All(),
	})
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	list, err := s.service.ListRules(r.Context(), activeOnly)
	if err != nil {
		s.respondServiceError(w, "list rules", err)
		return
	}
	if list == nil {
		list = []*models.RuleRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules":  list,
		"active": s.service.Engine().Rules(),
	})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var in service.RuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.service.CreateRule(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, "create rule", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var in service.RuleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := s.service.UpdateRule(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.respondServiceError(w, "update rule", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.service.DeleteRule(r.Context(), id); err != nil {
		s.respondServiceError(w, "delete rule", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleListStandards(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListStandards(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		s.respondServiceError(w, "list standards", err)
		return
	}
	if list == nil {
		list = []*models.Standard{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"standards": list})
}

func (s *Server) handleAddStandard(w http.ResponseWriter, r *http.Request) {
	if !s.parseUpload(w, r) {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	st, err := s.service.AddStandard(r.Context(), r.FormValue("name"), r.FormValue("category"), header.Filename, file)
	if err != nil {
		s.respondServiceError(w, "add standard", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, st)
}

func (s *Server) handleSearchStandards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hits, err := s.service.SearchStandards(r.Context(), q.Get("q"), q.Get("category"), queryInt(r, "limit", 0))
	if err != nil {
		s.respondServiceError(w, "search standards", err)
		return
	}
	if hits == nil {
		hits = []standards.Hit{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"results": hits})
}

func (s *Server) handleGenerateRules(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.GenerateRules(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, "generate rules", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"rules": records})
}

func (s *Server) handleAIModels(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"models":  rulegen.Models(),
		"current": s.service.GeneratorModel(),
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}

// parseUpload parses a multipart upload whose body may exceed the upload size
// limit by at most maxMultipartOverhead. It responds and returns false when the
// form cannot be used.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.service.MaxUploadSize()+maxMultipartOverhead)
	err := r.ParseMultipartForm(maxMultipartMemory)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	case err != nil:
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return false
	}
	return true
}

// respondServiceError maps service errors onto status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnsupportedFileType),
		errors.Is(err, standards.ErrEmptyQuery),
		errors.Is(err, report.ErrUnsupportedFormat):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrFileTooLarge):
		s.respondError(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, service.ErrNotParsed):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStandardsDisabled):
		s.respondError(w, http.StatusNotImplemented, err.Error())
	default:
		s.logger.Error(op+" failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
