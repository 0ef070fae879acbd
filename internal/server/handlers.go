package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/brainobs/internal/config"
	"github.com/hyperjump/brainobs/internal/fileid"
	"github.com/hyperjump/brainobs/internal/models"
	"github.com/hyperjump/brainobs/internal/storage"
	"github.com/hyperjump/brainobs/internal/tables"
)

const defaultFileLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type sessionsResponse struct {
	Index   string                `json:"index"`
	Mode    string                `json:"mode"`
	Columns []string              `json:"columns"`
	Rows    []models.OphysSession `json:"rows"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ophys, err := s.storage.ListOphysSessions(ctx)
	if err != nil {
		s.logger.Error("list ophys sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	behavior, err := s.storage.ListBehaviorSessions(ctx)
	if err != nil {
		s.logger.Error("list behavior sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	index := r.URL.Query().Get("index")
	if index == "" {
		index = s.config.Sessions.IndexColumn
	}
	suppress := append([]string(nil), s.config.Sessions.Suppress...)
	if q := r.URL.Query().Get("suppress"); q != "" {
		suppress = append(suppress, strings.Split(q, ",")...)
	}
	table := tables.NewSessionsTable(ophys, behavior,
		tables.WithIndexColumn(index),
		tables.WithSuppress(suppress...),
		tables.WithLogger(s.logger))
	mode := table.Postprocess()

	w.Header().Set("X-Index-Mode", mode.String())
	rows := table.Rows
	if rows == nil {
		rows = []models.OphysSession{}
	}
	s.respondJSON(w, http.StatusOK, sessionsResponse{
		Index:   table.Index,
		Mode:    mode.String(),
		Columns: table.Columns(),
		Rows:    rows,
	})
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	limit, err := queryInt(r, "limit", defaultFileLimit)
	if err != nil || limit <= 0 {
		s.respondError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	files, err := s.storage.ListFiles(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list files failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if files == nil {
		files = []*models.FileRecord{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"files": files, "offset": offset, "limit": limit})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	rec, err := s.storage.GetFileByID(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "file not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

type registerFileRequest struct {
	Path interface{} `json:"path"`
}

func (s *Server) handleRegisterFile(w http.ResponseWriter, r *http.Request) {
	var req registerFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == nil || req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	// Only JSON strings become paths; other values are left for the type check.
	value := req.Path
	if str, ok := req.Path.(string); ok {
		value = fileid.NewPath(str)
	}
	s.logger.Debug("register file request", zap.Any("path", req.Path))
	rec, err := s.files.RegisterValue(r.Context(), value)
	if err != nil {
		switch fileid.KindOf(err) {
		case fileid.TypeKind, fileid.SymlinkKind:
			s.respondError(w, http.StatusBadRequest, err.Error())
		case fileid.NotAFileKind:
			s.respondError(w, http.StatusNotFound, err.Error())
		default:
			s.logger.Error("register file failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.storage.CountSessions(ctx)
	if err != nil {
		s.logger.Error("status: count sessions failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	files, err := s.storage.CountFiles(ctx)
	if err != nil {
		s.logger.Error("status: count files failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"sessions": sessions,
		"files":    files,
		"config": map[string]interface{}{
			"database_path": s.config.Storage.DatabasePath,
			"id_strategy":   s.config.Data.IDStrategy,
			"index_column":  s.config.Sessions.IndexColumn,
		},
	}
	if diskBytes, err := storage.DiskUsageBytes(s.config.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.watch != nil {
		resp["directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.configPath != "" {
		s.configMu.Lock()
		s.config.Data.Directories = s.watch.Directories()
		err := config.Save(s.configPath, s.config)
		s.configMu.Unlock()
		if err != nil {
			s.logger.Warn("failed to persist data directories", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response failed", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
