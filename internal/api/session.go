// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pdiddy/search-aggregator/pkg/types"
)

// FeatureStore records the per-session feature data that enrichment reads
// back. *features.Store implements it.
type FeatureStore interface {
	ListBookmarks(ctx context.Context, sessionID, userID string) ([]types.SessionBookmark, error)
	AddBookmark(ctx context.Context, sessionID, docID string, b types.Bookmark) error
	RemoveBookmark(ctx context.Context, sessionID, docID string) error
	AddAnnotation(ctx context.Context, sessionID, docID string, a types.Annotation) error
	SetRating(ctx context.Context, sessionID, docID, userID string, rating int) error
	AddView(ctx context.Context, sessionID, url, userID string) error
}

// WithFeatures serves the /v1/sessions routes backed by f.
func (s *Server) WithFeatures(f FeatureStore) *Server {
	s.features = f
	return s
}

func (s *Server) registerSessionRoutes(r chi.Router) {
	r.Route("/sessions/{sessionId}", func(r chi.Router) {
		r.Get("/bookmarks", s.handleListBookmarks)
		r.Put("/bookmarks/{docId}", s.handleAddBookmark)
		r.Delete("/bookmarks/{docId}", s.handleRemoveBookmark)
		r.Post("/annotations/{docId}", s.handleAddAnnotation)
		r.Put("/ratings/{docId}", s.handleSetRating)
		r.Post("/views", s.handleAddView)
	})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	marks, err := s.features.ListBookmarks(r.Context(), chi.URLParam(r, "sessionId"), r.URL.Query().Get("userId"))
	if err != nil {
		s.featureError(w, "list bookmarks", err)
		return
	}
	if marks == nil {
		marks = []types.SessionBookmark{}
	}
	writeJSON(w, http.StatusOK, marks)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		Starred  bool   `json:"starred"`
		Excluded bool   `json:"excluded"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "userId is required")
		return
	}
	b := types.Bookmark{UserID: req.UserID, Starred: req.Starred, Excluded: req.Excluded}
	if err := s.features.AddBookmark(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "docId"), b); err != nil {
		s.featureError(w, "add bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	if err := s.features.RemoveBookmark(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "docId")); err != nil {
		s.featureError(w, "remove bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddAnnotation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID     string `json:"userId"`
		Annotation string `json:"annotation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Annotation == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "userId and annotation are required")
		return
	}
	a := types.Annotation{UserID: req.UserID, Annotation: req.Annotation}
	if err := s.features.AddAnnotation(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "docId"), a); err != nil {
		s.featureError(w, "add annotation", err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleSetRating(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		Rating *int   `json:"rating"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Rating == nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "userId and rating are required")
		return
	}
	if err := s.features.SetRating(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "docId"), req.UserID, *req.Rating); err != nil {
		s.featureError(w, "set rating", err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL    string `json:"url"`
		UserID string `json:"userId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "url is required")
		return
	}
	if err := s.features.AddView(r.Context(), chi.URLParam(r, "sessionId"), req.URL, req.UserID); err != nil {
		s.featureError(w, "add view", err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) featureError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("feature store", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "", op+" failed")
}

