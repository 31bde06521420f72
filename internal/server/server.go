// Package server exposes the HTTP API: trend synthesis plus narrative
// analysis behind an entitlement gate, activation-code redemption, and
// the admin code-minting endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qiankun/internal/config"
	"qiankun/internal/logging"
	"qiankun/internal/oracle"
	"qiankun/internal/store"
	"qiankun/internal/trend"
	"qiankun/internal/types"
)

// NarrativeAnalyzer is the slice of the oracle the server needs; tests
// substitute a scripted implementation.
type NarrativeAnalyzer interface {
	Analyze(ctx context.Context, in types.Identity, series types.Series, lang types.Language) (types.Reading, error)
}

// Server wires the pipeline, the entitlement store and the HTTP surface.
type Server struct {
	cfg      config.ServerConfig
	analyzer NarrativeAnalyzer
	store    *store.Store
	log      *zap.Logger
}

// New builds a server.
func New(cfg config.ServerConfig, analyzer NarrativeAnalyzer, st *store.Store) *Server {
	return &Server{
		cfg:      cfg,
		analyzer: analyzer,
		store:    st,
		log:      logging.For(logging.CategoryServer),
	}
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/activate", s.handleActivate)
	mux.HandleFunc("POST /api/share", s.handleShare)
	mux.HandleFunc("GET /api/usage", s.handleUsage)
	mux.HandleFunc("POST /api/rating", s.handleSaveRating)
	mux.HandleFunc("GET /api/rating", s.handleGetRating)
	mux.HandleFunc("POST /admin/codes", s.handleAdminCodes)
	mux.HandleFunc("GET /admin/codes", s.handleAdminListCodes)
	return withCORS(mux)
}

// withCORS mirrors the public deployment: the API is called from a
// static page on another origin.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type analyzeRequest struct {
	Input    types.Identity `json:"input"`
	Lang     types.Language `json:"lang"`
	ClientID string         `json:"clientId"`
}

type analyzeResponse struct {
	ClientID string           `json:"clientId"`
	Series   types.Series     `json:"series"`
	Reading  types.Reading    `json:"reading"`
	Usage    types.UsageState `json:"usage"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = uuid.NewString()
	}

	state, err := s.store.GetUsage(clientID)
	if err != nil {
		s.log.Error("usage lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !state.Activated && state.Count >= s.cfg.FreeQuota+state.ExtraTrials {
		writeError(w, http.StatusPaymentRequired, "free quota exhausted")
		return
	}

	series, err := trend.Synthesize(req.Input)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid birth date")
		return
	}

	reading, err := s.analyzer.Analyze(r.Context(), req.Input, series, req.Lang)
	if err != nil {
		// Only a total transport failure reaches here; a received body
		// of any quality was already normalized.
		s.log.Error("narrative analysis failed", zap.Error(err), zap.Bool("all_failed", errors.Is(err, oracle.ErrAllCandidatesFailed)))
		writeError(w, http.StatusBadGateway, "narrative service unavailable")
		return
	}

	state, err = s.store.IncrementUsage(clientID)
	if err != nil {
		s.log.Error("usage increment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		ClientID: clientID,
		Series:   series,
		Reading:  reading,
		Usage:    state,
	})
}

type activateRequest struct {
	ClientID string `json:"clientId"`
	Code     string `json:"code"`
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "clientId and code are required")
		return
	}

	if err := s.store.Activate(req.ClientID, req.Code); err != nil {
		if errors.Is(err, store.ErrInvalidCode) {
			writeError(w, http.StatusForbidden, "invalid activation code")
			return
		}
		s.log.Error("activation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	state, err := s.store.GetUsage(req.ClientID)
	if err != nil {
		s.log.Error("usage lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type shareRequest struct {
	ClientID string `json:"clientId"`
}

// handleShare grants the share reward: one extra free reading.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}

	state, err := s.store.AddExtraTrial(req.ClientID)
	if err != nil {
		s.log.Error("share reward failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}
	state, err := s.store.GetUsage(clientID)
	if err != nil {
		s.log.Error("usage lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type ratingRequest struct {
	ClientID string `json:"clientId"`
	Rating   int    `json:"rating"`
}

func (s *Server) handleSaveRating(w http.ResponseWriter, r *http.Request) {
	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ClientID == "" || req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "clientId and a rating of 1-5 are required")
		return
	}
	if err := s.store.SaveRating(req.ClientID, req.Rating); err != nil {
		s.log.Error("rating save failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetRating returns the stored rating, zero when the client has
// not rated yet.
func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	clientID := r.URL.Query().Get("clientId")
	if clientID == "" {
		writeError(w, http.StatusBadRequest, "clientId is required")
		return
	}
	rating, err := s.store.GetRating(clientID)
	if err != nil {
		s.log.Error("rating lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rating": rating})
}

type adminCodesRequest struct {
	Amount int `json:"amount"`
}

// adminAuthorized checks the admin token header. An unset token keeps
// the admin surface closed rather than open.
func (s *Server) adminAuthorized(r *http.Request) bool {
	return s.cfg.AdminToken != "" && r.Header.Get("X-Admin-Token") == s.cfg.AdminToken
}

func (s *Server) handleAdminCodes(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req adminCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount < 1 || req.Amount > 100 {
		writeError(w, http.StatusBadRequest, "amount must be 1-100")
		return
	}

	codes, err := s.store.GenerateCodes(req.Amount)
	if err != nil {
		s.log.Error("code generation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.log.Info("activation codes generated", zap.Int("amount", len(codes)))
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

// handleAdminListCodes returns every minted code with its used status.
func (s *Server) handleAdminListCodes(w http.ResponseWriter, r *http.Request) {
	if !s.adminAuthorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	codes, err := s.store.ListCodes()
	if err != nil {
		s.log.Error("code listing failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"codes": codes})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
