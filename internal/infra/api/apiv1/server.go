package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"study-access-redemption/internal/domain"
	"study-access-redemption/internal/infra/logging"
	"study-access-redemption/internal/infra/web"
	"study-access-redemption/internal/usecase"
)

// Server exposes the redemption endpoint and the admin code-management API.
type Server struct {
	redeemUC *usecase.RedemptionUseCase
	codeUC   *usecase.CodeUseCase
	auth     *web.AuthManager
	apiKey   string
	log      *zerolog.Logger
}

func NewServer(
	redeemUC *usecase.RedemptionUseCase,
	codeUC *usecase.CodeUseCase,
	auth *web.AuthManager,
	apiKey string,
	logger *zerolog.Logger,
) *Server {
	srvLog := logger.With().Str("component", "apiv1").Logger()
	return &Server{
		redeemUC: redeemUC,
		codeUC:   codeUC,
		auth:     auth,
		apiKey:   apiKey,
		log:      &srvLog,
	}
}

// RegisterRoutes attaches all v1 routes to the router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/v1/redeem", s.handleRedeem)

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin)
		r.Post("/logout", s.handleAdminLogout)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/codes", s.handleIssueCodes)
			r.Get("/codes", s.handleListCodes)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
}

// ===== redemption =====

type redeemRequest struct {
	Code   string `json:"code"`
	UserID string `json:"userId"`
}

type redeemResponse struct {
	Success      bool   `json:"success"`
	DurationDays int    `json:"durationDays,omitempty"`
	Message      string `json:"message,omitempty"`
}

// decodeRedeemRequest tolerates a body delivered either as a raw JSON object
// or as a JSON-encoded string wrapping the object (some clients
// double-stringify the payload).
func decodeRedeemRequest(body []byte) (*redeemRequest, error) {
	var req redeemRequest
	if err := json.Unmarshal(body, &req); err == nil {
		return &req, nil
	}
	var wrapped string
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(wrapped), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (s *Server) handleRedeem(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, redeemResponse{Success: false, Message: "unreadable request body"})
		return
	}
	req, err := decodeRedeemRequest(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, redeemResponse{Success: false, Message: "malformed request body"})
		return
	}

	ctx := logging.WithUserID(r.Context(), req.UserID)
	res, err := s.redeemUC.Redeem(ctx, req.Code, req.UserID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, redeemResponse{Success: true, DurationDays: res.DurationDays})
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, redeemResponse{Success: false, Message: "code and userId are required"})
	case errors.Is(err, domain.ErrCodeNotFound):
		// A legitimate business outcome; callers branch on `success`,
		// not the status code.
		writeJSON(w, http.StatusOK, redeemResponse{Success: false, Message: "invalid or already used code"})
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("redemption failed")
		writeJSON(w, http.StatusInternalServerError, redeemResponse{Success: false, Message: err.Error()})
	}
}

// ===== admin =====

type adminLoginRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if _, err := s.auth.Mint(w); err != nil {
		http.Error(w, "Failed to mint session", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, _ *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// requireAdmin accepts either the raw API key as a bearer token or a minted
// session JWT (header or cookie).
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" {
			s.log.Error().Msg("admin API key is not configured")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		if hdr := r.Header.Get("Authorization"); hdr == "Bearer "+s.apiKey {
			next.ServeHTTP(w, r)
			return
		}
		if s.auth != nil {
			if _, err := s.auth.ParseFromRequest(r); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	})
}

type issueCodesRequest struct {
	Count        int `json:"count"`
	DurationDays int `json:"durationDays"`
}

type issuedCode struct {
	Code         string `json:"code"`
	DurationDays int    `json:"durationDays"`
}

func (s *Server) handleIssueCodes(w http.ResponseWriter, r *http.Request) {
	var req issueCodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		req.Count = 1
	}

	codes, err := s.codeUC.IssueBatch(r.Context(), req.Count, req.DurationDays)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to issue codes", http.StatusInternalServerError)
		return
	}

	out := make([]issuedCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, issuedCode{Code: c.Code, DurationDays: c.DurationDays})
	}
	writeJSON(w, http.StatusCreated, out)
}

type listedCode struct {
	Code         string     `json:"code"`
	DurationDays int        `json:"durationDays"`
	IsUsed       bool       `json:"isUsed"`
	UsedByUserID string     `json:"usedByUserId,omitempty"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (s *Server) handleListCodes(w http.ResponseWriter, r *http.Request) {
	codes, err := s.codeUC.List(r.Context(), 100)
	if err != nil {
		http.Error(w, "Failed to list codes", http.StatusInternalServerError)
		return
	}

	out := make([]listedCode, 0, len(codes))
	for _, c := range codes {
		lc := listedCode{
			Code:         c.Code,
			DurationDays: c.DurationDays,
			IsUsed:       c.IsUsed,
			UsedAt:       c.UsedAt,
			CreatedAt:    c.CreatedAt,
		}
		if c.UsedByUserID != nil {
			lc.UsedByUserID = *c.UsedByUserID
		}
		out = append(out, lc)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
